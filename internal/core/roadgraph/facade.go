package roadgraph

import (
	"math/rand"
	"sync"
	"time"

	"github.com/passbi/ridesim/internal/core/domain"
)

// snapshot is the immutable-after-publish pair of all-pairs tables a
// Facade swaps in on construction and on every UpdateTraffic call. Workers
// in the matcher's candidate-generation phase fetch the snapshot pointer
// under a shared read lock and never block one another.
type snapshot struct {
	travelTime *AllPairsTable
	distance   *AllPairsTable
}

// Facade is the road graph surface the rest of the core talks to:
// distances, paths, area queries, and traffic updates over a graph whose
// edge speeds mutate only at update time.
type Facade struct {
	graph *Graph
	rng   *rand.Rand

	mu   sync.RWMutex
	snap *snapshot
}

// NewFacade builds the graph from ingested tuples and computes the
// initial all-pairs tables. seed makes congestion resampling reproducible
// alongside the rest of the simulation.
func NewFacade(nodes []NodeTuple, edges []EdgeTuple, seed int64) (*Facade, error) {
	g, err := NewGraph(nodes, edges)
	if err != nil {
		return nil, err
	}
	f := &Facade{graph: g, rng: rand.New(rand.NewSource(seed))}
	f.rebuild()
	return f, nil
}

func (f *Facade) rebuild() {
	snap := &snapshot{
		travelTime: BuildAllPairs(f.graph, func(e *Edge) float64 { return e.TravelTime() }),
		distance:   BuildAllPairs(f.graph, func(e *Edge) float64 { return e.Distance }),
	}
	f.mu.Lock()
	f.snap = snap
	f.mu.Unlock()
}

func (f *Facade) current() *snapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.snap
}

// Dist returns the shortest travel-time cost between u and v; +Inf if no
// path exists.
func (f *Facade) Dist(u, v NodeID) float64 { return f.current().travelTime.Dist(u, v) }

// RawDistance returns the shortest raw-distance cost between u and v.
func (f *Facade) RawDistance(u, v NodeID) float64 { return f.current().distance.Dist(u, v) }

// Path returns the ordered node sequence from u to v (empty if u == v).
func (f *Facade) Path(u, v NodeID) []NodeID { return f.current().travelTime.Path(u, v) }

// NodesWhere returns every node id satisfying predicate.
func (f *Facade) NodesWhere(predicate func(*Node) bool) []NodeID { return f.graph.NodesWhere(predicate) }

// EdgeBetween exposes the underlying graph edge for movement/advancement
// code that needs the current mutable speed, not just the all-pairs cost.
func (f *Facade) EdgeBetween(u, v NodeID) (*Edge, bool) { return f.graph.EdgeBetween(u, v) }

// Node looks up a node's coordinates/area tags.
func (f *Facade) Node(id NodeID) (*Node, bool) {
	n, ok := f.graph.Nodes[id]
	return n, ok
}

// UpdateTraffic resamples every edge's mutable Speed and rebuilds both
// all-pairs tables. Congestion-zone edges (center or residential) during a
// rush window draw Uniform(0.5, 0.9); all other edges draw Uniform(0.9, 1.0).
func (f *Facade) UpdateTraffic(now time.Time) {
	rush := domain.IsRushHour(now)
	for _, u := range f.graph.order {
		for _, e := range f.graph.adj[u] {
			zone := f.graph.Nodes[e.From].IsCenter || f.graph.Nodes[e.From].IsResidential ||
				f.graph.Nodes[e.To].IsCenter || f.graph.Nodes[e.To].IsResidential
			var congestion float64
			if zone && rush {
				congestion = 0.5 + f.rng.Float64()*0.4
			} else {
				congestion = 0.9 + f.rng.Float64()*0.1
			}
			e.Speed = e.BaseSpeed * congestion
		}
	}
	f.rebuild()
}
