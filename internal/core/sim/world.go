// Package sim wires the road graph facade, domain entities, routing
// kernel, cost model, PSO, and global matcher into a fixed-tick main loop
// whose phases execute strictly in order and never overlap.
package sim

import (
	"log"
	"sort"
	"sync/atomic"
	"time"

	"github.com/passbi/ridesim/internal/core/domain"
	"github.com/passbi/ridesim/internal/core/events"
	"github.com/passbi/ridesim/internal/core/match"
	"github.com/passbi/ridesim/internal/core/pso"
	"github.com/passbi/ridesim/internal/core/roadgraph"
	"github.com/passbi/ridesim/internal/core/routeplan"
	"github.com/passbi/ridesim/internal/core/routing"
)

// World owns one simulation's entire mutable state: the graph facade, the
// driver/rider populations, the id allocator, and the inbound/outbound
// event channels. Two World values never share ids or state.
type World struct {
	Graph *roadgraph.Facade

	ids *domain.IDAllocator

	Drivers map[domain.ID]*domain.Driver
	Riders  map[domain.ID]*domain.Rider

	matcher *match.Matcher

	// inbound is the MPSC queue: generators (and external callers) are
	// producers, the main loop is the sole consumer.
	inbound chan Request
	// Events is the outbound bus subscribers drain; buffered so a slow
	// subscriber cannot stall the main loop's event emission.
	Events chan events.Event

	Now time.Time
	// nowUnixNano mirrors Now for generator goroutines, which read the
	// simulated clock without synchronizing with the main loop.
	nowUnixNano atomic.Int64

	quitting bool
}

// SimNow returns the simulated clock as last published by the main loop.
// Safe to call from generator goroutines.
func (w *World) SimNow() time.Time {
	return time.Unix(0, w.nowUnixNano.Load())
}

// NewWorld builds a World over an already-constructed graph facade. seed
// is the master random seed every per-driver PSO seed derives from, so a
// parallel matching pass stays reproducible.
func NewWorld(graph *roadgraph.Facade, psoConfig pso.Config, seed int64, start time.Time) *World {
	w := &World{
		Graph:   graph,
		ids:     &domain.IDAllocator{},
		Drivers: make(map[domain.ID]*domain.Driver),
		Riders:  make(map[domain.ID]*domain.Rider),
		matcher: match.NewMatcher(graph, psoConfig, seed, 0),
		inbound: make(chan Request, 256),
		Events:  make(chan events.Event, 256),
		Now:     start,
	}
	w.nowUnixNano.Store(start.UnixNano())
	return w
}

// Post enqueues a request for the next tick's phase 1 ingest. Safe to call
// from generator goroutines concurrently with the main loop's Step.
func (w *World) Post(req Request) {
	select {
	case w.inbound <- req:
	default:
		log.Printf("sim: inbound queue full, dropping %T", req)
	}
}

func (w *World) emit(e events.Event) {
	select {
	case w.Events <- e:
	default:
		log.Printf("sim: event queue full, dropping %T", e)
	}
}

// spawnDriver materializes a NewDriverRequest into a domain.Driver with its
// initial solo route computed by the routing kernel's trivial zero-pair
// case (equivalently, a direct facade.Path call).
func (w *World) spawnDriver(req NewDriverRequest) {
	path := w.Graph.Path(req.Start, req.End)
	if len(path) < 2 {
		log.Printf("sim: driver request %v->%v has no path, dropping", req.Start, req.End)
		return
	}
	baseline := w.Graph.Dist(req.Start, req.End)
	edge, ok := w.Graph.EdgeBetween(path[0], path[1])
	firstHopCost := 0.0
	if ok {
		// Movement bookkeeping runs in travel-time units so that the cost
		// model's D_prior term stays in the same units as the all-pairs table.
		firstHopCost = edge.TravelTime()
	}
	departure := req.DepartureTime
	if departure.IsZero() {
		departure = w.Now
	}
	id := w.ids.Next()
	d := domain.NewDriver(id, req.Start, req.End, departure, req.Seats, path[1], firstHopCost, path[2:], baseline)
	w.Drivers[id] = d
	w.emit(events.NewDriverEvent(w.Now, id))
}

// spawnRider materializes a NewRiderRequest into a domain.Rider.
func (w *World) spawnRider(req NewRiderRequest) {
	baseline := w.Graph.Dist(req.Start, req.End)
	if baseline >= roadgraph.Infinity {
		log.Printf("sim: rider request %v->%v is unreachable, dropping", req.Start, req.End)
		return
	}
	departure := req.DepartureTime
	if departure.IsZero() {
		departure = w.Now
	}
	id := w.ids.Next()
	r := domain.NewRider(id, req.Start, req.End, departure, req.PassengerCount, baseline)
	w.Riders[id] = r
	w.emit(events.NewRiderEvent(w.Now, id))
}

// replanActiveDrivers re-runs the routing kernel for every active driver
// after a traffic update. No rider loses its match, and every new route
// continues from the current edge's ending node.
func (w *World) replanActiveDrivers() {
	for _, d := range w.Drivers {
		if !d.Active() {
			continue
		}
		current := routeplan.CurrentNode(d)
		pairs := routeplan.PendingPairs(d, nil)
		result := routing.HeldKarp(current, d.EndNode, pairs, w.Graph.Dist, routing.Infinity)
		if result.Infeasible() {
			continue
		}
		route := routeplan.DriverRoute(w.Graph.Path, result.Route)
		priorDistance := d.TotalDistance
		if d.CurrentEdge != nil {
			priorDistance += d.CurrentEdge.Remaining
		}
		newCost := priorDistance + result.Cost - d.ActiveAndCompletedPaid()
		d.ReplaceRoute(route, newCost)
	}
}

// idleRiders snapshots every rider still awaiting a match, in id order so
// every phase sees the same sequence on every run with the same seed.
func (w *World) idleRiders() []*domain.Rider {
	out := make([]*domain.Rider, 0, len(w.Riders))
	for _, r := range w.Riders {
		if r.IsIdle() {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (w *World) activeDrivers() []*domain.Driver {
	out := make([]*domain.Driver, 0, len(w.Drivers))
	for _, d := range w.Drivers {
		if d.Active() {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
