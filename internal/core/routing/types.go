// Package routing implements the precedence-constrained sequential routing
// kernel: an exact Held-Karp solver plus three reference solvers used only
// to certify it in tests.
package routing

import "github.com/passbi/ridesim/internal/core/domain"

// NodeID aliases the shared domain node id.
type NodeID = domain.NodeID

// Pair is one pickup-before-dropoff precedence constraint.
type Pair struct {
	Pickup  NodeID
	Dropoff NodeID
}

// DistanceFunc supplies the cost between any two cities; callers pass the
// road graph facade's travel-time Dist method.
type DistanceFunc func(u, v NodeID) float64

// PathFunc supplies the node-level shortest path between two cities;
// callers pass the Road Graph Facade's Path method. Used to expand a
// city-level kernel result into a full node-by-node walk.
type PathFunc func(u, v NodeID) []NodeID

// Infinity mirrors the facade's representation of an unreachable pair.
const Infinity = 1e18

// Result is the routing kernel's output: the realised walk over city-level
// node ids (start, pickups/dropoffs in visited order, end) and its total
// cost. An infeasible call returns a nil Route and Infinity cost, never an
// error: routine infeasibility is a value, not an exception.
type Result struct {
	Route []NodeID
	Cost  float64
}

// Infeasible reports whether r carries no feasible route.
func (r Result) Infeasible() bool { return r.Route == nil || r.Cost >= Infinity }

// cityIndex maps the problem onto dense indices: 0 = start, 1 = end,
// 2i+2/2i+3 = pickup/dropoff of pair i (pickup even, dropoff odd).
type cityIndex struct {
	start, end NodeID
	pairs      []Pair
	nodeOf     []NodeID // city index -> node id, len == n
}

func newCityIndex(start, end NodeID, pairs []Pair) *cityIndex {
	n := 2 + 2*len(pairs)
	nodeOf := make([]NodeID, n)
	nodeOf[0] = start
	nodeOf[1] = end
	for i, p := range pairs {
		nodeOf[2*i+2] = p.Pickup
		nodeOf[2*i+3] = p.Dropoff
	}
	return &cityIndex{start: start, end: end, pairs: pairs, nodeOf: nodeOf}
}

func (c *cityIndex) n() int { return len(c.nodeOf) }

// isPickup / isDropoff / pairedPickup classify a dense city index.
func isPickup(city int) bool  { return city >= 2 && city%2 == 0 }
func isDropoff(city int) bool { return city >= 3 && city%2 == 1 }
func pairedPickup(dropoffCity int) int { return dropoffCity - 1 }

// maxCitiesCeiling is the solver's practical ceiling: ~22 cities (~10
// pickup/dropoff pairs) per driver per call. Callers requesting more get
// an immediate infeasible result rather than an exponential-time call.
const maxCitiesCeiling = 22
