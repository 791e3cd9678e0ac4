// Package routeplan builds the precedence pair lists the routing kernel
// needs from a driver's current passenger manifest plus a proposed set of
// additional riders, shared by the PSO candidate generator and the global
// matcher's contention resolution so both feed the kernel identically.
package routeplan

import (
	"github.com/passbi/ridesim/internal/core/domain"
	"github.com/passbi/ridesim/internal/core/routing"
)

// PendingPairs returns one precedence pair per rider the driver must still
// serve (boarded or merely matched) plus one per proposed extra rider.
//
// A rider not yet boarded contributes (start, end): a real pickup-then-drop
// constraint. A rider already boarded has nothing left to pick up, but its
// dropoff must still happen before the driver's own end node, encoded as
// (rider.EndNode, driver.EndNode) so the routing kernel's pickup/dropoff
// machinery forces rider.EndNode to be visited without a spurious real
// precedence, since the driver's end node is already forced last by the
// kernel's own end-of-route rule.
func PendingPairs(driver *domain.Driver, extra []*domain.Rider) []routing.Pair {
	pairs := make([]routing.Pair, 0, len(driver.Riders)+len(extra))
	for _, r := range driver.Riders {
		if r.State() == domain.RiderBoarded {
			pairs = append(pairs, routing.Pair{Pickup: r.EndNode, Dropoff: driver.EndNode})
		} else {
			pairs = append(pairs, routing.Pair{Pickup: r.StartNode, Dropoff: r.EndNode})
		}
	}
	for _, r := range extra {
		pairs = append(pairs, routing.Pair{Pickup: r.StartNode, Dropoff: r.EndNode})
	}
	return pairs
}

// CurrentNode is the node from which a driver's next routing-kernel call
// must start: the node it is advancing toward on its current edge, since a
// driver cannot alter course mid-edge.
func CurrentNode(driver *domain.Driver) domain.NodeID {
	if driver.CurrentEdge != nil {
		return driver.CurrentEdge.To
	}
	return driver.CurrentNode
}

// ExpandRoute turns the routing kernel's city-level stops into the full
// node-by-node walk a domain.Driver can advance edge-by-edge, by
// concatenating the shortest path between each consecutive pair of stops
// and dropping the duplicate join node at each splice.
func ExpandRoute(path routing.PathFunc, cityRoute []domain.NodeID) []domain.NodeID {
	if len(cityRoute) == 0 {
		return nil
	}
	full := []domain.NodeID{cityRoute[0]}
	for i := 0; i+1 < len(cityRoute); i++ {
		// A stop repeated at the node the walk already occupies (e.g. a
		// dropoff coinciding with the terminal) adds no edges.
		if cityRoute[i+1] == full[len(full)-1] {
			continue
		}
		seg := path(full[len(full)-1], cityRoute[i+1])
		if len(seg) == 0 {
			full = append(full, cityRoute[i+1])
			continue
		}
		full = append(full, seg[1:]...)
	}
	return full
}

// DriverRoute expands a city-level kernel result into the node-level route a
// driver installs via MatchRiders/ReplaceRoute, excluding the leading node
// (the driver's current position, already reflected by CurrentEdge).
func DriverRoute(path routing.PathFunc, cityRoute []domain.NodeID) []domain.NodeID {
	full := ExpandRoute(path, cityRoute)
	if len(full) <= 1 {
		return nil
	}
	return full[1:]
}
