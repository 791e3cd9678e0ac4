package routing

// BranchAndBound is a reference solver used only in tests to certify
// HeldKarp: depth-first search over partial visits, pruned by bound, which
// must stay admissible (never overestimate remaining cost) for correctness.
func BranchAndBound(start, end NodeID, pairs []Pair, dist DistanceFunc, bound BoundFunc) Result {
	ci := newCityIndex(start, end, pairs)
	n := ci.n()

	best := Result{Cost: Infinity}
	route := make([]int, 0, n)
	route = append(route, 0)
	target := ((1 << n) - 1) &^ (1 << 1) // every pickup/dropoff city visited; end handled separately

	var visit func(visited int, current int, cost float64)
	visit = func(visited int, current int, cost float64) {
		if cost+bound(ci, visited, current, dist) >= best.Cost {
			return
		}
		if visited == target {
			finalCost := cost + dist(ci.nodeOf[current], ci.nodeOf[1])
			if finalCost < best.Cost {
				route = append(route, 1)
				best = Result{Route: citiesToNodes(ci, route), Cost: finalCost}
				route = route[:len(route)-1]
			}
			return
		}
		for next := 0; next < n; next++ {
			if visited&(1<<next) != 0 {
				continue
			}
			if !isPickup(next) && !(isDropoff(next) && visited&(1<<pairedPickup(next)) != 0) {
				continue
			}
			step := dist(ci.nodeOf[current], ci.nodeOf[next])
			route = append(route, next)
			visit(visited|(1<<next), next, cost+step)
			route = route[:len(route)-1]
		}
	}
	visit(1, 0, 0)
	return best
}

func citiesToNodes(ci *cityIndex, cities []int) []NodeID {
	out := make([]NodeID, len(cities))
	for i, c := range cities {
		out[i] = ci.nodeOf[c]
	}
	return out
}
