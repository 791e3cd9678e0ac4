package routing

import "container/heap"

// bfState is one frontier entry: the partial route taken so far, which
// cities have been visited, the cost paid so far, and an admissible
// lower-bound estimate of the remaining cost (direct distance to end).
type bfState struct {
	cities  []int
	visited int
	cost    float64
	bound   float64 // cost + heuristic, the priority
}

type bfQueue []*bfState

func (q bfQueue) Len() int            { return len(q) }
func (q bfQueue) Less(i, j int) bool  { return q[i].bound < q[j].bound }
func (q bfQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *bfQueue) Push(x interface{}) { *q = append(*q, x.(*bfState)) }
func (q *bfQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// BestFirst is a reference solver used only in tests to certify HeldKarp: a
// priority-queue expansion ordered by cost-so-far plus the direct-to-end
// distance lower bound.
func BestFirst(start, end NodeID, pairs []Pair, dist DistanceFunc) Result {
	ci := newCityIndex(start, end, pairs)
	n := ci.n()
	target := ((1 << n) - 1) &^ (1 << 1)

	h := func(current int) float64 { return dist(ci.nodeOf[current], ci.nodeOf[1]) }

	pq := &bfQueue{{cities: []int{0}, visited: 1, cost: 0, bound: h(0)}}
	best := Result{Cost: Infinity}

	for pq.Len() > 0 {
		s := heap.Pop(pq).(*bfState)
		if s.bound >= best.Cost {
			continue
		}
		current := s.cities[len(s.cities)-1]

		if s.visited == target {
			finalCost := s.cost + dist(ci.nodeOf[current], ci.nodeOf[1])
			if finalCost < best.Cost {
				route := append(append([]int{}, s.cities...), 1)
				best = Result{Route: citiesToNodes(ci, route), Cost: finalCost}
			}
			continue
		}

		for next := 0; next < n; next++ {
			if s.visited&(1<<next) != 0 {
				continue
			}
			if !isPickup(next) && !(isDropoff(next) && s.visited&(1<<pairedPickup(next)) != 0) {
				continue
			}
			step := dist(ci.nodeOf[current], ci.nodeOf[next])
			newCost := s.cost + step
			if newCost >= best.Cost {
				continue
			}
			cities := append(append([]int{}, s.cities...), next)
			newVisited := s.visited | (1 << next)
			heap.Push(pq, &bfState{cities: cities, visited: newVisited, cost: newCost, bound: newCost + h(next)})
		}
	}
	return best
}
