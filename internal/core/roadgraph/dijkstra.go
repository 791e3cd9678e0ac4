package roadgraph

import "container/heap"

// nodeItem and nodePQ implement container/heap.Interface: a min-heap
// keyed on tentative distance.
type nodeItem struct {
	id   NodeID
	dist float64
}

type nodePQ []*nodeItem

func (pq nodePQ) Len() int            { return len(pq) }
func (pq nodePQ) Less(i, j int) bool  { return pq[i].dist < pq[j].dist }
func (pq nodePQ) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *nodePQ) Push(x interface{}) { *pq = append(*pq, x.(*nodeItem)) }
func (pq *nodePQ) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}

// dijkstraFrom computes single-source shortest travel-time distances from
// start plus, for every reachable v, the first hop away from start on the
// shortest path to v. The parent pointers let the first hop be recovered
// by walking back to start once per destination.
func dijkstraFrom(g *Graph, start NodeID, weight func(*Edge) float64) (dist map[NodeID]float64, next map[NodeID]NodeID) {
	dist = make(map[NodeID]float64, len(g.order))
	parent := make(map[NodeID]NodeID, len(g.order))
	visited := make(map[NodeID]bool, len(g.order))
	for _, id := range g.order {
		dist[id] = Infinity
	}
	dist[start] = 0

	pq := &nodePQ{{id: start, dist: 0}}
	for pq.Len() > 0 {
		u := heap.Pop(pq).(*nodeItem)
		if visited[u.id] {
			continue
		}
		visited[u.id] = true

		for _, e := range g.Neighbors(u.id) {
			cand := dist[u.id] + weight(e)
			if cand < dist[e.To] {
				dist[e.To] = cand
				parent[e.To] = u.id
				heap.Push(pq, &nodeItem{id: e.To, dist: cand})
			}
		}
	}

	next = make(map[NodeID]NodeID, len(g.order))
	for _, v := range g.order {
		if v == start || dist[v] >= Infinity {
			continue
		}
		cur := v
		for parent[cur] != start {
			p, ok := parent[cur]
			if !ok {
				break
			}
			cur = p
		}
		next[v] = cur
	}
	return dist, next
}

// AllPairsTable holds, for every ordered pair (u, v), the shortest
// travel-time cost and the first-hop successor needed to reconstruct the
// full path by repeated lookups.
type AllPairsTable struct {
	dist map[NodeID]map[NodeID]float64
	next map[NodeID]map[NodeID]NodeID
}

// BuildAllPairs runs a single-threaded Dijkstra from every source node.
// The tables are read-only once published.
func BuildAllPairs(g *Graph, weight func(*Edge) float64) *AllPairsTable {
	t := &AllPairsTable{
		dist: make(map[NodeID]map[NodeID]float64, len(g.order)),
		next: make(map[NodeID]map[NodeID]NodeID, len(g.order)),
	}
	for _, src := range g.order {
		dist, next := dijkstraFrom(g, src, weight)
		t.dist[src] = dist
		t.next[src] = next
	}
	return t
}

// Dist returns the shortest travel-time cost between u and v, or Infinity if
// no path exists. dist(u,u) is 0 by definition.
func (t *AllPairsTable) Dist(u, v NodeID) float64 {
	if u == v {
		return 0
	}
	row, ok := t.dist[u]
	if !ok {
		return Infinity
	}
	d, ok := row[v]
	if !ok {
		return Infinity
	}
	return d
}

// Path returns the ordered node sequence from u to v inclusive, or an empty
// slice if u == v or no path exists.
func (t *AllPairsTable) Path(u, v NodeID) []NodeID {
	if u == v {
		return nil
	}
	if t.Dist(u, v) >= Infinity {
		return nil
	}
	path := []NodeID{u}
	cur := u
	for cur != v {
		row, ok := t.next[cur]
		if !ok {
			return nil
		}
		n, ok := row[v]
		if !ok {
			return nil
		}
		cur = n
		path = append(path, cur)
	}
	return path
}
