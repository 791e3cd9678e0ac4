package routing

// HeldKarp solves the precedence-constrained sequential routing problem
// exactly: the minimum-cost walk from start to end that visits every
// pickup/dropoff pair exactly once, pickup strictly before its dropoff.
// threshold is an optional caller-supplied upper bound U; dp values at or
// above it need not propagate (pass routing.Infinity for no pruning).
func HeldKarp(start, end NodeID, pairs []Pair, dist DistanceFunc, threshold float64) Result {
	ci := newCityIndex(start, end, pairs)
	n := ci.n()
	if n > maxCitiesCeiling {
		return Result{Cost: Infinity}
	}

	size := 1 << n
	dp := make([]float64, size*n)
	parent := make([]int8, size*n)
	for i := range dp {
		dp[i] = Infinity
		parent[i] = -1
	}
	idx := func(s, j int) int { return s*n + j }

	startMask := 1
	dp[idx(startMask, 0)] = 0

	// Precompute the city-to-node-id distance matrix once so the inner loop
	// never re-derives a node id from a city index.
	cdist := make([][]float64, n)
	for i := 0; i < n; i++ {
		cdist[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			cdist[i][j] = dist(ci.nodeOf[i], ci.nodeOf[j])
		}
	}

	fullMinusEnd := (size - 1) &^ (1 << 1)

	for s := startMask; s < size; s++ {
		if s&startMask == 0 {
			continue // every reachable state must contain the start city
		}
		for prev := 0; prev < n; prev++ {
			if s&(1<<prev) == 0 {
				continue
			}
			cur := dp[idx(s, prev)]
			if cur >= threshold {
				continue
			}
			for next := 0; next < n; next++ {
				if s&(1<<next) != 0 {
					continue
				}
				allowed := isPickup(next) ||
					(isDropoff(next) && s&(1<<pairedPickup(next)) != 0) ||
					(next == 1 && s == fullMinusEnd)
				if !allowed {
					continue
				}
				cand := cur + cdist[prev][next]
				if cand >= threshold {
					continue
				}
				ns := s | (1 << next)
				if cand < dp[idx(ns, next)] {
					dp[idx(ns, next)] = cand
					parent[idx(ns, next)] = int8(prev)
				}
			}
		}
	}

	full := size - 1
	best := dp[idx(full, 1)]
	if best >= Infinity || best >= threshold {
		return Result{Cost: Infinity}
	}

	route := reconstructRoute(ci, parent, full, n)
	return Result{Route: route, Cost: best}
}

// reconstructRoute walks parent pointers from (full, end-city) back to
// (start-mask, 0), translating dense city indices to node ids as it goes.
func reconstructRoute(ci *cityIndex, parent []int8, full, n int) []NodeID {
	var cities []int
	s, j := full, 1
	for {
		cities = append(cities, j)
		if j == 0 {
			break
		}
		p := int(parent[s*n+j])
		s ^= 1 << j
		j = p
	}
	route := make([]NodeID, len(cities))
	for i, c := range cities {
		route[len(cities)-1-i] = ci.nodeOf[c]
	}
	return route
}
