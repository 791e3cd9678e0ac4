// Package pso implements the per-driver Particle Swarm Optimisation
// subset selector: given one driver and a pre-filtered candidate rider
// list, it searches for the subset maximising savings under the cost
// model, with routes supplied by the routing kernel.
package pso

import (
	"sort"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/passbi/ridesim/internal/core/costmodel"
	"github.com/passbi/ridesim/internal/core/domain"
	"github.com/passbi/ridesim/internal/core/routeplan"
	"github.com/passbi/ridesim/internal/core/routing"
)

// Candidate is the ephemeral record a PSO run produces for one driver; it
// lives only through one matching tick.
type Candidate struct {
	Driver            *domain.Driver
	SelectedRiders    []*domain.Rider
	Savings           float64
	Route             []routing.NodeID
	RouteCost         float64
	LastImprovingIter int
}

// PreFilter applies the compatibility check: a candidate is rejected if
// its required detour already exceeds the driver's remaining solo distance,
// or if it alone would exceed vacancies.
func PreFilter(driver *domain.Driver, current routing.NodeID, riders []*domain.Rider, dist routing.DistanceFunc) []*domain.Rider {
	toEnd := dist(current, driver.EndNode)
	out := make([]*domain.Rider, 0, len(riders))
	for _, r := range riders {
		if r.PassengerCount > driver.Vacancies {
			continue
		}
		detour := dist(current, r.StartNode) + dist(r.EndNode, driver.EndNode)
		if detour > toEnd {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Run searches for the best rider subset for driver against the already
// pre-filtered candidates slice, using a seed derived from the caller's
// master seed so parallel per-driver invocations stay deterministic.
func Run(driver *domain.Driver, candidates []*domain.Rider, dist routing.DistanceFunc, cfg Config, seed int64) Candidate {
	n := len(candidates)
	best := Candidate{Driver: driver}
	if n == 0 {
		return best
	}

	rng := rand.New(rand.NewSource(uint64(seed)))
	maxPositive := driver.Vacancies
	if maxPositive > n {
		maxPositive = n
	}

	positions := make([][]float64, cfg.NumParticles)
	velocities := make([][]float64, cfg.NumParticles)
	pbest := make([][]float64, cfg.NumParticles)
	pbestScore := make([]float64, cfg.NumParticles)
	pbestCandidate := make([]Candidate, cfg.NumParticles)

	for p := 0; p < cfg.NumParticles; p++ {
		positions[p] = pseudoRandomizeVector(rng, n, maxPositive)
		velocities[p] = pseudoRandomizeVector(rng, n, maxPositive)
		pbest[p] = append([]float64{}, positions[p]...)
		pbestScore[p] = negativeInfinity
	}

	gbestScore := negativeInfinity
	var gbest []float64
	noImprovIter := 0

	current := routeplan.CurrentNode(driver)

	for it := 0; it < cfg.Iterations; it++ {
		progress := float64(it) / float64(maxInt(cfg.Iterations, 1))
		w := cfg.WStart + cfg.WStep*progress
		c1 := cfg.C1Start + cfg.C1Step*progress
		c2 := cfg.C2Start + cfg.C2Step*progress

		improvedThisIter := 0
		globalImprovedThisIter := false

		for p := 0; p < cfg.NumParticles; p++ {
			selected := decodeParticle(positions[p], candidates, maxPositive)
			cand, score := evaluate(driver, current, selected, dist)

			if score > pbestScore[p] {
				pbestScore[p] = score
				pbest[p] = append([]float64{}, positions[p]...)
				pbestCandidate[p] = cand
				improvedThisIter++
			}
			if score > gbestScore {
				gbestScore = score
				gbest = append([]float64{}, positions[p]...)
				cand.LastImprovingIter = it
				best = cand
				globalImprovedThisIter = true
			}
		}

		if gbest == nil {
			gbest = positions[0]
		}

		for p := 0; p < cfg.NumParticles; p++ {
			for j := 0; j < n; j++ {
				r1 := distuv.Uniform{Min: 0, Max: 1, Src: rng}.Rand()
				r2 := distuv.Uniform{Min: 0, Max: 1, Src: rng}.Rand()
				velocities[p][j] = w*velocities[p][j] +
					c1*r1*(pbest[p][j]-positions[p][j]) +
					c2*r2*(gbest[j]-positions[p][j])
				positions[p][j] += velocities[p][j]
			}
		}

		if globalImprovedThisIter {
			noImprovIter = 0
		} else {
			noImprovIter++
		}
		if noImprovIter >= cfg.MaxNoImprovIter {
			break
		}
		if improvedThisIter < cfg.MinImprovParticles {
			break
		}
	}

	return best
}

const negativeInfinity = -1e18

// pseudoRandomizeVector biases initial swarms toward capacity-respecting
// subsets: a Uniform(-1,0) baseline everywhere, then a uniform-random
// count k in [0, maxPositive] of distinct slots overwritten with
// Uniform(0,1).
func pseudoRandomizeVector(rng *rand.Rand, n, maxPositive int) []float64 {
	vec := make([]float64, n)
	for i := range vec {
		vec[i] = distuv.Uniform{Min: -1, Max: 0, Src: rng}.Rand()
	}
	if maxPositive <= 0 {
		return vec
	}
	k := rng.Intn(maxPositive + 1)
	if k == 0 {
		return vec
	}
	idx := rng.Perm(n)[:k]
	for _, i := range idx {
		vec[i] = distuv.Uniform{Min: 0, Max: 1, Src: rng}.Rand()
	}
	return vec
}

// decodeParticle maps a position to a rider subset: indices with positive
// components, sorted by value descending, taken up to vacancies.
func decodeParticle(position []float64, candidates []*domain.Rider, maxPositive int) []*domain.Rider {
	type scored struct {
		idx   int
		value float64
	}
	var positives []scored
	for i, v := range position {
		if v > 0 {
			positives = append(positives, scored{idx: i, value: v})
		}
	}
	sort.Slice(positives, func(i, j int) bool { return positives[i].value > positives[j].value })
	if len(positives) > maxPositive {
		positives = positives[:maxPositive]
	}
	out := make([]*domain.Rider, len(positives))
	for i, s := range positives {
		out[i] = candidates[s.idx]
	}
	return out
}

// evaluate takes an already decoded subset, invokes the routing kernel over
// that subset's pending pairs, and scores it under the cost model. An empty
// subset yields zero savings.
func evaluate(driver *domain.Driver, current routing.NodeID, selected []*domain.Rider, dist routing.DistanceFunc) (Candidate, float64) {
	if len(selected) == 0 {
		return Candidate{Driver: driver, Route: nil, RouteCost: 0, Savings: 0}, 0
	}
	pairs := routeplan.PendingPairs(driver, selected)
	result := routing.HeldKarp(current, driver.EndNode, pairs, dist, routing.Infinity)
	if result.Infeasible() {
		return Candidate{Driver: driver}, negativeInfinity
	}

	priorDistance := driver.TotalDistance
	if driver.CurrentEdge != nil {
		priorDistance += driver.CurrentEdge.Remaining
	}
	quote, ok := costmodel.EvaluateBatch(driver, selected, priorDistance, result.Cost)
	if !ok {
		return Candidate{Driver: driver}, negativeInfinity
	}
	return Candidate{
		Driver:         driver,
		SelectedRiders: selected,
		Savings:        quote.Savings,
		Route:          result.Route,
		RouteCost:      result.Cost,
	}, quote.Savings
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
