// Package match implements the global matcher: a cancellation sweep, a
// parallel per-driver PSO fan-out, and a single-threaded contention
// resolution that commits the highest-savings compatible assignments.
package match

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/passbi/ridesim/internal/core/costmodel"
	"github.com/passbi/ridesim/internal/core/domain"
	"github.com/passbi/ridesim/internal/core/events"
	"github.com/passbi/ridesim/internal/core/pso"
	"github.com/passbi/ridesim/internal/core/roadgraph"
	"github.com/passbi/ridesim/internal/core/routeplan"
	"github.com/passbi/ridesim/internal/core/routing"
)

// Sink receives events fired during a matching pass. The sim package wires
// this to the main loop's event bus.
type Sink func(events.Event)

// Matcher runs one dispatch tick's cancellation sweep and matching pass.
type Matcher struct {
	Graph      *roadgraph.Facade
	PSOConfig  pso.Config
	MasterSeed int64
	MaxWorkers int64
}

// NewMatcher builds a Matcher with a worker cap suited to the host; a zero
// MaxWorkers defaults to 8, mirroring a modest bounded pool.
func NewMatcher(graph *roadgraph.Facade, cfg pso.Config, masterSeed int64, maxWorkers int64) *Matcher {
	if maxWorkers <= 0 {
		maxWorkers = 8
	}
	return &Matcher{Graph: graph, PSOConfig: cfg, MasterSeed: masterSeed, MaxWorkers: maxWorkers}
}

// SweepCancellations transitions every rider whose deadline has passed
// and who was never matched into Cancelled. Both conditions are required:
// a matched rider is never cancelled.
func (m *Matcher) SweepCancellations(riders []*domain.Rider, now time.Time, emit Sink) {
	for _, r := range riders {
		if r.IsIdle() && r.ShouldCancel(now) {
			r.Cancel(now)
			emit(events.NewRiderCancelled(now, r.ID))
		}
	}
}

// Run performs candidate generation (parallel, phase 3a) and contention
// resolution (single-threaded, phase 3b) against the current idle riders and
// active drivers, committing matches and firing RiderMatch events.
func (m *Matcher) Run(ctx context.Context, idleRiders []*domain.Rider, activeDrivers []*domain.Driver, now time.Time, emit Sink) {
	candidates := m.generateCandidates(ctx, idleRiders, activeDrivers)
	m.resolveContention(candidates, idleRiders, now, emit)
}

// generateCandidates fans the per-driver PSO out across a bounded worker
// pool. Each worker reads only the immutable graph snapshot and its own
// rider-list copy, so no locking is needed inside a worker, only a join at
// the end; sem.Acquire/Release bounds concurrency.
func (m *Matcher) generateCandidates(ctx context.Context, idleRiders []*domain.Rider, activeDrivers []*domain.Driver) []pso.Candidate {
	eligible := make([]*domain.Driver, 0, len(activeDrivers))
	for _, d := range activeDrivers {
		if d.Active() && d.Vacancies > 0 {
			eligible = append(eligible, d)
		}
	}
	results := make([]pso.Candidate, len(eligible))
	sem := semaphore.NewWeighted(m.MaxWorkers)
	done := make(chan struct{}, len(eligible))

	for i, d := range eligible {
		i, d := i, d
		if err := sem.Acquire(ctx, 1); err != nil {
			done <- struct{}{}
			continue
		}
		go func() {
			defer sem.Release(1)
			defer func() { done <- struct{}{} }()
			results[i] = m.runOneDriver(d, idleRiders)
		}()
	}
	for range eligible {
		<-done
	}

	out := make([]pso.Candidate, 0, len(eligible))
	for _, c := range results {
		if len(c.SelectedRiders) > 0 {
			out = append(out, c)
		}
	}
	return out
}

func (m *Matcher) runOneDriver(d *domain.Driver, idleRiders []*domain.Rider) pso.Candidate {
	current := routeplan.CurrentNode(d)
	dist := m.Graph.Dist
	filtered := pso.PreFilter(d, current, idleRiders, dist)
	seed := m.MasterSeed ^ int64(d.ID)<<1 ^ 0x539f0a17
	return pso.Run(d, filtered, dist, m.PSOConfig, seed)
}

// resolveContention sorts candidates by savings descending (ties broken
// on driver id), then commits each in turn against the live unmatched set.
// The route is re-priced via a fresh routing-kernel call on the filtered
// pair list, so a reduced subset never over-reports its savings.
func (m *Matcher) resolveContention(candidates []pso.Candidate, idleRiders []*domain.Rider, now time.Time, emit Sink) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Savings != candidates[j].Savings {
			return candidates[i].Savings > candidates[j].Savings
		}
		return candidates[i].Driver.ID < candidates[j].Driver.ID
	})

	unmatched := make(map[domain.ID]*domain.Rider, len(idleRiders))
	for _, r := range idleRiders {
		if r.IsIdle() {
			unmatched[r.ID] = r
		}
	}

	for _, cand := range candidates {
		d := cand.Driver
		if d.Vacancies <= 0 {
			continue
		}
		filtered := filterStillUnmatched(cand.SelectedRiders, unmatched, d.Vacancies)
		if len(filtered) == 0 {
			continue
		}

		current := routeplan.CurrentNode(d)
		pairs := routeplan.PendingPairs(d, filtered)
		result := routing.HeldKarp(current, d.EndNode, pairs, m.Graph.Dist, routing.Infinity)
		if result.Infeasible() {
			continue
		}

		priorDistance := d.TotalDistance
		if d.CurrentEdge != nil {
			priorDistance += d.CurrentEdge.Remaining
		}
		quote, ok := costmodel.EvaluateBatch(d, filtered, priorDistance, result.Cost)
		if !ok {
			continue
		}

		route := routeplan.DriverRoute(m.Graph.Path, result.Route)
		if err := d.MatchRiders(quote.DriverCost, quote.RiderCosts, route, now); err != nil {
			continue
		}
		for _, r := range filtered {
			delete(unmatched, r.ID)
			emit(events.NewRiderMatch(now, d.ID, r.ID))
		}
	}
}

// filterStillUnmatched keeps only the riders the PSO selected that are still
// unmatched and uncancelled, in the PSO's original descending-preference
// order, truncated to the driver's current vacancies.
func filterStillUnmatched(selected []*domain.Rider, unmatched map[domain.ID]*domain.Rider, vacancies int) []*domain.Rider {
	out := make([]*domain.Rider, 0, len(selected))
	seats := 0
	for _, r := range selected {
		if _, ok := unmatched[r.ID]; !ok {
			continue
		}
		if seats+r.PassengerCount > vacancies {
			continue
		}
		out = append(out, r)
		seats += r.PassengerCount
	}
	return out
}
