package match

import (
	"time"

	"github.com/passbi/ridesim/internal/core/costmodel"
	"github.com/passbi/ridesim/internal/core/domain"
	"github.com/passbi/ridesim/internal/core/events"
	"github.com/passbi/ridesim/internal/core/roadgraph"
	"github.com/passbi/ridesim/internal/core/routeplan"
	"github.com/passbi/ridesim/internal/core/routing"
)

// StaticMatch is a simpler greedy baseline matcher kept alongside the PSO
// matcher: for every idle rider it evaluates every driver directly via the
// routing kernel and commits to whichever offers the best heuristic,
// rather than searching over rider subsets. Useful as a low-variance
// reference mode and in tests that don't need the full PSO machinery.
func StaticMatch(graph *roadgraph.Facade, riders []*domain.Rider, drivers []*domain.Driver, now time.Time, emit Sink) (matches int, expectedSavings float64) {
	for _, rider := range riders {
		if !rider.IsIdle() {
			continue
		}

		var bestDriver *domain.Driver
		var bestQuote costmodel.Quote
		var bestRoute []routing.NodeID
		bestHeuristic := 0.0

		for _, driver := range drivers {
			if !driver.Active() || driver.Vacancies < rider.PassengerCount {
				continue
			}
			current := routeplan.CurrentNode(driver)
			pairs := routeplan.PendingPairs(driver, []*domain.Rider{rider})
			result := routing.HeldKarp(current, driver.EndNode, pairs, graph.Dist, routing.Infinity)
			if result.Infeasible() {
				continue
			}

			heuristic := rider.BaselineDistance + driver.BaselineDistance - result.Cost
			if heuristic < bestHeuristic {
				continue
			}

			priorDistance := driver.TotalDistance
			if driver.CurrentEdge != nil {
				priorDistance += driver.CurrentEdge.Remaining
			}
			quote, ok := costmodel.Evaluate(driver, rider, priorDistance, result.Cost)
			if !ok {
				continue
			}
			bestDriver, bestQuote, bestRoute, bestHeuristic = driver, quote, result.Route, heuristic
		}

		if bestDriver == nil {
			continue
		}

		route := routeplan.DriverRoute(graph.Path, bestRoute)
		if err := bestDriver.MatchRiders(bestQuote.DriverCost, bestQuote.RiderCosts, route, now); err != nil {
			continue
		}
		matches++
		expectedSavings += bestHeuristic
		emit(events.NewRiderMatch(now, bestDriver.ID, rider.ID))
	}
	return matches, expectedSavings
}
