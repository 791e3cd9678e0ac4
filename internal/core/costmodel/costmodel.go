// Package costmodel prices candidate matches: baseline solo cost,
// joint-route cost, and the savings split between a driver and the
// rider(s) it picks up.
package costmodel

import "github.com/passbi/ridesim/internal/core/domain"

// RemainingCost computes C_remaining = D_prior + C_total - already-paid,
// where alreadyPaid is the sum of CurrentCost over every rider the driver
// has ever carried (active + completed).
func RemainingCost(priorDistance, jointRouteCost, alreadyPaid float64) float64 {
	return priorDistance + jointRouteCost - alreadyPaid
}

// Savings computes savings = S_d + S_r - C_remaining for a single proposed
// rider addition. A negative result means the candidate must be rejected.
func Savings(driverBaseline, riderBaseline, remainingCost float64) float64 {
	return driverBaseline + riderBaseline - remainingCost
}

// BatchSavings computes savings = S_d + ΣS_rᵢ - C_remaining for a batch of
// riders being added in the same commit.
func BatchSavings(driverBaseline float64, riderBaselines []float64, remainingCost float64) float64 {
	total := driverBaseline
	for _, s := range riderBaselines {
		total += s
	}
	return total - remainingCost
}

// SplitSingle implements the equal 50/50 split of savings between a driver
// and the one rider it is adding:
// driver_cost = S_d - savings/2, rider_cost = S_r - savings/2.
func SplitSingle(driverBaseline, riderBaseline, savings float64) (driverCost, riderCost float64) {
	offset := savings / 2
	return driverBaseline - offset, riderBaseline - offset
}

// SplitBatch implements the proportional split for a batch of m riders: half
// the savings goes to the driver, the other half is distributed across
// riders proportional to Sᵢ/ΣSᵢ.
func SplitBatch(driverBaseline float64, riderBaselines []float64, savings float64) (driverCost float64, riderCosts []float64) {
	driverHalf := savings / 2
	driverCost = driverBaseline - driverHalf

	total := 0.0
	for _, s := range riderBaselines {
		total += s
	}
	riderCosts = make([]float64, len(riderBaselines))
	if total <= 0 {
		for i, s := range riderBaselines {
			riderCosts[i] = s
		}
		return driverCost, riderCosts
	}
	riderHalf := savings / 2
	for i, s := range riderBaselines {
		share := s / total
		riderCosts[i] = s - riderHalf*share
	}
	return driverCost, riderCosts
}

// Quote bundles a priced commit decision for one candidate addition,
// carrying whatever the caller needs to invoke domain.Driver.MatchRiders.
type Quote struct {
	Savings    float64
	DriverCost float64
	RiderCosts []domain.RiderCost
}

// Evaluate runs the full single-rider pipeline: remaining cost, savings,
// split. ok is false when savings < 0 and the candidate must be rejected.
func Evaluate(driver *domain.Driver, rider *domain.Rider, priorDistance, jointRouteCost float64) (Quote, bool) {
	remaining := RemainingCost(priorDistance, jointRouteCost, driver.ActiveAndCompletedPaid())
	savings := Savings(driver.BaselineDistance, rider.BaselineDistance, remaining)
	if savings < 0 {
		return Quote{}, false
	}
	driverCost, riderCost := SplitSingle(driver.BaselineDistance, rider.BaselineDistance, savings)
	return Quote{
		Savings:    savings,
		DriverCost: driverCost,
		RiderCosts: []domain.RiderCost{{Rider: rider, Cost: riderCost}},
	}, true
}

// EvaluateBatch runs the full batch pipeline for riders being committed
// together in one contention-resolution step.
func EvaluateBatch(driver *domain.Driver, riders []*domain.Rider, priorDistance, jointRouteCost float64) (Quote, bool) {
	baselines := make([]float64, len(riders))
	for i, r := range riders {
		baselines[i] = r.BaselineDistance
	}
	remaining := RemainingCost(priorDistance, jointRouteCost, driver.ActiveAndCompletedPaid())
	savings := BatchSavings(driver.BaselineDistance, baselines, remaining)
	if savings < 0 {
		return Quote{}, false
	}
	driverCost, riderCosts := SplitBatch(driver.BaselineDistance, baselines, savings)
	rc := make([]domain.RiderCost, len(riders))
	for i, r := range riders {
		rc[i] = domain.RiderCost{Rider: r, Cost: riderCosts[i]}
	}
	return Quote{Savings: savings, DriverCost: driverCost, RiderCosts: rc}, true
}
