package costmodel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passbi/ridesim/internal/core/domain"
)

func testDriver(baseline float64) *domain.Driver {
	return domain.NewDriver(0, 1, 5, time.Time{}, 4, 2, 1, []domain.NodeID{5}, baseline)
}

func testRider(id domain.ID, baseline float64) *domain.Rider {
	return domain.NewRider(id, 3, 4, time.Time{}, 1, baseline)
}

func TestSingleRiderSplit(t *testing.T) {
	// The canonical beneficial match: solo baselines 10 and 4 against a
	// joint trip costing 11 in total.
	remaining := RemainingCost(1, 10, 0)
	assert.InDelta(t, 11, remaining, 1e-9)

	savings := Savings(10, 4, remaining)
	assert.InDelta(t, 3, savings, 1e-9)

	driverCost, riderCost := SplitSingle(10, 4, savings)
	assert.InDelta(t, 8.5, driverCost, 1e-9)
	assert.InDelta(t, 2.5, riderCost, 1e-9)
}

func TestEvaluateRejectsNegativeSavings(t *testing.T) {
	d := testDriver(10)
	r := testRider(1, 4)

	// Joint route cost so high that sharing loses distance.
	_, ok := Evaluate(d, r, 1, 50)
	assert.False(t, ok)
}

func TestEvaluateConservation(t *testing.T) {
	d := testDriver(10)
	r := testRider(1, 4)

	priorDistance, jointCost := 1.0, 10.0
	quote, ok := Evaluate(d, r, priorDistance, jointCost)
	require.True(t, ok)

	total := quote.DriverCost
	for _, rc := range quote.RiderCosts {
		total += rc.Cost
	}
	assert.InDelta(t, priorDistance+jointCost, total, 1e-6,
		"driver cost plus rider costs must equal the full realised route cost")
}

func TestEvaluateBatchProportionalSplit(t *testing.T) {
	d := testDriver(10)
	riders := []*domain.Rider{testRider(1, 6), testRider(2, 2)}

	priorDistance, jointCost := 0.0, 14.0
	quote, ok := EvaluateBatch(d, riders, priorDistance, jointCost)
	require.True(t, ok)

	// savings = 10 + 6 + 2 - 14 = 4; driver keeps half.
	assert.InDelta(t, 4, quote.Savings, 1e-9)
	assert.InDelta(t, 8, quote.DriverCost, 1e-9)

	// The rider half splits 3:1 with the baselines.
	require.Len(t, quote.RiderCosts, 2)
	assert.InDelta(t, 6-2*0.75, quote.RiderCosts[0].Cost, 1e-9)
	assert.InDelta(t, 2-2*0.25, quote.RiderCosts[1].Cost, 1e-9)

	total := quote.DriverCost
	for _, rc := range quote.RiderCosts {
		total += rc.Cost
	}
	assert.InDelta(t, priorDistance+jointCost, total, 1e-6)
}

func TestEvaluateBatchAccountsForAlreadyPaid(t *testing.T) {
	d := testDriver(10)
	first := testRider(1, 4)

	quote, ok := Evaluate(d, first, 1, 10)
	require.True(t, ok)
	require.NoError(t, d.MatchRiders(quote.DriverCost, quote.RiderCosts, []domain.NodeID{3, 4, 5}, time.Time{}))

	// A second addition only pays for the marginal extension: the first
	// rider's committed fare is subtracted from the remaining cost.
	second := testRider(2, 5)
	quote2, ok := EvaluateBatch(d, []*domain.Rider{second}, 1, 13)
	require.True(t, ok)

	remaining := RemainingCost(1, 13, d.ActiveAndCompletedPaid())
	assert.InDelta(t, 1+13-2.5, remaining, 1e-9)
	assert.InDelta(t, 10+5-remaining, quote2.Savings, 1e-9)
}

func TestRiderNeverPaysMoreThanBaseline(t *testing.T) {
	d := testDriver(10)
	r := testRider(1, 4)

	quote, ok := Evaluate(d, r, 1, 10)
	require.True(t, ok)
	for _, rc := range quote.RiderCosts {
		assert.LessOrEqual(t, rc.Cost, rc.Rider.BaselineDistance)
	}
	assert.LessOrEqual(t, quote.DriverCost, d.BaselineDistance)
}
