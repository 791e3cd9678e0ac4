package sim

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/passbi/ridesim/internal/core/domain"
)

func TestStatsRollUp(t *testing.T) {
	w := newTestWorld(t, 1)
	w.Post(NewDriverRequest{Start: 1, End: 5, Seats: 4})
	w.Post(NewRiderRequest{Start: 3, End: 4, PassengerCount: 1})

	stepUntil(t, w, time.Second, 40, func() bool {
		drain(w)
		d := w.Drivers[0]
		return d != nil && d.State() == domain.DriverCompleted
	})

	s := w.Stats()

	assert.Equal(t, 1, s.Riders.Total)
	assert.InDelta(t, 1.0, s.Riders.CompletedRatio, 1e-9)
	assert.InDelta(t, 0.0, s.Riders.CancelledRatio, 1e-9)
	assert.LessOrEqual(t, s.Riders.PriceRatio, 1.0, "shared riders never pay above their solo fare")
	assert.Greater(t, s.Riders.AvgTravelTime, 0.0)

	assert.Equal(t, 1, s.Drivers.Total)
	assert.InDelta(t, 1.0, s.Drivers.InvolvedRatio, 1e-9)
	assert.GreaterOrEqual(t, s.Drivers.DistanceRatio, 1.0, "detours only add distance")
	assert.LessOrEqual(t, s.Drivers.PriceRatio, 1.0, "savings only cut the driver's cost")

	assert.InDelta(t, 0.25, s.SeatOccupancyRate, 1e-9)
	assert.Equal(t, w.Now, s.SimulatedTime)
}

func TestStatsEmptyWorld(t *testing.T) {
	w := newTestWorld(t, 1)
	w.Step(context.Background(), time.Second)

	s := w.Stats()
	assert.Zero(t, s.Riders.Total)
	assert.Zero(t, s.Drivers.Total)
	assert.Zero(t, s.SeatOccupancyRate)
}
