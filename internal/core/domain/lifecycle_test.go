package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2000, 1, 1, 8, 0, 0, 0, time.UTC)

func TestRiderLifecycle(t *testing.T) {
	r := NewRider(1, 3, 4, t0, 2, 4)

	assert.Equal(t, RiderIdle, r.State())
	assert.True(t, r.IsIdle())
	assert.Equal(t, t0.Add(15*time.Minute), r.CancelTime)
	assert.InDelta(t, 4, r.CurrentCost, 1e-9)

	r.MatchDriver(7, 2.5, t0.Add(time.Minute))
	assert.Equal(t, RiderMatched, r.State())
	assert.Equal(t, ID(7), r.DriverID)
	assert.InDelta(t, 2.5, r.CurrentCost, 1e-9)
	assert.LessOrEqual(t, r.CurrentCost, r.BaselineDistance)

	r.Board(t0.Add(2 * time.Minute))
	assert.Equal(t, RiderBoarded, r.State())
	assert.True(t, r.BoardedTime.After(r.MatchedTime))

	r.Complete(t0.Add(5 * time.Minute))
	assert.Equal(t, RiderCompleted, r.State())
	assert.True(t, r.Terminal())
	assert.True(t, r.CancelledTime.IsZero(), "exactly one terminal timestamp is set")
}

func TestRiderShouldCancel(t *testing.T) {
	deadline := t0.Add(15 * time.Minute)

	t.Run("deadline passed and never matched", func(t *testing.T) {
		r := NewRider(1, 3, 4, t0, 1, 4)
		assert.False(t, r.ShouldCancel(deadline.Add(-time.Second)))
		assert.True(t, r.ShouldCancel(deadline))
		assert.True(t, r.ShouldCancel(deadline.Add(time.Hour)))
	})

	t.Run("a matched rider is never cancelled", func(t *testing.T) {
		r := NewRider(1, 3, 4, t0, 1, 4)
		r.MatchDriver(7, 2.5, t0.Add(time.Minute))
		assert.False(t, r.ShouldCancel(deadline.Add(time.Hour)))
	})
}

func TestDriverMatchRidersCapacity(t *testing.T) {
	d := NewDriver(0, 1, 5, t0, 2, 2, 1, []NodeID{5}, 10)
	require.Equal(t, 2, d.Vacancies)

	big := NewRider(1, 3, 4, t0, 3, 4)
	err := d.MatchRiders(8, []RiderCost{{Rider: big, Cost: 2}}, []NodeID{5}, t0)
	assert.ErrorIs(t, err, ErrCapacityViolation, "a party larger than the vacancies is rejected")
	assert.Equal(t, 2, d.Vacancies)

	r1 := NewRider(2, 3, 4, t0, 1, 4)
	r2 := NewRider(3, 3, 4, t0, 1, 4)
	require.NoError(t, d.MatchRiders(8, []RiderCost{{Rider: r1, Cost: 2}, {Rider: r2, Cost: 2}}, []NodeID{3, 4, 5}, t0))
	assert.Equal(t, 0, d.Vacancies)
	assert.Equal(t, RiderMatched, r1.State())
	assert.Len(t, d.Riders, 2)
	assert.InDelta(t, 8, d.CurrentCost, 1e-9)
}

func TestDriverAdvanceAndCross(t *testing.T) {
	// Walk 1 -> 2 -> 3 -> 4 -> 5 with a rider riding 3 -> 4.
	d := NewDriver(0, 1, 5, t0, 2, 2, 1, []NodeID{3, 4, 5}, 10)
	r := NewRider(1, 3, 4, t0, 1, 4)
	require.NoError(t, d.MatchRiders(8.5, []RiderCost{{Rider: r, Cost: 2.5}}, []NodeID{3, 4, 5}, t0))

	lengths := map[[2]NodeID]float64{
		{2, 3}: 3, {3, 4}: 4, {4, 5}: 3,
	}
	nextEdge := func(from, to NodeID) (float64, bool) {
		l, ok := lengths[[2]NodeID{from, to}]
		return l, ok
	}

	// Finish the first edge (length 1).
	consumed, crossed := d.AdvanceEdge(1)
	require.True(t, crossed)
	res := d.CrossNode(consumed, t0, nextEdge)
	assert.Empty(t, res.PickedUp)
	assert.Equal(t, NodeID(2), d.CurrentNode)

	// Edge 2->3: crossing node 3 boards the rider.
	consumed, crossed = d.AdvanceEdge(3)
	require.True(t, crossed)
	res = d.CrossNode(consumed, t0.Add(time.Second), nextEdge)
	assert.Equal(t, []ID{1}, res.PickedUp)
	assert.Equal(t, RiderBoarded, r.State())
	assert.Equal(t, 2-r.PassengerCount, d.Vacancies)

	// Edge 3->4: crossing node 4 drops the rider off.
	consumed, crossed = d.AdvanceEdge(4)
	require.True(t, crossed)
	res = d.CrossNode(consumed, t0.Add(2*time.Second), nextEdge)
	assert.Equal(t, []ID{1}, res.DroppedOff)
	assert.Equal(t, RiderCompleted, r.State())
	assert.Equal(t, 2, d.Vacancies, "dropoff frees the seats")
	assert.Len(t, d.CompletedRiders, 1)

	// Edge 4->5: the terminal crossing completes the driver.
	consumed, crossed = d.AdvanceEdge(3)
	require.True(t, crossed)
	res = d.CrossNode(consumed, t0.Add(3*time.Second), nextEdge)
	assert.True(t, res.Completed)
	assert.Equal(t, DriverCompleted, d.State())
	assert.Nil(t, d.CurrentEdge)
	assert.False(t, d.Active())
	assert.InDelta(t, 11, d.TotalDistance, 1e-9)
}

func TestDriverPartialAdvance(t *testing.T) {
	d := NewDriver(0, 1, 5, t0, 2, 2, 5, []NodeID{5}, 10)

	consumed, crossed := d.AdvanceEdge(2)
	assert.False(t, crossed)
	assert.InDelta(t, 2, consumed, 1e-9)
	assert.InDelta(t, 3, d.CurrentEdge.Remaining, 1e-9)
	assert.InDelta(t, 2, d.TotalDistance, 1e-9)
}

func TestActiveAndCompletedPaid(t *testing.T) {
	d := NewDriver(0, 1, 5, t0, 3, 2, 1, []NodeID{5}, 10)
	r1 := NewRider(1, 3, 4, t0, 1, 4)
	r2 := NewRider(2, 3, 4, t0, 1, 6)
	require.NoError(t, d.MatchRiders(8, []RiderCost{{Rider: r1, Cost: 2.5}, {Rider: r2, Cost: 4}}, []NodeID{3, 4, 5}, t0))
	assert.InDelta(t, 6.5, d.ActiveAndCompletedPaid(), 1e-9)
}

func TestIDAllocator(t *testing.T) {
	var a IDAllocator
	assert.Equal(t, ID(0), a.Next())
	assert.Equal(t, ID(1), a.Next())

	var b IDAllocator
	assert.Equal(t, ID(0), b.Next(), "allocators are scoped, not global")
}

func TestClockWindows(t *testing.T) {
	tests := []struct {
		name  string
		hour  int
		rush  RushWindow
		night bool
	}{
		{"pre-dawn", 3, NoRush, true},
		{"morning edge", 7, MorningRush, false},
		{"mid-morning", 9, MorningRush, false},
		{"post-rush", 10, NoRush, false},
		{"evening", 17, EveningRush, false},
		{"late evening", 19, NoRush, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			at := time.Date(2000, 1, 1, tt.hour, 0, 0, 0, time.UTC)
			assert.Equal(t, tt.rush, Rush(at))
			assert.Equal(t, tt.night, IsNight(at))
			assert.Equal(t, tt.rush != NoRush, IsRushHour(at))
		})
	}
}
