package sim

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passbi/ridesim/internal/core/domain"
)

func TestWeightedChoice(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	counts := map[int]int{}
	for i := 0; i < 5000; i++ {
		v := weightedChoice(rng, []int{1, 2, 3}, []float64{0.8, 0.15, 0.05})
		counts[v]++
	}
	assert.Greater(t, counts[1], counts[2])
	assert.Greater(t, counts[2], counts[3])
	assert.Equal(t, 5000, counts[1]+counts[2]+counts[3])
}

func TestInterarrivalScaling(t *testing.T) {
	w := newTestWorld(t, 1)
	cfg := GeneratorConfig{
		RiderInterarrivalMin:   2 * time.Second,
		RiderInterarrivalMax:   4 * time.Second,
		RushHourRateMultiplier: 2,
		NightRateMultiplier:    0.5,
		RushHourCommuteBias:    0.7,
	}

	t.Run("rush hour shortens waits", func(t *testing.T) {
		g := NewGenerator(w, cfg, 1, 1)
		rng := rand.New(rand.NewSource(2))
		// The world clock starts at 08:00, inside the morning window.
		for i := 0; i < 100; i++ {
			wait := g.interarrival(rng, cfg.RiderInterarrivalMin, cfg.RiderInterarrivalMax)
			assert.GreaterOrEqual(t, wait, time.Second)
			assert.LessOrEqual(t, wait, 2*time.Second)
		}
	})

	t.Run("simulation speed divides waits", func(t *testing.T) {
		g := NewGenerator(w, cfg, 1, 4)
		rng := rand.New(rand.NewSource(3))
		for i := 0; i < 100; i++ {
			wait := g.interarrival(rng, cfg.RiderInterarrivalMin, cfg.RiderInterarrivalMax)
			assert.LessOrEqual(t, wait, time.Second/2)
		}
	})
}

func TestTripNodesCommuteBias(t *testing.T) {
	w := newTestWorld(t, 1) // 08:00 start: morning rush
	cfg := GeneratorConfig{RushHourCommuteBias: 1.0}
	g := NewGenerator(w, cfg, 1, 1)
	rng := rand.New(rand.NewSource(4))

	// With full bias during morning rush every trip commutes from the
	// residential node (3) to the central node (2).
	for i := 0; i < 50; i++ {
		start, end := g.tripNodes(rng)
		assert.Equal(t, domain.NodeID(3), start)
		assert.Equal(t, domain.NodeID(2), end)
	}
}

func TestTripNodesNeverDegenerate(t *testing.T) {
	w := newTestWorld(t, 1)
	g := NewGenerator(w, GeneratorConfig{}, 1, 1)
	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 200; i++ {
		start, end := g.tripNodes(rng)
		assert.NotEqual(t, start, end)
	}
}

func TestGeneratorStartStop(t *testing.T) {
	w := newTestWorld(t, 1)
	cfg := GeneratorConfig{
		RiderInterarrivalMin:  time.Millisecond,
		RiderInterarrivalMax:  2 * time.Millisecond,
		DriverInterarrivalMin: time.Millisecond,
		DriverInterarrivalMax: 2 * time.Millisecond,
		TrafficUpdatePeriod:   5 * time.Millisecond,
	}
	g := NewGenerator(w, cfg, 7, 1)
	g.Start()
	g.Start() // idempotent
	time.Sleep(20 * time.Millisecond)
	g.Stop()
	g.Stop() // idempotent

	// The generators posted requests into the queue; a step ingests them.
	w.Step(context.Background(), time.Second)
	require.NotEmpty(t, w.Riders)
}
