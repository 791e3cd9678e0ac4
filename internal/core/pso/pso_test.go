package pso

import (
	"testing"
	"time"

	"golang.org/x/exp/rand"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passbi/ridesim/internal/core/domain"
	"github.com/passbi/ridesim/internal/core/routing"
)

var t0 = time.Date(2000, 1, 1, 8, 0, 0, 0, time.UTC)

// fixtureDist serves the shortest travel-time matrix of the test network
// used across the core's packages (unit speeds, A=1 M=2 B=3 C=4 E=5).
func fixtureDist(u, v routing.NodeID) float64 {
	if u == v {
		return 0
	}
	if u > v {
		u, v = v, u
	}
	table := map[[2]routing.NodeID]float64{
		{1, 2}: 1, {1, 3}: 4, {1, 4}: 8, {1, 5}: 10,
		{2, 3}: 3, {2, 4}: 7, {2, 5}: 9,
		{3, 4}: 4, {3, 5}: 7,
		{4, 5}: 3,
	}
	if d, ok := table[[2]routing.NodeID{u, v}]; ok {
		return d
	}
	return routing.Infinity
}

// fixtureDriver sits one unit into its first edge (1 -> 2), heading for
// node 5 with a solo baseline of 10.
func fixtureDriver(seats int) *domain.Driver {
	return domain.NewDriver(0, 1, 5, t0, seats, 2, 1, []domain.NodeID{5}, 10)
}

func TestPreFilter(t *testing.T) {
	d := fixtureDriver(2)

	onTheWay := domain.NewRider(1, 3, 4, t0, 1, 4)
	backwards := domain.NewRider(2, 5, 1, t0, 1, 10)
	tooMany := domain.NewRider(3, 3, 4, t0, 3, 4)

	kept := PreFilter(d, 2, []*domain.Rider{onTheWay, backwards, tooMany}, fixtureDist)
	require.Len(t, kept, 1)
	assert.Equal(t, domain.ID(1), kept[0].ID)
}

func TestPseudoRandomizeVector(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for trial := 0; trial < 50; trial++ {
		vec := pseudoRandomizeVector(rng, 8, 3)
		positives := 0
		for _, v := range vec {
			assert.GreaterOrEqual(t, v, -1.0)
			assert.LessOrEqual(t, v, 1.0)
			if v > 0 {
				positives++
			}
		}
		assert.LessOrEqual(t, positives, 3, "initialisation never exceeds the vacancy cap")
	}
}

func TestDecodeParticle(t *testing.T) {
	riders := []*domain.Rider{
		domain.NewRider(0, 3, 4, t0, 1, 4),
		domain.NewRider(1, 3, 4, t0, 1, 4),
		domain.NewRider(2, 3, 4, t0, 1, 4),
	}

	t.Run("positive components sorted descending", func(t *testing.T) {
		selected := decodeParticle([]float64{0.2, -0.5, 0.9}, riders, 3)
		require.Len(t, selected, 2)
		assert.Equal(t, domain.ID(2), selected[0].ID)
		assert.Equal(t, domain.ID(0), selected[1].ID)
	})

	t.Run("truncated to the cap", func(t *testing.T) {
		selected := decodeParticle([]float64{0.2, 0.5, 0.9}, riders, 1)
		require.Len(t, selected, 1)
		assert.Equal(t, domain.ID(2), selected[0].ID)
	})

	t.Run("all negative decodes empty", func(t *testing.T) {
		assert.Empty(t, decodeParticle([]float64{-0.2, -0.5, -0.9}, riders, 3))
	})
}

func TestRunFindsBeneficialRider(t *testing.T) {
	d := fixtureDriver(2)
	rider := domain.NewRider(1, 3, 4, t0, 1, 4)
	candidates := PreFilter(d, 2, []*domain.Rider{rider}, fixtureDist)
	require.Len(t, candidates, 1)

	cand := Run(d, candidates, fixtureDist, DefaultConfig(), 99)
	require.Len(t, cand.SelectedRiders, 1)
	assert.Equal(t, domain.ID(1), cand.SelectedRiders[0].ID)
	assert.InDelta(t, 3, cand.Savings, 1e-9)
	assert.InDelta(t, 10, cand.RouteCost, 1e-9)
	assert.Equal(t, []routing.NodeID{2, 3, 4, 5}, cand.Route)
}

func TestRunEmptyCandidates(t *testing.T) {
	d := fixtureDriver(2)
	cand := Run(d, nil, fixtureDist, DefaultConfig(), 1)
	assert.Empty(t, cand.SelectedRiders)
	assert.Zero(t, cand.Savings)
}

func TestRunDeterministicUnderSeed(t *testing.T) {
	riders := []*domain.Rider{
		domain.NewRider(1, 3, 4, t0, 1, 4),
		domain.NewRider(2, 2, 3, t0, 1, 3),
		domain.NewRider(3, 4, 5, t0, 1, 3),
	}

	run := func() Candidate {
		d := fixtureDriver(3)
		candidates := PreFilter(d, 2, riders, fixtureDist)
		return Run(d, candidates, fixtureDist, DefaultConfig(), 1234)
	}

	a, b := run(), run()
	require.Len(t, b.SelectedRiders, len(a.SelectedRiders))
	for i := range a.SelectedRiders {
		assert.Equal(t, a.SelectedRiders[i].ID, b.SelectedRiders[i].ID)
	}
	assert.Equal(t, a.Savings, b.Savings)
	assert.Equal(t, a.Route, b.Route)
	assert.Equal(t, a.LastImprovingIter, b.LastImprovingIter)
}

func TestRunRespectsVacancies(t *testing.T) {
	d := fixtureDriver(1)
	riders := []*domain.Rider{
		domain.NewRider(1, 3, 4, t0, 1, 4),
		domain.NewRider(2, 2, 3, t0, 1, 3),
	}
	candidates := PreFilter(d, 2, riders, fixtureDist)
	cand := Run(d, candidates, fixtureDist, DefaultConfig(), 5)
	assert.LessOrEqual(t, len(cand.SelectedRiders), 1)
}
