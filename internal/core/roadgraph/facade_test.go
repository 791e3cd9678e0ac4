package roadgraph

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testTuples builds the small fixture network used across the core's tests:
//
//	A(1) --1-- M(2) --9-- E(5)
//	            \--3-- B(3) --4-- C(4) --3-- E(5)
//
// All speeds are 1, so travel time equals distance. Node 6 is isolated.
func testTuples() ([]NodeTuple, []EdgeTuple) {
	nodes := []NodeTuple{
		{NodeID: 1, X: 0, Y: 0},
		{NodeID: 2, X: 1, Y: 0, IsCenter: true},
		{NodeID: 3, X: 1, Y: 1, IsResidential: true},
		{NodeID: 4, X: 2, Y: 1},
		{NodeID: 5, X: 3, Y: 0},
		{NodeID: 6, X: 9, Y: 9},
	}
	undirected := []EdgeTuple{
		{U: 1, V: 2, Distance: 1, BaseSpeed: 1},
		{U: 2, V: 5, Distance: 9, BaseSpeed: 1},
		{U: 2, V: 3, Distance: 3, BaseSpeed: 1},
		{U: 3, V: 4, Distance: 4, BaseSpeed: 1},
		{U: 4, V: 5, Distance: 3, BaseSpeed: 1},
	}
	edges := make([]EdgeTuple, 0, 2*len(undirected))
	for _, e := range undirected {
		edges = append(edges, e, EdgeTuple{U: e.V, V: e.U, Distance: e.Distance, BaseSpeed: e.BaseSpeed})
	}
	return nodes, edges
}

func newTestFacade(t *testing.T) *Facade {
	t.Helper()
	nodes, edges := testTuples()
	f, err := NewFacade(nodes, edges, 1)
	require.NoError(t, err)
	return f
}

func TestNewGraphValidation(t *testing.T) {
	nodes, edges := testTuples()

	tests := []struct {
		name    string
		mutate  func(*[]NodeTuple, *[]EdgeTuple)
		wantErr string
	}{
		{
			name:    "duplicate node id",
			mutate:  func(n *[]NodeTuple, _ *[]EdgeTuple) { *n = append(*n, NodeTuple{NodeID: 1}) },
			wantErr: "duplicate node id",
		},
		{
			name:    "edge references unknown node",
			mutate:  func(_ *[]NodeTuple, e *[]EdgeTuple) { *e = append(*e, EdgeTuple{U: 1, V: 99, Distance: 1, BaseSpeed: 1}) },
			wantErr: "unknown node",
		},
		{
			name:    "non-positive distance",
			mutate:  func(_ *[]NodeTuple, e *[]EdgeTuple) { *e = append(*e, EdgeTuple{U: 1, V: 2, Distance: 0, BaseSpeed: 1}) },
			wantErr: "non-positive edge distance",
		},
		{
			name:    "non-positive speed",
			mutate:  func(_ *[]NodeTuple, e *[]EdgeTuple) { *e = append(*e, EdgeTuple{U: 1, V: 2, Distance: 1, BaseSpeed: 0}) },
			wantErr: "non-positive base speed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := append([]NodeTuple{}, nodes...)
			e := append([]EdgeTuple{}, edges...)
			tt.mutate(&n, &e)
			_, err := NewGraph(n, e)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFacadeDistAndPath(t *testing.T) {
	f := newTestFacade(t)

	assert.InDelta(t, 10, f.Dist(1, 5), 1e-9, "A->E goes via M, not via B/C")
	assert.InDelta(t, 4, f.Dist(1, 3), 1e-9)
	assert.InDelta(t, 4, f.Dist(3, 4), 1e-9)
	assert.InDelta(t, 0, f.Dist(2, 2), 1e-9)

	assert.Equal(t, []NodeID{1, 2, 5}, f.Path(1, 5))
	assert.Empty(t, f.Path(2, 2))

	assert.GreaterOrEqual(t, f.Dist(1, 6), Infinity, "isolated node is unreachable")
	assert.Empty(t, f.Path(1, 6))
}

func TestFacadeRawDistance(t *testing.T) {
	f := newTestFacade(t)
	// Speeds are 1 in the fixture, so both tables agree.
	assert.InDelta(t, f.Dist(1, 5), f.RawDistance(1, 5), 1e-9)
}

func TestFacadeNodesWhere(t *testing.T) {
	f := newTestFacade(t)
	assert.Equal(t, []NodeID{2}, f.NodesWhere(func(n *Node) bool { return n.IsCenter }))
	assert.Equal(t, []NodeID{3}, f.NodesWhere(func(n *Node) bool { return n.IsResidential }))
	assert.Len(t, f.NodesWhere(func(*Node) bool { return true }), 6)
}

func TestUpdateTrafficCongestionRanges(t *testing.T) {
	rush := time.Date(2000, 1, 1, 8, 0, 0, 0, time.UTC)  // morning rush
	night := time.Date(2000, 1, 1, 3, 0, 0, 0, time.UTC) // neither window

	t.Run("rush hour slows zone edges", func(t *testing.T) {
		f := newTestFacade(t)
		f.UpdateTraffic(rush)
		e, ok := f.EdgeBetween(2, 3) // center -> residential, zone edge
		require.True(t, ok)
		ratio := e.Speed / e.BaseSpeed
		assert.GreaterOrEqual(t, ratio, 0.5)
		assert.Less(t, ratio, 0.9)
	})

	t.Run("off-peak stays near nominal", func(t *testing.T) {
		f := newTestFacade(t)
		f.UpdateTraffic(night)
		for _, pair := range [][2]NodeID{{1, 2}, {2, 3}, {3, 4}, {4, 5}} {
			e, ok := f.EdgeBetween(pair[0], pair[1])
			require.True(t, ok)
			ratio := e.Speed / e.BaseSpeed
			assert.GreaterOrEqual(t, ratio, 0.9)
			assert.LessOrEqual(t, ratio, 1.0)
		}
	})

	t.Run("tables rebuild against the new speeds", func(t *testing.T) {
		f := newTestFacade(t)
		before := f.Dist(1, 5)
		f.UpdateTraffic(rush)
		after := f.Dist(1, 5)
		assert.Greater(t, after, before, "congestion can only slow travel")
	})
}

func TestUpdateTrafficDeterministicUnderSeed(t *testing.T) {
	nodes, edges := testTuples()
	now := time.Date(2000, 1, 1, 8, 0, 0, 0, time.UTC)

	f1, err := NewFacade(nodes, edges, 42)
	require.NoError(t, err)
	f2, err := NewFacade(nodes, edges, 42)
	require.NoError(t, err)

	f1.UpdateTraffic(now)
	f2.UpdateTraffic(now)

	for _, pair := range [][2]NodeID{{1, 2}, {2, 3}, {3, 4}, {4, 5}, {2, 5}} {
		e1, ok1 := f1.EdgeBetween(pair[0], pair[1])
		e2, ok2 := f2.EdgeBetween(pair[0], pair[1])
		require.True(t, ok1)
		require.True(t, ok2)
		assert.Equal(t, e1.Speed, e2.Speed)
	}
}
