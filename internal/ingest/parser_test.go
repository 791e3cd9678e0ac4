package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passbi/ridesim/internal/models"
)

func TestParseNodesFromReader(t *testing.T) {
	csvData := `id,x,y
1,0.0,0.0
2,100.5,-20.25
bad,1.0,1.0
3,nope,1.0
4,5.0,6.0`

	nodes, err := parseNodesFromReader(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, nodes, 3, "invalid rows are skipped, not fatal")

	assert.Equal(t, int64(1), nodes[0].ID)
	assert.InDelta(t, 100.5, nodes[1].X, 1e-9)
	assert.InDelta(t, -20.25, nodes[1].Y, 1e-9)
	assert.False(t, nodes[0].IsCenter, "area tags resolve later against city metadata")
}

func TestParseNodesReorderedColumns(t *testing.T) {
	csvData := `y,id,x
2.0,7,1.0`

	nodes, err := parseNodesFromReader(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, int64(7), nodes[0].ID)
	assert.InDelta(t, 1.0, nodes[0].X, 1e-9)
	assert.InDelta(t, 2.0, nodes[0].Y, 1e-9)
}

func TestParseEdgesFromReader(t *testing.T) {
	csvData := `u,v,distance,base_speed
1,2,150.0,13.9
2,3,0,13.9
3,4,80.0,-1
4,5,60.5,8.3`

	edges, err := parseEdgesFromReader(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, edges, 4, "two valid rows, each emitted in both directions")

	assert.Equal(t, int64(1), edges[0].U)
	assert.Equal(t, int64(2), edges[0].V)
	assert.Equal(t, int64(2), edges[1].U)
	assert.Equal(t, int64(1), edges[1].V)
	assert.InDelta(t, 150.0, edges[1].Distance, 1e-9)
	assert.InDelta(t, 13.9, edges[1].BaseSpeed, 1e-9)

	assert.Equal(t, int64(4), edges[2].U)
	assert.Equal(t, int64(5), edges[2].V)
}

func TestResolveAreas(t *testing.T) {
	city := models.CityMetadata{
		City: "sample-city",
		CentralAreas: []models.Area{
			{Center: models.Point{X: 0, Y: 0}, Radius: 10},
		},
		ResidentialAreas: []models.Area{
			{Center: models.Point{X: 100, Y: 0}, Radius: 5},
		},
	}
	nodes := []models.NodeRecord{
		{ID: 1, X: 3, Y: 4},    // inside the central circle
		{ID: 2, X: 100, Y: 4},  // inside the residential circle
		{ID: 3, X: 50, Y: 50},  // inside neither
		{ID: 4, X: 0, Y: 10},   // exactly on the central boundary
	}

	tagged := ResolveAreas(nodes, city)
	require.Len(t, tagged, 4)

	assert.True(t, tagged[0].IsCenter)
	assert.False(t, tagged[0].IsResidential)
	assert.True(t, tagged[1].IsResidential)
	assert.False(t, tagged[1].IsCenter)
	assert.False(t, tagged[2].IsCenter)
	assert.False(t, tagged[2].IsResidential)
	assert.True(t, tagged[3].IsCenter, "the boundary is inclusive")
}

func TestFindCity(t *testing.T) {
	cities := []models.CityMetadata{
		{City: "sample-city"},
		{City: "other-city"},
	}

	found, err := FindCity(cities, "other-city")
	require.NoError(t, err)
	assert.Equal(t, "other-city", found.City)

	_, err = FindCity(cities, "missing")
	assert.Error(t, err)
}
