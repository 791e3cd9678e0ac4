// Package models defines the wire formats exchanged with the ingestion
// collaborator: the node/edge tuple lists the core's graph constructor
// consumes, and the city metadata file describing central/residential areas.
package models

import (
	"github.com/passbi/ridesim/internal/core/roadgraph"
)

// NodeRecord is one resolved graph node: a projected planar position plus
// the two area tags the congestion model reads.
type NodeRecord struct {
	ID            int64   `json:"id"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	IsCenter      bool    `json:"is_center"`
	IsResidential bool    `json:"is_residential"`
}

// EdgeRecord is one directed road segment. Ingestion emits each undirected
// road twice, once per direction.
type EdgeRecord struct {
	U         int64   `json:"u"`
	V         int64   `json:"v"`
	Distance  float64 `json:"distance"`
	BaseSpeed float64 `json:"base_speed"`
}

// GraphInput is the complete graph description handed to the core.
type GraphInput struct {
	Nodes []NodeRecord `json:"nodes"`
	Edges []EdgeRecord `json:"edges"`
}

// Tuples converts the wire records into the core's construction input.
func (g GraphInput) Tuples() ([]roadgraph.NodeTuple, []roadgraph.EdgeTuple) {
	nodes := make([]roadgraph.NodeTuple, len(g.Nodes))
	for i, n := range g.Nodes {
		nodes[i] = roadgraph.NodeTuple{
			NodeID:        roadgraph.NodeID(n.ID),
			X:             n.X,
			Y:             n.Y,
			IsCenter:      n.IsCenter,
			IsResidential: n.IsResidential,
		}
	}
	edges := make([]roadgraph.EdgeTuple, len(g.Edges))
	for i, e := range g.Edges {
		edges[i] = roadgraph.EdgeTuple{
			U:         roadgraph.NodeID(e.U),
			V:         roadgraph.NodeID(e.V),
			Distance:  e.Distance,
			BaseSpeed: e.BaseSpeed,
		}
	}
	return nodes, edges
}

// Point is a projected planar coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Area is a circular zone in the projected plane.
type Area struct {
	Center Point   `json:"center"`
	Radius float64 `json:"radius"`
}

// Contains reports whether the point (x, y) falls inside the area.
func (a Area) Contains(x, y float64) bool {
	dx := x - a.Center.X
	dy := y - a.Center.Y
	return dx*dx+dy*dy <= a.Radius*a.Radius
}

// CityMetadata is one entry of the city metadata file: the named city, its
// central and residential zones, and the OSM filter expression the map
// ingestion collaborator applies when extracting the road network.
type CityMetadata struct {
	City             string `json:"city"`
	CentralAreas     []Area `json:"central_areas"`
	ResidentialAreas []Area `json:"residential_areas"`
	OSMFilters       string `json:"osm_filters"`
}
