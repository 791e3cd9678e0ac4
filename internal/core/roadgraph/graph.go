// Package roadgraph implements the Road Graph Facade: a directed weighted
// graph plus cached all-pairs shortest-travel-time tables, rebuilt wholesale
// on construction and on every traffic update.
package roadgraph

import (
	"fmt"

	"github.com/passbi/ridesim/internal/core/domain"
)

// NodeID aliases the shared domain node id so callers never need to import
// both packages just to talk about a node.
type NodeID = domain.NodeID

// Node is one graph vertex: a position in a projected metric plane plus the
// two area tags used by the congestion model.
type Node struct {
	ID            NodeID
	X, Y          float64
	IsCenter      bool
	IsResidential bool
}

// Edge is one directed graph arc. Distance is the fixed geometric length;
// BaseSpeed is the nominal speed; Speed is the mutable, congestion-adjusted
// speed resampled by UpdateTraffic.
type Edge struct {
	From, To  NodeID
	Distance  float64
	BaseSpeed float64
	Speed     float64
}

// TravelTime returns the edge's current travel-time cost, Distance/Speed.
func (e *Edge) TravelTime() float64 {
	if e.Speed <= 0 {
		return Infinity
	}
	return e.Distance / e.Speed
}

// Infinity is the routing kernel / facade's representation of an
// unreachable pair.
const Infinity = 1e18

// NodeTuple and EdgeTuple are the ingestion collaborator's wire format:
// (node_id, x, y, is_center, is_residential) and
// (u, v, distance, base_speed).
type NodeTuple struct {
	NodeID        NodeID
	X, Y          float64
	IsCenter      bool
	IsResidential bool
}

type EdgeTuple struct {
	U, V      NodeID
	Distance  float64
	BaseSpeed float64
}

// Graph is the adjacency-list representation built from ingested tuples.
// Edges are inserted in both directions by the ingestion collaborator; the
// graph itself stores exactly what it is given.
type Graph struct {
	Nodes map[NodeID]*Node
	adj   map[NodeID][]*Edge
	order []NodeID // stable iteration order for deterministic all-pairs rebuilds
}

// NewGraph validates and builds a Graph from ingested tuples. A duplicate
// node id, an edge referencing an unknown node, or a non-positive distance
// is a construction-time ErrGraphLoadFailure, fatal at caller level.
func NewGraph(nodes []NodeTuple, edges []EdgeTuple) (*Graph, error) {
	g := &Graph{
		Nodes: make(map[NodeID]*Node, len(nodes)),
		adj:   make(map[NodeID][]*Edge, len(nodes)),
	}
	for _, nt := range nodes {
		if _, dup := g.Nodes[nt.NodeID]; dup {
			return nil, fmt.Errorf("duplicate node id %d: %w", nt.NodeID, domain.ErrGraphLoadFailure)
		}
		g.Nodes[nt.NodeID] = &Node{ID: nt.NodeID, X: nt.X, Y: nt.Y, IsCenter: nt.IsCenter, IsResidential: nt.IsResidential}
		g.order = append(g.order, nt.NodeID)
	}
	for _, et := range edges {
		if _, ok := g.Nodes[et.U]; !ok {
			return nil, fmt.Errorf("edge references unknown node %d: %w", et.U, domain.ErrGraphLoadFailure)
		}
		if _, ok := g.Nodes[et.V]; !ok {
			return nil, fmt.Errorf("edge references unknown node %d: %w", et.V, domain.ErrGraphLoadFailure)
		}
		if et.Distance <= 0 {
			return nil, fmt.Errorf("non-positive edge distance %g between %d and %d: %w", et.Distance, et.U, et.V, domain.ErrGraphLoadFailure)
		}
		if et.BaseSpeed <= 0 {
			return nil, fmt.Errorf("non-positive base speed %g on edge %d->%d: %w", et.BaseSpeed, et.U, et.V, domain.ErrGraphLoadFailure)
		}
		g.adj[et.U] = append(g.adj[et.U], &Edge{From: et.U, To: et.V, Distance: et.Distance, BaseSpeed: et.BaseSpeed, Speed: et.BaseSpeed})
	}
	return g, nil
}

// Neighbors returns the outgoing edges from a node. The returned slice is
// shared and must not be mutated by callers.
func (g *Graph) Neighbors(u NodeID) []*Edge { return g.adj[u] }

// EdgeBetween finds the directed edge u->v, if one exists.
func (g *Graph) EdgeBetween(u, v NodeID) (*Edge, bool) {
	for _, e := range g.adj[u] {
		if e.To == v {
			return e, true
		}
	}
	return nil, false
}

// NodesWhere returns every node id satisfying predicate.
func (g *Graph) NodesWhere(predicate func(*Node) bool) []NodeID {
	var out []NodeID
	for _, id := range g.order {
		if predicate(g.Nodes[id]) {
			out = append(out, id)
		}
	}
	return out
}
