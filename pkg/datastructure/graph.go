package datastructure

import (
	"fmt"
	"math"

	"github.com/lintang-b-s/navigatorx-mapmatch/pkg/util"
)

// Graph. in-memory road graph of segments. safe for concurrent reads once built.
type Graph struct {
	segments     map[SegmentID]*Segment
	order        []SegmentID
	nodeSegments map[NodeID][]SegmentID
	boundingBox  *BoundingBox
}

func NewGraph() *Graph {
	return &Graph{
		segments:     make(map[SegmentID]*Segment),
		order:        make([]SegmentID, 0),
		nodeSegments: make(map[NodeID][]SegmentID),
		boundingBox:  NewBoundingBox(math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)),
	}
}

func (g *Graph) AddSegment(s *Segment) error {
	if _, ok := g.segments[s.GetID()]; ok {
		return util.WrapErrorf(nil, util.ErrBadParamInput, "segment %d already exists", s.GetID())
	}
	if len(s.GetGeometry()) < 2 {
		return util.WrapErrorf(nil, util.ErrBadParamInput, "segment %d needs at least two coordinates", s.GetID())
	}
	g.segments[s.GetID()] = s
	g.order = append(g.order, s.GetID())
	g.nodeSegments[s.GetStartNode()] = append(g.nodeSegments[s.GetStartNode()], s.GetID())
	if s.GetEndNode() != s.GetStartNode() {
		g.nodeSegments[s.GetEndNode()] = append(g.nodeSegments[s.GetEndNode()], s.GetID())
	}
	for _, c := range s.GetGeometry() {
		g.boundingBox.extend(c.Lat, c.Lon)
	}
	return nil
}

func (g *Graph) GetSegment(id SegmentID) (*Segment, error) {
	s, ok := g.segments[id]
	if !ok {
		return nil, util.WrapErrorf(nil, util.ErrNotFound, "segment %d not found", id)
	}
	return s, nil
}

// NeighborSegments. all segments incident to node, in insertion order
func (g *Graph) NeighborSegments(node NodeID) []*Segment {
	ids := g.nodeSegments[node]
	out := make([]*Segment, 0, len(ids))
	for _, id := range ids {
		out = append(out, g.segments[id])
	}
	return out
}

func (g *Graph) ForSegments(handle func(s *Segment)) {
	for _, id := range g.order {
		handle(g.segments[id])
	}
}

func (g *Graph) NumberOfSegments() int {
	return len(g.order)
}

func (g *Graph) NumberOfNodes() int {
	return len(g.nodeSegments)
}

func (g *Graph) GetBoundingBox() *BoundingBox {
	return g.boundingBox
}

func (g *Graph) String() string {
	return fmt.Sprintf("Graph{segments: %d, nodes: %d}", g.NumberOfSegments(), g.NumberOfNodes())
}
