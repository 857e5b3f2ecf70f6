package routing

import (
	"context"
	"math"

	da "github.com/lintang-b-s/navigatorx-mapmatch/pkg/datastructure"
	"github.com/lintang-b-s/navigatorx-mapmatch/pkg/util"
)

// PathSegment. segment of a routed path with the direction it is traversed in
type PathSegment struct {
	segment   *da.Segment
	direction da.Direction
}

func NewPathSegment(segment *da.Segment, direction da.Direction) PathSegment {
	return PathSegment{segment: segment, direction: direction}
}

func (ps PathSegment) GetSegment() *da.Segment {
	return ps.segment
}

func (ps PathSegment) GetDirection() da.Direction {
	return ps.direction
}

type vertexInfo struct {
	cost   float64
	hops   int
	parent da.SegmentQueryKey
	root   bool
	node   *da.PriorityQueueNode[da.SegmentQueryKey]
}

// SegmentDijkstra. shortest path between two segments over the segment graph,
// bounded by the number of traversed segments.
type SegmentDijkstra struct {
	graph *da.Graph
	mode  da.RoutingMode
}

func NewSegmentDijkstra(graph *da.Graph, mode da.RoutingMode) *SegmentDijkstra {
	return &SegmentDijkstra{
		graph: graph,
		mode:  mode,
	}
}

func (us *SegmentDijkstra) cost(s *da.Segment, forward bool, criteria da.RoutingCriteria) float64 {
	if criteria == da.CRITERIA_TIME {
		return s.TravelTime(forward)
	}
	return s.GetLength()
}

// ShortestPath. path leaving from through one of exitNodes and ending on to. the returned
// path starts with the first segment after from and ends with to; at most maxSegments segments.
// returns util.ErrNotFound if no such path exists.
func (us *SegmentDijkstra) ShortestPath(ctx context.Context, from *da.Segment, exitNodes []da.NodeID,
	to *da.Segment, maxSegments int, criteria da.RoutingCriteria) ([]PathSegment, error) {

	pq := da.NewFourAryHeap[da.SegmentQueryKey]()
	info := make(map[da.SegmentQueryKey]*vertexInfo)

	relax := func(key da.SegmentQueryKey, cost float64, hops int, parent da.SegmentQueryKey, root bool) {
		if hops > maxSegments {
			return
		}
		cur, ok := info[key]
		if ok && da.Ge(cost, cur.cost) {
			return
		}
		if ok && cur.node.GetPos() >= 0 {
			cur.cost, cur.hops, cur.parent, cur.root = cost, hops, parent, root
			_ = pq.DecreaseKey(cur.node, cost)
			return
		}
		node := da.NewPriorityQueueNode(cost, key)
		info[key] = &vertexInfo{cost: cost, hops: hops, parent: parent, root: root, node: node}
		pq.Insert(node)
	}

	for _, n := range exitNodes {
		for _, s := range us.graph.NeighborSegments(n) {
			if s.GetID() == from.GetID() {
				continue
			}
			dir, _ := da.DirectionEnteringAt(s, n)
			if !da.CanTraverse(s, dir.IsForward(), us.mode) {
				continue
			}
			key := da.NewSegmentQueryKey(s.GetID(), n)
			c := 0.0
			if s.GetID() != to.GetID() {
				c = us.cost(s, dir.IsForward(), criteria)
			}
			relax(key, c, 1, key, true)
		}
	}

	settled := 0
	for !pq.IsEmpty() {
		if settled%64 == 0 && util.StopConcurrentOperation(ctx) {
			return nil, util.WrapErrorf(ctx.Err(), util.ErrCancelled, "shortest path search cancelled")
		}
		settled++

		qNode, _ := pq.ExtractMin()
		key := qNode.GetItem()
		cur := info[key]
		s, err := us.graph.GetSegment(key.GetSegment())
		if err != nil {
			return nil, err
		}

		if s.GetID() == to.GetID() {
			return us.unpack(info, key)
		}

		exit := s.OtherNode(key.GetEntry())
		if s.GetStartNode() == s.GetEndNode() {
			exit = s.GetStartNode()
		}
		for _, next := range us.graph.NeighborSegments(exit) {
			if next.GetID() == s.GetID() {
				continue
			}
			dir, _ := da.DirectionEnteringAt(next, exit)
			if !da.CanTraverse(next, dir.IsForward(), us.mode) {
				continue
			}
			c := cur.cost
			if next.GetID() != to.GetID() {
				c += us.cost(next, dir.IsForward(), criteria)
			}
			relax(da.NewSegmentQueryKey(next.GetID(), exit), c, cur.hops+1, key, false)
		}
	}

	return nil, util.WrapErrorf(nil, util.ErrNotFound, "no path from segment %d to segment %d within %d segments",
		from.GetID(), to.GetID(), maxSegments)
}

func (us *SegmentDijkstra) unpack(info map[da.SegmentQueryKey]*vertexInfo, target da.SegmentQueryKey) ([]PathSegment, error) {
	path := make([]PathSegment, 0)
	key := target
	for {
		s, err := us.graph.GetSegment(key.GetSegment())
		if err != nil {
			return nil, err
		}
		dir, _ := da.DirectionEnteringAt(s, key.GetEntry())
		path = append(path, NewPathSegment(s, dir))
		cur := info[key]
		if cur.root {
			break
		}
		key = cur.parent
	}
	return reversePath(path), nil
}

func reversePath(path []PathSegment) []PathSegment {
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// PathCost. summed cost of the segments of path, to included
func (us *SegmentDijkstra) PathCost(path []PathSegment, criteria da.RoutingCriteria) float64 {
	total := 0.0
	for _, ps := range path {
		total += us.cost(ps.GetSegment(), ps.GetDirection().IsForward(), criteria)
	}
	if math.IsNaN(total) {
		return math.Inf(1)
	}
	return total
}
