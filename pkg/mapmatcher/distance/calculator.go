package distance

import (
	da "github.com/lintang-b-s/navigatorx-mapmatch/pkg/datastructure"
	"github.com/lintang-b-s/navigatorx-mapmatch/pkg/geo"
)

// Calculator. distance contributed by one part of a matched path.
// a part is either one matched segment with its own point window or a chain of segments between two
// matched anchors: chain[0] is the anchor before the gap, chain[len-1] the anchor after it.
type Calculator interface {
	Kind() da.DistanceKind
	SegmentPointsDistance(seg *da.MatchedWaySegment, track *da.Track) float64
	RoutingSegmentsDistance(chain []*da.MatchedWaySegment, track *da.Track) float64
}

// chainAnchors. last point of the first chain segment and first point of the last one.
// ok is false if one of them has no point in the track.
func chainAnchors(chain []*da.MatchedWaySegment, track *da.Track) (geo.Coordinate, geo.Coordinate, bool) {
	if len(chain) < 2 {
		return geo.Coordinate{}, geo.Coordinate{}, false
	}
	from := chain[0].GetEndIndex() - 1
	to := chain[len(chain)-1].GetStartIndex()
	if from < 0 || from >= track.Len() || to < 0 || to >= track.Len() {
		return geo.Coordinate{}, geo.Coordinate{}, false
	}
	return track.GetCoordinate(from), track.GetCoordinate(to), true
}

// sharedNode. node connecting a and b, INVALID_NODE_ID if they do not touch
func sharedNode(a, b *da.Segment) da.NodeID {
	for _, n := range []da.NodeID{a.GetEndNode(), a.GetStartNode()} {
		if n == b.GetStartNode() || n == b.GetEndNode() {
			return n
		}
	}
	return da.INVALID_NODE_ID
}

// offsetToNode. meter along s from the projection of c to node
func offsetToNode(s *da.Segment, c geo.Coordinate, node da.NodeID) float64 {
	along := geo.DistanceAlongLine(c, s.GetGeometry())
	if node == s.GetStartNode() {
		return along
	}
	return s.GetLength() - along
}
