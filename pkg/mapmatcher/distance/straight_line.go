package distance

import (
	da "github.com/lintang-b-s/navigatorx-mapmatch/pkg/datastructure"
	"github.com/lintang-b-s/navigatorx-mapmatch/pkg/geo"
)

// StraightLineCalculator. great-circle distance between track points, independent of the road geometry
type StraightLineCalculator struct {
	cache *GlobalCache
}

func NewStraightLineCalculator(cache *GlobalCache) *StraightLineCalculator {
	return &StraightLineCalculator{cache: cache}
}

func (c *StraightLineCalculator) Kind() da.DistanceKind {
	return da.STRAIGHT_LINE_DISTANCE
}

func (c *StraightLineCalculator) SegmentPointsDistance(seg *da.MatchedWaySegment, track *da.Track) float64 {
	return c.cache.segmentPoints(seg, track, func() float64 {
		sum := 0.0
		for i := seg.GetStartIndex() + 1; i < seg.GetEndIndex(); i++ {
			sum += geo.HaversineMeter(track.GetCoordinate(i-1), track.GetCoordinate(i))
		}
		return sum
	})
}

// RoutingSegmentsDistance. direct distance between the two anchor points
func (c *StraightLineCalculator) RoutingSegmentsDistance(chain []*da.MatchedWaySegment, track *da.Track) float64 {
	from, to, ok := chainAnchors(chain, track)
	if !ok {
		return 0
	}
	return c.cache.routingSegments(chain, track, func() float64 {
		return geo.HaversineMeter(from, to)
	})
}
