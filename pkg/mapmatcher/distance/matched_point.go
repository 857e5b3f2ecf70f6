package distance

import (
	da "github.com/lintang-b-s/navigatorx-mapmatch/pkg/datastructure"
)

// MatchedPointCalculator. distance of the track points to the matched segments
type MatchedPointCalculator struct {
	cache *GlobalCache
}

func NewMatchedPointCalculator(cache *GlobalCache) *MatchedPointCalculator {
	return &MatchedPointCalculator{cache: cache}
}

func (c *MatchedPointCalculator) Kind() da.DistanceKind {
	return da.MATCHED_POINT_DISTANCE
}

// SegmentPointsDistance. mean distance of the window points to the segment.
// an empty segment contributes its own matched factor.
func (c *MatchedPointCalculator) SegmentPointsDistance(seg *da.MatchedWaySegment, track *da.Track) float64 {
	return c.cache.segmentPoints(seg, track, func() float64 {
		if seg.IsEmpty() {
			return seg.GetMatchedFactor()
		}
		sum := 0.0
		for _, d := range seg.GetDistances() {
			sum += d
		}
		return sum / float64(seg.NumberOfPoints())
	})
}

// RoutingSegmentsDistance. summed matched factor of the segments between the anchors
func (c *MatchedPointCalculator) RoutingSegmentsDistance(chain []*da.MatchedWaySegment, track *da.Track) float64 {
	if len(chain) < 2 {
		return 0
	}
	return c.cache.routingSegments(chain, track, func() float64 {
		sum := 0.0
		for _, s := range chain[1 : len(chain)-1] {
			sum += s.GetMatchedFactor()
		}
		return sum
	})
}
