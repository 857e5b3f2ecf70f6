package distance

import (
	"math"

	da "github.com/lintang-b-s/navigatorx-mapmatch/pkg/datastructure"
	"github.com/lintang-b-s/navigatorx-mapmatch/pkg/geo"
)

// RouteCalculator. distance travelled along the matched road geometry, penalties included
type RouteCalculator struct {
	cache     *GlobalCache
	penalties *Penalties
}

func NewRouteCalculator(cache *GlobalCache, penalties *Penalties) *RouteCalculator {
	return &RouteCalculator{cache: cache, penalties: penalties}
}

func (c *RouteCalculator) Kind() da.DistanceKind {
	return da.ROUTE_DISTANCE
}

// SegmentPointsDistance. sum of the distances along the segment between consecutive window points
func (c *RouteCalculator) SegmentPointsDistance(seg *da.MatchedWaySegment, track *da.Track) float64 {
	return c.cache.segmentPoints(seg, track, func() float64 {
		geom := seg.GetSegment().GetGeometry()
		sum := 0.0
		prev := -1.0
		for i := seg.GetStartIndex(); i < seg.GetEndIndex(); i++ {
			along := geo.DistanceAlongLine(track.GetCoordinate(i), geom)
			if prev >= 0 {
				sum += math.Abs(along - prev)
			}
			prev = along
		}
		return sum
	})
}

// RoutingSegmentsDistance. from the last point of the first anchor to its exit node, the full length
// of every segment in between, and from the entry node of the last anchor to its first point.
func (c *RouteCalculator) RoutingSegmentsDistance(chain []*da.MatchedWaySegment, track *da.Track) float64 {
	from, to, ok := chainAnchors(chain, track)
	if !ok {
		return 0
	}
	// the cache keys carry no penalty state, only the geometric part is cached
	dist := c.cache.routingSegments(chain, track, func() float64 {
		first := chain[0].GetSegment()
		last := chain[len(chain)-1].GetSegment()

		exit := sharedNode(first, chain[1].GetSegment())
		entry := sharedNode(chain[len(chain)-2].GetSegment(), last)
		if exit == da.INVALID_NODE_ID || entry == da.INVALID_NODE_ID {
			return geo.HaversineMeter(from, to)
		}

		d := offsetToNode(first, from, exit)
		for _, s := range chain[1 : len(chain)-1] {
			d += s.GetSegment().GetLength()
		}
		return d + offsetToNode(last, to, entry)
	})
	return dist + c.penalties.Chain(chain)
}
