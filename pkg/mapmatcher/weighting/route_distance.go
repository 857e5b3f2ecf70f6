package weighting

import (
	"math"

	da "github.com/lintang-b-s/navigatorx-mapmatch/pkg/datastructure"
	"github.com/lintang-b-s/navigatorx-mapmatch/pkg/mapmatcher/distance"
)

const ROUTE_DISTANCE = "route_distance"

type RouteDistanceOptions struct {
	Radius               float64
	RouteFactorWeight    float64
	MatchedFactorWeight  float64
	MaxScore             float64
	MaxPartRouteFactor   float64
	NrOfLastPartsToCheck int
	MinAbsoluteDistance  float64
}

// Part. scored piece of a branch: one matched segment or the chain linking two matched segments
type Part struct {
	Routing       bool
	Straight      float64
	Route         float64
	MatchedPoint  float64
	RouteFactor   float64
	MatchedFactor float64
	Weight        float64
}

// RouteDistanceStrategy. compares the distance travelled on the road with the distance
// between the track points, and the distance of the points to the road, part by part.
type RouteDistanceStrategy struct {
	calculators *distance.Set
	opts        RouteDistanceOptions
}

func NewRouteDistanceStrategy(calculators *distance.Set, opts RouteDistanceOptions) *RouteDistanceStrategy {
	return &RouteDistanceStrategy{calculators: calculators, opts: opts}
}

func (rs *RouteDistanceStrategy) Name() string {
	return ROUTE_DISTANCE
}

// RouteFactor. relative deviation of the route distance from the straight line distance.
// below the minimum absolute distance the ratio is unstable: 0 for a small deviation, 1 otherwise.
func (rs *RouteDistanceStrategy) RouteFactor(straight, route float64) float64 {
	diff := math.Abs(straight - route)
	if straight < rs.opts.MinAbsoluteDistance {
		if diff < rs.opts.MinAbsoluteDistance {
			return 0
		}
		return 1
	}
	return diff / straight
}

func (rs *RouteDistanceStrategy) newPart(routing bool, straight, route, matched float64, points int) Part {
	p := Part{
		Routing:      routing,
		Straight:     straight,
		Route:        route,
		MatchedPoint: matched,
		RouteFactor:  rs.RouteFactor(straight, route),
	}
	p.MatchedFactor = matched / rs.opts.Radius
	p.Weight = (rs.opts.RouteFactorWeight*p.RouteFactor + rs.opts.MatchedFactorWeight*p.MatchedFactor) * float64(points)
	return p
}

// Parts. parts of branch in order. a segment part is weighted by its number of points,
// a routing part counts once. empty segments after the last matched segment are not scored yet.
func (rs *RouteDistanceStrategy) Parts(branch *da.MatchedBranch, track *da.Track) []Part {
	mp := rs.calculators.MatchedPoint()
	rt := rs.calculators.Route()
	sl := rs.calculators.StraightLine()

	segments := branch.GetSegments()
	parts := make([]Part, 0, 2*len(segments))
	prev := -1
	for i, s := range segments {
		if s.IsEmpty() {
			continue
		}
		if prev >= 0 {
			chain := segments[prev : i+1]
			parts = append(parts, rs.newPart(true,
				sl.RoutingSegmentsDistance(chain, track),
				rt.RoutingSegmentsDistance(chain, track),
				mp.RoutingSegmentsDistance(chain, track), 1))
		}
		part := rs.newPart(false,
			sl.SegmentPointsDistance(s, track),
			rt.SegmentPointsDistance(s, track),
			mp.SegmentPointsDistance(s, track), s.NumberOfPoints())
		s.SetWeight(part.Weight)
		parts = append(parts, part)
		prev = i
	}
	return parts
}

// Evaluate. valid if the score stays below the ceiling and none of the most recent parts
// took a detour beyond the per part route factor ceiling.
func (rs *RouteDistanceStrategy) Evaluate(branch *da.MatchedBranch, track *da.Track) bool {
	if branch.GetMatchedPoints() == 0 {
		branch.SetMatchedFactor(math.Inf(1))
		return false
	}
	parts := rs.Parts(branch, track)
	sum := 0.0
	for _, p := range parts {
		sum += p.Weight
	}
	score := sum / float64(branch.GetMatchedPoints())
	branch.SetMatchedFactor(score)
	if score >= rs.opts.MaxScore {
		return false
	}

	from := len(parts) - rs.opts.NrOfLastPartsToCheck
	if from < 0 {
		from = 0
	}
	for _, p := range parts[from:] {
		if p.RouteFactor > rs.opts.MaxPartRouteFactor {
			return false
		}
	}
	return true
}

func (rs *RouteDistanceStrategy) Compare(a, b *da.MatchedBranch) int {
	return compareBranches(a, b)
}
