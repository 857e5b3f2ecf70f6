package distance

import (
	da "github.com/lintang-b-s/navigatorx-mapmatch/pkg/datastructure"
	"go.uber.org/zap"
)

// Set. one calculator per distance kind
type Set struct {
	matchedPoint Calculator
	route        Calculator
	straightLine Calculator
	caches       [da.NUM_DISTANCE_KINDS]*GlobalCache
}

// NewSet. builds the three calculators with their own bounded global caches.
// with debug set, each calculator is wrapped in a LoggingCalculator.
func NewSet(cacheSize int, penalties *Penalties, log *zap.Logger, debug bool) (*Set, error) {
	s := &Set{}
	for k := da.DistanceKind(0); k < da.NUM_DISTANCE_KINDS; k++ {
		gc, err := NewGlobalCache(k, cacheSize)
		if err != nil {
			return nil, err
		}
		s.caches[k] = gc
	}

	s.matchedPoint = NewMatchedPointCalculator(s.caches[da.MATCHED_POINT_DISTANCE])
	s.route = NewRouteCalculator(s.caches[da.ROUTE_DISTANCE], penalties)
	s.straightLine = NewStraightLineCalculator(s.caches[da.STRAIGHT_LINE_DISTANCE])
	if debug {
		s.matchedPoint = NewLoggingCalculator(s.matchedPoint, log)
		s.route = NewLoggingCalculator(s.route, log)
		s.straightLine = NewLoggingCalculator(s.straightLine, log)
	}
	return s, nil
}

func (s *Set) MatchedPoint() Calculator {
	return s.matchedPoint
}

func (s *Set) Route() Calculator {
	return s.route
}

func (s *Set) StraightLine() Calculator {
	return s.straightLine
}

func (s *Set) GlobalCache(kind da.DistanceKind) *GlobalCache {
	return s.caches[kind]
}
