package distance

import (
	da "github.com/lintang-b-s/navigatorx-mapmatch/pkg/datastructure"
	"go.uber.org/zap"
)

// LoggingCalculator. wraps a Calculator and logs every part boundary it is asked about, for debugging.
type LoggingCalculator struct {
	inner Calculator
	log   *zap.Logger
}

func NewLoggingCalculator(inner Calculator, log *zap.Logger) *LoggingCalculator {
	return &LoggingCalculator{inner: inner, log: log}
}

func (c *LoggingCalculator) Kind() da.DistanceKind {
	return c.inner.Kind()
}

func (c *LoggingCalculator) SegmentPointsDistance(seg *da.MatchedWaySegment, track *da.Track) float64 {
	d := c.inner.SegmentPointsDistance(seg, track)
	c.log.Debug("segment part",
		zap.Stringer("kind", c.inner.Kind()),
		zap.Int64("segment", int64(seg.GetSegment().GetID())),
		zap.Int("start", seg.GetStartIndex()),
		zap.Int("end", seg.GetEndIndex()),
		zap.Float64("distance", d))
	return d
}

func (c *LoggingCalculator) RoutingSegmentsDistance(chain []*da.MatchedWaySegment, track *da.Track) float64 {
	d := c.inner.RoutingSegmentsDistance(chain, track)
	if len(chain) == 0 {
		return d
	}
	first, last := chain[0], chain[len(chain)-1]
	c.log.Debug("routing part",
		zap.Stringer("kind", c.inner.Kind()),
		zap.Int64("from_segment", int64(first.GetSegment().GetID())),
		zap.Int("from_end", first.GetEndIndex()),
		zap.Int64("to_segment", int64(last.GetSegment().GetID())),
		zap.Int("to_start", last.GetStartIndex()),
		zap.Int("in_between", len(chain)-2),
		zap.Float64("distance", d))
	return d
}
