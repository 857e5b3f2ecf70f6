package datastructure

import (
	"strconv"
	"strings"
)

type DistanceKind uint8

const (
	MATCHED_POINT_DISTANCE DistanceKind = iota
	ROUTE_DISTANCE
	STRAIGHT_LINE_DISTANCE
	NUM_DISTANCE_KINDS
)

func (k DistanceKind) String() string {
	switch k {
	case MATCHED_POINT_DISTANCE:
		return "matched_point"
	case ROUTE_DISTANCE:
		return "route"
	case STRAIGHT_LINE_DISTANCE:
		return "straight_line"
	}
	return "unknown"
}

// PointsCacheKey. track index range [From, To) of a segment-points distance
type PointsCacheKey struct {
	From int
	To   int
}

// RoutingCacheKey. identifies a chain of segments between two matched anchors
type RoutingCacheKey struct {
	FirstSegmentID        SegmentID
	FirstSegmentEndIndex  int
	FirstDirection        Direction
	LastSegmentID         SegmentID
	LastSegmentStartIndex int
	InBetween             string // ids of the segments in between, comma separated
}

func NewRoutingCacheKey(chain []*MatchedWaySegment) RoutingCacheKey {
	first := chain[0]
	last := chain[len(chain)-1]
	var sb strings.Builder
	for i := 1; i < len(chain)-1; i++ {
		if i > 1 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatInt(int64(chain[i].GetSegment().GetID()), 10))
	}
	return RoutingCacheKey{
		FirstSegmentID:        first.GetSegment().GetID(),
		FirstSegmentEndIndex:  first.GetEndIndex(),
		FirstDirection:        first.GetDirection(),
		LastSegmentID:         last.GetSegment().GetID(),
		LastSegmentStartIndex: last.GetStartIndex(),
		InBetween:             sb.String(),
	}
}

// DistanceCacheSlot. one cached segment-points value and one cached routing-segments value.
// holds only comparable values so a copy never aliases the original.
type DistanceCacheSlot struct {
	pointsKey    PointsCacheKey
	pointsValue  float64
	hasPoints    bool
	routingKey   RoutingCacheKey
	routingValue float64
	hasRouting   bool
}

func (s *DistanceCacheSlot) GetPoints(key PointsCacheKey) (float64, bool) {
	if s.hasPoints && s.pointsKey == key {
		return s.pointsValue, true
	}
	return 0, false
}

func (s *DistanceCacheSlot) SetPoints(key PointsCacheKey, value float64) {
	s.pointsKey, s.pointsValue, s.hasPoints = key, value, true
}

func (s *DistanceCacheSlot) GetRouting(key RoutingCacheKey) (float64, bool) {
	if s.hasRouting && s.routingKey == key {
		return s.routingValue, true
	}
	return 0, false
}

func (s *DistanceCacheSlot) SetRouting(key RoutingCacheKey, value float64) {
	s.routingKey, s.routingValue, s.hasRouting = key, value, true
}

func (s *DistanceCacheSlot) Reset() {
	*s = DistanceCacheSlot{}
}
