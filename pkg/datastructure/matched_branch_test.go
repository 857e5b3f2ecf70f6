package datastructure

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/lintang-b-s/navigatorx-mapmatch/pkg/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const metersPerDegree = 6371000.0 * math.Pi / 180

func eqCoord(m float64) geo.Coordinate {
	return geo.NewCoordinate(0, m/metersPerDegree)
}

func eqSegment(id SegmentID, start, end NodeID, from, to float64) *Segment {
	return NewSegment(id, start, end, []geo.Coordinate{eqCoord(from), eqCoord(to)})
}

func eqTrack(meters ...float64) *Track {
	t0 := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	points := make([]*TrackPoint, len(meters))
	for i, m := range meters {
		c := eqCoord(m)
		points[i] = NewTrackPoint(int64(i), t0.Add(time.Duration(i)*time.Second), c.GetLat(), c.GetLon(), 0)
	}
	return NewTrack(1, points)
}

func matched(s *Segment, dir Direction, start int, distances ...float64) *MatchedWaySegment {
	ms := NewMatchedWaySegment(s, dir, 30)
	ms.SetWindow(start, distances)
	return ms
}

var exportAll = cmp.Exporter(func(reflect.Type) bool { return true })

func TestMatchedBranchAddSegment(t *testing.T) {
	x := eqSegment(1, 1, 2, 0, 300)
	y := eqSegment(2, 2, 3, 300, 600)

	b := NewMatchedBranch()
	b.AddSegment(matched(x, CENTER_TO_END, 0, 0, 0, 0, 50))
	b.AddSegment(matched(y, START_TO_END, 3, 0, 0))

	require.Equal(t, 2, b.Len())
	assert.Equal(t, 3, b.GetSegment(0).GetEndIndex(), "predecessor trimmed to the new start")
	assert.Equal(t, 5, b.GetEndIndex())
	assert.Equal(t, 5, b.GetMatchedPoints())

	sum := 0
	for _, s := range b.GetSegments() {
		sum += s.GetMatchedPoints()
	}
	assert.Equal(t, sum, b.GetMatchedPoints())
	assert.Equal(t, []SegmentID{1, 2}, b.SegmentIDs())

	assert.Panics(t, func() {
		b.AddSegment(matched(x, END_TO_START, 2, 0))
	}, "a segment must not start before its predecessor")
}

func TestMatchedBranchClone(t *testing.T) {
	x := eqSegment(1, 1, 2, 0, 300)
	y := eqSegment(2, 2, 3, 300, 600)

	b := NewMatchedBranch()
	b.AddSegment(matched(x, CENTER_TO_END, 0, 1, 2, 3))
	b.AddSegment(matched(y, START_TO_END, 3, 4, 5))
	b.GetSegment(1).DistanceCache(ROUTE_DISTANCE).SetPoints(PointsCacheKey{From: 3, To: 5}, 42)
	b.SetMatchedFactor(0.5)

	cp := b.Clone()
	if diff := cmp.Diff(b, cp, exportAll); diff != "" {
		t.Fatalf("clone differs (-orig +clone):\n%s", diff)
	}

	cp.GetSegment(1).MarkUTurn()
	cp.GetSegment(1).TrimEnd(4)
	cp.GetSegment(1).DistanceCache(ROUTE_DISTANCE).Reset()
	cp.AddSegment(matched(x, END_TO_START, 4, 0))

	assert.Equal(t, 2, b.Len())
	assert.Equal(t, START_TO_END, b.GetSegment(1).GetDirection())
	assert.False(t, b.GetSegment(1).IsUTurnSegment())
	assert.Equal(t, []float64{4, 5}, b.GetSegment(1).GetDistances())
	v, ok := b.GetSegment(1).DistanceCache(ROUTE_DISTANCE).GetPoints(PointsCacheKey{From: 3, To: 5})
	assert.True(t, ok)
	assert.Equal(t, 42.0, v)

	assert.Equal(t, START_TO_START, cp.GetSegment(1).GetDirection())
	assert.True(t, cp.GetSegment(1).IsUTurnSegment())
}

func TestMatchedBranchProgress(t *testing.T) {
	x := eqSegment(1, 1, 2, 0, 300)
	b := NewMatchedBranch()
	b.AddSegment(matched(x, CENTER_TO_END, 0, 0, 0))
	b.UpdateProgress()
	assert.Equal(t, 0, b.GetLoopsWithoutExtension())

	b.UpdateProgress()
	b.UpdateProgress()
	assert.Equal(t, 2, b.GetLoopsWithoutExtension())

	b.GetLastSegment().Append(0)
	b.UpdateProgress()
	assert.Equal(t, 0, b.GetLoopsWithoutExtension())

	assert.True(t, b.IsActive())
	b.SetFinished()
	assert.True(t, b.IsFinished())
	b.Reactivate()
	assert.True(t, b.IsActive())
	b.SetDead()
	b.Reactivate()
	assert.Equal(t, BRANCH_DEAD, b.GetState())
}

func TestMatchedBranchCertainPathEndSegment(t *testing.T) {
	x := eqSegment(1, 1, 2, 0, 300)
	y := eqSegment(2, 2, 3, 300, 600)
	b := NewMatchedBranch()
	assert.Nil(t, b.GetCertainPathEndSegment())

	b.AddSegment(matched(x, CENTER_TO_END, 0, 0))
	b.AddSegment(matched(y, START_TO_END, 1, 0))
	b.SetCertainPathEndSegmentIndex(0)
	require.NotNil(t, b.GetCertainPathEndSegment())
	assert.Equal(t, SegmentID(1), b.GetCertainPathEndSegment().GetSegment().GetID())
	assert.True(t, b.GetSegment(0).IsCertain())
	assert.False(t, b.GetSegment(1).IsCertain())

	b.SetCertainPathEndSegmentIndex(10)
	assert.Equal(t, 1, b.GetCertainPathEndSegmentIndex())
}

func TestMatchedBranchGeometry(t *testing.T) {
	x := eqSegment(1, 1, 2, 0, 300)
	y := eqSegment(2, 3, 2, 600, 300)
	b := NewMatchedBranch()
	b.AddSegment(matched(x, CENTER_TO_END, 0, 0))
	b.AddSegment(matched(y, END_TO_START, 1, 0))

	geom := b.Geometry()
	require.Len(t, geom, 3)
	assert.Equal(t, eqCoord(0), geom[0])
	assert.Equal(t, eqCoord(300), geom[1])
	assert.Equal(t, eqCoord(600), geom[2])
	assert.InDelta(t, 600, b.GetMatchedLength(), 1e-6)
	assert.NotEmpty(t, b.EncodedPolyline())
}

func TestMatchedWaySegmentWindow(t *testing.T) {
	x := eqSegment(1, 1, 2, 0, 300)
	in := []float64{10, 40, 5}
	ms := matched(x, START_TO_END, 2, in...)
	in[0] = 99

	assert.Equal(t, 2, ms.GetStartIndex())
	assert.Equal(t, 5, ms.GetEndIndex())
	assert.Equal(t, 10.0, ms.GetDistance(2), "window owns its distances")
	assert.Equal(t, 2, ms.GetMatchedPoints())

	ms.Prepend(0, []float64{1, 2})
	assert.Equal(t, 0, ms.GetStartIndex())
	assert.Equal(t, []float64{1, 2, 10, 40, 5}, ms.GetDistances())

	ms.TrimEnd(3)
	assert.Equal(t, 3, ms.NumberOfPoints())
	assert.Panics(t, func() { ms.TrimEnd(4) })

	ms.SetEmptyAt(7)
	assert.True(t, ms.IsEmpty())
	assert.Equal(t, 0, ms.GetMatchedPoints())
}

func TestDistanceCacheSlot(t *testing.T) {
	x := eqSegment(1, 1, 2, 0, 300)
	y := eqSegment(2, 2, 3, 300, 600)
	chain := []*MatchedWaySegment{matched(x, START_TO_END, 0, 0, 0), matched(y, START_TO_END, 2, 0)}

	var slot DistanceCacheSlot
	_, ok := slot.GetRouting(NewRoutingCacheKey(chain))
	assert.False(t, ok)

	slot.SetRouting(NewRoutingCacheKey(chain), 12.5)
	v, ok := slot.GetRouting(NewRoutingCacheKey(chain))
	assert.True(t, ok)
	assert.Equal(t, 12.5, v)

	chain[0].TrimEnd(1)
	_, ok = slot.GetRouting(NewRoutingCacheKey(chain))
	assert.False(t, ok, "a changed anchor window is a different key")
}
