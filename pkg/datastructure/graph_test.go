package datastructure

import (
	"errors"
	"testing"
	"time"

	"github.com/lintang-b-s/navigatorx-mapmatch/pkg/geo"
	"github.com/lintang-b-s/navigatorx-mapmatch/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraphAddSegment(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddSegment(eqSegment(1, 1, 2, 0, 100)))
	require.NoError(t, g.AddSegment(eqSegment(2, 2, 3, 100, 200)))
	require.NoError(t, g.AddSegment(eqSegment(3, 2, 2, 100, 150)))

	err := g.AddSegment(eqSegment(1, 5, 6, 0, 10))
	assert.True(t, errors.Is(err, util.ErrBadParamInput))

	err = g.AddSegment(NewSegment(9, 1, 1, []geo.Coordinate{eqCoord(0)}))
	assert.True(t, errors.Is(err, util.ErrBadParamInput))

	assert.Equal(t, 3, g.NumberOfSegments())
	assert.Equal(t, 3, g.NumberOfNodes())

	ids := make([]SegmentID, 0)
	for _, s := range g.NeighborSegments(2) {
		ids = append(ids, s.GetID())
	}
	assert.Equal(t, []SegmentID{1, 2, 3}, ids, "a loop is listed once at its node")

	_, err = g.GetSegment(42)
	assert.True(t, errors.Is(err, util.ErrNotFound))

	bb := g.GetBoundingBox()
	assert.InDelta(t, eqCoord(200).GetLon(), bb.GetMaxLon(), 1e-12)
	assert.True(t, bb.Contains(0, eqCoord(50).GetLon()))
}

func TestDirection(t *testing.T) {
	s := eqSegment(1, 10, 20, 0, 100)

	testCases := []struct {
		dir      Direction
		exits    []NodeID
		entry    NodeID
		forward  bool
		backward bool
		uTurn    bool
	}{
		{START_TO_END, []NodeID{20}, 10, true, false, false},
		{END_TO_START, []NodeID{10}, 20, false, true, false},
		{START_TO_START, []NodeID{10}, 10, false, false, true},
		{CENTER_TO_END, []NodeID{20}, INVALID_NODE_ID, true, false, false},
		{CENTER_TO_CENTER, []NodeID{10, 20}, INVALID_NODE_ID, false, false, false},
	}
	for _, tt := range testCases {
		t.Run(tt.dir.String(), func(t *testing.T) {
			assert.Equal(t, tt.exits, tt.dir.ExitNodes(s))
			assert.Equal(t, tt.entry, tt.dir.EntryNode(s))
			assert.Equal(t, tt.forward, tt.dir.IsForward())
			assert.Equal(t, tt.backward, tt.dir.IsBackward())
			assert.Equal(t, tt.uTurn, tt.dir.IsUTurn())
		})
	}

	assert.Equal(t, END_TO_END, END_TO_START.WithExit(POS_END))
	d, ok := DirectionEnteringAt(s, 20)
	assert.True(t, ok)
	assert.Equal(t, END_TO_START, d)
	_, ok = DirectionEnteringAt(s, 99)
	assert.False(t, ok)
}

func TestCanTraverse(t *testing.T) {
	s := eqSegment(1, 1, 2, 0, 100)
	s.SetAccess(ACCESS_ALL, ACCESS_ALL&^ACCESS_CAR)

	assert.Equal(t, ONEWAY_FORWARD, s.GetOneWay())
	assert.True(t, CanTraverse(s, true, MODE_CAR))
	assert.False(t, CanTraverse(s, false, MODE_CAR))
	assert.True(t, CanTraverse(s, false, MODE_BIKE))
	assert.True(t, IsAgainstOneWay(s, false))
	assert.False(t, IsAgainstOneWay(s, true))

	mode, ok := ParseRoutingMode("bike")
	assert.True(t, ok)
	assert.Equal(t, MODE_BIKE, mode)
	_, ok = ParseRoutingCriteria("fastest")
	assert.False(t, ok)
}

func TestNewTrack(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	p := func(id int64, sec int, m float64) *TrackPoint {
		c := eqCoord(m)
		return NewTrackPoint(id, t0.Add(time.Duration(sec)*time.Second), c.GetLat(), c.GetLon(), 0)
	}

	track := NewTrack(7, []*TrackPoint{p(3, 20, 200), p(1, 0, 0), p(2, 10, 100), p(4, 10, 150)})
	require.Equal(t, 3, track.Len(), "duplicate timestamp dropped")
	assert.Equal(t, []int64{1, 2, 3}, []int64{track.GetPoint(0).GetID(), track.GetPoint(1).GetID(),
		track.GetPoint(2).GetID()})
	assert.Equal(t, 1, track.GetPoint(0).GetSeq())
	assert.Equal(t, 3, track.GetPoint(2).GetSeq())
	assert.InDelta(t, 200, track.GetLength(), 1e-6)
	assert.InDelta(t, 10, track.GetPoint(1).GetVelocity(), 1e-6)
	assert.Equal(t, 20*time.Second, track.GetDuration())

	assert.Len(t, track.SubLine(1, 3), 2)
	assert.Len(t, track.SubLine(-1, 10), 3)
	assert.Nil(t, track.SubLine(2, 2))

	ext := track.Extend([]*TrackPoint{p(6, 40, 400), p(5, 30, 300), p(9, 5, 50)})
	require.Equal(t, 5, ext.Len(), "points older than the track end are dropped")
	assert.Equal(t, track.GetCacheKey(), ext.GetCacheKey())
	assert.Equal(t, int64(5), ext.GetPoint(3).GetID())
	assert.InDelta(t, 400, ext.GetLength(), 1e-6)
	assert.Equal(t, 3, track.Len(), "the original track is unchanged")

	other := NewTrack(7, []*TrackPoint{p(1, 0, 0)})
	assert.NotEqual(t, track.GetCacheKey(), other.GetCacheKey())
}

func TestMinHeap(t *testing.T) {
	h := NewFourAryHeap[SegmentQueryKey]()
	nodes := make([]*PriorityQueueNode[SegmentQueryKey], 0)
	for i, rank := range []float64{5, 3, 8, 1, 9} {
		n := NewPriorityQueueNode(rank, NewSegmentQueryKey(SegmentID(i), NodeID(i)))
		nodes = append(nodes, n)
		h.Insert(n)
	}
	require.NoError(t, h.DecreaseKey(nodes[4], 0.5))

	order := make([]SegmentID, 0)
	for !h.IsEmpty() {
		n, err := h.ExtractMin()
		require.NoError(t, err)
		assert.Equal(t, -1, n.GetPos())
		order = append(order, n.GetItem().GetSegment())
	}
	assert.Equal(t, []SegmentID{4, 3, 1, 0, 2}, order)

	_, err := h.ExtractMin()
	assert.Error(t, err)
}
