package distance

import (
	"math"
	"testing"
	"time"

	da "github.com/lintang-b-s/navigatorx-mapmatch/pkg/datastructure"
	"github.com/lintang-b-s/navigatorx-mapmatch/pkg/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const metersPerDegree = 6371000.0 * math.Pi / 180

func eq(m float64) geo.Coordinate {
	return geo.NewCoordinate(0, m/metersPerDegree)
}

func eqSegment(id da.SegmentID, start, end da.NodeID, from, to float64) *da.Segment {
	return da.NewSegment(id, start, end, []geo.Coordinate{eq(from), eq(to)})
}

func eqTrack(meters ...float64) *da.Track {
	t0 := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	points := make([]*da.TrackPoint, len(meters))
	for i, m := range meters {
		c := eq(m)
		points[i] = da.NewTrackPoint(int64(i), t0.Add(time.Duration(i)*time.Second), c.GetLat(), c.GetLon(), 0)
	}
	return da.NewTrack(1, points)
}

func matched(s *da.Segment, dir da.Direction, start int, distances ...float64) *da.MatchedWaySegment {
	ms := da.NewMatchedWaySegment(s, dir, 30)
	ms.SetWindow(start, distances)
	return ms
}

type fixture struct {
	track   *da.Track
	x, y, z *da.Segment
}

// X 1->2 [0,300], Y 2->3 [300,600], Z 3->4 [600,900]; points at 0, 100, 250, 700, 800
func newFixture() fixture {
	return fixture{
		track: eqTrack(0, 100, 250, 700, 800),
		x:     eqSegment(1, 1, 2, 0, 300),
		y:     eqSegment(2, 2, 3, 300, 600),
		z:     eqSegment(3, 3, 4, 600, 900),
	}
}

func (f fixture) chain() []*da.MatchedWaySegment {
	y := matched(f.y, da.START_TO_END, 3)
	return []*da.MatchedWaySegment{
		matched(f.x, da.CENTER_TO_END, 0, 0, 0, 0),
		y,
		matched(f.z, da.START_TO_CENTER, 3, 0, 0),
	}
}

func newSet(t *testing.T, penalties *Penalties) *Set {
	set, err := NewSet(16, penalties, zap.NewNop(), false)
	require.NoError(t, err)
	return set
}

func noPenalties() *Penalties {
	return NewPenalties(da.MODE_CAR, 0, 0, 0, 0)
}

func TestSegmentPointsDistance(t *testing.T) {
	f := newFixture()
	set := newSet(t, noPenalties())

	testCases := []struct {
		name string
		calc Calculator
		want float64
	}{
		{name: "matched point", calc: set.MatchedPoint(), want: 10},
		{name: "route", calc: set.Route(), want: 250},
		{name: "straight line", calc: set.StraightLine(), want: 250},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			seg := matched(f.x, da.CENTER_TO_END, 0, 0, 10, 20)
			assert.InDelta(t, tt.want, tt.calc.SegmentPointsDistance(seg, f.track), 1e-6)
		})
	}
}

func TestRoutingSegmentsDistance(t *testing.T) {
	f := newFixture()
	set := newSet(t, noPenalties())

	chain := f.chain()
	chain[1].SetMatchedFactor(7)

	assert.InDelta(t, 50+300+100, set.Route().RoutingSegmentsDistance(chain, f.track), 1e-6)
	assert.InDelta(t, 450, set.StraightLine().RoutingSegmentsDistance(chain, f.track), 1e-6)
	assert.InDelta(t, 7, set.MatchedPoint().RoutingSegmentsDistance(chain, f.track), 1e-9)

	// anchors on adjacent segments
	short := eqTrack(0, 100, 250, 400)
	direct := []*da.MatchedWaySegment{
		matched(f.x, da.CENTER_TO_END, 0, 0, 0, 0),
		matched(f.y, da.START_TO_CENTER, 3, 0),
	}
	assert.InDelta(t, 50+100, set.Route().RoutingSegmentsDistance(direct, short), 1e-6)
	assert.Equal(t, 0.0, set.MatchedPoint().RoutingSegmentsDistance(direct[:1], short))
}

func TestRouteDistanceUnconnectedChain(t *testing.T) {
	f := newFixture()
	set := newSet(t, noPenalties())
	far := eqSegment(9, 20, 21, 700, 900)
	chain := []*da.MatchedWaySegment{
		matched(f.x, da.CENTER_TO_END, 0, 0, 0, 0),
		matched(far, da.START_TO_CENTER, 3, 0, 0),
	}
	assert.InDelta(t, 450, set.Route().RoutingSegmentsDistance(chain, f.track), 1e-6)
}

func TestGlobalCache(t *testing.T) {
	f := newFixture()
	set := newSet(t, noPenalties())
	calc := set.MatchedPoint()
	gc := set.GlobalCache(da.MATCHED_POINT_DISTANCE)

	first := matched(f.x, da.CENTER_TO_END, 0, 0, 10, 20)
	assert.InDelta(t, 10, calc.SegmentPointsDistance(first, f.track), 1e-9)
	assert.InDelta(t, 10, calc.SegmentPointsDistance(first, f.track), 1e-9)
	points, routing := gc.Len()
	assert.Equal(t, 1, points)
	assert.Equal(t, 0, routing)

	// same segment and window in another branch: served by the global cache
	other := matched(f.x, da.CENTER_TO_END, 0, 30, 30, 30)
	assert.InDelta(t, 10, calc.SegmentPointsDistance(other, f.track), 1e-9)
	v, ok := other.DistanceCache(da.MATCHED_POINT_DISTANCE).GetPoints(da.PointsCacheKey{From: 0, To: 3})
	assert.True(t, ok, "a global hit fills the local slot")
	assert.InDelta(t, 10, v, 1e-9)

	// another track with the same indexes is a different key
	track2 := eqTrack(0, 100, 250, 700, 800)
	assert.InDelta(t, 30, calc.SegmentPointsDistance(matched(f.x, da.CENTER_TO_END, 0, 30, 30, 30), track2), 1e-9)

	chain := f.chain()
	route := set.Route()
	d := route.RoutingSegmentsDistance(chain, f.track)
	assert.InDelta(t, d, route.RoutingSegmentsDistance(f.chain(), f.track), 1e-9)
	_, routing = set.GlobalCache(da.ROUTE_DISTANCE).Len()
	assert.Equal(t, 1, routing)

	gc.Purge()
	points, _ = gc.Len()
	assert.Equal(t, 0, points)
}

func TestGlobalCacheBounded(t *testing.T) {
	gc, err := NewGlobalCache(da.STRAIGHT_LINE_DISTANCE, 2)
	require.NoError(t, err)
	calc := NewStraightLineCalculator(gc)
	f := newFixture()
	for start := 0; start < 4; start++ {
		calc.SegmentPointsDistance(matched(f.x, da.CENTER_TO_END, start, 0), f.track)
	}
	points, _ := gc.Len()
	assert.Equal(t, 2, points)

	def, err := NewGlobalCache(da.ROUTE_DISTANCE, 0)
	require.NoError(t, err)
	assert.Equal(t, da.ROUTE_DISTANCE, def.GetKind())
}

func TestPenalties(t *testing.T) {
	p := NewPenalties(da.MODE_CAR, 100, 10, 0, 0)

	major := eqSegment(1, 1, 2, 0, 300)
	major.SetFrc(da.FRC_2)
	minor := eqSegment(2, 2, 3, 300, 600)
	roundabout := eqSegment(3, 2, 3, 300, 600)
	roundabout.SetFormOfWay(da.FOW_ROUNDABOUT)
	slip := eqSegment(4, 2, 3, 300, 600)
	slip.SetFormOfWay(da.FOW_SLIPROAD)

	testCases := []struct {
		name string
		a, b *da.MatchedWaySegment
		want float64
	}{
		{name: "two classes", a: matched(major, da.START_TO_END, 0, 0), b: matched(minor, da.START_TO_END, 1, 0), want: 20},
		{name: "roundabout", a: matched(major, da.START_TO_END, 0, 0), b: matched(roundabout, da.START_TO_END, 1, 0), want: 0},
		{name: "slip road with points", a: matched(major, da.START_TO_END, 0, 0), b: matched(slip, da.START_TO_END, 1, 0), want: 0},
		{name: "empty slip road", a: matched(major, da.START_TO_END, 0, 0), b: matched(slip, da.START_TO_END, 1), want: 20},
		{name: "same class", a: matched(minor, da.START_TO_END, 0, 0), b: matched(minor, da.END_TO_START, 1, 0), want: 0},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, p.FrcSwitch(tt.a, tt.b), 1e-9)
		})
	}

	searched := matched(minor, da.START_TO_END, 1)
	searched.SetFromPathSearch(true)
	skipped := matched(minor, da.START_TO_END, 4, 0)
	skipped.SetAfterSkippedPart(true, 2)
	assert.Equal(t, 100.0, p.PseudoSkippedPart(searched))
	assert.Equal(t, 0.0, p.PseudoSkippedPart(skipped), "a real skip is not a pseudo skip")

	again := matched(minor, da.START_TO_END, 1)
	again.SetFromPathSearch(true)
	chain := []*da.MatchedWaySegment{matched(minor, da.START_TO_END, 0, 0), searched, again}
	assert.Equal(t, 100.0, p.Chain(chain), "pseudo skip applies once per chain")
}

func TestBikePenalties(t *testing.T) {
	p := NewPenalties(da.MODE_BIKE, 0, 0, 40, 25)
	oneWay := eqSegment(1, 1, 2, 0, 300)
	oneWay.SetAccess(da.ACCESS_ALL, da.ACCESS_ALL&^da.ACCESS_CAR)
	walkway := eqSegment(2, 2, 3, 300, 600)
	walkway.SetFormOfWay(da.FOW_WALKWAY)

	assert.Equal(t, 40.0, p.Mode(matched(oneWay, da.END_TO_START, 0, 0)))
	assert.Equal(t, 0.0, p.Mode(matched(oneWay, da.START_TO_END, 0, 0)))
	assert.Equal(t, 25.0, p.Mode(matched(walkway, da.START_TO_END, 0, 0)))

	car := NewPenalties(da.MODE_CAR, 0, 0, 40, 25)
	assert.Equal(t, 0.0, car.Mode(matched(walkway, da.START_TO_END, 0, 0)))
}

func TestLoggingCalculator(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	f := newFixture()
	set, err := NewSet(16, noPenalties(), zap.New(core), true)
	require.NoError(t, err)

	set.Route().SegmentPointsDistance(matched(f.x, da.CENTER_TO_END, 0, 0, 0, 0), f.track)
	set.Route().RoutingSegmentsDistance(f.chain(), f.track)

	assert.Equal(t, 1, logs.FilterMessage("segment part").Len())
	routing := logs.FilterMessage("routing part").All()
	require.Len(t, routing, 1)
	assert.Equal(t, int64(1), routing[0].ContextMap()["in_between"])
	assert.Equal(t, da.ROUTE_DISTANCE, set.Route().Kind())
}

func TestRouteDistancePenaltiesNotCached(t *testing.T) {
	set := newSet(t, NewPenalties(da.MODE_CAR, 50, 0, 0, 0))
	route := set.Route()

	plain := newFixture()
	assert.InDelta(t, 450, route.RoutingSegmentsDistance(plain.chain(), plain.track), 1e-6)

	// same track, same segment ids and windows: a global cache hit for the geometric part
	searched := newFixture()
	searched.track = plain.track
	chain := searched.chain()
	chain[1].SetFromPathSearch(true)
	assert.InDelta(t, 500, route.RoutingSegmentsDistance(chain, searched.track), 1e-6)

	_, routing := set.GlobalCache(da.ROUTE_DISTANCE).Len()
	assert.Equal(t, 1, routing)
	assert.InDelta(t, 450, route.RoutingSegmentsDistance(plain.chain(), plain.track), 1e-6)
}

func TestChainPseudoSkip(t *testing.T) {
	f := newFixture()
	p := NewPenalties(da.MODE_CAR, 50, 0, 0, 0)

	testCases := []struct {
		name    string
		skipped int
		want    float64
	}{
		{name: "gap without skipped points", skipped: 0, want: 50},
		{name: "gap with skipped points", skipped: 3, want: 0},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			y := matched(f.y, da.START_TO_END, 3)
			y.SetFromPathSearch(true)
			z := matched(f.z, da.START_TO_CENTER, 3, 0, 0)
			z.SetAfterSkippedPart(true, tt.skipped)
			chain := []*da.MatchedWaySegment{matched(f.x, da.CENTER_TO_END, 0, 0, 0, 0), y, z}
			assert.Equal(t, tt.want, p.Chain(chain))
		})
	}
	assert.Equal(t, 0.0, p.Chain([]*da.MatchedWaySegment{matched(f.x, da.START_TO_END, 0, 0)}))
}
