package mapmatcher

import (
	"math"
	"sort"

	da "github.com/lintang-b-s/navigatorx-mapmatch/pkg/datastructure"
	"github.com/lintang-b-s/navigatorx-mapmatch/pkg/geo"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

// SegmentMatcher. assigns track points to one candidate segment following the last segment of a branch.
type SegmentMatcher struct {
	cfg Config
	log *zap.Logger
}

func NewSegmentMatcher(cfg Config, log *zap.Logger) *SegmentMatcher {
	return &SegmentMatcher{cfg: cfg, log: log}
}

// MatchSegment. match of candidate entered with direction as the next segment of branch, nil if
// the candidate cannot follow the branch. branch must be a private copy: the windows of its trailing
// segments may be changed to hand points over to the candidate.
func (sm *SegmentMatcher) MatchSegment(candidate *da.Segment, direction da.Direction, track *da.Track,
	startIndex int, branch *da.MatchedBranch) *da.MatchedWaySegment {
	radius := sm.cfg.MaxMatchingRadiusMeter
	ms := da.NewMatchedWaySegment(candidate, direction, radius)

	distances := sm.ValidPointDistances(candidate, track, startIndex, radius)
	ms.SetWindow(startIndex, distances)
	sm.updateMatchesOfPreviousSegment(ms, track, branch)

	if ms.IsEmpty() {
		if last := branch.GetLastSegment(); last != nil && last.IsEmpty() {
			sm.updateMatchesOfPreviousEmptySegments(ms, track, branch)
		}
	}

	if ms.IsEmpty() {
		if !sm.checkLoop(candidate, startIndex, branch) {
			return nil
		}
		factor, ok := sm.shortSegmentDistance(candidate, track, startIndex)
		if !ok {
			return nil
		}
		ms.SetMatchedFactor(factor)
	} else {
		ms.SetMatchedFactor(sumDistances(ms.GetDistances()))
	}

	if !sm.checkRoundabout(candidate, branch) {
		return nil
	}
	return ms
}

// ValidPointDistances. distances of the consecutive track points from startIndex that can be matched to
// candidate. the first point must lie within firstRadius. a point outside the matching radius may be
// noise: it is buffered and committed once a later point is within the radius again. the search stops
// when a point outside the radius projects onto an end of the segment, or when the last outlierWindow
// buffered points are all further than outlierRadiusFactor x the radius.
func (sm *SegmentMatcher) ValidPointDistances(candidate *da.Segment, track *da.Track, startIndex int,
	firstRadius float64) []float64 {
	if startIndex < 0 || startIndex >= track.Len() {
		return nil
	}
	geom := candidate.GetGeometry()
	radius := sm.cfg.MaxMatchingRadiusMeter

	d0 := geo.PointLineDistance(track.GetCoordinate(startIndex), geom)
	if d0 > firstRadius {
		return nil
	}

	committed := []float64{d0}
	buffered := make([]float64, 0)
	for i := startIndex + 1; i < track.Len(); i++ {
		pos := geo.ProjectOnLine(track.GetCoordinate(i), geom)
		d := pos.GetDistance()
		if d <= radius {
			committed = append(committed, buffered...)
			committed = append(committed, d)
			buffered = buffered[:0]
			continue
		}
		if pos.IsAtEndpoint() {
			break
		}
		buffered = append(buffered, d)
		if sm.isOffSegment(buffered) {
			break
		}
	}
	return committed
}

func (sm *SegmentMatcher) isOffSegment(buffered []float64) bool {
	w := sm.cfg.OutlierWindow
	if len(buffered) < w {
		return false
	}
	limit := sm.cfg.OutlierRadiusFactor * sm.cfg.MaxMatchingRadiusMeter
	for _, d := range buffered[len(buffered)-w:] {
		if d <= limit {
			return false
		}
	}
	return true
}

// updateMatchesOfPreviousSegment. walks back from the end of the previous segment and hands points over
// to ms while they are closer to ms, or lie within the radius of ms after a u-turn. ties are held back
// until a later decision; one point that does not qualify is skipped once a point was handed over.
// the previous segment keeps at least its first point.
func (sm *SegmentMatcher) updateMatchesOfPreviousSegment(ms *da.MatchedWaySegment, track *da.Track,
	branch *da.MatchedBranch) {
	prev := branch.GetLastSegment()
	if prev == nil || prev.IsEmpty() || prev.GetEndIndex() != ms.GetStartIndex() {
		return
	}

	radius := sm.cfg.MaxMatchingRadiusMeter
	tol := sm.cfg.RematchTieTolerance
	geom := ms.GetSegment().GetGeometry()

	newStart := ms.GetStartIndex()
	reassigned := 0
	skipUsed := false
	for i := ms.GetStartIndex() - 1; i > prev.GetStartIndex(); i-- {
		dNew := geo.PointLineDistance(track.GetCoordinate(i), geom)
		dOld := prev.GetDistance(i)

		closer := dNew < dOld-tol
		inUTurnRadius := prev.IsUTurnSegment() && dNew <= radius
		tie := math.Abs(dNew-dOld) <= tol && dNew <= radius
		switch {
		case closer || inUTurnRadius:
			newStart = i
			reassigned++
			continue
		case tie:
			continue
		case !skipUsed && reassigned > 0:
			skipUsed = true
			continue
		}
		break
	}
	if newStart == ms.GetStartIndex() {
		return
	}

	moved := make([]float64, 0, ms.GetStartIndex()-newStart)
	for i := newStart; i < ms.GetStartIndex(); i++ {
		moved = append(moved, geo.PointLineDistance(track.GetCoordinate(i), geom))
	}
	prev.TrimEnd(newStart)
	prev.SetMatchedFactor(sumDistances(prev.GetDistances()))
	ms.Prepend(newStart, moved)
}

// updateMatchesOfPreviousEmptySegments. the branch ends with empty segments and ms found no point either:
// replays the points of the last matching segment forward through the empty segments and ms,
// each point moving on to a later segment when that one is closer.
func (sm *SegmentMatcher) updateMatchesOfPreviousEmptySegments(ms *da.MatchedWaySegment, track *da.Track,
	branch *da.MatchedBranch) {
	lastMatching := branch.GetLastMatchingSegmentIndex()
	if lastMatching < 0 {
		return
	}
	segments := branch.GetSegments()
	chain := make([]*da.MatchedWaySegment, 0, len(segments)-lastMatching+1)
	chain = append(chain, segments[lastMatching:]...)
	chain = append(chain, ms)

	anchor := chain[0]
	from, to := anchor.GetStartIndex()+1, anchor.GetEndIndex()
	if from >= to {
		return
	}
	geoms := make([][]geo.Coordinate, len(chain))
	for k, s := range chain {
		geoms[k] = s.GetSegment().GetGeometry()
	}

	assigned := make([]int, 0, to-from)
	dists := make([]float64, 0, to-from)
	cursor := 0
	for i := from; i < to; i++ {
		c := track.GetCoordinate(i)
		best := cursor
		bestDist := geo.PointLineDistance(c, geoms[cursor])
		for k := cursor + 1; k < len(chain); k++ {
			if d := geo.PointLineDistance(c, geoms[k]); d < bestDist {
				best, bestDist = k, d
			}
		}
		cursor = best
		assigned = append(assigned, best)
		dists = append(dists, bestDist)
	}
	if cursor == 0 {
		return
	}

	keep := from
	for keep < to && assigned[keep-from] == 0 {
		keep++
	}
	anchor.TrimEnd(keep)
	anchor.SetMatchedFactor(sumDistances(anchor.GetDistances()))
	for k := 1; k < len(chain); k++ {
		start := keep
		window := make([]float64, 0)
		for i := keep; i < to && assigned[i-from] == k; i++ {
			window = append(window, dists[i-from])
		}
		keep = start + len(window)
		chain[k].SetWindow(start, window)
		chain[k].SetMatchedFactor(sumDistances(window))
	}
	branch.Recalculate()
}

// shortSegmentDistance. a segment without points is kept if it is shorter than the usual spacing of the
// preceding points plus the radius, and the track passes within twice the radius of it.
// returns the distance of the track to the segment.
func (sm *SegmentMatcher) shortSegmentDistance(candidate *da.Segment, track *da.Track, startIndex int) (float64, bool) {
	if startIndex <= 0 || startIndex >= track.Len() {
		return 0, false
	}
	spacings := make([]float64, 0, sm.cfg.ShortSegmentMedianWindow)
	for j := startIndex; j >= 1 && len(spacings) < sm.cfg.ShortSegmentMedianWindow; j-- {
		spacings = append(spacings, track.GetPoint(j).GetDistanceToPrevious())
	}
	sort.Float64s(spacings)
	median := stat.Quantile(0.5, stat.Empirical, spacings, nil)
	if candidate.GetLength() >= median+sm.cfg.MaxMatchingRadiusMeter {
		return 0, false
	}

	d := geo.LineToLineDistance(track.SubLine(startIndex-1, startIndex+1), candidate.GetGeometry())
	if d > 2*sm.cfg.MaxMatchingRadiusMeter {
		return 0, false
	}
	return d, true
}

// checkLoop. an empty candidate must not repeat a segment the branch already visited without
// matching any new point since.
func (sm *SegmentMatcher) checkLoop(candidate *da.Segment, startIndex int, branch *da.MatchedBranch) bool {
	segments := branch.GetSegments()
	for i := len(segments) - 1; i >= 0 && segments[i].GetEndIndex() == startIndex; i-- {
		if segments[i].GetSegment().GetID() == candidate.GetID() {
			return false
		}
	}
	return true
}

// checkRoundabout. a one-way candidate must not reappear within the run of one-way segments
// ending the branch.
func (sm *SegmentMatcher) checkRoundabout(candidate *da.Segment, branch *da.MatchedBranch) bool {
	if !candidate.IsOneWay() {
		return true
	}
	segments := branch.GetSegments()
	for i := len(segments) - 1; i >= 0 && segments[i].GetSegment().IsOneWay(); i-- {
		if segments[i].GetSegment().GetID() == candidate.GetID() {
			return false
		}
	}
	return true
}

// RecalculateSegmentsIndexes. splits the track points [from, to) among the consecutive segments of a
// routed path: every point goes to its nearest segment within the radius, and the windows follow the
// path order, so the segments partition [from, to). a point near no segment stays on the current one.
func (sm *SegmentMatcher) RecalculateSegmentsIndexes(segments []*da.MatchedWaySegment, track *da.Track,
	from, to int) {
	if len(segments) == 0 {
		return
	}
	radius := sm.cfg.MaxMatchingRadiusMeter

	assigned := make([]int, to-from)
	cursor := 0
	for i := from; i < to; i++ {
		c := track.GetCoordinate(i)
		nearest, nearestDist := -1, math.Inf(1)
		for k, s := range segments {
			if d := geo.PointLineDistance(c, s.GetSegment().GetGeometry()); d < nearestDist {
				nearest, nearestDist = k, d
			}
		}
		if nearestDist <= radius && nearest > cursor {
			cursor = nearest
		}
		assigned[i-from] = cursor
	}

	i := from
	for k, s := range segments {
		window := make([]float64, 0)
		start := i
		for i < to && assigned[i-from] == k {
			window = append(window, geo.PointLineDistance(track.GetCoordinate(i), s.GetSegment().GetGeometry()))
			i++
		}
		s.SetWindow(start, window)
		s.SetMatchedFactor(sumDistances(window))
	}
}

func sumDistances(distances []float64) float64 {
	sum := 0.0
	for _, d := range distances {
		sum += d
	}
	return sum
}
