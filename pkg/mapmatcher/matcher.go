package mapmatcher

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lintang-b-s/navigatorx-mapmatch/pkg/concurrent"
	da "github.com/lintang-b-s/navigatorx-mapmatch/pkg/datastructure"
	"github.com/lintang-b-s/navigatorx-mapmatch/pkg/engine/routing"
	"github.com/lintang-b-s/navigatorx-mapmatch/pkg/geo"
	"github.com/lintang-b-s/navigatorx-mapmatch/pkg/mapmatcher/distance"
	"github.com/lintang-b-s/navigatorx-mapmatch/pkg/mapmatcher/weighting"
	"github.com/lintang-b-s/navigatorx-mapmatch/pkg/spatialindex"
	"github.com/lintang-b-s/navigatorx-mapmatch/pkg/util"
	"go.uber.org/zap"
)

// RoadNetwork. graph capabilities used by the matcher
type RoadNetwork interface {
	NeighborSegments(node da.NodeID) []*da.Segment
	GetSegment(id da.SegmentID) (*da.Segment, error)
	SearchWithinRadius(lat, lon, radius float64) []spatialindex.SegmentHit
	ShortestPath(ctx context.Context, from *da.Segment, exitNodes []da.NodeID, to *da.Segment, maxSegments int,
		mode da.RoutingMode, criteria da.RoutingCriteria) ([]routing.PathSegment, error)
}

// MapMatcher. multi hypothesis map matcher: keeps the best maxNrOfBestPaths branches and extends
// each of them segment by segment until none can be extended anymore.
type MapMatcher struct {
	cfg            Config
	network        RoadNetwork
	segmentMatcher *SegmentMatcher
	strategy       weighting.Strategy
	log            *zap.Logger
}

// NewMapMatcher. calculators are shared by every track matched with the returned matcher.
func NewMapMatcher(cfg Config, network RoadNetwork, calculators *distance.Set, log *zap.Logger) (*MapMatcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &MapMatcher{
		cfg:            cfg,
		network:        network,
		segmentMatcher: NewSegmentMatcher(cfg, log),
		strategy:       NewStrategy(cfg, calculators),
		log:            log,
	}, nil
}

// NewStrategy. weighting strategy named by cfg.Weighting
func NewStrategy(cfg Config, calculators *distance.Set) weighting.Strategy {
	if cfg.Weighting == WEIGHTING_SIMPLE {
		return weighting.NewSimpleStrategy(cfg.MaxMatchingRadiusMeter, cfg.SimpleScoreRadiusFactor)
	}
	return weighting.NewRouteDistanceStrategy(calculators, weighting.RouteDistanceOptions{
		Radius:               cfg.MaxMatchingRadiusMeter,
		RouteFactorWeight:    cfg.RouteFactorWeight,
		MatchedFactorWeight:  cfg.MatchedFactorWeight,
		MaxScore:             cfg.MaxRouteDistanceScore,
		MaxPartRouteFactor:   cfg.MaxPartRouteFactor,
		NrOfLastPartsToCheck: cfg.NrOfLastPartsToCheck,
		MinAbsoluteDistance:  cfg.MinAbsoluteDistance,
	})
}

// NewDistanceSet. distance calculators configured by cfg
func NewDistanceSet(cfg Config, log *zap.Logger, debug bool) (*distance.Set, error) {
	penalties := distance.NewPenalties(cfg.GetRoutingMode(), cfg.PseudoSkipPenalty, cfg.FrcSwitchPenaltyPerClass,
		cfg.BikeOneWayPenalty, cfg.BikeWalkwayPenalty)
	return distance.NewSet(cfg.GlobalCacheSize, penalties, log, debug)
}

func (mm *MapMatcher) GetConfig() Config {
	return mm.cfg
}

func (mm *MapMatcher) GetStrategy() weighting.Strategy {
	return mm.strategy
}

// RejectTrack. reason why track is too small to be matched, empty if it can be matched
func (mm *MapMatcher) RejectTrack(track *da.Track) string {
	if track.Len() < mm.cfg.MinNrOfPoints {
		return fmt.Sprintf("track has %d points, at least %d required", track.Len(), mm.cfg.MinNrOfPoints)
	}
	if track.GetLength() < mm.cfg.MinLength {
		return fmt.Sprintf("track is %.1f m long, at least %.1f m required", track.GetLength(), mm.cfg.MinLength)
	}
	return ""
}

// MatchTrack. ranked finished branches of track, nil if the track is rejected or cannot be matched.
// task may be nil; a cancelled task or ctx yields util.ErrCancelled.
func (mm *MapMatcher) MatchTrack(ctx context.Context, task *concurrent.Task, track *da.Track) ([]*da.MatchedBranch, error) {
	if reason := mm.RejectTrack(track); reason != "" {
		mm.log.Debug("track rejected", zap.Int64("track", track.GetID()), zap.String("reason", reason))
		return nil, nil
	}
	seeds := mm.seedBranches(track, nil)
	return mm.run(ctx, task, track, seeds, false)
}

// MatchTrackFromSegment. like MatchTrack, with every branch starting on the segment startSegmentID.
func (mm *MapMatcher) MatchTrackFromSegment(ctx context.Context, task *concurrent.Task, track *da.Track,
	startSegmentID da.SegmentID) ([]*da.MatchedBranch, error) {
	if reason := mm.RejectTrack(track); reason != "" {
		mm.log.Debug("track rejected", zap.Int64("track", track.GetID()), zap.String("reason", reason))
		return nil, nil
	}
	start, err := mm.network.GetSegment(startSegmentID)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrBadParamInput, "unknown start segment %d", startSegmentID)
	}
	seeds := mm.seedBranches(track, start)
	return mm.run(ctx, task, track, seeds, false)
}

// MatchTrackWithBranches. continues the branches of a previous run on track, which must extend the
// track of that run. the previous branches are not modified. with partial set, a cancelled run
// returns its current branches together with util.ErrCancelled; their certain path end segment
// is safe to report.
func (mm *MapMatcher) MatchTrackWithBranches(ctx context.Context, task *concurrent.Task, track *da.Track,
	previous []*da.MatchedBranch, partial bool) ([]*da.MatchedBranch, error) {
	branches := make([]*da.MatchedBranch, 0, len(previous))
	for _, b := range previous {
		cp := b.Clone()
		cp.Reactivate()
		branches = append(branches, cp)
	}
	if len(branches) == 0 {
		branches = mm.seedBranches(track, nil)
	}
	return mm.run(ctx, task, track, branches, partial)
}

func (mm *MapMatcher) checkCancelled(ctx context.Context, task *concurrent.Task) error {
	if task != nil && task.IsCancelled() {
		if task.IsTimedOut() {
			return util.WrapErrorf(nil, util.ErrCancelled, "task %s timed out", task.GetID())
		}
		return util.WrapErrorf(nil, util.ErrCancelled, "task %s cancelled", task.GetID())
	}
	if util.StopConcurrentOperation(ctx) {
		return util.WrapErrorf(ctx.Err(), util.ErrCancelled, "map matching cancelled")
	}
	return nil
}

func (mm *MapMatcher) run(ctx context.Context, task *concurrent.Task, track *da.Track, branches []*da.MatchedBranch,
	partial bool) ([]*da.MatchedBranch, error) {
	started := time.Now()
	branches = mm.rank(branches)

	for {
		if err := mm.checkCancelled(ctx, task); err != nil {
			return mm.cancelled(branches, partial, err)
		}

		next := make([]*da.MatchedBranch, 0, len(branches)*2)
		active := 0
		for _, b := range branches {
			if !b.IsActive() {
				next = append(next, b)
				continue
			}
			active++
			children, err := mm.expand(ctx, task, track, b)
			if err != nil {
				return mm.cancelled(branches, partial, err)
			}
			next = append(next, children...)
		}
		if active == 0 {
			break
		}
		branches = mm.rank(next)
		mm.updateCertainPathEndSegment(branches)

		mm.log.Debug("map matching step", zap.Int64("track", track.GetID()), zap.Int("active", active),
			zap.Int("branches", len(branches)))
	}

	finished := make([]*da.MatchedBranch, 0, len(branches))
	for _, b := range branches {
		if b.IsFinished() {
			finished = append(finished, b)
		}
	}
	mm.log.Info("map matching done", zap.Int64("track", track.GetID()), zap.Int("points", track.Len()),
		zap.Int("results", len(finished)), zap.Duration("took", time.Since(started)))
	if len(finished) == 0 {
		return nil, nil
	}
	return finished, nil
}

func (mm *MapMatcher) cancelled(branches []*da.MatchedBranch, partial bool, err error) ([]*da.MatchedBranch, error) {
	mm.log.Info("map matching aborted", zap.Error(err))
	if partial {
		return branches, err
	}
	return nil, err
}

// seedBranches. one branch per segment near the first track point that starts a window. if no segment
// does, the next nrOfPointsToSkip points are tried. with start set, only start is considered.
func (mm *MapMatcher) seedBranches(track *da.Track, start *da.Segment) []*da.MatchedBranch {
	branches := make([]*da.MatchedBranch, 0)
	for s := 0; s <= mm.cfg.NrOfPointsToSkip && s < track.Len(); s++ {
		candidates := make([]*da.Segment, 0)
		if start != nil {
			candidates = append(candidates, start)
		} else {
			c := track.GetCoordinate(s)
			for _, hit := range mm.network.SearchWithinRadius(c.GetLat(), c.GetLon(), mm.cfg.InitialRadiusMeter) {
				candidates = append(candidates, hit.GetSegment())
			}
		}

		for _, seg := range candidates {
			window := mm.segmentMatcher.ValidPointDistances(seg, track, s, mm.cfg.InitialRadiusMeter)
			if len(window) == 0 {
				continue
			}
			dir := seedDirection(seg, track, s, s+len(window))
			if dir != da.CENTER_TO_CENTER && !da.CanTraverse(seg, dir.IsForward(), mm.cfg.GetRoutingMode()) {
				continue
			}
			ms := da.NewMatchedWaySegment(seg, dir, mm.cfg.MaxMatchingRadiusMeter)
			ms.SetWindow(s, window)
			ms.SetStartSegment(true)
			ms.SetMatchedFactor(sumDistances(window))
			if s > 0 {
				ms.SetAfterSkippedPart(true, s)
			}

			b := da.NewMatchedBranch()
			b.AddSegment(ms)
			if ms.GetEndIndex() == track.Len() {
				b.SetFinished()
			}
			b.UpdateProgress()
			if mm.strategy.Evaluate(b, track) {
				branches = append(branches, b)
			}
		}
		if len(branches) > 0 {
			break
		}
	}
	return branches
}

// seedDirection. a track starts inside its first segment; the exit follows the movement of the points.
func seedDirection(seg *da.Segment, track *da.Track, from, to int) da.Direction {
	geom := seg.GetGeometry()
	first := geo.DistanceAlongLine(track.GetCoordinate(from), geom)
	last := geo.DistanceAlongLine(track.GetCoordinate(to-1), geom)
	switch {
	case da.Gt(last, first):
		return da.CENTER_TO_END
	case da.Lt(last, first):
		return da.CENTER_TO_START
	}
	return da.CENTER_TO_CENTER
}

// expand. children of an active branch: its extensions by a neighbor segment, by a u-turn, or, when
// neither exists, by an alternative path search. a branch without children is finished if only a few
// points are left, dead otherwise.
func (mm *MapMatcher) expand(ctx context.Context, task *concurrent.Task, track *da.Track,
	b *da.MatchedBranch) ([]*da.MatchedBranch, error) {
	b.IncStep()
	startIndex := b.GetEndIndex()
	if startIndex >= track.Len() {
		b.SetFinished()
		return []*da.MatchedBranch{b}, nil
	}

	last := b.GetLastSegment()
	mode := mm.cfg.GetRoutingMode()
	children := make([]*da.MatchedBranch, 0)

	for _, node := range last.ExitNodes() {
		for _, cand := range mm.network.NeighborSegments(node) {
			if cand.GetID() == last.GetSegment().GetID() {
				continue
			}
			dir, ok := da.DirectionEnteringAt(cand, node)
			if !ok || !da.CanTraverse(cand, dir.IsForward(), mode) {
				continue
			}
			clone := b.Clone()
			ms := mm.segmentMatcher.MatchSegment(cand, dir, track, startIndex, clone)
			if ms == nil {
				continue
			}
			if child := mm.accept(clone, ms, track); child != nil {
				children = append(children, child)
			}
		}
	}

	if entry := last.EntryNode(); entry != da.INVALID_NODE_ID && !last.IsEmpty() {
		for _, cand := range mm.network.NeighborSegments(entry) {
			if cand.GetID() == last.GetSegment().GetID() {
				continue
			}
			dir, ok := da.DirectionEnteringAt(cand, entry)
			if !ok || !da.CanTraverse(cand, dir.IsForward(), mode) {
				continue
			}
			clone := b.Clone()
			clone.GetLastSegment().MarkUTurn()
			ms := mm.segmentMatcher.MatchSegment(cand, dir, track, startIndex, clone)
			if ms == nil || ms.IsEmpty() {
				continue
			}
			clone.IncNrOfUTurns()
			if child := mm.accept(clone, ms, track); child != nil {
				children = append(children, child)
			}
		}
	}

	if len(children) == 0 && b.GetLoopsWithoutExtension() < mm.cfg.MaxCountLoopsWithoutPathExtension &&
		mm.cfg.MaxSegmentsForShortestPath > 0 {
		routed, err := mm.searchAlternativePaths(ctx, task, track, b)
		if err != nil {
			return nil, err
		}
		children = append(children, routed...)
	}

	if len(children) == 0 {
		if track.Len()-startIndex <= mm.cfg.NrOfPointsToSkip {
			b.SetFinished()
			return []*da.MatchedBranch{b}, nil
		}
		b.SetDead()
		return nil, nil
	}
	return children, nil
}

// accept. appends ms to clone and scores it, nil if the result is not a viable branch
func (mm *MapMatcher) accept(clone *da.MatchedBranch, ms *da.MatchedWaySegment, track *da.Track) *da.MatchedBranch {
	clone.AddSegment(ms)
	if !ms.IsEmpty() && ms.GetEndIndex() == track.Len() {
		clone.SetFinished()
	}
	clone.UpdateProgress()
	if clone.GetLoopsWithoutExtension() > mm.cfg.MaxCountLoopsWithoutPathExtension {
		return nil
	}
	if !mm.strategy.Evaluate(clone, track) {
		return nil
	}
	return clone
}

// searchAlternativePaths. bridges the branch to a segment near one of the next points with a shortest
// path. the points passed over are split among the path segments.
func (mm *MapMatcher) searchAlternativePaths(ctx context.Context, task *concurrent.Task, track *da.Track,
	b *da.MatchedBranch) ([]*da.MatchedBranch, error) {
	last := b.GetLastSegment()
	startIndex := b.GetEndIndex()
	children := make([]*da.MatchedBranch, 0)

	for s := 0; s <= mm.cfg.NrOfPointsToSkip && startIndex+s < track.Len(); s++ {
		idx := startIndex + s
		c := track.GetCoordinate(idx)
		for _, hit := range mm.network.SearchWithinRadius(c.GetLat(), c.GetLon(), mm.cfg.MaxMatchingRadiusMeter) {
			target := hit.GetSegment()
			if target.GetID() == last.GetSegment().GetID() {
				continue
			}
			window := mm.segmentMatcher.ValidPointDistances(target, track, idx, mm.cfg.MaxMatchingRadiusMeter)
			if len(window) == 0 {
				continue
			}

			if err := mm.checkCancelled(ctx, task); err != nil {
				return nil, err
			}
			path, err := mm.network.ShortestPath(ctx, last.GetSegment(), last.ExitNodes(), target,
				mm.cfg.MaxSegmentsForShortestPath, mm.cfg.GetRoutingMode(), mm.cfg.GetRoutingCriteria())
			if err != nil {
				if errors.Is(err, util.ErrCancelled) {
					return nil, err
				}
				if !errors.Is(err, util.ErrNotFound) {
					mm.log.Warn("shortest path search failed", zap.Int64("from", int64(last.GetSegment().GetID())),
						zap.Int64("to", int64(target.GetID())), zap.Error(err))
				}
				continue
			}

			clone := b.Clone()
			clone.IncNrOfShortestPathSearches()
			ms := mm.insertPath(clone, path, window, track, startIndex, idx)
			if !mm.segmentMatcher.checkRoundabout(target, clone) {
				continue
			}
			if child := mm.accept(clone, ms, track); child != nil {
				children = append(children, child)
			}
		}
		if len(children) > 0 {
			break
		}
	}
	return children, nil
}

// insertPath. appends the segments of path before its target to clone and returns the target match,
// positioned at idx with window. the points [startIndex, idx) go to the inserted segments, or to the
// target if there are none.
func (mm *MapMatcher) insertPath(clone *da.MatchedBranch, path []routing.PathSegment, window []float64,
	track *da.Track, startIndex, idx int) *da.MatchedWaySegment {
	radius := mm.cfg.MaxMatchingRadiusMeter
	inserted := make([]*da.MatchedWaySegment, 0, len(path)-1)
	for _, ps := range path[:len(path)-1] {
		ms := da.NewMatchedWaySegment(ps.GetSegment(), ps.GetDirection(), radius)
		ms.SetFromPathSearch(true)
		ms.SetEmptyAt(startIndex)
		inserted = append(inserted, ms)
	}

	tp := path[len(path)-1]
	target := da.NewMatchedWaySegment(tp.GetSegment(), tp.GetDirection(), radius)
	target.SetWindow(idx, window)

	skipped := 0
	if len(inserted) > 0 {
		mm.segmentMatcher.RecalculateSegmentsIndexes(inserted, track, startIndex, idx)
		for _, ms := range inserted {
			skipped += ms.NumberOfPoints() - ms.GetMatchedPoints()
		}
	} else if idx > startIndex {
		gap := make([]float64, 0, idx-startIndex)
		for i := startIndex; i < idx; i++ {
			gap = append(gap, geo.PointLineDistance(track.GetCoordinate(i), tp.GetSegment().GetGeometry()))
		}
		target.Prepend(startIndex, gap)
		for _, d := range gap {
			if d > radius {
				skipped++
			}
		}
	}
	target.SetMatchedFactor(sumDistances(target.GetDistances()))
	target.SetAfterSkippedPart(true, skipped)

	for _, ms := range inserted {
		clone.AddSegment(ms)
	}
	return target
}

// rank. drops dead and duplicate branches, sorts the rest best first and keeps maxNrOfBestPaths of them
func (mm *MapMatcher) rank(branches []*da.MatchedBranch) []*da.MatchedBranch {
	seen := make(map[string]struct{}, len(branches))
	alive := make([]*da.MatchedBranch, 0, len(branches))
	for _, b := range branches {
		if b.GetState() == da.BRANCH_DEAD {
			continue
		}
		key := branchKey(b)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		alive = append(alive, b)
	}
	sort.SliceStable(alive, func(i, j int) bool {
		return mm.strategy.Compare(alive[i], alive[j]) < 0
	})
	if len(alive) > mm.cfg.MaxNrOfBestPaths {
		alive = alive[:mm.cfg.MaxNrOfBestPaths]
	}
	return alive
}

func branchKey(b *da.MatchedBranch) string {
	var sb strings.Builder
	for _, s := range b.GetSegments() {
		fmt.Fprintf(&sb, "%d:%d:%d:%d;", s.GetSegment().GetID(), s.GetDirection(), s.GetStartIndex(), s.GetEndIndex())
	}
	return sb.String()
}

// updateCertainPathEndSegment. the deepest segment all branches agree on. the last segment of an
// active branch stays uncertain, the next segment may still take points from its window.
func (mm *MapMatcher) updateCertainPathEndSegment(branches []*da.MatchedBranch) {
	if len(branches) == 0 {
		return
	}
	common := branches[0].Len()
	for _, b := range branches[1:] {
		n := 0
		for n < common && n < b.Len() && sameMatch(branches[0].GetSegment(n), b.GetSegment(n)) {
			n++
		}
		common = n
	}
	for _, b := range branches {
		idx := common - 1
		if b.IsActive() {
			idx = max(min(idx, b.Len()-2), -1)
		}
		b.SetCertainPathEndSegmentIndex(idx)
	}
}

func sameMatch(a, b *da.MatchedWaySegment) bool {
	return a.GetSegment().GetID() == b.GetSegment().GetID() && a.GetDirection() == b.GetDirection() &&
		a.GetStartIndex() == b.GetStartIndex()
}
