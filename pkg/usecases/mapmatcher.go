package usecases

import (
	"context"
	"errors"
	"time"

	"github.com/lintang-b-s/navigatorx-mapmatch/pkg/concurrent"
	da "github.com/lintang-b-s/navigatorx-mapmatch/pkg/datastructure"
	"github.com/lintang-b-s/navigatorx-mapmatch/pkg/geo"
	"github.com/lintang-b-s/navigatorx-mapmatch/pkg/mapmatcher"
	"github.com/lintang-b-s/navigatorx-mapmatch/pkg/mapmatcher/distance"
	"github.com/lintang-b-s/navigatorx-mapmatch/pkg/util"
	"go.uber.org/zap"
)

type MatchRequest struct {
	Graph          string
	Version        string
	Track          *da.Track
	StartSegmentID da.SegmentID // da.INVALID_SEGMENT_ID to search the start segments
	TimeoutInMs    int64        // non-positive: the configured timeout
}

func NewMatchRequest(graph, version string, track *da.Track) MatchRequest {
	return MatchRequest{
		Graph:          graph,
		Version:        version,
		Track:          track,
		StartSegmentID: da.INVALID_SEGMENT_ID,
	}
}

type MatchResult struct {
	TrackID   int64
	Branches  []*da.MatchedBranch // best first; empty if nothing matched
	Rejected  string              // why the track was not matched, empty if it was attempted
	Cancelled bool
	Err       error
}

// Best. highest ranked branch, nil if none
func (mr MatchResult) Best() *da.MatchedBranch {
	if len(mr.Branches) == 0 {
		return nil
	}
	return mr.Branches[0]
}

// MapMatcherService. runs every match as one task registered with the task timer. the distance
// caches are shared by all tasks of the service.
type MapMatcherService struct {
	log         *zap.Logger
	registry    GraphRegistry
	timer       *concurrent.TaskTimer
	cfg         mapmatcher.Config
	calculators *distance.Set
	numWorkers  int
}

func NewMapMatcherService(log *zap.Logger, registry GraphRegistry, timer *concurrent.TaskTimer,
	cfg mapmatcher.Config, numWorkers int) (*MapMatcherService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	calculators, err := mapmatcher.NewDistanceSet(cfg, log, false)
	if err != nil {
		return nil, err
	}
	return &MapMatcherService{
		log:         log,
		registry:    registry,
		timer:       timer,
		cfg:         cfg,
		calculators: calculators,
		numWorkers:  numWorkers,
	}, nil
}

func (ms *MapMatcherService) matcherFor(req MatchRequest) (*mapmatcher.MapMatcher, error) {
	network, err := ms.registry.GetRoadNetwork(req.Graph, req.Version)
	if err != nil {
		return nil, err
	}
	return mapmatcher.NewMapMatcher(ms.cfg, network, ms.calculators, ms.log)
}

func (ms *MapMatcherService) timeout(req MatchRequest) time.Duration {
	if req.TimeoutInMs > 0 {
		return time.Duration(req.TimeoutInMs) * time.Millisecond
	}
	return ms.cfg.GetTimeout()
}

// MatchTrack. matches one track. only an unavailable graph, an invalid request or a cancellation
// are returned as error; a rejected or unmatched track gives a result without branches.
func (ms *MapMatcherService) MatchTrack(ctx context.Context, req MatchRequest) (MatchResult, error) {
	res := MatchResult{TrackID: req.Track.GetID()}
	matcher, err := ms.matcherFor(req)
	if err != nil {
		return res, err
	}
	if reason := matcher.RejectTrack(req.Track); reason != "" {
		res.Rejected = reason
		return res, nil
	}

	task := ms.timer.StartTask(ms.timeout(req))
	defer ms.timer.FinishTask(task)

	var branches []*da.MatchedBranch
	if req.StartSegmentID != da.INVALID_SEGMENT_ID {
		branches, err = matcher.MatchTrackFromSegment(ctx, task, req.Track, req.StartSegmentID)
	} else {
		branches, err = matcher.MatchTrack(ctx, task, req.Track)
	}
	if err != nil {
		res.Cancelled = errors.Is(err, util.ErrCancelled)
		return res, err
	}
	res.Branches = branches
	return res, nil
}

// MatchOnline. continues previous on the extended track. a cancelled run still returns its current
// branches so that their certain path end segment can be reported.
func (ms *MapMatcherService) MatchOnline(ctx context.Context, req MatchRequest,
	previous []*da.MatchedBranch) (MatchResult, error) {
	res := MatchResult{TrackID: req.Track.GetID()}
	matcher, err := ms.matcherFor(req)
	if err != nil {
		return res, err
	}

	task := ms.timer.StartTask(ms.timeout(req))
	defer ms.timer.FinishTask(task)

	branches, err := matcher.MatchTrackWithBranches(ctx, task, req.Track, previous, true)
	res.Branches = branches
	if err != nil {
		res.Cancelled = errors.Is(err, util.ErrCancelled)
		return res, err
	}
	return res, nil
}

// MatchTracks. matches every request on a pool of numWorkers goroutines, each request as its own task.
// results are in request order, errors are reported per result.
func (ms *MapMatcherService) MatchTracks(ctx context.Context, reqs []MatchRequest) []MatchResult {
	type job struct {
		idx int
		req MatchRequest
	}
	type jobResult struct {
		idx int
		res MatchResult
	}

	wp := concurrent.NewWorkerPool[job, jobResult](ms.numWorkers, len(reqs))
	wp.Start(func(j job) jobResult {
		res, err := ms.MatchTrack(ctx, j.req)
		if err != nil {
			ms.log.Warn("map matching failed", zap.Int64("track", j.req.Track.GetID()), zap.Error(err))
			res.Err = err
		}
		return jobResult{idx: j.idx, res: res}
	})
	for i, req := range reqs {
		wp.AddJob(job{idx: i, req: req})
	}
	wp.Close()
	wp.Wait()

	results := make([]MatchResult, len(reqs))
	for jr := range wp.CollectResults() {
		results[jr.idx] = jr.res
	}
	return results
}

// SnapPoints. position on the matched road of every track point assigned to branch
func SnapPoints(branch *da.MatchedBranch, track *da.Track) []geo.Coordinate {
	snapped := make([]geo.Coordinate, 0, track.Len())
	for _, s := range branch.GetSegments() {
		geom := s.GetSegment().GetGeometry()
		for i := s.GetStartIndex(); i < s.GetEndIndex(); i++ {
			c := track.GetCoordinate(i)
			pos := geo.ProjectOnLine(c, geom)
			e := pos.GetEdgeIdx()
			if len(geom) < 2 {
				snapped = append(snapped, pos.GetProjected())
				continue
			}
			snapped = append(snapped, geo.ProjectPointToLineCoord(geom[e], geom[e+1], c))
		}
	}
	return snapped
}
