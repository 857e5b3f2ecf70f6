package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/lintang-b-s/navigatorx-mapmatch/pkg/concurrent"
	da "github.com/lintang-b-s/navigatorx-mapmatch/pkg/datastructure"
	"github.com/lintang-b-s/navigatorx-mapmatch/pkg/engine"
	"github.com/lintang-b-s/navigatorx-mapmatch/pkg/geo"
	"github.com/lintang-b-s/navigatorx-mapmatch/pkg/graphio"
	"github.com/lintang-b-s/navigatorx-mapmatch/pkg/logger"
	"github.com/lintang-b-s/navigatorx-mapmatch/pkg/mapmatcher"
	"github.com/lintang-b-s/navigatorx-mapmatch/pkg/usecases"
	"github.com/lintang-b-s/navigatorx-mapmatch/pkg/util"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	configPath   = flag.String("config", "./data/", "directory of config.yaml")
	graphPath    = flag.String("graph", "./data/graph.geojson", "road graph, geojson feature collection of segments")
	graphVersion = flag.String("graph_version", "1", "version the road graph is registered under")
	tracksPath   = flag.String("tracks", "./data/tracks.geojson", "tracks, geojson feature collection of points")
	workers      = flag.Int("workers", 4, "number of tracks matched in parallel")
	outputFormat = flag.String("format", "json", "output format: json or geojson")
)

type matchedBranchDTO struct {
	Rank          int     `json:"rank"`
	MatchedFactor float64 `json:"matched_factor"`
	MatchedPoints int     `json:"matched_points"`
	UTurns        int     `json:"u_turns"`
	SegmentIDs    []int64 `json:"segment_ids"`
	Polyline      string  `json:"polyline"`
	SnappedPoints string  `json:"snapped_points"`
}

type matchResultDTO struct {
	TrackID   int64              `json:"track_id"`
	Rejected  string             `json:"rejected,omitempty"`
	Cancelled bool               `json:"cancelled,omitempty"`
	Error     string             `json:"error,omitempty"`
	Branches  []matchedBranchDTO `json:"branches"`
}

func main() {
	flag.Parse()
	log, err := logger.New()
	if err != nil {
		panic(err)
	}
	if err := util.ReadConfig(*configPath); err != nil {
		log.Fatal("failed to read config", zap.Error(err))
	}
	cfg, err := mapmatcher.ConfigFromViper()
	if err != nil {
		log.Fatal("invalid map matching config", zap.Error(err))
	}

	graph, err := graphio.ReadGraph(*graphPath, log)
	if err != nil {
		log.Fatal("failed to load road graph", zap.Error(err))
	}
	tracks, err := graphio.ReadTracks(*tracksPath, log)
	if err != nil {
		log.Fatal("failed to load tracks", zap.Error(err))
	}

	registry := engine.NewEngine(log)
	registry.AddGraph(*graphPath, *graphVersion, graph)

	timer := concurrent.NewTaskTimer(cfg.GetTimeout(), cfg.GetSweepPeriod(), log)
	service, err := usecases.NewMapMatcherService(log, registry, timer, cfg, *workers)
	if err != nil {
		log.Fatal("failed to create map matcher", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	timerCtx, stopTimer := context.WithCancel(ctx)

	reqs := make([]usecases.MatchRequest, 0, len(tracks))
	for _, t := range tracks {
		reqs = append(reqs, usecases.NewMatchRequest(*graphPath, *graphVersion, t))
	}

	var results []usecases.MatchResult
	g, gctx := errgroup.WithContext(timerCtx)
	g.Go(func() error {
		return timer.Run(gctx)
	})
	g.Go(func() error {
		defer stopTimer()
		results = service.MatchTracks(ctx, reqs)
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Fatal("map matching failed", zap.Error(err))
	}

	if err := writeResults(os.Stdout, tracks, results, *outputFormat); err != nil {
		log.Fatal("failed to write results", zap.Error(err))
	}
}

func writeResults(out *os.File, tracks []*da.Track, results []usecases.MatchResult, format string) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	if format == "geojson" {
		fc := geojson.NewFeatureCollection()
		for _, res := range results {
			for rank, b := range res.Branches {
				fc.Append(graphio.BranchFeature(res.TrackID, rank, b))
			}
		}
		return enc.Encode(fc)
	}

	dtos := make([]matchResultDTO, 0, len(results))
	for i, res := range results {
		dto := matchResultDTO{
			TrackID:   res.TrackID,
			Rejected:  res.Rejected,
			Cancelled: res.Cancelled,
			Branches:  make([]matchedBranchDTO, 0, len(res.Branches)),
		}
		if res.Err != nil {
			dto.Error = res.Err.Error()
		}
		for rank, b := range res.Branches {
			ids := make([]int64, 0, b.Len())
			for _, id := range b.SegmentIDs() {
				ids = append(ids, int64(id))
			}
			dto.Branches = append(dto.Branches, matchedBranchDTO{
				Rank:          rank,
				MatchedFactor: b.GetMatchedFactor(),
				MatchedPoints: b.GetMatchedPoints(),
				UTurns:        b.GetNrOfUTurns(),
				SegmentIDs:    ids,
				Polyline:      b.EncodedPolyline(),
				SnappedPoints: geo.EncodePolyline(usecases.SnapPoints(b, tracks[i])),
			})
		}
		dtos = append(dtos, dto)
	}
	return enc.Encode(dtos)
}
