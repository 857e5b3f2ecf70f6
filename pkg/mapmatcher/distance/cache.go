package distance

import (
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	da "github.com/lintang-b-s/navigatorx-mapmatch/pkg/datastructure"
	"github.com/lintang-b-s/navigatorx-mapmatch/pkg/util"
)

const DEFAULT_GLOBAL_CACHE_SIZE = 200

type pointsKey struct {
	track   uuid.UUID
	segment da.SegmentID
	points  da.PointsCacheKey
}

type routingKey struct {
	track   uuid.UUID
	routing da.RoutingCacheKey
}

// GlobalCache. bounded distance cache of one distance kind shared by every branch and every
// concurrently running task. values are pure functions of their keys, so concurrent overwrites only
// cost a recomputation.
type GlobalCache struct {
	kind    da.DistanceKind
	points  *lru.Cache[pointsKey, float64]
	routing *lru.Cache[routingKey, float64]
}

func NewGlobalCache(kind da.DistanceKind, size int) (*GlobalCache, error) {
	if size <= 0 {
		size = DEFAULT_GLOBAL_CACHE_SIZE
	}
	points, err := lru.New[pointsKey, float64](size)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrInternalServerError, "failed to create %s points cache", kind)
	}
	routing, err := lru.New[routingKey, float64](size)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrInternalServerError, "failed to create %s routing cache", kind)
	}
	return &GlobalCache{kind: kind, points: points, routing: routing}, nil
}

func (gc *GlobalCache) GetKind() da.DistanceKind {
	return gc.kind
}

// Len. number of cached points and routing values
func (gc *GlobalCache) Len() (int, int) {
	return gc.points.Len(), gc.routing.Len()
}

func (gc *GlobalCache) Purge() {
	gc.points.Purge()
	gc.routing.Purge()
}

// segmentPoints. local slot of seg, then the global cache, then compute; a value found or computed
// at one level is written to the levels above it.
func (gc *GlobalCache) segmentPoints(seg *da.MatchedWaySegment, track *da.Track, compute func() float64) float64 {
	local := da.PointsCacheKey{From: seg.GetStartIndex(), To: seg.GetEndIndex()}
	slot := seg.DistanceCache(gc.kind)
	if v, ok := slot.GetPoints(local); ok {
		return v
	}

	key := pointsKey{track: track.GetCacheKey(), segment: seg.GetSegment().GetID(), points: local}
	if v, ok := gc.points.Get(key); ok {
		slot.SetPoints(local, v)
		return v
	}

	v := compute()
	gc.points.Add(key, v)
	slot.SetPoints(local, v)
	return v
}

// routingSegments. same lookup order as segmentPoints; the local slot is the one of the last chain segment.
func (gc *GlobalCache) routingSegments(chain []*da.MatchedWaySegment, track *da.Track, compute func() float64) float64 {
	local := da.NewRoutingCacheKey(chain)
	slot := chain[len(chain)-1].DistanceCache(gc.kind)
	if v, ok := slot.GetRouting(local); ok {
		return v
	}

	key := routingKey{track: track.GetCacheKey(), routing: local}
	if v, ok := gc.routing.Get(key); ok {
		slot.SetRouting(local, v)
		return v
	}

	v := compute()
	gc.routing.Add(key, v)
	slot.SetRouting(local, v)
	return v
}
