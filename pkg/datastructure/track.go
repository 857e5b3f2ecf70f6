package datastructure

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/lintang-b-s/navigatorx-mapmatch/pkg/geo"
)

type TrackPoint struct {
	id    int64
	seq   int // 1..n after track preprocessing
	time  time.Time
	coord geo.Coordinate
	z     float64

	distToPrev        float64 // meter
	velocity          float64 // meter/second
	acceleration      float64 // meter/second^2
	headingChangeRate float64 // degree/second
}

func NewTrackPoint(id int64, t time.Time, lat, lon, z float64) *TrackPoint {
	return &TrackPoint{
		id:    id,
		time:  t,
		coord: geo.NewCoordinate(lat, lon),
		z:     z,
	}
}

func (tp *TrackPoint) GetID() int64 {
	return tp.id
}

func (tp *TrackPoint) GetSeq() int {
	return tp.seq
}

func (tp *TrackPoint) GetTime() time.Time {
	return tp.time
}

func (tp *TrackPoint) GetCoordinate() geo.Coordinate {
	return tp.coord
}

func (tp *TrackPoint) Lat() float64 {
	return tp.coord.Lat
}

func (tp *TrackPoint) Lon() float64 {
	return tp.coord.Lon
}

func (tp *TrackPoint) Z() float64 {
	return tp.z
}

func (tp *TrackPoint) GetDistanceToPrevious() float64 {
	return tp.distToPrev
}

func (tp *TrackPoint) GetVelocity() float64 {
	return tp.velocity
}

func (tp *TrackPoint) GetAcceleration() float64 {
	return tp.acceleration
}

func (tp *TrackPoint) GetHeadingChangeRate() float64 {
	return tp.headingChangeRate
}

// Track. time ordered, immutable sequence of track points.
type Track struct {
	id       int64
	cacheKey uuid.UUID // identity of the point sequence, shared by extended tracks
	points   []*TrackPoint
	geometry []geo.Coordinate
	length   float64
}

// NewTrack. sorts points by timestamp, drops points with a duplicate timestamp, assigns
// sequence numbers and computes the derived values of every point.
func NewTrack(id int64, points []*TrackPoint) *Track {
	sorted := make([]*TrackPoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].time.Before(sorted[j].time)
	})

	t := &Track{
		id:       id,
		cacheKey: uuid.New(),
		points:   make([]*TrackPoint, 0, len(sorted)),
		geometry: make([]geo.Coordinate, 0, len(sorted)),
	}
	t.appendPoints(sorted)
	return t
}

func (t *Track) appendPoints(sorted []*TrackPoint) {
	prevHeading := -1.0
	if n := len(t.points); n >= 2 {
		prevHeading = geo.BearingTo(t.points[n-2].Lat(), t.points[n-2].Lon(), t.points[n-1].Lat(), t.points[n-1].Lon())
	}

	for _, p := range sorted {
		n := len(t.points)
		if n > 0 && !p.time.After(t.points[n-1].time) {
			continue
		}
		cp := *p
		cp.seq = n + 1
		if n > 0 {
			prev := t.points[n-1]
			dt := cp.time.Sub(prev.time).Seconds()
			cp.distToPrev = geo.HaversineMeter(prev.coord, cp.coord)
			cp.velocity = cp.distToPrev / dt
			cp.acceleration = (cp.velocity - prev.velocity) / dt
			if cp.distToPrev > 0 {
				heading := geo.BearingTo(prev.Lat(), prev.Lon(), cp.Lat(), cp.Lon())
				if prevHeading >= 0 {
					cp.headingChangeRate = geo.BearingDifference(heading, prevHeading) / dt
				}
				prevHeading = heading
			}
			t.length += cp.distToPrev
		}
		t.points = append(t.points, &cp)
		t.geometry = append(t.geometry, cp.coord)
	}
}

// Extend. new track holding the points of t followed by points newer than the last point of t.
// the cache identity is kept: points at existing indexes are unchanged.
func (t *Track) Extend(points []*TrackPoint) *Track {
	sorted := make([]*TrackPoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].time.Before(sorted[j].time)
	})

	ext := &Track{
		id:       t.id,
		cacheKey: t.cacheKey,
		points:   make([]*TrackPoint, len(t.points), len(t.points)+len(sorted)),
		geometry: make([]geo.Coordinate, len(t.geometry), len(t.geometry)+len(sorted)),
		length:   t.length,
	}
	copy(ext.points, t.points)
	copy(ext.geometry, t.geometry)
	ext.appendPoints(sorted)
	return ext
}

func (t *Track) GetID() int64 {
	return t.id
}

func (t *Track) GetCacheKey() uuid.UUID {
	return t.cacheKey
}

func (t *Track) Len() int {
	return len(t.points)
}

func (t *Track) GetPoint(i int) *TrackPoint {
	return t.points[i]
}

func (t *Track) GetCoordinate(i int) geo.Coordinate {
	return t.points[i].coord
}

func (t *Track) GetPoints() []*TrackPoint {
	return t.points
}

func (t *Track) GetGeometry() []geo.Coordinate {
	return t.geometry
}

// SubLine. geometry of the points [from, to)
func (t *Track) SubLine(from, to int) []geo.Coordinate {
	if from < 0 {
		from = 0
	}
	if to > len(t.geometry) {
		to = len(t.geometry)
	}
	if from >= to {
		return nil
	}
	return t.geometry[from:to]
}

func (t *Track) GetLength() float64 {
	return t.length
}

func (t *Track) GetStartTime() time.Time {
	if len(t.points) == 0 {
		return time.Time{}
	}
	return t.points[0].time
}

func (t *Track) GetEndTime() time.Time {
	if len(t.points) == 0 {
		return time.Time{}
	}
	return t.points[len(t.points)-1].time
}

func (t *Track) GetDuration() time.Duration {
	return t.GetEndTime().Sub(t.GetStartTime())
}
