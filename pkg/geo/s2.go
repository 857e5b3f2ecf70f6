package geo

import (
	"math"

	"github.com/golang/geo/s2"
)

func toS2Point(c Coordinate) s2.Point {
	return s2.PointFromLatLng(s2.LatLngFromDegrees(c.Lat, c.Lon))
}

func ProjectPointToLineCoord(pointA Coordinate, pointB Coordinate,
	snap Coordinate) Coordinate {
	projection := s2.Project(toS2Point(snap), toS2Point(pointA), toS2Point(pointB))
	projectLatLng := s2.LatLngFromPoint(projection)
	return NewCoordinate(projectLatLng.Lat.Degrees(), projectLatLng.Lng.Degrees())
}

// LineToLineDistance. minimum great-circle distance in meter between two polylines.
// crossing polylines have distance 0.
func LineToLineDistance(a, b []Coordinate) float64 {
	if len(a) == 0 || len(b) == 0 {
		return math.Inf(1)
	}
	if len(a) == 1 {
		return PointLineDistance(a[0], b)
	}
	if len(b) == 1 {
		return PointLineDistance(b[0], a)
	}

	best := math.Inf(1)
	for i := 0; i+1 < len(a); i++ {
		a0, a1 := toS2Point(a[i]), toS2Point(a[i+1])
		for j := 0; j+1 < len(b); j++ {
			b0, b1 := toS2Point(b[j]), toS2Point(b[j+1])
			if s2.CrossingSign(a0, a1, b0, b1) == s2.Cross {
				return 0
			}
			pa, pb := s2.EdgePairClosestPoints(a0, a1, b0, b1)
			d := pa.Distance(pb).Radians() * earthRadiusM
			if d < best {
				best = d
			}
		}
	}
	return best
}
