package geo

import (
	"math"

	"github.com/lintang-b-s/navigatorx-mapmatch/pkg/util"
)

// LinePosition. nearest position of a point on a polyline.
type LinePosition struct {
	distance  float64 // meter, from the point to the line
	along     float64 // meter, from the first vertex to the projected point
	edgeIdx   int
	projected Coordinate
	atStart   bool // projection clamped to the first vertex
	atEnd     bool // projection clamped to the last vertex
}

func (lp LinePosition) GetDistance() float64 {
	return lp.distance
}

func (lp LinePosition) GetAlong() float64 {
	return lp.along
}

func (lp LinePosition) GetEdgeIdx() int {
	return lp.edgeIdx
}

func (lp LinePosition) GetProjected() Coordinate {
	return lp.projected
}

// IsAtEndpoint. true if the nearest position is the first or the last vertex of the line
func (lp LinePosition) IsAtEndpoint() bool {
	return lp.atStart || lp.atEnd
}

// planar frame around a: x east, y north, meter
func toLocal(a, p Coordinate, cosLat float64) (float64, float64) {
	k := util.DegreeToRadians(1) * earthRadiusM
	return (p.Lon - a.Lon) * cosLat * k, (p.Lat - a.Lat) * k
}

// projectOnEdge. returns t in [0,1] and the distance in meter of p to edge ab.
// t is exactly 0 or 1 when p coincides with a or b.
func projectOnEdge(a, b, p Coordinate) (float64, float64, float64) {
	cosLat := math.Cos(util.DegreeToRadians((a.Lat + b.Lat) / 2))
	bx, by := toLocal(a, b, cosLat)
	px, py := toLocal(a, p, cosLat)
	lenSq := bx*bx + by*by
	edgeLen := math.Sqrt(lenSq)
	if lenSq == 0 {
		return 0, math.Hypot(px, py), 0
	}
	t := (px*bx + py*by) / lenSq
	if t <= 0 {
		return 0, math.Hypot(px, py), edgeLen
	}
	if t >= 1 {
		return 1, math.Hypot(px-bx, py-by), edgeLen
	}
	return t, math.Hypot(px-t*bx, py-t*by), edgeLen
}

func interpolate(a, b Coordinate, t float64) Coordinate {
	if t <= 0 {
		return a
	}
	if t >= 1 {
		return b
	}
	return NewCoordinate(a.Lat+t*(b.Lat-a.Lat), a.Lon+t*(b.Lon-a.Lon))
}

// ProjectOnLine. nearest position of p on line. an empty line yields an infinite distance.
func ProjectOnLine(p Coordinate, line []Coordinate) LinePosition {
	if len(line) == 0 {
		return LinePosition{distance: math.Inf(1)}
	}
	if len(line) == 1 {
		return LinePosition{distance: PlanarMeter(p, line[0]), projected: line[0], atStart: true, atEnd: true}
	}

	best := LinePosition{distance: math.Inf(1)}
	along := 0.0
	for i := 0; i+1 < len(line); i++ {
		t, d, edgeLen := projectOnEdge(line[i], line[i+1], p)
		if d < best.distance {
			best = LinePosition{
				distance:  d,
				along:     along + t*edgeLen,
				edgeIdx:   i,
				projected: interpolate(line[i], line[i+1], t),
				atStart:   i == 0 && t == 0,
				atEnd:     i == len(line)-2 && t == 1,
			}
		}
		along += edgeLen
	}
	return best
}

// PointLineDistance. distance in meter from p to line
func PointLineDistance(p Coordinate, line []Coordinate) float64 {
	return ProjectOnLine(p, line).distance
}

// DistanceAlongLine. distance in meter from the first vertex of line to the projection of p
func DistanceAlongLine(p Coordinate, line []Coordinate) float64 {
	return ProjectOnLine(p, line).along
}

// LineLength. length of line in meter, measured with the same planar metric as ProjectOnLine
func LineLength(line []Coordinate) float64 {
	length := 0.0
	for i := 0; i+1 < len(line); i++ {
		_, _, edgeLen := projectOnEdge(line[i], line[i+1], line[i+1])
		length += edgeLen
	}
	return length
}

func ReverseLine(line []Coordinate) []Coordinate {
	return util.ReverseG(line)
}
