package datastructure

import (
	"fmt"

	"github.com/lintang-b-s/navigatorx-mapmatch/pkg/geo"
	"github.com/lintang-b-s/navigatorx-mapmatch/pkg/util"
)

// MatchedWaySegment. match state of one graph segment inside a branch.
// the track points [startIndex, endIndex) are assigned to the segment.
type MatchedWaySegment struct {
	segment *Segment // shared, read-only

	startIndex int
	endIndex   int
	distances  []float64 // distance of every point of the window to the segment geometry
	radius     float64   // matching radius, points further away are not counted as matched

	direction Direction

	startSegment     bool
	afterSkippedPart bool
	fromPathSearch   bool
	uTurnSegment     bool
	certain          bool
	skippedPoints    int // points given up right before this segment

	weight        float64
	matchedFactor float64

	caches [NUM_DISTANCE_KINDS]DistanceCacheSlot
}

func NewMatchedWaySegment(segment *Segment, direction Direction, radius float64) *MatchedWaySegment {
	return &MatchedWaySegment{
		segment:   segment,
		direction: direction,
		radius:    radius,
		distances: make([]float64, 0),
	}
}

// Clone. deep copy; the local caches are copied by value.
func (ms *MatchedWaySegment) Clone() *MatchedWaySegment {
	cp := *ms
	cp.distances = make([]float64, len(ms.distances))
	copy(cp.distances, ms.distances)
	return &cp
}

func (ms *MatchedWaySegment) GetSegment() *Segment {
	return ms.segment
}

func (ms *MatchedWaySegment) GetStartIndex() int {
	return ms.startIndex
}

func (ms *MatchedWaySegment) GetEndIndex() int {
	return ms.endIndex
}

// IsEmpty. no track point is assigned to the segment
func (ms *MatchedWaySegment) IsEmpty() bool {
	return ms.startIndex == ms.endIndex
}

func (ms *MatchedWaySegment) NumberOfPoints() int {
	return ms.endIndex - ms.startIndex
}

// GetMatchedPoints. points of the window that lie within the matching radius
func (ms *MatchedWaySegment) GetMatchedPoints() int {
	n := 0
	for _, d := range ms.distances {
		if d <= ms.radius {
			n++
		}
	}
	return n
}

func (ms *MatchedWaySegment) GetRadius() float64 {
	return ms.radius
}

// SetWindow. assigns the points [start, start+len(distances)) to the segment
func (ms *MatchedWaySegment) SetWindow(start int, distances []float64) {
	util.AssertPanic(start >= 0, "matched segment window must not start below 0")
	ms.startIndex = start
	ms.endIndex = start + len(distances)
	ms.distances = append(make([]float64, 0, len(distances)), distances...)
}

// SetEmptyAt. no points, positioned at index
func (ms *MatchedWaySegment) SetEmptyAt(index int) {
	ms.SetWindow(index, nil)
}

// TrimEnd. shrinks the window to [startIndex, end)
func (ms *MatchedWaySegment) TrimEnd(end int) {
	util.AssertPanic(end >= ms.startIndex && end <= ms.endIndex,
		fmt.Sprintf("invalid window end %d for [%d,%d)", end, ms.startIndex, ms.endIndex))
	ms.distances = ms.distances[:end-ms.startIndex]
	ms.endIndex = end
}

// Prepend. grows the window to [start, endIndex); distances of the new leading points given in order
func (ms *MatchedWaySegment) Prepend(start int, distances []float64) {
	util.AssertPanic(start+len(distances) == ms.startIndex, "prepended points must end at the window start")
	merged := make([]float64, 0, len(distances)+len(ms.distances))
	merged = append(merged, distances...)
	merged = append(merged, ms.distances...)
	ms.distances = merged
	ms.startIndex = start
}

// Append. grows the window by one point at its end
func (ms *MatchedWaySegment) Append(distance float64) {
	ms.distances = append(ms.distances, distance)
	ms.endIndex++
}

// GetDistance. distance of the point at track index i, which must be inside the window
func (ms *MatchedWaySegment) GetDistance(i int) float64 {
	return ms.distances[i-ms.startIndex]
}

func (ms *MatchedWaySegment) GetDistances() []float64 {
	return ms.distances
}

// DistanceTo. distance in meter of c to the segment geometry
func (ms *MatchedWaySegment) DistanceTo(c geo.Coordinate) float64 {
	return geo.PointLineDistance(c, ms.segment.GetGeometry())
}

func (ms *MatchedWaySegment) GetDirection() Direction {
	return ms.direction
}

func (ms *MatchedWaySegment) SetDirection(d Direction) {
	ms.direction = d
}

func (ms *MatchedWaySegment) IsStartSegment() bool {
	return ms.startSegment
}

func (ms *MatchedWaySegment) SetStartSegment(v bool) {
	ms.startSegment = v
}

func (ms *MatchedWaySegment) IsAfterSkippedPart() bool {
	return ms.afterSkippedPart
}

func (ms *MatchedWaySegment) SetAfterSkippedPart(v bool, skippedPoints int) {
	ms.afterSkippedPart = v
	ms.skippedPoints = skippedPoints
}

func (ms *MatchedWaySegment) GetSkippedPoints() int {
	return ms.skippedPoints
}

func (ms *MatchedWaySegment) IsFromPathSearch() bool {
	return ms.fromPathSearch
}

func (ms *MatchedWaySegment) SetFromPathSearch(v bool) {
	ms.fromPathSearch = v
}

func (ms *MatchedWaySegment) IsUTurnSegment() bool {
	return ms.uTurnSegment
}

// MarkUTurn. the path leaves the segment through the node it entered
func (ms *MatchedWaySegment) MarkUTurn() {
	ms.uTurnSegment = true
	ms.direction = ms.direction.WithExit(ms.direction.Entry())
}

func (ms *MatchedWaySegment) IsCertain() bool {
	return ms.certain
}

func (ms *MatchedWaySegment) SetCertain(v bool) {
	ms.certain = v
}

func (ms *MatchedWaySegment) GetWeight() float64 {
	return ms.weight
}

func (ms *MatchedWaySegment) SetWeight(w float64) {
	ms.weight = w
}

func (ms *MatchedWaySegment) GetMatchedFactor() float64 {
	return ms.matchedFactor
}

func (ms *MatchedWaySegment) SetMatchedFactor(f float64) {
	ms.matchedFactor = f
}

func (ms *MatchedWaySegment) DistanceCache(kind DistanceKind) *DistanceCacheSlot {
	return &ms.caches[kind]
}

// ExitNodes. nodes the path may continue from
func (ms *MatchedWaySegment) ExitNodes() []NodeID {
	return ms.direction.ExitNodes(ms.segment)
}

func (ms *MatchedWaySegment) EntryNode() NodeID {
	return ms.direction.EntryNode(ms.segment)
}

// OrientedGeometry. segment geometry in travel direction
func (ms *MatchedWaySegment) OrientedGeometry() []geo.Coordinate {
	if ms.direction.IsBackward() {
		return geo.ReverseLine(ms.segment.GetGeometry())
	}
	return ms.segment.GetGeometry()
}

func (ms *MatchedWaySegment) String() string {
	return fmt.Sprintf("MatchedWaySegment{id: %d, [%d,%d), %s, uturn: %v, factor: %.3f}",
		ms.segment.GetID(), ms.startIndex, ms.endIndex, ms.direction, ms.uTurnSegment, ms.matchedFactor)
}
