package datastructure

import (
	"fmt"
	"strings"

	"github.com/lintang-b-s/navigatorx-mapmatch/pkg/geo"
	"github.com/lintang-b-s/navigatorx-mapmatch/pkg/util"
)

type BranchState uint8

const (
	BRANCH_ACTIVE BranchState = iota
	BRANCH_FINISHED
	BRANCH_DEAD
)

func (s BranchState) String() string {
	switch s {
	case BRANCH_ACTIVE:
		return "active"
	case BRANCH_FINISHED:
		return "finished"
	case BRANCH_DEAD:
		return "dead"
	}
	return "unknown"
}

// MatchedBranch. one path hypothesis: an ordered sequence of matched segments.
type MatchedBranch struct {
	segments []*MatchedWaySegment

	state         BranchState
	step          int
	matchedFactor float64 // lower is better
	matchedPoints int

	nrOfUTurns               int
	nrOfShortestPathSearches int
	nrOfEmptySegments        int

	certainPathEndSegment int // index into segments, -1 if none
	loopsWithoutExtension int
	furthestEndIndex      int
}

func NewMatchedBranch() *MatchedBranch {
	return &MatchedBranch{
		segments:              make([]*MatchedWaySegment, 0),
		certainPathEndSegment: -1,
	}
}

// Clone. deep copy, no segment is shared between the copies.
func (b *MatchedBranch) Clone() *MatchedBranch {
	cp := *b
	cp.segments = make([]*MatchedWaySegment, len(b.segments), len(b.segments)+1)
	for i, s := range b.segments {
		cp.segments[i] = s.Clone()
	}
	return &cp
}

// AddSegment. appends seg; the previous segment is trimmed to end where seg starts.
func (b *MatchedBranch) AddSegment(seg *MatchedWaySegment) {
	if last := b.GetLastSegment(); last != nil {
		util.AssertPanic(seg.GetStartIndex() >= last.GetStartIndex(),
			fmt.Sprintf("segment %d starts at %d before its predecessor at %d", seg.GetSegment().GetID(),
				seg.GetStartIndex(), last.GetStartIndex()))
		if seg.GetStartIndex() < last.GetEndIndex() {
			last.TrimEnd(seg.GetStartIndex())
		}
	}
	b.segments = append(b.segments, seg)
	b.Recalculate()
}

// Recalculate. refreshes the counters derived from the segments
func (b *MatchedBranch) Recalculate() {
	matched := 0
	empty := 0
	for _, s := range b.segments {
		matched += s.GetMatchedPoints()
		if s.IsEmpty() {
			empty++
		}
	}
	b.matchedPoints = matched
	b.nrOfEmptySegments = empty
}

func (b *MatchedBranch) GetSegments() []*MatchedWaySegment {
	return b.segments
}

func (b *MatchedBranch) GetSegment(i int) *MatchedWaySegment {
	return b.segments[i]
}

func (b *MatchedBranch) Len() int {
	return len(b.segments)
}

func (b *MatchedBranch) GetLastSegment() *MatchedWaySegment {
	if len(b.segments) == 0 {
		return nil
	}
	return b.segments[len(b.segments)-1]
}

// GetLastMatchingSegmentIndex. index of the last segment having points, -1 if none
func (b *MatchedBranch) GetLastMatchingSegmentIndex() int {
	for i := len(b.segments) - 1; i >= 0; i-- {
		if !b.segments[i].IsEmpty() {
			return i
		}
	}
	return -1
}

// GetEndIndex. first track index not yet assigned to the branch
func (b *MatchedBranch) GetEndIndex() int {
	if last := b.GetLastSegment(); last != nil {
		return last.GetEndIndex()
	}
	return 0
}

func (b *MatchedBranch) GetState() BranchState {
	return b.state
}

func (b *MatchedBranch) IsFinished() bool {
	return b.state == BRANCH_FINISHED
}

func (b *MatchedBranch) IsActive() bool {
	return b.state == BRANCH_ACTIVE
}

func (b *MatchedBranch) SetFinished() {
	b.state = BRANCH_FINISHED
}

func (b *MatchedBranch) SetDead() {
	b.state = BRANCH_DEAD
}

// Reactivate. a finished branch becomes extendable again, used when the track grows.
func (b *MatchedBranch) Reactivate() {
	if b.state == BRANCH_FINISHED {
		b.state = BRANCH_ACTIVE
	}
}

func (b *MatchedBranch) GetStep() int {
	return b.step
}

func (b *MatchedBranch) IncStep() {
	b.step++
}

func (b *MatchedBranch) GetMatchedFactor() float64 {
	return b.matchedFactor
}

func (b *MatchedBranch) SetMatchedFactor(f float64) {
	b.matchedFactor = f
}

func (b *MatchedBranch) GetMatchedPoints() int {
	return b.matchedPoints
}

func (b *MatchedBranch) GetNrOfUTurns() int {
	return b.nrOfUTurns
}

func (b *MatchedBranch) IncNrOfUTurns() {
	b.nrOfUTurns++
}

func (b *MatchedBranch) GetNrOfShortestPathSearches() int {
	return b.nrOfShortestPathSearches
}

func (b *MatchedBranch) IncNrOfShortestPathSearches() {
	b.nrOfShortestPathSearches++
}

func (b *MatchedBranch) GetNrOfEmptySegments() int {
	return b.nrOfEmptySegments
}

func (b *MatchedBranch) GetLoopsWithoutExtension() int {
	return b.loopsWithoutExtension
}

// UpdateProgress. resets the loop counter when the branch covers more points than ever before,
// otherwise increments it.
func (b *MatchedBranch) UpdateProgress() {
	end := b.GetEndIndex()
	if end > b.furthestEndIndex {
		b.furthestEndIndex = end
		b.loopsWithoutExtension = 0
		return
	}
	b.loopsWithoutExtension++
}

// GetCertainPathEndSegment. deepest segment shared by all surviving branches, nil if none
func (b *MatchedBranch) GetCertainPathEndSegment() *MatchedWaySegment {
	if b.certainPathEndSegment < 0 || b.certainPathEndSegment >= len(b.segments) {
		return nil
	}
	return b.segments[b.certainPathEndSegment]
}

func (b *MatchedBranch) GetCertainPathEndSegmentIndex() int {
	return b.certainPathEndSegment
}

// SetCertainPathEndSegmentIndex. also flags the segments up to idx as certain
func (b *MatchedBranch) SetCertainPathEndSegmentIndex(idx int) {
	if idx >= len(b.segments) {
		idx = len(b.segments) - 1
	}
	b.certainPathEndSegment = idx
	for i, s := range b.segments {
		s.SetCertain(i <= idx)
	}
}

// GetMatchedLength. summed length of the segments having points
func (b *MatchedBranch) GetMatchedLength() float64 {
	length := 0.0
	for _, s := range b.segments {
		if !s.IsEmpty() {
			length += s.GetSegment().GetLength()
		}
	}
	return length
}

// Geometry. concatenated segment geometries in travel direction
func (b *MatchedBranch) Geometry() []geo.Coordinate {
	coords := make([]geo.Coordinate, 0)
	for _, s := range b.segments {
		for _, c := range s.OrientedGeometry() {
			if n := len(coords); n > 0 && coords[n-1].Equal(c) {
				continue
			}
			coords = append(coords, c)
		}
	}
	return coords
}

func (b *MatchedBranch) EncodedPolyline() string {
	return geo.EncodePolyline(b.Geometry())
}

// SegmentIDs. ids of the matched segments in order
func (b *MatchedBranch) SegmentIDs() []SegmentID {
	ids := make([]SegmentID, len(b.segments))
	for i, s := range b.segments {
		ids[i] = s.GetSegment().GetID()
	}
	return ids
}

func (b *MatchedBranch) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "MatchedBranch{%s, factor: %.3f, points: %d, uturns: %d, segments: [",
		b.state, b.matchedFactor, b.matchedPoints, b.nrOfUTurns)
	for i, s := range b.segments {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%d[%d,%d)", s.GetSegment().GetID(), s.GetStartIndex(), s.GetEndIndex())
	}
	sb.WriteString("]}")
	return sb.String()
}
