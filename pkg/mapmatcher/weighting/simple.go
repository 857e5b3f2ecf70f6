package weighting

import (
	"math"

	da "github.com/lintang-b-s/navigatorx-mapmatch/pkg/datastructure"
)

const SIMPLE = "simple"

// SimpleStrategy. mean of the segment matched factors per matched point
type SimpleStrategy struct {
	radius       float64
	radiusFactor float64
}

func NewSimpleStrategy(radius, radiusFactor float64) *SimpleStrategy {
	return &SimpleStrategy{radius: radius, radiusFactor: radiusFactor}
}

func (ss *SimpleStrategy) Name() string {
	return SIMPLE
}

// CalculateMatchedFactor. summed segment matched factors, the start segment at half weight,
// divided by the matched points. +Inf for a branch without matched points.
func (ss *SimpleStrategy) CalculateMatchedFactor(branch *da.MatchedBranch) float64 {
	if branch.GetMatchedPoints() == 0 {
		return math.Inf(1)
	}
	sum := 0.0
	for _, s := range branch.GetSegments() {
		f := s.GetMatchedFactor()
		if s.IsStartSegment() {
			f /= 2
		}
		sum += f
	}
	return sum / float64(branch.GetMatchedPoints())
}

func (ss *SimpleStrategy) Evaluate(branch *da.MatchedBranch, track *da.Track) bool {
	score := ss.CalculateMatchedFactor(branch)
	branch.SetMatchedFactor(score)
	return score <= ss.radiusFactor*ss.radius
}

func (ss *SimpleStrategy) Compare(a, b *da.MatchedBranch) int {
	return compareBranches(a, b)
}
