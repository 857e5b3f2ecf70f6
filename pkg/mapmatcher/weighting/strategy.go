package weighting

import (
	"math"

	da "github.com/lintang-b-s/navigatorx-mapmatch/pkg/datastructure"
)

// Strategy. scores and orders path hypotheses. a lower matched factor is better.
type Strategy interface {
	Name() string
	// Evaluate. computes and stores the matched factor of branch, returns whether the branch is valid
	Evaluate(branch *da.MatchedBranch, track *da.Track) bool
	// Compare. negative if a ranks before b, positive if after, 0 if equivalent
	Compare(a, b *da.MatchedBranch) int
}

// compareBranches. more matched points, lower matched factor, finished before unfinished,
// fewer shortest path searches, greater matched length.
func compareBranches(a, b *da.MatchedBranch) int {
	if a.GetMatchedPoints() != b.GetMatchedPoints() {
		if a.GetMatchedPoints() > b.GetMatchedPoints() {
			return -1
		}
		return 1
	}
	if c := compareFloat(a.GetMatchedFactor(), b.GetMatchedFactor()); c != 0 {
		return c
	}
	if a.IsFinished() != b.IsFinished() {
		if a.IsFinished() {
			return -1
		}
		return 1
	}
	if a.GetNrOfShortestPathSearches() != b.GetNrOfShortestPathSearches() {
		if a.GetNrOfShortestPathSearches() < b.GetNrOfShortestPathSearches() {
			return -1
		}
		return 1
	}
	return -compareFloat(a.GetMatchedLength(), b.GetMatchedLength())
}

// compareFloat. total order with NaN after every number
func compareFloat(a, b float64) int {
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return 1
	case bNaN:
		return -1
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
