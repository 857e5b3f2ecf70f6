package distance

import (
	"math"

	da "github.com/lintang-b-s/navigatorx-mapmatch/pkg/datastructure"
)

// Penalties. extra meters added to the route distance of a path part
type Penalties struct {
	mode                     da.RoutingMode
	pseudoSkipPenalty        float64
	frcSwitchPenaltyPerClass float64
	bikeOneWayPenalty        float64
	bikeWalkwayPenalty       float64
}

func NewPenalties(mode da.RoutingMode, pseudoSkip, frcSwitchPerClass, bikeOneWay, bikeWalkway float64) *Penalties {
	return &Penalties{
		mode:                     mode,
		pseudoSkipPenalty:        pseudoSkip,
		frcSwitchPenaltyPerClass: frcSwitchPerClass,
		bikeOneWayPenalty:        bikeOneWay,
		bikeWalkwayPenalty:       bikeWalkway,
	}
}

// PseudoSkippedPart. a gap bridged by an alternative path search that did not give up any point
func (p *Penalties) PseudoSkippedPart(seg *da.MatchedWaySegment) float64 {
	if (seg.IsAfterSkippedPart() || seg.IsFromPathSearch()) && seg.GetSkippedPoints() == 0 {
		return p.pseudoSkipPenalty
	}
	return 0
}

// FrcSwitch. penalty for moving from a to b between road classes, scaled by the class distance.
// roundabouts and slip roads with matched points on both sides are free.
func (p *Penalties) FrcSwitch(a, b *da.MatchedWaySegment) float64 {
	sa, sb := a.GetSegment(), b.GetSegment()
	if sa.IsRoundabout() || sb.IsRoundabout() {
		return 0
	}
	slipRoad := sa.GetFormOfWay() == da.FOW_SLIPROAD || sb.GetFormOfWay() == da.FOW_SLIPROAD
	if slipRoad && !a.IsEmpty() && !b.IsEmpty() {
		return 0
	}
	return math.Abs(float64(sa.GetFrc())-float64(sb.GetFrc())) * p.frcSwitchPenaltyPerClass
}

// Mode. bike against one-way and bike on walkway-only segments
func (p *Penalties) Mode(seg *da.MatchedWaySegment) float64 {
	if p.mode != da.MODE_BIKE {
		return 0
	}
	s := seg.GetSegment()
	penalty := 0.0
	if da.IsAgainstOneWay(s, seg.GetDirection().IsForward()) {
		penalty += p.bikeOneWayPenalty
	}
	if s.IsWalkwayOnly() {
		penalty += p.bikeWalkwayPenalty
	}
	return penalty
}

// Chain. all penalties of a routing chain; every segment after the first is entered on this part.
// the chain bridges one gap, whose skipped points are counted on its last segment.
func (p *Penalties) Chain(chain []*da.MatchedWaySegment) float64 {
	if len(chain) < 2 {
		return 0
	}
	total := 0.0
	pseudoSkip := 0.0
	for i := 1; i < len(chain); i++ {
		total += p.FrcSwitch(chain[i-1], chain[i])
		total += p.Mode(chain[i])
		pseudoSkip = math.Max(pseudoSkip, p.PseudoSkippedPart(chain[i]))
	}
	if chain[len(chain)-1].GetSkippedPoints() > 0 {
		pseudoSkip = 0
	}
	return total + pseudoSkip
}
