package datastructure

type RoutingMode uint8

const (
	MODE_CAR RoutingMode = iota
	MODE_BIKE
	MODE_PEDESTRIAN
)

func ParseRoutingMode(s string) (RoutingMode, bool) {
	switch s {
	case "car", "":
		return MODE_CAR, true
	case "bike":
		return MODE_BIKE, true
	case "pedestrian":
		return MODE_PEDESTRIAN, true
	}
	return MODE_CAR, false
}

func (m RoutingMode) String() string {
	switch m {
	case MODE_BIKE:
		return "bike"
	case MODE_PEDESTRIAN:
		return "pedestrian"
	}
	return "car"
}

func (m RoutingMode) access() Access {
	switch m {
	case MODE_BIKE:
		return ACCESS_BIKE
	case MODE_PEDESTRIAN:
		return ACCESS_PEDESTRIAN
	}
	return ACCESS_CAR
}

// RoutingCriteria. cost of a path in the shortest path search
type RoutingCriteria uint8

const (
	CRITERIA_LENGTH RoutingCriteria = iota
	CRITERIA_TIME
)

func ParseRoutingCriteria(s string) (RoutingCriteria, bool) {
	switch s {
	case "length", "":
		return CRITERIA_LENGTH, true
	case "time":
		return CRITERIA_TIME, true
	}
	return CRITERIA_LENGTH, false
}

func (c RoutingCriteria) String() string {
	if c == CRITERIA_TIME {
		return "time"
	}
	return "length"
}

// CanTraverse. mode may use s in the given direction. bikes may go against a car one-way
// (penalized by the weighting), pedestrians ignore one-ways.
func CanTraverse(s *Segment, forward bool, mode RoutingMode) bool {
	acc := s.GetAccess(forward)
	if acc.Has(mode.access()) {
		return true
	}
	switch mode {
	case MODE_BIKE:
		return s.GetAccess(!forward).Has(ACCESS_BIKE)
	case MODE_PEDESTRIAN:
		return s.GetAccess(!forward).Has(ACCESS_PEDESTRIAN)
	}
	return false
}

// IsAgainstOneWay. a car could not use s in the given direction
func IsAgainstOneWay(s *Segment, forward bool) bool {
	switch s.GetOneWay() {
	case ONEWAY_FORWARD:
		return !forward
	case ONEWAY_BACKWARD:
		return forward
	}
	return false
}
