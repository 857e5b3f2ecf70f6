package datastructure

// NodePosition. where a matched path enters or leaves a segment
type NodePosition uint8

const (
	POS_START NodePosition = iota
	POS_END
	POS_CENTER
)

// Direction. entry/exit combination of a matched path through a segment.
// X_TO_X variants with the same node are u-turns, CENTER variants cover lane changes
// and tracks starting or ending inside a segment.
type Direction uint8

const (
	START_TO_END Direction = iota
	END_TO_START
	START_TO_START
	END_TO_END
	CENTER_TO_CENTER
	START_TO_CENTER
	CENTER_TO_START
	END_TO_CENTER
	CENTER_TO_END
)

var directionPositions = [...][2]NodePosition{
	START_TO_END:     {POS_START, POS_END},
	END_TO_START:     {POS_END, POS_START},
	START_TO_START:   {POS_START, POS_START},
	END_TO_END:       {POS_END, POS_END},
	CENTER_TO_CENTER: {POS_CENTER, POS_CENTER},
	START_TO_CENTER:  {POS_START, POS_CENTER},
	CENTER_TO_START:  {POS_CENTER, POS_START},
	END_TO_CENTER:    {POS_END, POS_CENTER},
	CENTER_TO_END:    {POS_CENTER, POS_END},
}

var directionNames = [...]string{
	START_TO_END:     "START_TO_END",
	END_TO_START:     "END_TO_START",
	START_TO_START:   "START_TO_START",
	END_TO_END:       "END_TO_END",
	CENTER_TO_CENTER: "CENTER_TO_CENTER",
	START_TO_CENTER:  "START_TO_CENTER",
	CENTER_TO_START:  "CENTER_TO_START",
	END_TO_CENTER:    "END_TO_CENTER",
	CENTER_TO_END:    "CENTER_TO_END",
}

func NewDirection(entry, exit NodePosition) Direction {
	for d, pos := range directionPositions {
		if pos[0] == entry && pos[1] == exit {
			return Direction(d)
		}
	}
	return CENTER_TO_CENTER
}

func (d Direction) Entry() NodePosition {
	return directionPositions[d][0]
}

func (d Direction) Exit() NodePosition {
	return directionPositions[d][1]
}

func (d Direction) IsUTurn() bool {
	return d == START_TO_START || d == END_TO_END
}

// IsForward. the segment is traversed from its start node towards its end node
func (d Direction) IsForward() bool {
	switch d {
	case START_TO_END, START_TO_CENTER, CENTER_TO_END:
		return true
	}
	return false
}

func (d Direction) IsBackward() bool {
	switch d {
	case END_TO_START, END_TO_CENTER, CENTER_TO_START:
		return true
	}
	return false
}

// WithExit. same entry, new exit
func (d Direction) WithExit(exit NodePosition) Direction {
	return NewDirection(d.Entry(), exit)
}

func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return "UNKNOWN"
}

// nodeAt. node of s at pos, INVALID_NODE_ID for the center
func nodeAt(s *Segment, pos NodePosition) NodeID {
	switch pos {
	case POS_START:
		return s.GetStartNode()
	case POS_END:
		return s.GetEndNode()
	default:
		return INVALID_NODE_ID
	}
}

// ExitNodes. nodes through which a path with direction d may leave s.
// a center exit is not bound to a node, both are returned.
func (d Direction) ExitNodes(s *Segment) []NodeID {
	if d.Exit() == POS_CENTER {
		return []NodeID{s.GetStartNode(), s.GetEndNode()}
	}
	return []NodeID{nodeAt(s, d.Exit())}
}

// EntryNode. INVALID_NODE_ID for a center entry
func (d Direction) EntryNode(s *Segment) NodeID {
	return nodeAt(s, d.Entry())
}

// DirectionEnteringAt. direction of a path entering s through node and leaving at the opposite node
func DirectionEnteringAt(s *Segment, node NodeID) (Direction, bool) {
	switch node {
	case s.GetStartNode():
		return START_TO_END, true
	case s.GetEndNode():
		return END_TO_START, true
	}
	return CENTER_TO_CENTER, false
}
