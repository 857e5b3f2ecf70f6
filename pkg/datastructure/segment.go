package datastructure

import (
	"github.com/lintang-b-s/navigatorx-mapmatch/pkg/geo"
)

type SegmentID int64

type NodeID int64

const (
	INVALID_SEGMENT_ID SegmentID = -1
	INVALID_NODE_ID    NodeID    = -1
)

// FRC. functional road class, 0 is the most important class
type FRC uint8

const (
	FRC_0 FRC = iota
	FRC_1
	FRC_2
	FRC_3
	FRC_4
	FRC_5
	FRC_6
	FRC_7
	FRC_8
)

type FormOfWay uint8

const (
	FOW_UNDEFINED FormOfWay = iota
	FOW_MOTORWAY
	FOW_MULTIPLE_CARRIAGEWAY
	FOW_SINGLE_CARRIAGEWAY
	FOW_ROUNDABOUT
	FOW_TRAFFIC_SQUARE
	FOW_SLIPROAD
	FOW_SERVICE
	FOW_WALKWAY
	FOW_BIKEWAY
	FOW_OTHER
)

// Access. bitmask of the modes allowed to traverse a segment in one direction
type Access uint8

const (
	ACCESS_NONE       Access = 0
	ACCESS_CAR        Access = 1 << 0
	ACCESS_BIKE       Access = 1 << 1
	ACCESS_PEDESTRIAN Access = 1 << 2
	ACCESS_ALL               = ACCESS_CAR | ACCESS_BIKE | ACCESS_PEDESTRIAN
)

func (a Access) Has(o Access) bool {
	return a&o == o
}

type OneWay uint8

const (
	ONEWAY_NONE OneWay = iota
	ONEWAY_FORWARD
	ONEWAY_BACKWARD
)

// Segment. road graph edge between startNode and endNode. read-only once added to a Graph.
type Segment struct {
	id        SegmentID
	geometry  []geo.Coordinate
	length    float64
	startNode NodeID
	endNode   NodeID

	frc       FRC
	formOfWay FormOfWay

	// tow = start->end, bkw = end->start
	speedTow, speedBkw   float64 // km/h
	lanesTow, lanesBkw   uint8
	accessTow, accessBkw Access
}

func NewSegment(id SegmentID, startNode, endNode NodeID, geometry []geo.Coordinate) *Segment {
	return &Segment{
		id:        id,
		geometry:  geometry,
		length:    geo.LineLength(geometry),
		startNode: startNode,
		endNode:   endNode,
		frc:       FRC_4,
		formOfWay: FOW_SINGLE_CARRIAGEWAY,
		speedTow:  50,
		speedBkw:  50,
		lanesTow:  1,
		lanesBkw:  1,
		accessTow: ACCESS_ALL,
		accessBkw: ACCESS_ALL,
	}
}

func (s *Segment) SetFrc(frc FRC) *Segment {
	s.frc = frc
	return s
}

func (s *Segment) SetFormOfWay(fow FormOfWay) *Segment {
	s.formOfWay = fow
	return s
}

func (s *Segment) SetSpeed(tow, bkw float64) *Segment {
	s.speedTow, s.speedBkw = tow, bkw
	return s
}

func (s *Segment) SetLanes(tow, bkw uint8) *Segment {
	s.lanesTow, s.lanesBkw = tow, bkw
	return s
}

func (s *Segment) SetAccess(tow, bkw Access) *Segment {
	s.accessTow, s.accessBkw = tow, bkw
	return s
}

func (s *Segment) GetID() SegmentID {
	return s.id
}

func (s *Segment) GetGeometry() []geo.Coordinate {
	return s.geometry
}

func (s *Segment) GetLength() float64 {
	return s.length
}

func (s *Segment) GetStartNode() NodeID {
	return s.startNode
}

func (s *Segment) GetEndNode() NodeID {
	return s.endNode
}

func (s *Segment) GetFrc() FRC {
	return s.frc
}

func (s *Segment) GetFormOfWay() FormOfWay {
	return s.formOfWay
}

func (s *Segment) GetSpeed(forward bool) float64 {
	if forward {
		return s.speedTow
	}
	return s.speedBkw
}

func (s *Segment) GetLanes(forward bool) uint8 {
	if forward {
		return s.lanesTow
	}
	return s.lanesBkw
}

func (s *Segment) GetAccess(forward bool) Access {
	if forward {
		return s.accessTow
	}
	return s.accessBkw
}

func (s *Segment) GetStartCoordinate() geo.Coordinate {
	return s.geometry[0]
}

func (s *Segment) GetEndCoordinate() geo.Coordinate {
	return s.geometry[len(s.geometry)-1]
}

// GetOneWay. one-way state for cars
func (s *Segment) GetOneWay() OneWay {
	tow := s.accessTow.Has(ACCESS_CAR)
	bkw := s.accessBkw.Has(ACCESS_CAR)
	switch {
	case tow && !bkw:
		return ONEWAY_FORWARD
	case !tow && bkw:
		return ONEWAY_BACKWARD
	default:
		return ONEWAY_NONE
	}
}

func (s *Segment) IsOneWay() bool {
	return s.GetOneWay() != ONEWAY_NONE
}

func (s *Segment) IsRoundabout() bool {
	return s.formOfWay == FOW_ROUNDABOUT
}

// IsWalkwayOnly. only pedestrians may use the segment in both directions
func (s *Segment) IsWalkwayOnly() bool {
	if s.formOfWay == FOW_WALKWAY {
		return true
	}
	noVehicle := ACCESS_CAR | ACCESS_BIKE
	return s.accessTow&noVehicle == 0 && s.accessBkw&noVehicle == 0 &&
		(s.accessTow.Has(ACCESS_PEDESTRIAN) || s.accessBkw.Has(ACCESS_PEDESTRIAN))
}

// OtherNode. the node of s opposite to node. INVALID_NODE_ID if node is not incident to s.
func (s *Segment) OtherNode(node NodeID) NodeID {
	switch node {
	case s.startNode:
		return s.endNode
	case s.endNode:
		return s.startNode
	default:
		return INVALID_NODE_ID
	}
}

// TravelTime. seconds to traverse the whole segment in the given direction
func (s *Segment) TravelTime(forward bool) float64 {
	speed := s.GetSpeed(forward)
	if speed <= 0 {
		speed = 5
	}
	return s.length / (speed / 3.6)
}
