package hdmap

import (
	"fmt"

	"github.com/beetlebugorg/hdmap/internal/geo"
	"github.com/beetlebugorg/hdmap/internal/geom"
)

// Point is a vertex in the store's coordinate mode: lon/lat/alt for
// Geographic stores, metres for ENU and Cartesian stores.
type Point = geom.Point

// Curve is an ordered polyline with station-lateral transforms.
type Curve = geom.Curve

// CoordSystem selects how coordinates are read.
type CoordSystem = geom.CoordSystem

// Envelope is an axis-aligned bounding box in the store's coordinate mode.
type Envelope = geom.Envelope

// LLA is a WGS-84 longitude, latitude and altitude.
type LLA = geo.LLA

// Coordinate systems.
const (
	Geographic = geom.Geographic
	ENU        = geom.ENU
	Cartesian  = geom.Cartesian
)

// NewCurve builds a curve from points in coordinate system cs.
func NewCurve(points []Point, cs CoordSystem) *Curve {
	return geom.NewCurve(points, cs)
}

// EnvelopeAround returns the square envelope of half-size r centred on (x, y).
func EnvelopeAround(x, y, r float64) Envelope {
	return geom.EnvelopeAround(x, y, r)
}

// Identifiers. Lane ids are signed and never zero; negative ids run against
// the road's reference direction.
type (
	RoadID     uint64
	SectionID  uint32
	LaneID     int32
	BoundaryID uint64
	LinkID     uint64
	ObjectID   uint64
	JunctionID uint64
)

// LaneKey addresses one lane.
type LaneKey struct {
	Road    RoadID
	Section SectionID
	Lane    LaneID
}

// String returns the key as road/section/lane.
func (k LaneKey) String() string {
	return fmt.Sprintf("%d/%d/%d", k.Road, k.Section, k.Lane)
}

// LaneType classifies what a lane is used for.
type LaneType int

const (
	LaneUnknown LaneType = iota
	LaneDriving
	LaneBiking
	LaneSidewalk
	LaneParking
	LaneShoulder
	LaneBus
	LaneMedian
)

// String returns the lane type name.
func (t LaneType) String() string {
	switch t {
	case LaneDriving:
		return "driving"
	case LaneBiking:
		return "biking"
	case LaneSidewalk:
		return "sidewalk"
	case LaneParking:
		return "parking"
	case LaneShoulder:
		return "shoulder"
	case LaneBus:
		return "bus"
	case LaneMedian:
		return "median"
	default:
		return "unknown"
	}
}

// LaneArrow is a bit set of the turns painted on a lane.
type LaneArrow uint8

const (
	ArrowStraight LaneArrow = 1 << iota
	ArrowLeft
	ArrowRight
	ArrowUTurn
)

// Has reports whether every bit of o is set.
func (a LaneArrow) Has(o LaneArrow) bool { return a&o == o }

// MarkType is the painted (or physical) marking of a lane boundary.
type MarkType int

const (
	MarkNone MarkType = iota
	MarkSolid
	MarkBroken
	MarkDoubleSolid
	MarkSolidBroken
	MarkBrokenSolid
	MarkCurb
	MarkFence
	MarkVirtual
	MarkShielded
)

var markNames = [...]string{
	MarkNone:        "none",
	MarkSolid:       "solid",
	MarkBroken:      "broken",
	MarkDoubleSolid: "double_solid",
	MarkSolidBroken: "solid_broken",
	MarkBrokenSolid: "broken_solid",
	MarkCurb:        "curb",
	MarkFence:       "fence",
	MarkVirtual:     "virtual",
	MarkShielded:    "shielded",
}

// String returns the mark name.
func (m MarkType) String() string {
	if m < 0 || int(m) >= len(markNames) {
		return "unknown"
	}
	return markNames[m]
}

// Visible reports whether the mark exists on the ground. Absent, virtual and
// shielded marks are not reported by boundary range queries.
func (m MarkType) Visible() bool {
	switch m {
	case MarkNone, MarkVirtual, MarkShielded:
		return false
	}
	return true
}

// ObjectType classifies map objects.
type ObjectType int

const (
	ObjectOther ObjectType = iota
	ObjectSign
	ObjectTrafficLight
	ObjectParkingSpace
	ObjectObstacle
	ObjectCrosswalk
	ObjectStopLine
	ObjectPole
)

// String returns the object type name.
func (t ObjectType) String() string {
	switch t {
	case ObjectSign:
		return "sign"
	case ObjectTrafficLight:
		return "traffic_light"
	case ObjectParkingSpace:
		return "parking_space"
	case ObjectObstacle:
		return "obstacle"
	case ObjectCrosswalk:
		return "crosswalk"
	case ObjectStopLine:
		return "stop_line"
	case ObjectPole:
		return "pole"
	default:
		return "other"
	}
}

// RoadType is the functional class of a road.
type RoadType int

const (
	RoadUnknown RoadType = iota
	RoadRural
	RoadUrban
	RoadMotorway
	RoadTown
)

// String returns the road type name.
func (t RoadType) String() string {
	switch t {
	case RoadRural:
		return "rural"
	case RoadUrban:
		return "urban"
	case RoadMotorway:
		return "motorway"
	case RoadTown:
		return "town"
	default:
		return "unknown"
	}
}

// TurnDirection is the manoeuvre a junction road performs.
type TurnDirection int

const (
	TurnUnknown TurnDirection = iota
	TurnStraight
	TurnLeft
	TurnRight
	TurnUTurn
)

// String returns the turn name.
func (d TurnDirection) String() string {
	switch d {
	case TurnStraight:
		return "straight"
	case TurnLeft:
		return "left"
	case TurnRight:
		return "right"
	case TurnUTurn:
		return "uturn"
	default:
		return "unknown"
	}
}

// rank orders turns by right of way.
func (d TurnDirection) rank() int {
	switch d {
	case TurnStraight:
		return 3
	case TurnLeft:
		return 2
	case TurnRight:
		return 1
	default:
		return 0
	}
}

// Priority is the right-of-way relation between two junction roads.
type Priority int

const (
	// PriorityNone means the roads do not conflict.
	PriorityNone Priority = iota
	// PrioritySame means the roads conflict with equal rank.
	PrioritySame
	// PriorityHigh means the first road has right of way.
	PriorityHigh
	// PriorityLow means the first road yields.
	PriorityLow
)

// String returns the priority name.
func (p Priority) String() string {
	switch p {
	case PrioritySame:
		return "same"
	case PriorityHigh:
		return "high"
	case PriorityLow:
		return "low"
	default:
		return "none"
	}
}

// invert returns the relation seen from the other road.
func (p Priority) invert() Priority {
	switch p {
	case PriorityHigh:
		return PriorityLow
	case PriorityLow:
		return PriorityHigh
	}
	return p
}
