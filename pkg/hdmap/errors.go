package hdmap

import (
	"errors"
	"fmt"
)

// ErrNotLocalFrame is returned by frame operations on stores that are not in
// ENU mode.
var ErrNotLocalFrame = errors.New("hdmap: store is not in a local tangent frame")

// ErrReservedID is wrapped in the *GeometryError of a road with id 0, which
// filters use as the road wildcard.
var ErrReservedID = errors.New("id 0 is reserved")

// JunctionError indicates a junction query on roads that cannot be compared.
type JunctionError struct {
	Road   RoadID
	Other  RoadID
	Reason string
}

func (e *JunctionError) Error() string {
	if e.Other != 0 {
		return fmt.Sprintf("junction priority %d vs %d: %s", e.Road, e.Other, e.Reason)
	}
	return fmt.Sprintf("junction road %d: %s", e.Road, e.Reason)
}

// FilterError indicates an id filter that names a child without its parent.
type FilterError struct {
	Filter LaneFilter
	Reason string
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("invalid lane filter %v: %s", e.Filter, e.Reason)
}

// GeometryError indicates an entity whose required geometry is empty or
// cannot be indexed.
type GeometryError struct {
	Entity string
	ID     uint64
	Err    error
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("%s %d: invalid geometry: %v", e.Entity, e.ID, e.Err)
}

func (e *GeometryError) Unwrap() error { return e.Err }
