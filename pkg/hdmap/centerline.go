package hdmap

import (
	"fmt"
	"math"

	"github.com/beetlebugorg/hdmap/internal/geom"
)

// preparedRoad is a validated road copy in the store's mode together with
// its lane center lines, ready to be inserted.
type preparedRoad struct {
	road    *Road
	centers map[LaneKey]*Curve

	// ref is the curve junction headings are read from.
	ref *Curve
}

// prepareRoad copies r, moves its curves into the store's mode and builds
// the lane center lines. It only reads store tables; the caller holds
// roadMu.
func (s *Store) prepareRoad(r *Road, center LLA) (*preparedRoad, error) {
	if r == nil {
		return nil, fmt.Errorf("hdmap: nil road")
	}
	road := r.Clone()
	fail := func(err error) (*preparedRoad, error) {
		return nil, &GeometryError{Entity: "road", ID: uint64(road.ID), Err: err}
	}
	if road.ID == AnyRoad {
		return fail(ErrReservedID)
	}

	if err := s.adopt(road.Geometry, center); err != nil {
		return fail(err)
	}
	own := make(map[BoundaryID]*LaneBoundary, len(road.Boundaries))
	for _, b := range road.Boundaries {
		if err := s.adopt(b.Geometry, center); err != nil {
			return fail(fmt.Errorf("boundary %d: %w", b.ID, err))
		}
		own[b.ID] = b
	}

	pr := &preparedRoad{road: road, centers: make(map[LaneKey]*Curve)}
	for _, sec := range road.Sections {
		sec.Road = road.ID
		for _, lane := range sec.Lanes {
			if lane.Key.Lane == 0 {
				return fail(fmt.Errorf("section %d: lane id 0", sec.ID))
			}
			lane.Key.Road, lane.Key.Section = road.ID, sec.ID
			if err := s.adopt(lane.Geometry, center); err != nil {
				return fail(fmt.Errorf("lane %v: %w", lane.Key, err))
			}
			left := s.lookupBoundary(own, lane.LeftBoundary)
			right := s.lookupBoundary(own, lane.RightBoundary)
			c := s.centerLine(lane, left, right)
			pr.centers[lane.Key] = c
			if pr.ref == nil && !c.Empty() {
				pr.ref = c
			}
		}
	}
	if !road.Geometry.Empty() && road.Geometry.Len() > 1 {
		pr.ref = road.Geometry
	}
	return pr, nil
}

func (s *Store) lookupBoundary(own map[BoundaryID]*LaneBoundary, id BoundaryID) *Curve {
	if id == 0 {
		return nil
	}
	if b, ok := own[id]; ok {
		return b.Geometry
	}
	if rec, ok := s.boundaries[id]; ok {
		return rec.boundary.Geometry
	}
	return nil
}

// centerLine averages the left and right boundaries resampled at
// CenterLineInterval. Without both boundaries it falls back to the lane's
// own geometry.
func (s *Store) centerLine(lane *Lane, left, right *Curve) *Curve {
	params := s.tol.curveParams()
	if left.Empty() || right.Empty() || left.Len() < 2 || right.Len() < 2 {
		if lane.Geometry.Empty() {
			return nil
		}
		return geom.NewCurveWithParams(lane.Geometry.Points(), lane.Geometry.CoordSystem(), params)
	}

	ll, rl := left.Length(), right.Length()
	n := int(math.Ceil(math.Max(ll, rl)/s.tol.CenterLineInterval)) + 1
	if n < 2 {
		n = 2
	}
	pts := make([]Point, n)
	for i := range pts {
		f := float64(i) / float64(n-1)
		a, b := left.PointAt(f*ll), right.PointAt(f*rl)
		pts[i] = Point{
			X:     (a.X + b.X) / 2,
			Y:     (a.Y + b.Y) / 2,
			Z:     (a.Z + b.Z) / 2,
			Width: s.distance(a, b),
		}
	}
	return geom.NewCurveWithParams(pts, left.CoordSystem(), params)
}
