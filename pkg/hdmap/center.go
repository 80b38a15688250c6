package hdmap

import (
	"github.com/beetlebugorg/hdmap/internal/geo"
	"go.uber.org/zap"
)

// Projection converts between geographic positions and the store's local
// frame.
type Projection interface {
	// Transform maps a geographic point (lon, lat, alt) into the local frame.
	Transform(p Point) Point
	// Untransform maps a local point back to lon, lat and alt.
	Untransform(p Point) Point
}

// enuProjection is the tangent-plane projection at a fixed origin.
type enuProjection struct {
	origin LLA
}

func (e enuProjection) Transform(p Point) Point {
	v := geo.ToENU(p.LLA(), e.origin)
	p.X, p.Y, p.Z = v.X, v.Y, v.Z
	return p
}

func (e enuProjection) Untransform(p Point) Point {
	ll := geo.FromENU(geo.Vec3{X: p.X, Y: p.Y, Z: p.Z}, e.origin)
	p.X, p.Y, p.Z = ll.Lon, ll.Lat, ll.Alt
	return p
}

// Center returns the tangent point of the local frame.
func (s *Store) Center() LLA {
	return s.currentCenter()
}

// Projection returns the projection of the current local frame. It is only
// available in ENU mode; other modes return ErrNotLocalFrame. The returned
// projection does not follow later UpdateCenter calls.
func (s *Store) Projection() (Projection, error) {
	if s.mode != ENU {
		return nil, ErrNotLocalFrame
	}
	return enuProjection{origin: s.currentCenter()}, nil
}

// UpdateCenter moves the local frame to origin. Every stored curve and pose
// is re-expressed so it keeps its geographic position. The road, link,
// object and center tables are locked for the duration of the call.
func (s *Store) UpdateCenter(origin LLA) error {
	if s.mode != ENU {
		return ErrNotLocalFrame
	}

	s.roadMu.Lock()
	defer s.roadMu.Unlock()
	s.linkMu.Lock()
	defer s.linkMu.Unlock()
	s.objectMu.Lock()
	defer s.objectMu.Unlock()
	s.centerMu.Lock()
	defer s.centerMu.Unlock()

	old := s.center
	if old == origin {
		return nil
	}

	curves := 0
	move := func(c *Curve) {
		if c != nil {
			c.Transfer(old, origin)
			curves++
		}
	}
	for _, r := range s.roads {
		move(r.Geometry)
		for _, sec := range r.Sections {
			for _, l := range sec.Lanes {
				move(l.Geometry)
			}
		}
	}
	for _, rec := range s.lanes {
		move(rec.center)
	}
	for _, rec := range s.boundaries {
		move(rec.boundary.Geometry)
	}
	for _, l := range s.links {
		for _, c := range l.curves() {
			move(c)
		}
	}
	from, to := enuProjection{origin: old}, enuProjection{origin: origin}
	for _, o := range s.objects {
		for _, g := range o.Geometries {
			move(g)
		}
		o.Pose.Position = to.Transform(from.Untransform(o.Pose.Position))
	}

	s.center = origin
	s.bump()
	s.log.Info("local frame re-centred",
		zap.Float64("lon", origin.Lon),
		zap.Float64("lat", origin.Lat),
		zap.Int("curves", curves))
	return nil
}
