package hdmap

import (
	"github.com/beetlebugorg/hdmap/internal/geo"
	"github.com/beetlebugorg/hdmap/internal/geom"
	"github.com/beetlebugorg/hdmap/internal/spatial"
)

// spatialIndex holds one R-tree partition per indexed entity kind.
//
// Geographic and ENU stores index Web-Mercator coordinates, so moving the
// ENU center never touches the index. Cartesian stores index raw
// coordinates.
type spatialIndex struct {
	lanes   *spatial.Partition[LaneKey]
	links   *spatial.Partition[LinkID]
	objects *spatial.Partition[ObjectID]
}

func newSpatialIndex() spatialIndex {
	return spatialIndex{
		lanes:   spatial.NewPartition[LaneKey](),
		links:   spatial.NewPartition[LinkID](),
		objects: spatial.NewPartition[ObjectID](),
	}
}

// toIndex converts p from the store's mode to the index frame.
func (s *Store) toIndex(p Point, center LLA) Point {
	switch s.mode {
	case Geographic:
		m := geo.ToMercator(p.LLA())
		return Point{X: m[0], Y: m[1]}
	case ENU:
		m := geo.ToMercator(geo.FromENU(geo.Vec3{X: p.X, Y: p.Y, Z: p.Z}, center))
		return Point{X: m[0], Y: m[1]}
	default:
		return p
	}
}

// latitude of p, for scaling metric radii into Mercator metres.
func (s *Store) latitude(p Point, center LLA) float64 {
	switch s.mode {
	case Geographic:
		return p.Y
	case ENU:
		return geo.FromENU(geo.Vec3{X: p.X, Y: p.Y, Z: p.Z}, center).Lat
	default:
		return 0
	}
}

func (s *Store) indexPoints(pts []Point, center LLA) []Point {
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[i] = s.toIndex(p, center)
	}
	return out
}

// radiusEnvelope is the index-frame envelope of a metric radius around p.
func (s *Store) radiusEnvelope(p Point, radius float64, center LLA) Envelope {
	q := s.toIndex(p, center)
	if s.mode != Cartesian {
		radius *= geo.MercatorScale(s.latitude(p, center))
	}
	return geom.EnvelopeAround(q.X, q.Y, radius)
}

// indexEnvelope converts an envelope in the store's mode to the index frame.
func (s *Store) indexEnvelope(env Envelope, center LLA) Envelope {
	if s.mode == Cartesian {
		return env
	}
	corners := []Point{
		{X: env.Min[0], Y: env.Min[1]},
		{X: env.Max[0], Y: env.Min[1]},
		{X: env.Max[0], Y: env.Max[1]},
		{X: env.Min[0], Y: env.Max[1]},
	}
	out, _ := geom.EnvelopeOf(s.indexPoints(corners, center))
	return out
}

// distance between two points in the store's mode, in metres or raw units.
func (s *Store) distance(a, b Point) float64 {
	if s.mode == Geographic {
		return geo.Distance(a.LLA(), b.LLA())
	}
	return geom.Distance2D(a, b)
}
