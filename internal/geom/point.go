// Package geom implements polyline curves with station-lateral (s, l)
// transforms, sampling and splicing.
package geom

import (
	"math"

	"github.com/beetlebugorg/hdmap/internal/geo"
	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/spatial/r2"
)

// CoordSystem identifies how a Point's X/Y/Z are to be read.
type CoordSystem int

const (
	// Geographic coordinates: X=longitude, Y=latitude (degrees), Z=altitude (metres).
	Geographic CoordSystem = iota

	// ENU is a local tangent plane in metres around a reference origin.
	ENU

	// Cartesian is a raw metric frame with no geographic anchor.
	Cartesian
)

// String returns the name of the coordinate system.
func (c CoordSystem) String() string {
	switch c {
	case Geographic:
		return "Geographic"
	case ENU:
		return "ENU"
	case Cartesian:
		return "Cartesian"
	default:
		return "Unknown"
	}
}

// Point is a vertex. Width and Heading are optional per-vertex attributes
// carried through unchanged by curve operations.
type Point struct {
	X, Y, Z float64
	Width   float64
	Heading float64
}

// LLA reads a geographic point as a geo.LLA.
func (p Point) LLA() geo.LLA {
	return geo.LLA{Lon: p.X, Lat: p.Y, Alt: p.Z}
}

// FromLLA builds a geographic point.
func FromLLA(ll geo.LLA) Point {
	return Point{X: ll.Lon, Y: ll.Lat, Z: ll.Alt}
}

// Orb drops Z and returns the 2-D point.
func (p Point) Orb() orb.Point {
	return orb.Point{p.X, p.Y}
}

func (p Point) vec() r2.Vec {
	return r2.Vec{X: p.X, Y: p.Y}
}

// Distance2D is the planar distance between two points in the same metric frame.
func Distance2D(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// NormalizeAngle wraps an angle in radians into (-π, π].
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a <= -math.Pi {
		a += 2 * math.Pi
	} else if a > math.Pi {
		a -= 2 * math.Pi
	}
	return a
}

func heading(v r2.Vec) float64 {
	return math.Atan2(v.Y, v.X)
}

// leftNormal is z × v for a unit vector v.
func leftNormal(v r2.Vec) r2.Vec {
	return r2.Vec{X: -v.Y, Y: v.X}
}

// projectOnSegment returns the clamped parameter of the foot of q on [a, b].
func projectOnSegment(q, a, b r2.Vec) (float64, r2.Vec) {
	e := r2.Sub(b, a)
	l2 := r2.Dot(e, e)
	if l2 == 0 {
		return 0, a
	}
	t := r2.Dot(r2.Sub(q, a), e) / l2
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return t, r2.Add(a, r2.Scale(t, e))
}
