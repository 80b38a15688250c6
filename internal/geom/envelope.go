package geom

import (
	"github.com/paulmach/orb"
)

// Envelope is an axis-aligned bounding box, [min, max] on X and Y.
type Envelope = orb.Bound

// DegenerateEpsilon pads zero-width envelope axes.
const DegenerateEpsilon = 1e-6

// EnvelopeAround returns the square envelope of half-size r centred on (x, y).
func EnvelopeAround(x, y, r float64) Envelope {
	return Envelope{
		Min: orb.Point{x - r, y - r},
		Max: orb.Point{x + r, y + r},
	}
}

// PadDegenerate widens any axis narrower than eps to eps, centred on the original.
func PadDegenerate(env Envelope, eps float64) Envelope {
	for axis := 0; axis < 2; axis++ {
		if env.Max[axis]-env.Min[axis] < eps {
			mid := (env.Max[axis] + env.Min[axis]) / 2
			env.Min[axis] = mid - eps/2
			env.Max[axis] = mid + eps/2
		}
	}
	return env
}

// EnvelopeOf returns the bounding box of points, or false when there are none.
func EnvelopeOf(points []Point) (Envelope, bool) {
	if len(points) == 0 {
		return Envelope{}, false
	}
	env := orb.Bound{Min: points[0].Orb(), Max: points[0].Orb()}
	for _, p := range points[1:] {
		env = env.Extend(p.Orb())
	}
	return env, true
}
