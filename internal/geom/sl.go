package geom

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"
)

// segmentTolerance is the slack on the segment parameter when accepting an
// intersection, so points exactly on a vertex are not lost to rounding.
const segmentTolerance = 1e-6

// working is the vertex list extended by the SL buffer at both ends.
type working struct {
	pts   []r2.Vec
	cum   []float64
	miter []r2.Vec
}

func (c *Curve) working() working {
	n := len(c.pts)
	b := c.params.SLBuffer
	head, tail := c.chord(0), c.chord(n-2)

	w := working{
		pts:   make([]r2.Vec, 0, n+2),
		cum:   make([]float64, 0, n+2),
		miter: make([]r2.Vec, 0, n+2),
	}
	w.pts = append(w.pts, r2.Sub(c.pts[0].vec(), r2.Scale(b, head)))
	w.cum = append(w.cum, 0)
	w.miter = append(w.miter, c.miter[0].vec)
	for i, p := range c.pts {
		w.pts = append(w.pts, p.vec())
		w.cum = append(w.cum, b+c.cum[i])
		w.miter = append(w.miter, c.miterDir(i))
	}
	w.pts = append(w.pts, r2.Add(c.pts[n-1].vec(), r2.Scale(b, tail)))
	w.cum = append(w.cum, 2*b+c.Length())
	w.miter = append(w.miter, c.miter[n-1].vec)
	return w
}

// miterDir is the stored miter vector, or the raw normal where adjacent offset
// lines are parallel.
func (c *Curve) miterDir(i int) r2.Vec {
	m := c.miter[i]
	if m.side == 0 {
		return c.normal[i]
	}
	return m.vec
}

// XYToSL converts a global position into station s, signed lateral offset l
// (positive to the left) and the direction yaw of the matched segment.
//
// Only the segments adjacent to the nearest vertex are tested. Points that
// cannot be placed on either of them report ok=false.
func (c *Curve) XYToSL(x, y float64) (s, l, yaw float64, ok bool) {
	if len(c.pts) < 2 {
		return 0, 0, 0, false
	}
	lp := c.ToLocal(Point{X: x, Y: y})
	q := lp.vec()
	w := c.working()

	nearest, best := 0, math.Inf(1)
	for i, p := range w.pts {
		if d := r2.Norm2(r2.Sub(q, p)); d < best {
			nearest, best = i, d
		}
	}

	for _, seg := range [2]int{nearest - 1, nearest} {
		if seg < 0 || seg >= len(w.pts)-1 {
			continue
		}
		a, b := w.pts[seg], w.pts[seg+1]
		t, hit := segmentParam(q, a, b, w.miter[seg], w.miter[seg+1])
		if !hit || t < -segmentTolerance || t > 1+segmentTolerance {
			continue
		}
		t = math.Max(0, math.Min(1, t))
		e := r2.Sub(b, a)
		segLen := r2.Norm(e)
		dir := r2.Scale(1/segLen, e)
		s = w.cum[seg] + t*segLen - c.params.SLBuffer
		l = r2.Cross(dir, r2.Sub(q, a))
		return s, l, heading(dir), true
	}
	return 0, 0, 0, false
}

// segmentParam intersects the iso-station line through q with segment [a, b].
//
// The miter lines at both ends of a segment meet in a point C; every offset
// copy of the segment is a homothety of it around C, so the iso-station line
// through q passes through C. When the miter lines are parallel the
// iso-station lines are parallel to them instead.
func segmentParam(q, a, b, ma, mb r2.Vec) (float64, bool) {
	e := r2.Sub(b, a)
	var d r2.Vec
	if den := r2.Cross(ma, mb); math.Abs(den) < 1e-9 {
		d = r2.Scale(0.5, r2.Add(ma, mb))
	} else {
		lambda := r2.Cross(r2.Sub(b, a), mb) / den
		apex := r2.Add(a, r2.Scale(lambda, ma))
		d = r2.Sub(q, apex)
		if r2.Norm(d) < 1e-12 {
			return 0, false
		}
	}
	den := r2.Cross(e, d)
	if math.Abs(den) < 1e-12 {
		return 0, false
	}
	return r2.Cross(r2.Sub(q, a), d) / den, true
}

// SLToXY converts station s and lateral offset l into a global position and
// the direction of the segment it falls on. Stations outside
// [0, Length+SLBuffer] are rejected.
//
// The lateral offset follows the interpolated miter vector, so a constant l
// traces a continuous parallel curve through corners.
func (c *Curve) SLToXY(s, l float64) (x, y, yaw float64, ok bool) {
	if len(c.pts) < 2 || s < 0 || s > c.Length()+c.params.SLBuffer {
		return 0, 0, 0, false
	}
	w := c.working()
	sw := s + c.params.SLBuffer

	seg := sort.SearchFloat64s(w.cum, sw) - 1
	if seg < 0 {
		seg = 0
	}
	if seg > len(w.pts)-2 {
		seg = len(w.pts) - 2
	}
	a, b := w.pts[seg], w.pts[seg+1]
	span := w.cum[seg+1] - w.cum[seg]
	t := 0.0
	if span > 0 {
		t = (sw - w.cum[seg]) / span
	}
	foot := r2.Add(a, r2.Scale(t, r2.Sub(b, a)))
	m := r2.Add(r2.Scale(1-t, w.miter[seg]), r2.Scale(t, w.miter[seg+1]))
	p := r2.Add(foot, r2.Scale(l, m))

	g := c.ToGlobal(Point{X: p.X, Y: p.Y, Z: c.localAt(s).Z})
	return g.X, g.Y, heading(r2.Sub(b, a)), true
}
