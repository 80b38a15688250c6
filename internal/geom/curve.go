package geom

import (
	"errors"
	"math"
	"sort"

	"github.com/beetlebugorg/hdmap/internal/geo"
	"gonum.org/v1/gonum/spatial/r2"
)

// ErrEmptyCurve is returned by operations that need at least one vertex.
var ErrEmptyCurve = errors.New("empty curve")

// maxMiterScale caps the miter length at sharp corners, as a multiple of the offset.
const maxMiterScale = 10.0

// Params holds the numeric tolerances a Curve works with.
type Params struct {
	// DedupEpsilon merges consecutive vertices closer than this.
	DedupEpsilon float64

	// SLBuffer extends the curve at both ends for station-lateral lookups,
	// so queries just past an endpoint still resolve.
	SLBuffer float64

	// CutTolerance snaps cut positions to an existing vertex within this distance.
	CutTolerance float64
}

// DefaultParams returns the default curve tolerances.
func DefaultParams() Params {
	return Params{
		DedupEpsilon: 1e-9,
		SLBuffer:     2.0,
		CutTolerance: 0.2,
	}
}

// Curve is an ordered polyline in a single coordinate system.
//
// Vertices are stored relative to a private origin, the curve's first vertex,
// which keeps coordinates small. Geographic curves keep their vertices as ENU
// metres around that origin, so every metric computation is planar.
//
// Derived per-vertex caches (cumulative length, yaw, normal, miter) are rebuilt
// on every mutation. A Curve is not safe for concurrent mutation; the store
// serializes access through its table locks.
type Curve struct {
	cs     CoordSystem
	params Params

	center Point
	pts    []Point

	cum    []float64
	yaw    []float64
	normal []r2.Vec
	miter  []miterRef
}

// miterRef is the corner-correct offset direction at a vertex: the vertex plus
// vec is where the two adjacent unit-offset lines meet. side is +1 for a left
// turn, -1 for a right turn and 0 where the offset lines are parallel.
type miterRef struct {
	vec  r2.Vec
	side int8
}

// NewCurve builds a curve with default parameters.
func NewCurve(points []Point, cs CoordSystem) *Curve {
	return NewCurveWithParams(points, cs, DefaultParams())
}

// NewCurveWithParams builds a curve with explicit tolerances.
func NewCurveWithParams(points []Point, cs CoordSystem, params Params) *Curve {
	c := &Curve{cs: cs, params: params}
	c.SetGeometry(points, cs)
	return c
}

// CoordSystem reports the coordinate system of the curve's vertices.
func (c *Curve) CoordSystem() CoordSystem { return c.cs }

// Params returns the curve's tolerances.
func (c *Curve) Params() Params { return c.params }

// SetGeometry replaces every vertex. An empty slice leaves the curve untouched
// and returns false.
func (c *Curve) SetGeometry(points []Point, cs CoordSystem) bool {
	if len(points) == 0 {
		return false
	}
	c.cs = cs
	c.center = points[0]
	c.pts = c.pts[:0]
	for _, p := range points {
		l := c.ToLocal(p)
		if n := len(c.pts); n > 0 && Distance2D(c.pts[n-1], l) < c.params.DedupEpsilon {
			continue
		}
		c.pts = append(c.pts, l)
	}
	c.rebuild(0)
	return true
}

// AddPoint appends a vertex. Near-duplicates of the last vertex are dropped.
func (c *Curve) AddPoint(p Point) {
	if len(c.pts) == 0 {
		c.SetGeometry([]Point{p}, c.cs)
		return
	}
	l := c.ToLocal(p)
	if Distance2D(c.pts[len(c.pts)-1], l) < c.params.DedupEpsilon {
		return
	}
	c.pts = append(c.pts, l)
	c.rebuild(len(c.pts) - 1)
}

// Clone returns an independent copy.
func (c *Curve) Clone() *Curve {
	if c == nil {
		return nil
	}
	out := &Curve{
		cs:     c.cs,
		params: c.params,
		center: c.center,
		pts:    append([]Point(nil), c.pts...),
		cum:    append([]float64(nil), c.cum...),
		yaw:    append([]float64(nil), c.yaw...),
		normal: append([]r2.Vec(nil), c.normal...),
		miter:  append([]miterRef(nil), c.miter...),
	}
	return out
}

// Len is the number of vertices.
func (c *Curve) Len() int { return len(c.pts) }

// Empty reports whether the curve has no vertices.
func (c *Curve) Empty() bool { return c == nil || len(c.pts) == 0 }

// Length is the planar arc length in metres (geographic curves included).
func (c *Curve) Length() float64 {
	if len(c.cum) == 0 {
		return 0
	}
	return c.cum[len(c.cum)-1]
}

// Station returns the cumulative arc length at vertex i.
func (c *Curve) Station(i int) float64 {
	return c.cum[c.clampIndex(i)]
}

// Yaw returns the direction at vertex i in radians, counter-clockwise from +X.
func (c *Curve) Yaw(i int) float64 {
	return c.yaw[c.clampIndex(i)]
}

// Point returns vertex i in global coordinates. The index is clamped.
func (c *Curve) Point(i int) Point {
	if len(c.pts) == 0 {
		return Point{}
	}
	return c.ToGlobal(c.pts[c.clampIndex(i)])
}

// Points returns every vertex in global coordinates.
func (c *Curve) Points() []Point {
	out := make([]Point, len(c.pts))
	for i, p := range c.pts {
		out[i] = c.ToGlobal(p)
	}
	return out
}

// Start is the first vertex in global coordinates.
func (c *Curve) Start() Point { return c.Point(0) }

// End is the last vertex in global coordinates.
func (c *Curve) End() Point { return c.Point(len(c.pts) - 1) }

// PointAt returns the point at arc length distance, clamped to [0, Length].
func (c *Curve) PointAt(distance float64) Point {
	if len(c.pts) == 0 {
		return Point{}
	}
	return c.ToGlobal(c.localAt(distance))
}

// YawAt returns the segment direction at arc length distance.
func (c *Curve) YawAt(distance float64) float64 {
	if len(c.pts) < 2 {
		return 0
	}
	i := c.segmentAt(distance)
	return heading(r2.Sub(c.pts[i+1].vec(), c.pts[i].vec()))
}

// Envelope is the bounding box of the vertices in global coordinates.
func (c *Curve) Envelope() (Envelope, bool) {
	return EnvelopeOf(c.Points())
}

// PassedDistance projects p onto the nearest segment and returns the arc
// length at the foot of the perpendicular together with that foot.
func (c *Curve) PassedDistance(p Point) (float64, Point, error) {
	if len(c.pts) == 0 {
		return 0, Point{}, ErrEmptyCurve
	}
	_, s, foot := c.nearest(c.ToLocal(p), 0, len(c.pts)-1)
	return s, c.ToGlobal(foot), nil
}

// DistanceInRange returns the planar distance from p to the sub-polyline
// between vertices from and to (inclusive, clamped), the arc length of the
// closest point and the direction of the segment it lies on.
func (c *Curve) DistanceInRange(p Point, from, to int) (dist, s, yaw float64, err error) {
	if len(c.pts) == 0 {
		return 0, 0, 0, ErrEmptyCurve
	}
	from, to = c.clampIndex(from), c.clampIndex(to)
	if from > to {
		from, to = to, from
	}
	q := c.ToLocal(p)
	dist, s, _ = c.nearest(q, from, to)
	return dist, s, c.YawAt(s), nil
}

// Distance is DistanceInRange over the whole curve.
func (c *Curve) Distance(p Point) (float64, error) {
	d, _, _, err := c.DistanceInRange(p, 0, len(c.pts)-1)
	return d, err
}

// Reverse flips the vertex order and re-bases the origin on the new first vertex.
func (c *Curve) Reverse() {
	if len(c.pts) == 0 {
		return
	}
	pts := c.Points()
	for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
		pts[i], pts[j] = pts[j], pts[i]
	}
	c.SetGeometry(pts, c.cs)
}

// Transfer re-expresses an ENU curve built around oldOrigin in the ENU frame
// of newOrigin. Every vertex keeps its geographic position. Curves in other
// coordinate systems are unaffected.
func (c *Curve) Transfer(oldOrigin, newOrigin geo.LLA) {
	if c.cs != ENU || len(c.pts) == 0 || oldOrigin == newOrigin {
		return
	}
	pts := c.Points()
	for i, p := range pts {
		ll := geo.FromENU(geo.Vec3{X: p.X, Y: p.Y, Z: p.Z}, oldOrigin)
		v := geo.ToENU(ll, newOrigin)
		pts[i].X, pts[i].Y, pts[i].Z = v.X, v.Y, v.Z
	}
	c.SetGeometry(pts, ENU)
}

// TransferToLocalFrame converts a geographic curve into the ENU frame of
// origin. ENU and Cartesian curves are left as they are.
func (c *Curve) TransferToLocalFrame(origin geo.LLA) {
	if c.cs != Geographic || len(c.pts) == 0 {
		return
	}
	pts := c.Points()
	for i, p := range pts {
		v := geo.ToENU(p.LLA(), origin)
		pts[i].X, pts[i].Y, pts[i].Z = v.X, v.Y, v.Z
	}
	c.SetGeometry(pts, ENU)
}

// ToLocal converts a global point to the curve's private frame.
func (c *Curve) ToLocal(p Point) Point {
	out := p
	if c.cs == Geographic {
		v := geo.ToENU(p.LLA(), c.center.LLA())
		out.X, out.Y, out.Z = v.X, v.Y, v.Z
		return out
	}
	out.X -= c.center.X
	out.Y -= c.center.Y
	out.Z -= c.center.Z
	return out
}

// ToGlobal converts a point in the curve's private frame to global coordinates.
func (c *Curve) ToGlobal(p Point) Point {
	out := p
	if c.cs == Geographic {
		ll := geo.FromENU(geo.Vec3{X: p.X, Y: p.Y, Z: p.Z}, c.center.LLA())
		out.X, out.Y, out.Z = ll.Lon, ll.Lat, ll.Alt
		return out
	}
	out.X += c.center.X
	out.Y += c.center.Y
	out.Z += c.center.Z
	return out
}

func (c *Curve) clampIndex(i int) int {
	if i < 0 {
		return 0
	}
	if i >= len(c.pts) {
		return len(c.pts) - 1
	}
	return i
}

// segmentAt returns the index of the segment containing arc length s.
func (c *Curve) segmentAt(s float64) int {
	n := len(c.pts)
	if n < 2 {
		return 0
	}
	i := sort.SearchFloat64s(c.cum, s) - 1
	if i < 0 {
		i = 0
	}
	if i > n-2 {
		i = n - 2
	}
	return i
}

func (c *Curve) localAt(s float64) Point {
	n := len(c.pts)
	if n == 1 || s <= 0 {
		return c.pts[0]
	}
	if s >= c.Length() {
		return c.pts[n-1]
	}
	i := c.segmentAt(s)
	return lerp(c.pts[i], c.pts[i+1], (s-c.cum[i])/(c.cum[i+1]-c.cum[i]))
}

// nearest scans the segments between vertices from and to.
func (c *Curve) nearest(q Point, from, to int) (float64, float64, Point) {
	qv := q.vec()
	if from == to || len(c.pts) == 1 {
		p := c.pts[from]
		return Distance2D(p, q), c.cum[from], p
	}
	best := math.Inf(1)
	var bestS float64
	var bestFoot Point
	for i := from; i < to; i++ {
		t, foot := projectOnSegment(qv, c.pts[i].vec(), c.pts[i+1].vec())
		d := r2.Norm(r2.Sub(qv, foot))
		if d < best {
			best = d
			bestS = c.cum[i] + t*(c.cum[i+1]-c.cum[i])
			bestFoot = lerp(c.pts[i], c.pts[i+1], t)
		}
	}
	return best, bestS, bestFoot
}

func lerp(a, b Point, t float64) Point {
	return Point{
		X:       a.X + (b.X-a.X)*t,
		Y:       a.Y + (b.Y-a.Y)*t,
		Z:       a.Z + (b.Z-a.Z)*t,
		Width:   a.Width + (b.Width-a.Width)*t,
		Heading: a.Heading + (b.Heading-a.Heading)*t,
	}
}

// rebuild recomputes the derived caches from vertex from onwards. The vertex
// before from is refreshed too, since its yaw depends on its successor.
func (c *Curve) rebuild(from int) {
	n := len(c.pts)
	c.cum = resize(c.cum, n)
	c.yaw = resize(c.yaw, n)
	c.normal = resize(c.normal, n)
	c.miter = resize(c.miter, n)

	if from < 0 {
		from = 0
	}
	for i := from; i < n; i++ {
		if i == 0 {
			c.cum[0] = 0
			continue
		}
		c.cum[i] = c.cum[i-1] + Distance2D(c.pts[i-1], c.pts[i])
	}
	start := from - 1
	if start < 0 {
		start = 0
	}
	for i := start; i < n; i++ {
		c.updateVertex(i)
	}
}

func (c *Curve) chord(i int) r2.Vec {
	return r2.Unit(r2.Sub(c.pts[i+1].vec(), c.pts[i].vec()))
}

func (c *Curve) updateVertex(i int) {
	n := len(c.pts)
	if n == 1 {
		c.yaw[0] = 0
		c.normal[0] = r2.Vec{X: 0, Y: 1}
		c.miter[0] = miterRef{vec: c.normal[0]}
		return
	}

	switch {
	case i == 0:
		d := c.chord(0)
		c.yaw[i] = heading(d)
		c.normal[i] = leftNormal(d)
		c.miter[i] = miterRef{vec: c.normal[i]}
	case i == n-1:
		d := c.chord(n - 2)
		c.yaw[i] = heading(d)
		c.normal[i] = leftNormal(d)
		c.miter[i] = miterRef{vec: c.normal[i]}
	default:
		in, out := c.chord(i-1), c.chord(i)
		sum := r2.Add(in, out)
		if r2.Norm(sum) < 1e-12 {
			// Reversal: the bisector is undefined, keep the incoming chord.
			sum = in
		}
		bis := r2.Unit(sum)
		c.yaw[i] = heading(bis)
		c.normal[i] = leftNormal(bis)

		turn := r2.Cross(in, out)
		if math.Abs(turn) < 1e-12 {
			c.miter[i] = miterRef{vec: c.normal[i]}
			return
		}
		k := r2.Dot(c.normal[i], leftNormal(in))
		if k < 1/maxMiterScale {
			k = 1 / maxMiterScale
		}
		side := int8(1)
		if turn < 0 {
			side = -1
		}
		c.miter[i] = miterRef{vec: r2.Scale(1/k, c.normal[i]), side: side}
	}
}

func resize[T any](s []T, n int) []T {
	if cap(s) >= n {
		return s[:n]
	}
	out := make([]T, n)
	copy(out, s)
	return out
}
