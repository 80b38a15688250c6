package geom

import (
	"iter"
	"math"
)

// Sample yields points every interval metres of arc length, starting at the
// first vertex and always ending on the last. The sequence can be ranged over
// any number of times. A non-positive interval yields nothing.
func (c *Curve) Sample(interval float64) iter.Seq[Point] {
	return func(yield func(Point) bool) {
		n := len(c.pts)
		if n == 0 || interval <= 0 {
			return
		}
		if !yield(c.ToGlobal(c.pts[0])) || n == 1 {
			return
		}
		total := c.Length()
		seg := 0
		for s := interval; s < total; s += interval {
			for seg < n-2 && c.cum[seg+1] < s {
				seg++
			}
			t := (s - c.cum[seg]) / (c.cum[seg+1] - c.cum[seg])
			if !yield(c.ToGlobal(lerp(c.pts[seg], c.pts[seg+1], t))) {
				return
			}
		}
		yield(c.ToGlobal(c.pts[n-1]))
	}
}

// SampleByAngleDeviation yields a subset of the vertices, keeping a vertex once
// the accumulated change of chord direction since the last kept vertex reaches
// angleLimit (radians) or the accumulated length reaches lengthLimit. Straight
// runs thin out while sharp turns keep their detail. The endpoints are always
// kept. A non-positive lengthLimit disables the length rule.
func (c *Curve) SampleByAngleDeviation(angleLimit, lengthLimit float64) iter.Seq[Point] {
	return func(yield func(Point) bool) {
		n := len(c.pts)
		if n == 0 {
			return
		}
		if !yield(c.ToGlobal(c.pts[0])) || n == 1 {
			return
		}
		var accAngle, accLen float64
		prev := heading(c.chord(0))
		for i := 1; i < n-1; i++ {
			cur := heading(c.chord(i))
			accAngle += math.Abs(NormalizeAngle(cur - prev))
			accLen += c.cum[i] - c.cum[i-1]
			prev = cur
			if accAngle >= angleLimit || (lengthLimit > 0 && accLen >= lengthLimit) {
				if !yield(c.ToGlobal(c.pts[i])) {
					return
				}
				accAngle, accLen = 0, 0
			}
		}
		yield(c.ToGlobal(c.pts[n-1]))
	}
}

// Cut returns the sub-polyline between stations beginS and endS, clamped to the
// curve. Ends within CutTolerance of an existing vertex snap to it; otherwise
// an interpolated endpoint is synthesized. A snap never moves one end past
// the other, so the result runs forward. beginS > endS yields nil.
func (c *Curve) Cut(beginS, endS float64) []Point {
	n := len(c.pts)
	if n == 0 || beginS > endS {
		return nil
	}
	total := c.Length()
	beginS = math.Max(0, math.Min(total, beginS))
	endS = math.Max(0, math.Min(total, endS))

	tol := c.params.CutTolerance
	out := make([]Point, 0, 8)

	next, beginAt := 0, beginS
	if j := c.vertexNear(beginS, tol); j >= 0 && c.cum[j] <= endS {
		out = append(out, c.pts[j])
		next, beginAt = j+1, c.cum[j]
	} else {
		out = append(out, c.localAt(beginS))
		next = c.segmentAt(beginS) + 1
	}

	endJ := c.vertexNear(endS, tol)
	if endJ >= 0 && endJ < next {
		// The vertex is the begin point or lies behind it.
		endJ = -1
		if endS <= beginAt {
			return c.toGlobal(out)
		}
	}
	last := endJ
	if last < 0 {
		last = c.segmentAt(endS)
	}
	for k := next; k <= last && k < n; k++ {
		out = append(out, c.pts[k])
	}
	if endJ < 0 {
		out = append(out, c.localAt(endS))
	}
	return c.toGlobal(out)
}

func (c *Curve) toGlobal(pts []Point) []Point {
	for i := range pts {
		pts[i] = c.ToGlobal(pts[i])
	}
	return pts
}

// vertexNear returns the vertex closest to station s if it lies within tol.
func (c *Curve) vertexNear(s, tol float64) int {
	i := c.segmentAt(s)
	best, bestD := -1, tol
	for _, k := range [2]int{i, i + 1} {
		if k < 0 || k >= len(c.pts) {
			continue
		}
		if d := math.Abs(c.cum[k] - s); d <= bestD {
			best, bestD = k, d
		}
	}
	return best
}
