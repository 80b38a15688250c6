package geom

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/beetlebugorg/hdmap/internal/geo"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

const eps = 1e-9

func straight() *Curve {
	return NewCurve([]Point{{X: 0, Y: 0}, {X: 10, Y: 0}}, Cartesian)
}

// bent is an L-shaped curve with one left turn at (10, 0).
func bent() *Curve {
	return NewCurve([]Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}, Cartesian)
}

func near(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestStraightLineExample(t *testing.T) {
	c := straight()

	if p := c.PointAt(5); !near(p.X, 5, eps) || !near(p.Y, 0, eps) {
		t.Errorf("PointAt(5) = %+v, want (5, 0)", p)
	}

	s, l, yaw, ok := c.XYToSL(5, 1)
	if !ok {
		t.Fatal("XYToSL(5, 1) failed")
	}
	if !near(s, 5, eps) || !near(l, 1, eps) || !near(yaw, 0, eps) {
		t.Errorf("XYToSL(5, 1) = (%f, %f, %f), want (5, 1, 0)", s, l, yaw)
	}

	x, y, _, ok := c.SLToXY(5, 1)
	if !ok {
		t.Fatal("SLToXY(5, 1) failed")
	}
	if !near(x, 5, eps) || !near(y, 1, eps) {
		t.Errorf("SLToXY(5, 1) = (%f, %f), want (5, 1)", x, y)
	}
}

func TestSLRoundTrip(t *testing.T) {
	curves := map[string]*Curve{
		"straight": straight(),
		"bent":     bent(),
		"zigzag": NewCurve([]Point{
			{X: 100, Y: 100}, {X: 120, Y: 103}, {X: 140, Y: 98}, {X: 165, Y: 110}, {X: 190, Y: 112},
		}, Cartesian),
	}

	for name, c := range curves {
		t.Run(name, func(t *testing.T) {
			for s := 0.0; s <= c.Length(); s += c.Length() / 17 {
				for _, l := range []float64{-2, -0.5, 0, 0.75, 2} {
					x, y, _, ok := c.SLToXY(s, l)
					if !ok {
						t.Fatalf("SLToXY(%f, %f) failed", s, l)
					}
					s2, l2, _, ok := c.XYToSL(x, y)
					if !ok {
						t.Fatalf("XYToSL(%f, %f) failed for s=%f l=%f", x, y, s, l)
					}
					if !near(s2, s, 1e-6) || !near(l2, l, 1e-6) {
						t.Errorf("round trip (%f, %f) -> (%f, %f)", s, l, s2, l2)
					}
				}
			}
		})
	}
}

func TestSLOffsetContinuousThroughCorner(t *testing.T) {
	c := bent()
	x1, y1, _, _ := c.SLToXY(10-1e-7, 1)
	x2, y2, _, _ := c.SLToXY(10+1e-7, 1)
	if d := math.Hypot(x2-x1, y2-y1); d > 1e-5 {
		t.Errorf("offset curve gaps by %f at the corner", d)
	}
	// Inside of a left turn: the miter point sits on the bisector.
	x, y, _, _ := c.SLToXY(10, 1)
	if !near(x, 9, 1e-9) || !near(y, 1, 1e-9) {
		t.Errorf("miter point = (%f, %f), want (9, 1)", x, y)
	}
}

func TestXYToSLNearEndpoints(t *testing.T) {
	c := straight()

	s, l, _, ok := c.XYToSL(11, -0.5)
	if !ok {
		t.Fatal("point past the end should resolve within the buffer")
	}
	if !near(s, 11, eps) || !near(l, -0.5, eps) {
		t.Errorf("got (%f, %f), want (11, -0.5)", s, l)
	}

	s, _, _, ok = c.XYToSL(-1, 0.3)
	if !ok || !near(s, -1, eps) {
		t.Errorf("point before the start: ok=%v s=%f, want s=-1", ok, s)
	}
}

func TestSLToXYRange(t *testing.T) {
	c := straight()
	tests := []struct {
		s  float64
		ok bool
	}{
		{-0.1, false},
		{0, true},
		{10, true},
		{12, true},
		{12.01, false},
	}
	for _, tt := range tests {
		if _, _, _, ok := c.SLToXY(tt.s, 0); ok != tt.ok {
			t.Errorf("SLToXY(%f) ok=%v, want %v", tt.s, ok, tt.ok)
		}
	}
}

func TestSetGeometry(t *testing.T) {
	c := straight()
	if c.SetGeometry(nil, Cartesian) {
		t.Error("SetGeometry(nil) should report false")
	}
	if c.Len() != 2 {
		t.Errorf("empty SetGeometry must not change the curve, got %d points", c.Len())
	}

	c.SetGeometry([]Point{{X: 1}, {X: 1 + 1e-12}, {X: 2}, {X: 2}, {X: 4}}, Cartesian)
	if c.Len() != 3 {
		t.Errorf("near-duplicates should merge: got %d points, want 3", c.Len())
	}
	if !near(c.Length(), 3, eps) {
		t.Errorf("Length = %f, want 3", c.Length())
	}
}

func TestAddPoint(t *testing.T) {
	c := NewCurve(nil, Cartesian)
	c.AddPoint(Point{X: 0, Y: 0})
	c.AddPoint(Point{X: 3, Y: 4})
	c.AddPoint(Point{X: 3, Y: 4})
	c.AddPoint(Point{X: 3, Y: 10})

	if c.Len() != 3 {
		t.Fatalf("Len = %d, want 3", c.Len())
	}
	if !near(c.Length(), 11, eps) {
		t.Errorf("Length = %f, want 11", c.Length())
	}
	// The middle vertex yaw is refreshed once its successor exists.
	want := math.Atan2(4.0/5+1, 3.0/5)
	if !near(c.Yaw(1), want, 1e-12) {
		t.Errorf("Yaw(1) = %f, want %f", c.Yaw(1), want)
	}
}

func TestPointAtClamps(t *testing.T) {
	c := straight()
	if p := c.PointAt(-3); p.X != 0 {
		t.Errorf("PointAt(-3) = %+v, want start", p)
	}
	if p := c.PointAt(99); p.X != 10 {
		t.Errorf("PointAt(99) = %+v, want end", p)
	}
	if p := c.Point(7); p.X != 10 {
		t.Errorf("Point(7) = %+v, want last vertex", p)
	}
}

func TestPassedDistance(t *testing.T) {
	c := bent()
	s, pedal, err := c.PassedDistance(Point{X: 12, Y: 4})
	if err != nil {
		t.Fatalf("PassedDistance: %v", err)
	}
	if !near(s, 14, eps) || !near(pedal.X, 10, eps) || !near(pedal.Y, 4, eps) {
		t.Errorf("got s=%f pedal=%+v, want s=14 pedal=(10, 4)", s, pedal)
	}

	_, _, err = NewCurve(nil, Cartesian).PassedDistance(Point{})
	if !errors.Is(err, ErrEmptyCurve) {
		t.Errorf("empty curve: err=%v, want ErrEmptyCurve", err)
	}
}

func TestDistanceInRange(t *testing.T) {
	c := NewCurve([]Point{{X: 0}, {X: 10}, {X: 20}, {X: 30}}, Cartesian)
	d, s, _, err := c.DistanceInRange(Point{X: 25, Y: 2}, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !near(d, math.Hypot(15, 2), eps) || !near(s, 10, eps) {
		t.Errorf("restricted range: d=%f s=%f", d, s)
	}
	d, s, _, _ = c.DistanceInRange(Point{X: 25, Y: 2}, 0, 3)
	if !near(d, 2, eps) || !near(s, 25, eps) {
		t.Errorf("full range: d=%f s=%f", d, s)
	}
}

func TestReverse(t *testing.T) {
	c := bent()
	c.Reverse()
	want := []Point{{X: 10, Y: 10}, {X: 10, Y: 0}, {X: 0, Y: 0}}
	if diff := cmp.Diff(want, c.Points(), cmpopts.EquateApprox(0, eps)); diff != "" {
		t.Errorf("Reverse mismatch (-want +got):\n%s", diff)
	}
	if !near(c.Yaw(0), -math.Pi/2, eps) {
		t.Errorf("Yaw(0) after reverse = %f, want -π/2", c.Yaw(0))
	}
}

func TestSample(t *testing.T) {
	c := straight()
	got := slices.Collect(c.Sample(3))
	want := []Point{{X: 0}, {X: 3}, {X: 6}, {X: 9}, {X: 10}}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, eps)); diff != "" {
		t.Errorf("Sample(3) mismatch (-want +got):\n%s", diff)
	}
	// Restartable.
	if again := slices.Collect(c.Sample(3)); len(again) != len(got) {
		t.Errorf("second pass yielded %d points, want %d", len(again), len(got))
	}
	if none := slices.Collect(c.Sample(0)); len(none) != 0 {
		t.Errorf("Sample(0) yielded %d points", len(none))
	}
}

func TestSampleByAngleDeviation(t *testing.T) {
	pts := []Point{}
	for i := 0; i <= 10; i++ {
		pts = append(pts, Point{X: float64(i)})
	}
	pts = append(pts, Point{X: 10, Y: 1}, Point{X: 10, Y: 2})
	c := NewCurve(pts, Cartesian)

	got := slices.Collect(c.SampleByAngleDeviation(0.1, 0))
	want := []Point{{X: 0}, {X: 10}, {X: 10, Y: 2}}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, eps)); diff != "" {
		t.Errorf("angle sampling mismatch (-want +got):\n%s", diff)
	}

	withLength := slices.Collect(c.SampleByAngleDeviation(0.1, 4))
	if len(withLength) != 5 {
		t.Errorf("length limit 4 kept %d points, want 5", len(withLength))
	}
}

func TestCut(t *testing.T) {
	c := NewCurve([]Point{{X: 0}, {X: 10}, {X: 20}, {X: 30}}, Cartesian)
	tests := []struct {
		name       string
		begin, end float64
		want       []Point
	}{
		{"interior", 5, 25, []Point{{X: 5}, {X: 10}, {X: 20}, {X: 25}}},
		{"snap begin", 10.1, 15, []Point{{X: 10}, {X: 15}}},
		{"snap end", 2, 19.9, []Point{{X: 2}, {X: 10}, {X: 20}}},
		{"clamped", -5, 50, []Point{{X: 0}, {X: 10}, {X: 20}, {X: 30}}},
		{"within one segment", 11, 12, []Point{{X: 11}, {X: 12}}},
		{"begin snap would pass end", 9.85, 9.95, []Point{{X: 9.85}, {X: 10}}},
		{"both ends near one vertex", 9.9, 10.05, []Point{{X: 10}, {X: 10.05}}},
		{"empty range on a vertex", 10, 10, []Point{{X: 10}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Cut(tt.begin, tt.end)
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateApprox(0, eps)); diff != "" {
				t.Errorf("Cut(%f, %f) mismatch (-want +got):\n%s", tt.begin, tt.end, diff)
			}
		})
	}
	if got := c.Cut(20, 10); got != nil {
		t.Errorf("reversed cut = %v, want nil", got)
	}
}

func TestGeographicCurve(t *testing.T) {
	start := geo.LLA{Lon: 121.0, Lat: 31.0}
	end := geo.LLA{Lon: 121.001, Lat: 31.0}
	c := NewCurve([]Point{FromLLA(start), FromLLA(end)}, Geographic)

	want := geo.Distance(start, end)
	if !near(c.Length(), want, 0.5) {
		t.Errorf("Length = %f m, want about %f m", c.Length(), want)
	}
	mid := c.PointAt(c.Length() / 2)
	if !near(mid.X, 121.0005, 1e-7) || !near(mid.Y, 31.0, 1e-7) {
		t.Errorf("midpoint = %+v", mid)
	}
	s, l, _, ok := c.XYToSL(121.0005, 31.00001)
	if !ok || !near(s, c.Length()/2, 0.05) || l <= 1 {
		t.Errorf("XYToSL north of midpoint: s=%f l=%f ok=%v", s, l, ok)
	}
}

func TestTransferPreservesGeography(t *testing.T) {
	oldOrigin := geo.LLA{Lon: 116.30, Lat: 39.90}
	newOrigin := geo.LLA{Lon: 116.31, Lat: 39.91}

	c := NewCurve([]Point{{X: 10, Y: 20}, {X: 400, Y: -150, Z: 3}, {X: 900, Y: 60}}, ENU)
	var before []geo.LLA
	for _, p := range c.Points() {
		before = append(before, geo.FromENU(geo.Vec3{X: p.X, Y: p.Y, Z: p.Z}, oldOrigin))
	}

	c.Transfer(oldOrigin, newOrigin)
	for i, p := range c.Points() {
		after := geo.FromENU(geo.Vec3{X: p.X, Y: p.Y, Z: p.Z}, newOrigin)
		if !near(after.Lon, before[i].Lon, 1e-9) || !near(after.Lat, before[i].Lat, 1e-9) {
			t.Errorf("vertex %d moved from %+v to %+v", i, before[i], after)
		}
	}

	cart := straight()
	cart.Transfer(oldOrigin, newOrigin)
	if p := cart.End(); p.X != 10 {
		t.Errorf("Cartesian curves must not transfer, end=%+v", p)
	}
}

func TestTransferToLocalFrame(t *testing.T) {
	origin := geo.LLA{Lon: 10, Lat: 50}
	c := NewCurve([]Point{FromLLA(origin), FromLLA(geo.LLA{Lon: 10.001, Lat: 50})}, Geographic)
	c.TransferToLocalFrame(origin)
	if c.CoordSystem() != ENU {
		t.Fatalf("coord system = %v, want ENU", c.CoordSystem())
	}
	if p := c.Start(); !near(p.X, 0, 1e-6) || !near(p.Y, 0, 1e-6) {
		t.Errorf("start = %+v, want origin", p)
	}
	if p := c.End(); p.X < 70 || p.X > 72 {
		t.Errorf("end east offset = %f, want about 71.5 m", p.X)
	}
}

func TestEnvelope(t *testing.T) {
	env, ok := bent().Envelope()
	if !ok {
		t.Fatal("no envelope")
	}
	if env.Min[0] != 0 || env.Min[1] != 0 || env.Max[0] != 10 || env.Max[1] != 10 {
		t.Errorf("envelope = %+v", env)
	}
	padded := PadDegenerate(mustEnvelope(straight()), DegenerateEpsilon)
	if padded.Max[1]-padded.Min[1] < DegenerateEpsilon {
		t.Errorf("degenerate axis not padded: %+v", padded)
	}
}

func mustEnvelope(c *Curve) Envelope {
	env, _ := c.Envelope()
	return env
}
