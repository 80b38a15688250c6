package geo

import (
	"math"
	"testing"
)

func TestENURoundTrip(t *testing.T) {
	origin := LLA{Lon: 121.2, Lat: 31.3, Alt: 10}
	tests := []struct {
		name string
		p    LLA
	}{
		{"origin", origin},
		{"east 1km", LLA{Lon: 121.2105, Lat: 31.3, Alt: 10}},
		{"north-west", LLA{Lon: 121.19, Lat: 31.31, Alt: 25}},
		{"below", LLA{Lon: 121.201, Lat: 31.299, Alt: -3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			back := FromENU(ToENU(tt.p, origin), origin)
			if math.Abs(back.Lon-tt.p.Lon) > 1e-9 || math.Abs(back.Lat-tt.p.Lat) > 1e-9 {
				t.Errorf("round trip moved %+v to %+v", tt.p, back)
			}
			if math.Abs(back.Alt-tt.p.Alt) > 1e-4 {
				t.Errorf("altitude drifted: want %f, got %f", tt.p.Alt, back.Alt)
			}
		})
	}
}

func TestENUAxes(t *testing.T) {
	origin := LLA{Lon: 0, Lat: 0}
	east := ToENU(LLA{Lon: 0.001, Lat: 0}, origin)
	if east.X <= 100 || math.Abs(east.Y) > 1e-6 {
		t.Errorf("expected positive east offset, got %+v", east)
	}
	north := ToENU(LLA{Lon: 0, Lat: 0.001}, origin)
	if north.Y <= 100 || math.Abs(north.X) > 1e-6 {
		t.Errorf("expected positive north offset, got %+v", north)
	}
}

func TestMercatorRoundTrip(t *testing.T) {
	p := LLA{Lon: -71.05, Lat: 42.35}
	back := FromMercator(ToMercator(p))
	if math.Abs(back.Lon-p.Lon) > 1e-9 || math.Abs(back.Lat-p.Lat) > 1e-9 {
		t.Errorf("mercator round trip: want %+v, got %+v", p, back)
	}
}

func TestDistanceMatchesENU(t *testing.T) {
	a := LLA{Lon: 116.3, Lat: 39.9}
	b := LLA{Lon: 116.301, Lat: 39.9}
	enu := ToENU(b, a)
	planar := math.Hypot(enu.X, enu.Y)
	if d := Distance(a, b); math.Abs(d-planar) > 0.5 {
		t.Errorf("haversine %f and ENU %f disagree", d, planar)
	}
}
