// Package geo converts between WGS-84 geographic coordinates, Earth-centred
// Cartesian (ECEF), local tangent planes (ENU) and Web-Mercator.
//
// All functions are stateless. Angles are decimal degrees, lengths are metres.
package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/project"
)

// WGS-84 ellipsoid.
const (
	SemiMajorAxis = 6378137.0
	Flattening    = 1 / 298.257223563
	eccentricity2 = Flattening * (2 - Flattening)
)

// LLA is a geographic position: longitude, latitude (degrees) and altitude (metres).
type LLA struct {
	Lon float64 `yaml:"lon"`
	Lat float64 `yaml:"lat"`
	Alt float64 `yaml:"alt"`
}

// Vec3 is a Cartesian triple, used for both ECEF and ENU coordinates.
type Vec3 struct {
	X, Y, Z float64
}

func rad(d float64) float64 { return d * math.Pi / 180 }
func deg(r float64) float64 { return r * 180 / math.Pi }

// ToECEF converts a geographic position to Earth-centred, Earth-fixed metres.
func ToECEF(p LLA) Vec3 {
	lat, lon := rad(p.Lat), rad(p.Lon)
	sinLat, cosLat := math.Sincos(lat)
	sinLon, cosLon := math.Sincos(lon)
	n := SemiMajorAxis / math.Sqrt(1-eccentricity2*sinLat*sinLat)
	return Vec3{
		X: (n + p.Alt) * cosLat * cosLon,
		Y: (n + p.Alt) * cosLat * sinLon,
		Z: (n*(1-eccentricity2) + p.Alt) * sinLat,
	}
}

// FromECEF converts ECEF metres back to a geographic position.
// Latitude is refined iteratively until it moves less than 1e-12 rad.
func FromECEF(v Vec3) LLA {
	p := math.Hypot(v.X, v.Y)
	lon := math.Atan2(v.Y, v.X)
	lat := math.Atan2(v.Z, p*(1-eccentricity2))
	var h float64
	for i := 0; i < 16; i++ {
		sinLat, cosLat := math.Sincos(lat)
		n := SemiMajorAxis / math.Sqrt(1-eccentricity2*sinLat*sinLat)
		if math.Abs(cosLat) > 1e-12 {
			h = p/cosLat - n
		} else {
			h = math.Abs(v.Z) - n*(1-eccentricity2)
		}
		next := math.Atan2(v.Z, p*(1-eccentricity2*n/(n+h)))
		if math.Abs(next-lat) < 1e-12 {
			lat = next
			break
		}
		lat = next
	}
	return LLA{Lon: deg(lon), Lat: deg(lat), Alt: h}
}

// ToENU expresses p in the East-North-Up frame tangent at origin.
func ToENU(p, origin LLA) Vec3 {
	a, o := ToECEF(p), ToECEF(origin)
	dx, dy, dz := a.X-o.X, a.Y-o.Y, a.Z-o.Z
	sinLat, cosLat := math.Sincos(rad(origin.Lat))
	sinLon, cosLon := math.Sincos(rad(origin.Lon))
	return Vec3{
		X: -sinLon*dx + cosLon*dy,
		Y: -sinLat*cosLon*dx - sinLat*sinLon*dy + cosLat*dz,
		Z: cosLat*cosLon*dx + cosLat*sinLon*dy + sinLat*dz,
	}
}

// FromENU converts an East-North-Up offset at origin back to a geographic position.
func FromENU(v Vec3, origin LLA) LLA {
	o := ToECEF(origin)
	sinLat, cosLat := math.Sincos(rad(origin.Lat))
	sinLon, cosLon := math.Sincos(rad(origin.Lon))
	dx := -sinLon*v.X - sinLat*cosLon*v.Y + cosLat*cosLon*v.Z
	dy := cosLon*v.X - sinLat*sinLon*v.Y + cosLat*sinLon*v.Z
	dz := cosLat*v.Y + sinLat*v.Z
	return FromECEF(Vec3{X: o.X + dx, Y: o.Y + dy, Z: o.Z + dz})
}

// ToMercator projects a geographic position to Web-Mercator metres.
func ToMercator(p LLA) orb.Point {
	return project.WGS84.ToMercator(orb.Point{p.Lon, p.Lat})
}

// FromMercator unprojects Web-Mercator metres to longitude/latitude.
func FromMercator(p orb.Point) LLA {
	ll := project.Mercator.ToWGS84(p)
	return LLA{Lon: ll[0], Lat: ll[1]}
}

// MercatorScale is the ratio of Mercator metres to ground metres at lat.
func MercatorScale(lat float64) float64 {
	c := math.Cos(rad(lat))
	if c < 1e-6 {
		c = 1e-6
	}
	return 1 / c
}

// Distance returns the great-circle distance in metres between a and b.
func Distance(a, b LLA) float64 {
	return geo.DistanceHaversine(orb.Point{a.Lon, a.Lat}, orb.Point{b.Lon, b.Lat})
}
