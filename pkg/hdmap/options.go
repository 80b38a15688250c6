package hdmap

import (
	"errors"
	"fmt"
	"math"
	"os"
	"runtime"
	"strings"

	"github.com/beetlebugorg/hdmap/internal/geom"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Options configures a Store.
type Options struct {
	// CoordMode is the coordinate system of every geometry passed to or
	// returned from the store. It is fixed for the store's lifetime.
	CoordMode CoordSystem `yaml:"-"`

	// Center is the initial tangent point of ENU stores.
	Center LLA `yaml:"center"`

	// Workers bounds the goroutines used by batch inserts.
	// If 0, defaults to runtime.NumCPU().
	Workers int `yaml:"workers"`

	// CacheSize is the entry limit of a CachedStore built from these options.
	CacheSize int `yaml:"cache_size"`

	Tolerances Tolerances `yaml:"tolerances"`

	// Logger receives store diagnostics. Nil discards them.
	Logger *zap.Logger `yaml:"-"`
}

// Tolerances collects the numeric thresholds of geometry matching and
// junction classification. Distances are in metres for Geographic and ENU
// stores and in raw units for Cartesian stores. Angles are in degrees.
type Tolerances struct {
	// DedupEpsilon merges consecutive curve vertices closer than this.
	DedupEpsilon float64 `yaml:"dedup_epsilon"`

	// SLBuffer extends curves at both ends for station-lateral lookups.
	SLBuffer float64 `yaml:"sl_buffer"`

	// CutTolerance snaps boundary cuts to an existing vertex.
	CutTolerance float64 `yaml:"cut_tolerance"`

	// EndpointTolerance is how close lane ends must be to chain two lanes
	// of adjacent sections.
	EndpointTolerance float64 `yaml:"endpoint_tolerance"`

	// AdjacencyTolerance is how close consecutive boundary pieces must be to
	// be stitched into one run.
	AdjacencyTolerance float64 `yaml:"adjacency_tolerance"`

	// ExactMatchDistance ends a nearest-lane search early when the query
	// point lies on a candidate's start point.
	ExactMatchDistance float64 `yaml:"exact_match_distance"`

	// CenterLineInterval is the resampling step of lane center lines.
	CenterLineInterval float64 `yaml:"center_line_interval"`

	// YawPenaltyWeight and YawPenaltyCap shape the heading mismatch penalty
	// added to nearest-lane distances when a heading is given.
	YawPenaltyWeight float64 `yaml:"yaw_penalty_weight"`
	YawPenaltyCap    float64 `yaml:"yaw_penalty_cap"`

	// YawToleranceDeg is the heading window of filtered searches.
	YawToleranceDeg float64 `yaml:"yaw_tolerance_deg"`

	// BoundarySearchRadius is the lane search radius of boundary range queries.
	BoundarySearchRadius float64 `yaml:"boundary_search_radius"`

	// CacheQuantum is the grid CachedStore snaps query positions to.
	CacheQuantum float64 `yaml:"cache_quantum"`

	StraightThresholdDeg float64 `yaml:"straight_threshold_deg"`
	UTurnThresholdDeg    float64 `yaml:"uturn_threshold_deg"`
	OpposingThresholdDeg float64 `yaml:"opposing_threshold_deg"`
}

// DefaultTolerances returns the tuned defaults.
func DefaultTolerances() Tolerances {
	return Tolerances{
		DedupEpsilon:         1e-9,
		SLBuffer:             2.0,
		CutTolerance:         0.2,
		EndpointTolerance:    0.2,
		AdjacencyTolerance:   0.15,
		ExactMatchDistance:   1e-3,
		CenterLineInterval:   1.0,
		YawPenaltyWeight:     2.0,
		YawPenaltyCap:        1.0,
		YawToleranceDeg:      45,
		BoundarySearchRadius: 5.0,
		CacheQuantum:         0.01,
		StraightThresholdDeg: 30,
		UTurnThresholdDeg:    135,
		OpposingThresholdDeg: 120,
	}
}

// DefaultOptions returns options for a Cartesian store.
func DefaultOptions() Options {
	return Options{
		CoordMode:  Cartesian,
		Workers:    runtime.NumCPU(),
		CacheSize:  4096,
		Tolerances: DefaultTolerances(),
	}
}

// Validate reports the first inconsistent setting.
func (o Options) Validate() error {
	switch o.CoordMode {
	case Geographic, ENU, Cartesian:
	default:
		return fmt.Errorf("unknown coordinate mode %d", o.CoordMode)
	}
	if o.Workers < 0 {
		return errors.New("workers must not be negative")
	}
	if o.CacheSize < 0 {
		return errors.New("cache size must not be negative")
	}
	return o.Tolerances.Validate()
}

// Validate reports the first non-positive or misordered threshold.
func (t Tolerances) Validate() error {
	for name, v := range map[string]float64{
		"dedup_epsilon":          t.DedupEpsilon,
		"sl_buffer":              t.SLBuffer,
		"endpoint_tolerance":     t.EndpointTolerance,
		"adjacency_tolerance":    t.AdjacencyTolerance,
		"exact_match_distance":   t.ExactMatchDistance,
		"center_line_interval":   t.CenterLineInterval,
		"cache_quantum":          t.CacheQuantum,
		"straight_threshold_deg": t.StraightThresholdDeg,
	} {
		if !(v > 0) {
			return fmt.Errorf("tolerance %s must be positive, got %v", name, v)
		}
	}
	if t.CutTolerance < 0 || t.YawPenaltyWeight < 0 || t.YawPenaltyCap < 0 {
		return errors.New("cut tolerance and yaw penalty must not be negative")
	}
	if t.UTurnThresholdDeg <= t.StraightThresholdDeg || t.UTurnThresholdDeg > 180 {
		return fmt.Errorf("uturn threshold %v must lie in (%v, 180]", t.UTurnThresholdDeg, t.StraightThresholdDeg)
	}
	if t.OpposingThresholdDeg <= t.StraightThresholdDeg || t.OpposingThresholdDeg > 180 {
		return fmt.Errorf("opposing threshold %v must lie in (%v, 180]", t.OpposingThresholdDeg, t.StraightThresholdDeg)
	}
	return nil
}

// curveParams maps the tolerances onto curve parameters.
func (t Tolerances) curveParams() geom.Params {
	return geom.Params{
		DedupEpsilon: t.DedupEpsilon,
		SLBuffer:     t.SLBuffer,
		CutTolerance: t.CutTolerance,
	}
}

func rad(deg float64) float64 { return deg * math.Pi / 180 }

// fileOptions is the YAML layout of an options file.
type fileOptions struct {
	Options  `yaml:",inline"`
	CoordMode string `yaml:"coord_mode"`
}

// ParseCoordSystem parses "geographic", "enu" or "cartesian".
func ParseCoordSystem(s string) (CoordSystem, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "geographic", "wgs84", "lla":
		return Geographic, nil
	case "enu", "local":
		return ENU, nil
	case "cartesian", "":
		return Cartesian, nil
	}
	return 0, fmt.Errorf("unknown coordinate mode %q", s)
}

// LoadOptions reads options from a YAML file. Fields missing from the file
// keep their defaults.
//
// Example:
//
//	coord_mode: enu
//	center: {lon: 121.47, lat: 31.23}
//	workers: 4
//	tolerances:
//	  endpoint_tolerance: 0.25
func LoadOptions(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("read options: %w", err)
	}
	return ParseOptions(data)
}

// ParseOptions decodes YAML options over the defaults.
func ParseOptions(data []byte) (Options, error) {
	f := fileOptions{Options: DefaultOptions()}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Options{}, fmt.Errorf("parse options: %w", err)
	}
	mode, err := ParseCoordSystem(f.CoordMode)
	if err != nil {
		return Options{}, err
	}
	opts := f.Options
	opts.CoordMode = mode
	if err := opts.Validate(); err != nil {
		return Options{}, fmt.Errorf("invalid options: %w", err)
	}
	return opts, nil
}
