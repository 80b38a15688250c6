// Package mapfile reads HD maps described in YAML and loads them into an
// hdmap.Store.
//
// The format mirrors the store's data model. Points are [x, y] or
// [x, y, z] in the file's coordinate mode; ids are integers; enumerations
// are lower-case names.
//
//	coord_mode: cartesian
//	roads:
//	  - id: 1
//	    boundaries:
//	      - {id: 11, mark: solid, geometry: [[0, 2], [100, 2]]}
//	      - {id: 12, mark: broken, geometry: [[0, -2], [100, -2]]}
//	    sections:
//	      - id: 1
//	        lanes:
//	          - {id: 1, type: driving, left: 11, right: 12}
//	links:
//	  - id: 1
//	    from: {road: 1, section: 1, lane: 1}
//	    to: {road: 2, section: 1, lane: 1}
//	    geometry: [[100, 0], [120, 20]]
package mapfile

import (
	"errors"
	"fmt"
	"os"

	"github.com/beetlebugorg/hdmap/pkg/hdmap"
	"gopkg.in/yaml.v3"
)

// File is one decoded map file.
type File struct {
	// CoordMode is the coordinate system of every point in the file.
	// Empty means cartesian.
	CoordMode string `yaml:"coord_mode"`

	Roads     []RoadDoc     `yaml:"roads"`
	Links     []LinkDoc     `yaml:"links"`
	Objects   []ObjectDoc   `yaml:"objects"`
	Junctions []JunctionDoc `yaml:"junctions"`
}

// RoadDoc describes a road.
type RoadDoc struct {
	ID         uint64        `yaml:"id"`
	Name       string        `yaml:"name"`
	Type       string        `yaml:"type"`
	SpeedLimit float64       `yaml:"speed_limit"`
	Geometry   [][]float64   `yaml:"geometry"`
	Boundaries []BoundaryDoc `yaml:"boundaries"`
	Sections   []SectionDoc  `yaml:"sections"`
	Junction   *JunctionRef  `yaml:"junction"`
}

// SectionDoc describes a road section.
type SectionDoc struct {
	ID    uint32    `yaml:"id"`
	Lanes []LaneDoc `yaml:"lanes"`
}

// LaneDoc describes a lane. Geometry may be omitted when both boundaries are
// given.
type LaneDoc struct {
	ID         int32       `yaml:"id"`
	Type       string      `yaml:"type"`
	Arrows     []string    `yaml:"arrows"`
	Left       uint64      `yaml:"left"`
	Right      uint64      `yaml:"right"`
	SpeedLimit float64     `yaml:"speed_limit"`
	Friction   float64     `yaml:"friction"`
	Width      float64     `yaml:"width"`
	Geometry   [][]float64 `yaml:"geometry"`
}

// BoundaryDoc describes a lane boundary.
type BoundaryDoc struct {
	ID         uint64      `yaml:"id"`
	Mark       string      `yaml:"mark"`
	Width      float64     `yaml:"width"`
	DashLength float64     `yaml:"dash_length"`
	Space      float64     `yaml:"space"`
	Geometry   [][]float64 `yaml:"geometry"`
}

// JunctionRef marks a road as a junction road.
type JunctionRef struct {
	ID           uint64 `yaml:"id"`
	Turn         string `yaml:"turn"`
	Entrance     uint64 `yaml:"entrance"`
	Exit         uint64 `yaml:"exit"`
	TrafficLight bool   `yaml:"traffic_light"`
	StopLine     bool   `yaml:"stop_line"`
}

// LaneRef addresses a lane.
type LaneRef struct {
	Road    uint64 `yaml:"road"`
	Section uint32 `yaml:"section"`
	Lane    int32  `yaml:"lane"`
}

// LinkDoc describes a lane link.
type LinkDoc struct {
	ID        uint64       `yaml:"id"`
	From      LaneRef      `yaml:"from"`
	To        LaneRef      `yaml:"to"`
	Junction  uint64       `yaml:"junction"`
	Geometry  [][]float64  `yaml:"geometry"`
	Left      [][]float64  `yaml:"left"`
	Right     [][]float64  `yaml:"right"`
	Curvature [][2]float64 `yaml:"curvature"`
	Slope     [][2]float64 `yaml:"slope"`
}

// ObjectDoc describes a map object.
type ObjectDoc struct {
	ID       uint64        `yaml:"id"`
	Type     string        `yaml:"type"`
	Name     string        `yaml:"name"`
	Position []float64     `yaml:"position"`
	Yaw      float64       `yaml:"yaw"`
	Outlines [][][]float64 `yaml:"outlines"`
	Lanes    []LaneRef     `yaml:"lanes"`
}

// JunctionDoc describes a junction. Headings are in radians.
type JunctionDoc struct {
	ID          uint64             `yaml:"id"`
	Roads       []uint64           `yaml:"roads"`
	EntranceYaw map[uint64]float64 `yaml:"entrance_yaw"`
	ExitYaw     map[uint64]float64 `yaml:"exit_yaw"`
	Controllers []ControllerDoc    `yaml:"controllers"`
}

// ControllerDoc describes a signal controller.
type ControllerDoc struct {
	ID      uint64   `yaml:"id"`
	Name    string   `yaml:"name"`
	Signals []uint64 `yaml:"signals"`
}

// Parse decodes a map file.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse map: %w", err)
	}
	return &f, nil
}

// Load reads and decodes a map file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read map: %w", err)
	}
	return Parse(data)
}

// Map is a decoded file converted to store entities.
type Map struct {
	Roads     []*hdmap.Road
	Links     []*hdmap.LaneLink
	Objects   []*hdmap.Object
	Junctions []*hdmap.Junction
}

// Build converts the file into store entities.
func (f *File) Build() (*Map, error) {
	cs, err := hdmap.ParseCoordSystem(f.CoordMode)
	if err != nil {
		return nil, err
	}
	b := builder{cs: cs}
	m := &Map{}
	for i := range f.Roads {
		r, err := b.road(&f.Roads[i])
		if err != nil {
			return nil, fmt.Errorf("road %d: %w", f.Roads[i].ID, err)
		}
		m.Roads = append(m.Roads, r)
	}
	for i := range f.Links {
		l, err := b.link(&f.Links[i])
		if err != nil {
			return nil, fmt.Errorf("link %d: %w", f.Links[i].ID, err)
		}
		m.Links = append(m.Links, l)
	}
	for i := range f.Objects {
		o, err := b.object(&f.Objects[i])
		if err != nil {
			return nil, fmt.Errorf("object %d: %w", f.Objects[i].ID, err)
		}
		m.Objects = append(m.Objects, o)
	}
	for i := range f.Junctions {
		m.Junctions = append(m.Junctions, b.junction(&f.Junctions[i]))
	}
	return m, nil
}

// Merge appends other's entities.
func (m *Map) Merge(other *Map) {
	m.Roads = append(m.Roads, other.Roads...)
	m.Links = append(m.Links, other.Links...)
	m.Objects = append(m.Objects, other.Objects...)
	m.Junctions = append(m.Junctions, other.Junctions...)
}

// Stats counts what an Apply call inserted.
type Stats struct {
	Roads, Links, Objects, Junctions int
}

// Apply inserts the map into store. Junctions go first so junction roads
// attach to them. Entities that are rejected are counted out and their
// errors joined; the rest are still inserted.
func (m *Map) Apply(store *hdmap.Store) (Stats, error) {
	var st Stats
	for _, j := range m.Junctions {
		if store.InsertJunction(j) {
			st.Junctions++
		}
	}
	before := len(store.Roads())
	_, roadErr := store.InsertRoads(m.Roads)
	st.Roads = len(store.Roads()) - before

	var errs []error
	if roadErr != nil {
		errs = append(errs, roadErr)
	}
	for _, l := range m.Links {
		ok, err := store.InsertLaneLink(l)
		if err != nil {
			errs = append(errs, err)
		}
		if ok {
			st.Links++
		}
	}
	for _, o := range m.Objects {
		ok, err := store.InsertObject(o)
		if err != nil {
			errs = append(errs, err)
		}
		if ok {
			st.Objects++
		}
	}
	return st, errors.Join(errs...)
}
