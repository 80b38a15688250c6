package hdmap

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Store is an in-memory HD map: roads with their sections, lanes and
// boundaries, lane links, objects and junctions, all spatially indexed.
//
// Every table has its own lock, so independent queries do not serialize
// against each other. Queries spanning several tables take the locks one
// after another and may observe a concurrent mutation half applied.
//
// Example:
//
//	store, err := hdmap.New(hdmap.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	store.InsertRoad(road)
//	hit, ok := store.NearestLane(hdmap.Point{X: 12, Y: 3}, 5)
type Store struct {
	opts Options
	tol  Tolerances
	mode CoordSystem
	log  *zap.Logger
	gen  atomic.Uint64

	roadMu     sync.RWMutex
	roads      map[RoadID]*Road
	lanes      map[LaneKey]*laneRecord
	boundaries map[BoundaryID]*boundaryRecord

	linkMu    sync.RWMutex
	links     map[LinkID]*LaneLink
	linksFrom map[LaneKey][]LinkID
	linksTo   map[LaneKey][]LinkID

	objectMu      sync.RWMutex
	objects       map[ObjectID]*Object
	objectsByRoad map[RoadID]map[ObjectID]struct{}

	junctionMu   sync.RWMutex
	junctions    map[JunctionID]*junctionRecord
	roadJunction map[RoadID]JunctionID

	// detached holds the roads of removed junctions until the junction is
	// inserted again.
	detached map[JunctionID]map[RoadID]*junctionRoad

	centerMu sync.RWMutex
	center   LLA

	index spatialIndex
}

type laneRecord struct {
	lane    *Lane
	section int

	// center is the dense center line used for scoring; nil when the lane
	// has no usable geometry.
	center  *Curve
	indexed bool
}

type boundaryRecord struct {
	boundary *LaneBoundary
	roads    map[RoadID]struct{}
}

// New creates an empty store.
func New(opts Options) (*Store, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("hdmap: %w", err)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{
		opts:          opts,
		tol:           opts.Tolerances,
		mode:          opts.CoordMode,
		log:           log,
		roads:         make(map[RoadID]*Road),
		lanes:         make(map[LaneKey]*laneRecord),
		boundaries:    make(map[BoundaryID]*boundaryRecord),
		links:         make(map[LinkID]*LaneLink),
		linksFrom:     make(map[LaneKey][]LinkID),
		linksTo:       make(map[LaneKey][]LinkID),
		objects:       make(map[ObjectID]*Object),
		objectsByRoad: make(map[RoadID]map[ObjectID]struct{}),
		junctions:     make(map[JunctionID]*junctionRecord),
		roadJunction:  make(map[RoadID]JunctionID),
		detached:      make(map[JunctionID]map[RoadID]*junctionRoad),
		center:        opts.Center,
		index:         newSpatialIndex(),
	}
	return s, nil
}

// Mode is the coordinate system of the store's geometry.
func (s *Store) Mode() CoordSystem { return s.mode }

// Tolerances returns the thresholds the store was built with.
func (s *Store) Tolerances() Tolerances { return s.tol }

// Generation increases with every successful mutation.
func (s *Store) Generation() uint64 { return s.gen.Load() }

func (s *Store) bump() { s.gen.Add(1) }

func (s *Store) currentCenter() LLA {
	s.centerMu.RLock()
	defer s.centerMu.RUnlock()
	return s.center
}

// adopt re-expresses a stored curve in the store's mode. Geographic curves
// given to an ENU store are moved into the current local frame.
func (s *Store) adopt(c *Curve, center LLA) error {
	if c == nil || c.CoordSystem() == s.mode {
		return nil
	}
	if s.mode == ENU && c.CoordSystem() == Geographic {
		c.TransferToLocalFrame(center)
		return nil
	}
	return fmt.Errorf("curve in %v coordinates, store is %v", c.CoordSystem(), s.mode)
}

// InsertRoad stores a road with its sections, lanes and boundaries and
// indexes every lane. A road whose id is already present is left alone and
// false is returned.
func (s *Store) InsertRoad(r *Road) (bool, error) {
	s.roadMu.Lock()
	defer s.roadMu.Unlock()

	pr, err := s.prepareRoad(r, s.currentCenter())
	if err != nil {
		return false, err
	}
	return s.insertPrepared(pr), nil
}

// UpdateRoad replaces a stored road. Objects and links referring to it are
// kept. It returns false if the road is unknown.
func (s *Store) UpdateRoad(r *Road) (bool, error) {
	s.roadMu.Lock()
	defer s.roadMu.Unlock()

	old, ok := s.roads[r.ID]
	if !ok {
		return false, nil
	}
	pr, err := s.prepareRoad(r, s.currentCenter())
	if err != nil {
		return false, err
	}
	ok = s.dropRoadLocked(old)
	return s.insertPrepared(pr) && ok, nil
}

// RemoveRoad deletes a road and cascades: its lanes leave the index,
// objects related to no other road are removed and, with withLinks, lane
// links starting or ending on the road are removed. The result is true only
// if every step succeeded; completed steps are not rolled back.
func (s *Store) RemoveRoad(id RoadID, withLinks bool) bool {
	s.roadMu.Lock()
	road, ok := s.roads[id]
	if !ok {
		s.roadMu.Unlock()
		return false
	}
	ok = s.dropRoadLocked(road)
	s.roadMu.Unlock()

	ok = s.removeObjectsOfRoad(id) && ok
	if withLinks {
		ok = s.removeLinksOfRoad(id) && ok
	}
	s.bump()
	if !ok {
		s.log.Warn("road removal incomplete", zap.Uint64("road", uint64(id)))
	}
	return ok
}

// insertPrepared stores a prepared road. The caller holds roadMu.
func (s *Store) insertPrepared(pr *preparedRoad) bool {
	road := pr.road
	if _, ok := s.roads[road.ID]; ok {
		s.log.Debug("duplicate road", zap.Uint64("road", uint64(road.ID)))
		return false
	}

	for i, b := range road.Boundaries {
		if rec, ok := s.boundaries[b.ID]; ok {
			road.Boundaries[i] = rec.boundary
			rec.roads[road.ID] = struct{}{}
			continue
		}
		s.boundaries[b.ID] = &boundaryRecord{
			boundary: b,
			roads:    map[RoadID]struct{}{road.ID: {}},
		}
	}

	s.roads[road.ID] = road
	center := s.currentCenter()
	for si, sec := range road.Sections {
		for _, lane := range sec.Lanes {
			key := lane.Key
			if _, dup := s.lanes[key]; dup {
				s.log.Warn("duplicate lane id in section", zap.Stringer("lane", key))
				continue
			}
			rec := &laneRecord{lane: lane, section: si, center: pr.centers[key]}
			s.lanes[key] = rec
			if rec.center.Empty() {
				s.log.Warn("lane has no usable geometry", zap.Stringer("lane", key))
				continue
			}
			ok, err := s.index.lanes.Insert(s.indexPoints(rec.center.Points(), center), key)
			if err != nil {
				s.log.Warn("lane not indexed", zap.Stringer("lane", key), zap.Error(err))
			}
			rec.indexed = ok
		}
	}

	if road.Junction != nil {
		s.registerJunctionRoad(road, pr.ref)
	}
	s.bump()
	return true
}

// dropRoadLocked removes a road, its lanes and unshared boundaries. The
// caller holds roadMu.
func (s *Store) dropRoadLocked(road *Road) bool {
	ok := true
	for _, sec := range road.Sections {
		for _, lane := range sec.Lanes {
			rec, found := s.lanes[lane.Key]
			if !found || rec.lane != lane {
				continue
			}
			if rec.indexed {
				ok = s.index.lanes.Remove(lane.Key) && ok
			}
			delete(s.lanes, lane.Key)
		}
	}
	for _, b := range road.Boundaries {
		rec, found := s.boundaries[b.ID]
		if !found {
			continue
		}
		delete(rec.roads, road.ID)
		if len(rec.roads) == 0 {
			delete(s.boundaries, b.ID)
		}
	}
	if road.Junction != nil {
		s.unregisterJunctionRoad(road.ID)
	}
	delete(s.roads, road.ID)
	return ok
}

// Road returns a copy of the road.
func (s *Store) Road(id RoadID) (*Road, bool) {
	s.roadMu.RLock()
	defer s.roadMu.RUnlock()
	r, ok := s.roads[id]
	return r.Clone(), ok
}

// Roads returns copies of every road, ordered by id.
func (s *Store) Roads() []*Road {
	s.roadMu.RLock()
	defer s.roadMu.RUnlock()
	out := make([]*Road, 0, len(s.roads))
	for _, id := range slices.Sorted(maps.Keys(s.roads)) {
		out = append(out, s.roads[id].Clone())
	}
	return out
}

// Lane returns a copy of the lane.
func (s *Store) Lane(key LaneKey) (*Lane, bool) {
	s.roadMu.RLock()
	defer s.roadMu.RUnlock()
	rec, ok := s.lanes[key]
	if !ok {
		return nil, false
	}
	return rec.lane.Clone(), true
}

// CenterLine returns a copy of the lane's center line.
func (s *Store) CenterLine(key LaneKey) (*Curve, bool) {
	s.roadMu.RLock()
	defer s.roadMu.RUnlock()
	rec, ok := s.lanes[key]
	if !ok || rec.center.Empty() {
		return nil, false
	}
	return rec.center.Clone(), true
}

// Lanes returns copies of every lane, ordered by key.
func (s *Store) Lanes() []*Lane {
	s.roadMu.RLock()
	defer s.roadMu.RUnlock()
	out := make([]*Lane, 0, len(s.lanes))
	for _, rec := range s.lanes {
		out = append(out, rec.lane.Clone())
	}
	sortLanes(out)
	return out
}

// Boundary returns a copy of the boundary.
func (s *Store) Boundary(id BoundaryID) (*LaneBoundary, bool) {
	s.roadMu.RLock()
	defer s.roadMu.RUnlock()
	rec, ok := s.boundaries[id]
	if !ok {
		return nil, false
	}
	return rec.boundary.Clone(), true
}

// Boundaries returns copies of every boundary, ordered by id.
func (s *Store) Boundaries() []*LaneBoundary {
	s.roadMu.RLock()
	defer s.roadMu.RUnlock()
	out := make([]*LaneBoundary, 0, len(s.boundaries))
	for _, id := range slices.Sorted(maps.Keys(s.boundaries)) {
		out = append(out, s.boundaries[id].boundary.Clone())
	}
	return out
}

func sortLanes(lanes []*Lane) {
	slices.SortFunc(lanes, func(a, b *Lane) int {
		return compareKeys(a.Key, b.Key)
	})
}

func compareKeys(a, b LaneKey) int {
	if c := cmp.Compare(a.Road, b.Road); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Section, b.Section); c != 0 {
		return c
	}
	return cmp.Compare(a.Lane, b.Lane)
}
