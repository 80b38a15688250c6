package hdmap

import (
	"maps"
	"slices"
)

// travel is +1 for lanes running with the road's reference direction and -1
// for lanes running against it.
func travel(id LaneID) int {
	if id < 0 {
		return -1
	}
	return 1
}

// NextLanes returns the lanes a vehicle can continue into from the end of
// key. Within a road these are the lanes of the following section (in the
// lane's direction of travel) whose start meets key's end; from the last
// section they are the targets of lane links.
func (s *Store) NextLanes(key LaneKey) []LaneKey {
	return s.adjacentLanes(key, true)
}

// PrevLanes returns the lanes leading into the start of key.
func (s *Store) PrevLanes(key LaneKey) []LaneKey {
	return s.adjacentLanes(key, false)
}

func (s *Store) adjacentLanes(key LaneKey, forward bool) []LaneKey {
	s.roadMu.RLock()
	rec, ok := s.lanes[key]
	if !ok {
		s.roadMu.RUnlock()
		return nil
	}
	road := s.roads[key.Road]
	step := travel(key.Lane)
	if !forward {
		step = -step
	}
	next := rec.section + step
	var out []LaneKey
	if next >= 0 && next < len(road.Sections) {
		out = s.chainedLanes(rec, road.Sections[next], forward)
		s.roadMu.RUnlock()
		slices.SortFunc(out, compareKeys)
		return out
	}
	s.roadMu.RUnlock()

	s.linkMu.RLock()
	defer s.linkMu.RUnlock()
	table, pick := s.linksFrom, func(l *LaneLink) LaneKey { return l.To }
	if !forward {
		table, pick = s.linksTo, func(l *LaneLink) LaneKey { return l.From }
	}
	for _, id := range table[key] {
		if k := pick(s.links[id]); !slices.Contains(out, k) {
			out = append(out, k)
		}
	}
	slices.SortFunc(out, compareKeys)
	return out
}

// chainedLanes returns the lanes of sec whose start (forward) or end
// (backward) is within EndpointTolerance of rec's end or start. The caller
// holds roadMu.
func (s *Store) chainedLanes(rec *laneRecord, sec *Section, forward bool) []LaneKey {
	if rec.center.Empty() {
		return nil
	}
	from := rec.center.End()
	if !forward {
		from = rec.center.Start()
	}
	var out []LaneKey
	for _, cand := range sec.Lanes {
		other, ok := s.lanes[cand.Key]
		if !ok || other.center.Empty() {
			continue
		}
		to := other.center.Start()
		if !forward {
			to = other.center.End()
		}
		if s.distance(from, to) < s.tol.EndpointTolerance {
			out = append(out, cand.Key)
		}
	}
	return out
}

// LeftLane returns the lane to the left of key in the same section.
func (s *Store) LeftLane(key LaneKey) (LaneKey, bool) {
	return s.sideLane(key, 1)
}

// RightLane returns the lane to the right of key in the same section.
func (s *Store) RightLane(key LaneKey) (LaneKey, bool) {
	return s.sideLane(key, -1)
}

func (s *Store) sideLane(key LaneKey, delta LaneID) (LaneKey, bool) {
	id := key.Lane + delta
	if id == 0 {
		id += delta
	}
	k := LaneKey{Road: key.Road, Section: key.Section, Lane: id}
	s.roadMu.RLock()
	_, ok := s.lanes[k]
	s.roadMu.RUnlock()
	if !ok {
		return LaneKey{}, false
	}
	return k, true
}

// SpecLanes returns copies of the lanes matching f, ordered by key.
func (s *Store) SpecLanes(f LaneFilter) ([]*Lane, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}

	s.roadMu.RLock()
	defer s.roadMu.RUnlock()

	var out []*Lane
	if f.Lane != AnyLane {
		if rec, ok := s.lanes[f.key()]; ok {
			out = append(out, rec.lane.Clone())
		}
		return out, nil
	}
	for key, rec := range s.lanes {
		if f.match(key) {
			out = append(out, rec.lane.Clone())
		}
	}
	sortLanes(out)
	return out, nil
}

// SpecLinks returns copies of the lane links matching f, ordered by id.
func (s *Store) SpecLinks(f LinkFilter) ([]*LaneLink, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}

	s.linkMu.RLock()
	defer s.linkMu.RUnlock()

	var out []*LaneLink
	for _, id := range slices.Sorted(maps.Keys(s.links)) {
		if l := s.links[id]; f.match(l) {
			out = append(out, l.Clone())
		}
	}
	return out, nil
}

// SpecBoundaries returns copies of the named boundaries that exist, in the
// order given.
func (s *Store) SpecBoundaries(ids []BoundaryID) []*LaneBoundary {
	s.roadMu.RLock()
	defer s.roadMu.RUnlock()

	var out []*LaneBoundary
	for _, id := range ids {
		if rec, ok := s.boundaries[id]; ok {
			out = append(out, rec.boundary.Clone())
		}
	}
	return out
}
