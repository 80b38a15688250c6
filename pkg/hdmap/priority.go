package hdmap

import (
	"maps"
	"slices"

	"go.uber.org/zap"
)

// registerJunctionRoad adds a junction road to its junction, creating a
// placeholder junction if it has not been inserted yet, and writes the
// classified turn back to the road. The caller holds roadMu.
func (s *Store) registerJunctionRoad(road *Road, ref *Curve) {
	info := road.Junction
	jr := &junctionRoad{id: road.ID, info: *info}
	if !ref.Empty() {
		jr.entranceYaw = ref.Yaw(0)
		jr.exitYaw = ref.Yaw(ref.Len() - 1)
	}

	s.junctionMu.Lock()
	defer s.junctionMu.Unlock()

	rec, ok := s.junctions[info.Junction]
	if !ok {
		rec = s.attachJunction(&Junction{ID: info.Junction}, true)
		s.junctions[info.Junction] = rec
	}
	info.Turn = rec.register(jr, s.tol)
	s.roadJunction[road.ID] = info.Junction
	s.log.Debug("junction road registered",
		zap.Uint64("road", uint64(road.ID)),
		zap.Uint64("junction", uint64(info.Junction)),
		zap.Stringer("turn", info.Turn))
}

func (s *Store) unregisterJunctionRoad(id RoadID) {
	s.junctionMu.Lock()
	defer s.junctionMu.Unlock()

	jid, ok := s.roadJunction[id]
	if !ok {
		for jid, roads := range s.detached {
			delete(roads, id)
			if len(roads) == 0 {
				delete(s.detached, jid)
			}
		}
		return
	}
	delete(s.roadJunction, id)
	rec, ok := s.junctions[jid]
	if !ok {
		return
	}
	rec.unregister(id)
	if rec.placeholder && len(rec.roads) == 0 {
		delete(s.junctions, jid)
	}
}

// InsertJunction stores a junction. Junction roads inserted earlier are
// kept, including those of a removed junction with the same id. A junction
// whose id is already present returns false.
func (s *Store) InsertJunction(j *Junction) bool {
	s.junctionMu.Lock()
	defer s.junctionMu.Unlock()

	if rec, ok := s.junctions[j.ID]; ok {
		if !rec.placeholder {
			s.log.Debug("duplicate junction", zap.Uint64("junction", uint64(j.ID)))
			return false
		}
		rec.junction = j.Clone()
		rec.placeholder = false
		rec.rebuild(s.tol)
		s.bump()
		return true
	}
	s.junctions[j.ID] = s.attachJunction(j.Clone(), false)
	s.bump()
	return true
}

// attachJunction creates a junction record and re-registers the roads left
// behind by an earlier RemoveJunction of the same id. The caller holds
// junctionMu.
func (s *Store) attachJunction(j *Junction, placeholder bool) *junctionRecord {
	rec := newJunctionRecord(j, placeholder)
	roads, ok := s.detached[j.ID]
	if !ok {
		return rec
	}
	delete(s.detached, j.ID)
	rec.roads = roads
	for rid := range roads {
		s.roadJunction[rid] = j.ID
	}
	rec.rebuild(s.tol)
	return rec
}

// UpdateJunction replaces a junction's metadata and recomputes its priority
// relation. It returns false if the junction is unknown.
func (s *Store) UpdateJunction(j *Junction) bool {
	s.junctionMu.Lock()
	defer s.junctionMu.Unlock()

	rec, ok := s.junctions[j.ID]
	if !ok {
		return false
	}
	rec.junction = j.Clone()
	rec.placeholder = false
	rec.rebuild(s.tol)
	s.bump()
	return true
}

// RemoveJunction deletes a junction. Its roads stay in the store but take
// no part in priority queries until the junction is inserted again.
func (s *Store) RemoveJunction(id JunctionID) bool {
	s.junctionMu.Lock()
	defer s.junctionMu.Unlock()

	rec, ok := s.junctions[id]
	if !ok {
		return false
	}
	for rid := range rec.roads {
		delete(s.roadJunction, rid)
	}
	if len(rec.roads) > 0 {
		s.detached[id] = rec.roads
	}
	delete(s.junctions, id)
	s.bump()
	return true
}

// Junction returns a copy of the junction with its registered roads.
func (s *Store) Junction(id JunctionID) (*Junction, bool) {
	s.junctionMu.RLock()
	defer s.junctionMu.RUnlock()
	rec, ok := s.junctions[id]
	if !ok {
		return nil, false
	}
	return rec.snapshot(), true
}

// Junctions returns copies of every junction, ordered by id.
func (s *Store) Junctions() []*Junction {
	s.junctionMu.RLock()
	defer s.junctionMu.RUnlock()
	out := make([]*Junction, 0, len(s.junctions))
	for _, id := range slices.Sorted(maps.Keys(s.junctions)) {
		out = append(out, s.junctions[id].snapshot())
	}
	return out
}

// PriorityCmp returns a's right of way over b. Both must be junction roads
// of the same junction; anything else is a *JunctionError.
func (s *Store) PriorityCmp(a, b RoadID) (Priority, error) {
	s.junctionMu.RLock()
	ja, okA := s.roadJunction[a]
	jb, okB := s.roadJunction[b]
	var p Priority
	if okA && okB && ja == jb {
		p = s.junctions[ja].rel[a][b]
	}
	s.junctionMu.RUnlock()

	switch {
	case !okA:
		return PriorityNone, s.junctionError(a, 0)
	case !okB:
		return PriorityNone, s.junctionError(b, 0)
	case ja != jb:
		return PriorityNone, &JunctionError{Road: a, Other: b, Reason: "roads belong to different junctions"}
	case a == b:
		return PrioritySame, nil
	}
	return p, nil
}

// junctionError explains why id is not a comparable junction road.
func (s *Store) junctionError(id, other RoadID) error {
	s.roadMu.RLock()
	r, ok := s.roads[id]
	s.roadMu.RUnlock()
	switch {
	case !ok:
		return &JunctionError{Road: id, Other: other, Reason: "unknown road"}
	case r.Junction == nil:
		return &JunctionError{Road: id, Other: other, Reason: "not a junction road"}
	default:
		return &JunctionError{Road: id, Other: other, Reason: "junction not in store"}
	}
}

// EntranceRoads returns the distinct roads leading into the junction.
func (s *Store) EntranceRoads(id JunctionID) []RoadID {
	return s.junctionRoads(id, func(jr *junctionRoad) RoadID { return jr.info.Entrance })
}

// ExitRoads returns the distinct roads leading out of the junction.
func (s *Store) ExitRoads(id JunctionID) []RoadID {
	return s.junctionRoads(id, func(jr *junctionRoad) RoadID { return jr.info.Exit })
}

// JunctionRoads returns the junction roads registered in the junction.
func (s *Store) JunctionRoads(id JunctionID) []RoadID {
	return s.junctionRoads(id, func(jr *junctionRoad) RoadID { return jr.id })
}

func (s *Store) junctionRoads(id JunctionID, pick func(*junctionRoad) RoadID) []RoadID {
	s.junctionMu.RLock()
	defer s.junctionMu.RUnlock()
	rec, ok := s.junctions[id]
	if !ok {
		return nil
	}
	seen := make(map[RoadID]bool)
	var out []RoadID
	for _, jr := range rec.roads {
		if r := pick(jr); r != 0 && !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	slices.Sort(out)
	return out
}
