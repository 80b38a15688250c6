package hdmap

import (
	"errors"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// InsertRoads inserts many roads. Lane center lines are prepared by a pool
// of Options.Workers goroutines; insertion itself is sequential.
//
// The result is true only if every road was inserted. Roads that fail to
// prepare are skipped and their errors joined; the rest are still inserted.
//
// Example:
//
//	ok, err := store.InsertRoads(roads)
//	if err != nil {
//	    log.Printf("skipped roads: %v", err)
//	}
func (s *Store) InsertRoads(roads []*Road) (bool, error) {
	if len(roads) == 0 {
		return true, nil
	}

	s.roadMu.Lock()
	defer s.roadMu.Unlock()

	center := s.currentCenter()
	prepared := make([]*preparedRoad, len(roads))
	errs := make([]error, len(roads))

	var g errgroup.Group
	g.SetLimit(s.workers(len(roads)))
	for i, r := range roads {
		g.Go(func() error {
			prepared[i], errs[i] = s.prepareRoad(r, center)
			return nil
		})
	}
	_ = g.Wait()

	all := true
	for _, pr := range prepared {
		if pr == nil {
			all = false
			continue
		}
		all = s.insertPrepared(pr) && all
	}
	return all, errors.Join(errs...)
}

// UpdateRoads replaces many roads; the result is true only if every road
// was known and replaced.
func (s *Store) UpdateRoads(roads []*Road) (bool, error) {
	return each(roads, s.UpdateRoad)
}

// RemoveRoads removes many roads with the cascade of RemoveRoad.
func (s *Store) RemoveRoads(ids []RoadID, withLinks bool) bool {
	return eachOK(ids, func(id RoadID) bool { return s.RemoveRoad(id, withLinks) })
}

// InsertLaneLinks inserts many links; the result is true only if all were
// inserted.
func (s *Store) InsertLaneLinks(links []*LaneLink) (bool, error) {
	return each(links, s.InsertLaneLink)
}

// UpdateLaneLinks replaces many links.
func (s *Store) UpdateLaneLinks(links []*LaneLink) (bool, error) {
	return each(links, s.UpdateLaneLink)
}

// RemoveLaneLinks removes many links.
func (s *Store) RemoveLaneLinks(ids []LinkID) bool {
	return eachOK(ids, s.RemoveLaneLink)
}

// InsertObjects inserts many objects; the result is true only if all were
// inserted.
func (s *Store) InsertObjects(objects []*Object) (bool, error) {
	return each(objects, s.InsertObject)
}

// UpdateObjects replaces many objects.
func (s *Store) UpdateObjects(objects []*Object) (bool, error) {
	return each(objects, s.UpdateObject)
}

// RemoveObjects removes many objects.
func (s *Store) RemoveObjects(ids []ObjectID) bool {
	return eachOK(ids, s.RemoveObject)
}

// InsertJunctions inserts many junctions; the result is true only if all
// were inserted.
func (s *Store) InsertJunctions(junctions []*Junction) bool {
	return eachOK(junctions, s.InsertJunction)
}

// UpdateJunctions replaces many junctions.
func (s *Store) UpdateJunctions(junctions []*Junction) bool {
	return eachOK(junctions, s.UpdateJunction)
}

// RemoveJunctions removes many junctions.
func (s *Store) RemoveJunctions(ids []JunctionID) bool {
	return eachOK(ids, s.RemoveJunction)
}

// each applies f to every item, ANDs the results and joins the errors.
// Later items are still attempted after a failure.
func each[T any](items []T, f func(T) (bool, error)) (bool, error) {
	all := true
	var errs []error
	for _, it := range items {
		ok, err := f(it)
		if err != nil {
			errs = append(errs, err)
		}
		all = ok && all
	}
	return all, errors.Join(errs...)
}

func eachOK[T any](items []T, f func(T) bool) bool {
	all := true
	for _, it := range items {
		all = f(it) && all
	}
	return all
}

func (s *Store) workers(jobs int) int {
	n := s.opts.Workers
	if n <= 0 {
		n = runtime.NumCPU()
	}
	return min(n, jobs)
}
