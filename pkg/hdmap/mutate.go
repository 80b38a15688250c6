package hdmap

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/beetlebugorg/hdmap/internal/geom"
	"go.uber.org/zap"
)

// InsertLaneLink stores and indexes a lane link. A link whose id is already
// present returns false. A link without geometry is a *GeometryError.
func (s *Store) InsertLaneLink(l *LaneLink) (bool, error) {
	s.linkMu.Lock()
	defer s.linkMu.Unlock()

	link, err := s.prepareLink(l)
	if err != nil {
		return false, err
	}
	return s.insertLinkLocked(link)
}

// UpdateLaneLink replaces a stored link. It returns false if the link is
// unknown.
func (s *Store) UpdateLaneLink(l *LaneLink) (bool, error) {
	s.linkMu.Lock()
	defer s.linkMu.Unlock()

	link, err := s.prepareLink(l)
	if err != nil {
		return false, err
	}
	if _, ok := s.links[link.ID]; !ok {
		return false, nil
	}
	removed := s.removeLinkLocked(link.ID)
	ok, err := s.insertLinkLocked(link)
	return ok && removed, err
}

// RemoveLaneLink deletes a link.
func (s *Store) RemoveLaneLink(id LinkID) bool {
	s.linkMu.Lock()
	defer s.linkMu.Unlock()
	if _, ok := s.links[id]; !ok {
		return false
	}
	ok := s.removeLinkLocked(id)
	s.bump()
	return ok
}

func (s *Store) prepareLink(l *LaneLink) (*LaneLink, error) {
	if l == nil {
		return nil, errors.New("hdmap: nil lane link")
	}
	link := l.Clone()
	if link.Geometry.Empty() {
		return nil, &GeometryError{Entity: "lane link", ID: uint64(link.ID), Err: geom.ErrEmptyCurve}
	}
	center := s.currentCenter()
	for _, c := range link.curves() {
		if err := s.adopt(c, center); err != nil {
			return nil, &GeometryError{Entity: "lane link", ID: uint64(link.ID), Err: err}
		}
	}
	return link, nil
}

func (s *Store) insertLinkLocked(link *LaneLink) (bool, error) {
	if _, ok := s.links[link.ID]; ok {
		s.log.Debug("duplicate lane link", zap.Uint64("link", uint64(link.ID)))
		return false, nil
	}
	pts := s.indexPoints(link.Geometry.Points(), s.currentCenter())
	if _, err := s.index.links.Insert(pts, link.ID); err != nil {
		return false, &GeometryError{Entity: "lane link", ID: uint64(link.ID), Err: err}
	}
	s.links[link.ID] = link
	s.linksFrom[link.From] = append(s.linksFrom[link.From], link.ID)
	s.linksTo[link.To] = append(s.linksTo[link.To], link.ID)
	s.bump()
	return true, nil
}

func (s *Store) removeLinkLocked(id LinkID) bool {
	link := s.links[id]
	ok := s.index.links.Remove(id)
	s.linksFrom[link.From] = without(s.linksFrom[link.From], id)
	if len(s.linksFrom[link.From]) == 0 {
		delete(s.linksFrom, link.From)
	}
	s.linksTo[link.To] = without(s.linksTo[link.To], id)
	if len(s.linksTo[link.To]) == 0 {
		delete(s.linksTo, link.To)
	}
	delete(s.links, id)
	return ok
}

// removeLinksOfRoad deletes every link starting or ending on road.
func (s *Store) removeLinksOfRoad(road RoadID) bool {
	s.linkMu.Lock()
	defer s.linkMu.Unlock()
	ok := true
	for id, l := range s.links {
		if l.From.Road == road || l.To.Road == road {
			ok = s.removeLinkLocked(id) && ok
		}
	}
	return ok
}

func without[T comparable](s []T, v T) []T {
	return slices.DeleteFunc(s, func(x T) bool { return x == v })
}

// LaneLink returns a copy of the link.
func (s *Store) LaneLink(id LinkID) (*LaneLink, bool) {
	s.linkMu.RLock()
	defer s.linkMu.RUnlock()
	l, ok := s.links[id]
	return l.Clone(), ok
}

// LaneLinks returns copies of every link, ordered by id.
func (s *Store) LaneLinks() []*LaneLink {
	s.linkMu.RLock()
	defer s.linkMu.RUnlock()
	out := make([]*LaneLink, 0, len(s.links))
	for _, id := range slices.Sorted(maps.Keys(s.links)) {
		out = append(out, s.links[id].Clone())
	}
	return out
}

// InsertObject stores and indexes an object. Its first geometry is indexed,
// or its pose when it has none. An object whose id is already present
// returns false.
func (s *Store) InsertObject(o *Object) (bool, error) {
	s.objectMu.Lock()
	defer s.objectMu.Unlock()

	obj, err := s.prepareObject(o)
	if err != nil {
		return false, err
	}
	return s.insertObjectLocked(obj)
}

// UpdateObject replaces a stored object. It returns false if the object is
// unknown.
func (s *Store) UpdateObject(o *Object) (bool, error) {
	s.objectMu.Lock()
	defer s.objectMu.Unlock()

	obj, err := s.prepareObject(o)
	if err != nil {
		return false, err
	}
	if _, ok := s.objects[obj.ID]; !ok {
		return false, nil
	}
	removed := s.removeObjectLocked(obj.ID)
	ok, err := s.insertObjectLocked(obj)
	return ok && removed, err
}

// RemoveObject deletes an object.
func (s *Store) RemoveObject(id ObjectID) bool {
	s.objectMu.Lock()
	defer s.objectMu.Unlock()
	if _, ok := s.objects[id]; !ok {
		return false
	}
	ok := s.removeObjectLocked(id)
	s.bump()
	return ok
}

func (s *Store) prepareObject(o *Object) (*Object, error) {
	if o == nil {
		return nil, errors.New("hdmap: nil object")
	}
	obj := o.Clone()
	center := s.currentCenter()
	for i, g := range obj.Geometries {
		if err := s.adopt(g, center); err != nil {
			return nil, &GeometryError{Entity: "object", ID: uint64(obj.ID), Err: fmt.Errorf("geometry %d: %w", i, err)}
		}
	}
	return obj, nil
}

func (s *Store) insertObjectLocked(obj *Object) (bool, error) {
	if _, ok := s.objects[obj.ID]; ok {
		s.log.Debug("duplicate object", zap.Uint64("object", uint64(obj.ID)))
		return false, nil
	}
	pts := []Point{obj.Pose.Position}
	if len(obj.Geometries) > 0 && !obj.Geometries[0].Empty() {
		pts = obj.Geometries[0].Points()
	}
	if _, err := s.index.objects.Insert(s.indexPoints(pts, s.currentCenter()), obj.ID); err != nil {
		return false, &GeometryError{Entity: "object", ID: uint64(obj.ID), Err: err}
	}
	s.objects[obj.ID] = obj
	for _, r := range obj.relatedRoads() {
		m, ok := s.objectsByRoad[r]
		if !ok {
			m = make(map[ObjectID]struct{})
			s.objectsByRoad[r] = m
		}
		m[obj.ID] = struct{}{}
	}
	s.bump()
	return true, nil
}

func (s *Store) removeObjectLocked(id ObjectID) bool {
	obj := s.objects[id]
	ok := s.index.objects.Remove(id)
	for _, r := range obj.relatedRoads() {
		if m, found := s.objectsByRoad[r]; found {
			delete(m, id)
			if len(m) == 0 {
				delete(s.objectsByRoad, r)
			}
		}
	}
	delete(s.objects, id)
	return ok
}

// removeObjectsOfRoad deletes the objects of a removed road that relate to
// no road still in the store.
func (s *Store) removeObjectsOfRoad(road RoadID) bool {
	s.roadMu.RLock()
	defer s.roadMu.RUnlock()
	s.objectMu.Lock()
	defer s.objectMu.Unlock()
	ok := true
	for id := range s.objectsByRoad[road] {
		live := slices.ContainsFunc(s.objects[id].relatedRoads(), func(r RoadID) bool {
			_, found := s.roads[r]
			return found
		})
		if !live {
			ok = s.removeObjectLocked(id) && ok
		}
	}
	delete(s.objectsByRoad, road)
	return ok
}

// Object returns a copy of the object.
func (s *Store) Object(id ObjectID) (*Object, bool) {
	s.objectMu.RLock()
	defer s.objectMu.RUnlock()
	o, ok := s.objects[id]
	return o.Clone(), ok
}

// Objects returns copies of every object, ordered by id.
func (s *Store) Objects() []*Object {
	s.objectMu.RLock()
	defer s.objectMu.RUnlock()
	out := make([]*Object, 0, len(s.objects))
	for _, id := range slices.Sorted(maps.Keys(s.objects)) {
		out = append(out, s.objects[id].Clone())
	}
	return out
}

// ObjectsOnRoad returns the objects related to any lane of road.
func (s *Store) ObjectsOnRoad(road RoadID) []ObjectID {
	s.objectMu.RLock()
	defer s.objectMu.RUnlock()
	return slices.Sorted(maps.Keys(s.objectsByRoad[road]))
}
