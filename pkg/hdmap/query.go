package hdmap

import (
	"math"
	"slices"

	"github.com/beetlebugorg/hdmap/internal/geom"
)

// QueryOption refines a spatial query.
type QueryOption func(*queryConfig)

type queryConfig struct {
	yaw         float64
	hasYaw      bool
	laneTypes   []LaneType
	objectTypes []ObjectType
}

// WithYaw supplies a heading in radians. Nearest-lane queries penalize lanes
// pointing elsewhere; searches drop lanes outside YawToleranceDeg.
func WithYaw(yaw float64) QueryOption {
	return func(c *queryConfig) { c.yaw, c.hasYaw = yaw, true }
}

// WithLaneTypes restricts lane queries to the given types.
func WithLaneTypes(types ...LaneType) QueryOption {
	return func(c *queryConfig) { c.laneTypes = append(c.laneTypes, types...) }
}

// WithObjectTypes restricts object searches to the given types.
func WithObjectTypes(types ...ObjectType) QueryOption {
	return func(c *queryConfig) { c.objectTypes = append(c.objectTypes, types...) }
}

func newQueryConfig(opts []QueryOption) queryConfig {
	var c queryConfig
	for _, o := range opts {
		o(&c)
	}
	return c
}

func (c queryConfig) laneAllowed(t LaneType) bool {
	return len(c.laneTypes) == 0 || slices.Contains(c.laneTypes, t)
}

func (c queryConfig) objectAllowed(t ObjectType) bool {
	return len(c.objectTypes) == 0 || slices.Contains(c.objectTypes, t)
}

// LaneHit is the result of a nearest-lane query. S and L are the station
// and signed lateral offset (left positive) on the lane's center line.
type LaneHit struct {
	Lane     LaneKey
	Distance float64
	S        float64
	L        float64
}

// LinkHit is the result of a nearest-link query.
type LinkHit struct {
	Link     LinkID
	Distance float64
	S        float64
}

// yawPenalty grows with the heading mismatch and is capped, so a heading
// never outweighs a large distance difference.
func (s *Store) yawPenalty(want, got float64) float64 {
	d := geom.NormalizeAngle(want - got)
	return math.Min(s.tol.YawPenaltyCap, s.tol.YawPenaltyWeight*math.Abs(math.Sin(d/2)))
}

// NearestLane returns the lane closest to p within radius.
//
// Candidates come from the lane index and are scored by the distance to
// their center line over the touched vertex range, plus the heading penalty
// when WithYaw is given. A lane starting exactly at p wins immediately.
func (s *Store) NearestLane(p Point, radius float64, opts ...QueryOption) (LaneHit, bool) {
	cfg := newQueryConfig(opts)
	center := s.currentCenter()
	hits := s.index.lanes.Search(s.radiusEnvelope(p, radius, center))
	if len(hits) == 0 {
		return LaneHit{}, false
	}

	s.roadMu.RLock()
	defer s.roadMu.RUnlock()

	var best LaneHit
	bestScore := math.Inf(1)
	for _, h := range hits {
		rec, ok := s.lanes[h.Key]
		if !ok || rec.center.Empty() || !cfg.laneAllowed(rec.lane.Type) {
			continue
		}
		c := rec.center
		if d, _, _, _ := c.DistanceInRange(p, 0, 0); d <= s.tol.ExactMatchDistance {
			return LaneHit{Lane: h.Key, Distance: d}, true
		}
		d, st, yaw, err := c.DistanceInRange(p, h.Range[0]-1, h.Range[1]+1)
		if err != nil || d > radius {
			continue
		}
		score := d
		if cfg.hasYaw {
			score += s.yawPenalty(cfg.yaw, yaw)
		}
		if score < bestScore {
			bestScore = score
			best = LaneHit{Lane: h.Key, Distance: d, S: st}
		}
	}
	if math.IsInf(bestScore, 1) {
		return LaneHit{}, false
	}
	if rec := s.lanes[best.Lane]; rec != nil {
		if _, l, _, ok := rec.center.XYToSL(p.X, p.Y); ok {
			best.L = l
		}
	}
	return best, true
}

// NearestLaneLink returns the lane link closest to p within radius.
func (s *Store) NearestLaneLink(p Point, radius float64) (LinkHit, bool) {
	center := s.currentCenter()
	hits := s.index.links.Search(s.radiusEnvelope(p, radius, center))
	if len(hits) == 0 {
		return LinkHit{}, false
	}

	s.linkMu.RLock()
	defer s.linkMu.RUnlock()

	var best LinkHit
	found := false
	for _, h := range hits {
		l, ok := s.links[h.Key]
		if !ok {
			continue
		}
		if d, _, _, _ := l.Geometry.DistanceInRange(p, 0, 0); d <= s.tol.ExactMatchDistance {
			return LinkHit{Link: h.Key, Distance: d}, true
		}
		d, st, _, err := l.Geometry.DistanceInRange(p, h.Range[0]-1, h.Range[1]+1)
		if err != nil || d > radius {
			continue
		}
		if !found || d < best.Distance {
			best, found = LinkHit{Link: h.Key, Distance: d, S: st}, true
		}
	}
	return best, found
}

// SearchLanes returns the lanes with center-line segments inside env,
// ordered by key.
func (s *Store) SearchLanes(env Envelope, opts ...QueryOption) []LaneKey {
	cfg := newQueryConfig(opts)
	hits := s.index.lanes.Search(s.indexEnvelope(env, s.currentCenter()))

	s.roadMu.RLock()
	defer s.roadMu.RUnlock()

	mid := Point{X: (env.Min[0] + env.Max[0]) / 2, Y: (env.Min[1] + env.Max[1]) / 2}
	var out []LaneKey
	for _, h := range hits {
		rec, ok := s.lanes[h.Key]
		if !ok || !cfg.laneAllowed(rec.lane.Type) {
			continue
		}
		if cfg.hasYaw {
			_, _, yaw, err := rec.center.DistanceInRange(mid, h.Range[0], h.Range[1])
			if err != nil || math.Abs(geom.NormalizeAngle(cfg.yaw-yaw)) > rad(s.tol.YawToleranceDeg) {
				continue
			}
		}
		out = append(out, h.Key)
	}
	slices.SortFunc(out, compareKeys)
	return out
}

// SearchRoads returns the roads with a lane inside env, ordered by id.
func (s *Store) SearchRoads(env Envelope, opts ...QueryOption) []RoadID {
	var out []RoadID
	for _, k := range s.SearchLanes(env, opts...) {
		if len(out) == 0 || out[len(out)-1] != k.Road {
			out = append(out, k.Road)
		}
	}
	return out
}

// SearchBoundaries returns the boundaries of lanes found in env whose own
// envelope intersects env, ordered by id.
func (s *Store) SearchBoundaries(env Envelope, opts ...QueryOption) []BoundaryID {
	keys := s.SearchLanes(env, opts...)

	s.roadMu.RLock()
	defer s.roadMu.RUnlock()

	seen := make(map[BoundaryID]bool)
	var out []BoundaryID
	for _, k := range keys {
		rec, ok := s.lanes[k]
		if !ok {
			continue
		}
		for _, id := range [2]BoundaryID{rec.lane.LeftBoundary, rec.lane.RightBoundary} {
			b, ok := s.boundaries[id]
			if !ok || seen[id] {
				continue
			}
			seen[id] = true
			if be, ok := b.boundary.Geometry.Envelope(); ok && be.Intersects(env) {
				out = append(out, id)
			}
		}
	}
	slices.Sort(out)
	return out
}

// SearchObjects returns the objects inside env, ordered by id.
func (s *Store) SearchObjects(env Envelope, opts ...QueryOption) []ObjectID {
	cfg := newQueryConfig(opts)
	keys := s.index.objects.SearchKeys(s.indexEnvelope(env, s.currentCenter()))

	s.objectMu.RLock()
	defer s.objectMu.RUnlock()

	var out []ObjectID
	for _, id := range keys {
		if o, ok := s.objects[id]; ok && cfg.objectAllowed(o.Type) {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}
