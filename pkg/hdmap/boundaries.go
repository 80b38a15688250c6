package hdmap

import (
	"math"

	"github.com/beetlebugorg/hdmap/internal/geom"
)

// Side is the side of a lane a boundary runs along.
type Side int

const (
	SideLeft Side = iota
	SideRight
)

// String returns "left" or "right".
func (s Side) String() string {
	if s == SideLeft {
		return "left"
	}
	return "right"
}

// BoundaryRun is a continuous stretch of one visible lane edge, stitched
// from the boundaries of consecutive lanes.
type BoundaryRun struct {
	Side       Side
	Mark       MarkType
	Boundaries []BoundaryID
	Points     []Point
}

// maxWalk bounds how many lanes a boundary query follows in each direction.
const maxWalk = 64

type lanePiece struct {
	key      LaneKey
	from, to float64
}

// GetLaneBoundaries returns the visible lane edges around pos, from
// backward metres behind to forward metres ahead along the lane graph.
//
// The lane is located with NearestLane using yaw. The walk follows
// NextLanes and PrevLanes, so it crosses sections and, through lane links,
// junctions. Pieces whose ends coincide within AdjacencyTolerance are
// stitched; absent, virtual and shielded marks split runs and are dropped.
func (s *Store) GetLaneBoundaries(pos Point, yaw, forward, backward float64) ([]BoundaryRun, bool) {
	hit, ok := s.NearestLane(pos, s.tol.BoundarySearchRadius, WithYaw(yaw))
	if !ok {
		return nil, false
	}
	pieces := s.walk(hit, math.Max(0, forward), math.Max(0, backward))

	s.roadMu.RLock()
	defer s.roadMu.RUnlock()

	var runs []BoundaryRun
	for _, side := range [2]Side{SideLeft, SideRight} {
		var cur *BoundaryRun
		for _, p := range pieces {
			pts, b := s.cutBoundary(p, side)
			if len(pts) == 0 || !b.Mark.Visible() {
				if cur != nil {
					runs = append(runs, *cur)
					cur = nil
				}
				continue
			}
			if cur != nil && cur.Mark == b.Mark &&
				s.distance(cur.Points[len(cur.Points)-1], pts[0]) <= s.tol.AdjacencyTolerance {
				cur.Points = append(cur.Points, pts[1:]...)
				if last := cur.Boundaries[len(cur.Boundaries)-1]; last != b.ID {
					cur.Boundaries = append(cur.Boundaries, b.ID)
				}
				continue
			}
			if cur != nil {
				runs = append(runs, *cur)
			}
			cur = &BoundaryRun{Side: side, Mark: b.Mark, Boundaries: []BoundaryID{b.ID}, Points: pts}
		}
		if cur != nil {
			runs = append(runs, *cur)
		}
	}
	return runs, true
}

// cutBoundary cuts the boundary on side of the piece's lane over the
// piece's station range, mapped proportionally from the center line. The
// caller holds roadMu.
func (s *Store) cutBoundary(p lanePiece, side Side) ([]Point, *LaneBoundary) {
	rec, ok := s.lanes[p.key]
	if !ok || rec.center.Empty() {
		return nil, nil
	}
	id := rec.lane.LeftBoundary
	if side == SideRight {
		id = rec.lane.RightBoundary
	}
	b, ok := s.boundaries[id]
	if !ok || b.boundary.Geometry.Empty() {
		return nil, nil
	}
	g := b.boundary.Geometry
	scale := 1.0
	if cl := rec.center.Length(); cl > 0 {
		scale = g.Length() / cl
	}
	return g.Cut(p.from*scale, p.to*scale), b.boundary
}

// walk covers backward metres before and forward metres after the hit,
// returning lane pieces in travel order.
func (s *Store) walk(hit LaneHit, forward, backward float64) []lanePiece {
	length := s.laneLength(hit.Lane)
	first := lanePiece{
		key:  hit.Lane,
		from: math.Max(0, hit.S-backward),
		to:   math.Min(length, hit.S+forward),
	}
	visited := map[LaneKey]bool{hit.Lane: true}

	var back []lanePiece
	key, remain := hit.Lane, backward-(hit.S-first.from)
	for remain > geom.DegenerateEpsilon && len(back) < maxWalk {
		next, ok := s.continuation(key, s.PrevLanes(key), false)
		if !ok || visited[next] {
			break
		}
		visited[next], key = true, next
		l := s.laneLength(key)
		from := math.Max(0, l-remain)
		back = append(back, lanePiece{key: key, from: from, to: l})
		remain -= l - from
	}

	pieces := make([]lanePiece, 0, len(back)+1)
	for i := len(back) - 1; i >= 0; i-- {
		pieces = append(pieces, back[i])
	}
	pieces = append(pieces, first)

	key, remain = hit.Lane, forward-(first.to-hit.S)
	for n := 0; remain > geom.DegenerateEpsilon && n < maxWalk; n++ {
		next, ok := s.continuation(key, s.NextLanes(key), true)
		if !ok || visited[next] {
			break
		}
		visited[next], key = true, next
		l := s.laneLength(key)
		to := math.Min(l, remain)
		pieces = append(pieces, lanePiece{key: key, from: 0, to: to})
		remain -= to
	}
	return pieces
}

// continuation picks the candidate whose heading best continues key's.
func (s *Store) continuation(key LaneKey, cands []LaneKey, forward bool) (LaneKey, bool) {
	if len(cands) == 0 {
		return LaneKey{}, false
	}
	s.roadMu.RLock()
	defer s.roadMu.RUnlock()

	rec, ok := s.lanes[key]
	if !ok || rec.center.Empty() {
		return cands[0], true
	}
	at := rec.center.Yaw(rec.center.Len() - 1)
	if !forward {
		at = rec.center.Yaw(0)
	}
	best, bestD := cands[0], math.Inf(1)
	for _, k := range cands {
		o, ok := s.lanes[k]
		if !ok || o.center.Empty() {
			continue
		}
		y := o.center.Yaw(0)
		if !forward {
			y = o.center.Yaw(o.center.Len() - 1)
		}
		if d := math.Abs(geom.NormalizeAngle(y - at)); d < bestD {
			best, bestD = k, d
		}
	}
	return best, true
}

func (s *Store) laneLength(key LaneKey) float64 {
	s.roadMu.RLock()
	defer s.roadMu.RUnlock()
	if rec, ok := s.lanes[key]; ok && !rec.center.Empty() {
		return rec.center.Length()
	}
	return 0
}
