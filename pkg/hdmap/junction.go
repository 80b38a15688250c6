package hdmap

import (
	"math"
	"slices"

	"github.com/beetlebugorg/hdmap/internal/geom"
)

// Junction is an intersection and the junction roads through it.
type Junction struct {
	ID JunctionID

	// Roads lists the junction roads. Roads inserted with a JunctionRoadInfo
	// naming this junction are added automatically.
	Roads []RoadID

	// EntranceYaw and ExitYaw override the headings derived from a junction
	// road's geometry, in radians.
	EntranceYaw map[RoadID]float64
	ExitYaw     map[RoadID]float64

	Controllers []Controller
}

// Controller is a signal controller governing a junction.
type Controller struct {
	ID      uint64
	Name    string
	Signals []ObjectID
}

// Clone returns a deep copy of the junction.
func (j *Junction) Clone() *Junction {
	if j == nil {
		return nil
	}
	out := *j
	out.Roads = append([]RoadID(nil), j.Roads...)
	out.EntranceYaw = cloneYaws(j.EntranceYaw)
	out.ExitYaw = cloneYaws(j.ExitYaw)
	out.Controllers = make([]Controller, len(j.Controllers))
	for i, c := range j.Controllers {
		c.Signals = append([]ObjectID(nil), c.Signals...)
		out.Controllers[i] = c
	}
	return &out
}

func cloneYaws(m map[RoadID]float64) map[RoadID]float64 {
	if m == nil {
		return nil
	}
	out := make(map[RoadID]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ClassifyTurn classifies the manoeuvre between an entrance and an exit
// heading (radians) with the default thresholds.
func ClassifyTurn(entranceYaw, exitYaw float64) TurnDirection {
	return DefaultTolerances().ClassifyTurn(entranceYaw, exitYaw)
}

// ClassifyTurn classifies the manoeuvre between an entrance and an exit
// heading (radians): within StraightThresholdDeg it is straight, beyond
// UTurnThresholdDeg a U-turn, otherwise left or right by the sign of the
// heading change.
func (t Tolerances) ClassifyTurn(entranceYaw, exitYaw float64) TurnDirection {
	d := geom.NormalizeAngle(exitYaw - entranceYaw)
	switch {
	case math.Abs(d) < rad(t.StraightThresholdDeg):
		return TurnStraight
	case math.Abs(d) > rad(t.UTurnThresholdDeg):
		return TurnUTurn
	case d > 0:
		return TurnLeft
	default:
		return TurnRight
	}
}

// junctionRoad is a junction road as registered in its junction.
type junctionRoad struct {
	id          RoadID
	info        JunctionRoadInfo
	entranceYaw float64
	exitYaw     float64

	// classified is set when Turn was derived rather than given.
	classified bool
}

// junctionRecord is the stored form of a junction.
type junctionRecord struct {
	junction *Junction

	// placeholder is set while only junction roads, not the junction
	// itself, have been inserted.
	placeholder bool

	roads map[RoadID]*junctionRoad
	rel   map[RoadID]map[RoadID]Priority
}

func newJunctionRecord(j *Junction, placeholder bool) *junctionRecord {
	return &junctionRecord{
		junction:    j,
		placeholder: placeholder,
		roads:       make(map[RoadID]*junctionRoad),
		rel:         make(map[RoadID]map[RoadID]Priority),
	}
}

// register adds or replaces a junction road and recomputes its relations.
// It returns the road's turn direction, classified if none was given.
func (r *junctionRecord) register(jr *junctionRoad, tol Tolerances) TurnDirection {
	r.unregister(jr.id)
	jr.classified = jr.info.Turn == TurnUnknown
	r.applyOverrides(jr, tol)
	r.roads[jr.id] = jr
	r.relate(jr, tol)
	return jr.info.Turn
}

func (r *junctionRecord) unregister(id RoadID) {
	delete(r.roads, id)
	delete(r.rel, id)
	for _, m := range r.rel {
		delete(m, id)
	}
}

func (r *junctionRecord) applyOverrides(jr *junctionRoad, tol Tolerances) {
	if y, ok := r.junction.EntranceYaw[jr.id]; ok {
		jr.entranceYaw = y
	}
	if y, ok := r.junction.ExitYaw[jr.id]; ok {
		jr.exitYaw = y
	}
	if jr.classified {
		jr.info.Turn = tol.ClassifyTurn(jr.entranceYaw, jr.exitYaw)
	}
}

func (r *junctionRecord) relate(jr *junctionRoad, tol Tolerances) {
	for id, other := range r.roads {
		if id == jr.id {
			continue
		}
		p := priority(jr, other, tol)
		r.set(jr.id, id, p)
		r.set(id, jr.id, p.invert())
	}
}

func (r *junctionRecord) set(a, b RoadID, p Priority) {
	m, ok := r.rel[a]
	if !ok {
		m = make(map[RoadID]Priority)
		r.rel[a] = m
	}
	m[b] = p
}

// rebuild recomputes every relation, after the junction's overrides change.
func (r *junctionRecord) rebuild(tol Tolerances) {
	r.rel = make(map[RoadID]map[RoadID]Priority)
	for _, jr := range r.roads {
		r.applyOverrides(jr, tol)
	}
	for _, jr := range r.roads {
		r.relate(jr, tol)
	}
}

// snapshot returns the junction with its registered roads merged in.
func (r *junctionRecord) snapshot() *Junction {
	j := r.junction.Clone()
	for id := range r.roads {
		if !slices.Contains(j.Roads, id) {
			j.Roads = append(j.Roads, id)
		}
	}
	slices.Sort(j.Roads)
	return j
}

// interacts applies the right-of-way conflict rules.
func interacts(a, b *junctionRoad, tol Tolerances) bool {
	if a.info.Entrance != 0 && a.info.Entrance == b.info.Entrance {
		return false
	}
	if a.info.Exit != 0 && a.info.Exit == b.info.Exit {
		return true
	}
	d := math.Abs(geom.NormalizeAngle(a.entranceYaw - b.entranceYaw))
	switch {
	case d > rad(tol.OpposingThresholdDeg):
		return crossesOncoming(a.info.Turn) || crossesOncoming(b.info.Turn)
	case d < rad(tol.StraightThresholdDeg):
		return false
	default:
		return a.info.Turn != TurnRight && b.info.Turn != TurnRight
	}
}

func crossesOncoming(t TurnDirection) bool {
	return t == TurnLeft || t == TurnUTurn
}

// priority is a's right of way over b.
func priority(a, b *junctionRoad, tol Tolerances) Priority {
	if !interacts(a, b, tol) {
		return PriorityNone
	}
	ra, rb := a.info.Turn.rank(), b.info.Turn.rank()
	switch {
	case ra == rb:
		return PrioritySame
	case ra > rb:
		return PriorityHigh
	default:
		return PriorityLow
	}
}
