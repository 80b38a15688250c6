package mapfile

import (
	"fmt"
	"strings"

	"github.com/beetlebugorg/hdmap/pkg/hdmap"
)

type builder struct {
	cs hdmap.CoordSystem
}

func (b builder) point(v []float64) (hdmap.Point, error) {
	switch len(v) {
	case 2:
		return hdmap.Point{X: v[0], Y: v[1]}, nil
	case 3:
		return hdmap.Point{X: v[0], Y: v[1], Z: v[2]}, nil
	}
	return hdmap.Point{}, fmt.Errorf("point %v: want 2 or 3 coordinates", v)
}

// curve returns nil for an empty point list.
func (b builder) curve(pts [][]float64) (*hdmap.Curve, error) {
	if len(pts) == 0 {
		return nil, nil
	}
	out := make([]hdmap.Point, len(pts))
	for i, v := range pts {
		p, err := b.point(v)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return hdmap.NewCurve(out, b.cs), nil
}

func (b builder) road(d *RoadDoc) (*hdmap.Road, error) {
	typ, err := parseEnum("road type", d.Type, hdmap.RoadUnknown, hdmap.RoadRural, hdmap.RoadUrban, hdmap.RoadMotorway, hdmap.RoadTown)
	if err != nil {
		return nil, err
	}
	g, err := b.curve(d.Geometry)
	if err != nil {
		return nil, err
	}
	r := &hdmap.Road{
		ID:         hdmap.RoadID(d.ID),
		Name:       d.Name,
		Type:       typ,
		SpeedLimit: d.SpeedLimit,
		Geometry:   g,
	}
	for i := range d.Boundaries {
		bd, err := b.boundary(&d.Boundaries[i])
		if err != nil {
			return nil, fmt.Errorf("boundary %d: %w", d.Boundaries[i].ID, err)
		}
		r.Boundaries = append(r.Boundaries, bd)
	}
	for _, sd := range d.Sections {
		sec := &hdmap.Section{ID: hdmap.SectionID(sd.ID), Road: r.ID}
		for i := range sd.Lanes {
			l, err := b.lane(&sd.Lanes[i])
			if err != nil {
				return nil, fmt.Errorf("section %d lane %d: %w", sd.ID, sd.Lanes[i].ID, err)
			}
			l.Key.Road, l.Key.Section = r.ID, sec.ID
			sec.Lanes = append(sec.Lanes, l)
		}
		r.Sections = append(r.Sections, sec)
	}
	if j := d.Junction; j != nil {
		turn, err := parseEnum("turn", j.Turn, hdmap.TurnUnknown, hdmap.TurnStraight, hdmap.TurnLeft, hdmap.TurnRight, hdmap.TurnUTurn)
		if err != nil {
			return nil, err
		}
		r.Junction = &hdmap.JunctionRoadInfo{
			Junction:     hdmap.JunctionID(j.ID),
			Turn:         turn,
			Entrance:     hdmap.RoadID(j.Entrance),
			Exit:         hdmap.RoadID(j.Exit),
			TrafficLight: j.TrafficLight,
			StopLine:     j.StopLine,
		}
	}
	return r, nil
}

func (b builder) lane(d *LaneDoc) (*hdmap.Lane, error) {
	typ, err := parseEnum("lane type", d.Type,
		hdmap.LaneUnknown, hdmap.LaneDriving, hdmap.LaneBiking, hdmap.LaneSidewalk,
		hdmap.LaneParking, hdmap.LaneShoulder, hdmap.LaneBus, hdmap.LaneMedian)
	if err != nil {
		return nil, err
	}
	var arrow hdmap.LaneArrow
	for _, a := range d.Arrows {
		switch strings.ToLower(a) {
		case "straight":
			arrow |= hdmap.ArrowStraight
		case "left":
			arrow |= hdmap.ArrowLeft
		case "right":
			arrow |= hdmap.ArrowRight
		case "uturn":
			arrow |= hdmap.ArrowUTurn
		default:
			return nil, fmt.Errorf("unknown arrow %q", a)
		}
	}
	g, err := b.curve(d.Geometry)
	if err != nil {
		return nil, err
	}
	return &hdmap.Lane{
		Key:           hdmap.LaneKey{Lane: hdmap.LaneID(d.ID)},
		Geometry:      g,
		LeftBoundary:  hdmap.BoundaryID(d.Left),
		RightBoundary: hdmap.BoundaryID(d.Right),
		Type:          typ,
		Arrow:         arrow,
		SpeedLimit:    d.SpeedLimit,
		Friction:      d.Friction,
		Width:         d.Width,
	}, nil
}

func (b builder) boundary(d *BoundaryDoc) (*hdmap.LaneBoundary, error) {
	mark, err := parseEnum("mark", d.Mark,
		hdmap.MarkNone, hdmap.MarkSolid, hdmap.MarkBroken, hdmap.MarkDoubleSolid, hdmap.MarkSolidBroken,
		hdmap.MarkBrokenSolid, hdmap.MarkCurb, hdmap.MarkFence, hdmap.MarkVirtual, hdmap.MarkShielded)
	if err != nil {
		return nil, err
	}
	g, err := b.curve(d.Geometry)
	if err != nil {
		return nil, err
	}
	return &hdmap.LaneBoundary{
		ID:         hdmap.BoundaryID(d.ID),
		Geometry:   g,
		Mark:       mark,
		Width:      d.Width,
		DashLength: d.DashLength,
		Space:      d.Space,
	}, nil
}

func (b builder) link(d *LinkDoc) (*hdmap.LaneLink, error) {
	l := &hdmap.LaneLink{
		ID:        hdmap.LinkID(d.ID),
		From:      laneKey(d.From),
		To:        laneKey(d.To),
		Junction:  hdmap.JunctionID(d.Junction),
		Curvature: profile(d.Curvature),
		Slope:     profile(d.Slope),
	}
	var err error
	if l.Geometry, err = b.curve(d.Geometry); err != nil {
		return nil, err
	}
	if l.LeftBoundary, err = b.curve(d.Left); err != nil {
		return nil, err
	}
	if l.RightBoundary, err = b.curve(d.Right); err != nil {
		return nil, err
	}
	return l, nil
}

func (b builder) object(d *ObjectDoc) (*hdmap.Object, error) {
	typ, err := parseEnum("object type", d.Type,
		hdmap.ObjectOther, hdmap.ObjectSign, hdmap.ObjectTrafficLight, hdmap.ObjectParkingSpace,
		hdmap.ObjectObstacle, hdmap.ObjectCrosswalk, hdmap.ObjectStopLine, hdmap.ObjectPole)
	if err != nil {
		return nil, err
	}
	o := &hdmap.Object{ID: hdmap.ObjectID(d.ID), Type: typ, Name: d.Name, Pose: hdmap.Pose{Yaw: d.Yaw}}
	if len(d.Position) > 0 {
		if o.Pose.Position, err = b.point(d.Position); err != nil {
			return nil, err
		}
	}
	for _, outline := range d.Outlines {
		c, err := b.curve(outline)
		if err != nil {
			return nil, err
		}
		if c != nil {
			o.Geometries = append(o.Geometries, c)
		}
	}
	for _, ref := range d.Lanes {
		o.RelatedLanes = append(o.RelatedLanes, laneKey(ref))
	}
	if len(d.Position) == 0 && len(o.Geometries) == 0 {
		return nil, fmt.Errorf("object needs a position or an outline")
	}
	return o, nil
}

func (b builder) junction(d *JunctionDoc) *hdmap.Junction {
	j := &hdmap.Junction{ID: hdmap.JunctionID(d.ID)}
	for _, r := range d.Roads {
		j.Roads = append(j.Roads, hdmap.RoadID(r))
	}
	j.EntranceYaw = yaws(d.EntranceYaw)
	j.ExitYaw = yaws(d.ExitYaw)
	for _, c := range d.Controllers {
		ctl := hdmap.Controller{ID: c.ID, Name: c.Name}
		for _, s := range c.Signals {
			ctl.Signals = append(ctl.Signals, hdmap.ObjectID(s))
		}
		j.Controllers = append(j.Controllers, ctl)
	}
	return j
}

func laneKey(r LaneRef) hdmap.LaneKey {
	return hdmap.LaneKey{Road: hdmap.RoadID(r.Road), Section: hdmap.SectionID(r.Section), Lane: hdmap.LaneID(r.Lane)}
}

func profile(samples [][2]float64) []hdmap.ProfileSample {
	if len(samples) == 0 {
		return nil
	}
	out := make([]hdmap.ProfileSample, len(samples))
	for i, s := range samples {
		out[i] = hdmap.ProfileSample{S: s[0], Value: s[1]}
	}
	return out
}

func yaws(m map[uint64]float64) map[hdmap.RoadID]float64 {
	if len(m) == 0 {
		return nil
	}
	out := make(map[hdmap.RoadID]float64, len(m))
	for k, v := range m {
		out[hdmap.RoadID(k)] = v
	}
	return out
}

// parseEnum matches name against the String() of each value. An empty name
// selects the first value.
func parseEnum[T fmt.Stringer](kind, name string, values ...T) (T, error) {
	if name == "" {
		return values[0], nil
	}
	want := strings.ToLower(strings.TrimSpace(name))
	for _, v := range values {
		if v.String() == want {
			return v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("unknown %s %q", kind, name)
}
