package hdmap

// Road is an ordered run of sections sharing a reference line.
//
// Roads handed to the store are deep-copied; the store never keeps caller
// pointers. Roads returned by the store are copies too.
type Road struct {
	ID         RoadID
	Name       string
	Type       RoadType
	SpeedLimit float64

	// Sections are ordered along the road's reference direction.
	Sections []*Section

	// Geometry is the optional reference line of the whole road.
	Geometry *Curve

	// Boundaries holds every boundary referenced by the road's lanes.
	Boundaries []*LaneBoundary

	// Junction is set for roads that run through an intersection.
	Junction *JunctionRoadInfo
}

// Section is a stretch of road with a constant lane layout.
type Section struct {
	ID    SectionID
	Road  RoadID
	Lanes []*Lane
}

// Lane is one lane of a section. Its geometry and boundaries run in the
// lane's direction of travel.
type Lane struct {
	// Key is filled in by the store from the enclosing road and section;
	// only Key.Lane is read on insert.
	Key LaneKey

	Geometry      *Curve
	LeftBoundary  BoundaryID
	RightBoundary BoundaryID

	Type       LaneType
	Arrow      LaneArrow
	SpeedLimit float64
	Friction   float64
	Width      float64
}

// LaneBoundary is a painted or physical lane edge.
type LaneBoundary struct {
	ID         BoundaryID
	Geometry   *Curve
	Mark       MarkType
	Width      float64
	DashLength float64
	Space      float64
}

// JunctionRoadInfo specializes a road into a path through a junction.
type JunctionRoadInfo struct {
	Junction JunctionID

	// Turn is classified from the road's geometry when left as TurnUnknown.
	Turn TurnDirection

	Entrance RoadID
	Exit     RoadID

	TrafficLight bool
	StopLine     bool
}

// IsJunction reports whether the road runs through a junction.
func (r *Road) IsJunction() bool { return r.Junction != nil }

// Lane returns the lane with the given id, or nil.
func (s *Section) Lane(id LaneID) *Lane {
	for _, l := range s.Lanes {
		if l.Key.Lane == id {
			return l
		}
	}
	return nil
}

// Section returns the section with the given id, or nil.
func (r *Road) Section(id SectionID) *Section {
	for _, s := range r.Sections {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// Clone returns a deep copy of the road.
func (r *Road) Clone() *Road {
	if r == nil {
		return nil
	}
	out := *r
	out.Geometry = r.Geometry.Clone()
	out.Sections = make([]*Section, len(r.Sections))
	for i, s := range r.Sections {
		out.Sections[i] = s.Clone()
	}
	out.Boundaries = make([]*LaneBoundary, len(r.Boundaries))
	for i, b := range r.Boundaries {
		out.Boundaries[i] = b.Clone()
	}
	if r.Junction != nil {
		j := *r.Junction
		out.Junction = &j
	}
	return &out
}

// Clone returns a deep copy of the section.
func (s *Section) Clone() *Section {
	if s == nil {
		return nil
	}
	out := *s
	out.Lanes = make([]*Lane, len(s.Lanes))
	for i, l := range s.Lanes {
		out.Lanes[i] = l.Clone()
	}
	return &out
}

// Clone returns a deep copy of the lane.
func (l *Lane) Clone() *Lane {
	if l == nil {
		return nil
	}
	out := *l
	out.Geometry = l.Geometry.Clone()
	return &out
}

// Clone returns a deep copy of the boundary.
func (b *LaneBoundary) Clone() *LaneBoundary {
	if b == nil {
		return nil
	}
	out := *b
	out.Geometry = b.Geometry.Clone()
	return &out
}
