package hdmap

// LaneLink connects the end of one lane to the start of another, typically
// across a junction.
type LaneLink struct {
	ID       LinkID
	From     LaneKey
	To       LaneKey
	Junction JunctionID

	Geometry *Curve

	// Curvature and Slope are sampled along the link's arc length.
	Curvature []ProfileSample
	Slope     []ProfileSample

	LeftBoundary  *Curve
	RightBoundary *Curve
}

// ProfileSample is one value of a profile at station S.
type ProfileSample struct {
	S     float64
	Value float64
}

// LinkFilter selects lane links. Zero fields match anything.
type LinkFilter struct {
	From     LaneFilter
	To       LaneFilter
	Junction JunctionID
}

// Clone returns a deep copy of the link.
func (l *LaneLink) Clone() *LaneLink {
	if l == nil {
		return nil
	}
	out := *l
	out.Geometry = l.Geometry.Clone()
	out.LeftBoundary = l.LeftBoundary.Clone()
	out.RightBoundary = l.RightBoundary.Clone()
	out.Curvature = append([]ProfileSample(nil), l.Curvature...)
	out.Slope = append([]ProfileSample(nil), l.Slope...)
	return &out
}

// curves lists every geometry of the link.
func (l *LaneLink) curves() []*Curve {
	return []*Curve{l.Geometry, l.LeftBoundary, l.RightBoundary}
}

func (f LinkFilter) validate() error {
	if err := f.From.validate(); err != nil {
		return err
	}
	return f.To.validate()
}

func (f LinkFilter) match(l *LaneLink) bool {
	if f.Junction != AnyJunction && l.Junction != f.Junction {
		return false
	}
	return f.From.match(l.From) && f.To.match(l.To)
}
