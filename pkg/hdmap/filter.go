package hdmap

// Wildcards for filters. Road id 0 is reserved; section id 0 is a valid
// section, selected with LaneFilter.ExactSection.
const (
	AnyRoad     RoadID     = 0
	AnySection  SectionID  = 0
	AnyLane     LaneID     = 0
	AnyJunction JunctionID = 0
)

// LaneFilter selects lanes by id. A lane id needs its section and a section
// needs its road; anything else is a *FilterError.
type LaneFilter struct {
	Road    RoadID
	Section SectionID
	Lane    LaneID

	// ExactSection makes a zero Section select section 0 instead of every
	// section.
	ExactSection bool
}

// FilterFor returns the filter matching exactly one lane.
func FilterFor(k LaneKey) LaneFilter {
	return LaneFilter{Road: k.Road, Section: k.Section, Lane: k.Lane, ExactSection: true}
}

func (f LaneFilter) hasSection() bool {
	return f.ExactSection || f.Section != AnySection
}

func (f LaneFilter) key() LaneKey {
	return LaneKey{Road: f.Road, Section: f.Section, Lane: f.Lane}
}

func (f LaneFilter) validate() error {
	if f.Lane != AnyLane && !f.hasSection() {
		return &FilterError{Filter: f, Reason: "lane without section"}
	}
	if f.hasSection() && f.Road == AnyRoad {
		return &FilterError{Filter: f, Reason: "section without road"}
	}
	return nil
}

func (f LaneFilter) match(k LaneKey) bool {
	return (f.Road == AnyRoad || f.Road == k.Road) &&
		(!f.hasSection() || f.Section == k.Section) &&
		(f.Lane == AnyLane || f.Lane == k.Lane)
}
