package hdmap

// Object is a map feature that is not part of the lane network: signs,
// traffic lights, stop lines, parking spaces and the like.
type Object struct {
	ID   ObjectID
	Type ObjectType
	Name string
	Pose Pose

	// Geometries are the object's outlines. The first one is indexed; objects
	// without geometry are indexed at their pose.
	Geometries []*Curve

	// RelatedLanes ties the object to the lanes it governs.
	RelatedLanes []LaneKey
}

// Pose is a position and heading in radians.
type Pose struct {
	Position Point
	Yaw      float64
}

// Clone returns a deep copy of the object.
func (o *Object) Clone() *Object {
	if o == nil {
		return nil
	}
	out := *o
	out.Geometries = make([]*Curve, len(o.Geometries))
	for i, g := range o.Geometries {
		out.Geometries[i] = g.Clone()
	}
	out.RelatedLanes = append([]LaneKey(nil), o.RelatedLanes...)
	return &out
}

// relatedRoads returns the distinct roads of the related lanes.
func (o *Object) relatedRoads() []RoadID {
	var roads []RoadID
	seen := make(map[RoadID]bool)
	for _, k := range o.RelatedLanes {
		if !seen[k.Road] {
			seen[k.Road] = true
			roads = append(roads, k.Road)
		}
	}
	return roads
}
