package hdmap

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNearestLane(t *testing.T) {
	s := newTestStore(t)
	_, err := s.InsertRoad(testRoad(1))
	require.NoError(t, err)

	tests := []struct {
		name   string
		p      Point
		radius float64
		opts   []QueryOption
		want   LaneKey
		dist   float64
		l      float64
		found  bool
	}{
		{"on lane with neighbour 5 m away", Point{X: 50, Y: 0}, 10, nil, key(1, 1, 1), 0, 0, true},
		{"left of lane", Point{X: 30, Y: 1.5}, 10, nil, key(1, 1, 1), 1.5, 1.5, true},
		{"closest without heading", Point{X: 50, Y: -2.4}, 10, nil, key(1, 1, 1), 2.4, -2.4, true},
		{"heading picks opposing lane", Point{X: 50, Y: -2.4}, 10, []QueryOption{WithYaw(math.Pi)}, key(1, 1, -1), 2.6, -2.6, true},
		{"outside radius", Point{X: 50, Y: 40}, 10, nil, LaneKey{}, 0, 0, false},
		{"within box but beyond radius", Point{X: 107, Y: 12}, 8, nil, LaneKey{}, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, ok := s.NearestLane(tt.p, tt.radius, tt.opts...)
			require.Equal(t, tt.found, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.want, hit.Lane)
			assert.InDelta(t, tt.dist, hit.Distance, 1e-6)
			assert.InDelta(t, tt.l, hit.L, 1e-6)
		})
	}
}

func TestNearestLaneStation(t *testing.T) {
	s := newTestStore(t)
	_, err := s.InsertRoad(testRoad(1))
	require.NoError(t, err)

	hit, ok := s.NearestLane(Point{X: 30, Y: -5.5}, 5, WithYaw(math.Pi))
	require.True(t, ok)
	assert.Equal(t, key(1, 1, -1), hit.Lane)
	assert.InDelta(t, 70, hit.S, 1e-6, "station runs in the lane's direction of travel")
}

func TestNearestLaneExactStart(t *testing.T) {
	s := newTestStore(t)
	_, err := s.InsertRoad(testRoad(1))
	require.NoError(t, err)

	hit, ok := s.NearestLane(Point{X: 100, Y: -5}, 10)
	require.True(t, ok)
	assert.Equal(t, key(1, 1, -1), hit.Lane)
	assert.Zero(t, hit.S)
	assert.Zero(t, hit.Distance)
}

func TestNearestLaneTypeFilter(t *testing.T) {
	s := newTestStore(t)
	r := testRoad(1)
	r.Sections[0].Lanes[1].Type = LaneBiking
	_, err := s.InsertRoad(r)
	require.NoError(t, err)

	hit, ok := s.NearestLane(Point{X: 50, Y: 0}, 10, WithLaneTypes(LaneBiking))
	require.True(t, ok)
	assert.Equal(t, key(1, 1, 2), hit.Lane)
	assert.InDelta(t, 5, hit.Distance, 1e-6)

	_, ok = s.NearestLane(Point{X: 50, Y: 0}, 10, WithLaneTypes(LaneBus))
	assert.False(t, ok)
}

func TestNearestLaneEmptyStore(t *testing.T) {
	s := newTestStore(t)
	_, ok := s.NearestLane(Point{}, 100)
	assert.False(t, ok)
	_, ok = s.NearestLaneLink(Point{}, 100)
	assert.False(t, ok)
}

func TestSearchLanes(t *testing.T) {
	s := newTestStore(t)
	_, err := s.InsertRoads([]*Road{testRoad(1), singleLaneRoad(2, 50)})
	require.NoError(t, err)

	tests := []struct {
		name string
		env  Envelope
		opts []QueryOption
		want []LaneKey
	}{
		{"one lane", EnvelopeAround(50, 0, 1), nil, []LaneKey{key(1, 1, 1)}},
		{"whole road", EnvelopeAround(50, 0, 6), nil, []LaneKey{key(1, 1, -1), key(1, 1, 1), key(1, 1, 2)}},
		{"heading west", EnvelopeAround(50, 0, 6), []QueryOption{WithYaw(math.Pi)}, []LaneKey{key(1, 1, -1)}},
		{"heading east within tolerance", EnvelopeAround(50, 0, 6), []QueryOption{WithYaw(0.3)}, []LaneKey{key(1, 1, 1), key(1, 1, 2)}},
		{"nothing", EnvelopeAround(50, 25, 1), nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.SearchLanes(tt.env, tt.opts...))
		})
	}

	assert.Equal(t, []RoadID{1, 2}, s.SearchRoads(EnvelopeAround(50, 25, 30)))
}

func TestSearchBoundaries(t *testing.T) {
	s := newTestStore(t)
	_, err := s.InsertRoad(boundaryRoad(5))
	require.NoError(t, err)

	assert.Equal(t, []BoundaryID{51, 52}, s.SearchBoundaries(EnvelopeAround(25, 200, 3)))
	assert.Equal(t, []BoundaryID{51}, s.SearchBoundaries(Envelope{Min: [2]float64{10, 199.5}, Max: [2]float64{20, 203}}))
}

func TestSearchObjects(t *testing.T) {
	s := newTestStore(t)
	_, err := s.InsertObjects([]*Object{
		{ID: 1, Type: ObjectSign, Pose: Pose{Position: Point{X: 10, Y: 10}}},
		{ID: 2, Type: ObjectPole, Pose: Pose{Position: Point{X: 12, Y: 10}}},
		{ID: 3, Type: ObjectSign, Pose: Pose{Position: Point{X: 90, Y: 10}}},
	})
	require.NoError(t, err)

	assert.Equal(t, []ObjectID{1, 2}, s.SearchObjects(EnvelopeAround(11, 10, 3)))
	assert.Equal(t, []ObjectID{1}, s.SearchObjects(EnvelopeAround(11, 10, 3), WithObjectTypes(ObjectSign)))
	assert.Equal(t, []ObjectID{1, 3}, s.SearchObjects(EnvelopeAround(50, 10, 50), WithObjectTypes(ObjectSign)))
}

func TestGeographicNearestLane(t *testing.T) {
	opts := DefaultOptions()
	opts.CoordMode = Geographic
	s, err := New(opts)
	require.NoError(t, err)

	r := &Road{
		ID: 1,
		Sections: []*Section{{
			ID: 1,
			Lanes: []*Lane{{
				Key:      LaneKey{Lane: 1},
				Geometry: NewCurve([]Point{{X: 121.470, Y: 31.230}, {X: 121.471, Y: 31.230}}, Geographic),
			}},
		}},
	}
	_, err = s.InsertRoad(r)
	require.NoError(t, err)

	hit, ok := s.NearestLane(Point{X: 121.4705, Y: 31.2301}, 20)
	require.True(t, ok)
	assert.Equal(t, key(1, 1, 1), hit.Lane)
	assert.InDelta(t, 11.09, hit.Distance, 0.05, "distance is in metres")

	_, ok = s.NearestLane(Point{X: 121.4705, Y: 31.2301}, 5)
	assert.False(t, ok)
}
