package hdmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoSectionRoad runs along y=100 from x=0 to x=100, split at x=50, with
// an eastbound lane 1 and a westbound lane -1 at y=95.
func twoSectionRoad(id RoadID) *Road {
	return &Road{
		ID: id,
		Sections: []*Section{
			{ID: 1, Lanes: []*Lane{
				testLane(1, line([2]float64{0, 100}, [2]float64{50, 100})),
				testLane(-1, line([2]float64{50, 95}, [2]float64{0, 95})),
			}},
			{ID: 2, Lanes: []*Lane{
				testLane(1, line([2]float64{50, 100}, [2]float64{100, 100})),
				testLane(-1, line([2]float64{100, 95}, [2]float64{50, 95})),
			}},
		},
	}
}

func TestNextAndPrevLanes(t *testing.T) {
	s := newTestStore(t)
	_, err := s.InsertRoads([]*Road{twoSectionRoad(3), singleLaneRoad(2, 50)})
	require.NoError(t, err)
	_, err = s.InsertLaneLink(&LaneLink{
		ID:       1,
		From:     key(3, 2, 1),
		To:       key(2, 1, 1),
		Geometry: line([2]float64{100, 100}, [2]float64{0, 50}),
	})
	require.NoError(t, err)

	tests := []struct {
		name string
		got  []LaneKey
		want []LaneKey
	}{
		{"next within road", s.NextLanes(key(3, 1, 1)), []LaneKey{key(3, 2, 1)}},
		{"prev within road", s.PrevLanes(key(3, 2, 1)), []LaneKey{key(3, 1, 1)}},
		{"next against reference", s.NextLanes(key(3, 2, -1)), []LaneKey{key(3, 1, -1)}},
		{"prev against reference", s.PrevLanes(key(3, 1, -1)), []LaneKey{key(3, 2, -1)}},
		{"next via link", s.NextLanes(key(3, 2, 1)), []LaneKey{key(2, 1, 1)}},
		{"prev via link", s.PrevLanes(key(2, 1, 1)), []LaneKey{key(3, 2, 1)}},
		{"road end without link", s.NextLanes(key(3, 1, -1)), nil},
		{"unknown lane", s.NextLanes(key(9, 1, 1)), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestLeftAndRightLane(t *testing.T) {
	s := newTestStore(t)
	_, err := s.InsertRoad(testRoad(1))
	require.NoError(t, err)

	tests := []struct {
		name  string
		left  bool
		from  LaneKey
		want  LaneKey
		found bool
	}{
		{"left of 1", true, key(1, 1, 1), key(1, 1, 2), true},
		{"left of 2", true, key(1, 1, 2), LaneKey{}, false},
		{"left of -1 skips zero", true, key(1, 1, -1), key(1, 1, 1), true},
		{"right of 1 skips zero", false, key(1, 1, 1), key(1, 1, -1), true},
		{"right of -1", false, key(1, 1, -1), LaneKey{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got LaneKey
			var ok bool
			if tt.left {
				got, ok = s.LeftLane(tt.from)
			} else {
				got, ok = s.RightLane(tt.from)
			}
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSpecLanes(t *testing.T) {
	s := newTestStore(t)
	_, err := s.InsertRoads([]*Road{testRoad(1), twoSectionRoad(3)})
	require.NoError(t, err)

	keys := func(lanes []*Lane) []LaneKey {
		var out []LaneKey
		for _, l := range lanes {
			out = append(out, l.Key)
		}
		return out
	}

	lanes, err := s.SpecLanes(LaneFilter{Road: 1})
	require.NoError(t, err)
	assert.Equal(t, []LaneKey{key(1, 1, -1), key(1, 1, 1), key(1, 1, 2)}, keys(lanes))

	lanes, err = s.SpecLanes(LaneFilter{Road: 3, Section: 2})
	require.NoError(t, err)
	assert.Equal(t, []LaneKey{key(3, 2, -1), key(3, 2, 1)}, keys(lanes))

	lanes, err = s.SpecLanes(FilterFor(key(3, 1, 1)))
	require.NoError(t, err)
	assert.Equal(t, []LaneKey{key(3, 1, 1)}, keys(lanes))

	lanes, err = s.SpecLanes(LaneFilter{})
	require.NoError(t, err)
	assert.Len(t, lanes, 7)
}

func TestSpecLanesInvalidFilter(t *testing.T) {
	s := newTestStore(t)

	tests := []struct {
		name   string
		filter LaneFilter
	}{
		{"lane without section", LaneFilter{Road: 1, Lane: 1}},
		{"section without road", LaneFilter{Section: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.SpecLanes(tt.filter)
			var ferr *FilterError
			require.ErrorAs(t, err, &ferr)
			assert.Equal(t, tt.name, ferr.Reason)

			_, err = s.SpecLinks(LinkFilter{To: tt.filter})
			assert.ErrorAs(t, err, &ferr)
		})
	}
}

func TestSpecBoundaries(t *testing.T) {
	s := newTestStore(t)
	_, err := s.InsertRoad(boundaryRoad(5))
	require.NoError(t, err)

	got := s.SpecBoundaries([]BoundaryID{53, 99, 51})
	require.Len(t, got, 2)
	assert.Equal(t, BoundaryID(53), got[0].ID)
	assert.Equal(t, BoundaryID(51), got[1].ID)
}

func TestSectionZero(t *testing.T) {
	s := newTestStore(t)
	r := testRoad(7)
	r.Sections[0].ID = 0
	_, err := s.InsertRoads([]*Road{r, twoSectionRoad(3)})
	require.NoError(t, err)

	left, ok := s.LeftLane(key(7, 0, 1))
	require.True(t, ok)
	assert.Equal(t, key(7, 0, 2), left)
	right, ok := s.RightLane(key(7, 0, 1))
	require.True(t, ok)
	assert.Equal(t, key(7, 0, -1), right)

	lanes, err := s.SpecLanes(FilterFor(key(7, 0, 1)))
	require.NoError(t, err)
	require.Len(t, lanes, 1)
	assert.Equal(t, key(7, 0, 1), lanes[0].Key)

	lanes, err = s.SpecLanes(LaneFilter{Road: 3, ExactSection: true})
	require.NoError(t, err)
	assert.Empty(t, lanes, "road 3 has no section 0")

	lanes, err = s.SpecLanes(LaneFilter{Road: 7, ExactSection: true})
	require.NoError(t, err)
	assert.Len(t, lanes, 3)

	_, err = s.SpecLanes(LaneFilter{ExactSection: true})
	var ferr *FilterError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, "section without road", ferr.Reason)
}

func TestInsertRoadRejectsReservedID(t *testing.T) {
	s := newTestStore(t)
	ok, err := s.InsertRoad(testRoad(0))
	assert.False(t, ok)
	var gerr *GeometryError
	require.ErrorAs(t, err, &gerr)
	assert.ErrorIs(t, err, ErrReservedID)
	assert.Empty(t, s.Roads())
}
