package hdmap

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// boundaryRoad is a two-section eastbound road at y=200 spanning x 0..100.
// The left edge is solid throughout; the right edge is broken in the first
// section and virtual in the second.
func boundaryRoad(id RoadID) *Road {
	lane := func(left, right BoundaryID) *Lane {
		return &Lane{Key: LaneKey{Lane: 1}, LeftBoundary: left, RightBoundary: right, Type: LaneDriving}
	}
	return &Road{
		ID: id,
		Sections: []*Section{
			{ID: 1, Lanes: []*Lane{lane(51, 52)}},
			{ID: 2, Lanes: []*Lane{lane(53, 54)}},
		},
		Boundaries: []*LaneBoundary{
			{ID: 51, Mark: MarkSolid, Geometry: line([2]float64{0, 202}, [2]float64{50, 202})},
			{ID: 52, Mark: MarkBroken, Geometry: line([2]float64{0, 198}, [2]float64{50, 198})},
			{ID: 53, Mark: MarkSolid, Geometry: line([2]float64{50, 202}, [2]float64{100, 202})},
			{ID: 54, Mark: MarkVirtual, Geometry: line([2]float64{50, 198}, [2]float64{100, 198})},
		},
	}
}

func TestCenterLineFromBoundaries(t *testing.T) {
	s := newTestStore(t)
	_, err := s.InsertRoad(boundaryRoad(5))
	require.NoError(t, err)

	cl, ok := s.CenterLine(key(5, 1, 1))
	require.True(t, ok)
	assert.Equal(t, 51, cl.Len(), "resampled every metre")
	assert.InDelta(t, 50, cl.Length(), 1e-9)
	assert.InDelta(t, 200, cl.Point(20).Y, 1e-9)
	assert.InDelta(t, 4, cl.Point(20).Width, 1e-9)
}

func TestGetLaneBoundaries(t *testing.T) {
	s := newTestStore(t)
	_, err := s.InsertRoad(boundaryRoad(5))
	require.NoError(t, err)

	pt := func(x, y float64) Point { return Point{X: x, Y: y} }
	tests := []struct {
		name              string
		pos               Point
		forward, backward float64
		want              []BoundaryRun
	}{
		{
			name:    "forward into next section",
			pos:     pt(25, 200),
			forward: 50, backward: 10,
			want: []BoundaryRun{
				{Side: SideLeft, Mark: MarkSolid, Boundaries: []BoundaryID{51, 53}, Points: []Point{pt(15, 202), pt(50, 202), pt(75, 202)}},
				{Side: SideRight, Mark: MarkBroken, Boundaries: []BoundaryID{52}, Points: []Point{pt(15, 198), pt(50, 198)}},
			},
		},
		{
			name:    "backward into previous section",
			pos:     pt(60, 200),
			forward: 10, backward: 20,
			want: []BoundaryRun{
				{Side: SideLeft, Mark: MarkSolid, Boundaries: []BoundaryID{51, 53}, Points: []Point{pt(40, 202), pt(50, 202), pt(70, 202)}},
				{Side: SideRight, Mark: MarkBroken, Boundaries: []BoundaryID{52}, Points: []Point{pt(40, 198), pt(50, 198)}},
			},
		},
		{
			name:    "virtual marks are dropped",
			pos:     pt(75, 200),
			forward: 10, backward: 10,
			want: []BoundaryRun{
				{Side: SideLeft, Mark: MarkSolid, Boundaries: []BoundaryID{53}, Points: []Point{pt(65, 202), pt(85, 202)}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, ok := s.GetLaneBoundaries(tt.pos, 0, tt.forward, tt.backward)
			require.True(t, ok)
			if diff := cmp.Diff(tt.want, runs, cmpopts.EquateApprox(0, 1e-6)); diff != "" {
				t.Errorf("GetLaneBoundaries mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGetLaneBoundariesNoLane(t *testing.T) {
	s := newTestStore(t)
	_, err := s.InsertRoad(boundaryRoad(5))
	require.NoError(t, err)

	_, ok := s.GetLaneBoundaries(Point{X: 500, Y: 500}, 0, 10, 10)
	assert.False(t, ok)
}

func TestGetLaneBoundariesSplitsOnMarkChange(t *testing.T) {
	s := newTestStore(t)
	r := boundaryRoad(5)
	r.Boundaries[2].Mark = MarkDoubleSolid
	_, err := s.InsertRoad(r)
	require.NoError(t, err)

	runs, ok := s.GetLaneBoundaries(Point{X: 45, Y: 200}, 0, 10, 0)
	require.True(t, ok)
	require.Len(t, runs, 3)
	assert.Equal(t, []BoundaryID{51}, runs[0].Boundaries)
	assert.Equal(t, []BoundaryID{53}, runs[1].Boundaries)
	assert.Equal(t, MarkDoubleSolid, runs[1].Mark)
	assert.Equal(t, SideRight, runs[2].Side)
}

// linkedBoundaryRoads joins boundaryRoad 5 to road 6, which continues east
// from x=100 to x=200 with a solid left and a broken right edge.
func linkedBoundaryRoads(t *testing.T) *Store {
	t.Helper()
	s := newTestStore(t)
	next := &Road{
		ID: 6,
		Sections: []*Section{{ID: 1, Lanes: []*Lane{
			{Key: LaneKey{Lane: 1}, LeftBoundary: 151, RightBoundary: 152, Type: LaneDriving},
		}}},
		Boundaries: []*LaneBoundary{
			{ID: 151, Mark: MarkSolid, Geometry: line([2]float64{100, 202}, [2]float64{200, 202})},
			{ID: 152, Mark: MarkBroken, Geometry: line([2]float64{100, 198}, [2]float64{200, 198})},
		},
	}
	_, err := s.InsertRoads([]*Road{boundaryRoad(5), next})
	require.NoError(t, err)
	_, err = s.InsertLaneLink(&LaneLink{
		ID:       5,
		From:     key(5, 2, 1),
		To:       key(6, 1, 1),
		Geometry: line([2]float64{100, 200}, [2]float64{100.5, 200}),
	})
	require.NoError(t, err)
	return s
}

func TestGetLaneBoundariesAcrossLink(t *testing.T) {
	s := linkedBoundaryRoads(t)

	pt := func(x, y float64) Point { return Point{X: x, Y: y} }
	tests := []struct {
		name              string
		pos               Point
		forward, backward float64
		want              []BoundaryRun
	}{
		{
			name:    "forward onto the next road",
			pos:     pt(90, 200),
			forward: 40,
			want: []BoundaryRun{
				{Side: SideLeft, Mark: MarkSolid, Boundaries: []BoundaryID{53, 151}, Points: []Point{pt(90, 202), pt(100, 202), pt(130, 202)}},
				{Side: SideRight, Mark: MarkBroken, Boundaries: []BoundaryID{152}, Points: []Point{pt(100, 198), pt(130, 198)}},
			},
		},
		{
			name:     "backward onto the previous road",
			pos:      pt(110, 200),
			backward: 20,
			want: []BoundaryRun{
				{Side: SideLeft, Mark: MarkSolid, Boundaries: []BoundaryID{53, 151}, Points: []Point{pt(90, 202), pt(100, 202), pt(110, 202)}},
				{Side: SideRight, Mark: MarkBroken, Boundaries: []BoundaryID{152}, Points: []Point{pt(100, 198), pt(110, 198)}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, ok := s.GetLaneBoundaries(tt.pos, 0, tt.forward, tt.backward)
			require.True(t, ok)
			if diff := cmp.Diff(tt.want, runs, cmpopts.EquateApprox(0, 1e-6)); diff != "" {
				t.Errorf("GetLaneBoundaries mismatch (-want +got):\n%s", diff)
			}
		})
	}

	// Without the link the walk stops at the end of road 5.
	require.True(t, s.RemoveLaneLink(5))
	runs, ok := s.GetLaneBoundaries(pt(90, 200), 0, 40, 0)
	require.True(t, ok)
	require.Len(t, runs, 1)
	assert.Equal(t, []BoundaryID{53}, runs[0].Boundaries)
}
