package slots

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curbd/curbd/geom"
	"github.com/curbd/curbd/roads"
	"github.com/curbd/curbd/signs"
)

func testRoad(line orb.LineString) *roads.Road {
	return &roads.Road{
		BridgeID: "00000010000010",
		SourceID: 1,
		Name:     "Main St",
		City:     "testville",
		Geom:     line,
		Length:   geom.Length(line),
	}
}

func project(road *roads.Road, id int, at orb.Point) signs.Projected {
	return signs.Projected{
		Signpost: &signs.Signpost{ID: id, Geom: at},
		Road:     road,
		Position: geom.LineLocatePoint(road.Geom, at),
		IsLeft:   geom.IsLeft(road.Geom, at),
	}
}

func TestSegmentRoadTilesFullRoad(t *testing.T) {
	road := testRoad(orb.LineString{{0, 0}, {100, 0}})
	projected := []signs.Projected{
		project(road, 1, orb.Point{30, -4}),
		project(road, 2, orb.Point{70, -4}),
	}

	cands := SegmentRoad(road, projected, -1)
	require.Len(t, cands, 3)

	assert.InDelta(t, 0.0, cands[0].Start, 1e-9)
	assert.InDelta(t, 0.3, cands[0].End, 1e-9)
	assert.InDelta(t, 0.3, cands[1].Start, 1e-9)
	assert.InDelta(t, 0.7, cands[1].End, 1e-9)
	assert.InDelta(t, 0.7, cands[2].Start, 1e-9)
	assert.InDelta(t, 1.0, cands[2].End, 1e-9)

	// no gaps, no overlaps, lengths sum to the road length
	var sum float64
	for i, c := range cands {
		sum += geom.Length(c.Geom)
		if i > 0 {
			assert.Equal(t, cands[i-1].End, c.Start)
		}
	}
	assert.InDelta(t, road.Length, sum, 1e-6)
}

func TestSegmentRoadSidesIndependent(t *testing.T) {
	road := testRoad(orb.LineString{{0, 0}, {100, 0}})
	projected := []signs.Projected{
		project(road, 1, orb.Point{30, -4}), // right side
		project(road, 2, orb.Point{60, 4}),  // left side
	}

	right := SegmentRoad(road, projected, -1)
	left := SegmentRoad(road, projected, 1)
	require.Len(t, right, 2)
	require.Len(t, left, 2)
	assert.InDelta(t, 0.3, right[0].End, 1e-9)
	assert.InDelta(t, 0.6, left[0].End, 1e-9)
}

func TestSegmentRoadNoSignposts(t *testing.T) {
	road := testRoad(orb.LineString{{0, 0}, {100, 0}})

	cands := SegmentRoad(road, nil, 1)
	require.Len(t, cands, 1)
	assert.Nil(t, cands[0].StartPost)
	assert.Nil(t, cands[0].EndPost)
	assert.Equal(t, []int{0, 0}, cands[0].SignpostIDs())
}

func TestSegmentRoadDedupesCoincidentCuts(t *testing.T) {
	road := testRoad(orb.LineString{{0, 0}, {100, 0}})
	projected := []signs.Projected{
		project(road, 1, orb.Point{50, -4}),
		project(road, 2, orb.Point{50, -6}),
	}

	cands := SegmentRoad(road, projected, -1)
	require.Len(t, cands, 2)
	require.NotNil(t, cands[0].EndPost)
}

func TestSegmentRoadBoundingPosts(t *testing.T) {
	road := testRoad(orb.LineString{{0, 0}, {100, 0}})
	projected := []signs.Projected{
		project(road, 7, orb.Point{40, -4}),
	}

	cands := SegmentRoad(road, projected, -1)
	require.Len(t, cands, 2)
	assert.Nil(t, cands[0].StartPost)
	require.NotNil(t, cands[0].EndPost)
	assert.Equal(t, 7, cands[0].EndPost.Signpost.ID)
	assert.Equal(t, []int{0, 7}, cands[0].SignpostIDs())
	assert.Equal(t, []int{7, 0}, cands[1].SignpostIDs())
}
