package roads

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchPicksBestScoringCandidate(t *testing.T) {
	source := []Edge{
		{ID: 1, Name: "Main St", Geom: orb.LineString{{0, 0}, {100, 0}}},
	}
	geobase := []Edge{
		{ID: 10, Name: "Main St", Geom: orb.LineString{{0, 1}, {100, 1}}},
		{ID: 11, Name: "Elm St", Geom: orb.LineString{{0, 20}, {100, 20}}},
	}

	m := Matcher{City: "testville"}
	res := m.Match(source, geobase)
	require.Len(t, res.Roads, 1)
	assert.Equal(t, int64(10), res.Roads[0].GeobaseID)
	assert.Equal(t, 0, res.Unmatched)
}

func TestMatchNameBreaksShapeTie(t *testing.T) {
	source := []Edge{
		{ID: 1, Name: "Oak Ave", Geom: orb.LineString{{0, 0}, {100, 0}}},
	}
	geobase := []Edge{
		{ID: 10, Name: "Pine Rd", Geom: orb.LineString{{0, 2}, {100, 2}}},
		{ID: 11, Name: "Oak Ave", Geom: orb.LineString{{0, -2}, {100, -2}}},
	}

	m := Matcher{City: "testville"}
	res := m.Match(source, geobase)
	require.Len(t, res.Roads, 1)
	assert.Equal(t, int64(11), res.Roads[0].GeobaseID)
}

func TestMatchSecondPassCatchesPartialWays(t *testing.T) {
	// short stub well inside the geobase edge's extent: the direct pass
	// (source within candidate corridor) succeeds, but a long source
	// against a short candidate needs the inverted pass
	source := []Edge{
		{ID: 1, Name: "Long Wy", Geom: orb.LineString{{0, 0}, {500, 0}}},
	}
	geobase := []Edge{
		{ID: 10, Name: "Long Wy", Geom: orb.LineString{{200, 1}, {260, 1}}},
	}

	m := Matcher{City: "testville"}
	res := m.Match(source, geobase)
	require.Len(t, res.Roads, 1)
	assert.Equal(t, int64(10), res.Roads[0].GeobaseID)
}

func TestMatchUnmatchedDropped(t *testing.T) {
	source := []Edge{
		{ID: 1, Name: "Nowhere", Geom: orb.LineString{{0, 0}, {100, 0}}},
	}
	geobase := []Edge{
		{ID: 10, Name: "Far", Geom: orb.LineString{{5000, 5000}, {5100, 5000}}},
	}

	m := Matcher{City: "testville"}
	res := m.Match(source, geobase)
	assert.Empty(t, res.Roads)
	assert.Equal(t, 1, res.Unmatched)
}

func TestMatchDeterministic(t *testing.T) {
	source := []Edge{
		{ID: 2, Name: "B St", Geom: orb.LineString{{0, 50}, {100, 50}}},
		{ID: 1, Name: "A St", Geom: orb.LineString{{0, 0}, {100, 0}}},
	}
	geobase := []Edge{
		{ID: 11, Name: "B St", Geom: orb.LineString{{0, 51}, {100, 51}}},
		{ID: 10, Name: "A St", Geom: orb.LineString{{0, 1}, {100, 1}}},
	}

	m := Matcher{City: "testville"}
	first := m.Match(source, geobase)

	// shuffled input order must not change the result
	reversed := []Edge{source[1], source[0]}
	second := m.Match(reversed, geobase)

	require.Equal(t, len(first.Roads), len(second.Roads))
	for i := range first.Roads {
		assert.Equal(t, first.Roads[i].BridgeID, second.Roads[i].BridgeID)
		assert.Equal(t, first.Roads[i].GeobaseID, second.Roads[i].GeobaseID)
	}
}

func TestMatchExactTieDeterministicWinner(t *testing.T) {
	// two identical candidates except their ids: lowest id wins, and the
	// source road gets exactly one bridge edge
	source := []Edge{
		{ID: 1, Name: "Twin St", Geom: orb.LineString{{0, 0}, {100, 0}}},
	}
	geobase := []Edge{
		{ID: 12, Name: "Twin St", Geom: orb.LineString{{0, 1}, {100, 1}}},
		{ID: 11, Name: "Twin St", Geom: orb.LineString{{0, 1}, {100, 1}}},
	}

	m := Matcher{City: "testville"}
	res := m.Match(source, geobase)
	require.Len(t, res.Roads, 1)
	assert.Equal(t, int64(11), res.Roads[0].GeobaseID)
}

func TestSideID(t *testing.T) {
	r := Road{BridgeID: "00000010000010"}
	assert.Equal(t, "000000100000100", r.SideID(true))
	assert.Equal(t, "000000100000101", r.SideID(false))
}
