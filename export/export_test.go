package export

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curbd/curbd/rules"
	"github.com/curbd/curbd/slots"
)

func TestButtonLocationsShortSlot(t *testing.T) {
	line := orb.LineString{{0, 0}, {100, 0}}
	buttons := ButtonLocations(line)
	require.Len(t, buttons, 1)
	assert.Equal(t, Centerpoint(line), buttons[0])
}

func TestButtonLocationsLongSlot(t *testing.T) {
	line := orb.LineString{{0, 0}, {400, 0}}
	buttons := ButtonLocations(line)
	require.Len(t, buttons, 2)
	// both targets sit along the line, first before second
	assert.Less(t, buttons[0].Long, buttons[1].Long)
}

func TestCenterpointMidway(t *testing.T) {
	line := orb.LineString{{0, 0}, {200, 0}}
	c := Centerpoint(line)
	end := ButtonLocations(orb.LineString{{200, 0}, {200.1, 0}})[0]
	// the centerpoint of a line ending at x=200 sits west of x=200
	assert.Less(t, c.Long, end.Long)
	assert.InDelta(t, 0.0, c.Lat, 1e-9)
}

func TestRows(t *testing.T) {
	in := []slots.Slot{{
		ID:        "000000100000100001",
		SideID:    "000000100000100",
		Position:  0.25,
		Signposts: []int{3, 7},
		Rules:     []rules.Rule{{Code: "MAX-2H", Agenda: rules.NewAgenda()}},
		WayName:   "Main St",
		Geom:      orb.LineString{{0, -6}, {100, -6}},
	}}

	rows, err := Rows("montreal", in)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	r := rows[0]

	assert.Equal(t, "montreal", r.City)
	assert.Equal(t, []int32{3, 7}, r.Signposts)

	var ruleSet []map[string]any
	require.NoError(t, json.Unmarshal(r.Rules, &ruleSet))
	require.Len(t, ruleSet, 1)
	assert.Equal(t, "MAX-2H", ruleSet[0]["code"])

	var g map[string]any
	require.NoError(t, json.Unmarshal(r.Geom, &g))
	assert.Equal(t, "LineString", g["type"])

	var c LongLat
	require.NoError(t, json.Unmarshal(r.Centerpoint, &c))
	assert.InDelta(t, 0.0, c.Lat, 1e-9)

	var buttons []LongLat
	require.NoError(t, json.Unmarshal(r.ButtonLocations, &buttons))
	assert.Len(t, buttons, 1)
}

func TestWriteGeoJSON(t *testing.T) {
	in := []slots.Slot{{
		ID:      "000000100000100001",
		WayName: "Main St",
		Geom:    orb.LineString{{0, -6}, {100, -6}},
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteGeoJSON(&buf, "montreal", in))

	var fc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fc))
	assert.Equal(t, "FeatureCollection", fc["type"])
	features := fc["features"].([]any)
	require.Len(t, features, 1)
	props := features[0].(map[string]any)["properties"].(map[string]any)
	assert.Equal(t, "Main St", props["way_name"])
	assert.Equal(t, "montreal", props["city"])
}
