package rules

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTimeRange(t *testing.T) {
	first, whole, last := SplitTimeRange(22, 5)
	assert.Equal(t, 2.0, first)
	assert.Equal(t, 0, whole)
	assert.Equal(t, 3.0, last)

	first, whole, last = SplitTimeRange(8, 10)
	assert.Equal(t, 10.0, first)
	assert.Equal(t, 0, whole)
	assert.Equal(t, 0.0, last)

	first, whole, last = SplitTimeRange(0, 50)
	assert.Equal(t, 24.0, first)
	assert.Equal(t, 1, whole)
	assert.Equal(t, 2.0, last)
}

func TestGroupRulesExplicitEnd(t *testing.T) {
	rows := []RawRow{{
		Code:        "SV-PB",
		Description: "2HR PARKING 9-17 MON-FRI",
		TimeStart:   9,
		TimeEnd:     17,
		Days:        [7]bool{true, true, true, true, true, false, false},
	}}

	out := GroupRules(rows)
	require.Len(t, out, 1)
	agenda := out[0].Agenda
	for d := 1; d <= 5; d++ {
		require.Len(t, agenda[d], 1, "day %d", d)
		assert.Equal(t, TimeInterval{9, 17}, agenda[d][0])
	}
	assert.Empty(t, agenda[6])
	assert.Empty(t, agenda[7])
}

func TestGroupRulesDurationAcrossMidnight(t *testing.T) {
	rows := []RawRow{{
		Code:         "NT",
		TimeStart:    22,
		TimeDuration: 5,
		Days:         [7]bool{true, false, false, false, false, false, false},
	}}

	out := GroupRules(rows)
	require.Len(t, out, 1)
	agenda := out[0].Agenda
	require.Len(t, agenda[1], 1)
	assert.Equal(t, TimeInterval{22, 24}, agenda[1][0])
	require.Len(t, agenda[2], 1)
	assert.Equal(t, TimeInterval{0, 3}, agenda[2][0])
}

func TestGroupRulesDurationWholeDays(t *testing.T) {
	// sunday start wraps around the week
	rows := []RawRow{{
		Code:         "EVENT",
		TimeStart:    0,
		TimeDuration: 50,
		Days:         [7]bool{false, false, false, false, false, false, true},
	}}

	out := GroupRules(rows)
	require.Len(t, out, 1)
	agenda := out[0].Agenda
	assert.Equal(t, []TimeInterval{{0, 24}}, agenda[7])
	assert.Equal(t, []TimeInterval{{0, 24}}, agenda[1])
	assert.Equal(t, []TimeInterval{{0, 2}}, agenda[2])
}

func TestGroupRulesDaily(t *testing.T) {
	rows := []RawRow{{Code: "NOPARK", Daily: true}}

	out := GroupRules(rows)
	require.Len(t, out, 1)
	for d := 1; d <= 7; d++ {
		assert.Equal(t, []TimeInterval{{0, 24}}, out[0].Agenda[d])
	}
}

func TestGroupRulesSeasonsSplitGroups(t *testing.T) {
	rows := []RawRow{
		{Code: "SNOW", SeasonStart: "12-01", SeasonEnd: "04-01", Daily: true},
		{Code: "SNOW", Daily: true},
	}

	out := GroupRules(rows)
	assert.Len(t, out, 2)
	assert.Equal(t, "12-01", out[0].SeasonStart)
	assert.Equal(t, "", out[1].SeasonStart)
}

func TestGroupRulesConflictingRowsKeepUnion(t *testing.T) {
	// overlapping intervals from conflicting rows are kept, sorted by start
	rows := []RawRow{
		{Code: "X", TimeStart: 12, TimeEnd: 18, Days: [7]bool{true}},
		{Code: "X", TimeStart: 9, TimeEnd: 14, Days: [7]bool{true}},
	}

	out := GroupRules(rows)
	require.Len(t, out, 1)
	require.Len(t, out[0].Agenda[1], 2)
	assert.Equal(t, TimeInterval{9, 14}, out[0].Agenda[1][0])
	assert.Equal(t, TimeInterval{12, 18}, out[0].Agenda[1][1])
}

func TestAgendaJSONRoundTrip(t *testing.T) {
	a := NewAgenda()
	a[1] = []TimeInterval{{9, 17}}

	data, err := json.Marshal(a)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"1":[[9,17]]`)

	var back Agenda
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, a, back)
}

func TestResidentialPermit(t *testing.T) {
	assert.False(t, ResidentialPermit("bus"))
	assert.False(t, ResidentialPermit("commercial"))
	assert.True(t, ResidentialPermit("1"))
	assert.True(t, ResidentialPermit("zone-5"))
}
