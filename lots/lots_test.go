package lots

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fp(v float64) *float64 { return &v }
func ip(v int) *int         { return &v }

func TestBuildAgendaSimpleDay(t *testing.T) {
	raw := RawLot{}
	raw.Normal.Days[0] = "9,17"
	raw.Normal.Hourly = fp(3)
	raw.Normal.Daily = fp(18)
	raw.Normal.Max = ip(12)

	agenda, err := BuildAgenda(raw)
	require.NoError(t, err)

	mon := agenda[1]
	require.Len(t, mon, 3)
	assert.Equal(t, [2]float64{9, 17}, mon[0].Hours)
	assert.Equal(t, 3.0, *mon[0].Hourly)
	assert.Equal(t, 12, *mon[0].Max)
	// closed before opening and after closing
	assert.Equal(t, [2]float64{0, 9}, mon[1].Hours)
	assert.Nil(t, mon[1].Hourly)
	assert.Equal(t, [2]float64{17, 24}, mon[2].Hours)

	// untouched days are closed whole
	assert.Equal(t, []Period{{Hours: [2]float64{0, 24}}}, agenda[2])
}

func TestBuildAgendaPastMidnightSpill(t *testing.T) {
	raw := RawLot{}
	raw.Normal.Days[4] = "18,2" // friday evening into saturday
	raw.Normal.Hourly = fp(5)

	agenda, err := BuildAgenda(raw)
	require.NoError(t, err)

	fri := agenda[5]
	require.Len(t, fri, 2)
	assert.Equal(t, [2]float64{18, 24}, fri[0].Hours)
	assert.Equal(t, [2]float64{0, 18}, fri[1].Hours)

	sat := agenda[6]
	require.Len(t, sat, 2)
	assert.Equal(t, [2]float64{0, 2}, sat[0].Hours)
	assert.Equal(t, 5.0, *sat[0].Hourly)
	assert.Equal(t, [2]float64{2, 24}, sat[1].Hours)
	assert.Nil(t, sat[1].Hourly)
}

func TestBuildAgendaSundaySpillWrapsToMonday(t *testing.T) {
	raw := RawLot{}
	raw.Normal.Days[6] = "22,3"

	agenda, err := BuildAgenda(raw)
	require.NoError(t, err)

	mon := agenda[1]
	require.NotEmpty(t, mon)
	assert.Equal(t, [2]float64{0, 3}, mon[0].Hours)
}

func TestBuildAgendaFreeTier(t *testing.T) {
	raw := RawLot{}
	raw.Free.Days[0] = "0,24"
	raw.Free.Daily = fp(0)
	raw.Free.Max = ip(4) // ignored: free periods carry no max stay

	agenda, err := BuildAgenda(raw)
	require.NoError(t, err)

	mon := agenda[1]
	require.Len(t, mon, 1)
	assert.Equal(t, 0.0, *mon[0].Hourly)
	assert.Nil(t, mon[0].Max)
}

func TestBuildAgendaTiersStack(t *testing.T) {
	raw := RawLot{}
	raw.Normal.Days[0] = "8,18"
	raw.Normal.Hourly = fp(4)
	raw.Special.Days[0] = "18,23"
	raw.Special.Hourly = fp(2)

	agenda, err := BuildAgenda(raw)
	require.NoError(t, err)

	mon := agenda[1]
	require.Len(t, mon, 4)
	assert.Equal(t, [2]float64{8, 18}, mon[0].Hours)
	assert.Equal(t, [2]float64{18, 23}, mon[1].Hours)
	assert.Equal(t, [2]float64{0, 8}, mon[2].Hours)
	assert.Equal(t, [2]float64{23, 24}, mon[3].Hours)
}

func TestBuildAgendaBadHours(t *testing.T) {
	raw := RawLot{}
	raw.Normal.Days[0] = "whenever"
	_, err := BuildAgenda(raw)
	assert.Error(t, err)
}

func TestAgendaJSONKeys(t *testing.T) {
	raw := RawLot{}
	raw.Normal.Days[0] = "9,17"
	agenda, err := BuildAgenda(raw)
	require.NoError(t, err)

	data, err := json.Marshal(agenda)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"1":[{"hours":[9,17]`)

	var back Agenda
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, agenda, back)
}

func TestBuildAssemblesAttrs(t *testing.T) {
	raw := RawLot{Name: "Garage Centrale", Lat: 45.5, Long: -73.6, Capacity: 120, Indoor: true, Card: true, Active: true}
	raw.Normal.Days[0] = "0,24"

	lot, err := Build("montreal", raw)
	require.NoError(t, err)
	assert.Equal(t, "montreal", lot.City)
	assert.Equal(t, -73.6, lot.Geom[0])
	assert.True(t, lot.Attrs["indoor"])
	assert.False(t, lot.Attrs["valet"])
}

func TestReadCSV(t *testing.T) {
	csv := strings.Join([]string{
		"name,operator,address,description,lun_normal,hourly_normal,daily_normal,max_normal,lat,long,capacity,indoor,active",
		`Lot A,OpCo,1 Main,desc,"9,17",3.5,20,10,45.5,-73.6,80,t,t`,
		`Bad Lot,OpCo,2 Main,desc,"9,17",not-a-number,,,45.5,-73.6,,,t`,
	}, "\n")

	got, err := readCSV(strings.NewReader(csv), "test.csv")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Lot A", got[0].Name)
	assert.Equal(t, "9,17", got[0].Normal.Days[0])
	assert.Equal(t, 3.5, *got[0].Normal.Hourly)
	assert.Equal(t, 10, *got[0].Normal.Max)
	assert.Equal(t, 80, got[0].Capacity)
	assert.True(t, got[0].Indoor)
}
