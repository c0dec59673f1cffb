// Package rules normalizes heterogeneous per-city regulation rows into the
// compact weekly-agenda representation attached to every slot.
package rules

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
)

// TimeInterval is an active period within one day, [start, end] in
// 24-hour clock hours.
type TimeInterval [2]float64

// Agenda maps day of week (1 = Monday .. 7 = Sunday) to the active time
// intervals of that day. Every day key is present, empty days hold an
// empty list.
type Agenda map[int][]TimeInterval

// NewAgenda returns an agenda with all seven days initialized empty.
func NewAgenda() Agenda {
	a := make(Agenda, 7)
	for d := 1; d <= 7; d++ {
		a[d] = []TimeInterval{}
	}
	return a
}

// MarshalJSON keys days by their string digit, matching the stored jsonb
// shape consumed downstream.
func (a Agenda) MarshalJSON() ([]byte, error) {
	out := make(map[string][]TimeInterval, len(a))
	for d, ivs := range a {
		out[strconv.Itoa(d)] = ivs
	}
	return json.Marshal(out)
}

func (a *Agenda) UnmarshalJSON(data []byte) error {
	var raw map[string][]TimeInterval
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*a = make(Agenda, len(raw))
	for k, ivs := range raw {
		d, err := strconv.Atoi(k)
		if err != nil {
			return err
		}
		(*a)[d] = ivs
	}
	return nil
}

// Rule is a normalized regulation entry from the catalog.
type Rule struct {
	Code           string        `json:"code"`
	Description    string        `json:"description"`
	Address        string        `json:"address,omitempty"`
	SeasonStart    string        `json:"season_start"`
	SeasonEnd      string        `json:"season_end"`
	Agenda         Agenda        `json:"agenda"`
	TimeMaxParking float64       `json:"time_max_parking"`
	SpecialDays    string        `json:"special_days"`
	RestrictTypes  []string      `json:"restrict_types"`
	PermitNo       string        `json:"permit_no,omitempty"`
	PaidHourlyRate float64       `json:"paid_hourly_rate,omitempty"`
}

// RawRow is one row of a city's rule translation source: per-day flags
// plus a start time and either an end time or a duration.
type RawRow struct {
	Code           string
	Description    string
	SeasonStart    string
	SeasonEnd      string
	TimeMaxParking float64
	TimeStart      float64
	TimeEnd        float64
	TimeDuration   float64
	Days           [7]bool // Monday..Sunday
	Daily          bool
	SpecialDays    string
	RestrictTypes  []string
	PermitNo       string
}

// SplitTimeRange splits a start time plus duration over day boundaries.
// It returns the hours remaining in the starting day, the number of whole
// intervening days, and the hours spilling into the final day.
func SplitTimeRange(start, duration float64) (first float64, wholeDays int, last float64) {
	if start+duration <= 24 {
		return duration, 0, 0
	}
	first = 24 - start
	wholeDays = int(math.Floor((duration - first) / 24))
	last = math.Mod(duration-first, 24)
	return first, wholeDays, last
}

type groupKey struct {
	code        string
	seasonStart string
	seasonEnd   string
	maxParking  float64
}

// GroupRules merges raw rows sharing (code, season, max duration) into one
// Rule each, building the weekly agenda from the per-day flags. Overlapping
// intervals produced by conflicting source rows are kept as-is; intervals
// within a day are sorted by start time.
func GroupRules(rows []RawRow) []Rule {
	var order []groupKey
	groups := make(map[groupKey][]RawRow)
	for _, row := range rows {
		k := groupKey{row.Code, row.SeasonStart, row.SeasonEnd, row.TimeMaxParking}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], row)
	}

	out := make([]Rule, 0, len(order))
	for _, k := range order {
		rows := groups[k]
		agenda := NewAgenda()
		for _, row := range rows {
			for day := 1; day <= 7; day++ {
				if !row.Days[day-1] && !row.Daily {
					continue
				}
				applyRow(agenda, day, row)
			}
		}
		for d := 1; d <= 7; d++ {
			sort.Slice(agenda[d], func(i, j int) bool {
				return agenda[d][i][0] < agenda[d][j][0]
			})
		}
		last := rows[len(rows)-1]
		out = append(out, Rule{
			Code:           last.Code,
			Description:    last.Description,
			SeasonStart:    last.SeasonStart,
			SeasonEnd:      last.SeasonEnd,
			Agenda:         agenda,
			TimeMaxParking: last.TimeMaxParking,
			SpecialDays:    last.SpecialDays,
			RestrictTypes:  last.RestrictTypes,
			PermitNo:       last.PermitNo,
		})
	}
	return out
}

func applyRow(agenda Agenda, day int, row RawRow) {
	switch {
	case row.TimeEnd != 0:
		agenda[day] = append(agenda[day], TimeInterval{row.TimeStart, row.TimeEnd})
	case row.TimeDuration != 0:
		first, whole, last := SplitTimeRange(row.TimeStart, row.TimeDuration)
		agenda[day] = append(agenda[day], TimeInterval{row.TimeStart, row.TimeStart + first})
		for i := 1; i <= whole; i++ {
			agenda[wrapDay(day+i)] = append(agenda[wrapDay(day+i)], TimeInterval{0, 24})
		}
		if last != 0 {
			agenda[wrapDay(day+whole+1)] = append(agenda[wrapDay(day+whole+1)], TimeInterval{0, last})
		}
	default:
		agenda[day] = append(agenda[day], TimeInterval{0, 24})
	}
}

func wrapDay(day int) int {
	return (day-1)%7 + 1
}

// residential permit categories are anything outside this operational set
var nonResidentialPermits = map[string]bool{
	"bus":        true,
	"motorcycle": true,
	"commercial": true,
	"press":      true,
	"carshare":   true,
	"carpool":    true,
}

// ResidentialPermit reports whether a permit number denotes a residential
// permit rather than an operational category.
func ResidentialPermit(permit string) bool {
	return !nonResidentialPermits[permit]
}

// Catalog indexes rules by code.
type Catalog map[string]Rule

// NewCatalog builds a lookup from normalized rules.
func NewCatalog(rs []Rule) Catalog {
	c := make(Catalog, len(rs))
	for _, r := range rs {
		c[r.Code] = r
	}
	return c
}

// Has reports whether a regulation code exists in the catalog.
func (c Catalog) Has(code string) bool {
	_, ok := c[code]
	return ok
}
