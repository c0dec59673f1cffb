// Package lots turns raw parking-lot records into priced weekly agendas.
// A lot publishes up to three pricing tiers per day (normal, special,
// free); the agenda carries one period per open stretch and explicit
// closed periods for everything in between.
package lots

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// Period is one priced stretch of a lot's day. Nil prices on an
// otherwise open period mean the price is unknown; a period with all
// prices nil that the gap fill inserted means the lot is closed.
type Period struct {
	Hours  [2]float64 `json:"hours"`
	Hourly *float64   `json:"hourly"`
	Max    *int       `json:"max"`
	Daily  *float64   `json:"daily"`
}

// Agenda maps ISO weekday (1 Monday .. 7 Sunday, string-keyed in JSON)
// to the day's periods.
type Agenda map[int][]Period

func (a Agenda) MarshalJSON() ([]byte, error) {
	out := make(map[string][]Period, len(a))
	for day, ps := range a {
		out[strconv.Itoa(day)] = ps
	}
	return json.Marshal(out)
}

func (a *Agenda) UnmarshalJSON(data []byte) error {
	raw := make(map[string][]Period)
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*a = make(Agenda, len(raw))
	for k, ps := range raw {
		day, err := strconv.Atoi(k)
		if err != nil || day < 1 || day > 7 {
			return fmt.Errorf("bad agenda day key %q", k)
		}
		(*a)[day] = ps
	}
	return nil
}

// Tier is one pricing tier of a raw lot record: seven "start,end" hour
// ranges (Monday first, empty when the tier does not apply that day)
// plus the tier's prices.
type Tier struct {
	Days   [7]string
	Hourly *float64
	Daily  *float64
	Max    *int
}

// RawLot is one source record, straight from the city's lot inventory.
type RawLot struct {
	Name        string
	Operator    string
	Address     string
	Description string

	Normal  Tier
	Special Tier
	Free    Tier

	Capacity int
	Indoor   bool
	Handicap bool
	Card     bool
	Valet    bool

	Lat  float64
	Long float64

	StreetViewHead string
	StreetViewID   string

	Active      bool
	PartnerName string
	PartnerID   string
}

// Lot is the processed record ready for loading.
type Lot struct {
	City        string          `json:"city"`
	Name        string          `json:"name"`
	Operator    string          `json:"operator"`
	Address     string          `json:"address"`
	Description string          `json:"description"`
	Agenda      Agenda          `json:"agenda"`
	Capacity    int             `json:"capacity"`
	Attrs       map[string]bool `json:"attrs"`
	Geom        orb.Point       `json:"-"`
	Active      bool            `json:"active"`
	StreetView  StreetView      `json:"street_view"`
	PartnerName string          `json:"partner_name"`
	PartnerID   string          `json:"partner_id"`
}

type StreetView struct {
	Head string `json:"head"`
	ID   string `json:"id"`
}

// Build assembles the loadable lot from a raw record.
func Build(city string, raw RawLot) (Lot, error) {
	agenda, err := BuildAgenda(raw)
	if err != nil {
		return Lot{}, fmt.Errorf("lot %q: %w", raw.Name, err)
	}
	return Lot{
		City:        city,
		Name:        raw.Name,
		Operator:    raw.Operator,
		Address:     raw.Address,
		Description: raw.Description,
		Agenda:      agenda,
		Capacity:    raw.Capacity,
		Attrs: map[string]bool{
			"indoor":   raw.Indoor,
			"handicap": raw.Handicap,
			"card":     raw.Card,
			"valet":    raw.Valet,
		},
		Geom:        orb.Point{raw.Long, raw.Lat},
		Active:      raw.Active,
		StreetView:  StreetView{Head: raw.StreetViewHead, ID: raw.StreetViewID},
		PartnerName: raw.PartnerName,
		PartnerID:   raw.PartnerID,
	}, nil
}

// BuildAgenda derives the weekly agenda of one lot. An open range that
// wraps past midnight spills its tail onto the following day; after all
// tiers are placed, the gaps between open periods become explicit
// closed periods, and a day with no open period at all is closed whole.
func BuildAgenda(raw RawLot) (Agenda, error) {
	agenda := make(Agenda, 7)
	for day := 1; day <= 7; day++ {
		agenda[day] = nil
	}

	zero := 0.0
	tiers := []struct {
		t      Tier
		hourly *float64
	}{
		{raw.Normal, raw.Normal.Hourly},
		{raw.Special, raw.Special.Hourly},
		{raw.Free, &zero},
	}

	for day := 1; day <= 7; day++ {
		for ti, tier := range tiers {
			spec := tier.t.Days[day-1]
			if spec == "" {
				continue
			}
			hours, err := parseHours(spec)
			if err != nil {
				return nil, fmt.Errorf("day %d tier %d: %w", day, ti, err)
			}
			maxStay := tier.t.Max
			if ti == 2 { // free tier carries no max stay
				maxStay = nil
			}
			p := Period{Hourly: tier.hourly, Daily: tier.t.Daily, Max: maxStay}

			if hours != [2]float64{0, 24} && hours[0] > hours[1] {
				next := day%7 + 1
				tail := p
				tail.Hours = [2]float64{0, hours[1]}
				agenda[next] = append(agenda[next], tail)
				hours[1] = 24
			}
			p.Hours = hours
			agenda[day] = append(agenda[day], p)
		}
	}

	fillClosed(agenda)
	return agenda, nil
}

// fillClosed inserts unpriced periods covering the stretches of each
// day no open period claims.
func fillClosed(agenda Agenda) {
	for day := 1; day <= 7; day++ {
		open := agenda[day]
		if len(open) == 0 {
			agenda[day] = []Period{{Hours: [2]float64{0, 24}}}
			continue
		}
		sort.Slice(open, func(i, j int) bool { return open[i].Hours[0] < open[j].Hours[0] })

		var closed []Period
		starts := make(map[float64]bool, len(open))
		for _, p := range open {
			starts[p.Hours[0]] = true
		}
		for i, p := range open {
			if p.Hours[0] == 0 {
				continue
			}
			lastEnd := 0.0
			if i > 0 {
				lastEnd = open[i-1].Hours[1]
			}
			if !starts[lastEnd] {
				closed = append(closed, Period{Hours: [2]float64{lastEnd, p.Hours[0]}})
			}
		}
		last := open[len(open)-1]
		if last.Hours[1] != 24 {
			closed = append(closed, Period{Hours: [2]float64{last.Hours[1], 24}})
		}
		agenda[day] = append(open, closed...)
	}
}

func parseHours(spec string) ([2]float64, error) {
	parts := strings.Split(spec, ",")
	if len(parts) != 2 {
		return [2]float64{}, fmt.Errorf("bad hours %q", spec)
	}
	var out [2]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return [2]float64{}, fmt.Errorf("bad hours %q: %w", spec, err)
		}
		out[i] = v
	}
	return out, nil
}
