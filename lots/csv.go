package lots

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

// day column prefixes, Monday first, as the city inventories name them
var dayColumns = [7]string{"lun", "mar", "mer", "jeu", "ven", "sam", "dim"}

// LoadCSV reads a city's lot inventory file. Rows that fail to parse
// are logged and skipped; the inventory files are maintained by hand
// and a bad row should not sink the run.
func LoadCSV(path string) ([]RawLot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open lot inventory: %w", err)
	}
	defer f.Close()
	return readCSV(f, path)
}

func readCSV(r io.Reader, name string) ([]RawLot, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read lot inventory header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(strings.ToLower(h))] = i
	}

	var out []RawLot
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			log.Warnf("%s line %d: %v, skipping", name, line, err)
			continue
		}
		lot, err := parseLot(rec, col)
		if err != nil {
			log.Warnf("%s line %d: %v, skipping", name, line, err)
			continue
		}
		out = append(out, lot)
	}
	return out, nil
}

func parseLot(rec []string, col map[string]int) (RawLot, error) {
	get := func(name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	getFloat := func(name string) (*float64, error) {
		s := get(name)
		if s == "" {
			return nil, nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", name, err)
		}
		return &v, nil
	}
	getInt := func(name string) (*int, error) {
		s := get(name)
		if s == "" {
			return nil, nil
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", name, err)
		}
		return &v, nil
	}
	getBool := func(name string) bool {
		switch strings.ToLower(get(name)) {
		case "1", "t", "true", "yes":
			return true
		}
		return false
	}

	tier := func(suffix string) (Tier, error) {
		var t Tier
		for i, d := range dayColumns {
			t.Days[i] = get(d + "_" + suffix)
		}
		var err error
		if t.Hourly, err = getFloat("hourly_" + suffix); err != nil {
			return t, err
		}
		if t.Daily, err = getFloat("daily_" + suffix); err != nil {
			return t, err
		}
		if t.Max, err = getInt("max_" + suffix); err != nil {
			return t, err
		}
		return t, nil
	}

	var lot RawLot
	var err error
	lot.Name = get("name")
	lot.Operator = get("operator")
	lot.Address = get("address")
	lot.Description = get("description")
	if lot.Normal, err = tier("normal"); err != nil {
		return lot, err
	}
	if lot.Special, err = tier("special"); err != nil {
		return lot, err
	}
	if lot.Free, err = tier("free"); err != nil {
		return lot, err
	}

	if v, err := getFloat("lat"); err != nil {
		return lot, err
	} else if v != nil {
		lot.Lat = *v
	}
	if v, err := getFloat("long"); err != nil {
		return lot, err
	} else if v != nil {
		lot.Long = *v
	}
	if v, err := getInt("capacity"); err != nil {
		return lot, err
	} else if v != nil {
		lot.Capacity = *v
	}

	lot.Indoor = getBool("indoor")
	lot.Handicap = getBool("handicap")
	lot.Card = getBool("card")
	lot.Valet = getBool("valet")
	lot.Active = getBool("active")
	lot.StreetViewHead = get("street_view_head")
	lot.StreetViewID = get("street_view_id")
	lot.PartnerName = get("partner_name")
	lot.PartnerID = get("partner_id")
	return lot, nil
}
