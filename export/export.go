// Package export turns finished slots into the shapes clients consume:
// per-slot display fields, GeoJSON feature collections, and the
// service-area summary.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/project"

	"github.com/curbd/curbd/database"
	"github.com/curbd/curbd/geom"
	"github.com/curbd/curbd/slots"
)

// slots at least this long get two tap targets instead of one
const buttonSplitLength = 300.0

// LongLat is a display coordinate in the shape clients expect.
type LongLat struct {
	Long float64 `json:"long"`
	Lat  float64 `json:"lat"`
}

func toWGS84(p orb.Point) orb.Point {
	return project.Mercator.ToWGS84(p)
}

// Centerpoint is the slot's single representative display point.
func Centerpoint(line orb.LineString) LongLat {
	p := toWGS84(geom.LineInterpolatePoint(line, 0.5))
	return LongLat{Long: p[0], Lat: p[1]}
}

// ButtonLocations places the tap targets along a slot: one at the
// middle, or two at thirds once the slot is long enough that a single
// button would sit too far from its ends.
func ButtonLocations(line orb.LineString) []LongLat {
	if geom.Length(line) >= buttonSplitLength {
		a := toWGS84(geom.LineInterpolatePoint(line, 0.333))
		b := toWGS84(geom.LineInterpolatePoint(line, 0.666))
		return []LongLat{{Long: a[0], Lat: a[1]}, {Long: b[0], Lat: b[1]}}
	}
	p := toWGS84(geom.LineInterpolatePoint(line, 0.5))
	return []LongLat{{Long: p[0], Lat: p[1]}}
}

// Rows prepares one city's slots for loading: geometries and display
// fields encoded, rules serialized.
func Rows(city string, in []slots.Slot) ([]database.SlotRow, error) {
	out := make([]database.SlotRow, 0, len(in))
	for _, s := range in {
		rulesJSON, err := json.Marshal(s.Rules)
		if err != nil {
			return nil, fmt.Errorf("slot %s: encode rules: %w", s.ID, err)
		}
		geomJSON, err := geojson.NewGeometry(s.Geom).MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("slot %s: encode geometry: %w", s.ID, err)
		}
		wgs := make(orb.LineString, len(s.Geom))
		for i, p := range s.Geom {
			wgs[i] = toWGS84(p)
		}
		displayJSON, err := geojson.NewGeometry(wgs).MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("slot %s: encode display geometry: %w", s.ID, err)
		}
		centerJSON, err := json.Marshal(Centerpoint(s.Geom))
		if err != nil {
			return nil, fmt.Errorf("slot %s: encode centerpoint: %w", s.ID, err)
		}
		buttonsJSON, err := json.Marshal(ButtonLocations(s.Geom))
		if err != nil {
			return nil, fmt.Errorf("slot %s: encode button locations: %w", s.ID, err)
		}
		posts := make([]int32, len(s.Signposts))
		for i, id := range s.Signposts {
			posts[i] = int32(id)
		}
		out = append(out, database.SlotRow{
			ID:              s.ID,
			City:            city,
			SideID:          s.SideID,
			Position:        s.Position,
			Signposts:       posts,
			Rules:           rulesJSON,
			WayName:         s.WayName,
			Geom:            geomJSON,
			GeoJSON:         displayJSON,
			Centerpoint:     centerJSON,
			ButtonLocations: buttonsJSON,
		})
	}
	return out, nil
}

// WriteGeoJSON streams one city's slots as a GeoJSON feature collection.
func WriteGeoJSON(w io.Writer, city string, in []slots.Slot) error {
	fc := geojson.NewFeatureCollection()
	for _, s := range in {
		wgs := make(orb.LineString, len(s.Geom))
		for i, p := range s.Geom {
			wgs[i] = toWGS84(p)
		}
		f := geojson.NewFeature(wgs)
		f.ID = s.ID
		f.Properties = geojson.Properties{
			"city":             city,
			"way_name":         s.WayName,
			"rules":            s.Rules,
			"centerpoint":      Centerpoint(s.Geom),
			"button_locations": ButtonLocations(s.Geom),
		}
		fc.Append(f)
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode %s feature collection: %w", city, err)
	}
	_, err = w.Write(data)
	return err
}

// WriteAreas writes the service-area summary: one feature per loaded
// city with its slot extent, for clients to decide which city a user
// is in.
func WriteAreas(ctx context.Context, pool *pgxpool.Pool, w io.Writer) error {
	rows, err := pool.Query(ctx, `
		SELECT city, ST_AsGeoJSON(ST_Transform(ST_SetSRID(ST_Extent(geom), 3857), 4326))
		FROM slots GROUP BY city ORDER BY city`)
	if err != nil {
		return fmt.Errorf("query service areas: %w", err)
	}
	defer rows.Close()

	fc := geojson.NewFeatureCollection()
	for rows.Next() {
		var city, extent string
		if err := rows.Scan(&city, &extent); err != nil {
			return fmt.Errorf("scan service area: %w", err)
		}
		g, err := geojson.UnmarshalGeometry([]byte(extent))
		if err != nil {
			return fmt.Errorf("decode extent for %s: %w", city, err)
		}
		f := geojson.NewFeature(g.Geometry())
		f.Properties = geojson.Properties{"name": city}
		fc.Append(f)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read service areas: %w", err)
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode service areas: %w", err)
	}
	_, err = w.Write(data)
	return err
}
