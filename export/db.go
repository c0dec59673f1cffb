package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paulmach/orb/geojson"
)

// WriteCityGeoJSON streams one city's loaded slots back out of the
// database as a GeoJSON feature collection, display fields included.
func WriteCityGeoJSON(ctx context.Context, pool *pgxpool.Pool, city string, w io.Writer) error {
	rows, err := pool.Query(ctx, `
		SELECT id, way_name, rules, geojson, centerpoint, button_locations
		FROM slots WHERE city = $1 ORDER BY id`, city)
	if err != nil {
		return fmt.Errorf("query slots for %s: %w", city, err)
	}
	defer rows.Close()

	fc := geojson.NewFeatureCollection()
	for rows.Next() {
		var id, wayName string
		var rulesJSON, geomJSON, centerJSON, buttonsJSON []byte
		if err := rows.Scan(&id, &wayName, &rulesJSON, &geomJSON, &centerJSON, &buttonsJSON); err != nil {
			return fmt.Errorf("scan slot: %w", err)
		}
		g, err := geojson.UnmarshalGeometry(geomJSON)
		if err != nil {
			return fmt.Errorf("slot %s: decode geometry: %w", id, err)
		}
		var ruleSet any
		if err := json.Unmarshal(rulesJSON, &ruleSet); err != nil {
			return fmt.Errorf("slot %s: decode rules: %w", id, err)
		}
		var center, buttons any
		if err := json.Unmarshal(centerJSON, &center); err != nil {
			return fmt.Errorf("slot %s: decode centerpoint: %w", id, err)
		}
		if err := json.Unmarshal(buttonsJSON, &buttons); err != nil {
			return fmt.Errorf("slot %s: decode button locations: %w", id, err)
		}

		f := geojson.NewFeature(g.Geometry())
		f.ID = id
		f.Properties = geojson.Properties{
			"city":             city,
			"way_name":         wayName,
			"rules":            ruleSet,
			"centerpoint":      center,
			"button_locations": buttons,
		}
		fc.Append(f)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read slots for %s: %w", city, err)
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode %s feature collection: %w", city, err)
	}
	_, err = w.Write(data)
	return err
}
