package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/curbd/curbd/cities"
	"github.com/curbd/curbd/lots"
	"github.com/curbd/curbd/roads"
	"github.com/curbd/curbd/rules"
	"github.com/curbd/curbd/signs"
	"github.com/curbd/curbd/slots"
)

// Source supplies one city's staged inputs to the processing stages.
type Source interface {
	// Edges returns the city's generic road network.
	Edges(ctx context.Context, city string) ([]roads.Edge, error)
	// Geobase returns the city's canonical centerline network.
	Geobase(ctx context.Context, city string) ([]roads.Edge, error)
	// Signs returns the city's raw signs, directions decoded per the
	// city's convention.
	Signs(ctx context.Context, city string, conv cities.Convention) ([]signs.Sign, error)
	// RuleRows returns the city's rule translation rows.
	RuleRows(ctx context.Context, city string) ([]rules.RawRow, error)
	// PaidZones returns the city's independently published paid
	// parking stretches; empty for cities without them.
	PaidZones(ctx context.Context, city string) ([]slots.PaidZone, error)
	// PaidMeters returns the city's raw parking meter points; empty
	// for cities that publish drawn zones instead.
	PaidMeters(ctx context.Context, city string) ([]orb.Point, error)
	// RawLots returns the city's parking lot inventory; ErrNoLots when
	// the city has none.
	RawLots(ctx context.Context, city string) ([]lots.RawLot, error)
}

// ErrNoLots marks a city without a parking lot inventory.
var ErrNoLots = errors.New("no lot inventory for city")

// PGSource reads staged inputs from the per-city staging tables the
// update step populates, and lot inventories from the data directory.
type PGSource struct {
	Pool    *pgxpool.Pool
	DataDir string
}

func (s *PGSource) Edges(ctx context.Context, city string) ([]roads.Edge, error) {
	return s.edges(ctx, city+"_roads")
}

func (s *PGSource) Geobase(ctx context.Context, city string) ([]roads.Edge, error) {
	return s.edges(ctx, city+"_geobase")
}

func (s *PGSource) edges(ctx context.Context, table string) ([]roads.Edge, error) {
	rows, err := s.Pool.Query(ctx, fmt.Sprintf(
		"SELECT id, coalesce(name, ''), ST_AsGeoJSON(geom) FROM %s", table))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var out []roads.Edge
	for rows.Next() {
		var e roads.Edge
		var gj string
		if err := rows.Scan(&e.ID, &e.Name, &gj); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		line, err := lineFromJSON(gj)
		if err != nil {
			return nil, fmt.Errorf("%s edge %d: %w", table, e.ID, err)
		}
		e.Geom = line
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PGSource) Signs(ctx context.Context, city string, conv cities.Convention) ([]signs.Sign, error) {
	table := city + "_signs"
	rows, err := s.Pool.Query(ctx, fmt.Sprintf(`
		SELECT id, coalesce(source_id, 0), code, coalesce(description, ''),
			coalesce(arrow, 0), ST_AsGeoJSON(geom),
			coalesce(road_key, ''), coalesce(side, 0)
		FROM %s`, table))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var out []signs.Sign
	for rows.Next() {
		var sg signs.Sign
		var arrow int
		var gj string
		if err := rows.Scan(&sg.ID, &sg.SourceID, &sg.Code, &sg.Description,
			&arrow, &gj, &sg.RoadKey, &sg.Side); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		p, err := pointFromJSON(gj)
		if err != nil {
			return nil, fmt.Errorf("%s sign %d: %w", table, sg.ID, err)
		}
		sg.Geom = p
		sg.Direction = conv.DecodeDirection(arrow, sg.Description)
		out = append(out, sg)
	}
	return out, rows.Err()
}

func (s *PGSource) RuleRows(ctx context.Context, city string) ([]rules.RawRow, error) {
	table := city + "_rules_translation"
	rows, err := s.Pool.Query(ctx, fmt.Sprintf(`
		SELECT code, coalesce(description, ''),
			coalesce(season_start, ''), coalesce(season_end, ''),
			coalesce(time_max_parking, 0), coalesce(time_start, 0),
			coalesce(time_end, 0), coalesce(time_duration, 0),
			coalesce(lun, false), coalesce(mar, false), coalesce(mer, false),
			coalesce(jeu, false), coalesce(ven, false), coalesce(sam, false),
			coalesce(dim, false), coalesce(daily, false),
			coalesce(special_days, ''), coalesce(restrict_types, '{}'),
			coalesce(permit_no, '')
		FROM %s`, table))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var out []rules.RawRow
	for rows.Next() {
		var r rules.RawRow
		if err := rows.Scan(&r.Code, &r.Description, &r.SeasonStart, &r.SeasonEnd,
			&r.TimeMaxParking, &r.TimeStart, &r.TimeEnd, &r.TimeDuration,
			&r.Days[0], &r.Days[1], &r.Days[2], &r.Days[3], &r.Days[4],
			&r.Days[5], &r.Days[6], &r.Daily,
			&r.SpecialDays, &r.RestrictTypes, &r.PermitNo); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PGSource) PaidZones(ctx context.Context, city string) ([]slots.PaidZone, error) {
	table := city + "_paid_zones"
	var exists bool
	if err := s.Pool.QueryRow(ctx,
		"SELECT to_regclass($1) IS NOT NULL", table).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check %s: %w", table, err)
	}
	if !exists {
		return nil, nil
	}

	rows, err := s.Pool.Query(ctx, fmt.Sprintf(
		"SELECT ST_AsGeoJSON(geom), coalesce(isleft, 1) FROM %s", table))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var out []slots.PaidZone
	for rows.Next() {
		var z slots.PaidZone
		var gj string
		if err := rows.Scan(&gj, &z.IsLeft); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		line, err := lineFromJSON(gj)
		if err != nil {
			return nil, fmt.Errorf("%s zone: %w", table, err)
		}
		z.Geom = line
		out = append(out, z)
	}
	return out, rows.Err()
}

func (s *PGSource) PaidMeters(ctx context.Context, city string) ([]orb.Point, error) {
	table := city + "_paid_meters"
	var exists bool
	if err := s.Pool.QueryRow(ctx,
		"SELECT to_regclass($1) IS NOT NULL", table).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check %s: %w", table, err)
	}
	if !exists {
		return nil, nil
	}

	rows, err := s.Pool.Query(ctx, fmt.Sprintf(
		"SELECT ST_AsGeoJSON(geom) FROM %s", table))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var out []orb.Point
	for rows.Next() {
		var gj string
		if err := rows.Scan(&gj); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		p, err := pointFromJSON(gj)
		if err != nil {
			return nil, fmt.Errorf("%s meter: %w", table, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PGSource) RawLots(_ context.Context, city string) ([]lots.RawLot, error) {
	path := filepath.Join(s.DataDir, "lots_"+city+".csv")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, ErrNoLots
	}
	return lots.LoadCSV(path)
}

func lineFromJSON(gj string) (orb.LineString, error) {
	g, err := geojson.UnmarshalGeometry([]byte(gj))
	if err != nil {
		return nil, err
	}
	line, ok := g.Geometry().(orb.LineString)
	if !ok {
		return nil, fmt.Errorf("expected LineString, got %s", g.Type)
	}
	return line, nil
}

func pointFromJSON(gj string) (orb.Point, error) {
	g, err := geojson.UnmarshalGeometry([]byte(gj))
	if err != nil {
		return orb.Point{}, err
	}
	p, ok := g.Geometry().(orb.Point)
	if !ok {
		return orb.Point{}, fmt.Errorf("expected Point, got %s", g.Type)
	}
	return p, nil
}
