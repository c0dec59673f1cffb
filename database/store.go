package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"github.com/curbd/curbd/lots"
	"github.com/curbd/curbd/rules"
)

// SlotRow is one finished slot ready for loading, geometry and display
// fields already encoded as GeoJSON.
type SlotRow struct {
	ID              string
	City            string
	SideID          string
	Position        float64
	Signposts       []int32
	Rules           []byte
	WayName         string
	Geom            []byte
	GeoJSON         []byte
	Centerpoint     []byte
	ButtonLocations []byte
}

// Permit is one distinct permit designation seen in a city's slots.
type Permit struct {
	City        string
	Permit      string
	Residential bool
}

// InsertRules bulk-loads the normalized rule catalog.
func InsertRules(ctx context.Context, pool *pgxpool.Pool, rs []rules.Rule) error {
	rows := make([][]any, 0, len(rs))
	for _, r := range rs {
		agenda, err := json.Marshal(r.Agenda)
		if err != nil {
			return fmt.Errorf("encode agenda for %s: %w", r.Code, err)
		}
		rows = append(rows, []any{
			r.Code, r.Description, r.SeasonStart, r.SeasonEnd,
			r.TimeMaxParking, agenda, r.SpecialDays, r.RestrictTypes, r.PermitNo,
		})
	}
	n, err := pool.CopyFrom(ctx, pgx.Identifier{"rules"},
		[]string{"code", "description", "season_start", "season_end",
			"time_max_parking", "agenda", "special_days", "restrict_types", "permit_no"},
		pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}
	log.Debugf("loaded %d rules", n)
	return nil
}

// InsertSlots loads one city's finished slots in batches.
func InsertSlots(ctx context.Context, pool *pgxpool.Pool, city string, rows []SlotRow) error {
	const stmt = `
		INSERT INTO slots (id, city, r15id, position, signposts, rules, way_name,
			geom, geojson, centerpoint, button_locations)
		VALUES ($1, $2, $3, $4, $5, $6, $7,
			ST_SetSRID(ST_GeomFromGeoJSON($8), 3857), $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			position = EXCLUDED.position,
			signposts = EXCLUDED.signposts,
			rules = EXCLUDED.rules,
			way_name = EXCLUDED.way_name,
			geom = EXCLUDED.geom,
			geojson = EXCLUDED.geojson,
			centerpoint = EXCLUDED.centerpoint,
			button_locations = EXCLUDED.button_locations`

	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(stmt, r.ID, city, r.SideID, r.Position, r.Signposts, r.Rules,
			r.WayName, r.Geom, r.GeoJSON, r.Centerpoint, r.ButtonLocations)
	}
	if err := pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("load slots for %s: %w", city, err)
	}
	log.Debugf("%s: loaded %d slots", city, len(rows))
	return nil
}

// InsertLots loads processed parking lots.
func InsertLots(ctx context.Context, pool *pgxpool.Pool, ls []lots.Lot) error {
	const stmt = `
		INSERT INTO parking_lots (active, partner_id, partner_name, city, name,
			operator, capacity, address, description, agenda, attrs,
			geom, geojson, street_view)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			ST_Transform(ST_SetSRID(ST_MakePoint($12, $13), 4326), 3857),
			ST_AsGeoJSON(ST_SetSRID(ST_MakePoint($12, $13), 4326))::jsonb, $14)`

	batch := &pgx.Batch{}
	for _, l := range ls {
		agenda, err := json.Marshal(l.Agenda)
		if err != nil {
			return fmt.Errorf("encode agenda for lot %q: %w", l.Name, err)
		}
		attrs, err := json.Marshal(l.Attrs)
		if err != nil {
			return fmt.Errorf("encode attrs for lot %q: %w", l.Name, err)
		}
		sv, err := json.Marshal(l.StreetView)
		if err != nil {
			return fmt.Errorf("encode street view for lot %q: %w", l.Name, err)
		}
		batch.Queue(stmt, l.Active, l.PartnerID, l.PartnerName, l.City, l.Name,
			l.Operator, l.Capacity, l.Address, l.Description, agenda, attrs,
			l.Geom[0], l.Geom[1], sv)
	}
	if err := pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("load parking lots: %w", err)
	}
	log.Debugf("loaded %d parking lots", len(ls))
	return nil
}

// InsertPermits bulk-loads one city's permit list.
func InsertPermits(ctx context.Context, pool *pgxpool.Pool, ps []Permit) error {
	rows := make([][]any, 0, len(ps))
	for _, p := range ps {
		rows = append(rows, []any{p.City, p.Permit, p.Residential})
	}
	if _, err := pool.CopyFrom(ctx, pgx.Identifier{"permits"},
		[]string{"city", "permit", "residential"}, pgx.CopyFromRows(rows)); err != nil {
		return fmt.Errorf("load permits: %w", err)
	}
	return nil
}
