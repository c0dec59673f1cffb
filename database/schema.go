// Package database owns the PostGIS side of the pipeline: the cached
// connection pools, the result schema, and the bulk loaders the
// processing stages push their output through.
package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

const createRules = `
DROP TABLE IF EXISTS rules;
CREATE TABLE rules (
    id serial PRIMARY KEY
    , code varchar
    , description varchar
    , season_start varchar DEFAULT ''
    , season_end varchar DEFAULT ''
    , time_max_parking float DEFAULT 0.0
    , agenda jsonb
    , special_days varchar DEFAULT ''
    , restrict_types varchar[]
    , permit_no varchar
);
CREATE INDEX ON rules (code);
`

const createSlots = `
CREATE TABLE IF NOT EXISTS slots
(
  id varchar PRIMARY KEY,
  city varchar,
  r15id varchar,
  position float,
  signposts integer[],
  rules jsonb,
  way_name varchar,
  geom geometry(LineString,3857),
  geojson jsonb,
  centerpoint jsonb,
  button_locations jsonb
);
CREATE INDEX IF NOT EXISTS slots_city_idx ON slots (city);
CREATE INDEX IF NOT EXISTS slots_geom_idx ON slots USING GIST (geom);
`

const createParkingLots = `
DROP TABLE IF EXISTS parking_lots;
CREATE TABLE parking_lots
(
  id serial PRIMARY KEY,
  active boolean,
  partner_id varchar,
  partner_name varchar,
  city varchar,
  name varchar,
  operator varchar,
  capacity integer,
  available integer,
  address varchar,
  description varchar,
  agenda jsonb,
  attrs jsonb,
  geom geometry(Point,3857),
  geojson jsonb,
  street_view jsonb
);
CREATE INDEX ON parking_lots (city);
CREATE INDEX ON parking_lots USING GIST (geom);
`

const createPermits = `
DROP TABLE IF EXISTS permits;
CREATE TABLE permits (
    id serial PRIMARY KEY,
    city varchar,
    permit varchar,
    residential boolean
);
`

// Setup creates the result schema. Destructive for rules, parking lots
// and permits, which are rebuilt whole every run; slots survive so
// single-city runs do not wipe other cities.
func Setup(ctx context.Context, pool *pgxpool.Pool) error {
	for name, ddl := range map[string]string{
		"rules":        createRules,
		"slots":        createSlots,
		"parking_lots": createParkingLots,
		"permits":      createPermits,
	} {
		if _, err := pool.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("create table %s: %w", name, err)
		}
		log.Debugf("ensured table %s", name)
	}
	return nil
}

// ClearCity removes one city's previous results ahead of a reload.
func ClearCity(ctx context.Context, pool *pgxpool.Pool, city string) error {
	for _, table := range []string{"slots", "permits"} {
		if _, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE city = $1", table), city); err != nil {
			return fmt.Errorf("clear %s for %s: %w", table, city, err)
		}
	}
	return nil
}
