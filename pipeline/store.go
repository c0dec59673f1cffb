package pipeline

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/curbd/curbd/database"
	"github.com/curbd/curbd/lots"
	"github.com/curbd/curbd/rules"
	"github.com/curbd/curbd/signs"
)

// Store receives the pipeline's results.
type Store interface {
	Setup(ctx context.Context) error
	InsertRules(ctx context.Context, rs []rules.Rule) error
	ClearCity(ctx context.Context, city string) error
	InsertSlots(ctx context.Context, city string, rows []database.SlotRow) error
	InsertDebugSlots(ctx context.Context, city string, rows []database.SlotRow) error
	InsertLots(ctx context.Context, ls []lots.Lot) error
	InsertPermits(ctx context.Context, ps []database.Permit) error
	InsertOrphans(ctx context.Context, city string, orphans []*signs.Signpost) error
}

// PGStore is the PostGIS-backed store.
type PGStore struct {
	Pool *pgxpool.Pool
}

func (s *PGStore) Setup(ctx context.Context) error {
	return database.Setup(ctx, s.Pool)
}

func (s *PGStore) InsertRules(ctx context.Context, rs []rules.Rule) error {
	return database.InsertRules(ctx, s.Pool, rs)
}

func (s *PGStore) ClearCity(ctx context.Context, city string) error {
	return database.ClearCity(ctx, s.Pool, city)
}

func (s *PGStore) InsertSlots(ctx context.Context, city string, rows []database.SlotRow) error {
	return database.InsertSlots(ctx, s.Pool, city, rows)
}

func (s *PGStore) InsertLots(ctx context.Context, ls []lots.Lot) error {
	return database.InsertLots(ctx, s.Pool, ls)
}

func (s *PGStore) InsertPermits(ctx context.Context, ps []database.Permit) error {
	return database.InsertPermits(ctx, s.Pool, ps)
}

// InsertOrphans keeps the signposts no road claimed around for manual
// inspection, one generation per city.
func (s *PGStore) InsertOrphans(ctx context.Context, city string, orphans []*signs.Signpost) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS signpost_orphans (
			pkid serial PRIMARY KEY,
			city varchar,
			signpost integer,
			sign_ids bigint[],
			road_key varchar,
			geom geometry(Point,3857)
		)`
	if _, err := s.Pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create signpost_orphans: %w", err)
	}
	if _, err := s.Pool.Exec(ctx, "DELETE FROM signpost_orphans WHERE city = $1", city); err != nil {
		return fmt.Errorf("clear signpost_orphans for %s: %w", city, err)
	}

	batch := &pgx.Batch{}
	for _, o := range orphans {
		batch.Queue(`
			INSERT INTO signpost_orphans (city, signpost, sign_ids, road_key, geom)
			VALUES ($1, $2, $3, $4, ST_SetSRID(ST_MakePoint($5, $6), 3857))`,
			city, o.ID, o.SignIDs, o.RoadKey, o.Geom[0], o.Geom[1])
	}
	if err := s.Pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("load signpost_orphans for %s: %w", city, err)
	}
	return nil
}

// InsertDebugSlots keeps the pre-merge candidate slots around for
// inspection, one generation per city.
func (s *PGStore) InsertDebugSlots(ctx context.Context, city string, rows []database.SlotRow) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS slots_debug (
			pkid serial PRIMARY KEY,
			city varchar,
			r15id varchar,
			position float,
			signposts integer[],
			rules jsonb,
			way_name varchar,
			geom geometry(LineString,3857)
		)`
	if _, err := s.Pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create slots_debug: %w", err)
	}
	if _, err := s.Pool.Exec(ctx, "DELETE FROM slots_debug WHERE city = $1", city); err != nil {
		return fmt.Errorf("clear slots_debug for %s: %w", city, err)
	}

	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO slots_debug (city, r15id, position, signposts, rules, way_name, geom)
			VALUES ($1, $2, $3, $4, $5, $6, ST_SetSRID(ST_GeomFromGeoJSON($7), 3857))`,
			city, r.SideID, r.Position, r.Signposts, r.Rules, r.WayName, r.Geom)
	}
	if err := s.Pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("load slots_debug for %s: %w", city, err)
	}
	return nil
}
