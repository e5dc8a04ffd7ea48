package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quickbite/internal/domain/geo"
	"quickbite/internal/ports"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LocationRepo persists last-known locations using pgx and plain SQL.
// Positions are stored as PostGIS geography points (lon/lat, WGS84).
type LocationRepo struct {
	pool *pgxpool.Pool
}

// NewLocationRepo constructs a LocationRepo backed by the given pool.
func NewLocationRepo(pool *pgxpool.Pool) ports.LocationRepository {
	return &LocationRepo{pool: pool}
}

var _ ports.LocationRepository = (*LocationRepo)(nil)

// Upsert inserts or replaces the record for rec.EntityID. The row's
// last_updated is set by the database on every write, so concurrent writers
// for the same entity resolve last-write-wins.
func (repo *LocationRepo) Upsert(ctx context.Context, rec geo.LocationRecord) (geo.LocationRecord, error) {
	if err := rec.Validate(); err != nil {
		return geo.LocationRecord{}, err
	}

	// keep a previously stored address when the update carries none
	err := repo.pool.QueryRow(ctx, `
		INSERT INTO locations (entity_id, entity_kind, address, position, last_updated)
		VALUES ($1, $2, $3, ST_SetSRID(ST_MakePoint($4, $5), 4326)::geography, now())
		ON CONFLICT (entity_id) DO UPDATE SET
			entity_kind  = EXCLUDED.entity_kind,
			address      = CASE WHEN EXCLUDED.address <> '' THEN EXCLUDED.address ELSE locations.address END,
			position     = EXCLUDED.position,
			last_updated = now()
		RETURNING address, last_updated
	`,
		rec.EntityID,
		rec.Kind.String(),
		rec.Address,
		rec.Position.Lng,
		rec.Position.Lat,
	).Scan(&rec.Address, &rec.LastUpdated)
	if err != nil {
		return geo.LocationRecord{}, fmt.Errorf("upsert location: %w", err)
	}

	return rec, nil
}

// UpdateByEntity mutates an existing record in place; geo.ErrNotFound when
// no record exists for entityID.
func (repo *LocationRepo) UpdateByEntity(ctx context.Context, entityID string, pos geo.Position, address string) (geo.LocationRecord, error) {
	if err := pos.Validate(); err != nil {
		return geo.LocationRecord{}, err
	}

	var out geo.LocationRecord
	var kind string

	err := repo.pool.QueryRow(ctx, `
		UPDATE locations SET
			address      = CASE WHEN $2 <> '' THEN $2 ELSE address END,
			position     = ST_SetSRID(ST_MakePoint($3, $4), 4326)::geography,
			last_updated = now()
		WHERE entity_id = $1
		RETURNING entity_id, entity_kind, address,
		          ST_X(position::geometry), ST_Y(position::geometry), last_updated
	`, entityID, address, pos.Lng, pos.Lat).Scan(
		&out.EntityID, &kind, &out.Address,
		&out.Position.Lng, &out.Position.Lat, &out.LastUpdated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return geo.LocationRecord{}, geo.ErrNotFound
		}
		return geo.LocationRecord{}, fmt.Errorf("update location: %w", err)
	}

	out.Kind, _ = geo.ParseEntityKind(kind)
	return out, nil
}

// QueryActive returns records of one kind updated at or after since, newest
// first, with the owning user's display name joined in.
func (repo *LocationRepo) QueryActive(ctx context.Context, kind geo.EntityKind, since time.Time) ([]geo.LocationRecord, error) {
	rows, err := repo.pool.Query(ctx, `
		SELECT l.entity_id, l.entity_kind, l.address,
		       ST_X(l.position::geometry), ST_Y(l.position::geometry),
		       l.last_updated, COALESCE(u.name, '')
		FROM locations l
		LEFT JOIN users u ON u.id = l.entity_id
		WHERE l.entity_kind = $1
		  AND l.last_updated >= $2
		ORDER BY l.last_updated DESC
	`, kind.String(), since)
	if err != nil {
		return nil, fmt.Errorf("query active locations: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ListAll returns every record with display names joined in.
func (repo *LocationRepo) ListAll(ctx context.Context) ([]geo.LocationRecord, error) {
	rows, err := repo.pool.Query(ctx, `
		SELECT l.entity_id, l.entity_kind, l.address,
		       ST_X(l.position::geometry), ST_Y(l.position::geometry),
		       l.last_updated, COALESCE(u.name, '')
		FROM locations l
		LEFT JOIN users u ON u.id = l.entity_id
		ORDER BY l.last_updated DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func scanRecords(rows pgx.Rows) ([]geo.LocationRecord, error) {
	var out []geo.LocationRecord
	for rows.Next() {
		var rec geo.LocationRecord
		var kind string
		if err := rows.Scan(
			&rec.EntityID, &kind, &rec.Address,
			&rec.Position.Lng, &rec.Position.Lat,
			&rec.LastUpdated, &rec.DisplayName,
		); err != nil {
			return nil, fmt.Errorf("scan location row: %w", err)
		}
		rec.Kind, _ = geo.ParseEntityKind(kind)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate location rows: %w", err)
	}
	return out, nil
}
