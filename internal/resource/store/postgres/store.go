// Package postgres persists resources in PostgreSQL. Coordinates live in a
// PostGIS geography column so proximity queries run on the index instead of
// in application code.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"beacon/internal/geocode"
	"beacon/internal/resource"
	"beacon/pkg/platform/sentinel"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const resourceColumns = `id, disaster_id, name, type, location_name, ST_Y(location::geometry), ST_X(location::geometry), created_at`

func (s *Store) Insert(ctx context.Context, r *resource.Resource) error {
	var lat, lng sql.NullFloat64
	if r.Location != nil {
		lat = sql.NullFloat64{Float64: r.Location.Lat, Valid: true}
		lng = sql.NullFloat64{Float64: r.Location.Lng, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO resources (id, disaster_id, name, type, location_name, location, created_at)
		VALUES ($1, $2, $3, $4, $5,
			CASE WHEN $6::float8 IS NULL THEN NULL
			     ELSE ST_SetSRID(ST_MakePoint($7, $6), 4326)::geography END,
			$8)`,
		r.ID, r.DisasterID, r.Name, r.Type, r.LocationName, lat, lng, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert resource: %w", err)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*resource.Resource, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+resourceColumns+`
		FROM resources
		WHERE id = $1`, id)
	r, err := scanResource(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find resource: %w", err)
	}
	return r, nil
}

func (s *Store) ListByDisaster(ctx context.Context, disasterID string, filter resource.ListFilter) ([]*resource.Resource, error) {
	query := `
		SELECT ` + resourceColumns + `
		FROM resources
		WHERE disaster_id = $1`
	args := []any{disasterID}
	if filter.Type != "" {
		args = append(args, filter.Type)
		query += `
		AND type = $` + strconv.Itoa(len(args))
	}
	query += `
		ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += `
		LIMIT $` + strconv.Itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += `
		OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	defer rows.Close()

	resources := []*resource.Resource{}
	for rows.Next() {
		r, err := scanResource(rows)
		if err != nil {
			return nil, fmt.Errorf("scan resource: %w", err)
		}
		resources = append(resources, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	return resources, nil
}

func (s *Store) FindNearby(ctx context.Context, disasterID string, point geocode.Coordinates, radiusMeters float64) ([]*resource.Match, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+resourceColumns+`,
		       ST_Distance(location, ST_SetSRID(ST_MakePoint($3, $2), 4326)::geography)
		FROM resources
		WHERE disaster_id = $1
		  AND location IS NOT NULL
		  AND ST_DWithin(location, ST_SetSRID(ST_MakePoint($3, $2), 4326)::geography, $4)
		ORDER BY ST_Distance(location, ST_SetSRID(ST_MakePoint($3, $2), 4326)::geography) ASC`,
		disasterID, point.Lat, point.Lng, radiusMeters,
	)
	if err != nil {
		return nil, fmt.Errorf("find nearby resources: %w", err)
	}
	defer rows.Close()

	matches := []*resource.Match{}
	for rows.Next() {
		var (
			r        resource.Resource
			lat, lng sql.NullFloat64
			distance float64
		)
		err := rows.Scan(&r.ID, &r.DisasterID, &r.Name, &r.Type, &r.LocationName,
			&lat, &lng, &r.CreatedAt, &distance)
		if err != nil {
			return nil, fmt.Errorf("scan nearby resource: %w", err)
		}
		if lat.Valid && lng.Valid {
			r.Location = &geocode.Coordinates{Lat: lat.Float64, Lng: lng.Float64}
		}
		matches = append(matches, &resource.Match{Resource: &r, DistanceMeters: distance})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find nearby resources: %w", err)
	}
	return matches, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM resources WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete resource: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete resource: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResource(row rowScanner) (*resource.Resource, error) {
	var (
		r        resource.Resource
		lat, lng sql.NullFloat64
	)
	err := row.Scan(&r.ID, &r.DisasterID, &r.Name, &r.Type, &r.LocationName,
		&lat, &lng, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	if lat.Valid && lng.Valid {
		r.Location = &geocode.Coordinates{Lat: lat.Float64, Lng: lng.Float64}
	}
	return &r, nil
}
