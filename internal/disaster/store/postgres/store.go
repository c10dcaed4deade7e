// Package postgres persists disasters in PostgreSQL. Tags, location, and the
// audit trail live in jsonb columns; the audit append piggybacks on the field
// update so both land in one statement.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"beacon/internal/disaster"
	"beacon/internal/geocode"
	"beacon/pkg/platform/sentinel"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const disasterColumns = `id, title, location_name, location, description, tags, owner_id, created_at, updated_at, audit_trail`

func (s *Store) Insert(ctx context.Context, d *disaster.Disaster) error {
	location, err := marshalNullable(d.Location)
	if err != nil {
		return fmt.Errorf("marshal location: %w", err)
	}
	tags, err := json.Marshal(d.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	trail, err := json.Marshal(d.AuditTrail)
	if err != nil {
		return fmt.Errorf("marshal audit trail: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO disasters (`+disasterColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		d.ID, d.Title, d.LocationName, location, d.Description, tags, d.OwnerID,
		d.CreatedAt, d.UpdatedAt, trail,
	)
	if err != nil {
		return fmt.Errorf("insert disaster: %w", err)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*disaster.Disaster, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+disasterColumns+`
		FROM disasters
		WHERE id = $1`, id)
	d, err := scanDisaster(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find disaster: %w", err)
	}
	return d, nil
}

func (s *Store) List(ctx context.Context, filter disaster.ListFilter) ([]*disaster.Disaster, error) {
	query := `
		SELECT ` + disasterColumns + `
		FROM disasters`
	var args []any
	if filter.Tag != "" {
		args = append(args, filter.Tag)
		query += `
		WHERE tags @> to_jsonb(ARRAY[$1])`
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
		return nil, fmt.Errorf("list disasters: %w", err)
	}
	defer rows.Close()

	disasters := []*disaster.Disaster{}
	for rows.Next() {
		d, err := scanDisaster(rows)
		if err != nil {
			return nil, fmt.Errorf("scan disaster: %w", err)
		}
		disasters = append(disasters, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list disasters: %w", err)
	}
	return disasters, nil
}

// ApplyUpdate writes the changed fields and appends the audit entry in a
// single UPDATE so no interleaving writer can separate them.
func (s *Store) ApplyUpdate(ctx context.Context, id string, changes disaster.Changes, entry disaster.AuditEntry) (*disaster.Disaster, error) {
	entryJSON, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("marshal audit entry: %w", err)
	}

	sets := []string{}
	args := []any{id, changes.UpdatedAt, entryJSON}
	add := func(clause string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf(clause, len(args)))
	}

	if changes.Title != nil {
		add("title = $%d", *changes.Title)
	}
	if changes.LocationName != nil {
		add("location_name = $%d", *changes.LocationName)
		location, err := marshalNullable(changes.Location)
		if err != nil {
			return nil, fmt.Errorf("marshal location: %w", err)
		}
		add("location = $%d", location)
	}
	if changes.Description != nil {
		add("description = $%d", *changes.Description)
	}
	if changes.Tags != nil {
		tags, err := json.Marshal(*changes.Tags)
		if err != nil {
			return nil, fmt.Errorf("marshal tags: %w", err)
		}
		add("tags = $%d", tags)
	}
	sets = append(sets, "updated_at = $2", "audit_trail = audit_trail || $3::jsonb")

	row := s.db.QueryRowContext(ctx, `
		UPDATE disasters
		SET `+strings.Join(sets, ", ")+`
		WHERE id = $1
		RETURNING `+disasterColumns, args...)
	d, err := scanDisaster(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("update disaster: %w", err)
	}
	return d, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM disasters WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete disaster: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete disaster: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDisaster(row rowScanner) (*disaster.Disaster, error) {
	var (
		d        disaster.Disaster
		location []byte
		tags     []byte
		trail    []byte
	)
	err := row.Scan(&d.ID, &d.Title, &d.LocationName, &location, &d.Description,
		&tags, &d.OwnerID, &d.CreatedAt, &d.UpdatedAt, &trail)
	if err != nil {
		return nil, err
	}
	if location != nil {
		if err := json.Unmarshal(location, &d.Location); err != nil {
			return nil, fmt.Errorf("unmarshal location: %w", err)
		}
	}
	if err := json.Unmarshal(tags, &d.Tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}
	if err := json.Unmarshal(trail, &d.AuditTrail); err != nil {
		return nil, fmt.Errorf("unmarshal audit trail: %w", err)
	}
	return &d, nil
}

// marshalNullable keeps an absent location a SQL NULL instead of a JSON null.
func marshalNullable(loc *geocode.Coordinates) ([]byte, error) {
	if loc == nil {
		return nil, nil
	}
	return json.Marshal(loc)
}
