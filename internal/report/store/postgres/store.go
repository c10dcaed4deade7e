// Package postgres persists reports in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"beacon/internal/report"
	"beacon/pkg/platform/sentinel"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const reportColumns = `id, disaster_id, user_id, content, image_url, verification_status, verification_note, created_at, updated_at`

func (s *Store) Insert(ctx context.Context, r *report.Report) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reports (`+reportColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		r.ID, r.DisasterID, r.UserID, r.Content, r.ImageURL,
		string(r.VerificationStatus), r.VerificationNote, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*report.Report, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+reportColumns+`
		FROM reports
		WHERE id = $1`, id)
	r, err := scanReport(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find report: %w", err)
	}
	return r, nil
}

func (s *Store) ListByDisaster(ctx context.Context, disasterID string, filter report.ListFilter) ([]*report.Report, error) {
	query := `
		SELECT ` + reportColumns + `
		FROM reports
		WHERE disaster_id = $1`
	args := []any{disasterID}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += `
		AND verification_status = $` + strconv.Itoa(len(args))
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
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	reports := []*report.Report{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id string, status report.Status, note string, updatedAt time.Time) (*report.Report, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE reports
		SET verification_status = $2, verification_note = $3, updated_at = $4
		WHERE id = $1
		RETURNING `+reportColumns, id, string(status), note, updatedAt)
	r, err := scanReport(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("update report status: %w", err)
	}
	return r, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*report.Report, error) {
	var (
		r      report.Report
		status string
	)
	err := row.Scan(&r.ID, &r.DisasterID, &r.UserID, &r.Content, &r.ImageURL,
		&status, &r.VerificationNote, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.VerificationStatus = report.Status(status)
	return &r, nil
}
