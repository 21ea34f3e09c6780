package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SnowHeight is the measured snow depth over the array for one run, in meters.
type SnowHeight struct {
	RunNumber uint32    `json:"run_number"`
	Height    float64   `json:"height"`
	Timestamp time.Time `json:"timestamp"`
}

// InsertSnowHeight creates the snow height record for a run.
func (s *Store) InsertSnowHeight(ctx context.Context, sh SnowHeight) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO snow_height (run_number, height, timestamp) VALUES (?,?,?)`,
		sh.RunNumber, sh.Height, sh.Timestamp.Unix())
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: snow height for run %d", ErrDuplicate, sh.RunNumber)
	}
	if err != nil {
		return fmt.Errorf("store: insert snow height: %w", err)
	}
	return nil
}

// ListSnowHeights returns every snow height record.
func (s *Store) ListSnowHeights(ctx context.Context) ([]SnowHeight, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT run_number, height, timestamp FROM snow_height ORDER BY run_number`)
	if err != nil {
		return nil, fmt.Errorf("store: list snow heights: %w", err)
	}
	defer rows.Close()

	var shs []SnowHeight
	for rows.Next() {
		sh, err := scanSnowHeight(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan snow height: %w", err)
		}
		shs = append(shs, sh)
	}
	return shs, rows.Err()
}

// GetSnowHeight returns the record for a run.
func (s *Store) GetSnowHeight(ctx context.Context, runNumber uint32) (SnowHeight, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT run_number, height, timestamp FROM snow_height WHERE run_number = ?`, runNumber)
	sh, err := scanSnowHeight(row)
	if errors.Is(err, sql.ErrNoRows) {
		return SnowHeight{}, fmt.Errorf("%w: snow height for run %d", ErrNotFound, runNumber)
	}
	return sh, err
}

// UpdateSnowHeight overwrites the record for a run.
func (s *Store) UpdateSnowHeight(ctx context.Context, sh SnowHeight) error {
	res, err := s.DB.ExecContext(ctx, `
		UPDATE snow_height SET height = ?, timestamp = ? WHERE run_number = ?`,
		sh.Height, sh.Timestamp.Unix(), sh.RunNumber)
	if err != nil {
		return fmt.Errorf("store: update snow height: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: update snow height: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: snow height for run %d", ErrNotFound, sh.RunNumber)
	}
	return nil
}

// DeleteSnowHeight removes the record for a run.
func (s *Store) DeleteSnowHeight(ctx context.Context, runNumber uint32) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM snow_height WHERE run_number = ?`, runNumber)
	if err != nil {
		return fmt.Errorf("store: delete snow height: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete snow height: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: snow height for run %d", ErrNotFound, runNumber)
	}
	return nil
}

func scanSnowHeight(row rowScanner) (SnowHeight, error) {
	var (
		sh SnowHeight
		ts int64
	)
	if err := row.Scan(&sh.RunNumber, &sh.Height, &ts); err != nil {
		return SnowHeight{}, err
	}
	sh.Timestamp = time.Unix(ts, 0).UTC()
	return sh, nil
}
