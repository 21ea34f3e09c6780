package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/driftice/gcdserver/gcd"
)

// InsertRunWindow records the window for a run. A window already on file for
// the run is a caller error, per the run metadata API contract.
func (s *Store) InsertRunWindow(ctx context.Context, w gcd.RunWindow) error {
	var end any
	if w.EndTime != nil {
		end = w.EndTime.Unix()
	}
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO run_windows (run_number, start_time, end_time, configuration_name, timestamp)
		VALUES (?,?,?,?,?)`,
		w.RunNumber, w.StartTime.Unix(), end, w.ConfigurationName, w.Timestamp.Unix())
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: run window for run %d", ErrDuplicate, w.RunNumber)
	}
	if err != nil {
		return fmt.Errorf("store: insert run window: %w", err)
	}
	return nil
}

// GetRunWindow returns the recorded window for a run, or ErrNotFound. The
// snapshot path absorbs ErrNotFound into the all-history fallback; the run
// metadata API surfaces it as a 404.
func (s *Store) GetRunWindow(ctx context.Context, runNumber uint32) (gcd.RunWindow, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT run_number, start_time, end_time, configuration_name, timestamp
		FROM run_windows WHERE run_number = ?`, runNumber)
	w, err := scanRunWindow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return gcd.RunWindow{}, fmt.Errorf("%w: run window for run %d", ErrNotFound, runNumber)
	}
	return w, err
}

// ListRunWindows returns every recorded run window.
func (s *Store) ListRunWindows(ctx context.Context) ([]gcd.RunWindow, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT run_number, start_time, end_time, configuration_name, timestamp
		FROM run_windows ORDER BY run_number`)
	if err != nil {
		return nil, fmt.Errorf("store: list run windows: %w", err)
	}
	defer rows.Close()

	var ws []gcd.RunWindow
	for rows.Next() {
		w, err := scanRunWindow(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan run window: %w", err)
		}
		ws = append(ws, w)
	}
	return ws, rows.Err()
}

// UpdateRunWindow overwrites the window for a run.
func (s *Store) UpdateRunWindow(ctx context.Context, w gcd.RunWindow) error {
	var end any
	if w.EndTime != nil {
		end = w.EndTime.Unix()
	}
	res, err := s.DB.ExecContext(ctx, `
		UPDATE run_windows SET start_time = ?, end_time = ?, configuration_name = ?, timestamp = ?
		WHERE run_number = ?`,
		w.StartTime.Unix(), end, w.ConfigurationName, w.Timestamp.Unix(), w.RunNumber)
	if err != nil {
		return fmt.Errorf("store: update run window: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: update run window: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: run window for run %d", ErrNotFound, w.RunNumber)
	}
	return nil
}

// DeleteRunWindow removes the window for a run.
func (s *Store) DeleteRunWindow(ctx context.Context, runNumber uint32) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM run_windows WHERE run_number = ?`, runNumber)
	if err != nil {
		return fmt.Errorf("store: delete run window: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete run window: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: run window for run %d", ErrNotFound, runNumber)
	}
	return nil
}

func scanRunWindow(row rowScanner) (gcd.RunWindow, error) {
	var (
		w     gcd.RunWindow
		start int64
		end   sql.NullInt64
		ts    int64
	)
	if err := row.Scan(&w.RunNumber, &start, &end, &w.ConfigurationName, &ts); err != nil {
		return gcd.RunWindow{}, err
	}
	w.StartTime = time.Unix(start, 0).UTC()
	if end.Valid {
		t := time.Unix(end.Int64, 0).UTC()
		w.EndTime = &t
	}
	w.Timestamp = time.Unix(ts, 0).UTC()
	return w, nil
}
