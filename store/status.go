package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/driftice/gcdserver/gcd"
)

// InsertStatus records the state of a DOM for one run.
func (s *Store) InsertStatus(ctx context.Context, st gcd.DetectorStatus) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO detector_status (dom_id, run_number, status, is_bad, timestamp)
		VALUES (?,?,?,?,?)`,
		st.DOMID, st.RunNumber, st.Status, st.IsBad, st.Timestamp.Unix())
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: status for DOM %d run %d", ErrDuplicate, st.DOMID, st.RunNumber)
	}
	if err != nil {
		return fmt.Errorf("store: insert status: %w", err)
	}
	return nil
}

// ListStatus returns every detector status record.
func (s *Store) ListStatus(ctx context.Context) ([]gcd.DetectorStatus, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT dom_id, run_number, status, is_bad, timestamp FROM detector_status
		ORDER BY run_number, dom_id`)
	if err != nil {
		return nil, fmt.Errorf("store: list status: %w", err)
	}
	defer rows.Close()
	return scanStatuses(rows)
}

// ListStatusByRun returns the status records scoped to one run. An unknown
// run yields an empty set, not an error: "no data" must stay distinguishable
// from a failed read.
func (s *Store) ListStatusByRun(ctx context.Context, runNumber uint32) ([]gcd.DetectorStatus, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT dom_id, run_number, status, is_bad, timestamp FROM detector_status
		WHERE run_number = ? ORDER BY dom_id`, runNumber)
	if err != nil {
		return nil, fmt.Errorf("store: list status for run %d: %w", runNumber, err)
	}
	defer rows.Close()
	return scanStatuses(rows)
}

// GetStatusByDOM returns the most recent status record for a DOM.
func (s *Store) GetStatusByDOM(ctx context.Context, domID uint32) (gcd.DetectorStatus, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT dom_id, run_number, status, is_bad, timestamp FROM detector_status
		WHERE dom_id = ? ORDER BY timestamp DESC LIMIT 1`, domID)
	st, err := scanStatus(row)
	if errors.Is(err, sql.ErrNoRows) {
		return gcd.DetectorStatus{}, fmt.Errorf("%w: status for DOM %d", ErrNotFound, domID)
	}
	return st, err
}

// UpdateStatus overwrites the record for (DOM, run).
func (s *Store) UpdateStatus(ctx context.Context, st gcd.DetectorStatus) error {
	res, err := s.DB.ExecContext(ctx, `
		UPDATE detector_status SET status = ?, is_bad = ?, timestamp = ?
		WHERE dom_id = ? AND run_number = ?`,
		st.Status, st.IsBad, st.Timestamp.Unix(), st.DOMID, st.RunNumber)
	if err != nil {
		return fmt.Errorf("store: update status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: update status: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: status for DOM %d run %d", ErrNotFound, st.DOMID, st.RunNumber)
	}
	return nil
}

// DeleteStatusByDOM removes every status record for a DOM.
func (s *Store) DeleteStatusByDOM(ctx context.Context, domID uint32) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM detector_status WHERE dom_id = ?`, domID)
	if err != nil {
		return fmt.Errorf("store: delete status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete status: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: status for DOM %d", ErrNotFound, domID)
	}
	return nil
}

// ListBadDOMs returns every status record flagged bad.
func (s *Store) ListBadDOMs(ctx context.Context) ([]gcd.DetectorStatus, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT dom_id, run_number, status, is_bad, timestamp FROM detector_status
		WHERE is_bad = 1 ORDER BY run_number, dom_id`)
	if err != nil {
		return nil, fmt.Errorf("store: list bad DOMs: %w", err)
	}
	defer rows.Close()
	return scanStatuses(rows)
}

func scanStatus(row rowScanner) (gcd.DetectorStatus, error) {
	var (
		st gcd.DetectorStatus
		ts int64
	)
	if err := row.Scan(&st.DOMID, &st.RunNumber, &st.Status, &st.IsBad, &ts); err != nil {
		return gcd.DetectorStatus{}, err
	}
	st.Timestamp = time.Unix(ts, 0).UTC()
	return st, nil
}

func scanStatuses(rows *sql.Rows) ([]gcd.DetectorStatus, error) {
	var sts []gcd.DetectorStatus
	for rows.Next() {
		st, err := scanStatus(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan status: %w", err)
		}
		sts = append(sts, st)
	}
	return sts, rows.Err()
}
