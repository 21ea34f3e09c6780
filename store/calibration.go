package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/driftice/gcdserver/gcd"
)

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint")
}

// InsertCalibration records a new calibration version for a DOM. Existing
// versions are never touched; each insert extends the DOM's history.
func (s *Store) InsertCalibration(ctx context.Context, c gcd.Calibration) error {
	domcal, err := json.Marshal(c.DOMCal)
	if err != nil {
		return fmt.Errorf("store: marshal domcal: %w", err)
	}
	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO calibration (dom_id, domcal, timestamp) VALUES (?,?,?)`,
		c.DOMID, string(domcal), c.Timestamp.Unix())
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: calibration for DOM %d at %v", ErrDuplicate, c.DOMID, c.Timestamp)
	}
	if err != nil {
		return fmt.Errorf("store: insert calibration: %w", err)
	}
	return nil
}

// ListCalibrations returns every calibration version for every DOM, in
// insertion order. The stable order matters: the snapshot resolver breaks
// equal-timestamp ties by retrieval order.
func (s *Store) ListCalibrations(ctx context.Context) ([]gcd.Calibration, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT dom_id, domcal, timestamp FROM calibration ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("store: list calibrations: %w", err)
	}
	defer rows.Close()
	return scanCalibrations(rows)
}

// ListCalibrationsByDOM returns the full version history for one DOM,
// newest first.
func (s *Store) ListCalibrationsByDOM(ctx context.Context, domID uint32) ([]gcd.Calibration, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT dom_id, domcal, timestamp FROM calibration
		WHERE dom_id = ? ORDER BY timestamp DESC, rowid DESC`, domID)
	if err != nil {
		return nil, fmt.Errorf("store: list calibrations for DOM %d: %w", domID, err)
	}
	defer rows.Close()

	cals, err := scanCalibrations(rows)
	if err != nil {
		return nil, err
	}
	if len(cals) == 0 {
		return nil, fmt.Errorf("%w: calibration for DOM %d", ErrNotFound, domID)
	}
	return cals, nil
}

// LatestCalibration returns the newest calibration version for one DOM.
func (s *Store) LatestCalibration(ctx context.Context, domID uint32) (gcd.Calibration, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT dom_id, domcal, timestamp FROM calibration
		WHERE dom_id = ? ORDER BY timestamp DESC, rowid DESC LIMIT 1`, domID)
	c, err := scanCalibration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return gcd.Calibration{}, fmt.Errorf("%w: calibration for DOM %d", ErrNotFound, domID)
	}
	return c, err
}

// ReplaceLatestCalibration overwrites the newest version for a DOM in place,
// stamping it with now. Mirrors the PUT semantics of the API: a correction to
// the current record rather than a new historical version.
func (s *Store) ReplaceLatestCalibration(ctx context.Context, domID uint32, domcal gcd.DOMCal, now time.Time) (gcd.Calibration, error) {
	payload, err := json.Marshal(domcal)
	if err != nil {
		return gcd.Calibration{}, fmt.Errorf("store: marshal domcal: %w", err)
	}
	res, err := s.DB.ExecContext(ctx, `
		UPDATE calibration SET domcal = ?, timestamp = ?
		WHERE rowid = (
			SELECT rowid FROM calibration WHERE dom_id = ?
			ORDER BY timestamp DESC, rowid DESC LIMIT 1
		)`, string(payload), now.Unix(), domID)
	if err != nil {
		return gcd.Calibration{}, fmt.Errorf("store: update calibration: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return gcd.Calibration{}, fmt.Errorf("store: update calibration: %w", err)
	}
	if n == 0 {
		return gcd.Calibration{}, fmt.Errorf("%w: calibration for DOM %d", ErrNotFound, domID)
	}
	return gcd.Calibration{DOMID: domID, DOMCal: domcal, Timestamp: now.UTC().Truncate(time.Second)}, nil
}

// DeleteCalibrations removes every calibration version for a DOM.
func (s *Store) DeleteCalibrations(ctx context.Context, domID uint32) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM calibration WHERE dom_id = ?`, domID)
	if err != nil {
		return fmt.Errorf("store: delete calibrations: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete calibrations: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: calibration for DOM %d", ErrNotFound, domID)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCalibration(row rowScanner) (gcd.Calibration, error) {
	var (
		c      gcd.Calibration
		domcal string
		ts     int64
	)
	if err := row.Scan(&c.DOMID, &domcal, &ts); err != nil {
		return gcd.Calibration{}, err
	}
	if err := json.Unmarshal([]byte(domcal), &c.DOMCal); err != nil {
		return gcd.Calibration{}, fmt.Errorf("store: unmarshal domcal: %w", err)
	}
	c.Timestamp = time.Unix(ts, 0).UTC()
	return c, nil
}

func scanCalibrations(rows *sql.Rows) ([]gcd.Calibration, error) {
	var cals []gcd.Calibration
	for rows.Next() {
		c, err := scanCalibration(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan calibration: %w", err)
		}
		cals = append(cals, c)
	}
	return cals, rows.Err()
}
