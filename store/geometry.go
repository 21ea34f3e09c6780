package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/driftice/gcdserver/gcd"
)

// InsertGeometry records the position of a DOM at (string, position).
func (s *Store) InsertGeometry(ctx context.Context, g gcd.Geometry) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO geometry (string, position, x, y, z, timestamp) VALUES (?,?,?,?,?,?)`,
		g.String, g.Position, g.Location.X, g.Location.Y, g.Location.Z, g.Timestamp.Unix())
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: geometry %d/%d", ErrDuplicate, g.String, g.Position)
	}
	if err != nil {
		return fmt.Errorf("store: insert geometry: %w", err)
	}
	return nil
}

// ListGeometry returns every geometry record in the array.
func (s *Store) ListGeometry(ctx context.Context) ([]gcd.Geometry, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT string, position, x, y, z, timestamp FROM geometry
		ORDER BY string, position`)
	if err != nil {
		return nil, fmt.Errorf("store: list geometry: %w", err)
	}
	defer rows.Close()
	return scanGeometries(rows)
}

// ListGeometryByString returns all DOM positions on one string.
func (s *Store) ListGeometryByString(ctx context.Context, str uint32) ([]gcd.Geometry, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT string, position, x, y, z, timestamp FROM geometry
		WHERE string = ? ORDER BY position`, str)
	if err != nil {
		return nil, fmt.Errorf("store: list geometry for string %d: %w", str, err)
	}
	defer rows.Close()
	return scanGeometries(rows)
}

// GetGeometry returns the record at (string, position).
func (s *Store) GetGeometry(ctx context.Context, str, pos uint32) (gcd.Geometry, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT string, position, x, y, z, timestamp FROM geometry
		WHERE string = ? AND position = ?`, str, pos)
	g, err := scanGeometry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return gcd.Geometry{}, fmt.Errorf("%w: geometry %d/%d", ErrNotFound, str, pos)
	}
	return g, err
}

// UpdateGeometry overwrites the record at (string, position).
func (s *Store) UpdateGeometry(ctx context.Context, g gcd.Geometry) error {
	res, err := s.DB.ExecContext(ctx, `
		UPDATE geometry SET x = ?, y = ?, z = ?, timestamp = ?
		WHERE string = ? AND position = ?`,
		g.Location.X, g.Location.Y, g.Location.Z, g.Timestamp.Unix(), g.String, g.Position)
	if err != nil {
		return fmt.Errorf("store: update geometry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: update geometry: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: geometry %d/%d", ErrNotFound, g.String, g.Position)
	}
	return nil
}

// DeleteGeometry removes the record at (string, position).
func (s *Store) DeleteGeometry(ctx context.Context, str, pos uint32) error {
	res, err := s.DB.ExecContext(ctx, `
		DELETE FROM geometry WHERE string = ? AND position = ?`, str, pos)
	if err != nil {
		return fmt.Errorf("store: delete geometry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete geometry: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: geometry %d/%d", ErrNotFound, str, pos)
	}
	return nil
}

func scanGeometry(row rowScanner) (gcd.Geometry, error) {
	var (
		g  gcd.Geometry
		ts int64
	)
	if err := row.Scan(&g.String, &g.Position, &g.Location.X, &g.Location.Y, &g.Location.Z, &ts); err != nil {
		return gcd.Geometry{}, err
	}
	g.Timestamp = time.Unix(ts, 0).UTC()
	return g, nil
}

func scanGeometries(rows *sql.Rows) ([]gcd.Geometry, error) {
	var geoms []gcd.Geometry
	for rows.Next() {
		g, err := scanGeometry(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan geometry: %w", err)
		}
		geoms = append(geoms, g)
	}
	return geoms, rows.Err()
}
