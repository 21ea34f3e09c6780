package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Configuration is a free-form key/value entry (detector run configuration,
// trigger settings, etc.). Value is arbitrary JSON.
type Configuration struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	Timestamp time.Time       `json:"timestamp"`
}

// InsertConfiguration creates a configuration entry.
func (s *Store) InsertConfiguration(ctx context.Context, c Configuration) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO configuration (key, value, timestamp) VALUES (?,?,?)`,
		c.Key, string(c.Value), c.Timestamp.Unix())
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: configuration %q", ErrDuplicate, c.Key)
	}
	if err != nil {
		return fmt.Errorf("store: insert configuration: %w", err)
	}
	return nil
}

// ListConfigurations returns every configuration entry.
func (s *Store) ListConfigurations(ctx context.Context) ([]Configuration, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT key, value, timestamp FROM configuration ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("store: list configurations: %w", err)
	}
	defer rows.Close()

	var cfgs []Configuration
	for rows.Next() {
		c, err := scanConfiguration(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan configuration: %w", err)
		}
		cfgs = append(cfgs, c)
	}
	return cfgs, rows.Err()
}

// GetConfiguration returns the entry for key.
func (s *Store) GetConfiguration(ctx context.Context, key string) (Configuration, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT key, value, timestamp FROM configuration WHERE key = ?`, key)
	c, err := scanConfiguration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Configuration{}, fmt.Errorf("%w: configuration %q", ErrNotFound, key)
	}
	return c, err
}

// UpdateConfiguration overwrites the entry for key.
func (s *Store) UpdateConfiguration(ctx context.Context, c Configuration) error {
	res, err := s.DB.ExecContext(ctx, `
		UPDATE configuration SET value = ?, timestamp = ? WHERE key = ?`,
		string(c.Value), c.Timestamp.Unix(), c.Key)
	if err != nil {
		return fmt.Errorf("store: update configuration: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: update configuration: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: configuration %q", ErrNotFound, c.Key)
	}
	return nil
}

// DeleteConfiguration removes the entry for key.
func (s *Store) DeleteConfiguration(ctx context.Context, key string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM configuration WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("store: delete configuration: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete configuration: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: configuration %q", ErrNotFound, key)
	}
	return nil
}

func scanConfiguration(row rowScanner) (Configuration, error) {
	var (
		c     Configuration
		value string
		ts    int64
	)
	if err := row.Scan(&c.Key, &value, &ts); err != nil {
		return Configuration{}, err
	}
	c.Value = json.RawMessage(value)
	c.Timestamp = time.Unix(ts, 0).UTC()
	return c, nil
}
