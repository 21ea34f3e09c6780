package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/driftice/gcdserver/gcd"
)

// PutSnapshot persists a generated snapshot keyed by its collection id.
// The full bundle is stored as JSON: snapshots are immutable and only ever
// read back whole, so there is nothing to normalize.
func (s *Store) PutSnapshot(ctx context.Context, snap gcd.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("store: marshal snapshot: %w", err)
	}
	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO snapshots (collection_id, run_number, generated_at, generated_by, payload)
		VALUES (?,?,?,?,?)`,
		snap.CollectionID, snap.RunNumber, snap.GeneratedAt.Unix(), snap.GeneratedBy, string(payload))
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: snapshot %s", ErrDuplicate, snap.CollectionID)
	}
	if err != nil {
		return fmt.Errorf("store: insert snapshot: %w", err)
	}
	return nil
}

// GetSnapshot returns a previously generated snapshot by collection id.
func (s *Store) GetSnapshot(ctx context.Context, collectionID string) (gcd.Snapshot, error) {
	var payload string
	err := s.DB.QueryRowContext(ctx, `
		SELECT payload FROM snapshots WHERE collection_id = ?`, collectionID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return gcd.Snapshot{}, fmt.Errorf("%w: snapshot %s", ErrNotFound, collectionID)
	}
	if err != nil {
		return gcd.Snapshot{}, fmt.Errorf("store: get snapshot: %w", err)
	}

	var snap gcd.Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return gcd.Snapshot{}, fmt.Errorf("store: unmarshal snapshot: %w", err)
	}
	return snap, nil
}

// ListSnapshotsByRun returns the stored snapshot headers for a run, newest
// first, without their payloads.
func (s *Store) ListSnapshotsByRun(ctx context.Context, runNumber uint32) ([]gcd.Snapshot, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT collection_id, run_number, generated_at, generated_by FROM snapshots
		WHERE run_number = ? ORDER BY generated_at DESC`, runNumber)
	if err != nil {
		return nil, fmt.Errorf("store: list snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []gcd.Snapshot
	for rows.Next() {
		var (
			snap gcd.Snapshot
			ts   int64
		)
		if err := rows.Scan(&snap.CollectionID, &snap.RunNumber, &ts, &snap.GeneratedBy); err != nil {
			return nil, fmt.Errorf("store: scan snapshot: %w", err)
		}
		snap.GeneratedAt = time.Unix(ts, 0).UTC()
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}
