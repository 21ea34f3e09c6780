// Package store provides the SQLite persistence layer for gcdserver.
package store

import (
	"database/sql"
	"errors"

	"github.com/driftice/gcdserver/dbopen"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: record not found")

// ErrDuplicate is returned when a create collides with an existing key.
var ErrDuplicate = errors.New("store: record already exists")

// Store is the gcdserver database handle.
type Store struct {
	DB *sql.DB
}

// Open opens (or creates) the gcdserver SQLite database at path, applies
// pragmas and the full schema.
func Open(path string, opts ...dbopen.Option) (*Store, error) {
	allOpts := append([]dbopen.Option{
		dbopen.WithMkdirAll(),
		dbopen.WithSchema(Schema),
	}, opts...)

	db, err := dbopen.Open(path, allOpts...)
	if err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

// New wraps an already-open database. The caller is responsible for having
// applied Schema.
func New(db *sql.DB) *Store {
	return &Store{DB: db}
}

// Close closes the database.
func (s *Store) Close() error {
	return s.DB.Close()
}
