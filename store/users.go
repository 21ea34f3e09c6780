package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// User is an API account that can obtain tokens.
type User struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Email        string    `json:"email"`
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateUser inserts a new user. The password must already be hashed.
func (s *Store) CreateUser(ctx context.Context, u User) error {
	roles, err := json.Marshal(u.Roles)
	if err != nil {
		return fmt.Errorf("store: marshal roles: %w", err)
	}
	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO users (username, password_hash, email, roles, created_at)
		VALUES (?,?,?,?,?)`,
		u.Username, u.PasswordHash, u.Email, string(roles), u.CreatedAt.Unix())
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: user %q", ErrDuplicate, u.Username)
	}
	if err != nil {
		return fmt.Errorf("store: create user: %w", err)
	}
	return nil
}

// GetUser returns the user with the given username.
func (s *Store) GetUser(ctx context.Context, username string) (User, error) {
	var (
		u     User
		roles string
		ts    int64
	)
	err := s.DB.QueryRowContext(ctx, `
		SELECT username, password_hash, email, roles, created_at
		FROM users WHERE username = ?`, username).
		Scan(&u.Username, &u.PasswordHash, &u.Email, &roles, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, fmt.Errorf("%w: user %q", ErrNotFound, username)
	}
	if err != nil {
		return User{}, fmt.Errorf("store: get user: %w", err)
	}
	if err := json.Unmarshal([]byte(roles), &u.Roles); err != nil {
		return User{}, fmt.Errorf("store: unmarshal roles: %w", err)
	}
	u.CreatedAt = time.Unix(ts, 0).UTC()
	return u, nil
}

// CountUsers reports how many users exist. Used to decide whether to seed
// the configured admin account on startup.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count users: %w", err)
	}
	return n, nil
}
