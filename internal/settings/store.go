// Package settings reads clinic configuration stored as opaque key/value pairs.
package settings

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Source returns the values for the requested keys. Keys with no stored value
// are absent from the result.
type Source interface {
	GetMany(ctx context.Context, keys ...string) (map[string]string, error)
}

// Store reads the settings table.
type Store struct {
	db DB
}

// NewStore creates a settings store backed by Postgres.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

// GetMany loads several keys in one round trip.
func (s *Store) GetMany(ctx context.Context, keys ...string) (map[string]string, error) {
	result := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return result, nil
	}
	rows, err := s.db.Query(ctx, `SELECT key, value FROM settings WHERE key = ANY($1)`, keys)
	if err != nil {
		return nil, fmt.Errorf("settings: get many: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var value *string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("settings: scan: %w", err)
		}
		if value != nil {
			result[key] = *value
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("settings: rows: %w", err)
	}
	return result, nil
}

// Get returns a single value and whether it was present.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	values, err := s.GetMany(ctx, key)
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}
