// Package store persists serialized maps by name in SQLite or PostgreSQL.
package store

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when no map has the requested name.
	ErrNotFound = errors.New("map not found")
	// ErrInvalidName is returned for an empty or oversized map name.
	ErrInvalidName = errors.New("invalid map name")
)

// Entry describes a stored map.
type Entry struct {
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store keeps serialized maps keyed by name.
type Store interface {
	Save(ctx context.Context, name string, data []byte) error
	Load(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context) ([]Entry, error)
	Delete(ctx context.Context, name string) error
	Close() error
}

// Open picks the backend from the DSN: postgres:// and postgresql:// use
// PostgreSQL, sqlite:// or a plain path use SQLite.
func Open(ctx context.Context, dsn string) (Store, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return OpenPostgres(ctx, dsn)
	default:
		return OpenSQLite(ctx, strings.TrimPrefix(dsn, "sqlite://"))
	}
}

func checkName(name string) error {
	if name == "" || len(name) > 200 {
		return ErrInvalidName
	}
	return nil
}
