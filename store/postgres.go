package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema_postgres.sql
var postgresSchema string

// Postgres stores maps in a PostgreSQL database.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects a pool to databaseURL and ensures the schema.
func OpenPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Save(ctx context.Context, name string, data []byte) error {
	if err := checkName(name); err != nil {
		return err
	}
	_, err := p.pool.Exec(ctx, `
		INSERT INTO maps (name, data, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`,
		name, string(data))
	if err != nil {
		return fmt.Errorf("failed to save map %s: %w", name, err)
	}
	return nil
}

func (p *Postgres) Load(ctx context.Context, name string) ([]byte, error) {
	var data string
	err := p.pool.QueryRow(ctx, `SELECT data FROM maps WHERE name = $1`, name).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load map %s: %w", name, err)
	}
	return []byte(data), nil
}

func (p *Postgres) List(ctx context.Context) ([]Entry, error) {
	rows, err := p.pool.Query(ctx, `SELECT name, updated_at FROM maps ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list maps: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Name, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan map: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (p *Postgres) Delete(ctx context.Context, name string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM maps WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("failed to delete map %s: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	return nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
