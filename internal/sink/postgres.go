package sink

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AwsThamer/ranger/internal/config"
	"github.com/AwsThamer/ranger/internal/core"
)

// Querier is the part of pgxpool.Pool the postgres store uses.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS selection_events (
    id           UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    range_key    TEXT NOT NULL,
    latitude     DOUBLE PRECISION NOT NULL,
    longitude    DOUBLE PRECISION NOT NULL,
    location_wkb BYTEA NOT NULL,
    source       TEXT NOT NULL DEFAULT '',
    user_agent   TEXT NOT NULL DEFAULT '',
    recorded_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS selection_events_recorded_at_idx ON selection_events (recorded_at);
CREATE INDEX IF NOT EXISTS selection_events_range_key_idx ON selection_events (range_key);`

const insertSQL = `
INSERT INTO selection_events (range_key, latitude, longitude, location_wkb, source, user_agent, recorded_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id::text`

// Postgres appends events to the selection_events table. Identifiers are
// assigned by the database.
type Postgres struct {
	db   Querier
	pool *pgxpool.Pool
}

// NewPostgres uses db as is. The caller owns db.
func NewPostgres(db Querier) *Postgres {
	return &Postgres{db: db}
}

// ConnectPostgres opens a pool, checks it and creates the schema.
func ConnectPostgres(ctx context.Context, cfg config.DatabaseConfig) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	p := &Postgres{db: pool, pool: pool}
	if err := p.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	}
	return p, nil
}

// EnsureSchema creates the events table and its indexes if missing.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create selection_events: %w", err)
	}
	return nil
}

func (p *Postgres) Write(ctx context.Context, ev core.SelectionEvent) (string, error) {
	if ev.Coordinates == nil {
		return "", fmt.Errorf("write selection %q: missing coordinates", ev.Key)
	}
	wkb, err := ev.Coordinates.EWKB()
	if err != nil {
		return "", fmt.Errorf("write selection %q: %w", ev.Key, err)
	}

	var id string
	err = p.db.QueryRow(ctx, insertSQL,
		ev.Key,
		ev.Coordinates.Latitude,
		ev.Coordinates.Longitude,
		wkb,
		ev.Source,
		ev.UserAgent,
		ev.RecordedAt,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert selection %q: %w", ev.Key, err)
	}
	return id, nil
}

func (p *Postgres) Kind() string { return config.SinkPostgres }

// Close closes the pool if ConnectPostgres opened it.
func (p *Postgres) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}
