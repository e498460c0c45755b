// Package store is the ledger: the exclusive owner of wallets,
// transactions, and webhook_events/apy_rates rows. Every other component
// holds a *Store handle and mutates state only through its methods.
package store

import (
	"context"
	_ "embed"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zakaryaxali/stablecoin-pay/internal/apperr"
)

//go:embed schema.sql
var schemaSQL string

// Store wraps a bounded pgx connection pool. Safe for concurrent use by
// all background tasks and request handlers.
type Store struct {
	pool *pgxpool.Pool
}

// Open creates a connection pool against databaseURL with a 10-connection
// ceiling, matching the default described in SPEC_FULL.md §5.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, err, "parse database url")
	}
	cfg.MaxConns = 10

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, err, "open database pool")
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// ApplySchema runs the embedded idempotent schema against the database.
func (s *Store) ApplySchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return apperr.Wrap(apperr.KindDatabase, err, "apply schema")
	}
	return nil
}

// Ping probes database liveness for /health/detailed.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.pool.Ping(ctx); err != nil {
		return apperr.Wrap(apperr.KindDatabase, err, "ping database")
	}
	return nil
}
