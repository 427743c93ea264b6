// Package postgres implements store.Store on PostgreSQL through lib/pq.
//
// Dictionary indices come from a single INSERT .. ON CONFLICT DO UPDATE ..
// RETURNING on the counters row, and aggregate merges are single-row
// upserts, so concurrent ingest workers never lose an update.
package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/store"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/postgres"
)

//go:embed schema.sql
var schema string

// Store persists the corpus in PostgreSQL.
type Store struct {
	db     *postgres.Client
	logger *slog.Logger
}

// New wraps an open client. Call Migrate before first use.
func New(db *postgres.Client) *Store {
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "postgres-store"),
	}
}

// Migrate creates any missing tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	s.logger.Info("schema applied")
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

var _ store.Store = (*Store)(nil)
