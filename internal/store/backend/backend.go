// Package backend opens the store.Store selected by configuration.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/store"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/store/memstore"
	pgstore "github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/store/postgres"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/postgres"
)

// Open connects to the configured store. A postgres store has its schema
// applied before it is returned.
func Open(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Corpus.Store {
	case "memory":
		slog.Warn("using in-memory store, data will not survive restart")
		return memstore.New(), nil
	case "postgres":
		db, err := postgres.New(cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		s := pgstore.New(db)
		if err := s.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		slog.Info("connected to postgres", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Corpus.Store)
	}
}
