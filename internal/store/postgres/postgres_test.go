package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/store"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/store/storetest"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/postgres"
)

// openTestStore connects to the database named by TC_TEST_POSTGRES_HOST,
// skipping when it is unset or unreachable.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	host := os.Getenv("TC_TEST_POSTGRES_HOST")
	if host == "" {
		t.Skip("TC_TEST_POSTGRES_HOST not set, skipping postgres integration test")
	}
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Postgres.Host = host
	client, err := postgres.New(cfg.Postgres)
	if err != nil {
		t.Skipf("postgres unreachable: %v", err)
	}
	s := New(client)
	if err := s.Migrate(context.Background()); err != nil {
		client.Close()
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return s
}

func TestStore(t *testing.T) {
	s := openTestStore(t)
	storetest.Run(t, func(t *testing.T) store.Store { return s })
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}
