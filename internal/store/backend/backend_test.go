package backend

import (
	"context"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/store/memstore"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/config"
)

func TestOpenMemory(t *testing.T) {
	cfg := &config.Config{Corpus: config.CorpusConfig{Store: "memory"}}
	s, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	if _, ok := s.(*memstore.Store); !ok {
		t.Errorf("expected *memstore.Store, got %T", s)
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestOpenUnknown(t *testing.T) {
	cfg := &config.Config{Corpus: config.CorpusConfig{Store: "sqlite"}}
	if _, err := Open(context.Background(), cfg); err == nil {
		t.Fatal("expected error for unknown store")
	}
}
