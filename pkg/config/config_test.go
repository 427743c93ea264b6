package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Corpus.Store != "postgres" || cfg.Corpus.Queue != "kafka" {
		t.Errorf("unexpected corpus defaults: %+v", cfg.Corpus)
	}
	if len(cfg.Corpus.GramLengths) != 3 {
		t.Errorf("gram lengths = %v, want [1 2 3]", cfg.Corpus.GramLengths)
	}
	if cfg.Kafka.Topics.CommentIngest != "comment-ingest" {
		t.Errorf("topic = %q", cfg.Kafka.Topics.CommentIngest)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	data := []byte("corpus:\n  store: memory\n  queue: local\n  gramLengths: [1]\nredis:\n  cacheTTL: 1h\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TC_POSTGRES_HOST", "db.internal")
	t.Setenv("TC_CRAWLER_SOURCES", "news,pics")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Corpus.Store != "memory" || cfg.Corpus.Queue != "local" {
		t.Errorf("file values not applied: %+v", cfg.Corpus)
	}
	if cfg.Redis.CacheTTL != time.Hour {
		t.Errorf("cacheTTL = %v, want 1h", cfg.Redis.CacheTTL)
	}
	if cfg.Postgres.Host != "db.internal" {
		t.Errorf("postgres host = %q", cfg.Postgres.Host)
	}
	if len(cfg.Crawler.Sources) != 2 || cfg.Crawler.Sources[1] != "pics" {
		t.Errorf("crawler sources = %v", cfg.Crawler.Sources)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad store", func(c *Config) { c.Corpus.Store = "mongo" }},
		{"bad queue", func(c *Config) { c.Corpus.Queue = "celery" }},
		{"gram length", func(c *Config) { c.Corpus.GramLengths = []int{1, 4} }},
		{"no lengths", func(c *Config) { c.Corpus.GramLengths = nil }},
		{"no workers", func(c *Config) { c.Corpus.QueueWorkers = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
