// Command ingest-worker consumes submitted comments from Kafka and runs each
// through the ingestion pipeline: persist, tokenize, resolve dictionary
// indices and merge daily aggregates.
//
// Usage:
//
//	go run ./cmd/ingest-worker [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/dictionary"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/ingestion/pipeline"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/ingestion/queue"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/store/backend"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/token"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting ingest worker", "gram_lengths", cfg.Corpus.GramLengths)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)

	s, err := backend.Open(ctx, cfg)
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer s.Close()

	dict, err := dictionary.New(s, cfg.Corpus.DictionaryCacheSize, m)
	if err != nil {
		slog.Error("failed to create dictionary", "error", err)
		os.Exit(1)
	}
	normalizer := token.NewNormalizer(nil, nil, nil)
	if cfg.Corpus.SeedDictionary {
		if err := dict.Seed(ctx, normalizer, cfg.Corpus.GramLengths); err != nil {
			slog.Error("failed to seed dictionary", "error", err)
			os.Exit(1)
		}
	}

	p := pipeline.New(s, s, dict, cfg.Corpus.GramLengths, m)
	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.CommentIngest, queue.Worker(p, normalizer))
	defer consumer.Close()

	checker := health.NewChecker("ingest-worker")
	checker.Register("store", health.PingCheck(s, false))
	checker.Register("kafka", health.PingCheck(consumer, false))
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port,
			metrics.Route{Pattern: "GET /health/live", Handler: checker.LiveHandler()},
			metrics.Route{Pattern: "GET /health/ready", Handler: checker.ReadyHandler()},
		)
		defer shutdownMetrics(context.Background())
	}

	slog.Info("ingest worker ready, consuming from kafka",
		"topic", cfg.Kafka.Topics.CommentIngest,
		"group", cfg.Kafka.ConsumerGroup,
	)

	if err := consumer.Start(ctx); err != nil {
		// Exiting without committing lets the group redeliver the message to
		// the restarted worker.
		slog.Error("consumer error", "error", err)
		consumer.Close()
		s.Close()
		os.Exit(1)
	}

	slog.Info("ingest worker stopped")
}
