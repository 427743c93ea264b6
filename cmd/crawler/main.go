// Command crawler polls the configured subreddits for new comments and submits
// them to the ingestion queue on a fixed interval.
//
// With -once it runs a single cycle per source and exits.
//
// Usage:
//
//	go run ./cmd/crawler [-config configs/development.yaml] [-once]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/crawler"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/dictionary"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/ingestion/pipeline"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/ingestion/queue"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/store"
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
	once := flag.Bool("once", false, "run one cycle per source and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	if len(cfg.Crawler.Sources) == 0 {
		slog.Error("no crawler sources configured")
		os.Exit(1)
	}
	slog.Info("starting crawler",
		"sources", cfg.Crawler.Sources,
		"interval", cfg.Crawler.Interval,
		"queue", cfg.Corpus.Queue,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)

	s, err := backend.Open(ctx, cfg)
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer s.Close()

	q, err := openQueue(ctx, cfg, s, m)
	if err != nil {
		slog.Error("failed to open queue", "error", err)
		os.Exit(1)
	}
	defer q.Close()

	c := crawler.New(crawler.NewReddit(cfg.Crawler), q, s, m)

	if *once {
		for _, source := range cfg.Crawler.Sources {
			n, err := c.RunOnce(ctx, source)
			if err != nil {
				slog.Error("crawl cycle failed", "source", source, "error", err)
				continue
			}
			slog.Info("crawl cycle finished", "source", source, "submitted", n)
		}
		return
	}

	checker := health.NewChecker("crawler")
	checker.Register("store", health.PingCheck(s, false))
	if cfg.Corpus.Queue == "kafka" {
		checker.Register("kafka", health.PingCheck(kafkaPinger(cfg.Kafka.Brokers), false))
	}
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port,
			metrics.Route{Pattern: "GET /health/live", Handler: checker.LiveHandler()},
			metrics.Route{Pattern: "GET /health/ready", Handler: checker.ReadyHandler()},
		)
		defer shutdownMetrics(context.Background())
	}

	sched, err := crawler.NewScheduler(c)
	if err != nil {
		slog.Error("failed to create scheduler", "error", err)
		os.Exit(1)
	}
	for _, source := range cfg.Crawler.Sources {
		if err := sched.Add(ctx, source, cfg.Crawler.Interval); err != nil {
			slog.Error("failed to schedule source", "source", source, "error", err)
			os.Exit(1)
		}
	}
	sched.Start()

	<-ctx.Done()
	slog.Info("shutdown signal received")
	if err := sched.Stop(); err != nil {
		slog.Error("scheduler shutdown error", "error", err)
	}
	slog.Info("crawler stopped")
}

type kafkaPinger []string

func (b kafkaPinger) Ping(ctx context.Context) error {
	return kafka.Ping(ctx, b)
}

// openQueue publishes to Kafka, or ingests in-process when the local queue is
// configured.
func openQueue(ctx context.Context, cfg *config.Config, s store.Store, m *metrics.Metrics) (queue.Queue, error) {
	if cfg.Corpus.Queue == "kafka" {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.CommentIngest)
		slog.Info("kafka queue initialized", "topic", cfg.Kafka.Topics.CommentIngest)
		return queue.NewKafka(producer), nil
	}
	dict, err := dictionary.New(s, cfg.Corpus.DictionaryCacheSize, m)
	if err != nil {
		return nil, err
	}
	normalizer := token.NewNormalizer(nil, nil, nil)
	if cfg.Corpus.SeedDictionary {
		if err := dict.Seed(ctx, normalizer, cfg.Corpus.GramLengths); err != nil {
			return nil, fmt.Errorf("seeding dictionary: %w", err)
		}
	}
	p := pipeline.New(s, s, dict, cfg.Corpus.GramLengths, m)
	return queue.NewLocal(p, normalizer, cfg.Corpus.QueueWorkers, cfg.Corpus.QueueBuffer, m), nil
}
