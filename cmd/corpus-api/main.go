// Command corpus-api serves comment submission and the vector, map and
// dictionary queries over HTTP.
//
// Submitted comments go through the configured queue: with corpus.queue set
// to "local" they are ingested in-process, with "kafka" they are published to
// the comment-ingest topic for ingest-worker to consume.
//
// Usage:
//
//	go run ./cmd/corpus-api [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/dictionary"
	ingesthandler "github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/ingestion/handler"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/ingestion/pipeline"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/ingestion/queue"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/query/cache"
	queryhandler "github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/query/handler"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/query/neighbor"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/query/vector"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/store/backend"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/token"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/middleware"
	pkgredis "github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/resilience"
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
	slog.Info("starting corpus api",
		"port", cfg.Server.Port,
		"store", cfg.Corpus.Store,
		"queue", cfg.Corpus.Queue,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

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

	checker := health.NewChecker("corpus-api")
	checker.Register("store", health.PingCheck(s, false))

	var q queue.Queue
	switch cfg.Corpus.Queue {
	case "kafka":
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.CommentIngest)
		checker.Register("kafka", health.PingCheck(producer, false))
		q = queue.NewKafka(producer)
		slog.Info("kafka queue initialized", "topic", cfg.Kafka.Topics.CommentIngest)
	default:
		p := pipeline.New(s, s, dict, cfg.Corpus.GramLengths, m)
		q = queue.NewLocal(p, normalizer, cfg.Corpus.QueueWorkers, cfg.Corpus.QueueBuffer, m)
		slog.Info("local queue initialized", "workers", cfg.Corpus.QueueWorkers)
	}
	defer q.Close()

	var shared cache.Store
	redisClient, err := pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, result caching is process-local", "error", err)
		checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		})
	} else {
		defer redisClient.Close()
		shared = cache.NewRedisStore(redisClient, cfg.Redis.CacheTTL)
		checker.Register("redis", health.PingCheck(redisClient, true))
		slog.Info("shared result cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
	}
	breaker := resilience.NewCircuitBreaker("redis", resilience.CircuitBreakerConfig{
		OnStateChange: func(name string, to resilience.State) {
			m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		},
	})

	vectorCache, err := newCache("vector", cfg.Corpus.ResultCacheSize, shared, breaker, m)
	if err != nil {
		slog.Error("failed to create vector cache", "error", err)
		os.Exit(1)
	}
	mapCache, err := newCache("map", cfg.Corpus.ResultCacheSize, shared, breaker, m)
	if err != nil {
		slog.Error("failed to create map cache", "error", err)
		os.Exit(1)
	}

	vectors := vector.New(s, s, dict, vectorCache, m)
	maps := neighbor.New(s, s, dict, mapCache, m)

	comments := ingesthandler.New(q, s)
	queries := queryhandler.New(vectors, maps, dict, normalizer)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/comments", comments.Submit)
	mux.HandleFunc("GET /api/v1/comments/{source}/{id}", comments.Get)
	queries.Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	chain := middleware.Chain(mux,
		middleware.RequestID,
		middleware.Metrics(m),
		middleware.Timeout(cfg.Server.WriteTimeout),
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("corpus api listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("corpus api stopped")
}

func newCache(kind string, size int, shared cache.Store, breaker *resilience.CircuitBreaker, m *metrics.Metrics) (*cache.Cache, error) {
	local, err := cache.NewLRUStore(size)
	if err != nil {
		return nil, err
	}
	return cache.New(kind, local, shared, breaker, m), nil
}
