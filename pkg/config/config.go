// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Server, Postgres, Kafka, Redis, Corpus, Crawler, etc.).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Postgres PostgresConfig `yaml:"postgres"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	Corpus   CorpusConfig   `yaml:"corpus"`
	Crawler  CrawlerConfig  `yaml:"crawler"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	CommentIngest string `yaml:"commentIngest"`
}

// RedisConfig holds Redis connection and caching parameters. A zero CacheTTL
// keeps cached results until Redis evicts them.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// CorpusConfig controls tokenization, dictionary and queue behaviour.
//
// Store selects the document store ("postgres" or "memory"); Queue selects
// how submitted comments reach the pipeline ("kafka" or "local").
type CorpusConfig struct {
	Store               string `yaml:"store"`
	Queue               string `yaml:"queue"`
	QueueWorkers        int    `yaml:"queueWorkers"`
	QueueBuffer         int    `yaml:"queueBuffer"`
	GramLengths         []int  `yaml:"gramLengths"`
	SeedDictionary      bool   `yaml:"seedDictionary"`
	DictionaryCacheSize int    `yaml:"dictionaryCacheSize"`
	ResultCacheSize     int    `yaml:"resultCacheSize"`
}

// CrawlerConfig controls the event-source crawler.
type CrawlerConfig struct {
	Sources           []string      `yaml:"sources"`
	BaseURL           string        `yaml:"baseUrl"`
	UserAgent         string        `yaml:"userAgent"`
	Interval          time.Duration `yaml:"interval"`
	RequestsPerSecond float64       `yaml:"requestsPerSecond"`
	Burst             int           `yaml:"burst"`
	PageSize          int           `yaml:"pageSize"`
	MaxPages          int           `yaml:"maxPages"`
	RequestTimeout    time.Duration `yaml:"requestTimeout"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with sensible defaults for any
// missing values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the services cannot run with.
func (c *Config) Validate() error {
	switch c.Corpus.Store {
	case "postgres", "memory":
	default:
		return fmt.Errorf("corpus.store must be postgres or memory, got %q", c.Corpus.Store)
	}
	switch c.Corpus.Queue {
	case "kafka", "local":
	default:
		return fmt.Errorf("corpus.queue must be kafka or local, got %q", c.Corpus.Queue)
	}
	if len(c.Corpus.GramLengths) == 0 {
		return fmt.Errorf("corpus.gramLengths must not be empty")
	}
	for _, n := range c.Corpus.GramLengths {
		if n < 1 || n > 3 {
			return fmt.Errorf("corpus.gramLengths: %d outside 1..3", n)
		}
	}
	if c.Corpus.QueueWorkers <= 0 {
		return fmt.Errorf("corpus.queueWorkers must be positive")
	}
	return nil
}

// defaultConfig returns a Config with defaults for local development.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "corpus",
			User:            "corpus",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "corpus-ingest-group",
			Topics: KafkaTopics{
				CommentIngest: "comment-ingest",
			},
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
			PoolSize: 10,
			CacheTTL: 24 * time.Hour,
		},
		Corpus: CorpusConfig{
			Store:               "postgres",
			Queue:               "kafka",
			QueueWorkers:        4,
			QueueBuffer:         1024,
			GramLengths:         []int{1, 2, 3},
			SeedDictionary:      true,
			DictionaryCacheSize: 100000,
			ResultCacheSize:     512,
		},
		Crawler: CrawlerConfig{
			BaseURL:           "https://www.reddit.com",
			UserAgent:         "temporal-corpus-crawler/1.0",
			Interval:          5 * time.Minute,
			RequestsPerSecond: 0.5,
			Burst:             1,
			PageSize:          100,
			MaxPages:          10,
			RequestTimeout:    20 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads TC_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TC_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("TC_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("TC_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("TC_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("TC_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("TC_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("TC_POSTGRES_SSLMODE"); v != "" {
		cfg.Postgres.SSLMode = v
	}
	if v := os.Getenv("TC_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("TC_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("TC_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("TC_CORPUS_STORE"); v != "" {
		cfg.Corpus.Store = v
	}
	if v := os.Getenv("TC_CORPUS_QUEUE"); v != "" {
		cfg.Corpus.Queue = v
	}
	if v := os.Getenv("TC_CRAWLER_SOURCES"); v != "" {
		cfg.Crawler.Sources = strings.Split(v, ",")
	}
	if v := os.Getenv("TC_CRAWLER_BASE_URL"); v != "" {
		cfg.Crawler.BaseURL = v
	}
	if v := os.Getenv("TC_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TC_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("TC_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
		}
	}
}
