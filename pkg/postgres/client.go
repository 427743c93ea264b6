// Package postgres opens the PostgreSQL connection pool used by the corpus
// store and runs transactional work against it.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/resilience"
	"github.com/lib/pq"
)

// SQLSTATE codes a transaction may simply be run again after.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

type Client struct {
	DB    *sql.DB
	retry resilience.RetryConfig
}

// New opens the pool and pings it once before returning.
func New(cfg config.PostgresConfig) (*Client, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening postgres %s/%s: %w", cfg.Host, cfg.Database, err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres %s/%s: %w", cfg.Host, cfg.Database, err)
	}
	return &Client{
		DB: db,
		retry: resilience.RetryConfig{
			MaxAttempts:  4,
			InitialDelay: 20 * time.Millisecond,
			MaxDelay:     500 * time.Millisecond,
			Retryable:    Retryable,
		},
	}, nil
}

func (c *Client) Close() error {
	return c.DB.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// InTx runs fn in a transaction, committing on success and rolling back on
// error. A transaction aborted by a serialization failure or deadlock is run
// again from the start, so fn must not have side effects outside tx.
func (c *Client) InTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return resilience.Retry(ctx, "postgres-tx", c.retry, func() error {
		return c.runTx(ctx, fn)
	})
}

func (c *Client) runTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("rollback failed (%v) after: %w", rbErr, err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Retryable reports whether err is a transient transaction conflict.
func Retryable(err error) bool {
	switch Code(err) {
	case codeSerializationFailure, codeDeadlockDetected:
		return true
	}
	return false
}

// Code returns the SQLSTATE carried by err, or "" if it is not a server
// error.
func Code(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}
