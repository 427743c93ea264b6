package cache

import (
	"context"
	"fmt"
	"time"

	pkgredis "github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/redis"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Store is a byte-valued key/value backend for cached results.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// RedisStore keeps results in Redis, shared by every API process.
type RedisStore struct {
	client *pkgredis.Client
	ttl    time.Duration
}

func NewRedisStore(client *pkgredis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := s.client.Get(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, ok, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, key, value, s.ttl); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// LRUStore is a bounded in-process store. It backs single-process
// deployments and fronts Redis as a first level otherwise.
type LRUStore struct {
	cache *lru.Cache[string, []byte]
}

func NewLRUStore(size int) (*LRUStore, error) {
	if size <= 0 {
		size = 1
	}
	c, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("creating result lru: %w", err)
	}
	return &LRUStore{cache: c}, nil
}

func (s *LRUStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := s.cache.Get(key)
	return v, ok, nil
}

func (s *LRUStore) Set(_ context.Context, key string, value []byte) error {
	s.cache.Add(key, value)
	return nil
}

func (s *LRUStore) Len() int {
	return s.cache.Len()
}
