// Package redis provides a Redis-backed cache store, for portal
// deployments where several replicas share one read cache.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/michaelayoade/dotmac-ftth-ops-sub007/internal/cache"
)

// Config holds Redis connection configuration.
type Config struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	TTL      time.Duration `yaml:"ttl"`
}

// Store implements cache.Store on Redis. Staleness is a sibling marker
// key so invalidation never has to read-modify-write the entry. In-flight
// fetch tracking is process-local: cancellation only reaches reads issued
// by this replica.
type Store struct {
	rdb     *redis.Client
	ttl     time.Duration
	flights cache.Flights
}

// NewStore creates a Redis-backed store and verifies the connection.
func NewStore(cfg Config) (*Store, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &Store{rdb: rdb, ttl: ttl}, nil
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.rdb.Close()
}

// Health checks connectivity.
func (s *Store) Health(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Key helpers
func entryKey(key string) string {
	return fmt.Sprintf("portal_cache:%s", key)
}

func staleKey(key string) string {
	return fmt.Sprintf("portal_stale:%s", key)
}

func (s *Store) Get(ctx context.Context, key string) (*cache.Entry, error) {
	results, err := s.rdb.MGet(ctx, entryKey(key), staleKey(key)).Result()
	if err != nil {
		return nil, fmt.Errorf("mget failed: %w", err)
	}

	rawValue, ok := results[0].(string)
	if !ok {
		return nil, nil
	}
	return &cache.Entry{
		Value: []byte(rawValue),
		Stale: results[1] != nil,
	}, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, entryKey(key), value, s.ttl)
	pipe.Del(ctx, staleKey(key))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("set failed: %w", err)
	}
	return nil
}

func (s *Store) BeginFetch(ctx context.Context, key string) (context.Context, func()) {
	return s.flights.Begin(ctx, key)
}

func (s *Store) CancelInFlight(ctx context.Context, key string) error {
	return s.flights.CancelAndWait(ctx, key)
}

func (s *Store) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	pipe := s.rdb.TxPipeline()
	for _, key := range keys {
		pipe.Set(ctx, staleKey(key), "1", s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("invalidate failed: %w", err)
	}
	return nil
}

func (s *Store) InvalidatePrefix(ctx context.Context, prefix string) error {
	pattern := entryKey(prefix) + "*"
	iter := s.rdb.Scan(ctx, 0, pattern, 0).Iterator()

	entryPrefixLen := len(entryKey(""))
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val()[entryPrefixLen:])
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	return s.Invalidate(ctx, keys...)
}
