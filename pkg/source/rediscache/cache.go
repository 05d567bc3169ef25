// Package rediscache wraps a page source with a Redis-backed page cache.
// Pages are keyed by parameter set, page size, and cursor, so a cached feed
// replays identically until its TTL lapses. Cache failures degrade to the
// inner source; they never surface to the collection.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/windrose-labs/infiniscroll/pkg/source"
)

var (
	// ErrNilInner indicates no inner source was given.
	ErrNilInner = errors.New("inner source cannot be nil")

	// ErrNilClient indicates no Redis client was given.
	ErrNilClient = errors.New("redis client cannot be nil")
)

// DefaultTTL is used when Config.TTL is zero.
const DefaultTTL = 5 * time.Minute

// Config holds the cache settings.
type Config struct {
	// TTL is how long a cached page stays valid. Defaults to DefaultTTL.
	TTL time.Duration

	// Prefix namespaces the cache keys. Defaults to "collection".
	Prefix string

	// Logger logs degraded cache operations.
	Logger zerolog.Logger
}

// Source is a caching decorator around another page source.
type Source[T any] struct {
	inner  source.PageSource[T]
	redis  *redis.Client
	ttl    time.Duration
	prefix string
	logger zerolog.Logger
}

// New wraps inner with a Redis page cache.
func New[T any](inner source.PageSource[T], redisClient *redis.Client, cfg Config) (*Source[T], error) {
	if inner == nil {
		return nil, ErrNilInner
	}
	if redisClient == nil {
		return nil, ErrNilClient
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "collection"
	}

	return &Source[T]{
		inner:  inner,
		redis:  redisClient,
		ttl:    cfg.TTL,
		prefix: cfg.Prefix,
		logger: cfg.Logger,
	}, nil
}

// FetchPage serves the page from Redis when present, otherwise fetches from
// the inner source and stores the result. Only successful pages are cached.
func (s *Source[T]) FetchPage(ctx context.Context, cursor string, limit int, params source.Params) (source.Page[T], error) {
	key := s.key(cursor, limit, params)

	if page, ok := s.lookup(ctx, key); ok {
		CacheHits.Inc()
		s.logger.Debug().Str("key", key).Msg("Page cache hit")
		return page, nil
	}
	CacheMisses.Inc()

	page, err := s.inner.FetchPage(ctx, cursor, limit, params)
	if err != nil {
		return source.Page[T]{}, err
	}

	s.store(ctx, key, page)
	return page, nil
}

// Invalidate drops every cached page of one parameter set, across cursors.
// Callers use it when the underlying data changed and replay would be stale.
func (s *Source[T]) Invalidate(ctx context.Context, params source.Params) error {
	pattern := fmt.Sprintf("%s:%s:*", s.prefix, params.Key())

	iter := s.redis.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis scan: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}

	if err := s.redis.Del(ctx, keys...).Err(); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}

	s.logger.Debug().
		Str("params", params.Key()).
		Int("pages", len(keys)).
		Msg("Page cache invalidated")
	return nil
}

func (s *Source[T]) key(cursor string, limit int, params source.Params) string {
	return fmt.Sprintf("%s:%s:%d:%s", s.prefix, params.Key(), limit, cursor)
}

func (s *Source[T]) lookup(ctx context.Context, key string) (source.Page[T], bool) {
	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			CacheErrors.WithLabelValues("get").Inc()
			s.logger.Warn().Err(err).Str("key", key).Msg("Page cache degraded, fetching from source")
		}
		return source.Page[T]{}, false
	}

	var page source.Page[T]
	if err := json.Unmarshal(data, &page); err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		s.logger.Warn().Err(err).Str("key", key).Msg("Corrupt cache entry dropped")
		if delErr := s.redis.Del(ctx, key).Err(); delErr != nil {
			CacheErrors.WithLabelValues("delete").Inc()
		}
		return source.Page[T]{}, false
	}

	return page, true
}

func (s *Source[T]) store(ctx context.Context, key string, page source.Page[T]) {
	data, err := json.Marshal(page)
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		s.logger.Warn().Err(err).Str("key", key).Msg("Page not cacheable")
		return
	}

	if err := s.redis.Set(ctx, key, data, s.ttl).Err(); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		s.logger.Warn().Err(err).Str("key", key).Msg("Page cache write failed")
	}
}
