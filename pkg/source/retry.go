package source

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// RetryConfig holds the configuration for the retry decorator.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including the first).
	MaxAttempts int

	// InitialBackoff is the initial backoff duration.
	InitialBackoff time.Duration

	// MaxBackoff is the maximum backoff duration.
	MaxBackoff time.Duration

	// Logger logs retry attempts at Warn level.
	Logger zerolog.Logger
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
		Logger:         zerolog.Nop(),
	}
}

type retrySource[T any] struct {
	inner PageSource[T]
	cfg   RetryConfig
}

// WithRetry wraps a page source with exponential backoff. The controller
// itself never retries; wrapping the source is the supported way to add a
// retry policy without violating that rule.
func WithRetry[T any](inner PageSource[T], cfg RetryConfig) PageSource[T] {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultRetryConfig().MaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = DefaultRetryConfig().InitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = DefaultRetryConfig().MaxBackoff
	}

	return &retrySource[T]{inner: inner, cfg: cfg}
}

// FetchPage implements PageSource.
func (s *retrySource[T]) FetchPage(ctx context.Context, cursor string, limit int, params Params) (Page[T], error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.cfg.InitialBackoff
	policy.MaxInterval = s.cfg.MaxBackoff
	policy.MaxElapsedTime = 0

	attempt := 0
	fetch := func() (Page[T], error) {
		attempt++

		page, err := s.inner.FetchPage(ctx, cursor, limit, params)
		if err == nil {
			return page, nil
		}

		if attempt >= s.cfg.MaxAttempts {
			return Page[T]{}, backoff.Permanent(err)
		}

		s.cfg.Logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Str("cursor", cursor).
			Msg("Page fetch failed, retrying")

		return Page[T]{}, err
	}

	return backoff.RetryWithData(fetch, backoff.WithContext(policy, ctx))
}
