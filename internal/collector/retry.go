package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"SignalBacktest/internal/model"
)

// RetryFetcher bounds every attempt of the wrapped Fetcher with a timeout and
// retries transport failures with exponential backoff. Sentinel errors
// (no data, invalid symbol, invalid range) are returned immediately.
type RetryFetcher struct {
	Fetcher Fetcher
	Timeout time.Duration
	Retries int
	Backoff time.Duration

	// OnAttempt, if set, is called after every attempt with its outcome.
	OnAttempt func(source string, err error)
}

// NewRetryFetcher wraps f with the given policy.
func NewRetryFetcher(f Fetcher, timeout time.Duration, retries int, backoff time.Duration) *RetryFetcher {
	return &RetryFetcher{Fetcher: f, Timeout: timeout, Retries: retries, Backoff: backoff}
}

func (r *RetryFetcher) Name() string { return r.Fetcher.Name() }

func permanent(err error) bool {
	return errors.Is(err, ErrNoData) || errors.Is(err, ErrInvalidSymbol) || errors.Is(err, ErrInvalidRange)
}

func (r *RetryFetcher) FetchBars(ctx context.Context, req Request) ([]model.OHLCV, error) {
	var lastErr error
	for i := 0; i <= r.Retries; i++ {
		bars, err := r.attempt(ctx, req)
		if r.OnAttempt != nil {
			r.OnAttempt(r.Name(), err)
		}
		if err == nil {
			return bars, nil
		}
		if permanent(err) {
			return nil, err
		}
		lastErr = err
		if i == r.Retries {
			break
		}

		backoff := r.Backoff * time.Duration(1<<uint(i))
		log.Printf("[WARN] %s fetch failed (attempt %d/%d): %v, retrying in %v", r.Name(), i+1, r.Retries+1, err, backoff)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
	return nil, fmt.Errorf("all %d attempts exhausted: %w", r.Retries+1, lastErr)
}

func (r *RetryFetcher) attempt(ctx context.Context, req Request) ([]model.OHLCV, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	return r.Fetcher.FetchBars(ctx, req)
}
