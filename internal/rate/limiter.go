// Package rate gates outbound Gmail API calls so runs stay inside the
// provider's per-user quota.
package rate

import (
	"context"
	"fmt"
	"time"
)

// Limiter gates an API call. Implementations must be safe for concurrent
// use; disposal chunks wait on the same limiter from several goroutines.
type Limiter interface {
	Wait(ctx context.Context) error
}

// None is a pass-through limiter for tests and unthrottled runs.
type None struct{}

func (None) Wait(context.Context) error { return nil }

// TokenBucket releases rps tokens per second with a small burst so the
// first calls of a run do not stall.
type TokenBucket struct {
	ticker *time.Ticker
	tokens chan struct{}
	quit   chan struct{}
	done   chan struct{}
}

// NewTokenBucket returns a running limiter. Call Stop when finished.
func NewTokenBucket(rps int) *TokenBucket {
	if rps <= 0 {
		rps = 1
	}
	tb := &TokenBucket{
		ticker: time.NewTicker(time.Second / time.Duration(rps)),
		tokens: make(chan struct{}, rps),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	tb.tokens <- struct{}{}
	go tb.fill()
	return tb
}

func (t *TokenBucket) fill() {
	defer close(t.done)
	for {
		select {
		case <-t.quit:
			return
		case <-t.ticker.C:
			select {
			case t.tokens <- struct{}{}:
			default:
			}
		}
	}
}

// Wait blocks until a token is available or ctx is canceled.
func (t *TokenBucket) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("rate wait canceled: %w", ctx.Err())
	case <-t.tokens:
		return nil
	}
}

// Stop halts the refill goroutine.
func (t *TokenBucket) Stop() {
	t.ticker.Stop()
	close(t.quit)
	<-t.done
}

var (
	_ Limiter = (*TokenBucket)(nil)
	_ Limiter = None{}
)
