// Package rate gates outbound API calls so the Gmail quota is respected.
package rate

import (
	"context"
	"fmt"
	"time"
)

// Limiter blocks callers until the next call is allowed to proceed.
type Limiter interface {
	Wait(ctx context.Context) error
}

// TokenBucket implements a simple fixed-rate token bucket limiter.
type TokenBucket struct {
	ticker   *time.Ticker
	tokens   chan struct{}
	quit     chan struct{}
	stopDone chan struct{}
}

// NewTokenBucket returns a limiter that releases rps tokens per second.
func NewTokenBucket(rps int) *TokenBucket {
	if rps <= 0 {
		rps = 1
	}
	tb := &TokenBucket{
		ticker:   time.NewTicker(time.Second / time.Duration(rps)),
		tokens:   make(chan struct{}, rps),
		quit:     make(chan struct{}),
		stopDone: make(chan struct{}),
	}
	// Let the first call proceed immediately.
	tb.tokens <- struct{}{}
	go tb.run()
	return tb
}

func (t *TokenBucket) run() {
	defer close(t.stopDone)
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

// Wait blocks until a token is available or the context is canceled.
func (t *TokenBucket) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("rate wait canceled: %w", ctx.Err())
	case <-t.tokens:
		return nil
	}
}

// Stop releases resources held by the limiter. Stopping the ticker
// alone is not enough: ticker.Stop never closes its channel, so run
// is told to exit explicitly.
func (t *TokenBucket) Stop() {
	t.ticker.Stop()
	close(t.quit)
	<-t.stopDone
}

// Unlimited is a Limiter that never blocks.
type Unlimited struct{}

// Wait returns immediately.
func (Unlimited) Wait(context.Context) error { return nil }

var _ Limiter = (*TokenBucket)(nil)
var _ Limiter = Unlimited{}
