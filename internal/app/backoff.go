package app

import (
	"context"
	"time"
)

// Default backoff configuration values.
const (
	DefaultBaseDelay   = 500 * time.Millisecond
	DefaultSettleDelay = 300 * time.Millisecond
)

// Sleeper pauses for d or until ctx is done, whichever comes first.
// It returns ctx.Err() if the context ended the pause.
type Sleeper func(ctx context.Context, d time.Duration) error

// sleepContext is the default Sleeper.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// backoff implements linear backoff: the n-th retry waits base*n.
type backoff struct {
	base  time.Duration
	sleep Sleeper
}

// newBackoff creates a backoff with the given base delay.
func newBackoff(base time.Duration, sleep Sleeper) *backoff {
	if sleep == nil {
		sleep = sleepContext
	}
	return &backoff{base: base, sleep: sleep}
}

// Delay returns the wait after the given 1-based attempt.
func (b *backoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return b.base * time.Duration(attempt)
}

// Wait sleeps for Delay(attempt).
func (b *backoff) Wait(ctx context.Context, attempt int) error {
	return b.sleep(ctx, b.Delay(attempt))
}
