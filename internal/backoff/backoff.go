// Package backoff holds the wait policy shared by free-tier fallback and
// extraction pacing.
package backoff

import (
	"context"
	"time"
)

// Policy is a fixed-delay wait policy. A zero MaxAttempts means unbounded.
type Policy struct {
	Delay       time.Duration
	MaxAttempts int
	// Sleep replaces the real wait in tests. Nil uses a timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Fixed returns a policy that waits delay between attempts.
func Fixed(delay time.Duration, attempts int) Policy {
	if delay < 0 {
		delay = 0
	}
	if attempts < 0 {
		attempts = 0
	}
	return Policy{Delay: delay, MaxAttempts: attempts}
}

// Allows reports whether attempt (1-based) is within the policy.
func (p Policy) Allows(attempt int) bool {
	if attempt < 1 {
		return false
	}
	return p.MaxAttempts == 0 || attempt <= p.MaxAttempts
}

// Wait blocks for Delay or until ctx is done.
func (p Policy) Wait(ctx context.Context) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, p.Delay)
	}
	if err := ctx.Err(); err != nil || p.Delay <= 0 {
		return err
	}
	timer := time.NewTimer(p.Delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
