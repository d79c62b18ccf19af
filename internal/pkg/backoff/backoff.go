// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package backoff provides retries with exponential backoff and jitter.
package backoff

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// Policy configures Retry.
type Policy struct {
	// MaxAttempts is the total number of calls, including the first.
	// Values below 1 are treated as 1.
	MaxAttempts int
	// InitialDelay is the delay before the second attempt.
	InitialDelay time.Duration
	// MaxDelay caps the delay between attempts.
	MaxDelay time.Duration
}

// Retry calls f until it succeeds, returns an error that isRetryable rejects,
// or the policy's attempts are used up.
//
// Between attempts it waits a random duration between half and all of the
// current delay, doubling the delay each time up to MaxDelay. The error of
// the last attempt is returned, wrapped with the attempt count when more
// than one attempt was made.
func Retry[T any](
	ctx context.Context,
	policy Policy,
	isRetryable func(error) bool,
	f func(ctx context.Context) (T, error),
) (T, error) {
	var zero T
	maxAttempts := max(policy.MaxAttempts, 1)
	delay := policy.InitialDelay
	for attempt := 1; ; attempt++ {
		result, err := f(ctx)
		if err == nil {
			return result, nil
		}
		if attempt == maxAttempts || !isRetryable(err) {
			if attempt > 1 {
				return zero, fmt.Errorf("failed after %d attempts: %w", attempt, err)
			}
			return zero, err
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(jitter(delay)):
		}
		delay *= 2
		if policy.MaxDelay > 0 && delay > policy.MaxDelay {
			delay = policy.MaxDelay
		}
	}
}

// *** PRIVATE ***

// jitter returns a random duration between delay/2 and delay.
func jitter(delay time.Duration) time.Duration {
	if delay <= 0 {
		return 0
	}
	return delay/2 + time.Duration(rand.Int64N(int64(delay/2+1)))
}
