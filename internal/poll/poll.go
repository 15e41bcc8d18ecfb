// Package poll drives fixed-interval status polling for remote jobs.
package poll

import (
	"context"
	"errors"
	"time"
)

// Sleeper waits for delay. Implementations must return early with ctx.Err()
// when the context ends.
type Sleeper func(ctx context.Context, delay time.Duration) error

// Check performs one status read. done stops the loop; a non-nil error stops it too.
type Check func(ctx context.Context, attempt int) (done bool, err error)

// Until runs check, then sleeps interval, until check reports done, returns an error,
// or ctx ends. There is no attempt bound: callers bound it with a deadline on ctx.
// No sleep follows the final check.
func Until(ctx context.Context, interval time.Duration, sleep Sleeper, check Check) error {
	if ctx == nil {
		return errors.New("poll: nil context")
	}
	if check == nil {
		return errors.New("poll: nil check")
	}
	if sleep == nil {
		sleep = Sleep
	}
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		done, err := check(ctx, attempt)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if err := sleep(ctx, interval); err != nil {
			return err
		}
	}
}

// Sleep blocks for delay or until ctx ends.
func Sleep(ctx context.Context, delay time.Duration) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
