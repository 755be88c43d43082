// Package retry implements fixed-attempt exponential backoff for
// operations that talk to flaky remotes.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.trai.ch/zerr"

	"github.com/dlang-tools/dci/internal/core/domain"
)

const (
	// DefaultAttempts is how often an operation is tried before giving up.
	DefaultAttempts = 5

	// DefaultBaseDelay is the backoff after the first failed attempt.
	// It doubles after each further failure.
	DefaultBaseDelay = time.Second
)

// Sleeper pauses between attempts. Implementations return early with the
// context error when the context is canceled.
type Sleeper func(ctx context.Context, d time.Duration) error

// Policy controls the attempt count and backoff growth.
// The zero value picks the defaults.
type Policy struct {
	// Attempts is the number of tries. Zero means DefaultAttempts.
	Attempts int

	// BaseDelay is the backoff after the first failure. It is shifted
	// left once per further failure. Zero means DefaultBaseDelay.
	BaseDelay time.Duration

	// Sleep is swapped out in tests. Nil means a timer-based sleep.
	Sleep Sleeper
}

// Default returns the policy used for network operations: five attempts
// with delays growing 1s, 2s, 4s, 8s, 16s.
func Default() Policy {
	return Policy{Attempts: DefaultAttempts, BaseDelay: DefaultBaseDelay}
}

// Do runs op until it succeeds or the attempts are exhausted.
//
// Do backs off after every failed attempt, including the final one, so a
// caller chaining further work always observes the full backoff window.
// The operation name ends up on the returned error for diagnostics.
func (p Policy) Do(ctx context.Context, operation string, op func(context.Context) error) error {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	base := p.BaseDelay
	if base <= 0 {
		base = DefaultBaseDelay
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for i := range attempts {
		if err := ctx.Err(); err != nil {
			return zerr.Wrap(err, fmt.Sprintf("%s canceled", operation))
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if serr := sleep(ctx, base<<i); serr != nil {
			return zerr.Wrap(errors.Join(lastErr, serr), fmt.Sprintf("%s canceled during backoff", operation))
		}
	}

	wrapped := zerr.Wrap(lastErr, fmt.Sprintf("%s failed after %d attempts", operation, attempts))
	return errors.Join(domain.ErrRetriesExhausted, wrapped)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
