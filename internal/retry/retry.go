package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// permanentError marks an error the policy must not retry.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so Do returns it immediately instead of burning the
// remaining attempts. Use it for definitive answers (a 422, a validation
// reject) that no amount of retrying will change.
func Permanent(err error) error {
	if err == nil {
		return nil
	}

	return &permanentError{err: err}
}

// Policy retries an operation with exponential backoff. It wraps the
// orchestrator's calls to unreliable collaborators; decision logic is
// never retried because it cannot fail transiently.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  int
}

// Default mirrors the collaborator retry used in production: 3 attempts,
// doubling from 500ms.
var Default = Policy{MaxAttempts: 3, BaseDelay: 500 * time.Millisecond, Multiplier: 2}

// Do runs fn until it succeeds, attempts are exhausted, or the context is
// done. The delay before attempt n+1 is BaseDelay * Multiplier^n.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("retry policy needs at least one attempt, got %d", p.MaxAttempts)
	}

	delay := p.BaseDelay

	var err error

	for attempt := 1; ; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}

		if attempt == p.MaxAttempts {
			return fmt.Errorf("after %d attempts: %w", attempt, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay *= time.Duration(p.Multiplier)
	}
}
