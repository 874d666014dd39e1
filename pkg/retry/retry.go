// Package retry wraps persistence writes in a single bounded-retry policy so
// transient store contention is absorbed in one place instead of ad hoc loops
// at every call site.
package retry

import (
	"context"
	"errors"
	"time"

	"kitstock/pkg/derrors"
	"kitstock/pkg/platform/sentinel"
)

// Policy retries an operation a bounded number of times with linear backoff.
// Only errors the classifier marks retryable are retried; everything else
// surfaces immediately.
type Policy struct {
	Attempts  int
	Backoff   time.Duration
	Retryable func(error) bool
}

// Default mirrors the commit contract: 4 attempts, linear backoff, retrying
// only transient store contention.
func Default() Policy {
	return Policy{
		Attempts:  4,
		Backoff:   50 * time.Millisecond,
		Retryable: IsTransient,
	}
}

// IsTransient reports whether err is store contention worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, sentinel.ErrConflict) ||
		errors.Is(err, sentinel.ErrUnavailable) ||
		derrors.HasCode(err, derrors.CodePersistenceConflict)
}

// Do runs fn until it succeeds, the attempt budget is spent, or ctx is
// cancelled. Backoff grows linearly: backoff, 2*backoff, 3*backoff.
// Exhaustion returns a CodePersistenceFailure wrapping the last error.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsTransient
	}

	var last error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return derrors.Wrap(err, derrors.CodePersistenceFailure, "retry aborted")
		}

		last = fn(ctx)
		if last == nil {
			return nil
		}
		if !retryable(last) {
			return last
		}
		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return derrors.Wrap(ctx.Err(), derrors.CodePersistenceFailure, "retry aborted")
		case <-time.After(p.Backoff * time.Duration(attempt)):
		}
	}
	return derrors.Wrap(last, derrors.CodePersistenceFailure, "retry attempts exhausted")
}
