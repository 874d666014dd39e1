package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"kitstock/internal/catalog"
	"kitstock/pkg/derrors"
	"kitstock/pkg/platform/sentinel"
)

// ValidationError carries every failure found in a commit batch.
type ValidationError struct {
	Failures []Failure
}

func (e *ValidationError) Error() string {
	reasons := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		reasons[i] = f.String()
	}
	return fmt.Sprintf("%d count line(s) rejected: %s", len(e.Failures), strings.Join(reasons, "; "))
}

// Validate checks every count line against the catalog preconditions. All
// failures are collected; the batch is blocked if any exist. The returned
// error wraps a *ValidationError and carries the validation code.
func Validate(ctx context.Context, cat catalog.Catalog, now time.Time, counts []Count) error {
	var failures []Failure

	for _, c := range counts {
		if c.Physical < 0 {
			failures = append(failures, Failure{
				Address: c.Address,
				Item:    c.Address.Item,
				Reason:  fmt.Sprintf("physical count must not be negative, got %d", c.Physical),
			})
			continue
		}

		tracked, err := cat.ExpiryTracked(ctx, c.Address.Item)
		if err != nil {
			reason := "catalog lookup failed"
			if errors.Is(err, sentinel.ErrNotFound) {
				reason = "unknown catalog code"
			}
			failures = append(failures, Failure{
				Address: c.Address,
				Item:    c.Address.Item,
				Reason:  reason,
			})
			continue
		}

		if tracked && c.Physical > 0 {
			expiry := c.effectiveExpiry()
			switch {
			case expiry.IsZero():
				failures = append(failures, Failure{
					Address: c.Address,
					Item:    c.Address.Item,
					Reason:  "expiry-tracked item counted without an expiry date",
				})
			case !expiry.After(now):
				failures = append(failures, Failure{
					Address: c.Address,
					Item:    c.Address.Item,
					Reason:  fmt.Sprintf("expiry %s is not in the future", expiry),
				})
			}
		}
	}

	if len(failures) == 0 {
		return nil
	}
	return derrors.Wrap(&ValidationError{Failures: failures}, derrors.CodeValidation, "commit blocked")
}
