package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	storeMaxRetries = 2
	storeRetryDelay = 100 * time.Millisecond
)

// Retry runs fn, retrying transient failures with a constant backoff.
// Terminal protocol errors (see Terminal) are returned immediately; anything
// still failing after the retry budget is wrapped in ErrStoreUnavailable so
// callers can distinguish the one retryable condition from the rest of the
// taxonomy.
func Retry(ctx context.Context, fn func(ctx context.Context) error) error {
	b := retry.WithMaxRetries(storeMaxRetries, retry.NewConstant(storeRetryDelay))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		if ferr := fn(ctx); ferr != nil {
			if Terminal(ferr) {
				return ferr
			}
			return retry.RetryableError(ferr)
		}
		return nil
	})
	if err != nil && !Terminal(err) {
		if errors.Is(err, ErrStoreUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return err
}

// RetryWithResult is Retry for functions that produce a value.
func RetryWithResult[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := Retry(ctx, func(ctx context.Context) error {
		v, ferr := fn(ctx)
		if ferr != nil {
			return ferr
		}
		out = v
		return nil
	})
	return out, err
}
