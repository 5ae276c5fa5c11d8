// Package dial retries startup connections to backing stores.
package dial

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

// Retry calls connect until it succeeds, making at most attempts calls spaced by delay.
// The error of the last attempt is returned.
func Retry[T any](ctx context.Context, attempts int, delay time.Duration, connect func(context.Context) (T, error)) (T, error) {
	if attempts < 1 {
		attempts = 1
	}
	if delay <= 0 {
		delay = time.Millisecond
	}

	var conn T
	backoff := retry.WithMaxRetries(uint64(attempts-1), retry.NewConstant(delay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		c, err := connect(ctx)
		if err != nil {
			return retry.RetryableError(err)
		}
		conn = c
		return nil
	})
	return conn, err
}
