/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDoWithRetry(t *testing.T) {
	errTemporary := errors.New("temporary")
	errPermanent := errors.New("permanent")
	isRetryable := func(err error) bool { return errors.Is(err, errTemporary) }

	t.Run("succeeds after retries", func(t *testing.T) {
		var attempts, notified int
		err := DoWithRetry(context.Background(), NewConstantBackoffPolicy(time.Millisecond, 5), isRetryable,
			func(error, time.Duration) { notified++ },
			func(context.Context) error {
				attempts++
				if attempts < 3 {
					return errTemporary
				}
				return nil
			})
		require.NoError(t, err)
		require.Equal(t, 3, attempts)
		require.Equal(t, 2, notified)
	})

	t.Run("stops on permanent error", func(t *testing.T) {
		var attempts int
		err := DoWithRetry(context.Background(), NewExponentialBackoffPolicy(time.Millisecond, 5), isRetryable, nil,
			func(context.Context) error {
				attempts++
				return errPermanent
			})
		require.ErrorIs(t, err, errPermanent)
		require.Equal(t, 1, attempts)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		var attempts int
		err := DoWithRetry(context.Background(), NewExponentialBackoffPolicy(time.Millisecond, 2), nil, nil,
			func(context.Context) error {
				attempts++
				return errTemporary
			})
		require.ErrorIs(t, err, errTemporary)
		require.Equal(t, 3, attempts)
	})

	t.Run("stops when context is canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		var attempts int
		err := DoWithRetry(ctx, NewConstantBackoffPolicy(time.Hour, 0), nil, nil,
			func(context.Context) error {
				attempts++
				cancel()
				return errTemporary
			})
		require.Error(t, err)
		require.Equal(t, 1, attempts)
	})
}
