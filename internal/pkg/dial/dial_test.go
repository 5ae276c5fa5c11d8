package dial

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	conn, err := Retry(context.Background(), 3, time.Millisecond, func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("connection refused")
		}
		return "connected", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "connected", conn)
	assert.Equal(t, 3, calls)
}

func TestRetry_ReturnsLastError(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), 2, time.Millisecond, func(context.Context) (int, error) {
		calls++
		return 0, errors.New("dial tcp: no such host")
	})

	assert.EqualError(t, err, "dial tcp: no such host")
	assert.Equal(t, 2, calls)
}

func TestRetry_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Retry(ctx, 5, time.Hour, func(context.Context) (int, error) {
		return 0, errors.New("unreachable")
	})

	assert.Error(t, err)
}
