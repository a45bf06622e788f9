package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketAllowBurstThenDeny(t *testing.T) {
	// 低速率、容量2：前两次放行，第三次被拒
	b := NewBucket(1, 2)

	assert.True(t, b.Allow())
	assert.True(t, b.Allow())
	assert.False(t, b.Allow())
}

func TestBucketWaitRespectsContextCancel(t *testing.T) {
	b := NewBucket(1, 1)
	require.True(t, b.Allow(), "耗尽初始令牌")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := b.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRetryWithBackoffRetriesRetryableErrors(t *testing.T) {
	b := NewBucket(6000, 10).WithRetryPolicy(time.Millisecond, 3)

	calls := 0
	err := b.RetryWithBackoff(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("429 rate limit exceeded")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryWithBackoffStopsOnNonRetryableError(t *testing.T) {
	b := NewBucket(6000, 10).WithRetryPolicy(time.Millisecond, 3)

	calls := 0
	err := b.RetryWithBackoff(context.Background(), func() error {
		calls++
		return errors.New("invalid api key")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls, "不可重试的错误只尝试一次")
}

func TestRetryWithBackoffExhaustsRetries(t *testing.T) {
	b := NewBucket(6000, 10).WithRetryPolicy(time.Millisecond, 2)

	calls := 0
	err := b.RetryWithBackoff(context.Background(), func() error {
		calls++
		return errors.New("connection reset by peer")
	})

	require.Error(t, err)
	// 首次尝试 + 2次重试
	assert.Equal(t, 3, calls)
}

func TestIsRetryableError(t *testing.T) {
	assert.True(t, isRetryableError(errors.New("context deadline exceeded")))
	assert.True(t, isRetryableError(errors.New("HTTP 429 Too Many Requests")))
	assert.False(t, isRetryableError(errors.New("model not found")))
	assert.False(t, isRetryableError(nil))
}
