package jitchannel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestRetryMonotonicity covers property 8: record_failure strictly
// increases retry_count; should_retry returns -1 iff
// retry_count == MAX_ROTATION_RETRIES.
func TestRetryMonotonicity(t *testing.T) {
	const maxRetries = 3
	rt := NewRetryTable(maxRetries, 100)

	require.Equal(t, 1, rt.ShouldRetry(7, 0))

	prev := 0
	for i := 0; i < maxRetries; i++ {
		rt.RecordFailure(7, uint32(i*100))
		require.Greater(t, rt.RetryCount(7), prev)
		prev = rt.RetryCount(7)
	}

	require.Equal(t, maxRetries, rt.RetryCount(7))
	require.Equal(t, -1, rt.ShouldRetry(7, 100000))
}

func TestRetryCooldown(t *testing.T) {
	rt := NewRetryTable(5, 100)

	rt.RecordFailure(1, 50)
	require.Equal(t, 0, rt.ShouldRetry(1, 60))
	require.Equal(t, 1, rt.ShouldRetry(1, 150))
}

func TestRetrySuccessResets(t *testing.T) {
	rt := NewRetryTable(2, 10)

	rt.RecordFailure(1, 0)
	rt.RecordFailure(1, 20)
	require.Equal(t, 2, rt.RetryCount(1))

	rt.RecordSuccess(1)
	require.Equal(t, 0, rt.RetryCount(1))
	require.Equal(t, 1, rt.ShouldRetry(1, 0))
}
