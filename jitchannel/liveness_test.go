package jitchannel

import (
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/stretchr/testify/require"
)

func TestLivenessTouchResetsOfflineLatch(t *testing.T) {
	testClock := clock.NewTestClock(time.Unix(0, 0))
	l := NewLiveness(10*time.Second, testClock)

	l.Touch(1)
	require.False(t, l.CheckOffline(1))

	testClock.SetTime(time.Unix(20, 0))
	require.True(t, l.CheckOffline(1))

	l.Touch(1)
	require.False(t, l.CheckOffline(1))
}

func TestLivenessUnknownClientNotOffline(t *testing.T) {
	l := NewLiveness(time.Second, nil)
	require.False(t, l.CheckOffline(99))

	_, ok := l.LastMessageTime(99)
	require.False(t, ok)
}

func TestLivenessLatchSticky(t *testing.T) {
	testClock := clock.NewTestClock(time.Unix(0, 0))
	l := NewLiveness(5*time.Second, testClock)

	l.Touch(2)
	testClock.SetTime(time.Unix(10, 0))
	require.True(t, l.CheckOffline(2))

	// The latch stays set even if time moves backward relative to the
	// timeout window, since offlineDetected only clears on Touch.
	testClock.SetTime(time.Unix(6, 0))
	require.True(t, l.CheckOffline(2))
}

func TestLivenessLastMessageTime(t *testing.T) {
	testClock := clock.NewTestClock(time.Unix(42, 0))
	l := NewLiveness(time.Minute, testClock)

	l.Touch(3)
	ts, ok := l.LastMessageTime(3)
	require.True(t, ok)
	require.Equal(t, time.Unix(42, 0), ts)
}
