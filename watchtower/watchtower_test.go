package watchtower

import (
	"bytes"
	"testing"

	"github.com/lightninglabs/superscalar/lnwallet"
	"github.com/stretchr/testify/require"
)

// TestJITWatchtowerRegistration covers a JIT channel reaching OPEN with
// 4 factory channels already occupying indices [0,4): client 2 must bind
// at index 6.
func TestJITWatchtowerRegistration(t *testing.T) {
	wt := NewTower(4)

	idx := wt.JITIndex(2)
	require.Equal(t, uint32(6), idx)

	ch := &lnwallet.Channel{}
	require.NoError(t, wt.SetChannel(idx, ch))

	bound, ok := wt.Channel(idx)
	require.True(t, ok)
	require.Same(t, ch, bound)
}

func TestJITWatchtowerRevocation(t *testing.T) {
	wt := NewTower(8)

	const wtChanID = 5
	require.NoError(t, wt.SetChannel(wtChanID, &lnwallet.Channel{}))

	secret := bytes.Repeat([]byte{0xbb}, 32)
	require.NoError(t, wt.Watch(wtChanID, secret))

	require.Equal(t, 1, wt.NumEntries())
	entries := wt.Entries()
	require.Equal(t, uint32(wtChanID), entries[0].Index)
}

func TestJITWatchtowerCleanupOnClose(t *testing.T) {
	wt := NewTower(8)

	require.NoError(t, wt.Watch(6, bytes.Repeat([]byte{0x11}, 32)))
	require.NoError(t, wt.Watch(6, bytes.Repeat([]byte{0x22}, 32)))
	require.NoError(t, wt.Watch(0, bytes.Repeat([]byte{0x33}, 32)))

	require.Equal(t, 3, wt.NumEntries())

	require.NoError(t, wt.RemoveChannel(6))

	require.Equal(t, 1, wt.NumEntries())
	entries := wt.Entries()
	require.Equal(t, uint32(0), entries[0].Index)
}

func TestWatchNonOverlapInvariant(t *testing.T) {
	const nChannels = 4
	wt := NewTower(nChannels)

	for clientIdx := uint64(0); clientIdx < 5; clientIdx++ {
		idx := wt.JITIndex(clientIdx)
		require.GreaterOrEqual(t, idx, uint32(nChannels))
		require.NoError(t, wt.SetChannel(idx, &lnwallet.Channel{}))
	}

	idx := wt.JITIndex(2)
	require.NoError(t, wt.RemoveChannel(idx))
	_, ok := wt.Channel(idx)
	require.False(t, ok)
}

func TestOperationsFailAfterStop(t *testing.T) {
	wt := NewTower(4)
	require.NoError(t, wt.Start())
	require.NoError(t, wt.Stop())

	require.Error(t, wt.SetChannel(4, &lnwallet.Channel{}))
	require.Error(t, wt.Watch(4, []byte("x")))
	require.Error(t, wt.RemoveChannel(4))
}
