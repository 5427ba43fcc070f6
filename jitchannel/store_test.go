package jitchannel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIDPartition(t *testing.T) {
	for clientIdx := uint64(0); clientIdx < 100; clientIdx++ {
		id := JITChannelID(clientIdx)
		require.NotZero(t, id&ChannelIDBase)
		require.True(t, IsJITChannelID(id))
	}

	// A factory-anchored id never has the high bit set.
	require.False(t, IsJITChannelID(0x1234))
}

func TestAtMostOneActiveJITPerClient(t *testing.T) {
	store, err := NewStore(4)
	require.NoError(t, err)

	jit, err := store.Allocate(1)
	require.NoError(t, err)
	require.Equal(t, StateNone, jit.State)

	_, err = store.Allocate(1)
	require.ErrorIs(t, err, ErrJITAlreadyActive)

	jit.State = StateOpen
	found, ok := store.Find(1)
	require.True(t, ok)
	require.Same(t, jit, found)

	jit.State = StateClosed
	_, ok = store.Find(1)
	require.False(t, ok)

	// Closed slots may be reused for a subsequent JIT for the same
	// client.
	jit2, err := store.Allocate(1)
	require.NoError(t, err)
	require.NotSame(t, jit, jit2)
}

func TestStoreReleaseAndCleanup(t *testing.T) {
	store, err := NewStore(2)
	require.NoError(t, err)

	_, err = store.Allocate(0)
	require.NoError(t, err)
	store.Release(0)
	_, ok := store.Find(0)
	require.False(t, ok)

	_, err = store.Allocate(1)
	require.NoError(t, err)
	store.Cleanup()
	_, ok = store.Find(1)
	require.False(t, ok)
}

func TestStoreOutOfRange(t *testing.T) {
	store, err := NewStore(2)
	require.NoError(t, err)

	_, err = store.Allocate(5)
	require.ErrorIs(t, err, ErrNoSuchClient)
}

func TestStateStringBijection(t *testing.T) {
	states := []State{
		StateNone, StateFunding, StateOpen, StateMigrating, StateClosed,
	}
	for _, s := range states {
		require.Equal(t, s, StateFromString(s.String()))
	}
	require.Equal(t, StateNone, StateFromString("unknown-garbage"))
}
