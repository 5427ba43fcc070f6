package jitchannel

import (
	"context"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/lightninglabs/superscalar/chain"
	"github.com/stretchr/testify/require"
)

func TestCheckFundingNoBackend(t *testing.T) {
	store, err := NewStore(2)
	require.NoError(t, err)

	advanced, err := CheckFunding(context.Background(), store, nil, 1)
	require.NoError(t, err)
	require.Equal(t, 0, advanced)
}

func TestCheckFundingAdvancesOnConfirmation(t *testing.T) {
	store, err := NewStore(2)
	require.NoError(t, err)

	jit, err := store.Allocate(0)
	require.NoError(t, err)
	jit.State = StateFunding

	var txid chainhash.Hash
	for i := range txid {
		txid[i] = 0x11
	}
	jit.FundingTxid = txid.String()

	backend := chain.NewFakeBackend(100)

	advanced, err := CheckFunding(context.Background(), store, backend, 1)
	require.NoError(t, err)
	require.Equal(t, 0, advanced)
	require.Equal(t, StateFunding, jit.State)

	backend.Confirm(txid)

	advanced, err = CheckFunding(context.Background(), store, backend, 1)
	require.NoError(t, err)
	require.Equal(t, 1, advanced)
	require.Equal(t, StateOpen, jit.State)
}

func TestCheckFundingSkipsUnparseableTxid(t *testing.T) {
	store, err := NewStore(2)
	require.NoError(t, err)

	jit, err := store.Allocate(0)
	require.NoError(t, err)
	jit.State = StateFunding
	jit.FundingTxid = "not-a-txid"

	backend := chain.NewFakeBackend(100)

	advanced, err := CheckFunding(context.Background(), store, backend, 1)
	require.NoError(t, err)
	require.Equal(t, 0, advanced)
	require.Equal(t, StateFunding, jit.State)
}
