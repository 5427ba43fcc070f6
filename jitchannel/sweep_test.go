package jitchannel

import (
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/lightninglabs/superscalar/chain"
	"github.com/lightningnetwork/lnd/ticker"
	"github.com/stretchr/testify/require"
)

func TestConfirmationSweeperAdvancesOnTick(t *testing.T) {
	store, err := NewStore(1)
	require.NoError(t, err)

	jit, err := store.Allocate(0)
	require.NoError(t, err)
	jit.State = StateFunding

	var txid chainhash.Hash
	for i := range txid {
		txid[i] = 0x22
	}
	jit.FundingTxid = txid.String()

	backend := chain.NewFakeBackend(10)
	backend.Confirm(txid)

	force := ticker.NewForce(time.Hour)
	sweeper := NewConfirmationSweeper(store, backend, 1, force)
	sweeper.Start()
	defer sweeper.Stop()

	force.Force <- time.Now()

	require.Eventually(t, func() bool {
		found, ok := store.Find(0)
		return ok && found.State == StateOpen
	}, time.Second, 5*time.Millisecond)
}
