package jitchannel

import (
	"context"
	"net"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/davecgh/go-spew/spew"
	"github.com/lightninglabs/superscalar/chain"
	"github.com/lightninglabs/superscalar/channeldb"
	"github.com/lightninglabs/superscalar/factory"
	"github.com/lightninglabs/superscalar/watchtower"
	"github.com/lightninglabs/superscalar/wire"
	"github.com/stretchr/testify/require"
)

// fakeFundingBuilder stands in for the out-of-scope MuSig2 funding
// transaction construction (spec.md §1 non-goal): it returns a
// deterministic fake txid instead of a real signed transaction.
type fakeFundingBuilder struct {
	seed byte
}

func (f *fakeFundingBuilder) BuildFundingTx(_ context.Context, _ uint64,
	_ *btcec.PublicKey, _ uint64) ([]byte, chainhash.Hash, uint32, error) {

	var h chainhash.Hash
	for i := range h {
		h[i] = f.seed
	}
	return []byte{0x02, 0x00, 0x00, 0x00}, h, 0, nil
}

// fakeClient drives the counterparty side of the handshake over a
// wire.Conn, standing in for the remote client's own implementation.
func fakeClient(t *testing.T, conn *wire.Conn, clientIdx uint64) {
	t.Helper()

	typeName, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, wire.MsgTypeName(wire.MsgJITOffer), typeName)
	offer, err := wire.ParseJITOffer(raw)
	require.NoError(t, err)
	require.Equal(t, clientIdx, offer.ClientIdx)

	clientSk, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	acceptBytes, err := wire.BuildJITAccept(wire.JITAccept{
		ClientIdx:    clientIdx,
		ClientPubkey: clientSk.PubKey(),
	})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(acceptBytes))

	// Basepoints: read ours, answer with a fake set of our own.
	typeName, raw, err = conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, wire.MsgTypeName(wire.MsgChannelBasepoints), typeName)
	_, err = wire.ParseChannelBasepoints(raw)
	require.NoError(t, err)

	remoteKeys := make([]*btcec.PublicKey, 6)
	for i := range remoteKeys {
		sk, err := btcec.NewPrivateKey()
		require.NoError(t, err)
		remoteKeys[i] = sk.PubKey()
	}
	bpBytes, err := wire.BuildChannelBasepoints(wire.ChannelBasepoints{
		ChannelID:               JITChannelID(clientIdx),
		FundingPubkey:           remoteKeys[0],
		PaymentBasepoint:        remoteKeys[1],
		DelayedPaymentBasepoint: remoteKeys[2],
		RevocationBasepoint:     remoteKeys[3],
		HtlcBasepoint:           remoteKeys[4],
		FirstCommitmentPoint:    remoteKeys[5],
	})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(bpBytes))

	// Nonces.
	typeName, raw, err = conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, wire.MsgTypeName(wire.MsgChannelNonces), typeName)
	_, err = wire.ParseChannelNonces(raw)
	require.NoError(t, err)

	remoteNonce := make([]byte, nonceSize)
	for i := range remoteNonce {
		remoteNonce[i] = 0x42
	}
	nonceBytes, err := wire.BuildChannelNonces(wire.ChannelNonces{
		ChannelID: JITChannelID(clientIdx),
		Nonces:    [][]byte{remoteNonce},
	})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(nonceBytes))

	// Ready.
	typeName, raw, err = conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, wire.MsgTypeName(wire.MsgJITReady), typeName)
	_, err = wire.ParseJITReady(raw)
	require.NoError(t, err)
}

func newTestController(t *testing.T) (*Controller, *watchtower.Tower, *channeldb.DB) {
	t.Helper()

	store, err := NewStore(8)
	require.NoError(t, err)

	db, err := channeldb.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tower := watchtower.NewTower(4)
	backend := chain.NewFakeBackend(100)
	lspSk, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	ctrl := NewController(store, db, tower, backend,
		&fakeFundingBuilder{seed: 0xaa}, lspSk.PubKey(), Config{
			ConfirmDepth:        1,
			DefaultFundingSats:  50000,
			MaxRotationRetries:  3,
			RotationRetryBlocks: 10,
		})
	return ctrl, tower, db
}

// TestControllerCreateHandshake runs the full 8-step handshake of spec.md
// §4.H over net.Pipe, the supplemented regtest-daemon-trigger feature's
// reference integration test.
func TestControllerCreateHandshake(t *testing.T) {
	ctrl, tower, db := newTestController(t)

	serverSide, clientSide := net.Pipe()
	defer serverSide.Close()
	defer clientSide.Close()

	clientConn := wire.NewConn(clientSide)
	done := make(chan struct{})
	go func() {
		defer close(done)
		fakeClient(t, clientConn, 2)
	}()

	serverConn := wire.NewConn(serverSide)
	jit, err := ctrl.Create(context.Background(), serverConn, 2, 50000,
		"factory_expired", 100)
	require.NoError(t, err)
	<-done

	require.Equalf(t, StateFunding, jit.State, "unexpected jit record: %s", spew.Sdump(jit))
	require.Equal(t, JITChannelID(2), jit.JITChannelID)
	require.Equal(t, uint64(25000), jit.Channel.LocalAmount)
	require.Equal(t, uint64(25000), jit.Channel.RemoteAmount)

	idx := tower.JITIndex(2)
	_, bound := tower.Channel(idx)
	require.True(t, bound)

	loaded, err := db.LoadJITChannels()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, StateFunding.String(), loaded[0].State)
}

// TestControllerMigrate covers scenario S4: factory[1] (local=40000,
// remote=40000), JIT[client=1] OPEN (local=5000, remote=3000). After
// migrate(client=1, factory=0): factory[1] shows (45000, 43000), JIT state
// CLOSED, is_active(1) = false.
func TestControllerMigrate(t *testing.T) {
	ctrl, tower, db := newTestController(t)

	jit, err := ctrl.Store.Allocate(1)
	require.NoError(t, err)
	jit.State = StateOpen
	jit.Channel.LocalAmount = 5000
	jit.Channel.RemoteAmount = 3000
	require.NoError(t, db.SaveJITChannel(channeldb.JITChannelRow{
		JITChannelID: jit.JITChannelID,
		ClientIdx:    1,
		State:        StateOpen.String(),
	}))

	idx := tower.JITIndex(1)
	require.NoError(t, tower.SetChannel(idx, &jit.Channel))

	f := &factory.Factory{
		ID: 0,
		Entries: []factory.ClientEntry{
			{},
			{ChannelID: 1},
		},
	}
	f.Entries[1].Channel.LocalAmount = 40000
	f.Entries[1].Channel.RemoteAmount = 40000

	err = ctrl.Migrate(context.Background(), nil, 1, 0, f)
	require.NoError(t, err)

	require.Equal(t, uint64(45000), f.Entries[1].Channel.LocalAmount)
	require.Equal(t, uint64(43000), f.Entries[1].Channel.RemoteAmount)
	require.Equal(t, StateClosed, jit.State)
	require.False(t, ctrl.Store.IsActive(1))

	_, bound := tower.Channel(idx)
	require.False(t, bound)
}

// TestMultipleJITsWatchtowerIndices covers scenario S5: JITs for clients
// 0, 2, 3 with distinct local amounts; find(1) = none; watch indices
// 4, 6, 7 populated; 5 remains unbound.
func TestMultipleJITsWatchtowerIndices(t *testing.T) {
	const nChannels = 4
	store, err := NewStore(8)
	require.NoError(t, err)
	tower := watchtower.NewTower(nChannels)

	amounts := map[uint64]uint64{0: 10000, 2: 20000, 3: 30000}
	for clientIdx, amt := range amounts {
		jit, err := store.Allocate(clientIdx)
		require.NoError(t, err)
		jit.State = StateOpen
		jit.Channel.LocalAmount = amt

		idx := tower.JITIndex(clientIdx)
		require.NoError(t, tower.SetChannel(idx, &jit.Channel))
	}

	_, ok := store.Find(1)
	require.False(t, ok)

	for clientIdx := range amounts {
		idx := tower.JITIndex(clientIdx)
		_, bound := tower.Channel(idx)
		require.True(t, bound)
	}

	_, bound := tower.Channel(nChannels + 1)
	require.False(t, bound)
}
