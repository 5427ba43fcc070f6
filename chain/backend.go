// Package chain defines the chain backend interface the JIT subsystem
// consumes, grounded on the teacher repository's ChainNotifier interface
// (chainntfs/chainntfs.go) but narrowed to the four polling-style calls the
// design actually needs: block height, confirmation status, broadcast, and
// a fresh address for funding. Concrete implementations (an RPC backend
// for bitcoind/regtest, a neutrino-backed light client) live alongside
// this file, as does FakeBackend, the in-memory fake used by tests.
package chain

import (
	"context"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Backend is the chain-data interface the funding confirmation watcher
// (jitchannel.CheckFunding) and the funding broadcast step of
// jitchannel.Create consume. It intentionally says nothing about how
// blocks are fetched or followed — that machinery lives entirely outside
// this repository, per spec non-goals.
type Backend interface {
	// GetBlockHeight returns the current best block height known to the
	// backend.
	GetBlockHeight(ctx context.Context) (uint32, error)

	// TxConfirmed reports whether the transaction identified by txid,
	// spending to vout, has reached at least the backend's configured
	// confirmation depth.
	TxConfirmed(ctx context.Context, txid chainhash.Hash, vout uint32) (bool, error)

	// Broadcast submits a raw transaction to the network.
	Broadcast(ctx context.Context, rawTx []byte) error

	// GetNewAddress returns a fresh address the backend's wallet
	// controls, used as the JIT funding tx's change/beneficiary address
	// in test and regtest harnesses.
	GetNewAddress(ctx context.Context) (string, error)
}
