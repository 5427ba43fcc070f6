package chain

import (
	"context"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// FakeBackend is an in-memory Backend used by this repository's own tests
// and suitable for integration tests in place of a running bitcoind, the
// way the original test suite's regtest harness is replaced here by a
// direct fake of the four consumed calls.
type FakeBackend struct {
	mu sync.Mutex

	height    uint32
	confirmed map[chainhash.Hash]bool
	broadcast [][]byte
	addrSeq   int
}

// NewFakeBackend returns a FakeBackend starting at the given height.
func NewFakeBackend(height uint32) *FakeBackend {
	return &FakeBackend{
		height:    height,
		confirmed: make(map[chainhash.Hash]bool),
	}
}

// SetHeight updates the fake chain's tip.
func (f *FakeBackend) SetHeight(height uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.height = height
}

// Confirm marks a txid as confirmed.
func (f *FakeBackend) Confirm(txid chainhash.Hash) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmed[txid] = true
}

// GetBlockHeight implements Backend.
func (f *FakeBackend) GetBlockHeight(_ context.Context) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.height, nil
}

// TxConfirmed implements Backend.
func (f *FakeBackend) TxConfirmed(_ context.Context, txid chainhash.Hash, _ uint32) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.confirmed[txid], nil
}

// Broadcast implements Backend.
func (f *FakeBackend) Broadcast(_ context.Context, rawTx []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broadcast = append(f.broadcast, rawTx)
	return nil
}

// GetNewAddress implements Backend.
func (f *FakeBackend) GetNewAddress(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addrSeq++
	return "bcrt1qfake" + string(rune('a'+f.addrSeq%26)), nil
}
