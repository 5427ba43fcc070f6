// Package watchtower implements the JIT subsystem's binding to the
// watchtower's flat channel index space (design component G). It is a
// registration and bookkeeping layer only: the actual justice-transaction
// broadcast logic a real watchtower runs on seeing a revoked commitment
// published on-chain remains external, the same way breacharbiter.go's
// retribution logic lives outside the channel bookkeeping it's built on.
package watchtower

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/lightninglabs/superscalar/lnwallet"
)

// WatchEntry is one recorded revoked-commitment observation against a
// watch index. The secret's structure is opaque to this subsystem
// (spec.md §4.G); only its presence and owning index matter here.
type WatchEntry struct {
	Index         uint32
	RevokedSecret []byte
}

// Tower is the watch-index binding table. Factory channels occupy
// indices [0, nChannels); JIT channels occupy the disjoint range
// [nChannels, 2*nChannels), with client c at index nChannels+c.
type Tower struct {
	nChannels uint32

	mu       sync.Mutex
	channels map[uint32]*lnwallet.Channel
	entries  []WatchEntry

	started uint32
	stopped uint32
}

// NewTower returns a Tower reserving the first nChannels indices for
// factory channels.
func NewTower(nChannels uint32) *Tower {
	return &Tower{
		nChannels: nChannels,
		channels:  make(map[uint32]*lnwallet.Channel),
	}
}

// Start is an idempotent no-op marking the binding table live. It exists
// so the daemon can manage this subsystem's lifecycle the same way it
// manages every other one; the table itself has no background loop to
// start, since the watchtower's own response protocol is out of scope
// here.
func (t *Tower) Start() error {
	atomic.CompareAndSwapUint32(&t.started, 0, 1)
	return nil
}

// Stop is an idempotent no-op marking the binding table closed. After
// Stop, every binding operation fails with ErrTowerStopped.
func (t *Tower) Stop() error {
	atomic.CompareAndSwapUint32(&t.stopped, 0, 1)
	return nil
}

func (t *Tower) isStopped() bool {
	return atomic.LoadUint32(&t.stopped) == 1
}

// JITIndex computes the watch index for a JIT channel belonging to
// clientIdx, the n_channels + client_idx formula of spec.md §4.G.
func (t *Tower) JITIndex(clientIdx uint64) uint32 {
	return t.nChannels + uint32(clientIdx)
}

// SetChannel binds a channel snapshot at the given watch index, used both
// for factory channels (index < nChannels) and for a JIT reaching OPEN
// (index == JITIndex(clientIdx)).
func (t *Tower) SetChannel(index uint32, ch *lnwallet.Channel) error {
	if t.isStopped() {
		return ErrTowerStopped
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.channels[index] = ch
	return nil
}

// Channel returns the channel snapshot bound at index, if any.
func (t *Tower) Channel(index uint32) (*lnwallet.Channel, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ch, ok := t.channels[index]
	return ch, ok
}

// Watch records a revoked commitment secret against watch index. A
// channel need not already be bound via SetChannel for a watch entry to
// be recorded against its index — the two calls are independent, mirroring
// how the counterparty's revocation can be processed before or after the
// local channel snapshot is refreshed.
func (t *Tower) Watch(index uint32, revokedCommitmentSecret []byte) error {
	if t.isStopped() {
		return ErrTowerStopped
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries = append(t.entries, WatchEntry{
		Index:         index,
		RevokedSecret: revokedCommitmentSecret,
	})
	return nil
}

// RemoveChannel unregisters the channel bound at index and discards every
// watch entry recorded against it. The JIT store must call this before
// reusing a client_idx's watch index for a new JIT channel (spec.md §3
// ownership invariant).
func (t *Tower) RemoveChannel(index uint32) error {
	if t.isStopped() {
		return ErrTowerStopped
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.channels, index)

	filtered := t.entries[:0]
	for _, e := range t.entries {
		if e.Index != index {
			filtered = append(filtered, e)
		}
	}
	t.entries = filtered
	return nil
}

// NumEntries returns the number of currently recorded watch entries
// across all indices.
func (t *Tower) NumEntries() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Entries returns a copy of every currently recorded watch entry.
func (t *Tower) Entries() []WatchEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]WatchEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// BoundIndices returns every watch index with a bound channel, sorted
// ascending.
func (t *Tower) BoundIndices() []uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]uint32, 0, len(t.channels))
	for idx := range t.channels {
		out = append(out, idx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
