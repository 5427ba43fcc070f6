package jitchannel

import (
	"github.com/lightninglabs/superscalar/factory"
	"github.com/lightninglabs/superscalar/lnwallet"
)

// Dispatcher answers the outer LSP message loop's routing queries
// (component D): which channel currently carries a client's traffic, and
// how to resolve a wire channel id back to its Channel object.
type Dispatcher struct {
	store   *Store
	factory *factory.Factory
}

// NewDispatcher builds a Dispatcher over a JIT store and the factory it
// falls back from.
func NewDispatcher(store *Store, f *factory.Factory) *Dispatcher {
	return &Dispatcher{store: store, factory: f}
}

// EffectiveChannel returns the channel id and Channel object that should
// currently carry clientIdx's traffic: the factory channel if its entry is
// ready, else the JIT channel if active, else ok is false. Factory is
// always preferred when ready, even if a JIT happens to still be active —
// this guarantees at most one authoritative commitment path per client.
func (d *Dispatcher) EffectiveChannel(clientIdx uint64) (uint32, *lnwallet.Channel, bool) {
	if d.factory != nil && d.factory.EntryReady(clientIdx) {
		return d.factory.Entries[clientIdx].ChannelID, &d.factory.Entries[clientIdx].Channel, true
	}

	if jit, ok := d.store.Find(clientIdx); ok && d.store.IsActive(clientIdx) {
		return jit.JITChannelID, &jit.Channel, true
	}

	return 0, nil, false
}

// Resolve is the inverse lookup: given a wire channel id and the client_idx
// that sent it, return the Channel object backing it. The high bit of
// channelID selects the JIT store or the factory entries.
func (d *Dispatcher) Resolve(channelID uint32, clientIdx uint64) (*lnwallet.Channel, error) {
	if IsJITChannelID(channelID) {
		jit, ok := d.store.Find(clientIdx)
		if !ok || jit.JITChannelID != channelID {
			return nil, ErrNoSuchClient
		}
		return &jit.Channel, nil
	}

	if d.factory == nil || clientIdx >= uint64(len(d.factory.Entries)) {
		return nil, ErrNoSuchClient
	}
	entry := &d.factory.Entries[clientIdx]
	if entry.ChannelID != channelID {
		return nil, ErrNoSuchClient
	}
	return &entry.Channel, nil
}
