// Package factory models the on-chain factory UTXO that anchors many
// clients' payment channels, as an external collaborator of the JIT
// subsystem. The MuSig2 aggregate-signing and transaction-construction
// logic behind a factory is out of this repository's scope; this package
// exposes only the lifecycle state and per-client balance bookkeeping the
// JIT subsystem's trigger and migration steps consume.
package factory

import (
	"github.com/lightninglabs/superscalar/lnwallet"
)

// State is the lifecycle phase of a factory.
type State uint8

const (
	// Active indicates the factory is healthy and serving clients.
	Active State = iota

	// Dying indicates the factory is approaching expiry; rotation
	// should already be underway.
	Dying

	// Expired indicates the factory can no longer serve clients. Any
	// client without a ready successor entry must fall back to a JIT
	// channel.
	Expired
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Dying:
		return "dying"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}

// ClientEntry is a single client's slot within a factory: its effective
// channel and whether that channel is ready to carry traffic.
type ClientEntry struct {
	// ChannelID is the factory-anchored channel id for this client,
	// always below jitchannel.ChannelIDBase.
	ChannelID uint32

	// Ready indicates whether the entry's Channel is usable. An entry is
	// not Ready before the factory has confirmed and the per-client
	// commitment has been established.
	Ready bool

	// Channel is the factory-anchored channel state for this client.
	Channel lnwallet.Channel
}

// Factory tracks the lifecycle of one on-chain factory UTXO and the
// per-client entries anchored inside it.
type Factory struct {
	// ID identifies this factory; JIT channels record the successor
	// factory's ID as their TargetFactoryID while migrating.
	ID uint32

	// ActiveUntil is the block height at which the factory transitions
	// from Active to Dying.
	ActiveUntil uint32

	// DyingUntil is the block height at which the factory transitions
	// from Dying to Expired.
	DyingUntil uint32

	// Entries holds one slot per client index known to this factory.
	Entries []ClientEntry
}

// GetState returns the factory's lifecycle state at the given block height.
func (f *Factory) GetState(height uint32) State {
	switch {
	case height < f.ActiveUntil:
		return Active
	case height < f.DyingUntil:
		return Dying
	default:
		return Expired
	}
}

// EntryReady reports whether the factory has a ready entry for clientIdx.
// It returns false for an out-of-range index rather than panicking, since
// a brand new client may not yet have a factory slot at all.
func (f *Factory) EntryReady(clientIdx uint64) bool {
	if clientIdx >= uint64(len(f.Entries)) {
		return false
	}
	return f.Entries[clientIdx].Ready
}
