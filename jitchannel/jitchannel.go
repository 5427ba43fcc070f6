package jitchannel

import (
	"time"

	"github.com/lightninglabs/superscalar/lnwallet"
)

// ChannelIDBase is the high-bit discriminator between factory-anchored and
// JIT channel ids. Factory ids occupy [0, ChannelIDBase); JIT ids occupy
// [ChannelIDBase, 0x10000).
const ChannelIDBase = 0x8000

// JITChannelID computes the 32-bit channel id for a JIT belonging to
// clientIdx. clientIdx is assumed to fit in the low 15 bits, consistent
// with the store's fixed client-index capacity.
func JITChannelID(clientIdx uint64) uint32 {
	return ChannelIDBase | uint32(clientIdx)
}

// IsJITChannelID reports whether id falls in the JIT id range, the high-bit
// discriminator of spec.md §6.
func IsJITChannelID(id uint32) bool {
	return id&ChannelIDBase != 0
}

// JITChannel is a single client's just-in-time fallback channel record.
type JITChannel struct {
	// JITChannelID is ChannelIDBase | ClientIdx.
	JITChannelID uint32

	// ClientIdx is the owning client's index into the LSP's client table.
	ClientIdx uint64

	// State is the current lifecycle phase.
	State State

	// FundingTxid, FundingVout, FundingAmount describe the on-chain
	// funding outpoint of this JIT channel.
	FundingTxid   string
	FundingVout   uint32
	FundingAmount uint64

	// FundingConfirmed latches true once the confirmation watcher
	// observes the required depth.
	FundingConfirmed bool

	// CreatedAt and CreatedBlock record when this JIT was created, used
	// for retry throttling and diagnostics.
	CreatedAt    time.Time
	CreatedBlock uint32

	// TargetFactoryID is the factory this JIT is migrating into. It is
	// meaningful only while State == StateMigrating.
	TargetFactoryID uint32

	// Channel is the opaque cryptographic channel state. The JIT
	// subsystem only ever reads or mutates its balances, commitment
	// number, basepoints, and nonces.
	Channel lnwallet.Channel

	// LocalSecrets holds the four 32-byte local basepoint secrets this
	// LSP generated for the channel. They are opaque to this subsystem
	// beyond storage and retrieval — the signer behind Channel is what
	// actually derives per-commitment keys from them — but they must
	// round-trip through persistence so the channel can be rehydrated
	// after a restart.
	LocalSecrets [4][32]byte
}

// Confirm is the FUNDING -> OPEN transition (component C, "confirm"),
// triggered by the funding confirmation watcher. It is idempotent: calling
// it again once already OPEN is a no-op, matching the source's
// "second confirmation observation is a no-op" contract.
func (j *JITChannel) Confirm() error {
	switch j.State {
	case StateOpen:
		return nil
	case StateFunding:
		j.FundingConfirmed = true
		j.State = StateOpen
		return nil
	default:
		return ErrInvalidStateTransition
	}
}

// MigrateStart is the OPEN -> MIGRATING transition.
func (j *JITChannel) MigrateStart(targetFactoryID uint32) error {
	if j.State != StateOpen {
		return ErrInvalidStateTransition
	}
	j.TargetFactoryID = targetFactoryID
	j.State = StateMigrating
	return nil
}

// MigrateDone is the MIGRATING -> CLOSED transition. The caller is
// responsible for having already folded the JIT's balances into the
// target factory and unregistered the watchtower entries; MigrateDone only
// flips the terminal state.
func (j *JITChannel) MigrateDone() error {
	if j.State != StateMigrating {
		return ErrInvalidStateTransition
	}
	j.State = StateClosed
	return nil
}

// Abort is the FUNDING -> CLOSED transition taken after a bounded wait
// without confirmation.
func (j *JITChannel) Abort() error {
	if j.State != StateFunding && j.State != StateNone {
		return ErrInvalidStateTransition
	}
	j.State = StateClosed
	return nil
}
