// Package lnwallet provides the opaque channel state the JIT subsystem
// treats as a black box. Commitment-transaction construction, revocation
// secret derivation, and HTLC handling all live outside this repository's
// scope (see the factory/MuSig2 signer and the counterparty's wallet); this
// package only carries the handful of scalar fields the JIT store actually
// reads and writes: the two basepoint sets, the current commitment number,
// and the local/remote balances.
package lnwallet

import (
	"github.com/btcsuite/btcd/btcec/v2"
)

// BasepointSet holds the four basepoints lnd derives per-commitment keys
// from, named the way channeldb.ChannelConfig names them: the payment,
// delayed-payment, revocation, and HTLC basepoints.
type BasepointSet struct {
	// PaymentBasePoint is the key used to derive the key used within the
	// non-delayed pay-to-self output on the commitment transaction for
	// a party.
	PaymentBasePoint *btcec.PublicKey

	// DelayBasePoint is the base point used to derive the key used within
	// the revocation clause for the for the to-self output of a party.
	DelayBasePoint *btcec.PublicKey

	// RevocationBasePoint is the base point used to derive the revocation
	// key used within the commitment transaction of a party.
	RevocationBasePoint *btcec.PublicKey

	// HtlcBasePoint is the base point used to derive the key used within
	// HTLC scripts for a party.
	HtlcBasePoint *btcec.PublicKey
}

// IsZero reports whether the basepoint set is still unpopulated. A freshly
// created Channel has a zero BasepointSet on both sides until the
// CHANNEL_BASEPOINTS exchange of the handshake fills it in.
func (b *BasepointSet) IsZero() bool {
	return b.PaymentBasePoint == nil && b.DelayBasePoint == nil &&
		b.RevocationBasePoint == nil && b.HtlcBasePoint == nil
}

// Channel is the black-box cryptographic state of a single payment channel,
// factory-anchored or JIT. The JIT subsystem never constructs or signs a
// commitment transaction itself; it only ever reads or mutates the five
// fields below as the state machine in package jitchannel advances.
type Channel struct {
	// LocalBasepoints are our basepoints for this channel.
	LocalBasepoints BasepointSet

	// RemoteBasepoints are the counterparty's basepoints for this
	// channel, populated by the CHANNEL_BASEPOINTS leg of the handshake.
	RemoteBasepoints BasepointSet

	// CommitmentNumber is the monotonically increasing counter of the
	// current off-chain state of the channel.
	CommitmentNumber uint64

	// LocalAmount is our current balance on the channel, in satoshis.
	LocalAmount uint64

	// RemoteAmount is the counterparty's current balance on the channel,
	// in satoshis.
	RemoteAmount uint64

	// LocalNonces and RemoteNonces are the per-commitment nonces
	// exchanged in CHANNEL_NONCES, one per party, keyed by commitment
	// number. They are opaque to the JIT subsystem beyond storage and
	// retrieval: the underlying signer interprets them.
	LocalNonces  [][]byte
	RemoteNonces [][]byte
}

// AddBalance folds delta local/remote amounts into the channel's current
// balances. It is the only arithmetic the JIT subsystem performs on a
// Channel's balances, used by jitchannel.Controller.Migrate to absorb a closing JIT's
// balance into its successor factory channel.
func (c *Channel) AddBalance(local, remote uint64) {
	c.LocalAmount += local
	c.RemoteAmount += remote
}
