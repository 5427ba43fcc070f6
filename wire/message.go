// Package wire implements the JIT control message codec described in the
// design's wire protocol section: the four JIT-prefixed messages plus the
// two shared channel-setup messages they depend on. The underlying framing
// is the LSP's existing JSON-over-socket transport, so each message is a
// self-describing JSON envelope; this package does not open sockets or
// frame length-prefixes. It builds and parses payloads, and Conn reads
// and writes envelopes over a stream the caller supplies.
package wire

import (
	"encoding/json"
	"fmt"
)

// MsgType identifies the kind of a JIT wire message.
type MsgType uint8

const (
	// MsgJITOffer is sent LSP -> client to offer a just-in-time channel.
	MsgJITOffer MsgType = iota

	// MsgJITAccept is sent client -> LSP to accept a JIT_OFFER.
	MsgJITAccept

	// MsgJITReady is sent LSP -> client once the JIT channel's funding
	// outpoint and initial balances are known.
	MsgJITReady

	// MsgJITMigrate is sent LSP -> client to announce that a JIT
	// channel's balance is being folded into a successor factory
	// channel.
	MsgJITMigrate

	// MsgChannelBasepoints carries one side's basepoints during channel
	// setup; both the JIT handshake and ordinary factory channel setup
	// use it.
	MsgChannelBasepoints

	// MsgChannelNonces carries one side's per-commitment MuSig2 nonces
	// during channel setup.
	MsgChannelNonces
)

// msgTypeNames is the external, stable string contract for each MsgType.
// These strings — not the numeric MsgType values — are part of this
// design's wire contract (see the round-trip law below).
var msgTypeNames = map[MsgType]string{
	MsgJITOffer:          "JIT_OFFER",
	MsgJITAccept:         "JIT_ACCEPT",
	MsgJITReady:          "JIT_READY",
	MsgJITMigrate:        "JIT_MIGRATE",
	MsgChannelBasepoints: "CHANNEL_BASEPOINTS",
	MsgChannelNonces:     "CHANNEL_NONCES",
}

var msgTypesByName = func() map[string]MsgType {
	out := make(map[string]MsgType, len(msgTypeNames))
	for t, n := range msgTypeNames {
		out[n] = t
	}
	return out
}()

// MsgTypeName returns the external string name of a MsgType.
func MsgTypeName(t MsgType) string {
	name, ok := msgTypeNames[t]
	if !ok {
		return "UNKNOWN"
	}
	return name
}

// MsgTypeFromName is the inverse of MsgTypeName. It returns
// ErrMalformedMessage for any string that isn't one of the six defined
// type names, satisfying the round-trip law: MsgTypeFromName(MsgTypeName(t))
// == t for every defined t.
func MsgTypeFromName(name string) (MsgType, error) {
	t, ok := msgTypesByName[name]
	if !ok {
		return 0, fmt.Errorf("%w: unknown message type %q",
			ErrMalformedMessage, name)
	}
	return t, nil
}

// Envelope is the self-describing wrapper every JIT message is carried in
// on the wire: a type tag plus the type-specific payload.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}
