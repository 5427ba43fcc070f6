package wire

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
)

// maxReasonLen is the maximum length, in bytes, of a JIT_OFFER reason
// string.
const maxReasonLen = 63

// jitOfferPayload is the wire shape of a JIT_OFFER message.
type jitOfferPayload struct {
	ClientIdx     uint64 `json:"client_idx"`
	FundingAmount uint64 `json:"funding_amount"`
	Reason        string `json:"reason"`
	LSPPubkey     string `json:"lsp_pubkey"`
}

// JITOffer is the logical, decoded form of a JIT_OFFER message.
type JITOffer struct {
	ClientIdx     uint64
	FundingAmount uint64
	Reason        string
	LSPPubkey     *btcec.PublicKey
}

// BuildJITOffer constructs the wire bytes for a JIT_OFFER message.
func BuildJITOffer(o JITOffer) ([]byte, error) {
	if len(o.Reason) > maxReasonLen {
		return nil, fmt.Errorf("%w: reason too long (%d > %d)",
			ErrMalformedMessage, len(o.Reason), maxReasonLen)
	}
	if o.LSPPubkey == nil {
		return nil, fmt.Errorf("%w: missing lsp_pubkey",
			ErrMalformedMessage)
	}

	payload := jitOfferPayload{
		ClientIdx:     o.ClientIdx,
		FundingAmount: o.FundingAmount,
		Reason:        o.Reason,
		LSPPubkey:     encodePubkey(o.LSPPubkey),
	}
	return marshal(MsgJITOffer, payload)
}

// ParseJITOffer parses a JIT_OFFER message previously built by
// BuildJITOffer. parse(build(o)) == o for every valid o.
func ParseJITOffer(data []byte) (*JITOffer, error) {
	var p jitOfferPayload
	if err := unmarshal(MsgJITOffer, data, &p); err != nil {
		return nil, err
	}
	if len(p.Reason) > maxReasonLen {
		return nil, fmt.Errorf("%w: reason too long",
			ErrMalformedMessage)
	}
	pk, err := decodePubkey(p.LSPPubkey)
	if err != nil {
		return nil, err
	}
	return &JITOffer{
		ClientIdx:     p.ClientIdx,
		FundingAmount: p.FundingAmount,
		Reason:        p.Reason,
		LSPPubkey:     pk,
	}, nil
}

// jitAcceptPayload is the wire shape of a JIT_ACCEPT message.
type jitAcceptPayload struct {
	ClientIdx    uint64 `json:"client_idx"`
	ClientPubkey string `json:"client_pubkey"`
}

// JITAccept is the logical, decoded form of a JIT_ACCEPT message.
type JITAccept struct {
	ClientIdx    uint64
	ClientPubkey *btcec.PublicKey
}

// BuildJITAccept constructs the wire bytes for a JIT_ACCEPT message.
func BuildJITAccept(a JITAccept) ([]byte, error) {
	if a.ClientPubkey == nil {
		return nil, fmt.Errorf("%w: missing client_pubkey",
			ErrMalformedMessage)
	}
	payload := jitAcceptPayload{
		ClientIdx:    a.ClientIdx,
		ClientPubkey: encodePubkey(a.ClientPubkey),
	}
	return marshal(MsgJITAccept, payload)
}

// ParseJITAccept parses a JIT_ACCEPT message previously built by
// BuildJITAccept.
func ParseJITAccept(data []byte) (*JITAccept, error) {
	var p jitAcceptPayload
	if err := unmarshal(MsgJITAccept, data, &p); err != nil {
		return nil, err
	}
	pk, err := decodePubkey(p.ClientPubkey)
	if err != nil {
		return nil, err
	}
	return &JITAccept{
		ClientIdx:    p.ClientIdx,
		ClientPubkey: pk,
	}, nil
}

// jitReadyPayload is the wire shape of a JIT_READY message.
type jitReadyPayload struct {
	JITChannelID  uint32 `json:"jit_channel_id"`
	FundingTxid   string `json:"funding_txid"`
	Vout          uint32 `json:"vout"`
	Amount        uint64 `json:"amount"`
	LocalBalance  uint64 `json:"local_balance"`
	RemoteBalance uint64 `json:"remote_balance"`
}

// JITReady is the logical, decoded form of a JIT_READY message.
type JITReady struct {
	JITChannelID  uint32
	FundingTxid   string
	Vout          uint32
	Amount        uint64
	LocalBalance  uint64
	RemoteBalance uint64
}

// BuildJITReady constructs the wire bytes for a JIT_READY message.
func BuildJITReady(r JITReady) ([]byte, error) {
	if len(r.FundingTxid) != 64 {
		return nil, fmt.Errorf(
			"%w: funding_txid must be 64 hex chars, got %d",
			ErrMalformedMessage, len(r.FundingTxid))
	}
	if _, err := hex.DecodeString(r.FundingTxid); err != nil {
		return nil, fmt.Errorf("%w: funding_txid not valid hex: %v",
			ErrMalformedMessage, err)
	}
	return marshal(MsgJITReady, jitReadyPayload(r))
}

// ParseJITReady parses a JIT_READY message previously built by
// BuildJITReady.
func ParseJITReady(data []byte) (*JITReady, error) {
	var p jitReadyPayload
	if err := unmarshal(MsgJITReady, data, &p); err != nil {
		return nil, err
	}
	if len(p.FundingTxid) != 64 {
		return nil, fmt.Errorf("%w: funding_txid must be 64 hex chars",
			ErrMalformedMessage)
	}
	if _, err := hex.DecodeString(p.FundingTxid); err != nil {
		return nil, fmt.Errorf("%w: funding_txid not valid hex: %v",
			ErrMalformedMessage, err)
	}
	r := JITReady(p)
	return &r, nil
}

// jitMigratePayload is the wire shape of a JIT_MIGRATE message.
type jitMigratePayload struct {
	JITChannelID    uint32 `json:"jit_channel_id"`
	TargetFactoryID uint32 `json:"target_factory_id"`
	LocalBalance    uint64 `json:"local_balance"`
	RemoteBalance   uint64 `json:"remote_balance"`
}

// JITMigrate is the logical, decoded form of a JIT_MIGRATE message.
type JITMigrate struct {
	JITChannelID    uint32
	TargetFactoryID uint32
	LocalBalance    uint64
	RemoteBalance   uint64
}

// BuildJITMigrate constructs the wire bytes for a JIT_MIGRATE message.
func BuildJITMigrate(m JITMigrate) ([]byte, error) {
	return marshal(MsgJITMigrate, jitMigratePayload(m))
}

// ParseJITMigrate parses a JIT_MIGRATE message previously built by
// BuildJITMigrate.
func ParseJITMigrate(data []byte) (*JITMigrate, error) {
	var p jitMigratePayload
	if err := unmarshal(MsgJITMigrate, data, &p); err != nil {
		return nil, err
	}
	m := JITMigrate(p)
	return &m, nil
}

// encodePubkey serializes a public key to its 33-byte SEC1-compressed,
// hex-encoded wire representation.
func encodePubkey(pk *btcec.PublicKey) string {
	return hex.EncodeToString(pk.SerializeCompressed())
}

// decodePubkey is the inverse of encodePubkey, validating that the
// supplied hex decodes to exactly 33 bytes forming a valid compressed
// point.
func decodePubkey(s string) (*btcec.PublicKey, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: pubkey not valid hex: %v",
			ErrMalformedMessage, err)
	}
	if len(raw) != 33 {
		return nil, fmt.Errorf(
			"%w: pubkey must be 33 bytes compressed, got %d",
			ErrMalformedMessage, len(raw))
	}
	pk, err := btcec.ParsePubKey(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid pubkey: %v",
			ErrMalformedMessage, err)
	}
	return pk, nil
}

// marshal wraps a payload in a type-tagged Envelope and serializes it.
func marshal(t MsgType, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	env := Envelope{
		Type:    MsgTypeName(t),
		Payload: raw,
	}
	out, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	return out, nil
}

// unmarshal validates the envelope's type tag matches want and decodes its
// payload into v.
func unmarshal(want MsgType, data []byte, v interface{}) error {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	got, err := MsgTypeFromName(env.Type)
	if err != nil {
		return err
	}
	if got != want {
		log.Debugf("unexpected message type: wanted %s, got %s",
			MsgTypeName(want), env.Type)
		return fmt.Errorf("%w: expected %s, got %s",
			ErrMalformedMessage, MsgTypeName(want), env.Type)
	}
	if err := json.Unmarshal(env.Payload, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	return nil
}
