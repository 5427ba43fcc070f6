package wire

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
)

// nonceLen is the serialized size, in bytes, of a single MuSig2 public
// nonce (two compressed curve points).
const nonceLen = 66

// channelBasepointsPayload is the wire shape of a CHANNEL_BASEPOINTS
// message. It carries the six keys BOLT-2's open_channel/accept_channel
// exchange one side at a time; the JIT subsystem only reads four of them
// (payment, delayed-payment, revocation, htlc) into lnwallet.Channel — the
// funding pubkey and first per-commitment point are consumed by the
// underlying signer, out of this repository's scope.
type channelBasepointsPayload struct {
	ChannelID               uint32 `json:"channel_id"`
	FundingPubkey           string `json:"funding_pubkey"`
	RevocationBasepoint     string `json:"revocation_basepoint"`
	PaymentBasepoint        string `json:"payment_basepoint"`
	DelayedPaymentBasepoint string `json:"delayed_payment_basepoint"`
	HtlcBasepoint           string `json:"htlc_basepoint"`
	FirstCommitmentPoint    string `json:"first_per_commitment_point"`
}

// ChannelBasepoints is the logical, decoded form of a CHANNEL_BASEPOINTS
// message.
type ChannelBasepoints struct {
	ChannelID               uint32
	FundingPubkey           *btcec.PublicKey
	RevocationBasepoint     *btcec.PublicKey
	PaymentBasepoint        *btcec.PublicKey
	DelayedPaymentBasepoint *btcec.PublicKey
	HtlcBasepoint           *btcec.PublicKey
	FirstCommitmentPoint    *btcec.PublicKey
}

// BuildChannelBasepoints constructs the wire bytes for a
// CHANNEL_BASEPOINTS message.
func BuildChannelBasepoints(b ChannelBasepoints) ([]byte, error) {
	keys := []*btcec.PublicKey{
		b.FundingPubkey, b.RevocationBasepoint, b.PaymentBasepoint,
		b.DelayedPaymentBasepoint, b.HtlcBasepoint,
		b.FirstCommitmentPoint,
	}
	for _, k := range keys {
		if k == nil {
			return nil, fmt.Errorf("%w: missing basepoint",
				ErrMalformedMessage)
		}
	}
	payload := channelBasepointsPayload{
		ChannelID:               b.ChannelID,
		FundingPubkey:           encodePubkey(b.FundingPubkey),
		RevocationBasepoint:     encodePubkey(b.RevocationBasepoint),
		PaymentBasepoint:        encodePubkey(b.PaymentBasepoint),
		DelayedPaymentBasepoint: encodePubkey(b.DelayedPaymentBasepoint),
		HtlcBasepoint:           encodePubkey(b.HtlcBasepoint),
		FirstCommitmentPoint:    encodePubkey(b.FirstCommitmentPoint),
	}
	return marshal(MsgChannelBasepoints, payload)
}

// ParseChannelBasepoints parses a CHANNEL_BASEPOINTS message previously
// built by BuildChannelBasepoints.
func ParseChannelBasepoints(data []byte) (*ChannelBasepoints, error) {
	var p channelBasepointsPayload
	if err := unmarshal(MsgChannelBasepoints, data, &p); err != nil {
		return nil, err
	}

	out := &ChannelBasepoints{ChannelID: p.ChannelID}
	fields := []struct {
		hex string
		dst **btcec.PublicKey
	}{
		{p.FundingPubkey, &out.FundingPubkey},
		{p.RevocationBasepoint, &out.RevocationBasepoint},
		{p.PaymentBasepoint, &out.PaymentBasepoint},
		{p.DelayedPaymentBasepoint, &out.DelayedPaymentBasepoint},
		{p.HtlcBasepoint, &out.HtlcBasepoint},
		{p.FirstCommitmentPoint, &out.FirstCommitmentPoint},
	}
	for _, f := range fields {
		pk, err := decodePubkey(f.hex)
		if err != nil {
			return nil, err
		}
		*f.dst = pk
	}
	return out, nil
}

// channelNoncesPayload is the wire shape of a CHANNEL_NONCES message.
type channelNoncesPayload struct {
	ChannelID uint32   `json:"channel_id"`
	Nonces    []string `json:"nonces"`
}

// ChannelNonces is the logical, decoded form of a CHANNEL_NONCES message.
type ChannelNonces struct {
	ChannelID uint32
	Nonces    [][]byte
}

// BuildChannelNonces constructs the wire bytes for a CHANNEL_NONCES
// message.
func BuildChannelNonces(n ChannelNonces) ([]byte, error) {
	encoded := make([]string, len(n.Nonces))
	for i, nonce := range n.Nonces {
		if len(nonce) != nonceLen {
			return nil, fmt.Errorf(
				"%w: nonce %d must be %d bytes, got %d",
				ErrMalformedMessage, i, nonceLen, len(nonce))
		}
		encoded[i] = hex.EncodeToString(nonce)
	}
	payload := channelNoncesPayload{
		ChannelID: n.ChannelID,
		Nonces:    encoded,
	}
	return marshal(MsgChannelNonces, payload)
}

// ParseChannelNonces parses a CHANNEL_NONCES message previously built by
// BuildChannelNonces.
func ParseChannelNonces(data []byte) (*ChannelNonces, error) {
	var p channelNoncesPayload
	if err := unmarshal(MsgChannelNonces, data, &p); err != nil {
		return nil, err
	}
	nonces := make([][]byte, len(p.Nonces))
	for i, s := range p.Nonces {
		raw, err := hex.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("%w: nonce %d not valid hex: %v",
				ErrMalformedMessage, i, err)
		}
		if len(raw) != nonceLen {
			return nil, fmt.Errorf(
				"%w: nonce %d must be %d bytes, got %d",
				ErrMalformedMessage, i, nonceLen, len(raw))
		}
		nonces[i] = raw
	}
	return &ChannelNonces{ChannelID: p.ChannelID, Nonces: nonces}, nil
}
