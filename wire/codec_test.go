package wire

import (
	"crypto/sha256"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/require"
)

func testPubkey(t *testing.T, seed byte) *btcec.PublicKey {
	t.Helper()
	var raw [32]byte
	for i := range raw {
		raw[i] = seed
	}
	h := sha256.Sum256(raw[:])
	priv, pub := btcec.PrivKeyFromBytes(h[:])
	_ = priv
	return pub
}

// TestJITOfferRoundTrip is scenario S1 from the design's test suite.
func TestJITOfferRoundTrip(t *testing.T) {
	pk := testPubkey(t, 0x01)

	raw, err := BuildJITOffer(JITOffer{
		ClientIdx:     2,
		FundingAmount: 50000,
		Reason:        "factory_expired",
		LSPPubkey:     pk,
	})
	require.NoError(t, err)

	got, err := ParseJITOffer(raw)
	require.NoError(t, err)
	require.Equal(t, uint64(2), got.ClientIdx)
	require.Equal(t, uint64(50000), got.FundingAmount)
	require.Equal(t, "factory_expired", got.Reason)
	require.True(t, pk.IsEqual(got.LSPPubkey))
}

func TestJITOfferReasonTooLong(t *testing.T) {
	pk := testPubkey(t, 0x02)
	longReason := make([]byte, 64)
	for i := range longReason {
		longReason[i] = 'a'
	}

	_, err := BuildJITOffer(JITOffer{
		ClientIdx:     1,
		FundingAmount: 1000,
		Reason:        string(longReason),
		LSPPubkey:     pk,
	})
	require.ErrorIs(t, err, ErrMalformedMessage)
}

func TestJITAcceptRoundTrip(t *testing.T) {
	pk := testPubkey(t, 0x03)

	raw, err := BuildJITAccept(JITAccept{ClientIdx: 3, ClientPubkey: pk})
	require.NoError(t, err)

	got, err := ParseJITAccept(raw)
	require.NoError(t, err)
	require.Equal(t, uint64(3), got.ClientIdx)
	require.True(t, pk.IsEqual(got.ClientPubkey))
}

// TestJITReadyRoundTrip is scenario S2 from the design's test suite.
func TestJITReadyRoundTrip(t *testing.T) {
	txid := "aabbccdd00112233445566778899aabbccddeeff00112233445566778899aabb"

	raw, err := BuildJITReady(JITReady{
		JITChannelID:  0x8001,
		FundingTxid:   txid,
		Vout:          0,
		Amount:        100000,
		LocalBalance:  45000,
		RemoteBalance: 45000,
	})
	require.NoError(t, err)

	got, err := ParseJITReady(raw)
	require.NoError(t, err)
	require.Equal(t, uint32(0x8001), got.JITChannelID)
	require.Equal(t, uint32(0), got.Vout)
	require.Equal(t, uint64(100000), got.Amount)
	require.Equal(t, uint64(45000), got.LocalBalance)
	require.Equal(t, uint64(45000), got.RemoteBalance)
	require.Equal(t, txid, got.FundingTxid)
}

func TestJITReadyBadTxid(t *testing.T) {
	_, err := BuildJITReady(JITReady{
		JITChannelID: 1,
		FundingTxid:  "not-hex-and-too-short",
	})
	require.ErrorIs(t, err, ErrMalformedMessage)
}

func TestJITMigrateRoundTrip(t *testing.T) {
	raw, err := BuildJITMigrate(JITMigrate{
		JITChannelID:    0x8002,
		TargetFactoryID: 5,
		LocalBalance:    30000,
		RemoteBalance:   20000,
	})
	require.NoError(t, err)

	got, err := ParseJITMigrate(raw)
	require.NoError(t, err)
	require.Equal(t, uint32(0x8002), got.JITChannelID)
	require.Equal(t, uint32(5), got.TargetFactoryID)
	require.Equal(t, uint64(30000), got.LocalBalance)
	require.Equal(t, uint64(20000), got.RemoteBalance)
}

func TestChannelBasepointsRoundTrip(t *testing.T) {
	b := ChannelBasepoints{
		ChannelID:               0x8000,
		FundingPubkey:           testPubkey(t, 0x10),
		RevocationBasepoint:     testPubkey(t, 0x11),
		PaymentBasepoint:        testPubkey(t, 0x12),
		DelayedPaymentBasepoint: testPubkey(t, 0x13),
		HtlcBasepoint:           testPubkey(t, 0x14),
		FirstCommitmentPoint:    testPubkey(t, 0x15),
	}
	raw, err := BuildChannelBasepoints(b)
	require.NoError(t, err)

	got, err := ParseChannelBasepoints(raw)
	require.NoError(t, err)
	require.Equal(t, b.ChannelID, got.ChannelID)
	require.True(t, b.FundingPubkey.IsEqual(got.FundingPubkey))
	require.True(t, b.RevocationBasepoint.IsEqual(got.RevocationBasepoint))
	require.True(t, b.PaymentBasepoint.IsEqual(got.PaymentBasepoint))
	require.True(t, b.DelayedPaymentBasepoint.IsEqual(got.DelayedPaymentBasepoint))
	require.True(t, b.HtlcBasepoint.IsEqual(got.HtlcBasepoint))
	require.True(t, b.FirstCommitmentPoint.IsEqual(got.FirstCommitmentPoint))
}

func TestChannelNoncesRoundTrip(t *testing.T) {
	n1 := make([]byte, nonceLen)
	n2 := make([]byte, nonceLen)
	for i := range n1 {
		n1[i] = 0x42
		n2[i] = 0x43
	}

	raw, err := BuildChannelNonces(ChannelNonces{
		ChannelID: 0x8000,
		Nonces:    [][]byte{n1, n2},
	})
	require.NoError(t, err)

	got, err := ParseChannelNonces(raw)
	require.NoError(t, err)
	require.Equal(t, uint32(0x8000), got.ChannelID)
	require.Len(t, got.Nonces, 2)
	require.Equal(t, n1, got.Nonces[0])
	require.Equal(t, n2, got.Nonces[1])
}

func TestMsgTypeNameBijection(t *testing.T) {
	types := []MsgType{
		MsgJITOffer, MsgJITAccept, MsgJITReady, MsgJITMigrate,
		MsgChannelBasepoints, MsgChannelNonces,
	}
	for _, typ := range types {
		name := MsgTypeName(typ)
		back, err := MsgTypeFromName(name)
		require.NoError(t, err)
		require.Equal(t, typ, back)
	}

	require.Equal(t, "JIT_OFFER", MsgTypeName(MsgJITOffer))
	require.Equal(t, "JIT_ACCEPT", MsgTypeName(MsgJITAccept))
	require.Equal(t, "JIT_READY", MsgTypeName(MsgJITReady))
	require.Equal(t, "JIT_MIGRATE", MsgTypeName(MsgJITMigrate))

	_, err := MsgTypeFromName("bogus")
	require.ErrorIs(t, err, ErrMalformedMessage)
}

func TestWrongMessageTypeRejected(t *testing.T) {
	raw, err := BuildJITOffer(JITOffer{
		ClientIdx:     1,
		FundingAmount: 1,
		Reason:        "x",
		LSPPubkey:     testPubkey(t, 0x20),
	})
	require.NoError(t, err)

	_, err = ParseJITAccept(raw)
	require.ErrorIs(t, err, ErrMalformedMessage)
}
