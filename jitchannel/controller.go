package jitchannel

import (
	"context"
	"crypto/rand"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/go-errors/errors"
	"github.com/lightninglabs/superscalar/chain"
	"github.com/lightninglabs/superscalar/channeldb"
	"github.com/lightninglabs/superscalar/factory"
	"github.com/lightninglabs/superscalar/lnwallet"
	"github.com/lightninglabs/superscalar/wire"
	"github.com/lightninglabs/superscalar/watchtower"
	"github.com/lightningnetwork/lnd/clock"
)

// nonceSize is the serialized size of a MuSig2 public nonce, matching
// wire's own nonceLen.
const nonceSize = 66

// FundingBuilder constructs and signs the on-chain funding transaction for
// a JIT channel. This repository does not implement MuSig2 aggregate
// signing or transaction construction (spec.md §1 non-goal); FundingBuilder
// is the delegation point the "Channel object" reference in spec.md §4.H
// step 3 alludes to.
type FundingBuilder interface {
	BuildFundingTx(ctx context.Context, clientIdx uint64,
		clientPubkey *btcec.PublicKey, amount uint64) (rawTx []byte,
		txid chainhash.Hash, vout uint32, err error)
}

// Config carries the environment/configuration values spec.md §6 lists for
// the JIT subsystem.
type Config struct {
	ConfirmDepth        uint32
	DefaultFundingSats  uint64
	MaxRotationRetries  int
	RotationRetryBlocks uint32
}

// Controller is the trigger-and-migration orchestrator (component H): it
// drives the full create/migrate handshakes across the store, persistence,
// watchtower, and chain backend.
type Controller struct {
	Store   *Store
	DB      *channeldb.DB
	Tower   *watchtower.Tower
	Backend chain.Backend
	Builder FundingBuilder
	Retry   *RetryTable

	LSPPubkey *btcec.PublicKey
	Clock     clock.Clock
	Cfg       Config
}

// NewController wires up a Controller from its collaborators.
func NewController(store *Store, db *channeldb.DB, tower *watchtower.Tower,
	backend chain.Backend, builder FundingBuilder, lspPubkey *btcec.PublicKey,
	cfg Config) *Controller {

	return &Controller{
		Store:     store,
		DB:        db,
		Tower:     tower,
		Backend:   backend,
		Builder:   builder,
		Retry:     NewRetryTable(cfg.MaxRotationRetries, cfg.RotationRetryBlocks),
		LSPPubkey: lspPubkey,
		Clock:     clock.NewDefaultClock(),
		Cfg:       cfg,
	}
}

// Create runs the full 8-step JIT creation handshake of spec.md §4.H over
// conn for clientIdx, ending with the JIT persisted in state FUNDING.
func (c *Controller) Create(ctx context.Context, conn *wire.Conn,
	clientIdx uint64, fundingSats uint64, reason string,
	curHeight uint32) (*JITChannel, error) {

	jit, err := c.Store.Allocate(clientIdx)
	if err != nil {
		return nil, err
	}

	// Step 1: offer.
	offerBytes, err := wire.BuildJITOffer(wire.JITOffer{
		ClientIdx:     clientIdx,
		FundingAmount: fundingSats,
		Reason:        reason,
		LSPPubkey:     c.LSPPubkey,
	})
	if err != nil {
		return nil, c.rollback(clientIdx, err)
	}
	if err := conn.WriteMessage(offerBytes); err != nil {
		return nil, c.rollback(clientIdx, errors.Wrap(ErrHandshakeFailed, 0))
	}

	// Step 2: accept.
	typeName, raw, err := conn.ReadMessage()
	if err != nil {
		return nil, c.rollback(clientIdx, errors.Wrap(ErrHandshakeFailed, 0))
	}
	if typeName != wire.MsgTypeName(wire.MsgJITAccept) {
		return nil, c.rollback(clientIdx, errors.Wrap(ErrHandshakeFailed, 0))
	}
	accept, err := wire.ParseJITAccept(raw)
	if err != nil {
		return nil, c.rollback(clientIdx, err)
	}

	// Step 3: fund.
	rawTx, txid, vout, err := c.Builder.BuildFundingTx(
		ctx, clientIdx, accept.ClientPubkey, fundingSats,
	)
	if err != nil {
		return nil, c.rollback(clientIdx, errors.Wrap(ErrFundingBroadcastFailed, 0))
	}
	if err := c.Backend.Broadcast(ctx, rawTx); err != nil {
		return nil, c.rollback(clientIdx, errors.Wrap(ErrFundingBroadcastFailed, 0))
	}
	jit.FundingTxid = txid.String()
	jit.FundingVout = vout
	jit.FundingAmount = fundingSats
	jit.State = StateFunding
	jit.CreatedAt = c.Clock.Now()
	jit.CreatedBlock = curHeight

	// Step 4: basepoints.
	if err := c.exchangeBasepoints(conn, jit); err != nil {
		return nil, c.rollback(clientIdx, err)
	}

	// Step 5: nonces.
	if err := c.exchangeNonces(conn, jit); err != nil {
		return nil, c.rollback(clientIdx, err)
	}

	// Step 6: ready, with a fixed 50/50 split (the remote side takes any
	// odd satoshi); the split is not a parameter of Create.
	local := fundingSats / 2
	remote := fundingSats - local
	jit.Channel.LocalAmount = local
	jit.Channel.RemoteAmount = remote

	readyBytes, err := wire.BuildJITReady(wire.JITReady{
		JITChannelID:  jit.JITChannelID,
		FundingTxid:   jit.FundingTxid,
		Vout:          jit.FundingVout,
		Amount:        fundingSats,
		LocalBalance:  local,
		RemoteBalance: remote,
	})
	if err != nil {
		return nil, c.rollback(clientIdx, err)
	}
	if err := conn.WriteMessage(readyBytes); err != nil {
		return nil, c.rollback(clientIdx, errors.Wrap(ErrHandshakeFailed, 0))
	}

	// Step 7: watchtower registration. Non-fatal per spec.md §7.
	idx := c.Tower.JITIndex(clientIdx)
	if err := c.Tower.SetChannel(idx, &jit.Channel); err != nil {
		log.Errorf("jit channel %d: %v: %v", jit.JITChannelID,
			ErrWatchtowerBindError, err)
	}

	// Step 8: persist.
	if err := c.persist(jit); err != nil {
		return nil, errors.Wrap(ErrPersistenceError, 0)
	}

	return jit, nil
}

func (c *Controller) rollback(clientIdx uint64, err error) error {
	c.Store.Release(clientIdx)
	return err
}

func (c *Controller) exchangeBasepoints(conn *wire.Conn, jit *JITChannel) error {
	var secrets [4]*btcec.PrivateKey
	var pubkeys [4]*btcec.PublicKey
	for i := range secrets {
		sk, err := btcec.NewPrivateKey()
		if err != nil {
			return errors.Wrap(ErrHandshakeFailed, 0)
		}
		secrets[i] = sk
		pubkeys[i] = sk.PubKey()

		var secBytes [32]byte
		copy(secBytes[:], sk.Serialize())
		jit.LocalSecrets[i] = secBytes
	}

	// The funding pubkey and first-commitment point are consumed by the
	// underlying signer, out of this repository's scope; ephemeral keys
	// are generated here purely to satisfy the wire format.
	fundingPub, err := ephemeralPubkey()
	if err != nil {
		return errors.Wrap(ErrHandshakeFailed, 0)
	}
	firstCommitPub, err := ephemeralPubkey()
	if err != nil {
		return errors.Wrap(ErrHandshakeFailed, 0)
	}

	sendBytes, err := wire.BuildChannelBasepoints(wire.ChannelBasepoints{
		ChannelID:               jit.JITChannelID,
		FundingPubkey:           fundingPub,
		PaymentBasepoint:        pubkeys[0],
		DelayedPaymentBasepoint: pubkeys[1],
		RevocationBasepoint:     pubkeys[2],
		HtlcBasepoint:           pubkeys[3],
		FirstCommitmentPoint:    firstCommitPub,
	})
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(sendBytes); err != nil {
		return errors.Wrap(ErrHandshakeFailed, 0)
	}

	typeName, raw, err := conn.ReadMessage()
	if err != nil {
		return errors.Wrap(ErrHandshakeFailed, 0)
	}
	if typeName != wire.MsgTypeName(wire.MsgChannelBasepoints) {
		return errors.Wrap(ErrHandshakeFailed, 0)
	}
	remote, err := wire.ParseChannelBasepoints(raw)
	if err != nil {
		return err
	}

	jit.Channel.LocalBasepoints = lnwallet.BasepointSet{
		PaymentBasePoint:     pubkeys[0],
		DelayBasePoint:       pubkeys[1],
		RevocationBasePoint:  pubkeys[2],
		HtlcBasePoint:        pubkeys[3],
	}
	jit.Channel.RemoteBasepoints = lnwallet.BasepointSet{
		PaymentBasePoint:    remote.PaymentBasepoint,
		DelayBasePoint:      remote.DelayedPaymentBasepoint,
		RevocationBasePoint: remote.RevocationBasepoint,
		HtlcBasePoint:       remote.HtlcBasepoint,
	}
	return nil
}

func (c *Controller) exchangeNonces(conn *wire.Conn, jit *JITChannel) error {
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return errors.Wrap(ErrHandshakeFailed, 0)
	}

	sendBytes, err := wire.BuildChannelNonces(wire.ChannelNonces{
		ChannelID: jit.JITChannelID,
		Nonces:    [][]byte{nonce},
	})
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(sendBytes); err != nil {
		return errors.Wrap(ErrHandshakeFailed, 0)
	}

	typeName, raw, err := conn.ReadMessage()
	if err != nil {
		return errors.Wrap(ErrHandshakeFailed, 0)
	}
	if typeName != wire.MsgTypeName(wire.MsgChannelNonces) {
		return errors.Wrap(ErrHandshakeFailed, 0)
	}
	remote, err := wire.ParseChannelNonces(raw)
	if err != nil {
		return err
	}

	jit.Channel.LocalNonces = [][]byte{nonce}
	jit.Channel.RemoteNonces = remote.Nonces
	return nil
}

func (c *Controller) persist(jit *JITChannel) error {
	row := channeldb.JITChannelRow{
		JITChannelID:    jit.JITChannelID,
		ClientIdx:       jit.ClientIdx,
		State:           jit.State.String(),
		FundingTxid:     jit.FundingTxid,
		FundingVout:     jit.FundingVout,
		FundingAmount:   jit.FundingAmount,
		LocalAmount:     jit.Channel.LocalAmount,
		RemoteAmount:    jit.Channel.RemoteAmount,
		CommitmentNum:   jit.Channel.CommitmentNumber,
		CreatedAt:       jit.CreatedAt.Unix(),
		CreatedBlock:    jit.CreatedBlock,
		TargetFactoryID: jit.TargetFactoryID,
	}
	if err := c.DB.SaveJITChannel(row); err != nil {
		return err
	}

	bpRow := channeldb.BasepointRow{JITChannelID: jit.JITChannelID}
	bpRow.LocalPaymentSecret = jit.LocalSecrets[0]
	bpRow.LocalDelaySecret = jit.LocalSecrets[1]
	bpRow.LocalRevocationSecret = jit.LocalSecrets[2]
	bpRow.LocalHtlcSecret = jit.LocalSecrets[3]
	copy(bpRow.RemotePaymentPub[:], jit.Channel.RemoteBasepoints.PaymentBasePoint.SerializeCompressed())
	copy(bpRow.RemoteDelayPub[:], jit.Channel.RemoteBasepoints.DelayBasePoint.SerializeCompressed())
	copy(bpRow.RemoteRevocationPub[:], jit.Channel.RemoteBasepoints.RevocationBasePoint.SerializeCompressed())
	copy(bpRow.RemoteHtlcPub[:], jit.Channel.RemoteBasepoints.HtlcBasePoint.SerializeCompressed())

	return c.DB.SaveBasepoints(bpRow)
}

// RestoreBasepoints repopulates jit.LocalSecrets and
// jit.Channel.RemoteBasepoints from a persisted BasepointRow, the inverse
// of the encoding persist does. Used when reloading a non-CLOSED JIT
// channel at startup, so a restored OPEN channel carries the same
// cryptographic material it had before the restart.
func (jit *JITChannel) RestoreBasepoints(row channeldb.BasepointRow) error {
	jit.LocalSecrets[0] = row.LocalPaymentSecret
	jit.LocalSecrets[1] = row.LocalDelaySecret
	jit.LocalSecrets[2] = row.LocalRevocationSecret
	jit.LocalSecrets[3] = row.LocalHtlcSecret

	payment, err := btcec.ParsePubKey(row.RemotePaymentPub[:])
	if err != nil {
		return errors.Wrap(ErrPersistenceError, 0)
	}
	delay, err := btcec.ParsePubKey(row.RemoteDelayPub[:])
	if err != nil {
		return errors.Wrap(ErrPersistenceError, 0)
	}
	revocation, err := btcec.ParsePubKey(row.RemoteRevocationPub[:])
	if err != nil {
		return errors.Wrap(ErrPersistenceError, 0)
	}
	htlc, err := btcec.ParsePubKey(row.RemoteHtlcPub[:])
	if err != nil {
		return errors.Wrap(ErrPersistenceError, 0)
	}

	jit.Channel.RemoteBasepoints = lnwallet.BasepointSet{
		PaymentBasePoint:    payment,
		DelayBasePoint:      delay,
		RevocationBasePoint: revocation,
		HtlcBasePoint:       htlc,
	}
	return nil
}

func ephemeralPubkey() (*btcec.PublicKey, error) {
	sk, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, err
	}
	return sk.PubKey(), nil
}

// Migrate runs the migration step of spec.md §4.H: it folds an OPEN JIT's
// balance into the target factory entry, best-effort-notifies the client,
// unregisters the watchtower binding, and closes the JIT.
func (c *Controller) Migrate(ctx context.Context, conn *wire.Conn,
	clientIdx uint64, targetFactoryID uint32, f *factory.Factory) error {

	jit, ok := c.Store.Find(clientIdx)
	if !ok || jit.State != StateOpen {
		return nil
	}

	if f != nil && clientIdx < uint64(len(f.Entries)) {
		f.Entries[clientIdx].Channel.AddBalance(
			jit.Channel.LocalAmount, jit.Channel.RemoteAmount,
		)
	}

	if conn != nil {
		migrateBytes, err := wire.BuildJITMigrate(wire.JITMigrate{
			JITChannelID:    jit.JITChannelID,
			TargetFactoryID: targetFactoryID,
			LocalBalance:    jit.Channel.LocalAmount,
			RemoteBalance:   jit.Channel.RemoteAmount,
		})
		if err == nil {
			// Best-effort: migration still closes the JIT locally even
			// if delivery fails (spec.md §5 cancellation policy).
			if werr := conn.WriteMessage(migrateBytes); werr != nil {
				log.Warnf("jit channel %d: migrate notice not delivered: %v",
					jit.JITChannelID, werr)
			}
		}
	}

	idx := c.Tower.JITIndex(clientIdx)
	if err := c.Tower.RemoveChannel(idx); err != nil {
		log.Errorf("jit channel %d: %v: %v", jit.JITChannelID,
			ErrWatchtowerBindError, err)
	}

	if err := jit.MigrateStart(targetFactoryID); err != nil {
		return err
	}
	if err := jit.MigrateDone(); err != nil {
		return err
	}

	if err := c.DB.UpdateJITState(jit.JITChannelID, jit.State.String()); err != nil {
		return errors.Wrap(ErrPersistenceError, 0)
	}

	return nil
}
