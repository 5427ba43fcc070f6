package chain

import (
	"context"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/rpcclient"
	"github.com/go-errors/errors"
)

// RPCBackend is a Backend implementation talking to a bitcoind/btcd RPC
// endpoint, the way chainregistry.go wires an RPC chain backend for lnd.
// It is deliberately thin: it exposes only the four calls Backend
// requires, not general chain-following.
type RPCBackend struct {
	client     *rpcclient.Client
	minConfirm uint32
}

// NewRPCBackend dials an RPC backend with the given connection config. The
// caller is responsible for supplying credentials; this constructor does
// not itself read any config files.
func NewRPCBackend(connCfg *rpcclient.ConnConfig, minConfirm uint32) (*RPCBackend, error) {
	client, err := rpcclient.New(connCfg, nil)
	if err != nil {
		return nil, errors.Errorf("connecting to chain backend: %w", err)
	}
	return &RPCBackend{client: client, minConfirm: minConfirm}, nil
}

// GetBlockHeight implements Backend.
func (r *RPCBackend) GetBlockHeight(_ context.Context) (uint32, error) {
	height, err := r.client.GetBlockCount()
	if err != nil {
		return 0, err
	}
	return uint32(height), nil
}

// TxConfirmed implements Backend.
func (r *RPCBackend) TxConfirmed(_ context.Context, txid chainhash.Hash, _ uint32) (bool, error) {
	tx, err := r.client.GetRawTransactionVerbose(&txid)
	if err != nil {
		// An unknown transaction is not an error condition for a
		// funding confirmation poll: it simply isn't confirmed yet.
		return false, nil
	}
	return tx.Confirmations >= uint64(r.minConfirm), nil
}

// Broadcast implements Backend.
func (r *RPCBackend) Broadcast(_ context.Context, rawTx []byte) error {
	tx, err := decodeTx(rawTx)
	if err != nil {
		return err
	}
	_, err = r.client.SendRawTransaction(tx, false)
	return err
}

// GetNewAddress implements Backend.
func (r *RPCBackend) GetNewAddress(_ context.Context) (string, error) {
	addr, err := r.client.GetNewAddress("")
	if err != nil {
		return "", err
	}
	return addr.EncodeAddress(), nil
}
