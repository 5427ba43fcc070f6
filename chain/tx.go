package chain

import (
	"bytes"

	"github.com/btcsuite/btcd/wire"
	"github.com/go-errors/errors"
)

// decodeTx deserializes a raw transaction, shared by the RPC and neutrino
// backends' Broadcast implementations.
func decodeTx(rawTx []byte) (*wire.MsgTx, error) {
	tx := wire.NewMsgTx(wire.TxVersion)
	if err := tx.Deserialize(bytes.NewReader(rawTx)); err != nil {
		return nil, errors.Errorf("decoding raw tx: %w", err)
	}
	return tx, nil
}
