package channeldb

import (
	"database/sql"
	"fmt"
)

// SaveJITChannel inserts or replaces a jit_channels row, used both for the
// initial create-on-FUNDING write and for a full-row overwrite during
// reconciliation.
func (d *DB) SaveJITChannel(row JITChannelRow) error {
	return d.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO jit_channels (
				jit_channel_id, client_idx, state, funding_txid,
				funding_vout, funding_amount, local_amount,
				remote_amount, commitment_number, created_at,
				created_block, target_factory_id
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(jit_channel_id) DO UPDATE SET
				client_idx = excluded.client_idx,
				state = excluded.state,
				funding_txid = excluded.funding_txid,
				funding_vout = excluded.funding_vout,
				funding_amount = excluded.funding_amount,
				local_amount = excluded.local_amount,
				remote_amount = excluded.remote_amount,
				commitment_number = excluded.commitment_number,
				created_at = excluded.created_at,
				created_block = excluded.created_block,
				target_factory_id = excluded.target_factory_id
		`,
			row.JITChannelID, row.ClientIdx, row.State, row.FundingTxid,
			row.FundingVout, row.FundingAmount, row.LocalAmount,
			row.RemoteAmount, row.CommitmentNum, row.CreatedAt,
			row.CreatedBlock, row.TargetFactoryID,
		)
		if err != nil {
			return fmt.Errorf("saving jit channel %d: %w", row.JITChannelID, err)
		}
		return nil
	})
}

// UpdateJITState moves a jit_channels row to a new state, the column-level
// counterpart of a jitchannel state machine transition.
func (d *DB) UpdateJITState(jitChannelID uint32, state string) error {
	return d.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(
			`UPDATE jit_channels SET state = ? WHERE jit_channel_id = ?`,
			state, jitChannelID,
		)
		if err != nil {
			return fmt.Errorf("updating jit channel %d state: %w", jitChannelID, err)
		}
		return checkRowsAffected(res, jitChannelID)
	})
}

// UpdateJITBalance persists a new local/remote balance split and
// commitment number, called after every state-advancing commitment the
// channel produces.
func (d *DB) UpdateJITBalance(jitChannelID uint32, local, remote, commitmentNumber uint64) error {
	return d.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			UPDATE jit_channels
			SET local_amount = ?, remote_amount = ?, commitment_number = ?
			WHERE jit_channel_id = ?`,
			local, remote, commitmentNumber, jitChannelID,
		)
		if err != nil {
			return fmt.Errorf("updating jit channel %d balance: %w", jitChannelID, err)
		}
		return checkRowsAffected(res, jitChannelID)
	})
}

// DeleteJITChannel removes a jit_channels row and any basepoints saved
// for it. Callers implementing the CLOSED row retention policy (DESIGN.md
// open question) may choose to call this immediately on reaching CLOSED,
// or to retain closed rows and never call it at all.
func (d *DB) DeleteJITChannel(jitChannelID uint32) error {
	return d.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM basepoints WHERE jit_channel_id = ?`, jitChannelID); err != nil {
			return fmt.Errorf("deleting basepoints for jit channel %d: %w", jitChannelID, err)
		}
		res, err := tx.Exec(`DELETE FROM jit_channels WHERE jit_channel_id = ?`, jitChannelID)
		if err != nil {
			return fmt.Errorf("deleting jit channel %d: %w", jitChannelID, err)
		}
		return checkRowsAffected(res, jitChannelID)
	})
}

// LoadJITChannels returns every persisted jit_channels row, ordered by
// jit_channel_id, for use in daemon-startup reload.
func (d *DB) LoadJITChannels() ([]JITChannelRow, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	rows, err := d.sqlDB.Query(`
		SELECT jit_channel_id, client_idx, state, funding_txid,
			funding_vout, funding_amount, local_amount,
			remote_amount, commitment_number, created_at,
			created_block, target_factory_id
		FROM jit_channels
		ORDER BY jit_channel_id
	`)
	if err != nil {
		return nil, fmt.Errorf("loading jit channels: %w", err)
	}
	defer rows.Close()

	var out []JITChannelRow
	for rows.Next() {
		var r JITChannelRow
		err := rows.Scan(
			&r.JITChannelID, &r.ClientIdx, &r.State, &r.FundingTxid,
			&r.FundingVout, &r.FundingAmount, &r.LocalAmount,
			&r.RemoteAmount, &r.CommitmentNum, &r.CreatedAt,
			&r.CreatedBlock, &r.TargetFactoryID,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning jit channel row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveBasepoints inserts or replaces the basepoints row for a jit channel.
func (d *DB) SaveBasepoints(row BasepointRow) error {
	return d.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO basepoints (
				jit_channel_id,
				local_payment_secret, local_delay_secret,
				local_revocation_secret, local_htlc_secret,
				remote_payment_pub, remote_delay_pub,
				remote_revocation_pub, remote_htlc_pub
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(jit_channel_id) DO UPDATE SET
				local_payment_secret = excluded.local_payment_secret,
				local_delay_secret = excluded.local_delay_secret,
				local_revocation_secret = excluded.local_revocation_secret,
				local_htlc_secret = excluded.local_htlc_secret,
				remote_payment_pub = excluded.remote_payment_pub,
				remote_delay_pub = excluded.remote_delay_pub,
				remote_revocation_pub = excluded.remote_revocation_pub,
				remote_htlc_pub = excluded.remote_htlc_pub
		`,
			row.JITChannelID,
			row.LocalPaymentSecret[:], row.LocalDelaySecret[:],
			row.LocalRevocationSecret[:], row.LocalHtlcSecret[:],
			row.RemotePaymentPub[:], row.RemoteDelayPub[:],
			row.RemoteRevocationPub[:], row.RemoteHtlcPub[:],
		)
		if err != nil {
			return fmt.Errorf("saving basepoints for jit channel %d: %w", row.JITChannelID, err)
		}
		return nil
	})
}

// LoadBasepoints returns the basepoints row for a jit channel, or
// ErrBasepointsNotFound if none has been saved.
func (d *DB) LoadBasepoints(jitChannelID uint32) (BasepointRow, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var (
		row                                                   BasepointRow
		localPayment, localDelay, localRevocation, localHtlc  []byte
		remotePayment, remoteDelay, remoteRevocation, remoteHtlc []byte
	)
	row.JITChannelID = jitChannelID

	err := d.sqlDB.QueryRow(`
		SELECT local_payment_secret, local_delay_secret,
			local_revocation_secret, local_htlc_secret,
			remote_payment_pub, remote_delay_pub,
			remote_revocation_pub, remote_htlc_pub
		FROM basepoints
		WHERE jit_channel_id = ?
	`, jitChannelID).Scan(
		&localPayment, &localDelay, &localRevocation, &localHtlc,
		&remotePayment, &remoteDelay, &remoteRevocation, &remoteHtlc,
	)
	if err == sql.ErrNoRows {
		return BasepointRow{}, ErrBasepointsNotFound
	}
	if err != nil {
		return BasepointRow{}, fmt.Errorf("loading basepoints for jit channel %d: %w", jitChannelID, err)
	}

	copy(row.LocalPaymentSecret[:], localPayment)
	copy(row.LocalDelaySecret[:], localDelay)
	copy(row.LocalRevocationSecret[:], localRevocation)
	copy(row.LocalHtlcSecret[:], localHtlc)
	copy(row.RemotePaymentPub[:], remotePayment)
	copy(row.RemoteDelayPub[:], remoteDelay)
	copy(row.RemoteRevocationPub[:], remoteRevocation)
	copy(row.RemoteHtlcPub[:], remoteHtlc)

	return row, nil
}

func checkRowsAffected(res sql.Result, jitChannelID uint32) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Returned unwrapped by go-errors: a *go_errors.Error does not
		// implement Unwrap in the pinned v1.0.1, so errors.Is would
		// never reach ErrJITChannelNotFound through it.
		return fmt.Errorf("%w: %d", ErrJITChannelNotFound, jitChannelID)
	}
	return nil
}
