package main

import (
	"fmt"
	"strconv"

	"github.com/lightninglabs/superscalar/channeldb"
	"github.com/urfave/cli"
)

var showCommand = cli.Command{
	Name:      "show",
	Usage:     "show the full record, including basepoints, for one JIT channel",
	ArgsUsage: "channel_id",
	Action: func(ctx *cli.Context) error {
		if ctx.NArg() != 1 {
			return cli.ShowCommandHelp(ctx, "show")
		}
		channelID, err := strconv.ParseUint(ctx.Args().Get(0), 0, 32)
		if err != nil {
			return fmt.Errorf("parsing channel_id: %w", err)
		}

		db, err := channeldb.Open(ctx.GlobalString("sqlitedsn"))
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()

		rows, err := db.LoadJITChannels()
		if err != nil {
			return fmt.Errorf("loading jit channels: %w", err)
		}
		var found *channeldb.JITChannelRow
		for i := range rows {
			if rows[i].JITChannelID == uint32(channelID) {
				found = &rows[i]
				break
			}
		}
		if found == nil {
			return fmt.Errorf("no jit channel with id 0x%x", channelID)
		}

		fmt.Printf("channel_id:       0x%04x\n", found.JITChannelID)
		fmt.Printf("client_idx:       %d\n", found.ClientIdx)
		fmt.Printf("state:            %s\n", found.State)
		fmt.Printf("funding_txid:     %s\n", found.FundingTxid)
		fmt.Printf("funding_vout:     %d\n", found.FundingVout)
		fmt.Printf("funding_amount:   %d\n", found.FundingAmount)
		fmt.Printf("local_amount:     %d\n", found.LocalAmount)
		fmt.Printf("remote_amount:    %d\n", found.RemoteAmount)
		fmt.Printf("commitment_num:   %d\n", found.CommitmentNum)
		fmt.Printf("created_block:    %d\n", found.CreatedBlock)
		fmt.Printf("target_factory:   %d\n", found.TargetFactoryID)

		bp, err := db.LoadBasepoints(found.JITChannelID)
		if err != nil {
			fmt.Println("basepoints:       (none persisted)")
			return nil
		}
		fmt.Printf("remote_payment:   %x\n", bp.RemotePaymentPub)
		fmt.Printf("remote_delay:     %x\n", bp.RemoteDelayPub)
		fmt.Printf("remote_revoke:    %x\n", bp.RemoteRevocationPub)
		fmt.Printf("remote_htlc:      %x\n", bp.RemoteHtlcPub)
		return nil
	},
}
