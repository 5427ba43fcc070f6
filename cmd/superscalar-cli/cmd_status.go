package main

import (
	"fmt"
	"text/tabwriter"

	"os"

	"github.com/lightninglabs/superscalar/channeldb"
	"github.com/urfave/cli"
)

var statusCommand = cli.Command{
	Name:  "status",
	Usage: "list every JIT channel record known to the daemon's database",
	Action: func(ctx *cli.Context) error {
		db, err := channeldb.Open(ctx.GlobalString("sqlitedsn"))
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()

		rows, err := db.LoadJITChannels()
		if err != nil {
			return fmt.Errorf("loading jit channels: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CHANNEL_ID\tCLIENT\tSTATE\tLOCAL\tREMOTE\tFUNDING_TXID")
		for _, row := range rows {
			fmt.Fprintf(w, "0x%04x\t%d\t%s\t%d\t%d\t%s\n",
				row.JITChannelID, row.ClientIdx, row.State,
				row.LocalAmount, row.RemoteAmount, row.FundingTxid)
		}
		return w.Flush()
	},
}
