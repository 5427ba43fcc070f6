package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
)

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[superscalar-cli] %v\n", err)
	os.Exit(1)
}

func main() {
	app := cli.NewApp()
	app.Name = "superscalar-cli"
	app.Usage = "control plane for the superscalard JIT channel daemon"
	app.Version = "0.1.0"

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "sqlitedsn",
			Value: "data/superscalar.db",
			Usage: "path to the daemon's sqlite database",
		},
	}

	app.Commands = []cli.Command{
		statusCommand,
		showCommand,
	}

	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}
