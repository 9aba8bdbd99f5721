package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"cryptodash/cmd/snapshot"
	"cryptodash/src/server"
)

var Version string

func main() {
	app := cli.NewApp()
	app.Name = "Cryptodash CMD"
	app.Usage = "The crypto portfolio dashboard command line interface"

	app.Commands = []cli.Command{
		serveCMD,
		snapshotCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	serveCMD = cli.Command{
		Name:        "serve",
		Usage:       "run the dashboard API server",
		Action:      serveAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Serve the asset positions API`,
	}
	snapshotCMD = cli.Command{
		Name:        "snapshot",
		Usage:       "print the enriched portfolio once",
		Action:      snapshotAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Print the enriched portfolio as JSON to stdout`,
	}
)

func serveAction(_ *cli.Context) error {
	logrus.Info("Starting dashboard API server")

	server.StartServer(server.GetConfig())
	return nil
}

func snapshotAction(_ *cli.Context) error {
	snap := &snapshot.Snapshot{}
	if err := snap.Start(); err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}
	return nil
}
