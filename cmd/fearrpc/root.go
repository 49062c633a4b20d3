package main

import (
	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"github.com/spf13/cobra"

	"fearrpc/config"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

var log = logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "fearrpc"))

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:          "fearrpc",
		Short:        "Rich presence for F.E.A.R. read from game memory",
		Long:         "fearrpc watches for a running F.E.A.R. game, reads level, health and deaths from its memory and publishes them as a rich presence activity.",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.DefaultFile, "configuration file")

	rootCmd.AddCommand(
		newRunCmd(opts),
		newDumpCmd(),
		newProbeCmd(opts),
		newScanCmd(),
		newVersionCmd(),
	)
	return rootCmd
}
