package main

import (
	"github.com/spf13/cobra"

	"github.com/fbtools/wheelhouse/pkg/cliutil"
)

var argparserWheel = &cobra.Command{
	Use:   "wheel {[flags]|SUBCOMMAND...}",
	Short: "Inspect and verify wheel artifacts",

	Args: cliutil.OnlySubcommands,
	RunE: cliutil.RunSubcommands,
}

func init() {
	argparser.AddCommand(argparserWheel)
}
