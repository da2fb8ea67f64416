package main

import (
	"github.com/spf13/cobra"

	"github.com/fbtools/wheelhouse/pkg/cliutil"
)

var argparserManifest = &cobra.Command{
	Use:   "manifest {[flags]|SUBCOMMAND...}",
	Short: "Work with the release manifest",

	Args: cliutil.OnlySubcommands,
	RunE: cliutil.RunSubcommands,
}

func init() {
	argparser.AddCommand(argparserManifest)
}
