package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/fbtools/wheelhouse/pkg/cliutil"
	"github.com/fbtools/wheelhouse/pkg/manifest"
)

func init() {
	var flagFull bool
	cmd := &cobra.Command{
		Use:   "render [flags] IN_MANIFEST.yml >OUT_TABLE.md",
		Short: "Render a manifest as its markdown table",
		Args:  cliutil.WrapPositionalArgs(cobra.ExactArgs(1)),

		RunE: func(flags *cobra.Command, args []string) error {
			m, err := manifest.Load(args[0])
			if err != nil {
				return err
			}

			out := manifest.Render(m)
			if flagFull {
				out = manifest.RenderDocument(m)
			}
			if _, err := os.Stdout.WriteString(out); err != nil {
				return err
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&flagFull, "full", false,
		"Render a full README-style document instead of just the table")
	argparserManifest.AddCommand(cmd)
}
