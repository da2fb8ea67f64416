package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fbtools/wheelhouse/pkg/cliutil"
	"github.com/fbtools/wheelhouse/pkg/manifest"
)

func init() {
	var flagManifest string
	cmd := &cobra.Command{
		Use:   "install-cmd [flags] PACKAGE...",
		Short: "Print the pip command that installs a manifest entry",
		Args:  cliutil.WrapPositionalArgs(cobra.MinimumNArgs(1)),

		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manifest.Load(flagManifest)
			if err != nil {
				return err
			}

			for _, name := range args {
				rel, ok := m.Lookup(name)
				if !ok {
					return fmt.Errorf("package %q is not in the manifest", name)
				}
				fmt.Fprintln(os.Stdout, manifest.InstallCommand(rel))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&flagManifest, "manifest", "wheelhouse.yaml",
		"Manifest file to look packages up in")
	argparser.AddCommand(cmd)
}
