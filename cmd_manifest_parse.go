package main

import (
	"os"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/fbtools/wheelhouse/pkg/cliutil"
	"github.com/fbtools/wheelhouse/pkg/manifest"
)

func init() {
	cmd := &cobra.Command{
		Use:   "parse [flags] IN_README.md >OUT_MANIFESTS.yml",
		Short: "Extract the release tables from a markdown document",
		Args:  cliutil.WrapPositionalArgs(cobra.ExactArgs(1)),

		Long: "Parse every release table out of a README-style markdown document, " +
			"writing them to stdout as YAML.  A document that duplicates its table " +
			"yields one manifest per copy; use `wheelhouse manifest lint` to find " +
			"out whether the copies agree.",

		RunE: func(flags *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			manifests, err := manifest.ParseDocument(file)
			if err != nil {
				return err
			}

			bs, err := yaml.Marshal(manifests)
			if err != nil {
				return err
			}
			if _, err := os.Stdout.Write(bs); err != nil {
				return err
			}
			return nil
		},
	}
	argparserManifest.AddCommand(cmd)
}
