package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/fbtools/wheelhouse/pkg/cliutil"
	"github.com/fbtools/wheelhouse/pkg/fetch"
	"github.com/fbtools/wheelhouse/pkg/manifest"
)

func init() {
	var flagOutput string
	cmd := &cobra.Command{
		Use:   "fetch [flags] ARTIFACT_URL",
		Short: "Download a wheel artifact",
		Args:  cliutil.WrapPositionalArgs(cobra.ExactArgs(1)),

		Long: "Download a wheel artifact from its manifest URL.  GitHub blob-page " +
			"URLs are rewritten to their raw form, and any checksum carried in the " +
			"URL fragment (\"#sha256=...\") is verified after the download." +
			"\n\n" +
			"With no -o flag the output filename is taken from the URL.",

		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			requestURL := args[0]

			dest := flagOutput
			if dest == "" {
				artifact, err := manifest.ParseArtifactURL(requestURL)
				if err != nil {
					return err
				}
				dest = artifact.Filename()
			}

			client := fetch.Client{
				Progress: term.IsTerminal(int(os.Stderr.Fd())),
			}
			return client.FetchFile(ctx, requestURL, dest)
		},
	}
	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Write to `FILE` instead of the URL's basename")
	argparser.AddCommand(cmd)
}
