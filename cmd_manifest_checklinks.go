package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fbtools/wheelhouse/pkg/cliutil"
	"github.com/fbtools/wheelhouse/pkg/manifest"
)

func init() {
	var flags struct {
		Workers int
		Timeout time.Duration
	}
	cmd := &cobra.Command{
		Use:   "check-links [flags] IN_FILE...",
		Short: "Probe every URL in the manifests",
		Args:  cliutil.WrapPositionalArgs(cobra.MinimumNArgs(1)),

		Long: "Probe every download URL and every claimed-public source repository " +
			"URL over HTTP, reporting the ones that don't resolve.  Source entries " +
			"marked \"" + manifest.SourceUnavailable + "\" are skipped." +
			"\n\n" +
			"Exits non-zero if any link is broken.",

		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var manifests []manifest.Manifest
			for _, filename := range args {
				ms, err := loadManifests(filename)
				if err != nil {
					return err
				}
				manifests = append(manifests, ms...)
			}

			findings, err := manifest.CheckLinks(ctx, manifests, manifest.CheckLinksOptions{
				Workers: flags.Workers,
				Timeout: flags.Timeout,
			})
			if err != nil {
				return err
			}
			for _, finding := range findings {
				fmt.Fprintln(os.Stdout, finding)
			}
			if len(findings) > 0 {
				return fmt.Errorf("%d broken link(s)", len(findings))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&flags.Workers, "workers", 4,
		"Number of concurrent probes")
	cmd.Flags().DurationVar(&flags.Timeout, "timeout", 10*time.Second,
		"Per-request timeout")
	argparserManifest.AddCommand(cmd)
}
