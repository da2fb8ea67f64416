package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fbtools/wheelhouse/pkg/cliutil"
	"github.com/fbtools/wheelhouse/pkg/manifest"
)

// loadManifests reads either a markdown document or a YAML manifest file,
// depending on the extension.
func loadManifests(filename string) ([]manifest.Manifest, error) {
	switch filepath.Ext(filename) {
	case ".md", ".markdown":
		file, err := os.Open(filename)
		if err != nil {
			return nil, err
		}
		defer file.Close()
		return manifest.ParseDocument(file)
	default:
		m, err := manifest.Load(filename)
		if err != nil {
			return nil, err
		}
		return []manifest.Manifest{*m}, nil
	}
}

func init() {
	cmd := &cobra.Command{
		Use:   "lint [flags] IN_FILE...",
		Short: "Check manifests for internal inconsistencies",
		Args:  cliutil.WrapPositionalArgs(cobra.MinimumNArgs(1)),

		Long: "Check release manifests for the defects that creep into hand-edited " +
			"hosting repositories: a table version that disagrees with the version " +
			"embedded in the wheel filename, download URLs that point at web pages " +
			"instead of raw artifacts, and duplicated table copies that contradict " +
			"each other.  Input files may be markdown documents or YAML manifests." +
			"\n\n" +
			"Exits non-zero if any finding is reported.",

		RunE: func(flags *cobra.Command, args []string) error {
			var manifests []manifest.Manifest
			for _, filename := range args {
				ms, err := loadManifests(filename)
				if err != nil {
					return err
				}
				manifests = append(manifests, ms...)
			}

			findings := manifest.Lint(manifests)
			for _, finding := range findings {
				fmt.Fprintln(os.Stdout, finding)
			}
			if len(findings) > 0 {
				return fmt.Errorf("%d finding(s)", len(findings))
			}
			return nil
		},
	}
	argparserManifest.AddCommand(cmd)
}
