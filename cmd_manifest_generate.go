package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"sigs.k8s.io/yaml"

	"github.com/fbtools/wheelhouse/pkg/cliutil"
	"github.com/fbtools/wheelhouse/pkg/manifest"
	"github.com/fbtools/wheelhouse/pkg/python/wheel"
)

// sourceReposFlag accumulates repeated "--source-repo PACKAGE=URL" flags,
// keyed by normalized package name.
type sourceReposFlag map[string]string

var _ pflag.Value = sourceReposFlag(nil)

func (f sourceReposFlag) String() string {
	pairs := make([]string, 0, len(f))
	for name, url := range f {
		pairs = append(pairs, name+"="+url)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ",")
}

func (f sourceReposFlag) Set(val string) error {
	parts := strings.SplitN(val, "=", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return fmt.Errorf("expected PACKAGE=URL, got %q", val)
	}
	f[wheel.NormalizeDistribution(parts[0])] = parts[1]
	return nil
}

func (f sourceReposFlag) Type() string {
	return "PACKAGE=URL"
}

func init() {
	var flags struct {
		Owner  string
		Repo   string
		Branch string
	}
	flagSourceRepos := make(sourceReposFlag)
	cmd := &cobra.Command{
		Use:   "generate [flags] IN_WHEEL_DIR >OUT_MANIFEST.yml",
		Short: "Build a manifest from a tree of wheel files",

		Long: "Walk a directory tree of wheel files and build a release manifest from " +
			"the wheel filenames, one record per distribution (the highest version " +
			"wins).  Download URLs are constructed in the branch-relative raw form " +
			"from the --owner/--repo/--branch settings.",

		Args: cliutil.WrapPositionalArgs(cobra.ExactArgs(1)),

		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manifest.Generate(os.DirFS(args[0]), manifest.RepoSettings{
				Owner:       flags.Owner,
				Repo:        flags.Repo,
				Branch:      flags.Branch,
				SourceRepos: flagSourceRepos,
			})
			if err != nil {
				return err
			}

			bs, err := yaml.Marshal(m)
			if err != nil {
				return err
			}
			if _, err := os.Stdout.Write(bs); err != nil {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&flags.Owner, "owner", "", "GitHub owner of the hosting repository")
	cmd.Flags().StringVar(&flags.Repo, "repo", "", "GitHub name of the hosting repository")
	cmd.Flags().StringVar(&flags.Branch, "branch", "main", "Branch the artifacts live on")
	cmd.Flags().Var(flagSourceRepos, "source-repo",
		"Upstream source repository for a package (repeatable); unlisted packages "+
			"are marked \""+manifest.SourceUnavailable+"\"")
	_ = cmd.MarkFlagRequired("owner")
	_ = cmd.MarkFlagRequired("repo")
	argparserManifest.AddCommand(cmd)
}
