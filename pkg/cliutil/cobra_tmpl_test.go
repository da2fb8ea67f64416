package cliutil_test

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fbtools/wheelhouse/pkg/cliutil"
)

func TestHelpTemplate(t *testing.T) {
	t.Setenv("COLUMNS", "200") // wide enough that nothing wraps

	rootCmd := &cobra.Command{
		Use:   "frobnicate {[flags]|SUBCOMMAND...}",
		Short: "Frobnicate the widgets",
		Long:  "Frobnicate the widgets, at length.",

		Args: cliutil.OnlySubcommands,
		RunE: cliutil.RunSubcommands,

		SilenceErrors: true,
		SilenceUsage:  true,
	}
	rootCmd.SetHelpTemplate(cliutil.HelpTemplate)
	rootCmd.AddCommand(&cobra.Command{
		Use:   "twiddle",
		Short: "Twiddle one widget",
		RunE:  func(_ *cobra.Command, _ []string) error { return nil },
	})

	var out strings.Builder
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"--help"})
	require.NoError(t, rootCmd.Execute())

	help := out.String()
	assert.Contains(t, help, "Usage: frobnicate {[flags]|SUBCOMMAND...}")
	assert.Contains(t, help, "Frobnicate the widgets, at length.")
	assert.Contains(t, help, "Available Commands:")
	assert.Contains(t, help, "twiddle")
	assert.Contains(t, help, "Twiddle one widget")
	assert.Contains(t, help, `Use "frobnicate [command] --help"`)
}
