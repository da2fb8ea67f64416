package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fbtools/wheelhouse/pkg/cliutil"
	"github.com/fbtools/wheelhouse/pkg/python/wheel"
)

func init() {
	cmd := &cobra.Command{
		Use:   "verify [flags] IN_WHEELFILE...",
		Short: "Verify wheel files against their RECORD hashes",
		Args:  cliutil.WrapPositionalArgs(cobra.MinimumNArgs(1)),

		Long: "Re-hash every file inside each wheel archive and compare against the " +
			".dist-info/RECORD entries, the same check an installer performs before " +
			"unpacking.  All findings for an archive are reported, not just the " +
			"first.",

		RunE: func(cmd *cobra.Command, args []string) error {
			bad := 0
			for _, wheelfilename := range args {
				err := func() error {
					wh, err := wheel.Open(wheelfilename)
					if err != nil {
						return err
					}
					defer wh.Close()
					return wh.Verify()
				}()
				if err != nil {
					bad++
					fmt.Fprintf(os.Stderr, "%s: %v\n", wheelfilename, err)
					continue
				}
				fmt.Fprintf(os.Stdout, "%s: OK\n", wheelfilename)
			}
			if bad > 0 {
				return fmt.Errorf("%d of %d wheel(s) failed verification", bad, len(args))
			}
			return nil
		},
	}
	argparserWheel.AddCommand(cmd)
}
