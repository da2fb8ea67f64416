package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/fbtools/wheelhouse/pkg/cliutil"
	"github.com/fbtools/wheelhouse/pkg/python/wheel"
)

func init() {
	cmd := &cobra.Command{
		Use:   "inspect [flags] IN_WHEELFILE >OUT_INFO.yml",
		Short: "Dump information about a wheel file",
		Args:  cliutil.WrapPositionalArgs(cobra.ExactArgs(1)),

		Long: "Inspect a wheel file, and dump what the hosting repository cares " +
			"about: the identity parsed from the filename, the archive's own WHEEL " +
			"metadata, and the dependency pins from its core metadata.",

		RunE: func(cmd *cobra.Command, args []string) error {
			wheelfilename := args[0]

			var info struct {
				Filename       string
				Distribution   string
				Version        string
				Compatibility  string
				Generator      string   `yaml:",omitempty"`
				RequiresPython string   `yaml:"requires_python,omitempty"`
				RequiresDist   []string `yaml:"requires_dist,omitempty"`
			}

			fn, err := wheel.ParseFilename(filepath.Base(wheelfilename))
			if err != nil {
				return err
			}
			info.Filename = fn.String()
			info.Distribution = fn.Distribution
			info.Version = fn.Version.String()
			info.Compatibility = fn.CompatibilityTag.String()

			wh, err := wheel.Open(wheelfilename)
			if err != nil {
				return err
			}
			defer wh.Close()

			if whInfo, err := wh.Info(); err == nil {
				info.Generator = whInfo.Get("Generator")
			}

			md, err := wh.Metadata()
			if err != nil {
				return err
			}
			info.RequiresPython = md.Fields.Get("Requires-Python")
			for _, pin := range md.RequiresDist {
				info.RequiresDist = append(info.RequiresDist, pin.String())
			}

			bs, err := yaml.Marshal(info)
			if err != nil {
				return err
			}
			if _, err := os.Stdout.Write(bs); err != nil {
				return err
			}
			return nil
		},
	}
	argparserWheel.AddCommand(cmd)
}
