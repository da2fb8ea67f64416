package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/fbtools/wheelhouse/pkg/cliutil"
	"github.com/fbtools/wheelhouse/pkg/index"
	"github.com/fbtools/wheelhouse/pkg/manifest"
)

func init() {
	var flags struct {
		Listen   string
		Manifest string
	}
	cmd := &cobra.Command{
		Use:   "serve [flags] IN_WHEEL_DIR",
		Short: "Serve a wheel tree as a package index",
		Args:  cliutil.WrapPositionalArgs(cobra.ExactArgs(1)),

		Long: "Serve a directory tree of wheel files over HTTP: the simple-repository " +
			"pages under /simple/ (point `pip install --extra-index-url` at it), the " +
			"artifacts themselves under /packages/, and the rendered manifest at /." +
			"\n\n" +
			"The tree is scanned once at startup; restart after adding artifacts.",

		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			root := os.DirFS(args[0])

			idx, err := index.Scan(root)
			if err != nil {
				return err
			}

			srv := &index.Server{
				Index: idx,
				Root:  root,
			}
			if flags.Manifest != "" {
				m, err := manifest.Load(flags.Manifest)
				if err != nil {
					return err
				}
				srv.Manifest = m
			}

			return srv.Serve(ctx, flags.Listen)
		},
	}
	cmd.Flags().StringVar(&flags.Listen, "listen", ":8080", "Address to listen on")
	cmd.Flags().StringVar(&flags.Manifest, "manifest", "",
		"Manifest file to render as the front page")
	argparser.AddCommand(cmd)
}
