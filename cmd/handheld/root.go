package main

import (
	"github.com/spf13/cobra"
)

// version is stamped at build time via -ldflags; "dev" otherwise.
var version = "dev"

// RootOptions holds flags shared across subcommands.
type RootOptions struct {
	ConfigPath string
}

// NewRootCommand builds the handheld command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "handheld",
		Short: "OpenEyes handheld perception-decision-guidance core",
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to YAML config file")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewVersionCommand())
	return cmd
}
