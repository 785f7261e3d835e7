package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the top-level command with its subcommands. Each call
// builds an independent configuration so commands can run side by side in
// tests.
func NewRootCmd() *cobra.Command {
	v := newConfig()
	root := &cobra.Command{
		Use:          "wrapctl",
		Short:        "Stack property layers on a record and exercise them",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringP("file", "f", "", "layer document (yaml, json or toml)")
	root.PersistentFlags().String("engine", defaultEngine, "engine for hooks that name none (expr, cel, lua, js)")
	root.PersistentFlags().String("log-level", defaultLogLevel, "log level for access and evaluation logs")
	_ = v.BindPFlag(cfgKeyFile, root.PersistentFlags().Lookup("file"))
	_ = v.BindPFlag(cfgKeyEngine, root.PersistentFlags().Lookup("engine"))
	_ = v.BindPFlag(cfgKeyLogLevel, root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(newRunCmd(v))
	root.AddCommand(newInspectCmd(v))
	return root
}
