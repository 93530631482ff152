package main

import (
	"github.com/spf13/cobra"

	"github.com/freekieb7/phantom/config"
)

func newRootCmd() *cobra.Command {
	var configFile string
	v := config.NewViper()

	rootCmd := &cobra.Command{
		Use:   "phantom",
		Short: "Phantom API - static files and RPC-style methods from one server",
		Long: `Phantom serves a document root and dispatches /api/<method> requests to the
methods registered by the application. Settings come from an optional config
file, PHANTOM_* environment variables and flags.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (yaml, toml or json); default ./phantom.*")

	rootCmd.AddCommand(newServeCmd(v, &configFile))
	rootCmd.AddCommand(newConfigCmd(v, &configFile))

	return rootCmd
}
