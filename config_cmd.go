package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/freekieb7/phantom/config"
)

func newConfigCmd(v *viper.Viper, configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Long: `Print the configuration serve would use: defaults, overridden by the config
file, then by PHANTOM_* environment variables.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := config.Load(v, *configFile)
			if err != nil {
				return err
			}

			out, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}

			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
