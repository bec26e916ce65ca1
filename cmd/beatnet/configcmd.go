package main

import (
	"github.com/spf13/cobra"
)

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Long: `config prints the configuration after file, environment and flag overrides,
with every pipeline parameter spelled out. The output is a valid --config
file.`,
		Args: cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			eff, err := a.cfg.Effective()
			if err != nil {
				return err
			}

			return eff.Marshal(a.out)
		},
	}
}
