package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/armadaproject/tryselect/internal/tryselect"
)

func presetsCmd(v *viper.Viper, a *tryselect.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List the presets defined in the config file",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initParams(cmd, v, a.Params)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Presets()
		},
	}
	return cmd
}
