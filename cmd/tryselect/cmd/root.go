package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/armadaproject/tryselect/internal/common/logging"
	"github.com/armadaproject/tryselect/internal/common/tryerrors"
	"github.com/armadaproject/tryselect/internal/tryselect"
	"github.com/armadaproject/tryselect/internal/tryselect/configuration"
)

// RootCmd is the root Cobra command that gets called from the main func.
// All other sub-commands should be registered here.
func RootCmd() *cobra.Command {
	return rootCmdWithApp(tryselect.New())
}

// Takes a caller-supplied app struct, shared by every sub-command; useful for testing.
func rootCmdWithApp(a *tryselect.App) *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "tryselect",
		Short: "tryselect selects CI tasks to run on try.",
		Long: `tryselect selects CI tasks to run on try.

Persistent config can be saved in a config file so it doesn't have to be specified every command.

Example structure:
taskGraph: target-tasks.json
coverageManifests:
  - coverage/**/*.yaml
filters:
  - "!ccov"

The location of this file can be passed in using the --config argument.
If not provided, $HOME/.tryselect.yaml is used.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("config", "", "config file (default is $HOME/.tryselect.yaml)")
	cmd.PersistentFlags().String("task-graph", "", "task graph file, YAML or JSON")
	cmd.PersistentFlags().StringSlice("coverage-manifest", nil, "coverage manifest file or glob; may be repeated")
	cmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
	v.BindPFlag("taskGraph", cmd.PersistentFlags().Lookup("task-graph"))
	v.BindPFlag("coverageManifests", cmd.PersistentFlags().Lookup("coverage-manifest"))

	cmd.AddCommand(
		fuzzyCmd(v, a),
		presetsCmd(v, a),
		versionCmd(a),
	)

	return cmd
}

// Execute runs the root command and exits with a status reflecting the kind of error, if any.
func Execute() {
	if err := RootCmd().Execute(); err != nil {
		logging.WithStacktrace(log.NewEntry(log.StandardLogger()), err).Debug("command failed")
		log.Error(err)
		os.Exit(tryerrors.ExitCodeFromError(err))
	}
}

func initParams(cmd *cobra.Command, v *viper.Viper, params *tryselect.Params) error {
	cfgFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return err
	}

	config, err := configuration.Load(v, cfgFile)
	if err != nil {
		return err
	}
	if verbose {
		config.Logging.Level = "debug"
	}
	if err := logging.Apply(config.Logging); err != nil {
		return &tryerrors.ErrInvalidArgument{Name: "logging", Value: config.Logging, Message: err.Error()}
	}

	params.Config = *config
	return nil
}
