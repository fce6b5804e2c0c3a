package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/armadaproject/tryselect/internal/tryselect"
)

func fuzzyCmd(v *viper.Viper, a *tryselect.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fuzzy [paths...]",
		Short: "Select tasks with fuzzy queries and generate a try task config",
		Long: `Select tasks by fuzzy matching their names, and/or by the source paths they cover.

Query syntax:
  foo        fuzzy match
  'foo       exact (substring) match
  ^foo       name starts with foo
  foo$       name ends with foo
  ^foo$      name is foo
  !foo       name doesn't contain foo
  !'foo      name doesn't fuzzy match foo
  "foo bar"  exact match of a phrase containing spaces
  foo | bar  either foo or bar

Terms of a query must all match. A task is selected if it matches any query (or every query, with --and).
Each path argument restricts every query to the tasks covering that path, and --kind restricts them to the
tasks of the given kinds.`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initParams(cmd, v, a.Params)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			fuzzyArgs := tryselect.FuzzyArgs{Paths: args}
			var err error

			if fuzzyArgs.Queries, err = cmd.Flags().GetStringArray("query"); err != nil {
				return fmt.Errorf("error reading query: %s", err)
			}
			if fuzzyArgs.Presets, err = cmd.Flags().GetStringArray("preset"); err != nil {
				return fmt.Errorf("error reading preset: %s", err)
			}
			if fuzzyArgs.NoPush, err = cmd.Flags().GetBool("no-push"); err != nil {
				return fmt.Errorf("error reading no-push: %s", err)
			}
			if fuzzyArgs.Full, err = cmd.Flags().GetBool("full"); err != nil {
				return fmt.Errorf("error reading full: %s", err)
			}
			if fuzzyArgs.ShowChunkNumbers, err = cmd.Flags().GetBool("show-chunk-numbers"); err != nil {
				return fmt.Errorf("error reading show-chunk-numbers: %s", err)
			}
			if fuzzyArgs.Intersect, err = cmd.Flags().GetBool("and"); err != nil {
				return fmt.Errorf("error reading and: %s", err)
			}
			if fuzzyArgs.Exact, err = cmd.Flags().GetBool("exact"); err != nil {
				return fmt.Errorf("error reading exact: %s", err)
			}
			if fuzzyArgs.Rebuild, err = cmd.Flags().GetInt("rebuild"); err != nil {
				return fmt.Errorf("error reading rebuild: %s", err)
			}
			if fuzzyArgs.Env, err = cmd.Flags().GetStringArray("env"); err != nil {
				return fmt.Errorf("error reading env: %s", err)
			}
			if fuzzyArgs.Kinds, err = cmd.Flags().GetStringArray("kind"); err != nil {
				return fmt.Errorf("error reading kind: %s", err)
			}

			return a.Fuzzy(cmd.Context(), fuzzyArgs)
		},
	}

	addFuzzyFlags(cmd.Flags())

	return cmd
}

func addFuzzyFlags(flags *pflag.FlagSet) {
	flags.StringArrayP("query", "q", nil, "query to select tasks with; may be repeated")
	flags.StringArray("preset", nil, "use the queries of a configured preset; may be repeated")
	flags.Bool("no-push", false, "print the try task config without submitting it")
	flags.Bool("full", false, "select from every task rather than only those passing the configured filters")
	flags.Bool("show-chunk-numbers", false, "list every chunk of a task rather than one <task>-* line")
	flags.BoolP("and", "x", false, "select the tasks matching every query instead of any query")
	flags.BoolP("exact", "e", false, "match bare terms exactly; ' makes a term fuzzy")
	flags.Int("rebuild", 0, fmt.Sprintf("run each task N times (%d-%d)", tryselect.MinRebuild, tryselect.MaxRebuild))
	flags.StringArray("env", nil, "KEY=VALUE added to the task environment; may be repeated")
	flags.StringArray("kind", nil, "only select tasks of this kind, e.g. test; may be repeated")
}
