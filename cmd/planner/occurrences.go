package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/warp/paycheck-planner/cli"
	"github.com/warp/paycheck-planner/factory"
	"github.com/warp/paycheck-planner/generic"
)

var (
	flagRule  string
	flagStart string
	flagCount int
	flagUntil string
)

var occurrencesCmd = &cobra.Command{
	Use:   "occurrences",
	Short: "Preview the dates a recurrence rule produces",
	Example: `  planner occurrences --rule '{"kind":"monthly","by_set_pos":-1,"by_week_day":"FR"}' --start 2024-01-26
  planner occurrences --rule '{"kind":"weekly","interval":2}' --start 2024-01-05 --until 2024-03-31`,
	RunE: runOccurrences,
}

func init() {
	occurrencesCmd.Flags().StringVar(&flagRule, "rule", "", "Rule as JSON")
	occurrencesCmd.Flags().StringVar(&flagStart, "start", "", "First occurrence (YYYY-MM-DD)")
	occurrencesCmd.Flags().IntVarP(&flagCount, "count", "n", 12, "Maximum number of dates")
	occurrencesCmd.Flags().StringVar(&flagUntil, "until", "", "Last day that may be produced (YYYY-MM-DD)")
	_ = occurrencesCmd.MarkFlagRequired("start")
	rootCmd.AddCommand(occurrencesCmd)
}

func runOccurrences(cmd *cobra.Command, _ []string) error {
	rule, err := factory.ParseRule(flagRule)
	if err != nil {
		return err
	}
	start, err := generic.ParseDate(flagStart)
	if err != nil {
		return fmt.Errorf("invalid --start: %w", err)
	}

	limits := generic.Limits{MaxCount: min(flagCount, generic.DefaultMaxCount)}
	if flagUntil != "" {
		end, err := generic.ParseDate(flagUntil)
		if err != nil {
			return fmt.Errorf("invalid --until: %w", err)
		}
		limits.WindowEnd = &end
	}

	dates := generic.Occurrences(rule, start, limits)
	fmt.Fprint(cmd.OutOrStdout(), cli.RenderOccurrences(rule, dates))
	return nil
}
