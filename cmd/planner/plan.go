package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/warp/paycheck-planner/cli"
	"github.com/warp/paycheck-planner/factory"
	"github.com/warp/paycheck-planner/generic"
	"github.com/warp/paycheck-planner/logger"
	"github.com/warp/paycheck-planner/planner"
	"github.com/warp/paycheck-planner/store/memory"
	"github.com/warp/paycheck-planner/store/sqlite"
)

var (
	flagHousehold string
	flagNow       string
	flagApply     bool
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show which paycheck covers each bill this month",
	Long: `Runs one planning pass and prints paychecks, bills and proposed changes.

With --household the pass runs against a YAML or JSON seed file in memory
and the database is not opened.`,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVar(&flagHousehold, "household", "", "Seed file to plan offline")
	planCmd.Flags().StringVar(&flagNow, "now", "", "Plan as of this day (YYYY-MM-DD)")
	planCmd.Flags().BoolVar(&flagApply, "apply", false, "Write the proposed changes")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	store, closeStore, err := openPlanStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	p := newPlanner(store, logger.Component("planner"))
	if flagNow != "" {
		now, err := generic.ParseDate(flagNow)
		if err != nil {
			return fmt.Errorf("invalid --now: %w", err)
		}
		p.Clock = generic.FixedClock{At: now.Time}
	}

	var plan *planner.Plan
	if flagApply {
		plan, err = p.Rebalance(ctx)
	} else {
		plan, err = p.Plan(ctx)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout())
	fmt.Fprint(cmd.OutOrStdout(), cli.RenderPlan(plan))
	return nil
}

// openPlanStore returns the seed file's household in memory, or the database.
func openPlanStore(ctx context.Context) (planner.Store, func(), error) {
	if flagHousehold != "" {
		h, err := factory.LoadHousehold(flagHousehold)
		if err != nil {
			return nil, nil, err
		}
		store := memory.NewMemory()
		if err := factory.Seed(ctx, store, h); err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}

	store, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, func() { store.Close() }, nil
}
