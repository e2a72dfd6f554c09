package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/warp/paycheck-planner/factory"
	"github.com/warp/paycheck-planner/logger"
	"github.com/warp/paycheck-planner/store/sqlite"
)

var flagReplace bool

var importCmd = &cobra.Command{
	Use:   "import <household.yaml>",
	Short: "Load bills and income sources from a seed file into the database",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	importCmd.Flags().BoolVar(&flagReplace, "replace", false, "Delete existing records first")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	h, err := factory.LoadHousehold(args[0])
	if err != nil {
		return err
	}

	store, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	if flagReplace {
		if err := store.Reset(ctx); err != nil {
			return err
		}
	}
	if err := factory.Seed(ctx, store, h); err != nil {
		return err
	}

	logger.Component("import").WithField("db", cfg.DatabasePath).Infof(
		"Imported %d bill(s) and %d income source(s)", len(h.Bills), len(h.Income))
	return nil
}
