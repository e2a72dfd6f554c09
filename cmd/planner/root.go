package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/warp/paycheck-planner/config"
	"github.com/warp/paycheck-planner/logger"
	"github.com/warp/paycheck-planner/planner"
)

var (
	flagDB       string
	flagLogLevel string

	cfg *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:           "planner",
	Short:         "Household bill planner",
	Long:          "Assigns upcoming bills to the paychecks that will cover them.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("db") {
			cfg.DatabasePath = flagDB
		}
		if flagLogLevel != "" {
			cfg.LogLevel = flagLogLevel
		}
		logger.Init(cfg)
		return nil
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "  Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (overrides DATABASE_PATH)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")
}

// newPlanner builds a planner over repo using the loaded configuration.
func newPlanner(repo planner.Repository, log *logrus.Entry) *planner.Planner {
	p := planner.NewPlanner(repo, log)
	p.MaxPerSource = cfg.MaxPaychecksPerSource
	p.FallbackDays = cfg.CycleFallbackDays
	return p
}
