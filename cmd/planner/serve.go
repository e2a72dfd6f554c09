/*
serve.go - HTTP server entry point

PURPOSE:
  Starts the planner API over the SQLite store, with the rebalance
  scheduler running alongside it.

STARTUP SEQUENCE:
  1. Load configuration (environment, .env, flags)
  2. Open the SQLite store
  3. Build planner, handler and router
  4. Start the scheduler
  5. Serve until SIGINT/SIGTERM

GRACEFUL SHUTDOWN:
  1. Stop the scheduler (waits for a running pass)
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close the database

EXAMPLES:
  planner serve
  planner serve --db=":memory:" --port=3000
  REBALANCE_CRON=off planner serve

SEE ALSO:
  - api/server.go: Router configuration
  - api/scheduler.go: Rebalance scheduler
  - config/config.go: Environment variables
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/warp/paycheck-planner/api"
	"github.com/warp/paycheck-planner/logger"
	"github.com/warp/paycheck-planner/store/sqlite"
)

var flagPort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&flagPort, "port", 0, "HTTP server port (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if cmd.Flags().Changed("port") {
		cfg.Port = flagPort
	}
	log := logger.Component("server")

	store, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	p := newPlanner(store, logger.Component("planner"))
	handler := api.NewHandler(store, p, logger.Component("api"))
	router := api.NewRouter(handler, cfg.CORSOrigins)

	scheduler := api.NewRebalanceScheduler(p, cfg.RebalanceCron, logger.Log.WithField("db", cfg.DatabasePath))
	if err := scheduler.Start(); err != nil {
		return err
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Port).Infof("Server starting on http://localhost:%d/api", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		scheduler.Stop()
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	log.Info("Shutting down server...")
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
