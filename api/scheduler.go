/*
scheduler.go - Automated rebalancing

PURPOSE:
  Re-runs the planner on a cron schedule so assignments follow the calendar
  (a new month brings new paychecks; bills paid or added since the last
  pass get placed) without a client having to call /api/plan/rebalance.

DESIGN:
  - One robfig/cron job running Planner.Rebalance
  - A run that is still going when the next tick fires is skipped
  - Each pass gets its own timeout

CONFIGURATION:
  - Spec: standard five-field cron or a descriptor such as "@hourly"
  - Empty spec: scheduler disabled

USAGE:
  scheduler := NewRebalanceScheduler(p, "@hourly", log)
  if err := scheduler.Start(); err != nil { ... }
  defer scheduler.Stop()

SEE ALSO:
  - handlers.go: Rebalance endpoint (manual trigger)
  - planner/service.go: Planner.Rebalance
*/
package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/warp/paycheck-planner/planner"
)

// RebalanceScheduler runs Planner.Rebalance periodically.
type RebalanceScheduler struct {
	Planner *planner.Planner
	Spec    string
	Timeout time.Duration

	log     *logrus.Entry
	cron    *cron.Cron
	mu      sync.Mutex
	running bool
}

// NewRebalanceScheduler creates a scheduler; an empty spec disables it.
func NewRebalanceScheduler(p *planner.Planner, spec string, log *logrus.Entry) *RebalanceScheduler {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &RebalanceScheduler{
		Planner: p,
		Spec:    spec,
		Timeout: time.Minute,
		log:     log.WithField("component", "scheduler"),
	}
}

// Start registers the job and starts the cron engine.
func (s *RebalanceScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Spec == "" {
		s.log.Info("Scheduler disabled, not starting")
		return nil
	}
	if s.running {
		return nil
	}

	s.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := s.cron.AddFunc(s.Spec, func() { s.RunOnce(context.Background()) }); err != nil {
		return fmt.Errorf("invalid rebalance schedule %q: %w", s.Spec, err)
	}
	s.cron.Start()
	s.running = true

	s.log.WithField("spec", s.Spec).Info("Scheduler started")
	return nil
}

// Stop halts the engine and waits for a running pass to finish.
func (s *RebalanceScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	s.log.Info("Scheduler stopped")
}

// RunOnce performs a single rebalance pass and logs its outcome.
func (s *RebalanceScheduler) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	started := time.Now()
	plan, err := s.Planner.Rebalance(ctx)
	if err != nil {
		s.log.WithError(err).Error("Scheduled rebalance failed")
		return
	}

	s.log.WithFields(logrus.Fields{
		"changes":    len(plan.Allocation.Changes),
		"applied":    plan.Applied,
		"overloaded": len(plan.Allocation.Overloaded()),
		"took":       time.Since(started).String(),
	}).Info("Scheduled rebalance complete")
}
