package planner

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/warp/paycheck-planner/generic"
)

// =============================================================================
// PLANNER - Loads a snapshot, projects, classifies and allocates
// =============================================================================

// Planner ties the pure planning functions to a Repository and a Clock.
// It keeps no state between calls: every pass starts from a fresh snapshot,
// so it is safe to re-run whenever the store reports a change.
type Planner struct {
	Repo      Repository
	Allocator Allocator
	Clock     generic.Clock

	// MaxPerSource caps paychecks per income source (DefaultMaxPerSource if 0).
	MaxPerSource int

	// FallbackDays is the cycle length used when no payday is upcoming.
	FallbackDays int

	Log *logrus.Entry
}

// NewPlanner returns a Planner with the greedy allocator, the system clock
// and default limits.
func NewPlanner(repo Repository, log *logrus.Entry) *Planner {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Planner{
		Repo:         repo,
		Allocator:    GreedyAllocator{},
		Clock:        generic.SystemClock{},
		MaxPerSource: DefaultMaxPerSource,
		FallbackDays: DefaultFallbackDays,
		Log:          log,
	}
}

// Plan is the result of one planning pass.
type Plan struct {
	AsOf       generic.TimePoint
	Window     generic.Period
	Bills      []Bill
	Paychecks  []PaycheckOccurrence
	Cycles     map[BillID]Cycle
	Allocation *Allocation

	// Applied is true when the changes were written to the repository.
	Applied bool
}

// Plan computes a plan for the current month without writing anything.
func (p *Planner) Plan(ctx context.Context) (*Plan, error) {
	bills, err := p.Repo.LoadBills(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading bills: %w", err)
	}
	sources, err := p.Repo.LoadIncomeSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading income sources: %w", err)
	}

	now := generic.Today(p.clock())
	return p.PlanSnapshot(bills, sources, now)
}

// PlanSnapshot is Plan over an explicit snapshot and day.
func (p *Planner) PlanSnapshot(bills []Bill, sources []IncomeSource, now generic.TimePoint) (*Plan, error) {
	window := CurrentMonth(now)
	paychecks := ProjectPaychecks(sources, window, p.MaxPerSource)
	paydays := Paydays(paychecks)

	cycles := make(map[BillID]Cycle, len(bills))
	for _, b := range bills {
		if b.Cycle == CyclePrevious {
			cycles[b.ID] = CyclePrevious
			continue
		}
		cycles[b.ID] = ClassifyWithFallback(b.Due, now, paydays, p.FallbackDays)
	}

	allocator := p.Allocator
	if allocator == nil {
		allocator = GreedyAllocator{}
	}
	alloc, err := allocator.Allocate(Unpaid(bills), paychecks)
	if err != nil {
		return nil, fmt.Errorf("allocating bills: %w", err)
	}

	p.logger().WithFields(logrus.Fields{
		"as_of":      now.String(),
		"window":     window.String(),
		"bills":      len(bills),
		"paychecks":  len(paychecks),
		"changes":    len(alloc.Changes),
		"unassigned": len(alloc.Unassigned),
		"overloaded": len(alloc.Overloaded()),
	}).Debug("planning pass complete")

	return &Plan{
		AsOf:       now,
		Window:     window,
		Bills:      bills,
		Paychecks:  paychecks,
		Cycles:     cycles,
		Allocation: alloc,
	}, nil
}

// Rebalance plans and writes the resulting changes. Running it twice in a
// row writes nothing the second time.
func (p *Planner) Rebalance(ctx context.Context) (*Plan, error) {
	plan, err := p.Plan(ctx)
	if err != nil {
		return nil, err
	}

	changes := plan.Allocation.Changes
	if len(changes) == 0 {
		p.logger().Debug("allocation unchanged, nothing to write")
		return plan, nil
	}

	if err := p.Repo.ApplyAssignments(ctx, changes); err != nil {
		return nil, fmt.Errorf("applying %d assignment changes: %w", len(changes), err)
	}
	plan.Applied = true

	p.logger().WithField("changes", len(changes)).Info("bill assignments rebalanced")
	return plan, nil
}

// Unpaid drops bills already settled; they no longer draw on a paycheck.
func Unpaid(bills []Bill) []Bill {
	out := make([]Bill, 0, len(bills))
	for _, b := range bills {
		if !b.Paid {
			out = append(out, b)
		}
	}
	return out
}

func (p *Planner) clock() generic.Clock {
	if p.Clock == nil {
		return generic.SystemClock{}
	}
	return p.Clock
}

func (p *Planner) logger() *logrus.Entry {
	if p.Log == nil {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return p.Log
}
