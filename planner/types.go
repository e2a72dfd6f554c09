/*
Package planner assigns household bills to projected paychecks.

PURPOSE:
  Given a snapshot of bills and income sources, the planner answers three
  questions:

    1. Which paychecks will arrive in the planning window? (paycheck.go)
    2. Is each bill due in the current pay cycle or the next? (cycle.go)
    3. Which paycheck should cover each bill?              (allocation.go)

  Everything here is a pure function of its inputs except Planner
  (service.go), which reads a Clock and talks to a Repository.

DATA FLOW:
  IncomeSource --ProjectPaychecks--> []PaycheckOccurrence
  Bill + paydays --Classify--> Cycle
  []Bill + []PaycheckOccurrence --Allocate--> Allocation (+ minimal []Change)
  []Change --Repository.ApplyAssignments--> persisted assignments

OWNERSHIP:
  Bills and income sources belong to the caller's store. The planner owns
  only the transient paycheck projection and the assignment it proposes.

SEE ALSO:
  - generic/occurrence.go: Recurrence expansion
  - store/sqlite, store/memory: Repository implementations
*/
package planner

import (
	"github.com/warp/paycheck-planner/generic"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type BillID string
type IncomeSourceID string
type PaycheckID string

// Unassigned marks a bill that no projected paycheck can cover.
const Unassigned PaycheckID = "unassigned"

// normalizeAssignment treats a never-assigned bill ("") as Unassigned.
func normalizeAssignment(id PaycheckID) PaycheckID {
	if id == "" {
		return Unassigned
	}
	return id
}

// =============================================================================
// CYCLE
// =============================================================================

// Cycle says which pay period a bill belongs to.
type Cycle string

const (
	CycleCurrent Cycle = "current"
	CycleNext    Cycle = "next"

	// CyclePrevious is set by the caller for bills already paid in an
	// earlier cycle. Classify never returns it.
	CyclePrevious Cycle = "previous"
)

// =============================================================================
// BILL
// =============================================================================

// Bill is an obligation owned by the caller's store. The planner only ever
// proposes a new AssignedPaycheckID for it.
type Bill struct {
	ID     BillID
	Name   string
	Amount generic.Money
	Due    generic.TimePoint

	// Rule is nil for a one-off bill. Anchor is the date the rule is
	// expanded from; zero means Due.
	Rule   *generic.Rule
	Anchor generic.TimePoint

	Cycle              Cycle
	AssignedPaycheckID PaycheckID
	Paid               bool
}

// IsRecurring reports whether the bill repeats.
func (b Bill) IsRecurring() bool {
	return b.Rule != nil && b.Rule.IsRecurring()
}

// RuleAnchor returns the date the bill's rule is expanded from.
func (b Bill) RuleAnchor() generic.TimePoint {
	if b.Anchor.IsZero() {
		return b.Due
	}
	return b.Anchor
}

// =============================================================================
// INCOME
// =============================================================================

// IncomeSource is a read-only input: a recurring paycheck.
type IncomeSource struct {
	ID         IncomeSourceID
	Name       string
	Amount     generic.Money
	Rule       generic.Rule
	NextPayday generic.TimePoint
}

// PaycheckOccurrence is one projected paycheck. It is derived on every pass
// and never stored by the planner.
type PaycheckOccurrence struct {
	ID       PaycheckID
	SourceID IncomeSourceID
	Index    int // position in the source's occurrence sequence
	Date     generic.TimePoint
	Amount   generic.Money
}
