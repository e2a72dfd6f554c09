/*
allocation.go - Bill-to-paycheck assignment

PURPOSE:
  Decides which projected paycheck pays each bill so that, as far as a
  greedy pass can manage, no paycheck is committed beyond its amount.

KEY CONCEPTS:
  Valid paycheck:
    A paycheck dated on or before the bill's due date. Money that arrives
    after the due date cannot pay the bill.

  Bucket:
    One paycheck plus the bills assigned to it and their running total.
    SafeToSpend = paycheck amount - bills total; negative = overloaded.

  Change:
    A bill whose final assignment differs from the one it was loaded with.
    Only changes are handed back, to keep writes to the store minimal.

ALGORITHM (GreedyAllocator):
  Phase 1 - Just-in-time:
    Every bill goes to the LATEST valid paycheck, keeping money in the
    account as long as possible. No valid paycheck -> Unassigned.

  Phase 2 - Backward smoothing:
    Walk paychecks latest first. For an overloaded paycheck, take its bills
    in assignment order and move each to the nearest earlier paycheck that
    is still valid for the bill and still fits it (first fit). Stop as soon
    as the paycheck is no longer overloaded.

  A paycheck is visited once. It is not re-opened when a later step frees
  capacity below it, so the result is not globally optimal. That keeps the
  pass at O(paychecks x bills x paychecks) for tens of bills and a handful
  of paychecks, and a solver can replace it behind the Allocator interface.

EXAMPLE:
  alloc, err := planner.GreedyAllocator{}.Allocate(bills, paychecks)
  for _, c := range alloc.Changes {
      store.Assign(c.BillID, c.PaycheckID)
  }

SEE ALSO:
  - paycheck.go: Produces the paychecks
  - service.go: Applies the changes through a Repository
*/
package planner

import (
	"slices"

	"github.com/warp/paycheck-planner/generic"
)

// =============================================================================
// ALLOCATOR
// =============================================================================

// Allocator computes a bill-to-paycheck assignment.
type Allocator interface {
	Allocate(bills []Bill, paychecks []PaycheckOccurrence) (*Allocation, error)
}

// Change is one write the store must make to realize an allocation.
type Change struct {
	BillID     BillID
	PaycheckID PaycheckID
}

// Bucket is a paycheck together with the bills it pays.
type Bucket struct {
	Paycheck   PaycheckOccurrence
	BillIDs    []BillID
	BillsTotal generic.Money
}

// SafeToSpend is what is left of the paycheck after its bills.
func (b Bucket) SafeToSpend() generic.Money {
	return b.Paycheck.Amount.Sub(b.BillsTotal)
}

// Overloaded reports a negative safe-to-spend.
func (b Bucket) Overloaded() bool {
	return b.BillsTotal.GreaterThan(b.Paycheck.Amount)
}

// Allocation is the outcome of an allocation pass.
type Allocation struct {
	// Assignments maps every input bill to a paycheck id or Unassigned.
	Assignments map[BillID]PaycheckID

	// Buckets in chronological paycheck order.
	Buckets []Bucket

	// Unassigned bills, in input order.
	Unassigned []BillID

	// Changes against the bills' stored assignments, in input order.
	Changes []Change
}

// Overloaded returns the buckets still committed beyond their paycheck.
func (a *Allocation) Overloaded() []Bucket {
	var out []Bucket
	for _, b := range a.Buckets {
		if b.Overloaded() {
			out = append(out, b)
		}
	}
	return out
}

// Bucket looks up the bucket of a paycheck.
func (a *Allocation) Bucket(id PaycheckID) (Bucket, bool) {
	for _, b := range a.Buckets {
		if b.Paycheck.ID == id {
			return b, true
		}
	}
	return Bucket{}, false
}

// =============================================================================
// GREEDY ALLOCATOR
// =============================================================================

// GreedyAllocator is the two-phase just-in-time + backward smoothing heuristic.
type GreedyAllocator struct{}

// Allocate runs both phases. It fails only on a precondition violation
// (non-positive amount, duplicate bill id). An empty paycheck list is not an
// error: every bill comes back Unassigned.
func (GreedyAllocator) Allocate(bills []Bill, paychecks []PaycheckOccurrence) (*Allocation, error) {
	byID := make(map[BillID]Bill, len(bills))
	for _, b := range bills {
		if !b.Amount.IsPositive() {
			return nil, &InvalidAmountError{BillID: b.ID, Amount: b.Amount}
		}
		if _, dup := byID[b.ID]; dup {
			return nil, ErrDuplicateBill
		}
		byID[b.ID] = b
	}

	sorted := slices.Clone(paychecks)
	slices.SortStableFunc(sorted, func(a, b PaycheckOccurrence) int {
		return a.Date.Compare(b.Date)
	})

	buckets := make([]*bucket, len(sorted))
	for i, p := range sorted {
		buckets[i] = &bucket{paycheck: p, total: generic.ZeroMoney()}
	}

	// Phase 1: just-in-time
	for _, b := range bills {
		if i := latestValid(sorted, b.Due); i >= 0 {
			buckets[i].add(b)
		}
	}

	// Phase 2: backward smoothing
	for i := len(buckets) - 1; i > 0; i-- {
		current := buckets[i]
		if !current.overloaded() {
			continue
		}
		for _, id := range slices.Clone(current.bills) {
			if !current.overloaded() {
				break
			}
			b := byID[id]
			for j := i - 1; j >= 0; j-- {
				earlier := buckets[j]
				if earlier.paycheck.Date.After(b.Due) {
					continue
				}
				if earlier.fits(b.Amount) {
					current.remove(b)
					earlier.add(b)
					break
				}
			}
		}
	}

	return buildAllocation(bills, buckets), nil
}

// Allocate runs the default GreedyAllocator.
func Allocate(bills []Bill, paychecks []PaycheckOccurrence) (*Allocation, error) {
	return GreedyAllocator{}.Allocate(bills, paychecks)
}

// latestValid returns the index of the last paycheck dated on or before
// due, or -1. paychecks must be sorted by date.
func latestValid(paychecks []PaycheckOccurrence, due generic.TimePoint) int {
	found := -1
	for i, p := range paychecks {
		if p.Date.After(due) {
			break
		}
		found = i
	}
	return found
}

func buildAllocation(bills []Bill, buckets []*bucket) *Allocation {
	alloc := &Allocation{
		Assignments: make(map[BillID]PaycheckID, len(bills)),
		Buckets:     make([]Bucket, len(buckets)),
	}
	for i, bk := range buckets {
		alloc.Buckets[i] = Bucket{
			Paycheck:   bk.paycheck,
			BillIDs:    slices.Clone(bk.bills),
			BillsTotal: bk.total,
		}
		for _, id := range bk.bills {
			alloc.Assignments[id] = bk.paycheck.ID
		}
	}

	for _, b := range bills {
		assigned, ok := alloc.Assignments[b.ID]
		if !ok {
			assigned = Unassigned
			alloc.Assignments[b.ID] = Unassigned
			alloc.Unassigned = append(alloc.Unassigned, b.ID)
		}
		if assigned != normalizeAssignment(b.AssignedPaycheckID) {
			alloc.Changes = append(alloc.Changes, Change{BillID: b.ID, PaycheckID: assigned})
		}
	}
	return alloc
}

// =============================================================================
// BUCKET (working state)
// =============================================================================

type bucket struct {
	paycheck PaycheckOccurrence
	bills    []BillID
	total    generic.Money
}

func (b *bucket) add(bill Bill) {
	b.bills = append(b.bills, bill.ID)
	b.total = b.total.Add(bill.Amount)
}

func (b *bucket) remove(bill Bill) {
	if i := slices.Index(b.bills, bill.ID); i >= 0 {
		b.bills = slices.Delete(b.bills, i, i+1)
		b.total = b.total.Sub(bill.Amount)
	}
}

func (b *bucket) overloaded() bool {
	return b.total.GreaterThan(b.paycheck.Amount)
}

func (b *bucket) fits(amount generic.Money) bool {
	return b.total.Add(amount).LessThanOrEqual(b.paycheck.Amount)
}
