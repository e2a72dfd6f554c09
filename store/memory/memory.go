// Package memory provides an in-memory planner.Store (for tests, the offline
// CLI and development servers).
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/warp/paycheck-planner/planner"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

// Memory keeps records in insertion order; updates keep a record's position.
type Memory struct {
	mu     sync.RWMutex
	bills  []planner.Bill
	income []planner.IncomeSource
	runs   []planner.AllocationRun
	now    func() time.Time
}

func NewMemory() *Memory {
	return &Memory{now: time.Now}
}

// NewMemoryWith seeds a store from a snapshot.
func NewMemoryWith(bills []planner.Bill, income []planner.IncomeSource) *Memory {
	m := NewMemory()
	m.bills = slices.Clone(bills)
	m.income = slices.Clone(income)
	return m
}

// -----------------------------------------------------------------------------
// planner.Repository
// -----------------------------------------------------------------------------

func (m *Memory) LoadBills(_ context.Context) ([]planner.Bill, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.bills), nil
}

func (m *Memory) LoadIncomeSources(_ context.Context) ([]planner.IncomeSource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.income), nil
}

// ApplyAssignments checks every bill id before writing anything.
func (m *Memory) ApplyAssignments(_ context.Context, changes []planner.Change) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	positions := make([]int, len(changes))
	for i, c := range changes {
		pos := m.billIndexLocked(c.BillID)
		if pos < 0 {
			return planner.ErrBillNotFound
		}
		positions[i] = pos
	}

	for i, c := range changes {
		m.bills[positions[i]].AssignedPaycheckID = c.PaycheckID
	}
	m.runs = append(m.runs, planner.AllocationRun{
		ID:        uuid.NewString(),
		AppliedAt: m.now().UTC(),
		Changes:   slices.Clone(changes),
	})
	return nil
}

// -----------------------------------------------------------------------------
// Bills
// -----------------------------------------------------------------------------

func (m *Memory) SaveBill(_ context.Context, bill planner.Bill) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if pos := m.billIndexLocked(bill.ID); pos >= 0 {
		m.bills[pos] = bill
		return nil
	}
	m.bills = append(m.bills, bill)
	return nil
}

func (m *Memory) GetBill(_ context.Context, id planner.BillID) (*planner.Bill, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pos := m.billIndexLocked(id)
	if pos < 0 {
		return nil, planner.ErrBillNotFound
	}
	b := m.bills[pos]
	return &b, nil
}

func (m *Memory) DeleteBill(_ context.Context, id planner.BillID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	pos := m.billIndexLocked(id)
	if pos < 0 {
		return planner.ErrBillNotFound
	}
	m.bills = slices.Delete(m.bills, pos, pos+1)
	return nil
}

func (m *Memory) billIndexLocked(id planner.BillID) int {
	return slices.IndexFunc(m.bills, func(b planner.Bill) bool { return b.ID == id })
}

// -----------------------------------------------------------------------------
// Income sources
// -----------------------------------------------------------------------------

func (m *Memory) SaveIncomeSource(_ context.Context, src planner.IncomeSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if pos := m.incomeIndexLocked(src.ID); pos >= 0 {
		m.income[pos] = src
		return nil
	}
	m.income = append(m.income, src)
	return nil
}

func (m *Memory) GetIncomeSource(_ context.Context, id planner.IncomeSourceID) (*planner.IncomeSource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pos := m.incomeIndexLocked(id)
	if pos < 0 {
		return nil, planner.ErrIncomeSourceNotFound
	}
	src := m.income[pos]
	return &src, nil
}

func (m *Memory) DeleteIncomeSource(_ context.Context, id planner.IncomeSourceID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	pos := m.incomeIndexLocked(id)
	if pos < 0 {
		return planner.ErrIncomeSourceNotFound
	}
	m.income = slices.Delete(m.income, pos, pos+1)
	return nil
}

func (m *Memory) incomeIndexLocked(id planner.IncomeSourceID) int {
	return slices.IndexFunc(m.income, func(s planner.IncomeSource) bool { return s.ID == id })
}

// -----------------------------------------------------------------------------
// Audit
// -----------------------------------------------------------------------------

func (m *Memory) AllocationRuns(_ context.Context, limit int) ([]planner.AllocationRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := slices.Clone(m.runs)
	slices.Reverse(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ planner.Store = (*Memory)(nil)
