package planner

import (
	"context"
	"time"
)

// =============================================================================
// REPOSITORY - The planner's only view of storage
// =============================================================================

// Repository supplies a snapshot of the household and persists assignment
// changes. Conflict resolution belongs to the implementation; the planner
// simply re-runs against whatever snapshot it is given.
//
// Implementations:
//   - store/memory: in-process, for tests and the offline CLI
//   - store/sqlite: the server's database
type Repository interface {
	// LoadBills returns every bill in a stable order.
	LoadBills(ctx context.Context) ([]Bill, error)

	// LoadIncomeSources returns every income source in insertion order.
	// The order breaks ties between paychecks on the same day.
	LoadIncomeSources(ctx context.Context) ([]IncomeSource, error)

	// ApplyAssignments writes the new paycheck id of each changed bill.
	// Either all changes are written or none are.
	ApplyAssignments(ctx context.Context, changes []Change) error
}

// =============================================================================
// STORE - Repository plus the CRUD the outer surfaces need
// =============================================================================

// Store is what the API and CLI need on top of Repository: record-level
// reads and writes, and the audit trail of applied allocation runs.
type Store interface {
	Repository

	SaveBill(ctx context.Context, bill Bill) error
	GetBill(ctx context.Context, id BillID) (*Bill, error)
	DeleteBill(ctx context.Context, id BillID) error

	SaveIncomeSource(ctx context.Context, src IncomeSource) error
	GetIncomeSource(ctx context.Context, id IncomeSourceID) (*IncomeSource, error)
	DeleteIncomeSource(ctx context.Context, id IncomeSourceID) error

	// AllocationRuns returns applied runs, newest first, at most limit.
	AllocationRuns(ctx context.Context, limit int) ([]AllocationRun, error)
}

// AllocationRun records one successful ApplyAssignments call.
type AllocationRun struct {
	ID        string
	AppliedAt time.Time
	Changes   []Change
}
