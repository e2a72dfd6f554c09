package planner

import (
	"errors"
	"fmt"

	"github.com/warp/paycheck-planner/generic"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidAmount is a precondition failure: amounts reaching the
	// allocator must be positive. The whole computation is abandoned.
	ErrInvalidAmount = errors.New("bill amount must be positive")

	// ErrDuplicateBill is returned when a snapshot lists the same bill twice.
	ErrDuplicateBill = errors.New("duplicate bill id")

	// ErrBillNotFound is returned by stores for an unknown bill id.
	ErrBillNotFound = errors.New("bill not found")

	// ErrIncomeSourceNotFound is returned by stores for an unknown income source id.
	ErrIncomeSourceNotFound = errors.New("income source not found")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// InvalidAmountError names the bill that violated the amount precondition.
type InvalidAmountError struct {
	BillID BillID
	Amount generic.Money
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("bill %s: amount %s is not positive", e.BillID, e.Amount.Value)
}

func (e *InvalidAmountError) Unwrap() error {
	return ErrInvalidAmount
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrBillNotFound) ||
		errors.Is(err, ErrIncomeSourceNotFound)
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrDuplicateBill) ||
		errors.Is(err, generic.ErrInvalidRule) ||
		errors.Is(err, generic.ErrInvalidPeriod)
}
