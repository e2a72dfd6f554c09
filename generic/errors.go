/*
errors.go - Error types for the calendar and recurrence engine

PURPOSE:
  All rule validation errors in one place. The generator itself never
  fails: an unsupported rule simply produces a short sequence. Errors here
  come from Rule.Validate and Period.Validate, used by the parsers and
  stores before a rule is persisted.

USAGE:
    if errors.Is(err, generic.ErrInvalidRule) {
        // reject the user's input
    }
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidRule is the parent of every rule validation failure.
	ErrInvalidRule = errors.New("invalid recurrence rule")

	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// RuleError names the offending field of a rule.
type RuleError struct {
	Kind   Kind
	Field  string
	Reason string
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("invalid %s rule: %s %s", e.Kind, e.Field, e.Reason)
}

func (e *RuleError) Unwrap() error {
	return ErrInvalidRule
}
