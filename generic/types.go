/*
Package generic provides the calendar and recurrence engine under the planner.

PURPOSE:
  This package contains domain-agnostic types and algorithms for expanding
  compact recurrence rules into concrete calendar days. Whether the rule
  describes a paycheck ("every 2 weeks"), a bill ("monthly on the 15th") or
  a meeting ("second Wednesday"), the same generator produces the dates.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: A decimal quantity (bill amounts, paycheck amounts, totals)

KEY CONCEPTS ELSEWHERE:
  - TimePoint: A calendar day (time.go)
  - Period: An inclusive window of days (period.go)
  - Rule / Frequency / Termination: The recurrence sum types (recurrence.go)
  - Sequence / Occurrences: The occurrence generator (occurrence.go)

DESIGN PRINCIPLES:
  1. Purity: nothing here reads the wall clock; "now" is always an argument
  2. Precision: Uses decimal.Decimal to avoid floating-point errors
  3. Closed variants: illegal rule combinations are unrepresentable

USAGE:
  rule := generic.Rule{Freq: generic.MonthlyByDay{Day: 31}}
  dates := generic.Occurrences(rule, generic.NewTimePoint(2024, time.January, 31),
      generic.Limits{MaxCount: 3})
  // 2024-01-31, 2024-02-29, 2024-03-31

SEE ALSO:
  - planner/paycheck.go: Projects income sources through this generator
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Decimal amount (single currency, by design of the household tool)
// =============================================================================

type Money struct {
	Value decimal.Decimal
}

func NewMoney(value float64) Money {
	return Money{Value: decimal.NewFromFloat(value)}
}

func NewMoneyFromInt(value int64) Money {
	return Money{Value: decimal.NewFromInt(value)}
}

// ParseMoney parses a decimal string such as "1250.40".
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Value: d}, nil
}

// MustParseMoney is ParseMoney for literals; it panics on malformed input.
func MustParseMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

func ZeroMoney() Money { return Money{Value: decimal.Zero} }

func (m Money) Add(b Money) Money             { return Money{Value: m.Value.Add(b.Value)} }
func (m Money) Sub(b Money) Money             { return Money{Value: m.Value.Sub(b.Value)} }
func (m Money) Neg() Money                    { return Money{Value: m.Value.Neg()} }
func (m Money) IsNegative() bool              { return m.Value.IsNegative() }
func (m Money) IsZero() bool                  { return m.Value.IsZero() }
func (m Money) IsPositive() bool              { return m.Value.IsPositive() }
func (m Money) Equal(b Money) bool            { return m.Value.Equal(b.Value) }
func (m Money) GreaterThan(b Money) bool      { return m.Value.GreaterThan(b.Value) }
func (m Money) LessThan(b Money) bool         { return m.Value.LessThan(b.Value) }
func (m Money) LessThanOrEqual(b Money) bool  { return m.Value.LessThanOrEqual(b.Value) }
func (m Money) String() string                { return m.Value.StringFixed(2) }

// Exact is the amount without rounding, as stored and sent over the wire.
func (m Money) Exact() string { return m.Value.String() }

// MarshalText and UnmarshalText keep amounts as exact decimal strings on the wire.
func (m Money) MarshalText() ([]byte, error) { return []byte(m.Exact()), nil }

func (m *Money) UnmarshalText(b []byte) error {
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return err
	}
	m.Value = d
	return nil
}

// Sum adds a list of amounts.
func Sum(amounts ...Money) Money {
	total := ZeroMoney()
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
