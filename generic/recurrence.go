/*
recurrence.go - Recurrence rule model

PURPOSE:
  Describes how an obligation or an income repeats. A Rule is a pair of
  closed variants:

    Frequency:   how to step from one occurrence to the next
    Termination: when to stop (never, after N occurrences, after a date)

  Each Frequency case carries only the fields it needs, so combinations such
  as "a weekday ordinal on a daily rule" cannot be expressed.

FREQUENCY CASES:
  None              single occurrence (a one-off)
  Daily             every Interval days
  Weekly            every Interval weeks, optionally on a set of weekdays
  MonthlyByDay      every Interval months on a day of month (clamped)
  MonthlyByWeekday  every Interval months on the Nth weekday ("2nd Wednesday")
  Yearly            every Interval years on the anchor's month and day
  WeekdaysOnly      every Monday-Friday
  Custom            Interval x Unit, dispatched like the cases above
  Unsupported       a kind this version does not understand (stops at once)

The stepping math lives here; the iteration and stop conditions live in
occurrence.go.

SEE ALSO:
  - occurrence.go: Sequence / Occurrences
  - factory/rule.go: JSON and YAML encoding of rules
*/
package generic

import (
	"slices"
	"time"
)

// Kind is the persisted name of a frequency case.
type Kind string

const (
	KindNone         Kind = "none"
	KindDaily        Kind = "daily"
	KindWeekly       Kind = "weekly"
	KindMonthly      Kind = "monthly"
	KindYearly       Kind = "yearly"
	KindWeekdaysOnly Kind = "weekdays"
	KindCustom       Kind = "custom"
)

// Unit is the step unit of a Custom frequency.
type Unit string

const (
	UnitDay   Unit = "day"
	UnitWeek  Unit = "week"
	UnitMonth Unit = "month"
	UnitYear  Unit = "year"
)

// SetPosLast selects the last matching weekday of a month.
const SetPosLast = -1

// =============================================================================
// RULE
// =============================================================================

// Rule is a complete recurrence description. The zero Rule is a one-off.
type Rule struct {
	Freq Frequency
	End  Termination // nil = Never
}

// Kind reports the frequency kind; a nil frequency is KindNone.
func (r Rule) Kind() Kind {
	if r.Freq == nil {
		return KindNone
	}
	return r.Freq.Kind()
}

// Termination returns the active termination, defaulting to Never.
func (r Rule) Termination() Termination {
	if r.End == nil {
		return Never{}
	}
	return r.End
}

// IsRecurring reports whether the rule can produce more than one date.
func (r Rule) IsRecurring() bool {
	switch r.Freq.(type) {
	case nil, None, Unsupported:
		return false
	}
	if n, ok := r.End.(AfterCount); ok && n.N <= 1 {
		return false
	}
	return true
}

// Validate checks field ranges. Unsupported kinds are valid: they are a
// legitimate stored state that simply yields a single date.
func (r Rule) Validate() error {
	if r.Freq != nil {
		if err := r.Freq.validate(); err != nil {
			return err
		}
	}
	if n, ok := r.End.(AfterCount); ok && n.N < 1 {
		return &RuleError{Kind: r.Kind(), Field: "count", Reason: "must be at least 1"}
	}
	return nil
}

// =============================================================================
// TERMINATION
// =============================================================================

// Termination is one of Never, AfterCount or Until.
type Termination interface {
	isTermination()
}

// Never repeats without end; only the caller's limits bound the sequence.
type Never struct{}

// AfterCount stops once N dates (the start included) have been produced.
type AfterCount struct {
	N int
}

// Until stops before the first date later than Date.
type Until struct {
	Date TimePoint
}

func (Never) isTermination()      {}
func (AfterCount) isTermination() {}
func (Until) isTermination()      {}

// =============================================================================
// FREQUENCY
// =============================================================================

// Frequency steps a sequence forward. The interface is sealed: only the
// cases declared in this file implement it.
type Frequency interface {
	Kind() Kind

	// next returns occurrence i (i >= 1) of a sequence anchored at start whose
	// previous occurrence is prev. ok=false ends the sequence.
	next(start, prev TimePoint, i int) (next TimePoint, ok bool)

	validate() error
}

type None struct{}

type Daily struct {
	Interval int
}

type Weekly struct {
	Interval int
	ByDay    []time.Weekday // empty = the anchor's weekday
}

type MonthlyByDay struct {
	Interval int
	Day      int // 1-31; 0 = the anchor's day of month
}

type MonthlyByWeekday struct {
	Interval int
	SetPos   int // 1-5, or SetPosLast
	Weekday  time.Weekday
}

type Yearly struct {
	Interval int
}

type WeekdaysOnly struct{}

type Custom struct {
	Interval int
	Unit     Unit
}

// Unsupported preserves a kind read from storage that this version cannot
// expand. Its sequence is the start date alone.
type Unsupported struct {
	Name string
}

func (None) Kind() Kind             { return KindNone }
func (Daily) Kind() Kind            { return KindDaily }
func (Weekly) Kind() Kind           { return KindWeekly }
func (MonthlyByDay) Kind() Kind     { return KindMonthly }
func (MonthlyByWeekday) Kind() Kind { return KindMonthly }
func (Yearly) Kind() Kind           { return KindYearly }
func (WeekdaysOnly) Kind() Kind     { return KindWeekdaysOnly }
func (Custom) Kind() Kind           { return KindCustom }
func (u Unsupported) Kind() Kind    { return Kind(u.Name) }

// -----------------------------------------------------------------------------
// Stepping
// -----------------------------------------------------------------------------

func (None) next(_, _ TimePoint, _ int) (TimePoint, bool) { return TimePoint{}, false }

func (Unsupported) next(_, _ TimePoint, _ int) (TimePoint, bool) { return TimePoint{}, false }

func (f Daily) next(_, prev TimePoint, _ int) (TimePoint, bool) {
	return prev.AddDays(interval(f.Interval)), true
}

func (f Weekly) next(start, prev TimePoint, _ int) (TimePoint, bool) {
	n := interval(f.Interval)
	if len(f.ByDay) == 0 {
		return prev.AddDays(7 * n), true
	}

	// Walk forward day by day; a match must sit in a week that is a multiple
	// of the interval away from the anchor's week. Two cycles always suffice.
	anchorWeek := StartOfWeek(start)
	candidate := prev.AddDays(1)
	for step := 0; step < 7*n+7; step++ {
		week := DaysBetween(anchorWeek, StartOfWeek(candidate)) / 7
		if week%n == 0 && slices.Contains(f.ByDay, candidate.Weekday()) {
			return candidate, true
		}
		candidate = candidate.AddDays(1)
	}
	return TimePoint{}, false
}

func (f MonthlyByDay) next(start, _ TimePoint, i int) (TimePoint, bool) {
	day := f.Day
	if day == 0 {
		day = start.Day()
	}
	return start.AddMonthsClamped(i*interval(f.Interval), day), true
}

func (f MonthlyByWeekday) next(start, _ TimePoint, i int) (TimePoint, bool) {
	month := start.AddMonthsClamped(i*interval(f.Interval), 1)
	return NthWeekday(month.Year(), month.Month(), f.Weekday, f.SetPos), true
}

func (f Yearly) next(start, _ TimePoint, i int) (TimePoint, bool) {
	return start.AddMonthsClamped(12*i*interval(f.Interval), start.Day()), true
}

func (WeekdaysOnly) next(_, prev TimePoint, _ int) (TimePoint, bool) {
	d := prev.AddDays(1)
	for d.IsWeekend() {
		d = d.AddDays(1)
	}
	return d, true
}

func (f Custom) next(start, prev TimePoint, i int) (TimePoint, bool) {
	switch f.Unit {
	case UnitDay:
		return Daily{Interval: f.Interval}.next(start, prev, i)
	case UnitWeek:
		return Weekly{Interval: f.Interval}.next(start, prev, i)
	case UnitMonth:
		return MonthlyByDay{Interval: f.Interval}.next(start, prev, i)
	case UnitYear:
		return Yearly{Interval: f.Interval}.next(start, prev, i)
	default:
		return TimePoint{}, false
	}
}

// -----------------------------------------------------------------------------
// Validation
// -----------------------------------------------------------------------------

func (None) validate() error         { return nil }
func (Unsupported) validate() error  { return nil }
func (WeekdaysOnly) validate() error { return nil }

func (f Daily) validate() error  { return validInterval(KindDaily, f.Interval) }
func (f Yearly) validate() error { return validInterval(KindYearly, f.Interval) }

func (f Weekly) validate() error {
	if err := validInterval(KindWeekly, f.Interval); err != nil {
		return err
	}
	for _, wd := range f.ByDay {
		if wd < time.Sunday || wd > time.Saturday {
			return &RuleError{Kind: KindWeekly, Field: "by_day", Reason: "contains an unknown weekday"}
		}
	}
	return nil
}

func (f MonthlyByDay) validate() error {
	if err := validInterval(KindMonthly, f.Interval); err != nil {
		return err
	}
	if f.Day < 0 || f.Day > 31 {
		return &RuleError{Kind: KindMonthly, Field: "by_month_day", Reason: "must be between 1 and 31"}
	}
	return nil
}

func (f MonthlyByWeekday) validate() error {
	if err := validInterval(KindMonthly, f.Interval); err != nil {
		return err
	}
	if f.SetPos != SetPosLast && (f.SetPos < 1 || f.SetPos > 5) {
		return &RuleError{Kind: KindMonthly, Field: "by_set_pos", Reason: "must be 1-5 or -1"}
	}
	if f.Weekday < time.Sunday || f.Weekday > time.Saturday {
		return &RuleError{Kind: KindMonthly, Field: "by_week_day", Reason: "is not a weekday"}
	}
	return nil
}

// An unknown unit is not rejected: the generator stops at the start date for it.
func (f Custom) validate() error { return validInterval(KindCustom, f.Interval) }

func validInterval(kind Kind, n int) error {
	if n < 0 {
		return &RuleError{Kind: kind, Field: "interval", Reason: "must be positive"}
	}
	return nil
}

// interval applies the default multiplier of 1.
func interval(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// =============================================================================
// ORDINAL WEEKDAYS
// =============================================================================

// NthWeekday returns the pos-th weekday of a month ("2nd Wednesday").
// pos 5 falls back to the last such weekday when the month has only four;
// SetPosLast always selects the last one.
func NthWeekday(year int, month time.Month, weekday time.Weekday, pos int) TimePoint {
	first := StartOfMonth(year, month)
	offset := (int(weekday) - int(first.Weekday()) + 7) % 7
	firstMatch := first.AddDays(offset)
	lastDay := EndOfMonth(year, month)

	if pos == SetPosLast || pos > 5 {
		pos = 5
	}
	if pos < 1 {
		pos = 1
	}

	d := firstMatch.AddDays(7 * (pos - 1))
	for d.After(lastDay) {
		d = d.AddDays(-7)
	}
	return d
}
