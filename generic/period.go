package generic

// =============================================================================
// PERIOD - A closed window of calendar days
// =============================================================================

// Period is the window paychecks are projected into. Both ends are inclusive.
//
// Examples:
//   - Current month: Jan 1 - Jan 31
//   - Custom planning horizon: today - today+30
type Period struct {
	Start TimePoint
	End   TimePoint
}

// MonthOf returns the calendar month containing date.
func MonthOf(date TimePoint) Period {
	return Period{
		Start: StartOfMonth(date.Year(), date.Month()),
		End:   EndOfMonth(date.Year(), date.Month()),
	}
}

// Contains returns true if the time point is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// Validate rejects a period whose end precedes its start.
func (p Period) Validate() error {
	if p.End.Before(p.Start) {
		return ErrInvalidPeriod
	}
	return nil
}

// Days returns all days in the period as a slice of TimePoints.
func (p Period) Days() []TimePoint {
	var days []TimePoint
	current := p.Start
	for current.BeforeOrEqual(p.End) {
		days = append(days, current)
		current = current.AddDays(1)
	}
	return days
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// NextMonth returns the calendar month after the one p starts in.
func (p Period) NextMonth() Period {
	return MonthOf(p.Start.AddMonthsClamped(1, 1))
}
