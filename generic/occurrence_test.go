package generic_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/paycheck-planner/generic"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func day(s string) generic.TimePoint {
	return generic.MustParseDate(s)
}

func dates(tps []generic.TimePoint) []string {
	out := make([]string, len(tps))
	for i, tp := range tps {
		out[i] = tp.String()
	}
	return out
}

func allRules() map[string]generic.Rule {
	return map[string]generic.Rule{
		"daily":            {Freq: generic.Daily{Interval: 3}},
		"weekly":           {Freq: generic.Weekly{Interval: 2}},
		"weekly-by-day":    {Freq: generic.Weekly{Interval: 1, ByDay: []time.Weekday{time.Monday, time.Thursday}}},
		"monthly-day":      {Freq: generic.MonthlyByDay{Interval: 1, Day: 31}},
		"monthly-ordinal":  {Freq: generic.MonthlyByWeekday{Interval: 1, SetPos: 2, Weekday: time.Wednesday}},
		"yearly":           {Freq: generic.Yearly{Interval: 1}},
		"weekdays":         {Freq: generic.WeekdaysOnly{}},
		"custom-month":     {Freq: generic.Custom{Interval: 3, Unit: generic.UnitMonth}},
		"custom-day":       {Freq: generic.Custom{Interval: 10, Unit: generic.UnitDay}},
		"until-terminated": {Freq: generic.Daily{}, End: generic.Until{Date: day("2024-02-10")}},
		"count-terminated": {Freq: generic.Weekly{}, End: generic.AfterCount{N: 4}},
	}
}

// =============================================================================
// SEQUENCE PROPERTIES
// =============================================================================

func TestOccurrences_FirstElementIsStart(t *testing.T) {
	starts := []string{"2024-01-31", "2024-02-29", "2023-12-30", "2024-06-01"}
	rules := allRules()
	rules["none"] = generic.Rule{}
	rules["unsupported"] = generic.Rule{Freq: generic.Unsupported{Name: "lunar"}}

	for name, rule := range rules {
		for _, s := range starts {
			got := generic.Occurrences(rule, day(s), generic.Limits{MaxCount: 8})
			require.NotEmpty(t, got, name)
			assert.Equal(t, s, got[0].String(), "%s from %s", name, s)
		}
	}
}

func TestOccurrences_StrictlyIncreasing(t *testing.T) {
	for name, rule := range allRules() {
		got := generic.Occurrences(rule, day("2024-01-31"), generic.Limits{MaxCount: 40})
		for i := 1; i < len(got); i++ {
			assert.True(t, got[i].After(got[i-1]), "%s: %s not after %s", name, got[i], got[i-1])
		}
	}
}

func TestOccurrences_NoneHasLengthOne(t *testing.T) {
	for _, n := range []int{0, 1, 5, 1000} {
		got := generic.Occurrences(generic.Rule{Freq: generic.None{}}, day("2024-03-10"), generic.Limits{MaxCount: n})
		assert.Len(t, got, 1, "maxCount=%d", n)
	}
	// A nil frequency behaves the same way.
	assert.Len(t, generic.Occurrences(generic.Rule{}, day("2024-03-10"), generic.Limits{MaxCount: 9}), 1)
}

func TestOccurrences_UnsupportedKindStopsEarly(t *testing.T) {
	// GIVEN: A rule kind this version cannot expand
	// WHEN: Asking for 10 dates
	// THEN: Only the start date comes back, and no error is raised
	rule := generic.Rule{Freq: generic.Custom{Interval: 1, Unit: "fortnight"}}
	got := generic.Occurrences(rule, day("2024-03-10"), generic.Limits{MaxCount: 10})
	assert.Equal(t, []string{"2024-03-10"}, dates(got))
}

// =============================================================================
// PER-KIND STEPPING
// =============================================================================

func TestOccurrences_Daily(t *testing.T) {
	got := generic.Occurrences(generic.Rule{Freq: generic.Daily{Interval: 2}}, day("2024-02-27"), generic.Limits{MaxCount: 3})
	assert.Equal(t, []string{"2024-02-27", "2024-02-29", "2024-03-02"}, dates(got))
}

func TestOccurrences_Weekly(t *testing.T) {
	got := generic.Occurrences(generic.Rule{Freq: generic.Weekly{Interval: 2}}, day("2024-01-05"), generic.Limits{MaxCount: 3})
	assert.Equal(t, []string{"2024-01-05", "2024-01-19", "2024-02-02"}, dates(got))
}

func TestOccurrences_WeeklyByDay(t *testing.T) {
	// 2024-01-01 is a Monday. Every other week on Monday and Thursday.
	rule := generic.Rule{Freq: generic.Weekly{Interval: 2, ByDay: []time.Weekday{time.Monday, time.Thursday}}}
	got := generic.Occurrences(rule, day("2024-01-01"), generic.Limits{MaxCount: 5})
	assert.Equal(t, []string{"2024-01-01", "2024-01-04", "2024-01-15", "2024-01-18", "2024-01-29"}, dates(got))
}

func TestOccurrences_MonthlyDay31ClampsIntoFebruary(t *testing.T) {
	// GIVEN: Monthly on the 31st, starting Jan 31
	// THEN: The second date is a real February date (the last one), not a
	//       January date and not a March spill-over
	rule := generic.Rule{Freq: generic.MonthlyByDay{Day: 31}}
	got := generic.Occurrences(rule, day("2024-01-31"), generic.Limits{MaxCount: 4})

	require.Len(t, got, 4)
	assert.Equal(t, time.February, got[1].Month())
	assert.Equal(t, []string{"2024-01-31", "2024-02-29", "2024-03-31", "2024-04-30"}, dates(got))

	nonLeap := generic.Occurrences(rule, day("2023-01-31"), generic.Limits{MaxCount: 2})
	assert.Equal(t, "2023-02-28", nonLeap[1].String())
}

func TestOccurrences_MonthlyDoesNotDriftAfterClamp(t *testing.T) {
	// Day defaults to the anchor's day; the clamp in February must not pull
	// later months down to the 29th.
	rule := generic.Rule{Freq: generic.MonthlyByDay{Interval: 1}}
	got := generic.Occurrences(rule, day("2024-01-30"), generic.Limits{MaxCount: 3})
	assert.Equal(t, []string{"2024-01-30", "2024-02-29", "2024-03-30"}, dates(got))
}

func TestOccurrences_MonthlyOrdinalWeekday(t *testing.T) {
	// Second Wednesday of each month
	rule := generic.Rule{Freq: generic.MonthlyByWeekday{SetPos: 2, Weekday: time.Wednesday}}
	got := generic.Occurrences(rule, day("2024-01-10"), generic.Limits{MaxCount: 4})
	assert.Equal(t, []string{"2024-01-10", "2024-02-14", "2024-03-13", "2024-04-10"}, dates(got))
}

func TestOccurrences_MonthlyFifthWeekdayFallsBackToLast(t *testing.T) {
	// January 2024 has five Wednesdays, February only four.
	rule := generic.Rule{Freq: generic.MonthlyByWeekday{SetPos: 5, Weekday: time.Wednesday}}
	got := generic.Occurrences(rule, day("2024-01-31"), generic.Limits{MaxCount: 3})
	assert.Equal(t, []string{"2024-01-31", "2024-02-28", "2024-03-27"}, dates(got))
}

func TestOccurrences_Yearly(t *testing.T) {
	got := generic.Occurrences(generic.Rule{Freq: generic.Yearly{}}, day("2024-02-29"), generic.Limits{MaxCount: 5})
	assert.Equal(t, []string{"2024-02-29", "2025-02-28", "2026-02-28", "2027-02-28", "2028-02-29"}, dates(got))
}

func TestOccurrences_WeekdaysOnlySkipsWeekend(t *testing.T) {
	// 2024-01-05 is a Friday
	got := generic.Occurrences(generic.Rule{Freq: generic.WeekdaysOnly{}}, day("2024-01-05"), generic.Limits{MaxCount: 3})
	assert.Equal(t, []string{"2024-01-05", "2024-01-08", "2024-01-09"}, dates(got))
}

func TestOccurrences_CustomDispatchesOnUnit(t *testing.T) {
	tests := []struct {
		unit generic.Unit
		want []string
	}{
		{generic.UnitDay, []string{"2024-01-31", "2024-02-03"}},
		{generic.UnitWeek, []string{"2024-01-31", "2024-02-21"}},
		{generic.UnitMonth, []string{"2024-01-31", "2024-04-30"}},
		{generic.UnitYear, []string{"2024-01-31", "2027-01-31"}},
	}
	for _, tt := range tests {
		rule := generic.Rule{Freq: generic.Custom{Interval: 3, Unit: tt.unit}}
		got := generic.Occurrences(rule, day("2024-01-31"), generic.Limits{MaxCount: 2})
		assert.Equal(t, tt.want, dates(got), tt.unit)
	}
}

// =============================================================================
// STOP CONDITIONS
// =============================================================================

func TestOccurrences_WindowEndExcludesLaterDates(t *testing.T) {
	end := day("2024-01-29")
	got := generic.Occurrences(generic.Rule{Freq: generic.Weekly{}}, day("2024-01-01"), generic.Limits{MaxCount: 10, WindowEnd: &end})
	assert.Equal(t, []string{"2024-01-01", "2024-01-08", "2024-01-15", "2024-01-22", "2024-01-29"}, dates(got))
}

func TestOccurrences_StartEmittedEvenPastWindowEnd(t *testing.T) {
	end := day("2024-01-01")
	got := generic.Occurrences(generic.Rule{Freq: generic.Daily{}}, day("2024-02-01"), generic.Limits{MaxCount: 10, WindowEnd: &end})
	assert.Equal(t, []string{"2024-02-01"}, dates(got))
}

func TestOccurrences_UntilIsInclusive(t *testing.T) {
	rule := generic.Rule{Freq: generic.Daily{Interval: 5}, End: generic.Until{Date: day("2024-01-11")}}
	got := generic.Occurrences(rule, day("2024-01-01"), generic.Limits{MaxCount: 10})
	assert.Equal(t, []string{"2024-01-01", "2024-01-06", "2024-01-11"}, dates(got))
}

func TestOccurrences_AfterCountBeatsMaxCount(t *testing.T) {
	rule := generic.Rule{Freq: generic.Daily{}, End: generic.AfterCount{N: 3}}
	assert.Len(t, generic.Occurrences(rule, day("2024-01-01"), generic.Limits{MaxCount: 10}), 3)
	assert.Len(t, generic.Occurrences(rule, day("2024-01-01"), generic.Limits{MaxCount: 2}), 2)
}

func TestSequence_IsLazy(t *testing.T) {
	// An unbounded rule with a huge limit must still stop when the consumer does.
	seen := 0
	for range generic.Sequence(generic.Rule{Freq: generic.Daily{}}, day("2024-01-01"), generic.Limits{MaxCount: 1 << 30}) {
		seen++
		if seen == 5 {
			break
		}
	}
	assert.Equal(t, 5, seen)
}

func TestNextAfter(t *testing.T) {
	rule := generic.Rule{Freq: generic.MonthlyByDay{Day: 15}}
	next, ok := generic.NextAfter(rule, day("2024-01-15"), day("2024-01-15"))
	require.True(t, ok)
	assert.Equal(t, "2024-02-15", next.String())

	_, ok = generic.NextAfter(generic.Rule{}, day("2024-01-15"), day("2024-01-15"))
	assert.False(t, ok, "a one-off has no next occurrence")
}
