package planner

import (
	"fmt"
	"slices"

	"github.com/warp/paycheck-planner/generic"
)

// DefaultMaxPerSource caps how many paychecks one income source may project.
const DefaultMaxPerSource = 10

// CurrentMonth is the default planning window: the calendar month of now.
func CurrentMonth(now generic.TimePoint) generic.Period {
	return generic.MonthOf(now)
}

// ProjectPaychecks expands every income source into the paychecks that land
// inside window, merged into one chronological list.
//
// Each source is expanded from its NextPayday, stopped at window.End and
// capped at maxPerSource dates; dates before window.Start are dropped. Ties
// on the same day keep the order of sources. IDs are "sourceID#index" where
// index is the date's position in its source's sequence.
func ProjectPaychecks(sources []IncomeSource, window generic.Period, maxPerSource int) []PaycheckOccurrence {
	if maxPerSource <= 0 {
		maxPerSource = DefaultMaxPerSource
	}

	var out []PaycheckOccurrence
	end := window.End
	for _, src := range sources {
		index := 0
		for date := range generic.Sequence(src.Rule, src.NextPayday, generic.Limits{MaxCount: maxPerSource, WindowEnd: &end}) {
			if window.Contains(date) {
				out = append(out, PaycheckOccurrence{
					ID:       PaycheckIDFor(src.ID, index),
					SourceID: src.ID,
					Index:    index,
					Date:     date,
					Amount:   src.Amount,
				})
			}
			index++
		}
	}

	slices.SortStableFunc(out, func(a, b PaycheckOccurrence) int {
		return a.Date.Compare(b.Date)
	})
	return out
}

// PaycheckIDFor builds the synthetic id of a projected paycheck.
func PaycheckIDFor(source IncomeSourceID, index int) PaycheckID {
	return PaycheckID(fmt.Sprintf("%s#%d", source, index))
}

// Paydays lists the dates of a paycheck projection.
func Paydays(paychecks []PaycheckOccurrence) []generic.TimePoint {
	out := make([]generic.TimePoint, len(paychecks))
	for i, p := range paychecks {
		out[i] = p.Date
	}
	return out
}
