package planner

import "github.com/warp/paycheck-planner/generic"

// DefaultFallbackDays is the length of the implied pay period when no
// upcoming payday is known.
const DefaultFallbackDays = 14

// Classify tags a bill as due in the current or the next pay cycle.
//
//   - A bill due before today is always current: overdue money is urgent.
//   - Otherwise the boundary is the earliest payday on or after today, or
//     today + DefaultFallbackDays when there is none.
//   - Due on or before the boundary is current, later is next.
//
// The result depends on now and on the income schedule, so callers must not
// cache it.
func Classify(due, now generic.TimePoint, paydays []generic.TimePoint) Cycle {
	return ClassifyWithFallback(due, now, paydays, DefaultFallbackDays)
}

// ClassifyWithFallback is Classify with a configurable fallback window.
func ClassifyWithFallback(due, now generic.TimePoint, paydays []generic.TimePoint, fallbackDays int) Cycle {
	if due.Before(now) {
		return CycleCurrent
	}
	if due.BeforeOrEqual(cycleBoundary(now, paydays, fallbackDays)) {
		return CycleCurrent
	}
	return CycleNext
}

func cycleBoundary(now generic.TimePoint, paydays []generic.TimePoint, fallbackDays int) generic.TimePoint {
	var boundary *generic.TimePoint
	for i := range paydays {
		d := paydays[i]
		if d.Before(now) {
			continue
		}
		if boundary == nil || d.Before(*boundary) {
			boundary = &d
		}
	}
	if boundary == nil {
		if fallbackDays <= 0 {
			fallbackDays = DefaultFallbackDays
		}
		return now.AddDays(fallbackDays)
	}
	return *boundary
}
