/*
occurrence.go - Occurrence generator

PURPOSE:
  Expands a Rule from a start date into concrete calendar days. The result
  is used both for previews ("when is this bill due next?") and for
  projecting income sources into paychecks.

SEQUENCE CONTRACT:
  - The first element is always the start date, even for a one-off rule.
  - Elements are strictly increasing.
  - The sequence ends at whichever comes first: WindowEnd, the rule's
    Until date, the rule's AfterCount, or Limits.MaxCount.
  - An unsupported kind ends the sequence early. That is a normal terminal
    state, not an error: callers must accept a shorter sequence.

STOP ORDER (checked for every candidate after the start):
  1. candidate > WindowEnd       -> stop, candidate not emitted
  2. candidate > Until           -> stop, candidate not emitted
  3. len == AfterCount           -> stop after emitting
  4. len == MaxCount             -> stop after emitting

EXAMPLE:
  for d := range generic.Sequence(rule, start, generic.Limits{MaxCount: 12}) {
      fmt.Println(d)
  }
*/
package generic

import (
	"iter"
	"math"
	"slices"
)

// DefaultMaxCount bounds a preview whose caller gave no explicit limit.
const DefaultMaxCount = 100

// Limits are the caller-side bounds of a sequence.
type Limits struct {
	// MaxCount caps the number of dates. Values below 1 are treated as 1.
	MaxCount int

	// WindowEnd, when set, is the last day that may be produced.
	WindowEnd *TimePoint
}

// Sequence lazily yields the occurrences of rule from start.
func Sequence(rule Rule, start TimePoint, limits Limits) iter.Seq[TimePoint] {
	return func(yield func(TimePoint) bool) {
		maxCount := limits.MaxCount
		if maxCount < 1 {
			maxCount = 1
		}

		afterCount := 0
		var until *TimePoint
		switch end := rule.Termination().(type) {
		case AfterCount:
			afterCount = end.N
		case Until:
			d := end.Date
			until = &d
		}

		if !yield(start) {
			return
		}
		produced := 1
		if reached(produced, afterCount, maxCount) || rule.Freq == nil {
			return
		}

		prev := start
		for i := 1; ; i++ {
			candidate, ok := rule.Freq.next(start, prev, i)
			if !ok {
				return
			}
			if limits.WindowEnd != nil && candidate.After(*limits.WindowEnd) {
				return
			}
			if until != nil && candidate.After(*until) {
				return
			}
			if !yield(candidate) {
				return
			}
			produced++
			if reached(produced, afterCount, maxCount) {
				return
			}
			prev = candidate
		}
	}
}

// Occurrences collects Sequence into a slice.
func Occurrences(rule Rule, start TimePoint, limits Limits) []TimePoint {
	return slices.Collect(Sequence(rule, start, limits))
}

// NextAfter returns the first occurrence strictly after date.
// ok=false when the rule has ended on or before date.
func NextAfter(rule Rule, start, date TimePoint) (TimePoint, bool) {
	for d := range Sequence(rule, start, Limits{MaxCount: math.MaxInt32}) {
		if d.After(date) {
			return d, true
		}
	}
	return TimePoint{}, false
}

func reached(produced, afterCount, maxCount int) bool {
	if afterCount > 0 && produced >= afterCount {
		return true
	}
	return produced >= maxCount
}
