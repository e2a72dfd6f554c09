/*
Package factory converts between stored documents and planner types.

PURPOSE:
  Rules, bills and income sources are stored and exchanged as JSON (the
  database's rule_json column, the HTTP API) or YAML (household seed files).
  The factory turns those documents into generic.Rule, planner.Bill and
  planner.IncomeSource values and back.

RULE SCHEMA:
  {
    "kind": "monthly",          // none, daily, weekly, monthly, yearly, weekdays, custom
    "interval": 1,              // default 1
    "unit": "week",             // custom only
    "by_month_day": 15,         // monthly on a day
    "by_set_pos": 2,            // monthly on an ordinal weekday (-1 = last)
    "by_week_day": "WE",
    "by_day": ["MO", "TH"],     // weekly
    "count": 12,                // at most one of count / until
    "until": "2025-06-30"
  }

  Weekdays accept two-letter codes (MO..SU) or full English names.
  A kind this version does not know parses to generic.Unsupported so that a
  stored rule survives a round trip untouched.

USAGE:
  rule, err := factory.ParseRule(`{"kind":"weekly","interval":2}`)
  doc := factory.RuleToJSON(rule)

SEE ALSO:
  - generic/recurrence.go: The Rule model
  - household.go: Seed documents built on RuleJSON
*/
package factory

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/warp/paycheck-planner/generic"
)

// ErrConflictingTermination is returned when a rule names both count and until.
var ErrConflictingTermination = fmt.Errorf("%w: count and until are mutually exclusive", generic.ErrInvalidRule)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// RuleJSON is the document form of a generic.Rule.
type RuleJSON struct {
	Kind       string   `json:"kind" yaml:"kind"`
	Interval   int      `json:"interval,omitempty" yaml:"interval,omitempty"`
	Unit       string   `json:"unit,omitempty" yaml:"unit,omitempty"`
	ByMonthDay int      `json:"by_month_day,omitempty" yaml:"by_month_day,omitempty"`
	BySetPos   int      `json:"by_set_pos,omitempty" yaml:"by_set_pos,omitempty"`
	ByWeekDay  string   `json:"by_week_day,omitempty" yaml:"by_week_day,omitempty"`
	ByDay      []string `json:"by_day,omitempty" yaml:"by_day,omitempty"`
	Count      int      `json:"count,omitempty" yaml:"count,omitempty"`
	Until      string   `json:"until,omitempty" yaml:"until,omitempty"` // YYYY-MM-DD
}

// =============================================================================
// PARSING
// =============================================================================

// ParseRule parses a JSON rule document. An empty string is a one-off rule.
func ParseRule(jsonStr string) (generic.Rule, error) {
	if strings.TrimSpace(jsonStr) == "" {
		return generic.Rule{}, nil
	}
	var rj RuleJSON
	if err := json.Unmarshal([]byte(jsonStr), &rj); err != nil {
		return generic.Rule{}, fmt.Errorf("failed to parse rule JSON: %w", err)
	}
	return RuleFromJSON(rj)
}

// RuleFromJSON converts and validates a RuleJSON.
func RuleFromJSON(rj RuleJSON) (generic.Rule, error) {
	freq, err := parseFrequency(rj)
	if err != nil {
		return generic.Rule{}, err
	}
	end, err := parseTermination(rj)
	if err != nil {
		return generic.Rule{}, err
	}

	rule := generic.Rule{Freq: freq, End: end}
	if err := rule.Validate(); err != nil {
		return generic.Rule{}, err
	}
	return rule, nil
}

func parseFrequency(rj RuleJSON) (generic.Frequency, error) {
	kind := generic.Kind(strings.ToLower(strings.TrimSpace(rj.Kind)))

	switch kind {
	case "", generic.KindNone:
		return generic.None{}, nil

	case generic.KindDaily:
		return generic.Daily{Interval: rj.Interval}, nil

	case generic.KindWeekly:
		days := make([]time.Weekday, 0, len(rj.ByDay))
		for _, code := range rj.ByDay {
			wd, err := ParseWeekday(code)
			if err != nil {
				return nil, &generic.RuleError{Kind: kind, Field: "by_day", Reason: err.Error()}
			}
			days = append(days, wd)
		}
		if len(days) == 0 {
			days = nil
		}
		return generic.Weekly{Interval: rj.Interval, ByDay: days}, nil

	case generic.KindMonthly:
		if rj.BySetPos == 0 && rj.ByWeekDay == "" {
			return generic.MonthlyByDay{Interval: rj.Interval, Day: rj.ByMonthDay}, nil
		}
		if rj.BySetPos == 0 || rj.ByWeekDay == "" {
			return nil, &generic.RuleError{Kind: kind, Field: "by_set_pos", Reason: "and by_week_day must be given together"}
		}
		wd, err := ParseWeekday(rj.ByWeekDay)
		if err != nil {
			return nil, &generic.RuleError{Kind: kind, Field: "by_week_day", Reason: err.Error()}
		}
		return generic.MonthlyByWeekday{Interval: rj.Interval, SetPos: rj.BySetPos, Weekday: wd}, nil

	case generic.KindYearly:
		return generic.Yearly{Interval: rj.Interval}, nil

	case generic.KindWeekdaysOnly:
		return generic.WeekdaysOnly{}, nil

	case generic.KindCustom:
		return generic.Custom{Interval: rj.Interval, Unit: generic.Unit(strings.ToLower(rj.Unit))}, nil

	default:
		return generic.Unsupported{Name: rj.Kind}, nil
	}
}

func parseTermination(rj RuleJSON) (generic.Termination, error) {
	switch {
	case rj.Count != 0 && rj.Until != "":
		return nil, ErrConflictingTermination
	case rj.Count != 0:
		return generic.AfterCount{N: rj.Count}, nil
	case rj.Until != "":
		until, err := generic.ParseDate(rj.Until)
		if err != nil {
			return nil, &generic.RuleError{Kind: generic.Kind(rj.Kind), Field: "until", Reason: "must be YYYY-MM-DD"}
		}
		return generic.Until{Date: until}, nil
	default:
		return generic.Never{}, nil
	}
}

// =============================================================================
// ENCODING
// =============================================================================

// RuleToJSON converts a Rule to its document form.
func RuleToJSON(rule generic.Rule) RuleJSON {
	rj := RuleJSON{Kind: string(rule.Kind())}

	switch f := rule.Freq.(type) {
	case generic.Daily:
		rj.Interval = f.Interval
	case generic.Weekly:
		rj.Interval = f.Interval
		for _, wd := range f.ByDay {
			rj.ByDay = append(rj.ByDay, WeekdayCode(wd))
		}
	case generic.MonthlyByDay:
		rj.Interval = f.Interval
		rj.ByMonthDay = f.Day
	case generic.MonthlyByWeekday:
		rj.Interval = f.Interval
		rj.BySetPos = f.SetPos
		rj.ByWeekDay = WeekdayCode(f.Weekday)
	case generic.Yearly:
		rj.Interval = f.Interval
	case generic.Custom:
		rj.Interval = f.Interval
		rj.Unit = string(f.Unit)
	}

	switch end := rule.End.(type) {
	case generic.AfterCount:
		rj.Count = end.N
	case generic.Until:
		rj.Until = end.Date.String()
	}
	return rj
}

// FormatRule marshals a Rule to a JSON string.
func FormatRule(rule generic.Rule) (string, error) {
	b, err := json.Marshal(RuleToJSON(rule))
	if err != nil {
		return "", fmt.Errorf("failed to encode rule: %w", err)
	}
	return string(b), nil
}

// =============================================================================
// WEEKDAYS
// =============================================================================

var weekdayCodes = [...]string{"SU", "MO", "TU", "WE", "TH", "FR", "SA"}

var errUnknownWeekday = errors.New("unknown weekday")

// ParseWeekday accepts "MO", "mon", "Monday" and the like.
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) < 2 {
		return 0, fmt.Errorf("%w %q", errUnknownWeekday, s)
	}
	for i, code := range weekdayCodes {
		if !strings.HasPrefix(s, code) {
			continue
		}
		full := strings.ToUpper(time.Weekday(i).String())
		if len(s) == 2 || strings.HasPrefix(full, s) {
			return time.Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("%w %q", errUnknownWeekday, s)
}

// WeekdayCode returns the two-letter code of a weekday.
func WeekdayCode(wd time.Weekday) string {
	return weekdayCodes[wd%7]
}
