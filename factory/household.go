package factory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/warp/paycheck-planner/generic"
	"github.com/warp/paycheck-planner/planner"
)

var (
	// ErrInvalidHousehold wraps every seed document failure.
	ErrInvalidHousehold = errors.New("invalid household document")

	// ErrInvalidField marks a malformed date or amount in a record.
	ErrInvalidField = errors.New("invalid field")
)

// =============================================================================
// DOCUMENT TYPES
// =============================================================================

// HouseholdJSON is a seed document:
//
//	bills:
//	  - name: Rent
//	    amount: "1500.00"
//	    due: 2024-01-31
//	    rule: {kind: monthly}
//	income:
//	  - name: Acme payroll
//	    amount: "2400"
//	    next_payday: 2024-01-05
//	    rule: {kind: weekly, interval: 2}
type HouseholdJSON struct {
	Bills  []BillJSON         `json:"bills" yaml:"bills"`
	Income []IncomeSourceJSON `json:"income" yaml:"income"`
}

// BillJSON is the document form of a planner.Bill. A missing id is generated.
type BillJSON struct {
	ID                 string    `json:"id,omitempty" yaml:"id,omitempty"`
	Name               string    `json:"name" yaml:"name"`
	Amount             string    `json:"amount" yaml:"amount"`
	Due                string    `json:"due" yaml:"due"`
	Rule               *RuleJSON `json:"rule,omitempty" yaml:"rule,omitempty"`
	Anchor             string    `json:"anchor,omitempty" yaml:"anchor,omitempty"`
	Cycle              string    `json:"cycle,omitempty" yaml:"cycle,omitempty"`
	AssignedPaycheckID string    `json:"assigned_paycheck_id,omitempty" yaml:"assigned_paycheck_id,omitempty"`
	Paid               bool      `json:"paid,omitempty" yaml:"paid,omitempty"`
}

// IncomeSourceJSON is the document form of a planner.IncomeSource.
type IncomeSourceJSON struct {
	ID         string   `json:"id,omitempty" yaml:"id,omitempty"`
	Name       string   `json:"name" yaml:"name"`
	Amount     string   `json:"amount" yaml:"amount"`
	NextPayday string   `json:"next_payday" yaml:"next_payday"`
	Rule       RuleJSON `json:"rule" yaml:"rule"`
}

// Household is a parsed seed document.
type Household struct {
	Bills  []planner.Bill
	Income []planner.IncomeSource
}

// =============================================================================
// LOADING
// =============================================================================

// LoadHousehold reads a seed file; .json is parsed as JSON, anything else as YAML.
func LoadHousehold(path string) (*Household, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read household file: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ParseHouseholdJSON(data)
	}
	return ParseHouseholdYAML(data)
}

func ParseHouseholdYAML(data []byte) (*Household, error) {
	var doc HouseholdJSON
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHousehold, err)
	}
	return HouseholdFromJSON(doc)
}

func ParseHouseholdJSON(data []byte) (*Household, error) {
	var doc HouseholdJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHousehold, err)
	}
	return HouseholdFromJSON(doc)
}

// HouseholdFromJSON converts a document, rejecting bad amounts, dates,
// rules and duplicate ids.
func HouseholdFromJSON(doc HouseholdJSON) (*Household, error) {
	h := &Household{}

	seenBills := map[planner.BillID]bool{}
	for i, bj := range doc.Bills {
		b, err := BillFromJSON(bj)
		if err != nil {
			return nil, fmt.Errorf("%w: bills[%d]: %w", ErrInvalidHousehold, i, err)
		}
		if seenBills[b.ID] {
			return nil, fmt.Errorf("%w: bills[%d]: %w %q", ErrInvalidHousehold, i, planner.ErrDuplicateBill, b.ID)
		}
		seenBills[b.ID] = true
		h.Bills = append(h.Bills, b)
	}

	seenIncome := map[planner.IncomeSourceID]bool{}
	for i, ij := range doc.Income {
		src, err := IncomeSourceFromJSON(ij)
		if err != nil {
			return nil, fmt.Errorf("%w: income[%d]: %w", ErrInvalidHousehold, i, err)
		}
		if seenIncome[src.ID] {
			return nil, fmt.Errorf("%w: income[%d]: duplicate income source id %q", ErrInvalidHousehold, i, src.ID)
		}
		seenIncome[src.ID] = true
		h.Income = append(h.Income, src)
	}
	return h, nil
}

// Seed writes a household into a store. Existing records with the same ids
// are overwritten.
func Seed(ctx context.Context, store planner.Store, h *Household) error {
	for _, b := range h.Bills {
		if err := store.SaveBill(ctx, b); err != nil {
			return fmt.Errorf("saving bill %s: %w", b.ID, err)
		}
	}
	for _, src := range h.Income {
		if err := store.SaveIncomeSource(ctx, src); err != nil {
			return fmt.Errorf("saving income source %s: %w", src.ID, err)
		}
	}
	return nil
}

// =============================================================================
// RECORD CONVERSION
// =============================================================================

func BillFromJSON(bj BillJSON) (planner.Bill, error) {
	amount, err := parseAmount(bj.Amount)
	if err != nil {
		return planner.Bill{}, err
	}
	due, err := generic.ParseDate(bj.Due)
	if err != nil {
		return planner.Bill{}, fmt.Errorf("%w due: %v", ErrInvalidField, err)
	}

	b := planner.Bill{
		ID:                 planner.BillID(bj.ID),
		Name:               bj.Name,
		Amount:             amount,
		Due:                due,
		AssignedPaycheckID: planner.PaycheckID(bj.AssignedPaycheckID),
		Paid:               bj.Paid,
	}
	if b.ID == "" {
		b.ID = planner.BillID(uuid.NewString())
	}
	if b.Cycle, err = parseCycle(bj.Cycle); err != nil {
		return planner.Bill{}, err
	}
	if bj.Anchor != "" {
		if b.Anchor, err = generic.ParseDate(bj.Anchor); err != nil {
			return planner.Bill{}, fmt.Errorf("%w anchor: %v", ErrInvalidField, err)
		}
	}
	if bj.Rule != nil {
		rule, err := RuleFromJSON(*bj.Rule)
		if err != nil {
			return planner.Bill{}, err
		}
		b.Rule = &rule
	}
	return b, nil
}

func BillToJSON(b planner.Bill) BillJSON {
	bj := BillJSON{
		ID:                 string(b.ID),
		Name:               b.Name,
		Amount:             b.Amount.Exact(),
		Due:                b.Due.String(),
		Cycle:              string(b.Cycle),
		AssignedPaycheckID: string(b.AssignedPaycheckID),
		Paid:               b.Paid,
	}
	if !b.Anchor.IsZero() {
		bj.Anchor = b.Anchor.String()
	}
	if b.Rule != nil {
		rj := RuleToJSON(*b.Rule)
		bj.Rule = &rj
	}
	return bj
}

func IncomeSourceFromJSON(ij IncomeSourceJSON) (planner.IncomeSource, error) {
	amount, err := parseAmount(ij.Amount)
	if err != nil {
		return planner.IncomeSource{}, err
	}
	next, err := generic.ParseDate(ij.NextPayday)
	if err != nil {
		return planner.IncomeSource{}, fmt.Errorf("%w next_payday: %v", ErrInvalidField, err)
	}
	rule, err := RuleFromJSON(ij.Rule)
	if err != nil {
		return planner.IncomeSource{}, err
	}

	src := planner.IncomeSource{
		ID:         planner.IncomeSourceID(ij.ID),
		Name:       ij.Name,
		Amount:     amount,
		Rule:       rule,
		NextPayday: next,
	}
	if src.ID == "" {
		src.ID = planner.IncomeSourceID(uuid.NewString())
	}
	return src, nil
}

func IncomeSourceToJSON(src planner.IncomeSource) IncomeSourceJSON {
	return IncomeSourceJSON{
		ID:         string(src.ID),
		Name:       src.Name,
		Amount:     src.Amount.Exact(),
		NextPayday: src.NextPayday.String(),
		Rule:       RuleToJSON(src.Rule),
	}
}

// parseCycle accepts the stored cycle tags; empty means current.
func parseCycle(s string) (planner.Cycle, error) {
	switch c := planner.Cycle(strings.ToLower(strings.TrimSpace(s))); c {
	case "":
		return planner.CycleCurrent, nil
	case planner.CycleCurrent, planner.CycleNext, planner.CyclePrevious:
		return c, nil
	default:
		return "", fmt.Errorf("%w cycle: unknown cycle %q", ErrInvalidField, s)
	}
}

func parseAmount(s string) (generic.Money, error) {
	amount, err := generic.ParseMoney(s)
	if err != nil {
		return generic.Money{}, fmt.Errorf("%w amount: %v", ErrInvalidField, err)
	}
	if !amount.IsPositive() {
		return generic.Money{}, fmt.Errorf("amount %s: %w", s, planner.ErrInvalidAmount)
	}
	return amount, nil
}
