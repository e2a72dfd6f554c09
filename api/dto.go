/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Bills and income
  sources reuse the factory document types, so a household seed file and
  an API payload look the same.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Bills:       BillDTO (wraps factory.BillJSON)
  Income:      IncomeSourceDTO (wraps factory.IncomeSourceJSON)
  Plan:        PlanDTO, PlannedBillDTO, PaycheckDTO, ChangeDTO
  Audit:       AllocationRunDTO
  Preview:     OccurrencesRequest, OccurrencesResponse

VALIDATION:
  Validation is done in handlers and the factory, not in DTOs.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/household.go: BillJSON, IncomeSourceJSON
*/
package api

import (
	"time"

	"github.com/warp/paycheck-planner/factory"
	"github.com/warp/paycheck-planner/planner"
)

// =============================================================================
// BILLS AND INCOME
// =============================================================================

// BillDTO represents a bill in API responses.
type BillDTO struct {
	factory.BillJSON
	Recurring bool `json:"recurring"`
}

// IncomeSourceDTO represents an income source in API responses.
type IncomeSourceDTO struct {
	factory.IncomeSourceJSON
}

func toBillDTO(b planner.Bill) BillDTO {
	return BillDTO{BillJSON: factory.BillToJSON(b), Recurring: b.IsRecurring()}
}

func toIncomeSourceDTO(src planner.IncomeSource) IncomeSourceDTO {
	return IncomeSourceDTO{IncomeSourceJSON: factory.IncomeSourceToJSON(src)}
}

// =============================================================================
// PLAN
// =============================================================================

// PlanDTO is one planning pass.
type PlanDTO struct {
	AsOf        string           `json:"as_of"`
	WindowStart string           `json:"window_start"`
	WindowEnd   string           `json:"window_end"`
	Bills       []PlannedBillDTO `json:"bills"`
	Paychecks   []PaycheckDTO    `json:"paychecks"`
	Unassigned  []string         `json:"unassigned"`
	Changes     []ChangeDTO      `json:"changes"`
	Applied     bool             `json:"applied"`
}

// PlannedBillDTO is a bill as the planner sees it.
type PlannedBillDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Amount     string `json:"amount"`
	Due        string `json:"due"`
	Cycle      string `json:"cycle"`
	PaycheckID string `json:"paycheck_id,omitempty"` // empty for paid bills
	Paid       bool   `json:"paid"`
}

// PaycheckDTO is a projected paycheck with the bills it covers.
type PaycheckDTO struct {
	ID          string   `json:"id"`
	SourceID    string   `json:"source_id"`
	Date        string   `json:"date"`
	Amount      string   `json:"amount"`
	BillIDs     []string `json:"bill_ids"`
	BillsTotal  string   `json:"bills_total"`
	SafeToSpend string   `json:"safe_to_spend"`
	Overloaded  bool     `json:"overloaded"`
}

// ChangeDTO is one assignment change.
type ChangeDTO struct {
	BillID     string `json:"bill_id"`
	PaycheckID string `json:"paycheck_id"`
}

func toPlanDTO(plan *planner.Plan) PlanDTO {
	dto := PlanDTO{
		AsOf:        plan.AsOf.String(),
		WindowStart: plan.Window.Start.String(),
		WindowEnd:   plan.Window.End.String(),
		Bills:       make([]PlannedBillDTO, len(plan.Bills)),
		Paychecks:   make([]PaycheckDTO, len(plan.Allocation.Buckets)),
		Unassigned:  make([]string, len(plan.Allocation.Unassigned)),
		Changes:     toChangeDTOs(plan.Allocation.Changes),
		Applied:     plan.Applied,
	}

	for i, b := range plan.Bills {
		dto.Bills[i] = PlannedBillDTO{
			ID:         string(b.ID),
			Name:       b.Name,
			Amount:     b.Amount.Exact(),
			Due:        b.Due.String(),
			Cycle:      string(plan.Cycles[b.ID]),
			PaycheckID: string(plan.Allocation.Assignments[b.ID]),
			Paid:       b.Paid,
		}
	}

	for i, bk := range plan.Allocation.Buckets {
		ids := make([]string, len(bk.BillIDs))
		for j, id := range bk.BillIDs {
			ids[j] = string(id)
		}
		dto.Paychecks[i] = PaycheckDTO{
			ID:          string(bk.Paycheck.ID),
			SourceID:    string(bk.Paycheck.SourceID),
			Date:        bk.Paycheck.Date.String(),
			Amount:      bk.Paycheck.Amount.Exact(),
			BillIDs:     ids,
			BillsTotal:  bk.BillsTotal.Exact(),
			SafeToSpend: bk.SafeToSpend().Exact(),
			Overloaded:  bk.Overloaded(),
		}
	}

	for i, id := range plan.Allocation.Unassigned {
		dto.Unassigned[i] = string(id)
	}
	return dto
}

func toChangeDTOs(changes []planner.Change) []ChangeDTO {
	out := make([]ChangeDTO, len(changes))
	for i, c := range changes {
		out[i] = ChangeDTO{BillID: string(c.BillID), PaycheckID: string(c.PaycheckID)}
	}
	return out
}

// =============================================================================
// AUDIT
// =============================================================================

// AllocationRunDTO is one applied rebalance.
type AllocationRunDTO struct {
	ID        string      `json:"id"`
	AppliedAt time.Time   `json:"applied_at"`
	Changes   []ChangeDTO `json:"changes"`
}

// =============================================================================
// OCCURRENCE PREVIEW
// =============================================================================

// OccurrencesRequest previews a rule from a start date.
type OccurrencesRequest struct {
	Rule      factory.RuleJSON `json:"rule"`
	Start     string           `json:"start"`
	Count     int              `json:"count,omitempty"`      // default 12
	WindowEnd string           `json:"window_end,omitempty"` // YYYY-MM-DD
}

// OccurrencesResponse lists the previewed dates.
type OccurrencesResponse struct {
	Kind  string   `json:"kind"`
	Dates []string `json:"dates"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
