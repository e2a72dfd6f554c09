/*
handlers.go - HTTP API handlers for the paycheck planner

PURPOSE:
  Exposes bills, income sources and the planner via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to the planner.

ENDPOINTS:
  Bills:
    GET    /api/bills              List all bills
    POST   /api/bills              Create or replace a bill
    GET    /api/bills/{id}         Get a bill
    DELETE /api/bills/{id}         Delete a bill
    POST   /api/bills/{id}/paid    Mark a bill paid (rolls recurring bills forward)

  Income:
    GET    /api/income             List income sources
    POST   /api/income             Create or replace an income source
    DELETE /api/income/{id}        Delete an income source

  Plan:
    GET    /api/plan               Dry run: paychecks, cycles, proposed changes
    POST   /api/plan/rebalance     Apply the proposed changes
    GET    /api/plan/runs          Applied runs, newest first

  Preview:
    POST   /api/occurrences        Expand a rule from a start date

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 500: Internal errors

SECURITY NOTE:
  No authentication or authorization. Run behind a trusted proxy.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/warp/paycheck-planner/factory"
	"github.com/warp/paycheck-planner/generic"
	"github.com/warp/paycheck-planner/planner"
)

// defaultPreviewCount is the number of dates a preview returns without a count.
const defaultPreviewCount = 12

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   planner.Store
	Planner *planner.Planner
	Log     *logrus.Entry
}

// NewHandler creates a handler over a store and a planner that reads it.
func NewHandler(store planner.Store, p *planner.Planner, log *logrus.Entry) *Handler {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Handler{Store: store, Planner: p, Log: log}
}

// =============================================================================
// BILL HANDLERS
// =============================================================================

// ListBills returns all bills.
func (h *Handler) ListBills(w http.ResponseWriter, r *http.Request) {
	bills, err := h.Store.LoadBills(r.Context())
	if err != nil {
		h.handleError(w, "Failed to list bills", err)
		return
	}

	dtos := make([]BillDTO, len(bills))
	for i, b := range bills {
		dtos[i] = toBillDTO(b)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateBill stores a bill. A body without id gets a new one.
func (h *Handler) CreateBill(w http.ResponseWriter, r *http.Request) {
	var req factory.BillJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	bill, err := factory.BillFromJSON(req)
	if err != nil {
		h.handleError(w, "Invalid bill", err)
		return
	}
	if err := h.Store.SaveBill(r.Context(), bill); err != nil {
		h.handleError(w, "Failed to save bill", err)
		return
	}

	h.Log.WithField("bill_id", bill.ID).Info("bill saved")
	writeJSON(w, http.StatusCreated, toBillDTO(bill))
}

// GetBill returns one bill.
func (h *Handler) GetBill(w http.ResponseWriter, r *http.Request) {
	bill, err := h.Store.GetBill(r.Context(), planner.BillID(chi.URLParam(r, "id")))
	if err != nil {
		h.handleError(w, "Bill not found", err)
		return
	}
	writeJSON(w, http.StatusOK, toBillDTO(*bill))
}

// DeleteBill removes a bill.
func (h *Handler) DeleteBill(w http.ResponseWriter, r *http.Request) {
	id := planner.BillID(chi.URLParam(r, "id"))
	if err := h.Store.DeleteBill(r.Context(), id); err != nil {
		h.handleError(w, "Failed to delete bill", err)
		return
	}

	h.Log.WithField("bill_id", id).Info("bill deleted")
	w.WriteHeader(http.StatusNoContent)
}

// MarkBillPaid settles a bill. Recurring bills come back with their next
// due date and no assignment until the next rebalance.
func (h *Handler) MarkBillPaid(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bill, err := h.Store.GetBill(ctx, planner.BillID(chi.URLParam(r, "id")))
	if err != nil {
		h.handleError(w, "Bill not found", err)
		return
	}

	paid := planner.MarkPaid(*bill)
	if err := h.Store.SaveBill(ctx, paid); err != nil {
		h.handleError(w, "Failed to save bill", err)
		return
	}

	h.Log.WithFields(logrus.Fields{
		"bill_id":  paid.ID,
		"next_due": paid.Due.String(),
		"settled":  paid.Paid,
	}).Info("bill marked paid")
	writeJSON(w, http.StatusOK, toBillDTO(paid))
}

// =============================================================================
// INCOME HANDLERS
// =============================================================================

// ListIncome returns all income sources.
func (h *Handler) ListIncome(w http.ResponseWriter, r *http.Request) {
	sources, err := h.Store.LoadIncomeSources(r.Context())
	if err != nil {
		h.handleError(w, "Failed to list income sources", err)
		return
	}

	dtos := make([]IncomeSourceDTO, len(sources))
	for i, src := range sources {
		dtos[i] = toIncomeSourceDTO(src)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateIncome stores an income source.
func (h *Handler) CreateIncome(w http.ResponseWriter, r *http.Request) {
	var req factory.IncomeSourceJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	src, err := factory.IncomeSourceFromJSON(req)
	if err != nil {
		h.handleError(w, "Invalid income source", err)
		return
	}
	if err := h.Store.SaveIncomeSource(r.Context(), src); err != nil {
		h.handleError(w, "Failed to save income source", err)
		return
	}

	h.Log.WithField("income_source_id", src.ID).Info("income source saved")
	writeJSON(w, http.StatusCreated, toIncomeSourceDTO(src))
}

// DeleteIncome removes an income source.
func (h *Handler) DeleteIncome(w http.ResponseWriter, r *http.Request) {
	id := planner.IncomeSourceID(chi.URLParam(r, "id"))
	if err := h.Store.DeleteIncomeSource(r.Context(), id); err != nil {
		h.handleError(w, "Failed to delete income source", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PLAN HANDLERS
// =============================================================================

// GetPlan computes a plan without writing anything.
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.Planner.Plan(r.Context())
	if err != nil {
		h.handleError(w, "Failed to compute plan", err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanDTO(plan))
}

// Rebalance computes a plan and writes its changes.
func (h *Handler) Rebalance(w http.ResponseWriter, r *http.Request) {
	plan, err := h.Planner.Rebalance(r.Context())
	if err != nil {
		h.handleError(w, "Failed to rebalance", err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanDTO(plan))
}

// ListRuns returns applied allocation runs. ?limit=N caps the list (default 20).
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}

	runs, err := h.Store.AllocationRuns(r.Context(), limit)
	if err != nil {
		h.handleError(w, "Failed to list allocation runs", err)
		return
	}

	dtos := make([]AllocationRunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = AllocationRunDTO{ID: run.ID, AppliedAt: run.AppliedAt, Changes: toChangeDTOs(run.Changes)}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// OCCURRENCE PREVIEW
// =============================================================================

// PreviewOccurrences expands a rule without touching the store.
func (h *Handler) PreviewOccurrences(w http.ResponseWriter, r *http.Request) {
	var req OccurrencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rule, err := factory.RuleFromJSON(req.Rule)
	if err != nil {
		h.handleError(w, "Invalid rule", err)
		return
	}
	start, err := generic.ParseDate(req.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start date", err)
		return
	}

	limits := generic.Limits{MaxCount: req.Count}
	if limits.MaxCount <= 0 {
		limits.MaxCount = defaultPreviewCount
	}
	if limits.MaxCount > generic.DefaultMaxCount {
		limits.MaxCount = generic.DefaultMaxCount
	}
	if req.WindowEnd != "" {
		end, err := generic.ParseDate(req.WindowEnd)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid window end", err)
			return
		}
		limits.WindowEnd = &end
	}

	resp := OccurrencesResponse{Kind: string(rule.Kind())}
	for d := range generic.Sequence(rule, start, limits) {
		resp.Dates = append(resp.Dates, d.String())
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// HELPERS
// =============================================================================

// handleError picks the status from the error's kind.
func (h *Handler) handleError(w http.ResponseWriter, message string, err error) {
	switch {
	case planner.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case planner.IsClientError(err), errors.Is(err, factory.ErrInvalidField), errors.Is(err, factory.ErrInvalidHousehold):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.Log.WithError(err).Error(message)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
