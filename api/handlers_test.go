package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/paycheck-planner/api"
	"github.com/warp/paycheck-planner/generic"
	"github.com/warp/paycheck-planner/planner"
	"github.com/warp/paycheck-planner/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type testServer struct {
	router http.Handler
	store  *sqlite.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger, _ := test.NewNullLogger()
	log := logrus.NewEntry(logger)

	p := planner.NewPlanner(store, log)
	p.Clock = generic.FixedClock{At: time.Date(2024, time.January, 10, 12, 0, 0, 0, time.UTC)}

	h := api.NewHandler(store, p, log)
	return &testServer{router: api.NewRouter(h, nil), store: store}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (s *testServer) seed(t *testing.T) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/income", map[string]any{
		"id": "job", "name": "Payroll", "amount": "1000", "next_payday": "2024-01-05",
		"rule": map[string]any{"kind": "weekly", "interval": 2},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	for _, b := range []map[string]any{
		{"id": "phone", "name": "Phone", "amount": "80", "due": "2024-01-12"},
		{"id": "rent", "name": "Rent", "amount": "900", "due": "2024-01-25", "rule": map[string]any{"kind": "monthly"}},
	} {
		rec := s.do(t, http.MethodPost, "/api/bills", b)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
}

// =============================================================================
// BILLS
// =============================================================================

func TestCreateBill_GeneratesID(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/bills", map[string]any{
		"name": "Water", "amount": "42.10", "due": "2024-01-20",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	created := decode[api.BillDTO](t, rec)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "42.1", created.Amount)
	assert.False(t, created.Recurring)

	rec = s.do(t, http.MethodGet, "/api/bills/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateBill_Validation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body any
	}{
		{name: "zero amount", body: map[string]any{"amount": "0", "due": "2024-01-20"}},
		{name: "bad amount", body: map[string]any{"amount": "lots", "due": "2024-01-20"}},
		{name: "bad date", body: map[string]any{"amount": "5", "due": "20/01/2024"}},
		{name: "bad rule", body: map[string]any{"amount": "5", "due": "2024-01-20", "rule": map[string]any{"kind": "daily", "count": 2, "until": "2024-02-01"}}},
		{name: "not an object", body: []int{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/bills", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			resp := decode[api.ErrorResponse](t, rec)
			assert.NotEmpty(t, resp.Error)
			assert.NotEmpty(t, resp.Details)
		})
	}
}

func TestBill_SubCentAmountRoundTrip(t *testing.T) {
	// GIVEN: A bill with an amount below one cent
	// WHEN: It is read back and posted again unchanged
	// THEN: The amount is exact both times and the repost is accepted

	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/bills", map[string]any{
		"id": "fee", "name": "Fee", "amount": "0.004", "due": "2024-01-20",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	got := decode[api.BillDTO](t, s.do(t, http.MethodGet, "/api/bills/fee", nil))
	assert.Equal(t, "0.004", got.Amount)

	rec = s.do(t, http.MethodPost, "/api/bills", got.BillJSON)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "0.004", decode[api.BillDTO](t, rec).Amount)
}

func TestCreateBill_UnknownCycle(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/bills", map[string]any{
		"amount": "5", "due": "2024-01-20", "cycle": "bogus",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	bills := decode[[]api.BillDTO](t, s.do(t, http.MethodGet, "/api/bills", nil))
	assert.Empty(t, bills)
}

func TestGetBill_NotFound(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/bills/nope", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/api/bills/nope", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/api/bills/nope/paid", nil).Code)
}

func TestMarkBillPaid(t *testing.T) {
	// GIVEN: A monthly rent bill assigned by a rebalance
	// WHEN: It is marked paid
	// THEN: It rolls to next month's due date and loses its assignment

	s := newTestServer(t)
	s.seed(t)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/plan/rebalance", nil).Code)

	rec := s.do(t, http.MethodPost, "/api/bills/rent/paid", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rent := decode[api.BillDTO](t, rec)
	assert.Equal(t, "2024-02-25", rent.Due)
	assert.Equal(t, string(planner.Unassigned), rent.AssignedPaycheckID)
	assert.False(t, rent.Paid)

	rec = s.do(t, http.MethodPost, "/api/bills/phone/paid", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	phone := decode[api.BillDTO](t, rec)
	assert.True(t, phone.Paid)
	assert.Equal(t, string(planner.CyclePrevious), phone.Cycle)
}

func TestDeleteBill(t *testing.T) {
	s := newTestServer(t)
	s.seed(t)

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/api/bills/phone", nil).Code)

	bills := decode[[]api.BillDTO](t, s.do(t, http.MethodGet, "/api/bills", nil))
	require.Len(t, bills, 1)
	assert.Equal(t, "rent", bills[0].ID)
	assert.True(t, bills[0].Recurring)
}

// =============================================================================
// INCOME
// =============================================================================

func TestIncome_ListAndDelete(t *testing.T) {
	s := newTestServer(t)
	s.seed(t)

	sources := decode[[]api.IncomeSourceDTO](t, s.do(t, http.MethodGet, "/api/income", nil))
	require.Len(t, sources, 1)
	assert.Equal(t, "weekly", sources[0].Rule.Kind)
	assert.Equal(t, 2, sources[0].Rule.Interval)

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/api/income/job", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/api/income/job", nil).Code)
}

// =============================================================================
// PLAN
// =============================================================================

func TestGetPlan_DryRun(t *testing.T) {
	s := newTestServer(t)
	s.seed(t)

	rec := s.do(t, http.MethodGet, "/api/plan", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	plan := decode[api.PlanDTO](t, rec)
	assert.Equal(t, "2024-01-10", plan.AsOf)
	assert.Equal(t, "2024-01-31", plan.WindowEnd)
	require.Len(t, plan.Paychecks, 2)
	assert.Equal(t, "job#0", plan.Paychecks[0].ID)
	assert.Equal(t, []string{"phone"}, plan.Paychecks[0].BillIDs)
	assert.Equal(t, "920", plan.Paychecks[0].SafeToSpend)
	assert.Equal(t, []string{"rent"}, plan.Paychecks[1].BillIDs)
	assert.Len(t, plan.Changes, 2)
	assert.False(t, plan.Applied)

	byID := map[string]api.PlannedBillDTO{}
	for _, b := range plan.Bills {
		byID[b.ID] = b
	}
	assert.Equal(t, "current", byID["phone"].Cycle)
	assert.Equal(t, "next", byID["rent"].Cycle)

	// nothing written
	stored, err := s.store.GetBill(context.Background(), "rent")
	require.NoError(t, err)
	assert.Equal(t, planner.Unassigned, stored.AssignedPaycheckID)
}

func TestRebalance_AppliesOnceAndRecordsRun(t *testing.T) {
	s := newTestServer(t)
	s.seed(t)

	first := decode[api.PlanDTO](t, s.do(t, http.MethodPost, "/api/plan/rebalance", nil))
	assert.True(t, first.Applied)
	assert.Len(t, first.Changes, 2)

	second := decode[api.PlanDTO](t, s.do(t, http.MethodPost, "/api/plan/rebalance", nil))
	assert.False(t, second.Applied)
	assert.Empty(t, second.Changes)

	runs := decode[[]api.AllocationRunDTO](t, s.do(t, http.MethodGet, "/api/plan/runs?limit=5", nil))
	require.Len(t, runs, 1)
	assert.Len(t, runs[0].Changes, 2)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/plan/runs?limit=zero", nil).Code)
}

// =============================================================================
// OCCURRENCE PREVIEW
// =============================================================================

func TestPreviewOccurrences(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/occurrences", map[string]any{
		"rule":  map[string]any{"kind": "monthly", "by_set_pos": 2, "by_week_day": "WE"},
		"start": "2024-01-10",
		"count": 3,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[api.OccurrencesResponse](t, rec)
	assert.Equal(t, "monthly", resp.Kind)
	assert.Equal(t, []string{"2024-01-10", "2024-02-14", "2024-03-13"}, resp.Dates)
}

func TestPreviewOccurrences_WindowEndAndDefaults(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/occurrences", map[string]any{
		"rule":       map[string]any{"kind": "daily"},
		"start":      "2024-01-01",
		"window_end": "2024-01-05",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[api.OccurrencesResponse](t, rec).Dates, 5)

	rec = s.do(t, http.MethodPost, "/api/occurrences", map[string]any{
		"rule":  map[string]any{"kind": "daily"},
		"start": "2024-01-01",
	})
	assert.Len(t, decode[api.OccurrencesResponse](t, rec).Dates, 12)
}

func TestPreviewOccurrences_BadInput(t *testing.T) {
	s := newTestServer(t)

	for _, body := range []map[string]any{
		{"rule": map[string]any{"kind": "daily"}, "start": "soon"},
		{"rule": map[string]any{"kind": "monthly", "by_month_day": 40}, "start": "2024-01-01"},
		{"rule": map[string]any{"kind": "daily"}, "start": "2024-01-01", "window_end": "later"},
	} {
		rec := s.do(t, http.MethodPost, "/api/occurrences", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/healthz", nil).Code)
}
