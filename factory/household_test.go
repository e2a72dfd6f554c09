package factory_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/paycheck-planner/factory"
	"github.com/warp/paycheck-planner/generic"
	"github.com/warp/paycheck-planner/planner"
	"github.com/warp/paycheck-planner/store/memory"
)

const householdYAML = `
bills:
  - id: rent
    name: Rent
    amount: "1500.00"
    due: 2024-01-31
    rule: {kind: monthly}
  - name: Dentist
    amount: "120"
    due: 2024-01-18
income:
  - id: job
    name: Acme payroll
    amount: "2400"
    next_payday: 2024-01-05
    rule: {kind: weekly, interval: 2}
`

func TestParseHouseholdYAML(t *testing.T) {
	h, err := factory.ParseHouseholdYAML([]byte(householdYAML))
	require.NoError(t, err)

	require.Len(t, h.Bills, 2)
	rent := h.Bills[0]
	assert.Equal(t, planner.BillID("rent"), rent.ID)
	assert.True(t, rent.Amount.Equal(generic.MustParseMoney("1500")))
	assert.Equal(t, "2024-01-31", rent.Due.String())
	require.NotNil(t, rent.Rule)
	assert.Equal(t, generic.KindMonthly, rent.Rule.Kind())
	assert.Equal(t, planner.CycleCurrent, rent.Cycle)

	dentist := h.Bills[1]
	assert.NotEmpty(t, dentist.ID, "id is generated")
	assert.Nil(t, dentist.Rule)
	assert.False(t, dentist.IsRecurring())

	require.Len(t, h.Income, 1)
	assert.Equal(t, generic.Weekly{Interval: 2}, h.Income[0].Rule.Freq)
	assert.Equal(t, "2024-01-05", h.Income[0].NextPayday.String())
}

func TestParseHouseholdJSON(t *testing.T) {
	doc := `{
		"bills": [{"id": "b1", "name": "Phone", "amount": "80", "due": "2024-01-12", "assigned_paycheck_id": "job#0"}],
		"income": [{"id": "job", "name": "Job", "amount": "1000", "next_payday": "2024-01-05", "rule": {"kind": "weekly", "interval": 2}}]
	}`

	h, err := factory.ParseHouseholdJSON([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, planner.PaycheckID("job#0"), h.Bills[0].AssignedPaycheckID)
	assert.Len(t, h.Income, 1)
}

func TestParseHousehold_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{
			name:    "zero amount",
			doc:     `{"bills":[{"name":"x","amount":"0","due":"2024-01-01"}]}`,
			wantErr: planner.ErrInvalidAmount,
		},
		{
			name:    "negative income",
			doc:     `{"income":[{"name":"x","amount":"-5","next_payday":"2024-01-01","rule":{"kind":"daily"}}]}`,
			wantErr: planner.ErrInvalidAmount,
		},
		{
			name:    "duplicate bill",
			doc:     `{"bills":[{"id":"a","amount":"1","due":"2024-01-01"},{"id":"a","amount":"2","due":"2024-01-02"}]}`,
			wantErr: planner.ErrDuplicateBill,
		},
		{
			name:    "bad rule",
			doc:     `{"bills":[{"amount":"1","due":"2024-01-01","rule":{"kind":"daily","count":2,"until":"2024-02-01"}}]}`,
			wantErr: generic.ErrInvalidRule,
		},
		{
			name:    "bad date",
			doc:     `{"bills":[{"amount":"1","due":"01/02/2024"}]}`,
			wantErr: factory.ErrInvalidHousehold,
		},
		{
			name:    "unknown cycle",
			doc:     `{"bills":[{"amount":"1","due":"2024-01-01","cycle":"bogus"}]}`,
			wantErr: factory.ErrInvalidField,
		},
		{
			name:    "not json",
			doc:     `[`,
			wantErr: factory.ErrInvalidHousehold,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := factory.ParseHouseholdJSON([]byte(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBillJSONRoundTrip(t *testing.T) {
	rule := generic.Rule{Freq: generic.MonthlyByDay{Interval: 1}, End: generic.AfterCount{N: 6}}
	b := planner.Bill{
		ID:                 "rent",
		Name:               "Rent",
		Amount:             generic.MustParseMoney("1500.50"),
		Due:                generic.MustParseDate("2024-02-29"),
		Anchor:             generic.MustParseDate("2024-01-31"),
		Rule:               &rule,
		Cycle:              planner.CycleNext,
		AssignedPaycheckID: "job#3",
	}

	got, err := factory.BillFromJSON(factory.BillToJSON(b))
	require.NoError(t, err)

	assert.Equal(t, b.ID, got.ID)
	assert.True(t, b.Amount.Equal(got.Amount))
	assert.Equal(t, b.Due.String(), got.Due.String())
	assert.Equal(t, b.Anchor.String(), got.Anchor.String())
	assert.Equal(t, rule, *got.Rule)
	assert.Equal(t, b.Cycle, got.Cycle)
	assert.Equal(t, b.AssignedPaycheckID, got.AssignedPaycheckID)
}

func TestLoadHouseholdAndSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "household.yaml")
	require.NoError(t, os.WriteFile(path, []byte(householdYAML), 0o600))

	h, err := factory.LoadHousehold(path)
	require.NoError(t, err)

	ctx := context.Background()
	store := memory.NewMemory()
	require.NoError(t, factory.Seed(ctx, store, h))

	bills, err := store.LoadBills(ctx)
	require.NoError(t, err)
	assert.Len(t, bills, 2)

	_, err = store.GetIncomeSource(ctx, "job")
	assert.NoError(t, err)

	_, err = factory.LoadHousehold(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestBillJSONRoundTrip_SubCentAmounts(t *testing.T) {
	// Amounts finer than a cent survive a trip through the document form
	for _, amount := range []string{"19.999", "0.004", "1500.505"} {
		t.Run(amount, func(t *testing.T) {
			b := planner.Bill{
				ID: "utility", Amount: generic.MustParseMoney(amount),
				Due: generic.MustParseDate("2024-01-15"), Cycle: planner.CycleCurrent,
			}

			bj := factory.BillToJSON(b)
			assert.Equal(t, amount, bj.Amount)

			got, err := factory.BillFromJSON(bj)
			require.NoError(t, err)
			assert.True(t, b.Amount.Equal(got.Amount))
		})
	}
}

func TestIncomeSourceToJSON_KeepsExactAmount(t *testing.T) {
	src := planner.IncomeSource{
		ID: "job", Amount: generic.MustParseMoney("2400.125"),
		NextPayday: generic.MustParseDate("2024-01-05"),
		Rule:       generic.Rule{Freq: generic.Weekly{Interval: 2}},
	}
	assert.Equal(t, "2400.125", factory.IncomeSourceToJSON(src).Amount)
}

func TestBillFromJSON_Cycle(t *testing.T) {
	tests := []struct {
		in   string
		want planner.Cycle
	}{
		{in: "", want: planner.CycleCurrent},
		{in: "next", want: planner.CycleNext},
		{in: "Previous", want: planner.CyclePrevious},
	}
	for _, tt := range tests {
		b, err := factory.BillFromJSON(factory.BillJSON{Amount: "1", Due: "2024-01-01", Cycle: tt.in})
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, b.Cycle)
	}

	_, err := factory.BillFromJSON(factory.BillJSON{Amount: "1", Due: "2024-01-01", Cycle: "bogus"})
	assert.ErrorIs(t, err, factory.ErrInvalidField)
}
