package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestNewPlotBalance_DebtIsAccruedMinusPaid(t *testing.T) {
	b := NewPlotBalance("p1", dec("1500.50"), dec("1000"))
	assert.True(t, dec("500.50").Equal(b.Debt), "got %s", b.Debt)

	prepaid := NewPlotBalance("p1", dec("100"), dec("250"))
	assert.True(t, prepaid.Debt.IsNegative(), "overpayment should yield negative debt")
}

func TestComputeBalances_ZeroRowsForQuietPlots(t *testing.T) {
	charges := []*Charge{
		{PlotID: "a", Amount: dec("100")},
		{PlotID: "a", Amount: dec("50.25")},
		{PlotID: "b", Amount: dec("10")},
	}
	payments := []*Payment{{PlotID: "a", Amount: dec("20")}}

	got := ComputeBalances([]string{"a", "b", "c"}, charges, payments)
	require.Len(t, got, 3)
	assert.True(t, dec("130.25").Equal(got[0].Debt))
	assert.True(t, dec("10").Equal(got[1].Debt))
	assert.True(t, got[2].Debt.IsZero())
}

func debtRows() []DebtRow {
	return []DebtRow{
		{PlotNumber: "10", Owner: "Smirnova", Accrued: dec("300"), Paid: dec("0"), Debt: dec("300")},
		{PlotNumber: "2", Owner: "Ivanov", Accrued: dec("100"), Paid: dec("100"), Debt: dec("0")},
		{PlotNumber: "3", Owner: "Petrov", Accrued: dec("500"), Paid: dec("200"), Debt: dec("300")},
		{PlotNumber: "12a", Owner: "Kuznetsov", Accrued: dec("50"), Paid: dec("80"), Debt: dec("-30")},
	}
}

func plotNumbers(rows []DebtRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.PlotNumber
	}
	return out
}

func TestFilterDebts_DefaultSortsByDebtDescWithPlotTieBreak(t *testing.T) {
	got := FilterDebts(debtRows(), DebtFilter{})
	assert.Equal(t, []string{"3", "10", "2", "12a"}, plotNumbers(got))
}

func TestFilterDebts_OnlyDebtors(t *testing.T) {
	got := FilterDebts(debtRows(), DebtFilter{OnlyDebtors: true})
	assert.Equal(t, []string{"3", "10"}, plotNumbers(got))
}

func TestFilterDebts_QueryMatchesOwnerOrPlot(t *testing.T) {
	got := FilterDebts(debtRows(), DebtFilter{Query: "PETR"})
	assert.Equal(t, []string{"3"}, plotNumbers(got))

	got = FilterDebts(debtRows(), DebtFilter{Query: "12"})
	assert.Equal(t, []string{"12a"}, plotNumbers(got))
}

func TestFilterDebts_MinDebt(t *testing.T) {
	min := dec("1")
	got := FilterDebts(debtRows(), DebtFilter{MinDebt: &min})
	assert.Equal(t, []string{"3", "10"}, plotNumbers(got))
}

func TestFilterDebts_SortByPlotAscendingIsNumeric(t *testing.T) {
	got := FilterDebts(debtRows(), DebtFilter{Sort: SortByPlot, Ascending: true})
	assert.Equal(t, []string{"2", "3", "10", "12a"}, plotNumbers(got))
}

func TestFilterDebts_DoesNotMutateInput(t *testing.T) {
	rows := debtRows()
	_ = FilterDebts(rows, DebtFilter{Sort: SortByOwner, Ascending: true})
	assert.Equal(t, "10", rows[0].PlotNumber)
}

func TestPaymentSources(t *testing.T) {
	assert.Equal(t, PaymentSource("confirmation"), PaymentFromConfirmation)
	for _, src := range []PaymentSource{PaymentBank, PaymentCash, PaymentFromConfirmation} {
		assert.True(t, ValidPaymentSources[src], src)
	}
	assert.False(t, ValidPaymentSources["crypto"])
}
