package service

import (
	"context"
	"testing"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/domain"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinanceService_DebtsTable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, a := env.seedResident(t, "Ivanov", domain.MembershipActive, "10")
	_, b := env.seedResident(t, "Petrova", domain.MembershipActive, "2")
	vacant := testutil.NewTestPlot("3")
	require.NoError(t, env.repos.Plots.Create(ctx, vacant))

	require.NoError(t, env.repos.Charges.Create(ctx, testutil.NewTestCharge(a[0].ID, "5000")))
	require.NoError(t, env.repos.Charges.Create(ctx, testutil.NewTestCharge(b[0].ID, "5000")))
	require.NoError(t, env.repos.Payments.Create(ctx, testutil.NewTestPayment(b[0].ID, "4000")))

	rows, err := env.finance.Debts(ctx, domain.DebtFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "10", rows[0].PlotNumber)
	assert.Equal(t, "Ivanov", rows[0].Owner)
	assert.Equal(t, "5000", rows[0].Debt.String())
	assert.Equal(t, "2", rows[1].PlotNumber)
	assert.Equal(t, "3", rows[2].PlotNumber)
	assert.Equal(t, "", rows[2].Owner)

	rows, err = env.finance.Debts(ctx, domain.DebtFilter{Query: "petr"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2", rows[0].PlotNumber)

	minDebt := decimal.NewFromInt(2000)
	rows, err = env.finance.Debts(ctx, domain.DebtFilter{OnlyDebtors: true, MinDebt: &minDebt})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "10", rows[0].PlotNumber)

	rows, err = env.finance.Debts(ctx, domain.DebtFilter{Sort: domain.SortByPlot, Ascending: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "3", "10"}, []string{rows[0].PlotNumber, rows[1].PlotNumber, rows[2].PlotNumber})
}

func TestFinanceService_AccrueCharge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, plots := env.seedResident(t, "Owner", domain.MembershipActive, "1", "2")

	charges, err := env.finance.AccrueCharge(ctx, ChargeInput{
		PlotID: AllPlots, Kind: domain.ChargeTarget, Period: "2024-07", Amount: "1200", Description: "road",
	})
	require.NoError(t, err)
	assert.Len(t, charges, 2)

	one, err := env.finance.AccrueCharge(ctx, ChargeInput{
		PlotID: plots[0].ID, Kind: domain.ChargePenalty, Period: "2024-07", Amount: "50,5",
	})
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "50.5", one[0].Amount.String())

	_, err = env.finance.AccrueCharge(ctx, ChargeInput{PlotID: plots[0].ID, Kind: "gift", Period: "2024-07", Amount: "1"})
	assert.Equal(t, "kind", ValidationCode(err))
	_, err = env.finance.AccrueCharge(ctx, ChargeInput{PlotID: plots[0].ID, Kind: domain.ChargeTarget, Period: "July", Amount: "1"})
	assert.Equal(t, "period", ValidationCode(err))
	_, err = env.finance.AccrueCharge(ctx, ChargeInput{PlotID: "missing", Kind: domain.ChargeTarget, Period: "2024-07", Amount: "1"})
	assert.Equal(t, "plot", ValidationCode(err))
}

func TestFinanceService_RecordPayment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, plots := env.seedResident(t, "Owner", domain.MembershipActive, "1")

	p, err := env.finance.RecordPayment(ctx, PaymentInput{PlotID: plots[0].ID, Amount: "700", PaidAt: "2024-03-05", Source: domain.PaymentCash})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05", p.PaidAt.Format("2006-01-02"))

	_, err = env.finance.RecordPayment(ctx, PaymentInput{PlotID: plots[0].ID, Amount: "700", Source: domain.PaymentFromConfirmation})
	assert.Equal(t, "source", ValidationCode(err))
	_, err = env.finance.RecordPayment(ctx, PaymentInput{PlotID: plots[0].ID, Amount: "700", Source: "crypto"})
	assert.Equal(t, "source", ValidationCode(err))
	_, err = env.finance.RecordPayment(ctx, PaymentInput{PlotID: "nope", Amount: "700"})
	assert.Equal(t, "plot", ValidationCode(err))
}
