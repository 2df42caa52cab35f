package repository

import (
	"context"
	"testing"
	"time"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/domain"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChargeAndPaymentRepos_ListByPlots(t *testing.T) {
	database := testutil.NewTestDB(t)
	plots := NewSQLitePlotRepo(database)
	charges := NewSQLiteChargeRepo(database)
	payments := NewSQLitePaymentRepo(database)
	ctx := context.Background()

	a, b := testutil.NewTestPlot("1"), testutil.NewTestPlot("2")
	require.NoError(t, plots.Create(ctx, a))
	require.NoError(t, plots.Create(ctx, b))

	require.NoError(t, charges.Create(ctx, testutil.NewTestCharge(a.ID, "1500.50")))
	require.NoError(t, charges.Create(ctx, testutil.NewTestCharge(a.ID, "320",
		testutil.WithChargeKind(domain.ChargeElectricity), testutil.WithPeriod("2024-05"))))
	require.NoError(t, charges.Create(ctx, testutil.NewTestCharge(b.ID, "999")))
	require.NoError(t, payments.Create(ctx, testutil.NewTestPayment(a.ID, "1000")))

	gotCharges, err := charges.ListByPlots(ctx, []string{a.ID})
	require.NoError(t, err)
	require.Len(t, gotCharges, 2)
	total := decimal.Zero
	for _, c := range gotCharges {
		total = total.Add(c.Amount)
	}
	assert.Equal(t, "1820.5", total.String())

	gotPayments, err := payments.ListByPlots(ctx, []string{a.ID, b.ID})
	require.NoError(t, err)
	require.Len(t, gotPayments, 1)
	assert.Equal(t, domain.PaymentBank, gotPayments[0].Source)
	assert.Nil(t, gotPayments[0].ConfirmationID)

	empty, err := charges.ListByPlots(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	all, err := charges.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestPaymentRepo_ConfirmationBookedOnce(t *testing.T) {
	database := testutil.NewTestDB(t)
	users := NewSQLiteUserRepo(database)
	plots := NewSQLitePlotRepo(database)
	confirmations := NewSQLiteConfirmationRepo(database)
	payments := NewSQLitePaymentRepo(database)
	ctx := context.Background()

	u := testutil.NewTestUser("Payer")
	p := testutil.NewTestPlot("4")
	require.NoError(t, users.Create(ctx, u))
	require.NoError(t, plots.Create(ctx, p))
	c := testutil.NewTestConfirmation(u.ID, p.ID, "500")
	require.NoError(t, confirmations.Create(ctx, c))

	book := func() error {
		pay := testutil.NewTestPayment(p.ID, "500")
		pay.Source = domain.PaymentFromConfirmation
		pay.ConfirmationID = &c.ID
		return payments.Create(ctx, pay)
	}
	require.NoError(t, book())
	assert.ErrorIs(t, book(), ErrDuplicate)
}

func TestConfirmationRepo_UpdateDecision(t *testing.T) {
	database := testutil.NewTestDB(t)
	users := NewSQLiteUserRepo(database)
	plots := NewSQLitePlotRepo(database)
	repo := NewSQLiteConfirmationRepo(database)
	ctx := context.Background()

	u := testutil.NewTestUser("Payer")
	reviewer := testutil.NewTestUser("Accountant", testutil.WithRole(domain.RoleAccountant))
	p := testutil.NewTestPlot("8")
	require.NoError(t, users.Create(ctx, u))
	require.NoError(t, users.Create(ctx, reviewer))
	require.NoError(t, plots.Create(ctx, p))

	c := testutil.NewTestConfirmation(u.ID, p.ID, "1200.00")
	c.Comment = "paid via bank app"
	require.NoError(t, repo.Create(ctx, c))

	pending, err := repo.List(ctx, domain.ConfirmationPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "1200", pending[0].Amount.String())

	require.NoError(t, c.Decide(domain.ConfirmationRejected, reviewer.ID, "no receipt", time.Now().UTC()))
	require.NoError(t, repo.Update(ctx, c))

	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ConfirmationRejected, got.Status)
	require.NotNil(t, got.ReviewerID)
	assert.Equal(t, reviewer.ID, *got.ReviewerID)
	assert.Equal(t, "no receipt", got.ReviewNote)
	assert.NotNil(t, got.ReviewedAt)
	assert.Equal(t, "paid via bank app", got.Comment)

	pending, err = repo.List(ctx, domain.ConfirmationPending)
	require.NoError(t, err)
	assert.Empty(t, pending)

	mine, err := repo.ListByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	_, err = repo.GetByID(ctx, uuid.New().String())
	assert.ErrorIs(t, err, ErrNotFound)
}
