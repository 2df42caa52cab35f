package repository

import (
	"context"
	"testing"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/db"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/domain"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedOwner(t *testing.T, ctx context.Context, users *SQLiteUserRepo, plots *SQLitePlotRepo, numbers ...string) (*domain.User, []*domain.Plot) {
	t.Helper()
	u := testutil.NewTestUser("Owner")
	require.NoError(t, users.Create(ctx, u))
	var created []*domain.Plot
	for i, n := range numbers {
		p := testutil.NewTestPlot(n)
		require.NoError(t, plots.Create(ctx, p))
		require.NoError(t, plots.AddOwner(ctx, u.ID, p.ID, i == 0))
		created = append(created, p)
	}
	return u, created
}

func TestPlotRepo_CreateAndGet(t *testing.T) {
	repo := NewSQLitePlotRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	p := testutil.NewTestPlot("12a", testutil.WithStreet("Lipovaya"), testutil.WithArea("612.5"))
	require.NoError(t, repo.Create(ctx, p))

	got, err := repo.GetByNumber(ctx, "12a")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, "Lipovaya", got.Street)
	assert.Equal(t, "612.5", got.AreaSqm.String())

	_, err = repo.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, repo.Create(ctx, testutil.NewTestPlot("12a")), ErrDuplicate)
}

func TestPlotRepo_ListByUser_PrimaryFirst(t *testing.T) {
	database := testutil.NewTestDB(t)
	users, plots := NewSQLiteUserRepo(database), NewSQLitePlotRepo(database)
	ctx := context.Background()

	u, created := seedOwner(t, ctx, users, plots, "7", "3")

	got, err := plots.ListByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, created[0].ID, got[0].ID)
	assert.True(t, got[0].IsPrimary)
	assert.False(t, got[1].IsPrimary)

	owned, err := plots.IsOwner(ctx, u.ID, created[1].ID)
	require.NoError(t, err)
	assert.True(t, owned)

	owned, err = plots.IsOwner(ctx, "stranger", created[1].ID)
	require.NoError(t, err)
	assert.False(t, owned)
}

func TestPlotRepo_SetPrimary_InTransaction(t *testing.T) {
	database := testutil.NewTestDB(t)
	users, plots := NewSQLiteUserRepo(database), NewSQLitePlotRepo(database)
	uow := testutil.NewTestUoW(database)
	ctx := context.Background()

	u, created := seedOwner(t, ctx, users, plots, "1", "2")

	err := uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return NewSQLitePlotRepo(tx).SetPrimary(ctx, u.ID, created[1].ID)
	})
	require.NoError(t, err)

	got, err := plots.ListByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, created[1].ID, got[0].ID)
	assert.True(t, got[0].IsPrimary)
	assert.False(t, got[1].IsPrimary)
}

func TestPlotRepo_SetPrimary_NotOwned(t *testing.T) {
	database := testutil.NewTestDB(t)
	users, plots := NewSQLiteUserRepo(database), NewSQLitePlotRepo(database)
	ctx := context.Background()

	u, _ := seedOwner(t, ctx, users, plots, "1")
	other := testutil.NewTestPlot("99")
	require.NoError(t, plots.Create(ctx, other))

	err := plots.SetPrimary(ctx, u.ID, other.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPlotRepo_ListOwners(t *testing.T) {
	database := testutil.NewTestDB(t)
	users, plots := NewSQLiteUserRepo(database), NewSQLitePlotRepo(database)
	ctx := context.Background()

	u, created := seedOwner(t, ctx, users, plots, "5")

	owners, err := plots.ListOwners(ctx)
	require.NoError(t, err)
	require.Len(t, owners, 1)
	assert.Equal(t, domain.PlotOwner{PlotID: created[0].ID, UserID: u.ID, FullName: "Owner", IsPrimary: true}, owners[0])
}
