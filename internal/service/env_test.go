package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/db"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/domain"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/repository"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/session"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/testutil"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	db            *sql.DB
	uow           db.UnitOfWork
	repos         CabinetRepos
	drafts        repository.DraftRepo
	auth          AuthService
	onboarding    OnboardingService
	cabinet       CabinetService
	confirmations ConfirmationService
	finance       FinanceService
	appeals       AppealService
	memberships   MembershipService
	content       ContentService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	database := testutil.NewTestDB(t)
	uow := testutil.NewTestUoW(database)
	repos := CabinetRepos{
		Users:         repository.NewSQLiteUserRepo(database),
		Plots:         repository.NewSQLitePlotRepo(database),
		Memberships:   repository.NewSQLiteMembershipRepo(database),
		Appeals:       repository.NewSQLiteAppealRepo(database),
		Charges:       repository.NewSQLiteChargeRepo(database),
		Payments:      repository.NewSQLitePaymentRepo(database),
		Electricity:   repository.NewSQLiteElectricityRepo(database),
		Confirmations: repository.NewSQLiteConfirmationRepo(database),
		Content:       repository.NewSQLiteContentRepo(database),
	}
	drafts := repository.NewSQLiteDraftRepo(database)
	onboarding := NewOnboardingService(repos.Users, drafts, uow)

	return &testEnv{
		db:            database,
		uow:           uow,
		repos:         repos,
		drafts:        drafts,
		auth:          NewAuthService(repos.Users, session.NewSQLiteStore(database), time.Hour),
		onboarding:    onboarding,
		cabinet:       NewCabinetService(repos, onboarding, uow),
		confirmations: NewConfirmationService(repos.Confirmations, repos.Plots, uow),
		finance:       NewFinanceService(repos.Plots, repos.Charges, repos.Payments, uow),
		appeals:       NewAppealService(repos.Appeals),
		memberships:   NewMembershipService(repos.Memberships, repos.Users),
		content:       NewContentService(repos.Content),
	}
}

// seedResident creates an onboarded resident owning plots; the first plot
// is primary.
func (e *testEnv) seedResident(t *testing.T, name string, status domain.MembershipStatus, plotNumbers ...string) (*domain.User, []*domain.Plot) {
	t.Helper()
	ctx := context.Background()
	u := testutil.NewTestUser(name)
	require.NoError(t, e.repos.Users.Create(ctx, u))
	var plots []*domain.Plot
	for i, n := range plotNumbers {
		p := testutil.NewTestPlot(n)
		require.NoError(t, e.repos.Plots.Create(ctx, p))
		require.NoError(t, e.repos.Plots.AddOwner(ctx, u.ID, p.ID, i == 0))
		plots = append(plots, p)
	}
	if status != "" {
		require.NoError(t, e.repos.Memberships.Upsert(ctx, &domain.Membership{UserID: u.ID, Status: status}))
	}
	return u, plots
}
