package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	apierrors "github.com/SmokyRM/snt-ulybka-sub000/internal/errors"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/domain"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/middleware"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/repository"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/service"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/session"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/testutil"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEnv struct {
	db    *sql.DB
	repos service.CabinetRepos
	svc   Services
	h     *Handlers
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	database := testutil.NewTestDB(t)
	uow := testutil.NewTestUoW(database)
	repos := service.CabinetRepos{
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
	onboarding := service.NewOnboardingService(repos.Users, repository.NewSQLiteDraftRepo(database), uow)
	svc := Services{
		Auth:          service.NewAuthService(repos.Users, session.NewSQLiteStore(database), time.Hour),
		Onboarding:    onboarding,
		Cabinet:       service.NewCabinetService(repos, onboarding, uow),
		Confirmations: service.NewConfirmationService(repos.Confirmations, repos.Plots, uow),
		Finance:       service.NewFinanceService(repos.Plots, repos.Charges, repos.Payments, uow),
		Appeals:       service.NewAppealService(repos.Appeals),
		Memberships:   service.NewMembershipService(repos.Memberships, repos.Users),
		Content:       service.NewContentService(repos.Content),
	}
	logger := zap.NewNop()
	h, err := NewHandlers(svc, nil, apierrors.NewHandler(logger, middleware.GetRequestID), logger, opts)
	require.NoError(t, err)
	return &testEnv{db: database, repos: repos, svc: svc, h: h}
}

// seedUser stores a user owning the given plots; the first plot is primary.
func (e *testEnv) seedUser(t *testing.T, u *domain.User, status domain.MembershipStatus, plotNumbers ...string) []*domain.Plot {
	t.Helper()
	ctx := context.Background()
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
	return plots
}

// as attaches a principal for u with its stored role.
func as(r *http.Request, u *domain.User) *http.Request {
	if u == nil {
		return r
	}
	p := &middleware.Principal{User: u, Role: u.Role, Token: "test-token"}
	return r.WithContext(middleware.WithPrincipal(r.Context(), p))
}

func withVars(r *http.Request, vars map[string]string) *http.Request {
	return mux.SetURLVars(r, vars)
}

func postForm(target string, form url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func postJSON(method, target, body string) *http.Request {
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func serve(fn http.HandlerFunc, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	fn(rec, r)
	return rec
}
