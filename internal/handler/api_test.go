package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/contract"
	apierrors "github.com/SmokyRM/snt-ulybka-sub000/internal/errors"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/domain"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/middleware"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/qa"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/service"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestDebtsAPI_SortsAndFilters(t *testing.T) {
	env := newTestEnv(t, Options{})
	ctx := context.Background()
	a := testutil.NewTestUser("Андреев")
	b := testutil.NewTestUser("Борисов")
	pa := env.seedUser(t, a, domain.MembershipActive, "2")
	pb := env.seedUser(t, b, domain.MembershipActive, "10")

	_, err := env.svc.Finance.AccrueCharge(ctx, service.ChargeInput{
		PlotID: service.AllPlots, Kind: domain.ChargeMembership, Period: "2026-01", Amount: "1000",
	})
	require.NoError(t, err)
	_, err = env.svc.Finance.RecordPayment(ctx, service.PaymentInput{
		PlotID: pa[0].ID, Amount: "1000", PaidAt: "2026-01-20", Source: domain.PaymentBank,
	})
	require.NoError(t, err)

	rec := serve(env.h.DebtsAPI, httptest.NewRequest(http.MethodGet, "/api/admin/billing/debts?onlyDebtors=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[contract.DebtsResponse](t, rec)
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, pb[0].ID, resp.Rows[0].PlotID)
	assert.True(t, decimal.NewFromInt(1000).Equal(resp.TotalDebt))

	rec = serve(env.h.DebtsAPI, httptest.NewRequest(http.MethodGet, "/api/admin/billing/debts?sort=plot", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decodeBody[contract.DebtsResponse](t, rec)
	require.Len(t, resp.Rows, 2)
	assert.Equal(t, "2", resp.Rows[0].PlotNumber)
	assert.Equal(t, "10", resp.Rows[1].PlotNumber)
}

func TestDebtsAPI_RejectsUnknownSort(t *testing.T) {
	env := newTestEnv(t, Options{})
	rec := serve(env.h.DebtsAPI, httptest.NewRequest(http.MethodGet, "/api/admin/billing/debts?sort=color", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeBody[apierrors.ErrorResponse](t, rec)
	assert.Equal(t, apierrors.ErrorCodeInvalidRequest, resp.ErrorCode)
}

func TestAccrueCharge_RejectsUnknownFields(t *testing.T) {
	env := newTestEnv(t, Options{})
	rec := serve(env.h.AccrueCharge, postJSON(http.MethodPost, "/api/admin/charges", `{"plot_id":"all","bogus":1}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConfirmations_StatusFilter(t *testing.T) {
	env := newTestEnv(t, Options{})
	rec := serve(env.h.Confirmations, httptest.NewRequest(http.MethodGet, "/api/admin/payment-confirmations?status=lost", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(env.h.Confirmations, httptest.NewRequest(http.MethodGet, "/api/admin/payment-confirmations?status=all", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSubmitReadingAPI_ValidationEnvelope(t *testing.T) {
	env := newTestEnv(t, Options{})
	u := testutil.NewTestUser("Resident")
	plots := env.seedUser(t, u, domain.MembershipActive, "1")

	rec := serve(env.h.SubmitReading, as(postJSON(http.MethodPost, "/api/cabinet/electricity",
		`{"plot_id":"`+plots[0].ID+`","period":"2026-02","value":"-5"}`), u))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(env.h.SubmitReading, as(postJSON(http.MethodPost, "/api/cabinet/electricity",
		`{"plot_id":"`+plots[0].ID+`","period":"2026-02","value":"42"}`), u))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestRequireOnboarded(t *testing.T) {
	env := newTestEnv(t, Options{})
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

	newcomer := testutil.NewTestUser("Newcomer", testutil.NotOnboarded())
	env.seedUser(t, newcomer, "")
	rec := httptest.NewRecorder()
	env.h.RequireOnboarded(next).ServeHTTP(rec, as(httptest.NewRequest(http.MethodGet, "/api/cabinet/summary", nil), newcomer))
	assert.Equal(t, http.StatusConflict, rec.Code)

	resident := testutil.NewTestUser("Resident")
	env.seedUser(t, resident, domain.MembershipActive, "1")
	rec = httptest.NewRecorder()
	env.h.RequireOnboarded(next).ServeHTTP(rec, as(httptest.NewRequest(http.MethodGet, "/api/cabinet/summary", nil), resident))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequireOnboarded_IgnoresStageCookieFromResident(t *testing.T) {
	env := newTestEnv(t, Options{QAEnabled: true})
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

	newcomer := testutil.NewTestUser("Newcomer", testutil.NotOnboarded())
	env.seedUser(t, newcomer, "")
	r := as(httptest.NewRequest(http.MethodGet, "/api/cabinet/summary", nil), newcomer)
	r.AddCookie(&http.Cookie{Name: middleware.QAStageCookie, Value: string(domain.StageCabinetHome)})

	rec := httptest.NewRecorder()
	env.h.RequireOnboarded(next).ServeHTTP(rec, r)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetStage_ReportsWizardPosition(t *testing.T) {
	env := newTestEnv(t, Options{})
	u := testutil.NewTestUser("Newcomer", testutil.NotOnboarded())
	env.seedUser(t, u, "")

	rec := serve(env.h.GetStage, as(httptest.NewRequest(http.MethodGet, "/api/onboarding/stage", nil), u))
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[contract.StageResponse](t, rec)
	assert.Equal(t, domain.StagePlots, resp.Stage)
	assert.Equal(t, "/onboarding/plots", resp.Path)
	assert.False(t, resp.Forced)
}

func newTestToolkit(t *testing.T) *qa.Toolkit {
	t.Helper()
	k, err := qa.NewToolkit(qa.Options{Client: qa.ClientOptions{BaseURL: "http://127.0.0.1:1"}})
	require.NoError(t, err)
	t.Cleanup(k.Close)
	return k
}

func TestRequireQAAdmin(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if qaUser(r.Context()) == nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	call := func(h *Handlers, r *http.Request) int {
		rec := httptest.NewRecorder()
		h.RequireQAAdmin(next).ServeHTTP(rec, r)
		return rec.Code
	}

	t.Run("absent when QA is disabled", func(t *testing.T) {
		env := newTestEnv(t, Options{})
		admin := testutil.NewTestUser("Admin", testutil.WithRole(domain.RoleAdmin))
		assert.Equal(t, http.StatusNotFound, call(env.h, as(httptest.NewRequest(http.MethodGet, "/api/qa/checks", nil), admin)))
	})

	env := newTestEnv(t, Options{QAEnabled: true})
	env.h.qa = newTestToolkit(t)

	t.Run("anonymous", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, call(env.h, httptest.NewRequest(http.MethodGet, "/api/qa/checks", nil)))
	})

	t.Run("non-admin staff", func(t *testing.T) {
		chair := testutil.NewTestUser("Chair", testutil.WithRole(domain.RoleChairman))
		assert.Equal(t, http.StatusForbidden, call(env.h, as(httptest.NewRequest(http.MethodGet, "/api/qa/checks", nil), chair)))
	})

	t.Run("admin simulating a resident still passes", func(t *testing.T) {
		admin := testutil.NewTestUser("Admin", testutil.WithRole(domain.RoleAdmin))
		r := httptest.NewRequest(http.MethodGet, "/api/qa/checks", nil)
		r = r.WithContext(middleware.WithPrincipal(r.Context(), &middleware.Principal{
			User: admin, Role: domain.RoleResident, Simulated: true,
		}))
		assert.Equal(t, http.StatusNoContent, call(env.h, r))
	})

	t.Run("simulated guest resolves the session cookie", func(t *testing.T) {
		ctx := context.Background()
		_, err := env.svc.Auth.Register(ctx, service.RegisterInput{
			FullName: "Admin", Email: "admin@snt.ru", Password: "admin-password", Role: domain.RoleAdmin, Onboarded: true,
		})
		require.NoError(t, err)
		_, sess, err := env.svc.Auth.Login(ctx, "admin@snt.ru", "admin-password")
		require.NoError(t, err)

		r := httptest.NewRequest(http.MethodGet, "/api/qa/checks", nil)
		r.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: sess.Token})
		assert.Equal(t, http.StatusNoContent, call(env.h, r))
	})
}

func TestSetQAStage_SetsCookie(t *testing.T) {
	env := newTestEnv(t, Options{QAEnabled: true})
	admin := testutil.NewTestUser("Admin", testutil.WithRole(domain.RoleAdmin))
	r := postJSON(http.MethodPost, "/api/qa/stage", `{"value":"plots"}`)
	r = r.WithContext(withQAUser(r.Context(), admin))

	rec := serve(env.h.SetQAStage, r)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[contract.StageResponse](t, rec)
	assert.Equal(t, domain.StagePlots, resp.Stage)
	assert.True(t, resp.Forced)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middleware.QAStageCookie, cookies[0].Name)
	assert.Equal(t, "plots", cookies[0].Value)

	bad := postJSON(http.MethodPost, "/api/qa/stage", `{"value":"nowhere"}`)
	rec = serve(env.h.SetQAStage, bad.WithContext(withQAUser(bad.Context(), admin)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
