package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/contract"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/domain"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/middleware"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/qa"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/service"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type dashboardView struct {
	Finance              bool
	TotalDebt            decimal.Decimal
	Debtors              int
	PendingConfirmations int
	NewAppeals           int
	InProgressAppeals    int
	QA                   bool
}

// Admin handles GET /admin. Finance figures are only loaded for roles that
// may see them.
func (h *Handlers) Admin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := principal(r)
	view := dashboardView{
		Finance: p.Is(domain.FinanceRoles...),
		QA:      h.opts.QAEnabled && p.User.Role == domain.RoleAdmin,
	}

	if view.Finance {
		rows, err := h.svc.Finance.Debts(ctx, domain.DebtFilter{OnlyDebtors: true})
		if err != nil {
			h.pageError(w, r, err)
			return
		}
		view.Debtors = len(rows)
		view.TotalDebt = contract.FromDebtRows(rows).TotalDebt
		pending, err := h.svc.Confirmations.List(ctx, domain.ConfirmationPending)
		if err != nil {
			h.pageError(w, r, err)
			return
		}
		view.PendingConfirmations = len(pending)
	}

	fresh, err := h.svc.Appeals.List(ctx, domain.AppealNew)
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	working, err := h.svc.Appeals.List(ctx, domain.AppealInProgress)
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	view.NewAppeals, view.InProgressAppeals = len(fresh), len(working)

	h.render(w, r, http.StatusOK, "admin", "Правление", view)
}

var debtSortKeys = []domain.DebtSortKey{
	domain.SortByDebt, domain.SortByPlot, domain.SortByOwner, domain.SortByAccrued, domain.SortByPaid,
}

type debtsView struct {
	Query     domain.DebtFilter
	MinDebt   string
	SortKeys  []domain.DebtSortKey
	Rows      []contract.DebtRow
	TotalDebt decimal.Decimal
}

// Debts handles GET /admin/debts.
func (h *Handlers) Debts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, err := contract.ParseDebtFilter(q)
	view := debtsView{Query: filter, MinDebt: q.Get("minDebt"), SortKeys: debtSortKeys}
	if err != nil {
		pd := h.page(r, "Должники", view)
		pd.Error = err.Error()
		h.renderPage(w, http.StatusBadRequest, "debts", pd)
		return
	}
	rows, err := h.svc.Finance.Debts(r.Context(), filter)
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	resp := contract.FromDebtRows(rows)
	view.Rows, view.TotalDebt = resp.Rows, resp.TotalDebt
	h.render(w, r, http.StatusOK, "debts", "Должники", view)
}

// qaRoles are the values offered by the role override.
var qaRoles = []domain.Role{
	domain.RoleResident, domain.RoleChairman, domain.RoleAccountant,
	domain.RoleSecretary, domain.RoleAdmin, domain.RoleGuest,
}

type qaView struct {
	BaseURL string
	Stages  []domain.Stage
	Roles   []domain.Role
	Matrix  *qa.MatrixResult
	Summary string
}

// QAConsole handles GET /admin/qa; ?run=matrix runs the access matrix
// with the caller's session.
func (h *Handlers) QAConsole(w http.ResponseWriter, r *http.Request) {
	if !h.qaAvailable() {
		h.NotFound(w, r)
		return
	}
	view := qaView{BaseURL: h.qa.BaseURL(), Stages: domain.Stages, Roles: qaRoles}
	if r.URL.Query().Get("run") == "matrix" {
		view.Matrix = h.qa.Matrix(r.Context(), principal(r).Token)
		view.Summary = qa.MatrixSummary(view.Matrix)
	}
	h.render(w, r, http.StatusOK, "qa", "QA", view)
}

// SubmitQA handles POST /admin/qa. Only a real admin may change the
// overrides; a simulated role does not lock the admin out of clearing them.
func (h *Handlers) SubmitQA(w http.ResponseWriter, r *http.Request) {
	if !h.qaAvailable() {
		h.NotFound(w, r)
		return
	}
	user, err := h.realUser(r)
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	if user == nil {
		http.Redirect(w, r, middleware.LoginURL("/admin/qa"), http.StatusSeeOther)
		return
	}
	if user.Role != domain.RoleAdmin {
		http.Redirect(w, r, "/forbidden", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	value := r.PostForm.Get("value")
	switch r.PostForm.Get("action") {
	case "stage":
		stage, err := domain.ParseStage(value)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.setQAOverride(w, middleware.QAStageCookie, string(stage), user)
		http.Redirect(w, r, stagePath(stage), http.StatusSeeOther)
	case "role":
		role, err := domain.ParseRole(value)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.setQAOverride(w, middleware.QARoleCookie, string(role), user)
		http.Redirect(w, r, "/", http.StatusSeeOther)
	case "clear":
		h.clearCookie(w, middleware.QAStageCookie)
		h.clearCookie(w, middleware.QARoleCookie)
		h.logger.Info("qa overrides cleared", zap.String("user_id", user.ID))
		http.Redirect(w, r, "/admin/qa", http.StatusSeeOther)
	default:
		http.Error(w, "unknown action", http.StatusBadRequest)
	}
}

func (h *Handlers) qaAvailable() bool {
	return h.opts.QAEnabled && h.qa != nil
}

func (h *Handlers) setQAOverride(w http.ResponseWriter, cookie, value string, user *domain.User) {
	h.setCookie(w, cookie, value, qaOverrideExpiry())
	h.logger.Info("qa override set",
		zap.String("user_id", user.ID),
		zap.String("cookie", cookie),
		zap.String("value", value),
	)
}

// realUser resolves the session owner ignoring any simulated role. A
// simulated guest has no principal, so the cookie is checked directly.
func (h *Handlers) realUser(r *http.Request) (*domain.User, error) {
	if p := principal(r); p != nil {
		return p.User, nil
	}
	c, err := r.Cookie(middleware.SessionCookie)
	if err != nil || c.Value == "" {
		return nil, nil
	}
	u, err := h.svc.Auth.Authenticate(r.Context(), c.Value)
	if errors.Is(err, service.ErrUnauthenticated) {
		return nil, nil
	}
	return u, err
}

// QA overrides outlive a browser restart but not a working day.
func qaOverrideExpiry() time.Time {
	return time.Now().Add(12 * time.Hour)
}
