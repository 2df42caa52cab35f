package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/domain"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/service"
	"github.com/gorilla/mux"
)

type onboardingView struct {
	Stage    domain.Stage
	Draft    *domain.OnboardingDraft
	PlotRows []domain.DraftPlot
}

// resumePath is where a user who must not see the requested stage goes.
func resumePath(current domain.Stage, forced, onboarded bool) string {
	if current == domain.StageCabinetHome && !forced && !onboarded {
		return stagePath(domain.StageConsent)
	}
	return stagePath(current)
}

// OnboardingPage handles GET /onboarding/{stage}. Stages past the current
// one redirect back; onboarded users go to the cabinet.
func (h *Handlers) OnboardingPage(w http.ResponseWriter, r *http.Request) {
	requested, err := domain.ParseStage(mux.Vars(r)["stage"])
	if err != nil {
		h.NotFound(w, r)
		return
	}
	current, forced, err := h.stageFor(r)
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	onboarded := principal(r).User.Onboarded
	if onboarded && !forced {
		http.Redirect(w, r, "/cabinet", http.StatusSeeOther)
		return
	}
	if requested == domain.StageCabinetHome || requested.Index() > current.Index() {
		http.Redirect(w, r, resumePath(current, forced, onboarded), http.StatusSeeOther)
		return
	}
	h.renderOnboarding(w, r, http.StatusOK, requested, "")
}

func (h *Handlers) renderOnboarding(w http.ResponseWriter, r *http.Request, status int, stage domain.Stage, formErr string) {
	draft, err := h.svc.Onboarding.GetDraft(r.Context(), userID(r))
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	rows := append(append([]domain.DraftPlot{}, draft.Plots...), domain.DraftPlot{})
	pd := h.page(r, "Регистрация", onboardingView{Stage: stage, Draft: draft, PlotRows: rows})
	pd.Error = formErr
	h.renderPage(w, status, "onboarding", pd)
}

// SubmitOnboarding handles POST /onboarding/{stage}: it merges the step's
// fields into the draft and moves on. Submitting consent completes the
// wizard.
func (h *Handlers) SubmitOnboarding(w http.ResponseWriter, r *http.Request) {
	stage, err := domain.ParseStage(mux.Vars(r)["stage"])
	if err != nil || stage == domain.StageCabinetHome {
		h.NotFound(w, r)
		return
	}
	if principal(r).User.Onboarded {
		http.Redirect(w, r, "/cabinet", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	uid := userID(r)
	draft, err := h.svc.Onboarding.GetDraft(ctx, uid)
	if err != nil {
		h.pageError(w, r, err)
		return
	}

	switch stage {
	case domain.StageProfile:
		draft.FullName = r.PostForm.Get("full_name")
		draft.Phone = r.PostForm.Get("phone")
		draft.Email = r.PostForm.Get("email")
	case domain.StagePlots:
		numbers, streets := r.PostForm["plot_number"], r.PostForm["plot_street"]
		draft.Plots = draft.Plots[:0]
		for i, n := range numbers {
			p := domain.DraftPlot{Number: n}
			if i < len(streets) {
				p.Street = streets[i]
			}
			draft.Plots = append(draft.Plots, p)
		}
	case domain.StageConsent:
		draft.Consent = r.PostForm.Get("consent") != ""
	}

	saved, err := h.svc.Onboarding.SaveDraft(ctx, uid, draft)
	if errors.Is(err, service.ErrValidation) {
		h.renderOnboarding(w, r, http.StatusBadRequest, stage, err.Error())
		return
	}
	if err != nil {
		h.pageError(w, r, err)
		return
	}

	next := domain.ResolveStage(saved)
	if next != domain.StageCabinetHome {
		if next == stage {
			h.renderOnboarding(w, r, http.StatusBadRequest, stage, "Заполните обязательные поля.")
			return
		}
		http.Redirect(w, r, stagePath(next), http.StatusSeeOther)
		return
	}
	if stage != domain.StageConsent {
		http.Redirect(w, r, stagePath(domain.StageConsent), http.StatusSeeOther)
		return
	}
	if _, err := h.svc.Onboarding.Complete(ctx, uid); err != nil {
		if code := service.ValidationCode(err); code != "" {
			http.Redirect(w, r, "/onboarding/"+code, http.StatusSeeOther)
			return
		}
		h.pageError(w, r, err)
		return
	}
	http.Redirect(w, r, "/cabinet", http.StatusSeeOther)
}

// WithCabinet applies the onboarding stage guard to a cabinet page.
func (h *Handlers) WithCabinet(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		to, err := h.cabinetGate(r)
		if err != nil {
			h.pageError(w, r, err)
			return
		}
		if to != "" {
			http.Redirect(w, r, to, http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

type cabinetView struct {
	*service.CabinetSummary
	MembershipStatus domain.MembershipStatus
}

// Cabinet handles GET /cabinet.
func (h *Handlers) Cabinet(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.Cabinet.Summary(r.Context(), userID(r))
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	status := domain.MembershipNone
	if s.Membership != nil && s.Membership.Status != "" {
		status = s.Membership.Status
	}
	h.render(w, r, http.StatusOK, "cabinet", "Личный кабинет", cabinetView{CabinetSummary: s, MembershipStatus: status})
}

var readingErrors = map[string]string{
	"reading":   "Показание должно быть неотрицательным числом.",
	"plot":      "Выберите свой участок.",
	"period":    "Период указывается в формате ГГГГ-ММ.",
	"decrease":  "Показание не может быть меньше предыдущего.",
	"duplicate": "Показание за этот период уже передано.",
	"forbidden": "Передача показаний недоступна.",
}

var appealErrors = map[string]string{
	"topic": "Укажите тему обращения.",
	"body":  "Опишите вопрос.",
	"plot":  "Выберите свой участок.",
}

var confirmationErrors = map[string]string{
	"amount":       "Сумма должна быть положительным числом.",
	"date":         "Укажите дату оплаты.",
	"plot":         "Выберите свой участок.",
	"confirmation": "Проверьте поля формы.",
}

// flash turns ?<prefix>Saved=1 and ?<prefix>Error=<code> into messages.
func flash(q url.Values, prefix, saved string, codes map[string]string) (ok, failed string) {
	if q.Get(prefix+"Saved") == "1" {
		ok = saved
	}
	if code := q.Get(prefix + "Error"); code != "" {
		failed = codes[code]
		if failed == "" {
			failed = "Не удалось сохранить."
		}
	}
	return ok, failed
}

// formResult redirects back to path with the outcome of a form post, or
// renders the error page when err is not a user mistake.
func (h *Handlers) formResult(w http.ResponseWriter, r *http.Request, path, prefix string, err error) {
	if err == nil {
		http.Redirect(w, r, path+"?"+prefix+"Saved=1", http.StatusSeeOther)
		return
	}
	code := service.ValidationCode(err)
	if code == "" && errors.Is(err, service.ErrForbidden) {
		code = "forbidden"
	}
	if code == "" {
		h.pageError(w, r, err)
		return
	}
	http.Redirect(w, r, path+"?"+prefix+"Error="+url.QueryEscape(code), http.StatusSeeOther)
}

func plotNumbers(plots []*domain.UserPlot) map[string]string {
	out := make(map[string]string, len(plots))
	for _, p := range plots {
		out[p.ID] = p.Number
	}
	return out
}

type electricityView struct {
	Visible     bool
	Plots       []*domain.UserPlot
	PlotNumbers map[string]string
	Readings    []*domain.ElectricityReading
	Used        map[string]string
	Period      string
}

// Electricity handles GET /cabinet/electricity.
func (h *Handlers) Electricity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := userID(r)
	m, err := h.svc.Memberships.Get(ctx, uid)
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	view := electricityView{Visible: m.CanSee(domain.FeatureElectricity), Period: domain.CurrentPeriod(time.Now())}
	if view.Visible {
		if view.Plots, err = h.svc.Cabinet.Plots(ctx, uid); err != nil {
			h.pageError(w, r, err)
			return
		}
		if view.Readings, err = h.svc.Cabinet.Readings(ctx, uid); err != nil {
			h.pageError(w, r, err)
			return
		}
		view.PlotNumbers = plotNumbers(view.Plots)
		prev := domain.PreviousReadings(view.Readings)
		view.Used = make(map[string]string, len(prev))
		for _, rd := range view.Readings {
			if p, ok := prev[rd.ID]; ok {
				view.Used[rd.ID] = rd.Consumption(p).String()
			}
		}
	}

	pd := h.page(r, "Электроэнергия", view)
	pd.Flash, pd.Error = flash(r.URL.Query(), "electricity", "Показания приняты.", readingErrors)
	h.renderPage(w, http.StatusOK, "electricity", pd)
}

// SubmitElectricity handles POST /cabinet/electricity.
func (h *Handlers) SubmitElectricity(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	_, err := h.svc.Cabinet.SubmitReading(r.Context(), userID(r), service.ReadingInput{
		PlotID: r.PostForm.Get("plot_id"),
		Period: r.PostForm.Get("period"),
		Value:  r.PostForm.Get("value"),
	})
	h.formResult(w, r, "/cabinet/electricity", "electricity", err)
}

type appealsView struct {
	Plots   []*domain.UserPlot
	Appeals []*domain.Appeal
}

// Appeals handles GET /cabinet/appeals.
func (h *Handlers) Appeals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := userID(r)
	var (
		view appealsView
		err  error
	)
	if view.Plots, err = h.svc.Cabinet.Plots(ctx, uid); err != nil {
		h.pageError(w, r, err)
		return
	}
	if view.Appeals, err = h.svc.Cabinet.Appeals(ctx, uid); err != nil {
		h.pageError(w, r, err)
		return
	}
	pd := h.page(r, "Обращения", view)
	pd.Flash, pd.Error = flash(r.URL.Query(), "appeal", "Обращение отправлено.", appealErrors)
	h.renderPage(w, http.StatusOK, "appeals", pd)
}

// SubmitAppeal handles POST /cabinet/appeals.
func (h *Handlers) SubmitAppeal(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	_, err := h.svc.Cabinet.CreateAppeal(r.Context(), userID(r), service.AppealInput{
		PlotID: r.PostForm.Get("plot_id"),
		Topic:  r.PostForm.Get("topic"),
		Body:   r.PostForm.Get("body"),
	})
	h.formResult(w, r, "/cabinet/appeals", "appeal", err)
}

type documentsView struct {
	Visible       bool
	Documents     []*domain.Document
	ShowDecisions bool
	Decisions     []*domain.Decision
}

// Documents handles GET /cabinet/documents.
func (h *Handlers) Documents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := userID(r)
	m, err := h.svc.Memberships.Get(ctx, uid)
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	view := documentsView{Visible: m.CanSee(domain.FeatureDocuments), ShowDecisions: m.CanSee(domain.FeatureDecisions)}
	if view.Visible {
		if view.Documents, err = h.svc.Cabinet.Documents(ctx, uid); err != nil {
			h.pageError(w, r, err)
			return
		}
	}
	if view.ShowDecisions {
		if view.Decisions, err = h.svc.Cabinet.Decisions(ctx, uid); err != nil {
			h.pageError(w, r, err)
			return
		}
	}
	h.render(w, r, http.StatusOK, "documents", "Документы", view)
}

type paymentsView struct {
	Plots         []*domain.UserPlot
	PlotNumbers   map[string]string
	Balance       *service.Balance
	Charges       []*domain.Charge
	Confirmations []*domain.PaymentConfirmation
}

// Payments handles GET /cabinet/payments.
func (h *Handlers) Payments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := userID(r)
	var (
		view paymentsView
		err  error
	)
	if view.Plots, err = h.svc.Cabinet.Plots(ctx, uid); err != nil {
		h.pageError(w, r, err)
		return
	}
	view.PlotNumbers = plotNumbers(view.Plots)
	if view.Balance, err = h.svc.Cabinet.Balance(ctx, uid); err != nil {
		h.pageError(w, r, err)
		return
	}
	if view.Charges, err = h.svc.Cabinet.Charges(ctx, uid); err != nil {
		h.pageError(w, r, err)
		return
	}
	if view.Confirmations, err = h.svc.Confirmations.ListMine(ctx, uid); err != nil {
		h.pageError(w, r, err)
		return
	}
	pd := h.page(r, "Платежи", view)
	pd.Flash, pd.Error = flash(r.URL.Query(), "confirmation", "Подтверждение отправлено на проверку.", confirmationErrors)
	h.renderPage(w, http.StatusOK, "payments", pd)
}

// SubmitConfirmation handles POST /cabinet/payments.
func (h *Handlers) SubmitConfirmation(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	_, err := h.svc.Confirmations.Submit(r.Context(), userID(r), service.ConfirmationInput{
		PlotID:         r.PostForm.Get("plot_id"),
		Amount:         r.PostForm.Get("amount"),
		PaidAt:         r.PostForm.Get("paid_at"),
		Purpose:        strings.TrimSpace(r.PostForm.Get("purpose")),
		Comment:        r.PostForm.Get("comment"),
		AttachmentName: r.PostForm.Get("attachment_name"),
	})
	h.formResult(w, r, "/cabinet/payments", "confirmation", err)
}
