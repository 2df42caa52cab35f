package handler

import (
	"net/http"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/contract"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/domain"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/service"
	"github.com/gorilla/mux"
)

// GetDraft handles GET /api/onboarding/draft.
func (h *Handlers) GetDraft(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Onboarding.GetDraft(r.Context(), userID(r))
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, contract.DraftResponse{Draft: contract.FromDraft(d), Stage: domain.ResolveStage(d)})
}

// SaveDraft handles PUT /api/onboarding/draft.
func (h *Handlers) SaveDraft(w http.ResponseWriter, r *http.Request) {
	var req contract.Draft
	if err := decodeJSON(r, &req); err != nil {
		h.errors.WriteValidationError(w, r, err.Error())
		return
	}
	d, err := h.svc.Onboarding.SaveDraft(r.Context(), userID(r), req.ToDomain())
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, contract.DraftResponse{Draft: contract.FromDraft(d), Stage: domain.ResolveStage(d)})
}

// GetStage handles GET /api/onboarding/stage.
func (h *Handlers) GetStage(w http.ResponseWriter, r *http.Request) {
	stage, forced, err := h.stageFor(r)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	path := stagePath(stage)
	if to, err := h.cabinetGate(r); err == nil && to != "" {
		path = to
	}
	h.writeJSON(w, http.StatusOK, contract.StageResponse{Stage: stage, Path: path, Forced: forced})
}

// CompleteOnboarding handles POST /api/onboarding/complete.
func (h *Handlers) CompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.Onboarding.Complete(r.Context(), userID(r))
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, contract.FromUser(u))
}

// RequireOnboarded is the API counterpart of the cabinet page guard: it
// answers 409 instead of redirecting.
func (h *Handlers) RequireOnboarded(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		to, err := h.cabinetGate(r)
		if err != nil {
			h.errors.HandleError(w, r, err)
			return
		}
		if to != "" {
			h.errors.HandleError(w, r, service.ErrOnboardingRequired)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CabinetSummary handles GET /api/cabinet/summary.
func (h *Handlers) CabinetSummary(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.Cabinet.Summary(r.Context(), userID(r))
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, contract.FromSummary(s))
}

func (h *Handlers) CabinetPlots(w http.ResponseWriter, r *http.Request) {
	plots, err := h.svc.Cabinet.Plots(r.Context(), userID(r))
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, contract.FromUserPlots(plots))
}

// SetPrimaryPlot handles POST /api/cabinet/plots/{plot_id}/primary.
func (h *Handlers) SetPrimaryPlot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := userID(r)
	if err := h.svc.Cabinet.SetPrimaryPlot(ctx, uid, mux.Vars(r)["plot_id"]); err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	plots, err := h.svc.Cabinet.Plots(ctx, uid)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, contract.FromUserPlots(plots))
}

func (h *Handlers) CabinetMembership(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.Memberships.Get(r.Context(), userID(r))
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, contract.FromMembership(m))
}

func (h *Handlers) CabinetCharges(w http.ResponseWriter, r *http.Request) {
	charges, err := h.svc.Cabinet.Charges(r.Context(), userID(r))
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, contract.FromCharges(charges))
}

func (h *Handlers) CabinetBalance(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.Cabinet.Balance(r.Context(), userID(r))
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, contract.FromBalance(b))
}

func (h *Handlers) CabinetAppeals(w http.ResponseWriter, r *http.Request) {
	appeals, err := h.svc.Cabinet.Appeals(r.Context(), userID(r))
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, contract.FromAppeals(appeals))
}

// CreateAppeal handles POST /api/cabinet/appeals.
func (h *Handlers) CreateAppeal(w http.ResponseWriter, r *http.Request) {
	var req service.AppealInput
	if err := decodeJSON(r, &req); err != nil {
		h.errors.WriteValidationError(w, r, err.Error())
		return
	}
	a, err := h.svc.Cabinet.CreateAppeal(r.Context(), userID(r), req)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, contract.FromAppeal(a))
}

func (h *Handlers) CabinetReadings(w http.ResponseWriter, r *http.Request) {
	readings, err := h.svc.Cabinet.Readings(r.Context(), userID(r))
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, contract.FromReadings(readings))
}

// SubmitReading handles POST /api/cabinet/electricity.
func (h *Handlers) SubmitReading(w http.ResponseWriter, r *http.Request) {
	var req service.ReadingInput
	if err := decodeJSON(r, &req); err != nil {
		h.errors.WriteValidationError(w, r, err.Error())
		return
	}
	reading, err := h.svc.Cabinet.SubmitReading(r.Context(), userID(r), req)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, contract.FromReading(reading))
}

func (h *Handlers) CabinetDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.svc.Cabinet.Documents(r.Context(), userID(r))
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, contract.FromDocuments(docs))
}

func (h *Handlers) CabinetAnnouncements(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Cabinet.Announcements(r.Context(), userID(r))
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, contract.FromAnnouncements(items))
}

func (h *Handlers) CabinetDecisions(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Cabinet.Decisions(r.Context(), userID(r))
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, contract.FromDecisions(items))
}

func (h *Handlers) MyConfirmations(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Confirmations.ListMine(r.Context(), userID(r))
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, contract.FromConfirmations(items))
}

// SubmitConfirmationAPI handles POST /api/payment-confirmations.
func (h *Handlers) SubmitConfirmationAPI(w http.ResponseWriter, r *http.Request) {
	var req service.ConfirmationInput
	if err := decodeJSON(r, &req); err != nil {
		h.errors.WriteValidationError(w, r, err.Error())
		return
	}
	c, err := h.svc.Confirmations.Submit(r.Context(), userID(r), req)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, contract.FromConfirmation(c))
}

// PublicAnnouncements handles GET /api/announcements.
func (h *Handlers) PublicAnnouncements(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Content.PublicAnnouncements(r.Context())
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, contract.FromAnnouncements(items))
}
