package handler

import (
	"net/http"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/contract"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/domain"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/service"
	"github.com/gorilla/mux"
)

// DebtsAPI handles GET /api/admin/billing/debts with the same query parameters as
// the debts page.
func (h *Handlers) DebtsAPI(w http.ResponseWriter, r *http.Request) {
	filter, err := contract.ParseDebtFilter(r.URL.Query())
	if err != nil {
		h.errors.WriteValidationError(w, r, err.Error())
		return
	}
	rows, err := h.svc.Finance.Debts(r.Context(), filter)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, contract.FromDebtRows(rows))
}

// AccrueCharge handles POST /api/admin/charges. plot_id "all" accrues on
// every plot.
func (h *Handlers) AccrueCharge(w http.ResponseWriter, r *http.Request) {
	var req service.ChargeInput
	if err := decodeJSON(r, &req); err != nil {
		h.errors.WriteValidationError(w, r, err.Error())
		return
	}
	charges, err := h.svc.Finance.AccrueCharge(r.Context(), req)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, contract.FromCharges(charges))
}

func (h *Handlers) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req service.PaymentInput
	if err := decodeJSON(r, &req); err != nil {
		h.errors.WriteValidationError(w, r, err.Error())
		return
	}
	p, err := h.svc.Finance.RecordPayment(r.Context(), req)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, contract.FromPayment(p))
}

// Confirmations handles GET /api/admin/payment-confirmations. The status
// query defaults to pending; "all" lists every confirmation.
func (h *Handlers) Confirmations(w http.ResponseWriter, r *http.Request) {
	var status domain.ConfirmationStatus
	switch s := r.URL.Query().Get("status"); s {
	case "":
		status = domain.ConfirmationPending
	case "all":
	case string(domain.ConfirmationPending), string(domain.ConfirmationApproved), string(domain.ConfirmationRejected):
		status = domain.ConfirmationStatus(s)
	default:
		h.errors.WriteValidationError(w, r, "unknown confirmation status "+s)
		return
	}
	items, err := h.svc.Confirmations.List(r.Context(), status)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, contract.FromConfirmations(items))
}

// readReview accepts an empty body as an empty note.
func readReview(r *http.Request) (contract.ReviewRequest, error) {
	var req contract.ReviewRequest
	if r.ContentLength == 0 {
		return req, nil
	}
	err := decodeJSON(r, &req)
	return req, err
}

func (h *Handlers) ApproveConfirmation(w http.ResponseWriter, r *http.Request) {
	req, err := readReview(r)
	if err != nil {
		h.errors.WriteValidationError(w, r, err.Error())
		return
	}
	c, p, err := h.svc.Confirmations.Approve(r.Context(), mux.Vars(r)["id"], userID(r), req.Note)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, contract.ReviewResult{Confirmation: contract.FromConfirmation(c), Payment: contract.FromPayment(p)})
}

func (h *Handlers) RejectConfirmation(w http.ResponseWriter, r *http.Request) {
	req, err := readReview(r)
	if err != nil {
		h.errors.WriteValidationError(w, r, err.Error())
		return
	}
	c, err := h.svc.Confirmations.Reject(r.Context(), mux.Vars(r)["id"], userID(r), req.Note)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, contract.ReviewResult{Confirmation: contract.FromConfirmation(c)})
}

// AdminAppeals handles GET /api/admin/appeals?status=.
func (h *Handlers) AdminAppeals(w http.ResponseWriter, r *http.Request) {
	var status domain.AppealStatus
	if s := r.URL.Query().Get("status"); s != "" {
		parsed, err := domain.ParseAppealStatus(s)
		if err != nil {
			h.errors.WriteValidationError(w, r, err.Error())
			return
		}
		status = parsed
	}
	items, err := h.svc.Appeals.List(r.Context(), status)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, contract.FromAppeals(items))
}

// UpdateAppeal handles POST /api/admin/appeals/{id}/status.
func (h *Handlers) UpdateAppeal(w http.ResponseWriter, r *http.Request) {
	var req contract.AppealStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errors.WriteValidationError(w, r, err.Error())
		return
	}
	a, err := h.svc.Appeals.Transition(r.Context(), mux.Vars(r)["id"], req.Status, req.Response)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, contract.FromAppeal(a))
}

// SetMembership handles PUT /api/admin/memberships/{user_id}.
func (h *Handlers) SetMembership(w http.ResponseWriter, r *http.Request) {
	var req contract.MembershipRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errors.WriteValidationError(w, r, err.Error())
		return
	}
	m, err := h.svc.Memberships.SetStatus(r.Context(), mux.Vars(r)["user_id"], req.Status, req.Note)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, contract.FromMembership(m))
}

func (h *Handlers) PublishAnnouncement(w http.ResponseWriter, r *http.Request) {
	var req service.AnnouncementInput
	if err := decodeJSON(r, &req); err != nil {
		h.errors.WriteValidationError(w, r, err.Error())
		return
	}
	a, err := h.svc.Content.PublishAnnouncement(r.Context(), userID(r), req)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, contract.FromAnnouncement(a))
}

func (h *Handlers) CreateDecision(w http.ResponseWriter, r *http.Request) {
	var req service.DecisionInput
	if err := decodeJSON(r, &req); err != nil {
		h.errors.WriteValidationError(w, r, err.Error())
		return
	}
	d, err := h.svc.Content.CreateDecision(r.Context(), req)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, contract.FromDecision(d))
}

func (h *Handlers) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req service.DocumentInput
	if err := decodeJSON(r, &req); err != nil {
		h.errors.WriteValidationError(w, r, err.Error())
		return
	}
	d, err := h.svc.Content.CreateDocument(r.Context(), req)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, contract.FromDocument(d))
}
