package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/contract"
	apierrors "github.com/SmokyRM/snt-ulybka-sub000/internal/errors"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/domain"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/middleware"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/qa"
)

// RequireQAAdmin guards /api/qa. The routes do not exist while QA is
// disabled, and only a real admin passes; the simulated role is ignored so
// an admin can always clear it.
func (h *Handlers) RequireQAAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.qaAvailable() {
			h.errors.WriteErrorResponse(w, r, http.StatusNotFound, apierrors.ErrorCodeNotFound, "not found")
			return
		}
		user, err := h.realUser(r)
		if err != nil {
			h.errors.HandleError(w, r, err)
			return
		}
		if user == nil {
			h.errors.WriteUnauthorized(w, r)
			return
		}
		if user.Role != domain.RoleAdmin {
			h.errors.WriteForbidden(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(withQAUser(r.Context(), user)))
	})
}

// SetQAStage handles POST /api/qa/stage.
func (h *Handlers) SetQAStage(w http.ResponseWriter, r *http.Request) {
	var req contract.QAOverrideRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errors.WriteValidationError(w, r, err.Error())
		return
	}
	stage, err := domain.ParseStage(req.Value)
	if err != nil {
		h.errors.WriteValidationError(w, r, err.Error())
		return
	}
	h.setQAOverride(w, middleware.QAStageCookie, string(stage), qaUser(r.Context()))
	h.writeJSON(w, http.StatusOK, contract.StageResponse{Stage: stage, Path: stagePath(stage), Forced: true})
}

func (h *Handlers) ClearQAStage(w http.ResponseWriter, r *http.Request) {
	h.clearCookie(w, middleware.QAStageCookie)
	w.WriteHeader(http.StatusNoContent)
}

// SetQARole handles POST /api/qa/role.
func (h *Handlers) SetQARole(w http.ResponseWriter, r *http.Request) {
	var req contract.QAOverrideRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errors.WriteValidationError(w, r, err.Error())
		return
	}
	role, err := domain.ParseRole(req.Value)
	if err != nil {
		h.errors.WriteValidationError(w, r, err.Error())
		return
	}
	h.setQAOverride(w, middleware.QARoleCookie, string(role), qaUser(r.Context()))
	h.writeJSON(w, http.StatusOK, map[string]domain.Role{"role": role})
}

func (h *Handlers) ClearQARole(w http.ResponseWriter, r *http.Request) {
	h.clearCookie(w, middleware.QARoleCookie)
	w.WriteHeader(http.StatusNoContent)
}

func wantsMarkdown(r *http.Request) bool {
	return r.URL.Query().Get("format") == "markdown"
}

func (h *Handlers) writeMarkdown(w http.ResponseWriter, md string) {
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(md))
}

// QAMatrix handles GET /api/qa/matrix. Cells for staff roles reuse the
// caller's session with a role override.
func (h *Handlers) QAMatrix(w http.ResponseWriter, r *http.Request) {
	res := h.qa.Matrix(r.Context(), sessionToken(r))
	if wantsMarkdown(r) {
		h.writeMarkdown(w, qa.MatrixSummary(res))
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// QADeadEnds handles GET /api/qa/deadends. Repeated seed parameters
// replace the default seeds; as=self crawls with the caller's session.
func (h *Handlers) QADeadEnds(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	seeds := q["seed"]
	if len(seeds) == 0 {
		seeds = qa.DefaultSeeds
	}
	var session string
	if q.Get("as") == "self" {
		session = sessionToken(r)
	}
	h.writeJSON(w, http.StatusOK, h.qa.DeadEnds(r.Context(), seeds, session))
}

// QAChecks handles GET /api/qa/checks.
func (h *Handlers) QAChecks(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.qa.Checks(r.Context(), nil))
}

// QAReport handles POST /api/qa/report: it turns one finding into a bug
// report for an issue tracker.
func (h *Handlers) QAReport(w http.ResponseWriter, r *http.Request) {
	var req qa.ReportRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errors.WriteValidationError(w, r, err.Error())
		return
	}
	env := qa.Environment{
		BaseURL:     h.qa.BaseURL(),
		Reporter:    qaUser(r.Context()).DisplayName(),
		UserAgent:   strings.TrimSpace(r.UserAgent()),
		GeneratedAt: time.Now().UTC(),
	}
	report, err := qa.BuildReport(env, req)
	if err != nil {
		h.errors.WriteValidationError(w, r, err.Error())
		return
	}
	if wantsMarkdown(r) {
		h.writeMarkdown(w, report.Markdown)
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}

func sessionToken(r *http.Request) string {
	if c, err := r.Cookie(middleware.SessionCookie); err == nil {
		return c.Value
	}
	return ""
}
