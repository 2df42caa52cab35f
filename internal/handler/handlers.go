// Package handler implements the portal's page and /api handlers.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apierrors "github.com/SmokyRM/snt-ulybka-sub000/internal/errors"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/domain"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/middleware"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/qa"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/service"
	"go.uber.org/zap"
)

type Services struct {
	Auth          service.AuthService
	Onboarding    service.OnboardingService
	Cabinet       service.CabinetService
	Confirmations service.ConfirmationService
	Finance       service.FinanceService
	Appeals       service.AppealService
	Memberships   service.MembershipService
	Content       service.ContentService
}

type Options struct {
	SecureCookies bool
	// QAEnabled turns on the QA console, the /api/qa routes and the
	// stage and role override cookies.
	QAEnabled bool
}

type Handlers struct {
	svc    Services
	qa     *qa.Toolkit
	errors *apierrors.Handler
	pages  *pageRenderer
	logger *zap.Logger
	opts   Options
}

// NewHandlers parses the page templates. toolkit may be nil when QA is
// disabled.
func NewHandlers(svc Services, toolkit *qa.Toolkit, errs *apierrors.Handler, logger *zap.Logger, opts Options) (*Handlers, error) {
	pages, err := newPageRenderer()
	if err != nil {
		return nil, err
	}
	return &Handlers{svc: svc, qa: toolkit, errors: errs, pages: pages, logger: logger, opts: opts}, nil
}

func principal(r *http.Request) *middleware.Principal {
	return middleware.PrincipalFrom(r.Context())
}

// userID of the caller; only valid behind RequireUser.
func userID(r *http.Request) string {
	return principal(r).User.ID
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("writing response", zap.Error(err))
	}
}

const maxBodyBytes = 1 << 20

// decodeJSON reads a single JSON object, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("request body is empty")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func (h *Handlers) setCookie(w http.ResponseWriter, name, value string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handlers) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// stageFor resolves the caller's onboarding stage. With QA enabled a valid
// snt_qa_stage cookie sent by an admin wins and forced is true.
func (h *Handlers) stageFor(r *http.Request) (stage domain.Stage, forced bool, err error) {
	if h.opts.QAEnabled && principal(r).User.Role == domain.RoleAdmin {
		if c, cerr := r.Cookie(middleware.QAStageCookie); cerr == nil {
			if st, perr := domain.ParseStage(c.Value); perr == nil {
				return st, true, nil
			}
		}
	}
	stage, err = h.svc.Onboarding.Stage(r.Context(), userID(r))
	return stage, false, err
}

// cabinetGate reports where a cabinet request must go instead, or "" when
// it may proceed. A finished but unconfirmed wizard goes back to consent.
func (h *Handlers) cabinetGate(r *http.Request) (string, error) {
	stage, forced, err := h.stageFor(r)
	if err != nil {
		return "", err
	}
	if stage != domain.StageCabinetHome {
		return stagePath(stage), nil
	}
	if !forced && !principal(r).User.Onboarded {
		return stagePath(domain.StageConsent), nil
	}
	return "", nil
}

func stagePath(s domain.Stage) string {
	if s == domain.StageCabinetHome {
		return "/cabinet"
	}
	return "/onboarding/" + string(s)
}

// safeNext keeps only local absolute paths.
func safeNext(next, fallback string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	return next
}

type qaUserKey struct{}

func withQAUser(ctx context.Context, u *domain.User) context.Context {
	return context.WithValue(ctx, qaUserKey{}, u)
}

// qaUser is the real admin behind a /api/qa request.
func qaUser(ctx context.Context) *domain.User {
	u, _ := ctx.Value(qaUserKey{}).(*domain.User)
	return u
}
