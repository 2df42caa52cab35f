package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	apierrors "github.com/SmokyRM/snt-ulybka-sub000/internal/errors"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/domain"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/service"
	"go.uber.org/zap"
)

const (
	SessionCookie = "snt_session"
	QAStageCookie = "snt_qa_stage"
	QARoleCookie  = "snt_qa_role"
)

// Principal is the authenticated caller. Role is the effective role, which
// differs from User.Role while an admin simulates another role.
type Principal struct {
	User      *domain.User
	Role      domain.Role
	Token     string
	Simulated bool
}

// Is reports whether the effective role is one of roles.
func (p *Principal) Is(roles ...domain.Role) bool {
	if p == nil {
		return false
	}
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom returns the caller attached by Authenticator.Session, or nil
// for anonymous requests.
func PrincipalFrom(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey).(*Principal)
	return p
}

type Authenticator struct {
	auth      service.AuthService
	errors    *apierrors.Handler
	logger    *zap.Logger
	qaEnabled bool
}

func NewAuthenticator(auth service.AuthService, errs *apierrors.Handler, logger *zap.Logger, qaEnabled bool) *Authenticator {
	return &Authenticator{auth: auth, errors: errs, logger: logger, qaEnabled: qaEnabled}
}

// Session resolves the snt_session cookie into a Principal. Unknown or
// expired tokens leave the request anonymous.
func (a *Authenticator) Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(SessionCookie)
		if err != nil || c.Value == "" {
			next.ServeHTTP(w, r)
			return
		}
		user, err := a.auth.Authenticate(r.Context(), c.Value)
		if err != nil {
			if !errors.Is(err, service.ErrUnauthenticated) {
				a.logger.Warn("session lookup failed",
					zap.Error(err),
					zap.String("request_id", GetRequestID(r.Context())),
				)
			}
			next.ServeHTTP(w, r)
			return
		}

		p := &Principal{User: user, Role: user.Role, Token: c.Value}
		if role, ok := a.simulatedRole(r, user); ok {
			if role == domain.RoleGuest {
				next.ServeHTTP(w, r)
				return
			}
			p.Role = role
			p.Simulated = true
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

// simulatedRole reads snt_qa_role. It is honoured only for admins while QA
// tooling is enabled; invalid values are ignored.
func (a *Authenticator) simulatedRole(r *http.Request, user *domain.User) (domain.Role, bool) {
	if !a.qaEnabled || user.Role != domain.RoleAdmin {
		return "", false
	}
	c, err := r.Cookie(QARoleCookie)
	if err != nil || c.Value == "" {
		return "", false
	}
	role, err := domain.ParseRole(c.Value)
	if err != nil {
		return "", false
	}
	return role, true
}

// Surface selects how access failures are reported.
type Surface int

const (
	// Page redirects with 303 to /login or /forbidden.
	Page Surface = iota
	// API answers with the JSON error envelope.
	API
)

// RequireUser rejects anonymous requests.
func (a *Authenticator) RequireUser(surface Surface) func(http.Handler) http.Handler {
	return a.RequireRoles(surface)
}

// RequireRoles rejects anonymous requests and, when roles is non-empty,
// callers whose effective role is not listed.
func (a *Authenticator) RequireRoles(surface Surface, roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFrom(r.Context())
			if p == nil {
				if surface == API {
					a.errors.WriteUnauthorized(w, r)
					return
				}
				http.Redirect(w, r, LoginURL(r.URL.RequestURI()), http.StatusSeeOther)
				return
			}
			if len(roles) > 0 && !p.Is(roles...) {
				if surface == API {
					a.errors.WriteForbidden(w, r)
					return
				}
				http.Redirect(w, r, "/forbidden", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LoginURL builds /login?next=<path>.
func LoginURL(next string) string {
	if next == "" || next == "/login" {
		return "/login"
	}
	return "/login?next=" + url.QueryEscape(next)
}
