package handler

import (
	"errors"
	"net/http"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/middleware"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/service"
	"go.uber.org/zap"
)

// Home handles GET /.
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var (
		items any
		err   error
	)
	p := principal(r)
	if p != nil {
		items, err = h.svc.Cabinet.Announcements(ctx, p.User.ID)
	}
	if p == nil || errors.Is(err, service.ErrForbidden) {
		items, err = h.svc.Content.PublicAnnouncements(ctx)
	}
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "home", "СНТ «Улыбка»", items)
}

type loginForm struct {
	Login string
	Next  string
}

// LoginPage handles GET /login. Signed-in users go straight to next.
func (h *Handlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	next := safeNext(r.URL.Query().Get("next"), "")
	if principal(r) != nil {
		http.Redirect(w, r, safeNext(next, "/cabinet"), http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, "login", "Вход", loginForm{Next: next})
}

// Login handles POST /login.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	form := loginForm{Login: r.PostForm.Get("login"), Next: safeNext(r.PostForm.Get("next"), "")}

	user, sess, err := h.svc.Auth.Login(r.Context(), form.Login, r.PostForm.Get("password"))
	if errors.Is(err, service.ErrUnauthenticated) {
		h.renderPage(w, http.StatusUnauthorized, "login", pageData{
			Title:     "Вход",
			RequestID: middleware.GetRequestID(r.Context()),
			Error:     "Неверный логин или пароль.",
			Data:      form,
		})
		return
	}
	if err != nil {
		h.pageError(w, r, err)
		return
	}

	h.setCookie(w, middleware.SessionCookie, sess.Token, sess.ExpiresAt)
	h.logger.Info("user logged in", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))

	fallback := "/cabinet"
	if user.IsStaff() {
		fallback = "/admin"
	}
	http.Redirect(w, r, safeNext(form.Next, fallback), http.StatusSeeOther)
}

// Logout handles POST /logout. QA overrides are dropped with the session.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(middleware.SessionCookie); err == nil {
		if err := h.svc.Auth.Logout(r.Context(), c.Value); err != nil {
			h.logger.Warn("logout failed", zap.Error(err))
		}
	}
	h.clearCookie(w, middleware.SessionCookie)
	h.clearCookie(w, middleware.QAStageCookie)
	h.clearCookie(w, middleware.QARoleCookie)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Forbidden handles GET /forbidden.
func (h *Handlers) Forbidden(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "forbidden", "Нет доступа", nil)
}
