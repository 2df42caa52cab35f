package handler

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/domain"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/middleware"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

var templateFuncs = template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("02.01.2006")
	},
	"datetime": func(t time.Time) string { return t.Local().Format("02.01.2006 15:04") },
	"isPositive": func(d decimal.Decimal) bool { return d.IsPositive() },
	"stageIndex": func(s domain.Stage) int { return s.Index() + 1 },
}

type pageRenderer struct {
	pages map[string]*template.Template
}

// newPageRenderer pairs every page template with layout.html.
func newPageRenderer() (*pageRenderer, error) {
	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	pr := &pageRenderer{pages: make(map[string]*template.Template)}
	for _, name := range names {
		base := path.Base(name)
		if base == "layout.html" {
			continue
		}
		t, err := template.New(base).Funcs(templateFuncs).ParseFS(templateFS, "templates/layout.html", name)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", base, err)
		}
		pr.pages[strings.TrimSuffix(base, ".html")] = t
	}
	return pr, nil
}

// pageData is what every template receives.
type pageData struct {
	Title     string
	Principal *middleware.Principal
	RequestID string
	QAEnabled bool
	QAStage   string
	Flash     string
	Error     string
	Data      any
}

func (h *Handlers) render(w http.ResponseWriter, r *http.Request, status int, page, title string, data any) {
	h.renderPage(w, status, page, h.page(r, title, data))
}

// page fills the common fields of pageData from the request.
func (h *Handlers) page(r *http.Request, title string, data any) pageData {
	pd := pageData{
		Title:     title,
		Principal: principal(r),
		RequestID: middleware.GetRequestID(r.Context()),
		QAEnabled: h.opts.QAEnabled,
		Data:      data,
	}
	if h.opts.QAEnabled {
		if c, err := r.Cookie(middleware.QAStageCookie); err == nil {
			pd.QAStage = c.Value
		}
	}
	return pd
}

func (h *Handlers) renderPage(w http.ResponseWriter, status int, page string, pd pageData) {
	t, ok := h.pages.pages[page]
	if !ok {
		h.logger.Error("unknown page template", zap.String("page", page))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", pd); err != nil {
		h.logger.Error("rendering page", zap.String("page", page), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// pageError renders the error state with the request id for support.
func (h *Handlers) pageError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("page failed",
		zap.Error(err),
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetRequestID(r.Context())),
	)
	h.render(w, r, http.StatusInternalServerError, "error", "Ошибка", nil)
}

// NotFound renders the 404 page for unmatched non-API paths.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, "notfound", "Страница не найдена", nil)
}
