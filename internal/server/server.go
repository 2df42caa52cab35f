// Package server provides the portal's HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/config"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/domain"
	apierrors "github.com/SmokyRM/snt-ulybka-sub000/internal/errors"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/handler"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/health"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/metrics"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/middleware"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/qa"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Deps are the collaborators the server routes to.
type Deps struct {
	Services handler.Services
	Metrics  *metrics.Metrics
	// Checks are pinged by /ready.
	Checks map[string]health.Pinger
	// QA may be nil; the QA console and /api/qa then answer 404.
	QA *qa.Toolkit
}

type Server struct {
	router       *mux.Router
	httpServer   *http.Server
	handlers     *handler.Handlers
	auth         *middleware.Authenticator
	healthCheck  *health.HealthCheck
	errorHandler *apierrors.Handler
	metrics      *metrics.Metrics
	logger       *zap.Logger
	cfg          *config.Config
}

func NewServer(cfg *config.Config, deps Deps, logger *zap.Logger) (*Server, error) {
	router := mux.NewRouter()
	errorHandler := apierrors.NewHandler(logger, middleware.GetRequestID)
	handlers, err := handler.NewHandlers(deps.Services, deps.QA, errorHandler, logger, handler.Options{
		SecureCookies: cfg.Server.SecureCookies,
		QAEnabled:     cfg.QA.Enabled,
	})
	if err != nil {
		return nil, fmt.Errorf("building handlers: %w", err)
	}
	m := deps.Metrics
	if m == nil {
		m = metrics.New()
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	s := &Server{
		router:       router,
		httpServer:   httpServer,
		handlers:     handlers,
		auth:         middleware.NewAuthenticator(deps.Services.Auth, errorHandler, logger, cfg.QA.Enabled),
		healthCheck:  health.NewHealthCheck(deps.Checks, logger),
		errorHandler: errorHandler,
		metrics:      m,
		logger:       logger,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	middlewareChain := []func(http.Handler) http.Handler{
		middleware.Recovery(s.logger),
		middleware.RequestID,
		s.auth.Session,
		middleware.Logging(s.logger),
		metrics.Middleware(s.metrics),
	}
	if s.cfg.RateLimiter.Enabled {
		rateLimiter := middleware.NewRateLimiter(
			s.cfg.RateLimiter.RequestsPerSecond,
			s.cfg.RateLimiter.BurstSize,
			s.logger,
		)
		middlewareChain = append(middlewareChain, rateLimiter.Limit)
	}
	chain := middleware.Chain(middlewareChain...)
	s.router.Use(func(next http.Handler) http.Handler {
		return chain(next)
	})

	h := s.handlers
	r := s.router

	r.HandleFunc("/health", s.healthCheck.LivenessHandler).Methods(http.MethodGet)
	r.HandleFunc("/ready", s.healthCheck.ReadinessHandler).Methods(http.MethodGet)
	if s.cfg.Metrics.Enabled {
		r.Handle(s.cfg.Metrics.Path, s.metrics.Handler()).Methods(http.MethodGet)
	}

	notFound := chain(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if isAPI(req) {
			s.errorHandler.WriteErrorResponse(w, req, http.StatusNotFound, apierrors.ErrorCodeNotFound, "endpoint not found")
			return
		}
		h.NotFound(w, req)
	}))
	methodNotAllowed := chain(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		s.errorHandler.WriteErrorResponse(w, req, http.StatusMethodNotAllowed, apierrors.ErrorCodeInvalidRequest, "method not allowed")
	}))

	s.pageRoutes(r, h)
	api := r.PathPrefix("/api").Subrouter()
	s.apiRoutes(api, h)

	// Subrouters answer for their own prefix; they need the handlers too.
	for _, rt := range []*mux.Router{r, api} {
		rt.NotFoundHandler = notFound
		rt.MethodNotAllowedHandler = methodNotAllowed
	}
}

type guard func(http.Handler) http.Handler

func wrap(fn http.HandlerFunc, guards ...guard) http.Handler {
	var out http.Handler = fn
	for i := len(guards) - 1; i >= 0; i-- {
		out = guards[i](out)
	}
	return out
}

func (s *Server) pageRoutes(r *mux.Router, h *handler.Handlers) {
	user := guard(s.auth.RequireUser(middleware.Page))
	staff := guard(s.auth.RequireRoles(middleware.Page, domain.StaffRoles...))
	finance := guard(s.auth.RequireRoles(middleware.Page, domain.FinanceRoles...))
	admin := guard(s.auth.RequireRoles(middleware.Page, domain.RoleAdmin))
	cabinet := func(fn http.HandlerFunc) http.Handler { return wrap(h.WithCabinet(fn), user) }

	r.HandleFunc("/", h.Home).Methods(http.MethodGet)
	r.HandleFunc("/login", h.LoginPage).Methods(http.MethodGet)
	r.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/logout", h.Logout).Methods(http.MethodPost)
	r.HandleFunc("/forbidden", h.Forbidden).Methods(http.MethodGet)

	r.Handle("/onboarding/{stage}", wrap(h.OnboardingPage, user)).Methods(http.MethodGet)
	r.Handle("/onboarding/{stage}", wrap(h.SubmitOnboarding, user)).Methods(http.MethodPost)

	r.Handle("/cabinet", cabinet(h.Cabinet)).Methods(http.MethodGet)
	r.Handle("/cabinet/electricity", cabinet(h.Electricity)).Methods(http.MethodGet)
	r.Handle("/cabinet/electricity", cabinet(h.SubmitElectricity)).Methods(http.MethodPost)
	r.Handle("/cabinet/appeals", cabinet(h.Appeals)).Methods(http.MethodGet)
	r.Handle("/cabinet/appeals", cabinet(h.SubmitAppeal)).Methods(http.MethodPost)
	r.Handle("/cabinet/documents", cabinet(h.Documents)).Methods(http.MethodGet)
	r.Handle("/cabinet/payments", cabinet(h.Payments)).Methods(http.MethodGet)
	r.Handle("/cabinet/payments", cabinet(h.SubmitConfirmation)).Methods(http.MethodPost)

	r.Handle("/admin", wrap(h.Admin, staff)).Methods(http.MethodGet)
	r.Handle("/admin/debts", wrap(h.Debts, finance)).Methods(http.MethodGet)
	r.Handle("/admin/qa", wrap(h.QAConsole, admin)).Methods(http.MethodGet)
	// The POST checks the real role itself so a simulated role can be cleared.
	r.HandleFunc("/admin/qa", h.SubmitQA).Methods(http.MethodPost)
}

func (s *Server) apiRoutes(api *mux.Router, h *handler.Handlers) {
	user := guard(s.auth.RequireUser(middleware.API))
	onboarded := guard(h.RequireOnboarded)
	staff := guard(s.auth.RequireRoles(middleware.API, domain.StaffRoles...))
	finance := guard(s.auth.RequireRoles(middleware.API, domain.FinanceRoles...))
	board := guard(s.auth.RequireRoles(middleware.API, domain.BoardRoles...))
	qaAdmin := guard(h.RequireQAAdmin)

	api.HandleFunc("/announcements", h.PublicAnnouncements).Methods(http.MethodGet)

	api.Handle("/onboarding/draft", wrap(h.GetDraft, user)).Methods(http.MethodGet)
	api.Handle("/onboarding/draft", wrap(h.SaveDraft, user)).Methods(http.MethodPut)
	api.Handle("/onboarding/stage", wrap(h.GetStage, user)).Methods(http.MethodGet)
	api.Handle("/onboarding/complete", wrap(h.CompleteOnboarding, user)).Methods(http.MethodPost)

	cab := func(fn http.HandlerFunc) http.Handler { return wrap(fn, user, onboarded) }
	api.Handle("/cabinet/summary", cab(h.CabinetSummary)).Methods(http.MethodGet)
	api.Handle("/cabinet/plots", cab(h.CabinetPlots)).Methods(http.MethodGet)
	api.Handle("/cabinet/plots/{plot_id}/primary", cab(h.SetPrimaryPlot)).Methods(http.MethodPost)
	api.Handle("/cabinet/membership", cab(h.CabinetMembership)).Methods(http.MethodGet)
	api.Handle("/cabinet/charges", cab(h.CabinetCharges)).Methods(http.MethodGet)
	api.Handle("/cabinet/balance", cab(h.CabinetBalance)).Methods(http.MethodGet)
	api.Handle("/cabinet/appeals", cab(h.CabinetAppeals)).Methods(http.MethodGet)
	api.Handle("/cabinet/appeals", cab(h.CreateAppeal)).Methods(http.MethodPost)
	api.Handle("/cabinet/electricity", cab(h.CabinetReadings)).Methods(http.MethodGet)
	api.Handle("/cabinet/electricity", cab(h.SubmitReading)).Methods(http.MethodPost)
	api.Handle("/cabinet/documents", cab(h.CabinetDocuments)).Methods(http.MethodGet)
	api.Handle("/cabinet/announcements", cab(h.CabinetAnnouncements)).Methods(http.MethodGet)
	api.Handle("/cabinet/decisions", cab(h.CabinetDecisions)).Methods(http.MethodGet)
	api.Handle("/payment-confirmations", cab(h.MyConfirmations)).Methods(http.MethodGet)
	api.Handle("/payment-confirmations", cab(h.SubmitConfirmationAPI)).Methods(http.MethodPost)

	api.Handle("/admin/billing/debts", wrap(h.DebtsAPI, finance)).Methods(http.MethodGet)
	api.Handle("/admin/charges", wrap(h.AccrueCharge, finance)).Methods(http.MethodPost)
	api.Handle("/admin/payments", wrap(h.RecordPayment, finance)).Methods(http.MethodPost)
	api.Handle("/admin/payment-confirmations", wrap(h.Confirmations, finance)).Methods(http.MethodGet)
	api.Handle("/admin/payment-confirmations/{id}/approve", wrap(h.ApproveConfirmation, finance)).Methods(http.MethodPost)
	api.Handle("/admin/payment-confirmations/{id}/reject", wrap(h.RejectConfirmation, finance)).Methods(http.MethodPost)
	api.Handle("/admin/appeals", wrap(h.AdminAppeals, staff)).Methods(http.MethodGet)
	api.Handle("/admin/appeals/{id}/status", wrap(h.UpdateAppeal, staff)).Methods(http.MethodPost)
	api.Handle("/admin/memberships/{user_id}", wrap(h.SetMembership, board)).Methods(http.MethodPut)
	api.Handle("/admin/announcements", wrap(h.PublishAnnouncement, board)).Methods(http.MethodPost)
	api.Handle("/admin/decisions", wrap(h.CreateDecision, board)).Methods(http.MethodPost)
	api.Handle("/admin/documents", wrap(h.CreateDocument, board)).Methods(http.MethodPost)

	api.Handle("/qa/stage", wrap(h.SetQAStage, qaAdmin)).Methods(http.MethodPost)
	api.Handle("/qa/stage", wrap(h.ClearQAStage, qaAdmin)).Methods(http.MethodDelete)
	api.Handle("/qa/role", wrap(h.SetQARole, qaAdmin)).Methods(http.MethodPost)
	api.Handle("/qa/role", wrap(h.ClearQARole, qaAdmin)).Methods(http.MethodDelete)
	api.Handle("/qa/matrix", wrap(h.QAMatrix, qaAdmin)).Methods(http.MethodGet)
	api.Handle("/qa/deadends", wrap(h.QADeadEnds, qaAdmin)).Methods(http.MethodGet)
	api.Handle("/qa/checks", wrap(h.QAChecks, qaAdmin)).Methods(http.MethodGet)
	api.Handle("/qa/report", wrap(h.QAReport, qaAdmin)).Methods(http.MethodPost)
}

func isAPI(r *http.Request) bool {
	return r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/")
}

// Start listens on the configured address and blocks until shutdown.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Serve accepts connections on ln; used when the caller picks the port.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("starting HTTP server", zap.String("addr", ln.Addr().String()))
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving HTTP: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
