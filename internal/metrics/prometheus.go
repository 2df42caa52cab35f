// Package metrics provides Prometheus metrics for the portal.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/service"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry         *prometheus.Registry
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight prometheus.Gauge
	useCasesTotal    *prometheus.CounterVec
	useCaseDuration  *prometheus.HistogramVec
	qaRunsTotal      *prometheus.CounterVec
	qaFindingsTotal  *prometheus.CounterVec
}

// New registers every collector on a fresh registry, so tests can build
// as many instances as they need.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "snt_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "snt_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "route"},
		),
		requestsInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "snt_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),
		useCasesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "snt_use_cases_total",
				Help: "Service use-case executions by outcome",
			},
			[]string{"use_case", "outcome"},
		),
		useCaseDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "snt_use_case_duration_seconds",
				Help:    "Service use-case duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"use_case"},
		),
		qaRunsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "snt_qa_runs_total",
				Help: "QA tool runs by kind",
			},
			[]string{"kind"},
		),
		qaFindingsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "snt_qa_findings_total",
				Help: "QA results by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
	}
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordQARun counts one QA run and its results keyed by outcome.
func (m *Metrics) RecordQARun(kind string, outcomes map[string]int) {
	m.qaRunsTotal.WithLabelValues(kind).Inc()
	for outcome, n := range outcomes {
		m.qaFindingsTotal.WithLabelValues(kind, outcome).Add(float64(n))
	}
}

// ObserveUseCase makes Metrics a service.UseCaseObserver.
func (m *Metrics) ObserveUseCase(_ context.Context, event service.UseCaseEvent) {
	outcome := "success"
	if !event.Success {
		outcome = "error"
	}
	m.useCasesTotal.WithLabelValues(event.Name, outcome).Inc()
	m.useCaseDuration.WithLabelValues(event.Name).Observe(event.Duration.Seconds())
}

var _ service.UseCaseObserver = (*Metrics)(nil)

// Middleware records request metrics labelled by the mux route template,
// which keeps ids out of the label set.
func Middleware(m *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.requestsInFlight.Inc()
			defer m.requestsInFlight.Dec()

			start := time.Now()
			rw := &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r)

			m.RecordHTTPRequest(r.Method, routeLabel(r), rw.statusCode, time.Since(start))
		})
	}
}

func routeLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *metricsResponseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}
