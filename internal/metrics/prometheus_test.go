package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/service"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware_LabelsByRouteTemplate(t *testing.T) {
	m := New()
	r := mux.NewRouter()
	r.Use(Middleware(m))
	r.HandleFunc("/api/admin/appeals/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/admin/appeals/a1/status", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/admin/appeals/a2/status", nil))

	got := testutil.ToFloat64(m.requestsTotal.WithLabelValues(http.MethodGet, "/api/admin/appeals/{id}/status", "409"))
	assert.Equal(t, float64(2), got)
}

func TestObserveUseCase(t *testing.T) {
	m := New()
	m.ObserveUseCase(context.Background(), service.UseCaseEvent{Name: "login", Success: true, Duration: time.Millisecond})
	m.ObserveUseCase(context.Background(), service.UseCaseEvent{Name: "login", Err: errors.New("x")})

	assert.Equal(t, float64(1), testutil.ToFloat64(m.useCasesTotal.WithLabelValues("login", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.useCasesTotal.WithLabelValues("login", "error")))
}

func TestRecordQARun(t *testing.T) {
	m := New()
	m.RecordQARun("matrix", map[string]int{"pass": 10, "fail": 2})

	assert.Equal(t, float64(1), testutil.ToFloat64(m.qaRunsTotal.WithLabelValues("matrix")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.qaFindingsTotal.WithLabelValues("matrix", "fail")))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	m := New()
	m.RecordHTTPRequest(http.MethodGet, "/", 200, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "snt_http_requests_total")
}
