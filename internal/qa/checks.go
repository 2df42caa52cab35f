package qa

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"
)

// Check is a named request with an expected status set and, optionally, a
// substring the final body must contain.
type Check struct {
	Name     string `json:"name" yaml:"name"`
	Method   string `json:"method" yaml:"method"`
	Path     string `json:"path" yaml:"path"`
	Expect   []int  `json:"expect" yaml:"expect"`
	Contains string `json:"contains,omitempty" yaml:"contains"`
	// Follow follows redirects before comparing the status.
	Follow bool `json:"follow,omitempty" yaml:"follow"`
}

type CheckResult struct {
	Check    Check         `json:"check"`
	OK       bool          `json:"ok"`
	Status   int           `json:"status"`
	FinalURL string        `json:"final_url"`
	Duration time.Duration `json:"duration"`
	Detail   string        `json:"detail,omitempty"`
}

// DefaultChecks probes the endpoints every deployment must serve.
func DefaultChecks() []Check {
	return []Check{
		{Name: "health", Method: http.MethodGet, Path: "/health", Expect: []int{http.StatusOK}, Contains: "healthy"},
		{Name: "readiness", Method: http.MethodGet, Path: "/ready", Expect: []int{http.StatusOK}, Contains: "ready"},
		{Name: "login page", Method: http.MethodGet, Path: "/login", Expect: []int{http.StatusOK}, Contains: "<form"},
		{Name: "public home", Method: http.MethodGet, Path: "/", Expect: []int{http.StatusOK}},
		{Name: "public announcements api", Method: http.MethodGet, Path: "/api/announcements", Expect: []int{http.StatusOK}},
		{Name: "cabinet api requires login", Method: http.MethodGet, Path: "/api/cabinet/summary", Expect: []int{http.StatusUnauthorized}, Contains: "UNAUTHORIZED"},
		{Name: "cabinet page redirects guests", Method: http.MethodGet, Path: "/cabinet", Expect: []int{http.StatusSeeOther}},
	}
}

// RunChecks executes checks through a pool of at most workers concurrent
// requests. Results keep the order of checks.
func RunChecks(ctx context.Context, c *Client, checks []Check, workers int) []CheckResult {
	results := make([]CheckResult, len(checks))
	if workers <= 0 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, chk := range checks {
		i, chk := i, chk
		g.Go(func() error {
			results[i] = runCheck(gctx, c, chk)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func runCheck(ctx context.Context, c *Client, chk Check) CheckResult {
	method := chk.Method
	if method == "" {
		method = http.MethodGet
	}
	start := time.Now()
	var t *Trace
	if chk.Follow {
		t = c.Follow(ctx, method, chk.Path, nil, true)
	} else {
		t = c.Fetch(ctx, method, chk.Path, nil)
	}
	res := CheckResult{Check: chk, Status: t.Final().Status, FinalURL: t.FinalURL(), Duration: time.Since(start)}

	switch {
	case t.Err != nil:
		res.Detail = "transport error: " + t.Err.Error()
	case !slices.Contains(chk.Expect, res.Status):
		res.Detail = fmt.Sprintf("status %d, want one of %v", res.Status, chk.Expect)
	case chk.Contains != "" && !bytes.Contains(t.Body, []byte(chk.Contains)):
		res.Detail = fmt.Sprintf("body does not contain %q", chk.Contains)
	default:
		res.OK = true
	}
	return res
}
