package qa

import (
	"context"
	"net/http"
	"time"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/domain"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/middleware"
	"golang.org/x/sync/errgroup"
)

// MatrixCell is the observed access of one role on one route.
type MatrixCell struct {
	Role     domain.Role `json:"role"`
	Path     string      `json:"path"`
	Expected Outcome     `json:"expected"`
	Actual   Outcome     `json:"actual"`
	Status   int         `json:"status"`
	FinalURL string      `json:"final_url"`
	Hops     int         `json:"hops"`
	Detail   string      `json:"detail,omitempty"`
}

func (c MatrixCell) OK() bool { return c.Expected == c.Actual }

type MatrixResult struct {
	BaseURL   string        `json:"base_url"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Cells     []MatrixCell  `json:"cells"`
}

// Failures returns the cells whose outcome differs from the expectation.
func (r *MatrixResult) Failures() []MatrixCell {
	var out []MatrixCell
	for _, c := range r.Cells {
		if !c.OK() {
			out = append(out, c)
		}
	}
	return out
}

// Counts tallies cells into pass and fail.
func (r *MatrixResult) Counts() map[string]int {
	counts := map[string]int{"pass": 0, "fail": 0}
	for _, c := range r.Cells {
		if c.OK() {
			counts["pass"]++
		} else {
			counts["fail"]++
		}
	}
	return counts
}

// RunMatrix issues a GET for every (role, route) pair of exp. The guest
// row carries no cookies; other roles reuse adminSession and ask for the
// role through the QA role cookie. Cells keep the table order.
func RunMatrix(ctx context.Context, c *Client, exp *Expectations, adminSession string, workers int) *MatrixResult {
	res := &MatrixResult{BaseURL: c.BaseURL(), StartedAt: time.Now().UTC()}
	for _, rt := range exp.Routes {
		for _, role := range exp.Roles {
			res.Cells = append(res.Cells, MatrixCell{Role: role, Path: rt.Path, Expected: rt.For(role)})
		}
	}

	if workers <= 0 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range res.Cells {
		cell := &res.Cells[i]
		g.Go(func() error {
			t := c.Follow(gctx, http.MethodGet, cell.Path, roleCookies(cell.Role, adminSession), false)
			cell.Actual, cell.Detail = Classify(t)
			cell.Status = t.Final().Status
			cell.FinalURL = t.FinalURL()
			cell.Hops = len(t.Hops)
			return nil
		})
	}
	_ = g.Wait()

	res.Duration = time.Since(res.StartedAt)
	return res
}

func roleCookies(role domain.Role, adminSession string) []*http.Cookie {
	if role == domain.RoleGuest || adminSession == "" {
		return nil
	}
	return []*http.Cookie{
		{Name: middleware.SessionCookie, Value: adminSession},
		{Name: middleware.QARoleCookie, Value: string(role)},
	}
}
