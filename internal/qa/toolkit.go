package qa

import (
	"context"
	"net/http"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/middleware"
)

// Recorder receives run tallies; *metrics.Metrics implements it.
type Recorder interface {
	RecordQARun(kind string, outcomes map[string]int)
}

type Options struct {
	Client       ClientOptions
	Workers      int
	MaxPages     int
	Expectations *Expectations
	Recorder     Recorder
}

// Toolkit bundles the QA runners against one base URL.
type Toolkit struct {
	client   *Client
	exp      *Expectations
	workers  int
	maxPages int
	recorder Recorder
}

func NewToolkit(opts Options) (*Toolkit, error) {
	c, err := NewClient(opts.Client)
	if err != nil {
		return nil, err
	}
	exp := opts.Expectations
	if exp == nil {
		if exp, err = LoadExpectations(""); err != nil {
			return nil, err
		}
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = 200
	}
	return &Toolkit{client: c, exp: exp, workers: opts.Workers, maxPages: opts.MaxPages, recorder: opts.Recorder}, nil
}

func (k *Toolkit) BaseURL() string { return k.client.BaseURL() }

func (k *Toolkit) Close() { k.client.Close() }

func (k *Toolkit) Matrix(ctx context.Context, adminSession string) *MatrixResult {
	res := RunMatrix(ctx, k.client, k.exp, adminSession, k.workers)
	k.record("matrix", res.Counts())
	return res
}

// DeadEnds scans from seeds; a non-empty session crawls as that user.
func (k *Toolkit) DeadEnds(ctx context.Context, seeds []string, session string) *DeadEndReport {
	var cookies []*http.Cookie
	if session != "" {
		cookies = []*http.Cookie{{Name: middleware.SessionCookie, Value: session}}
	}
	rep := ScanDeadEnds(ctx, k.client, seeds, cookies, k.maxPages)
	k.record("deadends", map[string]int{"checked": rep.LinksChecked, "dead": len(rep.DeadEnds)})
	return rep
}

func (k *Toolkit) Checks(ctx context.Context, checks []Check) []CheckResult {
	if len(checks) == 0 {
		checks = DefaultChecks()
	}
	results := RunChecks(ctx, k.client, checks, k.workers)
	counts := map[string]int{"pass": 0, "fail": 0}
	for _, r := range results {
		if r.OK {
			counts["pass"]++
		} else {
			counts["fail"]++
		}
	}
	k.record("checks", counts)
	return results
}

func (k *Toolkit) record(kind string, counts map[string]int) {
	if k.recorder != nil {
		k.recorder.RecordQARun(kind, counts)
	}
}
