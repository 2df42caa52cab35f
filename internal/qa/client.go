// Package qa implements the portal's diagnostics toolkit: the role × route
// access matrix, the dead-end link scanner, named HTTP checks and the
// bug-report text builders.
package qa

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const DefaultMaxHops = 5

// Hop is one request of a redirect chain.
type Hop struct {
	URL      string `json:"url"`
	Status   int    `json:"status"`
	Location string `json:"location,omitempty"`
}

// Trace is the outcome of following one URL.
type Trace struct {
	Hops []Hop `json:"hops"`
	// ContentType and Body belong to the last response; Body is kept only
	// when requested.
	ContentType string `json:"-"`
	Body        []byte `json:"-"`
	Err         error  `json:"-"`
	Loop        bool   `json:"loop,omitempty"`
	Exceeded    bool   `json:"exceeded,omitempty"`
	External    bool   `json:"external,omitempty"`
}

// Final returns the last hop, or a zero Hop when nothing was fetched.
func (t *Trace) Final() Hop {
	if len(t.Hops) == 0 {
		return Hop{}
	}
	return t.Hops[len(t.Hops)-1]
}

// FinalURL is the URL of the last hop.
func (t *Trace) FinalURL() string { return t.Final().URL }

type ClientOptions struct {
	BaseURL           string
	MaxHops           int
	Timeout           time.Duration
	RequestsPerSecond float64
	// Transport overrides the default transport; tests pass an httptest one.
	Transport http.RoundTripper
}

// Client issues requests with redirects handled manually so that each hop
// can be inspected.
type Client struct {
	base    *url.URL
	http    *http.Client
	maxHops int
	limiter *rate.Limiter
}

func NewClient(opts ClientOptions) (*Client, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", opts.BaseURL)
	}
	if opts.MaxHops <= 0 {
		opts.MaxHops = DefaultMaxHops
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	c := &Client{
		base:    base,
		maxHops: opts.MaxHops,
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: opts.Transport,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
	if opts.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return c, nil
}

func (c *Client) BaseURL() string { return c.base.String() }

// Resolve turns a path or relative reference into an absolute URL on the
// base host.
func (c *Client) Resolve(ref string) (*url.URL, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return nil, err
	}
	return c.base.ResolveReference(u), nil
}

// Internal reports whether u points at the portal itself.
func (c *Client) Internal(u *url.URL) bool {
	return u.Host == c.base.Host && (u.Scheme == "http" || u.Scheme == "https")
}

// Close drops idle keep-alive connections.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

// Follow requests target and follows up to MaxHops redirects, sending
// cookies on every hop. Redirects leaving the portal host are not followed.
func (c *Client) Follow(ctx context.Context, method, target string, cookies []*http.Cookie, keepBody bool) *Trace {
	t := &Trace{}
	next, err := c.Resolve(target)
	if err != nil {
		t.Err = fmt.Errorf("parsing %q: %w", target, err)
		return t
	}
	seen := map[string]bool{}

	for hop := 0; ; hop++ {
		if seen[next.String()] {
			t.Loop = true
			return t
		}
		seen[next.String()] = true
		if hop > c.maxHops {
			t.Exceeded = true
			return t
		}

		resp, err := c.do(ctx, method, next.String(), cookies)
		if err != nil {
			t.Err = err
			return t
		}
		h := Hop{URL: next.String(), Status: resp.StatusCode, Location: resp.Header.Get("Location")}
		t.Hops = append(t.Hops, h)
		t.ContentType = resp.Header.Get("Content-Type")
		if keepBody && !isRedirect(resp.StatusCode) {
			t.Body, err = io.ReadAll(io.LimitReader(resp.Body, 2<<20))
		} else {
			_, _ = io.Copy(io.Discard, resp.Body)
		}
		resp.Body.Close()
		if err != nil {
			t.Err = fmt.Errorf("reading %s: %w", h.URL, err)
			return t
		}

		if !isRedirect(h.Status) || h.Location == "" {
			return t
		}
		loc, err := next.Parse(h.Location)
		if err != nil {
			t.Err = fmt.Errorf("bad Location %q: %w", h.Location, err)
			return t
		}
		if !c.Internal(loc) {
			t.External = true
			return t
		}
		// 303 turns every method into GET.
		if h.Status == http.StatusSeeOther {
			method = http.MethodGet
		}
		next = loc
	}
}

// Fetch issues a single request without following redirects and keeps
// the body.
func (c *Client) Fetch(ctx context.Context, method, target string, cookies []*http.Cookie) *Trace {
	t := &Trace{}
	u, err := c.Resolve(target)
	if err != nil {
		t.Err = fmt.Errorf("parsing %q: %w", target, err)
		return t
	}
	resp, err := c.do(ctx, method, u.String(), cookies)
	if err != nil {
		t.Err = err
		return t
	}
	defer resp.Body.Close()
	t.Hops = append(t.Hops, Hop{URL: u.String(), Status: resp.StatusCode, Location: resp.Header.Get("Location")})
	t.ContentType = resp.Header.Get("Content-Type")
	if t.Body, err = io.ReadAll(io.LimitReader(resp.Body, 2<<20)); err != nil {
		t.Err = fmt.Errorf("reading %s: %w", u, err)
	}
	return t
}

func (c *Client) do(ctx context.Context, method, target string, cookies []*http.Cookie) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "snt-qa/1")
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	return c.http.Do(req)
}

func isRedirect(status int) bool {
	return status >= 300 && status < 400
}

// redirectPaths returns the path of every redirect target in the chain.
func redirectPaths(t *Trace) []string {
	var out []string
	for _, h := range t.Hops {
		if !isRedirect(h.Status) || h.Location == "" {
			continue
		}
		base, err := url.Parse(h.URL)
		if err != nil {
			continue
		}
		if loc, err := base.Parse(h.Location); err == nil {
			out = append(out, loc.Path)
		}
	}
	return out
}
