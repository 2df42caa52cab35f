package qa

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// DeadEnd is a link that does not lead to a usable page.
type DeadEnd struct {
	Source string `json:"source"`
	URL    string `json:"url"`
	Status int    `json:"status,omitempty"`
	Reason string `json:"reason"`
}

type DeadEndReport struct {
	BaseURL      string        `json:"base_url"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
	PagesScanned int           `json:"pages_scanned"`
	LinksChecked int           `json:"links_checked"`
	Truncated    bool          `json:"truncated,omitempty"`
	DeadEnds     []DeadEnd     `json:"dead_ends"`
}

// DefaultSeeds are the pages a scan starts from.
var DefaultSeeds = []string{"/", "/cabinet", "/admin"}

// ScanDeadEnds crawls internal pages breadth-first from seeds, checks every
// internal link once and reports the broken ones. At most maxPages pages
// are parsed for links.
func ScanDeadEnds(ctx context.Context, c *Client, seeds []string, cookies []*http.Cookie, maxPages int) *DeadEndReport {
	rep := &DeadEndReport{BaseURL: c.BaseURL(), StartedAt: time.Now().UTC(), DeadEnds: []DeadEnd{}}
	if len(seeds) == 0 {
		seeds = DefaultSeeds
	}

	type page struct{ url, source string }
	var queue []page
	checked := map[string]bool{}
	for _, s := range seeds {
		u, err := c.Resolve(s)
		if err != nil {
			rep.DeadEnds = append(rep.DeadEnds, DeadEnd{Source: "seed", URL: s, Reason: "invalid url"})
			continue
		}
		key := pageKey(u)
		if !checked[key] {
			checked[key] = true
			queue = append(queue, page{url: key, source: "seed"})
		}
	}

	for len(queue) > 0 {
		if ctx.Err() != nil {
			break
		}
		if rep.PagesScanned >= maxPages {
			rep.Truncated = true
			break
		}
		p := queue[0]
		queue = queue[1:]

		t := c.Follow(ctx, http.MethodGet, p.url, cookies, true)
		rep.LinksChecked++
		if d, dead := deadEnd(p.source, p.url, t); dead {
			rep.DeadEnds = append(rep.DeadEnds, d)
			continue
		}
		rep.PagesScanned++
		if !strings.Contains(t.ContentType, "text/html") || t.External {
			continue
		}

		finalURL, err := url.Parse(t.FinalURL())
		if err != nil {
			continue
		}
		for _, href := range ExtractLinks(t.Body) {
			u, err := finalURL.Parse(href)
			if err != nil || !c.Internal(u) {
				continue
			}
			key := pageKey(u)
			if checked[key] {
				continue
			}
			checked[key] = true
			queue = append(queue, page{url: key, source: t.FinalURL()})
		}
	}

	// Whatever is still queued was discovered but not parsed; it is only
	// probed.
	for _, p := range queue {
		if ctx.Err() != nil {
			break
		}
		rep.LinksChecked++
		if d, dead := deadEnd(p.source, p.url, Probe(ctx, c, p.url, cookies)); dead {
			rep.DeadEnds = append(rep.DeadEnds, d)
		}
	}

	rep.Duration = time.Since(rep.StartedAt)
	return rep
}

// Probe checks a link with HEAD and retries with GET when the server does
// not implement HEAD for it.
func Probe(ctx context.Context, c *Client, target string, cookies []*http.Cookie) *Trace {
	t := c.Follow(ctx, http.MethodHead, target, cookies, false)
	if t.Err == nil {
		if s := t.Final().Status; s == http.StatusMethodNotAllowed || s == http.StatusNotImplemented {
			return c.Follow(ctx, http.MethodGet, target, cookies, false)
		}
	}
	return t
}

func deadEnd(source, target string, t *Trace) (DeadEnd, bool) {
	d := DeadEnd{Source: source, URL: target, Status: t.Final().Status}
	switch {
	case t.Err != nil:
		d.Reason = "transport error: " + t.Err.Error()
	case t.Loop:
		d.Reason = "redirect loop"
	case t.Exceeded:
		d.Reason = fmt.Sprintf("more than %d redirects", len(t.Hops)-1)
	case d.Status == http.StatusNotFound || d.Status == http.StatusGone:
		d.Reason = "not found"
	case d.Status >= 500:
		d.Reason = "server error"
	default:
		return DeadEnd{}, false
	}
	return d, true
}

// pageKey drops the fragment so that /x#a and /x#b are one page.
func pageKey(u *url.URL) string {
	c := *u
	c.Fragment = ""
	return c.String()
}

// ExtractLinks returns the href of every <a> element in doc, skipping
// fragments, mailto: and javascript: links.
func ExtractLinks(doc []byte) []string {
	root, err := html.Parse(bytes.NewReader(doc))
	if err != nil {
		return nil
	}
	var out []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if href := strings.TrimSpace(getAttr(n, "href")); usableHref(href) {
				out = append(out, href)
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)
	return out
}

func usableHref(href string) bool {
	if href == "" || strings.HasPrefix(href, "#") {
		return false
	}
	lower := strings.ToLower(href)
	for _, p := range []string{"mailto:", "tel:", "javascript:", "data:"} {
		if strings.HasPrefix(lower, p) {
			return false
		}
	}
	return true
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
