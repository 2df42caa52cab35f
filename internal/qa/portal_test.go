package qa

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/middleware"
	"github.com/stretchr/testify/require"
)

const adminToken = "admin-token"

// newPortal serves a miniature site with the redirect and failure shapes
// the runners must recognise.
func newPortal(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	page := func(w http.ResponseWriter, links ...string) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		var sb strings.Builder
		sb.WriteString("<html><body><form></form>")
		for _, l := range links {
			fmt.Fprintf(&sb, `<a href="%s">link</a>`, l)
		}
		sb.WriteString("</body></html>")
		_, _ = w.Write([]byte(sb.String()))
	}
	role := func(r *http.Request) string {
		c, err := r.Cookie(middleware.SessionCookie)
		if err != nil || c.Value != adminToken {
			return "guest"
		}
		if rc, err := r.Cookie(middleware.QARoleCookie); err == nil {
			return rc.Value
		}
		return "admin"
	}

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		page(w, "/a", "/a#top", "/missing", "/loop1", "/cabinet", "mailto:board@example.com", "https://example.org/", "#")
	})
	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) { page(w, "/", "boom") })
	mux.HandleFunc("/boom", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	mux.HandleFunc("/loop1", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop2", http.StatusFound)
	})
	mux.HandleFunc("/loop2", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop1", http.StatusFound)
	})
	mux.HandleFunc("/chain/", func(w http.ResponseWriter, r *http.Request) {
		n, _ := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/chain/"))
		http.Redirect(w, r, fmt.Sprintf("/chain/%d", n+1), http.StatusFound)
	})
	mux.HandleFunc("/away", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "https://example.org/", http.StatusFound)
	})
	mux.HandleFunc("/no-head", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		page(w)
	})
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) { page(w, "/") })
	mux.HandleFunc("/forbidden", func(w http.ResponseWriter, r *http.Request) { page(w, "/") })
	mux.HandleFunc("/cabinet", func(w http.ResponseWriter, r *http.Request) {
		if role(r) == "guest" {
			http.Redirect(w, r, middleware.LoginURL(r.URL.RequestURI()), http.StatusSeeOther)
			return
		}
		page(w, "/")
	})
	mux.HandleFunc("/admin", func(w http.ResponseWriter, r *http.Request) {
		switch role(r) {
		case "guest":
			http.Redirect(w, r, middleware.LoginURL(r.URL.RequestURI()), http.StatusSeeOther)
		case "resident":
			http.Redirect(w, r, "/forbidden", http.StatusSeeOther)
		default:
			page(w)
		}
	})
	mux.HandleFunc("/api/private", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error_code":"UNAUTHORIZED"}`, http.StatusUnauthorized)
	})
	mux.HandleFunc("/api/denied", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	})
	mux.HandleFunc("/teapot", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient(ClientOptions{BaseURL: srv.URL, MaxHops: 5, Timeout: 5 * time.Second})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}
