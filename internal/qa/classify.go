package qa

import (
	"fmt"
	"net/http"
)

// Outcome is the access class of one request.
type Outcome string

const (
	Allow         Outcome = "ALLOW"
	LoginRequired Outcome = "LOGIN_REQUIRED"
	Forbidden     Outcome = "FORBIDDEN"
	ServerError   Outcome = "SERVER_ERROR"
)

func ParseOutcome(s string) (Outcome, error) {
	switch o := Outcome(s); o {
	case Allow, LoginRequired, Forbidden, ServerError:
		return o, nil
	}
	return "", fmt.Errorf("unknown outcome %q", s)
}

// Classify maps a followed request to an Outcome. A redirect to /login or
// /forbidden anywhere in the chain decides the outcome; otherwise the last
// status does. The detail string explains SERVER_ERROR results.
func Classify(t *Trace) (Outcome, string) {
	if t.Err != nil {
		return ServerError, "transport error: " + t.Err.Error()
	}
	for _, p := range redirectPaths(t) {
		switch p {
		case "/login":
			return LoginRequired, ""
		case "/forbidden":
			return Forbidden, ""
		}
	}
	if t.Loop {
		return ServerError, "redirect loop at " + t.FinalURL()
	}
	if t.Exceeded {
		return ServerError, fmt.Sprintf("more than %d redirects", len(t.Hops)-1)
	}
	if t.External {
		return Allow, "redirected off-site to " + t.Final().Location
	}

	status := t.Final().Status
	switch {
	case status >= 200 && status < 300:
		return Allow, ""
	case status == http.StatusUnauthorized:
		return LoginRequired, ""
	case status == http.StatusForbidden:
		return Forbidden, ""
	case status >= 500:
		return ServerError, fmt.Sprintf("status %d", status)
	default:
		return ServerError, fmt.Sprintf("unexpected status %d", status)
	}
}
