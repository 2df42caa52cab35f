package qa

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestRunChecks(t *testing.T) {
	opt := goleak.IgnoreCurrent()
	defer goleak.VerifyNone(t, opt)

	srv := newPortal(t)
	defer srv.Close()
	c := newTestClient(t, srv)
	defer c.Close()

	checks := []Check{
		{Name: "home", Path: "/", Expect: []int{http.StatusOK}, Contains: "<form>"},
		{Name: "guard", Path: "/api/private", Expect: []int{http.StatusUnauthorized}, Contains: "UNAUTHORIZED"},
		{Name: "cabinet redirect", Path: "/cabinet", Expect: []int{http.StatusSeeOther}},
		{Name: "cabinet followed", Path: "/cabinet", Expect: []int{http.StatusOK}, Follow: true},
		{Name: "broken", Path: "/boom", Expect: []int{http.StatusOK}},
		{Name: "wrong body", Path: "/a", Expect: []int{http.StatusOK}, Contains: "welcome"},
	}

	results := RunChecks(context.Background(), c, checks, 4)

	require.Len(t, results, len(checks))
	for i, r := range results {
		assert.Equal(t, checks[i].Name, r.Check.Name, "results keep input order")
	}
	assert.True(t, results[0].OK)
	assert.True(t, results[1].OK)
	assert.True(t, results[2].OK)
	assert.True(t, results[3].OK)
	assert.False(t, results[4].OK)
	assert.Equal(t, "status 500, want one of [200]", results[4].Detail)
	assert.False(t, results[5].OK)
	assert.Contains(t, results[5].Detail, "welcome")
}

func TestRunChecks_TransportError(t *testing.T) {
	c, err := NewClient(ClientOptions{BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)

	results := RunChecks(context.Background(), c, []Check{{Name: "down", Path: "/health", Expect: []int{200}}}, 1)

	require.Len(t, results, 1)
	assert.False(t, results[0].OK)
	assert.Contains(t, results[0].Detail, "transport error")
}

func TestDefaultChecks_AreComplete(t *testing.T) {
	for _, c := range DefaultChecks() {
		assert.NotEmpty(t, c.Name)
		assert.NotEmpty(t, c.Expect, c.Name)
		assert.Equal(t, byte('/'), c.Path[0], c.Name)
	}
}
