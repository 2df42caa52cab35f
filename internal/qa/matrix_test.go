package qa

import (
	"context"
	"testing"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const testTable = `
roles: [guest, resident, admin]
routes:
  - path: /
    expect: {default: ALLOW}
  - path: /cabinet
    expect: {default: ALLOW, guest: LOGIN_REQUIRED}
  - path: /admin
    expect: {default: ALLOW, guest: LOGIN_REQUIRED, resident: FORBIDDEN}
  - path: /boom
    expect: {default: ALLOW}
`

type outcomeKey struct {
	Role domain.Role
	Path string
}

func TestRunMatrix(t *testing.T) {
	opt := goleak.IgnoreCurrent()
	defer goleak.VerifyNone(t, opt)

	srv := newPortal(t)
	defer srv.Close()
	c := newTestClient(t, srv)
	defer c.Close()
	exp, err := ParseExpectations([]byte(testTable))
	require.NoError(t, err)

	res := RunMatrix(context.Background(), c, exp, adminToken, 4)

	require.Len(t, res.Cells, 12)
	got := map[outcomeKey]Outcome{}
	for _, cell := range res.Cells {
		got[outcomeKey{cell.Role, cell.Path}] = cell.Actual
	}
	want := map[outcomeKey]Outcome{
		{"guest", "/"}: Allow, {"resident", "/"}: Allow, {"admin", "/"}: Allow,
		{"guest", "/cabinet"}: LoginRequired, {"resident", "/cabinet"}: Allow, {"admin", "/cabinet"}: Allow,
		{"guest", "/admin"}: LoginRequired, {"resident", "/admin"}: Forbidden, {"admin", "/admin"}: Allow,
		{"guest", "/boom"}: ServerError, {"resident", "/boom"}: ServerError, {"admin", "/boom"}: ServerError,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("matrix mismatch (-want +got):\n%s", diff)
	}

	failures := res.Failures()
	assert.Len(t, failures, 3)
	for _, f := range failures {
		assert.Equal(t, "/boom", f.Path)
		assert.Equal(t, "status 500", f.Detail)
	}
	assert.Equal(t, map[string]int{"pass": 9, "fail": 3}, res.Counts())
	assert.Equal(t, "/", res.Cells[0].Path, "cells keep table order")
}

func TestRunMatrix_WithoutSessionEveryoneIsGuest(t *testing.T) {
	c := newTestClient(t, newPortal(t))
	exp, err := ParseExpectations([]byte(testTable))
	require.NoError(t, err)

	res := RunMatrix(context.Background(), c, exp, "", 2)

	for _, cell := range res.Cells {
		if cell.Path == "/cabinet" {
			assert.Equal(t, LoginRequired, cell.Actual, cell.Role)
		}
	}
}
