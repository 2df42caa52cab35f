package service

import (
	"context"
	"testing"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_RegisterLoginAuthenticateLogout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u, err := env.auth.Register(ctx, RegisterInput{
		FullName: "Maria", Phone: "+7 900 111-22-33", Password: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, "+79001112233", u.Phone)
	assert.Equal(t, domain.RoleResident, u.Role)
	assert.False(t, u.Onboarded)

	got, sess, err := env.auth.Login(ctx, "8-900-111-22-33", "s3cret-pass")
	require.Error(t, err, "different country prefix is a different login")
	assert.Nil(t, got)
	assert.Nil(t, sess)

	got, sess, err = env.auth.Login(ctx, "+7 (900) 111-22-33", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	who, err := env.auth.Authenticate(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, who.ID)

	require.NoError(t, env.auth.Logout(ctx, sess.Token))
	_, err = env.auth.Authenticate(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, RegisterInput{Email: "a@b.ru", Password: "long-enough"})
	require.NoError(t, err)

	_, _, err = env.auth.Login(ctx, "A@B.ru", "wrong-password")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, _, err = env.auth.Login(ctx, "nobody@b.ru", "long-enough")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAuthService_Register_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, RegisterInput{Phone: "+79000000000", Password: "short"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.auth.Register(ctx, RegisterInput{Password: "long-enough"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.auth.Register(ctx, RegisterInput{Phone: "+79000000000", Password: "long-enough"})
	require.NoError(t, err)
	_, err = env.auth.Register(ctx, RegisterInput{Phone: "+79000000000", Password: "long-enough"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestAuthService_SetRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, RegisterInput{Email: "chair@snt.ru", Password: "long-enough"})
	require.NoError(t, err)

	u, err := env.auth.SetRole(ctx, "chair@snt.ru", domain.RoleChairman)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleChairman, u.Role)

	_, err = env.auth.SetRole(ctx, "chair@snt.ru", domain.RoleGuest)
	assert.ErrorIs(t, err, ErrValidation)
}
