package service

import (
	"context"
	"testing"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/domain"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApplicant(t *testing.T, env *testEnv) *domain.User {
	t.Helper()
	u := testutil.NewTestUser("", testutil.NotOnboarded(), testutil.WithPhone(""), testutil.WithEmail("new@snt.ru"))
	require.NoError(t, env.repos.Users.Create(context.Background(), u))
	return u
}

func TestOnboardingService_StageFollowsDraft(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := newApplicant(t, env)

	stage, err := env.onboarding.Stage(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StageProfile, stage)

	draft, err := env.onboarding.GetDraft(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "new@snt.ru", draft.Email)

	draft.FullName = "Pavel Smirnov"
	draft.Phone = "+79001230000"
	_, err = env.onboarding.SaveDraft(ctx, u.ID, draft)
	require.NoError(t, err)
	stage, err = env.onboarding.Stage(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StagePlots, stage)

	draft.Plots = []domain.DraftPlot{{Number: "  "}, {Number: " 42 ", Street: "Central"}}
	saved, err := env.onboarding.SaveDraft(ctx, u.ID, draft)
	require.NoError(t, err)
	assert.Equal(t, []domain.DraftPlot{{Number: "42", Street: "Central"}}, saved.Plots)
	stage, err = env.onboarding.Stage(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StageConsent, stage)

	draft.Consent = true
	_, err = env.onboarding.SaveDraft(ctx, u.ID, draft)
	require.NoError(t, err)
	stage, err = env.onboarding.Stage(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StageCabinetHome, stage)
}

func TestOnboardingService_Complete_RequiresFinishedDraft(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := newApplicant(t, env)

	_, err := env.onboarding.Complete(ctx, u.ID)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "profile", ValidationCode(err))

	_, err = env.onboarding.SaveDraft(ctx, u.ID, &domain.OnboardingDraft{FullName: "Pavel", Phone: "+79001230000"})
	require.NoError(t, err)
	_, err = env.onboarding.Complete(ctx, u.ID)
	assert.Equal(t, "plots", ValidationCode(err))
}

func TestOnboardingService_Complete_MaterializesAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := newApplicant(t, env)

	existing := testutil.NewTestPlot("7")
	require.NoError(t, env.repos.Plots.Create(ctx, existing))

	_, err := env.onboarding.SaveDraft(ctx, u.ID, &domain.OnboardingDraft{
		FullName: "Pavel Smirnov",
		Phone:    "+7 900 123-00-00",
		Plots:    []domain.DraftPlot{{Number: "7"}, {Number: "8", Street: "Birch"}},
		Consent:  true,
	})
	require.NoError(t, err)

	done, err := env.onboarding.Complete(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, done.Onboarded)
	assert.Equal(t, "+79001230000", done.Phone)

	plots, err := env.repos.Plots.ListByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, plots, 2)
	assert.Equal(t, existing.ID, plots[0].ID)
	assert.True(t, plots[0].IsPrimary)
	assert.Equal(t, "Birch", plots[1].Street)
	assert.False(t, plots[1].IsPrimary)

	m, err := env.repos.Memberships.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MembershipPending, m.Status)

	again, err := env.onboarding.Complete(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)
	plots, err = env.repos.Plots.ListByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, plots, 2)

	stage, err := env.onboarding.Stage(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StageCabinetHome, stage)
}

func TestOnboardingService_Complete_KeepsExistingMembership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := newApplicant(t, env)
	require.NoError(t, env.repos.Memberships.Upsert(ctx, &domain.Membership{UserID: u.ID, Status: domain.MembershipActive}))

	_, err := env.onboarding.SaveDraft(ctx, u.ID, &domain.OnboardingDraft{
		FullName: "A", Phone: "+79009990000", Plots: []domain.DraftPlot{{Number: "1"}}, Consent: true,
	})
	require.NoError(t, err)
	_, err = env.onboarding.Complete(ctx, u.ID)
	require.NoError(t, err)

	m, err := env.repos.Memberships.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MembershipActive, m.Status)
}
