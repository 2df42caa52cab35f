package service

import (
	"context"
	"testing"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/domain"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/repository"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppealService_Transition(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u, _ := env.seedResident(t, "Owner", domain.MembershipActive)

	a := testutil.NewTestAppeal(u.ID, "Fence")
	require.NoError(t, env.repos.Appeals.Create(ctx, a))

	got, err := env.appeals.Transition(ctx, a.ID, domain.AppealInProgress, "looking into it")
	require.NoError(t, err)
	assert.Equal(t, domain.AppealInProgress, got.Status)

	got, err = env.appeals.Transition(ctx, a.ID, domain.AppealResolved, "")
	require.NoError(t, err)
	assert.Equal(t, "looking into it", got.Response)

	_, err = env.appeals.Transition(ctx, a.ID, domain.AppealInProgress, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = env.appeals.Transition(ctx, "missing", domain.AppealResolved, "")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	resolved, err := env.appeals.List(ctx, domain.AppealResolved)
	require.NoError(t, err)
	assert.Len(t, resolved, 1)
}

func TestMembershipService_SetStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u, _ := env.seedResident(t, "Owner", "")

	m, err := env.memberships.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MembershipNone, m.Status)

	m, err = env.memberships.SetStatus(ctx, u.ID, domain.MembershipActive, "accepted at meeting")
	require.NoError(t, err)
	require.NotNil(t, m.Since)
	since := *m.Since

	m, err = env.memberships.SetStatus(ctx, u.ID, domain.MembershipSuspended, "arrears")
	require.NoError(t, err)
	require.NotNil(t, m.Since)
	assert.True(t, since.Equal(*m.Since))

	_, err = env.memberships.SetStatus(ctx, u.ID, "honorary", "")
	assert.Equal(t, "status", ValidationCode(err))
	_, err = env.memberships.SetStatus(ctx, "missing", domain.MembershipActive, "")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestContentService_Publish(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.content.PublishAnnouncement(ctx, "author", AnnouncementInput{Title: "Members only", Audience: domain.AudienceMembers})
	require.NoError(t, err)
	_, err = env.content.PublishAnnouncement(ctx, "author", AnnouncementInput{Title: "Everyone"})
	require.NoError(t, err)
	_, err = env.content.PublishAnnouncement(ctx, "author", AnnouncementInput{Title: " "})
	assert.ErrorIs(t, err, ErrValidation)

	public, err := env.content.PublicAnnouncements(ctx)
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, "Everyone", public[0].Title)

	d, err := env.content.CreateDecision(ctx, DecisionInput{Title: "Budget 2025", DecidedOn: "2024-11-30"})
	require.NoError(t, err)
	assert.Equal(t, 30, d.DecidedOn.Day())
	_, err = env.content.CreateDecision(ctx, DecisionInput{Title: "Budget", DecidedOn: "soon"})
	assert.Equal(t, "date", ValidationCode(err))

	_, err = env.content.CreateDocument(ctx, DocumentInput{Title: "Charter", URL: "/charter.pdf"})
	require.NoError(t, err)
	_, err = env.content.CreateDocument(ctx, DocumentInput{Title: "Charter"})
	assert.ErrorIs(t, err, ErrValidation)
}
