package importer

import (
	"testing"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/auth"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert_MinimalSeed(t *testing.T) {
	seed, err := Convert(validMinimalSchema())
	require.NoError(t, err)

	require.Len(t, seed.Users, 1)
	u := seed.Users[0]
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, domain.RoleResident, u.Role)
	assert.True(t, u.Onboarded)
	require.NoError(t, auth.VerifyPassword(u.PasswordHash, "secret-pass"))

	require.Len(t, seed.Plots, 1)
	require.Len(t, seed.Owners, 1)
	assert.Equal(t, u.ID, seed.Owners[0].UserID)
	assert.Equal(t, seed.Plots[0].ID, seed.Owners[0].PlotID)
	assert.True(t, seed.Owners[0].IsPrimary)
	assert.Empty(t, seed.Memberships)
}

func TestConvert_ChargeOnAllPlots(t *testing.T) {
	schema := validMinimalSchema()
	schema.Plots = append(schema.Plots, PlotImport{Number: "13"})
	schema.Charges = []ChargeImport{
		{Plot: AllPlots, Kind: "membership", Period: "2026-01", Amount: "4500"},
		{Plot: "13", Kind: "penalty", Period: "2026-02", Amount: "100.50"},
	}
	require.Empty(t, ValidateSeedSchema(schema))

	seed, err := Convert(schema)
	require.NoError(t, err)
	require.Len(t, seed.Charges, 3)

	byPlot := map[string]int{}
	for _, c := range seed.Charges {
		byPlot[c.PlotID]++
	}
	assert.Equal(t, 1, byPlot[seed.Plots[0].ID])
	assert.Equal(t, 2, byPlot[seed.Plots[1].ID])
	assert.Equal(t, "100.5", seed.Charges[2].Amount.String())
}

func TestConvert_MembershipAndContent(t *testing.T) {
	schema := validMinimalSchema()
	schema.Users[0].Membership = "active"
	schema.Users = append(schema.Users, UserImport{Ref: "boss", FullName: "Boss", Email: "Boss@SNT.ru", Password: "boss-pass", Role: "chairman"})
	schema.Announcements = []AnnouncementImport{{Title: "Water", Body: "off"}}
	schema.Documents = []DocumentImport{{Title: "Charter", URL: "https://x/charter.pdf", MembersOnly: true}}

	seed, err := Convert(schema)
	require.NoError(t, err)

	require.Len(t, seed.Memberships, 1)
	assert.Equal(t, domain.MembershipActive, seed.Memberships[0].Status)
	assert.NotNil(t, seed.Memberships[0].Since)

	assert.Equal(t, "boss@snt.ru", seed.Users[1].Email)
	require.Len(t, seed.Announcements, 1)
	assert.Equal(t, domain.AudienceAll, seed.Announcements[0].Audience)
	assert.Equal(t, seed.Users[1].ID, seed.Announcements[0].AuthorID)
	require.Len(t, seed.Documents, 1)
	assert.True(t, seed.Documents[0].MembersOnly)
}
