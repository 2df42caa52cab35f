package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveStage(t *testing.T) {
	complete := func() *OnboardingDraft {
		return &OnboardingDraft{
			FullName: "Ivan Petrov",
			Phone:    "+79001234567",
			Plots:    []DraftPlot{{Number: "12"}},
			Consent:  true,
		}
	}

	tests := []struct {
		name  string
		draft func() *OnboardingDraft
		want  Stage
	}{
		{"nil draft", func() *OnboardingDraft { return nil }, StageProfile},
		{"empty draft", func() *OnboardingDraft { return &OnboardingDraft{} }, StageProfile},
		{"missing phone", func() *OnboardingDraft { d := complete(); d.Phone = ""; return d }, StageProfile},
		{"whitespace name", func() *OnboardingDraft { d := complete(); d.FullName = "   "; return d }, StageProfile},
		{"profile complete but no plot", func() *OnboardingDraft { d := complete(); d.Plots = nil; return d }, StagePlots},
		{"only blank plot numbers", func() *OnboardingDraft { d := complete(); d.Plots = []DraftPlot{{Number: " "}}; return d }, StagePlots},
		{"no consent", func() *OnboardingDraft { d := complete(); d.Consent = false; return d }, StageConsent},
		{"complete", complete, StageCabinetHome},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ResolveStage(tc.draft()))
		})
	}
}

func TestParseStage(t *testing.T) {
	for _, st := range Stages {
		got, err := ParseStage(string(st))
		require.NoError(t, err)
		assert.Equal(t, st, got)
	}

	_, err := ParseStage("dashboard")
	assert.Error(t, err)
}

func TestStage_IndexIsLinear(t *testing.T) {
	assert.Equal(t, 0, StageProfile.Index())
	assert.Equal(t, 3, StageCabinetHome.Index())
	assert.Equal(t, -1, Stage("nope").Index())
}

func TestOnboardingDraft_ValidPlotsTrims(t *testing.T) {
	d := &OnboardingDraft{Plots: []DraftPlot{{Number: " 7 ", Street: " Lesnaya "}, {Number: ""}}}
	plots := d.ValidPlots()
	require.Len(t, plots, 1)
	assert.Equal(t, DraftPlot{Number: "7", Street: "Lesnaya"}, plots[0])
}
