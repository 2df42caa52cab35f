package domain

import (
	"fmt"
	"strings"
	"time"
)

// Stage is a step of the linear onboarding wizard.
type Stage string

const (
	StageProfile     Stage = "profile"
	StagePlots       Stage = "plots"
	StageConsent     Stage = "consent"
	StageCabinetHome Stage = "cabinet_home"
)

// Stages lists the wizard in order.
var Stages = []Stage{StageProfile, StagePlots, StageConsent, StageCabinetHome}

type DraftPlot struct {
	Number string `json:"number"`
	Street string `json:"street,omitempty"`
}

// OnboardingDraft is what a new resident has filled in so far.
type OnboardingDraft struct {
	UserID    string      `json:"-"`
	FullName  string      `json:"fullName"`
	Phone     string      `json:"phone"`
	Email     string      `json:"email,omitempty"`
	Plots     []DraftPlot `json:"plots"`
	Consent   bool        `json:"consent"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// ResolveStage maps a draft's completeness to the first unfinished stage.
func ResolveStage(d *OnboardingDraft) Stage {
	if d == nil {
		return StageProfile
	}
	if strings.TrimSpace(d.FullName) == "" || strings.TrimSpace(d.Phone) == "" {
		return StageProfile
	}
	if len(d.ValidPlots()) == 0 {
		return StagePlots
	}
	if !d.Consent {
		return StageConsent
	}
	return StageCabinetHome
}

// ValidPlots drops entries with a blank number.
func (d *OnboardingDraft) ValidPlots() []DraftPlot {
	var out []DraftPlot
	for _, p := range d.Plots {
		if strings.TrimSpace(p.Number) != "" {
			out = append(out, DraftPlot{Number: strings.TrimSpace(p.Number), Street: strings.TrimSpace(p.Street)})
		}
	}
	return out
}

func ParseStage(s string) (Stage, error) {
	for _, st := range Stages {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown onboarding stage %q", s)
}

// Index returns the zero-based position of s in the wizard, or -1.
func (s Stage) Index() int {
	for i, st := range Stages {
		if st == s {
			return i
		}
	}
	return -1
}
