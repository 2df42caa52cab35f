package formatter

import (
	"fmt"
	"strings"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/qa"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// OutcomeStyle colors an access-matrix outcome.
func OutcomeStyle(o qa.Outcome) lipgloss.Style {
	switch o {
	case qa.Allow:
		return StyleGreen
	case qa.LoginRequired:
		return StyleBlue
	case qa.Forbidden:
		return StyleYellow
	case qa.ServerError:
		return StyleRed
	default:
		return StyleDim
	}
}

func Outcome(o qa.Outcome) string {
	return OutcomeStyle(o).Render(string(o))
}

// PassFail renders "ok" in green or "FAIL" in red.
func PassFail(ok bool) string {
	if ok {
		return StyleGreen.Render("ok")
	}
	return StyleRed.Render("FAIL")
}

// Money renders an amount with two decimals; positive debts are red.
func Money(d decimal.Decimal, debt bool) string {
	s := d.StringFixed(2)
	if debt && d.IsPositive() {
		return StyleRed.Render(s)
	}
	return s
}

// Header renders a section header with an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", lipgloss.Width(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

func Dim(text string) string {
	return StyleDim.Render(text)
}

func Bold(text string) string {
	return StyleBold.Render(text)
}
