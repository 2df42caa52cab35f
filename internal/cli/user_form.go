package cli

import (
	"errors"
	"strings"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/cli/formatter"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/domain"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

func sntHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorGreen)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	return t
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(field + " is required")
		}
		return nil
	}
}

// userForm asks for the account fields that flags did not provide.
func userForm(f *userFields) *huh.Form {
	roles := make([]huh.Option[string], 0, len(domain.ValidRoles))
	for _, r := range []domain.Role{domain.RoleResident, domain.RoleChairman, domain.RoleAccountant, domain.RoleSecretary, domain.RoleAdmin} {
		roles = append(roles, huh.NewOption(string(r), string(r)))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Full name").Value(&f.FullName).Validate(required("name")),
			huh.NewInput().Title("Phone").Placeholder("+7 900 000-00-00").Value(&f.Phone),
			huh.NewInput().Title("E-mail").Description("Phone or e-mail is required").Value(&f.Email).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" && strings.TrimSpace(f.Phone) == "" {
						return errors.New("phone or e-mail is required")
					}
					if s != "" && !strings.Contains(s, "@") {
						return errors.New("not an e-mail address")
					}
					return nil
				}),
			huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&f.Password).
				Validate(func(s string) error {
					if len(s) < 8 {
						return errors.New("at least 8 characters")
					}
					return nil
				}),
			huh.NewSelect[string]().Title("Role").Options(roles...).Value(&f.Role),
		),
	).WithTheme(sntHuhTheme()).WithShowHelp(false)
}
