package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/app"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/cli/formatter"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/domain"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/service"
	"github.com/spf13/cobra"
)

func newUserCmd(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage portal accounts",
	}
	cmd.AddCommand(
		newUserAddCmd(opts),
		newUserListCmd(opts),
		newUserSetRoleCmd(opts),
	)
	return cmd
}

type userFields struct {
	FullName string
	Phone    string
	Email    string
	Password string
	Role     string
}

func (f *userFields) missing() bool {
	return strings.TrimSpace(f.FullName) == "" ||
		(strings.TrimSpace(f.Phone) == "" && strings.TrimSpace(f.Email) == "") ||
		f.Password == ""
}

func newUserAddCmd(opts *Options) *cobra.Command {
	var f userFields

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an account (staff accounts skip the resident wizard)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.missing() {
				if !opts.interactive() {
					return errors.New("--name, --password and --phone or --email are required")
				}
				if err := userForm(&f).RunWithContext(cmd.Context()); err != nil {
					return err
				}
			}
			role, err := domain.ParseRole(f.Role)
			if err != nil || role == domain.RoleGuest {
				return fmt.Errorf("invalid role %q", f.Role)
			}

			return opts.withApp(cmd.Context(), func(a *app.App) error {
				u, err := a.Services.Auth.Register(cmd.Context(), service.RegisterInput{
					FullName:  f.FullName,
					Phone:     f.Phone,
					Email:     f.Email,
					Password:  f.Password,
					Role:      role,
					Onboarded: role != domain.RoleResident,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s (%s)\n",
					string(u.Role), formatter.Bold(u.DisplayName()), formatter.Dim(u.ID))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.FullName, "name", "", "full name")
	cmd.Flags().StringVar(&f.Phone, "phone", "", "phone number, used as a login")
	cmd.Flags().StringVar(&f.Email, "email", "", "e-mail, used as a login")
	cmd.Flags().StringVar(&f.Password, "password", "", "password, at least 8 characters")
	cmd.Flags().StringVar(&f.Role, "role", string(domain.RoleResident), "resident, chairman, accountant, secretary or admin")
	return cmd
}

func newUserListCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app.App) error {
				users, err := a.Services.Auth.ListUsers(cmd.Context())
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(users))
				for _, u := range users {
					onboarded := "no"
					if u.Onboarded {
						onboarded = "yes"
					}
					rows = append(rows, []string{u.DisplayName(), u.Phone, u.Email, string(u.Role), onboarded})
				}
				fmt.Fprint(cmd.OutOrStdout(), formatter.RenderTable(
					[]string{"NAME", "PHONE", "EMAIL", "ROLE", "ONBOARDED"}, rows))
				return nil
			})
		},
	}
}

func newUserSetRoleCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <phone-or-email> <role>",
		Short: "Change an account's role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := domain.ParseRole(args[1])
			if err != nil {
				return err
			}
			return opts.withApp(cmd.Context(), func(a *app.App) error {
				u, err := a.Services.Auth.SetRole(cmd.Context(), args[0], role)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", formatter.Bold(u.DisplayName()), u.Role)
				return nil
			})
		},
	}
}
