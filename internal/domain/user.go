package domain

import (
	"fmt"
	"strings"
	"time"
)

type User struct {
	ID           string
	FullName     string
	Phone        string
	Email        string
	Role         Role
	PasswordHash string
	Onboarded    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasRole reports whether the user's role is one of roles.
func (u *User) HasRole(roles ...Role) bool {
	if u == nil {
		return false
	}
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

func (u *User) IsStaff() bool { return u.HasRole(StaffRoles...) }

// DisplayName prefers the full name, then the e-mail, then the phone.
func (u *User) DisplayName() string {
	switch {
	case strings.TrimSpace(u.FullName) != "":
		return u.FullName
	case u.Email != "":
		return u.Email
	default:
		return u.Phone
	}
}

// NormalizeLogin lowercases e-mails and strips phone formatting so that
// "+7 (900) 123-45-67" and "+79001234567" resolve to the same account.
func NormalizeLogin(login string) string {
	login = strings.TrimSpace(login)
	if strings.Contains(login, "@") {
		return strings.ToLower(login)
	}
	var b strings.Builder
	for i, r := range login {
		if r >= '0' && r <= '9' || (r == '+' && i == 0) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Validate checks the fields required for a stored user.
func (u *User) Validate() error {
	if u.Phone == "" && u.Email == "" {
		return fmt.Errorf("phone or email is required")
	}
	if u.Email != "" && !strings.Contains(u.Email, "@") {
		return fmt.Errorf("email %q is not valid", u.Email)
	}
	if !ValidRoles[u.Role] {
		return fmt.Errorf("unknown role %q", u.Role)
	}
	return nil
}

// ParseRole accepts any stored role plus "guest".
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if r == RoleGuest || ValidRoles[r] {
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}
