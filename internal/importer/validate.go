package importer

import (
	"fmt"
	"strings"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/domain"
	"github.com/shopspring/decimal"
)

// AllPlots as ChargeImport.Plot accrues the charge on every seeded plot.
const AllPlots = "all"

// ValidateSeedSchema checks the seed for errors before conversion.
// Returns a slice of all validation errors found.
func ValidateSeedSchema(schema *SeedSchema) []error {
	var errs []error

	userRefs := make(map[string]bool)
	errs = append(errs, validateUsers(schema.Users, userRefs)...)

	plotNumbers := make(map[string]bool)
	errs = append(errs, validatePlots(schema.Plots, userRefs, plotNumbers)...)

	errs = append(errs, validateCharges(schema.Charges, plotNumbers)...)
	errs = append(errs, validateContent(schema.Announcements, schema.Documents)...)

	return errs
}

func validateUsers(users []UserImport, refs map[string]bool) []error {
	var errs []error
	logins := make(map[string]bool)
	for i, u := range users {
		prefix := fmt.Sprintf("users[%d]", i)
		if u.Ref == "" {
			errs = append(errs, fmt.Errorf("%s.ref is required", prefix))
		} else if refs[u.Ref] {
			errs = append(errs, fmt.Errorf("%s.ref: duplicate ref %q", prefix, u.Ref))
		}
		refs[u.Ref] = true

		if strings.TrimSpace(u.FullName) == "" {
			errs = append(errs, fmt.Errorf("%s.full_name is required", prefix))
		}
		if u.Phone == "" && u.Email == "" {
			errs = append(errs, fmt.Errorf("%s: phone or email is required", prefix))
		}
		for _, login := range []string{u.Phone, u.Email} {
			if login == "" {
				continue
			}
			key := domain.NormalizeLogin(login)
			if logins[key] {
				errs = append(errs, fmt.Errorf("%s: login %q is used twice", prefix, login))
			}
			logins[key] = true
		}
		if len(u.Password) < 8 {
			errs = append(errs, fmt.Errorf("%s.password must be at least 8 characters", prefix))
		}
		if u.Role != "" && !domain.ValidRoles[domain.Role(u.Role)] {
			errs = append(errs, fmt.Errorf("%s.role: invalid value %q", prefix, u.Role))
		}
		if u.Membership != "" && !domain.ValidMembershipStatuses[domain.MembershipStatus(u.Membership)] {
			errs = append(errs, fmt.Errorf("%s.membership: invalid value %q", prefix, u.Membership))
		}
	}
	return errs
}

func validatePlots(plots []PlotImport, userRefs, numbers map[string]bool) []error {
	var errs []error
	primaryOf := make(map[string]string) // user ref -> plot number
	for i, p := range plots {
		prefix := fmt.Sprintf("plots[%d]", i)
		number := strings.TrimSpace(p.Number)
		switch {
		case number == "":
			errs = append(errs, fmt.Errorf("%s.number is required", prefix))
		case number == AllPlots:
			errs = append(errs, fmt.Errorf("%s.number: %q is reserved", prefix, AllPlots))
		case numbers[number]:
			errs = append(errs, fmt.Errorf("%s.number: duplicate plot %q", prefix, number))
		}
		numbers[number] = true

		if p.AreaSqm != "" {
			if area, err := decimal.NewFromString(p.AreaSqm); err != nil || area.IsNegative() {
				errs = append(errs, fmt.Errorf("%s.area_sqm: invalid value %q", prefix, p.AreaSqm))
			}
		}
		primaries := 0
		for j, o := range p.Owners {
			if !userRefs[o.UserRef] {
				errs = append(errs, fmt.Errorf("%s.owners[%d].user_ref: unknown user %q", prefix, j, o.UserRef))
			}
			if o.Primary {
				primaries++
				if prev, ok := primaryOf[o.UserRef]; ok {
					errs = append(errs, fmt.Errorf("%s.owners[%d]: user %q already has primary plot %q", prefix, j, o.UserRef, prev))
				}
				primaryOf[o.UserRef] = number
			}
		}
		if primaries > 1 {
			errs = append(errs, fmt.Errorf("%s: at most one owner can mark the plot primary", prefix))
		}
	}
	return errs
}

func validateCharges(charges []ChargeImport, plotNumbers map[string]bool) []error {
	var errs []error
	for i, c := range charges {
		prefix := fmt.Sprintf("charges[%d]", i)
		if c.Plot != AllPlots && !plotNumbers[strings.TrimSpace(c.Plot)] {
			errs = append(errs, fmt.Errorf("%s.plot: unknown plot %q", prefix, c.Plot))
		}
		if !domain.ValidChargeKinds[domain.ChargeKind(c.Kind)] {
			errs = append(errs, fmt.Errorf("%s.kind: invalid value %q", prefix, c.Kind))
		}
		if _, err := domain.ParsePeriod(c.Period); err != nil {
			errs = append(errs, fmt.Errorf("%s.period: %w", prefix, err))
		}
		if amount, err := decimal.NewFromString(c.Amount); err != nil || !amount.IsPositive() {
			errs = append(errs, fmt.Errorf("%s.amount must be a positive number, got %q", prefix, c.Amount))
		}
	}
	return errs
}

func validateContent(announcements []AnnouncementImport, docs []DocumentImport) []error {
	var errs []error
	for i, a := range announcements {
		if strings.TrimSpace(a.Title) == "" {
			errs = append(errs, fmt.Errorf("announcements[%d].title is required", i))
		}
		switch domain.Audience(a.Audience) {
		case "", domain.AudienceAll, domain.AudienceMembers:
		default:
			errs = append(errs, fmt.Errorf("announcements[%d].audience: invalid value %q", i, a.Audience))
		}
	}
	for i, d := range docs {
		if strings.TrimSpace(d.Title) == "" {
			errs = append(errs, fmt.Errorf("documents[%d].title is required", i))
		}
		if strings.TrimSpace(d.URL) == "" {
			errs = append(errs, fmt.Errorf("documents[%d].url is required", i))
		}
	}
	return errs
}
