package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/auth"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Seed is a converted seed file ready for persistence.
type Seed struct {
	Users         []*domain.User
	Memberships   []*domain.Membership
	Plots         []*domain.Plot
	Owners        []domain.PlotOwner
	Charges       []*domain.Charge
	Announcements []*domain.Announcement
	Documents     []*domain.Document
}

// Convert transforms a validated SeedSchema into domain objects. Passwords
// are hashed here. Call ValidateSeedSchema first; Convert assumes the
// schema is valid.
func Convert(schema *SeedSchema) (*Seed, error) {
	now := time.Now().UTC()
	seed := &Seed{}

	refMap := make(map[string]*domain.User) // ref -> user
	for _, in := range schema.Users {
		role := domain.Role(in.Role)
		if role == "" {
			role = domain.RoleResident
		}
		hash, err := auth.HashPassword(in.Password)
		if err != nil {
			return nil, fmt.Errorf("hashing password for %s: %w", in.Ref, err)
		}
		u := &domain.User{
			ID:           uuid.New().String(),
			FullName:     strings.TrimSpace(in.FullName),
			Phone:        domain.NormalizeLogin(in.Phone),
			Email:        strings.ToLower(strings.TrimSpace(in.Email)),
			Role:         role,
			PasswordHash: hash,
			Onboarded:    true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		refMap[in.Ref] = u
		seed.Users = append(seed.Users, u)

		if in.Membership != "" {
			m := &domain.Membership{UserID: u.ID, Status: domain.MembershipStatus(in.Membership), UpdatedAt: now}
			if m.Status == domain.MembershipActive {
				today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
				m.Since = &today
			}
			seed.Memberships = append(seed.Memberships, m)
		}
	}

	plotIDs := make(map[string]string) // number -> id
	for _, in := range schema.Plots {
		area := decimal.Zero
		if in.AreaSqm != "" {
			area = decimal.RequireFromString(in.AreaSqm)
		}
		p := &domain.Plot{
			ID:              uuid.New().String(),
			Number:          strings.TrimSpace(in.Number),
			Street:          strings.TrimSpace(in.Street),
			AreaSqm:         area,
			CadastralNumber: in.CadastralNumber,
			CreatedAt:       now,
		}
		plotIDs[p.Number] = p.ID
		seed.Plots = append(seed.Plots, p)

		for _, o := range in.Owners {
			u := refMap[o.UserRef]
			seed.Owners = append(seed.Owners, domain.PlotOwner{
				PlotID:    p.ID,
				UserID:    u.ID,
				FullName:  u.FullName,
				IsPrimary: o.Primary,
			})
		}
	}

	for _, in := range schema.Charges {
		targets := []string{plotIDs[strings.TrimSpace(in.Plot)]}
		if in.Plot == AllPlots {
			targets = targets[:0]
			for _, p := range seed.Plots {
				targets = append(targets, p.ID)
			}
		}
		period, _ := domain.ParsePeriod(in.Period)
		for _, plotID := range targets {
			seed.Charges = append(seed.Charges, &domain.Charge{
				ID:          uuid.New().String(),
				PlotID:      plotID,
				Kind:        domain.ChargeKind(in.Kind),
				Period:      period,
				Amount:      decimal.RequireFromString(in.Amount),
				Description: in.Description,
				CreatedAt:   now,
			})
		}
	}

	var authorID string
	for _, u := range seed.Users {
		if u.IsStaff() {
			authorID = u.ID
			break
		}
	}
	for _, in := range schema.Announcements {
		audience := domain.Audience(in.Audience)
		if audience == "" {
			audience = domain.AudienceAll
		}
		seed.Announcements = append(seed.Announcements, &domain.Announcement{
			ID:          uuid.New().String(),
			Title:       strings.TrimSpace(in.Title),
			Body:        in.Body,
			Audience:    audience,
			AuthorID:    authorID,
			PublishedAt: now,
		})
	}

	for _, in := range schema.Documents {
		seed.Documents = append(seed.Documents, &domain.Document{
			ID:          uuid.New().String(),
			Title:       strings.TrimSpace(in.Title),
			URL:         strings.TrimSpace(in.URL),
			Category:    in.Category,
			MembersOnly: in.MembersOnly,
			CreatedAt:   now,
		})
	}

	return seed, nil
}
