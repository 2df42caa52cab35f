// Package contract holds the JSON shapes exchanged over /api.
package contract

import (
	"time"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/domain"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/service"
	"github.com/shopspring/decimal"
)

type User struct {
	ID        string      `json:"id"`
	FullName  string      `json:"full_name"`
	Phone     string      `json:"phone,omitempty"`
	Email     string      `json:"email,omitempty"`
	Role      domain.Role `json:"role"`
	Onboarded bool        `json:"onboarded"`
	CreatedAt time.Time   `json:"created_at"`
}

func FromUser(u *domain.User) *User {
	if u == nil {
		return nil
	}
	return &User{
		ID:        u.ID,
		FullName:  u.FullName,
		Phone:     u.Phone,
		Email:     u.Email,
		Role:      u.Role,
		Onboarded: u.Onboarded,
		CreatedAt: u.CreatedAt,
	}
}

type Plot struct {
	ID              string          `json:"id"`
	Number          string          `json:"number"`
	Street          string          `json:"street,omitempty"`
	AreaSqm         decimal.Decimal `json:"area_sqm"`
	CadastralNumber string          `json:"cadastral_number,omitempty"`
	IsPrimary       bool            `json:"is_primary"`
}

func FromUserPlots(plots []*domain.UserPlot) []Plot {
	out := make([]Plot, 0, len(plots))
	for _, p := range plots {
		out = append(out, Plot{
			ID:              p.ID,
			Number:          p.Number,
			Street:          p.Street,
			AreaSqm:         p.AreaSqm,
			CadastralNumber: p.CadastralNumber,
			IsPrimary:       p.IsPrimary,
		})
	}
	return out
}

type Membership struct {
	UserID   string                  `json:"user_id,omitempty"`
	Status   domain.MembershipStatus `json:"status"`
	Since    *time.Time              `json:"since,omitempty"`
	Note     string                  `json:"note,omitempty"`
	Features []domain.Feature        `json:"features"`
}

// FromMembership maps a nil membership to status none.
func FromMembership(m *domain.Membership) Membership {
	out := Membership{Status: domain.MembershipNone, Features: m.Features()}
	if m != nil {
		out.UserID = m.UserID
		if m.Status != "" {
			out.Status = m.Status
		}
		out.Since = m.Since
		out.Note = m.Note
	}
	return out
}

type Charge struct {
	ID          string            `json:"id"`
	PlotID      string            `json:"plot_id"`
	Kind        domain.ChargeKind `json:"kind"`
	Period      string            `json:"period"`
	Amount      decimal.Decimal   `json:"amount"`
	Description string            `json:"description,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

func FromCharges(charges []*domain.Charge) []Charge {
	out := make([]Charge, 0, len(charges))
	for _, c := range charges {
		out = append(out, Charge{
			ID:          c.ID,
			PlotID:      c.PlotID,
			Kind:        c.Kind,
			Period:      c.Period,
			Amount:      c.Amount,
			Description: c.Description,
			CreatedAt:   c.CreatedAt,
		})
	}
	return out
}

type Payment struct {
	ID             string               `json:"id"`
	PlotID         string               `json:"plot_id"`
	Amount         decimal.Decimal      `json:"amount"`
	PaidAt         time.Time            `json:"paid_at"`
	Source         domain.PaymentSource `json:"source"`
	ConfirmationID *string              `json:"confirmation_id,omitempty"`
}

func FromPayment(p *domain.Payment) *Payment {
	if p == nil {
		return nil
	}
	return &Payment{
		ID:             p.ID,
		PlotID:         p.PlotID,
		Amount:         p.Amount,
		PaidAt:         p.PaidAt,
		Source:         p.Source,
		ConfirmationID: p.ConfirmationID,
	}
}

type PlotBalance struct {
	PlotID  string          `json:"plot_id"`
	Accrued decimal.Decimal `json:"accrued"`
	Paid    decimal.Decimal `json:"paid"`
	Debt    decimal.Decimal `json:"debt"`
}

type Balance struct {
	Plots   []PlotBalance   `json:"plots"`
	Accrued decimal.Decimal `json:"accrued"`
	Paid    decimal.Decimal `json:"paid"`
	Debt    decimal.Decimal `json:"debt"`
}

func FromBalance(b *service.Balance) *Balance {
	if b == nil {
		return nil
	}
	out := &Balance{Plots: make([]PlotBalance, 0, len(b.Plots)), Accrued: b.Accrued, Paid: b.Paid, Debt: b.Debt}
	for _, p := range b.Plots {
		out.Plots = append(out.Plots, PlotBalance(p))
	}
	return out
}

type Appeal struct {
	ID        string              `json:"id"`
	UserID    string              `json:"user_id"`
	PlotID    *string             `json:"plot_id,omitempty"`
	Topic     string              `json:"topic"`
	Body      string              `json:"body"`
	Status    domain.AppealStatus `json:"status"`
	Response  string              `json:"response,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

func FromAppeal(a *domain.Appeal) Appeal {
	return Appeal{
		ID:        a.ID,
		UserID:    a.UserID,
		PlotID:    a.PlotID,
		Topic:     a.Topic,
		Body:      a.Body,
		Status:    a.Status,
		Response:  a.Response,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func FromAppeals(appeals []*domain.Appeal) []Appeal {
	out := make([]Appeal, 0, len(appeals))
	for _, a := range appeals {
		out = append(out, FromAppeal(a))
	}
	return out
}

type Reading struct {
	ID          string          `json:"id"`
	PlotID      string          `json:"plot_id"`
	Period      string          `json:"period"`
	Value       decimal.Decimal `json:"value"`
	SubmittedAt time.Time       `json:"submitted_at"`
	// Consumption since the plot's previous reading; absent for the first.
	Consumption *decimal.Decimal `json:"consumption,omitempty"`
}

func FromReading(r *domain.ElectricityReading) Reading {
	return Reading{ID: r.ID, PlotID: r.PlotID, Period: r.Period, Value: r.Value, SubmittedAt: r.SubmittedAt}
}

func FromReadings(readings []*domain.ElectricityReading) []Reading {
	prev := domain.PreviousReadings(readings)
	out := make([]Reading, 0, len(readings))
	for _, r := range readings {
		rd := FromReading(r)
		if p, ok := prev[r.ID]; ok {
			used := r.Consumption(p)
			rd.Consumption = &used
		}
		out = append(out, rd)
	}
	return out
}

type Confirmation struct {
	ID             string                    `json:"id"`
	UserID         string                    `json:"user_id"`
	PlotID         string                    `json:"plot_id"`
	Amount         decimal.Decimal           `json:"amount"`
	PaidAt         time.Time                 `json:"paid_at"`
	Purpose        string                    `json:"purpose"`
	Comment        string                    `json:"comment,omitempty"`
	AttachmentName string                    `json:"attachment_name,omitempty"`
	Status         domain.ConfirmationStatus `json:"status"`
	ReviewerID     *string                   `json:"reviewer_id,omitempty"`
	ReviewNote     string                    `json:"review_note,omitempty"`
	CreatedAt      time.Time                 `json:"created_at"`
	ReviewedAt     *time.Time                `json:"reviewed_at,omitempty"`
}

func FromConfirmation(c *domain.PaymentConfirmation) Confirmation {
	return Confirmation{
		ID:             c.ID,
		UserID:         c.UserID,
		PlotID:         c.PlotID,
		Amount:         c.Amount,
		PaidAt:         c.PaidAt,
		Purpose:        c.Purpose,
		Comment:        c.Comment,
		AttachmentName: c.AttachmentName,
		Status:         c.Status,
		ReviewerID:     c.ReviewerID,
		ReviewNote:     c.ReviewNote,
		CreatedAt:      c.CreatedAt,
		ReviewedAt:     c.ReviewedAt,
	}
}

func FromConfirmations(cs []*domain.PaymentConfirmation) []Confirmation {
	out := make([]Confirmation, 0, len(cs))
	for _, c := range cs {
		out = append(out, FromConfirmation(c))
	}
	return out
}

// ReviewResult is returned by approve and reject; Payment is set on approval.
type ReviewResult struct {
	Confirmation Confirmation `json:"confirmation"`
	Payment      *Payment     `json:"payment,omitempty"`
}

type Summary struct {
	User                 *User        `json:"user"`
	Stage                domain.Stage `json:"stage"`
	Membership           Membership   `json:"membership"`
	Plots                []Plot       `json:"plots"`
	Balance              *Balance     `json:"balance,omitempty"`
	OpenAppeals          int          `json:"open_appeals"`
	PendingConfirmations int          `json:"pending_confirmations"`
	LastReadingAt        *time.Time   `json:"last_reading_at,omitempty"`
}

func FromSummary(s *service.CabinetSummary) Summary {
	m := FromMembership(s.Membership)
	m.Features = s.Features
	return Summary{
		User:                 FromUser(s.User),
		Stage:                s.Stage,
		Membership:           m,
		Plots:                FromUserPlots(s.Plots),
		Balance:              FromBalance(s.Balance),
		OpenAppeals:          s.OpenAppeals,
		PendingConfirmations: s.PendingConfirmations,
		LastReadingAt:        s.LastReadingAt,
	}
}

type StageResponse struct {
	Stage  domain.Stage `json:"stage"`
	Path   string       `json:"path"`
	Forced bool         `json:"forced,omitempty"`
}

type DraftPlot struct {
	Number string `json:"number"`
	Street string `json:"street,omitempty"`
}

// Draft is the onboarding wizard state as the API sees it.
type Draft struct {
	FullName  string      `json:"full_name"`
	Phone     string      `json:"phone"`
	Email     string      `json:"email,omitempty"`
	Plots     []DraftPlot `json:"plots"`
	Consent   bool        `json:"consent"`
	UpdatedAt *time.Time  `json:"updated_at,omitempty"`
}

func FromDraft(d *domain.OnboardingDraft) Draft {
	out := Draft{
		FullName: d.FullName,
		Phone:    d.Phone,
		Email:    d.Email,
		Plots:    make([]DraftPlot, 0, len(d.Plots)),
		Consent:  d.Consent,
	}
	for _, p := range d.Plots {
		out.Plots = append(out.Plots, DraftPlot(p))
	}
	if !d.UpdatedAt.IsZero() {
		t := d.UpdatedAt
		out.UpdatedAt = &t
	}
	return out
}

func (d Draft) ToDomain() *domain.OnboardingDraft {
	out := &domain.OnboardingDraft{
		FullName: d.FullName,
		Phone:    d.Phone,
		Email:    d.Email,
		Consent:  d.Consent,
	}
	for _, p := range d.Plots {
		out.Plots = append(out.Plots, domain.DraftPlot(p))
	}
	return out
}

// DraftResponse pairs the saved draft with the stage it resolves to.
type DraftResponse struct {
	Draft Draft        `json:"draft"`
	Stage domain.Stage `json:"stage"`
}
