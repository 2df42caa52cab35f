package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var phoneCounter atomic.Int64

func nextPhone() string {
	return fmt.Sprintf("+7900%07d", phoneCounter.Add(1))
}

// User options
type UserOption func(*domain.User)

func WithRole(r domain.Role) UserOption {
	return func(u *domain.User) { u.Role = r }
}

func WithPhone(phone string) UserOption {
	return func(u *domain.User) { u.Phone = phone }
}

func WithEmail(email string) UserOption {
	return func(u *domain.User) { u.Email = email }
}

func WithPasswordHash(h string) UserOption {
	return func(u *domain.User) { u.PasswordHash = h }
}

func NotOnboarded() UserOption {
	return func(u *domain.User) { u.Onboarded = false }
}

// NewTestUser returns an onboarded resident with a unique phone number.
func NewTestUser(name string, opts ...UserOption) *domain.User {
	now := time.Now().UTC()
	u := &domain.User{
		ID:        uuid.New().String(),
		FullName:  name,
		Phone:     nextPhone(),
		Role:      domain.RoleResident,
		Onboarded: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Plot options
type PlotOption func(*domain.Plot)

func WithStreet(s string) PlotOption {
	return func(p *domain.Plot) { p.Street = s }
}

func WithArea(sqm string) PlotOption {
	return func(p *domain.Plot) { p.AreaSqm = decimal.RequireFromString(sqm) }
}

func NewTestPlot(number string, opts ...PlotOption) *domain.Plot {
	p := &domain.Plot{
		ID:        uuid.New().String(),
		Number:    number,
		AreaSqm:   decimal.NewFromInt(600),
		CreatedAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Charge options
type ChargeOption func(*domain.Charge)

func WithChargeKind(k domain.ChargeKind) ChargeOption {
	return func(c *domain.Charge) { c.Kind = k }
}

func WithPeriod(period string) ChargeOption {
	return func(c *domain.Charge) { c.Period = period }
}

func NewTestCharge(plotID, amount string, opts ...ChargeOption) *domain.Charge {
	c := &domain.Charge{
		ID:        uuid.New().String(),
		PlotID:    plotID,
		Kind:      domain.ChargeMembership,
		Period:    "2024",
		Amount:    decimal.RequireFromString(amount),
		CreatedAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func NewTestPayment(plotID, amount string) *domain.Payment {
	now := time.Now().UTC()
	return &domain.Payment{
		ID:        uuid.New().String(),
		PlotID:    plotID,
		Amount:    decimal.RequireFromString(amount),
		PaidAt:    now,
		Source:    domain.PaymentBank,
		CreatedAt: now,
	}
}

func NewTestConfirmation(userID, plotID, amount string) *domain.PaymentConfirmation {
	now := time.Now().UTC()
	return &domain.PaymentConfirmation{
		ID:        uuid.New().String(),
		UserID:    userID,
		PlotID:    plotID,
		Amount:    decimal.RequireFromString(amount),
		PaidAt:    now.Add(-time.Hour),
		Purpose:   "membership fee",
		Status:    domain.ConfirmationPending,
		CreatedAt: now,
	}
}

func NewTestAppeal(userID, topic string) *domain.Appeal {
	now := time.Now().UTC()
	return &domain.Appeal{
		ID:        uuid.New().String(),
		UserID:    userID,
		Topic:     topic,
		Body:      "details for " + topic,
		Status:    domain.AppealNew,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
