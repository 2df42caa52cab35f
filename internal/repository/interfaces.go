package repository

import (
	"context"
	"errors"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/domain"
)

// ErrNotFound is wrapped by every repository lookup that matches no row.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is wrapped when a unique constraint rejects a write.
var ErrDuplicate = errors.New("duplicate")

type UserRepo interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByLogin(ctx context.Context, login string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
}

type PlotRepo interface {
	Create(ctx context.Context, p *domain.Plot) error
	GetByID(ctx context.Context, id string) (*domain.Plot, error)
	GetByNumber(ctx context.Context, number string) (*domain.Plot, error)
	List(ctx context.Context) ([]*domain.Plot, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.UserPlot, error)
	ListOwners(ctx context.Context) ([]domain.PlotOwner, error)
	AddOwner(ctx context.Context, userID, plotID string, primary bool) error
	IsOwner(ctx context.Context, userID, plotID string) (bool, error)
	// SetPrimary clears the user's other primary flags and marks plotID.
	// It issues two statements and must run inside a UnitOfWork.
	SetPrimary(ctx context.Context, userID, plotID string) error
}

type MembershipRepo interface {
	Get(ctx context.Context, userID string) (*domain.Membership, error)
	Upsert(ctx context.Context, m *domain.Membership) error
}

type AppealRepo interface {
	Create(ctx context.Context, a *domain.Appeal) error
	GetByID(ctx context.Context, id string) (*domain.Appeal, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Appeal, error)
	// List returns appeals in status, or all appeals when status is empty.
	List(ctx context.Context, status domain.AppealStatus) ([]*domain.Appeal, error)
	Update(ctx context.Context, a *domain.Appeal) error
}

type ChargeRepo interface {
	Create(ctx context.Context, c *domain.Charge) error
	ListByPlots(ctx context.Context, plotIDs []string) ([]*domain.Charge, error)
	ListAll(ctx context.Context) ([]*domain.Charge, error)
}

type PaymentRepo interface {
	Create(ctx context.Context, p *domain.Payment) error
	ListByPlots(ctx context.Context, plotIDs []string) ([]*domain.Payment, error)
	ListAll(ctx context.Context) ([]*domain.Payment, error)
}

type ElectricityRepo interface {
	Create(ctx context.Context, r *domain.ElectricityReading) error
	Latest(ctx context.Context, plotID string) (*domain.ElectricityReading, error)
	GetByPeriod(ctx context.Context, plotID, period string) (*domain.ElectricityReading, error)
	ListByPlots(ctx context.Context, plotIDs []string) ([]*domain.ElectricityReading, error)
}

type ConfirmationRepo interface {
	Create(ctx context.Context, c *domain.PaymentConfirmation) error
	GetByID(ctx context.Context, id string) (*domain.PaymentConfirmation, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.PaymentConfirmation, error)
	List(ctx context.Context, status domain.ConfirmationStatus) ([]*domain.PaymentConfirmation, error)
	Update(ctx context.Context, c *domain.PaymentConfirmation) error
}

type ContentRepo interface {
	CreateAnnouncement(ctx context.Context, a *domain.Announcement) error
	ListAnnouncements(ctx context.Context, audiences ...domain.Audience) ([]*domain.Announcement, error)
	CreateDecision(ctx context.Context, d *domain.Decision) error
	ListDecisions(ctx context.Context) ([]*domain.Decision, error)
	CreateDocument(ctx context.Context, d *domain.Document) error
	ListDocuments(ctx context.Context, includeMembersOnly bool) ([]*domain.Document, error)
}

type DraftRepo interface {
	Get(ctx context.Context, userID string) (*domain.OnboardingDraft, error)
	Upsert(ctx context.Context, d *domain.OnboardingDraft) error
}
