package service

import (
	"context"
	"time"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/domain"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/session"
	"github.com/shopspring/decimal"
)

type AuthService interface {
	Login(ctx context.Context, login, password string) (*domain.User, *session.Session, error)
	Logout(ctx context.Context, token string) error
	// Authenticate resolves a session token to its user.
	Authenticate(ctx context.Context, token string) (*domain.User, error)
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	SetRole(ctx context.Context, login string, role domain.Role) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
}

type OnboardingService interface {
	GetDraft(ctx context.Context, userID string) (*domain.OnboardingDraft, error)
	SaveDraft(ctx context.Context, userID string, draft *domain.OnboardingDraft) (*domain.OnboardingDraft, error)
	Stage(ctx context.Context, userID string) (domain.Stage, error)
	Complete(ctx context.Context, userID string) (*domain.User, error)
}

type CabinetService interface {
	Summary(ctx context.Context, userID string) (*CabinetSummary, error)
	Plots(ctx context.Context, userID string) ([]*domain.UserPlot, error)
	SetPrimaryPlot(ctx context.Context, userID, plotID string) error
	Charges(ctx context.Context, userID string) ([]*domain.Charge, error)
	Balance(ctx context.Context, userID string) (*Balance, error)
	Appeals(ctx context.Context, userID string) ([]*domain.Appeal, error)
	CreateAppeal(ctx context.Context, userID string, in AppealInput) (*domain.Appeal, error)
	Readings(ctx context.Context, userID string) ([]*domain.ElectricityReading, error)
	SubmitReading(ctx context.Context, userID string, in ReadingInput) (*domain.ElectricityReading, error)
	Documents(ctx context.Context, userID string) ([]*domain.Document, error)
	Announcements(ctx context.Context, userID string) ([]*domain.Announcement, error)
	Decisions(ctx context.Context, userID string) ([]*domain.Decision, error)
}

type ConfirmationService interface {
	Submit(ctx context.Context, userID string, in ConfirmationInput) (*domain.PaymentConfirmation, error)
	ListMine(ctx context.Context, userID string) ([]*domain.PaymentConfirmation, error)
	List(ctx context.Context, status domain.ConfirmationStatus) ([]*domain.PaymentConfirmation, error)
	Approve(ctx context.Context, id, reviewerID, note string) (*domain.PaymentConfirmation, *domain.Payment, error)
	Reject(ctx context.Context, id, reviewerID, note string) (*domain.PaymentConfirmation, error)
}

type FinanceService interface {
	Debts(ctx context.Context, filter domain.DebtFilter) ([]domain.DebtRow, error)
	AccrueCharge(ctx context.Context, in ChargeInput) ([]*domain.Charge, error)
	RecordPayment(ctx context.Context, in PaymentInput) (*domain.Payment, error)
}

type AppealService interface {
	List(ctx context.Context, status domain.AppealStatus) ([]*domain.Appeal, error)
	Transition(ctx context.Context, id string, status domain.AppealStatus, response string) (*domain.Appeal, error)
}

type MembershipService interface {
	Get(ctx context.Context, userID string) (*domain.Membership, error)
	SetStatus(ctx context.Context, userID string, status domain.MembershipStatus, note string) (*domain.Membership, error)
}

type ContentService interface {
	PublicAnnouncements(ctx context.Context) ([]*domain.Announcement, error)
	PublishAnnouncement(ctx context.Context, authorID string, in AnnouncementInput) (*domain.Announcement, error)
	CreateDecision(ctx context.Context, in DecisionInput) (*domain.Decision, error)
	CreateDocument(ctx context.Context, in DocumentInput) (*domain.Document, error)
}

type RegisterInput struct {
	FullName string
	Phone    string
	Email    string
	Password string
	Role     domain.Role
	// Onboarded skips the resident wizard; staff accounts are created this way.
	Onboarded bool
}

type AppealInput struct {
	PlotID string `json:"plot_id,omitempty"`
	Topic  string `json:"topic"`
	Body   string `json:"body"`
}

type ReadingInput struct {
	PlotID string `json:"plot_id"`
	Period string `json:"period"`
	Value  string `json:"value"`
}

type ConfirmationInput struct {
	PlotID         string `json:"plot_id"`
	Amount         string `json:"amount"`
	PaidAt         string `json:"paid_at"`
	Purpose        string `json:"purpose"`
	Comment        string `json:"comment,omitempty"`
	AttachmentName string `json:"attachment_name,omitempty"`
}

// AllPlots as ChargeInput.PlotID accrues the charge on every plot.
const AllPlots = "all"

type ChargeInput struct {
	PlotID      string            `json:"plot_id"`
	Kind        domain.ChargeKind `json:"kind"`
	Period      string            `json:"period"`
	Amount      string            `json:"amount"`
	Description string            `json:"description,omitempty"`
}

type PaymentInput struct {
	PlotID string               `json:"plot_id"`
	Amount string               `json:"amount"`
	PaidAt string               `json:"paid_at"`
	Source domain.PaymentSource `json:"source"`
}

type AnnouncementInput struct {
	Title    string          `json:"title"`
	Body     string          `json:"body"`
	Audience domain.Audience `json:"audience"`
}

type DecisionInput struct {
	Title       string `json:"title"`
	Body        string `json:"body"`
	MeetingKind string `json:"meeting_kind"`
	DecidedOn   string `json:"decided_on"`
}

type DocumentInput struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Category    string `json:"category"`
	MembersOnly bool   `json:"members_only"`
}

// Balance is the per-plot ledger plus totals across the user's plots.
type Balance struct {
	Plots   []domain.PlotBalance
	Accrued decimal.Decimal
	Paid    decimal.Decimal
	Debt    decimal.Decimal
}

type CabinetSummary struct {
	User                 *domain.User
	Stage                domain.Stage
	Membership           *domain.Membership
	Features             []domain.Feature
	Plots                []*domain.UserPlot
	Balance              *Balance
	OpenAppeals          int
	PendingConfirmations int
	LastReadingAt        *time.Time
}
