package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/db"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/domain"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/repository"
	"github.com/google/uuid"
)

// CabinetRepos groups the read/write repositories the resident cabinet uses.
type CabinetRepos struct {
	Users         repository.UserRepo
	Plots         repository.PlotRepo
	Memberships   repository.MembershipRepo
	Appeals       repository.AppealRepo
	Charges       repository.ChargeRepo
	Payments      repository.PaymentRepo
	Electricity   repository.ElectricityRepo
	Confirmations repository.ConfirmationRepo
	Content       repository.ContentRepo
}

type cabinetService struct {
	repos      CabinetRepos
	onboarding OnboardingService
	uow        db.UnitOfWork
	now        func() time.Time
	observer   UseCaseObserver
}

func NewCabinetService(repos CabinetRepos, onboarding OnboardingService, uow db.UnitOfWork, observers ...UseCaseObserver) CabinetService {
	return &cabinetService{
		repos:      repos,
		onboarding: onboarding,
		uow:        uow,
		now:        time.Now,
		observer:   useCaseObserverOrNoop(observers),
	}
}

func (s *cabinetService) Summary(ctx context.Context, userID string) (*CabinetSummary, error) {
	u, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	stage, err := s.onboarding.Stage(ctx, userID)
	if err != nil {
		return nil, err
	}
	m, err := loadMembership(ctx, s.repos.Memberships, userID)
	if err != nil {
		return nil, err
	}
	plots, err := s.repos.Plots.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	balance, err := s.balanceFor(ctx, plots)
	if err != nil {
		return nil, err
	}

	summary := &CabinetSummary{
		User:       u,
		Stage:      stage,
		Membership: m,
		Features:   m.Features(),
		Plots:      plots,
		Balance:    balance,
	}

	appeals, err := s.repos.Appeals.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, a := range appeals {
		if a.Status == domain.AppealNew || a.Status == domain.AppealInProgress {
			summary.OpenAppeals++
		}
	}
	confirmations, err := s.repos.Confirmations.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, c := range confirmations {
		if c.Status == domain.ConfirmationPending {
			summary.PendingConfirmations++
		}
	}
	readings, err := s.repos.Electricity.ListByPlots(ctx, plotIDs(plots))
	if err != nil {
		return nil, err
	}
	for _, r := range readings {
		if summary.LastReadingAt == nil || r.SubmittedAt.After(*summary.LastReadingAt) {
			at := r.SubmittedAt
			summary.LastReadingAt = &at
		}
	}
	return summary, nil
}

func (s *cabinetService) Plots(ctx context.Context, userID string) ([]*domain.UserPlot, error) {
	return s.repos.Plots.ListByUser(ctx, userID)
}

func (s *cabinetService) SetPrimaryPlot(ctx context.Context, userID, plotID string) (err error) {
	defer observe(ctx, s.observer, "set-primary-plot", time.Now(), map[string]any{"plot_id": plotID}, &err)

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txPlots := repository.NewSQLitePlotRepo(tx)
		owned, err := txPlots.IsOwner(ctx, userID, plotID)
		if err != nil {
			return err
		}
		if !owned {
			return fmt.Errorf("plot %s is not owned by the user: %w", plotID, ErrForbidden)
		}
		return txPlots.SetPrimary(ctx, userID, plotID)
	})
}

func (s *cabinetService) Charges(ctx context.Context, userID string) ([]*domain.Charge, error) {
	plots, err := s.repos.Plots.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.repos.Charges.ListByPlots(ctx, plotIDs(plots))
}

func (s *cabinetService) Balance(ctx context.Context, userID string) (*Balance, error) {
	plots, err := s.repos.Plots.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.balanceFor(ctx, plots)
}

func (s *cabinetService) balanceFor(ctx context.Context, plots []*domain.UserPlot) (*Balance, error) {
	ids := plotIDs(plots)
	charges, err := s.repos.Charges.ListByPlots(ctx, ids)
	if err != nil {
		return nil, err
	}
	payments, err := s.repos.Payments.ListByPlots(ctx, ids)
	if err != nil {
		return nil, err
	}
	b := &Balance{Plots: domain.ComputeBalances(ids, charges, payments)}
	for _, pb := range b.Plots {
		b.Accrued = b.Accrued.Add(pb.Accrued)
		b.Paid = b.Paid.Add(pb.Paid)
	}
	b.Debt = b.Accrued.Sub(b.Paid)
	return b, nil
}

func (s *cabinetService) Appeals(ctx context.Context, userID string) ([]*domain.Appeal, error) {
	return s.repos.Appeals.ListByUser(ctx, userID)
}

func (s *cabinetService) CreateAppeal(ctx context.Context, userID string, in AppealInput) (*domain.Appeal, error) {
	now := s.now().UTC()
	a := &domain.Appeal{
		ID:        uuid.New().String(),
		UserID:    userID,
		Topic:     strings.TrimSpace(in.Topic),
		Body:      strings.TrimSpace(in.Body),
		Status:    domain.AppealNew,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if a.Topic == "" {
		return nil, invalid("topic", "topic", "topic is required")
	}
	if a.Body == "" {
		return nil, invalid("body", "body", "message is required")
	}
	if plotID := strings.TrimSpace(in.PlotID); plotID != "" {
		owned, err := s.repos.Plots.IsOwner(ctx, userID, plotID)
		if err != nil {
			return nil, err
		}
		if !owned {
			return nil, invalid("plot_id", "plot", "plot is not yours")
		}
		a.PlotID = &plotID
	}
	if err := s.repos.Appeals.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *cabinetService) requireFeature(ctx context.Context, userID string, f domain.Feature) (*domain.Membership, error) {
	m, err := loadMembership(ctx, s.repos.Memberships, userID)
	if err != nil {
		return nil, err
	}
	if !m.CanSee(f) {
		return nil, fmt.Errorf("%s is not available for this membership: %w", f, ErrForbidden)
	}
	return m, nil
}

func (s *cabinetService) Readings(ctx context.Context, userID string) ([]*domain.ElectricityReading, error) {
	if _, err := s.requireFeature(ctx, userID, domain.FeatureElectricity); err != nil {
		return nil, err
	}
	plots, err := s.repos.Plots.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.repos.Electricity.ListByPlots(ctx, plotIDs(plots))
}

// SubmitReading validates and stores a meter reading. Rejections carry the
// codes reading, plot, period, decrease and duplicate.
func (s *cabinetService) SubmitReading(ctx context.Context, userID string, in ReadingInput) (rd *domain.ElectricityReading, err error) {
	fields := map[string]any{"plot_id": in.PlotID}
	defer observe(ctx, s.observer, "submit-reading", time.Now(), fields, &err)

	if _, err = s.requireFeature(ctx, userID, domain.FeatureElectricity); err != nil {
		return nil, err
	}
	value, err := domain.ParseReading(in.Value)
	if err != nil {
		return nil, invalid("value", "reading", "%s", err.Error())
	}
	owned, err := s.repos.Plots.IsOwner(ctx, userID, in.PlotID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, invalid("plot_id", "plot", "plot is not yours")
	}
	period := strings.TrimSpace(in.Period)
	if period == "" {
		period = domain.CurrentPeriod(s.now())
	}
	if period, err = domain.ParsePeriod(period); err != nil {
		return nil, invalid("period", "period", "%s", err.Error())
	}
	fields["period"] = period

	if _, err = s.repos.Electricity.GetByPeriod(ctx, in.PlotID, period); err == nil {
		return nil, invalid("period", "duplicate", "a reading for %s was already submitted", period)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	prev, next, err := s.neighbourReadings(ctx, in.PlotID, period)
	if err != nil {
		return nil, err
	}
	if prev != nil && value.LessThan(prev.Value) {
		return nil, invalid("value", "decrease", "reading %s is below the previous %s", value, prev.Value)
	}
	if next != nil && value.GreaterThan(next.Value) {
		return nil, invalid("value", "decrease", "reading %s is above %s recorded for %s", value, next.Value, next.Period)
	}

	rd = &domain.ElectricityReading{
		ID:          uuid.New().String(),
		PlotID:      in.PlotID,
		UserID:      userID,
		Period:      period,
		Value:       value,
		SubmittedAt: s.now().UTC(),
	}
	if err = s.repos.Electricity.Create(ctx, rd); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, invalid("period", "duplicate", "a reading for %s was already submitted", period)
		}
		return nil, err
	}
	return rd, nil
}

// neighbourReadings returns the latest reading for the plot strictly before
// period and the earliest one strictly after it.
func (s *cabinetService) neighbourReadings(ctx context.Context, plotID, period string) (prev, next *domain.ElectricityReading, err error) {
	readings, err := s.repos.Electricity.ListByPlots(ctx, []string{plotID})
	if err != nil {
		return nil, nil, err
	}
	for _, r := range readings {
		switch {
		case r.Period < period && (prev == nil || r.Period > prev.Period):
			prev = r
		case r.Period > period && (next == nil || r.Period < next.Period):
			next = r
		}
	}
	return prev, next, nil
}

func (s *cabinetService) Documents(ctx context.Context, userID string) ([]*domain.Document, error) {
	m, err := s.requireFeature(ctx, userID, domain.FeatureDocuments)
	if err != nil {
		return nil, err
	}
	return s.repos.Content.ListDocuments(ctx, m.CanSee(domain.FeatureMembersDocs))
}

func (s *cabinetService) Announcements(ctx context.Context, userID string) ([]*domain.Announcement, error) {
	m, err := s.requireFeature(ctx, userID, domain.FeatureAnnouncements)
	if err != nil {
		return nil, err
	}
	audiences := []domain.Audience{domain.AudienceAll}
	if m.CanSee(domain.FeatureMembersNews) {
		audiences = append(audiences, domain.AudienceMembers)
	}
	return s.repos.Content.ListAnnouncements(ctx, audiences...)
}

func (s *cabinetService) Decisions(ctx context.Context, userID string) ([]*domain.Decision, error) {
	if _, err := s.requireFeature(ctx, userID, domain.FeatureDecisions); err != nil {
		return nil, err
	}
	return s.repos.Content.ListDecisions(ctx)
}
