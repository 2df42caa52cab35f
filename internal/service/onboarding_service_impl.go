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
	"github.com/shopspring/decimal"
)

type onboardingService struct {
	users    repository.UserRepo
	drafts   repository.DraftRepo
	uow      db.UnitOfWork
	observer UseCaseObserver
}

func NewOnboardingService(users repository.UserRepo, drafts repository.DraftRepo, uow db.UnitOfWork, observers ...UseCaseObserver) OnboardingService {
	return &onboardingService{users: users, drafts: drafts, uow: uow, observer: useCaseObserverOrNoop(observers)}
}

// GetDraft returns the stored draft, or one prefilled from the account when
// the user has not saved anything yet.
func (s *onboardingService) GetDraft(ctx context.Context, userID string) (*domain.OnboardingDraft, error) {
	d, err := s.drafts.Get(ctx, userID)
	if err == nil {
		return d, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &domain.OnboardingDraft{
		UserID:   u.ID,
		FullName: u.FullName,
		Phone:    u.Phone,
		Email:    u.Email,
		Plots:    []domain.DraftPlot{},
	}, nil
}

func (s *onboardingService) SaveDraft(ctx context.Context, userID string, in *domain.OnboardingDraft) (*domain.OnboardingDraft, error) {
	if in == nil {
		return nil, invalid("draft", "draft", "draft is required")
	}
	d := &domain.OnboardingDraft{
		UserID:    userID,
		FullName:  strings.TrimSpace(in.FullName),
		Phone:     strings.TrimSpace(in.Phone),
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		Plots:     in.ValidPlots(),
		Consent:   in.Consent,
		UpdatedAt: time.Now().UTC(),
	}
	if d.Plots == nil {
		d.Plots = []domain.DraftPlot{}
	}
	if d.Email != "" && !strings.Contains(d.Email, "@") {
		return nil, invalid("email", "email", "%q is not an e-mail address", d.Email)
	}
	if err := s.drafts.Upsert(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Stage is cabinet_home for onboarded users and the draft's resolved stage
// for everyone else.
func (s *onboardingService) Stage(ctx context.Context, userID string) (domain.Stage, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if u.Onboarded {
		return domain.StageCabinetHome, nil
	}
	d, err := s.GetDraft(ctx, userID)
	if err != nil {
		return "", err
	}
	return domain.ResolveStage(d), nil
}

// Complete turns a finished draft into account data: profile fields, plot
// ownerships (the first plot becomes primary unless one already is) and a
// pending membership. Completing twice is a no-op.
func (s *onboardingService) Complete(ctx context.Context, userID string) (user *domain.User, err error) {
	fields := map[string]any{"user_id": userID}
	defer observe(ctx, s.observer, "complete-onboarding", time.Now(), fields, &err)

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txUsers := repository.NewSQLiteUserRepo(tx)
		txDrafts := repository.NewSQLiteDraftRepo(tx)
		txPlots := repository.NewSQLitePlotRepo(tx)
		txMemberships := repository.NewSQLiteMembershipRepo(tx)

		u, err := txUsers.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if u.Onboarded {
			user = u
			return nil
		}
		d, err := txDrafts.Get(ctx, userID)
		if errors.Is(err, repository.ErrNotFound) {
			return invalid("stage", string(domain.StageProfile), "onboarding draft is empty")
		}
		if err != nil {
			return err
		}
		if stage := domain.ResolveStage(d); stage != domain.StageCabinetHome {
			return invalid("stage", string(stage), "onboarding stopped at %s", stage)
		}

		now := time.Now().UTC()
		u.FullName = d.FullName
		u.Phone = domain.NormalizeLogin(d.Phone)
		if d.Email != "" {
			u.Email = d.Email
		}
		u.Onboarded = true
		u.UpdatedAt = now
		if err := txUsers.Update(ctx, u); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return fmt.Errorf("phone or email belongs to another account: %w", ErrConflict)
			}
			return err
		}

		owned, err := txPlots.ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		hasPrimary := false
		for _, p := range owned {
			hasPrimary = hasPrimary || p.IsPrimary
		}

		for _, dp := range d.ValidPlots() {
			plot, err := txPlots.GetByNumber(ctx, dp.Number)
			if errors.Is(err, repository.ErrNotFound) {
				plot = &domain.Plot{
					ID:        uuid.New().String(),
					Number:    dp.Number,
					Street:    dp.Street,
					AreaSqm:   decimal.Zero,
					CreatedAt: now,
				}
				err = txPlots.Create(ctx, plot)
			}
			if err != nil {
				return err
			}
			isOwner, err := txPlots.IsOwner(ctx, userID, plot.ID)
			if err != nil {
				return err
			}
			if isOwner {
				continue
			}
			if err := txPlots.AddOwner(ctx, userID, plot.ID, !hasPrimary); err != nil {
				return err
			}
			hasPrimary = true
		}
		fields["plots"] = len(d.ValidPlots())

		if _, err := txMemberships.Get(ctx, userID); errors.Is(err, repository.ErrNotFound) {
			if err := txMemberships.Upsert(ctx, &domain.Membership{
				UserID: userID, Status: domain.MembershipPending, UpdatedAt: now,
			}); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}
