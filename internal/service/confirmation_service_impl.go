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

type confirmationService struct {
	confirmations repository.ConfirmationRepo
	plots         repository.PlotRepo
	uow           db.UnitOfWork
	now           func() time.Time
	observer      UseCaseObserver
}

func NewConfirmationService(confirmations repository.ConfirmationRepo, plots repository.PlotRepo, uow db.UnitOfWork, observers ...UseCaseObserver) ConfirmationService {
	return &confirmationService{
		confirmations: confirmations,
		plots:         plots,
		uow:           uow,
		now:           time.Now,
		observer:      useCaseObserverOrNoop(observers),
	}
}

func (s *confirmationService) Submit(ctx context.Context, userID string, in ConfirmationInput) (*domain.PaymentConfirmation, error) {
	amount, err := parseAmount("amount", in.Amount)
	if err != nil {
		return nil, err
	}
	paidAt, err := parseDay("paid_at", in.PaidAt)
	if err != nil {
		return nil, err
	}
	owned, err := s.plots.IsOwner(ctx, userID, in.PlotID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, invalid("plot_id", "plot", "plot is not yours")
	}

	now := s.now().UTC()
	c := &domain.PaymentConfirmation{
		ID:             uuid.New().String(),
		UserID:         userID,
		PlotID:         in.PlotID,
		Amount:         amount,
		PaidAt:         paidAt,
		Purpose:        strings.TrimSpace(in.Purpose),
		Comment:        strings.TrimSpace(in.Comment),
		AttachmentName: strings.TrimSpace(in.AttachmentName),
		Status:         domain.ConfirmationPending,
		CreatedAt:      now,
	}
	if err := c.Validate(now); err != nil {
		return nil, invalid("confirmation", "confirmation", "%s", err.Error())
	}
	if err := s.confirmations.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *confirmationService) ListMine(ctx context.Context, userID string) ([]*domain.PaymentConfirmation, error) {
	return s.confirmations.ListByUser(ctx, userID)
}

func (s *confirmationService) List(ctx context.Context, status domain.ConfirmationStatus) ([]*domain.PaymentConfirmation, error) {
	return s.confirmations.List(ctx, status)
}

// Approve marks a pending confirmation approved and books the matching
// payment in the same transaction.
func (s *confirmationService) Approve(ctx context.Context, id, reviewerID, note string) (c *domain.PaymentConfirmation, p *domain.Payment, err error) {
	defer observe(ctx, s.observer, "approve-confirmation", time.Now(), map[string]any{"confirmation_id": id}, &err)

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txConfirmations := repository.NewSQLiteConfirmationRepo(tx)
		txPayments := repository.NewSQLitePaymentRepo(tx)

		var err error
		if c, err = s.decide(ctx, txConfirmations, id, domain.ConfirmationApproved, reviewerID, note); err != nil {
			return err
		}
		confirmationID := c.ID
		p = &domain.Payment{
			ID:             uuid.New().String(),
			PlotID:         c.PlotID,
			Amount:         c.Amount,
			PaidAt:         c.PaidAt,
			Source:         domain.PaymentFromConfirmation,
			ConfirmationID: &confirmationID,
			CreatedAt:      *c.ReviewedAt,
		}
		if err := txPayments.Create(ctx, p); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return fmt.Errorf("payment for confirmation %s already booked: %w", id, ErrConflict)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return c, p, nil
}

func (s *confirmationService) Reject(ctx context.Context, id, reviewerID, note string) (c *domain.PaymentConfirmation, err error) {
	defer observe(ctx, s.observer, "reject-confirmation", time.Now(), map[string]any{"confirmation_id": id}, &err)

	if strings.TrimSpace(note) == "" {
		return nil, invalid("note", "note", "a rejection needs a reason")
	}
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		var err error
		c, err = s.decide(ctx, repository.NewSQLiteConfirmationRepo(tx), id, domain.ConfirmationRejected, reviewerID, note)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *confirmationService) decide(ctx context.Context, repo repository.ConfirmationRepo, id string, status domain.ConfirmationStatus, reviewerID, note string) (*domain.PaymentConfirmation, error) {
	c, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status != domain.ConfirmationPending {
		return nil, fmt.Errorf("confirmation is already %s: %w", c.Status, ErrInvalidTransition)
	}
	if err := c.Decide(status, reviewerID, strings.TrimSpace(note), s.now().UTC()); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), ErrInvalidTransition)
	}
	if err := repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}
