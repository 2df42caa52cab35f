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

type financeService struct {
	plots    repository.PlotRepo
	charges  repository.ChargeRepo
	payments repository.PaymentRepo
	uow      db.UnitOfWork
	now      func() time.Time
	observer UseCaseObserver
}

func NewFinanceService(plots repository.PlotRepo, charges repository.ChargeRepo, payments repository.PaymentRepo, uow db.UnitOfWork, observers ...UseCaseObserver) FinanceService {
	return &financeService{
		plots:    plots,
		charges:  charges,
		payments: payments,
		uow:      uow,
		now:      time.Now,
		observer: useCaseObserverOrNoop(observers),
	}
}

// Debts builds one row per plot and applies filter. Owner lists every
// owner of the plot, primary holders first.
func (s *financeService) Debts(ctx context.Context, filter domain.DebtFilter) ([]domain.DebtRow, error) {
	plots, err := s.plots.List(ctx)
	if err != nil {
		return nil, err
	}
	owners, err := s.plots.ListOwners(ctx)
	if err != nil {
		return nil, err
	}
	charges, err := s.charges.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	payments, err := s.payments.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	names := make(map[string][]string, len(plots))
	for _, o := range owners {
		names[o.PlotID] = append(names[o.PlotID], o.FullName)
	}
	ids := make([]string, len(plots))
	for i, p := range plots {
		ids[i] = p.ID
	}
	balances := domain.ComputeBalances(ids, charges, payments)

	rows := make([]domain.DebtRow, len(plots))
	for i, p := range plots {
		b := balances[i]
		rows[i] = domain.DebtRow{
			PlotID:     p.ID,
			PlotNumber: p.Number,
			Owner:      strings.Join(names[p.ID], ", "),
			Accrued:    b.Accrued,
			Paid:       b.Paid,
			Debt:       b.Debt,
		}
	}
	return domain.FilterDebts(rows, filter), nil
}

// AccrueCharge books a charge on one plot, or on every plot when PlotID is
// AllPlots. A bulk accrual is all-or-nothing.
func (s *financeService) AccrueCharge(ctx context.Context, in ChargeInput) (out []*domain.Charge, err error) {
	fields := map[string]any{"plot_id": in.PlotID, "kind": string(in.Kind)}
	defer observe(ctx, s.observer, "accrue-charge", time.Now(), fields, &err)

	if !domain.ValidChargeKinds[in.Kind] {
		return nil, invalid("kind", "kind", "unknown charge kind %q", in.Kind)
	}
	period, err := domain.ParsePeriod(in.Period)
	if err != nil {
		return nil, invalid("period", "period", "%s", err.Error())
	}
	amount, err := parseAmount("amount", in.Amount)
	if err != nil {
		return nil, err
	}
	plotID := strings.TrimSpace(in.PlotID)
	if plotID == "" {
		return nil, invalid("plot_id", "plot", "plot is required")
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txPlots := repository.NewSQLitePlotRepo(tx)
		txCharges := repository.NewSQLiteChargeRepo(tx)

		var targets []string
		if plotID == AllPlots {
			plots, err := txPlots.List(ctx)
			if err != nil {
				return err
			}
			for _, p := range plots {
				targets = append(targets, p.ID)
			}
		} else {
			if _, err := txPlots.GetByID(ctx, plotID); err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return invalid("plot_id", "plot", "plot %s does not exist", plotID)
				}
				return err
			}
			targets = []string{plotID}
		}

		now := s.now().UTC()
		for _, id := range targets {
			c := &domain.Charge{
				ID:          uuid.New().String(),
				PlotID:      id,
				Kind:        in.Kind,
				Period:      period,
				Amount:      amount,
				Description: strings.TrimSpace(in.Description),
				CreatedAt:   now,
			}
			if err := txCharges.Create(ctx, c); err != nil {
				return err
			}
			out = append(out, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	fields["count"] = len(out)
	return out, nil
}

func (s *financeService) RecordPayment(ctx context.Context, in PaymentInput) (*domain.Payment, error) {
	amount, err := parseAmount("amount", in.Amount)
	if err != nil {
		return nil, err
	}
	paidAt := s.now().UTC()
	if strings.TrimSpace(in.PaidAt) != "" {
		if paidAt, err = parseDay("paid_at", in.PaidAt); err != nil {
			return nil, err
		}
	}
	source := in.Source
	if source == "" {
		source = domain.PaymentBank
	}
	if !domain.ValidPaymentSources[source] {
		return nil, invalid("source", "source", "unknown payment source %q", source)
	}
	// Confirmation payments are only booked by approving a confirmation.
	if source == domain.PaymentFromConfirmation {
		return nil, invalid("source", "source", "source must be bank or cash")
	}
	if _, err := s.plots.GetByID(ctx, in.PlotID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalid("plot_id", "plot", "plot %s does not exist", in.PlotID)
		}
		return nil, err
	}

	p := &domain.Payment{
		ID:        uuid.New().String(),
		PlotID:    in.PlotID,
		Amount:    amount,
		PaidAt:    paidAt,
		Source:    source,
		CreatedAt: s.now().UTC(),
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("recording payment: %w", err)
	}
	return p, nil
}
