package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/db"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/importer"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/repository"
	"go.uber.org/zap"
)

type SeedResult struct {
	Users         int
	Plots         int
	Charges       int
	Announcements int
	Documents     int
}

// Seed validates, converts and stores a seed file in one transaction.
// Nothing is written when any row conflicts with existing data.
func (a *App) Seed(ctx context.Context, schema *importer.SeedSchema) (*SeedResult, error) {
	if errs := importer.ValidateSeedSchema(schema); len(errs) > 0 {
		return nil, fmt.Errorf("invalid seed: %w", errors.Join(errs...))
	}
	seed, err := importer.Convert(schema)
	if err != nil {
		return nil, err
	}

	err = a.UoW.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		users := repository.NewSQLiteUserRepo(tx)
		memberships := repository.NewSQLiteMembershipRepo(tx)
		plots := repository.NewSQLitePlotRepo(tx)
		charges := repository.NewSQLiteChargeRepo(tx)
		content := repository.NewSQLiteContentRepo(tx)

		for _, u := range seed.Users {
			if err := users.Create(ctx, u); err != nil {
				if errors.Is(err, repository.ErrDuplicate) {
					return fmt.Errorf("user %s already exists; the database looks seeded: %w", u.DisplayName(), err)
				}
				return fmt.Errorf("creating user %s: %w", u.DisplayName(), err)
			}
		}
		for _, m := range seed.Memberships {
			if err := memberships.Upsert(ctx, m); err != nil {
				return fmt.Errorf("storing membership: %w", err)
			}
		}
		for _, p := range seed.Plots {
			if err := plots.Create(ctx, p); err != nil {
				return fmt.Errorf("creating plot %s: %w", p.Number, err)
			}
		}
		for _, o := range seed.Owners {
			if err := plots.AddOwner(ctx, o.UserID, o.PlotID, o.IsPrimary); err != nil {
				return fmt.Errorf("linking owner %s: %w", o.FullName, err)
			}
		}
		for _, c := range seed.Charges {
			if err := charges.Create(ctx, c); err != nil {
				return fmt.Errorf("accruing charge: %w", err)
			}
		}
		for _, an := range seed.Announcements {
			if err := content.CreateAnnouncement(ctx, an); err != nil {
				return fmt.Errorf("publishing announcement: %w", err)
			}
		}
		for _, d := range seed.Documents {
			if err := content.CreateDocument(ctx, d); err != nil {
				return fmt.Errorf("adding document: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := &SeedResult{
		Users:         len(seed.Users),
		Plots:         len(seed.Plots),
		Charges:       len(seed.Charges),
		Announcements: len(seed.Announcements),
		Documents:     len(seed.Documents),
	}
	a.Logger.Info("database seeded",
		zap.Int("users", res.Users),
		zap.Int("plots", res.Plots),
		zap.Int("charges", res.Charges),
	)
	return res, nil
}
