// Package app wires configuration, storage, sessions and services into one
// value shared by the server and the CLI.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/config"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/db"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/handler"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/metrics"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/repository"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/service"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/session"
	"go.uber.org/zap"
)

// Repos are the repositories bound to the shared connection pool.
type Repos struct {
	Users         *repository.SQLiteUserRepo
	Plots         *repository.SQLitePlotRepo
	Memberships   *repository.SQLiteMembershipRepo
	Appeals       *repository.SQLiteAppealRepo
	Charges       *repository.SQLiteChargeRepo
	Payments      *repository.SQLitePaymentRepo
	Electricity   *repository.SQLiteElectricityRepo
	Confirmations *repository.SQLiteConfirmationRepo
	Content       *repository.SQLiteContentRepo
	Drafts        *repository.SQLiteDraftRepo
}

type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	DB       *sql.DB
	UoW      db.UnitOfWork
	Sessions session.Store
	Metrics  *metrics.Metrics
	Repos    Repos
	Services handler.Services
}

// New opens the database and session store and builds every service.
// Close releases both.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	database, err := db.OpenDB(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	sessions, err := openSessions(ctx, cfg.Session, database, logger)
	if err != nil {
		database.Close()
		return nil, err
	}

	a := &App{
		Config:   cfg,
		Logger:   logger,
		DB:       database,
		UoW:      db.NewSQLiteUnitOfWork(database),
		Sessions: sessions,
		Metrics:  metrics.New(),
		Repos: Repos{
			Users:         repository.NewSQLiteUserRepo(database),
			Plots:         repository.NewSQLitePlotRepo(database),
			Memberships:   repository.NewSQLiteMembershipRepo(database),
			Appeals:       repository.NewSQLiteAppealRepo(database),
			Charges:       repository.NewSQLiteChargeRepo(database),
			Payments:      repository.NewSQLitePaymentRepo(database),
			Electricity:   repository.NewSQLiteElectricityRepo(database),
			Confirmations: repository.NewSQLiteConfirmationRepo(database),
			Content:       repository.NewSQLiteContentRepo(database),
			Drafts:        repository.NewSQLiteDraftRepo(database),
		},
	}
	a.Services = a.buildServices()
	return a, nil
}

func openSessions(ctx context.Context, cfg config.SessionConfig, database *sql.DB, logger *zap.Logger) (session.Store, error) {
	switch cfg.Backend {
	case config.SessionBackendRedis:
		store, err := session.NewRedisStore(ctx, session.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("opening redis sessions: %w", err)
		}
		return store, nil
	default:
		return session.NewSQLiteStore(database), nil
	}
}

func (a *App) buildServices() handler.Services {
	obs := []service.UseCaseObserver{service.NewLogUseCaseObserver(a.Logger), a.Metrics}
	r := a.Repos

	onboarding := service.NewOnboardingService(r.Users, r.Drafts, a.UoW, obs...)
	return handler.Services{
		Auth:       service.NewAuthService(r.Users, a.Sessions, a.Config.Session.TTL, obs...),
		Onboarding: onboarding,
		Cabinet: service.NewCabinetService(service.CabinetRepos{
			Users:         r.Users,
			Plots:         r.Plots,
			Memberships:   r.Memberships,
			Appeals:       r.Appeals,
			Charges:       r.Charges,
			Payments:      r.Payments,
			Electricity:   r.Electricity,
			Confirmations: r.Confirmations,
			Content:       r.Content,
		}, onboarding, a.UoW, obs...),
		Confirmations: service.NewConfirmationService(r.Confirmations, r.Plots, a.UoW, obs...),
		Finance:       service.NewFinanceService(r.Plots, r.Charges, r.Payments, a.UoW, obs...),
		Appeals:       service.NewAppealService(r.Appeals),
		Memberships:   service.NewMembershipService(r.Memberships, r.Users),
		Content:       service.NewContentService(r.Content),
	}
}

func (a *App) Close() error {
	return errors.Join(a.Sessions.Close(), a.DB.Close())
}
