package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/auth"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/domain"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/repository"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/session"
	"github.com/google/uuid"
)

type authService struct {
	users    repository.UserRepo
	sessions session.Store
	ttl      time.Duration
	observer UseCaseObserver
}

func NewAuthService(users repository.UserRepo, sessions session.Store, ttl time.Duration, observers ...UseCaseObserver) AuthService {
	return &authService{users: users, sessions: sessions, ttl: ttl, observer: useCaseObserverOrNoop(observers)}
}

func (s *authService) Login(ctx context.Context, login, password string) (u *domain.User, sess *session.Session, err error) {
	defer observe(ctx, s.observer, "login", time.Now(), map[string]any{"login": domain.NormalizeLogin(login)}, &err)

	u, err = s.users.GetByLogin(ctx, login)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, nil, err
	}
	if u.PasswordHash == "" {
		return nil, nil, ErrUnauthenticated
	}
	if err = auth.VerifyPassword(u.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrMismatch) {
			return nil, nil, ErrUnauthenticated
		}
		return nil, nil, fmt.Errorf("verifying password: %w", err)
	}

	sess, err = s.sessions.Create(ctx, u.ID, s.ttl)
	if err != nil {
		return nil, nil, fmt.Errorf("creating session: %w", err)
	}
	return u, sess, nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Delete(ctx, token)
}

func (s *authService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	sess, err := s.sessions.Get(ctx, token)
	if errors.Is(err, session.ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, sess.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		_ = s.sessions.Delete(ctx, token)
		return nil, ErrUnauthenticated
	}
	return u, err
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if len(in.Password) < 8 {
		return nil, invalid("password", "password", "password must be at least 8 characters")
	}
	role := in.Role
	if role == "" {
		role = domain.RoleResident
	}
	now := time.Now().UTC()
	u := &domain.User{
		ID:        uuid.New().String(),
		FullName:  strings.TrimSpace(in.FullName),
		Phone:     domain.NormalizeLogin(in.Phone),
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		Role:      role,
		Onboarded: in.Onboarded,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.Validate(); err != nil {
		return nil, invalid("user", "user", "%s", err.Error())
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = hash

	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("user with this phone or email already exists: %w", ErrConflict)
		}
		return nil, err
	}
	return u, nil
}

func (s *authService) SetRole(ctx context.Context, login string, role domain.Role) (*domain.User, error) {
	if !domain.ValidRoles[role] {
		return nil, invalid("role", "role", "unknown role %q", role)
	}
	u, err := s.users.GetByLogin(ctx, login)
	if err != nil {
		return nil, err
	}
	u.Role = role
	u.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *authService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.users.List(ctx)
}
