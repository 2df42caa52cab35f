package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/domain"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/repository"
	"github.com/google/uuid"
)

type appealService struct {
	appeals repository.AppealRepo
	now     func() time.Time
}

func NewAppealService(appeals repository.AppealRepo) AppealService {
	return &appealService{appeals: appeals, now: time.Now}
}

func (s *appealService) List(ctx context.Context, status domain.AppealStatus) ([]*domain.Appeal, error) {
	return s.appeals.List(ctx, status)
}

func (s *appealService) Transition(ctx context.Context, id string, status domain.AppealStatus, response string) (*domain.Appeal, error) {
	a, err := s.appeals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !a.CanTransition(status) {
		return nil, fmt.Errorf("appeal %s cannot move from %s to %s: %w", id, a.Status, status, ErrInvalidTransition)
	}
	a.Status = status
	if r := strings.TrimSpace(response); r != "" {
		a.Response = r
	}
	a.UpdatedAt = s.now().UTC()
	if err := s.appeals.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

type membershipService struct {
	memberships repository.MembershipRepo
	users       repository.UserRepo
	now         func() time.Time
}

func NewMembershipService(memberships repository.MembershipRepo, users repository.UserRepo) MembershipService {
	return &membershipService{memberships: memberships, users: users, now: time.Now}
}

// Get returns a none-status membership for users with no record.
func (s *membershipService) Get(ctx context.Context, userID string) (*domain.Membership, error) {
	m, err := loadMembership(ctx, s.memberships, userID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return &domain.Membership{UserID: userID, Status: domain.MembershipNone}, nil
	}
	return m, nil
}

// SetStatus records a board decision on membership. Since is stamped the
// first time the user becomes active.
func (s *membershipService) SetStatus(ctx context.Context, userID string, status domain.MembershipStatus, note string) (*domain.Membership, error) {
	if !domain.ValidMembershipStatuses[status] {
		return nil, invalid("status", "status", "unknown membership status %q", status)
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	m, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if status == domain.MembershipActive && m.Since == nil {
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		m.Since = &today
	}
	m.Status = status
	m.Note = strings.TrimSpace(note)
	m.UpdatedAt = now
	if err := s.memberships.Upsert(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

type contentService struct {
	content repository.ContentRepo
	now     func() time.Time
}

func NewContentService(content repository.ContentRepo) ContentService {
	return &contentService{content: content, now: time.Now}
}

func (s *contentService) PublicAnnouncements(ctx context.Context) ([]*domain.Announcement, error) {
	return s.content.ListAnnouncements(ctx, domain.AudienceAll)
}

func (s *contentService) PublishAnnouncement(ctx context.Context, authorID string, in AnnouncementInput) (*domain.Announcement, error) {
	audience := in.Audience
	if audience == "" {
		audience = domain.AudienceAll
	}
	a := &domain.Announcement{
		ID:          uuid.New().String(),
		Title:       strings.TrimSpace(in.Title),
		Body:        strings.TrimSpace(in.Body),
		Audience:    audience,
		AuthorID:    authorID,
		PublishedAt: s.now().UTC(),
	}
	if err := a.Validate(); err != nil {
		return nil, invalid("announcement", "announcement", "%s", err.Error())
	}
	if err := s.content.CreateAnnouncement(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *contentService) CreateDecision(ctx context.Context, in DecisionInput) (*domain.Decision, error) {
	decidedOn, err := parseDay("decided_on", in.DecidedOn)
	if err != nil {
		return nil, err
	}
	d := &domain.Decision{
		ID:          uuid.New().String(),
		Title:       strings.TrimSpace(in.Title),
		Body:        strings.TrimSpace(in.Body),
		MeetingKind: strings.TrimSpace(in.MeetingKind),
		DecidedOn:   decidedOn,
		CreatedAt:   s.now().UTC(),
	}
	if err := d.Validate(); err != nil {
		return nil, invalid("decision", "decision", "%s", err.Error())
	}
	if err := s.content.CreateDecision(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *contentService) CreateDocument(ctx context.Context, in DocumentInput) (*domain.Document, error) {
	d := &domain.Document{
		ID:          uuid.New().String(),
		Title:       strings.TrimSpace(in.Title),
		URL:         strings.TrimSpace(in.URL),
		Category:    strings.TrimSpace(in.Category),
		MembersOnly: in.MembersOnly,
		CreatedAt:   s.now().UTC(),
	}
	if err := d.Validate(); err != nil {
		return nil, invalid("document", "document", "%s", err.Error())
	}
	if err := s.content.CreateDocument(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}
