package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/domain"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/repository"
	"github.com/shopspring/decimal"
)

// parseAmount reads a positive money amount typed into a form. A decimal
// comma is accepted.
func parseAmount(field, raw string) (decimal.Decimal, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	s = strings.Replace(s, ",", ".", 1)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, invalid(field, "amount", "%q is not an amount", raw)
	}
	if !d.IsPositive() {
		return decimal.Zero, invalid(field, "amount", "amount must be positive")
	}
	return d.Round(2), nil
}

// parseDay accepts YYYY-MM-DD or RFC3339.
func parseDay(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, invalid(field, "date", "%q is not a date", raw)
}

// loadMembership returns the user's membership, or nil when none was ever
// recorded.
func loadMembership(ctx context.Context, repo repository.MembershipRepo, userID string) (*domain.Membership, error) {
	m, err := repo.Get(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return m, err
}

func plotIDs(plots []*domain.UserPlot) []string {
	ids := make([]string, len(plots))
	for i, p := range plots {
		ids[i] = p.ID
	}
	return ids
}
