package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentConfirmation is a resident's claim that a payment was made
// outside the bank feed. Approval books it as a Payment.
type PaymentConfirmation struct {
	ID             string
	UserID         string
	PlotID         string
	Amount         decimal.Decimal
	PaidAt         time.Time
	Purpose        string
	Comment        string
	AttachmentName string
	Status         ConfirmationStatus
	ReviewerID     *string
	ReviewNote     string
	CreatedAt      time.Time
	ReviewedAt     *time.Time
}

func (c *PaymentConfirmation) Validate(now time.Time) error {
	if c.PlotID == "" {
		return fmt.Errorf("plot is required")
	}
	if !c.Amount.IsPositive() {
		return fmt.Errorf("amount must be positive")
	}
	if c.PaidAt.IsZero() {
		return fmt.Errorf("payment date is required")
	}
	if c.PaidAt.After(now.Add(24 * time.Hour)) {
		return fmt.Errorf("payment date cannot be in the future")
	}
	if strings.TrimSpace(c.Purpose) == "" {
		return fmt.Errorf("payment purpose is required")
	}
	return nil
}

// Decide moves a pending confirmation to status. Only pending confirmations
// can be decided.
func (c *PaymentConfirmation) Decide(status ConfirmationStatus, reviewerID, note string, now time.Time) error {
	if c.Status != ConfirmationPending {
		return fmt.Errorf("confirmation is already %s", c.Status)
	}
	if status != ConfirmationApproved && status != ConfirmationRejected {
		return fmt.Errorf("cannot decide confirmation as %q", status)
	}
	c.Status = status
	c.ReviewerID = &reviewerID
	c.ReviewNote = note
	c.ReviewedAt = &now
	return nil
}
