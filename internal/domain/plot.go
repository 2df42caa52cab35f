package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Plot struct {
	ID              string
	Number          string
	Street          string
	AreaSqm         decimal.Decimal
	CadastralNumber string
	CreatedAt       time.Time
}

// UserPlot is a plot joined with the ownership flags of one user.
type UserPlot struct {
	Plot
	IsPrimary bool
}

// PlotOwner is one owner line of a plot, used by the debts table.
type PlotOwner struct {
	PlotID    string
	UserID    string
	FullName  string
	IsPrimary bool
}

func (p *Plot) Validate() error {
	if strings.TrimSpace(p.Number) == "" {
		return fmt.Errorf("plot number is required")
	}
	if p.AreaSqm.IsNegative() {
		return fmt.Errorf("plot area cannot be negative")
	}
	return nil
}

// Label renders "12, Lesnaya" or just the number when no street is known.
func (p *Plot) Label() string {
	if p.Street == "" {
		return p.Number
	}
	return p.Number + ", " + p.Street
}
