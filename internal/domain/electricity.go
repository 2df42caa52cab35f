package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const PeriodLayout = "2006-01"

type ElectricityReading struct {
	ID          string
	PlotID      string
	UserID      string
	Period      string
	Value       decimal.Decimal
	SubmittedAt time.Time
}

var (
	ErrReadingNotNumeric = errors.New("reading is not a number")
	ErrReadingNegative   = errors.New("reading cannot be negative")
)

// ParseReading parses a meter value as typed into a form. Both "1234.5"
// and "1234,5" are accepted; surrounding and thousands spaces are ignored.
func ParseReading(raw string) (decimal.Decimal, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	s = strings.Replace(s, ",", ".", 1)
	if s == "" {
		return decimal.Zero, ErrReadingNotNumeric
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrReadingNotNumeric
	}
	if v.IsNegative() {
		return decimal.Zero, ErrReadingNegative
	}
	return v, nil
}

// ParsePeriod validates a YYYY-MM billing period.
func ParsePeriod(s string) (string, error) {
	t, err := time.Parse(PeriodLayout, strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("period %q must be YYYY-MM", s)
	}
	return t.Format(PeriodLayout), nil
}

// CurrentPeriod returns the YYYY-MM period containing now.
func CurrentPeriod(now time.Time) string {
	return now.UTC().Format(PeriodLayout)
}

// Consumption returns how much was used since prev. A nil prev means the
// first reading, which has no measurable consumption.
func (r *ElectricityReading) Consumption(prev *ElectricityReading) decimal.Decimal {
	if prev == nil {
		return decimal.Zero
	}
	return r.Value.Sub(prev.Value)
}

// PreviousReadings maps each reading ID to the same plot's reading for the
// closest earlier period. Plots' first readings have no entry.
func PreviousReadings(readings []*ElectricityReading) map[string]*ElectricityReading {
	out := make(map[string]*ElectricityReading, len(readings))
	for _, r := range readings {
		for _, o := range readings {
			if o.PlotID != r.PlotID || o.Period >= r.Period {
				continue
			}
			if p, ok := out[r.ID]; !ok || o.Period > p.Period {
				out[r.ID] = o
			}
		}
	}
	return out
}
