package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Charge struct {
	ID          string
	PlotID      string
	Kind        ChargeKind
	Period      string
	Amount      decimal.Decimal
	Description string
	CreatedAt   time.Time
}

type Payment struct {
	ID             string
	PlotID         string
	Amount         decimal.Decimal
	PaidAt         time.Time
	Source         PaymentSource
	ConfirmationID *string
	CreatedAt      time.Time
}

// PlotBalance is the accrued/paid/debt triple for one plot.
type PlotBalance struct {
	PlotID  string
	Accrued decimal.Decimal
	Paid    decimal.Decimal
	Debt    decimal.Decimal
}

// NewPlotBalance computes debt = accrued - paid. A negative debt is a prepayment.
func NewPlotBalance(plotID string, accrued, paid decimal.Decimal) PlotBalance {
	return PlotBalance{PlotID: plotID, Accrued: accrued, Paid: paid, Debt: accrued.Sub(paid)}
}

// ComputeBalances folds charges and payments into one balance per plot id.
// Plots without any movement still get a zero row.
func ComputeBalances(plotIDs []string, charges []*Charge, payments []*Payment) []PlotBalance {
	accrued := make(map[string]decimal.Decimal, len(plotIDs))
	paid := make(map[string]decimal.Decimal, len(plotIDs))
	for _, c := range charges {
		accrued[c.PlotID] = accrued[c.PlotID].Add(c.Amount)
	}
	for _, p := range payments {
		paid[p.PlotID] = paid[p.PlotID].Add(p.Amount)
	}
	out := make([]PlotBalance, 0, len(plotIDs))
	for _, id := range plotIDs {
		out = append(out, NewPlotBalance(id, accrued[id], paid[id]))
	}
	return out
}

// DebtRow is one line of the administrative debts table.
type DebtRow struct {
	PlotID     string
	PlotNumber string
	Owner      string
	Accrued    decimal.Decimal
	Paid       decimal.Decimal
	Debt       decimal.Decimal
}

type DebtSortKey string

const (
	SortByDebt    DebtSortKey = "debt"
	SortByPlot    DebtSortKey = "plot"
	SortByOwner   DebtSortKey = "owner"
	SortByAccrued DebtSortKey = "accrued"
	SortByPaid    DebtSortKey = "paid"
)

// DebtFilter selects and orders debt rows. The zero value keeps every row
// and sorts by debt, largest first.
type DebtFilter struct {
	Query       string
	OnlyDebtors bool
	MinDebt     *decimal.Decimal
	Sort        DebtSortKey
	Ascending   bool
}

// FilterDebts applies f to rows and returns a new, sorted slice.
func FilterDebts(rows []DebtRow, f DebtFilter) []DebtRow {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]DebtRow, 0, len(rows))
	for _, r := range rows {
		if q != "" &&
			!strings.Contains(strings.ToLower(r.PlotNumber), q) &&
			!strings.Contains(strings.ToLower(r.Owner), q) {
			continue
		}
		if f.OnlyDebtors && !r.Debt.IsPositive() {
			continue
		}
		if f.MinDebt != nil && r.Debt.LessThan(*f.MinDebt) {
			continue
		}
		out = append(out, r)
	}

	key := f.Sort
	if key == "" {
		key = SortByDebt
	}
	sort.SliceStable(out, func(i, j int) bool {
		c := compareDebtRows(out[i], out[j], key)
		if c == 0 {
			return comparePlotNumbers(out[i].PlotNumber, out[j].PlotNumber) < 0
		}
		if f.Ascending {
			return c < 0
		}
		return c > 0
	})
	return out
}

func compareDebtRows(a, b DebtRow, key DebtSortKey) int {
	switch key {
	case SortByPlot:
		return comparePlotNumbers(a.PlotNumber, b.PlotNumber)
	case SortByOwner:
		return strings.Compare(strings.ToLower(a.Owner), strings.ToLower(b.Owner))
	case SortByAccrued:
		return a.Accrued.Cmp(b.Accrued)
	case SortByPaid:
		return a.Paid.Cmp(b.Paid)
	default:
		return a.Debt.Cmp(b.Debt)
	}
}

// comparePlotNumbers orders plot numbers by their leading integer, then by
// the suffix: "2" < "10" < "12" < "12a". Numbers without digits sort last.
func comparePlotNumbers(a, b string) int {
	ia, ra := splitPlotNumber(a)
	ib, rb := splitPlotNumber(b)
	switch {
	case ia == "" && ib != "":
		return 1
	case ia != "" && ib == "":
		return -1
	}
	if len(ia) != len(ib) {
		if len(ia) < len(ib) {
			return -1
		}
		return 1
	}
	if c := strings.Compare(ia, ib); c != 0 {
		return c
	}
	return strings.Compare(ra, rb)
}

// splitPlotNumber returns the leading digits without leading zeros and the rest.
func splitPlotNumber(s string) (digits, rest string) {
	s = strings.TrimSpace(s)
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	digits = strings.TrimLeft(s[:i], "0")
	if i > 0 && digits == "" {
		digits = "0"
	}
	return digits, strings.ToLower(s[i:])
}
