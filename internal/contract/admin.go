package contract

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/domain"
	"github.com/shopspring/decimal"
)

type DebtRow struct {
	PlotID     string          `json:"plot_id"`
	PlotNumber string          `json:"plot_number"`
	Owner      string          `json:"owner"`
	Accrued    decimal.Decimal `json:"accrued"`
	Paid       decimal.Decimal `json:"paid"`
	Debt       decimal.Decimal `json:"debt"`
}

type DebtsResponse struct {
	Rows      []DebtRow       `json:"rows"`
	TotalDebt decimal.Decimal `json:"total_debt"`
}

// FromDebtRows also totals the positive debts of the listed rows.
func FromDebtRows(rows []domain.DebtRow) DebtsResponse {
	out := DebtsResponse{Rows: make([]DebtRow, 0, len(rows))}
	for _, r := range rows {
		out.Rows = append(out.Rows, DebtRow(r))
		if r.Debt.IsPositive() {
			out.TotalDebt = out.TotalDebt.Add(r.Debt)
		}
	}
	return out
}

// ParseDebtFilter reads q, onlyDebtors, minDebt, sort and dir from a query
// string. Debt and money columns default to descending order, plot and
// owner to ascending.
func ParseDebtFilter(v url.Values) (domain.DebtFilter, error) {
	f := domain.DebtFilter{Query: strings.TrimSpace(v.Get("q"))}

	switch strings.ToLower(v.Get("onlyDebtors")) {
	case "", "0", "false", "off":
	default:
		f.OnlyDebtors = true
	}

	if raw := strings.TrimSpace(v.Get("minDebt")); raw != "" {
		d, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", "."))
		if err != nil {
			return f, fmt.Errorf("minDebt %q is not a number", raw)
		}
		f.MinDebt = &d
	}

	switch key := domain.DebtSortKey(v.Get("sort")); key {
	case "":
		f.Sort = domain.SortByDebt
	case domain.SortByDebt, domain.SortByPlot, domain.SortByOwner, domain.SortByAccrued, domain.SortByPaid:
		f.Sort = key
	default:
		return f, fmt.Errorf("unknown sort %q", key)
	}

	switch v.Get("dir") {
	case "asc":
		f.Ascending = true
	case "desc":
	case "":
		f.Ascending = f.Sort == domain.SortByPlot || f.Sort == domain.SortByOwner
	default:
		return f, fmt.Errorf("dir must be asc or desc")
	}
	return f, nil
}

type ReviewRequest struct {
	Note string `json:"note"`
}

type AppealStatusRequest struct {
	Status   domain.AppealStatus `json:"status"`
	Response string              `json:"response"`
}

type MembershipRequest struct {
	Status domain.MembershipStatus `json:"status"`
	Note   string                  `json:"note"`
}

// QAOverrideRequest sets the stage or role override cookie.
type QAOverrideRequest struct {
	Value string `json:"value"`
}
