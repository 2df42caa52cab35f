package cli

import (
	"fmt"
	"net/url"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/app"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/cli/formatter"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/contract"
	"github.com/spf13/cobra"
)

func newDebtsCmd(opts *Options) *cobra.Command {
	var (
		query, minDebt, sort, dir string
		onlyDebtors               bool
	)

	cmd := &cobra.Command{
		Use:   "debts",
		Short: "Print the per-plot debt report",
		RunE: func(cmd *cobra.Command, args []string) error {
			v := url.Values{}
			v.Set("q", query)
			v.Set("minDebt", minDebt)
			v.Set("sort", sort)
			v.Set("dir", dir)
			if onlyDebtors {
				v.Set("onlyDebtors", "1")
			}
			filter, err := contract.ParseDebtFilter(v)
			if err != nil {
				return err
			}

			return opts.withApp(cmd.Context(), func(a *app.App) error {
				rows, err := a.Services.Finance.Debts(cmd.Context(), filter)
				if err != nil {
					return err
				}
				resp := contract.FromDebtRows(rows)
				table := make([][]string, 0, len(resp.Rows))
				for _, r := range resp.Rows {
					table = append(table, []string{
						r.PlotNumber,
						r.Owner,
						formatter.Money(r.Accrued, false),
						formatter.Money(r.Paid, false),
						formatter.Money(r.Debt, true),
					})
				}
				out := cmd.OutOrStdout()
				fmt.Fprint(out, formatter.RenderTable(
					[]string{"PLOT", "OWNER", "ACCRUED", "PAID", "DEBT"}, table, formatter.AlignRight(2, 3, 4)))
				fmt.Fprintf(out, "\n%s %s\n", formatter.Bold("Total debt:"), formatter.Money(resp.TotalDebt, true))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "filter by plot number or owner")
	cmd.Flags().StringVar(&minDebt, "min-debt", "", "only rows with at least this debt")
	cmd.Flags().StringVar(&sort, "sort", "", "debt, plot, owner, accrued or paid")
	cmd.Flags().StringVar(&dir, "dir", "", "asc or desc")
	cmd.Flags().BoolVar(&onlyDebtors, "only-debtors", false, "hide plots without debt")
	return cmd
}
