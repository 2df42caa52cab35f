package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/cli/formatter"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/config"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/qa"
	"github.com/spf13/cobra"
)

// newToolkit builds the QA runners from configuration. rec may be nil.
func newToolkit(cfg config.QAConfig, rec qa.Recorder) (*qa.Toolkit, error) {
	exp, err := qa.LoadExpectations(cfg.ExpectationsFile)
	if err != nil {
		return nil, err
	}
	opts := qa.Options{
		Client: qa.ClientOptions{
			BaseURL:           cfg.BaseURL,
			MaxHops:           cfg.MaxHops,
			Timeout:           cfg.RequestTimeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
		},
		Workers:      cfg.Workers,
		MaxPages:     cfg.MaxPages,
		Expectations: exp,
	}
	if rec != nil {
		opts.Recorder = rec
	}
	return qa.NewToolkit(opts)
}

type qaFlags struct {
	baseURL string
	session string
	format  string
	strict  bool
}

func newQACmd(opts *Options) *cobra.Command {
	var f qaFlags

	cmd := &cobra.Command{
		Use:   "qa",
		Short: "Probe a running portal: access matrix, dead links and smoke checks",
		Long: `QA commands run against a live server over HTTP. The base URL comes from
qa.base_url unless --base-url is given. Role rows of the access matrix
other than guest need an admin session token (--session or SNT_QA_SESSION)
and a server started with qa.enabled.`,
	}
	cmd.PersistentFlags().StringVar(&f.baseURL, "base-url", "", "portal URL (default qa.base_url)")
	cmd.PersistentFlags().StringVar(&f.session, "session", os.Getenv("SNT_QA_SESSION"), "snt_session token to run as")
	cmd.PersistentFlags().StringVarP(&f.format, "format", "o", "table", "table, markdown or json")
	cmd.PersistentFlags().BoolVar(&f.strict, "strict", false, "exit non-zero when anything fails")

	cmd.AddCommand(
		newQAMatrixCmd(opts, &f),
		newQADeadEndsCmd(opts, &f),
		newQAChecksCmd(opts, &f),
	)
	return cmd
}

func (f *qaFlags) toolkit(opts *Options) (*qa.Toolkit, error) {
	cfg, _, err := opts.loadConfig()
	if err != nil {
		return nil, err
	}
	if f.baseURL != "" {
		cfg.QA.BaseURL = f.baseURL
	}
	switch f.format {
	case "table", "markdown", "json":
	default:
		return nil, fmt.Errorf("unknown format %q", f.format)
	}
	return newToolkit(cfg.QA, nil)
}

func (f *qaFlags) env(k *qa.Toolkit) qa.Environment {
	return qa.Environment{BaseURL: k.BaseURL(), Reporter: "snt qa", GeneratedAt: time.Now().UTC()}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func failed(strict bool, n int, what string) error {
	if strict && n > 0 {
		return fmt.Errorf("%d %s", n, what)
	}
	return nil
}

func newQAMatrixCmd(opts *Options, f *qaFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "matrix",
		Short: "Check every route against every role",
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := f.toolkit(opts)
			if err != nil {
				return err
			}
			defer k.Close()

			res := k.Matrix(cmd.Context(), f.session)
			out := cmd.OutOrStdout()
			switch f.format {
			case "json":
				if err := writeJSON(out, res); err != nil {
					return err
				}
			case "markdown":
				fmt.Fprint(out, qa.MatrixSummary(res))
			default:
				fmt.Fprint(out, renderMatrix(res))
			}
			return failed(f.strict, len(res.Failures()), "matrix cells differ from expectations")
		},
	}
}

func renderMatrix(res *qa.MatrixResult) string {
	rows := make([][]string, 0, len(res.Cells))
	for _, c := range res.Cells {
		rows = append(rows, []string{
			string(c.Role),
			c.Path,
			formatter.Outcome(c.Expected),
			formatter.Outcome(c.Actual),
			strconv.Itoa(c.Status),
			formatter.PassFail(c.OK()),
			c.Detail,
		})
	}
	counts := res.Counts()
	return formatter.Header("Access matrix") + "\n" +
		formatter.RenderTable([]string{"ROLE", "ROUTE", "EXPECTED", "ACTUAL", "STATUS", "", "DETAIL"}, rows) +
		fmt.Sprintf("\n%d/%d as expected in %s\n", counts["pass"], len(res.Cells), res.Duration.Round(time.Millisecond))
}

func newQADeadEndsCmd(opts *Options, f *qaFlags) *cobra.Command {
	var seeds []string

	cmd := &cobra.Command{
		Use:   "deadends",
		Short: "Crawl internal links and report broken ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := f.toolkit(opts)
			if err != nil {
				return err
			}
			defer k.Close()

			rep := k.DeadEnds(cmd.Context(), seeds, f.session)
			out := cmd.OutOrStdout()
			switch f.format {
			case "json":
				if err := writeJSON(out, rep); err != nil {
					return err
				}
			case "markdown":
				env := f.env(k)
				for _, d := range rep.DeadEnds {
					fmt.Fprintln(out, qa.DeadEndBugReport(env, d).Markdown)
				}
			default:
				rows := make([][]string, 0, len(rep.DeadEnds))
				for _, d := range rep.DeadEnds {
					status := ""
					if d.Status != 0 {
						status = strconv.Itoa(d.Status)
					}
					rows = append(rows, []string{d.Source, d.URL, status, d.Reason})
				}
				fmt.Fprintln(out, formatter.Header("Dead ends"))
				fmt.Fprint(out, formatter.RenderTable([]string{"SOURCE", "URL", "STATUS", "REASON"}, rows))
				summary := fmt.Sprintf("\n%d pages scanned, %d links checked, %d dead", rep.PagesScanned, rep.LinksChecked, len(rep.DeadEnds))
				if rep.Truncated {
					summary += formatter.Dim(" (page limit reached)")
				}
				fmt.Fprintln(out, summary)
			}
			return failed(f.strict, len(rep.DeadEnds), "dead ends found")
		},
	}
	cmd.Flags().StringSliceVar(&seeds, "seed", nil, "start pages (default /, /cabinet, /admin)")
	return cmd
}

func newQAChecksCmd(opts *Options, f *qaFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "checks",
		Short: "Run the smoke checks",
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := f.toolkit(opts)
			if err != nil {
				return err
			}
			defer k.Close()

			results := k.Checks(cmd.Context(), nil)
			fails := 0
			for _, r := range results {
				if !r.OK {
					fails++
				}
			}

			out := cmd.OutOrStdout()
			switch f.format {
			case "json":
				if err := writeJSON(out, results); err != nil {
					return err
				}
			case "markdown":
				env := f.env(k)
				for _, r := range results {
					if !r.OK {
						fmt.Fprintln(out, qa.CheckReport(env, r).Markdown)
					}
				}
			default:
				rows := make([][]string, 0, len(results))
				for _, r := range results {
					rows = append(rows, []string{
						r.Check.Name,
						r.Check.Method + " " + r.Check.Path,
						strconv.Itoa(r.Status),
						formatter.PassFail(r.OK),
						r.Duration.Round(time.Millisecond).String(),
						r.Detail,
					})
				}
				fmt.Fprintln(out, formatter.Header("Smoke checks"))
				fmt.Fprint(out, formatter.RenderTable([]string{"CHECK", "REQUEST", "STATUS", "", "TIME", "DETAIL"}, rows, formatter.AlignRight(2, 4)))
				fmt.Fprintf(out, "\n%d/%d passed\n", len(results)-fails, len(results))
			}
			return failed(f.strict, fails, "checks failed")
		},
	}
}
