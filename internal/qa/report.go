package qa

import (
	"fmt"
	"strings"
	"time"
)

// Environment describes where a problem was observed.
type Environment struct {
	BaseURL     string    `json:"base_url"`
	Reporter    string    `json:"reporter,omitempty"`
	UserAgent   string    `json:"user_agent,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// BugReport is copy/paste text for an issue tracker.
type BugReport struct {
	Title       string      `json:"title"`
	Environment Environment `json:"environment"`
	Steps       []string    `json:"steps"`
	Expected    string      `json:"expected"`
	Actual      string      `json:"actual"`
	Note        string      `json:"note,omitempty"`
	Markdown    string      `json:"markdown"`
}

func (b *BugReport) render() {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n\n", b.Title)
	sb.WriteString("**Environment**\n\n")
	fmt.Fprintf(&sb, "- Base URL: %s\n", b.Environment.BaseURL)
	if b.Environment.Reporter != "" {
		fmt.Fprintf(&sb, "- Reporter: %s\n", b.Environment.Reporter)
	}
	if b.Environment.UserAgent != "" {
		fmt.Fprintf(&sb, "- User agent: %s\n", b.Environment.UserAgent)
	}
	fmt.Fprintf(&sb, "- Time: %s\n\n", b.Environment.GeneratedAt.UTC().Format(time.RFC3339))
	sb.WriteString("**Steps to reproduce**\n\n")
	for i, s := range b.Steps {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, s)
	}
	fmt.Fprintf(&sb, "\n**Expected**\n\n%s\n\n**Actual**\n\n%s\n", b.Expected, b.Actual)
	if b.Note != "" {
		fmt.Fprintf(&sb, "\n**Notes**\n\n%s\n", b.Note)
	}
	b.Markdown = sb.String()
}

func asRole(role string) string {
	if role == "guest" {
		return "Open the page without logging in"
	}
	return fmt.Sprintf("Log in as an admin and set the QA role override to %q", role)
}

func MatrixCellReport(env Environment, c MatrixCell) BugReport {
	actual := string(c.Actual)
	if c.Status != 0 {
		actual += fmt.Sprintf(" (HTTP %d, final URL %s, %d request(s))", c.Status, c.FinalURL, c.Hops)
	}
	if c.Detail != "" {
		actual += ": " + c.Detail
	}
	b := BugReport{
		Title:       fmt.Sprintf("[access] %s on %s: expected %s, got %s", c.Role, c.Path, c.Expected, c.Actual),
		Environment: env,
		Steps: []string{
			asRole(string(c.Role)),
			fmt.Sprintf("GET %s%s", strings.TrimRight(env.BaseURL, "/"), c.Path),
		},
		Expected: string(c.Expected),
		Actual:   actual,
	}
	b.render()
	return b
}

func DeadEndBugReport(env Environment, d DeadEnd) BugReport {
	actual := d.Reason
	if d.Status != 0 {
		actual = fmt.Sprintf("%s (HTTP %d)", d.Reason, d.Status)
	}
	b := BugReport{
		Title:       fmt.Sprintf("[dead end] %s", d.URL),
		Environment: env,
		Steps: []string{
			fmt.Sprintf("Open %s", d.Source),
			fmt.Sprintf("Follow the link to %s", d.URL),
		},
		Expected: "The link opens a working page",
		Actual:   actual,
	}
	b.render()
	return b
}

func CheckReport(env Environment, r CheckResult) BugReport {
	expected := fmt.Sprintf("HTTP %v", r.Check.Expect)
	if r.Check.Contains != "" {
		expected += fmt.Sprintf(" with a body containing %q", r.Check.Contains)
	}
	b := BugReport{
		Title:       fmt.Sprintf("[check] %s failed", r.Check.Name),
		Environment: env,
		Steps:       []string{fmt.Sprintf("%s %s%s", r.Check.Method, strings.TrimRight(env.BaseURL, "/"), r.Check.Path)},
		Expected:    expected,
		Actual:      r.Detail,
	}
	b.render()
	return b
}

// ReportRequest selects exactly one finding to describe.
type ReportRequest struct {
	Cell    *MatrixCell  `json:"cell,omitempty"`
	DeadEnd *DeadEnd     `json:"dead_end,omitempty"`
	Check   *CheckResult `json:"check,omitempty"`
	Note    string       `json:"note,omitempty"`
}

func BuildReport(env Environment, req ReportRequest) (BugReport, error) {
	var b BugReport
	switch {
	case req.Cell != nil:
		b = MatrixCellReport(env, *req.Cell)
	case req.DeadEnd != nil:
		b = DeadEndBugReport(env, *req.DeadEnd)
	case req.Check != nil:
		b = CheckReport(env, *req.Check)
	default:
		return BugReport{}, fmt.Errorf("report needs a cell, dead_end or check")
	}
	if req.Note != "" {
		b.Note = req.Note
		b.render()
	}
	return b, nil
}

// MatrixSummary renders the whole run as Markdown: totals, then a table of
// mismatches.
func MatrixSummary(r *MatrixResult) string {
	counts := r.Counts()
	var sb strings.Builder
	fmt.Fprintf(&sb, "## Access matrix: %d/%d cells as expected\n\n", counts["pass"], len(r.Cells))
	fmt.Fprintf(&sb, "- Base URL: %s\n- Started: %s\n- Duration: %s\n\n",
		r.BaseURL, r.StartedAt.UTC().Format(time.RFC3339), r.Duration.Round(time.Millisecond))
	failures := r.Failures()
	if len(failures) == 0 {
		sb.WriteString("No mismatches.\n")
		return sb.String()
	}
	sb.WriteString("| Role | Route | Expected | Actual | Detail |\n|---|---|---|---|---|\n")
	for _, c := range failures {
		fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s |\n", c.Role, c.Path, c.Expected, c.Actual, c.Detail)
	}
	return sb.String()
}
