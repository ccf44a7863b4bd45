// Package report renders the outcome of a run for the terminal or the hook
// host. Everything goes to one writer, normally stderr.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/meysamhadeli/smartlint/constants/lipgloss"
	"github.com/meysamhadeli/smartlint/dispatcher"
	"github.com/meysamhadeli/smartlint/lint"
	"github.com/meysamhadeli/smartlint/utils"
)

// CleanMessage is printed when no issues were found.
const CleanMessage = "👉 Style clean. Continue with your task."

// Options configures a Reporter.
type Options struct {
	Color      bool
	Theme      string
	ShowTiming bool

	// Verbose also lists passing tools.
	Verbose bool
}

// Reporter prints outcomes.
type Reporter struct {
	w    io.Writer
	opts Options
}

// New creates a reporter writing to w.
func New(w io.Writer, opts Options) *Reporter {
	if opts.Theme == "" {
		opts.Theme = utils.DefaultTheme
	}
	return &Reporter{w: w, opts: opts}
}

// Print writes the report for out. The Summary section appears exactly once.
func (r *Reporter) Print(out *dispatcher.Outcome) error {
	switch {
	case out.Disabled:
		return r.line(lipgloss.Gray.Render("smartlint: hooks disabled by configuration"))
	case out.CooledDown:
		return r.line(lipgloss.Gray.Render(fmt.Sprintf("smartlint: skipped, last clean run finished %s ago", out.CooldownAge.Round(time.Millisecond))))
	case out.Project == nil:
		return nil
	case out.Project.Type.IsUnknown():
		return r.line(lipgloss.Gray.Render("smartlint: no supported project type detected, nothing to check"))
	}

	summary := out.Summary
	if err := r.line(lipgloss.Info.Render(fmt.Sprintf("smartlint: %s project, %s", out.Project.Type, scope(out)))); err != nil {
		return err
	}

	for _, n := range summary.Notices() {
		if err := r.line(lipgloss.Gray.Render(fmt.Sprintf("  · %s: %s", n.Language, n.Message))); err != nil {
			return err
		}
	}

	if err := r.line("\n" + lipgloss.Heading.Render("Summary")); err != nil {
		return err
	}

	if r.opts.Verbose {
		for _, res := range summary.Results() {
			if res.Succeeded {
				if err := r.line(lipgloss.Green.Render(fmt.Sprintf("✓ [%s] %s", res.Language, res.Command))); err != nil {
					return err
				}
			}
		}
	}

	failures := summary.Failures()
	for _, f := range failures {
		header := fmt.Sprintf("✗ [%s] %s (exit %d)", f.Language, f.Command, f.ExitCode)
		if f.ExitCode < 0 {
			header = fmt.Sprintf("✗ [%s] %s", f.Language, f.Command)
		}
		if err := r.line(lipgloss.Red.Render(header)); err != nil {
			return err
		}
		if err := utils.RenderOutputBlock(r.w, f.Output, r.opts.Color, r.opts.Theme); err != nil {
			return err
		}
	}

	if r.opts.ShowTiming && len(summary.Results()) > 0 {
		if err := r.line(TimingTable(summary.Results()).Render()); err != nil {
			return err
		}
	}

	if len(failures) > 0 {
		return r.line(lipgloss.Red.Render(fmt.Sprintf("❌ Found %d %s. Fix all of them before continuing.", len(failures), plural(len(failures), "issue", "issues"))))
	}
	if len(summary.Checked()) == 0 {
		return r.line(lipgloss.Gray.Render("No changed files to check."))
	}
	return r.line(lipgloss.Green.Render(CleanMessage))
}

// TimingTable lists every invocation with its duration.
func TimingTable(results []lint.ToolResult) table.Writer {
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"LANGUAGE", "STEP", "COMMAND", "RESULT", "DURATION"})

	var total time.Duration
	for _, res := range results {
		status := "ok"
		if !res.Succeeded {
			status = "failed"
		}
		tw.AppendRow(table.Row{
			string(res.Language),
			string(res.Step),
			truncate(res.Command, 60),
			status,
			res.Duration.Round(time.Millisecond).String(),
		})
		total += res.Duration
	}
	tw.AppendFooter(table.Row{"", "", "", "total", total.Round(time.Millisecond).String()})

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft},
		{Number: 3, Align: text.AlignLeft},
		{Number: 4, Align: text.AlignCenter},
		{Number: 5, Align: text.AlignRight},
	})
	tw.SetStyle(table.StyleLight)
	return tw
}

func scope(out *dispatcher.Outcome) string {
	if out.ChangeSet.Full {
		return "full tree"
	}
	if out.ChangeSet.Expanded {
		n := len(out.ChangeSet.Excluded)
		return fmt.Sprintf("full tree, %d excluded %s", n, plural(n, "file", "files"))
	}
	n := out.ChangeSet.Len()
	return fmt.Sprintf("%d changed %s", n, plural(n, "file", "files"))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}

func (r *Reporter) line(s string) error {
	_, err := fmt.Fprintln(r.w, strings.TrimRight(s, "\n"))
	return err
}
