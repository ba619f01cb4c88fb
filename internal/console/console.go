// Package console is the terminal side of vaultsort: the y/N prompt for
// staged replacements, colored diffs and summary tables.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/mattn/go-isatty"

	"github.com/starford/vaultsort/internal/bulkedit"
	"github.com/starford/vaultsort/internal/models"
	"github.com/starford/vaultsort/internal/report"
)

// Console reads answers from In and writes to Out.
type Console struct {
	Out io.Writer
	// Interactive enables the prompt. Without it every change is rejected
	// unless AutoAccept is set.
	Interactive bool
	AutoAccept  bool

	in *bufio.Reader
}

// New returns a console on in/out. The prompt is enabled only when both
// are terminals.
func New(in io.Reader, out io.Writer) *Console {
	return &Console{
		Out:         out,
		Interactive: isTerminal(in) && isTerminal(out),
		in:          bufio.NewReader(in),
	}
}

// Stdio returns a console on the process standard streams.
func Stdio() *Console {
	return New(os.Stdin, color.Output)
}

func isTerminal(v any) bool {
	f, ok := v.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

var (
	bold    = color.New(color.Bold)
	added   = color.New(color.FgGreen)
	removed = color.New(color.FgRed)
	hunk    = color.New(color.FgCyan)
	faint   = color.New(color.Faint)
)

// Decide shows diff and asks whether to apply it to file.
func (c *Console) Decide(ctx context.Context, file, diff string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	c.PrintDiff(diff)
	if c.AutoAccept {
		_, _ = faint.Fprintf(c.Out, "applying to %s\n", file)
		return true, nil
	}
	if !c.Interactive {
		_, _ = faint.Fprintf(c.Out, "not a terminal, skipping %s (use --yes to apply)\n", file)
		return false, nil
	}
	_, _ = bold.Fprintf(c.Out, "Apply changes to %s? ", file)
	_, _ = faint.Fprint(c.Out, "[y/N] ")
	answer, err := c.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("console: read answer: %w", err)
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}

// PrintDiff writes a unified diff, coloring added and removed lines.
func (c *Console) PrintDiff(diff string) {
	for _, l := range strings.SplitAfter(diff, "\n") {
		switch {
		case l == "":
		case strings.HasPrefix(l, "+++"), strings.HasPrefix(l, "---"):
			_, _ = bold.Fprint(c.Out, l)
		case strings.HasPrefix(l, "@@"):
			_, _ = hunk.Fprint(c.Out, l)
		case strings.HasPrefix(l, "+"):
			_, _ = added.Fprint(c.Out, l)
		case strings.HasPrefix(l, "-"):
			_, _ = removed.Fprint(c.Out, l)
		default:
			_, _ = fmt.Fprint(c.Out, l)
		}
	}
}

func statusColor(s models.OutcomeStatus) *color.Color {
	switch s {
	case models.StatusMoved:
		return added
	case models.StatusFailed:
		return removed
	default:
		return faint
	}
}

// MoveReport prints one row per outcome followed by the totals.
func (c *Console) MoveReport(rep *report.Report, dryRun bool) {
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	tbl.AddRow(bold.Sprint("FILE"), bold.Sprint("STATUS"), bold.Sprint("DETAIL"))
	for _, o := range rep.Outcomes() {
		detail := o.Destination
		switch o.Status {
		case models.StatusSkipped:
			detail = o.Reason
			if o.Observed != "" {
				detail += ": " + o.Observed
			}
		case models.StatusFailed:
			detail = o.ErrorKind
			if o.Destination != "" {
				detail += " (" + o.Destination + ")"
			}
		}
		tbl.AddRow(o.File, statusColor(o.Status).Sprint(string(o.Status)), detail)
	}
	_, _ = fmt.Fprintln(c.Out, tbl)

	verb := "moved"
	if dryRun {
		verb = "would move"
	}
	_, _ = fmt.Fprintf(c.Out, "\n%s %d, not moved %d\n", verb, rep.Moved(), rep.NotMoved())
}

// EditSummary prints one row per touched note followed by the totals.
// Unchanged notes are only counted.
func (c *Console) EditSummary(sum bulkedit.Summary) {
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold.Sprint("NOTE"), bold.Sprint("STATUS"), bold.Sprint("DETAIL"))
	for _, f := range sum.Files {
		if f.Status == bulkedit.StatusUnchanged {
			continue
		}
		detail := f.Error
		if f.Changes > 0 {
			detail = fmt.Sprintf("%d change(s)", f.Changes)
		}
		tbl.AddRow(f.Path, string(f.Status), detail)
	}
	_, _ = fmt.Fprintln(c.Out, tbl)
	_, _ = fmt.Fprintf(c.Out, "\n%s: edited %d, unchanged %d, skipped %d, rejected %d, errors %d\n",
		sum.Operation, sum.Edited, sum.Unchanged, sum.Skipped, sum.Rejected, sum.Errors)
}
