// Package progress renders run progress and the final summary on a terminal.
package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"extractor/pkg/domain"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// barWidth is the number of cells of the progress bar.
const barWidth = 30

// Terminal is a scanner.Reporter writing to a console. On a TTY it redraws a
// single progress bar line; otherwise it prints one line per percent change
// so logs stay readable.
type Terminal struct {
	out         io.Writer
	tty         bool
	lastPercent int

	success *color.Color
	warn    *color.Color
	fail    *color.Color
	label   *color.Color
}

// NewTerminal returns a reporter writing to out. tty selects in-place
// redrawing of the progress line.
func NewTerminal(out io.Writer, tty bool) *Terminal {
	return &Terminal{
		out:         out,
		tty:         tty,
		lastPercent: -1,
		success:     color.New(color.FgGreen),
		warn:        color.New(color.FgYellow),
		fail:        color.New(color.FgRed),
		label:       color.New(color.FgCyan),
	}
}

// NewStdout returns a reporter on standard output, detecting whether it is
// attached to a terminal.
func NewStdout() *Terminal {
	fd := os.Stdout.Fd()

	return NewTerminal(color.Output, isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd))
}

// Progress implements scanner.Reporter.
func (t *Terminal) Progress(_ context.Context, p domain.Progress) {
	if t.tty {
		fmt.Fprintf(t.out, "\r%s %s %3d%% (%d/%d files, %d unique)",
			t.label.Sprint("Progress:"), Bar(p.Percent, barWidth), p.Percent, p.Processed, p.Total, p.Unique)

		return
	}

	if p.Percent == t.lastPercent {
		return
	}
	t.lastPercent = p.Percent
	fmt.Fprintf(t.out, "%s %d%%\n", t.label.Sprint("Progress:"), p.Percent)
}

// Finished implements scanner.Reporter.
func (t *Terminal) Finished(_ context.Context, res domain.RunResult) {
	if t.tty {
		fmt.Fprintln(t.out)
	}

	if res.Written {
		t.success.Fprintln(t.out, res.Summary())
	} else {
		t.warn.Fprintln(t.out, res.Summary())
	}

	if n := len(res.Failed); n > 0 {
		t.fail.Fprintf(t.out, "Skipped %d of %d files that could not be read:\n", n, res.Files)
		for _, f := range res.Failed {
			fmt.Fprintf(t.out, "  %s: %v\n", f.Path, f.Err)
		}
	}

	fmt.Fprintf(t.out, "%s %.2f seconds\n", t.label.Sprint("Elapsed Time:"), res.ElapsedSeconds())
}

// Bar renders percent as an ASCII bar of width cells, clamping percent to
// [0, 100].
func Bar(percent, width int) string {
	if width < 1 {
		width = 10
	}
	percent = min(max(percent, 0), 100)

	filled := percent * width / 100

	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]"
}
