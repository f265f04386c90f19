// Package diff renders a line-level diff between a deployed file and
// its canonical source. The deployed file is the base and the source is
// the target, so the output answers "what would change if we deploy
// now". The report is advisory only; nothing is persisted.
package diff

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/arthur-debert/dotsync/pkg/errors"
	"github.com/arthur-debert/dotsync/pkg/logging"
)

var (
	insertStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	deleteStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// Reporter computes and prints per-file diffs.
type Reporter struct {
	out    io.Writer
	color  bool
	logger zerolog.Logger
}

// NewReporter creates a reporter writing to out. Color is enabled only
// when out is a real terminal.
func NewReporter(out io.Writer) *Reporter {
	color := false
	if f, ok := out.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Reporter{
		out:    out,
		color:  color,
		logger: logging.GetLogger("diff"),
	}
}

// File prints the diff for one tracked file. Files whose deployed or
// source copy is missing produce no output: there is nothing to compare
// yet. Binary or non-UTF8 content skips the diff with a reported read
// failure and is not an error.
func (r *Reporter) File(relative, deployedPath, sourcePath string) error {
	deployed, err := readText(deployedPath)
	if err != nil {
		return r.skip(relative, err)
	}
	source, err := readText(sourcePath)
	if err != nil {
		return r.skip(relative, err)
	}

	dmp := diffmatchpatch.New()
	base, target, lines := dmp.DiffLinesToChars(deployed, source)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(base, target, false), lines)

	fmt.Fprintf(r.out, "Diff for %s:\n", relative)
	for _, d := range diffs {
		r.writeChange(d)
	}
	fmt.Fprintln(r.out)

	return nil
}

func (r *Reporter) skip(relative string, err error) error {
	r.logger.Warn().Err(err).Str("file", relative).Msg("Skipping diff")
	fmt.Fprintf(r.out, "Diff for %s skipped: %v\n", relative, err)
	return nil
}

func (r *Reporter) writeChange(d diffmatchpatch.Diff) {
	var sign string
	var style lipgloss.Style
	styled := true

	switch d.Type {
	case diffmatchpatch.DiffInsert:
		sign, style = "+", insertStyle
	case diffmatchpatch.DiffDelete:
		sign, style = "-", deleteStyle
	case diffmatchpatch.DiffEqual:
		sign, styled = " ", false
	}

	for _, line := range splitLines(d.Text) {
		text := sign + line
		if styled && r.color {
			text = style.Render(text)
		}
		fmt.Fprintln(r.out, text)
	}
}

// splitLines splits a diff chunk into its lines, dropping the trailing
// empty element a final newline produces.
func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// readText reads a file that must be valid UTF-8 text.
func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrIOFailure, "failed to read %s", path)
	}
	if !utf8.Valid(data) {
		return "", errors.Newf(errors.ErrIOFailure, "%s is not valid UTF-8 text", path)
	}
	return string(data), nil
}
