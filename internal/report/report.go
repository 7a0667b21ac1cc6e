// Package report renders the operator-facing run summaries printed after
// each stage, separate from the structured zap logs.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"
)

// Writer is the summary destination, overridable in tests.
var Writer io.Writer = os.Stdout

const ruleWidth = 52

// Section prints a titled block of lines.
func Section(title string, lines ...string) {
	rule := strings.Repeat("=", ruleWidth)
	fmt.Fprintln(Writer)
	fmt.Fprintln(Writer, color.Bold.Sprint(rule))
	fmt.Fprintln(Writer, color.Bold.Sprint(centered(title)))
	fmt.Fprintln(Writer, color.Bold.Sprint(rule))
	for _, line := range lines {
		fmt.Fprintln(Writer, line)
	}
}

// Metric is one labeled value of a stage summary.
type Metric struct {
	Label string
	Value string
}

// Count formats an integer metric value.
func Count(n int) string {
	return fmt.Sprintf("%d", n)
}

// Metrics prints a titled block of aligned label/value pairs. Labels are
// padded by display width so accented labels line up.
func Metrics(title string, metrics []Metric) {
	width := 0
	for _, m := range metrics {
		if w := runewidth.StringWidth(m.Label); w > width {
			width = w
		}
	}

	lines := make([]string, 0, len(metrics))
	for _, m := range metrics {
		pad := strings.Repeat(" ", width-runewidth.StringWidth(m.Label))
		lines = append(lines, fmt.Sprintf("  %s%s : %s", m.Label, pad, m.Value))
	}
	Section(title, lines...)
}

// Failure prints an error block naming the failing stage.
func Failure(stage string, err error) {
	Section(fmt.Sprintf("ERRO - %s", strings.ToUpper(stage)))
	fmt.Fprint(Writer, color.Red.Sprintf("%v\n", err))
}

func centered(s string) string {
	w := runewidth.StringWidth(s)
	if w >= ruleWidth {
		return s
	}
	return strings.Repeat(" ", (ruleWidth-w)/2) + s
}
