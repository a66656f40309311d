package stats

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Curve is a named series drawn as one chart row.
type Curve struct {
	Name   string
	Values []float64
}

const (
	minChartWidth  = 10
	fallbackWidth  = 80
	chartSeparator = " │ "
)

// RenderChart draws each curve as a sparkline row with its range.
// A width <= 0 uses the terminal width.
func RenderChart(w io.Writer, title string, curves []Curve, width int) error {
	if width <= 0 {
		width = TerminalWidth()
	}
	labelWidth := 0
	for _, c := range curves {
		labelWidth = max(labelWidth, runewidth.StringWidth(c.Name))
	}
	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	for _, c := range curves {
		if len(c.Values) == 0 {
			continue
		}
		lo, hi := minMax(c.Values)
		rangeLabel := fmt.Sprintf(" %.1f..%.1f", lo, hi)
		plotWidth := ChartWidthFor(width, labelWidth+runewidth.StringWidth(rangeLabel))
		line := runewidth.FillRight(c.Name, labelWidth) + chartSeparator +
			Sparkline(Resample(c.Values, plotWidth)) + rangeLabel
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// ChartWidthFor returns the columns left for the plot after labels.
func ChartWidthFor(totalWidth, labelWidth int) int {
	if totalWidth <= 0 {
		return minChartWidth
	}
	return max(totalWidth-labelWidth-runewidth.StringWidth(chartSeparator), minChartWidth)
}

// TerminalWidth reports the stdout width, or 80 when stdout is not a terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return fallbackWidth
	}
	return width
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Resample fits values into width points. Longer series are averaged per bucket.
// Shorter series are returned as-is so each session keeps one column.
func Resample(values []float64, width int) []float64 {
	if width <= 0 || len(values) <= width {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, width)
	for i := range out {
		start := i * len(values) / width
		end := max((i+1)*len(values)/width, start+1)
		var sum float64
		for _, v := range values[start:end] {
			sum += v
		}
		out[i] = sum / float64(end-start)
	}
	return out
}

// Bar renders a horizontal bar of value/maxValue scaled to width.
func Bar(value, maxValue float64, width int) string {
	if width <= 0 || maxValue <= 0 {
		return ""
	}
	filled := int(value / maxValue * float64(width))
	filled = max(0, min(filled, width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
