package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/abacus/internal/advice"
	"github.com/verte-zerg/abacus/internal/model"
	"github.com/verte-zerg/abacus/internal/stats"
)

var (
	rowStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	negativeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	flashStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C")).Italic(true)
	headerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	clockStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	correctStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	wrongStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	tipStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Italic(true)
	boxStyle      = lipgloss.NewStyle().
			Padding(1, 4).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
)

// Narration status lines shown in oral mode.
const (
	statusListening = "Listening..."
	statusAnswer    = "Enter your answer"
	statusAsking    = "Asking coach..."
)

func formatClock(seconds int) string {
	seconds = max(seconds, 0)
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func renderHeader(cfg model.PracticeConfig, remaining, progress, width int) string {
	left := headerStyle.Render("Esc to exit")
	var right string
	if cfg.Mode == model.ModeOral {
		right = clockStyle.Render(fmt.Sprintf("Sum: %d/%d", min(progress, cfg.NumberOfSums), cfg.NumberOfSums))
	} else {
		right = clockStyle.Render(formatClock(remaining))
	}
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 2 {
		gap = 2
	}
	return left + strings.Repeat(" ", gap) + right
}

// renderRows right-aligns add-less rows and colors subtracted rows.
func renderRows(numbers []int64) string {
	texts := make([]string, len(numbers))
	width := 0
	for i, n := range numbers {
		texts[i] = strconv.FormatInt(n, 10)
		width = max(width, runewidth.StringWidth(texts[i]))
	}
	lines := make([]string, len(numbers))
	for i, text := range texts {
		padded := runewidth.FillLeft(text, width)
		if numbers[i] < 0 {
			lines[i] = negativeStyle.Render(padded)
		} else {
			lines[i] = rowStyle.Render(padded)
		}
	}
	return strings.Join(lines, "\n")
}

func renderProblem(p model.DrillProblem, cfg model.PracticeConfig, flash string, narrating bool) string {
	if cfg.Mode == model.ModeOral {
		switch {
		case flash != "":
			return flashStyle.Render(flash)
		case narrating:
			return statusStyle.Render(statusListening)
		default:
			return statusStyle.Render(statusAnswer)
		}
	}
	if p.Operation == model.OpAddLess {
		return renderRows(p.Numbers)
	}
	return rowStyle.Render(p.Display)
}

func renderFooter(hasLast bool, lastAcc, allCorrect, allTotal int) string {
	segments := []string{}
	if hasLast {
		segments = append(segments, fmt.Sprintf("Last %d%%", lastAcc))
	}
	segments = append(segments, fmt.Sprintf("All-time %d%%", model.AccuracyPercent(allCorrect, allTotal)))
	return footerStyle.Render(strings.Join(segments, "  "))
}

// InlineProblem renders a problem on one line.
func InlineProblem(p model.DrillProblem) string {
	if p.Operation != model.OpAddLess || len(p.Numbers) == 0 {
		return strings.ReplaceAll(p.Display, "\n", " ")
	}
	var b strings.Builder
	b.WriteString(strconv.FormatInt(p.Numbers[0], 10))
	for _, n := range p.Numbers[1:] {
		if n < 0 {
			fmt.Fprintf(&b, " - %d", -n)
		} else {
			fmt.Fprintf(&b, " + %d", n)
		}
	}
	return b.String()
}

// FormatAnswer prints an answer without trailing zeros.
func FormatAnswer(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func renderHistory(history []model.Attempt) string {
	if len(history) == 0 {
		return statusStyle.Render("No answers given.")
	}
	lines := make([]string, len(history))
	for i, a := range history {
		mark := wrongStyle.Render("✗")
		if a.Correct {
			mark = correctStyle.Render("✓")
		}
		input := a.Input
		if strings.TrimSpace(input) == "" {
			input = "-"
		}
		lines[i] = fmt.Sprintf("%2d. %s = %s  you: %s %s",
			i+1, InlineProblem(a.Problem), FormatAnswer(a.Problem.Answer), input, mark)
	}
	return strings.Join(lines, "\n")
}

func renderResults(result model.SessionResult, tip string, pending bool, notice string, width int) string {
	coach := tipStyle.Render(tip)
	if pending {
		coach = statusStyle.Render(statusAsking)
	}
	if width > 8 {
		coach = lipgloss.NewStyle().Width(min(width-8, 72)).Render(coach)
	}
	parts := []string{
		titleStyle.Render("Results"),
		fmt.Sprintf("%s · %s", stats.OperationLabel(result.Config.Operation), advice.Elapsed(result)),
		fmt.Sprintf("Correct: %d   Total: %d   Accuracy: %d%%", result.Correct, result.Total, result.Accuracy()),
		"",
		coach,
		"",
		renderHistory(result.History),
		"",
		headerStyle.Render("r: practice again  c: copy  q: quit"),
	}
	if notice != "" {
		parts = append(parts, statusStyle.Render(notice))
	}
	return boxStyle.Render(strings.Join(parts, "\n"))
}

// ResultSummary is the plain-text summary copied to the clipboard.
func ResultSummary(result model.SessionResult, tip string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Abacus drill: %s, %s\n", stats.OperationLabel(result.Config.Operation), advice.Elapsed(result))
	fmt.Fprintf(&b, "Score: %d/%d (%d%%)\n", result.Correct, result.Total, result.Accuracy())
	if tip != "" {
		fmt.Fprintf(&b, "Coach: %s\n", tip)
	}
	for i, a := range result.History {
		mark := "wrong"
		if a.Correct {
			mark = "ok"
		}
		fmt.Fprintf(&b, "%d. %s = %s, answered %q (%s)\n", i+1, InlineProblem(a.Problem), FormatAnswer(a.Problem.Answer), a.Input, mark)
	}
	return b.String()
}
