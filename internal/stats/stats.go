// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/verte-zerg/abacus/internal/model"
)

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// SessionMetrics computes accuracy (0-1) and solved problems per minute.
func SessionMetrics(correct, total int, durationMs int64) (accuracy, perMinute float64) {
	if total > 0 {
		accuracy = float64(correct) / float64(total)
	}
	if durationMs > 0 {
		perMinute = float64(total) / (float64(durationMs) / 60000.0)
	}
	return accuracy, perMinute
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		n := i + 1
		if i >= window {
			sum -= values[i-window]
			n = window
		}
		out[i] = sum / float64(n)
	}
	return out
}

// Sparkline renders values as a single line of block characters.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := minMax(values)
	if math.Abs(hi-lo) < 1e-9 {
		return strings.Repeat(string(sparkBlocks[len(sparkBlocks)/2]), len(values))
	}
	var b strings.Builder
	top := float64(len(sparkBlocks) - 1)
	for _, v := range values {
		idx := int(math.Round((v - lo) / (hi - lo) * top))
		idx = max(0, min(idx, len(sparkBlocks)-1))
		b.WriteRune(sparkBlocks[idx])
	}
	return b.String()
}

func minMax(values []float64) (lo, hi float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// Summary aggregates a list of sessions.
type Summary struct {
	Sessions     int
	Problems     int
	Correct      int
	AvgAccuracy  float64
	BestAccuracy float64
	AvgPerMinute float64
	Practice     time.Duration
}

// Summarize computes totals and averages over sessions.
func Summarize(sessions []model.SessionAggregate) Summary {
	var s Summary
	if len(sessions) == 0 {
		return s
	}
	var accSum, speedSum float64
	for _, sess := range sessions {
		acc, speed := SessionMetrics(sess.Correct, sess.Total, sess.DurationMs)
		accSum += acc
		speedSum += speed
		s.BestAccuracy = math.Max(s.BestAccuracy, acc)
		s.Problems += sess.Total
		s.Correct += sess.Correct
		s.Practice += time.Duration(sess.DurationMs) * time.Millisecond
	}
	s.Sessions = len(sessions)
	s.AvgAccuracy = accSum / float64(len(sessions))
	s.AvgPerMinute = speedSum / float64(len(sessions))
	return s
}

// RenderSummary prints a summary block for sessions.
func RenderSummary(w io.Writer, sessions []model.SessionAggregate) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	s := Summarize(sessions)
	lines := []string{
		"Summary",
		fmt.Sprintf("Sessions: %d", s.Sessions),
		fmt.Sprintf("Problems: %d (%d correct)", s.Problems, s.Correct),
		fmt.Sprintf("Avg Accuracy: %.1f%%", s.AvgAccuracy*100),
		fmt.Sprintf("Best Accuracy: %.1f%%", s.BestAccuracy*100),
		fmt.Sprintf("Avg Speed: %.2f problems/min", s.AvgPerMinute),
		fmt.Sprintf("Practice Time: %s", s.Practice.Round(time.Second)),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// CurveSeries returns smoothed accuracy (percent) and speed series.
func CurveSeries(sessions []model.SessionAggregate, window int) (accuracy, speed []float64) {
	accuracy = make([]float64, len(sessions))
	speed = make([]float64, len(sessions))
	for i, s := range sessions {
		acc, perMin := SessionMetrics(s.Correct, s.Total, s.DurationMs)
		accuracy[i] = acc * 100
		speed[i] = perMin
	}
	return MovingAverage(accuracy, window), MovingAverage(speed, window)
}

// RenderCurves prints learning curves for accuracy and speed.
func RenderCurves(w io.Writer, sessions []model.SessionAggregate, window, width int) error {
	if len(sessions) == 0 {
		return nil
	}
	acc, speed := CurveSeries(sessions, window)
	return RenderChart(w, fmt.Sprintf("Learning Curves (window %d)", max(window, 1)), []Curve{
		{Name: "Accuracy %", Values: acc},
		{Name: "Problems/min", Values: speed},
	}, width)
}

// RenderOperationTable prints per-operation aggregates, weakest first.
func RenderOperationTable(w io.Writer, aggs []model.OperationAggregate) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No operation stats found.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Per-Operation"); err != nil {
		return err
	}
	headers := []string{"Operation", "Sessions", "Problems", "Accuracy", "Problems/min"}
	rows := make([][]string, 0, len(aggs))
	for _, agg := range SortByAccuracy(aggs) {
		acc, speed := SessionMetrics(agg.Correct, agg.Total, agg.DurationMs)
		rows = append(rows, []string{
			OperationLabel(agg.Operation),
			fmt.Sprintf("%d", agg.Sessions),
			fmt.Sprintf("%d", agg.Total),
			fmt.Sprintf("%.1f%%", acc*100),
			fmt.Sprintf("%.2f", speed),
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true}
	for _, line := range FormatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderRecent prints the most recent sessions, newest first.
func RenderRecent(w io.Writer, sessions []model.SessionAggregate, n int) error {
	if len(sessions) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Recent Sessions"); err != nil {
		return err
	}
	for _, line := range FormatTable(RecentHeaders(), RecentRows(sessions, n), map[int]bool{3: true, 4: true, 5: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RecentHeaders names the columns produced by RecentRows.
func RecentHeaders() []string {
	return []string{"Finished", "Mode", "Operation", "Score", "Accuracy", "Time"}
}

// RecentRows formats the last n sessions, newest first.
func RecentRows(sessions []model.SessionAggregate, n int) [][]string {
	if n <= 0 || n > len(sessions) {
		n = len(sessions)
	}
	rows := make([][]string, 0, n)
	for i := len(sessions) - 1; i >= len(sessions)-n; i-- {
		s := sessions[i]
		rows = append(rows, []string{
			s.EndedAt.Local().Format("2006-01-02 15:04"),
			string(s.Mode),
			OperationLabel(s.Operation),
			fmt.Sprintf("%d/%d", s.Correct, s.Total),
			fmt.Sprintf("%d%%", model.AccuracyPercent(s.Correct, s.Total)),
			(time.Duration(s.DurationMs) * time.Millisecond).Round(time.Second).String(),
		})
	}
	return rows
}

// OperationLabel returns a human readable operation name.
func OperationLabel(op model.Operation) string {
	switch op {
	case model.OpAddLess:
		return "Add/Less"
	case model.OpMultiply:
		return "Multiply"
	case model.OpDivide:
		return "Divide"
	default:
		return string(op)
	}
}
