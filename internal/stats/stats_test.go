package stats

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/abacus/internal/model"
)

func TestSessionMetrics(t *testing.T) {
	acc, speed := SessionMetrics(8, 10, 120000)
	if math.Abs(acc-0.8) > 1e-9 {
		t.Fatalf("expected accuracy 0.8, got %f", acc)
	}
	if math.Abs(speed-5) > 1e-9 {
		t.Fatalf("expected 5 problems/min, got %f", speed)
	}
	acc, speed = SessionMetrics(0, 0, 0)
	if acc != 0 || speed != 0 {
		t.Fatalf("expected zeros, got %f %f", acc, speed)
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6, 8}, 2)
	want := []float64{2, 3, 5, 7}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Fatalf("index %d: expected %f, got %f", i, want[i], got[i])
		}
	}
	same := MovingAverage([]float64{1, 5}, 1)
	if same[0] != 1 || same[1] != 5 {
		t.Fatalf("window 1 should copy values, got %v", same)
	}
}

func TestSparkline(t *testing.T) {
	if Sparkline(nil) != "" {
		t.Fatalf("expected empty sparkline")
	}
	line := []rune(Sparkline([]float64{0, 50, 100}))
	if len(line) != 3 || line[0] != '▁' || line[2] != '█' {
		t.Fatalf("unexpected sparkline %q", string(line))
	}
	flat := Sparkline([]float64{3, 3})
	if flat != "▅▅" {
		t.Fatalf("unexpected flat sparkline %q", flat)
	}
}

func TestResample(t *testing.T) {
	got := Resample([]float64{1, 3, 5, 7}, 2)
	if len(got) != 2 || got[0] != 2 || got[1] != 6 {
		t.Fatalf("unexpected resample %v", got)
	}
	short := Resample([]float64{1, 2}, 10)
	if len(short) != 2 {
		t.Fatalf("short series should be kept, got %v", short)
	}
}

func TestRenderChartFitsWidth(t *testing.T) {
	values := make([]float64, 200)
	for i := range values {
		values[i] = float64(i % 17)
	}
	var buf bytes.Buffer
	if err := RenderChart(&buf, "Curves", []Curve{{Name: "Accuracy %", Values: values}, {Name: "Empty"}}, 60); err != nil {
		t.Fatalf("render chart: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected title and one curve, got %q", lines)
	}
	if w := runewidth.StringWidth(lines[1]); w > 60 {
		t.Fatalf("chart row exceeds width: %d", w)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]model.SessionAggregate{
		{Correct: 5, Total: 10, DurationMs: 60000},
		{Correct: 9, Total: 10, DurationMs: 60000},
	})
	if s.Sessions != 2 || s.Problems != 20 || s.Correct != 14 {
		t.Fatalf("unexpected totals: %+v", s)
	}
	if math.Abs(s.AvgAccuracy-0.7) > 1e-9 || math.Abs(s.BestAccuracy-0.9) > 1e-9 {
		t.Fatalf("unexpected accuracy: %+v", s)
	}
	if s.Practice != 2*time.Minute {
		t.Fatalf("unexpected practice time: %s", s.Practice)
	}
}

func TestRecentRowsNewestFirst(t *testing.T) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	sessions := []model.SessionAggregate{
		{EndedAt: base, Mode: model.ModeTimed, Operation: model.OpDivide, Correct: 1, Total: 2, DurationMs: 60000},
		{EndedAt: base.Add(time.Hour), Mode: model.ModeOral, Operation: model.OpAddLess, Correct: 3, Total: 3, DurationMs: 42000},
	}
	rows := RecentRows(sessions, 1)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0][1] != "oral" || rows[0][2] != "Add/Less" || rows[0][3] != "3/3" || rows[0][4] != "100%" || rows[0][5] != "42s" {
		t.Fatalf("unexpected row: %v", rows[0])
	}
}

func TestBar(t *testing.T) {
	if got := Bar(5, 10, 4); got != "██░░" {
		t.Fatalf("unexpected bar %q", got)
	}
	if Bar(1, 0, 4) != "" {
		t.Fatalf("expected empty bar for zero max")
	}
}
