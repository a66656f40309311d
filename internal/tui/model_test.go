package tui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/abacus/internal/advice"
	"github.com/verte-zerg/abacus/internal/generator"
	"github.com/verte-zerg/abacus/internal/model"
	"github.com/verte-zerg/abacus/internal/schedule"
	"github.com/verte-zerg/abacus/internal/session"
	"github.com/verte-zerg/abacus/internal/store"
)

func newTestModel(t *testing.T, cfg model.PracticeConfig, deps Deps) *Model {
	t.Helper()
	if deps.Generator == nil {
		deps.Generator = generator.NewWithSeed(7)
	}
	if deps.Clipboard == nil {
		deps.Clipboard = func(string) error { return nil }
	}
	m := NewModel(cfg, deps)
	m.Init()
	t.Cleanup(m.Stop)
	return m
}

func typeText(m *Model, text string) {
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func pressEnter(m *Model) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return cmd
}

func multiplyConfig() model.PracticeConfig {
	cfg := model.DefaultPracticeConfig()
	cfg.Operation = model.OpMultiply
	return cfg
}

func TestTimedSessionFinishesOnTicks(t *testing.T) {
	m := newTestModel(t, multiplyConfig(), Deps{})
	if m.ticker == nil {
		t.Fatalf("expected tick source in timed mode")
	}

	typeText(m, FormatAnswer(m.session.Current().Answer))
	pressEnter(m)
	typeText(m, "1")
	pressEnter(m)
	if m.session.Total() != 2 || m.session.Correct() != 1 {
		t.Fatalf("expected 1/2, got %d/%d", m.session.Correct(), m.session.Total())
	}

	ticker := m.ticker
	for i := 0; i < 60; i++ {
		m.Update(tickMsg{ticker: ticker})
	}
	if m.screen != screenPractice {
		t.Fatalf("session finished early")
	}
	_, cmd := m.Update(tickMsg{ticker: ticker})
	if m.screen != screenResults {
		t.Fatalf("expected results after time limit")
	}
	if m.ticker != nil {
		t.Fatalf("tick source should be stopped")
	}
	if !m.advicePending || !strings.Contains(m.View(), statusAsking) {
		t.Fatalf("expected pending coach tip")
	}
	msg := cmd()
	m.Update(msg)
	if m.advicePending || m.adviceText != advice.MessageKeepGoing {
		t.Fatalf("unexpected advice %q", m.adviceText)
	}
	if m.Result().Accuracy() != 50 {
		t.Fatalf("unexpected accuracy %d", m.Result().Accuracy())
	}
}

func TestStaleTicksIgnored(t *testing.T) {
	m := newTestModel(t, multiplyConfig(), Deps{})
	stale := schedule.NewTicker(time.Hour)
	stale.Stop()
	for i := 0; i < 100; i++ {
		m.Update(tickMsg{ticker: stale})
	}
	if m.session.Elapsed() != 0 || m.screen != screenPractice {
		t.Fatalf("stale ticks should not advance the clock")
	}
}

func TestAnswerInputFiltersRunes(t *testing.T) {
	m := newTestModel(t, multiplyConfig(), Deps{})
	typeText(m, "a1b.2-x")
	if got := m.input.Value(); got != "1.2-" {
		t.Fatalf("unexpected input %q", got)
	}
	typeText(m, "3456789")
	if got := m.input.Value(); len(got) != minInputLen {
		t.Fatalf("expected input capped at %d, got %q", minInputLen, got)
	}
}

func TestAnswerInputFitsLongAnswers(t *testing.T) {
	cfg := multiplyConfig()
	cfg.MultiplicandDigits = 5
	cfg.MultiplicatorDigits = 5
	m := newTestModel(t, cfg, Deps{})
	if m.input.CharLimit != 10 {
		t.Fatalf("expected limit 10, got %d", m.input.CharLimit)
	}
	for i := 0; i < 3; i++ {
		answer := FormatAnswer(m.session.Current().Answer)
		typeText(m, answer)
		if got := m.input.Value(); got != answer {
			t.Fatalf("answer truncated: typed %q, got %q", answer, got)
		}
		pressEnter(m)
	}
	if m.session.Correct() != 3 {
		t.Fatalf("expected 3 correct, got %d/%d", m.session.Correct(), m.session.Total())
	}
}

func TestAnswerCharLimit(t *testing.T) {
	negative := model.DefaultPracticeConfig()
	negative.SumsType = model.SumsAddLess
	negative.Digits = "9"
	negative.Rows = 50
	divide := model.DefaultPracticeConfig()
	divide.Operation = model.OpDivide
	divide.DividendDigits = 9

	tests := []struct {
		name string
		cfg  model.PracticeConfig
		want int
	}{
		{"default", model.DefaultPracticeConfig(), minInputLen},
		{"add-less", negative, 12},
		{"divide", divide, minInputLen + 1},
	}
	for _, tt := range tests {
		if got := answerCharLimit(tt.cfg); got != tt.want {
			t.Fatalf("%s: expected %d, got %d", tt.name, tt.want, got)
		}
	}
}

func TestEscDiscardsSession(t *testing.T) {
	m := newTestModel(t, multiplyConfig(), Deps{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if !m.Discarded() {
		t.Fatalf("expected discarded session")
	}
	if m.ticker != nil {
		t.Fatalf("tick source should be stopped")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected quit")
	}
}

func oralConfig(sums int) model.PracticeConfig {
	cfg := model.DefaultPracticeConfig()
	cfg.Mode = model.ModeOral
	cfg.NumberOfSums = sums
	return cfg
}

func TestOralSessionFlashesNumbers(t *testing.T) {
	m := newTestModel(t, oralConfig(2), Deps{})
	if m.ticker != nil {
		t.Fatalf("oral mode should not tick")
	}
	if !m.narr.active || m.narr.flashCh == nil {
		t.Fatalf("expected on-screen narration")
	}
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	if !strings.Contains(m.View(), statusListening) {
		t.Fatalf("expected listening status")
	}

	seq := m.narr.seq
	m.Update(flashMsg{seq: seq, text: "42"})
	if !strings.Contains(m.View(), "42") {
		t.Fatalf("expected flashed number in view")
	}
	m.Update(flashMsg{seq: seq - 1, text: "99"})
	if m.narr.flash != "42" {
		t.Fatalf("stale flash should be ignored")
	}

	m.Update(narrationDoneMsg{seq: seq})
	if m.narr.active || m.narr.flash != "" {
		t.Fatalf("narration should be finished")
	}
	if !strings.Contains(m.View(), statusAnswer) {
		t.Fatalf("expected answer prompt")
	}
}

func TestOralSessionFinishesAfterSums(t *testing.T) {
	m := newTestModel(t, oralConfig(2), Deps{})
	first := m.narr.seq
	typeText(m, FormatAnswer(m.session.Current().Answer))
	pressEnter(m)
	if m.screen != screenPractice {
		t.Fatalf("oral session finished early")
	}
	if m.narr.seq != first+1 || !m.narr.active {
		t.Fatalf("expected narration for the next problem")
	}
	m.Update(narrationDoneMsg{seq: first})
	if !m.narr.active {
		t.Fatalf("stale narration completion should be ignored")
	}
	typeText(m, FormatAnswer(m.session.Current().Answer))
	cmd := pressEnter(m)
	if m.screen != screenResults {
		t.Fatalf("expected results after %d sums", 2)
	}
	if m.narr.active || m.narr.cancel != nil {
		t.Fatalf("narration should be cancelled on finish")
	}
	m.Update(cmd())
	if m.adviceText != advice.MessageExcellent {
		t.Fatalf("unexpected advice %q", m.adviceText)
	}
}

type stubSpeaker struct{}

func (stubSpeaker) Speak(context.Context, string) error { return nil }

func TestOralSessionWithSpeakerDoesNotFlash(t *testing.T) {
	m := newTestModel(t, oralConfig(3), Deps{Narration: Narration{Speaker: stubSpeaker{}}})
	if m.narr.flashCh != nil {
		t.Fatalf("speaker narration should not flash numbers")
	}
	if !m.narr.active {
		t.Fatalf("expected narration in progress")
	}
}

type stubProvider struct{ text string }

func (s stubProvider) Advice(context.Context, int, string) (string, error) { return s.text, nil }

func TestResultsKeys(t *testing.T) {
	var copied string
	deps := Deps{
		Coach:     advice.NewCoach(stubProvider{text: "Breathe between rows."}, time.Second, nil),
		Clipboard: func(text string) error { copied = text; return nil },
	}
	m := newTestModel(t, oralConfig(1), deps)
	cmd := pressEnter(m)
	if m.screen != screenResults {
		t.Fatalf("expected results")
	}
	m.Update(cmd())
	if m.adviceText != "Breathe between rows." {
		t.Fatalf("unexpected advice %q", m.adviceText)
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	m.Update(cmd())
	if !strings.Contains(copied, "Coach: Breathe between rows.") || m.notice != "Copied to clipboard" {
		t.Fatalf("unexpected copy %q / %q", copied, m.notice)
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if cmd == nil || m.screen != screenPractice || m.session.State() != session.StateProblemActive {
		t.Fatalf("expected a fresh session")
	}
	if m.notice != "" || m.adviceText != "" {
		t.Fatalf("results state should be cleared")
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected quit")
	}
}

func TestLateAdviceIgnoredAfterRestart(t *testing.T) {
	m := newTestModel(t, oralConfig(1), Deps{})
	cmd := pressEnter(m)
	late := cmd()
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	m.Update(late)
	if m.adviceText != "" {
		t.Fatalf("late advice should be ignored, got %q", m.adviceText)
	}
}

func TestFinishedSessionsAreStored(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "abacus.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	m := newTestModel(t, oralConfig(1), Deps{Store: st})
	if m.hasLast {
		t.Fatalf("empty store should have no last session")
	}
	typeText(m, FormatAnswer(m.session.Current().Answer))
	pressEnter(m)

	sessions, err := st.ListSessions(context.Background(), model.StatsConfig{})
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].Correct != 1 {
		t.Fatalf("unexpected stored sessions: %+v", sessions)
	}

	again := newTestModel(t, oralConfig(1), Deps{Store: st})
	if !again.hasLast || again.lastAcc != 100 || again.allTotal != 1 {
		t.Fatalf("footer stats not loaded: %+v", again)
	}
}

func TestDiscardedSessionsAreNotStored(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "abacus.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	m := newTestModel(t, multiplyConfig(), Deps{Store: st})
	typeText(m, "1")
	pressEnter(m)
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})

	_, total, err := st.Totals(context.Background())
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if total != 0 {
		t.Fatalf("discarded session was stored")
	}
}
