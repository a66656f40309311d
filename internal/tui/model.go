// Package tui provides the Bubble Tea drill interface.
package tui

import (
	"context"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/verte-zerg/abacus/internal/advice"
	"github.com/verte-zerg/abacus/internal/generator"
	"github.com/verte-zerg/abacus/internal/model"
	"github.com/verte-zerg/abacus/internal/schedule"
	"github.com/verte-zerg/abacus/internal/session"
	"github.com/verte-zerg/abacus/internal/store"
)

const minInputLen = 8

// answerCharLimit leaves room for the longest answer cfg can produce.
func answerCharLimit(cfg model.PracticeConfig) int {
	return max(minInputLen, generator.AnswerLen(cfg))
}

type screen int

const (
	screenPractice screen = iota
	screenResults
)

// Deps are the collaborators of the drill UI. Nil fields fall back to defaults.
type Deps struct {
	// Store persists finished sessions. Nil disables persistence.
	Store     *store.Store
	Generator *generator.Generator
	Coach     *advice.Coach
	Narration Narration
	Logger    *zap.Logger
	Clipboard func(text string) error
}

// Model implements the Bubble Tea drill UI.
type Model struct {
	deps Deps
	cfg  model.PracticeConfig

	width  int
	height int

	screen  screen
	session *session.Session
	input   textinput.Model
	ticker  *schedule.Ticker
	narr    narrationState

	result        model.SessionResult
	adviceText    string
	advicePending bool
	adviceSeq     int
	notice        string
	discarded     bool

	lastAcc    int
	hasLast    bool
	allCorrect int
	allTotal   int
}

type tickMsg struct {
	ticker *schedule.Ticker
}

type adviceMsg struct {
	seq  int
	text string
}

type clipboardMsg struct {
	err error
}

// NewModel constructs a drill UI for cfg.
func NewModel(cfg model.PracticeConfig, deps Deps) *Model {
	if deps.Generator == nil {
		deps.Generator = generator.New()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Coach == nil {
		deps.Coach = advice.NewCoach(nil, 0, deps.Logger)
	}
	if deps.Clipboard == nil {
		deps.Clipboard = clipboard.WriteAll
	}
	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "answer"
	input.CharLimit = answerCharLimit(cfg)
	input.Width = input.CharLimit + 1
	m := &Model{
		deps:  deps,
		cfg:   cfg,
		input: input,
	}
	m.loadFooterStats()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.startSession())
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		return m.handleTick(msg)
	case flashMsg:
		return m.handleFlash(msg)
	case narrationDoneMsg:
		return m.handleNarrationDone(msg)
	case adviceMsg:
		if msg.seq == m.adviceSeq {
			m.adviceText = msg.text
			m.advicePending = false
		}
		return m, nil
	case clipboardMsg:
		if msg.err != nil {
			m.deps.Logger.Warn("clipboard copy failed", zap.Error(msg.err))
			m.notice = "Clipboard unavailable"
		} else {
			m.notice = "Copied to clipboard"
		}
		return m, nil
	case tea.KeyMsg:
		if m.screen == screenResults {
			return m.updateResults(msg)
		}
		return m.updatePractice(msg)
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	var content string
	switch m.screen {
	case screenResults:
		content = renderResults(m.result, m.adviceText, m.advicePending, m.notice, m.width)
	default:
		content = m.renderPractice()
	}
	if m.width == 0 || m.height == 0 {
		return content
	}
	footer := renderFooter(m.hasLast, m.lastAcc, m.allCorrect, m.allTotal)
	if m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

// Discarded reports whether the user left a session before it finished.
func (m *Model) Discarded() bool {
	return m.discarded
}

// Result returns the last finished session.
func (m *Model) Result() model.SessionResult {
	return m.result
}

// Stop cancels the tick source and any narration in flight.
func (m *Model) Stop() {
	m.stopTicker()
	m.stopNarration()
}

func (m *Model) renderPractice() string {
	if m.session == nil {
		return ""
	}
	width := m.width
	if width <= 0 {
		width = 40
	}
	header := renderHeader(m.cfg, m.session.Remaining(), m.session.Progress(), min(width, 60))
	problem := renderProblem(m.session.Current(), m.cfg, m.narr.flash, m.narr.active)
	problemBox := lipgloss.NewStyle().Padding(1, 2).Render(problem)
	return strings.Join([]string{
		header,
		"",
		lipgloss.PlaceHorizontal(min(width, 60), lipgloss.Center, problemBox),
		"",
		lipgloss.PlaceHorizontal(min(width, 60), lipgloss.Center, m.input.View()),
		lipgloss.PlaceHorizontal(min(width, 60), lipgloss.Center, headerStyle.Render("Enter = Next")),
	}, "\n")
}

func (m *Model) startSession() tea.Cmd {
	m.Stop()
	m.screen = screenPractice
	m.notice = ""
	m.adviceText = ""
	m.advicePending = false
	m.discarded = false
	m.input.Reset()
	m.input.Focus()

	m.session = session.New(m.cfg, m.deps.Generator)
	if _, err := m.session.Start(); err != nil {
		m.deps.Logger.Error("failed to start session", zap.Error(err))
		return nil
	}
	m.deps.Logger.Info("session started",
		zap.String("mode", string(m.cfg.Mode)),
		zap.String("operation", string(m.cfg.Operation)))
	if m.cfg.Mode == model.ModeTimed {
		m.ticker = schedule.NewTicker(time.Second)
		return waitTick(m.ticker)
	}
	return m.startNarration()
}

func (m *Model) updatePractice(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.Stop()
		if m.session != nil {
			m.session.Finish()
		}
		m.discarded = true
		m.deps.Logger.Info("session discarded")
		return m, tea.Quit
	case tea.KeyEnter:
		return m.submit()
	case tea.KeyRunes:
		runes := filterAnswerRunes(msg.Runes)
		if len(runes) == 0 {
			return m, nil
		}
		msg.Runes = runes
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) submit() (tea.Model, tea.Cmd) {
	if m.session == nil || m.session.State() == session.StateFinished {
		return m, nil
	}
	attempt, err := m.session.Submit(m.input.Value())
	if err != nil {
		m.deps.Logger.Warn("submit rejected", zap.Error(err))
		return m, nil
	}
	m.input.Reset()
	m.deps.Logger.Debug("answer submitted",
		zap.String("problem", attempt.Problem.ID),
		zap.Bool("correct", attempt.Correct))
	if m.session.State() == session.StateFinished {
		return m, m.finishSession()
	}
	if m.cfg.Mode == model.ModeOral {
		return m, m.startNarration()
	}
	return m, nil
}

func (m *Model) handleTick(msg tickMsg) (tea.Model, tea.Cmd) {
	if msg.ticker != m.ticker || m.session == nil || m.screen != screenPractice {
		return m, nil
	}
	if m.session.Tick() {
		return m, m.finishSession()
	}
	return m, waitTick(m.ticker)
}

func (m *Model) finishSession() tea.Cmd {
	m.Stop()
	m.result = m.session.Result()
	m.screen = screenResults
	m.input.Blur()
	m.recordResult()

	m.adviceSeq++
	m.advicePending = true
	seq := m.adviceSeq
	coach := m.deps.Coach
	result := m.result
	return func() tea.Msg {
		text := coach.Advise(context.Background(), result.Accuracy(), advice.Elapsed(result))
		return adviceMsg{seq: seq, text: text}
	}
}

func (m *Model) recordResult() {
	m.lastAcc = m.result.Accuracy()
	m.hasLast = true
	m.allCorrect += m.result.Correct
	m.allTotal += m.result.Total
	m.deps.Logger.Info("session finished",
		zap.Int("correct", m.result.Correct),
		zap.Int("total", m.result.Total))
	if m.deps.Store == nil {
		return
	}
	if _, err := m.deps.Store.InsertSession(context.Background(), m.result); err != nil {
		m.deps.Logger.Error("failed to save session", zap.Error(err))
	}
}

func (m *Model) updateResults(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q", "esc":
		return m, tea.Quit
	case "r":
		m.adviceSeq++
		return m, m.startSession()
	case "c":
		text := ResultSummary(m.result, m.adviceText)
		write := m.deps.Clipboard
		return m, func() tea.Msg {
			return clipboardMsg{err: write(text)}
		}
	}
	return m, nil
}

func (m *Model) loadFooterStats() {
	if m.deps.Store == nil {
		return
	}
	ctx := context.Background()
	sessions, err := m.deps.Store.ListSessions(ctx, model.StatsConfig{Last: 1})
	if err != nil {
		m.deps.Logger.Warn("failed to load last session", zap.Error(err))
		return
	}
	if len(sessions) > 0 {
		last := sessions[len(sessions)-1]
		m.lastAcc = model.AccuracyPercent(last.Correct, last.Total)
		m.hasLast = true
	}
	correct, total, err := m.deps.Store.Totals(ctx)
	if err != nil {
		m.deps.Logger.Warn("failed to load totals", zap.Error(err))
		return
	}
	m.allCorrect = correct
	m.allTotal = total
}

func (m *Model) stopTicker() {
	if m.ticker != nil {
		m.ticker.Stop()
		m.ticker = nil
	}
}

func waitTick(t *schedule.Ticker) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-t.C(); !ok {
			return nil
		}
		return tickMsg{ticker: t}
	}
}

func filterAnswerRunes(runes []rune) []rune {
	out := runes[:0:0]
	for _, r := range runes {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			out = append(out, r)
		}
	}
	return out
}
