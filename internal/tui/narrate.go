package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/verte-zerg/abacus/internal/narration"
)

// DefaultFlashHold is how long a number stays on screen when no speech command is available.
const DefaultFlashHold = time.Second

// Narration configures how oral problems are read out.
type Narration struct {
	Audio  narration.AudioSource
	Player narration.Player
	// Speaker reads the fallback chain. Nil flashes numbers on screen instead.
	Speaker narration.Speaker
	Hold    time.Duration
}

type narrationState struct {
	seq     int
	active  bool
	flash   string
	cancel  context.CancelFunc
	ctx     context.Context
	flashCh chan string
}

type flashMsg struct {
	seq  int
	text string
}

type narrationDoneMsg struct {
	seq int
	err error
}

func (m *Model) startNarration() tea.Cmd {
	m.stopNarration()
	if m.session == nil {
		return nil
	}
	numbers := m.session.Current().Numbers
	ctx, cancel := context.WithCancel(context.Background())
	m.narr.seq++
	m.narr.active = true
	m.narr.flash = ""
	m.narr.ctx = ctx
	m.narr.cancel = cancel
	m.narr.flashCh = nil

	cfg := m.deps.Narration
	n := &narration.Narrator{
		Audio:    cfg.Audio,
		Player:   cfg.Player,
		Speaker:  cfg.Speaker,
		Interval: m.cfg.IntervalDuration(),
		Logger:   m.deps.Logger,
	}
	seq := m.narr.seq
	cmds := make([]tea.Cmd, 0, 2)
	if n.Speaker == nil {
		hold := cfg.Hold
		if hold <= 0 {
			hold = DefaultFlashHold
		}
		ch := make(chan string)
		m.narr.flashCh = ch
		n.Speaker = narration.ChannelSpeaker{Out: ch, Hold: hold}
		cmds = append(cmds, waitFlash(ctx, seq, ch))
	}
	cmds = append(cmds, func() tea.Msg {
		return narrationDoneMsg{seq: seq, err: n.Narrate(ctx, numbers)}
	})
	return tea.Batch(cmds...)
}

func (m *Model) stopNarration() {
	if m.narr.cancel != nil {
		m.narr.cancel()
	}
	m.narr.cancel = nil
	m.narr.ctx = nil
	m.narr.flashCh = nil
	m.narr.active = false
	m.narr.flash = ""
}

func (m *Model) handleFlash(msg flashMsg) (tea.Model, tea.Cmd) {
	if msg.seq != m.narr.seq || m.narr.flashCh == nil {
		return m, nil
	}
	m.narr.flash = msg.text
	return m, waitFlash(m.narr.ctx, msg.seq, m.narr.flashCh)
}

func (m *Model) handleNarrationDone(msg narrationDoneMsg) (tea.Model, tea.Cmd) {
	if msg.seq != m.narr.seq {
		return m, nil
	}
	if msg.err != nil && m.narr.ctx != nil && m.narr.ctx.Err() == nil {
		m.deps.Logger.Warn("narration failed", zap.Error(msg.err))
	}
	m.stopNarration()
	return m, nil
}

func waitFlash(ctx context.Context, seq int, ch <-chan string) tea.Cmd {
	return func() tea.Msg {
		select {
		case text := <-ch:
			return flashMsg{seq: seq, text: text}
		case <-ctx.Done():
			return nil
		}
	}
}
