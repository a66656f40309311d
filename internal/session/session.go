// Package session drives a drill from first problem to final result.
package session

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/abacus/internal/model"
)

// DefaultTolerance is the largest absolute difference still scored as correct.
const DefaultTolerance = 0.01

// State is the position of a session in its lifecycle.
type State int

// Session states.
const (
	StateAwaitingProblem State = iota
	StateProblemActive
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateAwaitingProblem:
		return "awaiting-problem"
	case StateProblemActive:
		return "problem-active"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

var (
	// ErrNotStarted is returned when answering before Start.
	ErrNotStarted = errors.New("session not started")
	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("session already started")
	// ErrFinished is returned when answering a finished session.
	ErrFinished = errors.New("session finished")
)

// Source produces problems for a configuration.
type Source interface {
	Generate(cfg model.PracticeConfig) model.DrillProblem
}

// Option customizes a Session.
type Option func(*Session)

// WithTolerance sets the answer comparison tolerance.
func WithTolerance(tolerance float64) Option {
	return func(s *Session) {
		s.tolerance = tolerance
	}
}

// WithClock replaces time.Now for start and end timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// Session is a single-threaded drill state machine. Callers serialize access.
type Session struct {
	cfg       model.PracticeConfig
	source    Source
	tolerance float64
	now       func() time.Time

	state     State
	current   model.DrillProblem
	history   []model.Attempt
	correct   int
	total     int
	elapsed   int
	startedAt time.Time
	endedAt   time.Time
}

// New builds a session that has not started yet.
func New(cfg model.PracticeConfig, source Source, opts ...Option) *Session {
	s := &Session{
		cfg:       cfg,
		source:    source,
		tolerance: DefaultTolerance,
		now:       time.Now,
		state:     StateAwaitingProblem,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start generates the first problem.
func (s *Session) Start() (model.DrillProblem, error) {
	if s.state != StateAwaitingProblem {
		return model.DrillProblem{}, ErrAlreadyStarted
	}
	s.startedAt = s.now()
	s.nextProblem()
	return s.current, nil
}

// Submit scores input against the active problem and advances the session.
// Input that does not parse as a number is recorded as an incorrect attempt.
func (s *Session) Submit(input string) (model.Attempt, error) {
	switch {
	case s.state == StateFinished:
		return model.Attempt{}, ErrFinished
	case s.startedAt.IsZero():
		return model.Attempt{}, ErrNotStarted
	}

	attempt := s.score(input)
	s.history = append(s.history, attempt)
	s.total++
	if attempt.Correct {
		s.correct++
	}

	if s.cfg.Mode == model.ModeOral && s.total >= s.cfg.NumberOfSums {
		s.finish()
		return attempt, nil
	}
	s.state = StateAwaitingProblem
	s.nextProblem()
	return attempt, nil
}

// Tick advances the timed-mode clock by one second. It returns true once the
// session is finished. Oral sessions ignore ticks.
func (s *Session) Tick() bool {
	if s.state == StateFinished {
		return true
	}
	if s.cfg.Mode != model.ModeTimed || s.startedAt.IsZero() {
		return false
	}
	if s.elapsed >= s.limitSeconds() {
		s.finish()
		return true
	}
	s.elapsed++
	return false
}

// Finish ends the session early. The active problem is dropped.
func (s *Session) Finish() {
	if s.state == StateFinished {
		return
	}
	s.finish()
}

// Result returns the session record. It is only complete once the session is finished.
func (s *Session) Result() model.SessionResult {
	history := make([]model.Attempt, len(s.history))
	copy(history, s.history)
	ended := s.endedAt
	if ended.IsZero() {
		ended = s.now()
	}
	return model.SessionResult{
		Config:         s.cfg,
		StartedAt:      s.startedAt,
		EndedAt:        ended,
		ElapsedSeconds: s.elapsed,
		Correct:        s.correct,
		Total:          s.total,
		History:        history,
	}
}

// State returns the lifecycle state.
func (s *Session) State() State { return s.state }

// Config returns the session configuration.
func (s *Session) Config() model.PracticeConfig { return s.cfg }

// Current returns the active problem.
func (s *Session) Current() model.DrillProblem { return s.current }

// Correct returns the number of correct answers so far.
func (s *Session) Correct() int { return s.correct }

// Total returns the number of submitted answers so far.
func (s *Session) Total() int { return s.total }

// Elapsed returns the timed-mode clock in seconds.
func (s *Session) Elapsed() int { return s.elapsed }

// Remaining returns the seconds left in a timed session.
func (s *Session) Remaining() int {
	left := s.limitSeconds() - s.elapsed
	if left < 0 {
		return 0
	}
	return left
}

// Progress returns the 1-based position of the active problem.
func (s *Session) Progress() int {
	return s.total + 1
}

// IsCorrect compares a value with an answer using tolerance.
func IsCorrect(value, answer, tolerance float64) bool {
	if math.IsNaN(value) {
		return false
	}
	return math.Abs(value-answer) < tolerance
}

// ParseAnswer reads user input as a number. ok is false for empty or malformed input.
func ParseAnswer(input string) (value float64, ok bool) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return math.NaN(), false
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return math.NaN(), false
	}
	return v, true
}

func (s *Session) score(input string) model.Attempt {
	value, ok := ParseAnswer(input)
	attempt := model.Attempt{
		Problem: s.current,
		Input:   input,
		Valid:   ok,
	}
	if ok {
		attempt.Value = value
		attempt.Correct = IsCorrect(value, s.current.Answer, s.tolerance)
	}
	return attempt
}

func (s *Session) nextProblem() {
	s.current = s.source.Generate(s.cfg)
	s.state = StateProblemActive
}

func (s *Session) finish() {
	s.state = StateFinished
	s.current = model.DrillProblem{}
	s.endedAt = s.now()
}

func (s *Session) limitSeconds() int {
	return s.cfg.TimeLimit * 60
}
