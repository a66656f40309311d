// Package model defines shared data structures.
package model

import (
	"math"
	"time"
)

// Mode selects how a drill is bounded.
type Mode string

// Practice modes.
const (
	ModeTimed Mode = "timed"
	ModeOral  Mode = "oral"
)

// Operation selects the kind of problem a drill generates.
type Operation string

// Drill operations.
const (
	OpAddLess  Operation = "add-less"
	OpMultiply Operation = "multiply"
	OpDivide   Operation = "divide"
)

// SumsType controls whether add-less rows may be subtracted.
type SumsType string

// Sums types.
const (
	SumsAddition SumsType = "addition"
	SumsAddLess  SumsType = "add-less"
)

// PracticeConfig defines drill settings. It is fixed for the lifetime of a session.
type PracticeConfig struct {
	Mode                Mode      `json:"mode" yaml:"mode"`
	Operation           Operation `json:"operation" yaml:"operation"`
	SumsType            SumsType  `json:"sumsType" yaml:"sums-type"`
	Digits              string    `json:"digits" yaml:"digits"`
	Rows                int       `json:"rows" yaml:"rows"`
	TimeLimit           int       `json:"timeLimit" yaml:"time-limit"`
	Interval            float64   `json:"interval" yaml:"interval"`
	NumberOfSums        int       `json:"numberOfSums" yaml:"number-of-sums"`
	MultiplicandDigits  int       `json:"multiplicandDigits" yaml:"multiplicand-digits"`
	MultiplicatorDigits int       `json:"multiplicatorDigits" yaml:"multiplicator-digits"`
	DividendDigits      int       `json:"dividendDigits" yaml:"dividend-digits"`
	DivisorDigits       int       `json:"divisorDigits" yaml:"divisor-digits"`
}

// DefaultPracticeConfig returns the settings a fresh install starts with.
func DefaultPracticeConfig() PracticeConfig {
	return PracticeConfig{
		Mode:                ModeTimed,
		Operation:           OpAddLess,
		SumsType:            SumsAddition,
		Digits:              "1",
		Rows:                3,
		TimeLimit:           1,
		Interval:            2,
		NumberOfSums:        5,
		MultiplicandDigits:  2,
		MultiplicatorDigits: 1,
		DividendDigits:      3,
		DivisorDigits:       1,
	}
}

// IntervalDuration returns the oral wait interval as a duration.
func (c PracticeConfig) IntervalDuration() time.Duration {
	return time.Duration(c.Interval * float64(time.Second))
}

// DrillProblem is one generated problem.
type DrillProblem struct {
	ID        string    `json:"id"`
	Operation Operation `json:"operation"`
	Numbers   []int64   `json:"numbers"`
	Answer    float64   `json:"answer"`
	Display   string    `json:"display"`
}

// Attempt records one submitted answer.
type Attempt struct {
	Problem DrillProblem `json:"problem"`
	Input   string       `json:"input"`
	Value   float64      `json:"value"`
	Valid   bool         `json:"valid"`
	Correct bool         `json:"correct"`
}

// SessionResult is the frozen record of a finished session.
type SessionResult struct {
	Config         PracticeConfig
	StartedAt      time.Time
	EndedAt        time.Time
	ElapsedSeconds int
	Correct        int
	Total          int
	History        []Attempt
}

// Accuracy returns the rounded percentage of correct answers.
func (r SessionResult) Accuracy() int {
	return AccuracyPercent(r.Correct, r.Total)
}

// Duration returns the wall-clock length of the session.
func (r SessionResult) Duration() time.Duration {
	if r.EndedAt.Before(r.StartedAt) {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// AccuracyPercent rounds correct/total to a whole percentage. An empty session is 0%.
func AccuracyPercent(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}

// SavedPreset is a named configuration snapshot.
type SavedPreset struct {
	ID     string         `json:"id" yaml:"id"`
	Name   string         `json:"name" yaml:"name"`
	Config PracticeConfig `json:"config" yaml:"config"`
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Mode        Mode
	Operation   Operation
	Since       *time.Time
	Last        int
	CurveWindow int
}

// SessionAggregate summarizes a stored session for reporting.
type SessionAggregate struct {
	SessionID  int64
	EndedAt    time.Time
	Mode       Mode
	Operation  Operation
	Correct    int
	Total      int
	DurationMs int64
}

// OperationAggregate aggregates attempts per operation across sessions.
type OperationAggregate struct {
	Operation  Operation
	Sessions   int
	Correct    int
	Total      int
	DurationMs int64
}
