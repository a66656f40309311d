package session

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/abacus/internal/generator"
	"github.com/verte-zerg/abacus/internal/model"
)

type fixedSource struct {
	answers []float64
	calls   int
}

func (f *fixedSource) Generate(_ model.PracticeConfig) model.DrillProblem {
	answer := f.answers[f.calls%len(f.answers)]
	f.calls++
	return model.DrillProblem{
		ID:      fmt.Sprintf("p%d", f.calls),
		Numbers: []int64{int64(answer)},
		Answer:  answer,
		Display: fmt.Sprint(answer),
	}
}

func fixedClock() func() time.Time {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	calls := 0
	return func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Second)
	}
}

func timedConfig(minutes int) model.PracticeConfig {
	cfg := model.DefaultPracticeConfig()
	cfg.Mode = model.ModeTimed
	cfg.TimeLimit = minutes
	return cfg
}

func oralConfig(sums int) model.PracticeConfig {
	cfg := model.DefaultPracticeConfig()
	cfg.Mode = model.ModeOral
	cfg.NumberOfSums = sums
	return cfg
}

func TestStartGeneratesFirstProblem(t *testing.T) {
	src := &fixedSource{answers: []float64{12}}
	s := New(timedConfig(1), src)
	require.Equal(t, StateAwaitingProblem, s.State())

	p, err := s.Start()
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, StateProblemActive, s.State())
	assert.Equal(t, 1, s.Progress())

	_, err = s.Start()
	assert.ErrorIs(t, err, ErrAlreadyStarted)
}

func TestSubmitBeforeStart(t *testing.T) {
	s := New(timedConfig(1), &fixedSource{answers: []float64{1}})
	_, err := s.Submit("1")
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestSubmitScoresWithTolerance(t *testing.T) {
	src := &fixedSource{answers: []float64{42}}
	s := New(timedConfig(1), src)
	_, err := s.Start()
	require.NoError(t, err)

	cases := []struct {
		input   string
		valid   bool
		correct bool
	}{
		{input: "42", valid: true, correct: true},
		{input: " 42.005 ", valid: true, correct: true},
		{input: "42.02", valid: true, correct: false},
		{input: "41", valid: true, correct: false},
		{input: "", valid: false, correct: false},
		{input: "4-2", valid: false, correct: false},
		{input: ".", valid: false, correct: false},
	}
	for i, tc := range cases {
		attempt, err := s.Submit(tc.input)
		require.NoError(t, err, tc.input)
		assert.Equal(t, tc.valid, attempt.Valid, tc.input)
		assert.Equal(t, tc.correct, attempt.Correct, tc.input)
		assert.Equal(t, tc.input, attempt.Input)
		assert.Equal(t, i+1, s.Total())
		assert.LessOrEqual(t, s.Correct(), s.Total())
	}
	assert.Equal(t, 2, s.Correct())
	assert.Equal(t, StateProblemActive, s.State())
	assert.Equal(t, len(cases)+1, src.calls)
}

func TestWithToleranceOverridesDefault(t *testing.T) {
	s := New(timedConfig(1), &fixedSource{answers: []float64{10}}, WithTolerance(0.5))
	_, err := s.Start()
	require.NoError(t, err)
	attempt, err := s.Submit("10.4")
	require.NoError(t, err)
	assert.True(t, attempt.Correct)
}

func TestOralFinishesAtNumberOfSums(t *testing.T) {
	src := &fixedSource{answers: []float64{3, 5, 7}}
	s := New(oralConfig(3), src, WithClock(fixedClock()))
	_, err := s.Start()
	require.NoError(t, err)

	_, err = s.Submit("3")
	require.NoError(t, err)
	require.Equal(t, StateProblemActive, s.State())
	assert.Equal(t, 2, s.Progress())

	_, err = s.Submit("0")
	require.NoError(t, err)
	require.Equal(t, StateProblemActive, s.State())

	_, err = s.Submit("7")
	require.NoError(t, err)
	require.Equal(t, StateFinished, s.State())
	assert.Equal(t, 3, src.calls)

	_, err = s.Submit("1")
	assert.ErrorIs(t, err, ErrFinished)
	_, err = s.Start()
	assert.ErrorIs(t, err, ErrAlreadyStarted)
	assert.Equal(t, 3, src.calls)

	res := s.Result()
	assert.Equal(t, 2, res.Correct)
	assert.Equal(t, 3, res.Total)
	require.Len(t, res.History, 3)
	assert.False(t, res.History[1].Correct)
	assert.Equal(t, 67, res.Accuracy())
	assert.True(t, res.EndedAt.After(res.StartedAt))
}

func TestOralIgnoresTicks(t *testing.T) {
	s := New(oralConfig(2), &fixedSource{answers: []float64{1}})
	_, err := s.Start()
	require.NoError(t, err)
	for i := 0; i < 1000; i++ {
		require.False(t, s.Tick())
	}
	assert.Equal(t, 0, s.Elapsed())
	assert.Equal(t, StateProblemActive, s.State())
}

func TestTimedFinishesOnTickAfterLimit(t *testing.T) {
	s := New(timedConfig(1), &fixedSource{answers: []float64{9}})
	_, err := s.Start()
	require.NoError(t, err)

	for i := 0; i < 60; i++ {
		require.False(t, s.Tick(), "tick %d", i)
	}
	assert.Equal(t, 60, s.Elapsed())
	assert.Equal(t, 0, s.Remaining())
	assert.Equal(t, StateProblemActive, s.State())

	assert.True(t, s.Tick())
	assert.Equal(t, StateFinished, s.State())
	assert.Empty(t, s.Current().ID)
	assert.True(t, s.Tick())
}

func TestTimedDoesNotFinishOnAnswers(t *testing.T) {
	s := New(timedConfig(1), &fixedSource{answers: []float64{2}})
	_, err := s.Start()
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		_, err := s.Submit("2")
		require.NoError(t, err)
	}
	assert.Equal(t, StateProblemActive, s.State())
	assert.Equal(t, 50, s.Correct())
}

func TestFinishDropsActiveProblem(t *testing.T) {
	s := New(timedConfig(2), &fixedSource{answers: []float64{4}})
	_, err := s.Start()
	require.NoError(t, err)
	_, err = s.Submit("4")
	require.NoError(t, err)

	s.Finish()
	s.Finish()
	res := s.Result()
	assert.Equal(t, StateFinished, s.State())
	assert.Equal(t, 1, res.Total)
	assert.Len(t, res.History, 1)
}

func TestResultHistoryIsACopy(t *testing.T) {
	s := New(timedConfig(1), &fixedSource{answers: []float64{1}})
	_, err := s.Start()
	require.NoError(t, err)
	_, err = s.Submit("1")
	require.NoError(t, err)

	res := s.Result()
	res.History[0].Correct = false
	assert.True(t, s.Result().History[0].Correct)
}

func TestWithRealGenerator(t *testing.T) {
	cfg := oralConfig(20)
	cfg.Operation = model.OpDivide
	s := New(cfg, generator.NewWithSeed(11))
	p, err := s.Start()
	require.NoError(t, err)
	for s.State() != StateFinished {
		_, err := s.Submit(fmt.Sprint(p.Answer))
		require.NoError(t, err)
		p = s.Current()
	}
	res := s.Result()
	assert.Equal(t, 20, res.Total)
	assert.Equal(t, 20, res.Correct)
	assert.Equal(t, 100, res.Accuracy())
}

func TestParseAnswer(t *testing.T) {
	v, ok := ParseAnswer("-12.5")
	require.True(t, ok)
	assert.InDelta(t, -12.5, v, 1e-9)

	for _, in := range []string{"", "  ", "abc", "NaN", "Inf", "1..2"} {
		_, ok := ParseAnswer(in)
		assert.False(t, ok, in)
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "finished", StateFinished.String())
	assert.Equal(t, "unknown", State(42).String())
}
