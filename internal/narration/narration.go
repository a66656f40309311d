// Package narration reads oral drill numbers aloud.
package narration

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/abacus/internal/schedule"
)

// ClosingUtterance is spoken after the last number of the fallback chain.
const ClosingUtterance = "Answer"

// ErrNoSpeaker is returned when neither audio nor a speaker is available.
var ErrNoSpeaker = errors.New("no speaker configured")

// AudioSource turns a number sequence into a playable audio clip.
type AudioSource interface {
	Synthesize(ctx context.Context, numbers []int64, interval time.Duration) ([]byte, error)
}

// Player plays an audio clip to completion.
type Player interface {
	Play(ctx context.Context, audio []byte) error
}

// Speaker speaks one utterance and returns when it has finished.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Narrator reads numbers through generated audio, falling back to a chain of utterances.
type Narrator struct {
	Audio    AudioSource
	Player   Player
	Speaker  Speaker
	Interval time.Duration
	Logger   *zap.Logger
}

// Narrate blocks until the numbers have been read or ctx is cancelled.
func (n *Narrator) Narrate(ctx context.Context, numbers []int64) error {
	if n.Audio != nil && n.Player != nil {
		err := n.playAudio(ctx, numbers)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		n.logger().Warn("audio narration unavailable, using speech fallback", zap.Error(err))
	}
	if n.Speaker == nil {
		return ErrNoSpeaker
	}
	return schedule.RunChain(ctx, n.Interval, Steps(n.Speaker, numbers)...).Wait()
}

// Steps builds the fallback utterance chain: one utterance per number, then the closing word.
func Steps(speaker Speaker, numbers []int64) []schedule.Step {
	steps := make([]schedule.Step, 0, len(numbers)+1)
	for _, num := range numbers {
		text := strconv.FormatInt(num, 10)
		steps = append(steps, func(ctx context.Context) error {
			return speaker.Speak(ctx, text)
		})
	}
	steps = append(steps, func(ctx context.Context) error {
		return speaker.Speak(ctx, ClosingUtterance)
	})
	return steps
}

func (n *Narrator) playAudio(ctx context.Context, numbers []int64) error {
	audio, err := n.Audio.Synthesize(ctx, numbers, n.Interval)
	if err != nil {
		return err
	}
	if len(audio) == 0 {
		return errors.New("empty audio")
	}
	return n.Player.Play(ctx, audio)
}

func (n *Narrator) logger() *zap.Logger {
	if n.Logger == nil {
		return zap.NewNop()
	}
	return n.Logger
}
