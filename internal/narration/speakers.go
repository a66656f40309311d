package narration

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/verte-zerg/abacus/internal/schedule"
)

var (
	speakerCandidates = []string{"say", "espeak-ng", "espeak", "spd-say -w"}
	playerCandidates  = []string{"afplay", "aplay -q", "paplay", "ffplay -nodisp -autoexit -loglevel quiet"}
)

// CommandSpeaker speaks through a local text-to-speech command, e.g. "espeak".
type CommandSpeaker struct {
	Command string
}

// Speak runs the command with text as the final argument.
func (s CommandSpeaker) Speak(ctx context.Context, text string) error {
	parts := strings.Fields(s.Command)
	if len(parts) == 0 {
		return fmt.Errorf("speaker command is empty")
	}
	cmd := exec.CommandContext(ctx, parts[0], append(parts[1:], text)...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to run speaker %q: %w", parts[0], err)
	}
	return nil
}

// CommandPlayer plays WAV audio through a local player command, e.g. "aplay".
type CommandPlayer struct {
	Command string
}

// Play writes audio to a temporary file and runs the player on it.
func (p CommandPlayer) Play(ctx context.Context, audio []byte) error {
	parts := strings.Fields(p.Command)
	if len(parts) == 0 {
		return fmt.Errorf("player command is empty")
	}
	tmpFile, err := os.CreateTemp("", "abacus-narration-*.wav")
	if err != nil {
		return fmt.Errorf("failed to create audio file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()
	if _, err := tmpFile.Write(audio); err != nil {
		return fmt.Errorf("failed to write audio file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close audio file: %w", err)
	}
	cmd := exec.CommandContext(ctx, parts[0], append(parts[1:], tmpPath)...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to run player %q: %w", parts[0], err)
	}
	return nil
}

// ChannelSpeaker hands each utterance to a display loop and holds it for Hold.
// An empty string is sent afterwards to clear the display.
type ChannelSpeaker struct {
	Out  chan<- string
	Hold time.Duration
}

// Speak implements Speaker.
func (s ChannelSpeaker) Speak(ctx context.Context, text string) error {
	if err := s.send(ctx, text); err != nil {
		return err
	}
	if err := schedule.Sleep(ctx, s.Hold); err != nil {
		return err
	}
	return s.send(ctx, "")
}

func (s ChannelSpeaker) send(ctx context.Context, text string) error {
	select {
	case s.Out <- text:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// DetectSpeaker returns the first text-to-speech command found on PATH.
func DetectSpeaker() (string, bool) {
	return detect(speakerCandidates)
}

// DetectPlayer returns the first audio player command found on PATH.
func DetectPlayer() (string, bool) {
	return detect(playerCandidates)
}

func detect(candidates []string) (string, bool) {
	for _, candidate := range candidates {
		name := strings.Fields(candidate)[0]
		if _, err := exec.LookPath(name); err == nil {
			return candidate, true
		}
	}
	return "", false
}
