package narration

import (
	"context"
	"encoding/binary"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSpeaker struct {
	mu    sync.Mutex
	said  []string
	times []time.Time
}

func (r *recordingSpeaker) Speak(_ context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.said = append(r.said, text)
	r.times = append(r.times, time.Now())
	return nil
}

type stubAudio struct {
	audio []byte
	err   error
	calls int
}

func (s *stubAudio) Synthesize(context.Context, []int64, time.Duration) ([]byte, error) {
	s.calls++
	return s.audio, s.err
}

type stubPlayer struct {
	played [][]byte
	err    error
}

func (s *stubPlayer) Play(_ context.Context, audio []byte) error {
	s.played = append(s.played, audio)
	return s.err
}

func TestNarrateFallsBackToUtterances(t *testing.T) {
	speaker := &recordingSpeaker{}
	n := &Narrator{Speaker: speaker, Interval: 5 * time.Millisecond}
	require.NoError(t, n.Narrate(context.Background(), []int64{12, -7, 3}))
	assert.Equal(t, []string{"12", "-7", "3", ClosingUtterance}, speaker.said)
	for i := 1; i < len(speaker.times); i++ {
		assert.GreaterOrEqual(t, speaker.times[i].Sub(speaker.times[i-1]), 5*time.Millisecond)
	}
}

func TestNarratePrefersAudio(t *testing.T) {
	speaker := &recordingSpeaker{}
	audio := &stubAudio{audio: []byte("wav")}
	player := &stubPlayer{}
	n := &Narrator{Audio: audio, Player: player, Speaker: speaker}
	require.NoError(t, n.Narrate(context.Background(), []int64{1, 2}))
	assert.Equal(t, 1, audio.calls)
	require.Len(t, player.played, 1)
	assert.Empty(t, speaker.said)
}

func TestNarrateFallsBackWhenAudioFails(t *testing.T) {
	cases := map[string]*Narrator{
		"synthesize error": {Audio: &stubAudio{err: errors.New("quota")}, Player: &stubPlayer{}},
		"empty audio":      {Audio: &stubAudio{}, Player: &stubPlayer{}},
		"player error":     {Audio: &stubAudio{audio: []byte("x")}, Player: &stubPlayer{err: errors.New("no device")}},
	}
	for name, n := range cases {
		t.Run(name, func(t *testing.T) {
			speaker := &recordingSpeaker{}
			n.Speaker = speaker
			require.NoError(t, n.Narrate(context.Background(), []int64{5}))
			assert.Equal(t, []string{"5", ClosingUtterance}, speaker.said)
		})
	}
}

func TestNarrateWithoutSpeaker(t *testing.T) {
	n := &Narrator{}
	assert.ErrorIs(t, n.Narrate(context.Background(), []int64{1}), ErrNoSpeaker)
}

func TestNarrateCancelled(t *testing.T) {
	speaker := &recordingSpeaker{}
	n := &Narrator{Speaker: speaker, Interval: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- n.Narrate(ctx, []int64{1, 2, 3}) }()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatalf("narration did not stop after cancel")
	}
	speaker.mu.Lock()
	defer speaker.mu.Unlock()
	assert.Equal(t, []string{"1"}, speaker.said)
}

func TestChannelSpeakerFlashesAndClears(t *testing.T) {
	out := make(chan string, 4)
	s := ChannelSpeaker{Out: out, Hold: time.Millisecond}
	require.NoError(t, s.Speak(context.Background(), "42"))
	assert.Equal(t, "42", <-out)
	assert.Equal(t, "", <-out)
}

func TestCommandSpeakerRejectsEmptyCommand(t *testing.T) {
	assert.Error(t, CommandSpeaker{}.Speak(context.Background(), "1"))
	assert.Error(t, CommandPlayer{}.Play(context.Background(), []byte("x")))
}

func TestWrapPCM(t *testing.T) {
	pcm := []byte{1, 2, 3, 4}
	wav := WrapPCM(pcm, DefaultSampleRate)
	require.Len(t, wav, 44+len(pcm))
	assert.True(t, IsWAV(wav))
	assert.False(t, IsWAV(pcm))
	assert.Equal(t, uint32(36+len(pcm)), binary.LittleEndian.Uint32(wav[4:8]))
	assert.Equal(t, uint32(DefaultSampleRate), binary.LittleEndian.Uint32(wav[24:28]))
	assert.Equal(t, uint32(len(pcm)), binary.LittleEndian.Uint32(wav[40:44]))
	assert.Equal(t, pcm, wav[44:])
}
