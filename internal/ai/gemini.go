package ai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/verte-zerg/abacus/internal/narration"
)

// Gemini defaults.
const (
	DefaultGeminiTextModel = "gemini-2.5-flash"
	DefaultGeminiTTSModel  = "gemini-2.5-flash-preview-tts"
	DefaultGeminiVoice     = "Kore"
)

// ErrNoAPIKey is returned when no Gemini key is configured.
var ErrNoAPIKey = errors.New("gemini api key missing")

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiOptions selects models and voice. Empty fields use the defaults.
type GeminiOptions struct {
	TextModel string
	TTSModel  string
	Voice     string
}

// Gemini implements advice.Provider and narration.AudioSource.
type Gemini struct {
	models    contentGenerator
	textModel string
	ttsModel  string
	voice     string
}

// APIKeyFromEnv reads GEMINI_API_KEY, then API_KEY.
func APIKeyFromEnv() string {
	for _, name := range []string{"GEMINI_API_KEY", "API_KEY"} {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}

// NewGemini connects to the Gemini API.
func NewGemini(ctx context.Context, apiKey string, opts GeminiOptions) (*Gemini, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return newGemini(client.Models, opts), nil
}

func newGemini(models contentGenerator, opts GeminiOptions) *Gemini {
	g := &Gemini{
		models:    models,
		textModel: opts.TextModel,
		ttsModel:  opts.TTSModel,
		voice:     opts.Voice,
	}
	if g.textModel == "" {
		g.textModel = DefaultGeminiTextModel
	}
	if g.ttsModel == "" {
		g.ttsModel = DefaultGeminiTTSModel
	}
	if g.voice == "" {
		g.voice = DefaultGeminiVoice
	}
	return g
}

// Advice implements advice.Provider.
func (g *Gemini) Advice(ctx context.Context, accuracy int, elapsed string) (string, error) {
	prompt := AdvicePrompt(accuracy, elapsed)
	resp, err := g.models.GenerateContent(ctx, g.textModel, genai.Text(prompt.Text()), nil)
	if err != nil {
		return "", fmt.Errorf("gemini advice: %w", err)
	}
	return responseText(resp), nil
}

// Synthesize implements narration.AudioSource. The clip is returned as WAV.
func (g *Gemini) Synthesize(ctx context.Context, numbers []int64, interval time.Duration) ([]byte, error) {
	prompt := NarrationPrompt(numbers, interval)
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: g.voice},
			},
		},
	}
	resp, err := g.models.GenerateContent(ctx, g.ttsModel, genai.Text(prompt.Text()), cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini tts: %w", err)
	}
	blob := firstInlineData(resp)
	if blob == nil || len(blob.Data) == 0 {
		return nil, errors.New("gemini tts: no audio in response")
	}
	if narration.IsWAV(blob.Data) {
		return blob.Data, nil
	}
	return narration.WrapPCM(blob.Data, sampleRate(blob.MIMEType)), nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

func firstInlineData(resp *genai.GenerateContentResponse) *genai.Blob {
	if resp == nil {
		return nil
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil && part.InlineData != nil {
				return part.InlineData
			}
		}
	}
	return nil
}

// sampleRate reads "rate=NNNN" from a mime type like "audio/L16;codec=pcm;rate=24000".
func sampleRate(mimeType string) int {
	for _, param := range strings.Split(mimeType, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(param), "=")
		if !ok || key != "rate" {
			continue
		}
		if rate, err := strconv.Atoi(value); err == nil && rate > 0 {
			return rate
		}
	}
	return narration.DefaultSampleRate
}
