package ai

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	api "github.com/ollama/ollama/api"
)

// Ollama defaults.
const (
	DefaultOllamaURL   = "http://localhost:11434"
	DefaultOllamaModel = "gemma3n:e4b"
)

type chatClient interface {
	Chat(ctx context.Context, req *api.ChatRequest, fn api.ChatResponseFunc) error
}

// Ollama implements advice.Provider against a local model.
type Ollama struct {
	client chatClient
	model  string
}

// NewOllama builds a client for baseURL.
func NewOllama(baseURL, model string, timeout time.Duration) (*Ollama, error) {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	if model == "" {
		model = DefaultOllamaModel
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url: %w", err)
	}
	httpClient := &http.Client{Timeout: timeout}
	return &Ollama{client: api.NewClient(base, httpClient), model: model}, nil
}

// Advice implements advice.Provider.
func (o *Ollama) Advice(ctx context.Context, accuracy int, elapsed string) (string, error) {
	prompt := AdvicePrompt(accuracy, elapsed)
	stream := false
	req := &api.ChatRequest{
		Model:  o.model,
		Stream: &stream,
		Messages: []api.Message{
			{Role: "system", Content: prompt.System},
			{Role: "user", Content: prompt.User},
		},
	}
	var b strings.Builder
	err := o.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		b.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama advice: %w", err)
	}
	return b.String(), nil
}
