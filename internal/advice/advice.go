// Package advice produces a short coaching line for a finished drill.
package advice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/abacus/internal/model"
)

// Fallback messages used when the provider is missing, fails or returns nothing.
const (
	MessageExcellent  = "Excellent work!"
	MessageKeepGoing  = "Keep practicing!"
	MessageOnError    = "Great effort! Practice makes perfect."
	MessageOnEmpty    = "Keep practicing to improve speed and accuracy!"
	DefaultTimeout    = 15 * time.Second
	excellentAccuracy = 80
)

// Provider generates a coaching sentence.
type Provider interface {
	Advice(ctx context.Context, accuracy int, elapsed string) (string, error)
}

// Coach wraps an optional Provider with static fallbacks. Advise never fails.
type Coach struct {
	provider Provider
	timeout  time.Duration
	logger   *zap.Logger
}

// NewCoach builds a Coach. A nil provider means the service is unconfigured.
func NewCoach(provider Provider, timeout time.Duration, logger *zap.Logger) *Coach {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coach{provider: provider, timeout: timeout, logger: logger}
}

// Configured reports whether a provider is set.
func (c *Coach) Configured() bool {
	return c != nil && c.provider != nil
}

// Advise returns a coaching line for the given accuracy percentage and time descriptor.
func (c *Coach) Advise(ctx context.Context, accuracy int, elapsed string) string {
	if !c.Configured() {
		if accuracy > excellentAccuracy {
			return MessageExcellent
		}
		return MessageKeepGoing
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	text, err := c.provider.Advice(ctx, accuracy, elapsed)
	if err != nil {
		c.logger.Warn("advice request failed", zap.Error(err))
		return MessageOnError
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return MessageOnEmpty
	}
	return text
}

// Elapsed describes how long a session ran: the configured limit for timed drills,
// the measured duration for oral ones.
func Elapsed(result model.SessionResult) string {
	if result.Config.Mode == model.ModeTimed {
		if result.Config.TimeLimit == 1 {
			return "1 min"
		}
		return fmt.Sprintf("%d mins", result.Config.TimeLimit)
	}
	return result.Duration().Round(time.Second).String()
}
