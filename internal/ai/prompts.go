// Package ai talks to generative services for drill narration and coaching.
package ai

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Prompt is a system/user message pair.
type Prompt struct {
	System string
	User   string
}

// Text joins both messages for services that take a single prompt.
func (p Prompt) Text() string {
	if p.System == "" {
		return p.User
	}
	return p.System + "\n\n" + p.User
}

// AdvicePrompt asks for a one-sentence tip after a drill.
func AdvicePrompt(accuracy int, elapsed string) Prompt {
	return Prompt{
		System: "You are a strict but kind abacus and mental math teacher. Reply with exactly one encouraging sentence and nothing else.",
		User: fmt.Sprintf(
			"I just completed an abacus math drill. My accuracy was %d%% and my time was %s. Give me a one-sentence encouraging tip.",
			accuracy, elapsed,
		),
	}
}

// NarrationPrompt asks a speech model to dictate the numbers of an oral drill.
func NarrationPrompt(numbers []int64, interval time.Duration) Prompt {
	parts := make([]string, len(numbers))
	for i, n := range numbers {
		parts[i] = strconv.FormatInt(n, 10)
	}
	seconds := strconv.FormatFloat(interval.Seconds(), 'f', -1, 64)
	return Prompt{
		User: fmt.Sprintf(
			"Read the following numbers clearly for a mental math dictation practice. "+
				"Pause for approximately %s seconds between each number. "+
				"The numbers are: %s. End by saying \"That is all\".",
			seconds, strings.Join(parts, ". "),
		),
	}
}
