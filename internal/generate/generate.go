// Package generate defines the boundary to hosted text-generation models.
// The editor only consumes generated text; prompting and provider
// credentials live with the caller.
package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

var (
	ErrInvalidModelRef = errors.New("invalid model reference")
	ErrEmptyPrompt     = errors.New("prompt is empty")
)

// ModelRef identifies a hosted provider/model pair.
type ModelRef struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

func (m ModelRef) String() string {
	return m.Provider + "/" + m.Model
}

// ParseModelRef parses "provider/model" or "provider:model". The model part
// may itself contain slashes ("openrouter/meta/llama").
func ParseModelRef(s string) (ModelRef, error) {
	s = strings.TrimSpace(s)
	i := strings.IndexAny(s, "/:")
	if i <= 0 || i == len(s)-1 {
		return ModelRef{}, fmt.Errorf("%w: %q", ErrInvalidModelRef, s)
	}
	return ModelRef{Provider: strings.ToLower(s[:i]), Model: s[i+1:]}, nil
}

// Generator produces text for a prompt.
type Generator interface {
	GenerateText(ctx context.Context, model ModelRef, prompt string) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, model ModelRef, prompt string) (string, error)

func (f GeneratorFunc) GenerateText(ctx context.Context, model ModelRef, prompt string) (string, error) {
	return f(ctx, model, prompt)
}

// Limited throttles calls to a Generator.
type Limited struct {
	next    Generator
	limiter *rate.Limiter
}

// NewLimited allows one call per interval with the given burst.
func NewLimited(next Generator, interval time.Duration, burst int) *Limited {
	if burst < 1 {
		burst = 1
	}
	return &Limited{next: next, limiter: rate.NewLimiter(rate.Every(interval), burst)}
}

func (l *Limited) GenerateText(ctx context.Context, model ModelRef, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}
	if err := l.limiter.Wait(ctx); err != nil {
		return "", err
	}
	out, err := l.next.GenerateText(ctx, model, prompt)
	if err != nil {
		return "", fmt.Errorf("generate with %s: %w", model, err)
	}
	return out, nil
}

// SplitGenerated splits generated content into a heading (the first
// non-empty line) and a body (everything after it, trimmed).
func SplitGenerated(text string) (heading, body string) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) == 0 {
		return "", ""
	}
	heading = strings.TrimSpace(lines[0])
	body = strings.TrimSpace(strings.Join(lines[1:], "\n"))
	return heading, body
}
