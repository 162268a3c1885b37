// Package llm wraps the hosted language models used to draft posts.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hpungsan/quill/internal/logger"
)

// Providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Defaults applied by New when settings leave them unset.
const (
	DefaultOpenAIModel = "gpt-4o-mini"
	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultMaxTokens   = 200
	DefaultTemperature = 0.7
	DefaultTimeout     = 30 * time.Second
)

// Request is one completion call.
type Request struct {
	System      string
	User        string
	MaxTokens   int
	Temperature *float64 // nil uses the client setting
}

// Completer produces a single text completion.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
	Model() string
}

// Settings configure a provider client.
type Settings struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	MaxTokens   int
	Temperature *float64 // nil means DefaultTemperature; 0 is a valid value
	Timeout     time.Duration
}

// ErrMissingAPIKey is returned by New when the selected provider has no key.
var ErrMissingAPIKey = errors.New("llm api key is not set")

// New builds the Completer for s.Provider. An empty provider means OpenAI.
func New(ctx context.Context, s Settings) (Completer, error) {
	if s.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if s.MaxTokens <= 0 {
		s.MaxTokens = DefaultMaxTokens
	}
	if s.Temperature == nil {
		t := DefaultTemperature
		s.Temperature = &t
	}
	if s.Timeout <= 0 {
		s.Timeout = DefaultTimeout
	}

	switch strings.ToLower(s.Provider) {
	case "", ProviderOpenAI:
		if s.Model == "" {
			s.Model = DefaultOpenAIModel
		}
		return NewOpenAI(s), nil
	case ProviderGemini, "google":
		if s.Model == "" {
			s.Model = DefaultGeminiModel
		}
		return NewGemini(ctx, s)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", s.Provider)
	}
}

// applyDefaults fills request fields left zero from the client settings.
func applyDefaults(req Request, s Settings) Request {
	if req.MaxTokens <= 0 {
		req.MaxTokens = s.MaxTokens
	}
	if req.Temperature == nil {
		req.Temperature = s.Temperature
	}
	return req
}

// Usage is the token accounting reported by a provider.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

func logCompletion(provider, model string, started time.Time, usage Usage, err error) {
	fields := logger.Fields{
		"provider":   provider,
		"model":      model,
		"latency_ms": time.Since(started).Milliseconds(),
	}
	if err != nil {
		fields["error"] = err.Error()
		logger.ErrorWithFields("llm completion failed", fields)
		return
	}
	fields["input_tokens"] = usage.InputTokens
	fields["output_tokens"] = usage.OutputTokens
	fields["total_tokens"] = usage.TotalTokens
	logger.InfoWithFields("llm completion", fields)
}
