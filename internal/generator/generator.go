// Package generator turns prompts into validated post drafts.
package generator

import (
	"context"
	"errors"
	"strings"

	"github.com/hpungsan/quill/internal/content"
	qerrors "github.com/hpungsan/quill/internal/errors"
	"github.com/hpungsan/quill/internal/llm"
	"github.com/hpungsan/quill/internal/logger"
	"github.com/hpungsan/quill/internal/prompt"
)

// MaxAttempts bounds completions per Generate call. Only a length
// violation earns the second attempt.
const MaxAttempts = 2

// Rejection reasons reported in CONTENT_VALIDATION details.
const (
	ReasonEmpty           = "empty"
	ReasonEmoji           = "emoji"
	ReasonTooLong         = "too_long"
	ReasonTooShort        = "too_short"
	ReasonEndsMidSentence = "ends_mid_sentence"
)

// Generator drafts post text with an injected completer.
type Generator struct {
	llm         llm.Completer
	MaxTokens   int
	Temperature *float64
}

// New returns a Generator backed by c.
func New(c llm.Completer) (*Generator, error) {
	if c == nil {
		return nil, errors.New("llm completer is required")
	}
	return &Generator{llm: c}, nil
}

// Generate completes p and validates the result. A draft over the character
// budget is retried once with p.Strict(); every other violation fails at once.
func (g *Generator) Generate(ctx context.Context, p prompt.Prompt) (*content.GeneratedDraft, error) {
	maxChars := p.MaxChars
	if maxChars <= 0 {
		maxChars = content.DefaultMaxChars
		p.MaxChars = maxChars
	}

	current := p
	for attempt := 1; ; attempt++ {
		raw, err := g.llm.Complete(ctx, llm.Request{
			System:      prompt.SystemMessage,
			User:        current.Text,
			MaxTokens:   g.MaxTokens,
			Temperature: g.Temperature,
		})
		if err != nil {
			return nil, qerrors.NewGenerationUnavailable(err)
		}

		text := Clean(raw)
		res := content.Validate(content.ValidateInput{
			Text:       text,
			MaxChars:   maxChars,
			RequireCTA: p.RequiresCTA,
		})

		switch {
		case res.Empty:
			return nil, qerrors.NewContentValidation(ReasonEmpty, 0, attempt)
		case len(res.Emoji) > 0:
			e := qerrors.NewContentValidation(ReasonEmoji, res.ActualChars, attempt)
			e.Details["emoji"] = res.Emoji
			return nil, e
		case res.TooLarge:
			if attempt < MaxAttempts {
				logger.WarnWithFields("draft over character budget, retrying", logger.Fields{
					"chars":     res.ActualChars,
					"max_chars": maxChars,
					"mode":      string(p.Kind),
				})
				current = p.Strict()
				continue
			}
			return nil, qerrors.NewContentValidation(ReasonTooLong, res.ActualChars, attempt)
		case res.TooShort:
			return nil, qerrors.NewContentValidation(ReasonTooShort, res.ActualChars, attempt)
		case res.EndsMidSentence:
			return nil, qerrors.NewContentValidation(ReasonEndsMidSentence, res.ActualChars, attempt)
		}

		metadata := make(map[string]any, len(p.Metadata)+3)
		for k, v := range p.Metadata {
			metadata[k] = v
		}
		metadata["attempts"] = attempt
		metadata["model"] = g.llm.Model()
		metadata["chars"] = res.ActualChars

		return &content.GeneratedDraft{
			Text:           text,
			Mode:           p.Kind,
			SourceMetadata: metadata,
		}, nil
	}
}

// Clean trims model output and strips one pair of wrapping double quotes.
func Clean(raw string) string {
	text := strings.TrimSpace(raw)
	for _, pair := range [][2]string{{`"`, `"`}, {"“", "”"}} {
		if len(text) > len(pair[0])+len(pair[1]) &&
			strings.HasPrefix(text, pair[0]) && strings.HasSuffix(text, pair[1]) {
			return strings.TrimSpace(text[len(pair[0]) : len(text)-len(pair[1])])
		}
	}
	return text
}
