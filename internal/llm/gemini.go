package llm

import (
	"context"
	"time"

	"google.golang.org/genai"
)

// Gemini implements Completer with the Gemini API.
type Gemini struct {
	settings Settings
	client   *genai.Client
}

func NewGemini(ctx context.Context, s Settings) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  s.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &Gemini{settings: s, client: client}, nil
}

func (g *Gemini) Model() string { return g.settings.Model }

func (g *Gemini) Complete(ctx context.Context, req Request) (string, error) {
	req = applyDefaults(req, g.settings)
	ctx, cancel := context.WithTimeout(ctx, g.settings.Timeout)
	defer cancel()

	var temperature *float32
	if req.Temperature != nil {
		temperature = genai.Ptr(float32(*req.Temperature))
	}

	started := time.Now()
	result, err := g.client.Models.GenerateContent(
		ctx,
		g.settings.Model,
		genai.Text(req.User),
		&genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: req.System}}},
			MaxOutputTokens:   int32(req.MaxTokens),
			Temperature:       temperature,
		},
	)
	if err != nil {
		logCompletion(ProviderGemini, g.settings.Model, started, Usage{}, err)
		return "", err
	}

	var usage Usage
	if result.UsageMetadata != nil {
		usage = Usage{
			InputTokens:  int64(result.UsageMetadata.PromptTokenCount),
			OutputTokens: int64(result.UsageMetadata.CandidatesTokenCount),
			TotalTokens:  int64(result.UsageMetadata.TotalTokenCount),
		}
	}
	logCompletion(ProviderGemini, g.settings.Model, started, usage, nil)
	return result.Text(), nil
}
