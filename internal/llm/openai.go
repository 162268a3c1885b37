package llm

import (
	"context"
	"errors"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAI implements Completer with chat completions.
type OpenAI struct {
	settings Settings
	client   openai.Client
}

// NewOpenAI builds an OpenAI completer. The SDK's own retries are disabled.
func NewOpenAI(s Settings) *OpenAI {
	opts := []option.RequestOption{
		option.WithAPIKey(s.APIKey),
		option.WithMaxRetries(0),
	}
	if s.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(s.BaseURL))
	}
	return &OpenAI{settings: s, client: openai.NewClient(opts...)}
}

func (o *OpenAI) Model() string { return o.settings.Model }

func (o *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	req = applyDefaults(req, o.settings)
	ctx, cancel := context.WithTimeout(ctx, o.settings.Timeout)
	defer cancel()

	started := time.Now()
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.settings.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.User),
		},
		MaxTokens: openai.Int(int64(req.MaxTokens)),
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err == nil && len(resp.Choices) == 0 {
		err = errors.New("openai: empty choices")
	}
	if err != nil {
		logCompletion(ProviderOpenAI, o.settings.Model, started, Usage{}, err)
		return "", err
	}

	logCompletion(ProviderOpenAI, o.settings.Model, started, Usage{
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil)
	return resp.Choices[0].Message.Content, nil
}
