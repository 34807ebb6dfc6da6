package assistant

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"

	"github.com/charlene/charlene/internal/chat"
)

// Options configures the OpenRouter-backed assistant
type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	BotName     string
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// OpenRouter implements chat.Assistant against any OpenAI-compatible
// chat-completions endpoint (OpenRouter by default).
type OpenRouter struct {
	client openai.Client
	opts   Options
	logger *zap.Logger
}

// NewOpenRouter creates a new assistant client
func NewOpenRouter(opts Options, logger *zap.Logger) *OpenRouter {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}

	return &OpenRouter{
		client: openai.NewClient(reqOpts...),
		opts:   opts,
		logger: logger,
	}
}

// Generate produces a reply for message given the bounded history. Failures
// come back as chat errors so the orchestrator can pick the right fallback.
func (o *OpenRouter) Generate(ctx context.Context, message, userName string, history []chat.Message) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+2)
	messages = append(messages, openai.SystemMessage(systemPrompt(o.opts.BotName, userName)))

	for _, m := range history {
		switch m.Role {
		case chat.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}
	messages = append(messages, openai.UserMessage(message))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.opts.Model),
		Messages: messages,
	}
	if o.opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(o.opts.MaxTokens))
	}
	if o.opts.Temperature > 0 {
		params.Temperature = openai.Float(o.opts.Temperature)
	}
	if o.opts.TopP > 0 {
		params.TopP = openai.Float(o.opts.TopP)
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apierr *openai.Error
		if errors.As(err, &apierr) && apierr.StatusCode == http.StatusTooManyRequests {
			return "", chat.NewRateLimitedError("", err)
		}
		return "", chat.NewUpstreamError("", err)
	}

	if len(resp.Choices) == 0 {
		return "", chat.NewUpstreamError("", fmt.Errorf("completion returned no choices"))
	}

	o.logger.Debug("Assistant completion",
		zap.String("model", o.opts.Model),
		zap.Int64("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int64("completion_tokens", resp.Usage.CompletionTokens))

	return resp.Choices[0].Message.Content, nil
}
