package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Invoker sends one prompt to a model and returns its textual completion.
type Invoker interface {
	// Complete sends a text-only prompt.
	Complete(ctx context.Context, prompt string) (string, error)

	// CompleteWithImage sends a prompt together with one base64-encoded image.
	CompleteWithImage(ctx context.Context, prompt, imageBase64 string) (string, error)
}

const (
	// DefaultModel is the model used when none is configured.
	DefaultModel = "gpt-4o"

	// DefaultMaxTokens bounds the length of each completion.
	DefaultMaxTokens = 1024
)

// ErrEmptyCompletion is returned when the model answered without choices.
var ErrEmptyCompletion = errors.New("model returned no completion")

// chatClient is the subset of *openai.Client used by OpenAIInvoker.
type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIInvoker implements Invoker on an OpenAI-compatible API.
type OpenAIInvoker struct {
	client    chatClient
	model     string
	maxTokens int
	logger    *slog.Logger

	baseURL    string
	httpClient *http.Client
}

// Option configures an OpenAIInvoker.
type Option func(*OpenAIInvoker)

// WithModel sets the model name.
func WithModel(model string) Option {
	return func(o *OpenAIInvoker) {
		if model != "" {
			o.model = model
		}
	}
}

// WithMaxTokens sets the completion token limit.
func WithMaxTokens(n int) Option {
	return func(o *OpenAIInvoker) {
		if n > 0 {
			o.maxTokens = n
		}
	}
}

// WithBaseURL points the client at another OpenAI-compatible endpoint.
// The URL includes the version prefix, e.g. "http://localhost:11434/v1".
func WithBaseURL(baseURL string) Option {
	return func(o *OpenAIInvoker) {
		o.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *OpenAIInvoker) {
		o.httpClient = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *OpenAIInvoker) {
		o.logger = logger
	}
}

// NewOpenAIInvoker creates an invoker authenticating with apiKey.
func NewOpenAIInvoker(apiKey string, opts ...Option) *OpenAIInvoker {
	o := &OpenAIInvoker{
		model:     DefaultModel,
		maxTokens: DefaultMaxTokens,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}

	cfg := openai.DefaultConfig(apiKey)
	if o.baseURL != "" {
		cfg.BaseURL = strings.TrimRight(o.baseURL, "/")
	}
	if o.httpClient != nil {
		cfg.HTTPClient = o.httpClient
	}
	o.client = openai.NewClientWithConfig(cfg)
	return o
}

// Model returns the configured model name.
func (o *OpenAIInvoker) Model() string {
	return o.model
}

// Complete implements Invoker.
func (o *OpenAIInvoker) Complete(ctx context.Context, prompt string) (string, error) {
	return o.create(ctx, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})
}

// CompleteWithImage implements Invoker. The image is sent inline as a JPEG
// data URI.
func (o *OpenAIInvoker) CompleteWithImage(ctx context.Context, prompt, imageBase64 string) (string, error) {
	if imageBase64 == "" {
		return "", errors.New("image data is empty")
	}
	return o.create(ctx, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{
				Type: openai.ChatMessagePartTypeText,
				Text: prompt,
			},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    "data:image/jpeg;base64," + imageBase64,
					Detail: openai.ImageURLDetailAuto,
				},
			},
		},
	})
}

func (o *OpenAIInvoker) create(ctx context.Context, msg openai.ChatCompletionMessage) (string, error) {
	start := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     o.model,
		MaxTokens: o.maxTokens,
		Messages:  []openai.ChatCompletionMessage{msg},
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			o.logger.Debug("model call rejected", "model", o.model, "status", apiErr.HTTPStatusCode, "error", apiErr.Message)
		}
		return "", fmt.Errorf("chat completion with %s failed: %w", o.model, err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	o.logger.Debug("model call completed",
		"model", o.model,
		"duration", time.Since(start),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	)
	return resp.Choices[0].Message.Content, nil
}
