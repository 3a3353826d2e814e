package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gpt-4o-mini"

type options struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float32
	httpClient  *http.Client
}

// Option is a function that configures an OpenAIModel.
type Option func(*options)

// WithAPIKey sets the API key. Defaults to the OPENAI_API_KEY environment
// variable.
func WithAPIKey(apiKey string) Option {
	return func(opts *options) {
		opts.apiKey = apiKey
	}
}

// WithBaseURL points the client at an OpenAI-compatible endpoint
// (Qianfan, DashScope, vLLM and friends all speak this protocol).
func WithBaseURL(baseURL string) Option {
	return func(opts *options) {
		opts.baseURL = baseURL
	}
}

// WithModel sets the model name.
func WithModel(model string) Option {
	return func(opts *options) {
		opts.model = model
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temperature float32) Option {
	return func(opts *options) {
		opts.temperature = temperature
	}
}

// WithHTTPClient sets the HTTP client, useful for timeouts and tests.
func WithHTTPClient(client *http.Client) Option {
	return func(opts *options) {
		opts.httpClient = client
	}
}

// OpenAIModel implements Model on top of the OpenAI chat completions API.
type OpenAIModel struct {
	client      *openai.Client
	model       string
	temperature float32
}

var _ Model = (*OpenAIModel)(nil)

// NewOpenAIModel creates a chat model client. An API key must be supplied via
// WithAPIKey or the OPENAI_API_KEY environment variable.
func NewOpenAIModel(opts ...Option) (*OpenAIModel, error) {
	o := &options{
		apiKey: os.Getenv("OPENAI_API_KEY"),
		model:  DefaultModel,
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.apiKey == "" {
		return nil, errors.New("missing OpenAI API key")
	}

	cfg := openai.DefaultConfig(o.apiKey)
	if o.baseURL != "" {
		cfg.BaseURL = o.baseURL
	}
	if o.httpClient != nil {
		cfg.HTTPClient = o.httpClient
	}

	return &OpenAIModel{
		client:      openai.NewClientWithConfig(cfg),
		model:       o.model,
		temperature: o.temperature,
	}, nil
}

// Chat sends a system and a user message and returns the assistant's reply.
func (m *OpenAIModel) Chat(ctx context.Context, system, user string) (string, error) {
	return m.complete(ctx, system, user, nil)
}

// ChatStructured is Chat with JSON output mode enabled.
func (m *OpenAIModel) ChatStructured(ctx context.Context, system, user string) (string, error) {
	format := &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONObject,
	}
	return m.complete(ctx, system, user, format)
}

func (m *OpenAIModel) complete(ctx context.Context, system, user string, format *openai.ChatCompletionResponseFormat) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       m.model,
		Temperature: m.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: format,
	}

	resp, err := m.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}
