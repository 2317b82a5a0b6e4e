// Package genai provides GenAI-backed operations using the OpenAI API.
//
// It wraps chat completions (free-form and JSON-schema constrained) and the
// moderation endpoint behind a small interface so flow components can swap in
// a stub implementation for tests.
package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// Sentinel errors for caller branching.
var (
	// ErrNoChoicesReturned indicates the API responded without any choices.
	ErrNoChoicesReturned = errors.New("no choices returned")
	// ErrAPIKeyNotSet indicates no API key was configured.
	ErrAPIKeyNotSet = errors.New("OPENAI_API_KEY not set")
)

// ClientInterface defines the GenAI operations consumed by flow components.
type ClientInterface interface {
	// GeneratePrompt generates a free-form completion from a system and user prompt.
	GeneratePrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// GenerateWithMessages generates a completion from a full message list.
	GenerateWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error)

	// GenerateStructured generates a completion constrained to the given JSON
	// schema and returns the raw JSON text.
	GenerateStructured(ctx context.Context, systemPrompt, userPrompt, schemaName string, schema map[string]interface{}) (string, error)

	// ModerateContent reports whether the given text is flagged by the
	// moderation endpoint.
	ModerateContent(ctx context.Context, text string) (bool, error)
}

// chatService defines the minimal chat completion surface used by Client.
type chatService interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// moderationService defines the minimal moderation surface used by Client.
type moderationService interface {
	New(ctx context.Context, params openai.ModerationNewParams, opts ...option.RequestOption) (*openai.ModerationNewResponse, error)
}

// The OpenAI services have pointer-receiver New methods, so Client must hold
// pointers to them.
var (
	_ chatService       = (*openai.ChatCompletionService)(nil)
	_ moderationService = (*openai.ModerationService)(nil)
)

// Client wraps the OpenAI services used by naapim.
type Client struct {
	chat       chatService
	moderation moderationService
	model      openai.ChatModel
}

// Opts holds configuration for the GenAI client.
type Opts struct {
	APIKey string
	Model  string
}

// Option configures the GenAI client.
type Option func(*Opts)

// WithAPIKey sets the API key explicitly instead of reading the environment.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithModel overrides the default chat model.
func WithModel(model string) Option {
	return func(o *Opts) { o.Model = model }
}

// NewClient initializes a new GenAI client. The API key is taken from options
// or the OPENAI_API_KEY environment variable.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, ErrAPIKeyNotSet
	}

	model := openai.ChatModelGPT4oMini
	if cfg.Model != "" {
		model = openai.ChatModel(cfg.Model)
	}

	cli := openai.NewClient(option.WithAPIKey(cfg.APIKey))
	slog.Debug("genai.NewClient: client initialized", "model", model)
	return &Client{chat: &cli.Chat.Completions, moderation: &cli.Moderations, model: model}, nil
}

// GeneratePrompt generates a response based on the provided system and user prompts.
func (c *Client) GeneratePrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemPrompt),
		openai.UserMessage(userPrompt),
	}
	return c.GenerateWithMessages(ctx, messages)
}

// GenerateWithMessages generates a response from a full message list.
func (c *Client) GenerateWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	resp, err := c.chat.New(ctx, openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		slog.Error("genai.GenerateWithMessages: completion failed", "error", err)
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoicesReturned
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateStructured generates a completion constrained to the given JSON
// schema using strict structured outputs and returns the raw JSON text.
func (c *Client) GenerateStructured(ctx context.Context, systemPrompt, userPrompt, schemaName string, schema map[string]interface{}) (string, error) {
	slog.Debug("genai.GenerateStructured: invoking model", "schema", schemaName, "promptLength", len(userPrompt))

	resp, err := c.chat.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   schemaName,
					Strict: openai.Bool(true),
					Schema: schema,
				},
			},
		},
	})
	if err != nil {
		slog.Error("genai.GenerateStructured: completion failed", "error", err, "schema", schemaName)
		return "", fmt.Errorf("structured completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoicesReturned
	}
	return resp.Choices[0].Message.Content, nil
}

// ModerateContent reports whether the given text is flagged by the moderation
// endpoint.
func (c *Client) ModerateContent(ctx context.Context, text string) (bool, error) {
	resp, err := c.moderation.New(ctx, openai.ModerationNewParams{
		Input: openai.ModerationNewParamsInputUnion{
			OfString: openai.String(text),
		},
	})
	if err != nil {
		slog.Error("genai.ModerateContent: moderation failed", "error", err)
		return false, fmt.Errorf("moderation failed: %w", err)
	}
	if len(resp.Results) == 0 {
		return false, nil
	}
	flagged := resp.Results[0].Flagged
	slog.Debug("genai.ModerateContent: result", "flagged", flagged)
	return flagged, nil
}
