package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider implements Provider against the Anthropic Messages
// API via the official SDK. It is synchronous and non-streaming: the
// agent loop consumes one complete assistant turn at a time, so each call
// waits for the full Messages reply and returns it as a single
// CompletionResponse.
type AnthropicProvider struct {
	client       anthropic.Client
	defaultModel string
	maxRetries   int
	retryDelay   time.Duration
}

// AnthropicConfig configures an AnthropicProvider.
type AnthropicConfig struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	MaxRetries   int
	RetryDelay   time.Duration
}

// NewAnthropicProvider validates config and returns a ready provider.
// spec.md §7 classifies a missing provider API key as a fatal
// ConfigurationError, so callers should treat a non-nil error here as a
// reason to abort startup rather than retry.
func NewAnthropicProvider(cfg AnthropicConfig) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic: API key is required")
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "claude-sonnet-4-20250514"
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &AnthropicProvider{
		client:       anthropic.NewClient(opts...),
		defaultModel: cfg.DefaultModel,
		maxRetries:   cfg.MaxRetries,
		retryDelay:   cfg.RetryDelay,
	}, nil
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

// Complete sends req and waits for the model's full reply, retrying
// rate limits (429), 5xx responses, and context.DeadlineExceeded with
// exponential backoff; other errors, including connection failures, are
// not retried. A retry exhausted or non-retryable error is
// returned as-is; the agent loop is responsible for turning it into a
// user-facing apology (spec.md §7).
func (p *AnthropicProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	params, err := p.buildParams(req)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("anthropic: build request: %w", err)
	}

	var msg *anthropic.Message
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		msg, err = p.client.Messages.New(ctx, params)
		if err == nil {
			break
		}
		if !isRetryableError(err) || attempt == p.maxRetries {
			return CompletionResponse{}, fmt.Errorf("anthropic: %w", err)
		}
		backoff := p.retryDelay * time.Duration(math.Pow(2, float64(attempt)))
		select {
		case <-ctx.Done():
			return CompletionResponse{}, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return toCompletionResponse(msg), nil
}

func (p *AnthropicProvider) buildParams(req CompletionRequest) (anthropic.MessageNewParams, error) {
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	messages, err := convertMessages(req.Messages)
	if err != nil {
		return anthropic.MessageNewParams{}, err
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		Messages:  messages,
		MaxTokens: int64(maxTokens),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Type: "text", Text: req.System}}
	}
	if len(req.Tools) > 0 {
		tools, err := convertTools(req.Tools)
		if err != nil {
			return anthropic.MessageNewParams{}, err
		}
		params.Tools = tools
	}
	return params, nil
}

// convertMessages maps our Message/ContentBlock shape onto Anthropic's
// message params, following the same role collapsing the teacher's
// provider integration uses: tool-role content becomes a tool_result
// block inside a user message, since Anthropic has no separate tool role.
func convertMessages(messages []Message) ([]anthropic.MessageParam, error) {
	result := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == RoleSystem {
			continue
		}
		var blocks []anthropic.ContentBlockParamUnion
		for _, block := range msg.Content {
			switch block.Type {
			case "text":
				if block.Text != "" {
					blocks = append(blocks, anthropic.NewTextBlock(block.Text))
				}
			case "tool_call":
				var input map[string]any
				if len(block.ToolArgs) > 0 {
					if err := json.Unmarshal(block.ToolArgs, &input); err != nil {
						return nil, fmt.Errorf("invalid tool call args for %s: %w", block.ToolName, err)
					}
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(block.ToolCallID, input, block.ToolName))
			case "tool_result":
				blocks = append(blocks, anthropic.NewToolResultBlock(block.ToolCallID, block.ToolResult, block.ToolError))
			case "image":
				blocks = append(blocks, anthropic.NewImageBlockBase64(block.ImageMime, block.ImageData))
			}
		}
		if len(blocks) == 0 {
			continue
		}
		if msg.Role == RoleAssistant {
			result = append(result, anthropic.NewAssistantMessage(blocks...))
		} else {
			result = append(result, anthropic.NewUserMessage(blocks...))
		}
	}
	return result, nil
}

func convertTools(tools []ToolDefinition) ([]anthropic.ToolUnionParam, error) {
	result := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, tool := range tools {
		var schema anthropic.ToolInputSchemaParam
		if err := json.Unmarshal(tool.Parameters, &schema); err != nil {
			return nil, fmt.Errorf("invalid schema for tool %s: %w", tool.Name, err)
		}
		toolParam := anthropic.ToolUnionParamOfTool(schema, tool.Name)
		if toolParam.OfTool == nil {
			return nil, fmt.Errorf("invalid schema for tool %s", tool.Name)
		}
		toolParam.OfTool.Description = anthropic.String(tool.Description)
		result = append(result, toolParam)
	}
	return result, nil
}

// toCompletionResponse flattens an Anthropic Message's content blocks
// into our Text/ToolCalls shape, concatenating any text blocks (the
// agent loop only needs one reply string per turn).
func toCompletionResponse(msg *anthropic.Message) CompletionResponse {
	resp := CompletionResponse{StopReason: string(msg.StopReason)}
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			resp.Text += block.Text
		case "tool_use":
			resp.ToolCalls = append(resp.ToolCalls, ToolCall{
				ID:   block.ID,
				Name: block.Name,
				Args: json.RawMessage(block.Input),
			})
		}
	}
	return resp
}

// isRetryableError reports whether err is a transient condition worth
// another attempt: rate limits (429), server errors (5xx), and
// context.DeadlineExceeded. Connection failures are not retried.
func isRetryableError(err error) bool {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	return errors.Is(err, context.DeadlineExceeded)
}
