// Package provider defines the contract between the agent turn loop and
// an LLM backend (spec.md §4.8). AnthropicProvider implements it against
// the Anthropic Messages API; MockProvider is a scripted test double.
package provider

import (
	"context"
	"encoding/json"
)

// Role is a completion message's speaker.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ContentBlock is one piece of a message's content: text, an image
// reference, a tool call, or a tool result. Exactly the fields matching
// Type are populated.
type ContentBlock struct {
	Type       string          `json:"type"` // text | image | tool_call | tool_result
	Text       string          `json:"text,omitempty"`
	ImageMime  string          `json:"imageMime,omitempty"`
	ImageData  string          `json:"imageData,omitempty"` // base64
	ToolCallID string          `json:"toolCallId,omitempty"`
	ToolName   string          `json:"toolName,omitempty"`
	ToolArgs   json.RawMessage `json:"toolArgs,omitempty"`
	ToolResult string          `json:"toolResult,omitempty"`
	ToolError  bool            `json:"toolError,omitempty"`
}

// Message is one turn of conversation history sent to the provider.
type Message struct {
	Role    Role           `json:"role"`
	Content []ContentBlock `json:"content"`
}

// ToolDefinition is the model-facing description of one callable tool.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// CompletionRequest is everything a Provider needs to produce one
// assistant turn.
type CompletionRequest struct {
	Model     string
	System    string
	Messages  []Message
	Tools     []ToolDefinition
	MaxTokens int
}

// ToolCall is one invocation the model requested.
type ToolCall struct {
	ID   string
	Name string
	Args json.RawMessage
}

// CompletionResponse is the model's reply: text and/or tool calls.
type CompletionResponse struct {
	Text      string
	ToolCalls []ToolCall
	// StopReason is provider-specific ("end_turn", "tool_use", "max_tokens", ...).
	StopReason string
}

// Provider is the contract the agent turn loop drives. A provider-side
// failure (rate limit, malformed response, network error) is surfaced as
// a plain error; the turn loop is responsible for turning that into a
// user-facing message (spec.md §7).
type Provider interface {
	// Name identifies the provider for logging.
	Name() string
	// Complete produces one assistant turn for req.
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
}
