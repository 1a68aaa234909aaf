// Package contextbuilder assembles a provider.CompletionRequest from a
// session's history, the current inbound message, and the registered
// tool definitions (spec.md §4.9). Building a request is a pure
// function of its inputs: no I/O, no clock, no hidden state.
package contextbuilder

import (
	"encoding/json"

	"github.com/relaykit/agentcore/internal/models"
	"github.com/relaykit/agentcore/internal/provider"
)

// ToolDefinition mirrors tools.Definition without importing the tools
// package, avoiding a contextbuilder -> tools import for what is
// otherwise a pure data transform.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// Build assembles a CompletionRequest. history is the session's prior
// records in order; current, when non-nil, is the inbound message
// driving this turn and is rendered as the trailing user message.
//
// The agent loop only passes current on the first provider call of a
// turn; once a tool call has been appended to history, the user's
// message already has its place earlier in the sequence and current is
// passed as nil so it is not repeated out of order after tool records.
// Media attachments are only ever attached to the current turn's
// content blocks — past-turn images are never re-emitted, since
// TurnRecord.Media is stripped before persistence.
func Build(systemPrompt string, history []models.TurnRecord, current *models.InboundMessage, tools []ToolDefinition, model string, maxTokens int) provider.CompletionRequest {
	messages := make([]provider.Message, 0, len(history)+1)

	for _, r := range history {
		switch r.Kind {
		case models.RecordUserText:
			messages = append(messages, provider.Message{
				Role:    provider.RoleUser,
				Content: []provider.ContentBlock{{Type: "text", Text: r.Text}},
			})
		case models.RecordAssistantText:
			messages = append(messages, provider.Message{
				Role:    provider.RoleAssistant,
				Content: []provider.ContentBlock{{Type: "text", Text: r.Text}},
			})
		case models.RecordToolCall:
			block := provider.ContentBlock{
				Type:       "tool_call",
				ToolCallID: r.CallID,
				ToolName:   r.ToolName,
				ToolArgs:   json.RawMessage(r.Arguments),
			}
			messages = append(messages, provider.Message{Role: provider.RoleAssistant, Content: []provider.ContentBlock{block}})
		case models.RecordToolResult:
			messages = append(messages, provider.Message{
				Role: provider.RoleTool,
				Content: []provider.ContentBlock{{
					Type:       "tool_result",
					ToolCallID: r.CallID,
					ToolResult: r.Content,
					ToolError:  r.Status != models.StatusSuccess,
				}},
			})
		}
	}

	if current != nil {
		currentBlocks := []provider.ContentBlock{{Type: "text", Text: current.Content}}
		for _, m := range current.MediaAttachments {
			currentBlocks = append(currentBlocks, provider.ContentBlock{
				Type:      "image",
				ImageMime: m.MimeType,
				ImageData: m.Data,
			})
		}
		messages = append(messages, provider.Message{Role: provider.RoleUser, Content: currentBlocks})
	}

	defs := make([]provider.ToolDefinition, len(tools))
	for i, t := range tools {
		defs[i] = provider.ToolDefinition{Name: t.Name, Description: t.Description, Parameters: t.Parameters}
	}

	return provider.CompletionRequest{
		Model:     model,
		System:    systemPrompt,
		Messages:  messages,
		Tools:     defs,
		MaxTokens: maxTokens,
	}
}
