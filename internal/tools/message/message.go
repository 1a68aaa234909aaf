// Package message implements the "message" tool, letting the model push
// an out-of-band reply onto the outbound bus mid-turn (spec.md §4.1,
// §4.9) — e.g. to narrate progress before a long tool call completes.
package message

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/relaykit/agentcore/internal/bus"
	"github.com/relaykit/agentcore/internal/models"
)

// Tool implements the message tool.
type Tool struct {
	outbound *bus.Bus[models.OutboundMessage]
}

// New constructs the message tool, publishing to outbound.
func New(outbound *bus.Bus[models.OutboundMessage]) *Tool {
	return &Tool{outbound: outbound}
}

func (t *Tool) Name() string { return "message" }
func (t *Tool) Description() string {
	return "Send an out-of-band message to the user before the turn finishes, e.g. to report progress."
}
func (t *Tool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {"content": {"type": "string"}},
		"required": ["content"]
	}`)
}

func (t *Tool) Execute(_ context.Context, ownerKey string, params json.RawMessage) (models.ToolResult, error) {
	var p struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return models.Error(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	channel, chatID, ok := splitOwnerKey(ownerKey)
	if !ok {
		return models.Error("message tool: owner key is malformed"), nil
	}
	t.outbound.Publish(models.OutboundMessage{
		Channel: channel,
		ChatID:  chatID,
		Content: p.Content,
	})
	return models.Success("message sent"), nil
}

func splitOwnerKey(ownerKey string) (channel, chatID string, ok bool) {
	idx := strings.Index(ownerKey, ":")
	if idx < 0 {
		return "", "", false
	}
	return ownerKey[:idx], ownerKey[idx+1:], true
}
