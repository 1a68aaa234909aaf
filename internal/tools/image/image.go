// Package image provides a stub image-generation tool. Image/voice
// generation wire formats are out of scope for this module (spec.md §1);
// this tool exists so a deployment can register the name and swap in a
// real provider later without changing the registry wiring.
package image

import (
	"context"
	"encoding/json"

	"github.com/relaykit/agentcore/internal/models"
)

// Tool is a placeholder image_generate tool that always reports the
// capability as unavailable.
type Tool struct{}

// New constructs the stub image_generate tool.
func New() *Tool { return &Tool{} }

func (t *Tool) Name() string        { return "image_generate" }
func (t *Tool) Description() string { return "Generate an image from a text prompt. Not available in this deployment." }
func (t *Tool) Parameters() json.RawMessage {
	return json.RawMessage(`{"type": "object", "properties": {"prompt": {"type": "string"}}, "required": ["prompt"]}`)
}

func (t *Tool) Execute(context.Context, string, json.RawMessage) (models.ToolResult, error) {
	return models.AccessDenied("image generation is not configured in this deployment"), nil
}
