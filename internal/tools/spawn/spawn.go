// Package spawn implements the spawn tool, letting the model delegate a
// sub-task to a nested agent turn (spec.md §4.9 supplement). The spawn
// tool itself is excluded from background/cron turn tool views so a
// scheduled job can never recursively spawn subagents.
package spawn

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/relaykit/agentcore/internal/models"
)

// Spawner runs a nested turn for the given owner and prompt, returning
// the subagent's final text reply. The agent loop implements this.
type Spawner interface {
	RunSubTurn(ctx context.Context, ownerKey, prompt string) (string, error)
}

// Tool implements the spawn tool.
type Tool struct {
	spawner Spawner
}

// New constructs the spawn tool backed by spawner.
func New(spawner Spawner) *Tool { return &Tool{spawner: spawner} }

func (t *Tool) Name() string { return "spawn" }
func (t *Tool) Description() string {
	return "Delegate a focused sub-task to a nested agent turn and return its final answer."
}
func (t *Tool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {"prompt": {"type": "string"}},
		"required": ["prompt"]
	}`)
}

func (t *Tool) Execute(ctx context.Context, ownerKey string, params json.RawMessage) (models.ToolResult, error) {
	var p struct {
		Prompt string `json:"prompt"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return models.Error(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	reply, err := t.spawner.RunSubTurn(ctx, ownerKey, p.Prompt)
	if err != nil {
		return models.Error(err.Error()), nil
	}
	return models.Success(reply), nil
}
