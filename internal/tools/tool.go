// Package tools implements the tool registry every agent turn dispatches
// through: JSON-schema parameter validation, per-call rate limiting, and
// panic-safe execution (spec.md §4.4).
package tools

import (
	"context"
	"encoding/json"

	"github.com/relaykit/agentcore/internal/models"
)

// Tool is a single callable capability exposed to the model.
type Tool interface {
	// Name is the identifier the model uses to invoke the tool.
	Name() string
	// Description is shown to the model alongside Parameters.
	Description() string
	// Parameters is the tool's JSON Schema for its input object.
	Parameters() json.RawMessage
	// Execute runs the tool against already-validated params.
	Execute(ctx context.Context, ownerKey string, params json.RawMessage) (models.ToolResult, error)
}

// Definition is the model-facing view of a tool: name, description, and
// parameter schema, with no reference to the implementation.
type Definition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}
