package web

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/relaykit/agentcore/internal/models"
)

// SearchResult is one entry returned by a SearchProvider.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// SearchProvider abstracts the actual web-search backend. Web search wire
// formats are out of scope for this module; callers wire in whatever
// provider client they have (Brave, Bing, etc.) behind this interface.
type SearchProvider interface {
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
}

// SearchTool implements web_search.
type SearchTool struct {
	provider SearchProvider
}

// NewSearchTool constructs web_search backed by provider.
func NewSearchTool(provider SearchProvider) *SearchTool {
	return &SearchTool{provider: provider}
}

func (t *SearchTool) Name() string        { return "web_search" }
func (t *SearchTool) Description() string { return "Search the web and return a list of matching pages." }
func (t *SearchTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {"type": "string"},
			"limit": {"type": "integer", "minimum": 1, "maximum": 20}
		},
		"required": ["query"]
	}`)
}

func (t *SearchTool) Execute(ctx context.Context, _ string, params json.RawMessage) (models.ToolResult, error) {
	var p struct {
		Query string `json:"query"`
		Limit int    `json:"limit"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return models.Error(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if p.Limit <= 0 {
		p.Limit = 5
	}
	if t.provider == nil {
		return models.Error("web_search: no search provider configured"), nil
	}

	results, err := t.provider.Search(ctx, p.Query, p.Limit)
	if err != nil {
		return models.Error(err.Error()), nil
	}

	encoded, err := json.Marshal(results)
	if err != nil {
		return models.Error(err.Error()), nil
	}
	return models.Success(string(encoded)), nil
}
