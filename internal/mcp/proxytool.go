package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/relaykit/agentcore/internal/models"
)

const (
	// proxyCallTimeout bounds a single mcp_* tool call regardless of the
	// server's own configured timeout (spec.md §4.7).
	proxyCallTimeout = 60 * time.Second
	// proxyResponseCap truncates an mcp_* tool's text result before it
	// reaches the model.
	proxyResponseCap = 50 * 1024
)

// ProxyTool registers one remote MCP tool into the local tool registry
// under its sanitized RegisteredName, forwarding calls to the owning
// server's Client.
type ProxyTool struct {
	manager *Manager
	tool    models.McpTool
}

// NewProxyTool wraps tool for registration. manager is used to look up
// the Client for tool.Server at call time; a server whose process has
// exited is not reconnected.
func NewProxyTool(manager *Manager, tool models.McpTool) *ProxyTool {
	return &ProxyTool{manager: manager, tool: tool}
}

func (p *ProxyTool) Name() string { return p.tool.RegisteredName() }

func (p *ProxyTool) Description() string {
	return fmt.Sprintf("[mcp:%s] %s", p.tool.Server, p.tool.RemoteName)
}

func (p *ProxyTool) Parameters() json.RawMessage {
	if len(p.tool.Schema) == 0 {
		return json.RawMessage(`{"type":"object"}`)
	}
	return p.tool.Schema
}

func (p *ProxyTool) Execute(ctx context.Context, _ string, params json.RawMessage) (models.ToolResult, error) {
	client, ok := p.manager.Client(p.tool.Server)
	if !ok {
		return models.Error(fmt.Sprintf("mcp server %s is not connected", p.tool.Server)), nil
	}

	callCtx, cancel := context.WithTimeout(ctx, proxyCallTimeout)
	defer cancel()

	text, isError, err := client.CallTool(callCtx, p.tool.RemoteName, params)
	if err != nil {
		return models.Error(err.Error()), nil
	}
	if len(text) > proxyResponseCap {
		text = text[:proxyResponseCap] + fmt.Sprintf("\n... (response truncated at %d bytes)", proxyResponseCap)
	}
	if isError {
		return models.Error(text), nil
	}
	return models.Success(text), nil
}
