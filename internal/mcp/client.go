package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Client is a connected MCP server: it owns the transport and the most
// recently discovered tool list.
type Client struct {
	config    *ServerConfig
	transport *stdioTransport
	logger    *slog.Logger

	tools []RemoteTool
}

// Connect launches the server's subprocess and performs the
// initialize -> notifications/initialized handshake (spec.md §4.7).
func Connect(ctx context.Context, cfg *ServerConfig, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	transport := newStdioTransport(cfg, logger)
	if err := transport.connect(ctx); err != nil {
		return nil, err
	}

	c := &Client{config: cfg, transport: transport, logger: logger}
	if err := c.handshake(ctx); err != nil {
		_ = transport.close()
		return nil, err
	}
	return c, nil
}

func (c *Client) handshake(ctx context.Context) error {
	params := InitializeParams{
		ProtocolVersion: protocolVersion,
		Capabilities:    map[string]any{},
		ClientInfo:      ClientInfo{Name: "agentcore", Version: "1.0"},
	}
	result, err := c.transport.call(ctx, "initialize", params)
	if err != nil {
		return fmt.Errorf("mcp: initialize %s: %w", c.config.ID, err)
	}
	var parsed InitializeResult
	if err := json.Unmarshal(result, &parsed); err != nil {
		return fmt.Errorf("mcp: parse initialize result from %s: %w", c.config.ID, err)
	}
	if err := c.transport.notify("notifications/initialized", nil); err != nil {
		return fmt.Errorf("mcp: send initialized notification to %s: %w", c.config.ID, err)
	}
	return nil
}

// RefreshCapabilities calls tools/list and stores the result.
func (c *Client) RefreshCapabilities(ctx context.Context) ([]RemoteTool, error) {
	result, err := c.transport.call(ctx, "tools/list", nil)
	if err != nil {
		return nil, fmt.Errorf("mcp: tools/list on %s: %w", c.config.ID, err)
	}
	var parsed ListToolsResult
	if err := json.Unmarshal(result, &parsed); err != nil {
		return nil, fmt.Errorf("mcp: parse tools/list result from %s: %w", c.config.ID, err)
	}
	c.tools = parsed.Tools
	return parsed.Tools, nil
}

// CallTool invokes a remote tool by its name as advertised by the server
// (not the sanitized, registry-facing name) and returns the concatenated
// text content of the result.
func (c *Client) CallTool(ctx context.Context, remoteName string, args json.RawMessage) (string, bool, error) {
	result, err := c.transport.call(ctx, "tools/call", CallToolParams{Name: remoteName, Arguments: args})
	if err != nil {
		return "", false, err
	}
	var parsed CallToolResult
	if err := json.Unmarshal(result, &parsed); err != nil {
		return "", false, fmt.Errorf("mcp: parse tools/call result: %w", err)
	}
	text := ""
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return text, parsed.IsError, nil
}

// Close stops the server subprocess.
func (c *Client) Close() error {
	return c.transport.close()
}

// ID returns the server's configured identifier.
func (c *Client) ID() string { return c.config.ID }
