package models

import "strings"

// McpTool describes a tool proxied in from an external MCP tool-server.
type McpTool struct {
	Server       string `json:"server"`
	RemoteName   string `json:"remoteName"`
	Schema       []byte `json:"schema"`
}

// RegisteredName returns the name this tool is registered under in the
// local tool registry: "mcp_" + sanitize(server) + "_" + sanitize(remote).
func (t McpTool) RegisteredName() string {
	return "mcp_" + Sanitize(t.Server) + "_" + Sanitize(t.RemoteName)
}

// Sanitize lowercases a name and replaces any character outside [a-z0-9_]
// with '_', collapsing consecutive runs of '_' into one.
func Sanitize(name string) string {
	lower := strings.ToLower(name)
	var b strings.Builder
	lastUnderscore := false
	for _, r := range lower {
		ok := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_'
		if !ok {
			r = '_'
		}
		if r == '_' {
			if lastUnderscore {
				continue
			}
			lastUnderscore = true
		} else {
			lastUnderscore = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
