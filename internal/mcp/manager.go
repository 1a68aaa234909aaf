package mcp

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/relaykit/agentcore/internal/models"
)

// Manager owns every configured MCP server connection. Servers are
// dialed in parallel and Start returns as soon as dialing has been
// kicked off; each server's tools are registered asynchronously as its
// handshake and tools/list complete, so one slow or unreachable server
// never blocks another's tools from becoming available (spec.md §4.7).
type Manager struct {
	logger  *slog.Logger
	configs []ServerConfig

	mu      sync.Mutex
	clients map[string]*Client
}

// NewManager constructs a Manager for the given server configs.
func NewManager(configs []ServerConfig, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		logger:  logger.With("component", "mcp"),
		configs: configs,
		clients: make(map[string]*Client),
	}
}

// Start dials every configured server concurrently. onTools is invoked
// once per server, from that server's own goroutine, as soon as its
// allow-filtered tool list is available; it is never called again for
// the same server (this manager does not poll for tools/list_changed).
func (m *Manager) Start(ctx context.Context, onTools func(server string, tools []models.McpTool)) {
	for i := range m.configs {
		cfg := m.configs[i]
		go m.connectOne(ctx, cfg, onTools)
	}
}

func (m *Manager) connectOne(ctx context.Context, cfg ServerConfig, onTools func(string, []models.McpTool)) {
	client, err := Connect(ctx, &cfg, m.logger)
	if err != nil {
		m.logger.Error("mcp server connect failed", "server", cfg.ID, "error", err)
		return
	}

	m.mu.Lock()
	m.clients[cfg.ID] = client
	m.mu.Unlock()

	remote, err := client.RefreshCapabilities(ctx)
	if err != nil {
		m.logger.Error("mcp server tools/list failed", "server", cfg.ID, "error", err)
		return
	}

	filtered := make([]models.McpTool, 0, len(remote))
	for _, rt := range remote {
		if !allowed(cfg.Allow, rt.Name) {
			continue
		}
		filtered = append(filtered, models.McpTool{
			Server:     cfg.ID,
			RemoteName: rt.Name,
			Schema:     rt.InputSchema,
		})
	}
	if onTools != nil {
		onTools(cfg.ID, filtered)
	}
}

// allowed reports whether name matches one of patterns. A pattern ending
// in "*" matches by prefix; an empty pattern list allows everything.
func allowed(patterns []string, name string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		if strings.HasSuffix(p, "*") {
			if strings.HasPrefix(name, strings.TrimSuffix(p, "*")) {
				return true
			}
			continue
		}
		if p == name {
			return true
		}
	}
	return false
}

// Client returns the connected client for serverID, if any.
func (m *Manager) Client(serverID string) (*Client, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clients[serverID]
	return c, ok
}

// Stop disconnects every connected server.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, c := range m.clients {
		if err := c.Close(); err != nil {
			m.logger.Warn("mcp server close failed", "server", id, "error", err)
		}
	}
	m.clients = make(map[string]*Client)
}
