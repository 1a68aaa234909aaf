// Package config loads the engine's YAML configuration file into typed
// structs, resolving $include directives the way the rest of this
// codebase's ambient tooling config does (spec.md §9 Design Notes).
package config

import (
	"fmt"
	"time"

	"github.com/relaykit/agentcore/internal/mcp"
)

// Config is the root configuration for one agentcore process.
type Config struct {
	Bus       BusConfig       `yaml:"bus"`
	Sandbox   SandboxConfig   `yaml:"sandbox"`
	Exec      ExecConfig      `yaml:"exec"`
	Web       WebConfig       `yaml:"web"`
	MCP       []mcp.ServerConfig `yaml:"mcp"`
	RateLimit RateLimitConfig   `yaml:"rate_limit"`
	Memory    MemoryConfig      `yaml:"memory"`
	Provider  ProviderConfig    `yaml:"provider"`
	Scheduler SchedulerConfig   `yaml:"scheduler"`
	Sessions  SessionsConfig    `yaml:"sessions"`
	Logging   LoggingConfig     `yaml:"logging"`
}

// BusConfig sizes the inbound and outbound buses (spec.md §4.1).
type BusConfig struct {
	// InboundCapacity is the per-subscriber buffer depth for inbound
	// messages, which use the drop-oldest overflow policy.
	InboundCapacity int `yaml:"inbound_capacity"`
	// OutboundCapacity is the per-subscriber buffer depth for outbound
	// messages, which use the blocking overflow policy.
	OutboundCapacity int `yaml:"outbound_capacity"`
}

// SandboxConfig selects and configures the sandbox executor's back-end
// (spec.md §4.2).
type SandboxConfig struct {
	// Backend is one of "persistent", "oneshot", or "direct".
	Backend string `yaml:"backend"`

	// SocketPath and HelperCmd configure the persistent back-end.
	SocketPath string   `yaml:"socket_path"`
	HelperCmd  []string `yaml:"helper_cmd"`

	// WrapperBinary and WrapperArgs configure the oneshot back-end. An
	// empty WrapperBinary lets it auto-detect bwrap on PATH.
	WrapperBinary string   `yaml:"wrapper_binary"`
	WrapperArgs   []string `yaml:"wrapper_args"`

	MaxFileSizeBytes int `yaml:"max_file_size_bytes"`
	OutputCapBytes   int `yaml:"output_cap_bytes"`
}

// ExecConfig configures the exec tool's policy layer (spec.md §4.3).
type ExecConfig struct {
	// Sandboxed forces simple-command mode; mutually exclusive with
	// FullShell.
	Sandboxed bool `yaml:"sandboxed"`
	FullShell bool `yaml:"full_shell"`

	WorkspaceRoot    string `yaml:"workspace_root"`
	DefaultTimeoutMs int64  `yaml:"default_timeout_ms"`
}

// WebConfig configures web_search and web_fetch (spec.md §4.5).
type WebConfig struct {
	SearchAPIKey  string `yaml:"search_api_key"`
	SearchBaseURL string `yaml:"search_base_url"`
	FetchMaxChars int    `yaml:"fetch_max_chars"`
}

// RateLimitConfig declares one sliding-window limit per named dimension
// (e.g. "per_owner_per_tool", "global_exec"); spec.md §4.6, §5.
type RateLimitConfig struct {
	Dimensions map[string]RateLimitDimension `yaml:"dimensions"`
}

// RateLimitDimension is a single dimension's window and call budget.
type RateLimitDimension struct {
	Max           int `yaml:"max"`
	WindowSeconds int `yaml:"window_seconds"`
}

// MemoryConfig configures history consolidation (spec.md §4.9).
type MemoryConfig struct {
	WindowSize int `yaml:"window_size"`
}

// ProviderConfig configures the LLM backend the agent loop talks to
// (spec.md §4.8, §4.9). Type "anthropic" (also chosen when Type is empty)
// is the only backend cmd/agentcore constructs from these fields.
type ProviderConfig struct {
	Type      string `yaml:"type"`
	Model     string `yaml:"model"`
	APIKey    string `yaml:"api_key"`
	BaseURL   string `yaml:"base_url"`
	MaxTokens int    `yaml:"max_tokens"`

	MaxToolIterations int `yaml:"max_tool_iterations"`
}

// SchedulerConfig configures the cron job store and tick loop
// (spec.md §4.10).
type SchedulerConfig struct {
	PersistPath    string `yaml:"persist_path"`
	TickIntervalMs int    `yaml:"tick_interval_ms"`
}

// SessionsConfig configures the session transcript store (spec.md §3).
type SessionsConfig struct {
	Dir string `yaml:"dir"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// Validate checks invariants Load cannot express through zero values
// alone: exec's sandboxed/full-shell mutual exclusion (spec.md §4.3
// item 2) and the sandbox backend name.
func (c *Config) Validate() error {
	if c.Exec.Sandboxed && c.Exec.FullShell {
		return fmt.Errorf("config: exec.sandboxed and exec.full_shell are mutually exclusive")
	}
	switch c.Sandbox.Backend {
	case "persistent", "oneshot", "direct", "":
	default:
		return fmt.Errorf("config: unknown sandbox backend %q", c.Sandbox.Backend)
	}
	for name, dim := range c.RateLimit.Dimensions {
		if dim.Max <= 0 {
			return fmt.Errorf("config: rate_limit.dimensions.%s.max must be positive", name)
		}
		if dim.WindowSeconds <= 0 {
			return fmt.Errorf("config: rate_limit.dimensions.%s.window_seconds must be positive", name)
		}
	}
	return nil
}

// TickInterval returns Scheduler.TickIntervalMs as a time.Duration, or
// zero if unset (callers should fall back to the scheduler package's own
// default in that case).
func (c *Config) TickInterval() time.Duration {
	if c.Scheduler.TickIntervalMs <= 0 {
		return 0
	}
	return time.Duration(c.Scheduler.TickIntervalMs) * time.Millisecond
}
