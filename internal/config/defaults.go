package config

import "github.com/relaykit/agentcore/internal/scheduler"

// applyDefaults fills zero-valued fields with the engine's defaults so a
// minimal config file (or none at all) still produces a usable Config.
func applyDefaults(c *Config) {
	if c.Bus.InboundCapacity <= 0 {
		c.Bus.InboundCapacity = 64
	}
	if c.Bus.OutboundCapacity <= 0 {
		c.Bus.OutboundCapacity = 64
	}
	if c.Sandbox.Backend == "" {
		c.Sandbox.Backend = "direct"
	}
	if c.Sandbox.MaxFileSizeBytes <= 0 {
		c.Sandbox.MaxFileSizeBytes = 1 << 20
	}
	if c.Sandbox.OutputCapBytes <= 0 {
		c.Sandbox.OutputCapBytes = 10 * 1024
	}
	if c.Exec.DefaultTimeoutMs <= 0 {
		c.Exec.DefaultTimeoutMs = 30_000
	}
	if c.Web.FetchMaxChars <= 0 {
		c.Web.FetchMaxChars = 20_000
	}
	if c.Memory.WindowSize <= 0 {
		c.Memory.WindowSize = 40
	}
	if c.Provider.MaxTokens <= 0 {
		c.Provider.MaxTokens = 4096
	}
	if c.Provider.MaxToolIterations <= 0 {
		c.Provider.MaxToolIterations = 20
	}
	if c.Scheduler.PersistPath == "" {
		c.Scheduler.PersistPath = "./data/cron.json"
	}
	if c.Scheduler.TickIntervalMs <= 0 {
		c.Scheduler.TickIntervalMs = int(scheduler.DefaultTickInterval.Milliseconds())
	}
	if c.Sessions.Dir == "" {
		c.Sessions.Dir = "./data/sessions"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}
