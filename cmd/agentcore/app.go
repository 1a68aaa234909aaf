package main

import (
	"context"
	"fmt"
	"time"

	"github.com/relaykit/agentcore/internal/agentloop"
	"github.com/relaykit/agentcore/internal/bus"
	"github.com/relaykit/agentcore/internal/config"
	"github.com/relaykit/agentcore/internal/mcp"
	"github.com/relaykit/agentcore/internal/memory"
	"github.com/relaykit/agentcore/internal/models"
	"github.com/relaykit/agentcore/internal/netssrf"
	"github.com/relaykit/agentcore/internal/observability"
	"github.com/relaykit/agentcore/internal/provider"
	"github.com/relaykit/agentcore/internal/ratelimit"
	"github.com/relaykit/agentcore/internal/sandbox"
	"github.com/relaykit/agentcore/internal/scheduler"
	"github.com/relaykit/agentcore/internal/sessions"
	"github.com/relaykit/agentcore/internal/tools"
	"github.com/relaykit/agentcore/internal/tools/cron"
	"github.com/relaykit/agentcore/internal/tools/exectool"
	"github.com/relaykit/agentcore/internal/tools/fs"
	"github.com/relaykit/agentcore/internal/tools/image"
	"github.com/relaykit/agentcore/internal/tools/message"
	"github.com/relaykit/agentcore/internal/tools/spawn"
	"github.com/relaykit/agentcore/internal/tools/web"
)

// App wires every engine component from a loaded Config. It is the single
// assembly point shared by the serve and cron commands.
type App struct {
	cfg      *config.Config
	logger   *observability.Logger
	inbound  *bus.Bus[models.InboundMessage]
	outbound *bus.Bus[models.OutboundMessage]
	registry *tools.Registry
	store    sessions.Store
	memory   *memory.Manager
	mcpMgr   *mcp.Manager
	sched    *scheduler.Scheduler
	loop     *agentloop.Loop
	backend  sandbox.Backend
}

// spawnProxy breaks the spawn-tool/Loop construction cycle: the spawn
// tool needs a Spawner at registration time, but the Loop it eventually
// delegates to can only be built once the registry (which holds the
// spawn tool) already exists.
type spawnProxy struct {
	loop *agentloop.Loop
}

func (p *spawnProxy) RunSubTurn(ctx context.Context, ownerKey, prompt string) (string, error) {
	if p.loop == nil {
		return "", fmt.Errorf("spawn: agent loop not ready")
	}
	return p.loop.RunSubTurn(ctx, ownerKey, prompt)
}

// buildApp constructs every component described by cfg. Callers that
// only need the scheduler (the CLI's cron subcommands) can use
// buildScheduler directly instead of paying for the full bootstrap.
func buildApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := observability.NewLogger(observability.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	backend, err := buildSandboxBackend(ctx, cfg.Sandbox)
	if err != nil {
		return nil, fmt.Errorf("sandbox backend: %w", err)
	}
	executor := sandbox.NewExecutor(backend,
		sandbox.WithMaxFileSize(cfg.Sandbox.MaxFileSizeBytes),
		sandbox.WithOutputCap(cfg.Sandbox.OutputCapBytes),
	)

	limiter := ratelimit.NewMultiLimiter()
	for name, dim := range cfg.RateLimit.Dimensions {
		limiter.Add(name, ratelimit.New(dim.Max, time.Duration(dim.WindowSeconds)*time.Second))
	}
	registry := tools.NewRegistry(limiter, logger.Slog())

	inbound := bus.New[models.InboundMessage](cfg.Bus.InboundCapacity, bus.DropOldest)
	outbound := bus.New[models.OutboundMessage](cfg.Bus.OutboundCapacity, bus.Block)

	execTool, err := exectool.New(exectool.Config{
		Sandboxed:        cfg.Exec.Sandboxed,
		FullShell:        cfg.Exec.FullShell,
		WorkspaceRoot:    cfg.Exec.WorkspaceRoot,
		DefaultTimeoutMs: cfg.Exec.DefaultTimeoutMs,
	}, executor)
	if err != nil {
		return nil, fmt.Errorf("exec tool: %w", err)
	}

	proxy := &spawnProxy{}
	registrations := []tools.Tool{
		fs.NewReadFileTool(executor),
		fs.NewWriteFileTool(executor),
		fs.NewEditFileTool(executor),
		fs.NewListDirTool(executor),
		execTool,
		web.NewFetchTool(netssrf.DefaultResolver, cfg.Web.FetchMaxChars),
		web.NewSearchTool(nil),
		image.New(),
		message.New(outbound),
		spawn.New(proxy),
	}
	for _, t := range registrations {
		if err := registry.Register(t); err != nil {
			return nil, fmt.Errorf("register tool %s: %w", t.Name(), err)
		}
	}

	store, err := sessions.NewFileStore(cfg.Sessions.Dir)
	if err != nil {
		return nil, fmt.Errorf("session store: %w", err)
	}

	llm, err := buildProvider(cfg.Provider)
	if err != nil {
		return nil, fmt.Errorf("provider: %w", err)
	}

	summarizer := memory.ProviderSummarizer{Provider: llm, Model: cfg.Provider.Model}
	memMgr := memory.NewManager(store, summarizer, cfg.Memory.WindowSize)

	loop := agentloop.New(agentloop.Config{
		Store:     store,
		Registry:  registry,
		Provider:  llm,
		Outbound:  outbound,
		Model:     cfg.Provider.Model,
		MaxTokens: cfg.Provider.MaxTokens,
		MaxIterations: cfg.Provider.MaxToolIterations,
		Logger:    logger.Slog(),
	})
	proxy.loop = loop

	sched, err := scheduler.New(cfg.Scheduler.PersistPath, inbound,
		scheduler.WithTickInterval(cfg.TickInterval()),
		scheduler.WithLogger(logger.Slog()),
	)
	if err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}

	cronTools := []tools.Tool{
		cron.NewAddTool(sched),
		cron.NewListTool(sched),
		cron.NewShowTool(sched),
		cron.NewUpdateTool(sched),
		cron.NewRemoveTool(sched),
	}
	for _, t := range cronTools {
		if err := registry.Register(t); err != nil {
			return nil, fmt.Errorf("register tool %s: %w", t.Name(), err)
		}
	}

	mcpMgr := mcp.NewManager(cfg.MCP, logger.Slog())
	mcpMgr.Start(ctx, func(server string, toolList []models.McpTool) {
		for _, mt := range toolList {
			if err := registry.Register(mcp.NewProxyTool(mcpMgr, mt)); err != nil {
				logger.Error(ctx, "mcp tool registration failed", "server", server, "tool", mt.RemoteName, "error", err)
			}
		}
	})

	return &App{
		cfg:      cfg,
		logger:   logger,
		inbound:  inbound,
		outbound: outbound,
		registry: registry,
		store:    store,
		memory:   memMgr,
		mcpMgr:   mcpMgr,
		sched:    sched,
		loop:     loop,
		backend:  backend,
	}, nil
}

// buildSandboxBackend selects a Backend by name, defaulting to the
// unrestricted DirectBackend when none is configured.
func buildSandboxBackend(ctx context.Context, cfg config.SandboxConfig) (sandbox.Backend, error) {
	switch cfg.Backend {
	case "persistent":
		return sandbox.NewPersistentBackend(ctx, cfg.SocketPath, cfg.HelperCmd)
	case "oneshot":
		return sandbox.NewOneshotBackend(cfg.WrapperBinary, cfg.WrapperArgs), nil
	case "direct", "":
		return sandbox.NewDirectBackend(), nil
	default:
		return nil, fmt.Errorf("unknown sandbox backend %q", cfg.Backend)
	}
}

// buildProvider constructs the configured LLM provider. An empty provider
// type selects anthropic; an unrecognized type is a fatal configuration
// error.
func buildProvider(cfg config.ProviderConfig) (provider.Provider, error) {
	switch cfg.Type {
	case "anthropic", "":
		return provider.NewAnthropicProvider(provider.AnthropicConfig{
			APIKey:       cfg.APIKey,
			BaseURL:      cfg.BaseURL,
			DefaultModel: cfg.Model,
		})
	default:
		return nil, fmt.Errorf("unknown provider type %q", cfg.Type)
	}
}

// buildScheduler constructs only the scheduler, for CLI cron commands
// that have no need for the rest of the engine (spec.md §4.10: CLI-side
// cron operations carry no owner restriction and don't touch the bus or
// agent loop).
func buildScheduler(cfg *config.Config, logger *observability.Logger) (*scheduler.Scheduler, error) {
	inbound := bus.New[models.InboundMessage](cfg.Bus.InboundCapacity, bus.DropOldest)
	return scheduler.New(cfg.Scheduler.PersistPath, inbound,
		scheduler.WithTickInterval(cfg.TickInterval()),
		scheduler.WithLogger(logger.Slog()),
	)
}

// Close releases the sandbox backend and stops the scheduler. It does
// not stop the mcp Manager; server connections close as the process
// exits.
func (a *App) Close() error {
	a.sched.Stop()
	return a.backend.Close()
}
