package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/relaykit/agentcore/internal/models"
	"github.com/relaykit/agentcore/internal/ratelimit"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

type registeredTool struct {
	tool   Tool
	schema *jsonschema.Schema
}

// Registry holds every tool available to the agent loop and applies, in
// order, rate limiting, JSON-schema validation, and panic-safe dispatch
// before returning a models.ToolResult (spec.md §4.4).
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]registeredTool
	limiter *ratelimit.MultiLimiter
	logger  *slog.Logger
}

// NewRegistry constructs an empty Registry. limiter may be nil to disable
// rate limiting entirely (e.g. in tests).
func NewRegistry(limiter *ratelimit.MultiLimiter, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		tools:   make(map[string]registeredTool),
		limiter: limiter,
		logger:  logger,
	}
}

// Register compiles tool's JSON schema and adds it to the registry,
// replacing any existing tool with the same name.
func (r *Registry) Register(tool Tool) error {
	compiler := jsonschema.NewCompiler()
	schemaBytes := tool.Parameters()
	if len(schemaBytes) == 0 {
		schemaBytes = []byte(`{"type":"object"}`)
	}
	resourceName := tool.Name() + ".json"
	if err := compiler.AddResource(resourceName, toJSONValue(schemaBytes)); err != nil {
		return fmt.Errorf("tools: compile schema for %s: %w", tool.Name(), err)
	}
	schema, err := compiler.Compile(resourceName)
	if err != nil {
		return fmt.Errorf("tools: invalid schema for %s: %w", tool.Name(), err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name()] = registeredTool{tool: tool, schema: schema}
	return nil
}

// Unregister removes a tool by name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, name)
}

// Get returns the tool registered under name, if any.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rt, ok := r.tools[name]
	if !ok {
		return nil, false
	}
	return rt.tool, true
}

// Definitions returns the model-facing view of every registered tool,
// excluding any name present in exclude (used to strip tools such as
// "spawn" from background/cron turns).
func (r *Registry) Definitions(exclude ...string) []Definition {
	skip := make(map[string]bool, len(exclude))
	for _, n := range exclude {
		skip[n] = true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]Definition, 0, len(r.tools))
	for name, rt := range r.tools {
		if skip[name] {
			continue
		}
		defs = append(defs, Definition{
			Name:        name,
			Description: rt.tool.Description(),
			Parameters:  rt.tool.Parameters(),
		})
	}
	return defs
}

// Execute runs the named tool for ownerKey: it checks the rate limiter,
// validates params against the tool's JSON schema, and recovers from any
// panic raised during execution, converting each failure mode into a
// models.ToolResult rather than propagating an error.
func (r *Registry) Execute(ctx context.Context, ownerKey, name string, params json.RawMessage) models.ToolResult {
	r.mu.RLock()
	rt, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		r.logger.Warn("tool not found", "tool", name, "owner", ownerKey)
		return models.Error(fmt.Sprintf("tool not found: %s", name))
	}

	if r.limiter != nil {
		dims := map[string]string{
			"tool":         name,
			"session_tool": ownerKey + ":" + name,
			"global":       "global",
		}
		if rejected, ok := r.limiter.Check(dims); !ok {
			r.logger.Warn("tool call rate limited", "tool", name, "owner", ownerKey, "dimension", rejected)
			return models.Error(fmt.Sprintf("Rate limit exceeded: %s", rejected))
		}
	}

	if len(params) == 0 {
		params = []byte(`{}`)
	}
	var decoded any
	if err := json.Unmarshal(params, &decoded); err != nil {
		return models.Error(fmt.Sprintf("invalid parameters: %v", err))
	}
	if err := rt.schema.Validate(decoded); err != nil {
		r.logger.Warn("tool call failed validation", "tool", name, "owner", ownerKey, "error", err)
		return models.Error(fmt.Sprintf("invalid parameters: %v", err))
	}

	return r.dispatch(ctx, rt.tool, ownerKey, name, params)
}

func (r *Registry) dispatch(ctx context.Context, tool Tool, ownerKey, name string, params json.RawMessage) (result models.ToolResult) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("tool panicked", "tool", name, "owner", ownerKey, "recover", rec)
			result = models.Error(fmt.Sprintf("tool %s crashed", name))
		}
	}()

	res, err := tool.Execute(ctx, ownerKey, params)
	if err != nil {
		r.logger.Warn("tool execution error", "tool", name, "owner", ownerKey, "error", err)
		return models.Error(err.Error())
	}
	r.logger.Info("tool executed", "tool", name, "owner", ownerKey, "status", res.Status)
	return res
}

func toJSONValue(b []byte) any {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return map[string]any{"type": "object"}
	}
	return v
}
