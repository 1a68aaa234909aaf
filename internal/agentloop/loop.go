// Package agentloop drives one agent turn per InboundMessage: building the
// provider request, dispatching any requested tool calls through the
// registry, and appending a consistent sequence of records to the
// session (spec.md §4.9).
package agentloop

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/relaykit/agentcore/internal/bus"
	"github.com/relaykit/agentcore/internal/contextbuilder"
	"github.com/relaykit/agentcore/internal/models"
	"github.com/relaykit/agentcore/internal/provider"
	"github.com/relaykit/agentcore/internal/sessions"
	"github.com/relaykit/agentcore/internal/tools"
)

// DefaultMaxToolIterations caps the number of tool-call round trips within
// a single turn before the loop gives up and surfaces a notice.
const DefaultMaxToolIterations = 20

const spawnToolName = "spawn"

// ownerLock is a refcounted, non-reentrant mutex keyed by ownerKey: the
// same pattern the teacher uses to serialize turns per session. refs
// counts the turns holding or waiting on the entry, letting it disappear
// from the map once no turn references it.
type ownerLock struct {
	mu   sync.Mutex
	refs int
}

// Config wires a Loop's dependencies.
type Config struct {
	Store     sessions.Store
	Registry  *tools.Registry
	Provider  provider.Provider
	Outbound  *bus.Bus[models.OutboundMessage]
	Model     string
	MaxTokens int
	// MaxIterations overrides DefaultMaxToolIterations when > 0.
	MaxIterations int
	// SystemPrompt builds the system prompt for a turn; background is true
	// for system/cron-originated turns, which get a minimal prompt and
	// never auto-publish their final text (spec.md §4.9).
	SystemPrompt func(background bool) string
	Logger       *slog.Logger
}

// Loop drives turns for every ownerKey sharing this configuration.
type Loop struct {
	store         sessions.Store
	registry      *tools.Registry
	provider      provider.Provider
	outbound      *bus.Bus[models.OutboundMessage]
	model         string
	maxTokens     int
	maxIterations int
	systemPrompt  func(background bool) string
	logger        *slog.Logger

	locksMu sync.Mutex
	locks   map[string]*ownerLock
}

// New constructs a Loop from cfg.
func New(cfg Config) *Loop {
	maxIter := cfg.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxToolIterations
	}
	sp := cfg.SystemPrompt
	if sp == nil {
		sp = defaultSystemPrompt
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		store:         cfg.Store,
		registry:      cfg.Registry,
		provider:      cfg.Provider,
		outbound:      cfg.Outbound,
		model:         cfg.Model,
		maxTokens:     cfg.MaxTokens,
		maxIterations: maxIter,
		systemPrompt:  sp,
		logger:        logger,
		locks:         make(map[string]*ownerLock),
	}
}

func defaultSystemPrompt(background bool) string {
	if background {
		return "You are a background monitoring task running on a schedule. Only use the message tool if the recipient should actually be notified; otherwise finish silently."
	}
	return "You are a helpful assistant with access to tools. Use them when they help answer the user accurately."
}

// lockOwner acquires the serialization lock for ownerKey, blocking until
// any other turn for the same owner has released it, and returns a
// function that releases it.
func (l *Loop) lockOwner(ownerKey string) func() {
	l.locksMu.Lock()
	lock := l.locks[ownerKey]
	if lock == nil {
		lock = &ownerLock{}
		l.locks[ownerKey] = lock
	}
	lock.refs++
	l.locksMu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		l.locksMu.Lock()
		lock.refs--
		if lock.refs <= 0 {
			delete(l.locks, ownerKey)
		}
		l.locksMu.Unlock()
	}
}

// RunTurn executes one full turn for msg. It never returns a
// transport-facing error for provider or tool failures — those are
// converted into a user-visible assistant message and a matching session
// record per spec.md §7; RunTurn only returns an error for session-store
// failures or context cancellation.
func (l *Loop) RunTurn(ctx context.Context, msg models.InboundMessage) error {
	ownerKey := msg.OwnerKey()
	unlock := l.lockOwner(ownerKey)
	defer unlock()

	background := msg.IsBackground()

	priorHistory, err := l.store.Load(ownerKey)
	if err != nil {
		return fmt.Errorf("agentloop: load history: %w", err)
	}
	userRecord := models.NewUserTextRecord(msg.Content, msg.MediaAttachments)
	if err := l.store.Append(ownerKey, userRecord); err != nil {
		return fmt.Errorf("agentloop: append user record: %w", err)
	}

	exclude := []string{}
	if background {
		exclude = append(exclude, spawnToolName)
	}
	toolDefs := toContextBuilderDefs(l.registry.Definitions(exclude...))
	system := l.systemPrompt(background)

	// turnRecords is the request-building view of history: it starts as
	// everything before this turn, and current (the inbound message
	// itself) supplies the trailing user block for the first provider
	// call only. Once that call returns, the user message is folded into
	// turnRecords as a plain record and current is cleared, so later
	// iterations (after tool calls) see it in its correct position
	// instead of repeated after the tool records.
	turnRecords := append([]models.TurnRecord(nil), priorHistory...)
	current := &msg
	userFolded := false

	for iteration := 0; ; iteration++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if iteration >= l.maxIterations {
			notice := "tool iteration limit reached"
			if err := l.store.Append(ownerKey, models.NewAssistantTextRecord(notice)); err != nil {
				return fmt.Errorf("agentloop: append overflow record: %w", err)
			}
			l.publish(msg, notice)
			return nil
		}

		req := contextbuilder.Build(system, turnRecords, current, toolDefs, l.model, l.maxTokens)

		resp, err := l.provider.Complete(ctx, req)
		if err != nil {
			l.logger.Warn("provider call failed", "owner", ownerKey, "error", err)
			failure := models.NewAssistantTextRecord(fmt.Sprintf("[provider error] %v", err))
			if appendErr := l.store.Append(ownerKey, failure); appendErr != nil {
				return fmt.Errorf("agentloop: append provider-failure record: %w", appendErr)
			}
			l.publish(msg, "Sorry, I ran into a problem talking to the model and couldn't finish this request.")
			return nil
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		if !userFolded {
			turnRecords = append(turnRecords, userRecord)
			current = nil
			userFolded = true
		}

		if len(resp.ToolCalls) == 0 {
			record := models.NewAssistantTextRecord(resp.Text)
			if err := l.store.Append(ownerKey, record); err != nil {
				return fmt.Errorf("agentloop: append assistant record: %w", err)
			}
			if !background {
				l.publish(msg, resp.Text)
			}
			return nil
		}

		for _, call := range resp.ToolCalls {
			callRecord := models.NewToolCallRecord(call.ID, call.Name, string(call.Args))
			if err := l.store.Append(ownerKey, callRecord); err != nil {
				return fmt.Errorf("agentloop: append tool-call record: %w", err)
			}
			turnRecords = append(turnRecords, callRecord)

			result := l.registry.Execute(ctx, ownerKey, call.Name, call.Args)

			resultRecord := models.NewToolResultRecord(call.ID, result.Status, result.Content)
			if err := l.store.Append(ownerKey, resultRecord); err != nil {
				return fmt.Errorf("agentloop: append tool-result record: %w", err)
			}
			turnRecords = append(turnRecords, resultRecord)
		}
	}
}

// RunSubTurn executes an isolated, non-persistent sub-turn for prompt and
// returns the assistant's final text. It implements the spawn tool's
// Spawner interface. It never acquires ownerKey's turn lock, since the
// caller (the spawn tool, dispatched from within RunTurn) already holds
// it, and it never touches the caller's session or publishes to the
// outbound bus — only the returned text reaches the parent turn, as the
// spawn tool's own ToolResult content.
func (l *Loop) RunSubTurn(ctx context.Context, ownerKey, prompt string) (string, error) {
	subMsg := models.InboundMessage{Channel: "system", ChatID: ownerKey, SenderID: "spawn", Content: prompt}

	toolDefs := toContextBuilderDefs(l.registry.Definitions(spawnToolName))
	system := "You are a sub-agent completing a focused task delegated by another agent. There is no follow-up turn: give your final answer directly."

	var turnRecords []models.TurnRecord
	current := &subMsg

	for iteration := 0; iteration < l.maxIterations; iteration++ {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		req := contextbuilder.Build(system, turnRecords, current, toolDefs, l.model, l.maxTokens)
		resp, err := l.provider.Complete(ctx, req)
		if err != nil {
			return "", fmt.Errorf("agentloop: spawn: provider: %w", err)
		}

		if current != nil {
			turnRecords = append(turnRecords, models.NewUserTextRecord(subMsg.Content, nil))
			current = nil
		}

		if len(resp.ToolCalls) == 0 {
			return resp.Text, nil
		}

		for _, call := range resp.ToolCalls {
			turnRecords = append(turnRecords, models.NewToolCallRecord(call.ID, call.Name, string(call.Args)))
			result := l.registry.Execute(ctx, ownerKey, call.Name, call.Args)
			turnRecords = append(turnRecords, models.NewToolResultRecord(call.ID, result.Status, result.Content))
		}
	}
	return "", fmt.Errorf("agentloop: spawn: tool iteration limit reached")
}

func (l *Loop) publish(msg models.InboundMessage, content string) {
	if l.outbound == nil || strings.TrimSpace(content) == "" {
		return
	}
	l.outbound.Publish(models.OutboundMessage{Channel: msg.Channel, ChatID: msg.ChatID, Content: content})
}

func toContextBuilderDefs(defs []tools.Definition) []contextbuilder.ToolDefinition {
	out := make([]contextbuilder.ToolDefinition, len(defs))
	for i, d := range defs {
		out[i] = contextbuilder.ToolDefinition{Name: d.Name, Description: d.Description, Parameters: d.Parameters}
	}
	return out
}
