// Package memory implements windowed session consolidation: once a
// session's history grows past a configured window, older records are
// collapsed into a single summary record so the context builder never
// has to send an unbounded history to the provider (spec.md §4.9).
package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/relaykit/agentcore/internal/models"
	"github.com/relaykit/agentcore/internal/provider"
	"github.com/relaykit/agentcore/internal/sessions"
)

// Summarizer produces a compact summary of a block of history. The
// default summarizer (ProviderSummarizer) asks the same Provider the
// turn loop uses; callers may substitute a cheaper model or a
// stdlib-only fallback.
type Summarizer interface {
	Summarize(ctx context.Context, records []models.TurnRecord) (string, error)
}

// ProviderSummarizer summarizes by asking an LLM provider.
type ProviderSummarizer struct {
	Provider provider.Provider
	Model    string
}

func (s ProviderSummarizer) Summarize(ctx context.Context, records []models.TurnRecord) (string, error) {
	transcript := renderTranscript(records)
	resp, err := s.Provider.Complete(ctx, provider.CompletionRequest{
		Model:  s.Model,
		System: "Summarize the following conversation history concisely, preserving key facts, decisions, and open tasks.",
		Messages: []provider.Message{
			{Role: provider.RoleUser, Content: []provider.ContentBlock{{Type: "text", Text: transcript}}},
		},
		MaxTokens: 512,
	})
	if err != nil {
		return "", fmt.Errorf("memory: summarize via provider: %w", err)
	}
	return resp.Text, nil
}

func renderTranscript(records []models.TurnRecord) string {
	var b strings.Builder
	for _, r := range records {
		switch r.Kind {
		case models.RecordUserText:
			fmt.Fprintf(&b, "user: %s\n", r.Text)
		case models.RecordAssistantText:
			fmt.Fprintf(&b, "assistant: %s\n", r.Text)
		case models.RecordToolCall:
			fmt.Fprintf(&b, "assistant called %s(%s)\n", r.ToolName, r.Arguments)
		case models.RecordToolResult:
			fmt.Fprintf(&b, "tool result [%s]: %s\n", r.Status, r.Content)
		}
	}
	return b.String()
}

// Config controls when consolidation kicks in.
type Config struct {
	// WindowSize is the number of most recent records kept verbatim.
	// Consolidate is a no-op when the session has WindowSize or fewer
	// records.
	WindowSize int
}

// DefaultWindowSize matches spec.md §4.9's default memory_window.
const DefaultWindowSize = 40

// Manager consolidates a single owner's session history on demand.
// Consolidation is never triggered automatically mid-turn: it only runs
// when the caller holds no turn lock for that owner, so it cannot race
// the turn loop's own appends to the same session.
type Manager struct {
	store      sessions.Store
	summarizer Summarizer
	windowSize int
}

// NewManager constructs a Manager. windowSize <= 0 uses DefaultWindowSize.
func NewManager(store sessions.Store, summarizer Summarizer, windowSize int) *Manager {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	return &Manager{store: store, summarizer: summarizer, windowSize: windowSize}
}

// Consolidate loads ownerKey's history and, if it exceeds the configured
// window, replaces everything older than the trailing window with a
// single assistant-text summary record.
func (m *Manager) Consolidate(ctx context.Context, ownerKey string) error {
	records, err := m.store.Load(ownerKey)
	if err != nil {
		return fmt.Errorf("memory: load %s: %w", ownerKey, err)
	}
	if len(records) <= m.windowSize {
		return nil
	}

	cut := len(records) - m.windowSize
	older, recent := records[:cut], records[cut:]

	summary, err := m.summarizer.Summarize(ctx, older)
	if err != nil {
		return err
	}

	consolidated := make([]models.TurnRecord, 0, len(recent)+1)
	consolidated = append(consolidated, models.NewAssistantTextRecord("[earlier conversation summary]\n"+summary))
	consolidated = append(consolidated, recent...)

	return m.store.Replace(ownerKey, consolidated)
}
