package tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/relaykit/agentcore/internal/models"
	"github.com/relaykit/agentcore/internal/ratelimit"
)

type echoTool struct {
	panics bool
}

func (echoTool) Name() string        { return "echo" }
func (echoTool) Description() string { return "echoes the message parameter" }
func (echoTool) Parameters() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"message":{"type":"string"}},"required":["message"]}`)
}
func (t echoTool) Execute(_ context.Context, _ string, params json.RawMessage) (models.ToolResult, error) {
	if t.panics {
		panic("boom")
	}
	var p struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(params, &p)
	return models.Success(p.Message), nil
}

func TestRegistryExecuteSuccess(t *testing.T) {
	r := NewRegistry(nil, nil)
	if err := r.Register(echoTool{}); err != nil {
		t.Fatalf("register: %v", err)
	}
	res := r.Execute(context.Background(), "owner", "echo", json.RawMessage(`{"message":"hi"}`))
	if res.IsError() {
		t.Fatalf("unexpected error result: %+v", res)
	}
	if res.Content != "hi" {
		t.Fatalf("got %q", res.Content)
	}
}

func TestRegistryExecuteUnknownTool(t *testing.T) {
	r := NewRegistry(nil, nil)
	res := r.Execute(context.Background(), "owner", "missing", nil)
	if !res.IsError() {
		t.Fatal("expected error for unknown tool")
	}
}

func TestRegistryExecuteValidationFailure(t *testing.T) {
	r := NewRegistry(nil, nil)
	_ = r.Register(echoTool{})
	res := r.Execute(context.Background(), "owner", "echo", json.RawMessage(`{}`))
	if !res.IsError() {
		t.Fatal("expected validation error for missing required field")
	}
}

func TestRegistryExecuteRecoversFromPanic(t *testing.T) {
	r := NewRegistry(nil, nil)
	_ = r.Register(echoTool{panics: true})
	res := r.Execute(context.Background(), "owner", "echo", json.RawMessage(`{"message":"hi"}`))
	if !res.IsError() {
		t.Fatal("expected panic to be converted into an error result")
	}
}

func TestRegistryExecuteRateLimited(t *testing.T) {
	limiter := ratelimit.New(1, time.Minute)
	multi := ratelimit.NewMultiLimiter().Add("global", limiter)
	r := NewRegistry(multi, nil)
	_ = r.Register(echoTool{})

	first := r.Execute(context.Background(), "owner", "echo", json.RawMessage(`{"message":"a"}`))
	if first.IsError() {
		t.Fatalf("expected first call to succeed, got %+v", first)
	}
	second := r.Execute(context.Background(), "owner", "echo", json.RawMessage(`{"message":"b"}`))
	if second.Status != models.StatusError {
		t.Fatalf("expected second call to be rate limited, got %+v", second)
	}
	if !strings.Contains(second.Content, "Rate limit exceeded") {
		t.Fatalf("expected rate limit message, got %+v", second)
	}
}

func TestRegistryDefinitionsExcludesNames(t *testing.T) {
	r := NewRegistry(nil, nil)
	_ = r.Register(echoTool{})
	defs := r.Definitions("echo")
	if len(defs) != 0 {
		t.Fatalf("expected echo to be excluded, got %v", defs)
	}
	defs = r.Definitions()
	if len(defs) != 1 || defs[0].Name != "echo" {
		t.Fatalf("expected echo definition, got %v", defs)
	}
}
