package provider

import (
	"encoding/json"
	"testing"
)

func TestNewAnthropicProviderRequiresAPIKey(t *testing.T) {
	if _, err := NewAnthropicProvider(AnthropicConfig{}); err == nil {
		t.Fatal("expected an error when APIKey is empty")
	}
}

func TestNewAnthropicProviderAppliesDefaults(t *testing.T) {
	p, err := NewAnthropicProvider(AnthropicConfig{APIKey: "sk-ant-test"})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	if p.Name() != "anthropic" {
		t.Fatalf("expected name anthropic, got %q", p.Name())
	}
	if p.defaultModel == "" || p.maxRetries <= 0 || p.retryDelay <= 0 {
		t.Fatalf("expected defaults to be applied, got %+v", p)
	}
}

func TestConvertMessagesSkipsSystemRoleAndEmptyContent(t *testing.T) {
	messages := []Message{
		{Role: RoleSystem, Content: []ContentBlock{{Type: "text", Text: "ignored"}}},
		{Role: RoleUser, Content: []ContentBlock{{Type: "text", Text: "hi"}}},
		{Role: RoleAssistant, Content: nil},
	}
	out, err := convertMessages(messages)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected system and empty messages to be dropped, got %d", len(out))
	}
}

func TestConvertMessagesRejectsMalformedToolArgs(t *testing.T) {
	messages := []Message{
		{Role: RoleAssistant, Content: []ContentBlock{
			{Type: "tool_call", ToolCallID: "c1", ToolName: "echo", ToolArgs: json.RawMessage(`not json`)},
		}},
	}
	if _, err := convertMessages(messages); err == nil {
		t.Fatal("expected an error for malformed tool call args")
	}
}

func TestConvertToolsRejectsInvalidSchema(t *testing.T) {
	tools := []ToolDefinition{{Name: "bad", Parameters: json.RawMessage(`not json`)}}
	if _, err := convertTools(tools); err == nil {
		t.Fatal("expected an error for an invalid tool schema")
	}
}

func TestConvertToolsAcceptsObjectSchema(t *testing.T) {
	tools := []ToolDefinition{{
		Name:        "echo",
		Description: "echoes input",
		Parameters:  json.RawMessage(`{"type":"object","properties":{"text":{"type":"string"}}}`),
	}}
	out, err := convertTools(tools)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected one converted tool, got %d", len(out))
	}
}
