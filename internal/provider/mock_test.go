package provider

import (
	"context"
	"errors"
	"testing"
)

func TestMockProviderReturnsScriptedResponsesInOrder(t *testing.T) {
	m := NewMockProvider(
		CompletionResponse{Text: "first"},
		CompletionResponse{Text: "second"},
	)
	r1, _ := m.Complete(context.Background(), CompletionRequest{})
	r2, _ := m.Complete(context.Background(), CompletionRequest{})
	r3, _ := m.Complete(context.Background(), CompletionRequest{})
	if r1.Text != "first" || r2.Text != "second" || r3.Text != "second" {
		t.Fatalf("got %q %q %q", r1.Text, r2.Text, r3.Text)
	}
	if m.CallCount() != 3 {
		t.Fatalf("got %d calls", m.CallCount())
	}
}

func TestMockProviderReturnsConfiguredError(t *testing.T) {
	m := NewMockProvider()
	m.Err = errors.New("boom")
	_, err := m.Complete(context.Background(), CompletionRequest{})
	if err == nil {
		t.Fatal("expected configured error")
	}
}
