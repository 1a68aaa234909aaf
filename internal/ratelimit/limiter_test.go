package ratelimit

import (
	"testing"
	"time"
)

func TestMonotonicityAfterKAcceptedCallsKPlus1IsRejected(t *testing.T) {
	l := New(10, time.Minute)
	for i := 0; i < 10; i++ {
		if !l.AllowAndRecord("session-1") {
			t.Fatalf("call %d should have been accepted", i+1)
		}
	}
	if l.AllowAndRecord("session-1") {
		t.Fatal("11th call should have been rejected")
	}
}

func TestWindowSlideResumesAcceptance(t *testing.T) {
	current := time.Now()
	l := New(2, time.Second).WithClock(func() time.Time { return current })

	if !l.AllowAndRecord("k") || !l.AllowAndRecord("k") {
		t.Fatal("first two calls should be accepted")
	}
	if l.AllowAndRecord("k") {
		t.Fatal("third call within window should be rejected")
	}

	current = current.Add(2 * time.Second)
	if !l.AllowAndRecord("k") {
		t.Fatal("call after window slides past should be accepted")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	l := New(1, time.Minute)
	if !l.AllowAndRecord("a") {
		t.Fatal("first call for key a should be accepted")
	}
	if !l.AllowAndRecord("b") {
		t.Fatal("first call for key b should be accepted regardless of a")
	}
	if l.AllowAndRecord("a") {
		t.Fatal("second call for key a should be rejected")
	}
}

func TestMultiLimiterRejectsIfAnyDimensionRejects(t *testing.T) {
	m := NewMultiLimiter()
	m.Add("tool", New(1, time.Minute))
	m.Add("session", New(100, time.Minute))

	dims := map[string]string{"tool": "exec", "session": "s1"}
	if _, ok := m.Check(dims); !ok {
		t.Fatal("first call should be allowed")
	}
	name, ok := m.Check(dims)
	if ok {
		t.Fatal("second call should be rejected by the tool-global dimension")
	}
	if name != "tool" {
		t.Fatalf("expected rejection to report dimension %q, got %q", "tool", name)
	}
	// Session dimension must not have been incremented by the rejected call.
	if m.limiters["session"].Count("s1") != 1 {
		t.Fatalf("session dimension should still show 1 recorded call, got %d", m.limiters["session"].Count("s1"))
	}
}

func TestResetClearsKey(t *testing.T) {
	l := New(1, time.Minute)
	l.AllowAndRecord("k")
	if l.AllowAndRecord("k") {
		t.Fatal("expected rejection before reset")
	}
	l.Reset("k")
	if !l.AllowAndRecord("k") {
		t.Fatal("expected acceptance after reset")
	}
}
