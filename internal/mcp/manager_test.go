package mcp

import "testing"

func TestAllowedMatchesExactAndWildcard(t *testing.T) {
	patterns := []string{"search", "fs_*"}
	cases := map[string]bool{
		"search":     true,
		"fs_read":    true,
		"fs_write":   true,
		"other_tool": false,
	}
	for name, want := range cases {
		if got := allowed(patterns, name); got != want {
			t.Errorf("allowed(%v, %q) = %v, want %v", patterns, name, got, want)
		}
	}
}

func TestAllowedEmptyPatternsAllowsEverything(t *testing.T) {
	if !allowed(nil, "anything") {
		t.Error("expected empty allow list to permit every tool")
	}
}
