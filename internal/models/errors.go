package models

import "fmt"

func errUnmatchedToolResult(callID string) error {
	return fmt.Errorf("tool result for unknown call id %q", callID)
}

func errUnresolvedToolCall(callID string) error {
	return fmt.Errorf("tool call %q has no matching result", callID)
}
