package netssrf

import (
	"errors"
	"fmt"
)

// BlockedError is returned whenever a URL, hostname, or resolved address is
// rejected by SSRF validation. Callers translate this into a ToolResult in
// the AccessDenied state (spec.md §4.5, §7).
type BlockedError struct {
	Reason string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("blocked: %s", e.Reason)
}

// NewBlockedError builds a BlockedError with the given reason.
func NewBlockedError(reason string) error {
	return &BlockedError{Reason: reason}
}

// IsBlocked reports whether err is (or wraps) a BlockedError.
func IsBlocked(err error) bool {
	var blocked *BlockedError
	return errors.As(err, &blocked)
}
