package models

// ToolResultStatus is the tagged-variant discriminator for ToolResult.
type ToolResultStatus string

const (
	// StatusSuccess indicates the tool completed normally.
	StatusSuccess ToolResultStatus = "success"
	// StatusError indicates a transport/logic failure, not a security denial.
	StatusError ToolResultStatus = "error"
	// StatusAccessDenied is reserved for policy/security denials: workspace
	// escape, SSRF block, or a denied command pattern. A rate-limit
	// rejection is reported as StatusError.
	StatusAccessDenied ToolResultStatus = "access_denied"
)

// ToolResult is the uniform outcome of any tool invocation. Content is
// always the model-visible payload string.
type ToolResult struct {
	Status  ToolResultStatus `json:"status"`
	Content string           `json:"content"`
}

// Success builds a ToolResult in the Success state.
func Success(content string) ToolResult {
	return ToolResult{Status: StatusSuccess, Content: content}
}

// Error builds a ToolResult in the Error state.
func Error(content string) ToolResult {
	return ToolResult{Status: StatusError, Content: content}
}

// AccessDenied builds a ToolResult in the AccessDenied state.
func AccessDenied(content string) ToolResult {
	return ToolResult{Status: StatusAccessDenied, Content: content}
}

// IsError reports whether the result represents a non-success outcome of
// any kind (Error or AccessDenied).
func (r ToolResult) IsError() bool {
	return r.Status == StatusError || r.Status == StatusAccessDenied
}
