// Package fs implements the filesystem tools (read_file, write_file,
// edit_file, list_dir) backed by the sandbox executor (spec.md §4.4,
// §6).
package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/relaykit/agentcore/internal/models"
	"github.com/relaykit/agentcore/internal/sandbox"
)

type readFileTool struct{ exec *sandbox.Executor }

// NewReadFileTool returns the read_file tool.
func NewReadFileTool(exec *sandbox.Executor) *readFileTool { return &readFileTool{exec: exec} }

func (t *readFileTool) Name() string        { return "read_file" }
func (t *readFileTool) Description() string { return "Read the contents of a file in the workspace." }
func (t *readFileTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {"path": {"type": "string", "description": "Path to the file, relative to the workspace root."}},
		"required": ["path"]
	}`)
}

func (t *readFileTool) Execute(ctx context.Context, _ string, params json.RawMessage) (models.ToolResult, error) {
	var p struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return models.Error(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	content, err := t.exec.ReadFile(ctx, p.Path)
	if err != nil {
		if isAccessDenial(err) {
			return models.AccessDenied(err.Error()), nil
		}
		return models.Error(err.Error()), nil
	}
	return models.Success(content), nil
}

type writeFileTool struct{ exec *sandbox.Executor }

// NewWriteFileTool returns the write_file tool.
func NewWriteFileTool(exec *sandbox.Executor) *writeFileTool { return &writeFileTool{exec: exec} }

func (t *writeFileTool) Name() string { return "write_file" }
func (t *writeFileTool) Description() string {
	return "Create or overwrite a file in the workspace with the given content."
}
func (t *writeFileTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"path": {"type": "string"},
			"content": {"type": "string"}
		},
		"required": ["path", "content"]
	}`)
}

func (t *writeFileTool) Execute(ctx context.Context, _ string, params json.RawMessage) (models.ToolResult, error) {
	var p struct {
		Path    string `json:"path"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return models.Error(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if err := t.exec.WriteFile(ctx, p.Path, p.Content); err != nil {
		if isAccessDenial(err) {
			return models.AccessDenied(err.Error()), nil
		}
		return models.Error(err.Error()), nil
	}
	return models.Success(fmt.Sprintf("wrote %d bytes to %s", len(p.Content), p.Path)), nil
}

type editFileTool struct{ exec *sandbox.Executor }

// NewEditFileTool returns the edit_file tool: an exact single-occurrence
// string replacement, grounded on spec.md §4.4's edit_file invariant that
// old_string must match exactly once.
func NewEditFileTool(exec *sandbox.Executor) *editFileTool { return &editFileTool{exec: exec} }

func (t *editFileTool) Name() string { return "edit_file" }
func (t *editFileTool) Description() string {
	return "Replace an exact, unique occurrence of old_string with new_string in a file."
}
func (t *editFileTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"path": {"type": "string"},
			"old_string": {"type": "string"},
			"new_string": {"type": "string"}
		},
		"required": ["path", "old_string", "new_string"]
	}`)
}

func (t *editFileTool) Execute(ctx context.Context, _ string, params json.RawMessage) (models.ToolResult, error) {
	var p struct {
		Path      string `json:"path"`
		OldString string `json:"old_string"`
		NewString string `json:"new_string"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return models.Error(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if p.OldString == p.NewString {
		return models.Error("old_string and new_string must differ"), nil
	}

	content, err := t.exec.ReadFile(ctx, p.Path)
	if err != nil {
		if isAccessDenial(err) {
			return models.AccessDenied(err.Error()), nil
		}
		return models.Error(err.Error()), nil
	}

	count := strings.Count(content, p.OldString)
	if count == 0 {
		return models.Error("old_string not found in file"), nil
	}
	if count > 1 {
		return models.Error(fmt.Sprintf("old_string is not unique: found %d occurrences", count)), nil
	}

	updated := strings.Replace(content, p.OldString, p.NewString, 1)
	if err := t.exec.WriteFile(ctx, p.Path, updated); err != nil {
		if isAccessDenial(err) {
			return models.AccessDenied(err.Error()), nil
		}
		return models.Error(err.Error()), nil
	}
	return models.Success(fmt.Sprintf("edited %s", p.Path)), nil
}

type listDirTool struct{ exec *sandbox.Executor }

// NewListDirTool returns the list_dir tool.
func NewListDirTool(exec *sandbox.Executor) *listDirTool { return &listDirTool{exec: exec} }

func (t *listDirTool) Name() string        { return "list_dir" }
func (t *listDirTool) Description() string { return "List the entries of a directory in the workspace." }
func (t *listDirTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {"path": {"type": "string"}},
		"required": ["path"]
	}`)
}

func (t *listDirTool) Execute(ctx context.Context, _ string, params json.RawMessage) (models.ToolResult, error) {
	var p struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return models.Error(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	entries, err := t.exec.ListDir(ctx, p.Path)
	if err != nil {
		if isAccessDenial(err) {
			return models.AccessDenied(err.Error()), nil
		}
		return models.Error(err.Error()), nil
	}
	return models.Success(strings.Join(entries, "\n")), nil
}

func isAccessDenial(err error) bool {
	return strings.Contains(err.Error(), "denied") || strings.Contains(err.Error(), "escapes workspace")
}
