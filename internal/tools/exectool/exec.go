// Package exectool implements the exec tool: it runs execsafety's policy
// checks before handing the command to the sandbox executor (spec.md
// §4.3, §4.4).
package exectool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/relaykit/agentcore/internal/execsafety"
	"github.com/relaykit/agentcore/internal/models"
	"github.com/relaykit/agentcore/internal/sandbox"
)

// Config controls how the exec tool validates and dispatches commands.
type Config struct {
	// Sandboxed indicates the tool is wired to an isolated executor, which
	// enables the simple-command-mode restrictions in execsafety.
	Sandboxed bool
	// FullShell allows arbitrary shell syntax when true. Mutually
	// exclusive with Sandboxed (checked at construction).
	FullShell bool
	// WorkspaceRoot is the directory commands' working directories are
	// rebased onto and, when Sandboxed, must stay within.
	WorkspaceRoot string
	// DefaultTimeoutMs is used when a call omits timeout_ms.
	DefaultTimeoutMs int64
}

// Tool is the exec tool implementation.
type Tool struct {
	cfg  Config
	exec *sandbox.Executor
}

// New constructs the exec tool, enforcing the sandboxed/full-shell
// mutual-exclusion check at construction time.
func New(cfg Config, exec *sandbox.Executor) (*Tool, error) {
	if err := execsafety.ValidateConstruction(cfg.Sandboxed, cfg.FullShell); err != nil {
		return nil, err
	}
	if cfg.DefaultTimeoutMs <= 0 {
		cfg.DefaultTimeoutMs = 30_000
	}
	return &Tool{cfg: cfg, exec: exec}, nil
}

func (t *Tool) Name() string        { return "exec" }
func (t *Tool) Description() string { return "Run a shell command in the workspace sandbox." }
func (t *Tool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"command": {"type": "string"},
			"stdin": {"type": "string"},
			"working_dir": {"type": "string"},
			"timeout_ms": {"type": "integer"}
		},
		"required": ["command"]
	}`)
}

func (t *Tool) Execute(ctx context.Context, _ string, params json.RawMessage) (models.ToolResult, error) {
	var p struct {
		Command    string `json:"command"`
		Stdin      string `json:"stdin"`
		WorkingDir string `json:"working_dir"`
		TimeoutMs  int64  `json:"timeout_ms"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return models.Error(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	if err := execsafety.ValidateCommand(p.Command, t.cfg.Sandboxed); err != nil {
		return models.AccessDenied(err.Error()), nil
	}

	workingDir, err := execsafety.ResolveWorkingDir(t.cfg.WorkspaceRoot, p.WorkingDir, t.cfg.Sandboxed)
	if err != nil {
		return models.AccessDenied(err.Error()), nil
	}

	timeout := p.TimeoutMs
	if timeout <= 0 {
		timeout = t.cfg.DefaultTimeoutMs
	}

	res, err := t.exec.Exec(ctx, p.Command, p.Stdin, workingDir, timeout)
	if err != nil {
		return models.Error(err.Error()), nil
	}

	content := res.Stdout
	if res.Stderr != "" {
		content = fmt.Sprintf("%s\nSTDERR:\n%s", content, res.Stderr)
	}
	if res.ExitCode != 0 {
		content = fmt.Sprintf("%s\nExit code: %d", content, res.ExitCode)
	}
	return models.Success(content), nil
}
