package sandbox

import (
	"context"
	"encoding/base64"
	"fmt"
	"os/exec"
	"strings"
)

// OneshotBackend wraps every operation — including plain file reads and
// writes — in a fresh invocation of a sandboxing command (spec.md §4.2
// item 2: "each operation spawns a fresh sandboxed shell invocation",
// as opposed to the persistent back-end's long-lived helper process).
//
// Wrapper defaults to bubblewrap when present on PATH; WrapperArgs lets
// callers supply the bind-mount/namespace flags for their deployment.
// When no wrapper binary is configured, commands run unwrapped (useful
// in CI or containers that are already isolated one level up).
type OneshotBackend struct {
	Wrapper     string
	WrapperArgs []string
}

// NewOneshotBackend constructs a OneshotBackend. If wrapper is empty and
// "bwrap" is found on PATH, it is used with a minimal read-only root bind.
func NewOneshotBackend(wrapper string, wrapperArgs []string) *OneshotBackend {
	if wrapper == "" {
		if path, err := exec.LookPath("bwrap"); err == nil {
			wrapper = path
			wrapperArgs = []string{"--ro-bind", "/", "/", "--dev", "/dev", "--proc", "/proc", "--unshare-net"}
		}
	}
	return &OneshotBackend{Wrapper: wrapper, WrapperArgs: wrapperArgs}
}

func (o *OneshotBackend) prefix() []string {
	if o.Wrapper == "" {
		return nil
	}
	return append([]string{o.Wrapper}, o.WrapperArgs...)
}

func (o *OneshotBackend) ReadFile(ctx context.Context, path string) (string, error) {
	res, err := runWrappedCommand(ctx, o.prefix(), fmt.Sprintf("cat -- %s", shellQuote(path)), "", "", 0)
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("read_file failed: %s", strings.TrimSpace(res.Stderr))
	}
	return res.Stdout, nil
}

func (o *OneshotBackend) WriteFile(ctx context.Context, path, content string) error {
	encoded := base64.StdEncoding.EncodeToString([]byte(content))
	cmd := fmt.Sprintf("mkdir -p -- %s && base64 -d > %s", shellQuote(dirOf(path)), shellQuote(path))
	res, err := runWrappedCommand(ctx, o.prefix(), cmd, encoded, "", 0)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("write_file failed: %s", strings.TrimSpace(res.Stderr))
	}
	return nil
}

func (o *OneshotBackend) ListDir(ctx context.Context, path string) ([]string, error) {
	res, err := runWrappedCommand(ctx, o.prefix(), fmt.Sprintf("ls -1A -- %s", shellQuote(path)), "", "", 0)
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("list_dir failed: %s", strings.TrimSpace(res.Stderr))
	}
	out := strings.Split(strings.TrimRight(res.Stdout, "\n"), "\n")
	if len(out) == 1 && out[0] == "" {
		return []string{}, nil
	}
	return out, nil
}

func (o *OneshotBackend) Exec(ctx context.Context, command, stdin, workingDir string, timeoutMs int64) (ExecResult, error) {
	return runWrappedCommand(ctx, o.prefix(), command, stdin, workingDir, timeoutMs)
}

func (o *OneshotBackend) Close() error { return nil }

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func dirOf(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx <= 0 {
		return "."
	}
	return path[:idx]
}
