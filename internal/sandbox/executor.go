package sandbox

import (
	"context"
	"fmt"
	"path/filepath"
)

const (
	// defaultMaxFileSize is the cap read_file/write_file enforce (spec.md
	// §4.2 item 4) unless overridden.
	defaultMaxFileSize = 1 << 20 // 1 MiB

	// defaultOutputCap is the per-stream truncation limit applied to
	// exec stdout/stderr (spec.md §4.2 item 4).
	defaultOutputCap = 10 * 1024 // 10 KiB

	truncationMarkerFmt = "\n... (output truncated at %d bytes)"
)

// Executor applies the semantics common to every back-end — the .env
// basename denial, file size caps, and output truncation — on top of
// whichever Backend performs the underlying operation.
type Executor struct {
	backend      Backend
	maxFileSize  int
	outputCap    int
}

// Option configures an Executor at construction.
type Option func(*Executor)

// WithMaxFileSize overrides the default 1 MiB read/write cap.
func WithMaxFileSize(n int) Option {
	return func(e *Executor) { e.maxFileSize = n }
}

// WithOutputCap overrides the default 10 KiB stdout/stderr truncation cap.
func WithOutputCap(n int) Option {
	return func(e *Executor) { e.outputCap = n }
}

// NewExecutor wraps backend with the shared sandbox semantics.
func NewExecutor(backend Backend, opts ...Option) *Executor {
	e := &Executor{backend: backend, maxFileSize: defaultMaxFileSize, outputCap: defaultOutputCap}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ReadFile reads path, rejecting .env files and oversized results.
func (e *Executor) ReadFile(ctx context.Context, path string) (string, error) {
	if err := denyDotEnv(path); err != nil {
		return "", err
	}
	content, err := e.backend.ReadFile(ctx, path)
	if err != nil {
		return "", err
	}
	if len(content) > e.maxFileSize {
		return "", fmt.Errorf("read_file: %s exceeds max file size of %d bytes", path, e.maxFileSize)
	}
	return content, nil
}

// WriteFile writes content to path, rejecting .env files and oversized
// content.
func (e *Executor) WriteFile(ctx context.Context, path, content string) error {
	if err := denyDotEnv(path); err != nil {
		return err
	}
	if len(content) > e.maxFileSize {
		return fmt.Errorf("write_file: content for %s exceeds max file size of %d bytes", path, e.maxFileSize)
	}
	return e.backend.WriteFile(ctx, path, content)
}

// ListDir lists path's entries as the backend returns them. DirectBackend
// sorts them and suffixes directories with "/"; the other backends return
// their listing command's or helper's output unchanged.
func (e *Executor) ListDir(ctx context.Context, path string) ([]string, error) {
	return e.backend.ListDir(ctx, path)
}

// Exec runs command, returning stdout/stderr each truncated at
// e.outputCap bytes with a trailing marker stating that cap.
func (e *Executor) Exec(ctx context.Context, command, stdin, workingDir string, timeoutMs int64) (ExecResult, error) {
	res, err := e.backend.Exec(ctx, command, stdin, workingDir, timeoutMs)
	if err != nil {
		return res, err
	}
	res.Stdout = e.truncate(res.Stdout)
	res.Stderr = e.truncate(res.Stderr)
	return res, nil
}

// Close releases any resources (socket, helper process) the underlying
// backend holds.
func (e *Executor) Close() error { return e.backend.Close() }

func (e *Executor) truncate(s string) string {
	if len(s) <= e.outputCap {
		return s
	}
	return s[:e.outputCap] + fmt.Sprintf(truncationMarkerFmt, e.outputCap)
}

func denyDotEnv(path string) error {
	if filepath.Base(path) == ".env" {
		return fmt.Errorf("access to .env files is denied: %s", path)
	}
	return nil
}
