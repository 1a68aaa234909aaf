package sandbox

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExecutorReadWriteListDirect(t *testing.T) {
	dir := t.TempDir()
	e := NewExecutor(NewDirectBackend())
	ctx := context.Background()

	path := filepath.Join(dir, "notes.txt")
	if err := e.WriteFile(ctx, path, "hello"); err != nil {
		t.Fatalf("write_file: %v", err)
	}
	content, err := e.ReadFile(ctx, path)
	if err != nil {
		t.Fatalf("read_file: %v", err)
	}
	if content != "hello" {
		t.Fatalf("got %q", content)
	}

	entries, err := e.ListDir(ctx, dir)
	if err != nil {
		t.Fatalf("list_dir: %v", err)
	}
	if len(entries) != 1 || entries[0] != "notes.txt" {
		t.Fatalf("got %v", entries)
	}
}

func TestExecutorDeniesDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	_ = os.WriteFile(path, []byte("SECRET=1"), 0o600)

	e := NewExecutor(NewDirectBackend())
	if _, err := e.ReadFile(context.Background(), path); err == nil {
		t.Fatal("expected .env read to be denied")
	}
	if err := e.WriteFile(context.Background(), path, "x"); err == nil {
		t.Fatal("expected .env write to be denied")
	}
}

func TestExecutorEnforcesMaxFileSize(t *testing.T) {
	dir := t.TempDir()
	e := NewExecutor(NewDirectBackend(), WithMaxFileSize(4))

	path := filepath.Join(dir, "big.txt")
	if err := e.WriteFile(context.Background(), path, "toolong"); err == nil {
		t.Fatal("expected write exceeding max size to fail")
	}

	_ = os.WriteFile(path, []byte("toolong"), 0o644)
	if _, err := e.ReadFile(context.Background(), path); err == nil {
		t.Fatal("expected read exceeding max size to fail")
	}
}

func TestExecutorExecRunsAndCapturesOutput(t *testing.T) {
	e := NewExecutor(NewDirectBackend())
	res, err := e.Exec(context.Background(), "echo hello", "", "", 5000)
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if strings.TrimSpace(res.Stdout) != "hello" {
		t.Fatalf("got stdout %q", res.Stdout)
	}
	if res.ExitCode != 0 {
		t.Fatalf("got exit code %d", res.ExitCode)
	}
}

func TestExecutorExecNonZeroExit(t *testing.T) {
	e := NewExecutor(NewDirectBackend())
	res, err := e.Exec(context.Background(), "exit 3", "", "", 5000)
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if res.ExitCode != 3 {
		t.Fatalf("got exit code %d", res.ExitCode)
	}
}

func TestExecutorExecTimeoutEscalates(t *testing.T) {
	e := NewExecutor(NewDirectBackend())
	res, err := e.Exec(context.Background(), "trap '' TERM; sleep 5", "", "", 200)
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if res.ExitCode == 0 {
		t.Fatalf("expected killed process to report non-zero exit, got %+v", res)
	}
}

type fakeBackend struct{}

func (fakeBackend) ReadFile(context.Context, string) (string, error) { return "", nil }
func (fakeBackend) WriteFile(context.Context, string, string) error  { return nil }
func (fakeBackend) ListDir(context.Context, string) ([]string, error) {
	return nil, nil
}
func (fakeBackend) Exec(context.Context, string, string, string, int64) (ExecResult, error) {
	return ExecResult{Stdout: strings.Repeat("a", 100), Stderr: ""}, nil
}
func (fakeBackend) Close() error { return nil }

func TestExecutorTruncatesOutput(t *testing.T) {
	e := NewExecutor(fakeBackend{}, WithOutputCap(10))
	res, err := e.Exec(context.Background(), "irrelevant", "", "", 1000)
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if !strings.Contains(res.Stdout, "truncated at 10 bytes") {
		t.Fatalf("expected truncation marker, got %q", res.Stdout)
	}
	if !strings.HasPrefix(res.Stdout, strings.Repeat("a", 10)) {
		t.Fatalf("expected first 10 bytes preserved, got %q", res.Stdout)
	}
}
