package fs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/relaykit/agentcore/internal/models"
	"github.com/relaykit/agentcore/internal/sandbox"
)

func newExecutor(t *testing.T) (*sandbox.Executor, string) {
	t.Helper()
	dir := t.TempDir()
	return sandbox.NewExecutor(sandbox.NewDirectBackend()), dir
}

func TestReadWriteEditFileRoundTrip(t *testing.T) {
	exec, dir := newExecutor(t)
	ctx := context.Background()
	path := filepath.Join(dir, "notes.txt")

	writeTool := NewWriteFileTool(exec)
	params, _ := json.Marshal(map[string]string{"path": path, "content": "hello world"})
	res, _ := writeTool.Execute(ctx, "owner", params)
	if res.IsError() {
		t.Fatalf("write failed: %+v", res)
	}

	readTool := NewReadFileTool(exec)
	params, _ = json.Marshal(map[string]string{"path": path})
	res, _ = readTool.Execute(ctx, "owner", params)
	if res.IsError() || res.Content != "hello world" {
		t.Fatalf("got %+v", res)
	}

	editTool := NewEditFileTool(exec)
	params, _ = json.Marshal(map[string]string{"path": path, "old_string": "world", "new_string": "there"})
	res, _ = editTool.Execute(ctx, "owner", params)
	if res.IsError() {
		t.Fatalf("edit failed: %+v", res)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "hello there" {
		t.Fatalf("got %q", content)
	}
}

func TestEditFileRejectsNonUniqueMatch(t *testing.T) {
	exec, dir := newExecutor(t)
	ctx := context.Background()
	path := filepath.Join(dir, "dup.txt")
	_ = os.WriteFile(path, []byte("foo foo"), 0o644)

	editTool := NewEditFileTool(exec)
	params, _ := json.Marshal(map[string]string{"path": path, "old_string": "foo", "new_string": "bar"})
	res, _ := editTool.Execute(ctx, "owner", params)
	if !res.IsError() {
		t.Fatal("expected non-unique old_string to be rejected")
	}
}

func TestReadFileDeniesDotEnv(t *testing.T) {
	exec, dir := newExecutor(t)
	ctx := context.Background()
	path := filepath.Join(dir, ".env")
	_ = os.WriteFile(path, []byte("SECRET=1"), 0o600)

	readTool := NewReadFileTool(exec)
	params, _ := json.Marshal(map[string]string{"path": path})
	res, _ := readTool.Execute(ctx, "owner", params)
	if res.Status != models.StatusAccessDenied {
		t.Fatalf("expected access_denied, got %+v", res)
	}
}

func TestListDirReturnsSortedEntries(t *testing.T) {
	exec, dir := newExecutor(t)
	ctx := context.Background()
	_ = os.WriteFile(filepath.Join(dir, "b.txt"), []byte("x"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644)

	listTool := NewListDirTool(exec)
	params, _ := json.Marshal(map[string]string{"path": dir})
	res, _ := listTool.Execute(ctx, "owner", params)
	if res.IsError() {
		t.Fatalf("list_dir failed: %+v", res)
	}
	if res.Content != "a.txt\nb.txt" {
		t.Fatalf("got %q", res.Content)
	}
}
