package sessions

import (
	"path/filepath"
	"testing"

	"github.com/relaykit/agentcore/internal/models"
)

func runStoreContract(t *testing.T, store Store) {
	t.Helper()
	owner := "telegram:123"

	records, err := store.Load(owner)
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty history, got %v", records)
	}

	if err := store.Append(owner, models.NewUserTextRecord("hi", nil)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Append(owner, models.NewAssistantTextRecord("hello")); err != nil {
		t.Fatalf("append: %v", err)
	}

	records, err = store.Load(owner)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(records) != 2 || records[0].Text != "hi" || records[1].Text != "hello" {
		t.Fatalf("got %+v", records)
	}

	if err := store.Replace(owner, []models.TurnRecord{models.NewAssistantTextRecord("summary")}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	records, err = store.Load(owner)
	if err != nil {
		t.Fatalf("load after replace: %v", err)
	}
	if len(records) != 1 || records[0].Text != "summary" {
		t.Fatalf("got %+v", records)
	}
}

func TestMemoryStoreContract(t *testing.T) {
	runStoreContract(t, NewMemoryStore())
}

func TestFileStoreContract(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	defer store.Close()
	runStoreContract(t, store)
}

func TestFileStoreStripsMediaBeforePersisting(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	defer store.Close()

	owner := "telegram:1"
	media := []models.MediaAttachment{{Type: "image", MimeType: "image/png", Data: "base64==", URL: "https://example.com/x.png"}}
	if err := store.Append(owner, models.NewUserTextRecord("see attached", media)); err != nil {
		t.Fatalf("append: %v", err)
	}

	records, err := store.Load(owner)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records", len(records))
	}
	if len(records[0].Media) != 1 || records[0].Media[0].Data != "" {
		t.Fatalf("expected media data to be stripped, got %+v", records[0].Media)
	}
}

func TestEncodeOwnerKeyProducesFilesystemSafeNames(t *testing.T) {
	name := encodeOwnerKey("telegram:123/../../etc")
	if filepath.Base(name) != name {
		t.Fatalf("expected safe filename, got %q", name)
	}
}
