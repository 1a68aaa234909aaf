package scheduler

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/relaykit/agentcore/internal/models"
)

// document is the on-disk shape of the cron persistence file (spec.md §6).
type document struct {
	Jobs []models.CronJob `json:"jobs"`
}

// loadDocument reads path, returning an empty document if it doesn't
// exist yet.
func loadDocument(path string) (document, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return document{}, nil
	}
	if err != nil {
		return document{}, fmt.Errorf("scheduler: read %s: %w", path, err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return document{}, fmt.Errorf("scheduler: parse %s: %w", path, err)
	}
	return doc, nil
}

// saveDocument writes doc to path atomically (temp file + rename), with
// 0700 on the containing directory and 0600 on the file, matching the
// session store's persistence discipline.
func saveDocument(path string, doc document) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("scheduler: create dir %s: %w", dir, err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("scheduler: marshal document: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("scheduler: write %s: %w", tmp, err)
	}
	return os.Rename(tmp, path)
}
