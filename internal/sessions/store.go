// Package sessions implements per-owner turn history storage: an
// append-only JSONL file store for production use and an in-memory
// store for tests (spec.md §4.9, §6).
package sessions

import "github.com/relaykit/agentcore/internal/models"

// Store is the session persistence contract the agent loop depends on.
type Store interface {
	// Append adds record to ownerKey's history, persisting immediately.
	// Media attachments are stripped before the record is written.
	Append(ownerKey string, record models.TurnRecord) error
	// Load returns ownerKey's full history, oldest first. A missing
	// session returns an empty slice and no error.
	Load(ownerKey string) ([]models.TurnRecord, error)
	// Replace overwrites ownerKey's entire history with records,
	// used by memory consolidation to install a summarized history.
	Replace(ownerKey string, records []models.TurnRecord) error
}
