package sessions

import (
	"sync"

	"github.com/relaykit/agentcore/internal/models"
)

// MemoryStore is an in-process Store backed by a map, intended for tests
// and for deployments that accept losing history across restarts.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string][]models.TurnRecord
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]models.TurnRecord)}
}

func (s *MemoryStore) Append(ownerKey string, record models.TurnRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[ownerKey] = append(s.sessions[ownerKey], models.PersistedRecord(record))
	return nil
}

func (s *MemoryStore) Load(ownerKey string) ([]models.TurnRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := s.sessions[ownerKey]
	out := make([]models.TurnRecord, len(records))
	copy(out, records)
	return out, nil
}

func (s *MemoryStore) Replace(ownerKey string, records []models.TurnRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]models.TurnRecord, len(records))
	for i, r := range records {
		stored[i] = models.PersistedRecord(r)
	}
	s.sessions[ownerKey] = stored
	return nil
}
