package registry

import (
	"context"
	"sort"
	"sync"

	"gatekeeper/internal/gate/models"
)

// MemoryStore keeps the registry in process memory. Load and Persist are
// no-ops; it backs tests and serves as the cache layer for the snapshotting
// stores.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[models.UserID]models.RegistrationRecord
}

// NewMemory constructs an empty in-memory registry.
func NewMemory() *MemoryStore {
	return &MemoryStore{records: make(map[models.UserID]models.RegistrationRecord)}
}

func (s *MemoryStore) Upsert(_ context.Context, user models.UserID, record models.RegistrationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[user] = record
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, user models.UserID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[user]; !ok {
		return false, nil
	}
	delete(s.records, user)
	return true, nil
}

func (s *MemoryStore) Get(_ context.Context, user models.UserID) (models.RegistrationRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[user]
	return record, ok, nil
}

func (s *MemoryStore) Contains(_ context.Context, user models.UserID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[user]
	return ok, nil
}

func (s *MemoryStore) All(_ context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]Entry, 0, len(s.records))
	for user, record := range s.records {
		entries = append(entries, Entry{User: user, Record: record})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].User < entries[j].User })
	return entries, nil
}

func (s *MemoryStore) Load(context.Context) error    { return nil }
func (s *MemoryStore) Persist(context.Context) error { return nil }

// snapshot returns a stable-keyed copy for wholesale serialization.
func (s *MemoryStore) snapshot() map[string]models.RegistrationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.RegistrationRecord, len(s.records))
	for user, record := range s.records {
		out[user.String()] = record
	}
	return out
}

// replace swaps in a freshly loaded state wholesale.
func (s *MemoryStore) replace(records map[models.UserID]models.RegistrationRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = records
}
