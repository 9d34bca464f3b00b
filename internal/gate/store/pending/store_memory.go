// Package pending tracks users who are inside the gate but not yet through
// it. Entries are transient by design: a restart drops every in-flight user
// back to "must rejoin".
package pending

import (
	"context"
	"sync"
	"time"

	"gatekeeper/internal/gate/models"
)

// MemoryStore is the mutex-guarded pending-admission tracker.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[models.UserID]models.PendingAdmission
}

// NewMemory constructs an empty tracker.
func NewMemory() *MemoryStore {
	return &MemoryStore{entries: make(map[models.UserID]models.PendingAdmission)}
}

// AdmitPending inserts a pending entry unless one already exists for the
// identity. Duplicate join events are expected traffic and are absorbed
// silently: an existing entry is never overwritten.
func (s *MemoryStore) AdmitPending(_ context.Context, user models.UserID, origin models.ChatID, deadline time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[user]; ok {
		return false
	}
	s.entries[user] = models.PendingAdmission{User: user, Origin: origin, Deadline: deadline}
	return true
}

// Promote removes the entry and returns its origin, atomically. Used on
// registration success. Promoting an absent identity is a no-op.
func (s *MemoryStore) Promote(_ context.Context, user models.UserID) (models.ChatID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[user]
	if !ok {
		return 0, false
	}
	delete(s.entries, user)
	return entry.Origin, true
}

// Cancel removes the entry without side effects, for leave and explicit
// cancellation paths.
func (s *MemoryStore) Cancel(_ context.Context, user models.UserID) (models.ChatID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[user]
	if !ok {
		return 0, false
	}
	delete(s.entries, user)
	return entry.Origin, true
}

// Contains reports whether the identity is currently pending.
func (s *MemoryStore) Contains(_ context.Context, user models.UserID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[user]
	return ok
}

// Len returns the number of users inside the timeout window.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
