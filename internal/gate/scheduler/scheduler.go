// Package scheduler runs one-shot eviction timers keyed by identity. Timers
// fire concurrently with event processing; the generation counter guarantees
// that a cancelled or replaced timer never acts, even when cancellation lands
// after the deadline but before the callback ran.
package scheduler

import (
	"log/slog"
	"sync"
	"time"

	"gatekeeper/internal/gate/models"
)

// EvictFunc receives the identity and origin captured at schedule time.
// The callback owns the registry re-check and self-identity guard before any
// external action.
type EvictFunc func(user models.UserID, origin models.ChatID)

type entry struct {
	timer    *time.Timer
	origin   models.ChatID
	deadline time.Time
	gen      uint64
}

// Scheduler holds at most one live eviction per identity.
type Scheduler struct {
	mu     sync.Mutex
	timers map[models.UserID]*entry
	gen    uint64
	evict  EvictFunc
	logger *slog.Logger

	now func() time.Time
}

// New constructs a scheduler that invokes evict when a deadline elapses.
func New(evict EvictFunc, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		timers: make(map[models.UserID]*entry),
		evict:  evict,
		logger: logger,
		now:    time.Now,
	}
}

// Schedule arms an eviction for the identity at the absolute deadline,
// replacing any prior one. Deadlines already in the past fire immediately.
func (s *Scheduler) Schedule(user models.UserID, origin models.ChatID, deadline time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.timers[user]; ok {
		old.timer.Stop()
		s.logger.Debug("replacing scheduled eviction", "user_id", user, "deadline", deadline)
	}

	s.gen++
	gen := s.gen
	e := &entry{origin: origin, deadline: deadline, gen: gen}
	delay := deadline.Sub(s.now())
	if delay < 0 {
		delay = 0
	}
	e.timer = time.AfterFunc(delay, func() { s.fire(user, gen) })
	s.timers[user] = e
}

// Cancel disarms the identity's eviction, reporting whether one was live.
// After Cancel returns, the eviction is guaranteed not to act.
func (s *Scheduler) Cancel(user models.UserID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.timers[user]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(s.timers, user)
	return true
}

// Pending reports whether a live eviction exists for the identity.
func (s *Scheduler) Pending(user models.UserID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[user]
	return ok
}

// Stop disarms every live timer, for shutdown.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for user, e := range s.timers {
		e.timer.Stop()
		delete(s.timers, user)
	}
}

// fire runs on the timer goroutine. The generation check makes a timer that
// lost a Cancel/Schedule race a no-op; the entry is removed before the
// callback so the callback never runs while holding the lock.
func (s *Scheduler) fire(user models.UserID, gen uint64) {
	s.mu.Lock()
	e, ok := s.timers[user]
	if !ok || e.gen != gen {
		s.mu.Unlock()
		return
	}
	delete(s.timers, user)
	origin := e.origin
	s.mu.Unlock()

	s.evict(user, origin)
}
