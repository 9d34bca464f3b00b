package scheduler

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatekeeper/internal/gate/models"
)

type firing struct {
	user   models.UserID
	origin models.ChatID
}

type recorder struct {
	mu      sync.Mutex
	firings []firing
}

func (r *recorder) evict(user models.UserID, origin models.ChatID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.firings = append(r.firings, firing{user: user, origin: origin})
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.firings)
}

func (r *recorder) last() firing {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.firings[len(r.firings)-1]
}

func newScheduler(rec *recorder) *Scheduler {
	return New(rec.evict, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestScheduleFires(t *testing.T) {
	rec := &recorder{}
	s := newScheduler(rec)
	defer s.Stop()

	s.Schedule(1, -100, time.Now().Add(20*time.Millisecond))
	require.True(t, s.Pending(1))

	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, firing{user: 1, origin: -100}, rec.last())
	assert.False(t, s.Pending(1))
}

func TestCancelPreventsFiring(t *testing.T) {
	rec := &recorder{}
	s := newScheduler(rec)
	defer s.Stop()

	s.Schedule(1, -100, time.Now().Add(30*time.Millisecond))
	require.True(t, s.Cancel(1))
	assert.False(t, s.Pending(1))

	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, rec.count())
}

func TestCancelWithoutTimer(t *testing.T) {
	s := newScheduler(&recorder{})
	defer s.Stop()
	assert.False(t, s.Cancel(7))
}

func TestScheduleReplacesPrior(t *testing.T) {
	rec := &recorder{}
	s := newScheduler(rec)
	defer s.Stop()

	s.Schedule(1, -100, time.Now().Add(10*time.Millisecond))
	s.Schedule(1, -200, time.Now().Add(30*time.Millisecond))

	require.Eventually(t, func() bool { return rec.count() >= 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	// Only the replacement fires, with the origin captured at schedule time.
	assert.Equal(t, 1, rec.count())
	assert.Equal(t, firing{user: 1, origin: -200}, rec.last())
}

func TestPastDeadlineFiresImmediately(t *testing.T) {
	rec := &recorder{}
	s := newScheduler(rec)
	defer s.Stop()

	s.Schedule(1, -100, time.Now().Add(-time.Second))
	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestStopDisarmsAll(t *testing.T) {
	rec := &recorder{}
	s := newScheduler(rec)

	s.Schedule(1, -100, time.Now().Add(30*time.Millisecond))
	s.Schedule(2, -100, time.Now().Add(30*time.Millisecond))
	s.Stop()

	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, rec.count())
	assert.False(t, s.Pending(1))
	assert.False(t, s.Pending(2))
}

func TestIndependentIdentities(t *testing.T) {
	rec := &recorder{}
	s := newScheduler(rec)
	defer s.Stop()

	s.Schedule(1, -100, time.Now().Add(15*time.Millisecond))
	s.Schedule(2, -100, time.Now().Add(15*time.Millisecond))
	require.True(t, s.Cancel(1))

	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, models.UserID(2), rec.last().user)
}
