package pending

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"gatekeeper/internal/gate/models"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *MemoryStore
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemory()
}

func (s *MemoryStoreSuite) TestAdmitPendingIdempotent() {
	ctx := context.Background()
	deadline := time.Date(2024, 6, 15, 12, 2, 0, 0, time.UTC)

	s.Run("first admit succeeds", func() {
		s.True(s.store.AdmitPending(ctx, 1, -100, deadline))
		s.True(s.store.Contains(ctx, 1))
		s.Equal(1, s.store.Len())
	})

	s.Run("duplicate admit is absorbed without overwrite", func() {
		s.False(s.store.AdmitPending(ctx, 1, -200, deadline.Add(time.Hour)))
		s.Equal(1, s.store.Len())

		// Origin of the first admission survives.
		origin, ok := s.store.Promote(ctx, 1)
		s.True(ok)
		s.Equal(models.ChatID(-100), origin)
	})
}

func (s *MemoryStoreSuite) TestPromote() {
	ctx := context.Background()

	s.Run("promoting an absent identity is a no-op", func() {
		_, ok := s.store.Promote(ctx, 5)
		s.False(ok)
	})

	s.Run("promote removes and returns the origin", func() {
		s.True(s.store.AdmitPending(ctx, 5, -42, time.Now()))

		origin, ok := s.store.Promote(ctx, 5)
		s.True(ok)
		s.Equal(models.ChatID(-42), origin)
		s.False(s.store.Contains(ctx, 5))

		_, again := s.store.Promote(ctx, 5)
		s.False(again)
	})
}

func (s *MemoryStoreSuite) TestCancel() {
	ctx := context.Background()

	s.Run("cancelling an absent identity is a no-op", func() {
		_, ok := s.store.Cancel(ctx, 9)
		s.False(ok)
	})

	s.Run("cancel removes the entry", func() {
		s.True(s.store.AdmitPending(ctx, 9, -7, time.Now()))

		origin, ok := s.store.Cancel(ctx, 9)
		s.True(ok)
		s.Equal(models.ChatID(-7), origin)
		s.False(s.store.Contains(ctx, 9))
	})
}
