// Package service orchestrates the membership gate: it reacts to join/leave
// events, drives the registration dialogue, and resolves the race between a
// completing registration and its eviction timer. Internal state is always
// mutated before external channel calls, and no internal lock is held across
// a channel call.
package service

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"sync"
	"time"

	"gatekeeper/internal/gate/flow"
	gatemetrics "gatekeeper/internal/gate/metrics"
	"gatekeeper/internal/gate/models"
	"gatekeeper/internal/gate/ports"
	"gatekeeper/internal/gate/scheduler"
	"gatekeeper/internal/gate/store/pending"
	"gatekeeper/internal/gate/store/registry"
	"gatekeeper/pkg/requestcontext"
)

// Config carries the gate's behavioral knobs.
type Config struct {
	// RegistrationTimeout is how long a joining user has to finish the
	// dialogue before the eviction fires.
	RegistrationTimeout time.Duration
	// EvictionCooldown is how long an evicted user stays locked out.
	EvictionCooldown time.Duration
	// InviteLink is sent to users after successful registration.
	InviteLink string
	// Rules is the rules text delivered with the completion message.
	Rules string
	// BotUsername builds the deep link on the group welcome button.
	BotUsername string
	// PrimaryChat, when set, enables live administrator lookup for /list.
	PrimaryChat models.ChatID
	// AdminIDs always pass the administrative check.
	AdminIDs []models.UserID
}

// Service is the membership-gating engine.
type Service struct {
	cfg      Config
	flow     flow.Flow
	registry registry.Store
	pending  *pending.MemoryStore
	sched    *scheduler.Scheduler
	channel  ports.Channel
	metrics  *gatemetrics.Metrics
	logger   *slog.Logger

	mu       sync.Mutex
	sessions map[models.UserID]*models.Session
}

// Option configures optional service dependencies.
type Option func(*Service)

// WithMetrics attaches prometheus instrumentation.
func WithMetrics(m *gatemetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithFlow overrides the default dialogue variant.
func WithFlow(f flow.Flow) Option {
	return func(s *Service) { s.flow = f }
}

// New constructs the gate service. The eviction scheduler is owned by the
// service so its firing callback can re-check the registry before acting.
func New(cfg Config, reg registry.Store, channel ports.Channel, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		cfg:      cfg,
		flow:     flow.Classic(true),
		registry: reg,
		pending:  pending.NewMemory(),
		channel:  channel,
		logger:   logger,
		sessions: make(map[models.UserID]*models.Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.sched = scheduler.New(s.evictExpired, logger)
	return s
}

// Close disarms every live eviction timer.
func (s *Service) Close() {
	s.sched.Stop()
}

// OnJoin handles a membership event that puts a user inside the gate. It is
// idempotent: duplicate join events for a pending or registered user are
// absorbed without touching state.
func (s *Service) OnJoin(ctx context.Context, user models.UserID, displayName string, origin models.ChatID) {
	registered, err := s.registry.Contains(ctx, user)
	if err != nil {
		s.logger.Error("registry lookup failed on join", "user_id", user, "error", err)
		return
	}
	if registered || s.pending.Contains(ctx, user) {
		s.logger.Debug("join ignored, user already registered or pending", "user_id", user)
		return
	}

	deadline := requestcontext.Now(ctx).Add(s.cfg.RegistrationTimeout)
	if !s.pending.AdmitPending(ctx, user, origin, deadline) {
		return
	}
	// Re-admission supersedes a session orphaned by an earlier timeout whose
	// leave event never arrived; the dialogue restarts fresh.
	if transcript := s.dropSession(user); len(transcript) > 0 {
		s.deleteTranscript(ctx, user, transcript)
	}
	s.sched.Schedule(user, origin, deadline)
	if s.metrics != nil {
		s.metrics.JoinsAdmitted.Inc()
	}
	s.logger.Info("user admitted behind the gate",
		"user_id", user, "origin", origin, "deadline", deadline,
		"update_id", requestcontext.UpdateID(ctx))

	// External effects after internal state; each is best-effort.
	if err := s.channel.Restrict(ctx, user, origin); err != nil {
		s.logger.Error("restrict on join failed", "user_id", user, "origin", origin, "error", err)
	}
	welcome := fmt.Sprintf(msgGroupWelcome, user, html.EscapeString(displayName))
	_, err = s.channel.Send(ctx, origin, welcome, ports.SendOptions{
		HTML: true,
		Button: &ports.URLButton{
			Label: msgRegisterButton,
			URL:   fmt.Sprintf("https://t.me/%s?start=registration", s.cfg.BotUsername),
		},
	})
	if err != nil {
		s.logger.Error("welcome message failed", "user_id", user, "origin", origin, "error", err)
	}
}

// OnLeave clears every trace of a user who left the channel: the registry
// record (persisted), the pending entry, the eviction timer, the session, and
// the agent's own dialogue messages.
func (s *Service) OnLeave(ctx context.Context, user models.UserID, origin models.ChatID) {
	removed, err := s.registry.Remove(ctx, user)
	if err != nil {
		s.logger.Error("registry remove failed on leave", "user_id", user, "error", err)
	} else if removed {
		if err := s.registry.Persist(ctx); err != nil {
			s.logger.Error("registry persist failed on leave", "user_id", user, "error", err)
		}
		s.logger.Info("registration removed, user left", "user_id", user, "origin", origin)
	}

	s.pending.Cancel(ctx, user)
	s.sched.Cancel(user)

	transcript := s.dropSession(user)
	s.deleteTranscript(ctx, user, transcript)
}

// evictExpired is the scheduler's firing path. It re-checks the registry
// immediately before acting so a registration that completed concurrently
// with the timer always wins, and it refuses to evict the bot itself.
func (s *Service) evictExpired(user models.UserID, origin models.ChatID) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s.EvictIfUnregistered(ctx, user, origin)
}

// EvictIfUnregistered performs the timeout eviction unless the identity has
// registered in the meantime. Exposed for deterministic race tests.
func (s *Service) EvictIfUnregistered(ctx context.Context, user models.UserID, origin models.ChatID) {
	if user == s.channel.Self() {
		s.logger.Warn("eviction targeted the bot itself, skipped", "user_id", user)
		return
	}
	registered, err := s.registry.Contains(ctx, user)
	if err != nil {
		s.logger.Error("registry re-check failed on eviction", "user_id", user, "error", err)
		return
	}
	if registered {
		s.logger.Info("eviction skipped, user registered in time", "user_id", user)
		return
	}

	s.pending.Cancel(ctx, user)
	transcript := s.abandonSession(user)
	if s.metrics != nil {
		s.metrics.Evictions.Inc()
	}
	s.logger.Info("evicting unregistered user", "user_id", user, "origin", origin, "cooldown", s.cfg.EvictionCooldown)

	s.deleteTranscript(ctx, user, transcript)
	if err := s.channel.Evict(ctx, user, origin, s.cfg.EvictionCooldown); err != nil {
		s.logger.Error("eviction failed", "user_id", user, "origin", origin, "error", err)
		return
	}
	notice := fmt.Sprintf(msgGroupEvicted, int(s.cfg.EvictionCooldown.Seconds()))
	if _, err := s.channel.Send(ctx, origin, notice, ports.SendOptions{}); err != nil {
		s.logger.Error("eviction notice failed", "origin", origin, "error", err)
	}
}

// Pending reports whether the identity is inside the timeout window.
func (s *Service) Pending(ctx context.Context, user models.UserID) bool {
	return s.pending.Contains(ctx, user)
}

// EvictionScheduled reports whether a live eviction timer exists.
func (s *Service) EvictionScheduled(user models.UserID) bool {
	return s.sched.Pending(user)
}

// dropSession removes the session and returns its transcript for cleanup.
func (s *Service) dropSession(user models.UserID) []models.MessageID {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[user]
	if !ok {
		return nil
	}
	delete(s.sessions, user)
	return sess.Transcript
}

// abandonSession marks an open session as orphaned and hands back its
// transcript for cleanup. Further input for it is rejected until a new join
// event re-admits the user and drops the entry.
func (s *Service) abandonSession(user models.UserID) []models.MessageID {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[user]
	if !ok {
		return nil
	}
	sess.State = models.SessionAbandoned
	transcript := sess.Transcript
	sess.Transcript = nil
	return transcript
}

// deleteTranscript best-effort deletes the agent's own dialogue messages.
func (s *Service) deleteTranscript(ctx context.Context, user models.UserID, transcript []models.MessageID) {
	dm := models.ChatID(user)
	for _, message := range transcript {
		if err := s.channel.Delete(ctx, dm, message); err != nil {
			s.logger.Error("transcript message delete failed", "user_id", user, "message_id", message, "error", err)
		}
	}
}
