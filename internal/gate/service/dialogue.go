package service

import (
	"context"
	"fmt"
	"strings"

	"gatekeeper/internal/gate/models"
	"gatekeeper/internal/gate/ports"
	"gatekeeper/internal/gate/store/registry"
	"gatekeeper/pkg/requestcontext"
)

const (
	msgGroupWelcome   = "Добро пожаловать, <a href='tg://user?id=%d'>%s</a>! Чтобы остаться в группе, пожалуйста, зарегистрируйтесь через нашего бота."
	msgRegisterButton = "📋 Зарегистрироваться"
	msgGroupEvicted   = "Пользователь был временно забанен за отсутствие регистрации. Он сможет снова присоединиться через %d секунд."

	msgMustJoin        = "Вы должны присоединиться к группе, чтобы начать регистрацию."
	msgMustRejoin      = "Время регистрации истекло. Пожалуйста, заново присоединитесь к группе, чтобы начать регистрацию."
	msgDialogueWelcome = "Добро пожаловать! Давайте начнём регистрацию.\n\n%s"
	msgCompleted       = "Спасибо за регистрацию! Теперь вы можете отправлять сообщения в группе.\n\n%s"
	msgInvite          = "Спасибо за регистрацию! Вы можете вернуться в группу по ссылке: %s"
	msgCancelled       = "Регистрация отменена."

	msgAdminPrivateOnly = "Команда доступна только в личных сообщениях с ботом."
	msgAdminOnly        = "Эта команда доступна только администраторам."
	msgAdminFailure     = "Извините, не удалось получить список участников."
)

// StartDialogue opens the registration dialogue for an identity. A user
// without a live pending admission never obtains a session; starting twice
// re-sends the current step's prompt instead of resetting progress.
func (s *Service) StartDialogue(ctx context.Context, user models.UserID) {
	if !s.pending.Contains(ctx, user) {
		s.logger.Info("dialogue refused, user not pending", "user_id", user)
		s.sendDM(ctx, user, msgMustJoin)
		return
	}

	s.mu.Lock()
	if sess, ok := s.sessions[user]; ok {
		state, step := sess.State, sess.Step
		s.mu.Unlock()
		if state == models.SessionAbandoned {
			s.sendDM(ctx, user, msgMustRejoin)
			return
		}
		s.deliverDM(ctx, user, s.flow.Step(step).Prompt)
		return
	}
	sess := models.NewSession(user, requestcontext.Now(ctx))
	s.sessions[user] = sess
	s.mu.Unlock()

	s.logger.Info("dialogue started", "user_id", user, "session_id", sess.ID)
	s.deliverDM(ctx, user, fmt.Sprintf(msgDialogueWelcome, s.flow.Step(0).Prompt))
}

// HandleAnswer advances the dialogue with one raw text input. Invalid input
// re-prompts without touching committed answers; valid input commits the
// normalized value and either asks the next question or finalizes.
func (s *Service) HandleAnswer(ctx context.Context, user models.UserID, text string) {
	s.mu.Lock()
	sess, ok := s.sessions[user]
	if !ok {
		s.mu.Unlock()
		return
	}
	if sess.State == models.SessionAbandoned {
		s.mu.Unlock()
		s.sendDM(ctx, user, msgMustRejoin)
		return
	}

	step := s.flow.Step(sess.Step)
	if !step.Validate(text) {
		s.mu.Unlock()
		if s.metrics != nil {
			s.metrics.ValidationFailures.Inc()
		}
		s.logger.Info("answer rejected",
			"user_id", user, "field", step.Field,
			"update_id", requestcontext.UpdateID(ctx))
		s.deliverDM(ctx, user, step.Reprompt)
		return
	}

	sess.Answers[step.Field] = step.Normalize(text)
	sess.Step++
	next := sess.Step
	s.mu.Unlock()

	if next < s.flow.Len() {
		s.deliverDM(ctx, user, s.flow.Step(next).Prompt)
		return
	}
	s.finalize(ctx, sess)
}

// finalize commits the terminal success transition: registry first, then
// pending promotion and timer cancellation, then the best-effort external
// effects. Dialogue messages are intentionally kept on success.
func (s *Service) finalize(ctx context.Context, sess *models.Session) {
	user := sess.User
	now := requestcontext.Now(ctx)

	record := models.RegistrationRecord{
		Fields:       make(map[string]string, len(sess.Answers)),
		FieldOrder:   s.flow.Fields(),
		RegisteredAt: now,
	}
	for field, value := range sess.Answers {
		record.Fields[field] = value
	}
	if err := s.registry.Upsert(ctx, user, record); err != nil {
		s.logger.Error("registry upsert failed", "user_id", user, "error", err)
		return
	}
	if err := s.registry.Persist(ctx); err != nil {
		// In-memory state stays authoritative; durability resumes on the
		// next successful write.
		s.logger.Error("registry persist failed", "user_id", user, "error", err)
	}

	origin, promoted := s.pending.Promote(ctx, user)
	if !promoted {
		s.logger.Warn("no pending admission to promote", "user_id", user)
	}
	s.sched.Cancel(user)

	s.mu.Lock()
	delete(s.sessions, user)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.ObserveRegistration(sess.StartedAt, now)
	}
	s.logger.Info("registration completed", "user_id", user, "session_id", sess.ID, "origin", origin)

	s.sendDM(ctx, user, fmt.Sprintf(msgCompleted, s.cfg.Rules))
	if promoted {
		if err := s.channel.Unrestrict(ctx, user, origin); err != nil {
			s.logger.Error("unrestrict failed", "user_id", user, "origin", origin, "error", err)
		}
		s.sendDM(ctx, user, fmt.Sprintf(msgInvite, s.cfg.InviteLink))
	}
}

// CancelDialogue aborts a registration from any state: pending entry, any
// registry record, the eviction timer, the session, and the agent's dialogue
// messages are all removed.
func (s *Service) CancelDialogue(ctx context.Context, user models.UserID) {
	s.pending.Cancel(ctx, user)
	removed, err := s.registry.Remove(ctx, user)
	if err != nil {
		s.logger.Error("registry remove failed on cancel", "user_id", user, "error", err)
	} else if removed {
		if err := s.registry.Persist(ctx); err != nil {
			s.logger.Error("registry persist failed on cancel", "user_id", user, "error", err)
		}
	}
	s.sched.Cancel(user)

	transcript := s.dropSession(user)
	if s.metrics != nil {
		s.metrics.Cancellations.Inc()
	}
	s.logger.Info("registration cancelled", "user_id", user)

	s.deleteTranscript(ctx, user, transcript)
	s.sendDM(ctx, user, msgCancelled)
}

// AdminList replies with the full registry in human-readable form. Refused
// outside a private one-to-one chat and for non-administrators.
func (s *Service) AdminList(ctx context.Context, requester models.UserID, origin models.ChatID, private bool) {
	if !private {
		if _, err := s.channel.Send(ctx, origin, msgAdminPrivateOnly, ports.SendOptions{}); err != nil {
			s.logger.Error("admin refusal failed", "user_id", requester, "error", err)
		}
		return
	}
	if !s.isAdmin(ctx, requester) {
		s.sendDM(ctx, requester, msgAdminOnly)
		return
	}

	entries, err := s.registry.All(ctx)
	if err != nil {
		s.logger.Error("registry enumeration failed", "user_id", requester, "error", err)
		s.sendDM(ctx, requester, msgAdminFailure)
		return
	}
	s.sendDM(ctx, requester, formatRegistry(entries))
}

func (s *Service) isAdmin(ctx context.Context, user models.UserID) bool {
	for _, admin := range s.cfg.AdminIDs {
		if admin == user {
			return true
		}
	}
	if s.cfg.PrimaryChat == 0 {
		return false
	}
	admins, err := s.channel.Administrators(ctx, s.cfg.PrimaryChat)
	if err != nil {
		s.logger.Error("administrator lookup failed", "chat", s.cfg.PrimaryChat, "error", err)
		return false
	}
	for _, admin := range admins {
		if admin == user {
			return true
		}
	}
	return false
}

// formatRegistry renders the dump with fields in their step order.
func formatRegistry(entries []registry.Entry) string {
	if len(entries) == 0 {
		return "Зарегистрированных участников пока нет."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Зарегистрированные участники (%d):\n", len(entries))
	for i, entry := range entries {
		fmt.Fprintf(&b, "%d. %s", i+1, entry.User)
		for _, field := range entry.Record.FieldOrder {
			if value, ok := entry.Record.Fields[field]; ok {
				fmt.Fprintf(&b, " | %s: %s", field, value)
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// sendDM delivers a private message without recording it in the transcript,
// for replies that must survive transcript cleanup (refusals, cancellations).
func (s *Service) sendDM(ctx context.Context, user models.UserID, text string) {
	if _, err := s.channel.Send(ctx, models.ChatID(user), text, ports.SendOptions{}); err != nil {
		s.logger.Error("direct message failed", "user_id", user, "error", err)
	}
}

// deliverDM delivers a private dialogue message and records its ID in the
// session transcript so abnormal teardown can bulk-delete it.
func (s *Service) deliverDM(ctx context.Context, user models.UserID, text string) {
	message, err := s.channel.Send(ctx, models.ChatID(user), text, ports.SendOptions{})
	if err != nil {
		s.logger.Error("dialogue message failed", "user_id", user, "error", err)
		return
	}
	s.mu.Lock()
	if sess, ok := s.sessions[user]; ok {
		sess.Transcript = append(sess.Transcript, message)
	}
	s.mu.Unlock()
}
