package telegram

import (
	"context"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"gatekeeper/internal/gate/models"
	"gatekeeper/pkg/requestcontext"
)

// Dispatcher pulls updates from the Bot API long-poll and routes them to the
// gate service. Inbound delivery is at-least-once and unordered; the service
// is idempotent against duplicates, the dispatcher only classifies.
type Dispatcher struct {
	bot    *tgbotapi.BotAPI
	svc    GateService
	logger *slog.Logger
}

// GateService is the slice of the gate the dispatcher drives.
type GateService interface {
	OnJoin(ctx context.Context, user models.UserID, displayName string, origin models.ChatID)
	OnLeave(ctx context.Context, user models.UserID, origin models.ChatID)
	StartDialogue(ctx context.Context, user models.UserID)
	HandleAnswer(ctx context.Context, user models.UserID, text string)
	CancelDialogue(ctx context.Context, user models.UserID)
	AdminList(ctx context.Context, requester models.UserID, origin models.ChatID, private bool)
}

// NewDispatcher wires a bot client to the gate service.
func NewDispatcher(bot *tgbotapi.BotAPI, svc GateService, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{bot: bot, svc: svc, logger: logger}
}

// Run processes updates until the context is cancelled. One failing update
// must never stop the stream, so each is handled behind a recover.
func (d *Dispatcher) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	cfg.AllowedUpdates = []string{"message", "chat_member"}

	updates := d.bot.GetUpdatesChan(cfg)
	defer d.bot.StopReceivingUpdates()

	d.logger.Info("update dispatcher started", "bot", d.bot.Self.UserName)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			d.handle(ctx, update)
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("panic while handling update", "update_id", update.UpdateID, "panic", r)
		}
	}()
	ctx = requestcontext.WithUpdateID(ctx, update.UpdateID)

	switch {
	case update.ChatMember != nil:
		d.handleMemberUpdate(ctx, update.ChatMember)
	case update.Message != nil:
		d.handleMessage(ctx, update.Message)
	}
}

// handleMemberUpdate classifies chat_member transitions into join and leave.
// A new status of member or restricted counts as a join: the platform may
// deliver either depending on whether the restriction landed first.
func (d *Dispatcher) handleMemberUpdate(ctx context.Context, ev *tgbotapi.ChatMemberUpdated) {
	member := ev.NewChatMember
	if member.User == nil {
		return
	}
	user := models.UserID(member.User.ID)
	origin := models.ChatID(ev.Chat.ID)
	d.logger.Debug("member status changed",
		"user_id", user, "chat", origin,
		"old_status", ev.OldChatMember.Status, "new_status", member.Status)

	switch member.Status {
	case "member", "restricted":
		d.svc.OnJoin(ctx, user, member.User.FirstName, origin)
	case "left", "kicked":
		d.svc.OnLeave(ctx, user, origin)
	}
}

func (d *Dispatcher) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	// Service message delivery path for departures; chat_member updates for
	// the same event may arrive too, the service absorbs the duplicate.
	if msg.LeftChatMember != nil {
		d.svc.OnLeave(ctx, models.UserID(msg.LeftChatMember.ID), models.ChatID(msg.Chat.ID))
		return
	}
	if msg.From == nil || msg.Chat == nil {
		return
	}

	user := models.UserID(msg.From.ID)
	origin := models.ChatID(msg.Chat.ID)
	private := msg.Chat.IsPrivate()

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			if private {
				d.svc.StartDialogue(ctx, user)
			}
		case "cancel":
			if private {
				d.svc.CancelDialogue(ctx, user)
			}
		case "list":
			d.svc.AdminList(ctx, user, origin, private)
		}
		return
	}

	if private && msg.Text != "" {
		d.svc.HandleAnswer(ctx, user, msg.Text)
	}
}
