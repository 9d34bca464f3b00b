// Package telegram adapts the Telegram Bot API to the gate's channel
// contract and feeds inbound updates into the service. The core never sees
// SDK types; everything crosses the boundary as gate models.
package telegram

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"gatekeeper/internal/gate/models"
	"gatekeeper/internal/gate/ports"
)

// Channel implements ports.Channel over the Bot API. Calls are bounded by the
// SDK's HTTP client timeout; the context parameters exist for contract
// symmetry and future client swaps.
type Channel struct {
	bot *tgbotapi.BotAPI
}

// NewChannel wraps an authorized bot client.
func NewChannel(bot *tgbotapi.BotAPI) *Channel {
	return &Channel{bot: bot}
}

// Self returns the bot's own identity.
func (c *Channel) Self() models.UserID {
	return models.UserID(c.bot.Self.ID)
}

func (c *Channel) Restrict(_ context.Context, user models.UserID, chat models.ChatID) error {
	_, err := c.bot.Request(tgbotapi.RestrictChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{
			ChatID: int64(chat),
			UserID: int64(user),
		},
		Permissions: &tgbotapi.ChatPermissions{},
	})
	if err != nil {
		return fmt.Errorf("restrict member %d in chat %d: %w", user, chat, err)
	}
	return nil
}

func (c *Channel) Unrestrict(_ context.Context, user models.UserID, chat models.ChatID) error {
	_, err := c.bot.Request(tgbotapi.RestrictChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{
			ChatID: int64(chat),
			UserID: int64(user),
		},
		Permissions: &tgbotapi.ChatPermissions{
			CanSendMessages:       true,
			CanSendMediaMessages:  true,
			CanSendPolls:          true,
			CanSendOtherMessages:  true,
			CanAddWebPagePreviews: true,
		},
	})
	if err != nil {
		return fmt.Errorf("unrestrict member %d in chat %d: %w", user, chat, err)
	}
	return nil
}

func (c *Channel) Evict(_ context.Context, user models.UserID, chat models.ChatID, cooldown time.Duration) error {
	_, err := c.bot.Request(tgbotapi.BanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{
			ChatID: int64(chat),
			UserID: int64(user),
		},
		UntilDate: time.Now().Add(cooldown).Unix(),
	})
	if err != nil {
		return fmt.Errorf("evict member %d from chat %d: %w", user, chat, err)
	}
	return nil
}

func (c *Channel) Send(_ context.Context, chat models.ChatID, text string, opts ports.SendOptions) (models.MessageID, error) {
	msg := tgbotapi.NewMessage(int64(chat), text)
	if opts.HTML {
		msg.ParseMode = tgbotapi.ModeHTML
	}
	if opts.Button != nil {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonURL(opts.Button.Label, opts.Button.URL),
			),
		)
	}
	sent, err := c.bot.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("send message to chat %d: %w", chat, err)
	}
	return models.MessageID(sent.MessageID), nil
}

func (c *Channel) Delete(_ context.Context, chat models.ChatID, message models.MessageID) error {
	_, err := c.bot.Request(tgbotapi.DeleteMessageConfig{
		ChatID:    int64(chat),
		MessageID: int(message),
	})
	if err != nil {
		return fmt.Errorf("delete message %d in chat %d: %w", message, chat, err)
	}
	return nil
}

func (c *Channel) Administrators(_ context.Context, chat models.ChatID) ([]models.UserID, error) {
	members, err := c.bot.GetChatAdministrators(tgbotapi.ChatAdministratorsConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: int64(chat)},
	})
	if err != nil {
		return nil, fmt.Errorf("list administrators of chat %d: %w", chat, err)
	}
	admins := make([]models.UserID, 0, len(members))
	for _, member := range members {
		if member.User != nil {
			admins = append(admins, models.UserID(member.User.ID))
		}
	}
	return admins, nil
}
