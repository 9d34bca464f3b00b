// Package ports defines the contracts the gate core requires from the
// external channel boundary. Implementations live in internal/transport; the
// core never imports a chat-platform SDK directly.
package ports

import (
	"context"
	"time"

	"gatekeeper/internal/gate/models"
)

// SendOptions carry optional message decorations.
type SendOptions struct {
	// HTML enables rich-text parsing for the message body.
	HTML bool
	// Button attaches a single inline URL button when non-nil.
	Button *URLButton
}

// URLButton is an inline button that opens a link.
type URLButton struct {
	Label string
	URL   string
}

// Channel is the external membership/permission boundary. Every call is
// expected to complete or fail within a bounded time; failures are logged by
// callers and never roll back state already committed internally.
type Channel interface {
	// Restrict withdraws send permissions from a member of the chat.
	Restrict(ctx context.Context, user models.UserID, chat models.ChatID) error

	// Unrestrict restores full send permissions to a member of the chat.
	Unrestrict(ctx context.Context, user models.UserID, chat models.ChatID) error

	// Evict removes a member from the chat for the cooldown duration, after
	// which the platform lets them rejoin.
	Evict(ctx context.Context, user models.UserID, chat models.ChatID, cooldown time.Duration) error

	// Send delivers a message to a chat and returns the sent message ID.
	Send(ctx context.Context, chat models.ChatID, text string, opts SendOptions) (models.MessageID, error)

	// Delete removes a previously sent message.
	Delete(ctx context.Context, chat models.ChatID, message models.MessageID) error

	// Administrators lists the chat's administrator identities at call time.
	Administrators(ctx context.Context, chat models.ChatID) ([]models.UserID, error)

	// Self returns the bot's own identity, used by the eviction self-guard.
	Self() models.UserID
}
