// Package models defines the core gate entities shared across stores,
// scheduler, and the registration service.
package models

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// UserID is the stable identity of a channel participant. Equality is exact;
// no normalization is applied anywhere.
type UserID int64

// ChatID identifies a chat: the gated group or a private dialogue.
type ChatID int64

// MessageID identifies a single message within a chat.
type MessageID int

// String returns the stable string form used as the persistence key.
func (id UserID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseUserID converts the persisted string form back into a UserID.
func ParseUserID(s string) (UserID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse user id %q: %w", s, err)
	}
	return UserID(n), nil
}

// RegistrationRecord holds the answers of one successfully registered user.
// Records are immutable once committed; re-registration after removal creates
// a new record. Fields keeps field name -> normalized answer, FieldOrder keeps
// the flow's step order so human-readable dumps stay stable.
type RegistrationRecord struct {
	Fields       map[string]string `json:"fields"`
	FieldOrder   []string          `json:"field_order"`
	RegisteredAt time.Time         `json:"registered_at"`
}

// PendingAdmission marks a user who is inside the gate but not yet through it.
type PendingAdmission struct {
	User     UserID
	Origin   ChatID
	Deadline time.Time
}

// SessionState is the finite state of one registration dialogue.
type SessionState int

const (
	SessionActive SessionState = iota
	// SessionAbandoned marks a session whose pending admission was evicted
	// while the dialogue was still open. It accepts no further input.
	SessionAbandoned
)

// Session is the live registration dialogue for one identity. The session
// only exists while a PendingAdmission exists (or existed, for abandoned
// sessions awaiting a rejection reply).
type Session struct {
	ID    uuid.UUID
	User  UserID
	State SessionState
	// Step is the index of the flow step currently awaiting an answer.
	Step int
	// Answers holds validated, normalized values for completed steps only.
	Answers map[string]string
	// Transcript records bot-sent DM message IDs for bulk cleanup on
	// abnormal session teardown. Intentionally kept on success.
	Transcript []MessageID
	StartedAt  time.Time
}

// NewSession opens a dialogue at the first step.
func NewSession(user UserID, now time.Time) *Session {
	return &Session{
		ID:        uuid.New(),
		User:      user,
		State:     SessionActive,
		Answers:   make(map[string]string),
		StartedAt: now,
	}
}
