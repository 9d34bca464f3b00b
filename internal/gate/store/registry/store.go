// Package registry persists completed registrations. A record exists here if
// and only if the user passed every validation gate; every mutation must be
// followed by Persist before it counts as durable.
package registry

import (
	"context"

	"gatekeeper/internal/gate/models"
)

// Entry pairs an identity with its committed record, for enumeration.
type Entry struct {
	User   models.UserID
	Record models.RegistrationRecord
}

// Store is the durable registry of admitted users.
// Implementations serialize access internally; callers never see the raw map.
type Store interface {
	// Upsert writes the record for an identity.
	Upsert(ctx context.Context, user models.UserID, record models.RegistrationRecord) error

	// Remove deletes the record for an identity, reporting whether one existed.
	Remove(ctx context.Context, user models.UserID) (bool, error)

	// Get returns the record for an identity, if present.
	Get(ctx context.Context, user models.UserID) (models.RegistrationRecord, bool, error)

	// Contains reports whether an identity is registered.
	Contains(ctx context.Context, user models.UserID) (bool, error)

	// All enumerates every entry, ordered by identity for stable output.
	All(ctx context.Context) ([]Entry, error)

	// Load replaces in-memory state from the backing store. A missing or
	// corrupt backing store yields an empty registry, logged, never an error
	// that fails the process.
	Load(ctx context.Context) error

	// Persist writes the full registry to the backing store. A reader that
	// loads after a completed Persist sees either the old or the fully
	// updated state, never a partial write.
	Persist(ctx context.Context) error
}
