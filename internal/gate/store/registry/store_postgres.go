package registry

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"gatekeeper/internal/gate/models"
)

// PostgresStore persists registrations as write-through rows. Each mutation
// is durable on its own, so Persist is satisfied trivially; Load is a no-op
// because reads always hit the live table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed registry store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the backing table when absent.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS registrations (
			user_id       TEXT PRIMARY KEY,
			record        JSONB NOT NULL,
			registered_at TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure registrations schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Upsert(ctx context.Context, user models.UserID, record models.RegistrationRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal registration record: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO registrations (user_id, record, registered_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			record = EXCLUDED.record,
			registered_at = EXCLUDED.registered_at
	`, user.String(), payload, record.RegisteredAt)
	if err != nil {
		return fmt.Errorf("upsert registration: %w", err)
	}
	return nil
}

func (s *PostgresStore) Remove(ctx context.Context, user models.UserID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM registrations WHERE user_id = $1`, user.String())
	if err != nil {
		return false, fmt.Errorf("remove registration: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove registration rows: %w", err)
	}
	return affected > 0, nil
}

func (s *PostgresStore) Get(ctx context.Context, user models.UserID) (models.RegistrationRecord, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT record FROM registrations WHERE user_id = $1`, user.String()).Scan(&payload)
	if err == sql.ErrNoRows {
		return models.RegistrationRecord{}, false, nil
	}
	if err != nil {
		return models.RegistrationRecord{}, false, fmt.Errorf("get registration: %w", err)
	}
	var record models.RegistrationRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return models.RegistrationRecord{}, false, fmt.Errorf("decode registration record: %w", err)
	}
	return record, true, nil
}

func (s *PostgresStore) Contains(ctx context.Context, user models.UserID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM registrations WHERE user_id = $1)`, user.String()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("contains registration: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) All(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, record FROM registrations ORDER BY user_id::bigint`)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var key string
		var payload []byte
		if err := rows.Scan(&key, &payload); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		user, err := models.ParseUserID(key)
		if err != nil {
			return nil, err
		}
		var record models.RegistrationRecord
		if err := json.Unmarshal(payload, &record); err != nil {
			return nil, fmt.Errorf("decode registration record: %w", err)
		}
		entries = append(entries, Entry{User: user, Record: record})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registrations: %w", err)
	}
	return entries, nil
}

func (s *PostgresStore) Load(context.Context) error    { return nil }
func (s *PostgresStore) Persist(context.Context) error { return nil }
