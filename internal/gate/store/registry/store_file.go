package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"gatekeeper/internal/gate/models"
)

// FileStore is the default backend: the whole registry serialized as a JSON
// mapping from string-form identity to record, rewritten wholesale on every
// Persist. The write goes through a temp file plus rename so a concurrent
// loader sees either the old or the new snapshot, never a torn one.
type FileStore struct {
	mem    *MemoryStore
	path   string
	logger *slog.Logger
}

// NewFile constructs a file-backed registry at path.
func NewFile(path string, logger *slog.Logger) *FileStore {
	return &FileStore{mem: NewMemory(), path: path, logger: logger}
}

func (s *FileStore) Upsert(ctx context.Context, user models.UserID, record models.RegistrationRecord) error {
	return s.mem.Upsert(ctx, user, record)
}

func (s *FileStore) Remove(ctx context.Context, user models.UserID) (bool, error) {
	return s.mem.Remove(ctx, user)
}

func (s *FileStore) Get(ctx context.Context, user models.UserID) (models.RegistrationRecord, bool, error) {
	return s.mem.Get(ctx, user)
}

func (s *FileStore) Contains(ctx context.Context, user models.UserID) (bool, error) {
	return s.mem.Contains(ctx, user)
}

func (s *FileStore) All(ctx context.Context) ([]Entry, error) {
	return s.mem.All(ctx)
}

// Load reads the snapshot from disk. A missing file starts empty; a corrupt
// file is logged and also starts empty rather than failing startup.
func (s *FileStore) Load(context.Context) error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Info("registry file absent, starting empty", "path", s.path)
			s.mem.replace(make(map[models.UserID]models.RegistrationRecord))
			return nil
		}
		s.logger.Error("registry file unreadable, starting empty", "path", s.path, "error", err)
		s.mem.replace(make(map[models.UserID]models.RegistrationRecord))
		return nil
	}

	var raw map[string]models.RegistrationRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		s.logger.Error("registry file corrupt, starting empty", "path", s.path, "error", err)
		s.mem.replace(make(map[models.UserID]models.RegistrationRecord))
		return nil
	}

	records := make(map[models.UserID]models.RegistrationRecord, len(raw))
	for key, record := range raw {
		user, err := models.ParseUserID(key)
		if err != nil {
			s.logger.Error("registry file holds invalid identity, skipping", "key", key, "error", err)
			continue
		}
		records[user] = record
	}
	s.mem.replace(records)
	s.logger.Info("registry loaded", "path", s.path, "users", len(records))
	return nil
}

// Persist writes the full registry snapshot atomically.
func (s *FileStore) Persist(context.Context) error {
	data, err := json.MarshalIndent(s.mem.snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create registry temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write registry temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close registry temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace registry file: %w", err)
	}
	return nil
}
