package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"gatekeeper/internal/gate/models"
)

const redisRegistryKey = "gatekeeper:registry"

// RedisStore keeps the authoritative state in memory and serializes the whole
// registry as one JSON value under a single key, preserving the wholesale
// load/persist contract: a single SET can never expose a partial write.
type RedisStore struct {
	mem    *MemoryStore
	client *redis.Client
	logger *slog.Logger
}

// NewRedis constructs a Redis-backed registry store.
func NewRedis(client *redis.Client, logger *slog.Logger) *RedisStore {
	return &RedisStore{mem: NewMemory(), client: client, logger: logger}
}

func (s *RedisStore) Upsert(ctx context.Context, user models.UserID, record models.RegistrationRecord) error {
	return s.mem.Upsert(ctx, user, record)
}

func (s *RedisStore) Remove(ctx context.Context, user models.UserID) (bool, error) {
	return s.mem.Remove(ctx, user)
}

func (s *RedisStore) Get(ctx context.Context, user models.UserID) (models.RegistrationRecord, bool, error) {
	return s.mem.Get(ctx, user)
}

func (s *RedisStore) Contains(ctx context.Context, user models.UserID) (bool, error) {
	return s.mem.Contains(ctx, user)
}

func (s *RedisStore) All(ctx context.Context) ([]Entry, error) {
	return s.mem.All(ctx)
}

func (s *RedisStore) Load(ctx context.Context) error {
	data, err := s.client.Get(ctx, redisRegistryKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			s.logger.Info("registry key absent in redis, starting empty", "key", redisRegistryKey)
			s.mem.replace(make(map[models.UserID]models.RegistrationRecord))
			return nil
		}
		s.logger.Error("registry unreadable from redis, starting empty", "key", redisRegistryKey, "error", err)
		s.mem.replace(make(map[models.UserID]models.RegistrationRecord))
		return nil
	}

	var raw map[string]models.RegistrationRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		s.logger.Error("registry value corrupt in redis, starting empty", "key", redisRegistryKey, "error", err)
		s.mem.replace(make(map[models.UserID]models.RegistrationRecord))
		return nil
	}

	records := make(map[models.UserID]models.RegistrationRecord, len(raw))
	for key, record := range raw {
		user, err := models.ParseUserID(key)
		if err != nil {
			s.logger.Error("registry value holds invalid identity, skipping", "key", key, "error", err)
			continue
		}
		records[user] = record
	}
	s.mem.replace(records)
	s.logger.Info("registry loaded from redis", "users", len(records))
	return nil
}

func (s *RedisStore) Persist(ctx context.Context) error {
	data, err := json.Marshal(s.mem.snapshot())
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}
	if err := s.client.Set(ctx, redisRegistryKey, data, 0).Err(); err != nil {
		return fmt.Errorf("persist registry to redis: %w", err)
	}
	return nil
}
