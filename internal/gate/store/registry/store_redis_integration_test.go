//go:build integration

package registry

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"gatekeeper/internal/gate/models"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()

	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	addr, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get redis connection string: %v", err)
	}
	opts, err := redis.ParseURL(addr)
	if err != nil {
		t.Fatalf("failed to parse redis URL: %v", err)
	}

	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("failed to ping redis: %v", err)
	}
	return client
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	client := startRedis(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	record := models.RegistrationRecord{
		Fields:       map[string]string{"name": "Іван Петренко", "vehicle": "Audi A4"},
		FieldOrder:   []string{"name", "vehicle"},
		RegisteredAt: time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC),
	}

	t.Run("load from an empty keyspace starts empty", func(t *testing.T) {
		store := NewRedis(client, logger)
		require.NoError(t, store.Load(ctx))

		entries, err := store.All(ctx)
		require.NoError(t, err)
		require.Empty(t, entries)
	})

	t.Run("persisted state survives a fresh store", func(t *testing.T) {
		store := NewRedis(client, logger)
		require.NoError(t, store.Load(ctx))
		require.NoError(t, store.Upsert(ctx, models.UserID(1), record))
		require.NoError(t, store.Persist(ctx))

		reopened := NewRedis(client, logger)
		require.NoError(t, reopened.Load(ctx))

		got, ok, err := reopened.Get(ctx, models.UserID(1))
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, record.Fields, got.Fields)
	})

	t.Run("corrupt value falls back to empty", func(t *testing.T) {
		require.NoError(t, client.Set(ctx, "gatekeeper:registry", "not json", 0).Err())

		store := NewRedis(client, logger)
		require.NoError(t, store.Load(ctx))

		entries, err := store.All(ctx)
		require.NoError(t, err)
		require.Empty(t, entries)
	})

	t.Run("persist after removal shrinks the stored set", func(t *testing.T) {
		store := NewRedis(client, logger)
		require.NoError(t, store.Upsert(ctx, models.UserID(1), record))
		require.NoError(t, store.Upsert(ctx, models.UserID(2), record))
		require.NoError(t, store.Persist(ctx))

		removed, err := store.Remove(ctx, models.UserID(1))
		require.NoError(t, err)
		require.True(t, removed)
		require.NoError(t, store.Persist(ctx))

		reopened := NewRedis(client, logger)
		require.NoError(t, reopened.Load(ctx))

		entries, err := reopened.All(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		require.Equal(t, models.UserID(2), entries[0].User)
	})
}
