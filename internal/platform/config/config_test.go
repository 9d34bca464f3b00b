package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gatekeeper/internal/gate/models"
)

func setRequired(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("INVITE_LINK", "https://t.me/+vagclub")
}

func TestFromEnvDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	require.Equal(t, 120*time.Second, cfg.RegistrationTimeout)
	require.Equal(t, 30*time.Second, cfg.EvictionCooldown)
	require.True(t, cfg.StrictYear)
	require.Equal(t, BackendFile, cfg.StoreBackend)
	require.Equal(t, "registry.json", cfg.RegistryFile)
	require.Equal(t, DefaultRules, cfg.Rules)
	require.Equal(t, ":8080", cfg.OpsAddr)
}

func TestFromEnvMissingToken(t *testing.T) {
	t.Setenv("INVITE_LINK", "https://t.me/+vagclub")

	_, err := FromEnv()
	require.Error(t, err)
}

func TestFromEnvOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("REGISTRATION_TIMEOUT", "45s")
	t.Setenv("GATE_STRICT_YEAR", "false")
	t.Setenv("GATE_ADMIN_IDS", "42,77")
	t.Setenv("GATE_RULES", "custom rules")

	cfg, err := FromEnv()
	require.NoError(t, err)

	require.Equal(t, 45*time.Second, cfg.RegistrationTimeout)
	require.False(t, cfg.StrictYear)
	require.Equal(t, "custom rules", cfg.Rules)
	require.Equal(t, []models.UserID{42, 77}, cfg.AdminUserIDs())
}

func TestFromEnvBackendValidation(t *testing.T) {
	t.Run("postgres requires a database url", func(t *testing.T) {
		setRequired(t)
		t.Setenv("STORE_BACKEND", "postgres")

		_, err := FromEnv()
		require.ErrorContains(t, err, "DATABASE_URL")

		t.Setenv("DATABASE_URL", "postgres://localhost/gatekeeper")
		_, err = FromEnv()
		require.NoError(t, err)
	})

	t.Run("redis requires a redis url", func(t *testing.T) {
		setRequired(t)
		t.Setenv("STORE_BACKEND", "redis")

		_, err := FromEnv()
		require.ErrorContains(t, err, "REDIS_URL")
	})

	t.Run("unknown backend rejected", func(t *testing.T) {
		setRequired(t)
		t.Setenv("STORE_BACKEND", "etcd")

		_, err := FromEnv()
		require.ErrorContains(t, err, "unknown STORE_BACKEND")
	})
}
