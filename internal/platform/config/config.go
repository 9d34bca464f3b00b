// Package config builds process configuration from the environment so main
// stays lean.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"gatekeeper/internal/gate/models"
)

// Backend names for the registry store.
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// DefaultRules is the rules text delivered to freshly registered users when
// the deployment does not override it.
const DefaultRules = `**Правила чата:**
1. Торгівля (відкрита/закрита) будь-якого виду
2. Реклама (відкрита / закрита) своїх послуг будь-якого виду
3. Пропаганда BMW
4. Розмови про те, що VAG ламається )))
5. Грошові збори
6. Інше ...`

// Config captures every process-level knob.
type Config struct {
	BotToken   string `env:"BOT_TOKEN,required"`
	InviteLink string `env:"INVITE_LINK,required"`

	// PrimaryChat enables live administrator lookup for /list when set.
	PrimaryChat int64   `env:"GATE_CHAT_ID"`
	AdminIDs    []int64 `env:"GATE_ADMIN_IDS"`

	RegistrationTimeout time.Duration `env:"REGISTRATION_TIMEOUT" envDefault:"120s"`
	EvictionCooldown    time.Duration `env:"EVICTION_COOLDOWN" envDefault:"30s"`

	// StrictYear toggles the model-year validator; some deployments accept
	// free-form text for that step.
	StrictYear bool   `env:"GATE_STRICT_YEAR" envDefault:"true"`
	Rules      string `env:"GATE_RULES"`

	StoreBackend string `env:"STORE_BACKEND" envDefault:"file"`
	RegistryFile string `env:"REGISTRY_FILE" envDefault:"registry.json"`
	DatabaseURL  string `env:"DATABASE_URL"`
	RedisURL     string `env:"REDIS_URL"`

	OpsAddr  string `env:"OPS_ADDR" envDefault:":8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// FromEnv parses and validates configuration from environment variables.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.Rules == "" {
		cfg.Rules = DefaultRules
	}
	switch cfg.StoreBackend {
	case BackendFile, BackendMemory:
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("STORE_BACKEND=postgres requires DATABASE_URL")
		}
	case BackendRedis:
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("STORE_BACKEND=redis requires REDIS_URL")
		}
	default:
		return Config{}, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
	return cfg, nil
}

// AdminUserIDs converts the configured admin list into gate identities.
func (c Config) AdminUserIDs() []models.UserID {
	admins := make([]models.UserID, len(c.AdminIDs))
	for i, id := range c.AdminIDs {
		admins[i] = models.UserID(id)
	}
	return admins
}
