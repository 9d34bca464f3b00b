// Command bot runs the membership gatekeeper: it restricts new group members
// until they finish the registration dialogue, and evicts the ones who don't
// in time. Business logic lives in internal/gate; main only wires
// dependencies and the process lifecycle.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"gatekeeper/internal/gate/flow"
	gatemetrics "gatekeeper/internal/gate/metrics"
	"gatekeeper/internal/gate/models"
	"gatekeeper/internal/gate/service"
	"gatekeeper/internal/gate/store/registry"
	"gatekeeper/internal/platform/config"
	"gatekeeper/internal/platform/httpserver"
	"gatekeeper/internal/platform/logger"
	"gatekeeper/internal/transport/telegram"
)

func main() {
	if err := run(); err != nil {
		slog.Error("gatekeeper exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Optional .env for local runs; the environment wins in deployment.
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, cleanup, err := openRegistry(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()
	if err := store.Load(ctx); err != nil {
		return fmt.Errorf("load registry: %w", err)
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return fmt.Errorf("authorize bot: %w", err)
	}
	log.Info("bot authorized", "username", bot.Self.UserName)

	svc := service.New(
		service.Config{
			RegistrationTimeout: cfg.RegistrationTimeout,
			EvictionCooldown:    cfg.EvictionCooldown,
			InviteLink:          cfg.InviteLink,
			Rules:               cfg.Rules,
			BotUsername:         bot.Self.UserName,
			PrimaryChat:         models.ChatID(cfg.PrimaryChat),
			AdminIDs:            cfg.AdminUserIDs(),
		},
		store,
		telegram.NewChannel(bot),
		log,
		service.WithMetrics(gatemetrics.New()),
		service.WithFlow(flow.Classic(cfg.StrictYear)),
	)
	defer svc.Close()

	dispatcher := telegram.NewDispatcher(bot, svc, log)
	ops := httpserver.New(cfg.OpsAddr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := dispatcher.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("dispatcher: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		log.Info("ops server listening", "addr", cfg.OpsAddr)
		if err := ops.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("ops server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return ops.Shutdown(shutdownCtx)
	})

	log.Info("gatekeeper started",
		"timeout", cfg.RegistrationTimeout,
		"cooldown", cfg.EvictionCooldown,
		"backend", cfg.StoreBackend)
	return g.Wait()
}

// openRegistry selects the registry backend. The returned cleanup closes any
// underlying connection.
func openRegistry(ctx context.Context, cfg config.Config, log *slog.Logger) (registry.Store, func(), error) {
	noop := func() {}
	switch cfg.StoreBackend {
	case config.BackendMemory:
		return registry.NewMemory(), noop, nil
	case config.BackendFile:
		return registry.NewFile(cfg.RegistryFile, log), noop, nil
	case config.BackendPostgres:
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("ping postgres: %w", err)
		}
		store := registry.NewPostgres(db)
		if err := store.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return store, func() { db.Close() }, nil
	case config.BackendRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse redis URL: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		return registry.NewRedis(client, log), func() { client.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
