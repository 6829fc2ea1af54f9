package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"mural-budget/internal/bot"
	"mural-budget/internal/config"
	"mural-budget/internal/httpapi"
	"mural-budget/internal/storage"
	"mural-budget/pkg/logger"
	"mural-budget/pkg/redis"
	"mural-budget/pkg/viacep"
)

const sessionSweepInterval = time.Minute

// ENTRY POINT

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	zapLogger, err := logger.New(cfg.LogLevel, cfg.IsDevelopment())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	ctx, cancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	redisClient := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
	defer redisClient.Close()

	if err := redisClient.Ping(ctx); err != nil {
		zapLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	pgStorage, err := storage.NewPostgresStorage(ctx, cfg.Database, redisClient, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to init PostgreSQL storage", zap.Error(err))
	}
	defer pgStorage.Close()

	// "muralbot migrate up|down|status" manages the schema and exits.
	if len(os.Args) > 2 && os.Args[1] == "migrate" {
		if err := runMigrationCommand(ctx, os.Args[2], pgStorage, zapLogger); err != nil {
			zapLogger.Fatal("Migration command failed", zap.Error(err))
		}
		return
	}

	if cfg.Database.MigrateOnStart {
		if err := storage.RunMigrations(ctx, pgStorage.DB(), zapLogger); err != nil {
			zapLogger.Fatal("Failed to run migrations", zap.Error(err))
		}
	}

	addressClient := viacep.NewClient(cfg.ViaCEP.BaseURL, cfg.ViaCEP.Timeout, cfg.ViaCEP.MaxElapsedTime, zapLogger)

	var notifier httpapi.Notifier = logNotifier{logger: zapLogger}
	var wg sync.WaitGroup

	if cfg.BotEnabled() {
		tgBot, err := bot.New(
			cfg.Telegram.Token,
			bot.NewStateStorage(redisClient),
			pgStorage,
			addressClient,
			zapLogger,
			cfg,
		)
		if err != nil {
			zapLogger.Fatal("Failed to create bot", zap.Error(err))
		}
		notifier = tgBot

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := tgBot.Start(ctx); err != nil {
				zapLogger.Error("Bot stopped with error", zap.Error(err))
				cancel()
			}
		}()
	} else {
		zapLogger.Warn("Telegram token not set, chat intake disabled")
	}

	sessions := httpapi.NewSessionRegistry(cfg.Estimate.DebounceDelay, cfg.Estimate.SessionIdleTTL, cfg.Estimate.MaxSessions)
	wg.Add(1)
	go func() {
		defer wg.Done()
		sessions.Run(ctx, sessionSweepInterval, zapLogger)
	}()

	handler := httpapi.NewHandler(pgStorage, addressClient, notifier, sessions, cfg.Business, zapLogger)
	server := httpapi.NewServer(handler, cfg.HTTP, zapLogger)

	go func() {
		zapLogger.Info("HTTP server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Error("HTTP server failed", zap.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()
	zapLogger.Info("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	wg.Wait()

	zapLogger.Info("Service shutdown gracefully")
}

func runMigrationCommand(ctx context.Context, command string, s *storage.PostgresStorage, logger *zap.Logger) error {
	switch command {
	case "up":
		return storage.RunMigrations(ctx, s.DB(), logger)
	case "down":
		return storage.RollbackMigration(ctx, s.DB(), logger)
	case "status":
		return storage.Status(ctx, s.DB(), logger)
	default:
		return fmt.Errorf("unknown migrate command %q, want up, down or status", command)
	}
}

// logNotifier stands in for the bot when no Telegram token is configured.
type logNotifier struct {
	logger *zap.Logger
}

func (n logNotifier) NotifyNewLead(_ context.Context, lead storage.Lead) {
	n.logger.Info("New lead received",
		zap.Int64("lead_id", lead.ID),
		zap.String("name", lead.FullName),
		zap.String("phone", lead.Phone),
		zap.Float64("estimate_final", lead.EstimateFinal))
}
