package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cobraclutchingit/rep-dash-sub001/internal/api"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/auth"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/config"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/crm"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/database"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/leaderboard"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/mail"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/models"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/server"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/streams"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/worker"
)

func main() {
	mode := flag.String("mode", "all", "run mode: server, worker, or all")
	flag.Parse()

	cfg := config.Load()
	log := worker.NewLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	if err := run(cfg, log, *mode); err != nil {
		log.Error("Fatal error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger, mode string) error {
	if mode != "server" && mode != "worker" && mode != "all" {
		return fmt.Errorf("unknown mode %q", mode)
	}

	db, err := database.Init(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database init: %w", err)
	}
	defer database.Close(db)

	if err := database.RunMigrations(db); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	if cfg.EncryptionKey != "" {
		if err := models.InitEncryption(cfg.EncryptionKey); err != nil {
			return fmt.Errorf("encryption init: %w", err)
		}
	} else {
		log.Warn("ENCRYPTION_KEY not set, OAuth tokens will be stored in plaintext")
	}

	if cfg.SeedDevData {
		if err := database.SeedDevData(db); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	if err := api.RegisterValidations(); err != nil {
		return fmt.Errorf("validator setup: %w", err)
	}
	auth.InitProviders(cfg)

	if err := worker.InitClient(cfg.RedisURL); err != nil {
		return fmt.Errorf("asynq client init: %w", err)
	}
	defer worker.CloseClient()

	publisher, err := streams.NewPublisher(cfg.RedisURL)
	if err != nil {
		log.Warn("Streams publisher unavailable, rank events disabled", "error", err)
		publisher = nil
	} else {
		defer publisher.Close()
	}

	store := leaderboard.NewGormStore(db)
	var events leaderboard.EventPublisher
	if publisher != nil {
		events = publisher
	}
	svc := leaderboard.NewService(store, store, events, log)

	mailer := mail.New(cfg.SendgridAPIKey, cfg.MailFrom, cfg.MailStubMode, log)
	crmClient := crm.NewClient(cfg.CRMFeedURL, cfg.CRMFeedSecret, cfg.CRMStubMode)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if mode == "worker" || mode == "all" {
		stopWorker, err := worker.Start(cfg, db, crmClient, svc)
		if err != nil {
			return fmt.Errorf("worker start: %w", err)
		}
		defer stopWorker()

		stopScheduler, err := worker.StartScheduler(cfg)
		if err != nil {
			return fmt.Errorf("scheduler start: %w", err)
		}
		defer stopScheduler()

		startRankEventConsumer(ctx, cfg, db, log)
	}

	if mode == "worker" {
		log.Info("Worker running", "redis", cfg.RedisURL)
		<-ctx.Done()
		log.Info("Shutting down worker")
		return nil
	}

	router := server.New(cfg, db, svc, mailer, log)
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server listening", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// startRankEventConsumer runs the Redis Stream consumer that turns rank
// movements into notifications. A consumer failure degrades the feature,
// not the process.
func startRankEventConsumer(ctx context.Context, cfg *config.Config, db *gorm.DB, log *slog.Logger) {
	hostname, _ := os.Hostname()
	// Consumer names must be unique within the group or two workers on the
	// same host would steal each other's pending messages.
	consumerName := fmt.Sprintf("%s-%s", hostname, uuid.NewString()[:8])
	consumer, err := streams.NewEventConsumer(cfg.RedisURL, consumerName)
	if err != nil {
		log.Warn("Rank event consumer unavailable", "error", err)
		return
	}

	go func() {
		defer consumer.Close()
		handler := streams.NewRankEventHandler(db, log)
		if err := consumer.Consume(ctx, handler); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Rank event consumer stopped", "error", err)
		}
	}()
}
