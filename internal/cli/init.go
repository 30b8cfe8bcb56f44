// Package cli holds the start-up steps shared by cmd/kopilka and
// cmd/export-worker.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"kopilka/internal/classifier"
	"kopilka/internal/config"
	applog "kopilka/internal/log"
	"kopilka/internal/services"
	"kopilka/internal/storage"
)

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// installs it as the slog default.
func SetupLogger(cfg *config.Config, component string) *applog.Logger {
	level, err := applog.ParseLevel(cfg.LogLevel)
	logger := applog.New(applog.Config{
		Level:     level,
		Format:    cfg.LogFormat,
		Component: component,
	})
	applog.SetDefault(logger)
	if err != nil {
		logger.Warn("Unknown log level, using info", "value", cfg.LogLevel)
	}
	return logger
}

// MustValidate runs validate and exits the process when it fails.
func MustValidate(logger *applog.Logger, validate func() error) {
	if err := validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
}

// InitSQLite opens the repository and exits the process on failure.
func InitSQLite(logger *applog.Logger, dbPath string) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", dbPath)
		os.Exit(1)
	}
	logger.Info("SQLite repository ready", "path", dbPath)
	return repo
}

// InitClassifier builds the configured classifier and readies it from the
// saved artifact or the seed corpus plus stored feedback.
func InitClassifier(ctx context.Context, cfg *config.Config, repo *storage.SQLiteRepository) (*classifier.Classifier, error) {
	cls, err := classifier.New(classifier.Options{
		Backend:             cfg.ClassifierBackend,
		ConfidenceThreshold: cfg.ClassifierConfidenceThreshold,
		ModelPath:           cfg.ClassifierModelPath,
	})
	if err != nil {
		return nil, err
	}
	if err := services.BootstrapClassifier(ctx, cls, cfg.ClassifierModelPath, repo); err != nil {
		return nil, err
	}
	return cls, nil
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. After
// the signal, cleanup runs with at most timeout to finish; done is closed
// once it returns or the timeout expires.
func GracefulShutdown(logger *applog.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		defer close(done)
		<-ctx.Done()
		stop()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup(shutdownCtx)
			}
			close(finished)
		}()

		select {
		case <-finished:
			logger.Info("Shutdown complete")
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown timeout reached")
		}
	}()

	return ctx, done
}

// LogDone reports how a long-running component stopped.
func LogDone(ctx context.Context, name string, err error) {
	if err != nil && ctx.Err() == nil {
		slog.ErrorContext(ctx, "Component stopped", "component", name, "error", err)
		return
	}
	slog.InfoContext(ctx, "Component stopped", "component", name)
}
