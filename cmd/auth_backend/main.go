package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SscSPs/auth_session_service/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/auth_session_service/internal/core/ports/services"
	"github.com/SscSPs/auth_session_service/internal/core/services"
	"github.com/SscSPs/auth_session_service/internal/handlers"
	"github.com/SscSPs/auth_session_service/internal/middleware"
	"github.com/SscSPs/auth_session_service/internal/notifications"
	"github.com/SscSPs/auth_session_service/internal/platform/config"
	"github.com/SscSPs/auth_session_service/internal/platform/telemetry"
	"github.com/SscSPs/auth_session_service/internal/repositories/database/pgsql"
	"github.com/SscSPs/auth_session_service/internal/repositories/database/sqlite"
	"github.com/SscSPs/auth_session_service/internal/utils"
	"github.com/SscSPs/auth_session_service/pkg/database"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

// @title Auth Session Service API
// @version 1.0
// @description Accounts, sessions with rotating refresh tokens, and purpose-scoped email tokens.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	shutdownTracing, err := telemetry.Setup(ctx, cfg.AppName, cfg.OTELEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("Failed to flush traces", slog.String("error", err.Error()))
		}
	}()

	repos, closeStore, err := openRepositories(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	notifier, err := newNotifier(cfg, logger)
	if err != nil {
		return err
	}

	container := services.NewServiceContainer(cfg, repos, utils.NewBcryptHasher(cfg.BcryptCost), notifier)

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())

	if err := r.SetTrustedProxies(nil); err != nil {
		return err
	}

	handlers.RegisterRoutes(r, cfg, container)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port), slog.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openRepositories connects the configured store and returns its repositories
// with a func releasing the connection.
func openRepositories(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repositories.RepositoryProvider, func(), error) {
	if cfg.DBDriver == "sqlite" {
		store, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return repositories.RepositoryProvider{}, nil, err
		}
		logger.Info("SQLite store opened", slog.String("path", cfg.SQLitePath))
		return store.RepositoryProvider(), func() {
			if err := store.Close(); err != nil {
				logger.Error("Failed to close SQLite store", slog.String("error", err.Error()))
			}
		}, nil
	}

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
	if err != nil {
		return repositories.RepositoryProvider{}, nil, err
	}
	logger.Info("Running database migrations...")
	if err := database.RunMigrations(logger, cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		database.ClosePgxPool(dbPool)
		return repositories.RepositoryProvider{}, nil, err
	}
	return pgsql.NewRepositoryProvider(dbPool), func() { database.ClosePgxPool(dbPool) }, nil
}

// newNotifier sends real mail when an SMTP host is configured and logs messages otherwise.
func newNotifier(cfg *config.Config, logger *slog.Logger) (portssvc.Notifier, error) {
	renderer, err := notifications.NewRenderer()
	if err != nil {
		return nil, err
	}
	if err := renderer.CheckConfigured(cfg.MailTemplates); err != nil {
		return nil, err
	}
	if cfg.SMTPHost == "" {
		logger.Warn("SMTP_HOST not set, notifications are only logged")
		return notifications.NewLogNotifier(renderer), nil
	}
	return notifications.NewSMTPNotifier(cfg, renderer)
}
