package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
	"github.com/spf13/cobra"

	"github.com/dtroode/qapath-server/database"
	httpctx "github.com/dtroode/qapath-server/internal/api/http/context"
	"github.com/dtroode/qapath-server/internal/api/http/router"
	httpserver "github.com/dtroode/qapath-server/internal/api/http/server"
	"github.com/dtroode/qapath-server/internal/api/http/session"
	"github.com/dtroode/qapath-server/internal/config"
	"github.com/dtroode/qapath-server/internal/logger"
	"github.com/dtroode/qapath-server/internal/model"
	"github.com/dtroode/qapath-server/internal/observability"
	"github.com/dtroode/qapath-server/internal/password"
	"github.com/dtroode/qapath-server/internal/ratelimit"
	"github.com/dtroode/qapath-server/internal/repository/postgres"
	"github.com/dtroode/qapath-server/internal/server"
	"github.com/dtroode/qapath-server/internal/service"
	storage "github.com/dtroode/qapath-server/internal/storage/minio"
	"github.com/dtroode/qapath-server/internal/token"
)

const connectBackoff = 500 * time.Millisecond

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Connect to PostgreSQL, apply pending migrations and serve the API until
SIGINT or SIGTERM is received.`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.NewConfig()
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}
	lg := logger.NewWithFormat(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	if err := cfg.Validate(); err != nil {
		lg.Fatal("refusing to start with invalid configuration", "error", err)
	}

	lg.Info("Starting qapath-server",
		"version", buildVersion,
		"commit", buildCommit,
		"built", buildDate,
		"env", cfg.AppEnv)

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		lg.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	if err := pingWithRetry(ctx, db, cfg.Database.ConnectAttempts, connectBackoff, lg); err != nil {
		lg.Fatal("database is unreachable", "error", err)
	}
	if err := database.Migrate(ctx, cfg.Database.DSN); err != nil {
		lg.Fatal("failed to apply migrations", "error", err)
	}

	jwt, err := token.NewJWT(token.Config{
		Secret:     cfg.JWT.Secret,
		Algorithm:  cfg.JWT.Algorithm,
		AccessTTL:  cfg.JWT.AccessTTL(),
		RefreshTTL: cfg.JWT.RefreshTTL(),
	}, lg)
	if err != nil {
		lg.Fatal("failed to initialize token manager", "error", err)
	}

	var (
		metrics *observability.Metrics
		events  model.AuthEventRecorder
	)
	if cfg.MetricsEnabled {
		metrics = observability.NewMetrics()
		events = metrics
	}

	var limiter model.LoginLimiter
	if cfg.Redis.Address != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		limiter = ratelimit.New(rdb, ratelimit.Config{
			MaxAttempts: cfg.Login.MaxAttempts,
			Cooldown:    cfg.Login.Cooldown,
		}, lg)
		lg.Info("Login throttling enabled", "redis", cfg.Redis.Address)
	}

	var avatars model.Storage
	if cfg.Storage.Enabled {
		client, err := storage.NewClient(ctx, storage.Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			UseSSL:    cfg.Storage.UseSSL,
		})
		if err != nil {
			lg.Fatal("failed to initialize avatar storage", "error", err)
		}
		avatars = client
	}

	userRepo := postgres.NewUserRepository(db)
	progressRepo := postgres.NewProgressRepository(db)

	authService := service.NewAuth(userRepo, password.NewHasher(), service.NewTokenService(jwt, lg), limiter, events, lg)
	profileService := service.NewProfile(userRepo, avatars, lg)
	progressService := service.NewProgress(progressRepo, lg)

	sameSite, _ := cfg.Cookie.SameSiteMode()
	transport := session.New(session.Config{
		Name:     cfg.Cookie.Name,
		Domain:   cfg.Cookie.Domain,
		Secure:   cfg.CookieSecure(),
		SameSite: sameSite,
		HTTPOnly: cfg.Cookie.HTTPOnly,
		MaxAge:   cfg.Cookie.MaxAge,
	})

	options := router.Options{
		AllowedOrigins:          cfg.HTTP.CORSAllowedOrigins,
		ExternalIdentityEnabled: cfg.ExternalIdentityEnabled,
		Version:                 buildVersion,
	}
	if metrics != nil {
		options.Metrics = metrics
	}

	r := router.New(router.Services{
		Auth:     authService,
		Profile:  profileService,
		Progress: progressService,
		Database: db,
	}, options, transport, httpctx.NewManager(), lg)

	srv := httpserver.NewHTTPServer(r.Register(), cfg.HTTP.Address, cfg.HTTP.ReadHeaderTimeout)
	sl := server.NewSecurityLayer(cfg.HTTP.EnableHTTPS, cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)

	serveErr := make(chan error, 1)
	go func(s model.Server) {
		lg.Info("Starting server on", "address", s.Address(), "https", cfg.HTTP.EnableHTTPS)
		serveErr <- s.Start(sl)
	}(srv)

	select {
	case <-ctx.Done():
		lg.Info("received interruption signal, shutting down")
	case err := <-serveErr:
		if err != nil {
			lg.LogError("server stopped unexpectedly", err, "address", srv.Address())
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		lg.LogError("error during server shutdown", err, "address", srv.Address())
	}
	authService.Wait()

	lg.Info("shutdown complete")
	return nil
}

// pingWithRetry waits for the database with exponential backoff, trying at
// most attempts times.
func pingWithRetry(ctx context.Context, db interface{ Ping(context.Context) error }, attempts uint64, base time.Duration, lg *logger.Logger) error {
	if attempts == 0 {
		attempts = 1
	}
	backoff := retry.WithMaxRetries(attempts-1, retry.NewExponential(base))

	var try int
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		try++
		if err := db.Ping(ctx); err != nil {
			lg.LogWarn("Database ping failed", err, "attempt", try, "max_attempts", attempts)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("interrupted while waiting for database: %w", err)
		}
		return fmt.Errorf("failed to ping database after %d attempts: %w", try, err)
	}
	return nil
}
