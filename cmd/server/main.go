package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"crm/docs" // swagger docs
	"crm/internal/auth"
	"crm/internal/cache"
	"crm/internal/config"
	"crm/internal/db"
	"crm/internal/handler"
	"crm/internal/logging"
	"crm/internal/metrics"
	"crm/internal/repository"
	"crm/internal/router"
	"crm/internal/service"
)

const shutdownTimeout = 15 * time.Second

// @title CRM API
// @version 1.0
// @description CRM backend with JWT authentication, refresh token rotation and account lockout.
// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.SetDefault("crm-api", cfg.LogFormat, cfg.LogLevel)
	if cfg.UsesDefaultSecrets() {
		logger.Warn("JWT secrets are at their built-in defaults; set JWT_SECRET and JWT_REFRESH_SECRET")
	}

	gormDB, err := db.Open(cfg.DatabaseDSN, logger)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close(gormDB) }()

	if err := db.Migrate(gormDB); err != nil {
		return err
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer func() { _ = cacheClient.Close() }()
	if err := cacheClient.Ping(context.Background()); err != nil {
		logger.Warn("redis unavailable; login throttle and user cache are disabled until it recovers", "error", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	auditRepo := repository.NewAuditLogRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(auth.JWTConfig{
		AccessSecret:  cfg.JWTSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
	}, auth.SystemClock{})
	hasher, err := auth.NewBcryptHasher(cfg.PasswordHashCost, cfg.TokenHashCost)
	if err != nil {
		return err
	}

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtService, hasher, auth.SystemClock{}, logger)
	userService := service.NewUserService(userRepo, cacheClient, logger)

	m := metrics.New()

	e := echo.New()
	router.Register(e, router.Deps{
		Config:      cfg,
		Logger:      logger,
		Metrics:     m,
		Cache:       cacheClient,
		AuditLogs:   auditRepo,
		Tokens:      jwtService,
		LoadUser:    authService.GetCurrentUser,
		AuthHandler: handler.NewAuthHandler(authService, m),
		UserHandler: handler.NewUserHandler(userService),
	})

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = strings.TrimPrefix(strings.TrimPrefix(cfg.SwaggerHost, "https://"), "http://")
	}
	logger.Info("swagger documentation available", "url", "http://"+docs.SwaggerInfo.Host+"/swagger/index.html")

	srv := router.NewServer(e, cfg.ServerPort)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
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

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
