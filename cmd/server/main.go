package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"bptracker/docs"
	"bptracker/internal/auth"
	"bptracker/internal/cache"
	"bptracker/internal/config"
	"bptracker/internal/db"
	"bptracker/internal/handler"
	"bptracker/internal/logging"
	"bptracker/internal/repository"
	"bptracker/internal/router"
	"bptracker/internal/service"
)

const shutdownTimeout = 10 * time.Second

// @title Blood Pressure Tracker API
// @version 1.0
// @description Per-user blood-pressure readings behind token authentication.
// @host localhost:5001
// @BasePath /
// @schemes http
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-access-token
// @description Access token returned by /login.
func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return err
	}

	// Drop tables if RESET_DB environment variable is set
	if cfg.ResetDB {
		log.Warn("RESET_DB=true detected, dropping all tables")
		if err := db.Reset(gormDB); err != nil {
			return err
		}
	}
	if err := db.Migrate(gormDB); err != nil {
		return err
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()
	if err := cacheClient.Ping(ctx); err != nil {
		log.WithError(err).Warn("redis unreachable, summary cache disabled until it recovers")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	readingRepo := repository.NewReadingRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.SecretKey, cfg.TokenTTL)
	hasher := auth.NewPBKDF2Hasher(cfg.PasswordIterations)

	// Initialize services
	authService := service.NewAuthService(userRepo, hasher, jwtService, log)
	userService := service.NewUserService(userRepo)
	readingService := service.NewReadingService(readingRepo, cacheClient)

	guard := auth.NewGuard(jwtService, userService)

	// Swag uses this for server URL in docs when set.
	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	router.Register(e, cfg, log, guard, router.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		User:    handler.NewUserHandler(userService),
		Reading: handler.NewReadingHandler(readingService),
	})

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.ServerPort
		log.WithFields(logrus.Fields{
			"addr":    addr,
			"driver":  cfg.DBDriver,
			"swagger": "/swagger/index.html",
		}).Info("server starting")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	return nil
}
