package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/asset-console/internal/authstub"
	"github.com/spec-kit/asset-console/internal/config"
	"github.com/spec-kit/asset-console/internal/domain"
	"github.com/spec-kit/asset-console/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	cfg.Logger.Service = "asset-authstub"
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	accounts := authstub.NewAccounts(cfg.Stub.BcryptCost)
	seed := []struct {
		email, password string
		role            domain.Role
	}{
		{cfg.Stub.AdminEmail, cfg.Stub.AdminPassword, domain.RoleAdmin},
		{cfg.Stub.EmployeeEmail, cfg.Stub.EmployeePassword, domain.RoleEmployee},
	}
	for _, s := range seed {
		if err := accounts.Add(s.email, s.password, s.role); err != nil {
			logger.Fatal("failed to seed account", zap.String("email", s.email), zap.Error(err))
		}
		logger.Info("seeded account", zap.String("email", s.email), zap.String("role", string(s.role)))
	}

	tokens := authstub.NewTokenIssuer(cfg.Stub.JWTSecret, time.Duration(cfg.Stub.TokenTTLMinutes)*time.Minute)

	app := fiber.New(fiber.Config{AppName: "asset-authstub"})
	app.Use(observability.RequestLogger(logger, nil))
	authstub.NewServer(accounts, tokens, logger).Register(app.Group("/api/v1"))

	go func() {
		if err := app.Listen(cfg.Stub.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))

	_ = app.Shutdown()
}
