package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/asset-console/internal/api/http"
	"github.com/spec-kit/asset-console/internal/api/http/handlers"
	"github.com/spec-kit/asset-console/internal/authclient"
	"github.com/spec-kit/asset-console/internal/config"
	"github.com/spec-kit/asset-console/internal/observability"
	"github.com/spec-kit/asset-console/internal/session"
	"github.com/spec-kit/asset-console/internal/shell"
	"github.com/spec-kit/asset-console/internal/store"
	"github.com/spec-kit/asset-console/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open session store", zap.String("driver", cfg.Session.Driver), zap.Error(err))
	}
	defer closeStore()

	metrics := observability.NewMetrics()
	auth := authclient.New(cfg.Auth.BaseURL, cfg.Auth.Timeout())
	manager := session.NewManager(st, auth, session.WithLogger(logger))

	stopListeners := worker.StartSessionListeners(manager, logger, metrics)
	defer stopListeners()
	tracker, stopTracking := shell.NewTracker(manager)
	defer stopTracking()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:  logger,
		Metrics: metrics,
		Timeout: cfg.App.RequestTimeout(),
		Session: manager,
	})

	var pinger store.Pinger
	if p, ok := st.(store.Pinger); ok {
		pinger = p
	}

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:          handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, cfg.Session.Driver, pinger),
		Session:         handlers.NewSessionHandler(manager, auth, tracker, logger),
		Views:           handlers.NewViewsHandler(manager),
		Guards:          manager,
		Recorder:        metrics,
		LoginLocation:   cfg.Routes.LoginLocation,
		DefaultLocation: cfg.Routes.DefaultLocation,
	})

	go manager.Initialize(ctx)

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
