package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/earthimagery/internal/adapters/earthengine"
	"github.com/samirrijal/earthimagery/internal/adapters/http"
	natsadapter "github.com/samirrijal/earthimagery/internal/adapters/nats"
	"github.com/samirrijal/earthimagery/internal/core/ports"
	"github.com/samirrijal/earthimagery/internal/core/usecases"
	"github.com/samirrijal/earthimagery/internal/pkg/config"
	"github.com/samirrijal/earthimagery/internal/pkg/logging"
	"github.com/samirrijal/earthimagery/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("earthimagery-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// NATS (optional): thumbnail events and the WebSocket relay share one connection.
	var events ports.EventPublisher
	var natsConn *nats.Conn
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
		} else {
			defer pub.Close()
			events = pub
			natsConn = pub.Conn()
		}
	}

	// Earth Engine session
	gateway := usecases.NewGateway(earthengine.NewConnector(cfg.EarthEngine.CredentialsFile,
		earthengine.WithBaseURL(cfg.EarthEngine.BaseURL),
		earthengine.WithProject(cfg.EarthEngine.Project),
		earthengine.WithHealthImage(cfg.EarthEngine.HealthImage),
	))

	initCtx, initCancel := context.WithTimeout(ctx, 60*time.Second)
	if err := gateway.Initialize(initCtx); err != nil && cfg.EarthEngine.FailFast {
		initCancel()
		slog.Error("earth engine initialization failed, exiting", "error", err)
		os.Exit(1)
	}
	_ = gateway.HealthCheck(initCtx)
	initCancel()

	// API docs are optional; a broken document only disables /docs.
	var docs *http.APIDoc
	if cfg.Server.OpenAPIFile != "" {
		docs, err = http.LoadAPIDoc(ctx, cfg.Server.OpenAPIFile)
		if err != nil {
			slog.Warn("api docs disabled", "error", err)
		}
	}

	deps := &http.Dependencies{
		Imagery:              usecases.NewImageryService(gateway, events),
		Gateway:              gateway,
		NATS:                 natsConn,
		Docs:                 docs,
		ExposeInternalErrors: cfg.Server.ExposeInternalErrors,
		RequestTimeout:       cfg.Server.RequestTimeoutDuration(),
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Earth Imagery API",
		ErrorHandler: http.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
