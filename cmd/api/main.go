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

	"github.com/samirrijal/maptrace/internal/adapters/http"
	"github.com/samirrijal/maptrace/internal/adapters/memory"
	natsadapter "github.com/samirrijal/maptrace/internal/adapters/nats"
	"github.com/samirrijal/maptrace/internal/adapters/postgres"
	"github.com/samirrijal/maptrace/internal/adapters/valkey"
	"github.com/samirrijal/maptrace/internal/core/ports"
	"github.com/samirrijal/maptrace/internal/core/usecases"
	"github.com/samirrijal/maptrace/internal/pkg/config"
	"github.com/samirrijal/maptrace/internal/pkg/logging"
	"github.com/samirrijal/maptrace/internal/pkg/telemetry"
)

var version = "dev"

func main() {
	cfg, err := config.Load("maptrace-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

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

	deps := &http.Dependencies{
		PublicURL: cfg.Server.PublicURL,
		Version:   version,
	}

	// Cache and fragment store. Sessions fall back to process memory
	// when valkey is down.
	var (
		cacheSvc  ports.CacheService
		fragStore ports.FragmentStore = memory.NewFragmentStore()
	)
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable, keeping sessions in memory", "error", err)
	} else {
		defer cache.Close()
		cacheSvc = cache
		fragStore = valkey.NewFragmentStore(cache, cfg.Valkey.FragmentTTL)
		deps.Cache = cache
	}

	// NATS
	var events ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, live session updates disabled", "error", err)
	} else {
		defer pub.Close()
		events = pub
		deps.NATS = pub.Conn()
		sub, err := natsadapter.NewSubscriber(pub.Conn())
		if err != nil {
			slog.Warn("nats subscriber unavailable", "error", err)
		} else {
			defer sub.Close()
			deps.Events = sub
		}
	}

	// Use cases
	fragmentSvc := usecases.NewFragmentService(fragStore, events)
	deps.Fragments = fragmentSvc
	deps.Distance = usecases.NewDistanceService(fragmentSvc, cacheSvc, usecases.DistanceOptions{
		Strings:     cfg.Distance.Strings,
		DefaultZoom: cfg.Distance.DefaultZoom,
		UseHash:     cfg.Distance.UseHash,
		CacheTTL:    cfg.Valkey.MeasureTTL,
	})
	deps.Location = usecases.NewLocationHashService(fragmentSvc, cfg.Layers)

	// Database is only needed for saved paths.
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		slog.Warn("database unavailable, saved paths disabled", "error", err)
	} else {
		defer db.Close()
		deps.DB = db
		deps.SavedPaths = usecases.NewSavedPathService(postgres.NewSavedPathRepo(db), cacheSvc)
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "maptrace API",
		Immutable:    true, // session ids outlive the request as map keys
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.Server.AllowOrigins,
		AllowMethods:  "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:  "Origin, Content-Type, Accept, If-None-Match",
		ExposeHeaders: "Link, Location, ETag, X-Request-Id",
		MaxAge:        3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "version", version)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
