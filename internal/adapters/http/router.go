package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/maptrace/internal/pkg/metrics"
)

const requestTimeout = 15 * time.Second

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// Rate limiting: 300 requests per minute per IP. Dragging a marker
	// produces a burst of path writes.
	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	with := func(h fiber.Handler) fiber.Handler {
		return timeout.NewWithContext(h, requestTimeout)
	}

	v1.Get("/layers", LayersHandler(deps))
	v1.Get("/strings", StringsHandler(deps))

	// Stateless measurement
	v1.Post("/measure", with(MeasureHandler(deps)))
	v1.Post("/paths/encode", with(EncodePathHandler(deps)))
	v1.Get("/paths/:encoded", with(DecodePathHandler(deps)))
	v1.Get("/paths/:encoded/measure", with(MeasurePathHandler(deps)))
	v1.Get("/paths/:encoded/export", with(ExportPathHandler(deps)))
	v1.Get("/paths/:encoded/qr", with(ShareQRHandler(deps)))

	// Saved paths
	v1.Post("/saved-paths", with(CreateSavedPathHandler(deps)))
	v1.Get("/saved-paths", with(ListSavedPathsHandler(deps)))
	v1.Get("/saved-paths/:id", with(GetSavedPathHandler(deps)))
	v1.Delete("/saved-paths/:id", with(DeleteSavedPathHandler(deps)))

	// Session fragments
	s := v1.Group("/sessions/:id")
	s.Get("/fragment", with(GetFragmentHandler(deps)))
	s.Put("/fragment", with(ReplaceFragmentHandler(deps)))
	s.Patch("/fragment", with(PatchFragmentHandler(deps)))
	s.Get("/view", with(GetViewHandler(deps)))
	s.Put("/view", with(UpdateViewHandler(deps)))
	s.Put("/layers", with(UpdateLayersHandler(deps)))
	s.Get("/path", with(GetSessionPathHandler(deps)))
	s.Put("/path", with(PutSessionPathHandler(deps)))
	s.Delete("/path", with(DeleteSessionPathHandler(deps)))
	s.Post("/path/points", with(AppendPointHandler(deps)))
	s.Put("/path/points/:index", with(MovePointHandler(deps)))
	s.Delete("/path/points/:index", with(RemovePointHandler(deps)))

	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app)

	if deps.Events != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/ws/sessions/:id", websocket.New(WebSocketHandler(deps)))
	}
}
