package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/earthimagery/internal/pkg/metrics"
)

// ImageryPath is the imagery lookup route. The form without the trailing
// slash is served too.
const ImageryPath = "/v5000/earth/imagery/"

// SetupRoutes registers every route on app.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	app.Use(metrics.Middleware())
	app.Get("/metrics", CacheControl(cacheRevalidate), metrics.Handler())

	app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))
	app.Use(requestid.New())
	app.Use(RequestLogger())
	app.Use(securityHeaders)

	app.Get("/v1/health", CacheControl(cacheRevalidate), HealthHandler())
	app.Get("/v1/ready", CacheControl(cacheRevalidate), ReadyHandler(deps))

	app.Get("/", StaticPage(), IndexHandler())
	if deps.Docs != nil {
		SetupDocs(app.Group("/docs", StaticPage()), deps.Docs)
	}

	imagery := ImageryHandler(deps)
	if deps.RequestTimeout > 0 {
		imagery = timeout.NewWithContext(imagery, deps.RequestTimeout)
	}
	app.Get(ImageryPath, imagery)
	app.Get(ImageryPath[:len(ImageryPath)-1], imagery)

	app.Post("/graphql", GraphQLHandler(deps))

	// Live thumbnail feed
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}

func securityHeaders(c *fiber.Ctx) error {
	c.Set(fiber.HeaderXContentTypeOptions, "nosniff")
	c.Set(fiber.HeaderXFrameOptions, "DENY")
	c.Set(fiber.HeaderReferrerPolicy, "strict-origin-when-cross-origin")
	return c.Next()
}
