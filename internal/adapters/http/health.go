package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/earthimagery/internal/core/usecases"
)

// Version is reported by the liveness probe. Set with -ldflags -X.
var Version = "dev"

type liveness struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
}

type readiness struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthHandler answers liveness. It never touches the imagery session.
func HealthHandler() fiber.Handler {
	startedAt := time.Now()
	return func(c *fiber.Ctx) error {
		return c.JSON(liveness{
			Status:  "healthy",
			Uptime:  time.Since(startedAt).Round(time.Second).String(),
			Version: Version,
		})
	}
}

// ReadyHandler answers 200 only when the startup session exists and a
// configured NATS connection is up.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, sessionOK := sessionCheck(deps.Gateway)
		broker, brokerOK := brokerCheck(deps.NATS)

		body := readiness{
			Status: "ready",
			Checks: map[string]string{"earthengine": session, "nats": broker},
		}
		if !sessionOK || !brokerOK {
			body.Status = "not ready"
			return c.Status(fiber.StatusServiceUnavailable).JSON(body)
		}
		return c.JSON(body)
	}
}

func sessionCheck(gw *usecases.Gateway) (string, bool) {
	switch {
	case gw == nil:
		return "not configured", false
	case gw.Ready():
		return "ok", true
	case gw.Err() != nil:
		return "error: " + gw.Err().Error(), false
	default:
		return "not initialized", false
	}
}

// brokerCheck treats an absent connection as fine; events are optional.
func brokerCheck(nc *nats.Conn) (string, bool) {
	switch {
	case nc == nil:
		return "not configured", true
	case nc.IsConnected():
		return "ok", true
	default:
		return nc.Status().String(), false
	}
}
