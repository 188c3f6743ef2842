package http

import (
	"crypto/sha256"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Cache-Control directives by route class. Thumbnail URLs are minted per
// request and expire upstream, so lookups are never stored.
const (
	cacheNoStore    = "no-store"
	cacheRevalidate = "no-cache"
	cacheStatic     = "public, max-age=3600"
)

// CacheControl sets directive on GET responses whose handler did not set one.
func CacheControl(directive string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if c.Method() == fiber.MethodGet && c.GetRespHeader(fiber.HeaderCacheControl) == "" {
			c.Set(fiber.HeaderCacheControl, directive)
		}
		return err
	}
}

// StaticPage marks a response as cacheable and tags it with a weak ETag
// over the body. A matching If-None-Match gets 304.
func StaticPage() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := c.Next(); err != nil {
			return err
		}
		if c.Method() != fiber.MethodGet || c.Response().StatusCode() != fiber.StatusOK {
			return nil
		}

		c.Set(fiber.HeaderCacheControl, cacheStatic)

		sum := sha256.Sum256(c.Response().Body())
		tag := fmt.Sprintf(`W/"%x"`, sum[:8])
		c.Set(fiber.HeaderETag, tag)
		if c.Get(fiber.HeaderIfNoneMatch) == tag {
			c.Status(fiber.StatusNotModified)
			c.Response().ResetBody()
		}
		return nil
	}
}
