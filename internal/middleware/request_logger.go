package middleware

import (
	"time"

	"fibra-backend/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	CtxRequestIDKey = "request_id"
	HeaderRequestID = "X-Request-ID"
)

// RequestLogger tags each request with an id and logs it once it completes.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		rid := c.Get(HeaderRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Locals(CtxRequestIDKey, rid)
		c.Set(HeaderRequestID, rid)

		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			// the app error handler runs after this middleware returns
			if e, ok := err.(*fiber.Error); ok {
				status = e.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		entry := config.GetLogger().WithFields(logrus.Fields{
			"request_id": rid,
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     status,
			"latency_ms": time.Since(start).Milliseconds(),
		})
		if status >= fiber.StatusInternalServerError {
			entry.Warn("request failed")
		} else {
			entry.Info("request")
		}
		return err
	}
}
