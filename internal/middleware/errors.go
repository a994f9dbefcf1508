package middleware

import (
	"errors"

	"fibra-backend/internal/config"
	"fibra-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler renders every handler error as {"error": "..."}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *validation.FieldError
	if errors.As(err, &fe) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Invalid request",
			"fields": fe.Fields,
		})
	}

	var e *fiber.Error
	if errors.As(err, &e) {
		return c.Status(e.Code).JSON(fiber.Map{
			"error": e.Message,
		})
	}

	config.GetLogger().WithFields(map[string]interface{}{
		"path":       c.Path(),
		"method":     c.Method(),
		"request_id": c.Locals(CtxRequestIDKey),
	}).WithError(err).Error("unexpected error")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Unexpected server error",
	})
}
