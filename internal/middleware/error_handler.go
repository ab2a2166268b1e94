package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"geonotes_backend/pkg/apperr"
	"geonotes_backend/pkg/geometry"
)

// ErrorHandler maps the request error taxonomy to HTTP statuses. Geometry
// errors are validation failures; anything outside the taxonomy is a 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return c.Status(appErr.Status).JSON(fiber.Map{
			"error": appErr.Message,
		})
	}

	var geomErr *geometry.Error
	if errors.As(err, &geomErr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": geomErr.Error(),
		})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": err.Error(),
	})
}
