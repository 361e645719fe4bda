package handlers

import (
	"errors"
	"log"

	"faction-wars-backend/apperrors"

	"github.com/gofiber/fiber/v2"
)

// respondError maps service errors onto HTTP responses. User-correctable
// errors surface their message verbatim; dependency failures get a generic
// message while the underlying cause is logged for operators.
func respondError(c *fiber.Ctx, err error) error {
	status := apperrors.HTTPStatus(err)

	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		if appErr.Kind == apperrors.KindDependency {
			log.Printf("[http] dependency failure on %s: %v", c.Path(), err)
			return c.Status(status).JSON(fiber.Map{"error": appErr.Message})
		}
		return c.Status(status).JSON(fiber.Map{"error": appErr.Message})
	}

	log.Printf("[http] unexpected error on %s: %v", c.Path(), err)
	return c.Status(status).JSON(fiber.Map{"error": "unexpected error"})
}
