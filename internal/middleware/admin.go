package middleware

import (
	"github.com/ahmetcoskunkizilkaya/pricewise-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
)

// AdminRequired rejects principals without the admin flag. It must run
// after LoadPrincipal.
func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := GetPrincipal(c)
		if !ok {
			return unauthorized(c)
		}
		if !user.IsAdmin {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "Not enough permissions",
			})
		}
		return c.Next()
	}
}
