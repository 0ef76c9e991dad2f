package middleware

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/pricewise-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/pricewise-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/pricewise-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const principalKey = "principal"

// LoadPrincipal resolves the token subject to a stored user. It must run
// after JWTProtected.
func LoadPrincipal(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := c.Locals("user").(*jwt.Token)
		if !ok || token == nil {
			return unauthorized(c)
		}
		sub, err := token.Claims.GetSubject()
		if err != nil {
			return unauthorized(c)
		}

		user, err := auth.Principal(c.UserContext(), sub)
		if err != nil {
			if errors.Is(err, services.ErrUserNotFound) {
				return unauthorized(c)
			}
			slog.Error("principal lookup failed", "error", err, "request_id", c.Locals("requestid"))
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Internal server error",
			})
		}

		c.Locals(principalKey, user)
		return c.Next()
	}
}

// GetPrincipal returns the user loaded by LoadPrincipal.
func GetPrincipal(c *fiber.Ctx) (*models.User, bool) {
	user, ok := c.Locals(principalKey).(*models.User)
	return user, ok && user != nil
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Message: "Could not validate credentials",
	})
}
