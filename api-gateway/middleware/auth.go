package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/medtrack/pharmacy-portal/pkg/auth"
)

// AuthMiddleware validates JWT tokens
func AuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization header required",
			})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization header format",
			})
		}

		claims, err := auth.ValidateToken(parts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		c.Locals("user_id", claims.UserID)
		c.Locals("username", claims.Username)
		c.Locals("role", claims.Role)
		c.Locals("branch_id", claims.BranchID)

		// Forward identity to upstream services
		c.Request().Header.Set("X-User-ID", fmt.Sprintf("%d", claims.UserID))
		c.Request().Header.Set("X-Username", claims.Username)
		c.Request().Header.Set("X-User-Role", claims.Role)
		c.Request().Header.Set("X-Branch-ID", fmt.Sprintf("%d", claims.BranchID))

		return c.Next()
	}
}

// ManagerMiddleware checks if user has branch manager role
func ManagerMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := c.Locals("role")
		if role == nil || role.(string) != "manager" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Branch manager access required",
			})
		}
		return c.Next()
	}
}
