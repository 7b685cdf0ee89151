package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func managerTestApp(role string) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if role != "" {
			c.Locals("role", role)
		}
		return c.Next()
	})
	app.Get("/events", ManagerMiddleware(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestManagerMiddleware_AllowsManager(t *testing.T) {
	app := managerTestApp("manager")

	resp, err := app.Test(httptest.NewRequest("GET", "/events", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("manager should pass, got %d", resp.StatusCode)
	}
}

func TestManagerMiddleware_RejectsOtherRoles(t *testing.T) {
	for _, role := range []string{"pharmacist", ""} {
		app := managerTestApp(role)

		resp, err := app.Test(httptest.NewRequest("GET", "/events", nil))
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != fiber.StatusForbidden {
			t.Fatalf("role %q should be forbidden, got %d", role, resp.StatusCode)
		}
	}
}
