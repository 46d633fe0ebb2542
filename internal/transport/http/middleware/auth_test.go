package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/taskhub/backend/internal/config"
)

func newGuardedApp(guard fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Get("/guarded", guard, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestAdminAuthPassesWhenNoKeyConfigured(t *testing.T) {
	app := newGuardedApp(AdminAuth(&config.Config{}))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/guarded", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, fiber.StatusOK)
	}
}

func TestAdminAuthChecksToken(t *testing.T) {
	cfg := &config.Config{}
	cfg.Auth.AdminAPIKey = "admin-key"
	app := newGuardedApp(AdminAuth(cfg))

	cases := []struct {
		name   string
		header string
		value  string
		want   int
	}{
		{"no token", "", "", fiber.StatusUnauthorized},
		{"wrong token", "X-Admin-Token", "wrong", fiber.StatusUnauthorized},
		{"admin header", "X-Admin-Token", "admin-key", fiber.StatusOK},
		{"bearer token", "Authorization", "Bearer admin-key", fiber.StatusOK},
		{"wrong bearer", "Authorization", "Bearer wrong", fiber.StatusUnauthorized},
	}
	for _, c := range cases {
		req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
		if c.header != "" {
			req.Header.Set(c.header, c.value)
		}
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("%s: request: %v", c.name, err)
		}
		if resp.StatusCode != c.want {
			t.Errorf("%s: status = %d, want %d", c.name, resp.StatusCode, c.want)
		}
	}
}

func TestBotAuthChecksToken(t *testing.T) {
	cfg := &config.Config{}
	cfg.Auth.BotToken = "bot-token"
	app := newGuardedApp(BotAuth(cfg))

	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("status without token = %d, want %d", resp.StatusCode, fiber.StatusUnauthorized)
	}

	req = httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("X-Bot-Token", "bot-token")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status with token = %d, want %d", resp.StatusCode, fiber.StatusOK)
	}
}
