package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestRateLimit(t *testing.T) {
	app := fiber.New()
	app.Use(RateLimit(RateLimitConfig{
		Rate:    0.001,
		Burst:   2,
		KeyFunc: func(c *fiber.Ctx) string { return c.Get("X-Client") },
	}))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	do := func(client string) int {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-Client", client)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("Failed to perform request: %v", err)
		}
		return resp.StatusCode
	}

	if do("a") != fiber.StatusOK || do("a") != fiber.StatusOK {
		t.Fatal("Burst requests should pass")
	}
	if status := do("a"); status != fiber.StatusTooManyRequests {
		t.Errorf("Expected 429 after the burst, got %d", status)
	}
	if do("b") != fiber.StatusOK {
		t.Error("Clients must have independent buckets")
	}
}

func TestRateLimit_Disabled(t *testing.T) {
	app := fiber.New()
	app.Use(RateLimit(RateLimitConfig{}))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	for i := 0; i < 50; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("Request %d limited with limiting disabled", i)
		}
	}
}
