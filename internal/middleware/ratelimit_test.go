package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestCheckRateLimit_EnvBypass(t *testing.T) {
	for _, env := range []string{"test", "development", "stress"} {
		t.Run(env, func(t *testing.T) {
			t.Setenv("APP_ENV", env)
			allowed, err := CheckRateLimit(context.Background(), nil, "writes", "ip:1.2.3.4", 1, time.Minute)
			assert.NoError(t, err)
			assert.True(t, allowed)
		})
	}
}

func TestCheckRateLimit_NilRedis(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	allowed, err := CheckRateLimit(context.Background(), nil, "writes", "ip:1.2.3.4", 1, time.Minute)
	assert.Error(t, err)
	assert.False(t, allowed)
}

func TestCheckRateLimit_EnforcesLimit(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	rdb := testRedis(t)

	for i := 0; i < 3; i++ {
		allowed, err := CheckRateLimit(context.Background(), rdb, "uploads", "token:7", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d within limit", i+1)
	}

	allowed, err := CheckRateLimit(context.Background(), rdb, "uploads", "token:7", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed, "request over the limit must be denied")

	// A different identity has its own counter.
	allowed, err = CheckRateLimit(context.Background(), rdb, "uploads", "token:8", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("bypass in test mode", func(t *testing.T) {
		app := fiber.New()
		t.Setenv("APP_ENV", "test")
		app.Get("/dogs", RateLimit(nil, 1, time.Minute), func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/dogs", nil)
		resp, err := app.Test(req)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("keys by edit token over IP", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		rdb := testRedis(t)

		app := fiber.New()
		app.Use(func(c *fiber.Ctx) error {
			c.Locals("editTokenID", uint(42))
			return c.Next()
		})
		app.Post("/dogs", RateLimit(rdb, 2, time.Minute, "dog-write"), func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusOK)
		})

		for i := 0; i < 2; i++ {
			req := httptest.NewRequest(http.MethodPost, "/dogs", nil)
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			_ = resp.Body.Close()
		}

		req := httptest.NewRequest(http.MethodPost, "/dogs", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
		_ = resp.Body.Close()

		exists := rdb.Exists(context.Background(), "rl:dog-write:token:42").Val()
		assert.Equal(t, int64(1), exists, "counter must be keyed by the edit token")
	})

	t.Run("FailOpen with nil redis in production", func(t *testing.T) {
		app := fiber.New()
		t.Setenv("APP_ENV", "production")
		app.Get("/dogs", RateLimit(nil, 1, time.Minute), func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/dogs", nil)
		resp, err := app.Test(req)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("FailClosed with nil redis in production", func(t *testing.T) {
		app := fiber.New()
		t.Setenv("APP_ENV", "production")
		app.Post("/auth/login", RateLimitWithPolicy(nil, 1, time.Minute, FailClosed), func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusOK)
		})

		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		resp, err := app.Test(req)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		_ = resp.Body.Close()
	})
}
