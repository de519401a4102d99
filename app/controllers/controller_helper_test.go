package controllers

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestGetClientIPPrefersCloudflareHeader(t *testing.T) {
	app := fiber.New()
	app.Get("/ip", func(c *fiber.Ctx) error {
		return c.SendString(GetClientIP(c))
	})

	req := httptest.NewRequest("GET", "/ip", nil)
	req.Header.Set("CF-Connecting-IP", "203.0.113.10")
	req.Header.Set("X-Forwarded-For", "198.51.100.7, 10.0.0.1")

	resp, err := app.Test(req)
	assert.NoError(t, err)
	body := make([]byte, resp.ContentLength)
	_, _ = resp.Body.Read(body)
	assert.Equal(t, "203.0.113.10", string(body))
}

func TestGetClientIPFallsBackToForwardedFor(t *testing.T) {
	app := fiber.New()
	app.Get("/ip", func(c *fiber.Ctx) error {
		return c.SendString(GetClientIP(c))
	})

	req := httptest.NewRequest("GET", "/ip", nil)
	req.Header.Set("X-Forwarded-For", "198.51.100.7, 10.0.0.1")

	resp, err := app.Test(req)
	assert.NoError(t, err)
	body := make([]byte, resp.ContentLength)
	_, _ = resp.Body.Read(body)
	assert.Equal(t, "198.51.100.7", string(body))
}

func TestParsePaginationBounds(t *testing.T) {
	app := fiber.New()
	var offset, limit int
	app.Get("/list", func(c *fiber.Ctx) error {
		offset, limit = parsePagination(c)
		return c.SendStatus(fiber.StatusOK)
	})

	_, err := app.Test(httptest.NewRequest("GET", "/list?page=3&page_size=50", nil))
	assert.NoError(t, err)
	assert.Equal(t, 100, offset)
	assert.Equal(t, 50, limit)

	_, err = app.Test(httptest.NewRequest("GET", "/list?page=0&page_size=9999", nil))
	assert.NoError(t, err)
	assert.Equal(t, 0, offset)
	assert.Equal(t, 100, limit)

	_, err = app.Test(httptest.NewRequest("GET", "/list?page=abc&page_size=-1", nil))
	assert.NoError(t, err)
	assert.Equal(t, 0, offset)
	assert.Equal(t, 20, limit)
}
