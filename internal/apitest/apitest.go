// Package apitest drives Fiber handlers in package tests.
package apitest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"fibra-backend/internal/auth"
	"fibra-backend/internal/middleware"
	"fibra-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// NewApp returns an app that renders errors the way the server does.
func NewApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
}

// As fakes an authenticated user for routes registered after it.
func As(id uint, username string, role models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(auth.CtxUserIDKey, id)
		c.Locals(auth.CtxUsernameKey, username)
		c.Locals(auth.CtxUserRoleKey, role)
		return c.Next()
	}
}

// Do sends a JSON request and returns the status and raw body.
func Do(t testing.TB, app *fiber.App, method, path string, body any) (int, []byte) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, out
}

// Decode unmarshals a response body or fails the test.
func Decode(t testing.TB, data []byte, out any) {
	t.Helper()
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("decode %s: %v", string(data), err)
	}
}
