package auth

import (
	"fmt"
	"strings"

	"fibra-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	CtxUserIDKey   = "user_id"
	CtxUserRoleKey = "user_role"
	CtxUsernameKey = "username"
)

func JWTMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Missing Authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization must be 'Bearer <token>'")
		}

		token, err := jwt.ParseWithClaims(parts[1], &JWTCustomClaims{}, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
		}

		claims, ok := token.Claims.(*JWTCustomClaims)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Could not read token claims")
		}

		c.Locals(CtxUserIDKey, claims.UserID)
		c.Locals(CtxUserRoleKey, claims.Role)
		c.Locals(CtxUsernameKey, claims.Username)

		return c.Next()
	}
}

func RequireRole(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(CtxUserRoleKey).(models.UserRole)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "Missing role")
		}

		for _, r := range allowedRoles {
			if r == role {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "Not allowed for your role")
	}
}

// CanWrite allows admins and editors.
func CanWrite() fiber.Handler {
	return RequireRole(models.RoleAdmin, models.RoleEditor)
}

// Actor returns the authenticated user id and username.
func Actor(c *fiber.Ctx) (uint, string) {
	id, _ := c.Locals(CtxUserIDKey).(uint)
	name, _ := c.Locals(CtxUsernameKey).(string)
	return id, name
}
