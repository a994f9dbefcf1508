package admin_test

import (
	"fmt"
	"testing"

	"fibra-backend/internal/admin"
	"fibra-backend/internal/apitest"
	"fibra-backend/internal/auth"
	"fibra-backend/internal/database/dbtest"
	"fibra-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestUserManagement(t *testing.T) {
	db := dbtest.Use(t)

	hash, err := auth.HashPassword("admin-password")
	require.NoError(t, err)
	self := models.User{Name: "Admin", Username: "admin", PasswordHash: hash, Role: models.RoleAdmin}
	require.NoError(t, db.Create(&self).Error)

	app := apitest.NewApp()
	app.Use(apitest.As(self.ID, "admin", models.RoleAdmin))
	app.Get("/users", admin.ListUsersHandler())
	app.Post("/users", admin.CreateUserHandler())
	app.Put("/users/:id", admin.UpdateUserHandler())
	app.Delete("/users/:id", admin.DeleteUserHandler())

	status, body := apitest.Do(t, app, "POST", "/users", fiber.Map{
		"name": "Editora", "username": " Editor1 ", "password": "12345678", "role": "editor",
	})
	require.Equal(t, fiber.StatusCreated, status, string(body))
	var u admin.UserResponse
	apitest.Decode(t, body, &u)
	assert.Equal(t, "editor1", u.Username)

	status, _ = apitest.Do(t, app, "POST", "/users", fiber.Map{
		"name": "Otra", "username": "editor1", "password": "12345678", "role": "viewer",
	})
	assert.Equal(t, fiber.StatusConflict, status)

	status, _ = apitest.Do(t, app, "POST", "/users", fiber.Map{
		"name": "X", "username": "x", "password": "12345678", "role": "root",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = apitest.Do(t, app, "POST", "/users", fiber.Map{
		"name": "X", "username": "x", "password": "short", "role": "viewer",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)

	path := fmt.Sprintf("/users/%d", u.ID)
	status, _ = apitest.Do(t, app, "PUT", path, fiber.Map{"password": "new-password", "role": "viewer"})
	require.Equal(t, fiber.StatusOK, status)

	var stored models.User
	require.NoError(t, db.First(&stored, u.ID).Error)
	assert.Equal(t, models.RoleViewer, stored.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("new-password")))

	status, _ = apitest.Do(t, app, "DELETE", fmt.Sprintf("/users/%d", self.ID), nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	status, _ = apitest.Do(t, app, "PUT", fmt.Sprintf("/users/%d", self.ID), fiber.Map{"role": "viewer"})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = apitest.Do(t, app, "DELETE", path, nil)
	assert.Equal(t, fiber.StatusNoContent, status)

	status, body = apitest.Do(t, app, "GET", "/users", nil)
	require.Equal(t, fiber.StatusOK, status)
	var list []admin.UserResponse
	apitest.Decode(t, body, &list)
	assert.Len(t, list, 1)
}
