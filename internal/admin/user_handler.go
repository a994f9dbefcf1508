package admin

import (
	"errors"
	"fmt"
	"strings"

	"fibra-backend/internal/audit"
	"fibra-backend/internal/auth"
	"fibra-backend/internal/database"
	"fibra-backend/internal/models"
	"fibra-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CreateUserRequest struct {
	Name     string          `json:"name" validate:"required,max=100"`
	Username string          `json:"username" validate:"required,max=100"`
	Password string          `json:"password" validate:"required,min=8"`
	Role     models.UserRole `json:"role" validate:"required"`
}

type UpdateUserRequest struct {
	Name     *string          `json:"name" validate:"omitempty,max=100"`
	Password *string          `json:"password" validate:"omitempty,min=8"`
	Role     *models.UserRole `json:"role"`
}

type UserResponse struct {
	ID        uint            `json:"id"`
	Name      string          `json:"name"`
	Username  string          `json:"username"`
	Role      models.UserRole `json:"role"`
	CreatedAt string          `json:"created_at"`
}

func toUserResponse(u models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Username:  u.Username,
		Role:      u.Role,
		CreatedAt: u.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// GET /api/admin/users
func ListUsersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var users []models.User
		if err := database.DB.Order("username asc").Find(&users).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list users")
		}
		resp := make([]UserResponse, 0, len(users))
		for _, u := range users {
			resp = append(resp, toUserResponse(u))
		}
		return c.JSON(resp)
	}
}

// POST /api/admin/users
func CreateUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateUserRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}
		if !body.Role.Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "role must be admin, editor or viewer")
		}

		hash, err := auth.HashPassword(body.Password)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not hash password")
		}
		user := models.User{
			Name:         strings.TrimSpace(body.Name),
			Username:     strings.TrimSpace(strings.ToLower(body.Username)),
			PasswordHash: hash,
			Role:         body.Role,
		}
		if err := database.DB.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fiber.NewError(fiber.StatusConflict, "Username already taken")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create user")
		}

		resp := toUserResponse(user)
		audit.Record(c, "user", user.ID, models.AuditActionCreate,
			fmt.Sprintf("User created: %s (%s)", user.Username, user.Role), nil, resp)
		return c.Status(fiber.StatusCreated).JSON(resp)
	}
}

// PUT /api/admin/users/:id
func UpdateUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var user models.User
		if err := database.DB.First(&user, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "User not found")
		}

		var body UpdateUserRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}
		before := toUserResponse(user)

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "name cannot be empty")
			}
			user.Name = name
		}
		if body.Role != nil {
			if !body.Role.Valid() {
				return fiber.NewError(fiber.StatusBadRequest, "role must be admin, editor or viewer")
			}
			selfID, _ := auth.Actor(c)
			if selfID == user.ID && *body.Role != models.RoleAdmin {
				return fiber.NewError(fiber.StatusBadRequest, "You cannot remove your own admin role")
			}
			user.Role = *body.Role
		}
		if body.Password != nil {
			hash, err := auth.HashPassword(*body.Password)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Could not hash password")
			}
			user.PasswordHash = hash
		}

		if err := database.DB.Save(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update user")
		}

		resp := toUserResponse(user)
		desc := fmt.Sprintf("User updated: %s", user.Username)
		if body.Password != nil {
			desc += " (password changed)"
		}
		audit.Record(c, "user", user.ID, models.AuditActionUpdate, desc, before, resp)
		return c.JSON(resp)
	}
}

// DELETE /api/admin/users/:id
func DeleteUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var user models.User
		if err := database.DB.First(&user, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "User not found")
		}

		selfID, _ := auth.Actor(c)
		if selfID == user.ID {
			return fiber.NewError(fiber.StatusBadRequest, "You cannot delete yourself")
		}

		if err := database.DB.Delete(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete user")
		}
		audit.Record(c, "user", user.ID, models.AuditActionDelete,
			fmt.Sprintf("User deleted: %s", user.Username), toUserResponse(user), nil)
		return c.SendStatus(fiber.StatusNoContent)
	}
}
