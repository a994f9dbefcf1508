package auth

import (
	"errors"
	"strings"

	"fibra-backend/internal/config"
	"fibra-backend/internal/database"
	"fibra-backend/internal/models"
	"fibra-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterAdminRequest struct {
	Name     string `json:"name" validate:"required"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// EnsureAdmin creates the bootstrap admin when a password is configured and no
// user with that username exists.
func EnsureAdmin(db *gorm.DB, username, password string) (bool, error) {
	if password == "" {
		return false, nil
	}
	username = strings.TrimSpace(strings.ToLower(username))

	var existing models.User
	err := db.Where("username = ?", username).First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return false, err
	}
	user := models.User{
		Name:         "Administrador",
		Username:     username,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	}
	if err := db.Create(&user).Error; err != nil {
		return false, err
	}
	return true, nil
}

// POST /api/auth/register-admin: only while no admin exists.
func RegisterAdminHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterAdminRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}
		body.Username = strings.TrimSpace(strings.ToLower(body.Username))

		var count int64
		if err := database.DB.Model(&models.User{}).
			Where("role = ?", models.RoleAdmin).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fiber.NewError(fiber.StatusForbidden, "An admin already exists")
		}

		hash, err := HashPassword(body.Password)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not hash password")
		}

		user := models.User{
			Name:         strings.TrimSpace(body.Name),
			Username:     body.Username,
			PasswordHash: hash,
			Role:         models.RoleAdmin,
		}
		if err := database.DB.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fiber.NewError(fiber.StatusConflict, "Username already taken")
			}
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":       user.ID,
			"username": user.Username,
			"role":     user.Role,
		})
	}
}

func LoginHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}
		body.Username = strings.TrimSpace(strings.ToLower(body.Username))

		var user models.User
		if err := database.DB.Where("username = ?", body.Username).First(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Wrong username or password")
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Wrong username or password")
		}

		token, err := GenerateToken(cfg.JWTSecret, &user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create token")
		}

		return c.JSON(fiber.Map{
			"token": token,
			"user": fiber.Map{
				"id":       user.ID,
				"name":     user.Name,
				"username": user.Username,
				"role":     user.Role,
			},
		})
	}
}

func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _ := Actor(c)

		var user models.User
		if err := database.DB.First(&user, userID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "User not found")
		}

		return c.JSON(fiber.Map{
			"user_id":  user.ID,
			"name":     user.Name,
			"username": user.Username,
			"role":     user.Role,
		})
	}
}
