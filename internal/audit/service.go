package audit

import (
	"encoding/json"
	"fmt"

	"fibra-backend/internal/auth"
	"fibra-backend/internal/config"
	"fibra-backend/internal/database"
	"fibra-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type LogOptions struct {
	UserID      uint
	UserName    string
	EntityType  string
	EntityID    string
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

func WriteLog(opts LogOptions) error {
	beforeStr := "null"
	afterStr := "null"

	if opts.Before != nil {
		if b, err := json.Marshal(opts.Before); err == nil {
			beforeStr = string(b)
		}
	}
	if opts.After != nil {
		if b, err := json.Marshal(opts.After); err == nil {
			afterStr = string(b)
		}
	}

	log := models.AuditLog{
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  beforeStr,
		AfterData:   afterStr,
	}

	if err := database.DB.Create(&log).Error; err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

// Record writes an audit entry for the authenticated user. A failure is logged
// and never fails the request.
func Record(c *fiber.Ctx, entityType string, entityID any, action models.AuditAction, description string, before, after any) {
	userID, userName := auth.Actor(c)
	err := WriteLog(LogOptions{
		UserID:      userID,
		UserName:    userName,
		EntityType:  entityType,
		EntityID:    fmt.Sprint(entityID),
		Action:      action,
		Description: description,
		Before:      before,
		After:       after,
	})
	if err != nil {
		config.LogError(config.GetLogger(), "audit", "Record", entityType, entityID, err)
	}
}
