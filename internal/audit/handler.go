package audit

import (
	"fmt"

	"fibra-backend/internal/database"
	"fibra-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type AuditLogResponse struct {
	ID          uint               `json:"id"`
	CreatedAt   string             `json:"created_at"`
	UserID      uint               `json:"user_id"`
	UserName    string             `json:"user_name"`
	EntityType  string             `json:"entity_type"`
	EntityID    string             `json:"entity_id"`
	Action      models.AuditAction `json:"action"`
	Description string             `json:"description"`
	BeforeData  string             `json:"before_data"`
	AfterData   string             `json:"after_data"`
}

// GET /api/audit-logs?entity_type=expense&entity_id=1&user_id=2&limit=200
func ListAuditLogsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.AuditLog{})

		if uidStr := c.Query("user_id"); uidStr != "" {
			var uid uint
			if _, err := fmt.Sscan(uidStr, &uid); err != nil || uid == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid user_id")
			}
			dbq = dbq.Where("user_id = ?", uid)
		}
		if entityType := c.Query("entity_type"); entityType != "" {
			dbq = dbq.Where("entity_type = ?", entityType)
		}
		if entityID := c.Query("entity_id"); entityID != "" {
			dbq = dbq.Where("entity_id = ?", entityID)
		}

		limit := c.QueryInt("limit", 200)
		if limit <= 0 || limit > 1000 {
			limit = 200
		}

		var logs []models.AuditLog
		if err := dbq.Order("created_at DESC, id DESC").Limit(limit).Find(&logs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list audit logs")
		}

		resp := make([]AuditLogResponse, 0, len(logs))
		for _, log := range logs {
			resp = append(resp, AuditLogResponse{
				ID:          log.ID,
				CreatedAt:   log.CreatedAt.Format("2006-01-02 15:04:05"),
				UserID:      log.UserID,
				UserName:    log.UserName,
				EntityType:  log.EntityType,
				EntityID:    log.EntityID,
				Action:      log.Action,
				Description: log.Description,
				BeforeData:  log.BeforeData,
				AfterData:   log.AfterData,
			})
		}

		return c.JSON(resp)
	}
}
