package activity

import (
	"errors"
	"fmt"
	"strings"

	"fibra-backend/internal/audit"
	"fibra-backend/internal/database"
	"fibra-backend/internal/models"
	"fibra-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreateActivityRequest struct {
	Code                string              `json:"code" validate:"required,max=50"`
	Description         string              `json:"description" validate:"required,max=255"`
	Unit                string              `json:"unit" validate:"max=30"`
	Group               string              `json:"group" validate:"max=100"`
	Kind                models.ActivityKind `json:"kind" validate:"required"`
	UnitProductionValue decimal.Decimal     `json:"unit_production_value" validate:"gte=0"`
	UnitSaleValue       decimal.Decimal     `json:"unit_sale_value" validate:"gte=0"`
}

type UpdateActivityRequest struct {
	Code                *string              `json:"code" validate:"omitempty,max=50"`
	Description         *string              `json:"description" validate:"omitempty,max=255"`
	Unit                *string              `json:"unit" validate:"omitempty,max=30"`
	Group               *string              `json:"group" validate:"omitempty,max=100"`
	Kind                *models.ActivityKind `json:"kind"`
	UnitProductionValue *decimal.Decimal     `json:"unit_production_value"`
	UnitSaleValue       *decimal.Decimal     `json:"unit_sale_value"`
}

type ActivityResponse struct {
	ID                  uint                `json:"id"`
	Code                string              `json:"code"`
	Description         string              `json:"description"`
	Unit                string              `json:"unit"`
	Group               string              `json:"group"`
	Kind                models.ActivityKind `json:"kind"`
	UnitProductionValue decimal.Decimal     `json:"unit_production_value"`
	UnitSaleValue       decimal.Decimal     `json:"unit_sale_value"`
}

func toResponse(a models.Activity) ActivityResponse {
	return ActivityResponse{
		ID:                  a.ID,
		Code:                a.Code,
		Description:         a.Description,
		Unit:                a.Unit,
		Group:               a.Group,
		Kind:                a.Kind,
		UnitProductionValue: a.UnitProductionValue,
		UnitSaleValue:       a.UnitSaleValue,
	}
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// GET /api/activities?kind=Programada
func ListActivitiesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Activity{})
		if kind := c.Query("kind"); kind != "" {
			dbq = dbq.Where("kind = ?", kind)
		}

		var rows []models.Activity
		if err := dbq.Order("code asc, description asc").Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list activities")
		}
		resp := make([]ActivityResponse, 0, len(rows))
		for _, a := range rows {
			resp = append(resp, toResponse(a))
		}
		return c.JSON(resp)
	}
}

// POST /api/activities
func CreateActivityHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateActivityRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}
		if !body.Kind.Valid() {
			return fiber.NewError(fiber.StatusBadRequest,
				fmt.Sprintf("kind must be %q or %q", models.ActivityScheduled, models.ActivityUnscheduled))
		}

		a := models.Activity{
			Code:                strings.ToUpper(clean(body.Code)),
			Description:         clean(body.Description),
			Unit:                clean(body.Unit),
			Group:               clean(body.Group),
			Kind:                body.Kind,
			UnitProductionValue: body.UnitProductionValue,
			UnitSaleValue:       body.UnitSaleValue,
		}
		if err := database.DB.Create(&a).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fiber.NewError(fiber.StatusConflict, "An activity with this description already exists")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create activity")
		}

		resp := toResponse(a)
		audit.Record(c, "activity", a.ID, models.AuditActionCreate,
			fmt.Sprintf("Activity created: %s %s", a.Code, a.Description), nil, resp)
		return c.Status(fiber.StatusCreated).JSON(resp)
	}
}

// PUT /api/activities/:id
// Rates may change at any time; committed statements keep the values they
// were issued with.
func UpdateActivityHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var a models.Activity
		if err := database.DB.First(&a, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Activity not found")
		}

		var body UpdateActivityRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}
		before := toResponse(a)

		if body.Code != nil {
			code := strings.ToUpper(clean(*body.Code))
			if code == "" {
				return fiber.NewError(fiber.StatusBadRequest, "code cannot be empty")
			}
			a.Code = code
		}
		if body.Description != nil {
			desc := clean(*body.Description)
			if desc == "" {
				return fiber.NewError(fiber.StatusBadRequest, "description cannot be empty")
			}
			if desc != a.Description {
				var used int64
				if err := database.DB.Model(&models.ProductionEntry{}).
					Where("activity_name = ?", a.Description).Count(&used).Error; err != nil {
					return fiber.NewError(fiber.StatusInternalServerError, "Could not check production")
				}
				if used > 0 {
					return fiber.NewError(fiber.StatusConflict, "Activity is used by production entries and its description cannot change")
				}
				a.Description = desc
			}
		}
		if body.Unit != nil {
			a.Unit = clean(*body.Unit)
		}
		if body.Group != nil {
			a.Group = clean(*body.Group)
		}
		if body.Kind != nil {
			if !body.Kind.Valid() {
				return fiber.NewError(fiber.StatusBadRequest,
					fmt.Sprintf("kind must be %q or %q", models.ActivityScheduled, models.ActivityUnscheduled))
			}
			a.Kind = *body.Kind
		}
		if body.UnitProductionValue != nil {
			if body.UnitProductionValue.IsNegative() {
				return fiber.NewError(fiber.StatusBadRequest, "unit_production_value cannot be negative")
			}
			a.UnitProductionValue = *body.UnitProductionValue
		}
		if body.UnitSaleValue != nil {
			if body.UnitSaleValue.IsNegative() {
				return fiber.NewError(fiber.StatusBadRequest, "unit_sale_value cannot be negative")
			}
			a.UnitSaleValue = *body.UnitSaleValue
		}

		if err := database.DB.Save(&a).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fiber.NewError(fiber.StatusConflict, "An activity with this description already exists")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update activity")
		}

		resp := toResponse(a)
		audit.Record(c, "activity", a.ID, models.AuditActionUpdate,
			fmt.Sprintf("Activity updated: %s %s", a.Code, a.Description), before, resp)
		return c.JSON(resp)
	}
}

// DELETE /api/activities/:id
func DeleteActivityHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var a models.Activity
		if err := database.DB.First(&a, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Activity not found")
		}

		var used int64
		if err := database.DB.Model(&models.ProductionEntry{}).
			Where("activity_name = ?", a.Description).Count(&used).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not check production")
		}
		if used > 0 {
			return fiber.NewError(fiber.StatusConflict, "Activity is used by production entries and cannot be deleted")
		}

		if err := database.DB.Delete(&a).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete activity")
		}
		audit.Record(c, "activity", a.ID, models.AuditActionDelete,
			fmt.Sprintf("Activity deleted: %s %s", a.Code, a.Description), toResponse(a), nil)
		return c.SendStatus(fiber.StatusNoContent)
	}
}
