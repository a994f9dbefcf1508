package personnel

import (
	"errors"
	"fmt"
	"strings"

	"fibra-backend/internal/audit"
	"fibra-backend/internal/database"
	"fibra-backend/internal/models"
	"fibra-backend/internal/rut"
	"fibra-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CreateWorkerRequest struct {
	Name        string `json:"name" validate:"required,max=150"`
	TaxID       string `json:"tax_id" validate:"required,rut"`
	Position    string `json:"position" validate:"max=100"`
	CompanyName string `json:"company" validate:"required"`
}

type UpdateWorkerRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=150"`
	TaxID       *string `json:"tax_id" validate:"omitempty,rut"`
	Position    *string `json:"position" validate:"omitempty,max=100"`
	CompanyName *string `json:"company"`
}

type WorkerResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	TaxID       string `json:"tax_id"`
	Position    string `json:"position"`
	CompanyName string `json:"company"`
}

func toResponse(w models.Worker) WorkerResponse {
	return WorkerResponse{
		ID:          w.ID,
		Name:        w.Name,
		TaxID:       w.TaxID,
		Position:    w.Position,
		CompanyName: w.CompanyName,
	}
}

func cleanName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func companyExists(name string) (bool, error) {
	var n int64
	err := database.DB.Model(&models.Company{}).Where("name = ?", name).Count(&n).Error
	return n > 0, err
}

func hasProduction(name string) (bool, error) {
	var n int64
	err := database.DB.Model(&models.ProductionEntry{}).Where("worker_name = ?", name).Count(&n).Error
	return n > 0, err
}

// GET /api/workers?company=ACME
func ListWorkersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Worker{})
		if company := strings.TrimSpace(c.Query("company")); company != "" {
			dbq = dbq.Where("company_name = ?", models.CompanyKey(company))
		}

		var rows []models.Worker
		if err := dbq.Order("name asc").Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list workers")
		}
		resp := make([]WorkerResponse, 0, len(rows))
		for _, w := range rows {
			resp = append(resp, toResponse(w))
		}
		return c.JSON(resp)
	}
}

// POST /api/workers
func CreateWorkerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateWorkerRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}

		taxID, err := rut.Format(body.TaxID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid RUT")
		}
		w := models.Worker{
			Name:        cleanName(body.Name),
			TaxID:       taxID,
			Position:    strings.TrimSpace(body.Position),
			CompanyName: models.CompanyKey(body.CompanyName),
		}

		ok, err := companyExists(w.CompanyName)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not check company")
		}
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "Company not found")
		}

		if err := database.DB.Create(&w).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fiber.NewError(fiber.StatusConflict, "A worker with this name already exists")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create worker")
		}

		resp := toResponse(w)
		audit.Record(c, "worker", w.ID, models.AuditActionCreate,
			fmt.Sprintf("Worker created: %s (%s)", w.Name, w.CompanyName), nil, resp)
		return c.Status(fiber.StatusCreated).JSON(resp)
	}
}

// PUT /api/workers/:id
func UpdateWorkerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var w models.Worker
		if err := database.DB.First(&w, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Worker not found")
		}

		var body UpdateWorkerRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}
		before := toResponse(w)

		if body.Name != nil {
			name := cleanName(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "name cannot be empty")
			}
			if name != w.Name {
				used, err := hasProduction(w.Name)
				if err != nil {
					return fiber.NewError(fiber.StatusInternalServerError, "Could not check production")
				}
				if used {
					return fiber.NewError(fiber.StatusConflict, "Worker has production entries and cannot be renamed")
				}
				w.Name = name
			}
		}
		if body.TaxID != nil {
			taxID, err := rut.Format(*body.TaxID)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid RUT")
			}
			w.TaxID = taxID
		}
		if body.Position != nil {
			w.Position = strings.TrimSpace(*body.Position)
		}
		if body.CompanyName != nil {
			company := models.CompanyKey(*body.CompanyName)
			ok, err := companyExists(company)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Could not check company")
			}
			if !ok {
				return fiber.NewError(fiber.StatusBadRequest, "Company not found")
			}
			w.CompanyName = company
		}

		if err := database.DB.Save(&w).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fiber.NewError(fiber.StatusConflict, "A worker with this name already exists")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update worker")
		}

		resp := toResponse(w)
		audit.Record(c, "worker", w.ID, models.AuditActionUpdate,
			fmt.Sprintf("Worker updated: %s", w.Name), before, resp)
		return c.JSON(resp)
	}
}

// DELETE /api/workers/:id
func DeleteWorkerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var w models.Worker
		if err := database.DB.First(&w, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Worker not found")
		}

		used, err := hasProduction(w.Name)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not check production")
		}
		if used {
			return fiber.NewError(fiber.StatusConflict, "Worker has production entries and cannot be deleted")
		}

		if err := database.DB.Delete(&w).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete worker")
		}

		audit.Record(c, "worker", w.ID, models.AuditActionDelete,
			fmt.Sprintf("Worker deleted: %s", w.Name), toResponse(w), nil)
		return c.SendStatus(fiber.StatusNoContent)
	}
}
