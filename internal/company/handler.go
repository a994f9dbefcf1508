package company

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
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

// -------------------------
// Request/Response Types
// -------------------------

type CreateCompanyRequest struct {
	Name           string `json:"name" validate:"required,max=150"`
	TaxID          string `json:"tax_id" validate:"required,rut"`
	Representative string `json:"representative" validate:"required,max=150"`
	Address        string `json:"address" validate:"max=255"`
	Email          string `json:"email" validate:"omitempty,email"`
}

type UpdateCompanyRequest struct {
	Name           *string `json:"name" validate:"omitempty,max=150"`
	TaxID          *string `json:"tax_id" validate:"omitempty,rut"`
	Representative *string `json:"representative" validate:"omitempty,max=150"`
	Address        *string `json:"address" validate:"omitempty,max=255"`
	Email          *string `json:"email" validate:"omitempty,email"`
}

type CompanyResponse struct {
	ID             uint   `json:"id"`
	Name           string `json:"name"`
	TaxID          string `json:"tax_id"`
	Representative string `json:"representative"`
	Address        string `json:"address"`
	Email          string `json:"email"`
}

func toResponse(co models.Company) CompanyResponse {
	return CompanyResponse{
		ID:             co.ID,
		Name:           co.Name,
		TaxID:          co.TaxID,
		Representative: co.Representative,
		Address:        co.Address,
		Email:          co.Email,
	}
}

var titleCaser = cases.Title(language.Spanish)

func titleCase(s string) string {
	return titleCaser.String(strings.Join(strings.Fields(s), " "))
}

// references counts the rows that point at a company by name.
func references(tx *gorm.DB, name string) (int64, error) {
	var total int64
	for _, m := range []any{&models.Worker{}, &models.Expense{}, &models.PaymentStatement{}} {
		var n int64
		if err := tx.Model(m).Where("company_name = ?", name).Count(&n).Error; err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// -------------------------
// Company CRUD
// -------------------------

// GET /api/companies
func ListCompaniesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var rows []models.Company
		if err := database.DB.Order("name asc").Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list companies")
		}
		resp := make([]CompanyResponse, 0, len(rows))
		for _, r := range rows {
			resp = append(resp, toResponse(r))
		}
		return c.JSON(resp)
	}
}

// GET /api/companies/:id
func GetCompanyHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var co models.Company
		if err := database.DB.First(&co, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Company not found")
		}
		return c.JSON(toResponse(co))
	}
}

// POST /api/companies
func CreateCompanyHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateCompanyRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}

		taxID, err := rut.Format(body.TaxID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid RUT")
		}
		co := models.Company{
			Name:           models.CompanyKey(body.Name),
			TaxID:          taxID,
			Representative: titleCase(body.Representative),
			Address:        titleCase(body.Address),
			Email:          strings.ToLower(strings.TrimSpace(body.Email)),
		}
		if co.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name is required")
		}

		if err := database.DB.Create(&co).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fiber.NewError(fiber.StatusConflict, "A company with this name already exists")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create company")
		}

		resp := toResponse(co)
		audit.Record(c, "company", co.ID, models.AuditActionCreate,
			fmt.Sprintf("Company created: %s", co.Name), nil, resp)
		return c.Status(fiber.StatusCreated).JSON(resp)
	}
}

// PUT /api/companies/:id
func UpdateCompanyHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var co models.Company
		if err := database.DB.First(&co, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Company not found")
		}

		var body UpdateCompanyRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}

		before := toResponse(co)

		if body.Name != nil {
			name := models.CompanyKey(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "name cannot be empty")
			}
			if name != co.Name {
				n, err := references(database.DB, co.Name)
				if err != nil {
					return fiber.NewError(fiber.StatusInternalServerError, "Could not check company references")
				}
				if n > 0 {
					return fiber.NewError(fiber.StatusConflict, "Company has workers, expenses or statements and cannot be renamed")
				}
				co.Name = name
			}
		}
		if body.TaxID != nil {
			taxID, err := rut.Format(*body.TaxID)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid RUT")
			}
			co.TaxID = taxID
		}
		if body.Representative != nil {
			rep := titleCase(*body.Representative)
			if rep == "" {
				return fiber.NewError(fiber.StatusBadRequest, "representative cannot be empty")
			}
			co.Representative = rep
		}
		if body.Address != nil {
			co.Address = titleCase(*body.Address)
		}
		if body.Email != nil {
			co.Email = strings.ToLower(strings.TrimSpace(*body.Email))
		}

		if err := database.DB.Save(&co).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fiber.NewError(fiber.StatusConflict, "A company with this name already exists")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update company")
		}

		resp := toResponse(co)
		audit.Record(c, "company", co.ID, models.AuditActionUpdate,
			fmt.Sprintf("Company updated: %s", co.Name), before, resp)
		return c.JSON(resp)
	}
}

// DELETE /api/companies/:id
func DeleteCompanyHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var co models.Company
		if err := database.DB.First(&co, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Company not found")
		}

		err := database.DB.Transaction(func(tx *gorm.DB) error {
			n, err := references(tx, co.Name)
			if err != nil {
				return err
			}
			if n > 0 {
				return fiber.NewError(fiber.StatusConflict, "Company has workers, expenses or statements and cannot be deleted")
			}
			return tx.Delete(&co).Error
		})
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return fe
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete company")
		}

		audit.Record(c, "company", co.ID, models.AuditActionDelete,
			fmt.Sprintf("Company deleted: %s", co.Name), toResponse(co), nil)
		return c.SendStatus(fiber.StatusNoContent)
	}
}
