package expense

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"fibra-backend/internal/audit"
	"fibra-backend/internal/database"
	"fibra-backend/internal/models"
	"fibra-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreateExpenseRequest struct {
	Company     string          `json:"company" validate:"required"`
	Date        string          `json:"date"` // "2025-12-09", defaults to today
	Description string          `json:"description" validate:"required,max=255"`
	Amount      decimal.Decimal `json:"amount" validate:"gt=0"`
	Note        string          `json:"note" validate:"max=500"`
}

type ExpenseResponse struct {
	ID          uint            `json:"id"`
	Company     string          `json:"company"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Note        string          `json:"note"`
	StatementID *string         `json:"statement_id"`
}

func toResponse(e models.Expense, statementID *string) ExpenseResponse {
	return ExpenseResponse{
		ID:          e.ID,
		Company:     e.CompanyName,
		Date:        e.Date.Format("2006-01-02"),
		Description: e.Description,
		Amount:      e.Amount,
		Note:        e.Note,
		StatementID: statementID,
	}
}

func today() time.Time {
	y, m, d := time.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// -------------------------
// Expense CRUD
// -------------------------

// POST /api/expenses
func CreateExpenseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateExpenseRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}

		d := today()
		if body.Date != "" {
			parsed, err := time.Parse("2006-01-02", body.Date)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "date must be 'YYYY-MM-DD'")
			}
			d = parsed
		}

		company := models.CompanyKey(body.Company)
		var n int64
		if err := database.DB.Model(&models.Company{}).Where("name = ?", company).Count(&n).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not check company")
		}
		if n == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Company not found")
		}

		exp := models.Expense{
			CompanyName: company,
			Description: strings.TrimSpace(body.Description),
			Amount:      body.Amount,
			Note:        strings.TrimSpace(body.Note),
			Date:        d,
		}
		if exp.Description == "" {
			return fiber.NewError(fiber.StatusBadRequest, "description is required")
		}
		if err := database.DB.Create(&exp).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not save expense")
		}

		resp := toResponse(exp, nil)
		audit.Record(c, "expense", exp.ID, models.AuditActionCreate,
			fmt.Sprintf("Expense for %s: %s %s", exp.CompanyName, exp.Description, exp.Amount.StringFixed(0)), nil, resp)
		return c.Status(fiber.StatusCreated).JSON(resp)
	}
}

type listRow struct {
	models.Expense
	StatementID *string
}

// GET /api/expenses?company=&from=&to=
func ListExpensesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Table("expenses AS x").
			Select("x.*, l.correlative AS statement_id").
			Joins("LEFT JOIN statement_expense_links l ON l.expense_id = x.id")

		if company := strings.TrimSpace(c.Query("company")); company != "" {
			dbq = dbq.Where("x.company_name = ?", models.CompanyKey(company))
		}
		if fromStr := c.Query("from"); fromStr != "" {
			from, err := time.Parse("2006-01-02", fromStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid from date")
			}
			dbq = dbq.Where("x.date >= ?", from)
		}
		if toStr := c.Query("to"); toStr != "" {
			to, err := time.Parse("2006-01-02", toStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid to date")
			}
			dbq = dbq.Where("x.date < ?", to.AddDate(0, 0, 1))
		}

		var rows []listRow
		if err := dbq.Order("x.date desc, x.id desc").Scan(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list expenses")
		}

		resp := make([]ExpenseResponse, 0, len(rows))
		for _, r := range rows {
			resp = append(resp, toResponse(r.Expense, r.StatementID))
		}
		return c.JSON(resp)
	}
}

var errBilled = fiber.NewError(fiber.StatusConflict, "Expense is already on a payment statement")

// DELETE /api/expenses/:id
func DeleteExpenseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var deleted ExpenseResponse
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			var exp models.Expense
			if err := database.ForUpdate(tx).First(&exp, "id = ?", c.Params("id")).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fiber.NewError(fiber.StatusNotFound, "Expense not found")
				}
				return err
			}
			var linked int64
			if err := tx.Model(&models.StatementExpenseLink{}).Where("expense_id = ?", exp.ID).Count(&linked).Error; err != nil {
				return err
			}
			if linked > 0 {
				return errBilled
			}
			deleted = toResponse(exp, nil)
			return tx.Delete(&exp).Error
		})
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return fe
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete expense")
		}

		audit.Record(c, "expense", deleted.ID, models.AuditActionDelete,
			fmt.Sprintf("Expense deleted: %s %s", deleted.Description, deleted.Amount.StringFixed(0)), deleted, nil)
		return c.SendStatus(fiber.StatusNoContent)
	}
}
