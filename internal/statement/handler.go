package statement

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"fibra-backend/internal/audit"
	"fibra-backend/internal/auth"
	"fibra-backend/internal/config"
	"fibra-backend/internal/lock"
	"fibra-backend/internal/models"
	"fibra-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type SelectionRequest struct {
	Company       string `json:"company" validate:"required"`
	Date          string `json:"date"` // "2025-06-30", defaults to today
	ProductionIDs []uint `json:"production_ids"`
	ExpenseIDs    []uint `json:"expense_ids"`
}

type ProductionLineResponse struct {
	ProductionItem
	Date string `json:"date"`
}

type ExpenseLineResponse struct {
	ExpenseItem
	Date string `json:"date"`
}

type EligibleResponse struct {
	Company        string                   `json:"company"`
	Production     []ProductionLineResponse `json:"production"`
	Expenses       []ExpenseLineResponse    `json:"expenses"`
	UnmatchedRates int                      `json:"unmatched_rates"`
	NextID         string                   `json:"next_id"`
}

type PreviewResponse struct {
	NextID     string                   `json:"next_id"`
	Company    string                   `json:"company"`
	Production []ProductionLineResponse `json:"production"`
	Expenses   []ExpenseLineResponse    `json:"expenses"`
	Totals     Totals                   `json:"totals"`
}

type StatementLinkResponse struct {
	ID                  uint            `json:"id"`
	Date                string          `json:"date"`
	ActivityName        string          `json:"activity,omitempty"`
	WorkerName          string          `json:"worker,omitempty"`
	Description         string          `json:"description,omitempty"`
	Quantity            decimal.Decimal `json:"quantity"`
	UnitProductionValue decimal.Decimal `json:"unit_production_value"`
	UnitSaleValue       decimal.Decimal `json:"unit_sale_value"`
	Amount              decimal.Decimal `json:"amount"`
	SaleAmount          decimal.Decimal `json:"sale_amount"`
}

type StatementResponse struct {
	ID         string                  `json:"id"`
	Date       string                  `json:"date"`
	Company    string                  `json:"company"`
	Totals     Totals                  `json:"totals"`
	CreatedBy  string                  `json:"created_by"`
	CreatedAt  string                  `json:"created_at"`
	Production []StatementLinkResponse `json:"production,omitempty"`
	Expenses   []StatementLinkResponse `json:"expenses,omitempty"`
}

func toStatementResponse(st *models.PaymentStatement) StatementResponse {
	resp := StatementResponse{
		ID:      st.Correlative,
		Date:    st.Date.Format("2006-01-02"),
		Company: st.CompanyName,
		Totals: Totals{
			TotalProduction: st.TotalProduction,
			TotalSale:       st.TotalSale,
			TotalExpenses:   st.TotalExpenses,
			Net:             st.Net,
		},
		CreatedBy: st.CreatedBy,
		CreatedAt: st.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	for _, l := range st.ProductionLinks {
		resp.Production = append(resp.Production, StatementLinkResponse{
			ID:                  l.ProductionEntryID,
			Date:                l.Date.Format("2006-01-02"),
			ActivityName:        l.ActivityName,
			WorkerName:          l.WorkerName,
			Quantity:            l.Quantity,
			UnitProductionValue: l.UnitProductionValue,
			UnitSaleValue:       l.UnitSaleValue,
			Amount:              l.ProductionAmount,
			SaleAmount:          l.SaleAmount,
		})
	}
	for _, l := range st.ExpenseLinks {
		resp.Expenses = append(resp.Expenses, StatementLinkResponse{
			ID:          l.ExpenseID,
			Date:        l.Date.Format("2006-01-02"),
			Description: l.Description,
			Amount:      l.Amount,
		})
	}
	return resp
}

func productionLines(items []ProductionItem) []ProductionLineResponse {
	out := make([]ProductionLineResponse, 0, len(items))
	for _, it := range items {
		out = append(out, ProductionLineResponse{ProductionItem: it, Date: it.Date.Format("2006-01-02")})
	}
	return out
}

func expenseLines(items []ExpenseItem) []ExpenseLineResponse {
	out := make([]ExpenseLineResponse, 0, len(items))
	for _, it := range items {
		out = append(out, ExpenseLineResponse{ExpenseItem: it, Date: it.Date.Format("2006-01-02")})
	}
	return out
}

// httpError maps engine errors onto API errors. Unknown errors pass through
// and end up as 500.
func httpError(err error) error {
	var ve *ValidationError
	var ce *ConflictError
	switch {
	case errors.As(err, &ve):
		return fiber.NewError(fiber.StatusBadRequest, ve.Error())
	case errors.As(err, &ce):
		return fiber.NewError(fiber.StatusConflict, ce.Error())
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Company or statement not found")
	case errors.Is(err, ErrDuplicateStatementID):
		return fiber.NewError(fiber.StatusConflict, "Could not allocate a statement id, try again")
	case errors.Is(err, ErrLocked):
		return fiber.NewError(fiber.StatusConflict, ErrLocked.Error())
	}
	return err
}

// GET /api/statements/eligible?company=ACME
func EligibleHandler(engine *Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		company := models.CompanyKey(c.Query("company"))
		if company == "" {
			return fiber.NewError(fiber.StatusBadRequest, "company is required")
		}
		ctx := c.UserContext()

		production, err := engine.ListEligibleProduction(ctx, company)
		if err != nil {
			return httpError(err)
		}
		expenses, err := engine.ListEligibleExpenses(ctx, company)
		if err != nil {
			return httpError(err)
		}
		next, err := engine.NextCorrelativeID(ctx, engine.Prefix())
		if err != nil {
			return httpError(err)
		}

		return c.JSON(EligibleResponse{
			Company:        company,
			Production:     productionLines(production.Items),
			Expenses:       expenseLines(expenses),
			UnmatchedRates: production.UnmatchedRates,
			NextID:         next,
		})
	}
}

// POST /api/statements/preview
func PreviewHandler(engine *Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SelectionRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}

		p, err := engine.Preview(c.UserContext(), body.Company, body.ProductionIDs, body.ExpenseIDs)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(PreviewResponse{
			NextID:     p.Correlative,
			Company:    p.Company,
			Production: productionLines(p.Production),
			Expenses:   expenseLines(p.Expenses),
			Totals:     p.Totals,
		})
	}
}

// POST /api/statements
func CommitHandler(engine *Engine, locker lock.Locker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SelectionRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}

		var date time.Time
		if body.Date != "" {
			d, err := time.Parse("2006-01-02", body.Date)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "date must be 'YYYY-MM-DD'")
			}
			date = d
		}

		ctx := c.UserContext()
		release, err := locker.Obtain(ctx, lock.StatementKey(models.CompanyKey(body.Company)))
		if errors.Is(err, lock.ErrNotObtained) {
			return httpError(ErrLocked)
		}
		if err != nil {
			return err
		}
		defer release()

		_, username := auth.Actor(c)
		st, err := engine.CommitStatement(ctx, CommitRequest{
			CompanyName:   body.Company,
			Date:          date,
			ProductionIDs: body.ProductionIDs,
			ExpenseIDs:    body.ExpenseIDs,
			CreatedBy:     username,
		})
		if err != nil {
			return httpError(err)
		}

		resp := toStatementResponse(st)
		audit.Record(c, "statement", st.Correlative, models.AuditActionCreate,
			fmt.Sprintf("Statement %s issued to %s, net %s", st.Correlative, st.CompanyName, st.Net.StringFixed(0)),
			nil, resp)

		return c.Status(fiber.StatusCreated).JSON(resp)
	}
}

// GET /api/statements?company=ACME
func ListHandler(engine *Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rows, err := engine.ListStatements(c.UserContext(), strings.TrimSpace(c.Query("company")))
		if err != nil {
			return httpError(err)
		}
		resp := make([]StatementResponse, 0, len(rows))
		for i := range rows {
			resp = append(resp, toStatementResponse(&rows[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/statements/:id
func GetHandler(engine *Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		st, err := engine.GetStatement(c.UserContext(), c.Params("id"))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(toStatementResponse(st))
	}
}

// GET /api/statements/:id/export
func ExportHandler(engine *Engine, issuer config.Issuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		st, err := engine.GetStatement(c.UserContext(), c.Params("id"))
		if err != nil {
			return httpError(err)
		}

		doc := BuildDocument(st, issuer)
		var buf bytes.Buffer
		if err := WriteWorkbook(doc, &buf); err != nil {
			config.LogError(config.GetLogger(), "statement", "ExportHandler", "write workbook", st.Correlative, err)
			return fiber.NewError(fiber.StatusInternalServerError, "Could not export statement")
		}

		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", doc.Filename()))
		return c.Send(buf.Bytes())
	}
}
