package production

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"fibra-backend/internal/audit"
	"fibra-backend/internal/database"
	"fibra-backend/internal/models"
	"fibra-backend/internal/segment"
	"fibra-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// -------------------------
// Request/Response Types
// -------------------------

type ProductionRequest struct {
	Date        string          `json:"date" validate:"required"` // "2025-06-01"
	Activity    string          `json:"activity" validate:"required"`
	Worker      string          `json:"worker" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity" validate:"gte=0"`
	Triot       string          `json:"triot" validate:"required"`
	Tramo       string          `json:"tramo" validate:"required"`
	FinishedPct int             `json:"finished_pct" validate:"gte=0,lte=100"`
}

type ProductionResponse struct {
	ID          uint            `json:"id"`
	Date        string          `json:"date"`
	Activity    string          `json:"activity"`
	Worker      string          `json:"worker"`
	Quantity    decimal.Decimal `json:"quantity"`
	Triot       string          `json:"triot"`
	Tramo       string          `json:"tramo"`
	Start       string          `json:"start"`
	End         string          `json:"end"`
	SpliceStart string          `json:"splice_start"`
	SpliceEnd   string          `json:"splice_end"`
	FinishedPct int             `json:"finished_pct"`
	StatementID *string         `json:"statement_id"`
}

func toResponse(p models.ProductionEntry, statementID *string) ProductionResponse {
	return ProductionResponse{
		ID:          p.ID,
		Date:        p.Date.Format("2006-01-02"),
		Activity:    p.ActivityName,
		Worker:      p.WorkerName,
		Quantity:    p.Quantity,
		Triot:       p.Triot,
		Tramo:       p.Tramo,
		Start:       p.Start,
		End:         p.End,
		SpliceStart: p.SpliceStart,
		SpliceEnd:   p.SpliceEnd,
		FinishedPct: p.FinishedPct,
		StatementID: statementID,
	}
}

var errBilled = fiber.NewError(fiber.StatusConflict, "Production entry is already on a payment statement")

// billedBy returns the statement that billed entry id, or "" when none did.
func billedBy(tx *gorm.DB, id uint) (string, error) {
	var ids []string
	err := tx.Model(&models.StatementProductionLink{}).
		Where("production_entry_id = ?", id).
		Limit(1).
		Pluck("correlative", &ids).Error
	if err != nil || len(ids) == 0 {
		return "", err
	}
	return ids[0], nil
}

// build checks references and copies the segment into a new or existing entry.
func (r ProductionRequest) build(tx *gorm.DB, p *models.ProductionEntry) error {
	d, err := time.Parse("2006-01-02", strings.TrimSpace(r.Date))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "date must be 'YYYY-MM-DD'")
	}

	var act models.Activity
	if err := tx.Where("description = ?", strings.TrimSpace(r.Activity)).First(&act).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Activity not found")
	}
	var w models.Worker
	if err := tx.Where("name = ?", strings.TrimSpace(r.Worker)).First(&w).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Worker not found")
	}
	seg, err := segment.Find(tx, r.Triot, r.Tramo)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Segment not found")
	}

	p.Date = d
	p.ActivityName = act.Description
	p.WorkerName = w.Name
	p.Quantity = r.Quantity
	p.Triot = seg.Triot
	p.Tramo = seg.Tramo
	p.Start = seg.Start
	p.End = seg.End
	p.SpliceStart = seg.SpliceStart
	p.SpliceEnd = seg.SpliceEnd
	p.FinishedPct = r.FinishedPct
	return nil
}

// -------------------------
// Production CRUD
// -------------------------

// POST /api/production
func CreateProductionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ProductionRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}

		var p models.ProductionEntry
		if err := body.build(database.DB, &p); err != nil {
			return err
		}
		if err := database.DB.Create(&p).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not save production entry")
		}

		resp := toResponse(p, nil)
		audit.Record(c, "production", p.ID, models.AuditActionCreate,
			fmt.Sprintf("Production: %s %s x %s", p.WorkerName, p.ActivityName, p.Quantity.String()), nil, resp)
		return c.Status(fiber.StatusCreated).JSON(resp)
	}
}

type listRow struct {
	models.ProductionEntry
	StatementID *string
}

// GET /api/production?worker=&activity=&company=&from=&to=&billed=
func ListProductionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Table("production_entries AS p").
			Select("p.*, l.correlative AS statement_id").
			Joins("LEFT JOIN statement_production_links l ON l.production_entry_id = p.id")

		if worker := strings.TrimSpace(c.Query("worker")); worker != "" {
			dbq = dbq.Where("p.worker_name = ?", worker)
		}
		if act := strings.TrimSpace(c.Query("activity")); act != "" {
			dbq = dbq.Where("p.activity_name = ?", act)
		}
		if company := strings.TrimSpace(c.Query("company")); company != "" {
			dbq = dbq.Joins("JOIN workers w ON w.name = p.worker_name").
				Where("w.company_name = ?", models.CompanyKey(company))
		}
		if fromStr := c.Query("from"); fromStr != "" {
			from, err := time.Parse("2006-01-02", fromStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid from date")
			}
			dbq = dbq.Where("p.date >= ?", from)
		}
		if toStr := c.Query("to"); toStr != "" {
			to, err := time.Parse("2006-01-02", toStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid to date")
			}
			dbq = dbq.Where("p.date < ?", to.AddDate(0, 0, 1))
		}
		switch c.Query("billed") {
		case "true":
			dbq = dbq.Where("l.id IS NOT NULL")
		case "false":
			dbq = dbq.Where("l.id IS NULL")
		}

		var rows []listRow
		if err := dbq.Order("p.date desc, p.id desc").Scan(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list production")
		}

		resp := make([]ProductionResponse, 0, len(rows))
		for _, r := range rows {
			resp = append(resp, toResponse(r.ProductionEntry, r.StatementID))
		}
		return c.JSON(resp)
	}
}

// PUT /api/production/:id
func UpdateProductionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ProductionRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}

		var before, after ProductionResponse
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			var p models.ProductionEntry
			if err := database.ForUpdate(tx).First(&p, "id = ?", c.Params("id")).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fiber.NewError(fiber.StatusNotFound, "Production entry not found")
				}
				return err
			}
			st, err := billedBy(tx, p.ID)
			if err != nil {
				return err
			}
			if st != "" {
				return errBilled
			}

			before = toResponse(p, nil)
			if err := body.build(tx, &p); err != nil {
				return err
			}
			if err := tx.Save(&p).Error; err != nil {
				return err
			}
			after = toResponse(p, nil)
			return nil
		})
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return fe
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update production entry")
		}

		audit.Record(c, "production", after.ID, models.AuditActionUpdate,
			fmt.Sprintf("Production updated: %s %s x %s", after.Worker, after.Activity, after.Quantity.String()), before, after)
		return c.JSON(after)
	}
}

// DELETE /api/production/:id
func DeleteProductionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var deleted ProductionResponse
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			var p models.ProductionEntry
			if err := database.ForUpdate(tx).First(&p, "id = ?", c.Params("id")).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fiber.NewError(fiber.StatusNotFound, "Production entry not found")
				}
				return err
			}
			st, err := billedBy(tx, p.ID)
			if err != nil {
				return err
			}
			if st != "" {
				return errBilled
			}
			deleted = toResponse(p, nil)
			return tx.Delete(&p).Error
		})
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return fe
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete production entry")
		}

		audit.Record(c, "production", deleted.ID, models.AuditActionDelete,
			fmt.Sprintf("Production deleted: %s %s", deleted.Worker, deleted.Activity), deleted, nil)
		return c.SendStatus(fiber.StatusNoContent)
	}
}
