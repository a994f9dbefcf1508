package production

import (
	"bytes"
	"fmt"
	"time"

	"fibra-backend/internal/config"
	"fibra-backend/internal/database"
	"fibra-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// SummaryRow totals one activity. Activities without a rate keep zero values
// and HasRate false.
type SummaryRow struct {
	Activity            string          `json:"activity"`
	Unit                string          `json:"unit"`
	Quantity            decimal.Decimal `json:"quantity"`
	UnitProductionValue decimal.Decimal `json:"unit_production_value"`
	UnitSaleValue       decimal.Decimal `json:"unit_sale_value"`
	ProductionAmount    decimal.Decimal `json:"production_amount"`
	SaleAmount          decimal.Decimal `json:"sale_amount"`
	HasRate             bool            `json:"has_rate"`
}

type SummaryResponse struct {
	From             string          `json:"from,omitempty"`
	To               string          `json:"to,omitempty"`
	Company          string          `json:"company,omitempty"`
	Rows             []SummaryRow    `json:"rows"`
	TotalProduction  decimal.Decimal `json:"total_production"`
	TotalSale        decimal.Decimal `json:"total_sale"`
	UnmatchedEntries int             `json:"unmatched_entries"`
}

type summaryFilter struct {
	from, to string
	company  string
}

func parseSummaryFilter(c *fiber.Ctx) (summaryFilter, error) {
	f := summaryFilter{
		from:    c.Query("from"),
		to:      c.Query("to"),
		company: models.CompanyKey(c.Query("company")),
	}
	for _, s := range []string{f.from, f.to} {
		if s == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", s); err != nil {
			return f, fiber.NewError(fiber.StatusBadRequest, "Dates must be 'YYYY-MM-DD'")
		}
	}
	return f, nil
}

type summaryScan struct {
	ActivityName        string
	Entries             int
	Quantity            decimal.Decimal
	Unit                *string
	UnitProductionValue decimal.NullDecimal
	UnitSaleValue       decimal.NullDecimal
}

// Summarize groups production by activity and prices it with the current rates.
func Summarize(db *gorm.DB, f summaryFilter) (*SummaryResponse, error) {
	q := db.Table("production_entries AS p").
		Select("p.activity_name, COUNT(p.id) AS entries, SUM(p.quantity) AS quantity, " +
			"a.unit, a.unit_production_value, a.unit_sale_value").
		Joins("LEFT JOIN activities a ON a.description = p.activity_name")
	if f.company != "" {
		q = q.Joins("JOIN workers w ON w.name = p.worker_name").Where("w.company_name = ?", f.company)
	}
	if f.from != "" {
		from, _ := time.Parse("2006-01-02", f.from)
		q = q.Where("p.date >= ?", from)
	}
	if f.to != "" {
		to, _ := time.Parse("2006-01-02", f.to)
		q = q.Where("p.date < ?", to.AddDate(0, 0, 1))
	}

	var scanned []summaryScan
	err := q.Group("p.activity_name, a.unit, a.unit_production_value, a.unit_sale_value").
		Order("p.activity_name asc").
		Scan(&scanned).Error
	if err != nil {
		return nil, err
	}

	resp := &SummaryResponse{
		From:            f.from,
		To:              f.to,
		Company:         f.company,
		Rows:            make([]SummaryRow, 0, len(scanned)),
		TotalProduction: decimal.Zero,
		TotalSale:       decimal.Zero,
	}
	for _, s := range scanned {
		row := SummaryRow{
			Activity:            s.ActivityName,
			Quantity:            s.Quantity,
			UnitProductionValue: s.UnitProductionValue.Decimal,
			UnitSaleValue:       s.UnitSaleValue.Decimal,
			HasRate:             s.UnitProductionValue.Valid,
		}
		if s.Unit != nil {
			row.Unit = *s.Unit
		}
		row.ProductionAmount = row.Quantity.Mul(row.UnitProductionValue)
		row.SaleAmount = row.Quantity.Mul(row.UnitSaleValue)
		if !row.HasRate {
			resp.UnmatchedEntries += s.Entries
		}
		resp.TotalProduction = resp.TotalProduction.Add(row.ProductionAmount)
		resp.TotalSale = resp.TotalSale.Add(row.SaleAmount)
		resp.Rows = append(resp.Rows, row)
	}
	return resp, nil
}

// GET /api/production/summary?from=&to=&company=
func SummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := parseSummaryFilter(c)
		if err != nil {
			return err
		}
		resp, err := Summarize(database.DB, f)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not build production summary")
		}
		return c.JSON(resp)
	}
}

// GET /api/production/summary/export?from=&to=&company=
func SummaryExportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := parseSummaryFilter(c)
		if err != nil {
			return err
		}
		resp, err := Summarize(database.DB, f)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not build production summary")
		}

		var buf bytes.Buffer
		if err := writeSummary(resp, &buf); err != nil {
			config.LogError(config.GetLogger(), "production", "SummaryExportHandler", "write workbook", c.OriginalURL(), err)
			return fiber.NewError(fiber.StatusInternalServerError, "Could not export production summary")
		}

		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, "attachment; filename=resumen_produccion.xlsx")
		return c.Send(buf.Bytes())
	}
}

const summarySheet = "Resumen"

func writeSummary(s *SummaryResponse, buf *bytes.Buffer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return err
	}
	headers := []any{"Actividad", "Unidad", "Cantidad", "Valor Producción", "Valor Venta", "Monto Producción", "Monto Venta"}
	if err := f.SetSheetRow(summarySheet, "A1", &headers); err != nil {
		return err
	}

	for i, r := range s.Rows {
		row := []any{
			r.Activity,
			r.Unit,
			r.Quantity.InexactFloat64(),
			r.UnitProductionValue.Round(0).IntPart(),
			r.UnitSaleValue.Round(0).IntPart(),
			r.ProductionAmount.Round(0).IntPart(),
			r.SaleAmount.Round(0).IntPart(),
		}
		if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return err
		}
	}

	last := len(s.Rows) + 2
	total := []any{"Total", "", "", "", "", s.TotalProduction.Round(0).IntPart(), s.TotalSale.Round(0).IntPart()}
	if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", last), &total); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 3})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(summarySheet, "A1", "G1", bold); err != nil {
		return err
	}
	if err := f.SetCellStyle(summarySheet, "D2", fmt.Sprintf("G%d", last), money); err != nil {
		return err
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 40); err != nil {
		return err
	}
	return f.Write(buf)
}
