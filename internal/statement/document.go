package statement

import (
	"fmt"
	"io"

	"fibra-backend/internal/config"
	"fibra-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Estado de Pago"

// Document is the printable form of a committed statement. Amounts are
// rounded to whole pesos.
type Document struct {
	Title      string
	Company    string
	Date       string
	Production []DocumentLine
	Expenses   []DocumentLine
	Totals     Totals
	Issuer     config.Issuer
}

type DocumentLine struct {
	Description string
	Quantity    decimal.Decimal
	Amount      decimal.Decimal
}

// BuildDocument lays out st. Production lines show the production amount, the
// sale amount stays internal.
func BuildDocument(st *models.PaymentStatement, issuer config.Issuer) *Document {
	doc := &Document{
		Title:   "Estado de Pago " + st.Correlative,
		Company: st.CompanyName,
		Date:    st.Date.Format("2006-01-02"),
		Totals: Totals{
			TotalProduction: st.TotalProduction.Round(0),
			TotalSale:       st.TotalSale.Round(0),
			TotalExpenses:   st.TotalExpenses.Round(0),
			Net:             st.Net.Round(0),
		},
		Issuer: issuer,
	}
	for _, l := range st.ProductionLinks {
		doc.Production = append(doc.Production, DocumentLine{
			Description: l.ActivityName + " (" + l.WorkerName + ")",
			Quantity:    l.Quantity,
			Amount:      l.ProductionAmount.Round(0),
		})
	}
	for _, l := range st.ExpenseLinks {
		doc.Expenses = append(doc.Expenses, DocumentLine{
			Description: l.Description,
			Amount:      l.Amount.Round(0),
		})
	}
	return doc
}

// Filename is the download name of the exported workbook.
func (d *Document) Filename() string {
	return d.Title + ".xlsx"
}

// WriteWorkbook renders doc as a single-sheet xlsx.
func WriteWorkbook(doc *Document, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	title, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 16},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 3}) // #,##0
	if err != nil {
		return err
	}
	moneyBold, err := f.NewStyle(&excelize.Style{NumFmt: 3, Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	s := &sheet{f: f, row: 1}
	s.set("A", doc.Title, title)
	if err := f.MergeCell(sheetName, "A1", "C1"); err != nil {
		return err
	}
	s.row += 2

	s.set("A", "Empresa: "+doc.Company, bold)
	s.set("C", "Fecha: "+doc.Date, bold)
	s.row += 2

	s.set("A", "Producción", bold)
	s.row++
	s.set("A", "Actividad", bold)
	s.set("B", "Cantidad", bold)
	s.set("C", "Monto", bold)
	s.row++
	for _, l := range doc.Production {
		s.set("A", l.Description, 0)
		s.set("B", l.Quantity.InexactFloat64(), 0)
		s.set("C", l.Amount.IntPart(), money)
		s.row++
	}
	s.set("A", "Total Producción", bold)
	s.set("C", doc.Totals.TotalProduction.IntPart(), moneyBold)
	s.row += 2

	if len(doc.Expenses) > 0 {
		s.set("A", "Gastos", bold)
		s.row++
		s.set("A", "Descripción", bold)
		s.set("C", "Monto", bold)
		s.row++
		for _, l := range doc.Expenses {
			s.set("A", l.Description, 0)
			s.set("C", l.Amount.IntPart(), money)
			s.row++
		}
		s.set("A", "Total Gastos", bold)
		s.set("C", doc.Totals.TotalExpenses.IntPart(), moneyBold)
		s.row += 2
	}

	s.set("A", "Neto a Pagar", bold)
	s.set("C", doc.Totals.Net.IntPart(), moneyBold)
	s.row += 2

	if iss := doc.Issuer; iss.Name != "" {
		s.set("A", "SE AUTORIZA A FACTURAR A", bold)
		s.row++
		s.line(iss.Name + " | RUT: " + iss.TaxID)
		s.line("Dirección: " + iss.Address)
		if iss.Approver != "" {
			s.line("AUTORIZA: " + iss.Approver)
		}
		if iss.ApproverEmail != "" {
			s.line("CORREO: " + iss.ApproverEmail)
		}
		if iss.InvoiceRecipients != "" {
			s.line("ENVIAR FACTURA A: " + iss.InvoiceRecipients)
		}
	}
	if s.err != nil {
		return s.err
	}

	if err := f.SetColWidth(sheetName, "A", "A", 48); err != nil {
		return err
	}
	if err := f.SetColWidth(sheetName, "B", "C", 16); err != nil {
		return err
	}
	return f.Write(w)
}

// sheet writes cells top to bottom and keeps the first error.
type sheet struct {
	f   *excelize.File
	row int
	err error
}

func (s *sheet) set(col string, value any, style int) {
	if s.err != nil {
		return
	}
	cell := fmt.Sprintf("%s%d", col, s.row)
	if s.err = s.f.SetCellValue(sheetName, cell, value); s.err != nil {
		return
	}
	if style != 0 {
		s.err = s.f.SetCellStyle(sheetName, cell, cell, style)
	}
}

func (s *sheet) line(text string) {
	s.set("A", text, 0)
	s.row++
}
