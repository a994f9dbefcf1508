package statement

import (
	"bytes"
	"context"
	"testing"

	"fibra-backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestBuildDocumentRoundsAmounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.db.Exec("UPDATE activities SET unit_production_value = ? WHERE description = ?",
		"500.55", "Tendido de cable").Error)

	st, err := f.engine.CommitStatement(ctx, CommitRequest{
		CompanyName:   "ACME",
		ProductionIDs: []uint{f.acmeTendido},
		ExpenseIDs:    []uint{f.acmeExpense},
	})
	require.NoError(t, err)
	assert.True(t, st.TotalProduction.Equal(dec("5005.5")))

	stored, err := f.engine.GetStatement(ctx, st.Correlative)
	require.NoError(t, err)

	doc := BuildDocument(stored, config.Issuer{})
	assert.Equal(t, "Estado de Pago EGTD-01", doc.Title)
	assert.Equal(t, "2025-06-30", doc.Date)
	require.Len(t, doc.Production, 1)
	assert.Equal(t, "Tendido de cable (Juan Perez)", doc.Production[0].Description)
	assert.True(t, doc.Production[0].Amount.Equal(dec("5006")))
	assert.True(t, doc.Totals.Net.Equal(dec("3006")))
}

func TestWriteWorkbook(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	st, err := f.engine.CommitStatement(ctx, CommitRequest{
		CompanyName:   "ACME",
		ProductionIDs: []uint{f.acmeTendido, f.acmeFusion},
		ExpenseIDs:    []uint{f.acmeExpense},
	})
	require.NoError(t, err)
	stored, err := f.engine.GetStatement(ctx, st.Correlative)
	require.NoError(t, err)

	issuer := config.Issuer{Name: "SOMYL S.A.", TaxID: "76.002.581-K", Address: "Colina", Approver: "Jefe de Obra"}
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(BuildDocument(stored, issuer), &buf))

	wb, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows(sheetName, excelize.Options{RawCellValue: true})
	require.NoError(t, err)

	find := func(label string) []string {
		for _, r := range rows {
			if len(r) > 0 && r[0] == label {
				return r
			}
		}
		return nil
	}

	require.NotEmpty(t, rows)
	assert.Equal(t, "Estado de Pago EGTD-01", rows[0][0])
	assert.NotNil(t, find("Empresa: ACME"))
	require.NotNil(t, find("Total Producción"))
	assert.Equal(t, "9000", find("Total Producción")[2])
	require.NotNil(t, find("Total Gastos"))
	assert.Equal(t, "2000", find("Total Gastos")[2])
	require.NotNil(t, find("Neto a Pagar"))
	assert.Equal(t, "7000", find("Neto a Pagar")[2])
	assert.NotNil(t, find("SE AUTORIZA A FACTURAR A"))
	assert.NotNil(t, find("SOMYL S.A. | RUT: 76.002.581-K"))
	assert.NotNil(t, find("AUTORIZA: Jefe de Obra"))
}

func TestWriteWorkbookWithoutIssuerOrExpenses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	st, err := f.engine.CommitStatement(ctx, CommitRequest{CompanyName: "ACME", ProductionIDs: []uint{f.acmeFusion}})
	require.NoError(t, err)
	stored, err := f.engine.GetStatement(ctx, st.Correlative)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(BuildDocument(stored, config.Issuer{}), &buf))

	wb, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer wb.Close()
	rows, err := wb.GetRows(sheetName)
	require.NoError(t, err)

	for _, r := range rows {
		if len(r) == 0 {
			continue
		}
		assert.NotEqual(t, "Gastos", r[0])
		assert.NotEqual(t, "SE AUTORIZA A FACTURAR A", r[0])
	}
}
