package statement

import (
	"testing"
	"time"

	"fibra-backend/internal/database/dbtest"
	"fibra-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db     *gorm.DB
	engine *Engine

	// ACME: 10 x 500 and 4 x 1000, one row without a rate, one 2000 expense
	acmeTendido, acmeFusion, acmeNoRate uint
	acmeExpense                         uint
	// OTRA: 3 x 500, one 500 expense
	otraTendido uint
	otraExpense uint
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Use(t)
	f := &fixture{db: db, engine: NewEngine(db, "EGTD")}
	f.engine.now = func() time.Time { return day("2025-06-30") }

	mustCreate := func(v any) {
		t.Helper()
		require.NoError(t, db.Create(v).Error)
	}

	mustCreate(&models.Company{Name: "ACME", TaxID: "76.002.581-K", Representative: "Rosa Diaz"})
	mustCreate(&models.Company{Name: "OTRA", TaxID: "12.345.678-5", Representative: "Luis Vega"})

	mustCreate(&models.Worker{Name: "Juan Perez", TaxID: "11.111.111-1", CompanyName: "ACME"})
	mustCreate(&models.Worker{Name: "Pedro Soto", TaxID: "10.000.004-0", CompanyName: "ACME"})
	mustCreate(&models.Worker{Name: "Ana Rojas", TaxID: "1.000.005-K", CompanyName: "OTRA"})

	mustCreate(&models.Activity{
		Code: "T1", Description: "Tendido de cable", Kind: models.ActivityScheduled,
		UnitProductionValue: decimal.NewFromInt(500), UnitSaleValue: decimal.NewFromInt(700),
	})
	mustCreate(&models.Activity{
		Code: "F1", Description: "Fusion de fibra", Kind: models.ActivityUnscheduled,
		UnitProductionValue: decimal.NewFromInt(1000), UnitSaleValue: decimal.NewFromInt(1500),
	})

	entry := func(date, activity, worker string, qty int64) uint {
		t.Helper()
		p := models.ProductionEntry{
			Date: day(date), ActivityName: activity, WorkerName: worker,
			Quantity: decimal.NewFromInt(qty), Triot: "TRIOT-1", Tramo: "T-01",
		}
		mustCreate(&p)
		return p.ID
	}
	f.acmeFusion = entry("2025-06-02", "Fusion de fibra", "Pedro Soto", 4)
	f.acmeTendido = entry("2025-06-01", "Tendido de cable", "Juan Perez", 10)
	f.acmeNoRate = entry("2025-06-03", "Actividad sin tarifa", "Juan Perez", 2)
	f.otraTendido = entry("2025-06-01", "Tendido de cable", "Ana Rojas", 3)

	expense := func(company string, amount int64) uint {
		t.Helper()
		x := models.Expense{
			CompanyName: company, Description: "Arriendo de camioneta",
			Amount: decimal.NewFromInt(amount), Date: day("2025-06-15"),
		}
		mustCreate(&x)
		return x.ID
	}
	f.acmeExpense = expense("ACME", 2000)
	f.otraExpense = expense("OTRA", 500)

	return f
}

func productionIDs(items []ProductionItem) []uint {
	ids := make([]uint, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	return ids
}

func expenseIDs(items []ExpenseItem) []uint {
	ids := make([]uint, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	return ids
}
