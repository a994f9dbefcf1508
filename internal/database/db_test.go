package database_test

import (
	"strings"
	"testing"

	"fibra-backend/internal/database"
	"fibra-backend/internal/database/dbtest"
	"fibra-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := database.Open("oracle", "")
	require.Error(t, err)
}

func TestLinkUniquenessIsTranslated(t *testing.T) {
	db := dbtest.New(t)

	st := models.PaymentStatement{Correlative: "EGTD-01", CompanyName: "ACME"}
	require.NoError(t, db.Omit("ProductionLinks", "ExpenseLinks").Create(&st).Error)

	link := models.StatementExpenseLink{Correlative: "EGTD-01", ExpenseID: 7, Amount: decimal.NewFromInt(10)}
	require.NoError(t, db.Create(&link).Error)

	dup := models.StatementExpenseLink{Correlative: "EGTD-01", ExpenseID: 7, Amount: decimal.NewFromInt(10)}
	err := db.Create(&dup).Error
	require.Error(t, err)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestDecimalRoundTrip(t *testing.T) {
	db := dbtest.New(t)

	act := models.Activity{
		Code:                "A1",
		Description:         "Tendido de cable",
		Kind:                models.ActivityScheduled,
		UnitProductionValue: decimal.RequireFromString("512.25"),
		UnitSaleValue:       decimal.NewFromInt(900),
	}
	require.NoError(t, db.Create(&act).Error)

	var got models.Activity
	require.NoError(t, db.First(&got, act.ID).Error)
	assert.True(t, got.UnitProductionValue.Equal(decimal.RequireFromString("512.25")))
	assert.True(t, got.UnitSaleValue.Equal(decimal.NewFromInt(900)))
}

// capture opens a postgres dialect that never connects and records every
// SELECT it would have sent.
func capture(t *testing.T) (*gorm.DB, *[]string) {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=127.0.0.1 user=fibra dbname=fibra sslmode=disable",
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)

	var sqls []string
	require.NoError(t, db.Callback().Query().After("gorm:query").Register("test:capture", func(tx *gorm.DB) {
		sqls = append(sqls, tx.Statement.SQL.String())
	}))
	return db, &sqls
}

func TestForUpdateLocksSelectedRow(t *testing.T) {
	db, sqls := capture(t)

	var p models.ProductionEntry
	require.NoError(t, database.ForUpdate(db).First(&p, "id = ?", 7).Error)

	require.Len(t, *sqls, 1)
	assert.Contains(t, (*sqls)[0], "FROM \"production_entries\"")
	assert.True(t, strings.HasSuffix((*sqls)[0], "FOR UPDATE"), (*sqls)[0])
}

func TestLockIDsOrdersByID(t *testing.T) {
	db, sqls := capture(t)

	require.NoError(t, database.LockIDs(db, &models.Expense{}, []uint{9, 2}))
	require.NoError(t, database.LockIDs(db, &models.Expense{}, nil))

	require.Len(t, *sqls, 1)
	assert.Contains(t, (*sqls)[0], "ORDER BY id")
	assert.True(t, strings.HasSuffix((*sqls)[0], "FOR UPDATE"), (*sqls)[0])
}

func TestLockIDsRunsOnSQLite(t *testing.T) {
	db := dbtest.New(t)
	exp := models.Expense{CompanyName: "ACME", Description: "Peaje", Amount: decimal.NewFromInt(10)}
	require.NoError(t, db.Create(&exp).Error)

	err := db.Transaction(func(tx *gorm.DB) error {
		return database.LockIDs(tx, &models.Expense{}, []uint{exp.ID})
	})
	assert.NoError(t, err)
}
