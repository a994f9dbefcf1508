package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatement ("estado de pago") is written once and never updated.
type PaymentStatement struct {
	Correlative     string          `gorm:"primaryKey;size:32"`
	Date            time.Time       `gorm:"index;not null"`
	CompanyName     string          `gorm:"size:150;index;not null"`
	TotalProduction decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	TotalSale       decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	TotalExpenses   decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	Net             decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	CreatedBy       string          `gorm:"size:100"`
	CreatedAt       time.Time

	ProductionLinks []StatementProductionLink `gorm:"foreignKey:Correlative;references:Correlative"`
	ExpenseLinks    []StatementExpenseLink    `gorm:"foreignKey:Correlative;references:Correlative"`
}

// StatementProductionLink marks a production entry as billed. The unique index
// on ProductionEntryID is what keeps a row from landing on two statements.
type StatementProductionLink struct {
	ID                uint   `gorm:"primaryKey"`
	Correlative       string `gorm:"size:32;index;not null"`
	ProductionEntryID uint   `gorm:"uniqueIndex;not null"`

	Date                time.Time       `gorm:"not null"`
	ActivityName        string          `gorm:"size:255"`
	WorkerName          string          `gorm:"size:150"`
	Quantity            decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	UnitProductionValue decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	UnitSaleValue       decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	ProductionAmount    decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	SaleAmount          decimal.Decimal `gorm:"type:decimal(20,4);not null"`
}

type StatementExpenseLink struct {
	ID          uint   `gorm:"primaryKey"`
	Correlative string `gorm:"size:32;index;not null"`
	ExpenseID   uint   `gorm:"uniqueIndex;not null"`

	Date        time.Time       `gorm:"not null"`
	Description string          `gorm:"size:255"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,4);not null"`
}

// StatementSequence holds the last allocated correlative number per prefix.
type StatementSequence struct {
	Prefix    string `gorm:"primaryKey;size:16"`
	LastValue int    `gorm:"not null"`
	UpdatedAt time.Time
}
