package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is charged to a company and discounted on its next payment statement.
type Expense struct {
	ID          uint            `gorm:"primaryKey"`
	CompanyName string          `gorm:"size:150;index;not null"`
	Description string          `gorm:"size:255;not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	Note        string          `gorm:"size:500"`
	Date        time.Time       `gorm:"index;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
