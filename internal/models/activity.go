package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ActivityKind string

const (
	ActivityScheduled   ActivityKind = "Programada"
	ActivityUnscheduled ActivityKind = "Extra Programática"
)

// Activity is the rate table entry for a unit of work. Production rows match it
// by Description.
type Activity struct {
	ID                  uint            `gorm:"primaryKey" json:"id"`
	Code                string          `gorm:"size:50;not null" json:"code"`
	Description         string          `gorm:"size:255;uniqueIndex;not null" json:"description"`
	Unit                string          `gorm:"size:30" json:"unit"`
	Group               string          `gorm:"column:activity_group;size:100" json:"group"`
	Kind                ActivityKind    `gorm:"size:30;not null" json:"kind"`
	UnitProductionValue decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_production_value"`
	UnitSaleValue       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_sale_value"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

func (k ActivityKind) Valid() bool {
	return k == ActivityScheduled || k == ActivityUnscheduled
}
