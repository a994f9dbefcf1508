package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductionEntry records work done by a worker on an activity. Activity and
// worker are stored by name, the segment columns are a copy of the segment at
// entry time.
type ProductionEntry struct {
	ID           uint            `gorm:"primaryKey"`
	Date         time.Time       `gorm:"index;not null"`
	ActivityName string          `gorm:"size:255;index;not null"`
	WorkerName   string          `gorm:"size:150;index;not null"`
	Quantity     decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	Triot        string          `gorm:"size:100"`
	Tramo        string          `gorm:"size:100"`
	Start        string          `gorm:"size:50"`
	End          string          `gorm:"column:segment_end;size:50"`
	SpliceStart  string          `gorm:"size:50"`
	SpliceEnd    string          `gorm:"size:50"`
	FinishedPct  int             `gorm:"not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
