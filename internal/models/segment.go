package models

import "time"

// Segment ("tramo") is a stretch of cable route inside a TRIOT.
type Segment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Triot       string    `gorm:"size:100;not null;uniqueIndex:idx_segment_triot_tramo" json:"triot"`
	Tramo       string    `gorm:"size:100;not null;uniqueIndex:idx_segment_triot_tramo" json:"tramo"`
	Start       string    `gorm:"size:50" json:"start"`
	End         string    `gorm:"column:segment_end;size:50" json:"end"`
	SpliceStart string    `gorm:"size:50" json:"splice_start"`
	SpliceEnd   string    `gorm:"size:50" json:"splice_end"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
