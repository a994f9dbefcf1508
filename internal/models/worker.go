package models

import "time"

// Worker belongs to one company through CompanyName. Production rows reference
// workers by name, so Name is unique.
type Worker struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:150;uniqueIndex;not null" json:"name"`
	TaxID       string    `gorm:"size:20;not null" json:"tax_id"`
	Position    string    `gorm:"size:100" json:"position"`
	CompanyName string    `gorm:"size:150;index;not null" json:"company_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
