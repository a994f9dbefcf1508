package models

import (
	"strings"
	"time"
)

// Company is a subcontractor whose workers produce and who receives payment statements.
type Company struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"size:150;uniqueIndex;not null" json:"name"`
	TaxID          string    `gorm:"size:20;not null" json:"tax_id"`
	Representative string    `gorm:"size:150;not null" json:"representative"`
	Address        string    `gorm:"size:255" json:"address"`
	Email          string    `gorm:"size:150" json:"email"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CompanyKey is the stored form of a company name: upper case with runs of
// whitespace collapsed. Names are join keys, so every lookup goes through it.
func CompanyKey(name string) string {
	return strings.ToUpper(strings.Join(strings.Fields(name), " "))
}
