package models

import "time"

type AuditAction string

const (
	AuditActionCreate AuditAction = "create"
	AuditActionUpdate AuditAction = "update"
	AuditActionDelete AuditAction = "delete"
)

type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	UserID   uint   `gorm:"index" json:"user_id"`
	UserName string `gorm:"size:100" json:"user_name"`

	// "company", "worker", "activity", "segment", "production", "expense", "statement", "user"
	EntityType string `gorm:"size:50;index" json:"entity_type"`
	EntityID   string `gorm:"size:50;index" json:"entity_id"`

	Action      AuditAction `gorm:"size:20" json:"action"`
	Description string      `gorm:"size:255" json:"description"`

	// JSON snapshots; "null" when absent.
	BeforeData string `gorm:"type:text" json:"before_data"`
	AfterData  string `gorm:"type:text" json:"after_data"`
}
