package models

import "time"

type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleEditor UserRole = "editor"
	RoleViewer UserRole = "viewer"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleViewer:
		return true
	}
	return false
}

type User struct {
	ID           uint     `gorm:"primaryKey"`
	Name         string   `gorm:"size:100;not null"`
	Username     string   `gorm:"size:100;uniqueIndex;not null"`
	PasswordHash string   `gorm:"size:255;not null"`
	Role         UserRole `gorm:"size:20;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
