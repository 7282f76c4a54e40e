package models

import (
	"time"

	"gorm.io/gorm"
)

// User is an administrator account. Visitors never have accounts; they are
// admitted through edit tokens instead.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Email     string         `gorm:"unique;not null" json:"email"`
	Name      string         `gorm:"size:120" json:"name"`
	Password  string         `gorm:"not null" json:"-"`
	IsAdmin   bool           `gorm:"not null;default:true" json:"is_admin"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
