package models

import (
	"time"

	"gorm.io/gorm"
)

// Owner is the contact record a dog belongs to. Contact fields are optional
// and only ever exposed on the administration surface.
type Owner struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"size:120;not null" json:"name"`
	Email string `gorm:"size:255" json:"email"`
	Phone string `gorm:"size:40" json:"phone"`
	City  string `gorm:"size:120" json:"city"`
	Dogs  []Dog  `gorm:"foreignKey:OwnerID" json:"dogs,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
