// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Sex is the recorded sex of a dog.
type Sex string

const (
	// SexMale renders as "Mâle" on the public site.
	SexMale Sex = "m"
	// SexFemale renders as "Femelle" on the public site.
	SexFemale Sex = "f"
)

// DogStatus defines the moderation state of a directory entry.
type DogStatus string

const (
	// DogStatusPending indicates an entry is awaiting review.
	DogStatusPending DogStatus = "pending"
	// DogStatusApproved indicates an entry is published.
	DogStatusApproved DogStatus = "approved"
)

// Dog represents one directory entry.
type Dog struct {
	ID       uint       `gorm:"primaryKey" json:"id"`
	Name     string     `gorm:"size:120;not null" json:"name"`
	Sex      Sex        `gorm:"type:varchar(1)" json:"sex"`
	Birthday *time.Time `json:"birthday,omitempty"`
	Breed    string     `gorm:"size:120" json:"breed"`
	Coat     string     `gorm:"type:text" json:"coat"`
	OwnerID  uint       `gorm:"not null;index" json:"owner_id"`
	Owner    Owner      `gorm:"foreignKey:OwnerID" json:"owner"`
	Status   DogStatus  `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Medias   []Media    `gorm:"foreignKey:DogID" json:"medias,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
