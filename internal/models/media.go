package models

import (
	"time"

	"gorm.io/gorm"
)

// MediaKind distinguishes photos from videos.
type MediaKind string

const (
	MediaKindPhoto MediaKind = "photo"
	MediaKindVideo MediaKind = "video"
)

// MediaStatus defines the moderation state of an uploaded file.
type MediaStatus string

const (
	// MediaStatusPending indicates an upload is awaiting review.
	MediaStatusPending MediaStatus = "pending"
	// MediaStatusApproved indicates an upload is published.
	MediaStatusApproved MediaStatus = "approved"
	// MediaStatusRejected indicates an upload was declined by an administrator.
	MediaStatusRejected MediaStatus = "rejected"
)

// Media is a photo or video bound to a dog. At most one media per dog
// carries Featured=true; the selection logic enforces this on update.
type Media struct {
	ID       uint        `gorm:"primaryKey" json:"id"`
	DogID    uint        `gorm:"not null;index" json:"dog_id"`
	Dog      *Dog        `gorm:"foreignKey:DogID" json:"dog,omitempty"`
	Kind     MediaKind   `gorm:"type:varchar(10);not null;default:'photo'" json:"kind"`
	Path     string      `gorm:"size:500;not null" json:"path"`
	Caption  string      `gorm:"size:255" json:"caption"`
	Featured bool        `gorm:"not null;default:false;index" json:"featured"`
	Status   MediaStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
