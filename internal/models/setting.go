package models

import "time"

// ModerationMode is the global publication policy for newly created content.
type ModerationMode string

const (
	// ModerationAutoApprove publishes new dogs and media immediately.
	ModerationAutoApprove ModerationMode = "auto-approve"
	// ModerationRequireReview holds new dogs and media for administrator review.
	ModerationRequireReview ModerationMode = "require-review"
)

// SiteSettingID is the primary key of the single settings row.
const SiteSettingID uint = 1

// SiteSetting is the global singleton configuration row. Exactly one row
// exists; bootstrap creates it when missing.
type SiteSetting struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	ModerationMode ModerationMode `gorm:"type:varchar(20);not null;default:'auto-approve'" json:"moderation_mode"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (SiteSetting) TableName() string {
	return "site_settings"
}
