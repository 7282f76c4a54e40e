package models

import "time"

// EditToken is a shareable anonymous-edit capability. Administrators hand the
// opaque value to a family; whoever presents it may edit directory entries
// without an account. Tokens are retired by deactivation, never deleted, so
// audit attribution stays resolvable.
type EditToken struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Token      string     `gorm:"size:64;not null;uniqueIndex" json:"token"`
	Label      string     `gorm:"size:120;not null" json:"label"`
	Active     bool       `gorm:"not null;default:true" json:"active"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	UsageCount int64      `gorm:"not null;default:0" json:"usage_count"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Usable reports whether the token admits a bearer at the given instant.
func (t *EditToken) Usable(now time.Time) bool {
	if !t.Active {
		return false
	}
	if t.ExpiresAt != nil && t.ExpiresAt.Before(now) {
		return false
	}
	return true
}
