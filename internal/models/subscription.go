package models

import "time"

// PushSubscription stores one administrator browser's web-push endpoint and
// its encryption keys. A subscription whose endpoint reports a permanent
// failure is removed by the dispatcher.
type PushSubscription struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Endpoint    string    `gorm:"size:500;not null;uniqueIndex" json:"endpoint"`
	P256DH      string    `gorm:"column:p256dh;size:255;not null" json:"p256dh"`
	Auth        string    `gorm:"size:255;not null" json:"auth"`
	// No default tag: GORM would omit admin_notify from INSERT when false.
	AdminNotify bool      `gorm:"not null" json:"admin_notify"`
	CreatedAt   time.Time `json:"created_at"`
}
