package models

import (
	"encoding/json"
	"time"
)

// EntityKind names the record kinds covered by the audit trail.
type EntityKind string

const (
	EntityDog   EntityKind = "dog"
	EntityOwner EntityKind = "owner"
	EntityMedia EntityKind = "media"
)

// Operation is the kind of mutation an audit entry records.
type Operation string

const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// AuditStatus defines the review state of an audit entry.
type AuditStatus string

const (
	// AuditStatusPending indicates an entry awaits administrator review.
	AuditStatusPending AuditStatus = "pending"
	// AuditStatusAccepted indicates an entry was accepted (or auto-accepted).
	AuditStatusAccepted AuditStatus = "accepted"
	// AuditStatusReverted indicates an administrator rolled the change back.
	AuditStatusReverted AuditStatus = "reverted"
)

// FieldKind tags a change record with the tracked field's type so display
// formatting stays exhaustive.
type FieldKind string

const (
	FieldText     FieldKind = "text"
	FieldBoolean  FieldKind = "boolean"
	FieldDate     FieldKind = "date"
	FieldEnum     FieldKind = "enum"
	FieldRelation FieldKind = "relation"
)

// FieldChange is one tracked field's before/after within a mutation. Old and
// New hold canonical raw values; OldDisplay and NewDisplay hold the
// human-readable strings shown in summaries and notifications.
type FieldChange struct {
	Field      string    `json:"field"`
	Label      string    `json:"label"`
	Kind       FieldKind `json:"kind"`
	Old        string    `json:"old"`
	New        string    `json:"new"`
	OldDisplay string    `json:"old_display"`
	NewDisplay string    `json:"new_display"`
	Removed    bool      `json:"removed,omitempty"`
}

// AuditEntry is the immutable record of one mutation. Rows accumulate
// forever; only Status may change afterwards, and only by an administrator.
type AuditEntry struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	EntityKind EntityKind  `gorm:"type:varchar(20);not null;index" json:"entity_kind"`
	EntityID   uint        `gorm:"not null;index" json:"entity_id"`
	EntityName string      `gorm:"size:255" json:"entity_name"`
	Operation  Operation   `gorm:"type:varchar(10);not null" json:"operation"`
	Diff       string      `gorm:"type:json" json:"diff"`
	Summary    string      `gorm:"type:text;not null" json:"summary"`
	ActorKind  ActorKind   `gorm:"type:varchar(10);not null" json:"actor_kind"`
	ActorLabel string      `gorm:"size:120" json:"actor_label"`
	Status     AuditStatus `gorm:"type:varchar(10);not null;default:'pending';index" json:"status"`
	PublicURL  string      `gorm:"size:500" json:"public_url"`
	AdminURL   string      `gorm:"size:500" json:"admin_url"`
	DogID      *uint       `gorm:"index" json:"dog_id,omitempty"`
	CreatedAt  time.Time   `gorm:"index" json:"created_at"`
}

// MutationEvent is the message fanned out after a non-administrator
// mutation: push notifications and the site rebuild both consume it.
type MutationEvent struct {
	EntityKind EntityKind  `json:"entity_kind"`
	EntityID   uint        `json:"entity_id"`
	EntityName string      `json:"entity_name"`
	Operation  Operation   `json:"operation"`
	Summary    string      `json:"summary"`
	Status     AuditStatus `json:"status"`
	ActorKind  ActorKind   `json:"actor_kind"`
	AdminURL   string      `json:"admin_url"`
}

// SetChanges stores the change records as JSON.
func (e *AuditEntry) SetChanges(changes []FieldChange) {
	bytes, _ := json.Marshal(changes)
	e.Diff = string(bytes)
}

// Changes decodes the stored change records.
func (e *AuditEntry) Changes() []FieldChange {
	if e.Diff == "" {
		return nil
	}
	var changes []FieldChange
	_ = json.Unmarshal([]byte(e.Diff), &changes)
	return changes
}
