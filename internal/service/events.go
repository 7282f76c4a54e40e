package service

import (
	"context"

	"chenil/internal/models"
)

// Publisher hands a mutation event to the asynchronous fan-out: push
// notifications and the static site rebuild.
type Publisher interface {
	PublishMutation(ctx context.Context, event models.MutationEvent)
}

// publishAfterMutation fires the fan-out for non-administrator mutations.
// Administrator changes are deliberate and reviewed; only outside edits
// notify the admins.
func publishAfterMutation(ctx context.Context, events Publisher, actor models.Actor, entry *models.AuditEntry) {
	if events == nil || actor.IsAdmin() {
		return
	}
	events.PublishMutation(ctx, models.MutationEvent{
		EntityKind: entry.EntityKind,
		EntityID:   entry.EntityID,
		EntityName: entry.EntityName,
		Operation:  entry.Operation,
		Summary:    entry.Summary,
		Status:     entry.Status,
		ActorKind:  entry.ActorKind,
		AdminURL:   entry.AdminURL,
	})
}
