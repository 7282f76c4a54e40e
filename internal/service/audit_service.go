package service

import (
	"context"
	"fmt"
	"strings"

	"chenil/internal/config"
	"chenil/internal/diff"
	"chenil/internal/models"
	"chenil/internal/observability"
	"chenil/internal/repository"
)

// AuditService writes the append-only mutation trail and serves the
// administrator's audit views.
type AuditService struct {
	audits    repository.AuditRepository
	gate      *ModerationService
	publicURL string
	adminURL  string
}

// NewAuditService returns a new AuditService.
func NewAuditService(audits repository.AuditRepository, gate *ModerationService, cfg *config.Config) *AuditService {
	return &AuditService{
		audits:    audits,
		gate:      gate,
		publicURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		adminURL:  strings.TrimRight(cfg.AdminBaseURL, "/"),
	}
}

// RecordInput describes one committed mutation.
type RecordInput struct {
	Kind      models.EntityKind
	EntityID  uint
	Name      string
	Operation models.Operation
	Changes   []models.FieldChange
	// DogID links media entries to their dog; media has no page of its own.
	DogID *uint
}

// Record persists one audit entry for a committed mutation and returns it.
// Persistence failures are logged and counted but never returned: the
// mutation already happened, and a broken audit store must not undo it from
// the caller's point of view. The entry is written even when the request
// context has been cancelled.
func (s *AuditService) Record(ctx context.Context, actor models.Actor, in RecordInput) *models.AuditEntry {
	ctx = context.WithoutCancel(ctx)

	status, err := s.gate.DecideAuditStatus(ctx)
	if err != nil {
		observability.GlobalLogger.ErrorContext(ctx, "Audit status decision failed, defaulting to pending", "error", err)
		status = models.AuditStatusPending
	}

	summary := diff.Summarize(in.Name, in.Changes)
	if actor.Kind == models.ActorToken {
		summary = fmt.Sprintf("[%s] %s", actor.Label, summary)
	}

	publicURL, adminURL := s.links(in.Kind, in.EntityID, in.DogID)

	entry := &models.AuditEntry{
		EntityKind: in.Kind,
		EntityID:   in.EntityID,
		EntityName: in.Name,
		Operation:  in.Operation,
		Summary:    summary,
		ActorKind:  actor.Kind,
		ActorLabel: actor.Label,
		Status:     status,
		PublicURL:  publicURL,
		AdminURL:   adminURL,
		DogID:      in.DogID,
	}
	entry.SetChanges(in.Changes)

	if err := s.audits.Create(ctx, entry); err != nil {
		observability.AuditWriteFailures.Inc()
		observability.GlobalLogger.ErrorContext(ctx, "Audit write failed",
			"entity_kind", in.Kind, "entity_id", in.EntityID, "operation", in.Operation, "error", err)
	}

	observability.MutationsTotal.WithLabelValues(string(in.Kind), string(in.Operation), string(actor.Kind)).Inc()
	return entry
}

// links derives the public and administration URLs for an entity. Media
// links point at the owning dog's pages.
func (s *AuditService) links(kind models.EntityKind, id uint, dogID *uint) (string, string) {
	switch kind {
	case models.EntityDog:
		return fmt.Sprintf("%s/chiens/%d", s.publicURL, id), fmt.Sprintf("%s/chiens/%d", s.adminURL, id)
	case models.EntityOwner:
		return fmt.Sprintf("%s/maitres/%d", s.publicURL, id), fmt.Sprintf("%s/maitres/%d", s.adminURL, id)
	case models.EntityMedia:
		if dogID == nil {
			return "", ""
		}
		return fmt.Sprintf("%s/chiens/%d", s.publicURL, *dogID), fmt.Sprintf("%s/chiens/%d", s.adminURL, *dogID)
	default:
		return "", ""
	}
}

// List returns audit entries for the administration view, newest first.
func (s *AuditService) List(ctx context.Context, filter repository.AuditFilter) ([]models.AuditEntry, int64, error) {
	return s.audits.List(ctx, filter)
}

// SetStatus transitions an entry's review status. Nothing else about an
// entry can ever be changed.
func (s *AuditService) SetStatus(ctx context.Context, id uint, status models.AuditStatus) (*models.AuditEntry, error) {
	switch status {
	case models.AuditStatusPending, models.AuditStatusAccepted, models.AuditStatusReverted:
	default:
		return nil, models.NewValidationError("Invalid audit status")
	}
	if err := s.audits.SetStatus(ctx, id, status); err != nil {
		return nil, err
	}
	return s.audits.GetByID(ctx, id)
}

// CountPending returns the number of entries awaiting review.
func (s *AuditService) CountPending(ctx context.Context) (int64, error) {
	return s.audits.CountPending(ctx)
}
