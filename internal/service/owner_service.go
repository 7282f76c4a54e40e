package service

import (
	"context"
	"strings"

	"chenil/internal/diff"
	"chenil/internal/models"
	"chenil/internal/repository"
	"chenil/internal/validation"
)

// OwnerService manages owner contact records. Owner data never appears on
// the public site; reads are restricted to administrators at the route
// level, while token holders may update their own family's record.
type OwnerService struct {
	owners repository.OwnerRepository
	dogs   repository.DogRepository
	audit  *AuditService
	events Publisher
}

// NewOwnerService returns a new OwnerService.
func NewOwnerService(owners repository.OwnerRepository, dogs repository.DogRepository, audit *AuditService, events Publisher) *OwnerService {
	return &OwnerService{owners: owners, dogs: dogs, audit: audit, events: events}
}

// GetByID returns one owner record.
func (s *OwnerService) GetByID(ctx context.Context, id uint) (*models.Owner, error) {
	return s.owners.GetByID(ctx, id)
}

// List returns all owner records.
func (s *OwnerService) List(ctx context.Context) ([]models.Owner, error) {
	return s.owners.List(ctx)
}

// OwnerInput carries owner contact fields for creation.
type OwnerInput struct {
	Name  string
	Email string
	Phone string
	City  string
}

// Create adds an owner record.
func (s *OwnerService) Create(ctx context.Context, actor models.Actor, in OwnerInput) (*models.Owner, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, models.NewValidationError("Name is required")
	}
	if len(name) > 120 {
		return nil, models.NewValidationError("Name too long (max 120 characters)")
	}
	email := strings.TrimSpace(in.Email)
	if email != "" {
		if err := validation.ValidateEmail(email); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
	}

	owner := &models.Owner{
		Name:  name,
		Email: email,
		Phone: strings.TrimSpace(in.Phone),
		City:  strings.TrimSpace(in.City),
	}
	if err := s.owners.Create(ctx, owner); err != nil {
		return nil, err
	}

	changes := diff.Diff(diff.OwnerFields, diff.Snapshot{}, diff.Proposal{
		"name":  diff.String(owner.Name),
		"email": diff.String(owner.Email),
		"phone": diff.String(owner.Phone),
		"city":  diff.String(owner.City),
	})
	entry := s.audit.Record(ctx, actor, RecordInput{
		Kind:      models.EntityOwner,
		EntityID:  owner.ID,
		Name:      owner.Name,
		Operation: models.OperationCreate,
		Changes:   changes,
	})
	publishAfterMutation(ctx, s.events, actor, entry)
	return owner, nil
}

// UpdateOwnerInput carries a partial update. Nil fields are left untouched;
// a pointer to the empty string clears the field.
type UpdateOwnerInput struct {
	Name  *string
	Email *string
	Phone *string
	City  *string
}

// Update applies a partial change to an owner record.
func (s *OwnerService) Update(ctx context.Context, actor models.Actor, id uint, in UpdateOwnerInput) (*models.Owner, error) {
	old, err := s.owners.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil && !actor.IsAdmin() {
		return nil, models.NewForbiddenError("Only administrators may rename an owner")
	}

	snapshot := diff.OwnerSnapshot(old)
	proposal := diff.Proposal{}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, models.NewValidationError("Name is required")
		}
		if len(name) > 120 {
			return nil, models.NewValidationError("Name too long (max 120 characters)")
		}
		proposal["name"] = diff.String(name)
		old.Name = name
	}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if email != "" {
			if err := validation.ValidateEmail(email); err != nil {
				return nil, models.NewValidationError(err.Error())
			}
		}
		proposal["email"] = diff.String(email)
		old.Email = email
	}
	if in.Phone != nil {
		phone := strings.TrimSpace(*in.Phone)
		proposal["phone"] = diff.String(phone)
		old.Phone = phone
	}
	if in.City != nil {
		city := strings.TrimSpace(*in.City)
		proposal["city"] = diff.String(city)
		old.City = city
	}

	changes := diff.Diff(diff.OwnerFields, snapshot, proposal)
	if len(changes) == 0 {
		return old, nil
	}

	if err := s.owners.Update(ctx, old); err != nil {
		return nil, err
	}

	entry := s.audit.Record(ctx, actor, RecordInput{
		Kind:      models.EntityOwner,
		EntityID:  old.ID,
		Name:      old.Name,
		Operation: models.OperationUpdate,
		Changes:   changes,
	})
	publishAfterMutation(ctx, s.events, actor, entry)
	return old, nil
}

// Delete removes an owner that has no dogs left. Administrative.
func (s *OwnerService) Delete(ctx context.Context, actor models.Actor, id uint) error {
	owner, err := s.owners.GetByID(ctx, id)
	if err != nil {
		return err
	}

	count, err := s.dogs.CountByOwner(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return models.NewValidationError("Owner still has dogs; reassign them first")
	}

	if err := s.owners.Delete(ctx, id); err != nil {
		return err
	}

	entry := s.audit.Record(ctx, actor, RecordInput{
		Kind:      models.EntityOwner,
		EntityID:  owner.ID,
		Name:      owner.Name,
		Operation: models.OperationDelete,
	})
	publishAfterMutation(ctx, s.events, actor, entry)
	return nil
}
