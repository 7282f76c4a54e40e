package service

import (
	"context"
	"strings"
	"time"

	"chenil/internal/diff"
	"chenil/internal/models"
	"chenil/internal/repository"
)

// DogService owns the lifecycle of directory entries. Every mutation runs
// the full pipeline: validate, write, diff, audit, publish.
type DogService struct {
	dogs   repository.DogRepository
	owners repository.OwnerRepository
	gate   *ModerationService
	audit  *AuditService
	events Publisher
}

// NewDogService returns a new DogService.
func NewDogService(dogs repository.DogRepository, owners repository.OwnerRepository, gate *ModerationService, audit *AuditService, events Publisher) *DogService {
	return &DogService{dogs: dogs, owners: owners, gate: gate, audit: audit, events: events}
}

// GetByID returns one entry with its owner and media.
func (s *DogService) GetByID(ctx context.Context, id uint) (*models.Dog, error) {
	return s.dogs.GetByID(ctx, id)
}

// GetPublic returns one approved entry; pending entries are invisible to
// visitors.
func (s *DogService) GetPublic(ctx context.Context, id uint) (*models.Dog, error) {
	dog, err := s.dogs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if dog.Status != models.DogStatusApproved {
		return nil, models.NewNotFoundError("Dog", id)
	}
	approved := dog.Medias[:0]
	for _, m := range dog.Medias {
		if m.Status == models.MediaStatusApproved {
			approved = append(approved, m)
		}
	}
	dog.Medias = approved
	return dog, nil
}

// ListPublic returns the approved entries shown on the public site.
func (s *DogService) ListPublic(ctx context.Context) ([]models.Dog, error) {
	return s.dogs.ListPublic(ctx)
}

// List returns entries for the administration view, optionally filtered by
// status.
func (s *DogService) List(ctx context.Context, status *models.DogStatus, limit, offset int) ([]models.Dog, int64, error) {
	return s.dogs.List(ctx, status, limit, offset)
}

// CreateDogInput carries the fields of a new directory entry.
type CreateDogInput struct {
	Name     string
	Sex      string
	Birthday *time.Time
	Breed    string
	Coat     string
	OwnerID  uint
}

// Create adds a directory entry. Its visibility comes from the moderation
// mode in force at this instant; later mode changes never touch it.
func (s *DogService) Create(ctx context.Context, actor models.Actor, in CreateDogInput) (*models.Dog, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, models.NewValidationError("Name is required")
	}
	if len(name) > 120 {
		return nil, models.NewValidationError("Name too long (max 120 characters)")
	}
	if in.Sex != "" && in.Sex != string(models.SexMale) && in.Sex != string(models.SexFemale) {
		return nil, models.NewValidationError("Invalid sex")
	}
	if in.OwnerID == 0 {
		return nil, models.NewValidationError("Owner is required")
	}
	owner, err := s.owners.GetByID(ctx, in.OwnerID)
	if err != nil {
		return nil, err
	}

	status, _, err := s.gate.DecideVisibility(ctx)
	if err != nil {
		return nil, err
	}

	dog := &models.Dog{
		Name:     name,
		Sex:      models.Sex(in.Sex),
		Birthday: in.Birthday,
		Breed:    strings.TrimSpace(in.Breed),
		Coat:     strings.TrimSpace(in.Coat),
		OwnerID:  owner.ID,
		Status:   status,
	}
	if err := s.dogs.Create(ctx, dog); err != nil {
		return nil, err
	}
	dog.Owner = *owner

	changes := diff.Diff(diff.DogFields, diff.Snapshot{}, s.proposalFromDog(dog))
	entry := s.audit.Record(ctx, actor, RecordInput{
		Kind:      models.EntityDog,
		EntityID:  dog.ID,
		Name:      dog.Name,
		Operation: models.OperationCreate,
		Changes:   changes,
	})
	publishAfterMutation(ctx, s.events, actor, entry)
	return dog, nil
}

// UpdateDogInput carries a partial update. Nil fields are left untouched; a
// non-nil pointer to the zero value clears the field where clearing makes
// sense (birthday, breed, coat).
type UpdateDogInput struct {
	Name     *string
	Sex      *string
	Birthday *time.Time
	Breed    *string
	Coat     *string
	OwnerID  *uint
}

// Update applies a partial change to an entry. Renaming a dog or moving it
// to another owner rewrites the directory's identity links, so those two
// fields are reserved to administrators.
func (s *DogService) Update(ctx context.Context, actor models.Actor, id uint, in UpdateDogInput) (*models.Dog, error) {
	old, err := s.dogs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if (in.Name != nil || in.OwnerID != nil) && !actor.IsAdmin() {
		return nil, models.NewForbiddenError("Only administrators may change a dog's name or owner")
	}

	proposal := diff.Proposal{}
	fields := map[string]interface{}{}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, models.NewValidationError("Name is required")
		}
		if len(name) > 120 {
			return nil, models.NewValidationError("Name too long (max 120 characters)")
		}
		proposal["name"] = diff.String(name)
		fields["name"] = name
	}
	if in.Sex != nil {
		if *in.Sex != "" && *in.Sex != string(models.SexMale) && *in.Sex != string(models.SexFemale) {
			return nil, models.NewValidationError("Invalid sex")
		}
		proposal["sex"] = diff.String(*in.Sex)
		fields["sex"] = *in.Sex
	}
	if in.Birthday != nil {
		if in.Birthday.IsZero() {
			proposal["birthday"] = diff.Empty()
			fields["birthday"] = nil
		} else {
			proposal["birthday"] = diff.Date(*in.Birthday)
			fields["birthday"] = *in.Birthday
		}
	}
	if in.Breed != nil {
		breed := strings.TrimSpace(*in.Breed)
		proposal["breed"] = diff.String(breed)
		fields["breed"] = breed
	}
	if in.Coat != nil {
		coat := strings.TrimSpace(*in.Coat)
		proposal["coat"] = diff.String(coat)
		fields["coat"] = coat
	}
	if in.OwnerID != nil {
		owner, err := s.owners.GetByID(ctx, *in.OwnerID)
		if err != nil {
			return nil, err
		}
		proposal["owner"] = diff.Relation(owner.ID, owner.Name)
		fields["owner_id"] = owner.ID
	}

	changes := diff.Diff(diff.DogFields, diff.DogSnapshot(old), proposal)
	if len(changes) == 0 {
		return old, nil
	}

	if err := s.dogs.UpdateFields(ctx, id, fields); err != nil {
		return nil, err
	}
	updated, err := s.dogs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	entry := s.audit.Record(ctx, actor, RecordInput{
		Kind:      models.EntityDog,
		EntityID:  updated.ID,
		Name:      updated.Name,
		Operation: models.OperationUpdate,
		Changes:   changes,
	})
	publishAfterMutation(ctx, s.events, actor, entry)
	return updated, nil
}

// SetStatus publishes or hides an entry. Administrative.
func (s *DogService) SetStatus(ctx context.Context, actor models.Actor, id uint, status models.DogStatus) (*models.Dog, error) {
	switch status {
	case models.DogStatusPending, models.DogStatusApproved:
	default:
		return nil, models.NewValidationError("Invalid status")
	}

	old, err := s.dogs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if old.Status == status {
		return old, nil
	}
	if err := s.dogs.SetStatus(ctx, id, status); err != nil {
		return nil, err
	}
	old.Status = status

	// Status is not a tracked field on dogs, so the entry carries no change
	// records; the trail still shows who flipped the visibility and when.
	s.audit.Record(ctx, actor, RecordInput{
		Kind:      models.EntityDog,
		EntityID:  old.ID,
		Name:      old.Name,
		Operation: models.OperationUpdate,
	})
	return old, nil
}

// Delete removes an entry and records the removal. Administrative.
func (s *DogService) Delete(ctx context.Context, actor models.Actor, id uint) error {
	dog, err := s.dogs.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.dogs.Delete(ctx, id); err != nil {
		return err
	}

	entry := s.audit.Record(ctx, actor, RecordInput{
		Kind:      models.EntityDog,
		EntityID:  dog.ID,
		Name:      dog.Name,
		Operation: models.OperationDelete,
	})
	publishAfterMutation(ctx, s.events, actor, entry)
	return nil
}

// proposalFromDog rebuilds a full proposal from a stored row, used to record
// a creation as a diff against the empty snapshot.
func (s *DogService) proposalFromDog(d *models.Dog) diff.Proposal {
	p := diff.Proposal{
		"name":  diff.String(d.Name),
		"owner": diff.Relation(d.OwnerID, d.Owner.Name),
	}
	if d.Sex != "" {
		p["sex"] = diff.String(string(d.Sex))
	}
	if d.Birthday != nil {
		p["birthday"] = diff.Date(*d.Birthday)
	}
	if d.Breed != "" {
		p["breed"] = diff.String(d.Breed)
	}
	if d.Coat != "" {
		p["coat"] = diff.String(d.Coat)
	}
	return p
}
