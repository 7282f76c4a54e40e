package repository

import (
	"context"
	"errors"

	"chenil/internal/cache"
	"chenil/internal/models"
	"chenil/internal/observability"

	"gorm.io/gorm"
)

// OwnerRepository defines persistence operations for owners.
type OwnerRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Owner, error)
	List(ctx context.Context) ([]models.Owner, error)
	Create(ctx context.Context, owner *models.Owner) error
	Update(ctx context.Context, owner *models.Owner) error
	Delete(ctx context.Context, id uint) error
}

type ownerRepository struct {
	db      *gorm.DB
	metrics *observability.DatabaseMetrics
	log     *observability.RepoLogger
}

// NewOwnerRepository returns a new OwnerRepository implementation.
func NewOwnerRepository(db *gorm.DB) OwnerRepository {
	return &ownerRepository{
		db:      db,
		metrics: observability.NewDatabaseMetrics(db),
		log:     observability.NewRepoLogger("owners"),
	}
}

func (r *ownerRepository) GetByID(ctx context.Context, id uint) (*models.Owner, error) {
	defer r.metrics.TrackQuery("select", "owners")()

	var owner models.Owner
	if err := readDB(r.db).WithContext(ctx).First(&owner, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Owner", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &owner, nil
}

func (r *ownerRepository) List(ctx context.Context) ([]models.Owner, error) {
	var owners []models.Owner

	err := cache.Aside(ctx, cache.OwnerListKey, &owners, cache.ListTTL, func() error {
		defer r.metrics.TrackQuery("select", "owners")()
		return readDB(r.db).WithContext(ctx).Order("name ASC").Find(&owners).Error
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return owners, nil
}

func (r *ownerRepository) Create(ctx context.Context, owner *models.Owner) error {
	defer r.metrics.TrackQuery("insert", "owners")()

	if err := r.db.WithContext(ctx).Create(owner).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]interface{}{"id": owner.ID, "name": owner.Name})
	cache.Invalidate(ctx, cache.OwnerListKey)
	return nil
}

func (r *ownerRepository) Update(ctx context.Context, owner *models.Owner) error {
	defer r.metrics.TrackQuery("update", "owners")()

	if err := r.db.WithContext(ctx).Save(owner).Error; err != nil {
		r.log.LogError(ctx, err, "update")
		return models.NewInternalError(err)
	}
	r.log.LogUpdate(ctx, map[string]interface{}{"id": owner.ID})
	cache.InvalidateOwner(ctx, owner.ID)
	return nil
}

func (r *ownerRepository) Delete(ctx context.Context, id uint) error {
	defer r.metrics.TrackQuery("delete", "owners")()

	result := r.db.WithContext(ctx).Delete(&models.Owner{}, id)
	if result.Error != nil {
		r.log.LogError(ctx, result.Error, "delete")
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Owner", id)
	}
	r.log.LogDelete(ctx, map[string]interface{}{"id": id})
	cache.InvalidateOwner(ctx, id)
	return nil
}
