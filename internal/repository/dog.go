package repository

import (
	"context"
	"errors"

	"chenil/internal/cache"
	"chenil/internal/models"
	"chenil/internal/observability"

	"gorm.io/gorm"
)

// DogRepository defines persistence operations for directory entries.
type DogRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Dog, error)
	ListPublic(ctx context.Context) ([]models.Dog, error)
	List(ctx context.Context, status *models.DogStatus, limit, offset int) ([]models.Dog, int64, error)
	Create(ctx context.Context, dog *models.Dog) error
	Update(ctx context.Context, dog *models.Dog) error
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	SetStatus(ctx context.Context, id uint, status models.DogStatus) error
	Delete(ctx context.Context, id uint) error
	CountByOwner(ctx context.Context, ownerID uint) (int64, error)
}

type dogRepository struct {
	db      *gorm.DB
	metrics *observability.DatabaseMetrics
	log     *observability.RepoLogger
}

// NewDogRepository returns a new DogRepository implementation.
func NewDogRepository(db *gorm.DB) DogRepository {
	return &dogRepository{
		db:      db,
		metrics: observability.NewDatabaseMetrics(db),
		log:     observability.NewRepoLogger("dogs"),
	}
}

func (r *dogRepository) GetByID(ctx context.Context, id uint) (*models.Dog, error) {
	defer r.metrics.TrackQuery("select", "dogs")()

	var dog models.Dog
	err := readDB(r.db).WithContext(ctx).
		Preload("Owner").
		Preload("Medias", func(db *gorm.DB) *gorm.DB {
			return db.Order("featured DESC, created_at ASC")
		}).
		First(&dog, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Dog", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &dog, nil
}

// ListPublic returns approved entries with their approved media, cached
// under the public listing key.
func (r *dogRepository) ListPublic(ctx context.Context) ([]models.Dog, error) {
	var dogs []models.Dog

	err := cache.Aside(ctx, cache.DogListKey, &dogs, cache.ListTTL, func() error {
		defer r.metrics.TrackQuery("select", "dogs")()
		return readDB(r.db).WithContext(ctx).
			Where("status = ?", models.DogStatusApproved).
			Preload("Owner").
			Preload("Medias", func(db *gorm.DB) *gorm.DB {
				return db.Where("status = ?", models.MediaStatusApproved).
					Order("featured DESC, created_at ASC")
			}).
			Order("name ASC").
			Find(&dogs).Error
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return dogs, nil
}

func (r *dogRepository) List(ctx context.Context, status *models.DogStatus, limit, offset int) ([]models.Dog, int64, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	query := readDB(r.db).WithContext(ctx).Model(&models.Dog{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var dogs []models.Dog
	err := query.
		Preload("Owner").
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&dogs).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return dogs, total, nil
}

func (r *dogRepository) Create(ctx context.Context, dog *models.Dog) error {
	defer r.metrics.TrackQuery("insert", "dogs")()

	if err := r.db.WithContext(ctx).Create(dog).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]interface{}{"id": dog.ID, "name": dog.Name})
	cache.Invalidate(ctx, cache.DogListKey)
	return nil
}

func (r *dogRepository) Update(ctx context.Context, dog *models.Dog) error {
	defer r.metrics.TrackQuery("update", "dogs")()

	if err := r.db.WithContext(ctx).Save(dog).Error; err != nil {
		r.log.LogError(ctx, err, "update")
		return models.NewInternalError(err)
	}
	r.log.LogUpdate(ctx, map[string]interface{}{"id": dog.ID})
	cache.InvalidateDog(ctx, dog.ID)
	return nil
}

// UpdateFields applies a partial column update so untouched fields keep
// their stored values.
func (r *dogRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	defer r.metrics.TrackQuery("update", "dogs")()

	result := r.db.WithContext(ctx).Model(&models.Dog{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		r.log.LogError(ctx, result.Error, "update")
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Dog", id)
	}
	r.log.LogUpdate(ctx, map[string]interface{}{"id": id})
	cache.InvalidateDog(ctx, id)
	return nil
}

func (r *dogRepository) SetStatus(ctx context.Context, id uint, status models.DogStatus) error {
	result := r.db.WithContext(ctx).Model(&models.Dog{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Dog", id)
	}
	cache.InvalidateDog(ctx, id)
	return nil
}

func (r *dogRepository) Delete(ctx context.Context, id uint) error {
	defer r.metrics.TrackQuery("delete", "dogs")()

	result := r.db.WithContext(ctx).Delete(&models.Dog{}, id)
	if result.Error != nil {
		r.log.LogError(ctx, result.Error, "delete")
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Dog", id)
	}
	r.log.LogDelete(ctx, map[string]interface{}{"id": id})
	cache.InvalidateDog(ctx, id)
	return nil
}

func (r *dogRepository) CountByOwner(ctx context.Context, ownerID uint) (int64, error) {
	var count int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.Dog{}).Where("owner_id = ?", ownerID).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
