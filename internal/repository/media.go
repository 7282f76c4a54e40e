package repository

import (
	"context"
	"errors"

	"chenil/internal/cache"
	"chenil/internal/models"
	"chenil/internal/observability"

	"gorm.io/gorm"
)

// MediaRepository defines persistence operations for dog media.
type MediaRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Media, error)
	ListByDog(ctx context.Context, dogID uint, onlyApproved bool) ([]models.Media, error)
	Create(ctx context.Context, media *models.Media) error
	Update(ctx context.Context, media *models.Media) error
	SetStatus(ctx context.Context, id uint, status models.MediaStatus) error
	SetFeatured(ctx context.Context, dogID, mediaID uint) error
	CountFeatured(ctx context.Context, dogID uint) (int64, error)
	Delete(ctx context.Context, id uint) error
}

type mediaRepository struct {
	db      *gorm.DB
	metrics *observability.DatabaseMetrics
	log     *observability.RepoLogger
}

// NewMediaRepository returns a new MediaRepository implementation.
func NewMediaRepository(db *gorm.DB) MediaRepository {
	return &mediaRepository{
		db:      db,
		metrics: observability.NewDatabaseMetrics(db),
		log:     observability.NewRepoLogger("medias"),
	}
}

func (r *mediaRepository) GetByID(ctx context.Context, id uint) (*models.Media, error) {
	defer r.metrics.TrackQuery("select", "medias")()

	var media models.Media
	if err := readDB(r.db).WithContext(ctx).Preload("Dog").First(&media, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Media", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &media, nil
}

func (r *mediaRepository) ListByDog(ctx context.Context, dogID uint, onlyApproved bool) ([]models.Media, error) {
	query := readDB(r.db).WithContext(ctx).Where("dog_id = ?", dogID)
	if onlyApproved {
		query = query.Where("status = ?", models.MediaStatusApproved)
	}

	var medias []models.Media
	if err := query.Order("featured DESC, created_at ASC").Find(&medias).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return medias, nil
}

func (r *mediaRepository) Create(ctx context.Context, media *models.Media) error {
	defer r.metrics.TrackQuery("insert", "medias")()

	if err := r.db.WithContext(ctx).Create(media).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]interface{}{"id": media.ID, "dog_id": media.DogID})
	cache.InvalidateDog(ctx, media.DogID)
	return nil
}

func (r *mediaRepository) Update(ctx context.Context, media *models.Media) error {
	defer r.metrics.TrackQuery("update", "medias")()

	if err := r.db.WithContext(ctx).Save(media).Error; err != nil {
		r.log.LogError(ctx, err, "update")
		return models.NewInternalError(err)
	}
	r.log.LogUpdate(ctx, map[string]interface{}{"id": media.ID})
	cache.InvalidateDog(ctx, media.DogID)
	return nil
}

func (r *mediaRepository) SetStatus(ctx context.Context, id uint, status models.MediaStatus) error {
	var media models.Media
	if err := r.db.WithContext(ctx).First(&media, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Media", id)
		}
		return models.NewInternalError(err)
	}

	if err := r.db.WithContext(ctx).Model(&media).Update("status", status).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateDog(ctx, media.DogID)
	return nil
}

// SetFeatured marks one media as the dog's featured item. Clearing the
// previous selection and setting the new one happen in one transaction so
// no reader ever observes two featured rows.
func (r *mediaRepository) SetFeatured(ctx context.Context, dogID, mediaID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Media{}).
			Where("id = ? AND dog_id = ?", mediaID, dogID).
			Update("featured", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return models.NewNotFoundError("Media", mediaID)
		}

		return tx.Model(&models.Media{}).
			Where("dog_id = ? AND id <> ?", dogID, mediaID).
			Update("featured", false).Error
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateDog(ctx, dogID)
	return nil
}

func (r *mediaRepository) CountFeatured(ctx context.Context, dogID uint) (int64, error) {
	var count int64
	err := readDB(r.db).WithContext(ctx).Model(&models.Media{}).
		Where("dog_id = ? AND featured = ?", dogID, true).
		Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *mediaRepository) Delete(ctx context.Context, id uint) error {
	defer r.metrics.TrackQuery("delete", "medias")()

	var media models.Media
	if err := r.db.WithContext(ctx).First(&media, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Media", id)
		}
		return models.NewInternalError(err)
	}

	if err := r.db.WithContext(ctx).Delete(&media).Error; err != nil {
		r.log.LogError(ctx, err, "delete")
		return models.NewInternalError(err)
	}
	r.log.LogDelete(ctx, map[string]interface{}{"id": id, "dog_id": media.DogID})
	cache.InvalidateDog(ctx, media.DogID)
	return nil
}
