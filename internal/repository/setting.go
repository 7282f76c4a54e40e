package repository

import (
	"context"
	"errors"

	"chenil/internal/models"

	"gorm.io/gorm"
)

// SettingRepository defines persistence operations for the settings singleton.
// Reads always hit the primary so a moderation change takes effect on the
// very next mutation.
type SettingRepository interface {
	Get(ctx context.Context) (*models.SiteSetting, error)
	Ensure(ctx context.Context) error
	UpdateModerationMode(ctx context.Context, mode models.ModerationMode) (*models.SiteSetting, error)
}

type settingRepository struct {
	db *gorm.DB
}

// NewSettingRepository returns a new SettingRepository implementation.
func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &settingRepository{db: db}
}

func (r *settingRepository) Get(ctx context.Context) (*models.SiteSetting, error) {
	var setting models.SiteSetting
	if err := r.db.WithContext(ctx).First(&setting, models.SiteSettingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Site settings", models.SiteSettingID)
		}
		return nil, models.NewInternalError(err)
	}
	return &setting, nil
}

// Ensure creates the settings row with defaults when it does not exist yet.
func (r *settingRepository) Ensure(ctx context.Context) error {
	setting := models.SiteSetting{ID: models.SiteSettingID, ModerationMode: models.ModerationAutoApprove}
	err := r.db.WithContext(ctx).
		Where("id = ?", models.SiteSettingID).
		FirstOrCreate(&setting).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *settingRepository) UpdateModerationMode(ctx context.Context, mode models.ModerationMode) (*models.SiteSetting, error) {
	result := r.db.WithContext(ctx).Model(&models.SiteSetting{}).
		Where("id = ?", models.SiteSettingID).
		Update("moderation_mode", mode)
	if result.Error != nil {
		return nil, models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, models.NewNotFoundError("Site settings", models.SiteSettingID)
	}
	return r.Get(ctx)
}
