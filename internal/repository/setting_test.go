package repository

import (
	"context"
	"testing"

	"chenil/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSettingRepository(db)
	ctx := context.Background()

	t.Run("Get before Ensure", func(t *testing.T) {
		_, err := repo.Get(ctx)
		require.Error(t, err)
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "NOT_FOUND", appErr.Code)
	})

	t.Run("Ensure creates the singleton with defaults", func(t *testing.T) {
		require.NoError(t, repo.Ensure(ctx))

		setting, err := repo.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, models.SiteSettingID, setting.ID)
		assert.Equal(t, models.ModerationAutoApprove, setting.ModerationMode)
	})

	t.Run("Ensure is idempotent", func(t *testing.T) {
		_, err := repo.UpdateModerationMode(ctx, models.ModerationRequireReview)
		require.NoError(t, err)

		require.NoError(t, repo.Ensure(ctx))

		var count int64
		require.NoError(t, db.Model(&models.SiteSetting{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)

		setting, err := repo.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, models.ModerationRequireReview, setting.ModerationMode,
			"Ensure must not overwrite an existing mode")
	})

	t.Run("UpdateModerationMode returns the stored row", func(t *testing.T) {
		setting, err := repo.UpdateModerationMode(ctx, models.ModerationAutoApprove)
		require.NoError(t, err)
		assert.Equal(t, models.ModerationAutoApprove, setting.ModerationMode)

		fetched, err := repo.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, models.ModerationAutoApprove, fetched.ModerationMode)
	})
}
