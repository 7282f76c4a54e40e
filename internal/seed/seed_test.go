package seed

import (
	"testing"

	"chenil/internal/database"
	"chenil/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupSeedDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

func TestSeedPopulatesDirectory(t *testing.T) {
	db := setupSeedDB(t)

	require.NoError(t, Seed(db, Options{Owners: 5, MaxDogsPerOwner: 2}))

	var owners, dogs, tokens int64
	require.NoError(t, db.Model(&models.Owner{}).Count(&owners).Error)
	require.NoError(t, db.Model(&models.Dog{}).Count(&dogs).Error)
	require.NoError(t, db.Model(&models.EditToken{}).Count(&tokens).Error)

	assert.Equal(t, int64(5), owners)
	assert.Equal(t, int64(5), tokens)
	assert.GreaterOrEqual(t, dogs, int64(5))
	assert.LessOrEqual(t, dogs, int64(10))

	// Every dog belongs to a real owner and carries a valid status.
	var orphans int64
	require.NoError(t, db.Model(&models.Dog{}).
		Where("owner_id NOT IN (?)", db.Model(&models.Owner{}).Select("id")).
		Count(&orphans).Error)
	assert.Zero(t, orphans)
}

func TestSeedFeaturedInvariant(t *testing.T) {
	db := setupSeedDB(t)

	require.NoError(t, Seed(db, Options{Owners: 6, MaxDogsPerOwner: 3}))

	// At most one featured media per dog.
	var violations int64
	require.NoError(t, db.Model(&models.Media{}).
		Select("dog_id").
		Where("featured = ?", true).
		Group("dog_id").
		Having("COUNT(*) > 1").
		Count(&violations).Error)
	assert.Zero(t, violations)
}

func TestSeedCleanResets(t *testing.T) {
	db := setupSeedDB(t)

	require.NoError(t, Seed(db, Options{Owners: 3}))
	require.NoError(t, Seed(db, Options{Owners: 3, ShouldClean: true}))

	var owners int64
	require.NoError(t, db.Model(&models.Owner{}).Count(&owners).Error)
	assert.Equal(t, int64(3), owners)
}

func TestSeedLeavesAdminDataAlone(t *testing.T) {
	db := setupSeedDB(t)
	require.NoError(t, db.Create(&models.User{Email: "admin@chenil.fr", Password: "x", IsAdmin: true}).Error)
	require.NoError(t, db.Create(&models.SiteSetting{ID: models.SiteSettingID, ModerationMode: models.ModerationRequireReview}).Error)

	require.NoError(t, Seed(db, Options{Owners: 2, ShouldClean: true}))

	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.Equal(t, int64(1), users)

	var setting models.SiteSetting
	require.NoError(t, db.First(&setting, models.SiteSettingID).Error)
	assert.Equal(t, models.ModerationRequireReview, setting.ModerationMode)
}
