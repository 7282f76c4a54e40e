package seed

import (
	"fmt"
	"log"

	"chenil/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder.
type Options struct {
	// Owners is the number of owner families to create.
	Owners int
	// MaxDogsPerOwner caps each family's dogs (at least one each).
	MaxDogsPerOwner int
	// ShouldClean wipes directory data before seeding. Administrator
	// accounts and site settings are never touched.
	ShouldClean bool
}

// Demo fills the database with a small demo directory.
func Demo(db *gorm.DB) error {
	return Seed(db, Options{Owners: 8, MaxDogsPerOwner: 3})
}

// Seed populates the database with generated owners, dogs, media and one
// edit token per family.
func Seed(db *gorm.DB, opts Options) error {
	if opts.Owners <= 0 {
		opts.Owners = 8
	}
	if opts.MaxDogsPerOwner <= 0 {
		opts.MaxDogsPerOwner = 3
	}

	log.Printf("seeding %d owner families...", opts.Owners)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			return fmt.Errorf("failed to clear directory data: %w", err)
		}
	}

	f := NewFactory(db)

	var dogs, medias int
	for i := 0; i < opts.Owners; i++ {
		owner, err := f.CreateOwner()
		if err != nil {
			return fmt.Errorf("failed to create owner: %w", err)
		}

		if _, err := f.CreateEditToken(owner.Name); err != nil {
			return fmt.Errorf("failed to create edit token: %w", err)
		}

		dogCount := 1 + f.rng.Intn(opts.MaxDogsPerOwner)
		for j := 0; j < dogCount; j++ {
			dog, err := f.CreateDog(owner)
			if err != nil {
				return fmt.Errorf("failed to create dog: %w", err)
			}
			dogs++

			mediaCount := f.rng.Intn(4)
			for k := 0; k < mediaCount; k++ {
				// The first photo of a dog is its featured one.
				featured := k == 0
				if _, err := f.CreateMedia(dog, func(m *models.Media) {
					m.Featured = featured
				}); err != nil {
					return fmt.Errorf("failed to create media: %w", err)
				}
				medias++
			}
		}
	}

	log.Printf("seeded %d owners, %d dogs, %d media", opts.Owners, dogs, medias)
	return nil
}

// clearData removes directory data in dependency order. Hard deletes so a
// re-seed starts from a truly empty directory.
func clearData(db *gorm.DB) error {
	for _, model := range []interface{}{
		&models.AuditEntry{},
		&models.Media{},
		&models.Dog{},
		&models.Owner{},
		&models.EditToken{},
	} {
		if err := db.Unscoped().Where("1 = 1").Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}
