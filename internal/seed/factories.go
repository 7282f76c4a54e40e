// Package seed provides helpers to create demo data for the directory
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"chenil/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db  *gorm.DB
	rng *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	// #nosec G404: acceptable for seeding
	return &Factory{db: db, rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (f *Factory) pick(values []string) string {
	return values[f.rng.Intn(len(values))]
}

// CreateOwner constructs and persists a sample owner. Optional override
// functions may modify the generated owner before saving.
func (f *Factory) CreateOwner(overrides ...func(*models.Owner)) (*models.Owner, error) {
	family := gofakeit.LastName()
	owner := &models.Owner{
		Name:  "Famille " + family,
		Email: fmt.Sprintf("%s@%s", strings.ToLower(family), gofakeit.DomainName()),
		Phone: gofakeit.Phone(),
		City:  f.pick(demoVocabulary.Cities),
	}

	for _, override := range overrides {
		override(owner)
	}

	if err := f.db.Create(owner).Error; err != nil {
		return nil, err
	}
	return owner, nil
}

// CreateDog constructs and persists a sample dog for the given owner.
func (f *Factory) CreateDog(owner *models.Owner, overrides ...func(*models.Dog)) (*models.Dog, error) {
	sex := models.SexMale
	if f.rng.Intn(2) == 0 {
		sex = models.SexFemale
	}

	// Birthdays spread over roughly twelve years.
	daysBack := f.rng.Intn(12 * 365)
	birthday := time.Now().AddDate(0, 0, -daysBack).Truncate(24 * time.Hour)

	dog := &models.Dog{
		Name:     gofakeit.PetName(),
		Sex:      sex,
		Birthday: &birthday,
		Breed:    f.pick(demoVocabulary.Breeds),
		Coat:     f.pick(demoVocabulary.Coats),
		OwnerID:  owner.ID,
		Status:   models.DogStatusApproved,
	}

	for _, override := range overrides {
		override(dog)
	}

	if err := f.db.Create(dog).Error; err != nil {
		return nil, err
	}
	return dog, nil
}

// CreateMedia constructs and persists a sample media row for the given dog.
// The path points at a placeholder object; no file is written.
func (f *Factory) CreateMedia(dog *models.Dog, overrides ...func(*models.Media)) (*models.Media, error) {
	media := &models.Media{
		DogID:   dog.ID,
		Kind:    models.MediaKindPhoto,
		Path:    fmt.Sprintf("demo/%s.jpg", uuid.New().String()),
		Caption: gofakeit.Sentence(3),
		Status:  models.MediaStatusApproved,
	}

	for _, override := range overrides {
		override(media)
	}

	if err := f.db.Create(media).Error; err != nil {
		return nil, err
	}
	return media, nil
}

// CreateEditToken constructs and persists an active edit token with the
// given label.
func (f *Factory) CreateEditToken(label string, overrides ...func(*models.EditToken)) (*models.EditToken, error) {
	token := &models.EditToken{
		Token:  strings.ReplaceAll(uuid.New().String(), "-", ""),
		Label:  label,
		Active: true,
	}

	for _, override := range overrides {
		override(token)
	}

	if err := f.db.Create(token).Error; err != nil {
		return nil, err
	}
	return token, nil
}
