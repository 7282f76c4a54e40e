package service

import (
	"context"
	"testing"
	"time"

	"chenil/internal/models"
	"chenil/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mediaFixture struct {
	svc    *MediaService
	medias *mediaRepoStub
	dogs   *dogRepoStub
	audits *auditRepoStub
	events *publisherRecorder
	store  *testutil.MemStorage
}

func newMediaFixture(mode models.ModerationMode) *mediaFixture {
	audit, audits, gate := newTestAudit(mode)
	medias := noopMediaRepo()
	dogs := noopDogRepo()
	dogs.getByIDFn = func(_ context.Context, id uint) (*models.Dog, error) {
		return &models.Dog{ID: id, Name: "Rex", Status: models.DogStatusApproved}, nil
	}
	events := &publisherRecorder{}
	store := testutil.NewMemStorage()
	return &mediaFixture{
		svc:    NewMediaService(medias, dogs, gate, audit, events, store, nil),
		medias: medias,
		dogs:   dogs,
		audits: audits,
		events: events,
		store:  store,
	}
}

func TestMediaUpload(t *testing.T) {
	t.Run("stores the file and binds visibility at creation", func(t *testing.T) {
		f := newMediaFixture(models.ModerationRequireReview)
		var created *models.Media
		f.medias.createFn = func(_ context.Context, media *models.Media) error {
			media.ID = 9
			created = media
			return nil
		}

		media, err := f.svc.Upload(context.Background(), tokenActor, UploadMediaInput{
			DogID:    4,
			Caption:  "Portrait",
			Filename: "portrait.png",
			Content:  testutil.TinyPNG(t, 2, 2),
		})
		require.NoError(t, err)
		require.NotNil(t, created)
		assert.Equal(t, models.MediaKindPhoto, media.Kind)
		assert.Equal(t, models.MediaStatusPending, media.Status)
		assert.True(t, f.store.Has(media.Path))

		require.Len(t, f.audits.created(), 1)
		entry := f.audits.last()
		assert.Equal(t, models.EntityMedia, entry.EntityKind)
		require.NotNil(t, entry.DogID)
		assert.EqualValues(t, 4, *entry.DogID)
		assert.Equal(t, "http://admin.local/chiens/4", entry.AdminURL)
		assert.Len(t, f.events.published(), 1)
	})

	t.Run("rejects files that are not what they claim", func(t *testing.T) {
		f := newMediaFixture(models.ModerationAutoApprove)
		_, err := f.svc.Upload(context.Background(), tokenActor, UploadMediaInput{
			DogID:    4,
			Filename: "evil.png",
			Content:  []byte("<html><script>alert(1)</script></html>"),
		})
		require.Error(t, err)
		assert.Zero(t, f.store.Len())
	})

	t.Run("rejects oversized uploads", func(t *testing.T) {
		f := newMediaFixture(models.ModerationAutoApprove)
		f.svc.maxUploadBytes = 16
		_, err := f.svc.Upload(context.Background(), tokenActor, UploadMediaInput{
			DogID:    4,
			Filename: "big.png",
			Content:  testutil.TinyPNG(t, 8, 8),
		})
		assert.Error(t, err)
	})

	t.Run("rejects empty uploads and bad kinds", func(t *testing.T) {
		f := newMediaFixture(models.ModerationAutoApprove)

		_, err := f.svc.Upload(context.Background(), tokenActor, UploadMediaInput{DogID: 4, Filename: "x.png"})
		assert.Error(t, err)

		_, err = f.svc.Upload(context.Background(), tokenActor, UploadMediaInput{
			DogID: 4, Kind: "gif", Filename: "x.png", Content: testutil.TinyPNG(t, 2, 2),
		})
		assert.Error(t, err)
	})

	t.Run("removes the stored file when the row cannot be created", func(t *testing.T) {
		f := newMediaFixture(models.ModerationAutoApprove)
		f.medias.createFn = func(_ context.Context, _ *models.Media) error {
			return models.NewInternalError(assert.AnError)
		}

		_, err := f.svc.Upload(context.Background(), tokenActor, UploadMediaInput{
			DogID: 4, Filename: "x.png", Content: testutil.TinyPNG(t, 2, 2),
		})
		require.Error(t, err)
		require.Eventually(t, func() bool { return f.store.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
	})
}

func TestMediaUpdateFeatured(t *testing.T) {
	stored := func() *models.Media {
		return &models.Media{
			ID: 9, DogID: 4, Kind: models.MediaKindPhoto, Caption: "Portrait",
			Status: models.MediaStatusApproved,
			Dog:    &models.Dog{ID: 4, Name: "Rex"},
		}
	}

	t.Run("featuring goes through the selector", func(t *testing.T) {
		f := newMediaFixture(models.ModerationRequireReview)
		current := stored()
		f.medias.getByIDFn = func(_ context.Context, _ uint) (*models.Media, error) { return current, nil }
		selectorCalls := 0
		f.medias.setFeaturedFn = func(_ context.Context, dogID, mediaID uint) error {
			selectorCalls++
			assert.EqualValues(t, 4, dogID)
			assert.EqualValues(t, 9, mediaID)
			current.Featured = true
			return nil
		}
		f.medias.updateFn = func(_ context.Context, _ *models.Media) error {
			t.Fatal("featured-only change must not run a plain update")
			return nil
		}

		featured := true
		media, err := f.svc.Update(context.Background(), tokenActor, 9, UpdateMediaInput{Featured: &featured})
		require.NoError(t, err)
		assert.True(t, media.Featured)
		assert.Equal(t, 1, selectorCalls)

		require.Len(t, f.audits.created(), 1)
		assert.Contains(t, f.audits.last().Summary, "À la une: no → yes")
	})

	t.Run("unfeaturing is a plain update", func(t *testing.T) {
		f := newMediaFixture(models.ModerationAutoApprove)
		current := stored()
		current.Featured = true
		f.medias.getByIDFn = func(_ context.Context, _ uint) (*models.Media, error) { return current, nil }
		updates := 0
		f.medias.updateFn = func(_ context.Context, media *models.Media) error {
			updates++
			assert.False(t, media.Featured)
			current.Featured = false
			return nil
		}
		f.medias.setFeaturedFn = func(_ context.Context, _, _ uint) error {
			t.Fatal("selector not expected")
			return nil
		}

		featured := false
		_, err := f.svc.Update(context.Background(), tokenActor, 9, UpdateMediaInput{Featured: &featured})
		require.NoError(t, err)
		assert.Equal(t, 1, updates)
	})

	t.Run("caption change alone never touches the selector", func(t *testing.T) {
		f := newMediaFixture(models.ModerationAutoApprove)
		current := stored()
		f.medias.getByIDFn = func(_ context.Context, _ uint) (*models.Media, error) { return current, nil }
		f.medias.setFeaturedFn = func(_ context.Context, _, _ uint) error {
			t.Fatal("selector not expected")
			return nil
		}

		caption := "Au parc"
		media, err := f.svc.Update(context.Background(), tokenActor, 9, UpdateMediaInput{Caption: &caption})
		require.NoError(t, err)
		assert.Equal(t, "Au parc", media.Caption)
		require.Len(t, f.audits.created(), 1)
		assert.Contains(t, f.audits.last().Summary, "Légende: Portrait → Au parc")
	})

	t.Run("identical proposal writes nothing", func(t *testing.T) {
		f := newMediaFixture(models.ModerationAutoApprove)
		f.medias.getByIDFn = func(_ context.Context, _ uint) (*models.Media, error) { return stored(), nil }

		caption := "Portrait"
		_, err := f.svc.Update(context.Background(), tokenActor, 9, UpdateMediaInput{Caption: &caption})
		require.NoError(t, err)
		assert.Empty(t, f.audits.created())
		assert.Empty(t, f.events.published())
	})
}

func TestMediaSetStatus(t *testing.T) {
	f := newMediaFixture(models.ModerationAutoApprove)
	current := &models.Media{ID: 9, DogID: 4, Status: models.MediaStatusPending, Dog: &models.Dog{ID: 4, Name: "Rex"}}
	f.medias.getByIDFn = func(_ context.Context, _ uint) (*models.Media, error) { return current, nil }

	media, err := f.svc.SetStatus(context.Background(), adminActor, 9, models.MediaStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, models.MediaStatusApproved, media.Status)

	// Review decisions are audited but fire no notification.
	require.Len(t, f.audits.created(), 1)
	assert.Contains(t, f.audits.last().Summary, "Statut: En attente → Publié")
	assert.Empty(t, f.events.published())

	_, err = f.svc.SetStatus(context.Background(), adminActor, 9, "archived")
	assert.Error(t, err)
}

func TestMediaDelete(t *testing.T) {
	f := newMediaFixture(models.ModerationAutoApprove)
	require.NoError(t, f.store.Save(context.Background(), "2025/06/15/x.png", "image/png", []byte("data")))
	f.medias.getByIDFn = func(_ context.Context, id uint) (*models.Media, error) {
		return &models.Media{ID: id, DogID: 4, Path: "2025/06/15/x.png", Caption: "Portrait"}, nil
	}

	require.NoError(t, f.svc.Delete(context.Background(), tokenActor, 9))

	require.Eventually(t, func() bool { return !f.store.Has("2025/06/15/x.png") }, 2*time.Second, 10*time.Millisecond)
	require.Len(t, f.audits.created(), 1)
	assert.Equal(t, models.OperationDelete, f.audits.last().Operation)
	assert.Len(t, f.events.published(), 1)
}

func TestMediaListByDog(t *testing.T) {
	f := newMediaFixture(models.ModerationAutoApprove)
	var gotOnlyApproved bool
	f.medias.listByDogFn = func(_ context.Context, _ uint, onlyApproved bool) ([]models.Media, error) {
		gotOnlyApproved = onlyApproved
		return nil, nil
	}

	_, err := f.svc.ListByDog(context.Background(), tokenActor, 4)
	require.NoError(t, err)
	assert.True(t, gotOnlyApproved)

	_, err = f.svc.ListByDog(context.Background(), adminActor, 4)
	require.NoError(t, err)
	assert.False(t, gotOnlyApproved)
}
