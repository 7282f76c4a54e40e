package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"chenil/internal/config"
	"chenil/internal/diff"
	"chenil/internal/models"
	"chenil/internal/observability"
	"chenil/internal/repository"
	"chenil/internal/storage"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp" // Register WebP decoder
)

// DefaultMediaMaxUploadSizeMB bounds uploads when the config carries no limit.
const DefaultMediaMaxUploadSizeMB = 10

// fileCleanupTimeout bounds the detached removal of an orphaned upload.
const fileCleanupTimeout = 10 * time.Second

// MediaService owns photo and video uploads and the featured selection.
type MediaService struct {
	medias repository.MediaRepository
	dogs   repository.DogRepository
	gate   *ModerationService
	audit  *AuditService
	events Publisher
	store  storage.Storage

	maxUploadBytes int64
}

// NewMediaService returns a new MediaService.
func NewMediaService(medias repository.MediaRepository, dogs repository.DogRepository, gate *ModerationService, audit *AuditService, events Publisher, store storage.Storage, cfg *config.Config) *MediaService {
	maxBytes := int64(DefaultMediaMaxUploadSizeMB) << 20
	if cfg != nil && cfg.UploadMaxMB > 0 {
		maxBytes = cfg.MaxUploadBytes()
	}
	return &MediaService{
		medias:         medias,
		dogs:           dogs,
		gate:           gate,
		audit:          audit,
		events:         events,
		store:          store,
		maxUploadBytes: maxBytes,
	}
}

// GetByID returns one media row with its dog.
func (s *MediaService) GetByID(ctx context.Context, id uint) (*models.Media, error) {
	return s.medias.GetByID(ctx, id)
}

// ListByDog returns a dog's media. Non-administrators only see approved
// items.
func (s *MediaService) ListByDog(ctx context.Context, actor models.Actor, dogID uint) ([]models.Media, error) {
	if _, err := s.dogs.GetByID(ctx, dogID); err != nil {
		return nil, err
	}
	return s.medias.ListByDog(ctx, dogID, !actor.IsAdmin())
}

// UploadMediaInput carries one uploaded file and its metadata.
type UploadMediaInput struct {
	DogID       uint
	Kind        string
	Caption     string
	Filename    string
	ContentType string
	Content     []byte
}

// Upload validates and stores a file, then creates the media row with the
// visibility the moderation mode dictates right now.
func (s *MediaService) Upload(ctx context.Context, actor models.Actor, in UploadMediaInput) (*models.Media, error) {
	dog, err := s.dogs.GetByID(ctx, in.DogID)
	if err != nil {
		return nil, err
	}

	kind := models.MediaKind(in.Kind)
	if in.Kind == "" {
		kind = models.MediaKindPhoto
	}
	if kind != models.MediaKindPhoto && kind != models.MediaKindVideo {
		return nil, models.NewValidationError("Invalid media kind")
	}
	if len(in.Content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > s.maxUploadBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadBytes>>20))
	}
	if len(in.Caption) > 255 {
		return nil, models.NewValidationError("Caption too long (max 255 characters)")
	}

	// Trust the bytes, not the client's declared type.
	detectedType := http.DetectContentType(in.Content)
	switch kind {
	case models.MediaKindPhoto:
		if !isAllowedPhotoMIME(detectedType) {
			return nil, models.NewValidationError("Invalid image type")
		}
		if _, _, err := image.Decode(bytes.NewReader(in.Content)); err != nil {
			return nil, models.NewValidationError("Invalid image file")
		}
	case models.MediaKindVideo:
		if !strings.HasPrefix(detectedType, "video/") {
			return nil, models.NewValidationError("Invalid video type")
		}
	}

	key := storage.NewKey(uploadExtension(in.Filename, detectedType))
	if err := s.store.Save(ctx, key, detectedType, in.Content); err != nil {
		return nil, models.NewInternalError(err)
	}

	_, status, err := s.gate.DecideVisibility(ctx)
	if err != nil {
		s.removeFile(key)
		return nil, err
	}

	media := &models.Media{
		DogID:   dog.ID,
		Kind:    kind,
		Path:    key,
		Caption: strings.TrimSpace(in.Caption),
		Status:  status,
	}
	if err := s.medias.Create(ctx, media); err != nil {
		s.removeFile(key)
		return nil, err
	}

	changes := diff.Diff(diff.MediaFields, diff.Snapshot{}, diff.Proposal{
		"kind":    diff.String(string(media.Kind)),
		"caption": diff.String(media.Caption),
		"status":  diff.String(string(media.Status)),
	})
	entry := s.audit.Record(ctx, actor, RecordInput{
		Kind:      models.EntityMedia,
		EntityID:  media.ID,
		Name:      mediaDisplayName(media, dog),
		Operation: models.OperationCreate,
		Changes:   changes,
		DogID:     &dog.ID,
	})
	publishAfterMutation(ctx, s.events, actor, entry)
	return media, nil
}

// UpdateMediaInput carries a partial media update.
type UpdateMediaInput struct {
	Kind     *string
	Caption  *string
	Featured *bool
}

// Update applies a partial change. Setting Featured to true runs the
// featured selection: every other media of the same dog loses the flag in
// the same transaction that sets this one.
func (s *MediaService) Update(ctx context.Context, actor models.Actor, id uint, in UpdateMediaInput) (*models.Media, error) {
	old, err := s.medias.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	snapshot := diff.MediaSnapshot(old)
	proposal := diff.Proposal{}

	if in.Kind != nil {
		kind := models.MediaKind(*in.Kind)
		if kind != models.MediaKindPhoto && kind != models.MediaKindVideo {
			return nil, models.NewValidationError("Invalid media kind")
		}
		proposal["kind"] = diff.String(string(kind))
		old.Kind = kind
	}
	if in.Caption != nil {
		caption := strings.TrimSpace(*in.Caption)
		if len(caption) > 255 {
			return nil, models.NewValidationError("Caption too long (max 255 characters)")
		}
		proposal["caption"] = diff.String(caption)
		old.Caption = caption
	}
	if in.Featured != nil {
		proposal["featured"] = diff.Bool(*in.Featured)
		old.Featured = *in.Featured
	}

	changes := diff.Diff(diff.MediaFields, snapshot, proposal)
	if len(changes) == 0 {
		return old, nil
	}

	if in.Featured != nil && *in.Featured {
		// Featured travels through the selector, the rest through the
		// normal update path.
		if err := s.medias.SetFeatured(ctx, old.DogID, old.ID); err != nil {
			return nil, err
		}
		if in.Kind != nil || in.Caption != nil {
			if err := s.medias.Update(ctx, old); err != nil {
				return nil, err
			}
		}
	} else {
		if err := s.medias.Update(ctx, old); err != nil {
			return nil, err
		}
	}

	updated, err := s.medias.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	entry := s.audit.Record(ctx, actor, RecordInput{
		Kind:      models.EntityMedia,
		EntityID:  updated.ID,
		Name:      mediaDisplayName(updated, updated.Dog),
		Operation: models.OperationUpdate,
		Changes:   changes,
		DogID:     &updated.DogID,
	})
	publishAfterMutation(ctx, s.events, actor, entry)
	return updated, nil
}

// SetStatus approves or rejects an upload. Administrative.
func (s *MediaService) SetStatus(ctx context.Context, actor models.Actor, id uint, status models.MediaStatus) (*models.Media, error) {
	switch status {
	case models.MediaStatusPending, models.MediaStatusApproved, models.MediaStatusRejected:
	default:
		return nil, models.NewValidationError("Invalid status")
	}

	old, err := s.medias.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if old.Status == status {
		return old, nil
	}

	snapshot := diff.MediaSnapshot(old)
	if err := s.medias.SetStatus(ctx, id, status); err != nil {
		return nil, err
	}
	old.Status = status

	changes := diff.Diff(diff.MediaFields, snapshot, diff.Proposal{"status": diff.String(string(status))})
	s.audit.Record(ctx, actor, RecordInput{
		Kind:      models.EntityMedia,
		EntityID:  old.ID,
		Name:      mediaDisplayName(old, old.Dog),
		Operation: models.OperationUpdate,
		Changes:   changes,
		DogID:     &old.DogID,
	})
	return old, nil
}

// Delete removes a media row and its stored file. Administrative.
func (s *MediaService) Delete(ctx context.Context, actor models.Actor, id uint) error {
	media, err := s.medias.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.medias.Delete(ctx, id); err != nil {
		return err
	}
	s.removeFile(media.Path)

	entry := s.audit.Record(ctx, actor, RecordInput{
		Kind:      models.EntityMedia,
		EntityID:  media.ID,
		Name:      mediaDisplayName(media, media.Dog),
		Operation: models.OperationDelete,
		DogID:     &media.DogID,
	})
	publishAfterMutation(ctx, s.events, actor, entry)
	return nil
}

// FileURL resolves a stored media path to its public URL.
func (s *MediaService) FileURL(media *models.Media) string {
	return s.store.PublicURL(media.Path)
}

// removeFile deletes a stored file in a detached best-effort task. The row
// is authoritative; an orphaned file is an annoyance, not an error.
func (s *MediaService) removeFile(key string) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				observability.GlobalLogger.Error("Panic in media file removal", "key", key, "panic", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), fileCleanupTimeout)
		defer cancel()

		if err := s.store.Delete(ctx, key); err != nil {
			observability.LogAsyncOperationError(ctx, "media_file_removal", err, map[string]interface{}{"key": key})
		}
	}()
}

// mediaDisplayName renders a media for audit summaries: its caption when it
// has one, otherwise its dog's name.
func mediaDisplayName(media *models.Media, dog *models.Dog) string {
	if media.Caption != "" {
		return media.Caption
	}
	if dog != nil && dog.Name != "" {
		return dog.Name
	}
	return fmt.Sprintf("Media %d", media.ID)
}

func isAllowedPhotoMIME(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	}
	return false
}

// uploadExtension picks a file extension from the client filename when it
// matches the sniffed type, else from the sniffed type.
func uploadExtension(filename, detectedType string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch detectedType {
	case "image/jpeg":
		if ext == ".jpg" || ext == ".jpeg" {
			return ext
		}
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		if ext != "" {
			return ext
		}
		return ".bin"
	}
}
