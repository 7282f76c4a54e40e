package service

import (
	"context"

	"chenil/internal/models"
	"chenil/internal/repository"
)

// ModerationService decides the initial visibility of new content and the
// review status of audit entries, from the global moderation mode.
type ModerationService struct {
	settings repository.SettingRepository
}

// NewModerationService returns a new ModerationService.
func NewModerationService(settings repository.SettingRepository) *ModerationService {
	return &ModerationService{settings: settings}
}

// DecideVisibility returns the status a newly created dog or media receives.
// The mode is read fresh on every call; a decision binds only the record
// being created, never existing rows.
func (s *ModerationService) DecideVisibility(ctx context.Context) (models.DogStatus, models.MediaStatus, error) {
	setting, err := s.settings.Get(ctx)
	if err != nil {
		return "", "", err
	}
	if setting.ModerationMode == models.ModerationRequireReview {
		return models.DogStatusPending, models.MediaStatusPending, nil
	}
	return models.DogStatusApproved, models.MediaStatusApproved, nil
}

// DecideAuditStatus mirrors the mode for audit entries: auto-approve accepts
// them immediately, require-review leaves them pending administrator review.
func (s *ModerationService) DecideAuditStatus(ctx context.Context) (models.AuditStatus, error) {
	setting, err := s.settings.Get(ctx)
	if err != nil {
		return "", err
	}
	if setting.ModerationMode == models.ModerationRequireReview {
		return models.AuditStatusPending, nil
	}
	return models.AuditStatusAccepted, nil
}

// GetSetting returns the current moderation configuration.
func (s *ModerationService) GetSetting(ctx context.Context) (*models.SiteSetting, error) {
	return s.settings.Get(ctx)
}

// SetMode switches the global moderation mode.
func (s *ModerationService) SetMode(ctx context.Context, mode models.ModerationMode) (*models.SiteSetting, error) {
	switch mode {
	case models.ModerationAutoApprove, models.ModerationRequireReview:
	default:
		return nil, models.NewValidationError("Invalid moderation mode")
	}
	return s.settings.UpdateModerationMode(ctx, mode)
}
