package service

import (
	"context"
	"testing"

	"chenil/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModerationDecideVisibility(t *testing.T) {
	t.Run("auto-approve publishes immediately", func(t *testing.T) {
		gate := NewModerationService(newSettingRepoStub(models.ModerationAutoApprove))
		dogStatus, mediaStatus, err := gate.DecideVisibility(context.Background())
		require.NoError(t, err)
		assert.Equal(t, models.DogStatusApproved, dogStatus)
		assert.Equal(t, models.MediaStatusApproved, mediaStatus)
	})

	t.Run("require-review holds new content", func(t *testing.T) {
		gate := NewModerationService(newSettingRepoStub(models.ModerationRequireReview))
		dogStatus, mediaStatus, err := gate.DecideVisibility(context.Background())
		require.NoError(t, err)
		assert.Equal(t, models.DogStatusPending, dogStatus)
		assert.Equal(t, models.MediaStatusPending, mediaStatus)
	})

	t.Run("mode is read fresh on every call", func(t *testing.T) {
		settings := newSettingRepoStub(models.ModerationAutoApprove)
		gate := NewModerationService(settings)

		dogStatus, _, err := gate.DecideVisibility(context.Background())
		require.NoError(t, err)
		assert.Equal(t, models.DogStatusApproved, dogStatus)

		_, err = settings.UpdateModerationMode(context.Background(), models.ModerationRequireReview)
		require.NoError(t, err)

		dogStatus, _, err = gate.DecideVisibility(context.Background())
		require.NoError(t, err)
		assert.Equal(t, models.DogStatusPending, dogStatus)
	})
}

func TestModerationDecideAuditStatus(t *testing.T) {
	gate := NewModerationService(newSettingRepoStub(models.ModerationAutoApprove))
	status, err := gate.DecideAuditStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.AuditStatusAccepted, status)

	gate = NewModerationService(newSettingRepoStub(models.ModerationRequireReview))
	status, err = gate.DecideAuditStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.AuditStatusPending, status)
}

func TestModerationSetMode(t *testing.T) {
	gate := NewModerationService(newSettingRepoStub(models.ModerationAutoApprove))

	setting, err := gate.SetMode(context.Background(), models.ModerationRequireReview)
	require.NoError(t, err)
	assert.Equal(t, models.ModerationRequireReview, setting.ModerationMode)

	_, err = gate.SetMode(context.Background(), "whatever")
	assert.Error(t, err)
}
