package server

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"chenil/internal/config"
	"chenil/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenAdministration(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.seedAdmin(t, "admin@chenil.fr")

	t.Run("issue", func(t *testing.T) {
		resp := ts.request(t, http.MethodPost, "/api/admin/tokens", map[string]string{
			"label": "Family A",
		}, asAdmin(token))
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var body struct {
			Token models.EditToken `json:"token"`
		}
		decode(t, resp, &body)
		assert.Equal(t, "Family A", body.Token.Label)
		assert.True(t, body.Token.Active)
		assert.Len(t, body.Token.Token, 36)
	})

	t.Run("issue without label fails", func(t *testing.T) {
		resp := ts.request(t, http.MethodPost, "/api/admin/tokens", map[string]string{}, asAdmin(token))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("list", func(t *testing.T) {
		resp := ts.request(t, http.MethodGet, "/api/admin/tokens", nil, asAdmin(token))
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Tokens []models.EditToken `json:"tokens"`
		}
		decode(t, resp, &body)
		require.Len(t, body.Tokens, 1)
	})

	t.Run("update label and clear expiry", func(t *testing.T) {
		resp := ts.request(t, http.MethodPatch, "/api/admin/tokens/1", map[string]string{
			"label":      "Family B",
			"expires_at": "",
		}, asAdmin(token))
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Token models.EditToken `json:"token"`
		}
		decode(t, resp, &body)
		assert.Equal(t, "Family B", body.Token.Label)
		assert.Nil(t, body.Token.ExpiresAt)
	})

	t.Run("malformed expiry fails", func(t *testing.T) {
		resp := ts.request(t, http.MethodPatch, "/api/admin/tokens/1", map[string]string{
			"expires_at": "tomorrow",
		}, asAdmin(token))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("deactivate", func(t *testing.T) {
		resp := ts.request(t, http.MethodPost, "/api/admin/tokens/1/deactivate", nil, asAdmin(token))
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Token models.EditToken `json:"token"`
		}
		decode(t, resp, &body)
		assert.False(t, body.Token.Active)
	})
}

func TestModerationAdministration(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.seedAdmin(t, "admin@chenil.fr")

	resp := ts.request(t, http.MethodGet, "/api/admin/moderation", nil, asAdmin(token))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		ModerationMode models.ModerationMode `json:"moderation_mode"`
	}
	decode(t, resp, &body)
	assert.Equal(t, models.ModerationAutoApprove, body.ModerationMode)

	resp = ts.request(t, http.MethodPut, "/api/admin/moderation", map[string]string{
		"moderation_mode": "require-review",
	}, asAdmin(token))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &body)
	assert.Equal(t, models.ModerationRequireReview, body.ModerationMode)

	resp = ts.request(t, http.MethodPut, "/api/admin/moderation", map[string]string{
		"moderation_mode": "whatever",
	}, asAdmin(token))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAuditAdministration(t *testing.T) {
	ts := newTestServer(t)
	ts.setModerationMode(t, models.ModerationRequireReview)
	_, token := ts.seedAdmin(t, "admin@chenil.fr")
	ts.seedEditToken(t, "Family A", "tok-1", true, nil)

	// A token mutation leaves a pending entry behind.
	resp := ts.request(t, http.MethodPost, "/api/owners", map[string]string{
		"name": "Famille Martin",
	}, withEditToken("tok-1"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = ts.request(t, http.MethodGet, "/api/admin/audit", nil, asAdmin(token))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listing struct {
		Entries []models.AuditEntry `json:"entries"`
		Total   int64               `json:"total"`
		Pending int64               `json:"pending"`
	}
	decode(t, resp, &listing)
	require.Len(t, listing.Entries, 1)
	assert.Equal(t, int64(1), listing.Total)
	assert.Equal(t, int64(1), listing.Pending)
	assert.Equal(t, models.AuditStatusPending, listing.Entries[0].Status)

	resp = ts.request(t, http.MethodPatch, "/api/admin/audit/1/status", map[string]string{
		"status": "accepted",
	}, asAdmin(token))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated struct {
		Entry models.AuditEntry `json:"entry"`
	}
	decode(t, resp, &updated)
	assert.Equal(t, models.AuditStatusAccepted, updated.Entry.Status)

	resp = ts.request(t, http.MethodPatch, "/api/admin/audit/1/status", map[string]string{
		"status": "bogus",
	}, asAdmin(token))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSubscriptionAdministration(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.seedAdmin(t, "admin@chenil.fr")

	resp := ts.request(t, http.MethodPost, "/api/admin/subscriptions", map[string]interface{}{
		"endpoint": "https://push.example/ep-1",
		"p256dh":   "key",
		"auth":     "secret",
	}, asAdmin(token))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Re-subscribing the same endpoint replaces rather than duplicates.
	resp = ts.request(t, http.MethodPost, "/api/admin/subscriptions", map[string]interface{}{
		"endpoint":     "https://push.example/ep-1",
		"p256dh":       "rotated",
		"auth":         "secret",
		"admin_notify": false,
	}, asAdmin(token))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = ts.request(t, http.MethodGet, "/api/admin/subscriptions", nil, asAdmin(token))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listing struct {
		Subscriptions []models.PushSubscription `json:"subscriptions"`
	}
	decode(t, resp, &listing)
	require.Len(t, listing.Subscriptions, 1)
	assert.Equal(t, "rotated", listing.Subscriptions[0].P256DH)
	assert.False(t, listing.Subscriptions[0].AdminNotify)

	resp = ts.request(t, http.MethodPost, "/api/admin/subscriptions", map[string]interface{}{
		"endpoint": "https://push.example/ep-2",
	}, asAdmin(token))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.request(t, http.MethodDelete, "/api/admin/subscriptions/1", nil, asAdmin(token))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.request(t, http.MethodGet, "/api/admin/subscriptions", nil, asAdmin(token))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &listing)
	assert.Empty(t, listing.Subscriptions)
}

func TestPushKeyEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.request(t, http.MethodGet, "/api/push/key", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Enabled bool   `json:"enabled"`
		Key     string `json:"key"`
	}
	decode(t, resp, &body)
	assert.False(t, body.Enabled)
	assert.Empty(t, body.Key)
}

func TestTriggerRebuild(t *testing.T) {
	t.Run("without a hook configured", func(t *testing.T) {
		ts := newTestServer(t)
		_, token := ts.seedAdmin(t, "admin@chenil.fr")

		resp := ts.request(t, http.MethodPost, "/api/admin/rebuild", nil, asAdmin(token))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("with a hook configured", func(t *testing.T) {
		var calls atomic.Int32
		hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusOK)
		}))
		defer hook.Close()

		ts := newTestServer(t, func(cfg *config.Config) {
			cfg.BuildHookURL = hook.URL
		})
		_, token := ts.seedAdmin(t, "admin@chenil.fr")

		resp := ts.request(t, http.MethodPost, "/api/admin/rebuild", nil, asAdmin(token))
		assert.Equal(t, http.StatusAccepted, resp.StatusCode)
		assert.Equal(t, int32(1), calls.Load())
	})
}
