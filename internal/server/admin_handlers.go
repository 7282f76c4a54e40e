package server

import (
	"time"

	"chenil/internal/models"
	"chenil/internal/repository"
	"chenil/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetPushKey handles GET /api/push/key. The admin UI needs the VAPID public
// key before it can subscribe the browser.
func (s *Server) GetPushKey(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"enabled": s.config.PushEnabled,
		"key":     s.config.VAPIDPublicKey,
	})
}

// GetTokens handles GET /api/admin/tokens
func (s *Server) GetTokens(c *fiber.Ctx) error {
	tokens, err := s.tokenService.List(c.Context())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"tokens": tokens})
}

// IssueToken handles POST /api/admin/tokens
func (s *Server) IssueToken(c *fiber.Ctx) error {
	var req struct {
		Label     string     `json:"label"`
		ExpiresAt *time.Time `json:"expires_at"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	token, err := s.tokenService.Issue(c.Context(), service.IssueTokenInput{
		Label:     req.Label,
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"token": token})
}

// UpdateToken handles PATCH /api/admin/tokens/:id. An empty expires_at
// string clears the deadline.
func (s *Server) UpdateToken(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Label     *string `json:"label"`
		ExpiresAt *string `json:"expires_at"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	in := service.UpdateTokenInput{Label: req.Label}
	if req.ExpiresAt != nil {
		if *req.ExpiresAt == "" {
			in.ExpiresAt = &time.Time{}
		} else {
			expires, err := time.Parse(time.RFC3339, *req.ExpiresAt)
			if err != nil {
				return models.RespondWithError(c, fiber.StatusBadRequest,
					models.NewValidationError("Invalid expires_at (want RFC 3339)"))
			}
			in.ExpiresAt = &expires
		}
	}

	token, err := s.tokenService.Update(c.Context(), id, in)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"token": token})
}

// DeactivateToken handles POST /api/admin/tokens/:id/deactivate
func (s *Server) DeactivateToken(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	token, err := s.tokenService.Deactivate(c.Context(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"token": token})
}

// GetAuditEntries handles GET /api/admin/audit
func (s *Server) GetAuditEntries(c *fiber.Ctx) error {
	p := parsePagination(c, 50)
	filter := repository.AuditFilter{
		EntityKind: models.EntityKind(c.Query("entity_kind")),
		Status:     models.AuditStatus(c.Query("status")),
		DogID:      uint(c.QueryInt("dog_id", 0)),
		Limit:      p.Limit,
		Offset:     p.Offset,
	}

	entries, total, err := s.auditService.List(c.Context(), filter)
	if err != nil {
		return respondServiceError(c, err)
	}

	pending, err := s.auditService.CountPending(c.Context())
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"entries": entries,
		"total":   total,
		"pending": pending,
	})
}

// SetAuditStatus handles PATCH /api/admin/audit/:id/status
func (s *Server) SetAuditStatus(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	entry, err := s.auditService.SetStatus(c.Context(), id, models.AuditStatus(req.Status))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"entry": entry})
}

// GetModeration handles GET /api/admin/moderation
func (s *Server) GetModeration(c *fiber.Ctx) error {
	setting, err := s.moderationService.GetSetting(c.Context())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"moderation_mode": setting.ModerationMode})
}

// SetModeration handles PUT /api/admin/moderation
func (s *Server) SetModeration(c *fiber.Ctx) error {
	var req struct {
		ModerationMode string `json:"moderation_mode"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	setting, err := s.moderationService.SetMode(c.Context(), models.ModerationMode(req.ModerationMode))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"moderation_mode": setting.ModerationMode})
}

// GetSubscriptions handles GET /api/admin/subscriptions
func (s *Server) GetSubscriptions(c *fiber.Ctx) error {
	subs, err := s.subRepo.List(c.Context())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"subscriptions": subs})
}

// Subscribe handles POST /api/admin/subscriptions. Browsers rotate keys on
// re-subscription, so the endpoint is upserted.
func (s *Server) Subscribe(c *fiber.Ctx) error {
	var req struct {
		Endpoint    string `json:"endpoint"`
		P256DH      string `json:"p256dh"`
		Auth        string `json:"auth"`
		AdminNotify *bool  `json:"admin_notify"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.Endpoint == "" || req.P256DH == "" || req.Auth == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("endpoint, p256dh and auth are required"))
	}

	notify := true
	if req.AdminNotify != nil {
		notify = *req.AdminNotify
	}

	sub := &models.PushSubscription{
		Endpoint:    req.Endpoint,
		P256DH:      req.P256DH,
		Auth:        req.Auth,
		AdminNotify: notify,
	}
	if err := s.subRepo.Upsert(c.Context(), sub); err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"subscription": sub})
}

// Unsubscribe handles DELETE /api/admin/subscriptions/:id
func (s *Server) Unsubscribe(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.subRepo.Delete(c.Context(), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Subscription removed"})
}

// TriggerRebuild handles POST /api/admin/rebuild
func (s *Server) TriggerRebuild(c *fiber.Ctx) error {
	if s.buildTrigger == nil || !s.buildTrigger.Enabled() {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("No build hook configured"))
	}
	if err := s.buildTrigger.Fire(c.Context()); err != nil {
		return models.RespondWithError(c, fiber.StatusBadGateway,
			models.NewInternalError(err))
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"message": "Rebuild triggered"})
}
