package server

import (
	"chenil/internal/middleware"
	"chenil/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Admission resolves the actor behind every API request, in credential
// order: admin JWT, then edit-token cookie, then anonymous. Admission never
// rejects; route guards decide what each actor may do.
func (s *Server) Admission() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := models.Actor{Kind: models.ActorAnonymous}

		if tokenString := middleware.BearerToken(c); tokenString != "" {
			if userID, err := middleware.ParseAdminToken(c.Context(), tokenString); err == nil {
				if user, uerr := s.userRepo.GetByID(c.Context(), userID); uerr == nil && user != nil && user.IsAdmin {
					actor = models.Actor{Kind: models.ActorAdmin, Label: user.Email}
					c.Locals("userID", userID)
				}
			}
		}

		if actor.Kind == models.ActorAnonymous {
			cookieName := s.config.TokenCookie
			if cookieName == "" {
				cookieName = "edit_token"
			}
			if raw := c.Cookies(cookieName); raw != "" {
				if admitted, granted := s.tokenService.Admit(c.Context(), raw); granted {
					actor = admitted
				}
			}
		}

		c.Locals("actorKind", string(actor.Kind))
		c.Locals("actorLabel", actor.Label)
		c.SetUserContext(middleware.WithActor(c.UserContext(), string(actor.Kind), actor.Label))
		return c.Next()
	}
}

// RequireEditor gates write routes: only admitted actors (token holders and
// administrators) pass.
func (s *Server) RequireEditor() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if s.actor(c).Kind == models.ActorAnonymous {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("An edit token or administrator session is required"))
		}
		return c.Next()
	}
}

// actor reads the admitted actor back out of the request locals.
func (s *Server) actor(c *fiber.Ctx) models.Actor {
	kind, _ := c.Locals("actorKind").(string)
	label, _ := c.Locals("actorLabel").(string)
	if kind == "" {
		return models.Actor{Kind: models.ActorAnonymous}
	}
	return models.Actor{Kind: models.ActorKind(kind), Label: label}
}
