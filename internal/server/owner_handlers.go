package server

import (
	"chenil/internal/models"
	"chenil/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetOwners handles GET /api/owners. Contact data never leaves the
// administration surface.
func (s *Server) GetOwners(c *fiber.Ctx) error {
	owners, err := s.ownerService.List(c.Context())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"owners": owners})
}

// GetOwner handles GET /api/owners/:id
func (s *Server) GetOwner(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	owner, err := s.ownerService.GetByID(c.Context(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"owner": owner})
}

// CreateOwner handles POST /api/owners
func (s *Server) CreateOwner(c *fiber.Ctx) error {
	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Phone string `json:"phone"`
		City  string `json:"city"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	owner, err := s.ownerService.Create(c.Context(), s.actor(c), service.OwnerInput{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
		City:  req.City,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"owner": owner})
}

// UpdateOwner handles PATCH /api/owners/:id
func (s *Server) UpdateOwner(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Name  *string `json:"name"`
		Email *string `json:"email"`
		Phone *string `json:"phone"`
		City  *string `json:"city"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	owner, err := s.ownerService.Update(c.Context(), s.actor(c), id, service.UpdateOwnerInput{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
		City:  req.City,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"owner": owner})
}

// DeleteOwner handles DELETE /api/owners/:id
func (s *Server) DeleteOwner(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.ownerService.Delete(c.Context(), s.actor(c), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Owner deleted"})
}
