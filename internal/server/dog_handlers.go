package server

import (
	"time"

	"chenil/internal/models"
	"chenil/internal/service"

	"github.com/gofiber/fiber/v2"
)

// birthdayLayout is the wire format for dog birthdays.
const birthdayLayout = "2006-01-02"

// GetDogs handles GET /api/dogs. Visitors see the approved directory;
// administrators see everything, filterable by status.
func (s *Server) GetDogs(c *fiber.Ctx) error {
	if s.actor(c).IsAdmin() {
		p := parsePagination(c, 50)
		var status *models.DogStatus
		if q := c.Query("status"); q != "" {
			st := models.DogStatus(q)
			if st != models.DogStatusPending && st != models.DogStatusApproved {
				return models.RespondWithError(c, fiber.StatusBadRequest,
					models.NewValidationError("Invalid status filter"))
			}
			status = &st
		}
		dogs, total, err := s.dogService.List(c.Context(), status, p.Limit, p.Offset)
		if err != nil {
			return respondServiceError(c, err)
		}
		return c.JSON(fiber.Map{"dogs": dogs, "total": total})
	}

	dogs, err := s.dogService.ListPublic(c.Context())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"dogs": dogs})
}

// GetDog handles GET /api/dogs/:id
func (s *Server) GetDog(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var dog *models.Dog
	if s.actor(c).IsAdmin() {
		dog, err = s.dogService.GetByID(c.Context(), id)
	} else {
		dog, err = s.dogService.GetPublic(c.Context(), id)
	}
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"dog": dog})
}

// GetDogMedia handles GET /api/dogs/:id/media
func (s *Server) GetDogMedia(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	medias, err := s.mediaService.ListByDog(c.Context(), s.actor(c), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"medias": medias})
}

// CreateDog handles POST /api/dogs
func (s *Server) CreateDog(c *fiber.Ctx) error {
	var req struct {
		Name     string `json:"name"`
		Sex      string `json:"sex"`
		Birthday string `json:"birthday"`
		Breed    string `json:"breed"`
		Coat     string `json:"coat"`
		OwnerID  uint   `json:"owner_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	in := service.CreateDogInput{
		Name:    req.Name,
		Sex:     req.Sex,
		Breed:   req.Breed,
		Coat:    req.Coat,
		OwnerID: req.OwnerID,
	}
	if req.Birthday != "" {
		birthday, err := time.Parse(birthdayLayout, req.Birthday)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid birthday (want YYYY-MM-DD)"))
		}
		in.Birthday = &birthday
	}

	dog, err := s.dogService.Create(c.Context(), s.actor(c), in)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"dog": dog})
}

// UpdateDog handles PATCH /api/dogs/:id. Absent fields stay untouched; an
// empty birthday string clears the date.
func (s *Server) UpdateDog(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Name     *string `json:"name"`
		Sex      *string `json:"sex"`
		Birthday *string `json:"birthday"`
		Breed    *string `json:"breed"`
		Coat     *string `json:"coat"`
		OwnerID  *uint   `json:"owner_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	in := service.UpdateDogInput{
		Name:    req.Name,
		Sex:     req.Sex,
		Breed:   req.Breed,
		Coat:    req.Coat,
		OwnerID: req.OwnerID,
	}
	if req.Birthday != nil {
		if *req.Birthday == "" {
			in.Birthday = &time.Time{}
		} else {
			birthday, err := time.Parse(birthdayLayout, *req.Birthday)
			if err != nil {
				return models.RespondWithError(c, fiber.StatusBadRequest,
					models.NewValidationError("Invalid birthday (want YYYY-MM-DD)"))
			}
			in.Birthday = &birthday
		}
	}

	dog, err := s.dogService.Update(c.Context(), s.actor(c), id, in)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"dog": dog})
}

// SetDogStatus handles PATCH /api/dogs/:id/status
func (s *Server) SetDogStatus(c *fiber.Ctx) error {
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

	dog, err := s.dogService.SetStatus(c.Context(), s.actor(c), id, models.DogStatus(req.Status))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"dog": dog})
}

// DeleteDog handles DELETE /api/dogs/:id
func (s *Server) DeleteDog(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.dogService.Delete(c.Context(), s.actor(c), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Dog deleted"})
}
