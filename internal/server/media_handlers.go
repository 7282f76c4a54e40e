package server

import (
	"io"

	"chenil/internal/models"
	"chenil/internal/service"

	"github.com/gofiber/fiber/v2"
)

// UploadMedia handles POST /api/dogs/:id/media. The file travels as the
// multipart field "file"; kind and caption ride alongside as form values.
func (s *Server) UploadMedia(c *fiber.Ctx) error {
	dogID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("No file uploaded"))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unreadable upload"))
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(file)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unreadable upload"))
	}

	media, err := s.mediaService.Upload(c.Context(), s.actor(c), service.UploadMediaInput{
		DogID:       dogID,
		Kind:        c.FormValue("kind"),
		Caption:     c.FormValue("caption"),
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Content:     content,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"media": media,
		"url":   s.mediaService.FileURL(media),
	})
}

// UpdateMedia handles PATCH /api/media/:id
func (s *Server) UpdateMedia(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Kind     *string `json:"kind"`
		Caption  *string `json:"caption"`
		Featured *bool   `json:"featured"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	media, err := s.mediaService.Update(c.Context(), s.actor(c), id, service.UpdateMediaInput{
		Kind:     req.Kind,
		Caption:  req.Caption,
		Featured: req.Featured,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"media": media})
}

// SetMediaStatus handles PATCH /api/media/:id/status
func (s *Server) SetMediaStatus(c *fiber.Ctx) error {
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

	media, err := s.mediaService.SetStatus(c.Context(), s.actor(c), id, models.MediaStatus(req.Status))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"media": media})
}

// DeleteMedia handles DELETE /api/media/:id
func (s *Server) DeleteMedia(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.mediaService.Delete(c.Context(), s.actor(c), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Media deleted"})
}
