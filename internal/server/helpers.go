package server

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"chenil/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

const (
	maxPaginationLimit = 100
)

// parsePagination extracts limit and offset query parameters with the given default limit.
func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	return Pagination{
		Limit:  limit,
		Offset: offset,
	}
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "dogId" -> "dog ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		prefix := param[:len(param)-2]
		words := splitCamel(prefix)
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}

// respondServiceError maps service-layer errors onto HTTP statuses.
func respondServiceError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case "NOT_FOUND":
			return models.RespondWithError(c, fiber.StatusNotFound, appErr)
		case "VALIDATION_ERROR":
			return models.RespondWithError(c, fiber.StatusBadRequest, appErr)
		case "UNAUTHORIZED":
			return models.RespondWithError(c, fiber.StatusUnauthorized, appErr)
		case "FORBIDDEN":
			return models.RespondWithError(c, fiber.StatusForbidden, appErr)
		}
	}
	return models.RespondWithError(c, fiber.StatusInternalServerError, err)
}

// isAdmin checks whether the given user has admin privileges.
func (s *Server) isAdmin(c *fiber.Ctx, userID uint) (bool, error) {
	return s.isAdminByUserID(c.Context(), userID)
}

func (s *Server) isAdminByUserID(ctx context.Context, userID uint) (bool, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Select("is_admin").First(&user, userID).Error; err != nil {
		return false, err
	}
	return user.IsAdmin, nil
}
