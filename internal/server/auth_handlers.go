package server

import (
	"fmt"
	"strconv"
	"time"

	"chenil/internal/middleware"
	"chenil/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// adminSessionTTL is how long an issued administrator token stays valid.
const adminSessionTTL = 7 * 24 * time.Hour

// Login handles POST /api/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userRepo.GetByEmail(c.Context(), req.Email)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	if user == nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid credentials"))
	}

	if cmpErr := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); cmpErr != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid credentials"))
	}

	token, err := s.generateToken(user.ID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// Logout handles POST /api/auth/logout. The session's jti goes on the Redis
// blacklist until the token would have expired on its own.
func (s *Server) Logout(c *fiber.Ctx) error {
	tokenString := middleware.BearerToken(c)
	if tokenString == "" || s.redis == nil {
		return c.JSON(fiber.Map{"message": "Logged out"})
	}

	// The token passed AuthRequired already; parse unverified just for claims.
	token, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	if err == nil {
		if claims, ok := token.Claims.(jwt.MapClaims); ok {
			jti, _ := claims["jti"].(string)
			if jti != "" {
				ttl := adminSessionTTL
				if exp, expOk := claims["exp"].(float64); expOk {
					if remaining := time.Until(time.Unix(int64(exp), 0)); remaining > 0 {
						ttl = remaining
					}
				}
				if err := s.redis.Set(c.Context(), middleware.BlacklistKey(jti), "1", ttl).Err(); err != nil {
					return models.RespondWithError(c, fiber.StatusInternalServerError,
						models.NewInternalError(err))
				}
			}
		}
	}

	return c.JSON(fiber.Map{"message": "Logged out"})
}

// Me handles GET /api/auth/me
func (s *Server) Me(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	user, err := s.userRepo.GetByID(c.Context(), userID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

// generateToken creates a JWT token for the given administrator
func (s *Server) generateToken(userID uint) (string, error) {
	if s.config.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10), // Subject (user ID as string)
		"iss": middleware.TokenIssuer,                 // Issuer
		"aud": middleware.TokenAudience,               // Audience
		"exp": now.Add(adminSessionTTL).Unix(),        // Expiration (7 days)
		"iat": now.Unix(),                             // Issued at
		"nbf": now.Unix(),                             // Not before
		"jti": s.generateJTI(),                        // JWT ID (unique identifier)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// generateJTI creates a unique JWT ID so sessions can be revoked one by one
func (s *Server) generateJTI() string {
	return fmt.Sprintf("%d-%s", time.Now().Unix(), uuid.New().String()[:8])
}
