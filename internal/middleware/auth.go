// Package middleware provides authentication and authorization middleware for the application.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"chenil/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

// JWT claim values for administrator sessions.
const (
	TokenIssuer   = "chenil-api"
	TokenAudience = "chenil-admin"
)

var (
	cfg *config.Config
	rdb *redis.Client
)

// InitMiddleware initializes authentication middleware with the given config
// and Redis client. The client backs the logout blacklist and may be nil.
func InitMiddleware(c *config.Config, r *redis.Client) {
	cfg = c
	rdb = r
}

// BlacklistKey derives the Redis key a revoked session's jti is stored under.
func BlacklistKey(jti string) string {
	return "jwt_blacklist:" + jti
}

// BearerToken extracts the token from an Authorization header, or "" when
// the header is absent or malformed.
func BearerToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// ParseAdminToken validates an administrator session token and returns the
// user ID it belongs to. It is non-terminal: callers decide whether a bad
// token means 401 or falling back to another credential.
func ParseAdminToken(ctx context.Context, tokenString string) (uint, error) {
	if cfg == nil {
		return 0, errors.New("middleware not initialized")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("invalid signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, errors.New("invalid token claims")
	}

	if issuer, issuerOk := claims["iss"].(string); !issuerOk || issuer != TokenIssuer {
		return 0, errors.New("invalid token issuer")
	}
	if audience, audienceOk := claims["aud"].(string); !audienceOk || audience != TokenAudience {
		return 0, errors.New("invalid token audience")
	}

	// A logged-out session's jti sits in the blacklist until the token
	// would have expired anyway.
	if jti, jtiOk := claims["jti"].(string); jtiOk && rdb != nil {
		if n, err := rdb.Exists(ctx, BlacklistKey(jti)).Result(); err == nil && n > 0 {
			return 0, errors.New("session revoked")
		}
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, errors.New("invalid token subject")
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil {
		return 0, errors.New("invalid user ID in token")
	}
	return uint(userID), nil
}

// AuthRequired is a middleware that enforces an administrator session for
// protected routes.
func AuthRequired(c *fiber.Ctx) error {
	tokenString := BearerToken(c)
	if tokenString == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authorization required",
		})
	}

	userID, err := ParseAdminToken(c.Context(), tokenString)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid or expired token",
		})
	}

	// Store user ID in context
	c.Locals("userID", userID)

	return c.Next()
}
