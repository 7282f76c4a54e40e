package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"chenil/internal/models"
	"chenil/internal/observability"
	"chenil/internal/repository"
)

// tokenValueBytes is the entropy of a generated token value; hex-encoded it
// becomes the 36-character string handed to a family.
const tokenValueBytes = 18

// usageBumpTimeout bounds the detached usage-counter write.
const usageBumpTimeout = 5 * time.Second

// TokenService admits requests carrying an edit token and manages the token
// inventory for administrators.
type TokenService struct {
	tokens repository.TokenRepository

	// now is swapped in tests to pin expiry decisions.
	now func() time.Time
}

// NewTokenService returns a new TokenService.
func NewTokenService(tokens repository.TokenRepository) *TokenService {
	return &TokenService{tokens: tokens, now: time.Now}
}

// Admit resolves the actor behind a raw token value. A missing, unknown,
// inactive, or expired value yields an anonymous actor and granted=false;
// admission itself never returns an error. A granted admission bumps the
// token's usage statistics in a detached task that the caller never waits on.
func (s *TokenService) Admit(ctx context.Context, rawToken string) (models.Actor, bool) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		observability.AdmissionDenials.WithLabelValues("missing").Inc()
		return models.Actor{Kind: models.ActorAnonymous}, false
	}

	token, err := s.tokens.GetByValue(ctx, rawToken)
	if err != nil || token == nil {
		if err != nil {
			observability.GlobalLogger.ErrorContext(ctx, "Token lookup failed", "error", err)
		}
		observability.AdmissionDenials.WithLabelValues("unknown").Inc()
		return models.Actor{Kind: models.ActorAnonymous}, false
	}

	now := s.now()
	if !token.Usable(now) {
		reason := "inactive"
		if token.Active {
			reason = "expired"
		}
		observability.AdmissionDenials.WithLabelValues(reason).Inc()
		return models.Actor{Kind: models.ActorAnonymous}, false
	}

	s.bumpUsage(token.ID, now)
	return models.Actor{Kind: models.ActorToken, Label: token.Label}, true
}

// bumpUsage records a token use without blocking or failing admission.
func (s *TokenService) bumpUsage(id uint, at time.Time) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				observability.GlobalLogger.Error("Panic in token usage update", "token_id", id, "panic", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), usageBumpTimeout)
		defer cancel()

		observability.LogAsyncOperationStart(ctx, "token_usage_bump", map[string]interface{}{"token_id": id})
		if err := s.tokens.RecordUsage(ctx, id, at); err != nil {
			observability.LogAsyncOperationError(ctx, "token_usage_bump", err, map[string]interface{}{"token_id": id})
			return
		}
		observability.LogAsyncOperationEnd(ctx, "token_usage_bump", map[string]interface{}{"token_id": id})
	}()
}

// IssueTokenInput carries the administrator's parameters for a new token.
type IssueTokenInput struct {
	Label     string
	ExpiresAt *time.Time
}

// Issue creates a new active token with a freshly generated value.
func (s *TokenService) Issue(ctx context.Context, in IssueTokenInput) (*models.EditToken, error) {
	label := strings.TrimSpace(in.Label)
	if label == "" {
		return nil, models.NewValidationError("Label is required")
	}
	if len(label) > 120 {
		return nil, models.NewValidationError("Label too long (max 120 characters)")
	}
	if in.ExpiresAt != nil && in.ExpiresAt.Before(s.now()) {
		return nil, models.NewValidationError("Expiry must be in the future")
	}

	value, err := generateTokenValue()
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	token := &models.EditToken{
		Token:     value,
		Label:     label,
		Active:    true,
		ExpiresAt: in.ExpiresAt,
	}
	if err := s.tokens.Create(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

// List returns all tokens, newest first.
func (s *TokenService) List(ctx context.Context) ([]models.EditToken, error) {
	return s.tokens.List(ctx)
}

// UpdateTokenInput carries the editable token attributes. Nil fields are
// left untouched; a non-nil ExpiresAt pointing at the zero time clears the
// expiry.
type UpdateTokenInput struct {
	Label     *string
	ExpiresAt *time.Time
}

// Update edits a token's label or expiry. The token value itself is
// immutable.
func (s *TokenService) Update(ctx context.Context, id uint, in UpdateTokenInput) (*models.EditToken, error) {
	token, err := s.tokens.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Label != nil {
		label := strings.TrimSpace(*in.Label)
		if label == "" {
			return nil, models.NewValidationError("Label is required")
		}
		if len(label) > 120 {
			return nil, models.NewValidationError("Label too long (max 120 characters)")
		}
		token.Label = label
	}
	if in.ExpiresAt != nil {
		if in.ExpiresAt.IsZero() {
			token.ExpiresAt = nil
		} else {
			token.ExpiresAt = in.ExpiresAt
		}
	}

	if err := s.tokens.Update(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

// Deactivate retires a token. The row stays so audit attribution keeps
// resolving; there is no way to delete a token.
func (s *TokenService) Deactivate(ctx context.Context, id uint) (*models.EditToken, error) {
	token, err := s.tokens.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !token.Active {
		return token, nil
	}
	token.Active = false
	if err := s.tokens.Update(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

func generateTokenValue() (string, error) {
	buf := make([]byte, tokenValueBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
