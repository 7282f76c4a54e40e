package repository

import (
	"context"
	"errors"
	"time"

	"chenil/internal/models"
	"chenil/internal/observability"

	"gorm.io/gorm"
)

// TokenRepository defines persistence operations for edit tokens.
type TokenRepository interface {
	GetByValue(ctx context.Context, value string) (*models.EditToken, error)
	GetByID(ctx context.Context, id uint) (*models.EditToken, error)
	Create(ctx context.Context, token *models.EditToken) error
	Update(ctx context.Context, token *models.EditToken) error
	List(ctx context.Context) ([]models.EditToken, error)
	RecordUsage(ctx context.Context, id uint, at time.Time) error
}

type tokenRepository struct {
	db      *gorm.DB
	metrics *observability.DatabaseMetrics
}

// NewTokenRepository returns a new TokenRepository implementation.
func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{db: db, metrics: observability.NewDatabaseMetrics(db)}
}

// GetByValue looks up a token by its opaque value. A missing token returns
// nil without error so admission can distinguish unknown from invalid.
func (r *tokenRepository) GetByValue(ctx context.Context, value string) (*models.EditToken, error) {
	defer r.metrics.TrackQuery("select", "edit_tokens")()

	var token models.EditToken
	if err := readDB(r.db).WithContext(ctx).Where("token = ?", value).First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &token, nil
}

func (r *tokenRepository) GetByID(ctx context.Context, id uint) (*models.EditToken, error) {
	var token models.EditToken
	if err := readDB(r.db).WithContext(ctx).First(&token, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Token", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &token, nil
}

func (r *tokenRepository) Create(ctx context.Context, token *models.EditToken) error {
	defer r.metrics.TrackQuery("insert", "edit_tokens")()

	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("Token value already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *tokenRepository) Update(ctx context.Context, token *models.EditToken) error {
	if err := r.db.WithContext(ctx).Save(token).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *tokenRepository) List(ctx context.Context) ([]models.EditToken, error) {
	var tokens []models.EditToken
	if err := readDB(r.db).WithContext(ctx).Order("created_at DESC").Find(&tokens).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return tokens, nil
}

// RecordUsage bumps the usage counter and stamps the last use in a single
// statement so concurrent writers never lose increments.
func (r *tokenRepository) RecordUsage(ctx context.Context, id uint, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&models.EditToken{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"usage_count":  gorm.Expr("usage_count + 1"),
			"last_used_at": at,
		}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
