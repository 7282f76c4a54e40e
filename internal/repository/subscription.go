package repository

import (
	"context"

	"chenil/internal/models"
	"chenil/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubscriptionRepository defines persistence operations for push subscriptions.
type SubscriptionRepository interface {
	Upsert(ctx context.Context, sub *models.PushSubscription) error
	List(ctx context.Context) ([]models.PushSubscription, error)
	ListNotifiable(ctx context.Context) ([]models.PushSubscription, error)
	DeleteByEndpoint(ctx context.Context, endpoint string) error
	Delete(ctx context.Context, id uint) error
}

type subscriptionRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewSubscriptionRepository returns a new SubscriptionRepository implementation.
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{
		db:  db,
		log: observability.NewRepoLogger("push_subscriptions"),
	}
}

// Upsert registers a browser endpoint, refreshing its keys when it is
// already known. Browsers rotate keys on re-subscription.
func (r *subscriptionRepository) Upsert(ctx context.Context, sub *models.PushSubscription) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth", "admin_notify"}),
	}).Create(sub).Error
	if err != nil {
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]interface{}{"id": sub.ID})
	return nil
}

func (r *subscriptionRepository) List(ctx context.Context) ([]models.PushSubscription, error) {
	var subs []models.PushSubscription
	err := readDB(r.db).WithContext(ctx).Order("id").Find(&subs).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return subs, nil
}

func (r *subscriptionRepository) ListNotifiable(ctx context.Context) ([]models.PushSubscription, error) {
	var subs []models.PushSubscription
	err := readDB(r.db).WithContext(ctx).
		Where("admin_notify = ?", true).
		Find(&subs).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return subs, nil
}

func (r *subscriptionRepository) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	err := r.db.WithContext(ctx).Where("endpoint = ?", endpoint).Delete(&models.PushSubscription{}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	r.log.LogDelete(ctx, map[string]interface{}{"endpoint": endpoint})
	return nil
}

func (r *subscriptionRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.PushSubscription{}, id)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Subscription", id)
	}
	r.log.LogDelete(ctx, map[string]interface{}{"id": id})
	return nil
}
