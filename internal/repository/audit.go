package repository

import (
	"context"
	"errors"

	"chenil/internal/models"
	"chenil/internal/observability"

	"gorm.io/gorm"
)

// AuditFilter narrows audit listings. Zero values mean no filtering.
type AuditFilter struct {
	EntityKind models.EntityKind
	Status     models.AuditStatus
	DogID      uint
	Limit      int
	Offset     int
}

// AuditRepository defines persistence operations for the audit trail.
// Entries are append-only; nothing but Status ever changes after creation.
type AuditRepository interface {
	Create(ctx context.Context, entry *models.AuditEntry) error
	GetByID(ctx context.Context, id uint) (*models.AuditEntry, error)
	List(ctx context.Context, filter AuditFilter) ([]models.AuditEntry, int64, error)
	SetStatus(ctx context.Context, id uint, status models.AuditStatus) error
	CountPending(ctx context.Context) (int64, error)
}

type auditRepository struct {
	db      *gorm.DB
	metrics *observability.DatabaseMetrics
	log     *observability.RepoLogger
}

// NewAuditRepository returns a new AuditRepository implementation.
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{
		db:      db,
		metrics: observability.NewDatabaseMetrics(db),
		log:     observability.NewRepoLogger("audit_entries"),
	}
}

func (r *auditRepository) Create(ctx context.Context, entry *models.AuditEntry) error {
	defer r.metrics.TrackQuery("insert", "audit_entries")()

	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	return nil
}

func (r *auditRepository) GetByID(ctx context.Context, id uint) (*models.AuditEntry, error) {
	var entry models.AuditEntry
	if err := readDB(r.db).WithContext(ctx).First(&entry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Audit entry", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &entry, nil
}

func (r *auditRepository) List(ctx context.Context, filter AuditFilter) ([]models.AuditEntry, int64, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	query := readDB(r.db).WithContext(ctx).Model(&models.AuditEntry{})
	if filter.EntityKind != "" {
		query = query.Where("entity_kind = ?", filter.EntityKind)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.DogID != 0 {
		query = query.Where("dog_id = ?", filter.DogID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var entries []models.AuditEntry
	err := query.Order("created_at DESC, id DESC").
		Limit(limit).Offset(filter.Offset).
		Find(&entries).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return entries, total, nil
}

// SetStatus is the single permitted mutation of an existing entry.
func (r *auditRepository) SetStatus(ctx context.Context, id uint, status models.AuditStatus) error {
	result := r.db.WithContext(ctx).Model(&models.AuditEntry{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Audit entry", id)
	}
	r.log.LogUpdate(ctx, map[string]interface{}{"id": id, "status": string(status)})
	return nil
}

func (r *auditRepository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := readDB(r.db).WithContext(ctx).Model(&models.AuditEntry{}).
		Where("status = ?", models.AuditStatusPending).
		Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
