package service

import (
	"context"
	"sync"
	"time"

	"chenil/internal/config"
	"chenil/internal/models"
	"chenil/internal/repository"
)

// dogRepoStub is a stub for repository.DogRepository.
type dogRepoStub struct {
	getByIDFn      func(context.Context, uint) (*models.Dog, error)
	listPublicFn   func(context.Context) ([]models.Dog, error)
	listFn         func(context.Context, *models.DogStatus, int, int) ([]models.Dog, int64, error)
	createFn       func(context.Context, *models.Dog) error
	updateFn       func(context.Context, *models.Dog) error
	updateFieldsFn func(context.Context, uint, map[string]interface{}) error
	setStatusFn    func(context.Context, uint, models.DogStatus) error
	deleteFn       func(context.Context, uint) error
	countByOwnerFn func(context.Context, uint) (int64, error)
}

func (s *dogRepoStub) GetByID(ctx context.Context, id uint) (*models.Dog, error) {
	return s.getByIDFn(ctx, id)
}
func (s *dogRepoStub) ListPublic(ctx context.Context) ([]models.Dog, error) {
	return s.listPublicFn(ctx)
}
func (s *dogRepoStub) List(ctx context.Context, status *models.DogStatus, limit, offset int) ([]models.Dog, int64, error) {
	return s.listFn(ctx, status, limit, offset)
}
func (s *dogRepoStub) Create(ctx context.Context, dog *models.Dog) error {
	return s.createFn(ctx, dog)
}
func (s *dogRepoStub) Update(ctx context.Context, dog *models.Dog) error {
	return s.updateFn(ctx, dog)
}
func (s *dogRepoStub) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	return s.updateFieldsFn(ctx, id, fields)
}
func (s *dogRepoStub) SetStatus(ctx context.Context, id uint, status models.DogStatus) error {
	return s.setStatusFn(ctx, id, status)
}
func (s *dogRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *dogRepoStub) CountByOwner(ctx context.Context, ownerID uint) (int64, error) {
	return s.countByOwnerFn(ctx, ownerID)
}

func noopDogRepo() *dogRepoStub {
	return &dogRepoStub{
		getByIDFn:      func(_ context.Context, id uint) (*models.Dog, error) { return &models.Dog{ID: id}, nil },
		listPublicFn:   func(_ context.Context) ([]models.Dog, error) { return nil, nil },
		listFn:         func(_ context.Context, _ *models.DogStatus, _, _ int) ([]models.Dog, int64, error) { return nil, 0, nil },
		createFn:       func(_ context.Context, _ *models.Dog) error { return nil },
		updateFn:       func(_ context.Context, _ *models.Dog) error { return nil },
		updateFieldsFn: func(_ context.Context, _ uint, _ map[string]interface{}) error { return nil },
		setStatusFn:    func(_ context.Context, _ uint, _ models.DogStatus) error { return nil },
		deleteFn:       func(_ context.Context, _ uint) error { return nil },
		countByOwnerFn: func(_ context.Context, _ uint) (int64, error) { return 0, nil },
	}
}

// ownerRepoStub is a stub for repository.OwnerRepository.
type ownerRepoStub struct {
	getByIDFn func(context.Context, uint) (*models.Owner, error)
	listFn    func(context.Context) ([]models.Owner, error)
	createFn  func(context.Context, *models.Owner) error
	updateFn  func(context.Context, *models.Owner) error
	deleteFn  func(context.Context, uint) error
}

func (s *ownerRepoStub) GetByID(ctx context.Context, id uint) (*models.Owner, error) {
	return s.getByIDFn(ctx, id)
}
func (s *ownerRepoStub) List(ctx context.Context) ([]models.Owner, error) {
	return s.listFn(ctx)
}
func (s *ownerRepoStub) Create(ctx context.Context, owner *models.Owner) error {
	return s.createFn(ctx, owner)
}
func (s *ownerRepoStub) Update(ctx context.Context, owner *models.Owner) error {
	return s.updateFn(ctx, owner)
}
func (s *ownerRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopOwnerRepo() *ownerRepoStub {
	return &ownerRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.Owner, error) { return &models.Owner{ID: id}, nil },
		listFn:    func(_ context.Context) ([]models.Owner, error) { return nil, nil },
		createFn:  func(_ context.Context, _ *models.Owner) error { return nil },
		updateFn:  func(_ context.Context, _ *models.Owner) error { return nil },
		deleteFn:  func(_ context.Context, _ uint) error { return nil },
	}
}

// mediaRepoStub is a stub for repository.MediaRepository.
type mediaRepoStub struct {
	getByIDFn       func(context.Context, uint) (*models.Media, error)
	listByDogFn     func(context.Context, uint, bool) ([]models.Media, error)
	createFn        func(context.Context, *models.Media) error
	updateFn        func(context.Context, *models.Media) error
	setStatusFn     func(context.Context, uint, models.MediaStatus) error
	setFeaturedFn   func(context.Context, uint, uint) error
	countFeaturedFn func(context.Context, uint) (int64, error)
	deleteFn        func(context.Context, uint) error
}

func (s *mediaRepoStub) GetByID(ctx context.Context, id uint) (*models.Media, error) {
	return s.getByIDFn(ctx, id)
}
func (s *mediaRepoStub) ListByDog(ctx context.Context, dogID uint, onlyApproved bool) ([]models.Media, error) {
	return s.listByDogFn(ctx, dogID, onlyApproved)
}
func (s *mediaRepoStub) Create(ctx context.Context, media *models.Media) error {
	return s.createFn(ctx, media)
}
func (s *mediaRepoStub) Update(ctx context.Context, media *models.Media) error {
	return s.updateFn(ctx, media)
}
func (s *mediaRepoStub) SetStatus(ctx context.Context, id uint, status models.MediaStatus) error {
	return s.setStatusFn(ctx, id, status)
}
func (s *mediaRepoStub) SetFeatured(ctx context.Context, dogID, mediaID uint) error {
	return s.setFeaturedFn(ctx, dogID, mediaID)
}
func (s *mediaRepoStub) CountFeatured(ctx context.Context, dogID uint) (int64, error) {
	return s.countFeaturedFn(ctx, dogID)
}
func (s *mediaRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopMediaRepo() *mediaRepoStub {
	return &mediaRepoStub{
		getByIDFn:       func(_ context.Context, id uint) (*models.Media, error) { return &models.Media{ID: id}, nil },
		listByDogFn:     func(_ context.Context, _ uint, _ bool) ([]models.Media, error) { return nil, nil },
		createFn:        func(_ context.Context, _ *models.Media) error { return nil },
		updateFn:        func(_ context.Context, _ *models.Media) error { return nil },
		setStatusFn:     func(_ context.Context, _ uint, _ models.MediaStatus) error { return nil },
		setFeaturedFn:   func(_ context.Context, _, _ uint) error { return nil },
		countFeaturedFn: func(_ context.Context, _ uint) (int64, error) { return 0, nil },
		deleteFn:        func(_ context.Context, _ uint) error { return nil },
	}
}

// tokenRepoStub is a stub for repository.TokenRepository.
type tokenRepoStub struct {
	mu sync.Mutex

	getByValueFn  func(context.Context, string) (*models.EditToken, error)
	getByIDFn     func(context.Context, uint) (*models.EditToken, error)
	createFn      func(context.Context, *models.EditToken) error
	updateFn      func(context.Context, *models.EditToken) error
	listFn        func(context.Context) ([]models.EditToken, error)
	recordUsageFn func(context.Context, uint, time.Time) error

	usageCalls []uint
}

func (s *tokenRepoStub) GetByValue(ctx context.Context, value string) (*models.EditToken, error) {
	return s.getByValueFn(ctx, value)
}
func (s *tokenRepoStub) GetByID(ctx context.Context, id uint) (*models.EditToken, error) {
	return s.getByIDFn(ctx, id)
}
func (s *tokenRepoStub) Create(ctx context.Context, token *models.EditToken) error {
	return s.createFn(ctx, token)
}
func (s *tokenRepoStub) Update(ctx context.Context, token *models.EditToken) error {
	return s.updateFn(ctx, token)
}
func (s *tokenRepoStub) List(ctx context.Context) ([]models.EditToken, error) {
	return s.listFn(ctx)
}
func (s *tokenRepoStub) RecordUsage(ctx context.Context, id uint, at time.Time) error {
	s.mu.Lock()
	s.usageCalls = append(s.usageCalls, id)
	s.mu.Unlock()
	if s.recordUsageFn != nil {
		return s.recordUsageFn(ctx, id, at)
	}
	return nil
}

func (s *tokenRepoStub) usageCallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.usageCalls)
}

func noopTokenRepo() *tokenRepoStub {
	return &tokenRepoStub{
		getByValueFn: func(_ context.Context, _ string) (*models.EditToken, error) { return nil, nil },
		getByIDFn:    func(_ context.Context, id uint) (*models.EditToken, error) { return &models.EditToken{ID: id}, nil },
		createFn:     func(_ context.Context, _ *models.EditToken) error { return nil },
		updateFn:     func(_ context.Context, _ *models.EditToken) error { return nil },
		listFn:       func(_ context.Context) ([]models.EditToken, error) { return nil, nil },
	}
}

// settingRepoStub is a stub for repository.SettingRepository holding one
// in-memory settings row.
type settingRepoStub struct {
	mu      sync.Mutex
	setting models.SiteSetting
	getErr  error
}

func newSettingRepoStub(mode models.ModerationMode) *settingRepoStub {
	return &settingRepoStub{setting: models.SiteSetting{ID: 1, ModerationMode: mode}}
}

func (s *settingRepoStub) Get(_ context.Context) (*models.SiteSetting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	setting := s.setting
	return &setting, nil
}

func (s *settingRepoStub) Ensure(_ context.Context) error { return nil }

func (s *settingRepoStub) UpdateModerationMode(_ context.Context, mode models.ModerationMode) (*models.SiteSetting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setting.ModerationMode = mode
	setting := s.setting
	return &setting, nil
}

// auditRepoStub is a stub for repository.AuditRepository collecting created
// entries in memory.
type auditRepoStub struct {
	mu      sync.Mutex
	entries []models.AuditEntry

	createErr error
}

func (s *auditRepoStub) Create(_ context.Context, entry *models.AuditEntry) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.ID = uint(len(s.entries) + 1)
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *auditRepoStub) GetByID(_ context.Context, id uint) (*models.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.ID == id {
			entry := e
			return &entry, nil
		}
	}
	return nil, models.NewNotFoundError("Audit entry", id)
}

func (s *auditRepoStub) List(_ context.Context, _ repository.AuditFilter) ([]models.AuditEntry, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]models.AuditEntry(nil), s.entries...)
	return out, int64(len(out)), nil
}

func (s *auditRepoStub) SetStatus(_ context.Context, id uint, status models.AuditStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries[i].Status = status
			return nil
		}
	}
	return models.NewNotFoundError("Audit entry", id)
}

func (s *auditRepoStub) CountPending(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, e := range s.entries {
		if e.Status == models.AuditStatusPending {
			n++
		}
	}
	return n, nil
}

func (s *auditRepoStub) created() []models.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.AuditEntry(nil), s.entries...)
}

func (s *auditRepoStub) last() models.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[len(s.entries)-1]
}

// publisherRecorder collects published mutation events.
type publisherRecorder struct {
	mu     sync.Mutex
	events []models.MutationEvent
}

func (p *publisherRecorder) PublishMutation(_ context.Context, event models.MutationEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *publisherRecorder) published() []models.MutationEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.MutationEvent(nil), p.events...)
}

// newTestAudit wires an AuditService over in-memory stubs with the given
// moderation mode.
func newTestAudit(mode models.ModerationMode) (*AuditService, *auditRepoStub, *ModerationService) {
	audits := &auditRepoStub{}
	gate := NewModerationService(newSettingRepoStub(mode))
	svc := NewAuditService(audits, gate, &config.Config{
		PublicBaseURL: "http://public.local",
		AdminBaseURL:  "http://admin.local",
	})
	return svc, audits, gate
}

var (
	adminActor = models.Actor{Kind: models.ActorAdmin, Label: "admin@chenil.fr"}
	tokenActor = models.Actor{Kind: models.ActorToken, Label: "Family A"}
)
