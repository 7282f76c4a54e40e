package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"chenil/internal/config"
	"chenil/internal/database"
	"chenil/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testServer struct {
	*Server
	app *fiber.App
	mr  *miniredis.Miniredis
}

func newTestServer(t *testing.T, opts ...func(*config.Config)) *testServer {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// Each :memory: connection is its own database; keep the pool at one so
	// detached goroutines see the same tables.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	require.NoError(t, db.Create(&models.SiteSetting{
		ID:             models.SiteSettingID,
		ModerationMode: models.ModerationAutoApprove,
	}).Error)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{
		Port:           "0",
		Env:            "test",
		JWTSecret:      "server-test-secret-0123456789abcdef",
		TokenCookie:    "edit_token",
		SiteName:       "Chenil",
		PublicBaseURL:  "http://public.local",
		AdminBaseURL:   "http://admin.local",
		StorageBackend: "local",
		UploadDir:      t.TempDir(),
		UploadMaxMB:    4,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	srv, err := NewServerWithDeps(cfg, db, rdb)
	require.NoError(t, err)

	app := fiber.New()
	srv.SetupRoutes(app)

	return &testServer{Server: srv, app: app, mr: mr}
}

// request performs one in-process HTTP round trip against the test app.
func (ts *testServer) request(t *testing.T, method, path string, body interface{}, opts ...func(*http.Request)) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}

	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func asAdmin(token string) func(*http.Request) {
	return func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func withEditToken(value string) func(*http.Request) {
	return func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: "edit_token", Value: value})
	}
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

const testAdminPassword = "correct-horse-battery"

// seedAdmin creates an administrator account and returns it with a valid
// session token.
func (ts *testServer) seedAdmin(t *testing.T, email string) (*models.User, string) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testAdminPassword), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{Email: email, Name: "Admin", Password: string(hash), IsAdmin: true}
	require.NoError(t, ts.db.Create(user).Error)

	token, err := ts.generateToken(user.ID)
	require.NoError(t, err)
	return user, token
}

func (ts *testServer) seedEditToken(t *testing.T, label, value string, active bool, expiresAt *time.Time) *models.EditToken {
	t.Helper()

	token := &models.EditToken{Token: value, Label: label, Active: active, ExpiresAt: expiresAt}
	require.NoError(t, ts.db.Create(token).Error)
	return token
}

func (ts *testServer) seedOwner(t *testing.T, name string) *models.Owner {
	t.Helper()

	owner := &models.Owner{Name: name, City: "Lyon"}
	require.NoError(t, ts.db.Create(owner).Error)
	return owner
}

func (ts *testServer) seedDog(t *testing.T, name string, ownerID uint, status models.DogStatus) *models.Dog {
	t.Helper()

	dog := &models.Dog{Name: name, OwnerID: ownerID, Coat: "black", Status: status}
	require.NoError(t, ts.db.Create(dog).Error)
	return dog
}

func (ts *testServer) setModerationMode(t *testing.T, mode models.ModerationMode) {
	t.Helper()

	err := ts.db.Model(&models.SiteSetting{}).
		Where("id = ?", models.SiteSettingID).
		Update("moderation_mode", mode).Error
	require.NoError(t, err)
}

func (ts *testServer) auditEntries(t *testing.T) []models.AuditEntry {
	t.Helper()

	var entries []models.AuditEntry
	require.NoError(t, ts.db.Order("id").Find(&entries).Error)
	return entries
}

func mustParseDate(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return parsed
}

// multipartBody builds a multipart request body with one file part plus the
// given form fields.
func multipartBody(t *testing.T, filename string, content []byte, fields map[string]string) (io.Reader, string) {
	t.Helper()

	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)

	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)

	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())
	return buf, writer.FormDataContentType()
}

// recordingPusher records delivered endpoints and answers with a canned
// status per endpoint (201 by default).
type recordingPusher struct {
	mu       sync.Mutex
	sent     []string
	statuses map[string]int
}

func (p *recordingPusher) Send(_ context.Context, sub *models.PushSubscription, _ []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, sub.Endpoint)
	if status, ok := p.statuses[sub.Endpoint]; ok {
		return status, nil
	}
	return http.StatusCreated, nil
}

func (p *recordingPusher) endpoints() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.sent...)
}
