package testutils

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Kyz7/portfolio/internal/auth"
	"github.com/Kyz7/portfolio/internal/config"
	"github.com/Kyz7/portfolio/internal/database"
	"github.com/Kyz7/portfolio/internal/models"
	"github.com/Kyz7/portfolio/internal/server"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const TestSecret = "test-secret-key-that-is-at-least-32-characters"

// Logger discards everything below error level.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "Failed to create test database")

	// every connection would open its own :memory: database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(database.Models()...)
	require.NoError(t, err, "Failed to migrate test database")

	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestConfig(t *testing.T) *config.Config {
	return &config.Config{
		Env:              config.EnvLocal,
		JWTSecret:        TestSecret,
		JWTTTL:           time.Hour,
		ModerationPolicy: "auto_approve",
		UploadDir:        t.TempDir(),
		CategoryCacheTTL: time.Minute,
		SettingsCacheTTL: time.Minute,
		TagSyncInterval:  time.Hour,
		CORSOrigins:      "*",
	}
}

// Cleaner records discarded assets instead of deleting them.
type Cleaner struct {
	mu   sync.Mutex
	uris []string
}

func (c *Cleaner) Discard(uri string) {
	if uri == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.uris = append(c.uris, uri)
}

func (c *Cleaner) Discarded() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.uris...)
}

type App struct {
	*fiber.App
	DB      *gorm.DB
	Cleaner *Cleaner
}

// SetupTestApp builds the real application on an in-memory database.
// Options may adjust the configuration first.
func SetupTestApp(t *testing.T, opts ...func(*config.Config)) *App {
	db := TestDB(t)
	cfg := TestConfig(t)
	for _, o := range opts {
		o(cfg)
	}

	cleaner := &Cleaner{}
	app, err := server.New(db, cfg, Logger(), cleaner)
	require.NoError(t, err, "Failed to build app")

	return &App{App: app, DB: db, Cleaner: cleaner}
}

func CreateTestUser(t *testing.T, db *gorm.DB, username, role string) *models.User {
	hashed, err := auth.HashPassword("password123")
	require.NoError(t, err)

	u := &models.User{
		Username: username,
		Password: hashed,
		Role:     role,
		Nickname: username,
	}
	err = db.Create(u).Error
	assert.NoError(t, err, "Failed to create test user")
	return u
}

func GetAuthToken(t *testing.T, userID uint, role string) string {
	token, err := auth.NewTokenManager(TestSecret, time.Hour).Generate(userID, role)
	assert.NoError(t, err, "Failed to generate test token")
	return token
}

// CreateResource inserts a resource directly, bypassing the service.
func CreateResource(t *testing.T, db *gorm.DB, r models.Resource) *models.Resource {
	if r.Status == "" {
		r.Status = models.StatusApproved
	}
	err := db.Create(&r).Error
	require.NoError(t, err, "Failed to create resource")
	return &r
}

func MakeRequest(app *fiber.App, method, url string, body interface{}, token string) (*httptest.ResponseRecorder, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(jsonBody)
	}

	req := httptest.NewRequest(method, url, bodyReader)
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()

	resp, err := app.Test(req, -1)
	if err != nil {
		return rec, err
	}

	rec.Code = resp.StatusCode

	io.Copy(rec.Body, resp.Body)
	resp.Body.Close()

	return rec, nil
}

func ParseResponse(t *testing.T, resp *httptest.ResponseRecorder, v interface{}) {
	if resp.Body.Len() == 0 {
		t.Log("Warning: Response body is empty")
		return
	}

	err := json.NewDecoder(resp.Body).Decode(v)
	if err != nil && err != io.EOF {
		t.Logf("Response body: %s", resp.Body.String())
		assert.NoError(t, err, "Failed to parse response")
	}
}

type StandardResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    interface{}  `json:"data"`
	Error   *ErrorDetail `json:"error"`
	Meta    *Meta        `json:"meta"`
}

type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details"`
}

type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

func AssertSuccess(t *testing.T, resp *httptest.ResponseRecorder) {
	var result StandardResponse
	ParseResponse(t, resp, &result)
	assert.True(t, result.Success, "Expected success response")
	assert.Empty(t, result.Error, "Expected no error")
}

func AssertError(t *testing.T, resp *httptest.ResponseRecorder, expectedCode string) {
	var result StandardResponse
	ParseResponse(t, resp, &result)
	assert.False(t, result.Success, "Expected error response")
	if assert.NotNil(t, result.Error, "Expected error object") {
		assert.Equal(t, expectedCode, result.Error.Code, "Error code mismatch")
	}
}
