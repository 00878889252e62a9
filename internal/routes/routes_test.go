package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/mukofot/internal/cache"
	"github.com/example/mukofot/internal/config"
	"github.com/example/mukofot/internal/utils"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:               logger.Default.LogMode(logger.Silent),
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)
	return gdb, mock
}

func newTestApp(t *testing.T) (*fiber.App, sqlmock.Sqlmock, *config.Config) {
	t.Helper()

	gdb, mock := newMockDB(t)
	cfg := &config.Config{
		JWTSecret:     "test-secret",
		TokenExpires:  time.Hour,
		UploadDir:     t.TempDir(),
		TempUploadDir: t.TempDir(),
	}

	app := fiber.New()
	Register(app, gdb, cache.NewMemory(), cfg)
	return app, mock, cfg
}

func bearerFor(t *testing.T, cfg *config.Config, userID uuid.UUID) string {
	t.Helper()
	token, err := utils.GenerateToken(cfg.JWTSecret, userID, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

// A regular user's request for their own application must reach the detail
// handler instead of being rejected by the staff gate.
func TestApplicationDetailReachableByOwner(t *testing.T) {
	app, mock, cfg := newTestApp(t)
	userID := uuid.New()

	// Not staff; no such application. The handler answers 404, which proves
	// the request was not cut off with a 403 on the way in.
	mock.ExpectQuery(`FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"is_staff"}))
	mock.ExpectQuery(`FROM "applications"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	req := httptest.NewRequest(http.MethodGet, "/api/applications/"+uuid.New().String(), nil)
	req.Header.Set("Authorization", bearerFor(t, cfg, userID))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationStatsStaffOnly(t *testing.T) {
	app, mock, cfg := newTestApp(t)
	userID := uuid.New()

	mock.ExpectQuery(`FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "is_staff"}).
			AddRow(userID.String(), false))

	req := httptest.NewRequest(http.MethodGet, "/api/applications/stats", nil)
	req.Header.Set("Authorization", bearerFor(t, cfg, userID))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatusUpdateStaffOnly(t *testing.T) {
	app, mock, cfg := newTestApp(t)
	userID := uuid.New()

	mock.ExpectQuery(`FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "is_staff"}).
			AddRow(userID.String(), false))

	req := httptest.NewRequest(http.MethodPatch,
		"/api/applications/"+uuid.New().String()+"/status", nil)
	req.Header.Set("Authorization", bearerFor(t, cfg, userID))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app, _, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/applications", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
