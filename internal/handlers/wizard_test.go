package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/mukofot/internal/cache"
	"github.com/example/mukofot/internal/config"
	"github.com/example/mukofot/internal/middleware"
	"github.com/example/mukofot/internal/services"
	"github.com/example/mukofot/internal/utils"
)

func validStep1() step1Request {
	return step1Request{
		FirstName:    "Aziz",
		LastName:     "Karimov",
		Pinfl:        "12345678901234",
		PhoneNumber:  "+998901234567",
		Area:         "Toshkent",
		District:     "Yunusabad",
		Neighborhood: "Bogishamol",
	}
}

func TestStep1ValidateOK(t *testing.T) {
	req := validStep1()
	assert.Empty(t, req.validate())
}

func TestStep1ValidateFieldErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*step1Request)
		field  string
	}{
		{"missing first name", func(r *step1Request) { r.FirstName = "" }, "first_name"},
		{"missing last name", func(r *step1Request) { r.LastName = "" }, "last_name"},
		{"short pinfl", func(r *step1Request) { r.Pinfl = "1234" }, "pinfl"},
		{"bad phone", func(r *step1Request) { r.PhoneNumber = "abc" }, "phone_number"},
		{"unknown area", func(r *step1Request) { r.Area = "Atlantis" }, "area"},
		{"missing district", func(r *step1Request) { r.District = "" }, "district"},
		{"missing neighborhood", func(r *step1Request) { r.Neighborhood = "" }, "neighborhood"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validStep1()
			tt.mutate(&req)
			assert.Contains(t, req.validate(), tt.field)
		})
	}
}

func TestStep2Validate(t *testing.T) {
	req := step2Request{
		Activity:            "Community volunteering",
		ActivityDescription: strings.Repeat("a", 50),
	}
	assert.Empty(t, req.validate())

	req.Activity = ""
	assert.Contains(t, req.validate(), "activity")

	req.Activity = strings.Repeat("x", 201)
	assert.Contains(t, req.validate(), "activity")

	req = step2Request{Activity: "ok", ActivityDescription: strings.Repeat("a", 49)}
	assert.Contains(t, req.validate(), "activity_description")
}

func TestUndoMovesRestoresFiles(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "staged.pdf")
	dst := filepath.Join(dir, "final", "moved.pdf")
	require.NoError(t, os.WriteFile(src, []byte("doc"), 0o644))
	require.NoError(t, utils.MoveFile(src, dst))

	undoMoves([]stagedMove{{src: src, dst: dst}})

	data, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, "doc", string(data))
	_, err = os.Stat(dst)
	assert.True(t, os.IsNotExist(err))
}

func TestSubmitFailureKeepsStagedUploads(t *testing.T) {
	gdb, mock := newMockDB(t)

	userID := uuid.New()
	rewardID := uuid.New()

	tempDir := t.TempDir()
	recPath := filepath.Join(tempDir, "temp_rec_letter.pdf")
	certPath := filepath.Join(tempDir, "temp_cert_scan.pdf")
	require.NoError(t, os.WriteFile(recPath, []byte("rec"), 0o644))
	require.NoError(t, os.WriteFile(certPath, []byte("cert"), 0o644))

	ctx := context.Background()
	drafts := services.NewDraftStore(cache.NewMemory())
	_, err := drafts.SaveStep1(ctx, userID, rewardID, services.DraftStep1{
		FirstName: "Aziz", LastName: "Karimov", Pinfl: "12345678901234",
		PhoneNumber: "+998901234567", Area: "Toshkent",
		District: "Yunusabad", Neighborhood: "Bogishamol",
	})
	require.NoError(t, err)
	_, err = drafts.SaveStep2(ctx, userID, rewardID, services.DraftStep2{
		Activity:            "Community volunteering",
		ActivityDescription: strings.Repeat("a", 50),
	})
	require.NoError(t, err)
	_, err = drafts.SaveStep3(ctx, userID, rewardID, services.DraftStep3{
		RecommendationLetter: &services.DraftFile{OriginalName: "letter.pdf", Path: recPath, Size: 3},
		Certificates:         []services.DraftFile{{OriginalName: "scan.pdf", Path: certPath, Size: 4}},
	})
	require.NoError(t, err)

	cfg := &config.Config{
		JWTSecret:     "test-secret",
		TokenExpires:  time.Hour,
		UploadDir:     filepath.Join(t.TempDir(), "uploads"),
		TempUploadDir: tempDir,
	}
	h := NewWizardHandler(gdb, cfg, drafts, services.NewNotificationService(gdb))

	// Reward lookup and duplicate check succeed, then the transaction dies at
	// the application insert.
	mock.ExpectQuery(`FROM "rewards"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(rewardID.String(), "Mard o'g'lon"))
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM "applications"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	token, err := utils.GenerateToken(cfg.JWTSecret, userID, time.Hour)
	require.NoError(t, err)

	app := fiber.New()
	app.Post("/submit", middleware.AuthMiddleware(cfg), h.Submit)

	req := httptest.NewRequest(http.MethodPost, "/submit?reward_id="+rewardID.String(), nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	_, err = os.Stat(recPath)
	assert.NoError(t, err, "recommendation letter must stay staged after a failed submit")
	_, err = os.Stat(certPath)
	assert.NoError(t, err, "certificate must stay staged after a failed submit")

	landed, err := filepath.Glob(filepath.Join(cfg.UploadDir, "*", "*"))
	require.NoError(t, err)
	assert.Empty(t, landed, "nothing may land in permanent storage on failure")

	draft, err := drafts.Load(ctx, userID, rewardID)
	require.NoError(t, err)
	assert.True(t, draft.Complete(), "the draft survives a failed submit")
}
