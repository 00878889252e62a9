package handlers

import (
	"fmt"
	"log"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/mukofot/internal/config"
	"github.com/example/mukofot/internal/middleware"
	"github.com/example/mukofot/internal/models"
	"github.com/example/mukofot/internal/services"
	"github.com/example/mukofot/internal/utils"
)

const (
	maxRecommendationSize = 5 << 20
	maxCertificateSize    = 10 << 20
	maxCertificates       = 10
)

var allowedDocumentExts = []string{"pdf", "jpg", "jpeg", "png"}

// stagedMove records a finalized upload so a failed submit can put it back.
type stagedMove struct {
	src, dst string
}

func undoMoves(moved []stagedMove) {
	for i := len(moved) - 1; i >= 0; i-- {
		if err := utils.MoveFile(moved[i].dst, moved[i].src); err != nil {
			log.Printf("[Wizard] Failed to restore staged upload %s: %v", moved[i].src, err)
		}
	}
}

// WizardHandler drives the multi-step application submission flow.
type WizardHandler struct {
	db            *gorm.DB
	cfg           *config.Config
	drafts        *services.DraftStore
	notifications *services.NotificationService
}

// NewWizardHandler constructs WizardHandler.
func NewWizardHandler(db *gorm.DB, cfg *config.Config, drafts *services.DraftStore, notifications *services.NotificationService) *WizardHandler {
	return &WizardHandler{db: db, cfg: cfg, drafts: drafts, notifications: notifications}
}

// rewardIDFromRequest reads reward_id from the body (JSON or form) or the
// query string.
func rewardIDFromRequest(c *fiber.Ctx) (uuid.UUID, error) {
	var body struct {
		RewardID string `json:"reward_id" form:"reward_id"`
	}
	_ = c.BodyParser(&body)

	raw := body.RewardID
	if raw == "" {
		raw = c.Query("reward_id")
	}
	if raw == "" {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "reward_id is required")
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid reward_id")
	}
	return id, nil
}

// GetStep1 returns the saved personal info, pre-filled from the user profile
// when the draft is empty.
func (h *WizardHandler) GetStep1(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	rewardID, err := rewardIDFromRequest(c)
	if err != nil {
		return err
	}

	draft, err := h.drafts.Load(c.Context(), userID, rewardID)
	if err != nil {
		return err
	}

	step := draft.Step1
	if step == nil {
		var user models.User
		if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
			return err
		}
		step = &services.DraftStep1{
			FirstName:   user.FirstName,
			LastName:    user.LastName,
			Pinfl:       user.Pinfl,
			PhoneNumber: user.Phone,
		}
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"data":         step,
		"current_step": 1,
	})
}

type step1Request struct {
	RewardID     string `json:"reward_id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Pinfl        string `json:"pinfl"`
	PhoneNumber  string `json:"phone_number"`
	Area         string `json:"area"`
	District     string `json:"district"`
	Neighborhood string `json:"neighborhood"`
}

func (r *step1Request) validate() map[string]string {
	errs := map[string]string{}
	if r.FirstName == "" {
		errs["first_name"] = "first name is required"
	}
	if r.LastName == "" {
		errs["last_name"] = "last name is required"
	}
	if len(r.Pinfl) != 14 || !utils.IsDigits(r.Pinfl) {
		errs["pinfl"] = "pinfl must be exactly 14 digits"
	}
	if !utils.IsPhone(r.PhoneNumber) {
		errs["phone_number"] = "invalid phone number"
	}
	if !models.IsValidArea(r.Area) {
		errs["area"] = "unknown area"
	}
	if r.District == "" {
		errs["district"] = "district is required"
	}
	if r.Neighborhood == "" {
		errs["neighborhood"] = "neighborhood is required"
	}
	return errs
}

// PostStep1 validates and saves the personal-info step.
func (h *WizardHandler) PostStep1(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req step1Request
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	rewardID, err := uuid.Parse(req.RewardID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid reward_id")
	}

	if errs := req.validate(); len(errs) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "errors": errs})
	}

	var reward models.Reward
	if err := h.db.First(&reward, "id = ?", rewardID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "reward not found")
		}
		return err
	}

	var existing models.Application
	err = h.db.Where("user_id = ? AND reward_id = ?", userID, rewardID).First(&existing).Error
	if err == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success":                     false,
			"message":                     "you have already applied for this reward",
			"existing_application_id":     existing.ID,
			"existing_application_status": existing.Status,
		})
	} else if err != gorm.ErrRecordNotFound {
		return err
	}

	step := services.DraftStep1{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Pinfl:        req.Pinfl,
		PhoneNumber:  req.PhoneNumber,
		Area:         req.Area,
		District:     req.District,
		Neighborhood: req.Neighborhood,
	}
	if _, err := h.drafts.SaveStep1(c.Context(), userID, rewardID, step); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"message":   "personal information saved",
		"next_step": 2,
		"data":      step,
	})
}

// GetStep2 returns the saved activity info.
func (h *WizardHandler) GetStep2(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	rewardID, err := rewardIDFromRequest(c)
	if err != nil {
		return err
	}

	draft, err := h.drafts.Load(c.Context(), userID, rewardID)
	if err != nil {
		return err
	}

	var data interface{} = fiber.Map{}
	if draft.Step2 != nil {
		data = draft.Step2
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"data":         data,
		"current_step": 2,
	})
}

type step2Request struct {
	RewardID            string `json:"reward_id"`
	Activity            string `json:"activity"`
	ActivityDescription string `json:"activity_description"`
}

func (r *step2Request) validate() map[string]string {
	errs := map[string]string{}
	if r.Activity == "" {
		errs["activity"] = "activity is required"
	} else if len(r.Activity) > 200 {
		errs["activity"] = "activity must be at most 200 characters"
	}
	if len(r.ActivityDescription) < 50 {
		errs["activity_description"] = "activity description must be at least 50 characters"
	}
	return errs
}

// PostStep2 validates and saves the activity step. Step 1 must be present.
func (h *WizardHandler) PostStep2(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req step2Request
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	rewardID, err := uuid.Parse(req.RewardID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid reward_id")
	}

	draft, err := h.drafts.Load(c.Context(), userID, rewardID)
	if err != nil {
		return err
	}
	if draft.Step1 == nil {
		return fiber.NewError(fiber.StatusBadRequest, "complete step 1 first")
	}

	if errs := req.validate(); len(errs) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "errors": errs})
	}

	step := services.DraftStep2{
		Activity:            req.Activity,
		ActivityDescription: req.ActivityDescription,
	}
	if _, err := h.drafts.SaveStep2(c.Context(), userID, rewardID, step); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"message":   "activity information saved",
		"next_step": 3,
		"data":      step,
	})
}

// GetStep3 returns the staged upload metadata.
func (h *WizardHandler) GetStep3(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	rewardID, err := rewardIDFromRequest(c)
	if err != nil {
		return err
	}

	draft, err := h.drafts.Load(c.Context(), userID, rewardID)
	if err != nil {
		return err
	}

	var data interface{} = fiber.Map{}
	if draft.Step3 != nil {
		data = draft.Step3
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"data":         data,
		"current_step": 3,
	})
}

func validateDocument(fh *multipart.FileHeader, field string, maxSize int64, errs map[string]string) {
	if !utils.AllowedExt(fh.Filename, allowedDocumentExts...) {
		errs[field] = fmt.Sprintf("%s must be one of: pdf, jpg, jpeg, png", fh.Filename)
	} else if fh.Size > maxSize {
		errs[field] = fmt.Sprintf("%s exceeds the %dMB size limit", fh.Filename, maxSize>>20)
	}
}

// PostStep3 stages uploads on disk and caches only their metadata. Steps 1
// and 2 must be present.
func (h *WizardHandler) PostStep3(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	rewardID, err := rewardIDFromRequest(c)
	if err != nil {
		return err
	}

	draft, err := h.drafts.Load(c.Context(), userID, rewardID)
	if err != nil {
		return err
	}
	if draft.Step1 == nil || draft.Step2 == nil {
		return fiber.NewError(fiber.StatusBadRequest, "complete the previous steps first")
	}

	form, err := c.MultipartForm()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "multipart form expected")
	}

	recFiles := form.File["recommendation_letter"]
	certFiles := form.File["certificates"]

	errs := map[string]string{}
	if len(recFiles) > 1 {
		errs["recommendation_letter"] = "only one recommendation letter is allowed"
	} else if len(recFiles) == 1 {
		validateDocument(recFiles[0], "recommendation_letter", maxRecommendationSize, errs)
	}
	if len(certFiles) > maxCertificates {
		errs["certificates"] = fmt.Sprintf("at most %d certificates are allowed", maxCertificates)
	} else {
		for _, fh := range certFiles {
			validateDocument(fh, "certificates", maxCertificateSize, errs)
		}
	}
	if len(errs) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "errors": errs})
	}

	if err := os.MkdirAll(h.cfg.TempUploadDir, 0o755); err != nil {
		return err
	}

	step := services.DraftStep3{}

	if len(recFiles) == 1 {
		fh := recFiles[0]
		path := utils.TempFilename(h.cfg.TempUploadDir, "temp_rec", fh.Filename)
		if err := c.SaveFile(fh, path); err != nil {
			return err
		}
		step.RecommendationLetter = &services.DraftFile{
			OriginalName: fh.Filename,
			Path:         path,
			Size:         fh.Size,
		}
	}

	for _, fh := range certFiles {
		path := utils.TempFilename(h.cfg.TempUploadDir, "temp_cert", fh.Filename)
		if err := c.SaveFile(fh, path); err != nil {
			return err
		}
		step.Certificates = append(step.Certificates, services.DraftFile{
			OriginalName: fh.Filename,
			Path:         path,
			Size:         fh.Size,
		})
	}

	// Drop previously staged files replaced by this submission.
	if draft.Step3 != nil {
		for _, stale := range draft.StagedFiles() {
			if err := os.Remove(stale); err != nil && !os.IsNotExist(err) {
				log.Printf("[Wizard] Failed to remove stale upload %s: %v", stale, err)
			}
		}
	}

	if _, err := h.drafts.SaveStep3(c.Context(), userID, rewardID, step); err != nil {
		return err
	}

	data := fiber.Map{"certificates_count": len(step.Certificates)}
	if step.RecommendationLetter != nil {
		data["recommendation_letter"] = step.RecommendationLetter.OriginalName
	}
	names := make([]string, 0, len(step.Certificates))
	for _, cert := range step.Certificates {
		names = append(names, cert.OriginalName)
	}
	data["certificates_names"] = names

	return c.JSON(fiber.Map{
		"success":   true,
		"message":   "documents saved",
		"next_step": 4,
		"data":      data,
	})
}

// Review returns the merged draft for final confirmation.
func (h *WizardHandler) Review(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	rewardID, err := rewardIDFromRequest(c)
	if err != nil {
		return err
	}

	draft, err := h.drafts.Load(c.Context(), userID, rewardID)
	if err != nil {
		return err
	}

	if missing := draft.MissingSteps(); len(missing) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success":       false,
			"message":       "not all steps are completed",
			"missing_steps": missing,
		})
	}

	var reward models.Reward
	if err := h.db.First(&reward, "id = ?", rewardID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "reward not found")
		}
		return err
	}

	data := fiber.Map{
		"reward_id":     rewardID,
		"reward_name":   reward.Name,
		"personal_info": draft.Step1,
		"activity_info": draft.Step2,
		"documents":     draft.Step3,
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"data":         data,
		"current_step": 4,
	})
}

// Submit finalizes the draft: inside one transaction it re-checks the
// duplicate constraint, creates the application with its attachments and
// records the submission notification. Cache and temp-file cleanup afterward
// is best-effort.
func (h *WizardHandler) Submit(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	rewardID, err := rewardIDFromRequest(c)
	if err != nil {
		return err
	}

	draft, err := h.drafts.Load(c.Context(), userID, rewardID)
	if err != nil {
		return err
	}
	if missing := draft.MissingSteps(); len(missing) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success":       false,
			"message":       "not all steps are completed",
			"missing_steps": missing,
		})
	}

	var reward models.Reward
	if err := h.db.First(&reward, "id = ?", rewardID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "reward not found")
		}
		return err
	}

	application := models.Application{
		UserID:              userID,
		RewardID:            rewardID,
		Status:              models.StatusSubmitted,
		Area:                draft.Step1.Area,
		District:            draft.Step1.District,
		Neighborhood:        draft.Step1.Neighborhood,
		Activity:            draft.Step2.Activity,
		ActivityDescription: draft.Step2.ActivityDescription,
		Source:              "web",
	}

	// Destination paths are fixed up front and the files move only after every
	// row is created, so a rolled-back submit leaves the staged uploads where
	// the draft points.
	rec := draft.Step3.RecommendationLetter
	var recDst string
	if rec != nil {
		recDst = filepath.Join(h.cfg.UploadDir, "recommendation",
			fmt.Sprintf("%s%s", uuid.New(), filepath.Ext(rec.OriginalName)))
		application.RecommendationLetter = recDst
	}
	certDsts := make([]string, len(draft.Step3.Certificates))
	for i, cert := range draft.Step3.Certificates {
		certDsts[i] = filepath.Join(h.cfg.UploadDir, "certificates",
			fmt.Sprintf("%s%s", uuid.New(), filepath.Ext(cert.OriginalName)))
	}

	var moved []stagedMove
	err = h.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Application
		err := tx.Where("user_id = ? AND reward_id = ?", userID, rewardID).First(&existing).Error
		if err == nil {
			return fiber.NewError(fiber.StatusBadRequest, "you have already applied for this reward")
		} else if err != gorm.ErrRecordNotFound {
			return err
		}

		if err := tx.Create(&application).Error; err != nil {
			return err
		}

		if rec != nil {
			record := models.File{
				ApplicationID: application.ID,
				Path:          recDst,
				OriginalName:  rec.OriginalName,
				Size:          rec.Size,
			}
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
		}

		for i, cert := range draft.Step3.Certificates {
			record := models.Certificate{
				ApplicationID: application.ID,
				Path:          certDsts[i],
				OriginalName:  cert.OriginalName,
				Size:          cert.Size,
			}
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
		}

		if err := h.notifications.ApplicationCreated(tx, &application, &reward); err != nil {
			return err
		}

		if rec != nil {
			if err := utils.MoveFile(rec.Path, recDst); err != nil {
				return err
			}
			moved = append(moved, stagedMove{src: rec.Path, dst: recDst})
		}
		for i, cert := range draft.Step3.Certificates {
			if err := utils.MoveFile(cert.Path, certDsts[i]); err != nil {
				return err
			}
			moved = append(moved, stagedMove{src: cert.Path, dst: certDsts[i]})
		}

		return nil
	})
	if err != nil {
		undoMoves(moved)
		return err
	}

	if err := h.drafts.Clear(c.Context(), userID, rewardID); err != nil {
		log.Printf("[Wizard] Failed to clear draft for user %s reward %s: %v", userID, rewardID, err)
	}
	for _, stale := range draft.StagedFiles() {
		if err := os.Remove(stale); err != nil && !os.IsNotExist(err) {
			log.Printf("[Wizard] Failed to remove staged upload %s: %v", stale, err)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":     true,
		"message":     "application submitted successfully",
		"application": applicationResponse(&application, &reward, nil, false),
	})
}

// Progress reports step completion for the draft.
func (h *WizardHandler) Progress(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	rewardID, err := rewardIDFromRequest(c)
	if err != nil {
		return err
	}

	draft, err := h.drafts.Load(c.Context(), userID, rewardID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"progress": fiber.Map{
			"step1_completed": draft.Step1 != nil,
			"step2_completed": draft.Step2 != nil,
			"step3_completed": draft.Step3 != nil,
			"current_step":    draft.CurrentStep,
			"reward_id":       rewardID,
		},
	})
}

// ClearDraft drops the draft bucket and its staged files.
func (h *WizardHandler) ClearDraft(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	rewardID, err := rewardIDFromRequest(c)
	if err != nil {
		return err
	}

	draft, err := h.drafts.Load(c.Context(), userID, rewardID)
	if err != nil {
		return err
	}

	for _, stale := range draft.StagedFiles() {
		if err := os.Remove(stale); err != nil && !os.IsNotExist(err) {
			log.Printf("[Wizard] Failed to remove staged upload %s: %v", stale, err)
		}
	}

	if err := h.drafts.Clear(c.Context(), userID, rewardID); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "message": "application draft cleared"})
}
