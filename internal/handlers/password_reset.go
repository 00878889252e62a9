package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/mukofot/internal/models"
	"github.com/example/mukofot/internal/services"
	"github.com/example/mukofot/internal/utils"
)

// PasswordResetHandler manages forgot-password endpoints.
type PasswordResetHandler struct {
	db  *gorm.DB
	sms *services.SMSService
}

// NewPasswordResetHandler constructs a PasswordResetHandler.
func NewPasswordResetHandler(db *gorm.DB, sms *services.SMSService) *PasswordResetHandler {
	return &PasswordResetHandler{db: db, sms: sms}
}

type sendResetCodeRequest struct {
	PhoneNumber string `json:"phone_number"`
}

// SendResetCode creates a short-lived reset code for an existing user and
// dispatches it via SMS.
func (h *PasswordResetHandler) SendResetCode(c *fiber.Ctx) error {
	var req sendResetCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.PhoneNumber == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"errors":  fiber.Map{"phone_number": "phone number is required"},
		})
	}

	var count int64
	if err := h.db.Model(&models.User{}).Where("phone = ?", req.PhoneNumber).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"errors":  fiber.Map{"phone_number": "there is no active user with this phone number"},
		})
	}

	code, err := generateVerificationCode()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate code")
	}

	reset := models.PasswordResetCode{
		Phone: req.PhoneNumber,
		Code:  code,
	}
	if err := h.db.Create(&reset).Error; err != nil {
		return err
	}

	h.sms.SendCodeAsync(req.PhoneNumber, code)

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Code has been sent to your phone number",
	})
}

type resetPasswordRequest struct {
	PhoneNumber string `json:"phone_number"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

// ResetPassword verifies the latest code for the phone and replaces the
// user's password.
func (h *PasswordResetHandler) ResetPassword(c *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	errs := map[string]string{}
	if req.PhoneNumber == "" {
		errs["phone_number"] = "phone number is required"
	}
	if req.Code == "" {
		errs["code"] = "code is required"
	}
	if len(req.NewPassword) < 8 {
		errs["new_password"] = "password must be at least 8 characters"
	}
	if len(errs) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "errors": errs})
	}

	var reset models.PasswordResetCode
	err := h.db.Where("phone = ? AND code = ?", req.PhoneNumber, req.Code).
		Order("created_at desc").
		First(&reset).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"errors":  fiber.Map{"code": "invalid code"},
			})
		}
		return err
	}

	if !reset.IsValid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"errors":  fiber.Map{"code": "the code is expired"},
		})
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).
			Where("phone = ?", req.PhoneNumber).
			Update("password_hash", hash).Error; err != nil {
			return err
		}
		return tx.Delete(&reset).Error
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Password has been successfully changed",
	})
}
