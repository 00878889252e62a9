package handlers

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/mukofot/internal/cache"
	"github.com/example/mukofot/internal/config"
	"github.com/example/mukofot/internal/models"
	"github.com/example/mukofot/internal/services"
	"github.com/example/mukofot/internal/utils"
)

// AuthHandler bundles dependencies for signup and signin endpoints.
type AuthHandler struct {
	db    *gorm.DB
	cfg   *config.Config
	cache cache.Store
	sms   *services.SMSService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, cfg *config.Config, store cache.Store, sms *services.SMSService) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg, cache: store, sms: sms}
}

type signupRequest struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	OtherName       string `json:"other_name"`
	Gender          string `json:"gender"`
	Email           string `json:"email"`
	PhoneNumber     string `json:"phone_number"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	BirthDate       string `json:"birth_date"`
	Address         string `json:"address"`
	WorkingPlace    string `json:"working_place"`
	PassportNumber  string `json:"passport_number"`
	Pinfl           string `json:"pinfl"`
}

// signupCacheEntry is the validated form staged between step 1 and step 2.
// The password is hashed before it enters the cache.
type signupCacheEntry struct {
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	OtherName      string     `json:"other_name"`
	Gender         string     `json:"gender"`
	Email          string     `json:"email"`
	PhoneNumber    string     `json:"phone_number"`
	PasswordHash   string     `json:"password_hash"`
	BirthDate      *time.Time `json:"birth_date"`
	Address        string     `json:"address"`
	WorkingPlace   string     `json:"working_place"`
	PassportNumber string     `json:"passport_number"`
	Pinfl          string     `json:"pinfl"`
}

func signupCacheKey(verificationID uuid.UUID) string {
	return fmt.Sprintf("signup_data_%s", verificationID)
}

func (r *signupRequest) validate() (map[string]string, *time.Time) {
	errs := map[string]string{}

	if r.FirstName == "" {
		errs["first_name"] = "first name is required"
	}
	if r.LastName == "" {
		errs["last_name"] = "last name is required"
	}
	if r.Gender != "male" && r.Gender != "female" {
		errs["gender"] = "gender must be male or female"
	}
	if !utils.IsEmail(r.Email) {
		errs["email"] = "invalid email address"
	}
	if !utils.IsPhone(r.PhoneNumber) {
		errs["phone_number"] = "invalid phone number"
	}
	if len(r.Password) < 8 {
		errs["password"] = "password must be at least 8 characters"
	} else if r.Password != r.PasswordConfirm {
		errs["password_confirm"] = "passwords do not match"
	}
	if r.Pinfl == "" || len(r.Pinfl) != 14 || !utils.IsDigits(r.Pinfl) {
		errs["pinfl"] = "pinfl must be exactly 14 digits"
	}
	if r.PassportNumber == "" || len(r.PassportNumber) > 9 {
		errs["passport_number"] = "passport number is required and must be at most 9 characters"
	}
	if len(r.Address) > 2000 {
		errs["address"] = "address must be at most 2000 characters"
	}
	if len(r.WorkingPlace) > 2000 {
		errs["working_place"] = "working place must be at most 2000 characters"
	}

	var birthDate *time.Time
	if r.BirthDate == "" {
		errs["birth_date"] = "birth date is required"
	} else if parsed, err := time.Parse("2006-01-02", r.BirthDate); err != nil {
		errs["birth_date"] = "birth date must be formatted as YYYY-MM-DD"
	} else if !parsed.Before(time.Now().Truncate(24 * time.Hour)) {
		errs["birth_date"] = "birth date must be before today"
	} else {
		birthDate = &parsed
	}

	return errs, birthDate
}

// SignupStep1 validates the registration form, stages it in the cache and
// sends the verification code.
func (h *AuthHandler) SignupStep1(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	req.Email = utils.NormalizeEmail(req.Email)

	errs, birthDate := req.validate()

	var count int64
	if err := h.db.Model(&models.User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		errs["email"] = "user with this email already exists"
	}

	if err := h.db.Model(&models.User{}).Where("phone = ?", req.PhoneNumber).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		errs["phone_number"] = "user with this phone number already exists"
	}

	if len(errs) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"errors":  errs,
		})
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
	}

	code, err := generateVerificationCode()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate verification code")
	}

	// A new request supersedes any outstanding signup code for this phone.
	if err := h.db.Model(&models.PhoneVerification{}).
		Where("phone = ? AND purpose = ? AND is_used = false", req.PhoneNumber, models.VerificationSignup).
		Update("is_used", true).Error; err != nil {
		return err
	}

	verification := models.PhoneVerification{
		Phone:     req.PhoneNumber,
		Code:      code,
		Purpose:   models.VerificationSignup,
		ExpiresAt: time.Now().Add(models.PhoneVerificationTTL),
	}
	if err := h.db.Create(&verification).Error; err != nil {
		return err
	}

	entry := signupCacheEntry{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		OtherName:      req.OtherName,
		Gender:         req.Gender,
		Email:          req.Email,
		PhoneNumber:    req.PhoneNumber,
		PasswordHash:   passwordHash,
		BirthDate:      birthDate,
		Address:        req.Address,
		WorkingPlace:   req.WorkingPlace,
		PassportNumber: req.PassportNumber,
		Pinfl:          req.Pinfl,
	}
	if err := h.cache.Set(c.Context(), signupCacheKey(verification.ID), entry, models.PhoneVerificationTTL); err != nil {
		return err
	}

	h.sms.SendCodeAsync(req.PhoneNumber, code)

	return c.JSON(fiber.Map{
		"success":         true,
		"message":         "Verification code sent to your phone",
		"verification_id": verification.ID,
		"expires_at":      verification.ExpiresAt,
	})
}

type signupVerifyRequest struct {
	VerificationID string `json:"verification_id"`
	Code           string `json:"code"`
}

// SignupStep2 verifies the code and creates the user from the staged form.
func (h *AuthHandler) SignupStep2(c *fiber.Ctx) error {
	var req signupVerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	verificationID, err := uuid.Parse(req.VerificationID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid verification id")
	}

	var verification models.PhoneVerification
	if err := h.db.First(&verification,
		"id = ? AND purpose = ? AND user_id IS NULL", verificationID, models.VerificationSignup).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusBadRequest, "invalid or expired verification code")
		}
		return err
	}

	if verification.Code != req.Code {
		return fiber.NewError(fiber.StatusBadRequest, "invalid verification code")
	}

	if !verification.IsValid() {
		return fiber.NewError(fiber.StatusBadRequest, "verification code has expired")
	}

	var entry signupCacheEntry
	found, err := h.cache.Get(c.Context(), signupCacheKey(verificationID), &entry)
	if err != nil {
		return err
	}
	if !found {
		return fiber.NewError(fiber.StatusBadRequest, "session expired, please start the signup process again")
	}

	user := models.User{
		FirstName:      entry.FirstName,
		LastName:       entry.LastName,
		OtherName:      entry.OtherName,
		Gender:         entry.Gender,
		Email:          entry.Email,
		Phone:          entry.PhoneNumber,
		PasswordHash:   entry.PasswordHash,
		BirthDate:      entry.BirthDate,
		Address:        entry.Address,
		WorkingPlace:   entry.WorkingPlace,
		PassportNumber: entry.PassportNumber,
		Pinfl:          entry.Pinfl,
		IsActive:       true,
		IsVerified:     true,
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", entry.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "this email address is already registered")
		}

		if err := tx.Model(&models.User{}).Where("phone = ?", entry.PhoneNumber).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "this phone number is already registered")
		}

		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		verification.UserID = &user.ID
		verification.IsUsed = true
		return tx.Save(&verification).Error
	})
	if err != nil {
		return err
	}

	if err := h.cache.Delete(c.Context(), signupCacheKey(verificationID)); err != nil {
		return err
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Account created successfully! You are now logged in.",
		"token":   token,
		"user":    userResponse(&user),
	})
}

type resendSMSRequest struct {
	VerificationID string `json:"verification_id"`
}

// ResendSMS invalidates the previous signup code and issues a fresh one under
// a new verification id.
func (h *AuthHandler) ResendSMS(c *fiber.Ctx) error {
	var req resendSMSRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	verificationID, err := uuid.Parse(req.VerificationID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid verification id")
	}

	var entry signupCacheEntry
	found, err := h.cache.Get(c.Context(), signupCacheKey(verificationID), &entry)
	if err != nil {
		return err
	}
	if !found {
		return fiber.NewError(fiber.StatusBadRequest, "session expired, please start the signup process again")
	}

	if err := h.db.Model(&models.PhoneVerification{}).
		Where("id = ? AND is_used = false", verificationID).
		Update("is_used", true).Error; err != nil {
		return err
	}

	code, err := generateVerificationCode()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate verification code")
	}

	verification := models.PhoneVerification{
		Phone:     entry.PhoneNumber,
		Code:      code,
		Purpose:   models.VerificationSignup,
		ExpiresAt: time.Now().Add(models.PhoneVerificationTTL),
	}
	if err := h.db.Create(&verification).Error; err != nil {
		return err
	}

	if err := h.cache.Set(c.Context(), signupCacheKey(verification.ID), entry, models.PhoneVerificationTTL); err != nil {
		return err
	}
	if err := h.cache.Delete(c.Context(), signupCacheKey(verificationID)); err != nil {
		return err
	}

	h.sms.SendCodeAsync(entry.PhoneNumber, code)

	return c.JSON(fiber.Map{
		"success":         true,
		"message":         "New verification code sent",
		"verification_id": verification.ID,
		"expires_at":      verification.ExpiresAt,
	})
}

type signinRequest struct {
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
}

// Signin authenticates an existing user by phone number and password.
func (h *AuthHandler) Signin(c *fiber.Ctx) error {
	var req signinRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.PhoneNumber == "" || req.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "phone number and password are required")
	}

	var user models.User
	if err := h.db.Where("phone = ?", req.PhoneNumber).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusUnauthorized, "no active account found with the given credentials")
		}
		return err
	}

	if !user.IsActive {
		return fiber.NewError(fiber.StatusUnauthorized, "account is inactive")
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		return fiber.NewError(fiber.StatusUnauthorized, "no active account found with the given credentials")
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"token":   token,
		"user":    userResponse(&user),
	})
}

func userResponse(user *models.User) fiber.Map {
	return fiber.Map{
		"id":              user.ID,
		"first_name":      user.FirstName,
		"last_name":       user.LastName,
		"other_name":      user.OtherName,
		"email":           user.Email,
		"phone_number":    user.Phone,
		"gender":          user.Gender,
		"birth_date":      user.BirthDate,
		"address":         user.Address,
		"working_place":   user.WorkingPlace,
		"passport_number": user.PassportNumber,
		"pinfl":           user.Pinfl,
		"profile_picture": user.ProfilePicture,
		"is_staff":        user.IsStaff,
		"is_verified":     user.IsVerified,
		"created_at":      user.CreatedAt,
		"updated_at":      user.UpdatedAt,
	}
}

func generateVerificationCode() (string, error) {
	max := big.NewInt(1000000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
