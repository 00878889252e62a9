package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered applicant or staff member.
type User struct {
	BaseModel
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	OtherName      string     `json:"other_name"`
	Email          string     `gorm:"uniqueIndex" json:"email"`
	Phone          string     `gorm:"uniqueIndex" json:"phone_number"`
	PasswordHash   string     `json:"-"`
	Gender         string     `json:"gender"`
	BirthDate      *time.Time `json:"birth_date"`
	Address        string     `json:"address"`
	WorkingPlace   string     `json:"working_place"`
	PassportNumber string     `json:"passport_number"`
	Pinfl          string     `json:"pinfl"`
	ProfilePicture string     `json:"profile_picture"`
	IsStaff        bool       `json:"is_staff"`
	IsActive       bool       `gorm:"default:true" json:"is_active"`
	IsVerified     bool       `json:"is_verified"`

	Applications  []Application  `json:"applications,omitempty"`
	Notifications []Notification `gorm:"foreignKey:RecipientID" json:"notifications,omitempty"`
}

// FullName joins first and last name for display.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Verification purposes.
const (
	VerificationSignup = "signup"
	VerificationLogin  = "login"
	VerificationReset  = "reset"
)

// PhoneVerificationTTL is how long an OTP code stays valid.
const PhoneVerificationTTL = 5 * time.Minute

// PhoneVerification keeps track of OTP codes sent to phone numbers. During
// signup no user row exists yet, so UserID stays nil until step 2 succeeds.
type PhoneVerification struct {
	BaseModel
	UserID    *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	Phone     string     `gorm:"index" json:"phone_number"`
	Code      string     `json:"-"`
	Purpose   string     `gorm:"default:signup" json:"purpose"`
	ExpiresAt time.Time  `json:"expires_at"`
	IsUsed    bool       `json:"is_used"`
}

// IsValid reports whether the code is still usable.
func (v *PhoneVerification) IsValid() bool {
	return !v.IsUsed && v.ExpiresAt.After(time.Now())
}

// PasswordResetCodeTTL is the validity window computed from CreatedAt.
const PasswordResetCodeTTL = 5 * time.Minute

// PasswordResetCode is a short numeric code for the forgot-password flow.
type PasswordResetCode struct {
	BaseModel
	Phone string `gorm:"index" json:"phone_number"`
	Code  string `json:"-"`
}

// IsValid reports whether the code is younger than the reset window.
func (c *PasswordResetCode) IsValid() bool {
	return time.Since(c.CreatedAt) < PasswordResetCodeTTL
}
