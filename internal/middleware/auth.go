package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/mukofot/internal/config"
	"github.com/example/mukofot/internal/models"
	"github.com/example/mukofot/internal/utils"
)

const (
	userContextKey      = "currentUserID"
	staffUserContextKey = "currentStaffUser"
)

// AuthMiddleware validates JWT tokens and loads the authenticated user ID into context.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}

		userID, err := utils.ParseToken(cfg.JWTSecret, parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals(userContextKey, userID)
		return c.Next()
	}
}

// RequireStaff loads the authenticated user and rejects non-staff accounts.
// Must run after AuthMiddleware.
func RequireStaff(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := GetCurrentUserID(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
		}

		var user models.User
		if err := db.First(&user, "id = ?", userID).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
		}

		if !user.IsStaff {
			return fiber.NewError(fiber.StatusForbidden, "staff access required")
		}

		c.Locals(staffUserContextKey, &user)
		return c.Next()
	}
}

// GetCurrentUserID extracts the authenticated user ID from context.
func GetCurrentUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	value := c.Locals(userContextKey)
	if value == nil {
		return uuid.Nil, false
	}

	if id, ok := value.(uuid.UUID); ok {
		return id, true
	}

	return uuid.Nil, false
}

// GetStaffUser returns the user loaded by RequireStaff.
func GetStaffUser(c *fiber.Ctx) (*models.User, bool) {
	value := c.Locals(staffUserContextKey)
	if value == nil {
		return nil, false
	}

	user, ok := value.(*models.User)
	return user, ok
}

// IsStaffRequest reports whether the authenticated user is staff, loading the
// row when RequireStaff has not run on this route.
func IsStaffRequest(c *fiber.Ctx, db *gorm.DB) bool {
	if _, ok := GetStaffUser(c); ok {
		return true
	}

	userID, ok := GetCurrentUserID(c)
	if !ok {
		return false
	}

	var user models.User
	if err := db.Select("is_staff").First(&user, "id = ?", userID).Error; err != nil {
		return false
	}
	return user.IsStaff
}
