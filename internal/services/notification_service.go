package services

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/example/mukofot/internal/models"
)

// NotificationService synthesizes user-facing notifications from application
// lifecycle events.
type NotificationService struct {
	db *gorm.DB
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// ApplicationCreated records the "application submitted" notification. Runs on
// the given tx so it commits together with the application itself.
func (s *NotificationService) ApplicationCreated(tx *gorm.DB, app *models.Application, reward *models.Reward) error {
	notification := models.Notification{
		RecipientID: app.UserID,
		SourceType:  "application",
		SourceID:    app.ID,
		Type:        models.NotificationApplicationCreated,
		Title:       fmt.Sprintf("Your application for the %q reward has been submitted.", reward.Name),
		Extra: models.JSONMap{
			"reward_name": reward.Name,
			"area":        app.Area,
			"district":    app.District,
			"activity":    app.Activity,
		},
	}

	return s.create(tx, &notification)
}

// ApplicationStatusChanged records a notification for an actual status
// transition. Saves that leave the status unchanged must not reach here; the
// caller compares old and new status before dispatching.
func (s *NotificationService) ApplicationStatusChanged(tx *gorm.DB, app *models.Application, reward *models.Reward, oldStatus string) error {
	notification, ok := statusChangeNotification(app, reward, oldStatus)
	if !ok {
		return nil
	}

	return s.create(tx, notification)
}

// statusChangeNotification maps a status transition to its notification
// variant. In-process stages share one variant; the terminal stages each get
// their own. Returns false when the new status has no user-facing variant.
func statusChangeNotification(app *models.Application, reward *models.Reward, oldStatus string) (*models.Notification, bool) {
	base := models.Notification{
		RecipientID: app.UserID,
		SourceType:  "application",
		SourceID:    app.ID,
	}

	switch app.Status {
	case models.StatusNeighborhood, models.StatusDistrict, models.StatusRegion:
		base.Type = models.NotificationApplicationUpdated
		base.Title = fmt.Sprintf("Your application is under review at the %s stage.", models.StatusLabels[app.Status])
		base.Extra = models.JSONMap{
			"reward_name":    reward.Name,
			"old_status":     oldStatus,
			"new_status":     app.Status,
			"status_display": models.StatusLabels[app.Status],
		}
	case models.StatusFinalReview:
		base.Type = models.NotificationApplicationUpdated
		base.Title = "Your application has reached the final review stage."
		base.Extra = models.JSONMap{
			"reward_name": reward.Name,
			"old_status":  oldStatus,
			"new_status":  app.Status,
		}
	case models.StatusAwarded:
		base.Type = models.NotificationRewardWon
		base.Title = fmt.Sprintf("Congratulations! Your application for the %q reward passed every stage and you have been granted the award.", reward.Name)
		base.Extra = models.JSONMap{
			"reward_name":        reward.Name,
			"reward_description": reward.Description,
			"won_date":           time.Now().Format(time.RFC3339),
		}
	case models.StatusRejected:
		base.Type = models.NotificationApplicationRejected
		base.Title = fmt.Sprintf("Unfortunately, your application for the %q reward was rejected.", reward.Name)
		base.Extra = models.JSONMap{
			"reward_name":   reward.Name,
			"rejected_date": time.Now().Format(time.RFC3339),
		}
	default:
		return nil, false
	}

	return &base, true
}

func (s *NotificationService) create(tx *gorm.DB, notification *models.Notification) error {
	if tx == nil {
		tx = s.db
	}

	now := time.Now()
	notification.Status = models.NotificationStatusSent
	notification.SentAt = &now

	return tx.Create(notification).Error
}
