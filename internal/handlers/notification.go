package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/mukofot/internal/middleware"
	"github.com/example/mukofot/internal/models"
	"github.com/example/mukofot/internal/utils"
)

// NotificationHandler serves the per-user notification feed.
type NotificationHandler struct {
	db *gorm.DB
}

// NewNotificationHandler constructs NotificationHandler.
func NewNotificationHandler(db *gorm.DB) *NotificationHandler {
	return &NotificationHandler{db: db}
}

func notificationResponse(n *models.Notification) fiber.Map {
	return fiber.Map{
		"id":          n.ID,
		"type":        n.Type,
		"title":       n.Title,
		"status":      n.Status,
		"source_type": n.SourceType,
		"source_id":   n.SourceID,
		"is_read":     n.IsRead(),
		"read_at":     n.ReadAt,
		"sent_at":     n.SentAt,
		"created_at":  n.CreatedAt,
		"extra":       n.Extra,
	}
}

// ListNotifications returns the authenticated user's feed, newest first.
func (h *NotificationHandler) ListNotifications(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Notification{}).Where("recipient_id = ?", userID)

	if isRead := c.Query("is_read"); isRead != "" {
		switch isRead {
		case "true":
			query = query.Where("read_at IS NOT NULL")
		case "false":
			query = query.Where("read_at IS NULL")
		}
	}
	if ntype := c.Query("type"); ntype != "" {
		query = query.Where("type = ?", ntype)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var notifications []models.Notification
	if err := query.Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&notifications).Error; err != nil {
		return err
	}

	data := make([]fiber.Map, 0, len(notifications))
	for i := range notifications {
		data = append(data, notificationResponse(&notifications[i]))
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetNotification returns one notification and marks it read on access.
func (h *NotificationHandler) GetNotification(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var notification models.Notification
	if err := h.db.First(&notification, "id = ? AND recipient_id = ?", id, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "notification not found")
		}
		return err
	}

	wasUnread := !notification.IsRead()
	if wasUnread {
		if err := h.markRead(&notification); err != nil {
			return err
		}
	}

	resp := notificationResponse(&notification)
	resp["was_marked_as_read"] = wasUnread

	return c.JSON(fiber.Map{"success": true, "data": resp})
}

// MarkAsRead marks one notification as read.
func (h *NotificationHandler) MarkAsRead(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var notification models.Notification
	if err := h.db.First(&notification, "id = ? AND recipient_id = ?", id, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "notification not found")
		}
		return err
	}

	wasUnread := !notification.IsRead()
	if wasUnread {
		if err := h.markRead(&notification); err != nil {
			return err
		}
	}

	message := "notification was already read"
	if wasUnread {
		message = "notification marked as read"
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"message":    message,
		"was_unread": wasUnread,
		"is_read":    true,
	})
}

type markAllRequest struct {
	NotificationIDs []string `json:"notification_ids"`
}

// MarkAllAsRead marks all (or the listed) unread notifications as read.
func (h *NotificationHandler) MarkAllAsRead(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req markAllRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
	}

	query := h.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND read_at IS NULL", userID)

	if len(req.NotificationIDs) > 0 {
		ids := make([]uuid.UUID, 0, len(req.NotificationIDs))
		for _, raw := range req.NotificationIDs {
			id, err := uuid.Parse(raw)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid notification id")
			}
			ids = append(ids, id)
		}
		query = query.Where("id IN ?", ids)
	}

	result := query.Update("read_at", time.Now())
	if result.Error != nil {
		return result.Error
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"updated_count": result.RowsAffected,
	})
}

// Stats returns total/unread/read counts for the user.
func (h *NotificationHandler) Stats(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var total, unread int64
	if err := h.db.Model(&models.Notification{}).
		Where("recipient_id = ?", userID).
		Count(&total).Error; err != nil {
		return err
	}
	if err := h.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND read_at IS NULL", userID).
		Count(&unread).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"total_count":  total,
		"unread_count": unread,
		"read_count":   total - unread,
	})
}

// markRead sets read_at once; it is never cleared afterwards.
func (h *NotificationHandler) markRead(notification *models.Notification) error {
	now := time.Now()
	if err := h.db.Model(notification).
		Where("read_at IS NULL").
		Update("read_at", now).Error; err != nil {
		return err
	}
	notification.ReadAt = &now
	return nil
}
