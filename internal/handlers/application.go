package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/mukofot/internal/middleware"
	"github.com/example/mukofot/internal/models"
	"github.com/example/mukofot/internal/services"
	"github.com/example/mukofot/internal/utils"
)

// ApplicationHandler manages persisted applications.
type ApplicationHandler struct {
	db            *gorm.DB
	notifications *services.NotificationService
}

// NewApplicationHandler constructs ApplicationHandler.
func NewApplicationHandler(db *gorm.DB, notifications *services.NotificationService) *ApplicationHandler {
	return &ApplicationHandler{db: db, notifications: notifications}
}

// applicationResponse renders one application. Applicant identity fields are
// included only for staff viewers.
func applicationResponse(app *models.Application, reward *models.Reward, user *models.User, staffView bool) fiber.Map {
	resp := fiber.Map{
		"id":           app.ID,
		"status":       app.Status,
		"status_label": models.StatusLabels[app.Status],
		"area":         app.Area,
		"district":     app.District,
		"neighborhood": app.Neighborhood,
		"activity":     app.Activity,
		"activity_description": app.ActivityDescription,
		"recommendation_letter": fiber.Map{
			"present": app.RecommendationLetter != "",
			"path":    app.RecommendationLetter,
		},
		"source":     app.Source,
		"created_at": app.CreatedAt,
		"updated_at": app.UpdatedAt,
	}

	if reward != nil {
		resp["reward"] = fiber.Map{
			"id":    reward.ID,
			"name":  reward.Name,
			"image": reward.Image,
		}
	}

	if staffView && user != nil {
		resp["applicant"] = fiber.Map{
			"id":           user.ID,
			"first_name":   user.FirstName,
			"last_name":    user.LastName,
			"pinfl":        user.Pinfl,
			"phone_number": user.Phone,
		}
	}

	certs := make([]fiber.Map, 0, len(app.Certificates))
	for _, cert := range app.Certificates {
		certs = append(certs, fiber.Map{
			"id":            cert.ID,
			"original_name": cert.OriginalName,
			"path":          cert.Path,
			"size":          cert.Size,
			"uploaded_at":   cert.CreatedAt,
		})
	}
	resp["certificates"] = certs

	return resp
}

// ListApplications returns applications: staff see all, users their own.
func (h *ApplicationHandler) ListApplications(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	staff := middleware.IsStaffRequest(c, h.db)
	pg := utils.ParsePagination(c)

	query := h.db.Model(&models.Application{})
	if !staff {
		query = query.Where("applications.user_id = ?", userID)
	}

	if status := c.Query("status"); status != "" {
		query = query.Where("applications.status = ?", status)
	}
	if rewardID := c.Query("reward_id"); rewardID != "" {
		if id, err := uuid.Parse(rewardID); err == nil {
			query = query.Where("applications.reward_id = ?", id)
		}
	}
	if search := c.Query("search"); search != "" && staff {
		like := "%" + search + "%"
		query = query.
			Joins("JOIN users ON users.id = applications.user_id").
			Joins("JOIN rewards ON rewards.id = applications.reward_id").
			Where("users.first_name ILIKE ? OR users.last_name ILIKE ? OR users.pinfl ILIKE ? OR rewards.name ILIKE ?",
				like, like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var apps []models.Application
	if err := query.Preload("User").Preload("Reward").Preload("Certificates").
		Order("applications.created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&apps).Error; err != nil {
		return err
	}

	data := make([]fiber.Map, 0, len(apps))
	for i := range apps {
		data = append(data, applicationResponse(&apps[i], apps[i].Reward, apps[i].User, staff))
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
		"user_role": roleName(staff),
	})
}

func roleName(staff bool) string {
	if staff {
		return "admin"
	}
	return "user"
}

// GetApplication returns one application. Staff see any, users their own.
func (h *ApplicationHandler) GetApplication(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	staff := middleware.IsStaffRequest(c, h.db)

	query := h.db.Preload("User").Preload("Reward").Preload("Certificates")
	if !staff {
		query = query.Where("user_id = ?", userID)
	}

	var app models.Application
	if err := query.First(&app, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "application not found or access denied")
		}
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    applicationResponse(&app, app.Reward, app.User, staff),
	})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus moves an application along the pipeline. Staff only. The
// notification fires exactly once per actual transition: saves that leave the
// status unchanged create nothing.
func (h *ApplicationHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req updateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if !models.IsValidStatus(req.Status) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"errors":  fiber.Map{"status": "unknown status code"},
		})
	}

	var app models.Application
	if err := h.db.Preload("Reward").First(&app, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "application not found")
		}
		return err
	}

	oldStatus := app.Status
	if oldStatus == req.Status {
		return c.JSON(fiber.Map{
			"success": true,
			"message": "status unchanged",
			"status":  app.Status,
		})
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&app).Updates(map[string]interface{}{
			"status":     req.Status,
			"updated_at": time.Now(),
		}).Error; err != nil {
			return err
		}

		app.Status = req.Status
		return h.notifications.ApplicationStatusChanged(tx, &app, app.Reward, oldStatus)
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"message":    "status updated",
		"old_status": oldStatus,
		"status":     app.Status,
	})
}

// Stats returns aggregate application numbers for the dashboard. Staff only.
func (h *ApplicationHandler) Stats(c *fiber.Ctx) error {
	var total int64
	if err := h.db.Model(&models.Application{}).Count(&total).Error; err != nil {
		return err
	}

	var statusRows []struct {
		Status string
		Total  int64
	}
	if err := h.db.Model(&models.Application{}).
		Select("status, count(*) as total").
		Group("status").
		Scan(&statusRows).Error; err != nil {
		return err
	}
	statusBreakdown := fiber.Map{}
	for _, row := range statusRows {
		statusBreakdown[row.Status] = row.Total
	}

	var sourceRows []struct {
		Source string
		Total  int64
	}
	if err := h.db.Model(&models.Application{}).
		Select("source, count(*) as total").
		Group("source").
		Scan(&sourceRows).Error; err != nil {
		return err
	}
	sourceBreakdown := fiber.Map{}
	for _, row := range sourceRows {
		sourceBreakdown[row.Source] = row.Total
	}

	var recent int64
	weekAgo := time.Now().AddDate(0, 0, -7)
	if err := h.db.Model(&models.Application{}).
		Where("created_at >= ?", weekAgo).
		Count(&recent).Error; err != nil {
		return err
	}

	var topRewards []struct {
		Name  string
		Total int64
	}
	if err := h.db.Model(&models.Application{}).
		Select("rewards.name, count(*) as total").
		Joins("JOIN rewards ON rewards.id = applications.reward_id").
		Group("rewards.name").
		Order("total desc").
		Limit(5).
		Scan(&topRewards).Error; err != nil {
		return err
	}
	top := make([]fiber.Map, 0, len(topRewards))
	for _, row := range topRewards {
		top = append(top, fiber.Map{"reward_name": row.Name, "count": row.Total})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"stats": fiber.Map{
			"total_applications": total,
			"by_status":          statusBreakdown,
			"by_source":          sourceBreakdown,
			"last_7_days":        recent,
			"top_rewards":        top,
		},
	})
}

// ListByReward returns applications for one reward. Staff only.
func (h *ApplicationHandler) ListByReward(c *fiber.Ctx) error {
	rewardID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	pg := utils.ParsePagination(c)

	query := h.db.Model(&models.Application{}).Where("reward_id = ?", rewardID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if area := c.Query("area"); area != "" {
		query = query.Where("area = ?", area)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var apps []models.Application
	if err := query.Preload("User").Preload("Reward").Preload("Certificates").
		Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&apps).Error; err != nil {
		return err
	}

	data := make([]fiber.Map, 0, len(apps))
	for i := range apps {
		data = append(data, applicationResponse(&apps[i], apps[i].Reward, apps[i].User, true))
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
