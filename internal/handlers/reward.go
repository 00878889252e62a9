package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/mukofot/internal/models"
	"github.com/example/mukofot/internal/utils"
)

// RewardHandler manages the reward catalog.
type RewardHandler struct {
	db *gorm.DB
}

// NewRewardHandler constructs RewardHandler.
func NewRewardHandler(db *gorm.DB) *RewardHandler {
	return &RewardHandler{db: db}
}

type rewardCounts struct {
	Applications int64
	Pending      int64
	Awarded      int64
}

var pendingStatuses = []string{
	models.StatusSubmitted,
	models.StatusNeighborhood,
	models.StatusDistrict,
	models.StatusRegion,
}

// applicationCounts aggregates per-reward application counts in one grouped
// query.
func (h *RewardHandler) applicationCounts(rewardIDs []uuid.UUID) (map[uuid.UUID]*rewardCounts, error) {
	counts := make(map[uuid.UUID]*rewardCounts, len(rewardIDs))
	for _, id := range rewardIDs {
		counts[id] = &rewardCounts{}
	}
	if len(rewardIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		RewardID uuid.UUID
		Status   string
		Total    int64
	}
	err := h.db.Model(&models.Application{}).
		Select("reward_id, status, count(*) as total").
		Where("reward_id IN ?", rewardIDs).
		Group("reward_id, status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		entry, ok := counts[row.RewardID]
		if !ok {
			continue
		}
		entry.Applications += row.Total
		for _, s := range pendingStatuses {
			if row.Status == s {
				entry.Pending += row.Total
			}
		}
		if row.Status == models.StatusAwarded {
			entry.Awarded += row.Total
		}
	}

	return counts, nil
}

func rewardResponse(reward *models.Reward, counts *rewardCounts) fiber.Map {
	resp := fiber.Map{
		"id":          reward.ID,
		"name":        reward.Name,
		"description": reward.Description,
		"image":       reward.Image,
		"created_at":  reward.CreatedAt,
		"updated_at":  reward.UpdatedAt,
	}
	if counts != nil {
		resp["applications_count"] = counts.Applications
		resp["pending_applications"] = counts.Pending
		resp["awarded_applications"] = counts.Awarded
	}
	return resp
}

// ListRewards returns the paginated catalog with aggregate application counts.
func (h *RewardHandler) ListRewards(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)

	query := h.db.Model(&models.Reward{})
	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("name ILIKE ? OR description ILIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var rewards []models.Reward
	if err := query.Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&rewards).Error; err != nil {
		return err
	}

	ids := make([]uuid.UUID, 0, len(rewards))
	for _, reward := range rewards {
		ids = append(ids, reward.ID)
	}
	counts, err := h.applicationCounts(ids)
	if err != nil {
		return err
	}

	data := make([]fiber.Map, 0, len(rewards))
	for i := range rewards {
		data = append(data, rewardResponse(&rewards[i], counts[rewards[i].ID]))
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

// GetReward returns a single reward with its aggregate counts.
func (h *RewardHandler) GetReward(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var reward models.Reward
	if err := h.db.First(&reward, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "reward not found")
		}
		return err
	}

	counts, err := h.applicationCounts([]uuid.UUID{reward.ID})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": rewardResponse(&reward, counts[reward.ID])})
}

type rewardRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

func (r *rewardRequest) validate() map[string]string {
	errs := map[string]string{}
	if r.Name == "" {
		errs["name"] = "name is required"
	} else if len(r.Name) > 100 {
		errs["name"] = "name must be at most 100 characters"
	}
	if r.Description == "" {
		errs["description"] = "description is required"
	}
	return errs
}

// CreateReward persists a new reward. Staff only.
func (h *RewardHandler) CreateReward(c *fiber.Ctx) error {
	var req rewardRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if errs := req.validate(); len(errs) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "errors": errs})
	}

	var count int64
	if err := h.db.Model(&models.Reward{}).Where("name = ?", req.Name).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"errors":  fiber.Map{"name": "a reward with this name already exists"},
		})
	}

	reward := models.Reward{
		Name:        req.Name,
		Description: req.Description,
		Image:       req.Image,
	}
	if err := h.db.Create(&reward).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "reward created",
		"data":    rewardResponse(&reward, nil),
	})
}

// UpdateReward updates an existing reward. Staff only.
func (h *RewardHandler) UpdateReward(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var reward models.Reward
	if err := h.db.First(&reward, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "reward not found")
		}
		return err
	}

	var req rewardRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Name != "" {
		var count int64
		if err := h.db.Model(&models.Reward{}).
			Where("name = ? AND id <> ?", req.Name, id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"errors":  fiber.Map{"name": "a reward with this name already exists"},
			})
		}
		reward.Name = req.Name
	}
	if req.Description != "" {
		reward.Description = req.Description
	}
	if req.Image != "" {
		reward.Image = req.Image
	}

	if err := h.db.Save(&reward).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "reward updated",
		"data":    rewardResponse(&reward, nil),
	})
}

// DeleteReward removes a reward that has no applications. Staff only.
func (h *RewardHandler) DeleteReward(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var reward models.Reward
	if err := h.db.First(&reward, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "reward not found")
		}
		return err
	}

	var count int64
	if err := h.db.Model(&models.Application{}).Where("reward_id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fiber.NewError(fiber.StatusBadRequest, "reward has applications and cannot be deleted")
	}

	if err := h.db.Delete(&reward).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "message": "reward deleted"})
}

// RewardStats returns the per-status application breakdown for a reward.
// Staff only.
func (h *RewardHandler) RewardStats(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var reward models.Reward
	if err := h.db.First(&reward, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "reward not found")
		}
		return err
	}

	var rows []struct {
		Status string
		Total  int64
	}
	if err := h.db.Model(&models.Application{}).
		Select("status, count(*) as total").
		Where("reward_id = ?", id).
		Group("status").
		Scan(&rows).Error; err != nil {
		return err
	}

	breakdown := fiber.Map{}
	var total int64
	for _, row := range rows {
		breakdown[row.Status] = fiber.Map{
			"name":  models.StatusLabels[row.Status],
			"count": row.Total,
		}
		total += row.Total
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"reward_name": reward.Name,
		"statistics": fiber.Map{
			"total_applications": total,
			"status_breakdown":   breakdown,
		},
	})
}
