package controller

import (
	"log"
	"time"

	"planvite/models"
	"planvite/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type LogisticsController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewLogisticsController(db *gorm.DB, logger *log.Logger) *LogisticsController {
	return &LogisticsController{
		DB:     db,
		Logger: logger,
	}
}

func (lc *LogisticsController) loadEvent(c *fiber.Ctx) (*models.Event, error) {
	orgID := c.Locals("orgID").(uint)
	eventID := utils.ParseUint(c.Params("id"))

	var event models.Event
	if err := lc.DB.Where("id = ? AND organization_id = ?", eventID, orgID).First(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// CreateLogisticsItem adds a task to an event's logistics checklist
func (lc *LogisticsController) CreateLogisticsItem(c *fiber.Ctx) error {
	event, err := lc.loadEvent(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Event not found", nil)
	}

	var input struct {
		Name         string     `json:"name" validate:"required,max=200"`
		Description  string     `json:"description" validate:"omitempty,max=2000"`
		DueAt        *time.Time `json:"due_at"`
		AssignedToID *uint      `json:"assigned_to_id"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	// An assignee must be an active member of the owning organization
	if input.AssignedToID != nil {
		var member models.OrganizationMember
		err := lc.DB.Where("organization_id = ? AND user_id = ? AND status = ?",
			event.OrganizationID, *input.AssignedToID, models.MemberStatusActive).First(&member).Error
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Assignee is not an active member of this organization", nil)
		}
	}

	item := models.LogisticsItem{
		EventID:      event.ID,
		Name:         input.Name,
		Description:  input.Description,
		DueAt:        input.DueAt,
		AssignedToID: input.AssignedToID,
		Status:       "open",
	}

	if err := lc.DB.Create(&item).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create logistics item", err)
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(item))
}

// GetLogistics lists an event's tasks, optionally by status or assignee
func (lc *LogisticsController) GetLogistics(c *fiber.Ctx) error {
	event, err := lc.loadEvent(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Event not found", nil)
	}

	query := lc.DB.Preload("AssignedTo").Where("event_id = ?", event.ID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if assignee := c.Query("assigned_to"); assignee != "" {
		query = query.Where("assigned_to_id = ?", utils.ParseUint(assignee))
	}

	var items []models.LogisticsItem
	if err := query.Order("due_at ASC NULLS LAST, id ASC").Find(&items).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch logistics items", err)
	}

	return c.JSON(utils.SuccessResponse(items))
}

// UpdateLogisticsItem edits a task or moves it through its statuses
func (lc *LogisticsController) UpdateLogisticsItem(c *fiber.Ctx) error {
	event, err := lc.loadEvent(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Event not found", nil)
	}
	itemID := utils.ParseUint(c.Params("itemID"))

	var input struct {
		Name         string     `json:"name" validate:"omitempty,max=200"`
		Description  *string    `json:"description" validate:"omitempty,max=2000"`
		DueAt        *time.Time `json:"due_at"`
		AssignedToID *uint      `json:"assigned_to_id"`
		Status       string     `json:"status" validate:"omitempty,oneof=open in_progress done"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	var item models.LogisticsItem
	if err := lc.DB.Where("id = ? AND event_id = ?", itemID, event.ID).First(&item).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Logistics item not found", nil)
	}

	if input.Name != "" {
		item.Name = input.Name
	}
	if input.Description != nil {
		item.Description = *input.Description
	}
	if input.DueAt != nil {
		item.DueAt = input.DueAt
	}
	if input.AssignedToID != nil {
		var member models.OrganizationMember
		err := lc.DB.Where("organization_id = ? AND user_id = ? AND status = ?",
			event.OrganizationID, *input.AssignedToID, models.MemberStatusActive).First(&member).Error
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Assignee is not an active member of this organization", nil)
		}
		item.AssignedToID = input.AssignedToID
	}
	if input.Status != "" {
		item.Status = input.Status
	}

	if err := lc.DB.Save(&item).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update logistics item", err)
	}

	return c.JSON(utils.SuccessResponse(item))
}

// DeleteLogisticsItem removes a task
func (lc *LogisticsController) DeleteLogisticsItem(c *fiber.Ctx) error {
	event, err := lc.loadEvent(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Event not found", nil)
	}
	itemID := utils.ParseUint(c.Params("itemID"))

	result := lc.DB.Where("id = ? AND event_id = ?", itemID, event.ID).Delete(&models.LogisticsItem{})
	if result.Error != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete logistics item", result.Error)
	}
	if result.RowsAffected == 0 {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Logistics item not found", nil)
	}

	return c.JSON(fiber.Map{"message": "Logistics item deleted"})
}
