package controller

import (
	"log"
	"strconv"
	"time"

	"planvite/models"
	"planvite/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type EventController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewEventController(db *gorm.DB, logger *log.Logger) *EventController {
	return &EventController{
		DB:     db,
		Logger: logger,
	}
}

// CreateEvent creates an event owned by the organization
func (ec *EventController) CreateEvent(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	orgID := c.Locals("orgID").(uint)

	var input struct {
		Name        string     `json:"name" validate:"required,max=200"`
		Description string     `json:"description" validate:"omitempty,max=2000"`
		Location    string     `json:"location" validate:"omitempty,max=500"`
		StartsAt    *time.Time `json:"starts_at"`
		EndsAt      *time.Time `json:"ends_at"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	if input.StartsAt != nil && input.EndsAt != nil && input.EndsAt.Before(*input.StartsAt) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Event cannot end before it starts", nil)
	}

	event := models.Event{
		OrganizationID: orgID,
		CreatedByID:    user.ID,
		Name:           input.Name,
		Description:    input.Description,
		Location:       input.Location,
		StartsAt:       input.StartsAt,
		EndsAt:         input.EndsAt,
		Status:         "draft",
	}

	if err := ec.DB.Create(&event).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create event", err)
	}

	ec.Logger.Printf("EVENT: created event %d (%s) in organization %d", event.ID, event.Name, orgID)

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(event))
}

// GetEvents returns paginated events for the organization
func (ec *EventController) GetEvents(c *fiber.Ctx) error {
	orgID := c.Locals("orgID").(uint)

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit > 100 {
		limit = 100
	}

	query := ec.DB.Model(&models.Event{}).Where("organization_id = ?", orgID)

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	query.Count(&total)

	var events []models.Event
	if err := query.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&events).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch events", err)
	}

	return c.JSON(utils.PaginatedResponse{
		Data:  events,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// GetEvent returns one event scoped to the organization
func (ec *EventController) GetEvent(c *fiber.Ctx) error {
	orgID := c.Locals("orgID").(uint)
	eventID := utils.ParseUint(c.Params("id"))

	var event models.Event
	if err := ec.DB.Where("id = ? AND organization_id = ?", eventID, orgID).First(&event).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Event not found", nil)
	}

	return c.JSON(utils.SuccessResponse(event))
}

// UpdateEvent updates event fields and status
func (ec *EventController) UpdateEvent(c *fiber.Ctx) error {
	orgID := c.Locals("orgID").(uint)
	eventID := utils.ParseUint(c.Params("id"))

	var input struct {
		Name        string     `json:"name" validate:"omitempty,max=200"`
		Description *string    `json:"description" validate:"omitempty,max=2000"`
		Location    *string    `json:"location" validate:"omitempty,max=500"`
		StartsAt    *time.Time `json:"starts_at"`
		EndsAt      *time.Time `json:"ends_at"`
		Status      string     `json:"status" validate:"omitempty,oneof=draft published completed canceled"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	var event models.Event
	if err := ec.DB.Where("id = ? AND organization_id = ?", eventID, orgID).First(&event).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Event not found", nil)
	}

	if input.Name != "" {
		event.Name = input.Name
	}
	if input.Description != nil {
		event.Description = *input.Description
	}
	if input.Location != nil {
		event.Location = *input.Location
	}
	if input.StartsAt != nil {
		event.StartsAt = input.StartsAt
	}
	if input.EndsAt != nil {
		event.EndsAt = input.EndsAt
	}
	if input.Status != "" {
		event.Status = input.Status
	}

	if event.StartsAt != nil && event.EndsAt != nil && event.EndsAt.Before(*event.StartsAt) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Event cannot end before it starts", nil)
	}

	if err := ec.DB.Save(&event).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update event", err)
	}

	return c.JSON(utils.SuccessResponse(event))
}

// DeleteEvent soft-deletes an event; its rows stay for audit
func (ec *EventController) DeleteEvent(c *fiber.Ctx) error {
	orgID := c.Locals("orgID").(uint)
	eventID := utils.ParseUint(c.Params("id"))

	var event models.Event
	if err := ec.DB.Where("id = ? AND organization_id = ?", eventID, orgID).First(&event).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Event not found", nil)
	}

	if err := ec.DB.Delete(&event).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete event", err)
	}

	ec.Logger.Printf("EVENT: deleted event %d in organization %d", event.ID, orgID)

	return c.JSON(fiber.Map{"message": "Event deleted"})
}

// GetEventStats returns guest, RSVP and budget aggregates for one event
func (ec *EventController) GetEventStats(c *fiber.Ctx) error {
	orgID := c.Locals("orgID").(uint)
	eventID := utils.ParseUint(c.Params("id"))

	var event models.Event
	if err := ec.DB.Where("id = ? AND organization_id = ?", eventID, orgID).First(&event).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Event not found", nil)
	}

	var guestCount int64
	ec.DB.Model(&models.Guest{}).Where("event_id = ?", event.ID).Count(&guestCount)

	type rsvpCount struct {
		Status string `json:"status"`
		Count  int64  `json:"count"`
	}
	var rsvps []rsvpCount
	ec.DB.Model(&models.RSVP{}).
		Select("status, COUNT(*) as count").
		Where("event_id = ?", event.ID).
		Group("status").
		Scan(&rsvps)

	rsvpBreakdown := fiber.Map{
		models.RSVPPending:  int64(0),
		models.RSVPAccepted: int64(0),
		models.RSVPDeclined: int64(0),
		models.RSVPMaybe:    int64(0),
	}
	for _, r := range rsvps {
		rsvpBreakdown[r.Status] = r.Count
	}

	type budgetTotal struct {
		PlannedCents int64 `json:"planned_cents"`
		ActualCents  int64 `json:"actual_cents"`
	}
	var budget budgetTotal
	ec.DB.Model(&models.BudgetItem{}).
		Select("COALESCE(SUM(planned_cents),0) as planned_cents, COALESCE(SUM(actual_cents),0) as actual_cents").
		Where("event_id = ?", event.ID).
		Scan(&budget)

	var openTasks int64
	ec.DB.Model(&models.LogisticsItem{}).
		Where("event_id = ? AND status != ?", event.ID, "done").
		Count(&openTasks)

	var invitationsSent int64
	ec.DB.Model(&models.Invitation{}).
		Where("event_id = ? AND status = ?", event.ID, models.InvitationSent).
		Count(&invitationsSent)

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"event_id":         event.ID,
		"guest_count":      guestCount,
		"rsvps":            rsvpBreakdown,
		"budget":           budget,
		"open_tasks":       openTasks,
		"invitations_sent": invitationsSent,
	}))
}
