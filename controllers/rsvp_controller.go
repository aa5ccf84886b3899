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

type RSVPController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewRSVPController(db *gorm.DB, logger *log.Logger) *RSVPController {
	return &RSVPController{
		DB:     db,
		Logger: logger,
	}
}

// GetRSVPs returns the paginated RSVP list for an event
func (rc *RSVPController) GetRSVPs(c *fiber.Ctx) error {
	orgID := c.Locals("orgID").(uint)
	eventID := utils.ParseUint(c.Params("id"))

	var event models.Event
	if err := rc.DB.Where("id = ? AND organization_id = ?", eventID, orgID).First(&event).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Event not found", nil)
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit > 200 {
		limit = 200
	}

	query := rc.DB.Model(&models.RSVP{}).Where("event_id = ?", event.ID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	query.Count(&total)

	var rsvps []models.RSVP
	if err := query.Preload("Guest").
		Order("updated_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&rsvps).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch RSVPs", err)
	}

	return c.JSON(utils.PaginatedResponse{
		Data:  rsvps,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// UpdateRSVP lets an event manager set a guest's response on their behalf
func (rc *RSVPController) UpdateRSVP(c *fiber.Ctx) error {
	orgID := c.Locals("orgID").(uint)
	eventID := utils.ParseUint(c.Params("id"))
	rsvpID := utils.ParseUint(c.Params("rsvpID"))

	var input struct {
		Status   string `json:"status" validate:"required,oneof=pending accepted declined maybe"`
		PlusOnes int    `json:"plus_ones" validate:"omitempty,min=0,max=20"`
		Note     string `json:"note" validate:"omitempty,max=1000"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	var rsvp models.RSVP
	err := rc.DB.
		Joins("JOIN events ON events.id = rsvps.event_id").
		Where("rsvps.id = ? AND rsvps.event_id = ? AND events.organization_id = ?", rsvpID, eventID, orgID).
		First(&rsvp).Error
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "RSVP not found", nil)
	}

	now := time.Now()
	rsvp.Status = input.Status
	rsvp.PlusOnes = input.PlusOnes
	rsvp.Note = input.Note
	if input.Status != models.RSVPPending {
		rsvp.RespondedAt = &now
	}

	if err := rc.DB.Save(&rsvp).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update RSVP", err)
	}

	return c.JSON(utils.SuccessResponse(rsvp))
}

// RespondByToken is the public guest-facing endpoint behind the emailed link.
// No authentication; the token is the credential.
func (rc *RSVPController) RespondByToken(c *fiber.Ctx) error {
	token := c.Params("token")
	if token == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Missing response token", nil)
	}

	var input struct {
		Status   string `json:"status" validate:"required,oneof=accepted declined maybe"`
		PlusOnes int    `json:"plus_ones" validate:"omitempty,min=0,max=20"`
		Note     string `json:"note" validate:"omitempty,max=1000"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	var rsvp models.RSVP
	if err := rc.DB.Where("response_token = ?", token).First(&rsvp).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Invalid response link", nil)
	}

	// Respond-by-link only works while the event is live
	var event models.Event
	if err := rc.DB.First(&event, rsvp.EventID).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Event not found", nil)
	}
	if event.Status == "canceled" || event.Status == "completed" {
		return utils.ErrorResponse(c, fiber.StatusGone, "This event is no longer accepting responses", nil)
	}

	now := time.Now()
	rsvp.Status = input.Status
	rsvp.PlusOnes = input.PlusOnes
	rsvp.Note = input.Note
	rsvp.RespondedAt = &now

	if err := rc.DB.Save(&rsvp).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to save response", err)
	}

	rc.Logger.Printf("RSVP: guest %d responded %s to event %d", rsvp.GuestID, rsvp.Status, rsvp.EventID)

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"status":    rsvp.Status,
		"plus_ones": rsvp.PlusOnes,
	}))
}
