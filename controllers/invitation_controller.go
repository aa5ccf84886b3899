package controller

import (
	"log"

	"planvite/models"
	"planvite/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type InvitationController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewInvitationController(db *gorm.DB, logger *log.Logger) *InvitationController {
	return &InvitationController{
		DB:     db,
		Logger: logger,
	}
}

// CreateTemplate adds an organization-wide invitation template
func (ic *InvitationController) CreateTemplate(c *fiber.Ctx) error {
	orgID := c.Locals("orgID").(uint)

	var input struct {
		Name        string `json:"name" validate:"required,max=200"`
		Subject     string `json:"subject" validate:"required,max=500"`
		HTMLContent string `json:"html_content" validate:"omitempty"`
		TextContent string `json:"text_content" validate:"omitempty"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}
	if input.HTMLContent == "" && input.TextContent == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Template needs an HTML or text body", nil)
	}

	tmpl := models.InvitationTemplate{
		OrganizationID: orgID,
		Name:           input.Name,
		Subject:        input.Subject,
		HTMLContent:    input.HTMLContent,
		TextContent:    input.TextContent,
	}

	if err := ic.DB.Create(&tmpl).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create template", err)
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(tmpl))
}

// GetTemplates lists the organization's templates
func (ic *InvitationController) GetTemplates(c *fiber.Ctx) error {
	orgID := c.Locals("orgID").(uint)

	var templates []models.InvitationTemplate
	if err := ic.DB.Where("organization_id = ?", orgID).Order("name ASC").Find(&templates).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch templates", err)
	}

	return c.JSON(utils.SuccessResponse(templates))
}

// UpdateTemplate edits a template
func (ic *InvitationController) UpdateTemplate(c *fiber.Ctx) error {
	orgID := c.Locals("orgID").(uint)
	templateID := utils.ParseUint(c.Params("templateID"))

	var input struct {
		Name        string  `json:"name" validate:"omitempty,max=200"`
		Subject     string  `json:"subject" validate:"omitempty,max=500"`
		HTMLContent *string `json:"html_content"`
		TextContent *string `json:"text_content"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	var tmpl models.InvitationTemplate
	if err := ic.DB.Where("id = ? AND organization_id = ?", templateID, orgID).First(&tmpl).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Template not found", nil)
	}

	if input.Name != "" {
		tmpl.Name = input.Name
	}
	if input.Subject != "" {
		tmpl.Subject = input.Subject
	}
	if input.HTMLContent != nil {
		tmpl.HTMLContent = *input.HTMLContent
	}
	if input.TextContent != nil {
		tmpl.TextContent = *input.TextContent
	}
	if tmpl.HTMLContent == "" && tmpl.TextContent == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Template needs an HTML or text body", nil)
	}

	if err := ic.DB.Save(&tmpl).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update template", err)
	}

	return c.JSON(utils.SuccessResponse(tmpl))
}

// DeleteTemplate removes a template; already-queued invitations keep sending
func (ic *InvitationController) DeleteTemplate(c *fiber.Ctx) error {
	orgID := c.Locals("orgID").(uint)
	templateID := utils.ParseUint(c.Params("templateID"))

	result := ic.DB.Where("id = ? AND organization_id = ?", templateID, orgID).Delete(&models.InvitationTemplate{})
	if result.Error != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete template", result.Error)
	}
	if result.RowsAffected == 0 {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Template not found", nil)
	}

	return c.JSON(fiber.Map{"message": "Template deleted"})
}

// SendInvitations queues one invitation per addressable guest. The worker
// drains the queue; this endpoint only creates rows. Guests without an email
// are reported back, not failed.
func (ic *InvitationController) SendInvitations(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	orgID := c.Locals("orgID").(uint)
	eventID := utils.ParseUint(c.Params("id"))

	var input struct {
		TemplateID uint   `json:"template_id" validate:"required"`
		GuestIDs   []uint `json:"guest_ids"` // empty means every guest
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	var event models.Event
	if err := ic.DB.Where("id = ? AND organization_id = ?", eventID, orgID).First(&event).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Event not found", nil)
	}

	var tmpl models.InvitationTemplate
	if err := ic.DB.Where("id = ? AND organization_id = ?", input.TemplateID, orgID).First(&tmpl).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Template not found", nil)
	}

	query := ic.DB.Where("event_id = ?", event.ID)
	if len(input.GuestIDs) > 0 {
		query = query.Where("id IN ?", input.GuestIDs)
	}
	var guests []models.Guest
	if err := query.Find(&guests).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch guests", err)
	}
	if len(guests) == 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "No guests to invite", nil)
	}

	queued := 0
	skippedNoEmail := 0
	invitations := make([]models.Invitation, 0, len(guests))
	for _, g := range guests {
		if g.Email == nil || *g.Email == "" {
			skippedNoEmail++
			continue
		}
		invitations = append(invitations, models.Invitation{
			EventID:    event.ID,
			GuestID:    g.ID,
			TemplateID: tmpl.ID,
			QueuedByID: user.ID,
			Recipient:  *g.Email,
			Status:     models.InvitationQueued,
		})
	}

	if len(invitations) > 0 {
		if err := ic.DB.Create(&invitations).Error; err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to queue invitations", err)
		}
		queued = len(invitations)
	}

	ic.Logger.Printf("INVITE: queued %d invitation(s) for event %d (%d guests without email)",
		queued, event.ID, skippedNoEmail)

	return c.Status(fiber.StatusAccepted).JSON(utils.SuccessResponse(fiber.Map{
		"queued":           queued,
		"skipped_no_email": skippedNoEmail,
	}))
}

// GetInvitations lists an event's invitations with delivery state
func (ic *InvitationController) GetInvitations(c *fiber.Ctx) error {
	orgID := c.Locals("orgID").(uint)
	eventID := utils.ParseUint(c.Params("id"))

	var event models.Event
	if err := ic.DB.Where("id = ? AND organization_id = ?", eventID, orgID).First(&event).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Event not found", nil)
	}

	query := ic.DB.Where("event_id = ?", event.ID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var invitations []models.Invitation
	if err := query.Order("created_at DESC").Limit(500).Find(&invitations).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch invitations", err)
	}

	return c.JSON(utils.SuccessResponse(invitations))
}
