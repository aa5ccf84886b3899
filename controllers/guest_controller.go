package controller

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"planvite/importer"
	"planvite/models"
	"planvite/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// MaxImportFileSize caps guest import uploads at 5MB.
const MaxImportFileSize = 5 * 1024 * 1024

type GuestController struct {
	DB      *gorm.DB
	Tracker *importer.ProgressTracker
	Logger  *log.Logger
}

func NewGuestController(db *gorm.DB, tracker *importer.ProgressTracker, logger *log.Logger) *GuestController {
	return &GuestController{
		DB:      db,
		Tracker: tracker,
		Logger:  logger,
	}
}

func (gc *GuestController) loadEvent(c *fiber.Ctx) (*models.Event, error) {
	orgID := c.Locals("orgID").(uint)
	eventID := utils.ParseUint(c.Params("id"))

	var event models.Event
	if err := gc.DB.Where("id = ? AND organization_id = ?", eventID, orgID).First(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// CreateGuest adds a single guest directly. Unlike the bulk import path,
// last_name is required here.
func (gc *GuestController) CreateGuest(c *fiber.Ctx) error {
	event, err := gc.loadEvent(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Event not found", nil)
	}

	var input struct {
		Title       string `json:"title" validate:"omitempty,max=50"`
		FirstName   string `json:"first_name" validate:"omitempty,max=100"`
		LastName    string `json:"last_name" validate:"required,max=100"`
		Email       string `json:"email" validate:"omitempty,email"`
		PhoneNumber string `json:"phone_number" validate:"omitempty,max=50"`
		GuestRole   string `json:"guest_role" validate:"omitempty,max=50"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	// Direct adds honor the same per-event ceiling as bulk imports
	limit, err := gc.guestLimit(event.OrganizationID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to resolve plan limits", err)
	}
	var current int64
	gc.DB.Model(&models.Guest{}).Where("event_id = ?", event.ID).Count(&current)
	if int(current) >= limit {
		return utils.ErrorResponse(c, fiber.StatusBadRequest,
			fmt.Sprintf("Guest limit reached (%d guests on the current plan)", limit), nil)
	}

	guest := models.Guest{
		EventID:  event.ID,
		LastName: input.LastName,
		Source:   "manual",
	}
	if input.Title != "" {
		guest.Title = &input.Title
	}
	if input.FirstName != "" {
		guest.FirstName = &input.FirstName
	}
	if input.Email != "" {
		email := strings.ToLower(input.Email)
		guest.Email = &email
	}
	if input.PhoneNumber != "" {
		guest.PhoneNumber = &input.PhoneNumber
	}
	if input.GuestRole != "" {
		guest.GuestRole = &input.GuestRole
	}

	token, err := utils.GenerateSecureToken()
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to generate RSVP token", err)
	}

	err = gc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&guest).Error; err != nil {
			return err
		}
		rsvp := models.RSVP{
			EventID:       event.ID,
			GuestID:       guest.ID,
			Status:        models.RSVPPending,
			ResponseToken: token,
		}
		if err := tx.Create(&rsvp).Error; err != nil {
			return err
		}
		return tx.Model(event).UpdateColumn("guest_count", gorm.Expr("guest_count + 1")).Error
	})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create guest", err)
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(guest))
}

// GetGuests returns the paginated guest list with optional search
func (gc *GuestController) GetGuests(c *fiber.Ctx) error {
	event, err := gc.loadEvent(c)
	if err != nil {
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

	query := gc.DB.Model(&models.Guest{}).Where("event_id = ?", event.ID)

	if search := c.Query("search"); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(last_name) LIKE ? OR LOWER(COALESCE(first_name, '')) LIKE ? OR LOWER(COALESCE(email, '')) LIKE ?",
			like, like, like)
	}
	if role := c.Query("role"); role != "" {
		query = query.Where("guest_role = ?", role)
	}

	var total int64
	query.Count(&total)

	var guests []models.Guest
	if err := query.Preload("RSVPs").
		Order("last_name ASC, id ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&guests).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch guests", err)
	}

	return c.JSON(utils.PaginatedResponse{
		Data:  guests,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// UpdateGuest edits a guest's contact details
func (gc *GuestController) UpdateGuest(c *fiber.Ctx) error {
	event, err := gc.loadEvent(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Event not found", nil)
	}
	guestID := utils.ParseUint(c.Params("guestID"))

	var input struct {
		Title       *string `json:"title" validate:"omitempty,max=50"`
		FirstName   *string `json:"first_name" validate:"omitempty,max=100"`
		LastName    string  `json:"last_name" validate:"omitempty,max=100"`
		Email       *string `json:"email" validate:"omitempty,email"`
		PhoneNumber *string `json:"phone_number" validate:"omitempty,max=50"`
		GuestRole   *string `json:"guest_role" validate:"omitempty,max=50"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	var guest models.Guest
	if err := gc.DB.Where("id = ? AND event_id = ?", guestID, event.ID).First(&guest).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Guest not found", nil)
	}

	if input.Title != nil {
		guest.Title = input.Title
	}
	if input.FirstName != nil {
		guest.FirstName = input.FirstName
	}
	if input.LastName != "" {
		guest.LastName = input.LastName
	}
	if input.Email != nil {
		email := strings.ToLower(*input.Email)
		guest.Email = &email
	}
	if input.PhoneNumber != nil {
		guest.PhoneNumber = input.PhoneNumber
	}
	if input.GuestRole != nil {
		guest.GuestRole = input.GuestRole
	}

	if err := gc.DB.Save(&guest).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update guest", err)
	}

	return c.JSON(utils.SuccessResponse(guest))
}

// DeleteGuest removes a guest and their RSVPs
func (gc *GuestController) DeleteGuest(c *fiber.Ctx) error {
	event, err := gc.loadEvent(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Event not found", nil)
	}
	guestID := utils.ParseUint(c.Params("guestID"))

	var guest models.Guest
	if err := gc.DB.Where("id = ? AND event_id = ?", guestID, event.ID).First(&guest).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Guest not found", nil)
	}

	err = gc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("guest_id = ?", guest.ID).Delete(&models.RSVP{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&guest).Error; err != nil {
			return err
		}
		return tx.Model(event).UpdateColumn("guest_count", gorm.Expr("GREATEST(guest_count - 1, 0)")).Error
	})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete guest", err)
	}

	return c.JSON(fiber.Map{"message": "Guest deleted"})
}

// ExportGuestsCSV streams the full guest list as a CSV download
func (gc *GuestController) ExportGuestsCSV(c *fiber.Ctx) error {
	event, err := gc.loadEvent(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Event not found", nil)
	}

	var guests []models.Guest
	if err := gc.DB.Where("event_id = ?", event.ID).Order("last_name ASC, id ASC").Find(&guests).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch guests", err)
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	writer.Write([]string{"title", "first_name", "last_name", "email", "phone_number", "role"})
	deref := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}
	for _, g := range guests {
		writer.Write([]string{
			deref(g.Title),
			deref(g.FirstName),
			g.LastName,
			deref(g.Email),
			deref(g.PhoneNumber),
			deref(g.GuestRole),
		})
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to generate CSV", err)
	}

	c.Set("Content-Type", "text/csv")
	c.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="guests-event-%d.csv"`, event.ID))
	return c.Send(buf.Bytes())
}

// PreviewImport parses an upload and returns the first rows without writing
func (gc *GuestController) PreviewImport(c *fiber.Ctx) error {
	if _, err := gc.loadEvent(c); err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Event not found", nil)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "No file uploaded", err)
	}
	if fileHeader.Size > MaxImportFileSize {
		return utils.ErrorResponse(c, fiber.StatusRequestEntityTooLarge, "File exceeds the 5MB limit", nil)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to open uploaded file", err)
	}
	defer file.Close()

	preview, err := importer.ParsePreview(file, fileHeader.Filename)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Failed to parse file", err)
	}

	return c.JSON(utils.SuccessResponse(preview))
}

// ImportGuests runs the bulk import: parse, capacity check, batched writes.
// Partial failures return 200 with failed_batches > 0; only a capacity
// violation or an unreadable file rejects the whole run.
func (gc *GuestController) ImportGuests(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	event, err := gc.loadEvent(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Event not found", nil)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "No file uploaded", err)
	}
	if fileHeader.Size > MaxImportFileSize {
		return utils.ErrorResponse(c, fiber.StatusRequestEntityTooLarge, "File exceeds the 5MB limit", nil)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to open uploaded file", err)
	}
	defer file.Close()

	records, err := importer.Parse(file, fileHeader.Filename)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Failed to parse file", err)
	}

	limit, err := gc.guestLimit(event.OrganizationID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to resolve plan limits", err)
	}

	importID, err := utils.GenerateSecureToken()
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to start import", err)
	}
	gc.Tracker.Start(importID, len(records))

	pipeline := importer.NewPipeline(importer.NewGormStore(gc.DB), gc.Logger)
	result, err := pipeline.Run(c.Context(), importer.RunInput{
		EventID:    event.ID,
		UserID:     user.ID,
		FileName:   fileHeader.Filename,
		GuestLimit: limit,
		Records:    records,
		OnProgress: func(processed, total int) {
			gc.Tracker.Update(importID, processed, total)
		},
	})
	if err != nil {
		gc.Tracker.Finish(importID, importer.StatusFailed, err.Error())

		// Only capacity and empty-file rejections are the caller's fault;
		// anything else is an internal failure and stays out of the response.
		var capErr *importer.CapacityError
		switch {
		case errors.As(err, &capErr):
			return utils.ErrorResponse(c, fiber.StatusBadRequest, capErr.Error(), nil)
		case errors.Is(err, importer.ErrNoRows):
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "File has no data rows", nil)
		default:
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Import failed", err)
		}
	}

	status := importer.StatusCompleted
	message := ""
	if result.FailedBatches > 0 {
		message = fmt.Sprintf("%d batch(es) failed; %d of %d rows persisted",
			result.FailedBatches, result.Persisted, result.Submitted)
	}
	gc.Tracker.Finish(importID, status, message)

	if result.Persisted > 0 {
		gc.DB.Model(event).UpdateColumn("guest_count", gorm.Expr("guest_count + ?", result.Persisted))
	}

	gc.Logger.Printf("IMPORT: event %d: %d submitted, %d persisted, %d failed batches, %d invalid emails",
		event.ID, result.Submitted, result.Persisted, result.FailedBatches, result.InvalidEmails)

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"import_id":      importID,
		"submitted":      result.Submitted,
		"persisted":      result.Persisted,
		"failed_batches": result.FailedBatches,
		"invalid_emails": result.InvalidEmails,
	}))
}

// GetImportHistory lists past import runs for the event
func (gc *GuestController) GetImportHistory(c *fiber.Ctx) error {
	event, err := gc.loadEvent(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Event not found", nil)
	}

	var history []models.ImportHistory
	if err := gc.DB.Where("event_id = ?", event.ID).
		Order("created_at DESC").
		Limit(50).
		Find(&history).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch import history", err)
	}

	return c.JSON(utils.SuccessResponse(history))
}

func (gc *GuestController) guestLimit(orgID uint) (int, error) {
	var org models.Organization
	if err := gc.DB.First(&org, orgID).Error; err != nil {
		return 0, err
	}

	var plan models.Plan
	if err := gc.DB.Where("name = ?", org.PlanName).First(&plan).Error; err != nil {
		return 0, err
	}
	return plan.GuestLimit, nil
}
