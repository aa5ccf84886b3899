package controller

import (
	"log"

	"planvite/models"
	"planvite/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type SupplierController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewSupplierController(db *gorm.DB, logger *log.Logger) *SupplierController {
	return &SupplierController{
		DB:     db,
		Logger: logger,
	}
}

type supplierInput struct {
	Name         string `json:"name" validate:"required,max=200"`
	Category     string `json:"category" validate:"omitempty,max=100"`
	ContactName  string `json:"contact_name" validate:"omitempty,max=200"`
	ContactEmail string `json:"contact_email" validate:"omitempty,email"`
	ContactPhone string `json:"contact_phone" validate:"omitempty,max=50"`
	Status       string `json:"status" validate:"omitempty,oneof=prospect contacted booked canceled"`
	Notes        string `json:"notes" validate:"omitempty,max=5000"`
}

func (sc *SupplierController) loadEvent(c *fiber.Ctx) (*models.Event, error) {
	orgID := c.Locals("orgID").(uint)
	eventID := utils.ParseUint(c.Params("id"))

	var event models.Event
	if err := sc.DB.Where("id = ? AND organization_id = ?", eventID, orgID).First(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// CreateSupplier adds a vendor to an event
func (sc *SupplierController) CreateSupplier(c *fiber.Ctx) error {
	event, err := sc.loadEvent(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Event not found", nil)
	}

	var input supplierInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	supplier := models.Supplier{
		EventID:        event.ID,
		OrganizationID: event.OrganizationID,
		Name:           input.Name,
		Category:       input.Category,
		ContactName:    input.ContactName,
		ContactEmail:   input.ContactEmail,
		ContactPhone:   input.ContactPhone,
		Notes:          input.Notes,
	}
	if input.Status != "" {
		supplier.Status = input.Status
	}

	if err := sc.DB.Create(&supplier).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create supplier", err)
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(supplier))
}

// GetSuppliers lists an event's vendors, optionally by category or status
func (sc *SupplierController) GetSuppliers(c *fiber.Ctx) error {
	event, err := sc.loadEvent(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Event not found", nil)
	}

	query := sc.DB.Where("event_id = ?", event.ID)
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var suppliers []models.Supplier
	if err := query.Order("name ASC").Find(&suppliers).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch suppliers", err)
	}

	return c.JSON(utils.SuccessResponse(suppliers))
}

// UpdateSupplier edits a vendor's details and status
func (sc *SupplierController) UpdateSupplier(c *fiber.Ctx) error {
	event, err := sc.loadEvent(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Event not found", nil)
	}
	supplierID := utils.ParseUint(c.Params("supplierID"))

	var input struct {
		Name         string `json:"name" validate:"omitempty,max=200"`
		Category     string `json:"category" validate:"omitempty,max=100"`
		ContactName  string `json:"contact_name" validate:"omitempty,max=200"`
		ContactEmail string `json:"contact_email" validate:"omitempty,email"`
		ContactPhone string `json:"contact_phone" validate:"omitempty,max=50"`
		Status       string `json:"status" validate:"omitempty,oneof=prospect contacted booked canceled"`
		Notes        string `json:"notes" validate:"omitempty,max=5000"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	var supplier models.Supplier
	if err := sc.DB.Where("id = ? AND event_id = ?", supplierID, event.ID).First(&supplier).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Supplier not found", nil)
	}

	if input.Name != "" {
		supplier.Name = input.Name
	}
	if input.Category != "" {
		supplier.Category = input.Category
	}
	if input.ContactName != "" {
		supplier.ContactName = input.ContactName
	}
	if input.ContactEmail != "" {
		supplier.ContactEmail = input.ContactEmail
	}
	if input.ContactPhone != "" {
		supplier.ContactPhone = input.ContactPhone
	}
	if input.Status != "" {
		supplier.Status = input.Status
	}
	if input.Notes != "" {
		supplier.Notes = input.Notes
	}

	if err := sc.DB.Save(&supplier).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update supplier", err)
	}

	return c.JSON(utils.SuccessResponse(supplier))
}

// DeleteSupplier removes a vendor; linked budget lines keep their amounts
func (sc *SupplierController) DeleteSupplier(c *fiber.Ctx) error {
	event, err := sc.loadEvent(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Event not found", nil)
	}
	supplierID := utils.ParseUint(c.Params("supplierID"))

	var supplier models.Supplier
	if err := sc.DB.Where("id = ? AND event_id = ?", supplierID, event.ID).First(&supplier).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Supplier not found", nil)
	}

	err = sc.DB.Transaction(func(tx *gorm.DB) error {
		// Detach budget lines rather than deleting them
		if err := tx.Model(&models.BudgetItem{}).
			Where("supplier_id = ?", supplier.ID).
			Update("supplier_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&supplier).Error
	})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete supplier", err)
	}

	return c.JSON(fiber.Map{"message": "Supplier deleted"})
}
