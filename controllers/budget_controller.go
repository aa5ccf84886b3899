package controller

import (
	"log"
	"strings"

	"planvite/models"
	"planvite/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type BudgetController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewBudgetController(db *gorm.DB, logger *log.Logger) *BudgetController {
	return &BudgetController{
		DB:     db,
		Logger: logger,
	}
}

func (bc *BudgetController) loadEvent(c *fiber.Ctx) (*models.Event, error) {
	orgID := c.Locals("orgID").(uint)
	eventID := utils.ParseUint(c.Params("id"))

	var event models.Event
	if err := bc.DB.Where("id = ? AND organization_id = ?", eventID, orgID).First(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// CreateBudgetItem adds a budget line, optionally linked to a supplier
func (bc *BudgetController) CreateBudgetItem(c *fiber.Ctx) error {
	event, err := bc.loadEvent(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Event not found", nil)
	}

	var input struct {
		Name         string `json:"name" validate:"required,max=200"`
		Category     string `json:"category" validate:"omitempty,max=100"`
		PlannedCents int    `json:"planned_cents" validate:"min=0"`
		ActualCents  int    `json:"actual_cents" validate:"min=0"`
		Currency     string `json:"currency" validate:"omitempty,len=3"`
		SupplierID   *uint  `json:"supplier_id"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	// A linked supplier must belong to the same event
	if input.SupplierID != nil {
		var supplier models.Supplier
		if err := bc.DB.Where("id = ? AND event_id = ?", *input.SupplierID, event.ID).First(&supplier).Error; err != nil {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Supplier not found", nil)
		}
	}

	item := models.BudgetItem{
		EventID:      event.ID,
		Name:         input.Name,
		Category:     input.Category,
		PlannedCents: input.PlannedCents,
		ActualCents:  input.ActualCents,
		SupplierID:   input.SupplierID,
	}
	if input.Currency != "" {
		item.Currency = strings.ToLower(input.Currency)
	}

	if err := bc.DB.Create(&item).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create budget item", err)
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(item))
}

// GetBudget returns all budget lines plus planned/actual totals
func (bc *BudgetController) GetBudget(c *fiber.Ctx) error {
	event, err := bc.loadEvent(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Event not found", nil)
	}

	var items []models.BudgetItem
	if err := bc.DB.Preload("Supplier").
		Where("event_id = ?", event.ID).
		Order("category ASC, name ASC").
		Find(&items).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch budget", err)
	}

	var plannedTotal, actualTotal int
	for _, item := range items {
		plannedTotal += item.PlannedCents
		actualTotal += item.ActualCents
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"items":         items,
		"planned_cents": plannedTotal,
		"actual_cents":  actualTotal,
	}))
}

// UpdateBudgetItem edits a budget line
func (bc *BudgetController) UpdateBudgetItem(c *fiber.Ctx) error {
	event, err := bc.loadEvent(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Event not found", nil)
	}
	itemID := utils.ParseUint(c.Params("itemID"))

	var input struct {
		Name         string `json:"name" validate:"omitempty,max=200"`
		Category     string `json:"category" validate:"omitempty,max=100"`
		PlannedCents *int   `json:"planned_cents" validate:"omitempty,min=0"`
		ActualCents  *int   `json:"actual_cents" validate:"omitempty,min=0"`
		SupplierID   *uint  `json:"supplier_id"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	var item models.BudgetItem
	if err := bc.DB.Where("id = ? AND event_id = ?", itemID, event.ID).First(&item).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Budget item not found", nil)
	}

	if input.Name != "" {
		item.Name = input.Name
	}
	if input.Category != "" {
		item.Category = input.Category
	}
	if input.PlannedCents != nil {
		item.PlannedCents = *input.PlannedCents
	}
	if input.ActualCents != nil {
		item.ActualCents = *input.ActualCents
	}
	if input.SupplierID != nil {
		var supplier models.Supplier
		if err := bc.DB.Where("id = ? AND event_id = ?", *input.SupplierID, event.ID).First(&supplier).Error; err != nil {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Supplier not found", nil)
		}
		item.SupplierID = input.SupplierID
	}

	if err := bc.DB.Save(&item).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update budget item", err)
	}

	return c.JSON(utils.SuccessResponse(item))
}

// DeleteBudgetItem removes a budget line
func (bc *BudgetController) DeleteBudgetItem(c *fiber.Ctx) error {
	event, err := bc.loadEvent(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Event not found", nil)
	}
	itemID := utils.ParseUint(c.Params("itemID"))

	result := bc.DB.Where("id = ? AND event_id = ?", itemID, event.ID).Delete(&models.BudgetItem{})
	if result.Error != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete budget item", result.Error)
	}
	if result.RowsAffected == 0 {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Budget item not found", nil)
	}

	return c.JSON(fiber.Map{"message": "Budget item deleted"})
}
