package controller

import (
	"log"
	"strings"
	"time"

	"planvite/models"
	"planvite/permissions"
	"planvite/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type OrganizationController struct {
	DB     *gorm.DB
	Engine *permissions.Engine
	Mailer *utils.InviteMailer
	Logger *log.Logger
}

func NewOrganizationController(db *gorm.DB, engine *permissions.Engine, logger *log.Logger) *OrganizationController {
	return &OrganizationController{
		DB:     db,
		Engine: engine,
		Mailer: utils.NewInviteMailer(),
		Logger: logger,
	}
}

// CreateOrganization creates a tenant and makes the creator its owner
func (oc *OrganizationController) CreateOrganization(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		Name        string `json:"name" validate:"required,max=200"`
		Description string `json:"description" validate:"omitempty,max=1000"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	org := models.Organization{
		Name:        input.Name,
		Description: input.Description,
		PlanName:    "starter",
	}

	// Org and owner membership must land together
	err := oc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&org).Error; err != nil {
			return err
		}
		member := models.OrganizationMember{
			OrganizationID: org.ID,
			UserID:         user.ID,
			Role:           models.RoleOwner,
			Status:         models.MemberStatusActive,
		}
		return tx.Create(&member).Error
	})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create organization", err)
	}

	oc.Logger.Printf("ORG: created organization %d (%s) for user %d", org.ID, org.Name, user.ID)

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(org))
}

// GetOrganizations lists the organizations the user belongs to
func (oc *OrganizationController) GetOrganizations(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var orgs []models.Organization
	if err := oc.DB.
		Joins("JOIN organization_members ON organization_members.organization_id = organizations.id").
		Where("organization_members.user_id = ? AND organization_members.status = ? AND organization_members.deleted_at IS NULL",
			user.ID, models.MemberStatusActive).
		Find(&orgs).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch organizations", err)
	}

	return c.JSON(utils.SuccessResponse(orgs))
}

// GetOrganization returns one organization with the caller's role attached
func (oc *OrganizationController) GetOrganization(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	orgID := c.Locals("orgID").(uint)

	var org models.Organization
	if err := oc.DB.First(&org, orgID).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Organization not found", nil)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"organization": org,
		"role":         oc.Engine.Role(c.Context(), user.ID, orgID),
	}))
}

// UpdateOrganization updates name/description and currency
func (oc *OrganizationController) UpdateOrganization(c *fiber.Ctx) error {
	orgID := c.Locals("orgID").(uint)

	var input struct {
		Name            string `json:"name" validate:"omitempty,max=200"`
		Description     string `json:"description" validate:"omitempty,max=1000"`
		DefaultCurrency string `json:"default_currency" validate:"omitempty,len=3"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	var org models.Organization
	if err := oc.DB.First(&org, orgID).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Organization not found", nil)
	}

	if input.Name != "" {
		org.Name = input.Name
	}
	if input.Description != "" {
		org.Description = input.Description
	}
	if input.DefaultCurrency != "" {
		org.DefaultCurrency = strings.ToLower(input.DefaultCurrency)
	}

	if err := oc.DB.Save(&org).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update organization", err)
	}

	return c.JSON(utils.SuccessResponse(org))
}

// GetMembers lists active and suspended members with their users preloaded
func (oc *OrganizationController) GetMembers(c *fiber.Ctx) error {
	orgID := c.Locals("orgID").(uint)

	var members []models.OrganizationMember
	if err := oc.DB.Preload("User").
		Where("organization_id = ?", orgID).
		Order("created_at ASC").
		Find(&members).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch members", err)
	}

	return c.JSON(utils.SuccessResponse(members))
}

// InviteMember creates a tokened invite and emails the join link
func (oc *OrganizationController) InviteMember(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	orgID := c.Locals("orgID").(uint)

	var input struct {
		Email string `json:"email" validate:"required,email"`
		Role  string `json:"role" validate:"required,oneof=admin member"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	email := strings.ToLower(input.Email)

	// Already a member?
	var existing models.OrganizationMember
	err := oc.DB.Joins("JOIN users ON users.id = organization_members.user_id").
		Where("organization_members.organization_id = ? AND users.email = ?", orgID, email).
		First(&existing).Error
	if err == nil {
		return utils.ErrorResponse(c, fiber.StatusConflict, "User is already a member of this organization", nil)
	}

	var org models.Organization
	if err := oc.DB.First(&org, orgID).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Organization not found", nil)
	}

	token, err := utils.GenerateSecureToken()
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to generate invite token", err)
	}

	invite := models.MemberInvite{
		OrganizationID: orgID,
		InvitedByID:    user.ID,
		Email:          email,
		Role:           input.Role,
		Token:          token,
		ExpiresAt:      utils.InviteExpiryTime(),
	}

	if err := oc.DB.Create(&invite).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create invite", err)
	}

	// Email failures don't undo the invite; the link can be re-sent
	if err := oc.Mailer.SendMemberInvite(email, org.Name, input.Role, token); err != nil {
		oc.Logger.Printf("ORG: invite email to %s failed: %v", email, err)
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(fiber.Map{
		"invite_id":  invite.ID,
		"email":      invite.Email,
		"role":       invite.Role,
		"expires_at": invite.ExpiresAt,
	}))
}

// AcceptInvite redeems an invite token for the authenticated user
func (oc *OrganizationController) AcceptInvite(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		Token string `json:"token" validate:"required"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	var invite models.MemberInvite
	if err := oc.DB.Where("token = ?", input.Token).First(&invite).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Invite not found", nil)
	}

	if invite.AcceptedAt != nil {
		return utils.ErrorResponse(c, fiber.StatusConflict, "Invite already accepted", nil)
	}
	if time.Now().After(invite.ExpiresAt) {
		return utils.ErrorResponse(c, fiber.StatusGone, "Invite has expired", nil)
	}
	if !strings.EqualFold(user.Email, invite.Email) {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "Invite was issued to a different email address", nil)
	}

	now := time.Now()
	err := oc.DB.Transaction(func(tx *gorm.DB) error {
		member := models.OrganizationMember{
			OrganizationID: invite.OrganizationID,
			UserID:         user.ID,
			Role:           invite.Role,
			Status:         models.MemberStatusActive,
		}
		if err := tx.Create(&member).Error; err != nil {
			return err
		}
		return tx.Model(&invite).Update("accepted_at", &now).Error
	})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to accept invite", err)
	}

	oc.Engine.Invalidate(user.ID, invite.OrganizationID)
	oc.Logger.Printf("ORG: user %d joined organization %d as %s", user.ID, invite.OrganizationID, invite.Role)

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"organization_id": invite.OrganizationID,
		"role":            invite.Role,
	}))
}

// UpdateMemberRole changes a member's role and drops their cached permissions
func (oc *OrganizationController) UpdateMemberRole(c *fiber.Ctx) error {
	orgID := c.Locals("orgID").(uint)
	memberID := utils.ParseUint(c.Params("memberID"))

	var input struct {
		Role string `json:"role" validate:"required,oneof=owner admin member"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	var member models.OrganizationMember
	if err := oc.DB.Where("id = ? AND organization_id = ?", memberID, orgID).First(&member).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Member not found", nil)
	}

	// Demoting the last owner would orphan the organization
	if member.Role == models.RoleOwner && input.Role != models.RoleOwner {
		var owners int64
		oc.DB.Model(&models.OrganizationMember{}).
			Where("organization_id = ? AND role = ? AND status = ?", orgID, models.RoleOwner, models.MemberStatusActive).
			Count(&owners)
		if owners <= 1 {
			return utils.ErrorResponse(c, fiber.StatusConflict, "Cannot demote the only owner", nil)
		}
	}

	member.Role = input.Role
	if err := oc.DB.Save(&member).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update member role", err)
	}

	// The next check re-reads the new role
	oc.Engine.Invalidate(member.UserID, orgID)
	oc.Logger.Printf("ORG: member %d in organization %d is now %s", member.UserID, orgID, member.Role)

	return c.JSON(utils.SuccessResponse(member))
}

// UpdateMemberStatus suspends or reactivates a member
func (oc *OrganizationController) UpdateMemberStatus(c *fiber.Ctx) error {
	orgID := c.Locals("orgID").(uint)
	memberID := utils.ParseUint(c.Params("memberID"))

	var input struct {
		Status string `json:"status" validate:"required,oneof=active inactive suspended"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	var member models.OrganizationMember
	if err := oc.DB.Where("id = ? AND organization_id = ?", memberID, orgID).First(&member).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Member not found", nil)
	}

	if member.Role == models.RoleOwner && input.Status != models.MemberStatusActive {
		var owners int64
		oc.DB.Model(&models.OrganizationMember{}).
			Where("organization_id = ? AND role = ? AND status = ?", orgID, models.RoleOwner, models.MemberStatusActive).
			Count(&owners)
		if owners <= 1 {
			return utils.ErrorResponse(c, fiber.StatusConflict, "Cannot suspend the only owner", nil)
		}
	}

	member.Status = input.Status
	if err := oc.DB.Save(&member).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update member status", err)
	}

	oc.Engine.Invalidate(member.UserID, orgID)

	return c.JSON(utils.SuccessResponse(member))
}

// RemoveMember deletes a membership
func (oc *OrganizationController) RemoveMember(c *fiber.Ctx) error {
	orgID := c.Locals("orgID").(uint)
	memberID := utils.ParseUint(c.Params("memberID"))

	var member models.OrganizationMember
	if err := oc.DB.Where("id = ? AND organization_id = ?", memberID, orgID).First(&member).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Member not found", nil)
	}

	if member.Role == models.RoleOwner {
		var owners int64
		oc.DB.Model(&models.OrganizationMember{}).
			Where("organization_id = ? AND role = ? AND status = ?", orgID, models.RoleOwner, models.MemberStatusActive).
			Count(&owners)
		if owners <= 1 {
			return utils.ErrorResponse(c, fiber.StatusConflict, "Cannot remove the only owner", nil)
		}
	}

	if err := oc.DB.Delete(&member).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to remove member", err)
	}

	oc.Engine.Invalidate(member.UserID, orgID)
	oc.Logger.Printf("ORG: removed member %d from organization %d", member.UserID, orgID)

	return c.JSON(fiber.Map{"message": "Member removed"})
}
