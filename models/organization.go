package models

import (
	"time"

	"gorm.io/gorm"
)

// Membership roles. Exactly one role per (user, organization) pair.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Membership statuses
const (
	MemberStatusActive    = "active"
	MemberStatusInactive  = "inactive"
	MemberStatusSuspended = "suspended"
)

// Organization represents a tenant that owns events, guests and suppliers
type Organization struct {
	gorm.Model
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`

	// Subscription information
	PlanID   *uint  `json:"plan_id,omitempty"`
	PlanName string `gorm:"default:'starter'" json:"plan_name"` // starter, starter_plus, pro, enterprise

	// Stripe integration
	StripeCustomerID *string `gorm:"index" json:"stripe_customer_id,omitempty"`
	DefaultCurrency  string  `gorm:"default:'usd'" json:"default_currency"`

	// Relations
	Members []OrganizationMember `gorm:"foreignKey:OrganizationID" json:"members,omitempty"`
	Events  []Event              `gorm:"foreignKey:OrganizationID" json:"events,omitempty"`
}

// OrganizationMember binds a user to an organization with a role and status.
// This row is the authority for "does this user belong to this org, and with
// which role"; the permission engine resolves everything from it.
type OrganizationMember struct {
	gorm.Model
	OrganizationID uint `gorm:"not null;index;uniqueIndex:idx_org_user" json:"organization_id"`
	UserID         uint `gorm:"not null;index;uniqueIndex:idx_org_user" json:"user_id"`

	Role   string `gorm:"not null;default:'member'" json:"role"`   // owner, admin, member
	Status string `gorm:"not null;default:'active'" json:"status"` // active, inactive, suspended

	// Relations
	Organization Organization `json:"-"`
	User         User         `json:"user,omitempty"`
}

// MemberInvite represents a tokened invitation to join an organization
type MemberInvite struct {
	gorm.Model
	OrganizationID uint   `gorm:"not null;index" json:"organization_id"`
	InvitedByID    uint   `gorm:"not null" json:"invited_by_id"`
	Email          string `gorm:"not null;index" json:"email"`
	Role           string `gorm:"not null;default:'member'" json:"role"`
	Token          string `gorm:"uniqueIndex;not null" json:"-"`

	ExpiresAt  time.Time  `gorm:"not null" json:"expires_at"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`

	// Relations
	Organization Organization `json:"-"`
	InvitedBy    User         `gorm:"foreignKey:InvitedByID" json:"-"`
}

// Event-scoped permissions. Closed enumeration; the permission engine only
// ever matches against these values.
const (
	PermView            = "VIEW"
	PermEdit            = "EDIT"
	PermDelete          = "DELETE"
	PermManageGuests    = "MANAGE_GUESTS"
	PermManageBudget    = "MANAGE_BUDGET"
	PermManageLogistics = "MANAGE_LOGISTICS"
	PermSendInvitations = "SEND_INVITATIONS"
	PermViewReports     = "VIEW_REPORTS"
)

// System-scoped permission tokens. Every token stored in a RolePermission row
// must come from this set; startup validation rejects anything else.
const (
	TokenMemberManagement  = "member_management"
	TokenBillingManagement = "billing_management"
	TokenOrgSettings       = "org_settings"
)

// RolePermission maps a role to its two permission collections. One row per
// role; every member sharing a role shares identical permissions. The
// collections are stored as jsonb and defensively re-validated on read, since
// the payload is untyped at rest.
type RolePermission struct {
	gorm.Model
	Role              string   `gorm:"uniqueIndex;not null" json:"role"`
	EventPermissions  []string `gorm:"type:jsonb;serializer:json" json:"event_permissions"`
	SystemPermissions []string `gorm:"type:jsonb;serializer:json" json:"system_permissions"`
}
