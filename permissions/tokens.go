package permissions

import (
	"fmt"

	"planvite/models"

	"gorm.io/gorm"
)

// registeredEventPermissions is the closed set of event-scoped permissions.
var registeredEventPermissions = map[string]struct{}{
	models.PermView:            {},
	models.PermEdit:            {},
	models.PermDelete:          {},
	models.PermManageGuests:    {},
	models.PermManageBudget:    {},
	models.PermManageLogistics: {},
	models.PermSendInvitations: {},
	models.PermViewReports:     {},
}

// registeredSystemTokens is the closed set of system-scoped tokens. A token
// appearing in configuration but not here would otherwise silently deny at
// every check site.
var registeredSystemTokens = map[string]struct{}{
	models.TokenMemberManagement:  {},
	models.TokenBillingManagement: {},
	models.TokenOrgSettings:       {},
}

// ValidateConfiguration checks every role_permissions row against the
// registered permission and token sets. Run at startup; an unknown value
// means a typo in seeded configuration and aborts boot rather than turning
// into a silent false-deny at runtime.
func ValidateConfiguration(db *gorm.DB) error {
	var rows []models.RolePermission
	if err := db.Find(&rows).Error; err != nil {
		return fmt.Errorf("failed to load role permissions: %w", err)
	}

	for _, row := range rows {
		if row.EventPermissions == nil || row.SystemPermissions == nil {
			return fmt.Errorf("role %q has a malformed permission set", row.Role)
		}
		for _, p := range row.EventPermissions {
			if _, ok := registeredEventPermissions[p]; !ok {
				return fmt.Errorf("role %q grants unknown event permission %q", row.Role, p)
			}
		}
		for _, t := range row.SystemPermissions {
			if _, ok := registeredSystemTokens[t]; !ok {
				return fmt.Errorf("role %q grants unregistered system token %q", row.Role, t)
			}
		}
	}
	return nil
}
