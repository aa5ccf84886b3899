package models

import "gorm.io/gorm"

// CreateDefaultPlans seeds the subscription tiers during database migration
func CreateDefaultPlans(db *gorm.DB) error {
	defaultPlans := []Plan{
		{
			Name:           "starter",
			Description:    "Starter plan for small events up to 100 guests",
			GuestLimit:     100,
			MaxEvents:      3,
			MaxMembers:     3,
			MonthlyInvites: 500,
			PriceCents:     0,
		},
		{
			Name:           "starter_plus",
			Description:    "Starter Plus plan for events up to 300 guests",
			GuestLimit:     300,
			MaxEvents:      10,
			MaxMembers:     10,
			MonthlyInvites: 2000,
			PriceCents:     2900, // $29
			DisplayPrice:   "$29",
		},
		{
			Name:           "pro",
			Description:    "Pro plan for events up to 500 guests",
			GuestLimit:     500,
			MaxEvents:      0,
			MaxMembers:     25,
			MonthlyInvites: 10000,
			PriceCents:     7900, // $79
			DisplayPrice:   "$79",
			IsPopular:      true,
		},
		{
			Name:           "enterprise",
			Description:    "Enterprise plan for events up to 1000 guests",
			GuestLimit:     1000,
			MaxEvents:      0,
			MaxMembers:     0,
			MonthlyInvites: 0,
			PriceCents:     19900, // $199
			DisplayPrice:   "$199",
		},
	}
	for _, plan := range defaultPlans {
		if err := db.FirstOrCreate(&plan, "name = ?", plan.Name).Error; err != nil {
			return err
		}
	}
	return nil
}

// CreateDefaultRolePermissions seeds the role to permission-set mapping.
// Lookup at check time is by role value, so these rows are shared by every
// member holding the role.
func CreateDefaultRolePermissions(db *gorm.DB) error {
	allEventPerms := []string{
		PermView, PermEdit, PermDelete,
		PermManageGuests, PermManageBudget, PermManageLogistics,
		PermSendInvitations, PermViewReports,
	}

	defaults := []RolePermission{
		{
			Role:             RoleOwner,
			EventPermissions: allEventPerms,
			SystemPermissions: []string{
				TokenMemberManagement, TokenBillingManagement, TokenOrgSettings,
			},
		},
		{
			Role: RoleAdmin,
			EventPermissions: []string{
				PermView, PermEdit,
				PermManageGuests, PermManageBudget, PermManageLogistics,
				PermSendInvitations, PermViewReports,
			},
			SystemPermissions: []string{TokenMemberManagement},
		},
		{
			Role:              RoleMember,
			EventPermissions:  []string{PermView, PermViewReports},
			SystemPermissions: []string{},
		},
	}
	for _, rp := range defaults {
		if err := db.FirstOrCreate(&rp, "role = ?", rp.Role).Error; err != nil {
			return err
		}
	}
	return nil
}
