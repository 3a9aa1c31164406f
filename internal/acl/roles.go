package acl

import "time"

// RoleID identifies a role (e.g. "vendor_manager").
type RoleID string

// Built-in role identifiers.
const (
	RoleSuperAdmin       RoleID = "super_admin"
	RoleAdmin            RoleID = "admin"
	RoleVendorOwner      RoleID = "vendor_owner"
	RoleVendorManager    RoleID = "vendor_manager"
	RoleVendorAccountant RoleID = "vendor_accountant"
	RoleSupportAgent     RoleID = "support_agent"
	RoleContentManager   RoleID = "content_manager"
	RoleAffiliateManager RoleID = "affiliate_manager"
	RoleUser             RoleID = "user"
)

// Role is a named bundle of permissions.
// Level is a coarse seniority used for ordering only, it grants nothing.
type Role struct {
	ID          RoleID       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Permissions []Permission `json:"permissions"`
	Level       int          `json:"level"`
	// Inherits is reserved for direct parent roles. It is not consulted by the resolver.
	Inherits []RoleID `json:"inherits"`
	// IsSystem marks built-in roles, which cannot be deleted.
	IsSystem  bool      `json:"isSystem"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Grants reports whether the role's permission set contains p.
func (r *Role) Grants(p Permission) bool {
	for _, have := range r.Permissions {
		if have == p {
			return true
		}
	}

	return false
}

func (r Role) clone() Role {
	r.Permissions = append([]Permission(nil), r.Permissions...)
	r.Inherits = append([]RoleID(nil), r.Inherits...)

	return r
}

// RoleSpec holds the fields accepted when creating a custom role.
type RoleSpec struct {
	Name        string
	Description string
	Permissions []Permission
	Level       int
	Inherits    []RoleID
}

// RoleUpdate lists the role fields that may be changed. Nil fields are left as they are.
type RoleUpdate struct {
	Name        *string
	Description *string
	Permissions *[]Permission
	Level       *int
}

// apply returns a copy of r with the non-nil fields of u set.
func (u RoleUpdate) apply(r Role) Role {
	if u.Name != nil {
		r.Name = *u.Name
	}

	if u.Description != nil {
		r.Description = *u.Description
	}

	if u.Permissions != nil {
		r.Permissions = dedupePermissions(*u.Permissions)
	}

	if u.Level != nil {
		r.Level = *u.Level
	}

	return r
}

// dedupePermissions drops repeated keys, keeping first occurrence order.
func dedupePermissions(in []Permission) []Permission {
	seen := make(map[Permission]struct{}, len(in))
	out := make([]Permission, 0, len(in))

	for _, p := range in {
		if _, ok := seen[p]; ok {
			continue
		}

		seen[p] = struct{}{}
		out = append(out, p)
	}

	return out
}

// BuiltinRoles returns the built-in role catalog in insertion order.
func BuiltinRoles() []Role {
	return []Role{
		{
			ID:          RoleSuperAdmin,
			Name:        "Super Administrator",
			Description: "Full system access",
			Permissions: AllPermissions(),
			Level:       100,
		},
		{
			ID:          RoleAdmin,
			Name:        "Administrator",
			Description: "Administrative functions",
			Permissions: []Permission{
				PermUsersView, PermUsersUpdate, PermUsersBan, PermUsersVerify,
				PermProductsView, PermProductsApprove, PermProductsBulk,
				PermOrdersView, PermOrdersUpdate, PermOrdersCancel, PermOrdersRefund,
				PermInventoryView, PermInventoryUpdate, PermInventoryBulk,
				PermFinanceView, PermAnalyticsView, PermAnalyticsExport,
				PermAffiliatesView, PermAffiliatesManage,
				PermSupportTickets, PermSupportChat, PermDisputesView, PermDisputesResolve,
				PermVendorsView, PermVendorsApprove, PermVendorsManage,
				PermContentCategories, PermContentBanners, PermContentPages,
				PermNotificationsSend, PermNotificationsTemplates, PermNotificationsAnalytics,
				PermAuditView, PermAuditExport, PermComplianceReports,
			},
			Level: 80,
		},
		{
			ID:          RoleVendorOwner,
			Name:        "Vendor Owner",
			Description: "Full vendor account control",
			Permissions: []Permission{
				PermProductsView, PermProductsCreate, PermProductsUpdate, PermProductsDelete,
				PermOrdersView, PermOrdersUpdate, PermOrdersShip,
				PermInventoryView, PermInventoryUpdate, PermInventoryAlerts,
				PermFinanceView,
				PermAffiliatesView,
				PermSupportTickets, PermDisputesView,
				PermNotificationsSend,
			},
			Level: 60,
		},
		{
			ID:          RoleVendorManager,
			Name:        "Vendor Manager",
			Description: "Day-to-day vendor operations",
			Permissions: []Permission{
				PermProductsView, PermProductsCreate, PermProductsUpdate,
				PermOrdersView, PermOrdersUpdate,
				PermInventoryView, PermInventoryUpdate,
				PermSupportTickets,
			},
			Level: 50,
		},
		{
			ID:          RoleVendorAccountant,
			Name:        "Vendor Accountant",
			Description: "Financial operations",
			Permissions: []Permission{
				PermOrdersView, PermOrdersRefund,
				PermInventoryView,
				PermFinanceView,
				PermSupportTickets,
			},
			Level: 40,
		},
		{
			ID:          RoleSupportAgent,
			Name:        "Support Agent",
			Description: "Customer support operations",
			Permissions: []Permission{
				PermUsersView,
				PermOrdersView,
				PermSupportTickets, PermSupportChat,
				PermDisputesView,
				PermNotificationsSend,
			},
			Level: 30,
		},
		{
			ID:          RoleContentManager,
			Name:        "Content Manager",
			Description: "Content management",
			Permissions: []Permission{
				PermProductsView,
				PermContentCategories, PermContentBanners, PermContentPages,
				PermNotificationsTemplates,
				PermAnalyticsView,
			},
			Level: 25,
		},
		{
			ID:          RoleAffiliateManager,
			Name:        "Affiliate Manager",
			Description: "Affiliate program management",
			Permissions: []Permission{
				PermAffiliatesView, PermAffiliatesManage,
				PermMarketingCampaigns, PermMarketingPromotions,
				PermAnalyticsView,
				PermNotificationsSend,
			},
			Level: 25,
		},
		{
			ID:          RoleUser,
			Name:        "User",
			Description: "Basic user access",
			Permissions: []Permission{
				PermProductsView,
				PermOrdersView, PermOrdersCreate,
			},
			Level: 10,
		},
	}
}
