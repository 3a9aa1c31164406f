package acl

// Permission is a capability key in resource:action form (e.g. "orders:refund").
// Matching is exact and case-sensitive.
type Permission string

// Permission constants define the catalog of available permissions.
const (
	PermUsersView   Permission = "users:view"
	PermUsersCreate Permission = "users:create"
	PermUsersUpdate Permission = "users:update"
	PermUsersDelete Permission = "users:delete"
	PermUsersBan    Permission = "users:ban"
	PermUsersVerify Permission = "users:verify"

	PermProductsView    Permission = "products:view"
	PermProductsCreate  Permission = "products:create"
	PermProductsUpdate  Permission = "products:update"
	PermProductsDelete  Permission = "products:delete"
	PermProductsApprove Permission = "products:approve"
	PermProductsBulk    Permission = "products:bulk"

	PermOrdersView   Permission = "orders:view"
	PermOrdersCreate Permission = "orders:create"
	PermOrdersUpdate Permission = "orders:update"
	PermOrdersCancel Permission = "orders:cancel"
	PermOrdersRefund Permission = "orders:refund"
	PermOrdersShip   Permission = "orders:ship"

	PermInventoryView   Permission = "inventory:view"
	PermInventoryUpdate Permission = "inventory:update"
	PermInventoryBulk   Permission = "inventory:bulk"
	PermInventoryAlerts Permission = "inventory:alerts"

	PermFinanceView     Permission = "finance:view"
	PermFinanceManage   Permission = "finance:manage"
	PermAnalyticsView   Permission = "analytics:view"
	PermAnalyticsExport Permission = "analytics:export"

	PermAffiliatesView      Permission = "affiliates:view"
	PermAffiliatesManage    Permission = "affiliates:manage"
	PermMarketingCampaigns  Permission = "marketing:campaigns"
	PermMarketingPromotions Permission = "marketing:promotions"

	PermSupportTickets  Permission = "support:tickets"
	PermSupportChat     Permission = "support:chat"
	PermDisputesView    Permission = "disputes:view"
	PermDisputesResolve Permission = "disputes:resolve"

	PermSystemSettings    Permission = "system:settings"
	PermSystemBackup      Permission = "system:backup"
	PermSystemLogs        Permission = "system:logs"
	PermSystemMaintenance Permission = "system:maintenance"

	PermVendorsView        Permission = "vendors:view"
	PermVendorsApprove     Permission = "vendors:approve"
	PermVendorsManage      Permission = "vendors:manage"
	PermVendorsCommissions Permission = "vendors:commissions"

	PermContentCategories Permission = "content:categories"
	PermContentBanners    Permission = "content:banners"
	PermContentPages      Permission = "content:pages"
	PermContentSEO        Permission = "content:seo"

	PermNotificationsSend      Permission = "notifications:send"
	PermNotificationsTemplates Permission = "notifications:templates"
	PermNotificationsAnalytics Permission = "notifications:analytics"

	PermAuditView         Permission = "audit:view"
	PermAuditExport       Permission = "audit:export"
	PermComplianceReports Permission = "compliance:reports"
)

// PermissionInfo pairs a permission key with its human-readable description.
type PermissionInfo struct {
	Key         Permission `json:"key"`
	Description string     `json:"description"`
}

// catalog is the fixed permission vocabulary, in display order.
var catalog = []PermissionInfo{ //nolint:gochecknoglobals
	{PermUsersView, "View user list and profiles"},
	{PermUsersCreate, "Create new user accounts"},
	{PermUsersUpdate, "Update user profiles and information"},
	{PermUsersDelete, "Delete user accounts"},
	{PermUsersBan, "Ban/unban user accounts"},
	{PermUsersVerify, "Verify user accounts"},

	{PermProductsView, "View product catalog"},
	{PermProductsCreate, "Create new products"},
	{PermProductsUpdate, "Update product information"},
	{PermProductsDelete, "Delete products"},
	{PermProductsApprove, "Approve/reject products"},
	{PermProductsBulk, "Bulk product operations"},

	{PermOrdersView, "View order list"},
	{PermOrdersCreate, "Create orders"},
	{PermOrdersUpdate, "Update order status"},
	{PermOrdersCancel, "Cancel orders"},
	{PermOrdersRefund, "Process refunds"},
	{PermOrdersShip, "Mark orders as shipped"},

	{PermInventoryView, "View inventory levels"},
	{PermInventoryUpdate, "Update inventory"},
	{PermInventoryBulk, "Bulk inventory operations"},
	{PermInventoryAlerts, "Manage inventory alerts"},

	{PermFinanceView, "View financial reports"},
	{PermFinanceManage, "Manage financial transactions"},
	{PermAnalyticsView, "View analytics dashboard"},
	{PermAnalyticsExport, "Export analytics data"},

	{PermAffiliatesView, "View affiliate list"},
	{PermAffiliatesManage, "Manage affiliate programs"},
	{PermMarketingCampaigns, "Manage marketing campaigns"},
	{PermMarketingPromotions, "Create promotions"},

	{PermSupportTickets, "Manage support tickets"},
	{PermSupportChat, "Access support chat"},
	{PermDisputesView, "View dispute cases"},
	{PermDisputesResolve, "Resolve disputes"},

	{PermSystemSettings, "Manage system settings"},
	{PermSystemBackup, "Manage system backups"},
	{PermSystemLogs, "View system logs"},
	{PermSystemMaintenance, "System maintenance"},

	{PermVendorsView, "View vendor list"},
	{PermVendorsApprove, "Approve vendor applications"},
	{PermVendorsManage, "Manage vendor accounts"},
	{PermVendorsCommissions, "Manage vendor commissions"},

	{PermContentCategories, "Manage categories"},
	{PermContentBanners, "Manage banners"},
	{PermContentPages, "Manage static pages"},
	{PermContentSEO, "Manage SEO settings"},

	{PermNotificationsSend, "Send notifications"},
	{PermNotificationsTemplates, "Manage notification templates"},
	{PermNotificationsAnalytics, "View notification analytics"},

	{PermAuditView, "View audit logs"},
	{PermAuditExport, "Export audit logs"},
	{PermComplianceReports, "Generate compliance reports"},
}

// descriptions indexes catalog by key.
var descriptions = func() map[Permission]string { //nolint:gochecknoglobals
	m := make(map[Permission]string, len(catalog))
	for _, p := range catalog {
		m[p.Key] = p.Description
	}

	return m
}()

// Permissions returns a copy of the permission catalog in display order.
func Permissions() []PermissionInfo {
	out := make([]PermissionInfo, len(catalog))
	copy(out, catalog)

	return out
}

// AllPermissions returns every catalog key in display order.
func AllPermissions() []Permission {
	out := make([]Permission, len(catalog))
	for i, p := range catalog {
		out[i] = p.Key
	}

	return out
}

// PermissionDescription returns the description of a catalog permission.
func PermissionDescription(p Permission) (string, bool) {
	d, ok := descriptions[p]
	return d, ok
}

// IsKnownPermission reports whether p is part of the catalog.
func IsKnownPermission(p Permission) bool {
	_, ok := descriptions[p]
	return ok
}
