package shared

// Platform administration permissions.
const (
	PermDashboardRead = "dashboard.read"

	PermProfileRead   = "profile.read"
	PermProfileUpdate = "profile.update"

	PermUsersRead   = "users.read"
	PermUsersCreate = "users.create"
	PermUsersUpdate = "users.update"
	PermUsersDelete = "users.delete"

	PermRolesRead   = "roles.read"
	PermRolesCreate = "roles.create"
	PermRolesUpdate = "roles.update"
	PermRolesDelete = "roles.delete"
	PermRolesAssign = "roles.assign"

	PermPermissionsRead = "permissions.read"

	PermSettingsRead   = "settings.read"
	PermSettingsUpdate = "settings.update"

	PermAnalyticsRead = "analytics.read"

	PermAuditRead = "audit.read"

	PermAdminManage      = "admin.manage"
	PermAdminImpersonate = "admin.impersonate"
)

// PlatformScopes lists permissions related to the core platform.
func PlatformScopes() []string {
	return []string{
		PermDashboardRead,
		PermProfileRead,
		PermProfileUpdate,
		PermUsersRead,
		PermUsersCreate,
		PermUsersUpdate,
		PermUsersDelete,
		PermRolesRead,
		PermRolesCreate,
		PermRolesUpdate,
		PermRolesDelete,
		PermRolesAssign,
		PermPermissionsRead,
		PermSettingsRead,
		PermSettingsUpdate,
		PermAnalyticsRead,
		PermAuditRead,
	}
}
