package authz

import "github.com/atrium-admin/atrium/internal/shared"

// BaseGrant lists the permissions every administrative principal holds
// regardless of assigned roles.
func BaseGrant() []string {
	return []string{
		shared.PermDashboardRead,
		shared.PermProfileRead,
		shared.PermProfileUpdate,
	}
}

// DefaultCatalog builds the static catalog shipped with the platform.
func DefaultCatalog() *Catalog {
	catalog, err := NewCatalog(defaultPermissionDefs())
	if err != nil {
		// The seed is compiled in; a failure here is a programming error.
		panic(err)
	}
	return catalog
}

func defaultPermissionDefs() []PermissionDef {
	return []PermissionDef{
		{ID: shared.PermDashboardRead, Description: "View the administrative dashboard"},
		{ID: shared.PermProfileRead, Description: "View own profile"},
		{ID: shared.PermProfileUpdate, Description: "Update own profile"},

		{ID: shared.PermUsersRead, Description: "List and inspect user accounts"},
		{ID: shared.PermUsersCreate, Description: "Create user accounts"},
		{ID: shared.PermUsersUpdate, Description: "Update user accounts"},
		{ID: shared.PermUsersDelete, Description: "Deactivate user accounts", SuperAdminOnly: true},

		{ID: shared.PermRolesRead, Description: "List role definitions"},
		{ID: shared.PermRolesCreate, Description: "Create role definitions"},
		{ID: shared.PermRolesUpdate, Description: "Edit role definitions"},
		{ID: shared.PermRolesDelete, Description: "Delete role definitions", SuperAdminOnly: true},
		{ID: shared.PermRolesAssign, Description: "Assign roles to principals"},

		{ID: shared.PermPermissionsRead, Description: "Inspect the permission catalog"},

		{ID: shared.PermSettingsRead, Description: "View platform settings"},
		{ID: shared.PermSettingsUpdate, Description: "Change platform settings", SuperAdminOnly: true},

		{ID: shared.PermAnalyticsRead, Description: "View analytics dashboards"},
		{ID: shared.PermAuditRead, Description: "Read the audit trail"},

		{ID: shared.PermAdminManage, Description: "Manage platform administrators", SuperAdminOnly: true},
		{ID: shared.PermAdminImpersonate, Description: "Impersonate another principal", SuperAdminOnly: true},

		{ID: shared.PermBlogRead, Description: "Read blog posts"},
		{ID: shared.PermBlogCreate, Description: "Create blog posts"},
		{ID: shared.PermBlogUpdate, Description: "Edit blog posts"},
		{ID: shared.PermBlogDelete, Description: "Delete blog posts"},
		{ID: shared.PermBlogPublish, Description: "Publish blog posts"},

		{ID: shared.PermPortfolioRead, Description: "Read portfolio entries"},
		{ID: shared.PermPortfolioCreate, Description: "Create portfolio entries"},
		{ID: shared.PermPortfolioUpdate, Description: "Edit portfolio entries"},
		{ID: shared.PermPortfolioDelete, Description: "Delete portfolio entries"},

		{ID: shared.PermRealEstateRead, DisplayName: "Read Real Estate Listings", Description: "Read real estate listings"},
		{ID: shared.PermRealEstateCreate, DisplayName: "Create Real Estate Listings", Description: "Create real estate listings"},
		{ID: shared.PermRealEstateUpdate, DisplayName: "Edit Real Estate Listings", Description: "Edit real estate listings"},
		{ID: shared.PermRealEstateDelete, DisplayName: "Delete Real Estate Listings", Description: "Delete real estate listings"},

		{ID: shared.PermStoreRead, Description: "Read store products"},
		{ID: shared.PermStoreCreate, Description: "Create store products"},
		{ID: shared.PermStoreUpdate, Description: "Edit store products"},
		{ID: shared.PermStoreDelete, Description: "Delete store products"},

		{ID: shared.PermMediaAttach, Description: "Attach shared media to a resource"},
		{ID: shared.PermMediaRead, Description: "Browse the shared media library"},
		{ID: shared.PermMediaDelete, Description: "Delete shared media"},

		{ID: shared.PermAIGenerate, Description: "Generate content drafts with AI providers"},
		{ID: shared.PermAIRead, Description: "View AI generation history"},
	}
}
