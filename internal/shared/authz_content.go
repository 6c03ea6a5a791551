package shared

// Content publishing permissions.
const (
	PermBlogRead    = "blog.read"
	PermBlogCreate  = "blog.create"
	PermBlogUpdate  = "blog.update"
	PermBlogDelete  = "blog.delete"
	PermBlogPublish = "blog.publish"

	PermPortfolioRead   = "portfolio.read"
	PermPortfolioCreate = "portfolio.create"
	PermPortfolioUpdate = "portfolio.update"
	PermPortfolioDelete = "portfolio.delete"

	PermRealEstateRead   = "realestate.read"
	PermRealEstateCreate = "realestate.create"
	PermRealEstateUpdate = "realestate.update"
	PermRealEstateDelete = "realestate.delete"

	PermStoreRead   = "store.read"
	PermStoreCreate = "store.create"
	PermStoreUpdate = "store.update"
	PermStoreDelete = "store.delete"

	// PermMediaAttach is the cross-cutting shared resource attach
	// capability. It is also grantable through the context override
	// rule while operating inside a resource's create/update flow.
	PermMediaAttach = "media.attach"
	PermMediaRead   = "media.read"
	PermMediaDelete = "media.delete"

	PermAIGenerate = "ai.generate"
	PermAIRead     = "ai.read"
)

// ContentScopes lists permissions related to content publishing.
func ContentScopes() []string {
	return []string{
		PermBlogRead,
		PermBlogCreate,
		PermBlogUpdate,
		PermBlogDelete,
		PermBlogPublish,
		PermPortfolioRead,
		PermPortfolioCreate,
		PermPortfolioUpdate,
		PermPortfolioDelete,
		PermRealEstateRead,
		PermRealEstateCreate,
		PermRealEstateUpdate,
		PermRealEstateDelete,
		PermStoreRead,
		PermStoreCreate,
		PermStoreUpdate,
		PermStoreDelete,
		PermMediaAttach,
		PermMediaRead,
		PermMediaDelete,
		PermAIGenerate,
		PermAIRead,
	}
}
