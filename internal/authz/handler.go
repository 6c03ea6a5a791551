package authz

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atrium-admin/atrium/internal/platform/httpx"
	"github.com/atrium-admin/atrium/internal/shared"
)

// Handler exposes catalog introspection and the caller's own effective
// permission set.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard Middleware) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers permission routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAny(shared.PermPermissionsRead))
		r.Get("/", h.listCatalog)
		r.Get("/modules/{module}", h.listByModule)
	})
	r.Get("/me", h.myPermissions)
}

func (h *Handler) listCatalog(w http.ResponseWriter, r *http.Request) {
	catalog := h.service.Catalog()
	perms := make([]Permission, 0, catalog.Len())
	for _, id := range catalog.IDs() {
		perm, _ := catalog.Get(id)
		perms = append(perms, perm)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": perms})
}

func (h *Handler) listByModule(w http.ResponseWriter, r *http.Request) {
	module := chi.URLParam(r, "module")
	perms := h.service.Catalog().ByModule(module)
	if len(perms) == 0 {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": perms})
}

func (h *Handler) myPermissions(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	perms, err := h.service.GetEffectivePermissions(r.Context(), *principal)
	if err != nil {
		h.logger.Error("list my permissions", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": perms})
}
