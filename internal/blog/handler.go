package blog

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atrium-admin/atrium/internal/authz"
	"github.com/atrium-admin/atrium/internal/platform/httpx"
	"github.com/atrium-admin/atrium/internal/shared"
)

// Handler manages blog endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	guard    authz.Middleware
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard authz.Middleware) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		guard:    guard,
		validate: validator.New(),
	}
}

// MountRoutes registers blog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAny(shared.PermBlogRead))
		r.Get("/", h.listPosts)
		r.Get("/{id}", h.getPost)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAll(shared.PermBlogCreate))
		r.Post("/", h.createPost)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAll(shared.PermBlogUpdate))
		r.Put("/{id}", h.updatePost)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAll(shared.PermBlogDelete))
		r.Delete("/{id}", h.deletePost)
	})
	// The attach check runs inside the service so it can carry the
	// surrounding flow as call context.
	r.Post("/{id}/media", h.attachMedia)
}

type postRequest struct {
	Title  string `json:"title" validate:"required"`
	Slug   string `json:"slug"`
	Body   string `json:"body"`
	Status string `json:"status" validate:"omitempty,oneof=draft published"`
}

type attachRequest struct {
	MediaID int64  `json:"media_id" validate:"required"`
	Flow    string `json:"flow" validate:"omitempty,oneof=create update"`
}

func (h *Handler) listPosts(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	list, paging, err := h.service.ListPosts(r.Context(), page, perPage)
	if err != nil {
		h.logger.Error("list posts", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"posts": list, "pagination": paging})
}

func (h *Handler) getPost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	post, err := h.service.GetPost(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, post)
}

func (h *Handler) createPost(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "")
		return
	}
	var req postRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	post, err := h.service.CreatePost(r.Context(), *principal, Post{
		Title:  req.Title,
		Slug:   req.Slug,
		Body:   req.Body,
		Status: req.Status,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, post)
}

func (h *Handler) updatePost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	var req postRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	post, err := h.service.UpdatePost(r.Context(), Post{
		ID:     id,
		Title:  req.Title,
		Slug:   req.Slug,
		Body:   req.Body,
		Status: req.Status,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, post)
}

func (h *Handler) deletePost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.service.DeletePost(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) attachMedia(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "")
		return
	}
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	var req attachRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	flow := req.Flow
	if flow == "" {
		flow = "update"
	}
	attachment, err := h.service.AttachMedia(r.Context(), *principal, id, req.MediaID, flow)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, attachment)
}

func (h *Handler) decode(r *http.Request, dst any) error {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		return httpx.ErrValidation
	}
	if err := h.validate.Struct(dst); err != nil {
		return httpx.ErrValidation
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
