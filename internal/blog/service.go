package blog

import (
	"context"
	"strings"

	"github.com/atrium-admin/atrium/internal/authz"
	"github.com/atrium-admin/atrium/internal/platform/httpx"
	"github.com/atrium-admin/atrium/internal/shared"
)

// Decider answers permission questions, optionally inside a call
// context. Satisfied by the authz service.
type Decider interface {
	HasPermission(ctx context.Context, principal shared.Principal, permissionID string, callCtx *authz.CallContext) bool
}

// Service handles blog business logic.
type Service struct {
	repo    RepositoryPort
	decider Decider
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, decider Decider) *Service {
	return &Service{repo: repo, decider: decider}
}

// ListPosts returns posts with pagination.
func (s *Service) ListPosts(ctx context.Context, page, perPage int) ([]Post, shared.Pagination, error) {
	return s.repo.ListPosts(ctx, page, perPage)
}

// GetPost fetches one post.
func (s *Service) GetPost(ctx context.Context, id int64) (Post, error) {
	return s.repo.GetPost(ctx, id)
}

// CreatePost validates and stores a new draft.
func (s *Service) CreatePost(ctx context.Context, principal shared.Principal, post Post) (Post, error) {
	post.Title = strings.TrimSpace(post.Title)
	if post.Title == "" {
		return Post{}, httpx.ErrValidation
	}
	if post.Slug == "" {
		post.Slug = slugify(post.Title)
	}
	if post.Status == "" {
		post.Status = StatusDraft
	}
	post.AuthorID = principal.ID
	return s.repo.CreatePost(ctx, post)
}

// UpdatePost rewrites a post's content fields.
func (s *Service) UpdatePost(ctx context.Context, post Post) (Post, error) {
	post.Title = strings.TrimSpace(post.Title)
	if post.Title == "" {
		return Post{}, httpx.ErrValidation
	}
	if post.Slug == "" {
		post.Slug = slugify(post.Title)
	}
	return s.repo.UpdatePost(ctx, post)
}

// DeletePost removes a post.
func (s *Service) DeletePost(ctx context.Context, id int64) error {
	return s.repo.DeletePost(ctx, id)
}

// AttachMedia links a media asset to a post. The attach capability is
// checked through the decision API with the surrounding flow as call
// context, so a contributor who can update posts may attach media while
// editing even without a standalone media grant.
func (s *Service) AttachMedia(ctx context.Context, principal shared.Principal, postID, mediaID int64, flowAction string) (Attachment, error) {
	callCtx := &authz.CallContext{Type: "blog", Action: flowAction}
	if !s.decider.HasPermission(ctx, principal, shared.PermMediaAttach, callCtx) {
		return Attachment{}, httpx.ErrForbidden
	}
	if _, err := s.repo.GetPost(ctx, postID); err != nil {
		return Attachment{}, err
	}
	return s.repo.AttachMedia(ctx, postID, mediaID)
}

func slugify(title string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			prevDash = false
		case !prevDash && b.Len() > 0:
			b.WriteByte('-')
			prevDash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
