package blog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atrium-admin/atrium/internal/authz"
	"github.com/atrium-admin/atrium/internal/platform/httpx"
	"github.com/atrium-admin/atrium/internal/shared"
)

type memoryRepo struct {
	posts       map[int64]Post
	attachments []Attachment
	nextID      int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{posts: make(map[int64]Post), nextID: 1}
}

func (m *memoryRepo) ListPosts(_ context.Context, page, perPage int) ([]Post, shared.Pagination, error) {
	var list []Post
	for _, p := range m.posts {
		list = append(list, p)
	}
	return list, shared.NewPagination(page, perPage, len(list)), nil
}

func (m *memoryRepo) GetPost(_ context.Context, id int64) (Post, error) {
	p, ok := m.posts[id]
	if !ok {
		return Post{}, httpx.ErrNotFound
	}
	return p, nil
}

func (m *memoryRepo) CreatePost(_ context.Context, post Post) (Post, error) {
	post.ID = m.nextID
	m.nextID++
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt
	m.posts[post.ID] = post
	return post, nil
}

func (m *memoryRepo) UpdatePost(_ context.Context, post Post) (Post, error) {
	existing, ok := m.posts[post.ID]
	if !ok {
		return Post{}, httpx.ErrNotFound
	}
	post.AuthorID = existing.AuthorID
	post.CreatedAt = existing.CreatedAt
	post.UpdatedAt = time.Now()
	m.posts[post.ID] = post
	return post, nil
}

func (m *memoryRepo) DeletePost(_ context.Context, id int64) error {
	if _, ok := m.posts[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(m.posts, id)
	return nil
}

func (m *memoryRepo) AttachMedia(_ context.Context, postID, mediaID int64) (Attachment, error) {
	a := Attachment{ID: int64(len(m.attachments) + 1), PostID: postID, MediaID: mediaID, CreatedAt: time.Now()}
	m.attachments = append(m.attachments, a)
	return a, nil
}

type stubDecider struct {
	allow    bool
	lastPerm string
	lastCtx  *authz.CallContext
}

func (d *stubDecider) HasPermission(_ context.Context, _ shared.Principal, permissionID string, callCtx *authz.CallContext) bool {
	d.lastPerm = permissionID
	d.lastCtx = callCtx
	return d.allow
}

func editor() shared.Principal {
	return shared.Principal{ID: 7, Kind: shared.PrincipalKindAdmin}
}

func TestCreatePostDefaults(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, &stubDecider{})

	post, err := svc.CreatePost(context.Background(), editor(), Post{Title: "Launch Notes, Part One"})
	require.NoError(t, err)
	require.Equal(t, "launch-notes-part-one", post.Slug)
	require.Equal(t, StatusDraft, post.Status)
	require.Equal(t, int64(7), post.AuthorID)
}

func TestCreatePostRejectsBlankTitle(t *testing.T) {
	svc := NewService(newMemoryRepo(), &stubDecider{})

	_, err := svc.CreatePost(context.Background(), editor(), Post{Title: "   "})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestAttachMediaCarriesFlowContext(t *testing.T) {
	repo := newMemoryRepo()
	decider := &stubDecider{allow: true}
	svc := NewService(repo, decider)

	post, err := svc.CreatePost(context.Background(), editor(), Post{Title: "Gallery"})
	require.NoError(t, err)

	attachment, err := svc.AttachMedia(context.Background(), editor(), post.ID, 42, "update")
	require.NoError(t, err)
	require.Equal(t, int64(42), attachment.MediaID)
	require.Equal(t, shared.PermMediaAttach, decider.lastPerm)
	require.NotNil(t, decider.lastCtx)
	require.Equal(t, "blog", decider.lastCtx.Type)
	require.Equal(t, "update", decider.lastCtx.Action)
}

func TestAttachMediaDeniedWithoutGrant(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, &stubDecider{allow: false})

	post, err := svc.CreatePost(context.Background(), editor(), Post{Title: "Gallery"})
	require.NoError(t, err)

	_, err = svc.AttachMedia(context.Background(), editor(), post.ID, 42, "update")
	require.ErrorIs(t, err, httpx.ErrForbidden)
	require.Empty(t, repo.attachments)
}

func TestAttachMediaUnknownPost(t *testing.T) {
	svc := NewService(newMemoryRepo(), &stubDecider{allow: true})

	_, err := svc.AttachMedia(context.Background(), editor(), 999, 42, "create")
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestUpdatePostKeepsAuthor(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, &stubDecider{})

	post, err := svc.CreatePost(context.Background(), editor(), Post{Title: "Draft"})
	require.NoError(t, err)

	updated, err := svc.UpdatePost(context.Background(), Post{ID: post.ID, Title: "Final", Status: StatusPublished})
	require.NoError(t, err)
	require.Equal(t, int64(7), updated.AuthorID)
	require.Equal(t, "final", updated.Slug)
	require.Equal(t, StatusPublished, updated.Status)
}
