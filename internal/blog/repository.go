package blog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atrium-admin/atrium/internal/platform/httpx"
	"github.com/atrium-admin/atrium/internal/shared"
)

// RepositoryPort defines data access methods for blog posts.
type RepositoryPort interface {
	ListPosts(ctx context.Context, page, perPage int) ([]Post, shared.Pagination, error)
	GetPost(ctx context.Context, id int64) (Post, error)
	CreatePost(ctx context.Context, post Post) (Post, error)
	UpdatePost(ctx context.Context, post Post) (Post, error)
	DeletePost(ctx context.Context, id int64) error
	AttachMedia(ctx context.Context, postID, mediaID int64) (Attachment, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const postColumns = `id, title, slug, body, status, author_id, created_at, updated_at`

// ListPosts returns posts ordered by recency.
func (r *Repository) ListPosts(ctx context.Context, page, perPage int) ([]Post, shared.Pagination, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM blog_posts`).Scan(&total); err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("blog: count: %w", err)
	}
	paging := shared.NewPagination(page, perPage, total)

	rows, err := r.pool.Query(ctx, `
		SELECT `+postColumns+` FROM blog_posts
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`,
		paging.PerPage, (paging.Page-1)*paging.PerPage)
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("blog: list: %w", err)
	}
	defer rows.Close()

	var list []Post
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.Title, &p.Slug, &p.Body, &p.Status, &p.AuthorID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, shared.Pagination{}, fmt.Errorf("blog: scan: %w", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("blog: list: %w", err)
	}
	return list, paging, nil
}

// GetPost fetches one post.
func (r *Repository) GetPost(ctx context.Context, id int64) (Post, error) {
	var p Post
	err := r.pool.QueryRow(ctx, `SELECT `+postColumns+` FROM blog_posts WHERE id = $1`, id).
		Scan(&p.ID, &p.Title, &p.Slug, &p.Body, &p.Status, &p.AuthorID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Post{}, httpx.ErrNotFound
		}
		return Post{}, fmt.Errorf("blog: get: %w", err)
	}
	return p, nil
}

// CreatePost inserts a new post.
func (r *Repository) CreatePost(ctx context.Context, post Post) (Post, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO blog_posts (title, slug, body, status, author_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+postColumns,
		post.Title, post.Slug, post.Body, post.Status, post.AuthorID).
		Scan(&post.ID, &post.Title, &post.Slug, &post.Body, &post.Status, &post.AuthorID, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		if uniqueViolation(err) {
			return Post{}, httpx.ErrDuplicate
		}
		return Post{}, fmt.Errorf("blog: create: %w", err)
	}
	return post, nil
}

// UpdatePost rewrites a post's content fields.
func (r *Repository) UpdatePost(ctx context.Context, post Post) (Post, error) {
	err := r.pool.QueryRow(ctx, `
		UPDATE blog_posts
		SET title = $2, slug = $3, body = $4, status = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING `+postColumns,
		post.ID, post.Title, post.Slug, post.Body, post.Status).
		Scan(&post.ID, &post.Title, &post.Slug, &post.Body, &post.Status, &post.AuthorID, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Post{}, httpx.ErrNotFound
		}
		if uniqueViolation(err) {
			return Post{}, httpx.ErrDuplicate
		}
		return Post{}, fmt.Errorf("blog: update: %w", err)
	}
	return post, nil
}

// DeletePost removes a post and its attachments.
func (r *Repository) DeletePost(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM blog_posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("blog: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// AttachMedia links a media asset to a post.
func (r *Repository) AttachMedia(ctx context.Context, postID, mediaID int64) (Attachment, error) {
	var a Attachment
	err := r.pool.QueryRow(ctx, `
		INSERT INTO blog_post_media (post_id, media_id)
		VALUES ($1, $2)
		RETURNING id, post_id, media_id, created_at`,
		postID, mediaID).
		Scan(&a.ID, &a.PostID, &a.MediaID, &a.CreatedAt)
	if err != nil {
		if uniqueViolation(err) {
			return Attachment{}, httpx.ErrDuplicate
		}
		return Attachment{}, fmt.Errorf("blog: attach media: %w", err)
	}
	return a, nil
}

func uniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
