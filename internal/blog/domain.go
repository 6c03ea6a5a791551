package blog

import "time"

// Post statuses.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Post is a blog entry.
type Post struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Body      string    `json:"body"`
	Status    string    `json:"status"`
	AuthorID  int64     `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Attachment links a media asset to a post.
type Attachment struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"post_id"`
	MediaID   int64     `json:"media_id"`
	CreatedAt time.Time `json:"created_at"`
}
