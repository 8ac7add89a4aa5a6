package types

import "time"

// PostStatus is the publish state of a post.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "DRAFT"
	PostStatusPublished PostStatus = "PUBLISHED"
)

// Post is a blog entry owned by an author.
//
// PublishedAt is set exactly when Status is PostStatusPublished. Slug is
// derived from Title and is unique across all posts.
type Post struct {
	// ID is the unique identifier of the post (UUID).
	ID string `json:"id" db:"id"`

	// Title is the human-readable headline.
	Title string `json:"title" db:"title"`

	// Slug is the URL-safe key derived from Title.
	Slug string `json:"slug" db:"slug"`

	// Content is the post body.
	Content string `json:"content" db:"content"`

	// Status is either DRAFT or PUBLISHED.
	Status PostStatus `json:"status" db:"status"`

	// PublishedAt is the time the post was last published, nil for drafts.
	PublishedAt *time.Time `json:"published_at" db:"published_at"`

	// AuthorID references the owning author.
	AuthorID string `json:"author_id" db:"author_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// PostPatch carries the optional fields of a post update. A nil field keeps
// the current value.
type PostPatch struct {
	Title   *string
	Content *string
	Publish *bool
}

// ApplyPublish sets Status and PublishedAt from a publish flag.
func (p *Post) ApplyPublish(publish bool, now time.Time) {
	if publish {
		p.Status = PostStatusPublished
		published := now
		p.PublishedAt = &published
		return
	}
	p.Status = PostStatusDraft
	p.PublishedAt = nil
}
