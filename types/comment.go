package types

import "time"

// DefaultCommentAuthorName labels comments from a logged-in author without a
// display name.
const DefaultCommentAuthorName = "Author"

// Comment is a reader or author note attached to a post.
type Comment struct {
	// ID is the unique identifier of the comment (UUID).
	ID string `json:"id" db:"id"`

	// Content is the comment body.
	Content string `json:"content" db:"content"`

	// AuthorName is the name displayed next to the comment.
	AuthorName string `json:"author_name" db:"author_name"`

	// PostID references the post the comment belongs to.
	PostID string `json:"post_id" db:"post_id"`

	// AuthorID is set only when the comment was written by a logged-in author.
	AuthorID *string `json:"author_id" db:"author_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CommentAuthor identifies who writes a comment. It is either Authenticated
// or Anonymous.
type CommentAuthor interface {
	commentAuthor()
}

// Authenticated is a comment author backed by a logged-in principal.
type Authenticated struct {
	AuthorID    string
	DisplayName string
}

// Anonymous is a comment author known only by the name they typed.
type Anonymous struct {
	Name string
}

func (Authenticated) commentAuthor() {}
func (Anonymous) commentAuthor()     {}
