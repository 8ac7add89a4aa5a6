package types

import "time"

// Event types published after successful writes.
const (
	EventPostCreated    = "post.created"
	EventPostUpdated    = "post.updated"
	EventPostDeleted    = "post.deleted"
	EventCommentCreated = "comment.created"
	EventCommentDeleted = "comment.deleted"
)

// Event is the broker payload describing a content change.
type Event struct {
	Type       string    `json:"type"`
	PostID     string    `json:"post_id,omitempty"`
	Slug       string    `json:"slug,omitempty"`
	CommentID  string    `json:"comment_id,omitempty"`
	Status     string    `json:"status,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
