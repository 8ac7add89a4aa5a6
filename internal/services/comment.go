package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/inkpost/blogapi/internal/store"
	"github.com/inkpost/blogapi/types"
)

// CommentRepository defines persistence operations for comments.
type CommentRepository interface {
	ListByPost(ctx context.Context, postID string) ([]types.Comment, error)
	Get(ctx context.Context, id string) (types.Comment, error)
	Create(ctx context.Context, comment types.Comment) (types.Comment, error)
	Delete(ctx context.Context, id string) error
}

// CommentService encapsulates comment use-cases. Comments are always
// addressed through their parent post's slug.
type CommentService struct {
	posts    *PostService
	comments CommentRepository
	events   EventPublisher
}

func NewCommentService(posts *PostService, comments CommentRepository, events EventPublisher) *CommentService {
	return &CommentService{posts: posts, comments: comments, events: events}
}

// ListForPost returns the comments of the post at slug, newest first.
func (s *CommentService) ListForPost(ctx context.Context, slug string) ([]types.Comment, error) {
	post, err := s.posts.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.comments.ListByPost(ctx, post.ID)
}

// Create adds a comment to the post at slug.
func (s *CommentService) Create(ctx context.Context, slug, content string, author types.CommentAuthor) (types.Comment, error) {
	post, err := s.posts.GetBySlug(ctx, slug)
	if err != nil {
		return types.Comment{}, err
	}

	comment := types.Comment{
		Content: content,
		PostID:  post.ID,
	}
	switch a := author.(type) {
	case types.Authenticated:
		name := strings.TrimSpace(a.DisplayName)
		if name == "" {
			name = types.DefaultCommentAuthorName
		}
		authorID := a.AuthorID
		comment.AuthorName = name
		comment.AuthorID = &authorID
	case types.Anonymous:
		name := strings.TrimSpace(a.Name)
		if name == "" {
			return types.Comment{}, ErrAuthorNameRequired
		}
		comment.AuthorName = name
	default:
		return types.Comment{}, fmt.Errorf("unsupported comment author %T", author)
	}

	created, err := s.comments.Create(ctx, comment)
	if err != nil {
		return types.Comment{}, err
	}

	emit(ctx, s.events, commentEvent(types.EventCommentCreated, post, created))
	return created, nil
}

// Delete removes a comment, provided it belongs to the post at slug.
func (s *CommentService) Delete(ctx context.Context, slug, commentID string) error {
	post, err := s.posts.GetBySlug(ctx, slug)
	if err != nil {
		return err
	}

	comment, err := s.comments.Get(ctx, commentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrCommentNotFound
		}
		return err
	}
	if comment.PostID != post.ID {
		return ErrCommentNotFound
	}

	if err := s.comments.Delete(ctx, comment.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrCommentNotFound
		}
		return err
	}

	emit(ctx, s.events, commentEvent(types.EventCommentDeleted, post, comment))
	return nil
}

func commentEvent(kind string, post types.Post, comment types.Comment) types.Event {
	return types.Event{
		Type:       kind,
		PostID:     post.ID,
		Slug:       post.Slug,
		CommentID:  comment.ID,
		OccurredAt: time.Now().UTC(),
	}
}
