package services

import (
	"context"
	"errors"
	"time"

	"github.com/inkpost/blogapi/internal/store"
	"github.com/inkpost/blogapi/types"
)

// PostRepository defines persistence operations for posts.
type PostRepository interface {
	List(ctx context.Context) ([]types.Post, error)
	GetBySlug(ctx context.Context, slug string) (types.Post, error)
	Create(ctx context.Context, post types.Post) (types.Post, error)
	Update(ctx context.Context, post types.Post) (types.Post, error)
	DeleteWithComments(ctx context.Context, id string) error
}

// PostService encapsulates post use-cases.
type PostService struct {
	repo   PostRepository
	events EventPublisher
	now    func() time.Time
}

func NewPostService(repo PostRepository, events EventPublisher) *PostService {
	return &PostService{
		repo:   repo,
		events: events,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *PostService) List(ctx context.Context) ([]types.Post, error) {
	return s.repo.List(ctx)
}

func (s *PostService) GetBySlug(ctx context.Context, slug string) (types.Post, error) {
	post, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Post{}, ErrPostNotFound
		}
		return types.Post{}, err
	}
	return post, nil
}

// Create stores a new post owned by owner. The slug comes from the title and
// must not already be taken.
func (s *PostService) Create(ctx context.Context, title, content string, publish bool, owner *types.Author) (types.Post, error) {
	if owner == nil || owner.ID == "" {
		return types.Post{}, ErrInvalidAuthor
	}

	slug := Slugify(title)
	if _, err := s.repo.GetBySlug(ctx, slug); err == nil {
		return types.Post{}, ErrDuplicateTitle
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.Post{}, err
	}

	post := types.Post{
		Title:    title,
		Slug:     slug,
		Content:  content,
		AuthorID: owner.ID,
	}
	post.ApplyPublish(publish, s.now())

	created, err := s.repo.Create(ctx, post)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return types.Post{}, ErrDuplicateTitle
		}
		return types.Post{}, err
	}

	emit(ctx, s.events, postEvent(types.EventPostCreated, created, s.now()))
	return created, nil
}

// Update merges patch over the post found at slug. A changed title
// regenerates the slug, which must not belong to another post.
func (s *PostService) Update(ctx context.Context, slug string, patch types.PostPatch) (types.Post, error) {
	existing, err := s.GetBySlug(ctx, slug)
	if err != nil {
		return types.Post{}, err
	}

	updated := existing
	if patch.Title != nil && *patch.Title != "" && *patch.Title != existing.Title {
		newSlug := Slugify(*patch.Title)
		dupe, err := s.repo.GetBySlug(ctx, newSlug)
		switch {
		case err == nil && dupe.ID != existing.ID:
			return types.Post{}, ErrDuplicateTitle
		case err != nil && !errors.Is(err, store.ErrNotFound):
			return types.Post{}, err
		}
		updated.Title = *patch.Title
		updated.Slug = newSlug
	}
	if patch.Content != nil {
		updated.Content = *patch.Content
	}
	if patch.Publish != nil {
		updated.ApplyPublish(*patch.Publish, s.now())
	}

	saved, err := s.repo.Update(ctx, updated)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrConflict):
			return types.Post{}, ErrDuplicateTitle
		case errors.Is(err, store.ErrNotFound):
			return types.Post{}, ErrPostNotFound
		}
		return types.Post{}, err
	}

	emit(ctx, s.events, postEvent(types.EventPostUpdated, saved, s.now()))
	return saved, nil
}

// Delete removes the post at slug together with all of its comments.
func (s *PostService) Delete(ctx context.Context, slug string) error {
	post, err := s.GetBySlug(ctx, slug)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteWithComments(ctx, post.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrPostNotFound
		}
		return err
	}

	emit(ctx, s.events, postEvent(types.EventPostDeleted, post, s.now()))
	return nil
}

func postEvent(kind string, post types.Post, at time.Time) types.Event {
	return types.Event{
		Type:       kind,
		PostID:     post.ID,
		Slug:       post.Slug,
		Status:     string(post.Status),
		OccurredAt: at,
	}
}
