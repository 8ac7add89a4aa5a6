package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/inkpost/blogapi/internal/services"
	"github.com/inkpost/blogapi/types"
)

const (
	msgPostNotFound      = "Post not found."
	msgDuplicateOnCreate = "A post with this title already exists!"
	msgDuplicateOnUpdate = "Another post with same title exists."
	msgInvalidAuthor     = "invalid author"
)

// PostHandler provides HTTP handlers for posts.
type PostHandler struct {
	posts *services.PostService
}

func NewPostHandler(posts *services.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

// PostRouter registers the public read routes and the authenticated admin
// routes for posts.
func PostRouter(r chi.Router, handler *PostHandler) {
	r.Get("/posts", handler.ListPosts)
	r.Get("/posts/{slug}", handler.GetPost)

	r.Route("/admin/posts", func(r chi.Router) {
		r.Use(RequireAuth)
		r.Post("/", handler.CreatePost)
		r.Put("/{slug}", handler.UpdatePost)
		r.Delete("/{slug}", handler.DeletePost)
	})
}

func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.List(r.Context())
	if err != nil {
		writeInternal(w, r, "list posts", err)
		return
	}
	if posts == nil {
		posts = []types.Post{}
	}
	writeJSON(w, http.StatusOK, posts)
}

func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writePostError(w, r, err, "get post")
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req CreatePostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var owner *types.Author
	if author, ok := AuthorFromContext(r.Context()); ok {
		owner = &author
	}

	created, err := h.posts.Create(r.Context(), req.Title, req.Content, req.Publish, owner)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDuplicateTitle):
			writeError(w, http.StatusBadRequest, msgDuplicateOnCreate)
		case errors.Is(err, services.ErrInvalidAuthor):
			writeError(w, http.StatusBadRequest, msgInvalidAuthor)
		default:
			writeInternal(w, r, "create post", err)
		}
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	var req UpdatePostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.posts.Update(r.Context(), chi.URLParam(r, "slug"), types.PostPatch{
		Title:   req.Title,
		Content: req.Content,
		Publish: req.Publish,
	})
	if err != nil {
		if errors.Is(err, services.ErrDuplicateTitle) {
			writeError(w, http.StatusBadRequest, msgDuplicateOnUpdate)
			return
		}
		h.writePostError(w, r, err, "update post")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	if err := h.posts.Delete(r.Context(), chi.URLParam(r, "slug")); err != nil {
		h.writePostError(w, r, err, "delete post")
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: "Post deleted successfully!"})
}

func (h *PostHandler) writePostError(w http.ResponseWriter, r *http.Request, err error, op string) {
	if errors.Is(err, services.ErrPostNotFound) {
		writeError(w, http.StatusNotFound, msgPostNotFound)
		return
	}
	writeInternal(w, r, op, err)
}

type CreatePostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Publish bool   `json:"publish"`
}

func (req CreatePostRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Title, validation.Required),
		validation.Field(&req.Content, validation.Required),
	)
}

// UpdatePostRequest fields are optional; omitted fields keep their value.
type UpdatePostRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
	Publish *bool   `json:"publish"`
}

func (req UpdatePostRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Title, validation.NilOrNotEmpty),
	)
}
