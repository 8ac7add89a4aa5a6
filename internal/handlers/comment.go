package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/inkpost/blogapi/internal/services"
	"github.com/inkpost/blogapi/types"
)

const (
	msgCommentNotFound    = "Comment not found."
	msgAuthorNameRequired = "Anonymous comments must include author name."
)

// CommentHandler provides HTTP handlers for the comments under a post.
type CommentHandler struct {
	comments *services.CommentService
}

func NewCommentHandler(comments *services.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

// CommentRouter registers comment routes. Writing and deleting comments is
// open to anonymous readers.
func CommentRouter(r chi.Router, handler *CommentHandler) {
	r.Get("/posts/{slug}/comments", handler.ListComments)
	r.Post("/posts/{slug}/comments", handler.CreateComment)
	r.Delete("/posts/{slug}/comments/{commentID}", handler.DeleteComment)
}

func (h *CommentHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.comments.ListForPost(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeCommentError(w, r, err, "list comments")
		return
	}
	if comments == nil {
		comments = []types.Comment{}
	}
	writeJSON(w, http.StatusOK, comments)
}

func (h *CommentHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	var req CreateCommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var author types.CommentAuthor = types.Anonymous{Name: req.Name()}
	if principal, ok := AuthorFromContext(r.Context()); ok {
		author = types.Authenticated{AuthorID: principal.ID, DisplayName: principal.Name}
	}

	created, err := h.comments.Create(r.Context(), chi.URLParam(r, "slug"), req.Content, author)
	if err != nil {
		h.writeCommentError(w, r, err, "create comment")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *CommentHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	err := h.comments.Delete(r.Context(), chi.URLParam(r, "slug"), chi.URLParam(r, "commentID"))
	if err != nil {
		h.writeCommentError(w, r, err, "delete comment")
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: "Comment deleted successfully!"})
}

func (h *CommentHandler) writeCommentError(w http.ResponseWriter, r *http.Request, err error, op string) {
	switch {
	case errors.Is(err, services.ErrPostNotFound):
		writeError(w, http.StatusNotFound, msgPostNotFound)
	case errors.Is(err, services.ErrCommentNotFound):
		writeError(w, http.StatusNotFound, msgCommentNotFound)
	case errors.Is(err, services.ErrAuthorNameRequired):
		writeError(w, http.StatusBadRequest, msgAuthorNameRequired)
	default:
		writeInternal(w, r, op, err)
	}
}

// CreateCommentRequest carries the anonymous author as authorName. The
// snake_case author_name key is read when authorName is empty.
type CreateCommentRequest struct {
	Content       string `json:"content"`
	AuthorName    string `json:"authorName"`
	AuthorNameAlt string `json:"author_name"`
}

func (req CreateCommentRequest) Name() string {
	if strings.TrimSpace(req.AuthorName) != "" {
		return req.AuthorName
	}
	return req.AuthorNameAlt
}

func (req CreateCommentRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Content, validation.Required),
	)
}
