package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/inkpost/blogapi/internal/services"
	"github.com/inkpost/blogapi/internal/session"
	"github.com/inkpost/blogapi/types"
)

const msgInvalidCredentials = "invalid email or password"

// AuthHandler serves login, logout and the current author, and resolves the
// session principal for every request.
type AuthHandler struct {
	auth     *services.AuthService
	sessions *session.Manager
}

func NewAuthHandler(auth *services.AuthService, sessions *session.Manager) *AuthHandler {
	return &AuthHandler{auth: auth, sessions: sessions}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, handler *AuthHandler) {
	r.Post("/login", handler.Login)
	r.Post("/logout", handler.Logout)
	r.With(RequireAuth).Get("/me", handler.Me)
}

// LoadPrincipal attaches the session's author to the request context. A
// request without a usable session continues unauthenticated; store faults
// answer 500.
func (h *AuthHandler) LoadPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := h.sessions.Load(r)
		if err != nil {
			if errors.Is(err, session.ErrNoSession) {
				next.ServeHTTP(w, r)
				return
			}
			writeInternal(w, r, "load session", err)
			return
		}

		author, err := h.auth.Deserialize(r.Context(), sess.AuthorID)
		if err != nil {
			if errors.Is(err, services.ErrNoIdentifier) || errors.Is(err, services.ErrUserNotFound) {
				next.ServeHTTP(w, r)
				return
			}
			writeInternal(w, r, "deserialize author", err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withAuthor(r.Context(), author)))
	})
}

// RequireAuth rejects requests that carry no logged-in author.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := AuthorFromContext(r.Context()); !ok {
			writeError(w, http.StatusUnauthorized, "Not authorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	author, err := h.auth.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrUnknownIdentifier) || errors.Is(err, services.ErrInvalidCredential) {
			writeError(w, http.StatusUnauthorized, msgInvalidCredentials)
			return
		}
		writeInternal(w, r, "authenticate", err)
		return
	}

	if _, err := h.sessions.Start(r.Context(), w, h.auth.Serialize(author)); err != nil {
		writeInternal(w, r, "start session", err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{Message: "Logged in successfully.", Author: author})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.End(r.Context(), w, r); err != nil {
		writeInternal(w, r, "end session", err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Logged out successfully."})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	author, _ := AuthorFromContext(r.Context())
	writeJSON(w, http.StatusOK, author)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req LoginRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Email, validation.Required),
		validation.Field(&req.Password, validation.Required),
	)
}

type LoginResponse struct {
	Message string       `json:"message"`
	Author  types.Author `json:"author"`
}
