package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/inkpost/blogapi/internal/services"
)

const (
	formFieldFile      = "file"
	maxMultipartMemory = 32 << 20
	msgMediaDisabled   = "media storage is not configured"
)

// MediaHandler uploads and serves media files. A nil service means no
// storage backend is configured and every route answers 503.
type MediaHandler struct {
	media *services.MediaService
}

func NewMediaHandler(media *services.MediaService) *MediaHandler {
	return &MediaHandler{media: media}
}

func MediaRouter(r chi.Router, handler *MediaHandler) {
	r.With(RequireAuth).Post("/admin/media", handler.Upload)
	r.With(RequireAuth).Delete("/admin/media/*", handler.Delete)
	r.Get("/media/*", handler.Serve)
}

func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.media == nil {
		writeError(w, http.StatusServiceUnavailable, msgMediaDisabled)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, services.MaxMediaSize+(1<<20))
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile(formFieldFile)
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	media, err := h.media.Upload(r.Context(), header.Filename, header.Header.Get("Content-Type"), file, header.Size)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMediaEmpty), errors.Is(err, services.ErrMediaTooLarge):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeInternal(w, r, "upload media", err)
		}
		return
	}
	writeJSON(w, http.StatusCreated, media)
}

func (h *MediaHandler) Serve(w http.ResponseWriter, r *http.Request) {
	if h.media == nil {
		writeError(w, http.StatusServiceUnavailable, msgMediaDisabled)
		return
	}

	obj, err := h.media.Open(r.Context(), "media/"+chi.URLParam(r, "*"))
	if err != nil {
		if errors.Is(err, services.ErrMediaNotFound) {
			writeError(w, http.StatusNotFound, "Media not found.")
			return
		}
		writeInternal(w, r, "open media", err)
		return
	}
	defer obj.Close()

	if obj.ContentType != "" {
		w.Header().Set("Content-Type", obj.ContentType)
	}
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, obj)
}

func (h *MediaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.media == nil {
		writeError(w, http.StatusServiceUnavailable, msgMediaDisabled)
		return
	}

	if err := h.media.Delete(r.Context(), "media/"+chi.URLParam(r, "*")); err != nil {
		if errors.Is(err, services.ErrMediaNotFound) {
			writeError(w, http.StatusNotFound, "Media not found.")
			return
		}
		writeInternal(w, r, "delete media", err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: "Media deleted successfully!"})
}
