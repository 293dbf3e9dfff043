package gallery

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5"
)

// albumNamePattern restricts album names to what the club actually uses;
// anything else would let a request probe arbitrary bucket prefixes.
var albumNamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,100}$`)

// Handler serves the gallery endpoints.
type Handler struct {
	store  *Store
	logger *slog.Logger
}

// NewHandler creates a gallery Handler.
func NewHandler(store *Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{store: store, logger: logger}
}

// RegisterRoutes mounts the gallery endpoints on the given router.
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/gallery", h.ListAlbums)
	r.Get("/gallery/{album}", h.ListPhotos)
}

// ListAlbums handles GET /api/v1/gallery.
func (h *Handler) ListAlbums(w http.ResponseWriter, r *http.Request) {
	albums, err := h.store.Albums(r.Context())
	if err != nil {
		h.logger.Error("listing gallery albums", "error", err)
		writeJSON(w, http.StatusBadGateway, envelope{
			Success:   false,
			Message:   "The gallery is temporarily unavailable.",
			Timestamp: time.Now().UTC(),
		})
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		Success:   true,
		Data:      albums,
		Timestamp: time.Now().UTC(),
	})
}

// ListPhotos handles GET /api/v1/gallery/{album}.
func (h *Handler) ListPhotos(w http.ResponseWriter, r *http.Request) {
	album := chi.URLParam(r, "album")
	if !albumNamePattern.MatchString(album) {
		writeJSON(w, http.StatusNotFound, envelope{
			Success:   false,
			Message:   "album not found",
			Timestamp: time.Now().UTC(),
		})
		return
	}

	photos, err := h.store.Photos(r.Context(), album)
	switch {
	case errors.Is(err, ErrAlbumNotFound):
		writeJSON(w, http.StatusNotFound, envelope{
			Success:   false,
			Message:   "album not found",
			Timestamp: time.Now().UTC(),
		})
	case err != nil:
		h.logger.Error("listing gallery photos", "album", album, "error", err)
		writeJSON(w, http.StatusBadGateway, envelope{
			Success:   false,
			Message:   "The gallery is temporarily unavailable.",
			Timestamp: time.Now().UTC(),
		})
	default:
		writeJSON(w, http.StatusOK, envelope{
			Success:   true,
			Data:      photos,
			Timestamp: time.Now().UTC(),
		})
	}
}

type envelope struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message,omitempty"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
