package content

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// Handler serves the read-only content endpoints.
type Handler struct {
	store *Store
}

// NewHandler creates a content Handler.
func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes mounts the content endpoints on the given router.
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/events", h.ListEvents)
	r.Get("/news", h.ListNews)
	r.Get("/members", h.ListMembers)
	r.Get("/pages/{slug}", h.GetPage)
}

// ListEvents handles GET /api/v1/events.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, h.store.Events())
}

// ListNews handles GET /api/v1/news.
func (h *Handler) ListNews(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, h.store.News())
}

// ListMembers handles GET /api/v1/members.
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, h.store.Members())
}

// GetPage handles GET /api/v1/pages/{slug}.
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	page, ok := h.store.Page(chi.URLParam(r, "slug"))
	if !ok {
		writeJSON(w, http.StatusNotFound, envelope{
			Success:   false,
			Message:   "page not found",
			Timestamp: time.Now().UTC(),
		})
		return
	}
	writeData(w, http.StatusOK, page)
}

type envelope struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message,omitempty"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
