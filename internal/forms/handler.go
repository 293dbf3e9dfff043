package forms

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/sonam-git/hscsonoma-backend/internal/security"
)

// maxBodySize bounds form payloads. The largest legitimate submission is a
// few kilobytes; anything bigger is abuse.
const maxBodySize = 64 << 10

// Client-facing messages. Security rejections share one generic message so
// the response does not reveal which check tripped.
const (
	msgAccepted         = "Thank you! Your submission has been received."
	msgRejected         = "Your submission could not be accepted. Please try again later."
	msgInvalidBody      = "The request body could not be read."
	msgValidation       = "Please correct the highlighted fields."
	msgUnavailable      = "We are unable to process submissions right now. Please try again later."
	msgTokenUnavailable = "Form tokens are not available."
)

// Handler serves the form endpoints.
type Handler struct {
	service *Service
	tokens  *security.TokenIssuer
	logger  *slog.Logger
}

// NewHandler creates a forms Handler.
func NewHandler(service *Service, tokens *security.TokenIssuer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, tokens: tokens, logger: logger}
}

// SubmitContact handles POST /api/v1/contact.
func (h *Handler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var req ContactRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.respond(w, r, h.service.SubmitContact(r.Context(), clientIP(r), req))
}

// SubmitMembership handles POST /api/v1/membership.
func (h *Handler) SubmitMembership(w http.ResponseWriter, r *http.Request) {
	var req MembershipRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.respond(w, r, h.service.SubmitMembership(r.Context(), clientIP(r), req))
}

// IssueToken handles GET /api/v1/forms/token. The frontend fetches a token
// when it renders a form and posts it back with the submission.
func (h *Handler) IssueToken(w http.ResponseWriter, r *http.Request) {
	if h.tokens == nil || !h.tokens.Enabled() {
		writeError(w, http.StatusNotFound, msgTokenUnavailable, nil)
		return
	}

	token, err := h.tokens.Issue()
	if err != nil {
		h.logger.Error("issuing form token", "error", err)
		writeError(w, http.StatusInternalServerError, msgUnavailable, nil)
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success:   true,
		Data:      map[string]string{"token": token},
		Timestamp: time.Now().UTC(),
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody, nil)
		return false
	}
	return true
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, APIResponse{
			Success:   true,
			Message:   msgAccepted,
			Timestamp: time.Now().UTC(),
		})
	case errors.Is(err, ErrSecurityRejected):
		writeError(w, http.StatusBadRequest, msgRejected, nil)
	case errors.Is(err, ErrMailNotConfigured):
		writeError(w, http.StatusInternalServerError, msgUnavailable, nil)
	default:
		var verr *ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, msgValidation, verr.Messages)
			return
		}
		h.logger.Error("form submission failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, msgUnavailable, nil)
	}
}

func writeError(w http.ResponseWriter, status int, message string, fieldErrors []string) {
	writeJSON(w, status, APIResponse{
		Success:   false,
		Message:   message,
		Errors:    fieldErrors,
		Timestamp: time.Now().UTC(),
	})
}

func writeJSON(w http.ResponseWriter, status int, body APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// clientIP extracts the submitter's address. The RealIP middleware has
// already folded X-Forwarded-For into RemoteAddr for trusted proxies.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
