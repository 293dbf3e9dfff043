// Package health provides health check endpoints for the backend service.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ServiceStatus represents the status of a single dependency.
type ServiceStatus struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HealthResponse is the structured health check response.
type HealthResponse struct {
	Status    string                   `json:"status"`
	Timestamp string                   `json:"timestamp"`
	Services  map[string]ServiceStatus `json:"services"`
	Version   string                   `json:"version,omitempty"`
}

// ReadinessResponse is the readiness probe response.
type ReadinessResponse struct {
	Ready     bool   `json:"ready"`
	Timestamp string `json:"timestamp"`
}

// LivenessResponse is the liveness probe response.
type LivenessResponse struct {
	Alive     bool   `json:"alive"`
	Timestamp string `json:"timestamp"`
}

// Handler handles health check requests.
type Handler struct {
	mailConfigured bool
	redisClient    *redis.Client
	version        string
	timeout        time.Duration
	ready          bool
	mu             sync.RWMutex
}

// Config holds health handler configuration.
type Config struct {
	// MailConfigured reports whether SMTP credentials are present. The
	// form endpoints are useless without them, so health degrades.
	MailConfigured bool
	// RedisClient is checked only when the distributed rate limiter is in
	// use; nil skips the check.
	RedisClient *redis.Client
	Version     string
	Timeout     time.Duration
}

// NewHandler creates a new health check handler.
func NewHandler(cfg Config) *Handler {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	return &Handler{
		mailConfigured: cfg.MailConfigured,
		redisClient:    cfg.RedisClient,
		version:        cfg.Version,
		timeout:        timeout,
		ready:          true,
	}
}

// SetReady sets the readiness state of the service; flipped to false during
// graceful shutdown so load balancers drain traffic.
func (h *Handler) SetReady(ready bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ready = ready
}

// IsReady returns the current readiness state.
func (h *Handler) IsReady() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ready
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	services := make(map[string]ServiceStatus)
	overall := "healthy"

	if h.mailConfigured {
		services["mail"] = ServiceStatus{Status: "configured"}
	} else {
		services["mail"] = ServiceStatus{
			Status: "unconfigured",
			Error:  "SMTP credentials missing; form submissions are refused",
		}
		overall = "degraded"
	}

	if h.redisClient != nil {
		start := time.Now()
		if err := h.redisClient.Ping(ctx).Err(); err != nil {
			services["redis"] = ServiceStatus{Status: "unhealthy", Error: err.Error()}
			// Rate limiting fails open; the service still works.
			overall = "degraded"
		} else {
			services["redis"] = ServiceStatus{
				Status:  "healthy",
				Latency: time.Since(start).String(),
			}
		}
	}

	status := http.StatusOK
	if overall != "healthy" {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, HealthResponse{
		Status:    overall,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  services,
		Version:   h.version,
	})
}

// Readiness handles GET /health/ready.
func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	ready := h.IsReady()
	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, ReadinessResponse{
		Ready:     ready,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Liveness handles GET /health/live.
func (h *Handler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, LivenessResponse{
		Alive:     true,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
