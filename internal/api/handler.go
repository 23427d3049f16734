// Package api provides the health and admin HTTP handlers and shared JSON helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ashureev/hrdesk/internal/domain"
	"github.com/go-chi/chi/v5"
)

// AdminStore is the persistence surface behind the admin and health endpoints.
type AdminStore interface {
	SchemaTables(ctx context.Context) ([]domain.TableInfo, error)
	Relationships(ctx context.Context) ([]domain.Relationship, error)
	RefreshSchema(ctx context.Context) error
	PolicyStats(ctx context.Context, limit int) ([]domain.PolicySearchStat, error)
	PolicyStatus(ctx context.Context) (domain.PolicyStatus, error)
	Ping(ctx context.Context) error
}

// SchemaInvalidator drops cached schema text after a refresh.
type SchemaInvalidator interface {
	Invalidate()
}

// Handler serves the health and admin endpoints.
type Handler struct {
	repo    AdminStore
	cache   SchemaInvalidator
	version string
	now     func() time.Time
}

// NewHandler creates a new Handler. cache may be nil.
func NewHandler(repo AdminStore, cache SchemaInvalidator, version string) *Handler {
	return &Handler{
		repo:    repo,
		cache:   cache,
		version: version,
		now:     time.Now,
	}
}

// RegisterRoutes registers health and admin routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/health", h.HandleHealth)
	r.Route("/api/admin", func(r chi.Router) {
		r.Get("/schema", h.HandleSchema)
		r.Post("/refresh", h.HandleRefresh)
		r.Get("/policy/stats", h.HandlePolicyStats)
		r.Get("/policy/status", h.HandlePolicyStatus)
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"success": false, "error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]any{"success": false, "error": message})
}
