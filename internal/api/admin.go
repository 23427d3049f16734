package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ashureev/hrdesk/internal/domain"
	"github.com/ashureev/hrdesk/internal/prompt"
)

const (
	healthMessage   = "HR Chatbot API is running"
	policyStatsSize = 10
	pingTimeout     = 2 * time.Second
)

// HandleHealth handles GET /api/health.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	body := map[string]any{
		"success":   true,
		"status":    "ok",
		"message":   healthMessage,
		"version":   h.version,
		"timestamp": h.now().UTC().Format(time.RFC3339),
	}
	if err := h.repo.Ping(ctx); err != nil {
		slog.Error("Health check ping failed", "error", err)
		body["success"] = false
		body["status"] = "degraded"
		body["error"] = "database unreachable"
		JSON(w, http.StatusServiceUnavailable, body)
		return
	}
	JSON(w, http.StatusOK, body)
}

// HandleSchema handles GET /api/admin/schema.
func (h *Handler) HandleSchema(w http.ResponseWriter, r *http.Request) {
	schema, tables, err := h.compactSchema(r.Context())
	if err != nil {
		slog.Error("Schema read failed", "error", err)
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"schema":  schema,
		"tables":  tables,
	})
}

// HandleRefresh handles POST /api/admin/refresh.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.RefreshSchema(r.Context()); err != nil {
		slog.Error("Schema refresh failed", "error", err)
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	if h.cache != nil {
		h.cache.Invalidate()
	}

	schema, _, err := h.compactSchema(r.Context())
	if err != nil {
		slog.Error("Schema read failed", "error", err)
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Schema refreshed",
		"schema":  schema,
	})
}

func (h *Handler) compactSchema(ctx context.Context) (string, []string, error) {
	tables, err := h.repo.SchemaTables(ctx)
	if err != nil {
		return "", nil, err
	}
	rels, err := h.repo.Relationships(ctx)
	if err != nil {
		return "", nil, err
	}

	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name
	}
	return prompt.CompactSchema(tables, rels), names, nil
}

// HandlePolicyStats handles GET /api/admin/policy/stats.
func (h *Handler) HandlePolicyStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.PolicyStats(r.Context(), policyStatsSize)
	if err != nil {
		slog.Error("Policy stats failed", "error", err)
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"stats":   stats,
	})
}

type policyStatusResponse struct {
	Success bool `json:"success"`
	domain.PolicyStatus
}

// HandlePolicyStatus handles GET /api/admin/policy/status.
func (h *Handler) HandlePolicyStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.repo.PolicyStatus(r.Context())
	if err != nil {
		slog.Error("Policy status failed", "error", err)
		JSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"loaded":  false,
			"error":   err.Error(),
		})
		return
	}
	JSON(w, http.StatusOK, policyStatusResponse{Success: true, PolicyStatus: status})
}
