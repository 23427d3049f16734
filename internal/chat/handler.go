package chat

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/ashureev/hrdesk/internal/api"
	"github.com/ashureev/hrdesk/internal/domain"
	"github.com/ashureev/hrdesk/internal/role"
	"github.com/ashureev/hrdesk/internal/session"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// defaultMaxRequestBodySize is the default maximum allowed request body size (1MB).
const defaultMaxRequestBodySize = 1 << 20 // 1MB

// HandlerConfig tunes the HTTP surface.
type HandlerConfig struct {
	MaxRequestBodySize int64
	RateLimitRequests  int
	RateLimitWindow    time.Duration
}

// Handler serves the chat endpoints, one pipeline per route.
type Handler struct {
	pipelines   map[string]*Pipeline // profile name -> pipeline
	sessions    SessionStore
	stats       StatsReader
	locks       sessionLocks
	rateLimiter *RateLimiter
	log         ConversationLogger
	maxBodySize int64
}

// NewHandler creates a chat handler over the given pipelines.
func NewHandler(pipelines []*Pipeline, sessions SessionStore, stats StatsReader, conversationLogger ConversationLogger, cfg HandlerConfig) *Handler {
	if conversationLogger == nil {
		conversationLogger = noopConversationLogger{}
	}
	if cfg.MaxRequestBodySize <= 0 {
		cfg.MaxRequestBodySize = defaultMaxRequestBodySize
	}
	if cfg.RateLimitRequests <= 0 {
		cfg.RateLimitRequests = 20
	}
	if cfg.RateLimitWindow <= 0 {
		cfg.RateLimitWindow = time.Minute
	}

	byName := make(map[string]*Pipeline, len(pipelines))
	for _, p := range pipelines {
		byName[p.Profile().Name] = p
	}

	return &Handler{
		pipelines:   byName,
		sessions:    sessions,
		stats:       stats,
		rateLimiter: NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		log:         conversationLogger,
		maxBodySize: cfg.MaxRequestBodySize,
	}
}

// RegisterRoutes registers chat routes. Routes whose profile has no pipeline are skipped.
func (h *Handler) RegisterRoutes(r chi.Router) {
	routes := []struct {
		path    string
		profile string
	}{
		{"/api/chat", role.Standard},
		{"/api/manager", role.Manager},
		{"/api/chat/hr", role.HR},
	}
	for _, rt := range routes {
		if p, ok := h.pipelines[rt.profile]; ok {
			r.Post(rt.path, h.chatHandler(p))
		}
	}
	r.Get("/api/session/stats", h.HandleSessionStats)
}

func (h *Handler) chatHandler(p *Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.handleChat(w, r, p)
	}
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request, p *Pipeline) {
	sessionID := session.IDFromContext(r.Context())
	if sessionID == "" {
		api.Error(w, http.StatusUnauthorized, "no session")
		return
	}

	// Keyed on the client address; session ids are minted per cookie-less request.
	if !h.rateLimiter.Allow(clientKey(r)) {
		rateLimitedTotal.Inc()
		api.Error(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	unlock := h.locks.Lock(sessionID)
	defer unlock()

	sc, err := h.loadSession(r, sessionID)
	if err != nil {
		slog.Error("Failed to load session context", "session_id", sessionID, "error", err)
		api.Error(w, http.StatusInternalServerError, "failed to load session")
		return
	}

	profile := p.Profile()
	reqID := chiMiddleware.GetReqID(r.Context())
	caller := req.HRID
	if caller == "" {
		caller = req.HREmail
	}

	slog.Info("Chat request",
		"session_id", sessionID,
		"role", profile.Name,
		"message_length", len(req.Message),
		"history", len(req.History),
	)
	h.log.Log(ConversationLogEvent{
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		SessionID:  sessionID,
		Profile:    profile.Name,
		Caller:     caller,
		Direction:  "inbound",
		EventType:  "chat_user_message",
		ContentRaw: req.Message,
		Content:    cleanForReadability(req.Message),
		Meta: map[string]any{
			"request_id": reqID,
		},
	})

	result, updated := p.Handle(r.Context(), sc, req)

	if result.Outcome != OutcomeInvalid {
		if err := h.sessions.SaveSessionContext(r.Context(), updated); err != nil {
			slog.Error("Failed to save session context", "session_id", sessionID, "error", err)
		}
	}

	content := result.Body.Response
	if !result.Body.Success {
		content = result.Body.Error
	}
	h.log.Log(ConversationLogEvent{
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		SessionID:  sessionID,
		Profile:    profile.Name,
		Caller:     caller,
		Direction:  "outbound",
		EventType:  "chat_assistant_message",
		ContentRaw: content,
		Content:    cleanForReadability(content),
		Meta: map[string]any{
			"request_id": reqID,
			"outcome":    string(result.Outcome),
			"tier":       string(result.Tier),
			"sql":        result.Body.SQL,
			"status":     result.Status,
		},
	})

	api.JSON(w, result.Status, result.Body)
}

// clientKey returns the caller's IP. RemoteAddr has already been rewritten by
// chi's RealIP when the server sits behind a proxy.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (h *Handler) loadSession(r *http.Request, sessionID string) (domain.SessionContext, error) {
	stored, err := h.sessions.GetSessionContext(r.Context(), sessionID)
	if err != nil {
		return domain.SessionContext{}, err
	}
	if stored == nil {
		return domain.NewSessionContext(sessionID), nil
	}
	return *stored, nil
}

// HandleSessionStats handles GET /api/session/stats.
func (h *Handler) HandleSessionStats(w http.ResponseWriter, r *http.Request) {
	sessionID := session.IDFromContext(r.Context())
	stats, err := h.stats.ConversationStats(r.Context(), sessionID)
	if err != nil {
		slog.Error("Stats query failed", "session_id", sessionID, "error", err)
		api.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	api.JSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"sessionId": sessionID,
		"stats":     stats,
	})
}

// Close releases handler resources.
func (h *Handler) Close() {
	h.rateLimiter.Close()
	if h.log != nil {
		if err := h.log.Close(); err != nil {
			slog.Warn("failed to close conversation logger", "error", err)
		}
	}
}
