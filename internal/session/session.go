// Package session issues the per-client chat session id and expires idle sessions.
package session

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/google/uuid"
)

const (
	CookieName   = "hrdesk_sid"
	HeaderName   = "X-HRDesk-Session-ID"
	idPrefix     = "chat_"
	cookieMaxAge = 24 * time.Hour
)

type contextKey int

const sessionIDKey contextKey = iota

var sessionIDPattern = regexp.MustCompile(`^chat_[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// IDFromContext extracts the session id from the request context.
func IDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(sessionIDKey).(string); ok {
		return v
	}
	return ""
}

// WithID returns a context carrying sessionID.
func WithID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// NewID generates a fresh session id.
func NewID() string {
	return idPrefix + uuid.NewString()
}

// IsValidID reports whether id has the shape produced by NewID.
func IsValidID(id string) bool {
	return sessionIDPattern.MatchString(id)
}

func sessionIDFromRequest(r *http.Request) string {
	if sid := r.Header.Get(HeaderName); IsValidID(sid) {
		return sid
	}
	if c, err := r.Cookie(CookieName); err == nil && IsValidID(c.Value) {
		return c.Value
	}
	return ""
}

// Middleware attaches a session id to every request, issuing a cookie for
// clients that do not present a valid one. The cookie is refreshed on use.
func Middleware(ttl time.Duration, isDev bool) func(http.Handler) http.Handler {
	if ttl <= 0 {
		ttl = cookieMaxAge
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid := sessionIDFromRequest(r)
			if sid == "" {
				sid = NewID()
			}

			http.SetCookie(w, &http.Cookie{
				Name:     CookieName,
				Value:    sid,
				Path:     "/",
				MaxAge:   int(ttl.Seconds()),
				Expires:  time.Now().Add(ttl),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
				Secure:   !isDev,
			})

			next.ServeHTTP(w, r.WithContext(WithID(r.Context(), sid)))
		})
	}
}
