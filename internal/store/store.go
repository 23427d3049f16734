// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/ashureev/hrdesk/internal/domain"
)

// Repository defines the interface for persisting chat, session, handbook and
// schema metadata.
type Repository interface {
	// SaveTurn appends one request/response exchange to the chat log.
	SaveTurn(ctx context.Context, turn *domain.ChatTurn) error

	// ConversationStats summarises the chat log for a session.
	ConversationStats(ctx context.Context, sessionID string) (domain.ConversationStats, error)

	// GetSessionContext retrieves a session context, or nil if none exists.
	GetSessionContext(ctx context.Context, sessionID string) (*domain.SessionContext, error)

	// SaveSessionContext creates or updates a session context.
	SaveSessionContext(ctx context.Context, sc domain.SessionContext) error

	// DeleteExpiredSessions removes session contexts idle for longer than ttl.
	DeleteExpiredSessions(ctx context.Context, ttl time.Duration) (int64, error)

	// SearchPolicy runs an FTS5 match expression over the handbook index.
	SearchPolicy(ctx context.Context, match string, limit int) ([]domain.PolicySection, error)

	// RecordPolicySearch logs a handbook search for analytics.
	RecordPolicySearch(ctx context.Context, query string, matched int) error

	// PolicyStats returns the most frequent handbook searches.
	PolicyStats(ctx context.Context, limit int) ([]domain.PolicySearchStat, error)

	// PolicyStatus reports the size of the handbook index.
	PolicyStatus(ctx context.Context) (domain.PolicyStatus, error)

	// ReplacePolicySections clears the handbook index and loads sections.
	ReplacePolicySections(ctx context.Context, sections []domain.PolicySection) (int, error)

	// SchemaTables lists the schema metadata rows ordered by table name.
	SchemaTables(ctx context.Context) ([]domain.TableInfo, error)

	// Relationships lists the recorded table relationships.
	Relationships(ctx context.Context) ([]domain.Relationship, error)

	// RefreshSchema rebuilds the schema metadata from the live catalog.
	RefreshSchema(ctx context.Context) error

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
