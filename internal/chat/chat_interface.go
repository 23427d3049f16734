package chat

import (
	"context"

	"github.com/ashureev/hrdesk/internal/domain"
	"github.com/ashureev/hrdesk/internal/policy"
	"github.com/ashureev/hrdesk/internal/prompt"
	"github.com/ashureev/hrdesk/internal/store"
)

// PolicyLookup ranks handbook sections for a question.
type PolicyLookup interface {
	Lookup(ctx context.Context, question string) []domain.PolicySection
}

// SchemaProvider returns the enhanced schema description for the system prompt.
type SchemaProvider interface {
	Enhanced(ctx context.Context) (string, error)
}

// TurnStore persists chat turns.
type TurnStore interface {
	SaveTurn(ctx context.Context, turn *domain.ChatTurn) error
}

// SessionStore loads and saves session contexts between requests.
type SessionStore interface {
	GetSessionContext(ctx context.Context, sessionID string) (*domain.SessionContext, error)
	SaveSessionContext(ctx context.Context, sc domain.SessionContext) error
}

// StatsReader summarises the persisted turns of a session.
type StatsReader interface {
	ConversationStats(ctx context.Context, sessionID string) (domain.ConversationStats, error)
}

var (
	_ PolicyLookup   = (*policy.Service)(nil)
	_ SchemaProvider = (*prompt.SchemaCache)(nil)
	_ TurnStore      = (store.Repository)(nil)
	_ SessionStore   = (store.Repository)(nil)
	_ StatsReader    = (store.Repository)(nil)
)
