package domain

import (
	"time"
)

// HistoryWindow is the maximum number of entries kept in each session history list.
const HistoryWindow = 5

// QueryRecord is a statement executed on behalf of the session.
type QueryRecord struct {
	Question  string    `json:"question"`
	Statement string    `json:"sql"`
	RowCount  int       `json:"rowCount"`
	Timestamp time.Time `json:"timestamp"`
}

// ResultRecord is a formatted answer returned to the session.
type ResultRecord struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	RowCount int    `json:"rowCount"`
}

// SessionContext holds the bounded conversational memory for one client session.
type SessionContext struct {
	SessionID       string         `json:"sessionId"`
	Role            string         `json:"role"`
	CallerID        string         `json:"hrId,omitempty"`
	CallerEmail     string         `json:"hrEmail,omitempty"`
	PreviousQueries []QueryRecord  `json:"previousQueries"`
	PreviousResults []ResultRecord `json:"previousResults"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// NewSessionContext returns an empty context for a freshly issued session id.
func NewSessionContext(sessionID string) SessionContext {
	now := time.Now()
	return SessionContext{
		SessionID: sessionID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// RecordQuery appends a query to the history, evicting the oldest entry once
// the window is exceeded. The receiver is a copy; the updated value is returned.
func (s SessionContext) RecordQuery(q QueryRecord) SessionContext {
	s.PreviousQueries = pushBounded(s.PreviousQueries, q, HistoryWindow)
	s.UpdatedAt = time.Now()
	return s
}

// RecordResult appends a formatted answer to the history with the same bound.
func (s SessionContext) RecordResult(r ResultRecord) SessionContext {
	s.PreviousResults = pushBounded(s.PreviousResults, r, HistoryWindow)
	s.UpdatedAt = time.Now()
	return s
}

// RecentQueries returns the last n queries from history.
func (s SessionContext) RecentQueries(n int) []QueryRecord {
	if n >= len(s.PreviousQueries) {
		return s.PreviousQueries
	}
	return s.PreviousQueries[len(s.PreviousQueries)-n:]
}

// pushBounded never aliases the input slice so copies of a context stay independent.
func pushBounded[T any](list []T, item T, limit int) []T {
	out := make([]T, 0, min(len(list)+1, limit))
	start := 0
	if len(list)+1 > limit {
		start = len(list) + 1 - limit
	}
	out = append(out, list[start:]...)
	return append(out, item)
}
