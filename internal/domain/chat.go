// Package domain contains core domain types for the hrdesk service.
package domain

import (
	"time"
)

// ChatTurn is one persisted request/response exchange. Turns are append-only.
type ChatTurn struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Message   string    `json:"message"`
	Response  string    `json:"response"`
	Statement *string   `json:"sql_executed,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ConversationStats summarises the turns persisted for one session.
type ConversationStats struct {
	TotalMessages   int        `json:"total_messages"`
	QueriesExecuted int        `json:"queries_executed"`
	FirstMessage    *time.Time `json:"first_message,omitempty"`
	LastMessage     *time.Time `json:"last_message,omitempty"`
}

// Message is a role-tagged entry of caller-supplied conversation history.
type Message struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}
